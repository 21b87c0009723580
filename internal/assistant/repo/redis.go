// Package repo provides the conversation store implementations and the
// context summary built from stored turns.
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tabletalk/server/internal/assistant/model"
	errx "github.com/tabletalk/server/internal/core/error"
	logx "github.com/tabletalk/server/pkg/logger"
)

type RedisConversationStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisConversationStore(rdb redis.Cmdable, ttl time.Duration) *RedisConversationStore {
	return &RedisConversationStore{rdb: rdb, ttl: ttl}
}

func (r *RedisConversationStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:turns", sessionID)
}

func (r *RedisConversationStore) Append(ctx context.Context, turn model.ConversationTurn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", turn.SessionID).Msg("failed to marshal turn")
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := r.sessionKey(turn.SessionID)

	// append turn
	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push turn to redis")
		return errx.WrapStore(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapStore(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on session key")
		}
	}
	return nil
}

func (r *RedisConversationStore) LastResolvedIntent(ctx context.Context, sessionID string) (*model.ResolvedIntent, error) {
	turns, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return newestResolvedIntent(turns), nil
}

func (r *RedisConversationStore) History(ctx context.Context, sessionID string, n int) ([]model.ConversationTurn, error) {
	turns, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return tail(turns, n), nil
}

func (r *RedisConversationStore) Clear(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session turns from redis")
		return errx.WrapStore(err)
	}
	return nil
}

func (r *RedisConversationStore) load(ctx context.Context, sessionID string) ([]model.ConversationTurn, error) {
	key := r.sessionKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session turns from redis")
		return nil, errx.WrapStore(err)
	}

	turns := make([]model.ConversationTurn, 0, len(rows))
	for i, s := range rows {
		var t model.ConversationTurn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Int("index", i).Msg("failed to unmarshal turn")
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// newestResolvedIntent walks the log backwards for the most recent turn that
// carries a resolved intent. Rejected turns are stored without one, so they
// never shadow the last completed analysis.
func newestResolvedIntent(turns []model.ConversationTurn) *model.ResolvedIntent {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].ResolvedIntent != nil {
			return turns[i].ResolvedIntent
		}
	}
	return nil
}

func tail(turns []model.ConversationTurn, n int) []model.ConversationTurn {
	if n <= 0 || len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

var _ model.ConversationStore = (*RedisConversationStore)(nil)
