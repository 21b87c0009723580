package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/tabletalk/server/internal/assistant/dataset"
	"github.com/tabletalk/server/internal/assistant/engine"
	"github.com/tabletalk/server/internal/assistant/graph"
	"github.com/tabletalk/server/internal/assistant/model"
	"github.com/tabletalk/server/internal/assistant/repo"
	"github.com/tabletalk/server/internal/core"
	logx "github.com/tabletalk/server/pkg/logger"
	pkgredis "github.com/tabletalk/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the assistant, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Assistant configs
	Classifier   model.ClassifierModelConfig
	Analyzer     model.AnalyzerModelConfig
	Conversation model.ConversationConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.FromEnv()})

	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <dataset.csv>", os.Args[0])
	}
	table, err := dataset.LoadCSVFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to load dataset %q: %v", os.Args[1], err)
	}
	fmt.Printf("Loaded dataset: %d rows, %d columns\n", table.RowCount(), len(table.Columns))

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}

	var store model.ConversationStore
	if envCfg.Redis.Enabled() {
		rdb, err := envCfg.Redis.New()
		if err != nil {
			log.Fatalf("Failed to initialise Redis client: %v", err)
		}
		defer rdb.Close()
		fmt.Println("Connected to Redis successfully")
		store = repo.NewRedisConversationStore(rdb, ttl)
	} else {
		fmt.Println("REDIS_URL not set; using in-memory conversation store")
		store = repo.NewMemoryConversationStore()
	}

	runner, err := graph.BuildPipeline(ctx, graph.Config{
		APIKey:          envCfg.APIKey,
		BaseURL:         envCfg.BaseURL,
		ClassifierModel: envCfg.Classifier,
		AnalyzerModel:   envCfg.Analyzer,
		Conversation:    envCfg.Conversation,
		Store:           store,
		Engine:          engine.NewDuckDB(),
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	testTurns := []struct {
		description string
		utterance   string
	}{
		{
			description: "Greeting before any analysis",
			utterance:   "Hello!",
		},
		{
			description: "Fresh grouped query",
			utterance:   "What are the top 5 regions by sales?",
		},
		{
			description: "Chart-type follow-up",
			utterance:   "Show that as a pie chart",
		},
		{
			description: "Bare-number limit follow-up",
			utterance:   "10",
		},
	}

	sessionID := uuid.NewString()

	for i, test := range testTurns {
		fmt.Printf("\nTurn %d: %s\n", i+1, test.description)
		fmt.Printf("User: %q\n", test.utterance)

		result, err := runner.Invoke(ctx, model.TurnInput{
			SessionID: sessionID,
			Utterance: test.utterance,
			Table:     table,
		})
		if err != nil {
			log.Fatalf("Failed to invoke pipeline for turn %d: %v", i+1, err)
		}

		fmt.Printf("Assistant [%s]: %s\n", result.Category, result.Answer)
		if result.Chart != nil {
			fmt.Printf("Chart: %s of %s by %s (%q)\n", result.Chart.Type, result.Chart.YKey, result.Chart.XKey, result.Chart.Title)
		}
		if result.CostUSD > 0 {
			fmt.Printf("Oracle cost: $%.6f\n", result.CostUSD)
		}
		fmt.Println("─────────────────────────────────────────────")

		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("All turns completed successfully!")
}
