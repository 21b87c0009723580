// Package graph wires the per-turn pipeline as an Eino compose graph:
// context loading, classification, intent analysis, follow-up resolution,
// planning, execution and persistence.
package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/tabletalk/server/internal/assistant/graph/observers"
	"github.com/tabletalk/server/internal/assistant/model"
	"github.com/tabletalk/server/internal/assistant/oracle"
	logx "github.com/tabletalk/server/pkg/logger"
)

// Runner executes the compiled pipeline with the public TurnInput.
type Runner interface {
	Invoke(ctx context.Context, in model.TurnInput) (*model.TurnResult, error)
}

// Config holds everything needed to compose the full turn pipeline
// end-to-end. This is a convenience layer over GraphConfig that also
// constructs the oracle chat models.
type Config struct {
	APIKey          string
	BaseURL         string
	ClassifierModel model.ClassifierModelConfig
	AnalyzerModel   model.AnalyzerModelConfig
	Conversation    model.ConversationConfig
	Store           model.ConversationStore
	Engine          model.ExecutionEngine
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModels    *oracle.ChatModels
	Store         model.ConversationStore
	Engine        model.ExecutionEngine
	MaxTurns      int
	OracleTimeout time.Duration
}

// GraphBuilder handles the construction of the turn pipeline graph
type GraphBuilder struct {
	config     *GraphConfig
	classifier *oracle.Classifier
	analyzer   *oracle.Analyzer
	graph      *compose.Graph[model.TurnInput, *model.TurnResult]
}

type pipelineRunner struct {
	runnable compose.Runnable[model.TurnInput, *model.TurnResult]

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// sessionLock returns the mutex serializing turns for one session.
func (r *pipelineRunner) sessionLock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[sessionID] = l
	}
	return l
}

func (r *pipelineRunner) Invoke(ctx context.Context, in model.TurnInput) (*model.TurnResult, error) {
	// Turns within a session run one at a time so each resolver call sees
	// the previous turn's persisted intent. Different sessions proceed in
	// parallel.
	l := r.sessionLock(in.SessionID)
	l.Lock()
	defer l.Unlock()

	return r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
}

// BuildPipeline composes the oracle chat models, builds the graph, and
// returns a Runner.
func BuildPipeline(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("conversation store is nil")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("execution engine is nil")
	}

	cms, err := oracle.NewChatModels(ctx, oracle.ChatModelConfig{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		ClassifierCfg: &cfg.ClassifierModel,
		AnalyzerCfg:   &cfg.AnalyzerModel,
	})
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(cfg.Conversation.Oracle.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid oracle timeout %q: %w", cfg.Conversation.Oracle.Timeout, err)
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:    cms,
		Store:         cfg.Store,
		Engine:        cfg.Engine,
		MaxTurns:      cfg.Conversation.Context.MaxTurns,
		OracleTimeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Turn pipeline built successfully")
	return &pipelineRunner{runnable: runnable, locks: make(map[string]*sync.Mutex)}, nil
}

// BuildGraph constructs and returns the compiled turn pipeline graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, *model.TurnResult], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Classifier == nil || config.ChatModels.Analyzer == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.Store == nil || config.Engine == nil {
		return nil, fmt.Errorf("store or engine is nil")
	}

	usage := newUsageHook()
	builder := &GraphBuilder{
		config:     config,
		classifier: oracle.NewClassifier(config.ChatModels.Classifier, config.ChatModels.ClassifierModelName, config.OracleTimeout, usage),
		analyzer:   oracle.NewAnalyzer(config.ChatModels.Analyzer, config.ChatModels.AnalyzerModelName, config.OracleTimeout, usage),
		graph: compose.NewGraph[model.TurnInput, *model.TurnResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(NodeContextLoader,
		NewContextLoaderNode(b.config.Store, b.config.MaxTurns),
		compose.WithStatePreHandler(NewContextLoaderPreHandler()),
	)

	b.graph.AddLambdaNode(NodeClassifier,
		NewClassifierNode(b.classifier),
		compose.WithStatePostHandler(NewClassifierPostHandler()),
	)

	b.graph.AddLambdaNode(NodeCannedReply, NewCannedReplyNode())
	b.graph.AddLambdaNode(NodeAnalyzer, NewAnalyzerNode(b.analyzer))
	b.graph.AddLambdaNode(NodeResolver, NewResolverNode())
	b.graph.AddLambdaNode(NodePlanner, NewPlannerNode())
	b.graph.AddLambdaNode(NodeExecutor, NewExecutorNode(b.config.Engine))
	b.graph.AddLambdaNode(NodePersister, NewPersisterNode(b.config.Store))
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, NodeContextLoader},
		{NodeContextLoader, NodeClassifier},
		{NodeCannedReply, NodePersister},
		{NodeAnalyzer, NodeResolver},
		{NodeResolver, NodePlanner},
		{NodePlanner, NodeExecutor},
		{NodeExecutor, NodePersister},
		{NodePersister, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	chatBranch := compose.NewGraphBranch(
		NewChatCondition(),
		map[string]bool{
			NodeCannedReply: true,
			NodeAnalyzer:    true,
		},
	)
	if err := b.graph.AddBranch(NodeClassifier, chatBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding chat branch")
		return fmt.Errorf("error adding chat branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *model.TurnResult], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(20))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
