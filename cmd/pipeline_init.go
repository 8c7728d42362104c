package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/gateway"
	"github.com/sells-group/outreach-cli/internal/persist"
	"github.com/sells-group/outreach-cli/internal/pipeline"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/internal/vector"
	anthropicpkg "github.com/sells-group/outreach-cli/pkg/anthropic"
	"github.com/sells-group/outreach-cli/pkg/gemini"
	"github.com/sells-group/outreach-cli/pkg/notion"
	"github.com/sells-group/outreach-cli/pkg/openai"
	sfpkg "github.com/sells-group/outreach-cli/pkg/salesforce"
)

// pipelineEnv holds everything the run/batch/serve/mcp commands share.
type pipelineEnv struct {
	Store        store.Store   // nil when store.driver=none
	Index        *vector.Index // nil without a store
	Gateway      gateway.Gateway
	Orchestrator *pipeline.Orchestrator
}

// Close drains background persistence and releases the store.
func (pe *pipelineEnv) Close() {
	if pe.Orchestrator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Pipeline.PersistTimeout())
		if err := pe.Orchestrator.Wait(ctx); err != nil {
			zap.L().Warn("background persistence did not finish", zap.Error(err))
		}
		cancel()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates config and wires the gateway, store, vector index,
// persistence sink and orchestrator. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var geminiClient gemini.Client
	if cfg.Gemini.Key != "" {
		gc, err := gemini.NewClient(ctx, cfg.Gemini.Key,
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithEmbedModel(cfg.Gemini.EmbedModel),
			gemini.WithDimensions(cfg.Vector.Dimensions),
		)
		if err != nil {
			return nil, eris.Wrap(err, "init gemini")
		}
		geminiClient = gc
	}

	completer, err := initCompleter(geminiClient)
	if err != nil {
		return nil, err
	}
	gw := initGateway(completer)

	env := &pipelineEnv{Gateway: gw}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env.Store = st

	opts := []pipeline.Option{
		pipeline.WithPace(cfg.Pipeline.Pace()),
		pipeline.WithPersistTimeout(cfg.Pipeline.PersistTimeout()),
	}

	sinkOpts := []persist.Option{}
	if st != nil {
		env.Index = vector.NewIndex(st, initEmbedder(geminiClient))
		opts = append(opts, pipeline.WithStore(st))
		sinkOpts = append(sinkOpts, persist.WithStore(st), persist.WithIndex(env.Index))
	}
	if cfg.Notion.Token != "" && cfg.Notion.LeadDB != "" {
		leads, err := notion.NewLeadDB(cfg.Notion.Token, cfg.Notion.LeadDB)
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "init notion")
		}
		sinkOpts = append(sinkOpts, persist.WithNotion(leads))
	}
	sf, err := initSalesforce()
	if err != nil {
		env.Close()
		return nil, err
	}
	if sf != nil {
		sinkOpts = append(sinkOpts, persist.WithSalesforce(sf))
	}

	sink := persist.New(sinkOpts...)
	if targets := sink.Targets(); len(targets) > 0 {
		opts = append(opts, pipeline.WithSink(sink))
		zap.L().Info("persistence enabled", zap.Strings("targets", targets))
	}

	env.Orchestrator = pipeline.New(gw, opts...)
	zap.L().Info("pipeline ready",
		zap.String("provider", gw.Provider()),
		zap.String("store", cfg.Store.Driver),
	)
	return env, nil
}

// initCompleter picks the LLM backend named by gateway.provider.
func initCompleter(geminiClient gemini.Client) (gateway.Completer, error) {
	switch cfg.Gateway.Provider {
	case "anthropic":
		return gateway.NewAnthropicCompleter(anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model), nil
	case "openai":
		client := openai.NewClient(cfg.OpenAI.Key, openai.WithBaseURL(cfg.OpenAI.BaseURL), openai.WithModel(cfg.OpenAI.Model))
		return gateway.NewOpenAICompleter(client, cfg.OpenAI.Model), nil
	case "gemini":
		if geminiClient == nil {
			return nil, eris.New("gemini client is not initialized")
		}
		return gateway.NewGeminiCompleter(geminiClient, cfg.Gemini.Model), nil
	case "stub", "":
		return gateway.NewStubCompleter(), nil
	default:
		return nil, eris.Errorf("unsupported gateway provider: %s", cfg.Gateway.Provider)
	}
}

func initGateway(c gateway.Completer) *gateway.LLM {
	breakers := resilience.NewBreakers(resilience.BreakerConfig{
		FailureThreshold: cfg.Resilience.CircuitThreshold,
		ResetTimeout:     time.Duration(cfg.Resilience.CircuitResetSecs) * time.Second,
	})
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Gateway.MaxAttempts
	retry.InitialBackoff = time.Duration(cfg.Resilience.InitialBackoffMs) * time.Millisecond
	retry.OnRetry = func(attempt int, err error) {
		zap.L().Debug("gateway retry", zap.String("provider", c.Name()), zap.Int("attempt", attempt), zap.Error(err))
	}

	return gateway.New(c,
		gateway.WithTimeout(cfg.Gateway.Timeout()),
		gateway.WithRetry(retry),
		gateway.WithBreaker(breakers.Get(c.Name())),
	)
}

// initStore opens and migrates the configured store. It returns nil for
// store.driver=none.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "none":
		return nil, nil
	case "sqlite", "":
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = "outreach.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEmbedder uses Gemini embeddings when vector.enabled and falls back to
// local feature hashing otherwise.
func initEmbedder(geminiClient gemini.Client) vector.Embedder {
	if cfg.Vector.Enabled && geminiClient != nil {
		return vector.NewGenAIEmbedder(geminiClient)
	}
	return vector.NewHashEmbedder(0)
}

// initSalesforce returns nil when Salesforce is not configured.
func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, nil
	}
	return sfpkg.Connect(sfpkg.Credentials{
		ClientID: cfg.Salesforce.ClientID,
		Username: cfg.Salesforce.Username,
		KeyPath:  cfg.Salesforce.KeyPath,
		LoginURL: cfg.Salesforce.LoginURL,
	})
}
