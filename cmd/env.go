package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/domain-cli/internal/batch"
	"github.com/sells-group/domain-cli/internal/config"
	"github.com/sells-group/domain-cli/internal/monitoring"
	"github.com/sells-group/domain-cli/internal/pipeline"
	"github.com/sells-group/domain-cli/internal/server"
	"github.com/sells-group/domain-cli/internal/store"
	"github.com/sells-group/domain-cli/pkg/searxng"
)

// pipelineEnv holds the initialized clients, the pipeline, and the batch
// engine needed by the lookup/enrich/batch/serve commands.
type pipelineEnv struct {
	Metrics  *monitoring.Metrics
	Gateway  *pipeline.Gateway
	Analyzer *pipeline.Disambiguator
	Pipeline *pipeline.Pipeline
	Engine   *batch.Engine
	Store    store.JobStore // nil when store.path is empty
}

// Close stops background jobs and releases the store.
func (pe *pipelineEnv) Close() {
	if pe.Engine != nil {
		pe.Engine.Close()
	}
	if pe.Store != nil {
		if err := pe.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// Health describes the configured backends for GET /health.
func (pe *pipelineEnv) Health() server.Health {
	return server.Health{
		SearchInstances: pe.Gateway.Instances(),
		AIProvider:      pe.Analyzer.Provider(),
		AIModel:         pe.Analyzer.Model(),
		AIConfigured:    aiConfigured(cfg.AI),
	}
}

func aiConfigured(c config.AIConfig) bool {
	if c.Provider == config.ProviderAnthropic {
		return c.AnthropicKey != ""
	}
	return c.Key != ""
}

// initPipeline validates the config for mode and wires every component.
// Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	metrics := monitoring.NewMetrics()

	clients := make([]searxng.Client, 0, len(cfg.Search.Instances))
	for _, u := range cfg.Search.Instances {
		clients = append(clients, searxng.NewClient(u, searxng.WithUserAgent(cfg.Search.UserAgent)))
	}
	gateway := pipeline.NewGateway(cfg.Search, clients, metrics)

	reasoner, err := pipeline.NewReasoner(cfg.AI)
	if err != nil {
		return nil, eris.Wrap(err, "init reasoner")
	}
	analyzer := pipeline.NewDisambiguator(cfg.AI, reasoner, metrics)
	verifier := pipeline.NewVerifier(cfg.Verify)

	env := &pipelineEnv{
		Metrics:  metrics,
		Gateway:  gateway,
		Analyzer: analyzer,
		Pipeline: pipeline.New(gateway, analyzer, verifier, metrics),
	}

	if mode == "lookup" {
		return env, nil
	}

	opts := []batch.Option{batch.WithMetrics(metrics)}
	if cfg.Store.Path != "" {
		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, eris.Wrap(err, "open job store")
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate job store")
		}
		env.Store = st
		opts = append(opts, batch.WithStore(st))
		zap.L().Info("job store ready", zap.String("path", cfg.Store.Path))
	}

	env.Engine = batch.NewEngine(cfg.Batch, env.Pipeline, opts...)
	if err := metrics.Registry().Register(monitoring.NewJobCollector(env.Engine)); err != nil {
		env.Close()
		return nil, eris.Wrap(err, "register job collector")
	}

	zap.L().Info("pipeline ready",
		zap.Strings("search_instances", gateway.Instances()),
		zap.String("ai_provider", analyzer.Provider()),
		zap.String("ai_model", analyzer.Model()),
	)
	return env, nil
}
