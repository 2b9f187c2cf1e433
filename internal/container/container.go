// Package container provides dependency injection for the txledger application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"time"

	"fjacquet/txledger/internal/api"
	"fjacquet/txledger/internal/categorizer"
	"fjacquet/txledger/internal/config"
	"fjacquet/txledger/internal/ingest"
	"fjacquet/txledger/internal/ledger"
	"fjacquet/txledger/internal/lexicon"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/metrics"
	"fjacquet/txledger/internal/suggest"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation: fields are private and only
// reachable through getters.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	store     *ledger.Store
	lexicon   *lexicon.Lexicon
	metrics   *metrics.Metrics
	engine    *ingest.Engine
	generator *suggest.Generator
	aiClient  *categorizer.GeminiClient
}

// Option customizes container construction.
type Option func(*options)

type options struct {
	logger logging.Logger
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewContainer creates and wires all application dependencies. It opens the
// database and, when database.auto_migrate is set, applies the schema.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	// Create logger first as it's needed by other components
	logger := o.logger
	if logger == nil {
		logger = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	}

	lex, err := lexicon.Load(cfg.Lexicon.File, logger)
	if err != nil {
		return nil, fmt.Errorf("error loading lexicon: %w", err)
	}

	store, err := ledger.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, ledger.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
	}, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	m := metrics.New()

	c := &Container{
		logger:  logger,
		config:  cfg,
		store:   store,
		lexicon: lex,
		metrics: m,
	}

	genOpts := []suggest.Option{suggest.WithMetrics(m)}
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		client, err := categorizer.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model,
			time.Duration(cfg.AI.TimeoutSeconds)*time.Second, logger)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("error creating AI client: %w", err)
		}
		c.aiClient = client
		genOpts = append(genOpts, suggest.WithStrategy(
			categorizer.NewAIStrategy(client, store, cfg.Classification.MaxConfidence, logger)))
		logger.Info("AI categorization enabled", logging.Field{Key: "model", Value: client.ModelVersion()})
	} else {
		logger.Info("AI categorization disabled")
	}

	c.engine = ingest.NewEngine(store, lex, cfg.Classification, logger, ingest.WithMetrics(m))
	c.generator = suggest.NewGenerator(store, cfg.Classification, logger, genOpts...)

	logger.Info("Container initialized successfully",
		logging.Field{Key: "driver", Value: store.Driver()},
		logging.Field{Key: "ai_enabled", Value: c.aiClient != nil})

	return c, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the ledger.
func (c *Container) GetStore() *ledger.Store {
	return c.store
}

// GetLexicon returns the loaded data tables.
func (c *Container) GetLexicon() *lexicon.Lexicon {
	return c.lexicon
}

// GetMetrics returns the metrics registry shared by all components.
func (c *Container) GetMetrics() *metrics.Metrics {
	return c.metrics
}

// GetEngine returns the ingestion engine.
func (c *Container) GetEngine() *ingest.Engine {
	return c.engine
}

// GetGenerator returns the batch suggestion generator.
func (c *Container) GetGenerator() *suggest.Generator {
	return c.generator
}

// GetAIClient returns the Gemini client, or nil when AI is disabled.
func (c *Container) GetAIClient() *categorizer.GeminiClient {
	return c.aiClient
}

// NewServer builds the HTTP API over the container's components.
func (c *Container) NewServer() *api.Server {
	return api.NewServer(c.engine, c.generator, c.store, c.store, c.metrics, c.logger)
}

// Close releases the database connection and the AI client.
func (c *Container) Close() error {
	var firstErr error
	if c.aiClient != nil {
		if err := c.aiClient.Close(); err != nil {
			firstErr = err
		}
	}
	if err := c.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	c.logger.Info("Container closed")
	return firstErr
}
