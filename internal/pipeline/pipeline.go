// Package pipeline собирает движок обработки файлов из конфигурации:
// blob store, классификатор, парсеры, шаги, dispatcher, клиент
// workflow-сервиса и оркестратор. Используется воркером и CLI run.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/shaiso/Datahub/internal/blob"
	"github.com/shaiso/Datahub/internal/classifier"
	"github.com/shaiso/Datahub/internal/config"
	"github.com/shaiso/Datahub/internal/engine"
	"github.com/shaiso/Datahub/internal/orchestrator"
	"github.com/shaiso/Datahub/internal/parsers"
	"github.com/shaiso/Datahub/internal/remote"
	"github.com/shaiso/Datahub/internal/steps"
)

// Options — зависимости, которые зависят от бинарника.
type Options struct {
	// Store — готовый blob store; nil — открыть по cfg.Storage.
	Store blob.Store

	// Publisher — для шага publish_data; может быть nil.
	Publisher steps.Publisher

	// Observer — локальная история шагов; может быть nil.
	Observer orchestrator.Observer

	Logger *slog.Logger
}

// Pipeline — собранный движок.
type Pipeline struct {
	Store        blob.Store
	Steps        *steps.Registry
	Orchestrator *orchestrator.Orchestrator
}

// New собирает Pipeline. Ошибки конфигурации парсеров и шагов фатальны.
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := opts.Store
	if store == nil {
		var err error
		if store, err = blob.Open(cfg.Storage, logger); err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
	}

	parserReg, err := parsers.Default(cfg.Engine.SupportedTypes, parsers.Options{
		MetadataSeparator: cfg.Engine.MetadataSeparator,
	})
	if err != nil {
		return nil, fmt.Errorf("parsers: %w", err)
	}

	stepReg, err := steps.NewRegistry(steps.DefaultDefinitions(), steps.Builtin(steps.Deps{
		Store:     store,
		Parsers:   parserReg,
		Buckets:   cfg.Buckets,
		Engine:    cfg.Engine,
		Publisher: opts.Publisher,
		Logger:    logger,
	}))
	if err != nil {
		return nil, fmt.Errorf("steps: %w", err)
	}

	orch := orchestrator.New(orchestrator.Config{
		Classifier: classifier.New(classifier.Config{
			Store:          store,
			RawBucket:      cfg.Buckets.Raw,
			SupportedTypes: cfg.Engine.SupportedTypes,
			Logger:         logger,
		}),
		Workflow: remote.NewClient(cfg.Remote, nil, logger),
		Registry: stepReg,
		Dispatcher: engine.New(engine.Config{
			Registry: stepReg,
			Store:    store,
			Bucket:   cfg.Buckets.Materialized,
			Prefix:   cfg.Engine.MaterializePrefix,
			Logger:   logger,
		}),
		Store:    store,
		Buckets:  cfg.Buckets,
		Engine:   cfg.Engine,
		Observer: opts.Observer,
		Logger:   logger,
	})

	logger.Info("pipeline ready",
		"storage", cfg.Storage.Backend,
		"supported_types", cfg.Engine.SupportedTypes,
		"steps", stepReg.Names(),
		"strict_steps", cfg.Engine.StrictSteps,
	)

	return &Pipeline{Store: store, Steps: stepReg, Orchestrator: orch}, nil
}
