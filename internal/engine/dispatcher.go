package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/shaiso/Datahub/internal/blob"
	"github.com/shaiso/Datahub/internal/steps"
	"github.com/shaiso/Datahub/internal/telemetry"
)

// Config — настройки Dispatcher.
type Config struct {
	// Registry — функции capability.
	Registry *steps.Registry

	// Store — хранилище материализованных выходов.
	Store blob.Store

	// Bucket — bucket для материализации.
	Bucket string

	// Prefix — префикс ключей: <prefix>/<run_id>/<step_name>.
	Prefix string

	Logger *slog.Logger
}

// Dispatcher выполняет один шаг в context run'а.
type Dispatcher struct {
	registry *steps.Registry
	store    blob.Store
	bucket   string
	prefix   string
	logger   *slog.Logger
}

// New создаёт Dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "materialized"
	}
	return &Dispatcher{
		registry: cfg.Registry,
		store:    cfg.Store,
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		logger:   cfg.Logger.With("component", "dispatcher"),
	}
}

// Execute выполняет шаг def и возвращает его результат.
//
// Порядок:
//  1. materialized_step_data_loc сбрасывается в nil
//  2. аргументы берутся из rc по Inputs, иначе по Input, иначе аргументов нет
//  3. вызывается capability
//  4. результат пишется в Output и input_data, и в каждый ключ Extract
//  5. при Materialize результат записывается в blob store
//
// Ошибка, panic или неизвестная capability дают nil. Execute никогда
// не паникует и не возвращает ошибку.
func (d *Dispatcher) Execute(ctx context.Context, def steps.Definition, rc *Context, runID string) any {
	logger := telemetry.WithStep(telemetry.WithRunID(d.logger, runID), def.Name)

	rc.Set(def.Name, KeyMaterializedLocation, nil)

	start := time.Now()
	result, err := d.invoke(ctx, def, rc)
	telemetry.StepDuration.WithLabelValues(def.Name).Observe(time.Since(start).Seconds())
	telemetry.StepsTotal.WithLabelValues(def.Name, telemetry.Outcome(err)).Inc()

	if err != nil {
		logger.Error("step failed", "capability", def.Capability, "error", err)
		return nil
	}

	if def.Output != "" {
		rc.Set(def.Name, def.Output, result)
		rc.Set(def.Name, steps.KeyInputData, result)
	}
	for key := range def.Extract {
		rc.Set(def.Name, key, result)
	}

	if def.Materialize && result != nil {
		if loc, err := d.materialize(ctx, def.Name, runID, result); err != nil {
			logger.Error("failed to materialize step output", "error", err)
		} else {
			rc.Set(def.Name, KeyMaterializedLocation, loc)
			logger.Debug("step output materialized", "bucket", d.bucket, "key", loc)
		}
	}

	logger.Info("step executed", "duration", time.Since(start))
	return result
}

// invoke вызывает capability, перехватывая panic.
func (d *Dispatcher) invoke(ctx context.Context, def steps.Definition, rc *Context) (result any, err error) {
	fn, ok := d.registry.Func(def.Capability)
	if !ok {
		return nil, fmt.Errorf("%w: %s", steps.ErrUnknownCapability, def.Capability)
	}

	keys := def.ArgKeys()
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = rc.Value(k)
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
	}()

	return fn(ctx, rc.Run(), args)
}

func (d *Dispatcher) materialize(ctx context.Context, step, runID string, result any) (string, error) {
	key := path.Join(d.prefix, runID, step)

	body, err := blob.EncodeJSON(result)
	if err == nil {
		err = d.store.Put(ctx, d.bucket, key, body, blob.ContentTypeJSON)
	}
	telemetry.MaterializationsTotal.WithLabelValues(telemetry.Outcome(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("%w: %s/%s: %v", ErrMaterialize, d.bucket, key, err)
	}
	return key, nil
}
