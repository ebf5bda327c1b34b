package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/shaiso/Datahub/internal/blob"
	"github.com/shaiso/Datahub/internal/classifier"
	"github.com/shaiso/Datahub/internal/config"
	"github.com/shaiso/Datahub/internal/domain"
	"github.com/shaiso/Datahub/internal/engine"
	"github.com/shaiso/Datahub/internal/remote"
	"github.com/shaiso/Datahub/internal/steps"
	"github.com/shaiso/Datahub/internal/telemetry"
)

// Classifier — первый шаг run.
type Classifier interface {
	Classify(ctx context.Context, filePath string, source domain.SourceType) (*classifier.Result, error)
}

// Workflow — внешний workflow-сервис.
type Workflow interface {
	FilterWorkflow(ctx context.Context, q remote.WorkflowQuery) (*domain.WorkflowDefinition, error)
	StartSession(ctx context.Context, req remote.SessionStartRequest) (*domain.WorkflowSession, error)
	FinishSession(ctx context.Context, req remote.SessionFinishRequest) error
	StartStep(ctx context.Context, req remote.StepStartRequest) (*domain.StepHistory, error)
	FinishStep(ctx context.Context, req remote.StepFinishRequest) error
}

// Observer получает события шагов run'а (для локального учёта).
type Observer interface {
	StepStarted(ctx context.Context, runID string, order int, step domain.WorkflowStep, historyID string)
	StepFinished(ctx context.Context, runID string, order int, step domain.WorkflowStep, location string)
}

// Config — конфигурация Orchestrator.
type Config struct {
	Classifier Classifier
	Workflow   Workflow
	Registry   *steps.Registry
	Dispatcher *engine.Dispatcher

	// Store и Buckets — для архивации raw файла.
	Store   blob.Store
	Buckets config.BucketsConfig

	// Engine — strict mode и раскладка архива.
	Engine config.EngineConfig

	// Observer — может быть nil.
	Observer Observer

	Logger *slog.Logger
}

// Orchestrator проводит файлы через workflow.
//
// Один вызов Run — один run, строго последовательный. Параллельные
// Run на одном Orchestrator безопасны: общие только registry и клиенты.
type Orchestrator struct {
	classifier Classifier
	workflow   Workflow
	registry   *steps.Registry
	dispatcher *engine.Dispatcher
	store      blob.Store
	buckets    config.BucketsConfig
	engine     config.EngineConfig
	observer   Observer
	logger     *slog.Logger

	// active — runs в процессе выполнения (runID → state).
	active map[string]*runState
	mu     sync.RWMutex
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Engine.OrderArchivePrefix == "" {
		cfg.Engine.OrderArchivePrefix = "orders"
	}
	if cfg.Engine.MasterArchivePrefix == "" {
		cfg.Engine.MasterArchivePrefix = "master_data"
	}

	return &Orchestrator{
		classifier: cfg.Classifier,
		workflow:   cfg.Workflow,
		registry:   cfg.Registry,
		dispatcher: cfg.Dispatcher,
		store:      cfg.Store,
		buckets:    cfg.Buckets,
		engine:     cfg.Engine,
		observer:   cfg.Observer,
		logger:     logger,
		active:     make(map[string]*runState),
	}
}

// Run выполняет файл filePath под идентификатором runID.
//
// Возвращает "completed" или "failed: <reason>". Ошибки шагов не
// прерывают run; прерывают только классификация, поиск workflow,
// открытие сессии и старт шага без history id.
func (o *Orchestrator) Run(ctx context.Context, filePath, runID string, source domain.SourceType) string {
	st := newRunState(runID, filePath, source)
	logger := telemetry.WithFile(telemetry.WithRunID(o.logger, runID), filePath)
	ctx = telemetry.WithLogger(ctx, logger)

	o.track(st)
	defer o.untrack(runID)

	result := o.run(ctx, st, logger)

	status := domain.RunResultCompleted
	if result != domain.RunResultCompleted {
		status = domain.RunResultFailed
	}
	telemetry.RunsTotal.WithLabelValues(status).Inc()
	logger.Info("run finished", "result", result, "duration", time.Since(st.StartedAt))

	return result
}

func (o *Orchestrator) run(ctx context.Context, st *runState, logger *slog.Logger) string {
	logger.Info("run started", "source", st.Source)

	// CLASSIFYING
	file, err := o.classifier.Classify(ctx, st.FilePath, st.Source)
	if err != nil {
		logger.Error("classification failed", "error", err)
		return st.fail(fmt.Errorf("%w: %v", ErrClassify, err))
	}
	logger.Info("file classified",
		"category", file.Category,
		"extension", file.Record.FileExtension,
		"size", file.Size,
	)

	st.Context = engine.NewContext(&steps.Run{
		ID:       st.RunID,
		FilePath: st.FilePath,
		Source:   st.Source,
		Record:   file.Record,
		Category: file.Category,
		Size:     file.Size,
		Content:  file.Content,
	})

	// WORKFLOW_FETCHED
	wf, err := o.workflow.FilterWorkflow(ctx, remote.WorkflowQuery{
		FilePath:      file.Record.ParentPath,
		FileName:      file.Record.FileName,
		FileExtension: file.Record.FileExtension,
	})
	if err != nil {
		logger.Error("failed to fetch workflow", "error", err)
		return st.fail(fmt.Errorf("%w: %v", ErrWorkflowNotFound, err))
	}
	st.Workflow = wf
	st.advance(PhaseWorkflowFetched)
	logger.Info("workflow fetched", "workflow_id", wf.ID, "name", wf.Name, "steps", len(wf.Steps))

	if o.engine.StrictSteps {
		if err := o.registry.Validate(wf.StepNames()); err != nil {
			logger.Error("workflow rejected", "error", err)
			return st.fail(fmt.Errorf("%w: %v", ErrUnknownSteps, err))
		}
	}

	// SESSION_OPEN
	session, err := o.workflow.StartSession(ctx, remote.SessionStartRequest{
		WorkflowID: wf.ID,
		RunID:      st.RunID,
		FilePath:   st.FilePath,
	})
	if err != nil {
		logger.Error("failed to start session", "error", err)
		return st.fail(fmt.Errorf("%w: %v", ErrSessionNotStarted, err))
	}
	st.Session = session
	st.advance(PhaseSessionOpen)
	logger.Info("session started", "session_id", session.ID)

	// STEP[i]
	for i, step := range wf.Steps {
		st.enterStep(i)
		if err := o.runStep(ctx, st, i, step); err != nil {
			logger.Error("run stopped", "step", step.Name, "error", err)
			return st.fail(err)
		}
	}

	// SESSION_CLOSED
	if err := o.workflow.FinishSession(ctx, remote.SessionFinishRequest{
		ID:   session.ID,
		Code: domain.ResultSuccess,
	}); err != nil {
		logger.Error("failed to finish session", "session_id", session.ID, "error", err)
	}
	st.advance(PhaseSessionClosed)

	// ARCHIVED
	o.archive(ctx, st, file, logger)
	st.advance(PhaseArchived)

	return st.complete()
}

// runStep выполняет шаг i. Ошибка возвращается только если сервис не
// выдал history id: без него нельзя отчитаться о шаге.
func (o *Orchestrator) runStep(ctx context.Context, st *runState, i int, step domain.WorkflowStep) error {
	logger := telemetry.WithStep(telemetry.FromContext(ctx), step.Name)

	history, err := o.workflow.StartStep(ctx, remote.StepStartRequest{
		SessionID: st.Session.ID,
		StepID:    step.StepID,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStepNotStarted, step.Name, err)
	}
	if o.observer != nil {
		o.observer.StepStarted(ctx, st.RunID, i, step, history.HistoryID)
	}

	def := o.registry.Resolve(step.Name)
	input := st.Context.InputData()
	output := o.dispatcher.Execute(ctx, def, st.Context, st.RunID)

	location, _ := st.Context.MaterializedLocation()
	if err := o.workflow.FinishStep(ctx, remote.StepFinishRequest{
		HistoryID:  history.HistoryID,
		Code:       domain.ResultSuccess,
		Message:    location,
		DataInput:  input,
		DataOutput: output,
	}); err != nil {
		logger.Error("failed to finish step", "history_id", history.HistoryID, "error", err)
	}
	if o.observer != nil {
		o.observer.StepFinished(ctx, st.RunID, i, step, location)
	}

	logger.Debug("step reported", "history_id", history.HistoryID, "location", location)
	return nil
}

// archive копирует raw файл в bucket категории. Ошибки только логируются.
func (o *Orchestrator) archive(ctx context.Context, st *runState, file *classifier.Result, logger *slog.Logger) {
	dst := o.archiveTarget(file)

	var err error
	switch st.Source {
	case domain.SourceLocal:
		err = o.store.PutFile(ctx, dst.Bucket, dst.Key, st.FilePath)
	default:
		_, err = o.store.Copy(ctx, blob.Object{Bucket: o.buckets.Raw, Key: st.FilePath}, dst)
	}
	if err != nil {
		logger.Error("failed to archive raw file", "destination", dst.String(), "error", err)
		return
	}
	logger.Info("raw file archived", "destination", dst.String())
}

// archiveTarget — MASTER_DATA: <master_prefix>/<stem>/<file> в master bucket,
// ORDER: <order_prefix>/<stem>/<file> в converted bucket.
func (o *Orchestrator) archiveTarget(file *classifier.Result) blob.Object {
	stem := file.Record.Stem()
	if file.Category == domain.CategoryMasterData {
		return blob.Object{
			Bucket: o.buckets.MasterData,
			Key:    path.Join(o.engine.MasterArchivePrefix, stem, file.Record.FileName),
		}
	}
	return blob.Object{
		Bucket: o.buckets.Converted,
		Key:    path.Join(o.engine.OrderArchivePrefix, stem, file.Record.FileName),
	}
}

// --- Active runs ---

func (o *Orchestrator) track(st *runState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active[st.RunID] = st
}

func (o *Orchestrator) untrack(runID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, runID)
}

// ActiveRuns возвращает снимки выполняющихся runs, по run id.
func (o *Orchestrator) ActiveRuns() []RunStats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]RunStats, 0, len(o.active))
	for _, st := range o.active {
		out = append(out, st.stats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunID < out[j].RunID })
	return out
}
