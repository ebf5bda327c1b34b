package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/shaiso/Datahub/internal/domain"
	"github.com/shaiso/Datahub/internal/engine"
)

// Phase — фаза жизненного цикла run.
type Phase int

const (
	PhaseClassifying Phase = iota
	PhaseWorkflowFetched
	PhaseSessionOpen
	PhaseStep
	PhaseSessionClosed
	PhaseArchived
	PhaseDone
)

var phaseNames = [...]string{
	PhaseClassifying:     "CLASSIFYING",
	PhaseWorkflowFetched: "WORKFLOW_FETCHED",
	PhaseSessionOpen:     "SESSION_OPEN",
	PhaseStep:            "STEP",
	PhaseSessionClosed:   "SESSION_CLOSED",
	PhaseArchived:        "ARCHIVED",
	PhaseDone:            "DONE",
}

// String возвращает имя фазы.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// runState — состояние одного run в памяти.
//
// Создаётся в начале Run и удаляется после перехода в DONE. Phase и
// Step читаются из других горутин через stats, поэтому меняются под mu.
type runState struct {
	mu sync.Mutex

	RunID    string
	FilePath string
	Source   domain.SourceType

	// Phase — текущая фаза; Step — индекс текущего шага в PhaseStep.
	Phase Phase
	Step  int

	Workflow *domain.WorkflowDefinition
	Session  *domain.WorkflowSession
	Context  *engine.Context

	StartedAt time.Time
	Result    string
}

func newRunState(runID, filePath string, source domain.SourceType) *runState {
	return &runState{
		RunID:     runID,
		FilePath:  filePath,
		Source:    source,
		Phase:     PhaseClassifying,
		StartedAt: time.Now(),
	}
}

// advance переводит run в следующую фазу.
func (s *runState) advance(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Phase = p
}

// enterStep переводит run на шаг i.
func (s *runState) enterStep(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Phase = PhaseStep
	s.Step = i
}

// complete завершает run успешно.
func (s *runState) complete() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Phase = PhaseDone
	s.Result = domain.RunResultCompleted
	return s.Result
}

// fail завершает run с причиной.
func (s *runState) fail(err error) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Phase = PhaseDone
	s.Result = domain.RunResultFailed + ": " + err.Error()
	return s.Result
}

// RunStats — снимок активного run.
type RunStats struct {
	RunID    string
	FilePath string
	Phase    Phase
	Step     int
	Elapsed  time.Duration
}

func (s *runState) stats() RunStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RunStats{
		RunID:    s.RunID,
		FilePath: s.FilePath,
		Phase:    s.Phase,
		Step:     s.Step,
		Elapsed:  time.Since(s.StartedAt),
	}
}
