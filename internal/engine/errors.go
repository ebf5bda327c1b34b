package engine

import "errors"

// Ошибки выполнения шагов. Наружу из Execute не выходят, только в лог.
var (
	// ErrStepPanicked — capability завершилась panic.
	ErrStepPanicked = errors.New("step panicked")

	// ErrMaterialize — не удалось записать выход шага в blob store.
	ErrMaterialize = errors.New("materialize step output")
)
