package steps

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ValidationError — ошибка определения шага с контекстом.
type ValidationError struct {
	Step    string // имя шага
	Field   string // поле определения
	Message string
	Err     error
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Step != "" {
		return "step " + e.Step + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Registry — статическая карта имя шага → Definition и
// capability → Func.
//
// Строится один раз при старте и дальше только читается, поэтому
// разделяется между run'ами без блокировок.
type Registry struct {
	defs  map[string]Definition
	funcs map[Capability]Func
}

// NewRegistry проверяет определения и строит registry.
//
// Ошибки (все фатальны для старта):
//   - пустое имя или дубликат
//   - capability вне закрытого набора или без функции
//   - Materialize без Output
func NewRegistry(defs []Definition, funcs map[Capability]Func) (*Registry, error) {
	r := &Registry{
		defs:  make(map[string]Definition, len(defs)),
		funcs: make(map[Capability]Func, len(funcs)),
	}

	for c, fn := range funcs {
		if !slices.Contains(Capabilities, c) || fn == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCapability, c)
		}
		r.funcs[c] = fn
	}

	var errs []error
	for _, d := range defs {
		if err := r.validate(d); err != nil {
			errs = append(errs, err)
			continue
		}
		r.defs[d.Name] = d
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return r, nil
}

func (r *Registry) validate(d Definition) error {
	if d.Name == "" {
		return &ValidationError{Field: "name", Message: "empty step name", Err: ErrEmptyStepName}
	}
	if _, ok := r.defs[d.Name]; ok {
		return &ValidationError{Step: d.Name, Field: "name", Message: "duplicate definition", Err: ErrDuplicateStep}
	}
	if _, ok := r.funcs[d.Capability]; !ok {
		return &ValidationError{
			Step:    d.Name,
			Field:   "capability",
			Message: fmt.Sprintf("capability %q has no function", d.Capability),
			Err:     ErrUnknownCapability,
		}
	}
	if d.Materialize && d.Output == "" {
		return &ValidationError{
			Step:    d.Name,
			Field:   "output",
			Message: "materialize is set but output key is empty",
			Err:     ErrMaterializeWithoutOutput,
		}
	}
	return nil
}

// Lookup возвращает определение шага по имени.
func (r *Registry) Lookup(name string) (Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownStep, name)
	}
	return d, nil
}

// Resolve возвращает определение шага. Для незарегистрированного имени
// строится определение без входов и выходов с capability, равной имени:
// dispatcher превратит неизвестную capability в пустой результат.
func (r *Registry) Resolve(name string) Definition {
	if d, ok := r.defs[name]; ok {
		return d
	}
	return Definition{Name: name, Capability: Capability(name)}
}

// Func возвращает функцию capability.
func (r *Registry) Func(c Capability) (Func, bool) {
	fn, ok := r.funcs[c]
	return fn, ok
}

// Known сообщает, будет ли шаг с этим именем что-то выполнять.
func (r *Registry) Known(name string) bool {
	if _, ok := r.defs[name]; ok {
		return true
	}
	_, ok := r.funcs[Capability(name)]
	return ok
}

// Validate проверяет список имён шагов workflow (strict mode).
// Возвращает ErrUnknownStep со всеми неизвестными именами.
func (r *Registry) Validate(names []string) error {
	var unknown []string
	for _, n := range names {
		if !r.Known(n) {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %v", ErrUnknownStep, unknown)
	}
	return nil
}

// Names возвращает отсортированный список зарегистрированных шагов.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
