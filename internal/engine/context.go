package engine

import "github.com/shaiso/Datahub/internal/steps"

// KeyMaterializedLocation — ключ context с адресом материализованного
// выхода последнего шага. nil, если последний шаг ничего не записал.
const KeyMaterializedLocation = "materialized_step_data_loc"

// Entry — одна запись в context.
type Entry struct {
	Seq   int    `json:"seq"`
	Step  string `json:"step"`
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Context — состояние одного run.
//
// Журнал записей только дополняется; чтение возвращает последнее
// значение ключа. Context принадлежит одному run и не разделяется между
// горутинами.
type Context struct {
	run    *steps.Run
	log    []Entry
	latest map[string]int
}

// NewContext создаёт context run'а. input_data и
// materialized_step_data_loc существуют всегда, изначально nil.
func NewContext(run *steps.Run) *Context {
	c := &Context{
		run:    run,
		latest: make(map[string]int),
	}
	c.Set("", steps.KeyInputData, nil)
	c.Set("", KeyMaterializedLocation, nil)
	return c
}

// Run возвращает данные run'а.
func (c *Context) Run() *steps.Run {
	return c.run
}

// Set добавляет запись key=value от имени шага step.
func (c *Context) Set(step, key string, value any) {
	c.latest[key] = len(c.log)
	c.log = append(c.log, Entry{Seq: len(c.log), Step: step, Key: key, Value: value})
}

// Get возвращает последнее значение ключа.
func (c *Context) Get(key string) (any, bool) {
	i, ok := c.latest[key]
	if !ok {
		return nil, false
	}
	return c.log[i].Value, true
}

// Value возвращает последнее значение ключа или nil.
func (c *Context) Value(key string) any {
	v, _ := c.Get(key)
	return v
}

// InputData возвращает выход последнего шага с Output.
func (c *Context) InputData() any {
	return c.Value(steps.KeyInputData)
}

// MaterializedLocation возвращает адрес материализованного выхода
// последнего шага.
func (c *Context) MaterializedLocation() (string, bool) {
	loc, ok := c.Value(KeyMaterializedLocation).(string)
	return loc, ok
}

// History возвращает копию журнала записей.
func (c *Context) History() []Entry {
	out := make([]Entry, len(c.log))
	copy(out, c.log)
	return out
}

// Snapshot возвращает текущие значения всех ключей.
func (c *Context) Snapshot() map[string]any {
	out := make(map[string]any, len(c.latest))
	for k, i := range c.latest {
		out[k] = c.log[i].Value
	}
	return out
}
