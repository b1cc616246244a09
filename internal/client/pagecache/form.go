package pagecache

import (
	"fmt"
	"math"
	"sync"
)

// Form events that trigger a snapshot.
const (
	EventInput  = "input"
	EventChange = "change"
)

// Field is a named form control.
type Field interface {
	Name() string
	// Type is the input type, e.g. "text", "checkbox" or "radio".
	Type() string
	Value() string
	SetValue(v string)
	Checked() bool
	SetChecked(checked bool)
}

// Form is a set of fields that emits input and change events.
type Form interface {
	Fields() []Field
	On(event string, fn func()) (remove func())
}

// EnableFormAutoSave fills form with the values cached under path and
// formKey, then saves a snapshot of the form on every input or change
// event. A second call for the same form replaces the first. The returned
// teardown stops saving.
func (c *Cache) EnableFormAutoSave(path, formKey string, form Form) (teardown func()) {
	if cached, ok := c.FormCache(path, formKey); ok {
		replay(form, cached)
	}

	snapshot := func() {
		c.SaveFormCache(path, formKey, snapshotForm(form))
	}
	removeInput := form.On(EventInput, snapshot)
	removeChange := form.On(EventChange, snapshot)

	return c.register(c.forms, FormKey(path, formKey), func() {
		removeInput()
		removeChange()
	})
}

func replay(form Form, cached map[string]any) {
	for _, f := range form.Fields() {
		v, ok := cached[f.Name()]
		if !ok {
			continue
		}
		switch f.Type() {
		case "checkbox":
			f.SetChecked(truthy(v))
		case "radio":
			s, isString := v.(string)
			f.SetChecked(isString && s == f.Value())
		default:
			f.SetValue(stringify(v))
		}
	}
}

// snapshotForm collects the submittable values of form. Unchecked boxes
// and radios are left out; for repeated names the last value wins.
func snapshotForm(form Form) map[string]any {
	data := map[string]any{}
	for _, f := range form.Fields() {
		if f.Name() == "" {
			continue
		}
		switch f.Type() {
		case "checkbox", "radio":
			if !f.Checked() {
				continue
			}
			v := f.Value()
			if v == "" {
				v = "on"
			}
			data[f.Name()] = v
		default:
			data[f.Name()] = f.Value()
		}
	}
	return data
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// MemoryField is a Field held in memory.
type MemoryField struct {
	mu      sync.Mutex
	name    string
	typ     string
	value   string
	checked bool
}

// NewField returns a field of the given input type.
func NewField(name, typ, value string) *MemoryField {
	return &MemoryField{name: name, typ: typ, value: value}
}

func (f *MemoryField) Name() string { return f.name }
func (f *MemoryField) Type() string { return f.typ }

func (f *MemoryField) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *MemoryField) SetValue(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
}

func (f *MemoryField) Checked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checked
}

func (f *MemoryField) SetChecked(checked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = checked
}

// MemoryForm is a Form held in memory.
type MemoryForm struct {
	mu        sync.Mutex
	fields    []*MemoryField
	nextID    int
	listeners map[string]map[int]func()
}

// NewForm returns a form with fields in document order.
func NewForm(fields ...*MemoryField) *MemoryForm {
	return &MemoryForm{fields: fields, listeners: map[string]map[int]func(){}}
}

func (m *MemoryForm) Fields() []Field {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Field, len(m.fields))
	for i, f := range m.fields {
		out[i] = f
	}
	return out
}

func (m *MemoryForm) On(event string, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listeners[event] == nil {
		m.listeners[event] = map[int]func(){}
	}
	m.nextID++
	id := m.nextID
	m.listeners[event][id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners[event], id)
	}
}

// Field returns the first field named name.
func (m *MemoryForm) Field(name string) (*MemoryField, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.fields {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// Input sets the value of the first field named name and emits an input
// event.
func (m *MemoryForm) Input(name, value string) bool {
	f, ok := m.Field(name)
	if !ok {
		return false
	}
	f.SetValue(value)
	m.emit(EventInput)
	return true
}

// Check sets the checked state of the checkbox or radio named name with
// the given value and emits a change event. Checking a radio unchecks the
// rest of its group.
func (m *MemoryForm) Check(name, value string, checked bool) bool {
	m.mu.Lock()
	var target *MemoryField
	for _, f := range m.fields {
		if f.name == name && f.Value() == value {
			target = f
		}
	}
	fields := m.fields
	m.mu.Unlock()
	if target == nil {
		return false
	}
	if target.typ == "radio" && checked {
		for _, f := range fields {
			if f.name == name && f != target {
				f.SetChecked(false)
			}
		}
	}
	target.SetChecked(checked)
	m.emit(EventChange)
	return true
}

func (m *MemoryForm) emit(event string) {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.listeners[event]))
	for _, fn := range m.listeners[event] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Listeners returns the number of subscribers to event.
func (m *MemoryForm) Listeners(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners[event])
}
