package refectory

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Patch is a tri-state field in a partial update: absent (leave as is),
// cleared (null or blank string) or set to a value.
type Patch[T any] struct {
	Set   bool
	Clear bool
	Value T
}

// UnmarshalJSON only runs when the key is present in the payload, so an
// absent key keeps the zero Patch.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	*p = Patch[T]{}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		p.Clear = true
		return nil
	}

	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	if s, ok := any(v).(string); ok && strings.TrimSpace(s) == "" {
		p.Clear = true
		return nil
	}
	p.Set = true
	p.Value = v
	return nil
}

// SetTo returns a patch that assigns v
func SetTo[T any](v T) Patch[T] {
	return Patch[T]{Set: true, Value: v}
}

// Cleared returns a patch that clears the field
func Cleared[T any]() Patch[T] {
	return Patch[T]{Clear: true}
}

// Present reports whether the patch changes anything
func (p Patch[T]) Present() bool {
	return p.Set || p.Clear
}

// Resolve returns the field value after applying the patch to current
func (p Patch[T]) Resolve(current *T) *T {
	switch {
	case p.Clear:
		return nil
	case p.Set:
		v := p.Value
		return &v
	default:
		return current
	}
}

// Apply writes the resolved value back into *field
func Apply[T any](field **T, p Patch[T]) {
	*field = p.Resolve(*field)
}

// ApplyMenu applies every menu sub-field patch to m
func (mp MenuPatch) ApplyMenu(m *Menu) {
	Apply(&m.Breakfast, mp.Breakfast)
	Apply(&m.Lunch, mp.Lunch)
	Apply(&m.AfternoonSnack, mp.AfternoonSnack)
	Apply(&m.Dinner, mp.Dinner)
	Apply(&m.NightSnack, mp.NightSnack)
}
