package undo

import "fmt"

// PropertyCommand records a property edit through its accessor pair.
type PropertyCommand[T any] struct {
	get         func() T
	set         func(T)
	oldValue    T
	newValue    T
	name        string
	significant bool
}

// NewPropertyCommand captures the current value as both the old and the
// new value. It is used after the property was already changed through
// other means and the caller supplies the previous value with WithOld.
func NewPropertyCommand[T any](get func() T, set func(T)) *PropertyCommand[T] {
	v := get()
	return &PropertyCommand[T]{get: get, set: set, oldValue: v, newValue: v, significant: true}
}

// NewPropertyCommandValue captures the current value as the old value, sets
// value and records it as the new value.
func NewPropertyCommandValue[T any](get func() T, set func(T), value T) *PropertyCommand[T] {
	c := &PropertyCommand[T]{get: get, set: set, oldValue: get(), newValue: value, significant: true}
	set(value)
	return c
}

// WithOld overrides the recorded old value.
func (c *PropertyCommand[T]) WithOld(v T) *PropertyCommand[T] {
	c.oldValue = v
	return c
}

// Named sets the label used in logs.
func (c *PropertyCommand[T]) Named(name string) *PropertyCommand[T] {
	c.name = name
	return c
}

// Insignificant marks the edit as not user-visible.
func (c *PropertyCommand[T]) Insignificant() *PropertyCommand[T] {
	c.significant = false
	return c
}

func (c *PropertyCommand[T]) Old() T { return c.oldValue }
func (c *PropertyCommand[T]) New() T { return c.newValue }

func (c *PropertyCommand[T]) Undo() error {
	c.set(c.oldValue)
	return nil
}

func (c *PropertyCommand[T]) Redo() error {
	c.set(c.newValue)
	return nil
}

func (c *PropertyCommand[T]) IsSignificant() bool { return c.significant }

func (c *PropertyCommand[T]) String() string {
	if c.name != "" {
		return c.name
	}
	var zero T
	return fmt.Sprintf("property(%T)", zero)
}
