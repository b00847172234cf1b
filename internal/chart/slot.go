package chart

import (
	"errors"
	"html/template"
	"sync"
	"sync/atomic"
)

// ErrOwned is returned when a chart is placed into a second slot.
var ErrOwned = errors.New("chart: instance already owned by a slot")

var instanceSeq atomic.Uint64

// Instance is one rendered chart. It belongs to at most one slot and is
// unusable once disposed.
type Instance struct {
	ID     uint64
	Title  string
	Markup template.HTML

	mu       sync.Mutex
	owner    *Slot
	disposed bool
}

// NewInstance wraps rendered markup.
func NewInstance(title string, markup template.HTML) *Instance {
	return &Instance{ID: instanceSeq.Add(1), Title: title, Markup: markup}
}

// Disposed reports whether the instance has been released.
func (i *Instance) Disposed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.disposed
}

func (i *Instance) dispose() {
	i.mu.Lock()
	i.disposed = true
	i.owner = nil
	i.Markup = ""
	i.mu.Unlock()
}

func (i *Instance) claim(s *Slot) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return errors.New("chart: instance disposed")
	}
	if i.owner != nil && i.owner != s {
		return ErrOwned
	}
	i.owner = s
	return nil
}

// Slot is a named chart position on a screen holding at most one live
// instance.
type Slot struct {
	Name string

	mu      sync.Mutex
	current *Instance
}

// NewSlot creates an empty slot.
func NewSlot(name string) *Slot {
	return &Slot{Name: name}
}

// Replace disposes the current instance and installs next. A nil next empties
// the slot.
func (s *Slot) Replace(next *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next != nil && next == s.current {
		return nil
	}
	if next != nil {
		if err := next.claim(s); err != nil {
			return err
		}
	}
	if s.current != nil {
		s.current.dispose()
	}
	s.current = next
	return nil
}

// Clear disposes the current instance, hiding the slot.
func (s *Slot) Clear() {
	_ = s.Replace(nil)
}

// Current returns the live instance or nil.
func (s *Slot) Current() *Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Visible reports whether the slot shows a chart.
func (s *Slot) Visible() bool { return s.Current() != nil }
