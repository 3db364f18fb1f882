package protect

import (
	"errors"
	"slices"
	"strings"
	"sync"
)

// Event types the deterrent listens to.
const (
	EventKeyDown     = "keydown"
	EventCopy        = "copy"
	EventSelectStart = "selectstart"
	EventContextMenu = "contextmenu"
)

// ErrClosed is returned when adding a listener to a closed target.
var ErrClosed = errors.New("event target closed")

// Element is the node an event was fired at.
type Element struct {
	Tag             string
	Type            string
	ContentEditable bool
	Attributes      map[string]string
	Parent          *Element
}

// Editable reports whether the element takes text input.
// Clipboard and selection shortcuts stay usable there.
func (el *Element) Editable() bool {
	if el == nil {
		return false
	}

	switch strings.ToLower(el.Tag) {
	case "textarea", "select":
		return true
	case "input":
		switch strings.ToLower(el.Type) {
		case "button", "checkbox", "radio", "submit", "reset", "image", "file", "hidden", "range", "color":
			return false
		}

		return true
	}

	return el.ContentEditable
}

// Closest reports whether the element or one of its ancestors carries attr.
func (el *Element) Closest(attr string) bool {
	for node := el; node != nil; node = node.Parent {
		if _, ok := node.Attributes[attr]; ok {
			return true
		}
	}

	return false
}

// Event is one dispatched event.
type Event struct {
	Type   string
	Key    string
	Ctrl   bool
	Meta   bool
	Shift  bool
	Alt    bool
	Target *Element

	defaultPrevented   bool
	propagationStopped bool
}

// PreventDefault cancels the browser's default action.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether a listener cancelled the event.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// StopPropagation keeps the event from reaching later listeners.
func (e *Event) StopPropagation() {
	e.propagationStopped = true
}

// Listener handles an event.
type Listener func(e *Event)

// Handle identifies a registered listener.
type Handle uint64

// EventTarget is anything listeners can be attached to.
type EventTarget interface {
	AddEventListener(eventType string, listener Listener, capture bool) (Handle, error)
	RemoveEventListener(handle Handle)
}

type registration struct {
	handle    Handle
	eventType string
	listener  Listener
	capture   bool
}

// Dispatcher is an in-process EventTarget. Capturing listeners run before
// bubbling ones, each group in registration order.
type Dispatcher struct {
	mu            sync.Mutex
	next          Handle
	registrations []registration
	closed        bool
}

var _ EventTarget = (*Dispatcher)(nil)

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// AddEventListener implements EventTarget.
func (d *Dispatcher) AddEventListener(eventType string, listener Listener, capture bool) (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrClosed
	}

	d.next++
	d.registrations = append(d.registrations, registration{
		handle:    d.next,
		eventType: eventType,
		listener:  listener,
		capture:   capture,
	})

	return d.next, nil
}

// RemoveEventListener implements EventTarget. Unknown handles are ignored.
func (d *Dispatcher) RemoveEventListener(handle Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.registrations = slices.DeleteFunc(d.registrations, func(r registration) bool {
		return r.handle == handle
	})
}

// Len returns the number of registered listeners.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.registrations)
}

// Close makes further AddEventListener calls fail.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
}

// Dispatch delivers e to the listeners of its type and reports whether the
// default action may proceed.
func (d *Dispatcher) Dispatch(e *Event) bool {
	d.mu.Lock()
	listeners := make([]registration, 0, len(d.registrations))

	for _, capture := range []bool{true, false} {
		for _, r := range d.registrations {
			if r.eventType == e.Type && r.capture == capture {
				listeners = append(listeners, r)
			}
		}
	}
	d.mu.Unlock()

	for _, r := range listeners {
		if e.propagationStopped {
			break
		}

		r.listener(e)
	}

	return !e.defaultPrevented
}
