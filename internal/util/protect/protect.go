// Package protect discourages casual copying and inspection of pages.
//
// It is a deterrent, not a security boundary: anyone can disable it through
// browser settings or by reading the page source another way. Nothing may
// rely on it for confidentiality.
package protect

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// OptOutAttribute marks elements whose context menu must stay available.
const OptOutAttribute = "data-allow-contextmenu"

// Shortcut is a key combination to intercept. Ctrl matches either Control or
// Meta, so one entry covers Windows, Linux and macOS.
type Shortcut struct {
	Name  string
	Key   string
	Ctrl  bool
	Shift bool
	Alt   bool
}

// DefaultShortcuts covers save, print, select-all, copy, view-source and the
// developer tools.
//
//nolint:gochecknoglobals
var DefaultShortcuts = []Shortcut{
	{Name: "save", Key: "s", Ctrl: true},
	{Name: "print", Key: "p", Ctrl: true},
	{Name: "select-all", Key: "a", Ctrl: true},
	{Name: "copy", Key: "c", Ctrl: true},
	{Name: "view-source", Key: "u", Ctrl: true},
	{Name: "devtools", Key: "F12"},
	{Name: "devtools", Key: "i", Ctrl: true, Shift: true},
	{Name: "devtools-console", Key: "j", Ctrl: true, Shift: true},
	{Name: "devtools-inspect", Key: "c", Ctrl: true, Shift: true},
	{Name: "devtools", Key: "i", Ctrl: true, Alt: true},
	{Name: "devtools-console", Key: "j", Ctrl: true, Alt: true},
	{Name: "devtools-inspect", Key: "c", Ctrl: true, Alt: true},
}

// Matches reports whether e is the shortcut.
func (s Shortcut) Matches(e *Event) bool {
	return strings.EqualFold(e.Key, s.Key) &&
		(e.Ctrl || e.Meta) == s.Ctrl &&
		e.Shift == s.Shift &&
		e.Alt == s.Alt
}

type options struct {
	shortcuts []Shortcut
	optOut    string
}

// Option configures Install and Script.
type Option func(*options)

// WithShortcuts replaces the intercepted key combinations.
func WithShortcuts(shortcuts ...Shortcut) Option {
	return func(o *options) {
		o.shortcuts = shortcuts
	}
}

// WithOptOutAttribute replaces the context menu opt-out marker.
func WithOptOutAttribute(attr string) Option {
	return func(o *options) {
		o.optOut = attr
	}
}

func newOptions(opts []Option) options {
	o := options{shortcuts: DefaultShortcuts, optOut: OptOutAttribute}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func (o options) blocked(e *Event) bool {
	for _, s := range o.shortcuts {
		if s.Matches(e) {
			return true
		}
	}

	return false
}

func (o options) listeners() []struct {
	eventType string
	listener  Listener
} {
	cancel := func(e *Event) {
		e.PreventDefault()
		e.StopPropagation()
	}

	return []struct {
		eventType string
		listener  Listener
	}{
		{EventKeyDown, func(e *Event) {
			if !e.Target.Editable() && o.blocked(e) {
				cancel(e)
			}
		}},
		{EventCopy, func(e *Event) {
			if !e.Target.Editable() {
				cancel(e)
			}
		}},
		{EventSelectStart, func(e *Event) {
			if !e.Target.Editable() {
				cancel(e)
			}
		}},
		{EventContextMenu, func(e *Event) {
			if !e.Target.Closest(o.optOut) {
				cancel(e)
			}
		}},
	}
}

// Install registers capturing listeners on target and returns the function that
// removes them. If a registration fails, the ones already made are removed
// before the error is returned. Teardown may be called any number of times.
func Install(target EventTarget, opts ...Option) (func(), error) {
	if target == nil {
		return func() {}, errors.New("install protection: nil target")
	}

	o := newOptions(opts)
	handles := make([]Handle, 0, 4)

	var once sync.Once

	teardown := func() {
		once.Do(func() {
			for _, h := range handles {
				target.RemoveEventListener(h)
			}
		})
	}

	for _, l := range o.listeners() {
		h, err := target.AddEventListener(l.eventType, l.listener, true)
		if err != nil {
			teardown()

			return func() {}, fmt.Errorf("install protection: add %s listener: %w", l.eventType, err)
		}

		handles = append(handles, h)
	}

	return teardown, nil
}
