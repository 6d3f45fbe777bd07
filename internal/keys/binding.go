package keys

import (
	"fmt"
	"strings"
)

// Binding is a hotkey chord: one or more canonical modifiers plus an
// optional literal key. Bindings are replaced wholesale on reconfiguration.
type Binding struct {
	Modifiers []Modifier `json:"modifiers"`
	Key       string     `json:"key,omitempty"`
}

// Valid reports whether the binding can be matched: at least one modifier
// is required, a key-only binding is not allowed.
func (b Binding) Valid() bool { return len(b.Modifiers) > 0 }

// HasModifier reports whether m participates in the binding.
func (b Binding) HasModifier(m Modifier) bool {
	for _, bm := range b.Modifiers {
		if bm == m {
			return true
		}
	}
	return false
}

// Matches reports whether the binding is satisfied by the current pressed
// set: every configured modifier class has at least one pressed key, and
// the literal key (if any) is pressed.
func (b Binding) Matches(t *Tracker) bool {
	if !b.Valid() {
		return false
	}
	for _, m := range b.Modifiers {
		if !t.ModifierDown(m) {
			return false
		}
	}
	if b.Key != "" {
		r := []rune(strings.ToLower(b.Key))
		if len(r) != 1 || !t.CharDown(r[0]) {
			return false
		}
	}
	return true
}

// String renders the binding as "shift+ctrl" or "cmd+d" for display.
func (b Binding) String() string {
	if !b.Valid() {
		return "none"
	}
	parts := make([]string, 0, len(b.Modifiers)+1)
	// stable order regardless of how the binding was captured
	for _, m := range Modifiers {
		if b.HasModifier(m) {
			parts = append(parts, string(m))
		}
	}
	if b.Key != "" {
		parts = append(parts, strings.ToLower(b.Key))
	}
	return strings.Join(parts, "+")
}

// ParseBinding parses a spec like "shift+ctrl" or "cmd+d" into a binding.
// Modifier aliases follow common accelerator notation.
func ParseBinding(s string) (Binding, error) {
	if strings.TrimSpace(s) == "" {
		return Binding{}, fmt.Errorf("empty binding")
	}
	var b Binding
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(strings.ToLower(part))
		switch part {
		case "shift":
			b.Modifiers = append(b.Modifiers, ModShift)
		case "ctrl", "control":
			b.Modifiers = append(b.Modifiers, ModCtrl)
		case "cmd", "win", "meta", "super":
			b.Modifiers = append(b.Modifiers, ModCmd)
		case "alt", "menu", "option":
			b.Modifiers = append(b.Modifiers, ModAlt)
		default:
			if len([]rune(part)) != 1 {
				return Binding{}, fmt.Errorf("unsupported key token: %s", part)
			}
			if b.Key != "" {
				return Binding{}, fmt.Errorf("more than one literal key in '%s'", s)
			}
			b.Key = part
		}
	}
	if !b.Valid() {
		return Binding{}, fmt.Errorf("binding '%s' has no modifier", s)
	}
	return b, nil
}
