// Package keys models physical keyboard keys and the set of keys
// currently held down, independent of any platform hook.
package keys

// Modifier is a canonical modifier class name.
type Modifier string

const (
	ModShift Modifier = "shift"
	ModCtrl  Modifier = "ctrl"
	ModCmd   Modifier = "cmd"
	ModAlt   Modifier = "alt"
)

// Modifiers lists the canonical modifier classes in display order.
var Modifiers = []Modifier{ModShift, ModCtrl, ModCmd, ModAlt}

// Key identifies one physical key. Mod is the canonical modifier class
// (empty for literal keys), Char the lowercased literal character (0 for
// modifiers and named keys), and Code the platform key code. Code keeps
// left/right modifier variants distinct in the pressed set while Mod lets
// the matcher treat them as the same requirement.
type Key struct {
	Mod  Modifier
	Char rune
	Code uint32
}

// IsModifier reports whether the key belongs to a modifier class.
func (k Key) IsModifier() bool { return k.Mod != "" }

// ModifierKey returns a generic key for a canonical modifier class.
func ModifierKey(m Modifier) Key { return Key{Mod: m} }

// CharKey returns a key for a literal character, lowercased.
func CharKey(c rune) Key {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	return Key{Char: c, Code: uint32(c)}
}

// Event is one element of the ordered keyboard event stream.
type Event struct {
	Key   Key
	Press bool
}

// Tracker maintains the set of currently pressed keys. It is pure state
// bookkeeping; callers mutate it only from the event-dispatch goroutine.
type Tracker struct {
	pressed map[Key]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{pressed: make(map[Key]struct{})}
}

// Press adds a key to the pressed set. Duplicate presses are idempotent.
func (t *Tracker) Press(k Key) { t.pressed[k] = struct{}{} }

// Release removes a key from the pressed set.
func (t *Tracker) Release(k Key) { delete(t.pressed, k) }

// Clear empties the pressed set. The matcher uses this after a toggle
// trigger so a held chord cannot re-fire on key repeat.
func (t *Tracker) Clear() {
	for k := range t.pressed {
		delete(t.pressed, k)
	}
}

// Len returns the number of pressed keys.
func (t *Tracker) Len() int { return len(t.pressed) }

// ModifierDown reports whether any pressed key satisfies the canonical
// modifier class m (left/right/generic variants all count).
func (t *Tracker) ModifierDown(m Modifier) bool {
	for k := range t.pressed {
		if k.Mod == m {
			return true
		}
	}
	return false
}

// CharDown reports whether the literal character c is currently pressed.
func (t *Tracker) CharDown(c rune) bool {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	for k := range t.pressed {
		if !k.IsModifier() && k.Char == c {
			return true
		}
	}
	return false
}
