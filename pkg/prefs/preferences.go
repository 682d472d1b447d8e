package prefs

import (
	"fmt"
	"sort"
	"strings"
)

// Preferences is an immutable point-in-time view of every entry of a
// DataStore. Values are int32, int64, float32, bool or string, matching
// the kind of their key.
type Preferences struct {
	entries map[Key]any
}

func newPreferences(entries map[Key]any) *Preferences {
	if entries == nil {
		entries = make(map[Key]any)
	}
	return &Preferences{entries: entries}
}

// Get returns the value stored under k.
func (p *Preferences) Get(k Key) (any, bool) {
	v, ok := p.entries[k]
	return v, ok
}

// Contains reports whether an entry exists for the exact key-kind pair.
func (p *Preferences) Contains(k Key) bool {
	_, ok := p.entries[k]
	return ok
}

// ContainsName reports whether any entry, of any kind, has the given name.
// It scans every entry; prefer Contains when the kind is known.
func (p *Preferences) ContainsName(name string) bool {
	for k := range p.entries {
		if k.Name == name {
			return true
		}
	}
	return false
}

func (p *Preferences) LookupInt(name string) (int32, bool) {
	v, ok := p.entries[IntKey(name)]
	if !ok {
		return 0, false
	}
	return v.(int32), true
}

func (p *Preferences) LookupLong(name string) (int64, bool) {
	v, ok := p.entries[LongKey(name)]
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

func (p *Preferences) LookupFloat(name string) (float32, bool) {
	v, ok := p.entries[FloatKey(name)]
	if !ok {
		return 0, false
	}
	return v.(float32), true
}

func (p *Preferences) LookupBoolean(name string) (bool, bool) {
	v, ok := p.entries[BooleanKey(name)]
	if !ok {
		return false, false
	}
	return v.(bool), true
}

func (p *Preferences) LookupString(name string) (string, bool) {
	v, ok := p.entries[StringKey(name)]
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Len returns the number of entries.
func (p *Preferences) Len() int {
	return len(p.entries)
}

// Keys returns every key sorted by name, then kind.
func (p *Preferences) Keys() []Key {
	keys := make([]Key, 0, len(p.entries))
	for k := range p.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Kind < keys[j].Kind
	})
	return keys
}

// AsMap returns a copy of all entries.
func (p *Preferences) AsMap() map[Key]any {
	out := make(map[Key]any, len(p.entries))
	for k, v := range p.entries {
		out[k] = v
	}
	return out
}

// Dump renders all entries as {name=value, ...} in key order.
func (p *Preferences) Dump() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range p.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k.Name, p.entries[k])
	}
	b.WriteByte('}')
	return b.String()
}

// ToMutable returns a mutable copy of p.
func (p *Preferences) ToMutable() *MutablePreferences {
	return &MutablePreferences{entries: p.AsMap()}
}

// MutablePreferences is the working copy handed to DataStore.Edit.
type MutablePreferences struct {
	entries map[Key]any
}

// Set stores v under k, replacing any previous value of the same key-kind
// pair.
func (m *MutablePreferences) Set(k Key, v any) error {
	if err := k.check(v); err != nil {
		return err
	}
	m.entries[k] = v
	return nil
}

// Remove deletes k. Removing an absent key is a no-op.
func (m *MutablePreferences) Remove(k Key) {
	delete(m.entries, k)
}

// Clear removes every entry.
func (m *MutablePreferences) Clear() {
	clear(m.entries)
}

// Contains reports whether k is currently set in the working copy.
func (m *MutablePreferences) Contains(k Key) bool {
	_, ok := m.entries[k]
	return ok
}

// Get returns the working-copy value of k.
func (m *MutablePreferences) Get(k Key) (any, bool) {
	v, ok := m.entries[k]
	return v, ok
}

// Len returns the number of entries in the working copy.
func (m *MutablePreferences) Len() int {
	return len(m.entries)
}

// freeze turns the working copy into a snapshot. m must not be used after.
func (m *MutablePreferences) freeze() *Preferences {
	p := newPreferences(m.entries)
	m.entries = nil
	return p
}

func (p *Preferences) String() string {
	return p.Dump()
}
