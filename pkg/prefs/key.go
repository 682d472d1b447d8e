package prefs

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyKey     = errors.New("preference key name is empty")
	ErrKindMismatch = errors.New("value type does not match key kind")
	ErrUnknownKind  = errors.New("unknown preference kind")
)

// Kind is the value type a key was declared with.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindLong
	KindFloat
	KindBoolean
	KindString
)

// Kinds lists every supported kind in storage order.
var Kinds = []Kind{KindInt, KindLong, KindFloat, KindBoolean, KindString}

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String. "bool" is accepted as an alias.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "int":
		return KindInt, nil
	case "long":
		return KindLong, nil
	case "float":
		return KindFloat, nil
	case "boolean", "bool":
		return KindBoolean, nil
	case "string":
		return KindString, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) valid() bool {
	return k >= KindInt && k <= KindString
}

// bucket is the storage bucket holding all keys of this kind.
func (k Kind) bucket() []byte {
	return []byte(k.String())
}

// Key identifies a preference entry. Keys with the same name but a
// different kind are distinct entries.
type Key struct {
	Name string
	Kind Kind
}

func IntKey(name string) Key     { return Key{Name: name, Kind: KindInt} }
func LongKey(name string) Key    { return Key{Name: name, Kind: KindLong} }
func FloatKey(name string) Key   { return Key{Name: name, Kind: KindFloat} }
func BooleanKey(name string) Key { return Key{Name: name, Kind: KindBoolean} }
func StringKey(name string) Key  { return Key{Name: name, Kind: KindString} }

func (k Key) String() string {
	return k.Name + ":" + k.Kind.String()
}

// check verifies that v has the Go type matching the key kind.
func (k Key) check(v any) error {
	if k.Name == "" {
		return ErrEmptyKey
	}
	var ok bool
	switch k.Kind {
	case KindInt:
		_, ok = v.(int32)
	case KindLong:
		_, ok = v.(int64)
	case KindFloat:
		_, ok = v.(float32)
	case KindBoolean:
		_, ok = v.(bool)
	case KindString:
		_, ok = v.(string)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k.Kind))
	}
	if !ok {
		return fmt.Errorf("%w: key %s got %T", ErrKindMismatch, k, v)
	}
	return nil
}
