package helper

import "prefstore/pkg/prefs"

func (h *Helper) PutInt(key string, value int32) error {
	return h.putAsync(prefs.IntKey(key), value)
}

func (h *Helper) PutIntSync(key string, value int32) error {
	return h.putSync(prefs.IntKey(key), value)
}

// GetInt returns the int stored under key, or def if there is none.
func (h *Helper) GetInt(key string, def int32) (int32, error) {
	p, err := h.snapshot()
	if err != nil {
		return def, err
	}
	if v, ok := p.LookupInt(key); ok {
		return v, nil
	}
	return def, nil
}

func (h *Helper) ContainsInt(key string) (bool, error) {
	return h.contains(prefs.IntKey(key))
}

func (h *Helper) PutLong(key string, value int64) error {
	return h.putAsync(prefs.LongKey(key), value)
}

func (h *Helper) PutLongSync(key string, value int64) error {
	return h.putSync(prefs.LongKey(key), value)
}

// GetLong returns the long stored under key, or def if there is none.
func (h *Helper) GetLong(key string, def int64) (int64, error) {
	p, err := h.snapshot()
	if err != nil {
		return def, err
	}
	if v, ok := p.LookupLong(key); ok {
		return v, nil
	}
	return def, nil
}

func (h *Helper) ContainsLong(key string) (bool, error) {
	return h.contains(prefs.LongKey(key))
}

func (h *Helper) PutFloat(key string, value float32) error {
	return h.putAsync(prefs.FloatKey(key), value)
}

func (h *Helper) PutFloatSync(key string, value float32) error {
	return h.putSync(prefs.FloatKey(key), value)
}

func (h *Helper) GetFloat(key string, def float32) (float32, error) {
	p, err := h.snapshot()
	if err != nil {
		return def, err
	}
	if v, ok := p.LookupFloat(key); ok {
		return v, nil
	}
	return def, nil
}

func (h *Helper) ContainsFloat(key string) (bool, error) {
	return h.contains(prefs.FloatKey(key))
}

func (h *Helper) PutBoolean(key string, value bool) error {
	return h.putAsync(prefs.BooleanKey(key), value)
}

func (h *Helper) PutBooleanSync(key string, value bool) error {
	return h.putSync(prefs.BooleanKey(key), value)
}

func (h *Helper) GetBoolean(key string, def bool) (bool, error) {
	p, err := h.snapshot()
	if err != nil {
		return def, err
	}
	if v, ok := p.LookupBoolean(key); ok {
		return v, nil
	}
	return def, nil
}

func (h *Helper) ContainsBoolean(key string) (bool, error) {
	return h.contains(prefs.BooleanKey(key))
}

// PutString schedules a write of value. The empty string doubles as "no
// value": it is stored as is and read back as "".
func (h *Helper) PutString(key, value string) error {
	return h.putAsync(prefs.StringKey(key), value)
}

func (h *Helper) PutStringSync(key, value string) error {
	return h.putSync(prefs.StringKey(key), value)
}

// GetString returns the string stored under key, or def if there is none.
// A stored empty string is returned as "" whatever def is.
func (h *Helper) GetString(key, def string) (string, error) {
	v, ok, err := h.LookupString(key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// LookupString is GetString with explicit presence, for callers that must
// tell a stored empty string from a missing key.
func (h *Helper) LookupString(key string) (string, bool, error) {
	p, err := h.snapshot()
	if err != nil {
		return "", false, err
	}
	v, ok := p.LookupString(key)
	return v, ok, nil
}

func (h *Helper) ContainsString(key string) (bool, error) {
	return h.contains(prefs.StringKey(key))
}
