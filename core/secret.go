package core

// redacted is printed in place of a secret value.
const redacted = "[REDACTED]"

// Secret holds an API key. Formatting, JSON and text marshaling never reveal
// the value; Expose is the only accessor.
//
//	key := NewSecret("sk-ant-123")
//	fmt.Println(key)   // [REDACTED]
//	key.Expose()       // "sk-ant-123"
type Secret struct {
	value string
}

// NewSecret wraps value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// String implements fmt.Stringer.
func (s Secret) String() string {
	return redacted
}

// GoString implements fmt.GoStringer for %#v.
func (s Secret) GoString() string {
	return "core.Secret{" + redacted + "}"
}

// MarshalJSON always encodes the placeholder.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// MarshalText always encodes the placeholder, which also covers YAML.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Expose returns the wrapped value for use in request headers.
func (s Secret) Expose() string {
	return s.value
}

// IsEmpty reports whether no value is held.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}
