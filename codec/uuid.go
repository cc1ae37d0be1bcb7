package codec

import "github.com/google/uuid"

// NewUuidValue mints a random (v4) UUID Value, backed by
// github.com/google/uuid (grounded on FocuswithJustin-JuniperBible's
// go.mod — see SPEC_FULL.md DOMAIN STACK).
func NewUuidValue() Value {
	var raw [16]byte
	u := uuid.New()
	copy(raw[:], u[:])
	return UuidValue(raw)
}

// ParseUuidValue parses a canonical UUID string into a Value.
func ParseUuidValue(s string) (Value, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Value{}, errDecode("Uuid", err.Error())
	}
	var raw [16]byte
	copy(raw[:], u[:])
	return UuidValue(raw), nil
}

// UuidString renders a Uuid Value in canonical textual form.
func UuidString(v Value) string {
	return uuid.UUID(v.AsUuid()).String()
}
