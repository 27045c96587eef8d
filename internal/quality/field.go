// Package quality implements the nullable-first field model: every piece
// of market data is wrapped in a Field[T] that carries its own quality
// classification instead of relying on sentinel zero values or "UNKNOWN"
// strings.
package quality

import "fmt"

// Quality classifies how a Field's value was obtained.
type Quality string

const (
	// Valid means the field carries a real, coerced, non-null value.
	Valid Quality = "VALID"
	// Missing means the source never returned a value for this field.
	Missing Quality = "MISSING"
	// Error means a value was returned but could not be coerced to the
	// expected type.
	Error Quality = "ERROR"
)

// Field wraps a single piece of data together with its provenance. The
// invariant held everywhere in this codebase is: Quality == Valid if and
// only if Value is non-nil and coerces cleanly to T. Missing never carries
// a coerced zero value unless the field explicitly allows zero.
type Field[T any] struct {
	Value     *T
	Quality   Quality
	Reason    string
	FieldName string
}

// Wrap classifies a raw value coming from a provider response. raw is the
// decoded JSON value (or nil); coerce converts it to T, returning an error
// if the shape is wrong. allowZero controls whether a successfully-coerced
// zero value is treated as Valid (the default) or demoted to Missing.
func Wrap[T comparable](fieldName string, raw any, coerce func(any) (T, error), allowZero bool) Field[T] {
	if raw == nil {
		return Field[T]{
			Quality:   Missing,
			Reason:    fmt.Sprintf("%s not provided by source", fieldName),
			FieldName: fieldName,
		}
	}

	value, err := coerce(raw)
	if err != nil {
		return Field[T]{
			Quality:   Error,
			Reason:    fmt.Sprintf("%s coercion failed: %v", fieldName, err),
			FieldName: fieldName,
		}
	}

	var zero T
	if !allowZero && value == zero {
		return Field[T]{
			Quality:   Missing,
			Reason:    fmt.Sprintf("%s is zero (treated as missing)", fieldName),
			FieldName: fieldName,
		}
	}

	v := value
	return Field[T]{
		Value:     &v,
		Quality:   Valid,
		FieldName: fieldName,
	}
}

// Present reports whether the field holds a usable value.
func (f Field[T]) Present() bool {
	return f.Quality == Valid && f.Value != nil
}

// Get returns the value and a bool indicating presence, mirroring the
// comma-ok idiom used elsewhere for map lookups.
func (f Field[T]) Get() (T, bool) {
	if !f.Present() {
		var zero T
		return zero, false
	}
	return *f.Value, true
}

// MustGet panics if the field isn't present. Reserved for call sites that
// have already checked Present() via a required-field gate; never call it
// against a field whose presence hasn't been verified.
func (f Field[T]) MustGet() T {
	v, ok := f.Get()
	if !ok {
		panic(fmt.Sprintf("quality: MustGet called on non-present field %q", f.FieldName))
	}
	return v
}

// Completeness computes the fraction of VALID fields among named, plus the
// list of field names that are not VALID (MISSING or ERROR), in input
// order.
func Completeness(statuses map[string]Quality, order []string) (float64, []string) {
	if len(order) == 0 {
		return 1.0, nil
	}

	validCount := 0
	var missing []string
	for _, name := range order {
		if statuses[name] == Valid {
			validCount++
		} else {
			missing = append(missing, name)
		}
	}

	return float64(validCount) / float64(len(order)), missing
}
