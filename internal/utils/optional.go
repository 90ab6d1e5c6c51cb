// Package utils holds generic helpers for the optional fields of API records.
package utils

// Ptr returns a pointer to v, used to set fields of a partial update
func Ptr[T any](v T) *T {
	return &v
}

// Value dereferences v, nil yields the zero value
func Value[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// ValueOr dereferences v, nil or the zero value yields fallback
func ValueOr[T comparable](v *T, fallback T) T {
	var zero T
	if v == nil || *v == zero {
		return fallback
	}
	return *v
}
