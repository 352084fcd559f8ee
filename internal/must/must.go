// Package must contains functions that panic if an error is not nil
package must

// OK panics if err is not nil.
// Use it for errors that can only happen on programmer error, like a bad embedded path.
func OK(err error) {
	if err != nil {
		panic(err)
	}
}

// Any returns ret when err is nil and panics otherwise.
//
//nolint:ireturn // Returning T is fine here because it is a generic function
func Any[T any](ret T, err error) T {
	OK(err)

	return ret
}
