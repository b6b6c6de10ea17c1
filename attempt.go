// Copyright 2026 The Flux Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package flux

// Attempt always succeeds. Its success value is a zero-arg thunk that,
// when called, either returns t's value or returns t's error — reifying
// a failure into a success value.
func Attempt[T any](t Task[T]) Task[func() (T, error)] {
	return func(onSuccess func(func() (T, error)), _ func(error)) Cancel {
		return t(
			func(v T) {
				onSuccess(func() (T, error) { return v, nil })
			},
			func(err error) {
				onSuccess(func() (T, error) {
					var zero T
					return zero, err
				})
			},
		)
	}
}

// Absolve is Attempt's inverse: t's success value is expected to be a
// zero-arg thunk. The composite succeeds with the thunk's return value,
// or fails if the thunk returns an error.
func Absolve[T any](t Task[func() (T, error)]) Task[T] {
	return func(onSuccess func(T), onFailure func(error)) Cancel {
		return t(
			func(thunk func() (T, error)) {
				v, err := thunk()
				if err != nil {
					onFailure(err)
					return
				}
				onSuccess(v)
			},
			onFailure,
		)
	}
}

// Compel subscribes to t and returns a no-op cancel handle, hiding
// cancellation from t: the outer task cannot be used to cancel the
// inner one.
func Compel[T any](t Task[T]) Task[T] {
	return func(onSuccess func(T), onFailure func(error)) Cancel {
		t(onSuccess, onFailure)
		return func() {}
	}
}
