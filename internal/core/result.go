package core

// Result is the tagged outcome of a facade operation. Callers must check
// Success before trusting Data. Err carries the cause for status mapping
// and is never serialized.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Err     error  `json:"-"`
}

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func fail[T any](err error) Result[T] {
	return Result[T]{Error: err.Error(), Err: err}
}
