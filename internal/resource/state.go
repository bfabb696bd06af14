package resource

// Status is the lifecycle stage of a request.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is the observable {status, data, error} of a request.
// Data is only meaningful when Status is StatusSuccess and Err is only set
// when Status is StatusError.
type State[T any] struct {
	Status Status
	Data   T
	Err    string
}

// Loading reports whether a request is in flight.
func (s State[T]) Loading() bool {
	return s.Status == StatusLoading
}

// Succeeded reports whether the last request succeeded.
func (s State[T]) Succeeded() bool {
	return s.Status == StatusSuccess
}

// Failed reports whether the last request failed.
func (s State[T]) Failed() bool {
	return s.Status == StatusError
}

func loadingState[T any]() State[T] {
	return State[T]{Status: StatusLoading}
}

func successState[T any](data T) State[T] {
	return State[T]{Status: StatusSuccess, Data: data}
}

func errorState[T any](msg string) State[T] {
	return State[T]{Status: StatusError, Err: msg}
}
