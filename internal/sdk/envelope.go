package sdk

// StatusSuccess is the only envelope status treated as success.
const StatusSuccess = "success"

// Envelope is the {status, data} wrapper every Okto endpoint responds with.
type Envelope[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

// OK reports whether the envelope carries a success status.
func (e *Envelope[T]) OK() bool {
	return e.Status == StatusSuccess
}
