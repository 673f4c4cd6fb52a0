package dto

// ErrorResponse is the body of every failed request. Error carries the
// underlying detail on integration failures only.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
