package models

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse is the standard JSON envelope for simple acknowledgements.
type SuccessResponse struct {
	Message string `json:"message"`
}
