package payload

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message     string            `json:"message"`
	InputErrors map[string]string `json:"inputErrors,omitempty"`
	Applied     any               `json:"applied,omitempty"`
	Pending     any               `json:"pending,omitempty"`
}
