package model

// APIResponse is the uniform envelope every inbound endpoint responds with,
// success or failure.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success wraps data in a successful envelope.
func Success(data any) APIResponse {
	return APIResponse{Success: true, Message: "Success", Data: data}
}

// Error builds a failure envelope carrying the given message.
func Error(message string) APIResponse {
	return APIResponse{Success: false, Message: message}
}
