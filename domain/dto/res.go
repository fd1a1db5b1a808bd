package dto

// Res is the uniform response envelope. Every handler returns it so callers
// (UI, batch scripts) can render failures without special-casing; errors never
// escape the HTTP boundary as panics.
type Res struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message,omitempty"`
	TokenExpired bool        `json:"tokenExpired,omitempty"`
	Duplicate    bool        `json:"duplicate,omitempty"`
	Data         interface{} `json:"data,omitempty"`
}

// OK wraps a payload in a successful envelope.
func OK(data interface{}) Res {
	return Res{Success: true, Data: data}
}

// Fail wraps an error message in a failed envelope.
func Fail(message string) Res {
	return Res{Success: false, Message: message}
}
