package types

// Result represents an action outcome. Failures the user should see are
// reported here rather than as Go errors.
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *string                `json:"error,omitempty"`
}

// Success builds a successful result.
func Success(data map[string]interface{}) (*Result, error) {
	return &Result{Success: true, Data: data}, nil
}

// Failure builds a failed result carrying a user-facing message.
func Failure(message string) (*Result, error) {
	msg := message
	return &Result{Success: false, Error: &msg}, nil
}

// Tool describes one invokable action
type Tool struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
	Mutates     bool        `json:"mutates"`
}

// Parameter represents a tool parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}
