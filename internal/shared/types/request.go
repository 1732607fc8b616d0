package types

// ActionRequest executes a context-menu action. Omitted targets fall back
// to the current selection. Dest is a pointer so that "" (Home) differs
// from no destination at all.
type ActionRequest struct {
	Action string  `json:"action" binding:"required"`
	ID     int64   `json:"id,omitempty"`
	IDs    []int64 `json:"ids,omitempty"`
	Name   string  `json:"name,omitempty"`
	Text   string  `json:"text,omitempty"`
	Dest   *string `json:"dest,omitempty"`
	Format string  `json:"format,omitempty"`
}

// NavigateRequest moves to a folder path in "1/2/3" form; "" is the root.
type NavigateRequest struct {
	Path string `json:"path"`
}

// ClickRequest clicks an item in the current folder.
type ClickRequest struct {
	ID int64 `json:"id" binding:"required"`
}

// ImportLinkRequest carries raw JSON, a share link or a remote URL.
type ImportLinkRequest struct {
	Input string `json:"input" binding:"required"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// CreateRequest names a new file or folder. Both fields are optional.
type CreateRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}
