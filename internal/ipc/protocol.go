package ipc

// Request is one JSON-line command sent to the running daemon. Slot and
// OnConflict are set for hotkey capture requests only.
type Request struct {
	Command    string `json:"command"`
	Slot       string `json:"slot,omitempty"`
	OnConflict string `json:"on_conflict,omitempty"`
}

// Response is the daemon's JSON-line reply.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	// Conflict names the slot holding a captured binding when a capture is
	// rejected.
	Conflict string   `json:"conflict,omitempty"`
	History  []string `json:"history,omitempty"`
}
