package models

// StreamResponse is one piece of a chat completion: a content chunk, the end marker, or an error.
type StreamResponse struct {
	Content string
	Done    bool
	Err     error
}
