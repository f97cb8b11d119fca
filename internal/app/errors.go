package app

import "errors"

var (
	// ErrInvalidInput means the request is malformed or incomplete; it is
	// rejected before any retrieval work begins.
	ErrInvalidInput = errors.New("invalid input")

	ErrProductNotFound = errors.New("product not found")
	ErrGuideNotFound   = errors.New("installation guide not found")
	ErrSessionNotFound = errors.New("chat session not found")
	ErrMessageEmpty    = errors.New("message content is empty")
	ErrMessageEnqueue  = errors.New("message enqueue failed")
)
