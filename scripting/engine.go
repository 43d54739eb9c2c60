// Package scripting runs user-supplied JavaScript hooks over recognized
// documents, typically to filter or rewrite words before export.
package scripting

import (
	"context"
)

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute executes a script in the context of the document.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterDOM registers the recognized-document object model with the
	// engine.
	RegisterDOM(dom DocumentDOM) error
}

// DocumentDOM exposes the recognized document structure to scripts.
// It provides a safe, controlled API for scripts to inspect and edit results.
type DocumentDOM interface {
	// PageCount returns the number of pages.
	PageCount() int

	// Page returns a page by index (0-based).
	Page(index int) (PageProxy, error)

	// Log emits a message from the script to the host.
	Log(message string)
}

// PageProxy represents a page exposed to scripts.
type PageProxy interface {
	Index() int
	Words() []WordProxy
}

// WordProxy represents a recognized word exposed to scripts.
type WordProxy interface {
	Value() string
	SetValue(value string)
	Confidence() float64

	// Drop marks the word for removal; the host prunes it after the script
	// finishes.
	Drop()
}
