package books

import (
	"context"
	"errors"
)

// Errors returned by the books package.
var (
	ErrInvalidName = errors.New("books: name is required")
	ErrSimulated   = errors.New("books: simulated failure")
	ErrNoStore     = errors.New("books: store not configured")
)

// SimulatedFailureName makes the handler fail as if the database had.
const SimulatedFailureName = "error"

// Book is a stored book.
type Book struct {
	ID   string `json:"id" bson:"-"`
	Name string `json:"name" bson:"name"`
}

// Store persists books.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: Insert must honor cancellation/deadlines.
type Store interface {
	// Insert stores b and returns it with its ID set.
	Insert(ctx context.Context, b Book) (Book, error)
}
