// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"context"
	"errors"
	"io"
)

// Failure classes of a backend call. Implementations wrap one of these so
// callers can tell them apart with errors.Is.
var (
	// ErrTransport means the request never produced a response.
	ErrTransport = errors.New("transport error")

	// ErrStatus means the backend answered with a non-2xx status.
	ErrStatus = errors.New("backend error")

	// ErrMalformed means the response body did not have the expected shape.
	ErrMalformed = errors.New("invalid data format received from server")
)

// Service defines the interface for task backend operations.
// The backend owns the tracker integration and spreadsheet parsing;
// callers only see task records.
type Service interface {
	// ListTasks returns every task the tracker reports, in backend order.
	// Fails with ErrMalformed unless the response is an array of records.
	ListTasks(ctx context.Context) ([]Task, error)

	// UpdateTasks pushes committed tasks to the tracker.
	// The acknowledgement is not inspected.
	UpdateTasks(ctx context.Context, tasks []Task) error

	// CreateTasks registers pending tasks with the tracker and returns the
	// ids it issued, keyed by the placeholder ids that were sent.
	CreateTasks(ctx context.Context, tasks []Task) ([]CreatedTask, error)

	// ImportSpreadsheet uploads a spreadsheet and returns the task-like
	// records the backend parsed from it. Records may lack id or owner.
	ImportSpreadsheet(ctx context.Context, filename string, r io.Reader) ([]Task, error)
}
