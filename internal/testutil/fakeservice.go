// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"taskgrid/internal/service"
)

// Upload records one ImportSpreadsheet call.
type Upload struct {
	Filename string
	Data     []byte
}

// FakeService is an in-memory implementation of service.Service for testing.
// Created tasks get ids J-1001, J-1002, ... unless Issue maps the temp id.
type FakeService struct {
	mu     sync.Mutex
	remote []service.Task
	parsed []service.Task
	nextID int

	// Issue overrides the id issued for a temp id.
	Issue map[string]string

	// Error injection for testing
	ListErr   error
	UpdateErr error
	CreateErr error
	ImportErr error

	// Call recording
	lists   int
	updates [][]service.Task
	creates [][]service.Task
	uploads []Upload
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{nextID: 1001, Issue: make(map[string]string)}
}

// AddTask adds a task to the tracker.
func (f *FakeService) AddTask(id, description, owner string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remote = append(f.remote, service.Task{
		ID:          id,
		Description: description,
		Stage:       service.StageToDo,
		Owner:       owner,
	})
}

// SetParsed sets the records returned for any uploaded spreadsheet.
func (f *FakeService) SetParsed(tasks ...service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parsed = slices.Clone(tasks)
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return slices.Clone(f.remote), nil
}

// UpdateTasks implements service.Service.
func (f *FakeService) UpdateTasks(ctx context.Context, tasks []service.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, slices.Clone(tasks))
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	for _, t := range tasks {
		for i := range f.remote {
			if f.remote[i].ID == t.ID {
				f.remote[i] = t
			}
		}
	}
	return nil
}

// CreateTasks implements service.Service.
func (f *FakeService) CreateTasks(ctx context.Context, tasks []service.Task) ([]service.CreatedTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, slices.Clone(tasks))
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	created := make([]service.CreatedTask, 0, len(tasks))
	for _, t := range tasks {
		id, ok := f.Issue[t.ID]
		if !ok {
			id = fmt.Sprintf("J-%d", f.nextID)
			f.nextID++
		}
		created = append(created, service.CreatedTask{TempID: t.ID, JiraID: id})
		t.ID = id
		f.remote = append(f.remote, t)
	}
	return created, nil
}

// ImportSpreadsheet implements service.Service.
func (f *FakeService) ImportSpreadsheet(ctx context.Context, filename string, r io.Reader) ([]service.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, Upload{Filename: filename, Data: data})
	if f.ImportErr != nil {
		return nil, f.ImportErr
	}
	return slices.Clone(f.parsed), nil
}

// ListCalls returns how many times ListTasks was called.
func (f *FakeService) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

// Updates returns the payload of every UpdateTasks call.
func (f *FakeService) Updates() [][]service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.updates)
}

// Creates returns the payload of every CreateTasks call.
func (f *FakeService) Creates() [][]service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.creates)
}

// Uploads returns every ImportSpreadsheet call.
func (f *FakeService) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.uploads)
}

// Calls returns the total number of backend calls.
func (f *FakeService) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists + len(f.updates) + len(f.creates) + len(f.uploads)
}
