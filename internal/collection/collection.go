// Package collection holds the in-memory task collection behind the grid
// and the CLI, and merges the results of backend calls into it.
package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskgrid/internal/service"
)

// DeletePrompt is the question asked before a task is removed.
const DeletePrompt = "Are you sure you want to delete this task?"

var (
	// ErrDeclined is returned when the user does not confirm a deletion.
	ErrDeclined = errors.New("deletion not confirmed")

	// ErrNotFound is returned when no record has the given id.
	ErrNotFound = errors.New("task not found")

	// ErrNothingToSave is returned by SaveChanges when there are no pending
	// tasks and no committed tasks owned by deploy.
	ErrNothingToSave = errors.New(`nothing to save: no new tasks and no tasks owned by "deploy"`)

	// ErrUnsupportedFile is returned for imports that are not spreadsheets.
	ErrUnsupportedFile = errors.New("unsupported file type (expected .xlsx or .xls)")
)

// Operation prefixes for user-visible failure messages.
const (
	opFetch  = "error refreshing tasks"
	opSave   = "error saving tasks"
	opImport = "error importing spreadsheet"
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Status is what the user sees about the last backend operation.
type Status struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
	Notice  string `json:"notice,omitempty"`
}

// SaveResult counts the tasks sent by SaveChanges.
type SaveResult struct {
	Created int
	Updated int
}

func (r SaveResult) String() string {
	return fmt.Sprintf("%s created, %s updated", count(r.Created, "task"), count(r.Updated, "task"))
}

// Collection is the set of task records of one session.
// It is safe for concurrent use; the lock is never held across a backend call.
type Collection struct {
	svc   service.Service
	log   zerolog.Logger
	newID func() string

	mu     sync.Mutex
	tasks  []service.Task
	status Status
}

// Option configures a Collection.
type Option func(*Collection)

// WithLogger sets the logger used for operations without a context logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Collection) { c.log = log }
}

// WithIDSource replaces the generator behind placeholder ids.
func WithIDSource(next func() string) Option {
	return func(c *Collection) { c.newID = next }
}

// New creates an empty collection backed by svc.
func New(svc service.Service, opts ...Option) *Collection {
	c := &Collection{
		svc:   svc,
		log:   zerolog.Nop(),
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAndMerge appends the backend's tasks whose ids are not known yet.
// Known records are never overwritten, so local edits survive. Tasks
// without an id enter as pending placeholders.
func (c *Collection) FetchAndMerge(ctx context.Context) (added int, err error) {
	c.begin()
	defer func() { c.end(ctx, opFetch, err, count(added, "task")+" added") }()

	incoming, err := c.svc.ListTasks(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := c.idsLocked()
	for i, t := range incoming {
		// Rows without a key are kept as placeholders.
		if t.ID == "" {
			t.ID = c.placeholderLocked(fmt.Sprintf("-%d", i))
		} else if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		t.State = service.StateOf(t.ID)
		c.tasks = append(c.tasks, t)
		added++
	}
	return added, nil
}

// SaveChanges creates pending tasks in the tracker and pushes committed
// tasks owned by deploy. Other committed tasks are not sent.
// Created tasks take the id the tracker issued for them.
func (c *Collection) SaveChanges(ctx context.Context) (res SaveResult, err error) {
	c.begin()
	defer func() { c.end(ctx, opSave, err, res.String()) }()

	pending, eligible := c.saveSets()
	if len(pending) == 0 && len(eligible) == 0 {
		return res, ErrNothingToSave
	}

	if len(pending) > 0 {
		created, err := c.svc.CreateTasks(ctx, pending)
		if err != nil {
			return res, fmt.Errorf("create tasks: %w", err)
		}
		c.commit(ctx, created)
		res.Created = len(pending)
	}

	if len(eligible) > 0 {
		if err := c.svc.UpdateTasks(ctx, eligible); err != nil {
			return res, fmt.Errorf("update tasks: %w", err)
		}
		res.Updated = len(eligible)
	}
	return res, nil
}

func (c *Collection) saveSets() (pending, eligible []service.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range c.tasks {
		switch {
		case t.IsPending():
			pending = append(pending, t)
		case t.IsDeployOwned():
			eligible = append(eligible, t)
		}
	}
	return pending, eligible
}

// commit renames pending records after a create call.
func (c *Collection) commit(ctx context.Context, created []service.CreatedTask) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logger(ctx)
	for _, ct := range created {
		if ct.JiraID == "" {
			continue
		}
		idx := slices.IndexFunc(c.tasks, func(t service.Task) bool {
			return t.IsPending() && t.ID == ct.TempID
		})
		if idx < 0 {
			continue
		}

		// The tracker copy is already loaded; keep ids unique.
		if existing := c.indexLocked(ct.JiraID); existing >= 0 {
			log.Warn().
				Str("temp_id", ct.TempID).
				Str("id", ct.JiraID).
				Msg("created task already present, dropping placeholder")
			c.tasks = slices.Delete(c.tasks, idx, idx+1)
			continue
		}

		c.tasks[idx].ID = ct.JiraID
		c.tasks[idx].State = service.Committed
		log.Debug().
			Str("temp_id", ct.TempID).
			Str("id", ct.JiraID).
			Msg("task created")
	}
}

// AddLocalTask appends an empty pending task owned by deploy.
func (c *Collection) AddLocalTask() service.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := service.Task{
		ID:    c.placeholderLocked(""),
		Stage: service.StageToDo,
		Owner: service.DeployOwner,
		State: service.Pending,
	}
	c.tasks = append(c.tasks, t)
	c.log.Debug().Str("id", t.ID).Msg("task added")
	return t
}

// IsSpreadsheet reports whether the file name has a spreadsheet extension.
func IsSpreadsheet(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return true
	}
	return false
}

// ImportFromSpreadsheet uploads a spreadsheet and appends every record the
// backend parsed from it. Imported records are not deduplicated.
func (c *Collection) ImportFromSpreadsheet(ctx context.Context, filename string, r io.Reader) (n int, err error) {
	name := filepath.Base(filename)

	c.begin()
	defer func() { c.end(ctx, opImport, err, fmt.Sprintf("%s imported from %s", count(n, "task"), name)) }()

	if !IsSpreadsheet(name) {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}

	records, err := c.svc.ImportSpreadsheet(ctx, name, r)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, t := range records {
		if t.ID == "" {
			t.ID = c.placeholderLocked(fmt.Sprintf("-%d", i))
		}
		if t.Owner == "" {
			t.Owner = service.DeployOwner
		}
		t.State = service.StateOf(t.ID)
		c.tasks = append(c.tasks, t)
	}
	return len(records), nil
}

// DeleteTask removes the record with the given id once confirm agrees.
// A nil confirmer declines.
func (c *Collection) DeleteTask(id string, confirm Confirmer) error {
	if _, ok := c.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	// Asked without the lock: the CLI blocks on stdin here.
	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		return ErrDeclined
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.tasks = slices.Delete(c.tasks, idx, idx+1)
	c.log.Debug().Str("id", id).Msg("task deleted")
	return nil
}

// UpdateField sets one field of the record with the given id.
// The change is only sent on the next SaveChanges.
func (c *Collection) UpdateField(id, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.tasks[idx].Set(field, value)
}

// View returns a copy of the records in the partition, in collection order.
func (c *Collection) View(kind Kind) []service.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []service.Task
	for _, t := range c.tasks {
		if kind.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// Tasks returns a copy of every record.
func (c *Collection) Tasks() []service.Task {
	return c.View(All)
}

// Get returns the record with the given id.
func (c *Collection) Get(id string) (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx < 0 {
		return service.Task{}, false
	}
	return c.tasks[idx], true
}

// Load replaces the records, keeping their states.
func (c *Collection) Load(tasks []service.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = slices.Clone(tasks)
}

// Len returns the number of records.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

// Status returns the state of the last backend operation.
func (c *Collection) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Collection) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = Status{Loading: true}
}

func (c *Collection) end(ctx context.Context, op string, err error, notice string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logger(ctx)
	c.status = Status{}
	switch {
	case err == nil:
		c.status.Notice = notice
		log.Info().Msg(notice)
	case errors.Is(err, ErrNothingToSave):
		c.status.Warning = err.Error()
		log.Info().Msg(err.Error())
	default:
		// Failures reach the user through the status.
		c.status.Error = fmt.Sprintf("%s: %v", op, err)
		log.Warn().Err(err).Msg(op)
	}
}

// logger prefers the request logger carried by ctx.
func (c *Collection) logger(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	return &c.log
}

func (c *Collection) idsLocked() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.tasks))
	for _, t := range c.tasks {
		ids[t.ID] = struct{}{}
	}
	return ids
}

func (c *Collection) indexLocked(id string) int {
	return slices.IndexFunc(c.tasks, func(t service.Task) bool { return t.ID == id })
}

// placeholderLocked returns a placeholder id no record uses.
func (c *Collection) placeholderLocked(suffix string) string {
	ids := c.idsLocked()
	for {
		id := service.PlaceholderPrefix + c.newID() + suffix
		if _, taken := ids[id]; !taken {
			return id
		}
	}
}

func count(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
