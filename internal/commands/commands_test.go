package commands_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskgrid/internal/commands"
	"taskgrid/internal/config"
	"taskgrid/internal/exitcode"
	"taskgrid/internal/service"
	"taskgrid/internal/session"
	"taskgrid/internal/testutil"
)

// runCommand is a helper to run a command with FakeService in dir.
func runCommand(t *testing.T, cmd commands.Command, svc *testutil.FakeService, dir string, args []string, stdin string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:   dir,
		Quiet: quiet,
	}

	var s service.Service
	if svc != nil {
		s = svc
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, s, args, strings.NewReader(stdin), &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// seedSession stores tasks as the session collection in dir.
func seedSession(t *testing.T, dir string, tasks ...service.Task) {
	t.Helper()
	store, err := session.Open(filepath.Join(dir, config.SessionFile))
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	defer store.Close()
	if err := store.Save(context.Background(), tasks); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
}

// loadSession returns the session collection stored in dir.
func loadSession(t *testing.T, dir string) []service.Task {
	t.Helper()
	store, err := session.Open(filepath.Join(dir, config.SessionFile))
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	defer store.Close()
	tasks, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	return tasks
}

func sampleTasks() []service.Task {
	return []service.Task{
		{ID: "J-1", Description: "deploy api", Stage: service.StageToDo, Owner: "deploy", State: service.Committed},
		{ID: "NEW-abc", Description: "write docs", Stage: service.StageToDo, Owner: "deploy", State: service.Pending},
		{ID: "J-22", Description: "review\nchanges", Stage: service.StageInProgress, Owner: "alice", State: service.Committed},
	}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	cmd := &commands.VersionCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, t.TempDir(), nil, "", false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskgrid 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	cmd := &commands.HelpCmd{}

	stdout, _, code := runCommand(t, cmd, nil, t.TempDir(), nil, "", false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("help output should contain 'Usage:'")
	}
	for _, c := range commands.DefaultRegistry.All() {
		if !strings.Contains(stdout, "taskgrid "+c.Name()) {
			t.Errorf("help output missing command %s", c.Name())
		}
	}
}

// Tests for list command
func TestListCommand_All(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	cmd := &commands.ListCmd{}
	cmd.SetView("all")
	stdout, stderr, code := runCommand(t, cmd, nil, dir, nil, "", false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d: %s", exitcode.Success, code, stderr)
	}
	testutil.GoldenString(t, "list_all", stdout)
}

func TestListCommand_WithIDKeepsRowNumbers(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	cmd := &commands.ListCmd{}
	cmd.SetView("withId")
	stdout, _, code := runCommand(t, cmd, nil, dir, nil, "", false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	testutil.GoldenString(t, "list_with_id", stdout)
}

func TestListCommand_Empty(t *testing.T) {
	cmd := &commands.ListCmd{}
	cmd.SetView("all")

	stdout, _, code := runCommand(t, cmd, nil, t.TempDir(), nil, "", false)
	if code != exitcode.Success || stdout != "no tasks found\n" {
		t.Errorf("code %d, stdout %q", code, stdout)
	}

	stdout, _, _ = runCommand(t, cmd, nil, t.TempDir(), nil, "", true)
	if stdout != "" {
		t.Errorf("expected no output with --quiet, got %q", stdout)
	}
}

func TestListCommand_BadView(t *testing.T) {
	cmd := &commands.ListCmd{}
	cmd.SetView("created")

	_, stderr, code := runCommand(t, cmd, nil, t.TempDir(), nil, "", false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown view: created\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for show command
func TestShowCommand_Detail(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	stdout, _, code := runCommand(t, &commands.ShowCmd{}, nil, dir, []string{"J-22"}, "", false)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	for _, want := range []string{"ID_Jira", "J-22", "Estado_Jira", "IN PROGRESS", "committed", "Liberacion"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("show output missing %q:\n%s", want, stdout)
		}
	}
}

func TestShowCommand_Grid(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	cmd := &commands.ShowCmd{}
	stdout, _, code := runCommand(t, cmd, nil, dir, nil, "", false)
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	for _, want := range []string{"Actividades", "deploy api", "NEW", "review changes"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("grid missing %q:\n%s", want, stdout)
		}
	}
}

// Tests for add command
func TestAddCommand_Success(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	cmd := &commands.AddCmd{}
	cmd.SetStage("done")
	stdout, stderr, code := runCommand(t, cmd, nil, dir, []string{"rotate", "certs"}, "", false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d: %s", exitcode.Success, code, stderr)
	}
	if stdout != "added task 4\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}

	tasks := loadSession(t, dir)
	got := tasks[3]
	if !got.IsPending() || got.Description != "rotate certs" || got.Stage != service.StageDone || got.Owner != "deploy" {
		t.Errorf("added task = %+v", got)
	}
}

func TestAddCommand_InvalidStage(t *testing.T) {
	cmd := &commands.AddCmd{}
	cmd.SetStage("blocked")
	_, _, code := runCommand(t, cmd, nil, t.TempDir(), nil, "", false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
}

// Tests for set command
func TestSetCommand(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	stdout, _, code := runCommand(t, &commands.SetCmd{}, nil, dir, []string{"2", "Actividades", "write", "better", "docs"}, "", false)
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("code %d, stdout %q", code, stdout)
	}
	if got := loadSession(t, dir)[1].Description; got != "write better docs" {
		t.Errorf("description = %q", got)
	}
}

func TestSetCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"no ref", nil, "error: task reference required\n"},
		{"no value", []string{"1", "owner"}, "error: field and value required\n"},
		{"unknown field", []string{"1", "ID_Jira", "J-9"}, "error: unknown field: ID_Jira\n"},
		{"out of range", []string{"9", "owner", "bob"}, "error: task number out of range: 9\n"},
		{"unknown id", []string{"J-9", "owner", "bob"}, "error: task not found: J-9\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCommand(t, &commands.SetCmd{}, nil, dir, tt.args, "", false)
			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.stderr {
				t.Errorf("expected %q, got %q", tt.stderr, stderr)
			}
		})
	}
}

// Tests for rm command
func TestRmCommand_Yes(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	cmd := &commands.RmCmd{}
	cmd.SetYes(true)
	stdout, _, code := runCommand(t, cmd, nil, dir, []string{"J-1"}, "", false)

	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("code %d, stdout %q", code, stdout)
	}
	tasks := loadSession(t, dir)
	if len(tasks) != 2 || tasks[0].ID != "NEW-abc" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestRmCommand_Declined(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	_, stderr, code := runCommand(t, &commands.RmCmd{}, nil, dir, []string{"1"}, "no\n", false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasSuffix(stderr, "error: deletion not confirmed\n") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if len(loadSession(t, dir)) != 3 {
		t.Error("declined rm removed a task")
	}
}

func TestRmCommand_DuplicateIDRefused(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir,
		service.Task{ID: "IMP-1", Description: "first import", State: service.Committed},
		service.Task{ID: "J-1", Description: "other", State: service.Committed},
		service.Task{ID: "IMP-1", Description: "second import", State: service.Committed},
	)

	cmd := &commands.RmCmd{}
	cmd.SetYes(true)
	_, stderr, code := runCommand(t, cmd, nil, dir, []string{"3"}, "", false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task id is not unique: IMP-1 (rows 1 and 3)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}

	tasks := loadSession(t, dir)
	if len(tasks) != 3 || tasks[0].Description != "first import" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestRmCommand_NoRef(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.RmCmd{}, nil, t.TempDir(), nil, "", false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task reference required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for fetch command
func TestFetchCommand(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	svc := testutil.NewFakeService()
	svc.AddTask("J-1", "remote copy", "deploy")
	svc.AddTask("J-30", "new upstream", "bob")

	stdout, _, code := runCommand(t, &commands.FetchCmd{}, svc, dir, nil, "", false)
	if code != exitcode.Success || stdout != "1 task added\n" {
		t.Fatalf("code %d, stdout %q", code, stdout)
	}

	tasks := loadSession(t, dir)
	if len(tasks) != 4 || tasks[0].Description != "deploy api" || tasks[3].ID != "J-30" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestFetchCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListErr = fmt.Errorf("%w: 500 jira unavailable", service.ErrStatus)

	_, stderr, code := runCommand(t, &commands.FetchCmd{}, svc, t.TempDir(), nil, "", false)
	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	expected := "error refreshing tasks: backend error: 500 jira unavailable\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

// Tests for save command
func TestSaveCommand_NothingToSave(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, service.Task{ID: "J-2", Owner: "alice", State: service.Committed})

	svc := testutil.NewFakeService()
	stdout, stderr, code := runCommand(t, &commands.SaveCmd{}, svc, dir, nil, "", false)
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" || !strings.HasPrefix(stderr, "warning: nothing to save") {
		t.Errorf("stdout %q, stderr %q", stdout, stderr)
	}
	if svc.Calls() != 0 {
		t.Errorf("backend calls = %d, want 0", svc.Calls())
	}
}

func TestSaveCommand_CreatesAndPersistsIDs(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	svc := testutil.NewFakeService()
	svc.Issue["NEW-abc"] = "J-23"

	stdout, _, code := runCommand(t, &commands.SaveCmd{}, svc, dir, nil, "", true)
	if code != exitcode.Success || stdout != "" {
		t.Fatalf("code %d, stdout %q", code, stdout)
	}

	tasks := loadSession(t, dir)
	if tasks[1].ID != "J-23" || tasks[1].IsPending() {
		t.Errorf("created task = %+v", tasks[1])
	}
	updates := svc.Updates()
	if len(updates) != 1 || len(updates[0]) != 1 || updates[0][0].ID != "J-1" {
		t.Errorf("updates = %+v", updates)
	}
}

func TestSaveCommand_UpdateFailureKeepsCreatedIDs(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	svc := testutil.NewFakeService()
	svc.UpdateErr = fmt.Errorf("%w: connection reset", service.ErrTransport)

	_, stderr, code := runCommand(t, &commands.SaveCmd{}, svc, dir, nil, "", false)
	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.HasPrefix(stderr, "error saving tasks: update tasks: transport error") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if loadSession(t, dir)[1].IsPending() {
		t.Error("created id lost after update failure")
	}
}

// Tests for import command
func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	if err := os.WriteFile(path, []byte("sheet"), 0600); err != nil {
		t.Fatal(err)
	}

	svc := testutil.NewFakeService()
	svc.SetParsed(service.Task{Description: "a"}, service.Task{Description: "b"})

	stdout, _, code := runCommand(t, &commands.ImportCmd{}, svc, dir, []string{path}, "", false)
	if code != exitcode.Success || stdout != "2 tasks imported from plan.xlsx\n" {
		t.Fatalf("code %d, stdout %q", code, stdout)
	}
	if tasks := loadSession(t, dir); len(tasks) != 2 || !tasks[0].IsPending() {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestImportCommand_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.csv")
	if err := os.WriteFile(path, []byte("a,b"), 0600); err != nil {
		t.Fatal(err)
	}

	svc := testutil.NewFakeService()
	_, stderr, code := runCommand(t, &commands.ImportCmd{}, svc, t.TempDir(), []string{path}, "", false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error importing spreadsheet: unsupported file type") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.Calls() != 0 {
		t.Error("backend called for unsupported file")
	}
}

// Tests for reset command
func TestResetCommand(t *testing.T) {
	dir := t.TempDir()
	seedSession(t, dir, sampleTasks()...)

	stdout, _, code := runCommand(t, &commands.ResetCmd{}, nil, dir, nil, "", false)
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("code %d, stdout %q", code, stdout)
	}
	if len(loadSession(t, dir)) != 0 {
		t.Error("session not cleared")
	}
}
