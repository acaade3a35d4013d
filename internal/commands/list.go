package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskgrid/internal/collection"
	"taskgrid/internal/config"
	"taskgrid/internal/exitcode"
	"taskgrid/internal/output"
	"taskgrid/internal/service"
)

func init() {
	Register(&ListCmd{})
	Register(&ShowCmd{})
}

// ListCmd implements the list command.
// Handles both `taskgrid` (no args) and `taskgrid list --view <kind>`.
type ListCmd struct {
	view string
}

// SetView sets the view (for testing).
func (c *ListCmd) SetView(view string) {
	c.view = view
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List session tasks" }
func (c *ListCmd) Usage() string      { return "taskgrid list [--view all|withId|withoutId]" }
func (c *ListCmd) NeedsBackend() bool { return false }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.view, "view", string(collection.All), "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	kind, code := parseView(c.view, errOut)
	if code != exitcode.Success {
		return code
	}
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	return withSession(ctx, cfg, svc, errOut, false, func(col *collection.Collection) int {
		nums, tasks := rowNumbers(col, kind)
		if len(tasks) == 0 {
			if !cfg.Quiet {
				fmt.Fprintln(out, "no tasks found")
			}
			return exitcode.Success
		}
		for i, task := range tasks {
			output.FormatTask(out, nums[i], task)
		}
		return exitcode.Success
	})
}

// ShowCmd prints every field, as a grid or for a single task.
type ShowCmd struct {
	view string
}

func (c *ShowCmd) Name() string       { return "show" }
func (c *ShowCmd) Aliases() []string  { return nil }
func (c *ShowCmd) Synopsis() string   { return "Show every field of session tasks" }
func (c *ShowCmd) Usage() string      { return "taskgrid show [--view all|withId|withoutId] [<ref>]" }
func (c *ShowCmd) NeedsBackend() bool { return false }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.view, "view", string(collection.All), "")
}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	kind, code := parseView(c.view, errOut)
	if code != exitcode.Success {
		return code
	}

	return withSession(ctx, cfg, svc, errOut, false, func(col *collection.Collection) int {
		if len(args) > 0 {
			ref, err := ParseTaskRef(args[0])
			if err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
				return exitcode.UserError
			}
			num, task, err := ref.Resolve(col)
			if err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
				return exitcode.UserError
			}
			output.FormatDetail(out, num, task)
			return exitcode.Success
		}

		nums, tasks := rowNumbers(col, kind)
		if len(tasks) == 0 {
			if !cfg.Quiet {
				fmt.Fprintln(out, "no tasks found")
			}
			return exitcode.Success
		}
		output.FormatGrid(out, nums, tasks)
		return exitcode.Success
	})
}

func parseView(s string, errOut io.Writer) (collection.Kind, int) {
	if s == "" {
		return collection.All, exitcode.Success
	}
	kind, err := collection.ParseKind(s)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return "", exitcode.UserError
	}
	return kind, exitcode.Success
}
