package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"taskgrid/internal/collection"
	"taskgrid/internal/config"
	"taskgrid/internal/exitcode"
	"taskgrid/internal/service"
)

func init() {
	Register(&AddCmd{})
	Register(&SetCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	stage string
}

// SetStage sets the stage (for testing).
func (c *AddCmd) SetStage(stage string) {
	c.stage = stage
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"new"} }
func (c *AddCmd) Synopsis() string   { return "Add a task without a tracker id" }
func (c *AddCmd) Usage() string      { return "taskgrid add [--stage <stage>] [<description...>]" }
func (c *AddCmd) NeedsBackend() bool { return false }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.stage, "stage", service.StageToDo, "")
	fs.StringVar(&c.stage, "s", service.StageToDo, "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	stage := strings.ToUpper(strings.TrimSpace(c.stage))
	if stage == "" {
		stage = service.StageToDo
	}
	if !slices.Contains(service.Stages, stage) {
		fmt.Fprintf(errOut, "error: invalid stage: %s (expected one of %s)\n", c.stage, strings.Join(service.Stages, ", "))
		return exitcode.UserError
	}
	description := strings.TrimSpace(strings.Join(args, " "))

	return withSession(ctx, cfg, svc, errOut, true, func(col *collection.Collection) int {
		task := col.AddLocalTask()
		if err := col.UpdateField(task.ID, "stage", stage); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		if description != "" {
			if err := col.UpdateField(task.ID, "description", description); err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
				return exitcode.UserError
			}
		}

		if !cfg.Quiet {
			fmt.Fprintf(out, "added task %d\n", col.Len())
		}
		return exitcode.Success
	})
}

// SetCmd edits one field of a session task.
type SetCmd struct{}

func (c *SetCmd) Name() string       { return "set" }
func (c *SetCmd) Aliases() []string  { return []string{"edit"} }
func (c *SetCmd) Synopsis() string   { return "Set a task field" }
func (c *SetCmd) Usage() string      { return "taskgrid set <ref> <field> <value...>" }
func (c *SetCmd) NeedsBackend() bool { return false }

func (c *SetCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SetCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: task reference required")
		return exitcode.UserError
	}
	if len(args) < 3 {
		fmt.Fprintln(errOut, "error: field and value required")
		return exitcode.UserError
	}

	ref, err := ParseTaskRef(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	field := args[1]
	if _, err := service.LookupField(field); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	value := strings.Join(args[2:], " ")

	return withSession(ctx, cfg, svc, errOut, true, func(col *collection.Collection) int {
		_, task, err := ref.Resolve(col)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		if err := col.UpdateField(task.ID, field, value); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}

		if !cfg.Quiet {
			fmt.Fprintln(out, "ok")
		}
		return exitcode.Success
	})
}
