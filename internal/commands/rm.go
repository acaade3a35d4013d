package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskgrid/internal/collection"
	"taskgrid/internal/config"
	"taskgrid/internal/exitcode"
	"taskgrid/internal/service"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	yes bool
}

// SetYes skips the confirmation prompt (for testing).
func (c *RmCmd) SetYes(yes bool) {
	c.yes = yes
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a session task" }
func (c *RmCmd) Usage() string      { return "taskgrid rm [--yes] <ref>" }
func (c *RmCmd) NeedsBackend() bool { return false }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: task reference required")
		return exitcode.UserError
	}
	ref, err := ParseTaskRef(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	confirm := promptConfirmer(in, errOut)
	if c.yes {
		confirm = collection.ConfirmFunc(func(string) bool { return true })
	}

	return withSession(ctx, cfg, svc, errOut, true, func(col *collection.Collection) int {
		_, task, err := ref.Resolve(col)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}

		err = col.DeleteTask(task.ID, confirm)
		switch {
		case errors.Is(err, collection.ErrDeclined):
			fmt.Fprintln(errOut, "error: deletion not confirmed")
			return exitcode.UserError
		case err != nil:
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}

		if !cfg.Quiet {
			fmt.Fprintln(out, "ok")
		}
		return exitcode.Success
	})
}

// promptConfirmer asks on errOut and reads a y/N answer from in.
func promptConfirmer(in io.Reader, errOut io.Writer) collection.Confirmer {
	return collection.ConfirmFunc(func(prompt string) bool {
		if in == nil {
			return false
		}
		fmt.Fprintf(errOut, "%s [y/N] ", prompt)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}
