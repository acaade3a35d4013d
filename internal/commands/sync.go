package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"taskgrid/internal/collection"
	"taskgrid/internal/config"
	"taskgrid/internal/exitcode"
	"taskgrid/internal/service"
	"taskgrid/internal/session"
)

func init() {
	Register(&ImportCmd{})
	Register(&SaveCmd{})
	Register(&ResetCmd{})
}

// ImportCmd uploads a spreadsheet and adds its rows to the session.
type ImportCmd struct{}

func (c *ImportCmd) Name() string       { return "import" }
func (c *ImportCmd) Aliases() []string  { return nil }
func (c *ImportCmd) Synopsis() string   { return "Import tasks from a spreadsheet" }
func (c *ImportCmd) Usage() string      { return "taskgrid import <file.xlsx|file.xls>" }
func (c *ImportCmd) NeedsBackend() bool { return true }

func (c *ImportCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ImportCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	path := strings.TrimSpace(strings.Join(args, " "))
	if path == "" {
		fmt.Fprintln(errOut, "error: file required")
		return exitcode.UserError
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	defer f.Close()

	return withSession(ctx, cfg, svc, errOut, true, func(col *collection.Collection) int {
		_, err := col.ImportFromSpreadsheet(ctx, path, f)
		return reportStatus(cfg, col, err, out, errOut)
	})
}

// SaveCmd sends pending and deploy-owned tasks to the tracker.
type SaveCmd struct{}

func (c *SaveCmd) Name() string       { return "save" }
func (c *SaveCmd) Aliases() []string  { return []string{"push"} }
func (c *SaveCmd) Synopsis() string   { return "Save changes to the tracker" }
func (c *SaveCmd) Usage() string      { return "taskgrid save [common flags]" }
func (c *SaveCmd) NeedsBackend() bool { return true }

func (c *SaveCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *SaveCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	return withSession(ctx, cfg, svc, errOut, true, func(col *collection.Collection) int {
		_, err := col.SaveChanges(ctx)
		return reportStatus(cfg, col, err, out, errOut)
	})
}

// ResetCmd discards the session collection.
type ResetCmd struct{}

func (c *ResetCmd) Name() string       { return "reset" }
func (c *ResetCmd) Aliases() []string  { return nil }
func (c *ResetCmd) Synopsis() string   { return "Discard the session tasks" }
func (c *ResetCmd) Usage() string      { return "taskgrid reset [common flags]" }
func (c *ResetCmd) NeedsBackend() bool { return false }

func (c *ResetCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ResetCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	store, err := session.Open(cfg.SessionPath())
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to open session: %v\n", err)
		return exitcode.AuthError
	}
	defer store.Close()

	if err := store.Clear(ctx); err != nil {
		fmt.Fprintf(errOut, "error: failed to clear session: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
