package commands

import (
	"context"
	"flag"
	"io"

	"taskgrid/internal/collection"
	"taskgrid/internal/config"
	"taskgrid/internal/service"
)

func init() {
	Register(&FetchCmd{})
}

// FetchCmd merges the tracker's tasks into the session.
type FetchCmd struct{}

func (c *FetchCmd) Name() string       { return "fetch" }
func (c *FetchCmd) Aliases() []string  { return []string{"refresh"} }
func (c *FetchCmd) Synopsis() string   { return "Fetch tasks from the tracker" }
func (c *FetchCmd) Usage() string      { return "taskgrid fetch [common flags]" }
func (c *FetchCmd) NeedsBackend() bool { return true }

func (c *FetchCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *FetchCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	return withSession(ctx, cfg, svc, errOut, true, func(col *collection.Collection) int {
		_, err := col.FetchAndMerge(ctx)
		return reportStatus(cfg, col, err, out, errOut)
	})
}
