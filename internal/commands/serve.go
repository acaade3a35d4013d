package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"taskgrid/internal/collection"
	"taskgrid/internal/config"
	"taskgrid/internal/exitcode"
	"taskgrid/internal/logging"
	"taskgrid/internal/service"
	"taskgrid/internal/web"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd runs the browser grid until the context is cancelled.
// The served collection lives in memory and starts empty.
type ServeCmd struct {
	addr string
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return nil }
func (c *ServeCmd) Synopsis() string   { return "Serve the task grid in the browser" }
func (c *ServeCmd) Usage() string      { return "taskgrid serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsBackend() bool { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	addr := c.addr
	if addr == "" {
		addr = cfg.Settings.ListenAddr
	}

	if cfg.Settings.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	log := logging.ForServer(cfg.Settings, cfg.Debug)
	tasks := collection.New(svc, collection.WithLogger(log))

	server, err := web.NewServer(tasks, log)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "serving on %s\n", addr)
	}
	if err := server.Run(ctx, addr, cfg.Settings.ShutdownTimeout); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
