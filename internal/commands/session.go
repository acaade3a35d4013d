package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"taskgrid/internal/collection"
	"taskgrid/internal/config"
	"taskgrid/internal/exitcode"
	"taskgrid/internal/service"
	"taskgrid/internal/session"
)

// withSession loads the stored session collection, runs fn on it and, when
// write is set, stores the collection again whatever fn returned.
func withSession(ctx context.Context, cfg *config.Config, svc service.Service, errOut io.Writer, write bool, fn func(c *collection.Collection) int) int {
	store, err := session.Open(cfg.SessionPath())
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to open session: %v\n", err)
		return exitcode.AuthError
	}
	defer store.Close()

	tasks, err := store.Load(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to load session: %v\n", err)
		return exitcode.AuthError
	}

	c := collection.New(svc, collection.WithLogger(*zerolog.Ctx(ctx)))
	c.Load(tasks)

	code := fn(c)

	if write {
		if err := store.Save(ctx, c.Tasks()); err != nil {
			fmt.Fprintf(errOut, "error: failed to store session: %v\n", err)
			return exitcode.AuthError
		}
	}
	return code
}

// reportStatus prints the outcome of a backend-backed collection operation.
func reportStatus(cfg *config.Config, c *collection.Collection, err error, out, errOut io.Writer) int {
	st := c.Status()
	switch {
	case err == nil:
		if !cfg.Quiet {
			fmt.Fprintln(out, st.Notice)
		}
		return exitcode.Success
	case errors.Is(err, collection.ErrNothingToSave):
		fmt.Fprintf(errOut, "warning: %s\n", st.Warning)
		return exitcode.Success
	case errors.Is(err, collection.ErrUnsupportedFile):
		fmt.Fprintln(errOut, st.Error)
		return exitcode.UserError
	default:
		fmt.Fprintln(errOut, st.Error)
		return exitcode.BackendError
	}
}
