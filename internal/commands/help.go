package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskgrid/internal/config"
	"taskgrid/internal/exitcode"
	"taskgrid/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "taskgrid help" }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskgrid                                         List session tasks
  taskgrid list [common flags] [--view <view>]     List session tasks
  taskgrid show [common flags] [--view <view>] [<ref>]
  taskgrid fetch [common flags]                    Merge tracker tasks into the session
  taskgrid refresh [common flags]
  taskgrid add [common flags] [--stage <stage>] [<description...>]
  taskgrid set [common flags] <ref> <field> <value...>
  taskgrid rm [common flags] [--yes] <ref>
  taskgrid import [common flags] <file.xlsx>
  taskgrid save [common flags]                     Create new tasks, update deploy-owned tasks
  taskgrid reset [common flags]                    Discard the session
  taskgrid serve [common flags] [--addr <host:port>]
  taskgrid login [common flags] [--token <token>]
  taskgrid logout [common flags]
  taskgrid help
  taskgrid version

Views:
  all         every task (default)
  withId      tasks created in the tracker
  withoutId   tasks without a tracker id yet

A <ref> is a row number from 'taskgrid list' or a task id.

Fields:
  description stage chg status actionable owner start end service
  deploy-state weeks files impact complexity priority release
  (backend column names such as Actividades are accepted too)

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
