package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/livestate/inspect"
	"github.com/odvcencio/livestate/scenario"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Report string
}

var reportFormats = []string{"text", "markdown", "html"}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <scenario.yaml>",
		Short: "Run a scenario and report the final state graph",
		Long: `Inspect runs the scenario and reports every state as it stood after the
last step: kind, upstream states, attached lifecycles, and current value.

Example:
  statectl inspect examples/scenarios/diamond.yaml
  statectl inspect --report markdown examples/scenarios/counter.yaml`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range reportFormats {
				if opts.Report == f {
					return nil
				}
			}
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid report format %q: must be one of text, markdown, html", opts.Report))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Report, "report", "text", "report format (text|markdown|html)")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	logger := opts.newLogger(cmd.ErrOrStderr())

	sc, err := scenario.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	result, err := scenario.Run(sc, scenario.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	out := cmd.OutOrStdout()
	switch opts.Report {
	case "markdown":
		err = inspect.WriteMarkdown(out, result.States)
	case "html":
		err = inspect.WriteHTML(out, result.States)
	default:
		err = inspect.WriteText(out, result.States)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}
	return nil
}
