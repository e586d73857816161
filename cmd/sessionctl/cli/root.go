// Package cli assembles the sessionctl command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/logging"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/paths"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/settings"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/telemetry"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/versioninfo"
)

// runState carries per-invocation state between the persistent hooks.
type runState struct {
	telemetry *telemetry.Client
}

func versionString() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s, %s/%s)",
		versioninfo.Version, versioninfo.Commit, versioninfo.Date,
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	state := &runState{}

	root := &cobra.Command{
		Use:           "sessionctl",
		Short:         "Inspect and curate coding-agent session transcripts",
		Long:          "sessionctl browses, renames, splits, prunes and scans the JSONL session transcripts a coding agent writes under its projects directory.",
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("sessionctl version {{.Version}}\n")

	// Accept underscore spellings of multi-word flags.
	root.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		if s.ClaudeDir != "" {
			paths.SetClaudeDir(s.ClaudeDir)
		}
		if err := logging.Init(logging.ParseLevel(s.LogLevel)); err != nil {
			// Logging falls back to stderr internally, never block the command.
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
		state.telemetry = telemetry.New(cmd.Context(), s)
		return nil
	}

	root.PersistentPostRun = func(cmd *cobra.Command, _ []string) {
		// Hidden commands (and descendants of hidden commands) are internal
		// plumbing and not worth reporting.
		hidden := false
		for c := cmd; c != nil; c = c.Parent() {
			if c.Hidden {
				hidden = true
				break
			}
		}
		if !hidden {
			state.telemetry.CaptureCommand(cmd.Context(), cmd.CommandPath())
		}
		state.telemetry.Close()
		logging.Close()
	}

	root.AddCommand(
		newVersionCmd(),
		newProjectsCmd(),
		newSessionsCmd(),
		newShowCmd(),
		newRenameCmd(),
		newSplitCmd(),
		newDeleteCmd(),
		newDeleteMessageCmd(),
		newCleanupCmd(),
		newFilesCmd(),
		newScanCmd(),
		newServeCmd(),
		newMCPCmd(),
		newTelemetryCmd(),
	)
	return root
}

// Execute runs the root command with signal-aware context cancellation.
func Execute(ctx context.Context) error {
	root := NewRootCmd()
	return root.ExecuteContext(ctx) //nolint:wrapcheck // top-level error goes straight to main
}

// confirm asks the user to approve a destructive action. In a non-interactive
// run it refuses instead of guessing.
func confirm(title string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("standard input is not a terminal, pass --yes to proceed without confirmation")
	}
	var ok bool
	if err := huh.NewConfirm().Title(title).Value(&ok).Run(); err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return ok, nil
}
