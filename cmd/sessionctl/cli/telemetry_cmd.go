package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/settings"
)

func newTelemetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "telemetry <on|off>",
		Short:     "Enable or disable anonymous usage reporting",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load()
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			enabled := args[0] == "on"
			s.Telemetry = &enabled
			if err := settings.Save(s); err != nil {
				return err
			}
			cmd.Printf("Telemetry %s\n", args[0])
			return nil
		},
	}
}
