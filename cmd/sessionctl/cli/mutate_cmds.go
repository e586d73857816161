package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/session"
)

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <project> <session> <title>",
		Short: "Set the display title of a session",
		Long:  "Rewrites the first user message so its first line becomes the new title. The original prompt body is preserved after a blank line.",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args[2:], " ")
			if err := session.RenameSession(args[0], args[1], title); err != nil {
				return err
			}
			cmd.Printf("Renamed session %s to %q\n", args[1], title)
			return nil
		},
	}
}

func newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <project> <session> <uuid>",
		Short: "Split a session into two at a record",
		Long:  "Moves the record with the given uuid and everything after it into a new session. Agent logs spawned by moved records follow the new session.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := session.SplitSession(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			cmd.Printf("Moved %d records into new session %s\n", result.MovedRecords, result.NewSessionID)
			cmd.Printf("  %s\n", result.NewSessionPath)
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <project> <session>",
		Short: "Delete a session, keeping a backup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm("Delete session " + args[1] + "? A backup is kept under .bak.")
				if err != nil {
					return err
				}
				if !ok {
					cmd.Println("Aborted.")
					return nil
				}
			}
			result, err := session.DeleteSession(args[0], args[1])
			if err != nil {
				return err
			}
			if result.BackupPath != "" {
				cmd.Printf("Deleted session %s (backup at %s)\n", args[1], result.BackupPath)
			} else {
				cmd.Printf("Deleted empty session %s\n", args[1])
			}
			if result.RetiredAgents > 0 || result.RetiredTodos > 0 {
				cmd.Printf("Retired %d agent logs and %d todo files\n", result.RetiredAgents, result.RetiredTodos)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func newDeleteMessageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-message <project> <session> <uuid>",
		Short: "Delete one record from a session",
		Long:  "Removes the record with the given uuid or messageId and re-points its children at the nearest surviving ancestor.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.DeleteMessage(args[0], args[1], args[2]); err != nil {
				return err
			}
			cmd.Printf("Deleted record %s\n", args[2])
			return nil
		},
	}
}
