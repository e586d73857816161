package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/session"
)

func newFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files <project> <session>",
		Short: "List the files a session created or modified",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := session.ChangedFiles(args[0], args[1])
			if err != nil {
				return err
			}
			if len(summary.Files) == 0 {
				cmd.Println("No file changes recorded.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ACTION\tPATH\tTIMESTAMP")
			for _, f := range summary.Files {
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.Action, f.Path, f.Timestamp)
			}
			return w.Flush() //nolint:wrapcheck // write errors to stdout need no context
		},
	}
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <project> <session>",
		Short: "Scan a session transcript for leaked credentials",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			findings, err := session.ScanSecrets(args[0], args[1])
			if err != nil {
				return err
			}
			if len(findings) == 0 {
				cmd.Println("No secrets found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RULE\tSECRET\tRECORD")
			for _, f := range findings {
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.RuleID, f.Secret, f.RecordUUID)
			}
			if err := w.Flush(); err != nil {
				return err //nolint:wrapcheck // write errors to stdout need no context
			}
			cmd.Printf("\n%d findings. Consider deleting the offending records.\n", len(findings))
			return nil
		},
	}
}
