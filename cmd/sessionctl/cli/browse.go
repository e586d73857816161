package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/linkage"
	"github.com/sessionctl/cli/cmd/sessionctl/cli/session"
)

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects that have recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := session.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				cmd.Println("No projects found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROJECT\tSESSIONS\tPATH")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%d\t%s\n", p.Name, p.SessionCount, p.DisplayName)
			}
			return w.Flush() //nolint:wrapcheck // write errors to stdout need no context
		},
	}
}

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <project>",
		Short: "List a project's sessions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := session.ListSessions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				cmd.Println("No sessions found.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tMESSAGES\tUPDATED\tTITLE")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.ID, s.MessageCount, s.UpdatedAt, s.Title)
			}
			return w.Flush() //nolint:wrapcheck // write errors to stdout need no context
		},
	}
}

func newShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <project> <session>",
		Short: "Print a session transcript",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := session.ReadSession(args[0], args[1])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records) //nolint:wrapcheck // encoder errors need no context
			}
			for _, rec := range records {
				if !rec.IsConversational() {
					continue
				}
				text := strings.TrimSpace(rec.TextContent())
				if text == "" {
					continue
				}
				cmd.Printf("[%s] %s\n%s\n\n", rec.Type(), rec.Identity(), text)
			}
			printTodos(cmd, args[0], args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit raw records as JSON")
	return cmd
}

// printTodos appends the session's todo snapshots to the transcript view.
func printTodos(cmd *cobra.Command, project, sessionID string) {
	agents, err := linkage.LinkedAgents(project, sessionID)
	if err != nil {
		return
	}
	bundle := linkage.LinkedTodos(sessionID, agents)
	if !bundle.HasTodos {
		return
	}
	cmd.Println("Todos:")
	for _, item := range bundle.SessionTodos {
		cmd.Printf("  [%s] %s\n", item.Status, item.Content)
	}
	for _, at := range bundle.AgentTodos {
		for _, item := range at.Todos {
			cmd.Printf("  [%s] %s (agent %s)\n", item.Status, item.Content, at.AgentID)
		}
	}
}
