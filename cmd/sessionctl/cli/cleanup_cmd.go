package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sessionctl/cli/cmd/sessionctl/cli/session"
)

func newCleanupCmd() *cobra.Command {
	var (
		project      string
		dryRun       bool
		clearEmpty   bool
		clearInvalid bool
		orphanAgents bool
		orphanTodos  bool
		all          bool
		yes          bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Prune worthless sessions and stale sidecar files",
		Long: "Runs any combination of four passes: delete sessions with no conversation, " +
			"scrub invalid-credential records, retire agent logs whose session is gone, " +
			"and retire todo files whose session is gone. Deleted sessions are backed up first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all {
				clearEmpty, clearInvalid, orphanAgents, orphanTodos = true, true, true, true
			}
			if !clearEmpty && !clearInvalid && !orphanAgents && !orphanTodos && !dryRun {
				return errors.New("nothing to do, pass --empty, --invalid, --orphan-agents, --orphan-todos or --all")
			}

			if dryRun {
				preview, err := session.PreviewCleanup(cmd.Context(), project)
				if err != nil {
					return err
				}
				printPreview(cmd, preview)
				return nil
			}

			if !yes {
				ok, err := confirm("Run cleanup? Deleted sessions are backed up under .bak.")
				if err != nil {
					return err
				}
				if !ok {
					cmd.Println("Aborted.")
					return nil
				}
			}

			result, err := session.ClearSessions(cmd.Context(), session.CleanupOptions{
				Project:           project,
				ClearEmpty:        clearEmpty,
				ClearInvalid:      clearInvalid,
				ClearOrphanAgents: orphanAgents,
				ClearOrphanTodos:  orphanTodos,
			})
			if err != nil {
				return err
			}
			cmd.Printf("Deleted %d sessions, scrubbed %d records\n", result.DeletedSessions, result.RemovedRecords)
			cmd.Printf("Retired %d agent logs, %d todos, %d orphan agent logs, %d orphan todos\n",
				result.RetiredAgents, result.RetiredTodos, result.RetiredOrphanAgents, result.RetiredOrphanTodos)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "restrict cleanup to one project")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be removed without touching anything")
	cmd.Flags().BoolVar(&clearEmpty, "empty", false, "delete sessions with no conversation")
	cmd.Flags().BoolVar(&clearInvalid, "invalid", false, "scrub invalid-credential records")
	cmd.Flags().BoolVar(&orphanAgents, "orphan-agents", false, "retire agent logs whose session is gone")
	cmd.Flags().BoolVar(&orphanTodos, "orphan-todos", false, "retire todo files whose session is gone")
	cmd.Flags().BoolVar(&all, "all", false, "enable every cleanup pass")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func printPreview(cmd *cobra.Command, preview *session.CleanupPreview) {
	for _, p := range preview.Projects {
		if len(p.EmptySessions) == 0 && len(p.InvalidSessions) == 0 && len(p.OrphanAgents) == 0 {
			continue
		}
		cmd.Printf("%s\n", p.Project)
		for _, s := range p.EmptySessions {
			cmd.Printf("  empty    %s  %s\n", s.ID, s.Title)
		}
		for _, s := range p.InvalidSessions {
			cmd.Printf("  invalid  %s  %s\n", s.ID, s.Title)
		}
		for _, a := range p.OrphanAgents {
			cmd.Printf("  orphan agent  %s (session %s)\n", a.AgentID, a.SessionID)
		}
	}
	for _, f := range preview.OrphanTodos {
		cmd.Printf("orphan todo  %s\n", f)
	}
	if len(preview.OrphanTodos) == 0 {
		empty := true
		for _, p := range preview.Projects {
			if len(p.EmptySessions) > 0 || len(p.InvalidSessions) > 0 || len(p.OrphanAgents) > 0 {
				empty = false
				break
			}
		}
		if empty {
			cmd.Println("Nothing to clean up.")
		}
	}
}
