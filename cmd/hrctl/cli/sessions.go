package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-hrms/internal/rbac"
	"github.com/odyssey-erp/odyssey-hrms/internal/shared"
	"github.com/odyssey-erp/odyssey-hrms/jobs"
)

func newSessionsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session maintenance",
	}
	cmd.AddCommand(newSessionsReapCommand(rt))
	return cmd
}

func newSessionsReapCommand(rt *runtime) *cobra.Command {
	var enqueue bool
	cmd := &cobra.Command{
		Use:   "reap",
		Short: "Delete expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := rt.currentUser(ctx)
			if err != nil {
				return err
			}
			if !rbac.Can(actor.Role, shared.PermSessionsReap) {
				return fmt.Errorf("role %s may not reap sessions", actor.Role)
			}
			out := cmd.OutOrStdout()

			if enqueue {
				if rt.env.Enqueuer == nil {
					return errors.New("job queue not configured")
				}
				info, err := rt.env.Enqueuer.EnqueueSessionReap(ctx, actor.Email)
				if err != nil {
					return fmt.Errorf("enqueue session reap: %w", err)
				}
				if rt.opts.Output == "json" {
					return json.NewEncoder(out).Encode(map[string]string{"taskId": info.ID, "queue": info.Queue})
				}
				fmt.Fprintf(out, "Enqueued %s on %s\n", info.ID, info.Queue)
				return nil
			}

			job := jobs.NewSessionReapJob(rt.env.Auth, rt.env.Logger, nil)
			n, err := job.Run(ctx, actor.Email)
			if err != nil {
				return fmt.Errorf("reap sessions: %w", err)
			}
			if rt.opts.Output == "json" {
				return json.NewEncoder(out).Encode(map[string]int64{"deleted": n})
			}
			fmt.Fprintf(out, "Deleted %d expired sessions\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "hand the reap to the worker instead of running it here")
	return cmd
}
