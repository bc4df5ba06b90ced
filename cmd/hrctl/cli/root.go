// Package cli implements the hrctl command tree.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/authctx"
	"github.com/odyssey-erp/odyssey-hrms/internal/sessionstore"
)

// ErrNotSignedIn is returned by commands that need a session.
var ErrNotSignedIn = errors.New("not signed in, run `hrctl login` first")

// AuthService is the slice of auth.Service the CLI drives.
type AuthService interface {
	authctx.Authenticator
	Login(ctx context.Context, store sessionstore.Store, email, password string) (*auth.User, error)
	ReapExpiredSessions(ctx context.Context) (int64, error)
}

// UserAdmin performs authorized account changes on behalf of an actor.
type UserAdmin interface {
	Create(ctx context.Context, actor *auth.User, in auth.NewUser) (auth.Created, error)
	ChangePassword(ctx context.Context, actor *auth.User, profileID uuid.UUID, newPassword string) error
}

// Enqueuer submits background jobs.
type Enqueuer interface {
	EnqueueSessionReap(ctx context.Context, requestedBy string) (*asynq.TaskInfo, error)
}

// Env carries the dependencies of one hrctl invocation.
type Env struct {
	Auth     AuthService
	Users    UserAdmin
	Store    sessionstore.Store
	Enqueuer Enqueuer
	Logger   *slog.Logger
	Close    func() error
}

// GlobalOptions are the persistent flags.
type GlobalOptions struct {
	ClientID string
	Output   string
	Verbose  bool
}

// Bootstrap builds an Env for the parsed global options.
type Bootstrap func(ctx context.Context, opts GlobalOptions) (*Env, error)

type runtime struct {
	opts      GlobalOptions
	bootstrap Bootstrap
	env       *Env
	provider  *authctx.Provider
	stdin     *bufio.Reader
}

// NewRootCommand assembles the hrctl command tree.
func NewRootCommand(bootstrap Bootstrap) *cobra.Command {
	rt := &runtime{bootstrap: bootstrap}

	root := &cobra.Command{
		Use:           "hrctl",
		Short:         "Odyssey HRMS command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch rt.opts.Output {
			case "table", "json":
			default:
				return fmt.Errorf("unknown output format %q", rt.opts.Output)
			}
			env, err := rt.bootstrap(cmd.Context(), rt.opts)
			if err != nil {
				return err
			}
			if env.Logger == nil {
				env.Logger = slog.Default()
			}
			rt.env = env
			rt.provider = authctx.NewProvider(env.Auth, env.Store, env.Logger)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.provider != nil {
				rt.provider.Close()
			}
			if rt.env != nil && rt.env.Close != nil {
				return rt.env.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&rt.opts.ClientID, "client-id", "", "keep the session in Redis under this client id instead of a local file")
	flags.StringVarP(&rt.opts.Output, "output", "o", "table", "output format (table, json)")
	flags.BoolVarP(&rt.opts.Verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newWhoamiCommand(rt),
		newUsersCommand(rt),
		newSessionsCommand(rt),
	)
	return root
}

// currentUser resolves the stored session to a user.
func (rt *runtime) currentUser(ctx context.Context) (*auth.User, error) {
	state := rt.provider.Init(ctx)
	if state.User == nil {
		return nil, ErrNotSignedIn
	}
	return state.User, nil
}
