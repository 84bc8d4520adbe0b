package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/createsphere/marketplace/internal/core/ports"
	"github.com/createsphere/marketplace/internal/core/session"
	"github.com/createsphere/marketplace/internal/infrastructure/identity"
	"github.com/createsphere/marketplace/internal/infrastructure/localstore"
	"github.com/createsphere/marketplace/internal/pkg/config"
	"github.com/createsphere/marketplace/pkg/logger"
)

const requestTimeout = 15 * time.Second

var buildVersion = "dev"

// cli carries what every command needs. Commands build their own session on
// top of store so each invocation starts from durable state only.
type cli struct {
	apiBase string
	store   ports.KeyValueStore
	out     io.Writer
	log     zerolog.Logger
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr})

	app := &cli{apiBase: cfg.APIBaseURL, out: os.Stdout, log: log}
	if fs, err := localstore.Open(cfg.StateDir); err != nil {
		log.Warn().Err(err).Msg("durable storage unavailable, session will not persist")
	} else {
		app.store = fs
	}

	if err := app.run(os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid usage")

func (a *cli) run(cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.commandLogin(args, false)
	case "admin-login":
		return a.commandLogin(args, true)
	case "logout":
		return a.commandLogout(args)
	case "whoami":
		return a.commandWhoami(args)
	case "chat-check":
		return a.commandChatCheck(args)
	case "version", "--version", "-v":
		fmt.Fprintf(a.out, "marketplace %s\n", buildVersion)
		return nil
	case "help", "-h", "--help":
		printUsage(a.out)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *cli) client(override string) (*identity.Client, error) {
	base := a.apiBase
	if strings.TrimSpace(override) != "" {
		base = override
	}
	return identity.New(base)
}

// restore rebuilds the session from durable storage and validates it.
func (a *cli) restore(ctx context.Context, client *identity.Client) (*session.Session, session.Result) {
	sess := session.New(a.store)
	res := session.NewRestorer(sess, a.store, client, a.log).Restore(ctx)
	return sess, res
}

func (a *cli) commandLogin(args []string, admin bool) error {
	name := "login"
	if admin {
		name = "admin-login"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (overrides MARKETPLACE_API)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}

	secret := *password
	if secret == "" {
		fmt.Fprint(a.out, "Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		secret = string(raw)
	}

	client, err := a.client(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sess := session.New(a.store)
	if admin {
		if err := session.AdminLogin(ctx, sess, client, *email, secret); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "admin login successful")
		return nil
	}

	user, err := session.Login(ctx, sess, client, *email, secret)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func (a *cli) commandLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	apiBase := fs.String("api", "", "API base URL (overrides MARKETPLACE_API)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := a.client(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sess, _ := a.restore(ctx, client)
	if err := session.Logout(ctx, sess, client, a.log); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *cli) commandWhoami(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	apiBase := fs.String("api", "", "API base URL (overrides MARKETPLACE_API)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := a.client(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sess, res := a.restore(ctx, client)
	printState(a.out, sess.Snapshot(), res)
	return nil
}

func (a *cli) commandChatCheck(args []string) error {
	fs := flag.NewFlagSet("chat-check", flag.ContinueOnError)
	apiBase := fs.String("api", "", "API base URL (overrides MARKETPLACE_API)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: chat-check <user-id>", errUsage)
	}
	other := fs.Arg(0)

	client, err := a.client(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	sess, _ := a.restore(ctx, client)
	snap := sess.Snapshot()
	token := snap.AuthToken
	if snap.IsAdminAuthenticated() {
		token = snap.AdminToken
	}
	if token == "" {
		return errors.New("not logged in")
	}

	allowed, err := client.ChatAllowed(ctx, token, other)
	if err != nil {
		return err
	}
	if allowed {
		fmt.Fprintf(a.out, "chat with %s: allowed\n", other)
	} else {
		fmt.Fprintf(a.out, "chat with %s: not allowed (a conversation needs a creator)\n", other)
	}
	return nil
}

func printState(w io.Writer, snap session.Snapshot, res session.Result) {
	fmt.Fprintf(w, "restoration:    %s\n", res.Outcome)
	if res.Err != nil {
		fmt.Fprintf(w, "reason:         %v\n", res.Err)
	}
	fmt.Fprintf(w, "authenticated:  %t\n", snap.IsAuthenticated())
	fmt.Fprintf(w, "admin:          %t\n", snap.IsAdminAuthenticated())
	if snap.User == nil {
		return
	}
	fmt.Fprintf(w, "user:           %s (%s)\n", snap.User.Username, snap.User.ID)
	fmt.Fprintf(w, "role:           %s\n", snap.Role())
	fmt.Fprintf(w, "verified:       %t\n", snap.IsVerified())
	fmt.Fprintf(w, "blocked:        %t\n", snap.IsBlocked())
	if p := snap.CreatorProfile(); p != nil {
		fmt.Fprintf(w, "creator:        %s\n", p.DisplayName)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: marketplace <command> [flags]

Commands:
  login         --email <email> [--password <pw>]   log in as creator or user
  admin-login   --email <email> [--password <pw>]   log in to the admin tier
  logout                                            revoke and forget stored credentials
  whoami                                            restore the stored session and print it
  chat-check    <user-id>                           check whether you may chat with a user
  version                                           print the CLI version

Environment:
  MARKETPLACE_API         API base URL (default http://localhost:8080)
  MARKETPLACE_STATE_DIR   directory holding session.json
  MARKETPLACE_LOG_LEVEL   log level (default warn)
`)
}
