package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/auth"
	"github.com/fincrate/fincrate-backend/internal/model"
	"github.com/fincrate/fincrate-backend/internal/repository"
)

type userCmd struct {
	dbPath string
	email  string
	name   string
	plan   string
}

func (*userCmd) Name() string     { return "user" }
func (*userCmd) Synopsis() string { return "register a user and print an API token" }
func (*userCmd) Usage() string {
	return `fincratectl user -email <email> [-name <name>] [-plan free|paid] [-db <path>]

  Creates a user and prints its ID and a bearer token signed with AUTH_SECRET.
`
}

func (c *userCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", "", "Database file. Defaults to DB_PATH.")
	f.StringVar(&c.email, "email", "", "Email address of the user (required).")
	f.StringVar(&c.name, "name", "", "Display name.")
	f.StringVar(&c.plan, "plan", "free", "Subscription plan: free or paid.")
}

func (c *userCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	email := strings.ToLower(strings.TrimSpace(c.email))
	if email == "" {
		fmt.Fprintln(os.Stderr, "-email is required")
		f.Usage()
		return subcommands.ExitUsageError
	}
	if c.plan != "free" && c.plan != "paid" {
		fmt.Fprintf(os.Stderr, "invalid plan %q: must be free or paid\n", c.plan)
		return subcommands.ExitUsageError
	}

	cfg, db, err := openDatabase(ctx, c.dbPath, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	tokens, err := signingTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	user := model.User{Email: email, Name: c.name, Plan: c.plan}
	if err := repository.NewUserRepository(db).InsertUser(ctx, &user); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	token, err := tokens.Issue(user.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("user:  %s\ntoken: %s\n", user.ID, token)
	return subcommands.ExitSuccess
}

type tokenCmd struct {
	dbPath string
	email  string
	id     string
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue a new API token for an existing user" }
func (*tokenCmd) Usage() string {
	return `fincratectl token (-email <email> | -id <user id>) [-db <path>]
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", "", "Database file. Defaults to DB_PATH.")
	f.StringVar(&c.email, "email", "", "Email address of the user.")
	f.StringVar(&c.id, "id", "", "ID of the user.")
}

func (c *tokenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if (c.email == "") == (c.id == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -email and -id is required")
		f.Usage()
		return subcommands.ExitUsageError
	}

	cfg, db, err := openDatabase(ctx, c.dbPath, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	tokens, err := signingTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	users := repository.NewUserRepository(db)
	var user model.User
	if c.id != "" {
		user, err = users.GetUser(ctx, c.id)
	} else {
		user, err = users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(c.email)))
	}
	if errors.Is(err, apperrors.ErrUserNotFound) {
		fmt.Fprintln(os.Stderr, "no such user")
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	token, err := tokens.Issue(user.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}

type secretCmd struct{}

func (*secretCmd) Name() string           { return "secret" }
func (*secretCmd) Synopsis() string       { return "generate a value for AUTH_SECRET" }
func (*secretCmd) Usage() string          { return "fincratectl secret\n" }
func (*secretCmd) SetFlags(*flag.FlagSet) {}

func (*secretCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	secret, err := auth.GenerateSecret()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println(secret)
	return subcommands.ExitSuccess
}

// signingTokens refuses to issue tokens with an ephemeral key: the server
// would not accept them.
func signingTokens(secret string, ttl time.Duration) (*auth.TokenManager, error) {
	if secret == "" {
		return nil, errors.New("AUTH_SECRET is not set; generate one with 'fincratectl secret'")
	}
	return auth.NewTokenManager(secret, ttl)
}
