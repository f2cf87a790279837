package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/userauth/internal/flagx"
	"github.com/dmitrijs2005/userauth/internal/logging"
	"github.com/dmitrijs2005/userauth/internal/server/auth"
	"github.com/dmitrijs2005/userauth/internal/server/config"
	"github.com/dmitrijs2005/userauth/internal/server/models"
	"github.com/dmitrijs2005/userauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userauth/internal/server/services"
)

// Admin is the part of services.UserService the tool drives.
type Admin interface {
	SeedDemoUsers(ctx context.Context) (int, error)
	CreateUser(ctx context.Context, req services.RegisterRequest, role models.Role) (*models.User, error)
}

// Migrator applies the schema migrations.
type Migrator func(ctx context.Context) error

type App struct {
	migrate Migrator
	users   Admin
	out     io.Writer
	reader  *bufio.Reader
	close   func() error
}

const usage = `usage: cli [server flags] <command> [command flags]

commands:
  migrate                       apply schema migrations
  seed                          apply migrations and insert demo users
  create-user -u NAME -e EMAIL [-role ROLE] [-first NAME] [-last NAME] [-phone NUMBER]
                                create an account; the password is prompted for
`

var errUsage = errors.New("invalid usage")

func NewApp(c *config.Config) (*App, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, c.LogLevel)
	keys := auth.KeyConfig{Secret: []byte(c.SecretKey), Lifetime: c.TokenLifetime}
	us := services.NewUserService(db, m, auth.NewTokenService(auth.NewCodec(keys), keys),
		auth.NewPasswordHasher(c.BcryptCost), logger)

	migrate := func(ctx context.Context) error { return m.RunMigrations(ctx, db) }

	return newApp(migrate, us, os.Stdout, os.Stdin, db.Close), nil
}

func newApp(migrate Migrator, users Admin, out io.Writer, in io.Reader, closeFn func() error) *App {
	return &App{migrate: migrate, users: users, out: out, reader: bufio.NewReader(in), close: closeFn}
}

// Close releases the database handle.
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// Run executes the first command found in args. Server flags such as -d may
// appear anywhere; they are consumed by the configuration loader.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, rest := splitCommand(args)

	switch cmd {
	case "migrate":
		if err := a.migrate(ctx); err != nil {
			return fmt.Errorf("migration error: %w", err)
		}
		fmt.Fprintln(a.out, "migrations applied")
		return nil
	case "seed":
		return a.seed(ctx)
	case "create-user":
		return a.createUser(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	case "":
		fmt.Fprint(a.out, usage)
		return errUsage
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// splitCommand returns the first argument that is neither a flag nor the
// value of a server flag, and the arguments after it.
func splitCommand(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg[0] == '-' {
			if isValueFlag(arg) && i+1 < len(args) {
				i++
			}
			continue
		}
		return arg, args[i+1:]
	}
	return "", nil
}

var serverValueFlags = map[string]bool{
	"-a": true, "-g": true, "-d": true, "-s": true, "-t": true,
	"-b": true, "-l": true, "-r": true, "-v": true, "-c": true, "-config": true,
}

func isValueFlag(arg string) bool {
	return serverValueFlags[arg]
}

func (a *App) seed(ctx context.Context) error {
	if err := a.migrate(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	n, err := a.users.SeedDemoUsers(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d demo users created\n", n)
	return nil
}

func (a *App) createUser(ctx context.Context, args []string) error {
	var (
		req  services.RegisterRequest
		role string
	)

	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVar(&req.Username, "u", "", "username")
	fs.StringVar(&req.Email, "e", "", "email")
	fs.StringVar(&role, "role", models.RoleUser.String(), "USER, MODERATOR or ADMIN")
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	fs.StringVar(&req.PhoneNumber, "phone", "", "phone number")

	own := flagx.FilterArgs(args, []string{"-u", "-e", "-role", "-first", "-last", "-phone"})
	if err := fs.Parse(own); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	r, err := models.ParseRole(role)
	if err != nil {
		return err
	}

	if req.Username == "" {
		if req.Username, err = GetSimpleText(a.reader, "Username", a.out); err != nil {
			return err
		}
	}
	if req.Email == "" {
		if req.Email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
			return err
		}
	}

	if req.Password, err = GetNewPassword(a.out); err != nil {
		return err
	}

	u, err := a.users.CreateUser(ctx, req, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created user %d %s (%s)\n", u.ID, u.UserName, u.Role)
	return nil
}
