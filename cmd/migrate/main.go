// Command migrate applies and authors the schema migrations of the dairy
// database: batches, stock movements, truck loads, sales and daily
// reconciliations.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dairy/backend/internal/infrastructure/config"
	"github.com/dairy/backend/internal/infrastructure/logger"
	"github.com/dairy/backend/internal/infrastructure/migration"
	"github.com/dairy/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

// dbCommand runs against an open migrator
type dbCommand struct {
	minArgs int
	usage   string
	run     func(m *migration.Migrator, log *zap.Logger, args []string) error
}

var dbCommands = map[string]dbCommand{
	"up":   {run: func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Up() }},
	"down": {run: func(m *migration.Migrator, _ *zap.Logger, _ []string) error { return m.Down() }},
	"step": {minArgs: 1, usage: "migrate step <n>", run: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)
	}},
	"goto": {minArgs: 1, usage: "migrate goto <version>", run: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.GoTo(uint(v))
	}},
	"force": {minArgs: 1, usage: "migrate force <version>", run: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(v)
	}},
	"version": {run: func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	}},
}

func main() {
	dir := flag.String("path", "", "migrations directory (default: migrations embedded in the binary)")
	level := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Usage = printUsage
	flag.Parse()

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout", Service: "dairy-migrate"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	err = run(log, *dir, flag.Args())
	_ = logger.Sync(log)
	switch {
	case errors.Is(err, errUsage):
		printUsage()
		os.Exit(2)
	case err != nil:
		log.Error("Migration command failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(log *zap.Logger, dir string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolve migrations path: %w", err)
		}
		dir = abs
	}
	command, rest := args[0], args[1:]
	log.Debug("Running migration command", zap.String("command", command), zap.String("path", dir))

	switch command {
	case "create":
		return create(log, dir, rest)
	case "list":
		return list(dir)
	}

	cmd, ok := dbCommands[command]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}
	if len(rest) < cmd.minArgs {
		return fmt.Errorf("missing argument, expected %s", cmd.usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if dir != "" {
		m, err = migration.New(db, dir, log)
	} else {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	}
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()
	return cmd.run(m, log, rest)
}

func create(log *zap.Logger, dir string, args []string) error {
	if len(args) == 0 {
		return errors.New("missing argument, expected migrate create <name> [description]")
	}
	if dir == "" {
		dir = "migrations"
	}
	var description string
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath))
	return nil
}

func list(dir string) error {
	var fsys fs.FS = migrations.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	all, err := migration.ListMigrations(fsys)
	if err != nil {
		return err
	}
	for _, m := range all {
		fmt.Println(m)
	}
	return nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: migrate [-path dir] [-log-level level] <command> [args]

commands:
  up                    apply all pending migrations
  down                  roll back all migrations
  step <n>              apply n migrations, negative n rolls back
  goto <version>        migrate to a version
  version               print the applied version
  force <version>       set the version without running SQL, clears a dirty state
  create <name> [desc]  write the next numbered up/down pair
  list                  list available migrations

The database is read from DAIRY_DATABASE_HOST, _PORT, _USER, _PASSWORD,
_DBNAME and _SSLMODE.
`)
}
