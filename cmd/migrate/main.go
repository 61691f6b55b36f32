package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/academie/admission-backend/internal/config"
	"github.com/academie/admission-backend/internal/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var migrationDir string
	flag.StringVar(&migrationDir, "path", "migrations", "Path to migration files")
	flag.Usage = printUsage
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat).With().Str("component", "migrate").Logger()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}

	m, err := migrate.New("file://"+migrationDir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", migrationDir).Msg("Migration failed to initialize")
	}
	defer m.Close()

	switch args[0] {
	case "up":
		run(m.Up(), "up")
	case "down":
		run(m.Down(), "down")
	case "steps":
		n := intArg(args, "steps")
		run(m.Steps(n), fmt.Sprintf("steps %d", n))
	case "goto":
		v := intArg(args, "goto")
		if v < 0 {
			fatal(fmt.Errorf("goto: negative version %d", v))
		}
		run(m.Migrate(uint(v)), fmt.Sprintf("goto %d", v))
	case "force":
		v := intArg(args, "force")
		if err := m.Force(v); err != nil {
			fatal(fmt.Errorf("force: %w", err))
		}
		log.Info().Int("version", v).Msg("Forced version")
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info().Msg("No migration applied yet")
			return
		}
		if err != nil {
			fatal(fmt.Errorf("version: %w", err))
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current version")
	default:
		printUsage()
		os.Exit(2)
	}
}

// run treats ErrNoChange as success.
func run(err error, op string) {
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fatal(fmt.Errorf("%s: %w", op, err))
	}
	fmt.Printf("Migrate %s: done\n", op)
}

func intArg(args []string, cmd string) int {
	if len(args) < 2 {
		fatal(fmt.Errorf("%s requires a numeric argument", cmd))
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		fatal(fmt.Errorf("%s: invalid number %q", cmd, args[1]))
	}
	return n
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "migrate:", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Usage: migrate [flags] <command>")
	fmt.Println("Commands: up, down, steps <n>, goto <version>, force <version>, version")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
