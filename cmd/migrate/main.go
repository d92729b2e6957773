// Command migrate applies the embedded schema migrations to the configured database.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/JaimeStill/pdf-lab/internal/config"
	"github.com/JaimeStill/pdf-lab/internal/migrations"
	"github.com/JaimeStill/pdf-lab/pkg/logging"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", config.BaseConfigFile, "path to the base configuration file")
	env := flags.StringP("env", "e", "", "configuration overlay to apply")
	down := flags.Bool("down", false, "roll back every migration")
	steps := flags.Int("steps", 0, "apply n migrations, negative to roll back")
	versionOnly := flags.Bool("version", false, "print the current schema version and exit")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if *down && *steps != 0 {
		return fmt.Errorf("--down and --steps are mutually exclusive")
	}

	if *env != "" {
		os.Setenv(config.EnvServiceEnv, *env)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg.Persistence = config.PersistencePostgres
	if err := cfg.Finalize(); err != nil {
		return err
	}

	logger := logging.New(&cfg.Logging).With("command", "migrate")

	runner, err := migrations.New(cfg.Database.URL(), logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	switch {
	case *versionOnly:
	case *down:
		err = runner.Down()
	case *steps != 0:
		err = runner.Steps(*steps)
	default:
		err = runner.Up()
	}
	if err != nil {
		return err
	}

	version, dirty, err := runner.Version()
	if err != nil {
		return err
	}
	logger.Info("schema version", "version", version, "dirty", dirty)
	return nil
}
