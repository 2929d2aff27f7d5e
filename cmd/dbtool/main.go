// Command dbtool performs one-shot operations against the local database:
// creating or migrating the schema, exporting a snapshot, rebuilding the
// search index and printing the schema version.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mamacare/engine/internal/engine"
	"github.com/mamacare/engine/pkg/config"
	"github.com/mamacare/engine/pkg/logger"
)

const usage = `usage: dbtool <command>

commands:
  init              create or migrate the database to the current version
  export <dest>     write a consistent snapshot to dest
  rebuild-index     rebuild the video search index from the catalog
  version           print the schema version and active search tier
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logg := logger.New(logger.Options{ServiceName: "dbtool"})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "dbtool",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	ctx := context.Background()
	if err := run(ctx, cfg, logg, os.Args[1], os.Args[2:]); err != nil {
		logg.Error(ctx, "command failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, command string, args []string) error {
	eng, err := engine.Open(ctx, cfg, logg, engine.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := eng.Close(); closeErr != nil {
			logg.Error(ctx, "error closing engine", closeErr)
		}
	}()

	switch command {
	case "init":
		// Open already created or migrated the schema.
		version, err := eng.Schema().Version(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("database ready at %s (schema version %d)\n", eng.Client().Path(), version)
		return nil

	case "export":
		if len(args) != 1 {
			return fmt.Errorf("export requires a destination path")
		}
		if err := eng.Export(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("snapshot written to %s\n", args[0])
		return nil

	case "rebuild-index":
		if err := eng.Search().Rebuild(ctx); err != nil {
			return err
		}
		tier, err := eng.Search().ActiveTier(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("search index rebuilt (tier %s)\n", tier)
		return nil

	case "version":
		version, err := eng.Schema().Version(ctx)
		if err != nil {
			return err
		}
		tier, err := eng.Search().ActiveTier(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("schema version %d, search tier %s\n", version, tier)
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}
