// Command voyager encodes scouting data into QR-sized strings and imports
// scanned strings into the device's Local Store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/codec"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/qr"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository/sqlite"
	service "github.com/FIRSTTeam102/scoutradioz-sub000/internal/app"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/config"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
)

// cli holds what every subcommand shares once the root has run.
type cli struct {
	cfg *config.Config
	svc *service.Service
	log logger.Logger

	// flag overrides
	store  string
	dbPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, c := newRootCmd()
	err := root.ExecuteContext(ctx)
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "voyager:", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The caller must close the returned
// cli after Execute, whether or not it failed.
func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}
	root := &cobra.Command{
		Use:   "voyager",
		Short: "Offline QR exchange of scouting schedules and results",
		Long: `voyager moves org metadata, match and pit schedules and single
scouting results between devices as base64 strings sized for one QR code,
and merges scanned strings into the local store without clobbering data
that was already collected.`,
		PersistentPreRunE: c.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.PersistentFlags().StringVar(&c.store, "store", "", "local store backend: sqlite or memory")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "sqlite database path")

	root.AddCommand(
		newEncodeCmd(c),
		newScanCmd(c),
		newExportCmd(c),
		newServeCmd(c),
	)
	return root, c
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := logger.Init(); err != nil {
		return err
	}
	c.log = logger.Get().Named("cli")

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if c.store != "" {
		cfg.Store = c.store
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		c.log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	cd, err := codec.New(cfg.Compression)
	if err != nil {
		_ = store.Close()
		return err
	}

	c.svc = service.New(
		service.WithLogger(logger.Get().Named("service")),
		service.WithStore(store),
		service.WithCodec(cd),
		service.WithWorkerCount(cfg.CodecWorkers),
		service.WithQueueSize(cfg.CodecQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithCompressionLevel(cfg.CompressionLevel),
		service.WithChecksumPrefix(cfg.ChecksumPrefixLen),
		service.WithMaxChars(cfg.MaxPayloadChars),
	)
	return c.svc.Start(ctx)
}

func (c *cli) close() {
	if c.svc != nil {
		c.svc.Stop()
		c.svc = nil
	}
	_ = logger.Sync()
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return repository.NewMemoryStore(), nil
	case config.StoreSQLite:
		st, err := sqlite.Open(ctx, cfg.DBPath, sqlite.WithLogger(logger.Get().Named("sqlite")))
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, cfg.Store)
	}
}

func (c *cli) renderer() (*qr.Renderer, error) {
	level, err := qr.Recovery(c.cfg.QRRecovery)
	if err != nil {
		return nil, err
	}
	return qr.NewRenderer(qr.WithSize(c.cfg.QRSize), qr.WithRecovery(level)), nil
}

// emit prints an encoded string and optionally renders it as a QR code.
func (c *cli) emit(cmd *cobra.Command, encoded, pngPath string, terminal bool) error {
	if pngPath != "" || terminal {
		r, err := c.renderer()
		if err != nil {
			return err
		}
		if pngPath != "" {
			img, err := r.PNG(encoded)
			if err != nil {
				return err
			}
			if err := os.WriteFile(pngPath, img, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", pngPath, err)
			}
		}
		if terminal {
			art, err := r.Terminal(encoded)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.ErrOrStderr(), art)
		}
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), encoded)
	return err
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

var errUsage = errors.New("usage")

func oneOf(kind string, kinds ...string) error {
	for _, k := range kinds {
		if k == kind {
			return nil
		}
	}
	return fmt.Errorf("%w: kind %q, want one of %s", errUsage, kind, strings.Join(kinds, ", "))
}
