// Package cli implements the storefront command line: catalog browsing,
// cart editing, checkout and the HTTP view bridge.
package cli

import (
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/galaxy-store/internal/app"
)

// ErrRejected is returned when the store refused an action. The reason has
// already been printed as a notification.
var ErrRejected = errors.New("action rejected")

// RootOptions holds global flags and the dependencies shared by commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	Logger    *zap.Logger
	Telemetry app.Telemetry

	// Open builds the application. Tests replace it to avoid real backends.
	Open func(ctx context.Context, opts *RootOptions) (*app.App, error)
}

// NewRootCommand creates the root command of the storefront CLI.
func NewRootCommand(lg *zap.Logger, m app.Telemetry) *cobra.Command {
	return newRootCommand(&RootOptions{Logger: lg, Telemetry: m, Open: openApp})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Galaxy Store storefront",
		Long:          "Browse the Galaxy Store catalog, manage the persistent cart and serve the storefront API.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default galaxy.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewProductCommand(opts))
	cmd.AddCommand(NewCategoriesCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func openApp(ctx context.Context, opts *RootOptions) (*app.App, error) {
	cfg, err := app.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, opts.Logger, cfg)
}

// withApp opens the application, loads the catalog and the cart, runs fn
// and closes the application.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app.App, out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := opts.Open(ctx, opts)
	if err != nil {
		return errors.Wrap(err, "open storefront")
	}
	defer func() {
		if err := a.Close(); err != nil {
			opts.Logger.Warn("Close storefront", zap.Error(err))
		}
	}()

	if err := a.Start(ctx); err != nil {
		return errors.Wrap(err, "load catalog")
	}
	if opts.Verbose {
		cfg := a.Config()
		cmd.PrintErrf("storage=%s catalog=%s key=%s\n", cfg.Storage.Driver, cfg.Catalog.Source, cfg.CartKey())
	}
	return fn(ctx, a, cmd.OutOrStdout())
}
