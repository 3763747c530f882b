package cli

import (
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCommand runs the storefront HTTP API until interrupted.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Telemetry == nil {
				return errors.New("serve needs telemetry providers")
			}
			a, err := opts.Open(cmd.Context(), opts)
			if err != nil {
				return errors.Wrap(err, "open storefront")
			}
			defer func() {
				if err := a.Close(); err != nil {
					opts.Logger.Warn("Close storefront", zap.Error(err))
				}
			}()
			if addr != "" {
				a.Config().Server.Addr = addr
			}
			return a.Serve(cmd.Context(), opts.Telemetry)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
