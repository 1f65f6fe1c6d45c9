package cli

import (
	"github.com/spf13/cobra"

	"github.com/koustreak/schemadiff/internal/compare"
	"github.com/koustreak/schemadiff/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the comparison HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx := cmd.Context()
			cmp, err := compare.Open(ctx, &cfg.One, &cfg.Two, compare.WithLogger(a.log))
			if err != nil {
				return err
			}
			defer cmp.Close()

			srv := server.New(cmp, cfg.Server, a.log, cfg.Compare.Options(), cfg.Compare.Timeout)
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
