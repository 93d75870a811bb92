package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptcraft/internal/app"
	"github.com/doeshing/promptcraft/internal/infrastructure/httpapi"
)

// NewServeCommand creates the serve command
func NewServeCommand(container *app.Container) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON/HTTP API for node-based front ends",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := container.NewAPIService()
			if err != nil {
				return err
			}

			opts := httpapi.OptionsFromConfig(container.Config)
			if addr != "" {
				opts.Address = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (history: %s)\n", opts.Address, svc.HistoryPath())
			return httpapi.NewServer(svc, opts, container.Logger).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.address)")
	return cmd
}
