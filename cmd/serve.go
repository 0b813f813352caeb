package cmd

import (
	"github.com/spf13/cobra"

	"malpha/internal/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolver over HTTP",
	Long: `Serve exposes POST /api/resolve, which takes {"url": "..."} and answers
with a media descriptor, and GET /healthz.`,
	Args: cobra.NoArgs,
	RunE: serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default: listen from config)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	if flagListen != "" {
		cfg.Listen = flagListen
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient()
	if err != nil {
		return err
	}
	r, err := newResolver(client)
	if err != nil {
		return err
	}

	return server.Run(ctx, cfg.Listen, server.NewRouter(r, logger), logger)
}
