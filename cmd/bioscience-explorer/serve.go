package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bioscience-explorer/internal/server"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve publications, insights, and statistics over HTTP",
	Long: `Serve starts the JSON API:

  GET  /api/publications  ?search=&organism=&experiment_type=&theme=&date_range=&page=&page_size=
  GET  /api/insights      same filters plus ?type=&sample=
  GET  /api/stats
  GET  /api/filters
  POST /api/cache/clear
  GET  /healthz

The dataset is loaded on the first request and refreshed after the TTL.
Interrupt the process to shut down gracefully.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :4000)")
	serveCmd.Flags().Int("page-size", 0, "default page size when a request omits page_size (default 50)")

	bindFlag(serveCmd, "serve.addr", "addr")
	bindFlag(serveCmd, "serve.default_page_size", "page-size")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	logger := newLogger()
	svc, err := newService(ctx, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := server.New(svc, types.ServeConfig{
		Addr:            viper.GetString("serve.addr"),
		DefaultPageSize: viper.GetInt("serve.default_page_size"),
	}, logger)
	return srv.ListenAndServe(ctx)
}
