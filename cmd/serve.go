package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vulnsift.dev/pkg/vulnsift/internal/adapter"
	"vulnsift.dev/pkg/vulnsift/internal/domain"
	"vulnsift.dev/pkg/vulnsift/internal/metrics"
	"vulnsift.dev/pkg/vulnsift/internal/server"
)

var serveAddrFlag string

// serveCmd represents the serve command.
var serveCmd = newServeCmd()

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scans and scan history over HTTP",
		Long: `Start an HTTP API:

  GET  /               service status
  POST /scan           {"path", "incremental", "force_full_scan", "verify"}
  GET  /history        recorded scans (?limit=N)
  GET  /history/{id}   one recorded scan
  GET  /export/{id}    report download (?format=sarif|json|yaml)
  GET  /metrics        Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := newServer()
			if err != nil {
				return err
			}

			return srv.ListenAndServe(cmd.Context(), viper.GetString(serveAddrKey))
		},
	}

	cmd.Flags().StringVar(&serveAddrFlag, addrFlagName, defaultServeAddr, "listen address")
	bindFlagToConfig(cmd.Flags().Lookup(addrFlagName), serveAddrKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newServer() (*server.Server, error) {
	client, err := newInferenceClient()
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector(metrics.DefaultNamespace)
	fsAdapter := adapter.NewLocalSourceFSAdapter()
	cacheStore := newCacheStore(fsAdapter)

	plain := newScanner(fsAdapter, cacheStore, client, collector, false)
	verifying := newScanner(fsAdapter, cacheStore, client, collector, true)

	scanners := func(verify bool) domain.Scanner {
		if verify {
			return verifying
		}

		return plain
	}

	return server.New(scanners, openResultStore, collector.Handler(), buildVersion()), nil
}
