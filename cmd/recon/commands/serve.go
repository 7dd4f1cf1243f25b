package commands

import (
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/reconhq/recon/pkg/intel"
	"github.com/reconhq/recon/pkg/intel/httpapi"
)

var (
	serveContext string
	serveAddr    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recon intelligence API server",
	Long: `Run the HTTP server backing 'recon leads' and 'recon pitch':
POST /api/leads and POST /api/pitch.

Requires a gemini api_key in the selected context.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gc, err := geminiConfig(serveContext)
		if err != nil {
			return err
		}

		svc, err := intel.New(cmd.Context(), intel.Config{
			APIKey:     gc.APIKey,
			LeadsModel: gc.LeadsModel,
			PitchModel: gc.PitchModel,
		})
		if err != nil {
			return err
		}

		addr := serveAddr
		if addr == "" {
			if api, _ := apiConfig(serveContext); api.Listen != "" {
				addr = api.Listen
			} else {
				addr = ":8787"
			}
		}

		slog.Info("recon: serving", "addr", addr)
		return http.ListenAndServe(addr, httpapi.New(svc, nil))
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveContext, "context", "c", "", "config context (default: current)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from api.yaml, else :8787)")
	rootCmd.AddCommand(serveCmd)
}
