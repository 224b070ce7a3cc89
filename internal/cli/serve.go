package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/symptia/internal/server"
)

var (
	serveFlags analysisFlags
	serveAddr  string
	trustProxy bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the analysis pipeline as a JSON API:

  GET  /healthz
  POST /api/analyze          analyze an intake
  POST /api/extract          extract symptom tags only
  GET  /api/conditions       condition catalog
  GET  /api/symptoms/quick   quick-pick labels
  GET  /api/analyses         recent analyses
  GET  /api/analyses/{id}    one stored analysis
  GET  /api/schema           JSON Schema of the documents

Example:
  symptia serve --addr :8080
  SYMPTIA_HISTORY_DATABASE_URL=postgres://... symptia serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := effectiveConfig(cmd, &serveFlags)
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if cmd.Flags().Changed("trust-proxy") {
			cfg.Server.TrustProxy = trustProxy
		}

		ctx := cmd.Context()
		p, closeHistory, err := buildPipeline(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer func() { _ = closeHistory() }()

		fmt.Fprintf(os.Stderr, "✓ Serving on %s (network %s, delay %v)\n", cfg.Server.Addr, cfg.Analysis.Network, cfg.Analysis.Delay)
		return server.New(p, cfg.Server).ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config: :8080)")
	serveCmd.Flags().BoolVar(&trustProxy, "trust-proxy", false, "rate-limit by X-Forwarded-For/X-Real-IP (only behind a reverse proxy)")
	serveFlags.register(serveCmd)
}
