package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/prodestic/fne-sdk-go/internal/logger"
	"github.com/prodestic/fne-sdk-go/internal/sandbox"
)

var (
	sandboxAddr      string
	sandboxNCC       string
	sandboxStickers  int
	sandboxThreshold int
	sandboxDebug     bool
	readTimeout      time.Duration
	writeTimeout     time.Duration
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Run an in-memory FNE API sandbox",
	Long: `Start a local HTTP server emulating the FNE certification API.

Endpoints:
  - POST /external/invoices/sign         - Certify an invoice or purchase slip
  - POST /external/invoices/{id}/refund  - Issue a credit note
  - GET  /health                         - Health check and sticker balance
  - GET  /metrics                        - Prometheus metrics

The same routes are served under /ws. When --api-key is set, requests must
carry it as a bearer token; otherwise any bearer token is accepted.

Examples:
  fne sandbox
  fne sandbox --address :9090 --stickers 10 --debug`,
	RunE: runSandbox,
}

func init() {
	rootCmd.AddCommand(sandboxCmd)

	sandboxCmd.Flags().StringVar(&sandboxAddr, "address", ":8080", "Server listen address")
	sandboxCmd.Flags().StringVar(&sandboxNCC, "ncc", sandbox.DefaultNCC, "NCC of the emulated taxpayer")
	sandboxCmd.Flags().IntVar(&sandboxStickers, "stickers", sandbox.DefaultStickers, "Initial sticker balance")
	sandboxCmd.Flags().IntVar(&sandboxThreshold, "warning-threshold", sandbox.DefaultWarningThreshold, "Balance under which responses carry a warning")
	sandboxCmd.Flags().BoolVar(&sandboxDebug, "debug", false, "Enable gin debug mode")
	sandboxCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	sandboxCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 30*time.Second, "HTTP write timeout")
}

func runSandbox(cmd *cobra.Command, args []string) error {
	srv := sandbox.NewServer(&sandbox.Config{
		Address:          sandboxAddr,
		APIKey:           cfg.APIKey,
		NCC:              sandboxNCC,
		Stickers:         sandboxStickers,
		WarningThreshold: sandboxThreshold,
		ReadTimeout:      readTimeout,
		WriteTimeout:     writeTimeout,
		Debug:            sandboxDebug,
		Logger:           logger.WithComponent("sandbox"),
		Metrics:          prometheus.DefaultGatherer,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("address", sandboxAddr).
		Str("ncc", sandboxNCC).
		Int("stickers", sandboxStickers).
		Bool("auth", cfg.APIKey != "").
		Msg("starting sandbox")

	if err := srv.Run(ctx); err != nil {
		return err
	}
	log.Info().Int("balance_sticker", srv.Balance()).Msg("sandbox stopped")
	return nil
}
