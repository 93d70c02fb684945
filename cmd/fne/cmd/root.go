package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/prodestic/fne-sdk-go/internal/config"
	"github.com/prodestic/fne-sdk-go/internal/logger"
	"github.com/prodestic/fne-sdk-go/pkg/fne"
)

var (
	version = "1.0.0"

	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
	apiKey       string
	baseURL      string

	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fne",
	Short: "Certify invoices with the Ivorian FNE service",
	Long: `fne is a CLI for the FNE (Facture Normalisée Électronique) certification API.

Supports:
  - Local validation of invoices and purchase slips
  - Certification of sale invoices and purchase slips
  - Credit notes (refunds) against certified invoices
  - An in-memory sandbox emulating the API

Documents are JSON files in the API wire format.

Examples:
  # Validate invoices without sending them
  fne validate invoice.json

  # Certify against the test environment
  FNE_API_KEY=<key> fne sign invoice.json

  # Certify against production
  fne sign invoice.json --api-key <key> --base-url https://<production-host>/ws

  # Run a local sandbox
  fne sandbox --address :8080`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./fne.yaml or $HOME/.fne/fne.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "FNE API key (env: FNE_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Production API base URL; selects production mode (env: FNE_BASE_URL)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("api-key") {
		c.APIKey = strings.TrimSpace(apiKey)
	}
	if cmd.Flags().Changed("base-url") {
		c.BaseURL = baseURL
		c.TestMode = false
	}
	if verbose {
		c.Log.Level = "debug"
	}

	if err := logger.Setup(c.Log); err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	cfg = c
	log = logger.WithComponent("cli")
	return nil
}

// newClient builds an SDK client from the loaded configuration
func newClient() (*fne.Client, error) {
	return fne.New(fne.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		TestMode:       cfg.TestMode,
		Timeout:        cfg.Timeout,
		ConnectTimeout: cfg.ConnectTimeout,
		RetryAttempts:  cfg.RetryAttempts,
	}, fne.WithLogger(logger.WithComponent("fne")))
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// readInput reads a file, or stdin for "-"
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// collectFiles expands globs and directories into JSON files
func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		if arg == "-" {
			files = append(files, arg)
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("file not found: %s", arg)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				files = append(files, match)
				continue
			}
			err = filepath.WalkDir(match, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}
