package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prodestic/fne-sdk-go/pkg/fne"
)

var infoCmd = &cobra.Command{
	Use:   "info [verification-urls...]",
	Short: "Show the active configuration",
	Long: `Display the client configuration and check the API key locally.

Verification URLs given as arguments are decoded to their token.

Examples:
  fne info
  fne info --base-url https://<production-host>/ws
  fne info http://54.247.95.108/fr/verification/<token>`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

// InfoOutput is the JSON form of the info command
type InfoOutput struct {
	fne.Info
	KeyValid bool              `json:"key_valid"`
	KeyError string            `json:"key_error,omitempty"`
	Tokens   map[string]string `json:"tokens,omitempty"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	out := InfoOutput{Info: client.Info(), KeyValid: true}
	if err := client.ValidateConfiguration(); err != nil {
		out.KeyValid = false
		out.KeyError = err.Error()
	}

	if len(args) > 0 {
		out.Tokens = make(map[string]string, len(args))
		for _, u := range args {
			token, err := fne.ExtractToken(u)
			if err != nil {
				token = "invalide"
			}
			out.Tokens[u] = token
		}
	}

	if outputFormat == "json" {
		return printJSON(os.Stdout, out)
	}

	mode := "production"
	if out.TestMode {
		mode = "test"
	}
	fmt.Printf("Mode:          %s\n", mode)
	fmt.Printf("Base URL:      %s\n", out.BaseURL)
	fmt.Printf("Timeout:       %s\n", out.Timeout)
	fmt.Printf("Connect:       %s\n", out.ConnectTimeout)
	fmt.Printf("Retries:       %d\n", out.RetryAttempts)
	if out.KeyValid {
		fmt.Println("API key:       ✓ configured")
	} else {
		fmt.Printf("API key:       ✗ %s\n", out.KeyError)
	}
	for _, u := range args {
		fmt.Printf("%s\n  token: %s\n", u, out.Tokens[u])
	}
	return nil
}
