package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/pkg/fne"
)

var retryServerErrors bool

var signCmd = &cobra.Command{
	Use:   "sign [files...]",
	Short: "Certify invoices and purchase slips",
	Long: `Validate and submit documents for certification.

Purchase slips (invoiceType "purchase") are sent through the purchase
service, everything else as sale invoices. Each file is certified
independently; a failure does not stop the remaining files.

Examples:
  fne sign invoice.json
  fne sign slips/*.json --format json
  fne sign invoice.json --retry`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)

	signCmd.Flags().BoolVar(&retryServerErrors, "retry", false, "Retry on network and 5xx errors (may certify twice)")
}

// SignResult holds the outcome of certifying a single file
type SignResult struct {
	File            string              `json:"file"`
	Reference       string              `json:"reference,omitempty"`
	NCC             string              `json:"ncc,omitempty"`
	VerificationURL string              `json:"verification_url,omitempty"`
	Token           string              `json:"token,omitempty"`
	InvoiceID       string              `json:"invoice_id,omitempty"`
	BalanceSticker  int                 `json:"balance_sticker"`
	Warning         bool                `json:"warning"`
	Items           []fne.CertifiedItem `json:"items,omitempty"`
	Error           string              `json:"error,omitempty"`
	FieldErrors     map[string]string   `json:"field_errors,omitempty"`
}

func runSign(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.ValidateConfiguration(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := make([]*SignResult, 0, len(files))
	failed := 0
	for _, file := range files {
		result := signFile(ctx, client, file)
		if result.Error != "" {
			failed++
		}
		results = append(results, result)
	}

	if outputFormat == "json" {
		if err := printJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printSign(r)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(files))
	}
	return nil
}

func signFile(ctx context.Context, client *fne.Client, path string) *SignResult {
	result := &SignResult{File: path}

	data, err := readInput(path)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}
	inv, err := model.DecodeInvoice(data)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	sign := client.Invoices().Sign
	if inv.InvoiceType() == model.InvoiceTypePurchase {
		sign = client.Purchases().Sign
	}

	op := func(ctx context.Context) (*fne.Result, error) { return sign(ctx, inv) }
	policy := fne.RetryPolicy{Attempts: 1}
	if retryServerErrors {
		policy = fne.DefaultRetryPolicy()
	}

	res, err := fne.Retry(ctx, policy, op)
	if err != nil {
		result.Error = err.Error()
		var ve *fne.ValidationError
		if errors.As(err, &ve) {
			result.FieldErrors = ve.Errors
		}
		log.Error().Err(err).Str("file", path).Msg("certification failed")
		return result
	}

	result.Reference = res.Reference()
	result.NCC = res.NCC()
	result.VerificationURL = res.VerificationURL()
	result.Token = res.VerificationToken()
	result.InvoiceID = res.InvoiceID()
	result.BalanceSticker = res.BalanceSticker()
	result.Warning = res.HasWarning()
	result.Items = res.Items()
	return result
}

func printSign(r *SignResult) {
	if r.Error != "" {
		fmt.Printf("✗ %s: %s\n", r.File, r.Error)
		ve := model.ValidationError{Errors: r.FieldErrors}
		for _, f := range ve.Fields() {
			fmt.Printf("  - %s: %s\n", f, r.FieldErrors[f])
		}
		return
	}

	fmt.Printf("✓ %s: %s\n", r.File, r.Reference)
	fmt.Printf("  Facture:      %s\n", r.InvoiceID)
	fmt.Printf("  Vérification: %s\n", r.VerificationURL)
	fmt.Printf("  Stickers:     %d\n", r.BalanceSticker)
	if r.Warning {
		fmt.Println("  ⚠ stock de stickers faible")
	}
	for _, it := range r.Items {
		fmt.Printf("  • %s  %s x%g\n", it.ID, it.Description, it.Quantity)
	}
}
