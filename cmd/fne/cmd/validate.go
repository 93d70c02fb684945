package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	money "github.com/prodestic/fne-sdk-go/internal/decimal"
	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate invoice files locally",
	Long: `Validate one or more invoice or purchase slip files without contacting the API.

Checks performed:
  - Required fields and enumerations (type, payment method, template)
  - Client NCC for B2B, exchange rate for B2F
  - Taxes, discounts, quantities and amounts of every line
  - Client phone and email format

Examples:
  fne validate invoice.json
  fne validate invoices/ --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// ValidationResult holds the result of validating a single file
type ValidationResult struct {
	File   string            `json:"file"`
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
	Totals *TotalsOutput     `json:"totals,omitempty"`
}

// TotalsOutput holds the computed invoice totals in XOF
type TotalsOutput struct {
	HT          string `json:"total_ht"`
	Discount    string `json:"discount"`
	VAT         string `json:"vat"`
	CustomTaxes string `json:"custom_taxes"`
	TTC         string `json:"total_ttc"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	v := validator.NewInvoiceValidator()
	results := make([]*ValidationResult, 0, len(files))
	allValid := true

	for _, file := range files {
		result := validateFile(v, file)
		results = append(results, result)
		if !result.Valid {
			allValid = false
		}
	}

	if outputFormat == "json" {
		if err := printJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printValidation(r)
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}
	return nil
}

func validateFile(v *validator.InvoiceValidator, path string) *ValidationResult {
	result := &ValidationResult{File: path, Valid: true}

	data, err := readInput(path)
	if err != nil {
		result.Valid = false
		result.Errors = map[string]string{"file": fmt.Sprintf("failed to read file: %v", err)}
		return result
	}

	inv, err := model.DecodeInvoice(data)
	if err != nil {
		result.Valid = false
		result.Errors = map[string]string{"file": err.Error()}
		return result
	}

	if err := v.Validate(inv); err != nil {
		result.Valid = false
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			result.Errors = ve.Errors
		} else {
			result.Errors = map[string]string{"invoice": err.Error()}
		}
		log.Debug().Str("file", path).Int("errors", len(result.Errors)).Msg("invoice rejected")
		return result
	}

	t := inv.CalculateTotals()
	result.Totals = &TotalsOutput{
		HT:          money.FormatAmount(t.HT, false),
		Discount:    money.FormatAmount(t.DiscountAmt, false),
		VAT:         money.FormatAmount(t.VAT, false),
		CustomTaxes: money.FormatAmount(t.CustomTaxes, false),
		TTC:         money.FormatAmount(t.TTC, false),
	}
	return result
}

func printValidation(r *ValidationResult) {
	if !r.Valid {
		fmt.Printf("✗ %s: INVALID\n", r.File)
		ve := model.ValidationError{Errors: r.Errors}
		for _, f := range ve.Fields() {
			fmt.Printf("  - %s: %s\n", f, r.Errors[f])
		}
		return
	}

	fmt.Printf("✓ %s: VALID\n", r.File)
	fmt.Printf("  Total HT:  %s %s\n", r.Totals.HT, money.CurrencySymbol)
	if r.Totals.Discount != "0" {
		fmt.Printf("  Remise:    %s %s\n", r.Totals.Discount, money.CurrencySymbol)
	}
	fmt.Printf("  TVA:       %s %s\n", r.Totals.VAT, money.CurrencySymbol)
	if r.Totals.CustomTaxes != "0" {
		fmt.Printf("  Taxes:     %s %s\n", r.Totals.CustomTaxes, money.CurrencySymbol)
	}
	fmt.Printf("  Total TTC: %s %s\n", r.Totals.TTC, money.CurrencySymbol)
}
