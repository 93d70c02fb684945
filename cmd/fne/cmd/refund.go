package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prodestic/fne-sdk-go/internal/model"
	"github.com/prodestic/fne-sdk-go/pkg/fne"
)

var (
	refundItems []string
	refundFile  string
)

var refundCmd = &cobra.Command{
	Use:   "refund <invoice-id>",
	Short: "Issue a credit note against a certified invoice",
	Long: `Create a refund (avoir) for items of a certified invoice.

Items are given as id=quantity pairs, or as a JSON file in the API
refund format ({"items":[{"id":"...","quantity":1}]}).

Examples:
  fne refund 3fa85f64-5717-4562-b3fc-2c963f66afa6 --item 9c1e...=1 --item 4b2d...=2
  fne refund 3fa85f64-5717-4562-b3fc-2c963f66afa6 --file refund.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRefund,
}

func init() {
	rootCmd.AddCommand(refundCmd)

	refundCmd.Flags().StringArrayVar(&refundItems, "item", nil, "Refunded line as <item-id>=<quantity> (repeatable)")
	refundCmd.Flags().StringVar(&refundFile, "file", "", "Refund JSON file (- for stdin)")
	refundCmd.MarkFlagsMutuallyExclusive("item", "file")
	refundCmd.MarkFlagsOneRequired("item", "file")
}

func runRefund(cmd *cobra.Command, args []string) error {
	invoiceID := args[0]

	req, err := refundRequest()
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

	res, err := client.Refunds().CreateRefund(ctx, invoiceID, req)
	if err != nil {
		return err
	}

	result := &SignResult{
		File:            invoiceID,
		Reference:       res.Reference(),
		NCC:             res.NCC(),
		VerificationURL: res.VerificationURL(),
		Token:           res.VerificationToken(),
		InvoiceID:       res.InvoiceID(),
		BalanceSticker:  res.BalanceSticker(),
		Warning:         res.HasWarning(),
		Items:           res.Items(),
	}
	if outputFormat == "json" {
		return printJSON(os.Stdout, result)
	}
	printSign(result)
	return nil
}

func refundRequest() (*fne.RefundRequest, error) {
	if refundFile != "" {
		data, err := readInput(refundFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read refund file: %w", err)
		}
		var payload model.RefundPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode refund file: %w", err)
		}
		return payload.RefundRequest(), nil
	}

	return parseRefundItems(refundItems)
}

// parseRefundItems reads id=quantity pairs in the given order
func parseRefundItems(pairs []string) (*fne.RefundRequest, error) {
	req := fne.NewRefundRequest()
	for _, pair := range pairs {
		id, qty, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid item %q: expected <item-id>=<quantity>", pair)
		}
		quantity, err := strconv.ParseFloat(strings.TrimSpace(qty), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity for item %s: %w", id, err)
		}
		req.AddItem(strings.TrimSpace(id), quantity)
	}
	return req, nil
}
