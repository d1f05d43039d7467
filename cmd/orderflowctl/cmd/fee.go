package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/imrishuroy/go-orderflow-notifications/internal/apperr"
	"github.com/imrishuroy/go-orderflow-notifications/internal/fee"
)

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Marketplace fee calculations",
}

var feeAllocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Split a marketplace fee into per-unit shipping and article shares",
	Long: `Split a total fee across shipping and article in proportion to their prices,
then divide each share by the quantity. Amounts are rounded half-up to cents.
Omitted flags are treated as missing values and rejected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return allocateFee(cmd.OutOrStdout(), feeShip, feeArticle, feeTotal, feeQuantity, feeJSON)
	},
}

var (
	feeShip     string
	feeArticle  string
	feeTotal    string
	feeQuantity string
	feeJSON     bool
)

func init() {
	rootCmd.AddCommand(feeCmd)
	feeCmd.AddCommand(feeAllocateCmd)

	feeAllocateCmd.Flags().StringVar(&feeShip, "ship", "", "shipping price")
	feeAllocateCmd.Flags().StringVar(&feeArticle, "article", "", "article price")
	feeAllocateCmd.Flags().StringVar(&feeTotal, "fee", "", "total fee to allocate")
	feeAllocateCmd.Flags().StringVar(&feeQuantity, "quantity", "", "number of units")
	feeAllocateCmd.Flags().BoolVar(&feeJSON, "json", false, "print the result as JSON")
}

func allocateFee(out io.Writer, ship, article, total, quantity string, asJSON bool) error {
	in := fee.Input{}
	for _, f := range []struct {
		name  string
		raw   string
		field *decimal.NullDecimal
	}{
		{"ship", ship, &in.ShipPrice},
		{"article", article, &in.ArticlePrice},
		{"fee", total, &in.TotalFee},
		{"quantity", quantity, &in.Quantity},
	} {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(f.raw))
		if err != nil {
			return apperr.InvalidArgument("--%s: %v", f.name, err)
		}
		*f.field = decimal.NewNullDecimal(d)
	}

	result, err := fee.Allocate(in)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{
			"shipFeePerUnit":    result.ShipFeePerUnit.StringFixed(2),
			"articleFeePerUnit": result.ArticleFeePerUnit.StringFixed(2),
		})
	}
	fmt.Fprintf(out, "ship fee per unit:    %s\n", result.ShipFeePerUnit.StringFixed(2))
	fmt.Fprintf(out, "article fee per unit: %s\n", result.ArticleFeePerUnit.StringFixed(2))
	return nil
}
