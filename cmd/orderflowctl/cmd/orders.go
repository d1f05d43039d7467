package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/aws"
	"github.com/imrishuroy/go-orderflow-notifications/internal/orders"
	"github.com/imrishuroy/go-orderflow-notifications/internal/validation"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Order documents in the orders table",
}

var ordersImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Validate and store order documents",
	Long: `Read one order or a JSON array of orders, validate them and store each
in ORDERS_TABLE. Existing orders are never overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, closeFn, err := openInput(importFile)
		if err != nil {
			return err
		}
		defer closeFn()

		docs, err := decodeOrders(in)
		if err != nil {
			return err
		}
		if err := validateOrders(validation.New(), docs); err != nil {
			return err
		}
		if importDryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%d order(s) valid\n", len(docs))
			return nil
		}
		if appCfg.OrdersTable == "" {
			return errors.New("ORDERS_TABLE required")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		clients, err := aws.NewAWSClients(ctx, appCfg.AWSRegion, appCfg.AWSEndpointOverride)
		if err != nil {
			return fmt.Errorf("init aws clients: %w", err)
		}
		return importOrders(ctx, cmd.OutOrStdout(), orders.NewStore(clients.DynamoDB, appCfg.OrdersTable), docs)
	},
}

var (
	importFile   string
	importDryRun bool
)

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.AddCommand(ordersImportCmd)

	ordersImportCmd.Flags().StringVarP(&importFile, "file", "f", "-", "input JSON file, - for stdin")
	ordersImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate only, no writes")
}

// decodeOrders accepts a single order object or an array of them.
func decodeOrders(in io.Reader) ([]orders.Order, error) {
	r := bufio.NewReader(in)
	first, err := peekNonSpace(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	dec := json.NewDecoder(r)
	if first == '[' {
		var docs []orders.Order
		if err := dec.Decode(&docs); err != nil {
			return nil, fmt.Errorf("decode orders: %w", err)
		}
		return docs, nil
	}
	var doc orders.Order
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return []orders.Order{doc}, nil
}

func peekNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, r.UnreadByte()
	}
}

func validateOrders(v *validatorv10.Validate, docs []orders.Order) error {
	for i := range docs {
		if err := v.Struct(docs[i]); err != nil {
			return fmt.Errorf("order %d (%s) invalid: %v", i, docs[i].ID, validation.ErrorsToMap(err))
		}
	}
	return nil
}

// orderWriter is the part of orders.Store the import needs.
type orderWriter interface {
	Put(ctx context.Context, order orders.Order) error
}

func importOrders(ctx context.Context, out io.Writer, store orderWriter, docs []orders.Order) error {
	var imported, skipped int
	for _, o := range docs {
		err := store.Put(ctx, o)
		switch {
		case errors.Is(err, orders.ErrOrderExists):
			logger.Warn("order already exists", zap.String("order_id", o.ID))
			skipped++
		case err != nil:
			return fmt.Errorf("put order %s: %w", o.ID, err)
		default:
			imported++
		}
	}
	fmt.Fprintf(out, "imported %d order(s), skipped %d existing\n", imported, skipped)
	return nil
}
