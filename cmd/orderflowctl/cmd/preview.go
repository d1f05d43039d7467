package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-orderflow-notifications/internal/mailmodel"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Notification template models",
}

var modelPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Build a template model from an order document",
	Long: `Build the template data for a notification kind and print it as JSON.

The input document uses the template input keys:
  order_sent              {"order": {...}, "tradeItems": [...]}
  customer_feedback_sent  {"customerFeedback": {...}}

Trade items without an inline orderPosition are resolved by positionId.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, closeFn, err := openInput(previewFile)
		if err != nil {
			return err
		}
		defer closeFn()
		return previewModel(cmd.OutOrStdout(), in, previewKind, logger)
	},
}

var (
	previewKind string
	previewFile string
)

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelPreviewCmd)

	modelPreviewCmd.Flags().StringVarP(&previewKind, "kind", "k", "", "notification kind (order_sent, customer_feedback_sent) [REQUIRED]")
	modelPreviewCmd.Flags().StringVarP(&previewFile, "file", "f", "-", "input JSON file, - for stdin")
	_ = modelPreviewCmd.MarkFlagRequired("kind")
}

func previewModel(out io.Writer, in io.Reader, rawKind string, log *zap.Logger) error {
	kind, err := mailmodel.ParseKind(rawKind)
	if err != nil {
		return err
	}
	builder := mailmodel.NewBuilder(log)

	var data mailmodel.TemplateData
	switch kind {
	case mailmodel.KindOrderSent:
		var input mailmodel.OrderSentInput
		if err := json.NewDecoder(in).Decode(&input); err != nil {
			return fmt.Errorf("decode input: %w", err)
		}
		if input.Order != nil {
			for i := range input.TradeItems {
				if input.TradeItems[i].OrderPosition == nil {
					input.TradeItems[i].OrderPosition = input.Order.Position(input.TradeItems[i].PositionID)
				}
			}
		}
		m, err := builder.OrderSent(input)
		if err != nil {
			return err
		}
		data = m.TemplateData()
	case mailmodel.KindCustomerFeedbackSent:
		var input mailmodel.CustomerFeedbackSentInput
		if err := json.NewDecoder(in).Decode(&input); err != nil {
			return fmt.Errorf("decode input: %w", err)
		}
		m, err := builder.CustomerFeedbackSent(input)
		if err != nil {
			return err
		}
		data = m.TemplateData()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
