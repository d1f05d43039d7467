// Package fee splits a total fee (e.g. a payment processing fee) between the
// shipping and article cost buckets of an order and breaks it down per unit.
package fee

import (
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-orderflow-notifications/internal/apperr"
)

const (
	// ratioScale is the number of fractional digits kept for the shipping share.
	ratioScale int32 = 5
	// feeScale is the number of fractional digits of a per-unit fee.
	feeScale int32 = 2
)

// Input carries the four values an allocation is computed from.
// A field with Valid=false (JSON null or absent) is treated as missing.
type Input struct {
	ShipPrice    decimal.NullDecimal `json:"shipPrice"`
	ArticlePrice decimal.NullDecimal `json:"articlePrice"`
	TotalFee     decimal.NullDecimal `json:"totalFee"`
	Quantity     decimal.NullDecimal `json:"quantity"`
}

// Fee is the per-unit share of the total fee for each bucket.
type Fee struct {
	ShipFeePerUnit    decimal.Decimal `json:"shipFeePerUnit"`
	ArticleFeePerUnit decimal.Decimal `json:"articleFeePerUnit"`
}

// Zero is the result returned when there is no price base to split against.
// Both values carry the per-unit fee scale.
var Zero = Fee{ShipFeePerUnit: decimal.New(0, -feeScale), ArticleFeePerUnit: decimal.New(0, -feeScale)}

// NewInput builds an Input where every value is present.
func NewInput(shipPrice, articlePrice, totalFee, quantity decimal.Decimal) Input {
	return Input{
		ShipPrice:    decimal.NewNullDecimal(shipPrice),
		ArticlePrice: decimal.NewNullDecimal(articlePrice),
		TotalFee:     decimal.NewNullDecimal(totalFee),
		Quantity:     decimal.NewNullDecimal(quantity),
	}
}

// AllocatePerUnit is Allocate for callers that hold all four values.
func AllocatePerUnit(shipPrice, articlePrice, totalFee, quantity decimal.Decimal) (Fee, error) {
	return Allocate(NewInput(shipPrice, articlePrice, totalFee, quantity))
}

// Allocate splits in.TotalFee proportionally to the shipping and article prices
// and divides both parts by the quantity.
//
// The shipping share is rounded to five fractional digits (half-up). The article
// part is the remainder of the total, so both parts add up to TotalFee before the
// per-unit division, which rounds each to cents (half-up).
func Allocate(in Input) (Fee, error) {
	if err := validate(in); err != nil {
		return Fee{}, err
	}

	shipPrice := in.ShipPrice.Decimal
	priceSum := shipPrice.Add(in.ArticlePrice.Decimal)
	if priceSum.IsNegative() {
		return Fee{}, apperr.InvalidArgument("price sum [%s] cannot be negative", priceSum.String())
	}
	if priceSum.IsZero() {
		return Zero, nil
	}

	totalFee := in.TotalFee.Decimal
	quantity := in.Quantity.Decimal

	shipRatio := shipPrice.DivRound(priceSum, ratioScale)
	shipFee := totalFee.Mul(shipRatio)
	articleFee := totalFee.Sub(shipFee)

	return Fee{
		ShipFeePerUnit:    shipFee.DivRound(quantity, feeScale),
		ArticleFeePerUnit: articleFee.DivRound(quantity, feeScale),
	}, nil
}

func validate(in Input) error {
	if !in.ShipPrice.Valid {
		return apperr.InvalidArgument("shipping price cannot be null")
	}
	if !in.ArticlePrice.Valid {
		return apperr.InvalidArgument("article price cannot be null")
	}
	if !in.TotalFee.Valid {
		return apperr.InvalidArgument("total fee cannot be null")
	}
	if !in.Quantity.Valid || !in.Quantity.Decimal.IsPositive() {
		return apperr.InvalidArgument("quantity must be positive")
	}
	return nil
}
