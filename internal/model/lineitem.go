package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ItemType classifies a line item's source.
type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypeService ItemType = "service"
)

// LineItem is one priced entry within an invoice, quote, or subscription.
type LineItem struct {
	ItemType    ItemType        `json:"itemType"`
	ItemID      string          `json:"itemId"`
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TaxRate     decimal.Decimal `json:"taxRate"` // percent, e.g. 20 for 20%
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// DocumentTotals holds the derived roll-ups for a document-shaped record.
type DocumentTotals struct {
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// CalculateTotals derives document totals from line items. Each component
// sums exact values first and rounds once to 2 decimal places; rounding
// per line and re-summing drifts on fractional tax rates.
func CalculateTotals(items []LineItem) DocumentTotals {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, it := range items {
		net := it.Qty.Mul(it.UnitPrice)
		subtotal = subtotal.Add(net)
		taxTotal = taxTotal.Add(net.Mul(it.TaxRate).Div(oneHundred))
	}
	subtotal = subtotal.Round(2)
	taxTotal = taxTotal.Round(2)
	return DocumentTotals{
		Subtotal: subtotal,
		TaxTotal: taxTotal,
		Total:    subtotal.Add(taxTotal).Round(2),
	}
}

// NormalizeLineItems returns a copy of items with each LineTotal re-derived
// as qty * unitPrice rounded to 2 decimal places.
func NormalizeLineItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		it.LineTotal = it.Qty.Mul(it.UnitPrice).Round(2)
		out[i] = it
	}
	return out
}

// CoerceLineItems converts a lineItems field value into typed line items.
// Accepts []LineItem as written by Go callers and []any of maps as produced
// by a snapshot restore.
func CoerceLineItems(v any) ([]LineItem, error) {
	switch vv := v.(type) {
	case nil:
		return nil, nil
	case []LineItem:
		return vv, nil
	case []any:
		items := make([]LineItem, 0, len(vv))
		for i, raw := range vv {
			m, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("line item %d: expected object, got %T", i, raw)
			}
			item, err := lineItemFromMap(m)
			if err != nil {
				return nil, fmt.Errorf("line item %d: %w", i, err)
			}
			items = append(items, item)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("lineItems: expected list, got %T", v)
	}
}

func lineItemFromMap(m map[string]any) (LineItem, error) {
	item := LineItem{
		ItemType:    ItemType(CoerceString(m["itemType"])),
		ItemID:      CoerceString(m["itemId"]),
		Description: CoerceString(m["description"]),
	}
	var ok bool
	if item.Qty, ok = CoerceDecimal(m["qty"]); !ok {
		return LineItem{}, fmt.Errorf("invalid qty %v", m["qty"])
	}
	if item.UnitPrice, ok = CoerceDecimal(m["unitPrice"]); !ok {
		return LineItem{}, fmt.Errorf("invalid unitPrice %v", m["unitPrice"])
	}
	if item.TaxRate, ok = CoerceDecimal(m["taxRate"]); !ok {
		item.TaxRate = decimal.Zero
	}
	if item.LineTotal, ok = CoerceDecimal(m["lineTotal"]); !ok {
		item.LineTotal = decimal.Zero
	}
	return item, nil
}
