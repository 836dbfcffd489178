package invoice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidDate is the only user-facing validation failure: the edit is
// rejected, the caller reverts the displayed value and surfaces the message.
var ErrInvalidDate = errors.New("date must match DD-MMM-YYYY, e.g. 05-JAN-2024")

// TargetKind classifies which part of an invoice a field edit addresses
type TargetKind string

const (
	TargetTopLevel  TargetKind = "top_level"
	TargetSumField  TargetKind = "sum"
	TargetItemField TargetKind = "item"
)

// EditTarget identifies one editable field of an invoice
type EditTarget struct {
	Kind  TargetKind `json:"kind"`
	Field string     `json:"field"`
	Index int        `json:"index,omitempty"` // item position for TargetItemField
}

var storedDatePattern = regexp.MustCompile(`^\d{2}-[A-Za-z]{3}-\d{4}$`)

// stripDecorations removes a leading currency symbol and surrounding
// whitespace from numeric input before coercion.
func stripDecorations(raw, symbol string) string {
	raw = strings.TrimSpace(raw)
	if symbol != "" {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, symbol))
	}
	return raw
}

// coerceFloat parses numeric input with a hard fallback of 0. Parse failures
// never propagate into stored data.
func coerceFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

// ApplyEdit applies one field-level edit to an invoice in place, recomputing
// derived state. Top-level scalars other than the invoice number are
// upper-cased on save; the asymmetry is inherited behavior and kept as is.
func ApplyEdit(inv *Invoice, target EditTarget, raw string) error {
	switch target.Kind {
	case TargetTopLevel:
		return applyTopLevel(inv, target.Field, raw)
	case TargetSumField:
		return applySum(inv, target.Field, raw)
	case TargetItemField:
		return applyItem(inv, target.Index, target.Field, raw)
	default:
		return fmt.Errorf("unknown edit target kind: %q", target.Kind)
	}
}

func applyTopLevel(inv *Invoice, field, raw string) error {
	switch field {
	case "store_name":
		inv.StoreName = strings.ToUpper(raw)
	case "invoice_number":
		inv.InvoiceNumber = raw
	case "dated":
		raw = strings.TrimSpace(raw)
		if !storedDatePattern.MatchString(raw) {
			return ErrInvalidDate
		}
		if _, err := ParseStoredDate(raw); err != nil {
			return ErrInvalidDate
		}
		inv.Dated = strings.ToUpper(raw)
	case "category":
		inv.Category = strings.ToUpper(raw)
	case "currency":
		inv.Currency = strings.ToUpper(raw)
	default:
		return fmt.Errorf("unknown invoice field: %q", field)
	}
	return nil
}

func applySum(inv *Invoice, field, raw string) error {
	switch field {
	case "figures":
		inv.Sum.Figures = coerceFloat(stripDecorations(raw, inv.Currency))
	case "words":
		inv.Sum.Words = raw
	default:
		return fmt.Errorf("unknown sum field: %q", field)
	}
	return nil
}

func applyItem(inv *Invoice, index int, field, raw string) error {
	if index < 0 || index >= len(inv.Items) {
		return fmt.Errorf("item index out of range: %d", index)
	}
	item := &inv.Items[index]
	switch field {
	case "product":
		item.Product = raw
	case "price":
		item.Price = coerceFloat(stripDecorations(raw, inv.Currency))
		item.Amount = round2(item.Price * item.Quantity)
	case "quantity":
		item.Quantity = coerceFloat(stripDecorations(raw, inv.Currency))
		item.Amount = round2(item.Price * item.Quantity)
	case "amount":
		item.Amount = coerceFloat(stripDecorations(raw, inv.Currency))
	default:
		return fmt.Errorf("unknown item field: %q", field)
	}
	inv.Renumber()
	inv.Sum.Figures = inv.ItemTotal()
	return nil
}

// AddItem appends an empty line item row and recomputes the total
func AddItem(inv *Invoice) {
	inv.Items = append(inv.Items, LineItem{})
	inv.Renumber()
	inv.Sum.Figures = inv.ItemTotal()
}

// RemoveItem deletes the row at index, renumbers the remainder and recomputes
// the total. Out-of-range indexes are an error, not a panic.
func RemoveItem(inv *Invoice, index int) error {
	if index < 0 || index >= len(inv.Items) {
		return fmt.Errorf("item index out of range: %d", index)
	}
	inv.Items = append(inv.Items[:index], inv.Items[index+1:]...)
	inv.Renumber()
	inv.Sum.Figures = inv.ItemTotal()
	return nil
}
