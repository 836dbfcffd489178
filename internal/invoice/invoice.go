package invoice

import "time"

// DefaultCategory is assigned when the extraction payload carries no category.
const DefaultCategory = "Misc"

// Invoice represents one captured invoice with its extracted fields
type Invoice struct {
	ID            string     `json:"id"`
	StoreName     string     `json:"store_name"`
	InvoiceNumber string     `json:"invoice_number"`
	Dated         string     `json:"dated"` // canonical DD-MMM-YYYY, e.g. 05-JAN-2024
	Currency      string     `json:"currency"`
	Category      string     `json:"category"`
	Items         []LineItem `json:"items"`
	Sum           Sum        `json:"sum"`
	ImagePath     string     `json:"image_path,omitempty"`
	ContentType   string     `json:"content_type,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// LineItem is one product row within an invoice
type LineItem struct {
	Serial   int     `json:"serial"` // 1-based position, renumbered on save
	Product  string  `json:"product"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Amount   float64 `json:"amount"`
}

// Sum holds the declared total and its spelled-out form
type Sum struct {
	Figures float64 `json:"figures"`
	Words   string  `json:"words"`
}

// ItemTotal returns the sum of all line item amounts.
func (inv *Invoice) ItemTotal() float64 {
	var total float64
	for _, it := range inv.Items {
		total += it.Amount
	}
	return round2(total)
}

// Renumber rewrites line item serials as 1-based positions.
func (inv *Invoice) Renumber() {
	for i := range inv.Items {
		inv.Items[i].Serial = i + 1
	}
}
