package invoice

// Card is the list-view summary of one invoice
type Card struct {
	ID        string `json:"id"`
	StoreName string `json:"store_name"`
	Dated     string `json:"dated"`
	Total     string `json:"total"`
	Category  string `json:"category"`
	ItemCount int    `json:"item_count"`
}

// DetailRow is one rendered line item
type DetailRow struct {
	Serial   int     `json:"serial"`
	Product  string  `json:"product"`
	Price    string  `json:"price"`
	Quantity float64 `json:"quantity"`
	Amount   string  `json:"amount"`
}

// Detail is the rendered detail view of one invoice. Raw carries the
// unformatted record so the edit form can round-trip values.
type Detail struct {
	ID            string      `json:"id"`
	StoreName     string      `json:"store_name"`
	InvoiceNumber string      `json:"invoice_number"`
	Dated         string      `json:"dated"`
	Category      string      `json:"category"`
	Items         []DetailRow `json:"items"`
	TotalQuantity float64     `json:"total_quantity"`
	Total         string      `json:"total"`
	TotalWords    string      `json:"total_words"`
	Raw           *Invoice    `json:"raw"`
}

// RenderCard produces the card summary for one invoice
func RenderCard(inv *Invoice) Card {
	return Card{
		ID:        inv.ID,
		StoreName: CapitalizeWords(inv.StoreName),
		Dated:     FormatDate(inv.Dated),
		Total:     FormatCurrency(inv.Sum.Figures, inv.Currency),
		Category:  CapitalizeWords(inv.Category),
		ItemCount: len(inv.Items),
	}
}

// RenderCards produces card summaries for a filtered subset, preserving its
// order.
func RenderCards(invoices []*Invoice) []Card {
	cards := make([]Card, 0, len(invoices))
	for _, inv := range invoices {
		cards = append(cards, RenderCard(inv))
	}
	return cards
}

// RenderDetail produces the detail view of one invoice
func RenderDetail(inv *Invoice) Detail {
	d := Detail{
		ID:            inv.ID,
		StoreName:     CapitalizeWords(inv.StoreName),
		InvoiceNumber: inv.InvoiceNumber,
		Dated:         FormatDate(inv.Dated),
		Category:      CapitalizeWords(inv.Category),
		Total:         FormatCurrency(inv.Sum.Figures, inv.Currency),
		TotalWords:    CapitalizeWords(inv.Sum.Words),
		Raw:           inv,
	}
	for _, it := range inv.Items {
		d.TotalQuantity += it.Quantity
		d.Items = append(d.Items, DetailRow{
			Serial:   it.Serial,
			Product:  CapitalizeWords(it.Product),
			Price:    FormatFigures(it.Price),
			Quantity: it.Quantity,
			Amount:   FormatFigures(it.Amount),
		})
	}
	return d
}
