package scanning

// InvoiceData contains the structured fields extracted from an invoice image
type InvoiceData struct {
	StoreName     string
	Dated         string // canonical DD-MMM-YYYY once normalized
	InvoiceNumber string
	Currency      string
	Category      string
	Items         []ItemData
	Sum           SumData
}

// ItemData is one extracted product row
type ItemData struct {
	Serial   int
	Product  string
	Price    float64
	Quantity float64
	Amount   float64
}

// SumData is the extracted declared total
type SumData struct {
	Figures float64
	Words   string
}

// Scanner defines the interface for invoice scanning operations
type Scanner interface {
	// ScanInvoice analyzes an invoice image/PDF and extracts its fields
	ScanInvoice(imageData []byte, contentType string) (*InvoiceData, error)
	// Close closes the scanner and releases resources
	Close() error
}
