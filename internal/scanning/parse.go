package scanning

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// flexFloat tolerates models returning numbers as JSON strings, with or
// without currency decoration. Anything unparseable decodes to 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = 0
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = flexFloat(v)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		*f = 0
		return nil
	}
	str = strings.TrimFunc(str, func(r rune) bool {
		return !(r == '-' || r == '.' || (r >= '0' && r <= '9'))
	})
	str = strings.ReplaceAll(str, ",", "")
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// invoicePayload mirrors the external JSON contract of the extraction
// collaborator. Serial is ignored on input: serials are positional.
type invoicePayload struct {
	StoreName     string `json:"StoreName"`
	DateTime      string `json:"DateTime"`
	Dated         string `json:"Dated"`
	InvoiceNumber string `json:"InvoiceNumber"`
	Currency      string `json:"Currency"`
	Category      string `json:"Category"`
	Items         []struct {
		Product  string    `json:"Product"`
		Price    flexFloat `json:"Price"`
		Quantity flexFloat `json:"Quantity"`
		Amount   flexFloat `json:"Amount"`
	} `json:"Items"`
	Sum struct {
		Figures flexFloat `json:"Figures"`
		Words   string    `json:"Words"`
	} `json:"Sum"`
}

// dateFormats are tried in order when normalizing extracted dates
var dateFormats = []string{
	"02-Jan-2006",
	"02-Jan-2006 3:04 PM",
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"2 January 2006",
}

// normalizeDate converts an extracted date string to the canonical uppercase
// DD-MMM-YYYY form. Unparseable input is kept verbatim so the caller can
// still display it; such invoices group under the Unknown month bucket.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return strings.ToUpper(t.Format("02-Jan-2006"))
		}
	}
	return raw
}

// parseInvoiceJSON parses the free-form model response into an InvoiceData.
// The response is expected to be a JSON object, possibly wrapped in markdown
// code fences.
func parseInvoiceJSON(text string) (*InvoiceData, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var payload invoicePayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	dated := payload.Dated
	if dated == "" {
		dated = payload.DateTime
	}

	data := &InvoiceData{
		StoreName:     strings.TrimSpace(payload.StoreName),
		Dated:         normalizeDate(dated),
		InvoiceNumber: strings.TrimSpace(payload.InvoiceNumber),
		Currency:      strings.TrimSpace(payload.Currency),
		Category:      strings.TrimSpace(payload.Category),
		Sum: SumData{
			Figures: float64(payload.Sum.Figures),
			Words:   strings.TrimSpace(payload.Sum.Words),
		},
	}

	for i, it := range payload.Items {
		data.Items = append(data.Items, ItemData{
			Serial:   i + 1,
			Product:  strings.TrimSpace(it.Product),
			Price:    float64(it.Price),
			Quantity: float64(it.Quantity),
			Amount:   float64(it.Amount),
		})
	}

	return data, nil
}
