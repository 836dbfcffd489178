package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// invoiceScanPrompt is the shared prompt used by all LLM providers for scanning invoices
const invoiceScanPrompt = `You are analyzing an invoice or receipt document. Carefully read all text in the image and extract the following information:

1. **StoreName**: The merchant, store, or business name, usually the largest text at the top.

2. **Dated**: The invoice or transaction date, including time of day if printed. Use the format DD-MMM-YYYY (e.g. "05-JAN-2024").

3. **InvoiceNumber**: The invoice, receipt, or bill number if printed.

4. **Currency**: The currency symbol or code used on the invoice (e.g. "$", "USD", "EUR").

5. **Category**: A one or two word spending category for the purchase (e.g. "Groceries", "Fuel", "Dining"). Use "Misc" if unclear.

6. **Items**: Every product line on the invoice, each with Serial (row number starting at 1), Product (name), Price (unit price), Quantity, and Amount (line total).

7. **Sum**: The grand total, as Figures (numeric) and Words (the spelled-out total if printed, e.g. "One Hundred Twenty Only").

Return ONLY valid JSON in this exact format:
{
  "StoreName": "",
  "Dated": "05-JAN-2024",
  "InvoiceNumber": "",
  "Currency": "",
  "Category": "Misc",
  "Items": [
    {"Serial": 1, "Product": "", "Price": 0.00, "Quantity": 1, "Amount": 0.00}
  ],
  "Sum": {"Figures": 0.00, "Words": ""}
}

Important:
- Price, Quantity, Amount and Figures must be numbers (not strings)
- If you cannot find a field, use an empty string or 0
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// pdfToImage converts a PDF to a PNG image
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Render the first page (most invoices are single page)
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// heicToImage converts a HEIC/HEIF image to PNG
func heicToImage(heicData []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(heicData))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// looksLikeHEIC sniffs the ftyp box brands HEIC/HEIF files start with, since
// phone uploads often arrive with a generic content type
func looksLikeHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// reencodeToPNG decodes any registered image format and re-encodes as PNG
func reencodeToPNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// prepareImageData converts an upload to PNG so every provider sees one
// format. Returns the converted bytes, the resulting content type and whether
// a conversion happened.
func prepareImageData(data []byte, contentType string) ([]byte, string, bool, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case ct == "application/pdf":
		out, err := pdfToImage(data)
		if err != nil {
			return nil, "", false, err
		}
		return out, "image/png", true, nil
	case ct == "image/heic" || ct == "image/heif" || looksLikeHEIC(data):
		out, err := heicToImage(data)
		if err != nil {
			return nil, "", false, err
		}
		return out, "image/png", true, nil
	case ct == "image/png":
		return data, "image/png", false, nil
	default:
		out, err := reencodeToPNG(data)
		if err != nil {
			return nil, "", false, err
		}
		return out, "image/png", true, nil
	}
}
