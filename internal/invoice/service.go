package invoice

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/invoicelens/invoicelens/internal/scanning"
)

// IDGenerator generates unique IDs for invoices
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles invoice operations
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "invoice"
	}

	return base + ext
}

// fromExtraction normalizes an extraction payload into an Invoice. The
// declared total is recomputed from the items whenever items exist; the
// extracted figure is trusted only for item-less invoices.
func fromExtraction(id string, data *scanning.InvoiceData, now time.Time) *Invoice {
	inv := &Invoice{
		ID:            id,
		StoreName:     data.StoreName,
		InvoiceNumber: data.InvoiceNumber,
		Dated:         data.Dated,
		Currency:      data.Currency,
		Category:      data.Category,
		Sum: Sum{
			Figures: data.Sum.Figures,
			Words:   data.Sum.Words,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if inv.Category == "" {
		inv.Category = DefaultCategory
	}
	for _, it := range data.Items {
		inv.Items = append(inv.Items, LineItem{
			Product:  it.Product,
			Price:    it.Price,
			Quantity: it.Quantity,
			Amount:   it.Amount,
		})
	}
	inv.Renumber()
	if len(inv.Items) > 0 {
		inv.Sum.Figures = inv.ItemTotal()
	}
	return inv
}

// CaptureInvoice stores the uploaded image, scans it and persists the
// extracted invoice. A scan failure cleans up the saved image and persists
// nothing.
func (s *Service) CaptureInvoice(filename string, data []byte, contentType string) (*Invoice, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	extracted, err := s.scanner.ScanInvoice(data, contentType)
	if err != nil {
		slog.Error("Failed to scan invoice",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("scanning invoice: %w", err)
	}

	inv := fromExtraction(id, extracted, now)
	inv.ImagePath = savedPath
	inv.ContentType = contentType

	if err := s.db.Insert(inv); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving invoice to database: %w", err)
	}

	return inv, nil
}

// ListInvoices returns the visible subset for a query and facet, in stored
// (newest-first) order.
func (s *Service) ListInvoices(query string, facet Facet) ([]*Invoice, error) {
	invoices, err := s.db.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return Filter(invoices, query, facet), nil
}

// GetInvoice retrieves an invoice by ID
func (s *Service) GetInvoice(id string) (*Invoice, error) {
	invoices, err := s.db.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("getting invoice: %w", err)
	}
	for _, inv := range invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// FacetValues enumerates the available values for one facet kind
func (s *Service) FacetValues(kind FacetKind) ([]string, error) {
	invoices, err := s.db.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("listing facet values: %w", err)
	}
	return FacetValues(invoices, kind), nil
}

// DeleteInvoice removes an invoice and its stored image. Deleting an unknown
// id is a no-op.
func (s *Service) DeleteInvoice(id string) error {
	inv, err := s.GetInvoice(id)
	if err != nil {
		return nil
	}

	if inv.ImagePath != "" {
		if err := s.storage.Delete(inv.ImagePath); err != nil {
			slog.Warn("Failed to delete image", "path", inv.ImagePath, "error", err)
		}
	}

	if err := s.db.DeleteByID(id); err != nil {
		return fmt.Errorf("deleting invoice from database: %w", err)
	}
	return nil
}

// GetInvoiceImage retrieves the original upload for an invoice
func (s *Service) GetInvoiceImage(id string) ([]byte, string, error) {
	inv, err := s.GetInvoice(id)
	if err != nil {
		return nil, "", err
	}
	if inv.ImagePath == "" {
		return nil, "", fmt.Errorf("invoice has no stored image: %s", id)
	}

	data, err := s.storage.Get(inv.ImagePath)
	if err != nil {
		return nil, "", fmt.Errorf("getting invoice image: %w", err)
	}

	return data, inv.ContentType, nil
}

// EditField applies one field-level edit and persists the whole invoice.
// Validation failure aborts the write, so nothing is partially persisted.
func (s *Service) EditField(id string, target EditTarget, raw string) (*Invoice, error) {
	var updated *Invoice
	err := s.db.UpdateByID(id, func(inv *Invoice) error {
		if err := ApplyEdit(inv, target, raw); err != nil {
			return err
		}
		inv.UpdatedAt = s.timeSource.Now()
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddLineItem appends an empty row to an invoice's items
func (s *Service) AddLineItem(id string) (*Invoice, error) {
	var updated *Invoice
	err := s.db.UpdateByID(id, func(inv *Invoice) error {
		AddItem(inv)
		inv.UpdatedAt = s.timeSource.Now()
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveLineItem deletes the row at index from an invoice's items
func (s *Service) RemoveLineItem(id string, index int) (*Invoice, error) {
	var updated *Invoice
	err := s.db.UpdateByID(id, func(inv *Invoice) error {
		if err := RemoveItem(inv, index); err != nil {
			return err
		}
		inv.UpdatedAt = s.timeSource.Now()
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
