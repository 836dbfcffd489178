package invoice

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// facetFromRequest reads the single-select facet out of query parameters
func facetFromRequest(r *http.Request) Facet {
	kind := FacetKind(r.URL.Query().Get("facet"))
	switch kind {
	case FacetMonth, FacetCategory, FacetStore:
		return Facet{Kind: kind, Value: r.URL.Query().Get("value")}
	}
	return Facet{}
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleListInvoices returns card summaries of the filtered collection
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	invoices, err := s.service.ListInvoices(query, facetFromRequest(r))
	if err != nil {
		slog.Error("Error listing invoices", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(RenderCards(invoices)); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleFacetValues returns the available values for one facet kind
func (s *Server) handleFacetValues(w http.ResponseWriter, r *http.Request) {
	kind := FacetKind(r.URL.Query().Get("kind"))
	switch kind {
	case FacetMonth, FacetCategory, FacetStore:
	default:
		corsError(w, "Unknown facet kind", http.StatusBadRequest)
		return
	}

	values, err := s.service.FacetValues(kind)
	if err != nil {
		slog.Error("Error listing facet values", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(values); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleCaptureInvoice handles invoice image upload and extraction. Uploads
// are serialized: a capture started while one is in flight gets a 409.
func (s *Server) handleCaptureInvoice(w http.ResponseWriter, r *http.Request) {
	if !s.captureMu.TryLock() {
		jsonError(w, "A capture is already in progress. Please wait for it to finish.", http.StatusConflict)
		return
	}
	defer s.captureMu.Unlock()

	// 50MB ceiling to handle high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	inv, err := s.service.CaptureInvoice(header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error capturing invoice", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(RenderDetail(inv)); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetInvoice returns the detail view of a single invoice
func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Invoice ID required", http.StatusBadRequest)
		return
	}
	inv, err := s.service.GetInvoice(id)
	if err != nil {
		corsError(w, "Invoice not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(RenderDetail(inv)); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetInvoiceImage returns the original upload for an invoice
func (s *Server) handleGetInvoiceImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Invoice ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetInvoiceImage(id)
	if err != nil {
		corsError(w, "Image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// editRequest is the body of a PATCH field edit
type editRequest struct {
	Kind  TargetKind `json:"kind"`
	Field string     `json:"field"`
	Index int        `json:"index"`
	Value string     `json:"value"`
}

// handleEditInvoice applies one field-level edit. An invalid date gets a 422
// so the client can revert the displayed value and show the message.
func (s *Server) handleEditInvoice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Invoice ID required", http.StatusBadRequest)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	target := EditTarget{Kind: req.Kind, Field: req.Field, Index: req.Index}
	inv, err := s.service.EditField(id, target, req.Value)
	switch {
	case errors.Is(err, ErrInvalidDate):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case errors.Is(err, ErrNotFound):
		corsError(w, "Invoice not found", http.StatusNotFound)
		return
	case err != nil:
		slog.Error("Error editing invoice", "id", id, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(RenderDetail(inv)); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleAddLineItem appends an empty item row
func (s *Server) handleAddLineItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	inv, err := s.service.AddLineItem(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			corsError(w, "Invoice not found", http.StatusNotFound)
			return
		}
		slog.Error("Error adding line item", "id", id, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(RenderDetail(inv)); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleRemoveLineItem deletes one item row
func (s *Server) handleRemoveLineItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		corsError(w, "Invalid item index", http.StatusBadRequest)
		return
	}

	inv, err := s.service.RemoveLineItem(id, index)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			corsError(w, "Invoice not found", http.StatusNotFound)
			return
		}
		slog.Error("Error removing line item", "id", id, "index", index, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(RenderDetail(inv)); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleDeleteInvoice deletes an invoice; unknown ids are a no-op
func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Invoice ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteInvoice(id); err != nil {
		corsError(w, "Error deleting invoice", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}
