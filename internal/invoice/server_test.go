package invoice

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Server", func() {
	var (
		db      *mockDB
		storage *mockStorage
		scanner *mockScanner
		service *Service
		server  *Server
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		scanner = newMockScanner()
		service = NewServiceWithDeps(db, scanner, storage,
			&mockIDGenerator{id: "inv-123"},
			&mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)})
		server = NewServer(service, BasicAuth{})

		db.invoices = []*Invoice{
			{
				ID:        "inv_1",
				StoreName: "ACME MART",
				Dated:     "05-JAN-2024",
				Currency:  "$",
				Category:  "GROCERIES",
				Items:     []LineItem{{Serial: 1, Product: "widget", Price: 10, Quantity: 2, Amount: 20}},
				Sum:       Sum{Figures: 20, Words: "Twenty Only"},
			},
			{
				ID:        "inv_0",
				StoreName: "GLOBEX FUEL",
				Dated:     "20-DEC-2023",
				Category:  "FUEL",
			},
		}
	})

	do := func(method, path string, body *bytes.Buffer) *httptest.ResponseRecorder {
		if body == nil {
			body = &bytes.Buffer{}
		}
		req := httptest.NewRequest(method, path, body)
		if method == "PATCH" || method == "POST" {
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		return rec
	}

	Describe("GET /api/invoices", func() {
		It("returns card summaries in stored order", func() {
			rec := do("GET", "/api/invoices", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var cards []Card
			Expect(json.Unmarshal(rec.Body.Bytes(), &cards)).To(Succeed())
			Expect(cards).To(HaveLen(2))
			Expect(cards[0].ID).To(Equal("inv_1"))
			Expect(cards[0].StoreName).To(Equal("Acme Mart"))
			Expect(cards[0].Total).To(Equal("$ 20.00"))
			Expect(cards[0].ItemCount).To(Equal(1))
		})

		It("applies query and facet together", func() {
			rec := do("GET", "/api/invoices?q=widget&facet=category&value=GROCERIES", nil)
			var cards []Card
			Expect(json.Unmarshal(rec.Body.Bytes(), &cards)).To(Succeed())
			Expect(cards).To(HaveLen(1))
			Expect(cards[0].ID).To(Equal("inv_1"))
		})

		It("returns an empty array when nothing matches", func() {
			rec := do("GET", "/api/invoices?q=nothing", nil)
			Expect(strings.TrimSpace(rec.Body.String())).To(Equal("[]"))
		})
	})

	Describe("GET /api/invoices/facets", func() {
		It("lists month buckets", func() {
			rec := do("GET", "/api/invoices/facets?kind=month", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var values []string
			Expect(json.Unmarshal(rec.Body.Bytes(), &values)).To(Succeed())
			Expect(values).To(Equal([]string{"January 2024", "December 2023"}))
		})

		It("rejects an unknown kind", func() {
			rec := do("GET", "/api/invoices/facets?kind=color", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/invoices/{id}", func() {
		It("returns the detail view", func() {
			rec := do("GET", "/api/invoices/inv_1", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var d Detail
			Expect(json.Unmarshal(rec.Body.Bytes(), &d)).To(Succeed())
			Expect(d.StoreName).To(Equal("Acme Mart"))
			Expect(d.TotalWords).To(Equal("Twenty Only"))
			Expect(d.Items).To(HaveLen(1))
			Expect(d.Raw.StoreName).To(Equal("ACME MART"))
		})

		It("404s for an unknown id", func() {
			rec := do("GET", "/api/invoices/none", nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("PATCH /api/invoices/{id}", func() {
		It("applies a field edit and returns the fresh detail", func() {
			body := bytes.NewBufferString(`{"kind":"item","field":"price","index":0,"value":"15"}`)
			rec := do("PATCH", "/api/invoices/inv_1", body)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var d Detail
			Expect(json.Unmarshal(rec.Body.Bytes(), &d)).To(Succeed())
			Expect(d.Raw.Items[0].Amount).To(Equal(30.0))
			Expect(d.Raw.Sum.Figures).To(Equal(30.0))
		})

		It("422s on a malformed date so the client can revert", func() {
			body := bytes.NewBufferString(`{"kind":"top_level","field":"dated","value":"2024-01-05"}`)
			rec := do("PATCH", "/api/invoices/inv_1", body)
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(db.invoices[0].Dated).To(Equal("05-JAN-2024"))
		})

		It("404s for an unknown id", func() {
			body := bytes.NewBufferString(`{"kind":"top_level","field":"category","value":"x"}`)
			rec := do("PATCH", "/api/invoices/none", body)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("line item rows", func() {
		It("POST appends a row", func() {
			rec := do("POST", "/api/invoices/inv_1/items", nil)
			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(db.invoices[0].Items).To(HaveLen(2))
		})

		It("DELETE removes a row", func() {
			rec := do("DELETE", "/api/invoices/inv_1/items/0", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(db.invoices[0].Items).To(BeEmpty())
			Expect(db.invoices[0].Sum.Figures).To(Equal(0.0))
		})
	})

	Describe("DELETE /api/invoices/{id}", func() {
		It("deletes and returns no content", func() {
			rec := do("DELETE", "/api/invoices/inv_1", nil)
			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(db.invoices).To(HaveLen(1))
		})

		It("is a no-op for an unknown id", func() {
			rec := do("DELETE", "/api/invoices/none", nil)
			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(db.invoices).To(HaveLen(2))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			server = NewServer(service, BasicAuth{Username: "user", Password: "pass"})
		})

		It("rejects unauthenticated requests", func() {
			rec := do("GET", "/api/invoices", nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts valid credentials", func() {
			req := httptest.NewRequest("GET", "/api/invoices", nil)
			req.SetBasicAuth("user", "pass")
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})
})
