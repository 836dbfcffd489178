package invoice

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.etcd.io/bbolt"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newInvoice := func(id string) *Invoice {
		return &Invoice{
			ID:        id,
			StoreName: "ACME",
			Dated:     "05-JAN-2024",
			Category:  "Misc",
			Items:     []LineItem{{Serial: 1, Product: "widget", Price: 10, Quantity: 2, Amount: 20}},
			Sum:       Sum{Figures: 20},
			CreatedAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		}
	}

	Describe("LoadAll", func() {
		When("nothing has been persisted", func() {
			It("returns an empty collection", func() {
				invoices, err := db.LoadAll()
				Expect(err).NotTo(HaveOccurred())
				Expect(invoices).To(BeEmpty())
			})
		})

		When("the persisted blob is corrupt", func() {
			BeforeEach(func() {
				err := db.db.Update(func(tx *bbolt.Tx) error {
					return tx.Bucket([]byte(bucketName)).Put([]byte(recordsKey), []byte("{not json["))
				})
				Expect(err).NotTo(HaveOccurred())
			})

			It("treats corruption as an empty collection", func() {
				invoices, err := db.LoadAll()
				Expect(err).NotTo(HaveOccurred())
				Expect(invoices).To(BeEmpty())
			})
		})
	})

	Describe("Insert", func() {
		It("prepends new invoices", func() {
			Expect(db.Insert(newInvoice("first"))).To(Succeed())
			Expect(db.Insert(newInvoice("second"))).To(Succeed())

			invoices, err := db.LoadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(invoices).To(HaveLen(2))
			Expect(invoices[0].ID).To(Equal("second"))
			Expect(invoices[1].ID).To(Equal("first"))
		})
	})

	Describe("SaveAll", func() {
		It("replaces the whole collection", func() {
			Expect(db.Insert(newInvoice("old"))).To(Succeed())
			Expect(db.SaveAll([]*Invoice{newInvoice("a"), newInvoice("b")})).To(Succeed())

			invoices, err := db.LoadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(invoices).To(HaveLen(2))
			Expect(invoices[0].ID).To(Equal("a"))
		})

		It("round-trips invoice fields", func() {
			Expect(db.SaveAll([]*Invoice{newInvoice("x")})).To(Succeed())

			invoices, err := db.LoadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(invoices[0].StoreName).To(Equal("ACME"))
			Expect(invoices[0].Items).To(HaveLen(1))
			Expect(invoices[0].Sum.Figures).To(Equal(20.0))
		})
	})

	Describe("DeleteByID", func() {
		BeforeEach(func() {
			Expect(db.SaveAll([]*Invoice{newInvoice("a"), newInvoice("b"), newInvoice("c")})).To(Succeed())
		})

		It("removes exactly one record, preserving the others' order", func() {
			Expect(db.DeleteByID("b")).To(Succeed())

			invoices, err := db.LoadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(invoices).To(HaveLen(2))
			Expect(invoices[0].ID).To(Equal("a"))
			Expect(invoices[1].ID).To(Equal("c"))
		})

		It("is a no-op for an unknown id", func() {
			Expect(db.DeleteByID("nope")).To(Succeed())

			invoices, err := db.LoadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(invoices).To(HaveLen(3))
		})
	})

	Describe("UpdateByID", func() {
		BeforeEach(func() {
			Expect(db.SaveAll([]*Invoice{newInvoice("a"), newInvoice("b")})).To(Succeed())
		})

		It("persists the mutation", func() {
			err := db.UpdateByID("b", func(inv *Invoice) error {
				inv.StoreName = "GLOBEX"
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			invoices, _ := db.LoadAll()
			Expect(invoices[1].StoreName).To(Equal("GLOBEX"))
			Expect(invoices[0].StoreName).To(Equal("ACME"))
		})

		It("returns ErrNotFound for an unknown id", func() {
			err := db.UpdateByID("nope", func(inv *Invoice) error { return nil })
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("persists nothing when the mutator fails", func() {
			err := db.UpdateByID("a", func(inv *Invoice) error {
				inv.StoreName = "HALFWAY"
				return ErrInvalidDate
			})
			Expect(err).To(MatchError(ErrInvalidDate))

			invoices, _ := db.LoadAll()
			Expect(invoices[0].StoreName).To(Equal("ACME"))
		})
	})
})
