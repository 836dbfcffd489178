package invoice

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Editor", func() {
	var inv *Invoice

	BeforeEach(func() {
		inv = &Invoice{
			ID:            "inv_1",
			StoreName:     "ACME",
			InvoiceNumber: "Inv-42",
			Dated:         "05-JAN-2024",
			Currency:      "$",
			Category:      "Misc",
			Items: []LineItem{
				{Serial: 1, Product: "widget", Price: 10, Quantity: 2, Amount: 20},
				{Serial: 2, Product: "gadget", Price: 5, Quantity: 1, Amount: 5},
			},
			Sum: Sum{Figures: 25, Words: "Twenty Five Only"},
		}
	})

	Describe("top-level scalar edits", func() {
		It("uppercases the store name on save", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetTopLevel, Field: "store_name"}, "corner shop")).To(Succeed())
			Expect(inv.StoreName).To(Equal("CORNER SHOP"))
		})

		It("uppercases the category on save", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetTopLevel, Field: "category"}, "groceries")).To(Succeed())
			Expect(inv.Category).To(Equal("GROCERIES"))
		})

		It("stores the invoice number verbatim", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetTopLevel, Field: "invoice_number"}, "ab-17x")).To(Succeed())
			Expect(inv.InvoiceNumber).To(Equal("ab-17x"))
		})

		It("rejects an unknown field", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetTopLevel, Field: "bogus"}, "x")).NotTo(Succeed())
		})
	})

	Describe("date edits", func() {
		It("accepts and uppercases a valid date", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetTopLevel, Field: "dated"}, "07-feb-2024")).To(Succeed())
			Expect(inv.Dated).To(Equal("07-FEB-2024"))
		})

		It("rejects an ISO date, leaving the stored value untouched", func() {
			err := ApplyEdit(inv, EditTarget{Kind: TargetTopLevel, Field: "dated"}, "2024-01-05")
			Expect(err).To(MatchError(ErrInvalidDate))
			Expect(inv.Dated).To(Equal("05-JAN-2024"))
		})

		It("rejects a pattern match with an impossible month", func() {
			err := ApplyEdit(inv, EditTarget{Kind: TargetTopLevel, Field: "dated"}, "05-XXX-2024")
			Expect(err).To(MatchError(ErrInvalidDate))
		})
	})

	Describe("item edits", func() {
		It("re-derives amount and total after a price edit", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetItemField, Field: "price", Index: 0}, "15")).To(Succeed())
			Expect(inv.Items[0].Amount).To(Equal(30.0))
			Expect(inv.Sum.Figures).To(Equal(35.0))
		})

		It("re-derives amount and total after a quantity edit", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetItemField, Field: "quantity", Index: 1}, "4")).To(Succeed())
			Expect(inv.Items[1].Amount).To(Equal(20.0))
			Expect(inv.Sum.Figures).To(Equal(40.0))
		})

		It("price times quantity overrides an independently entered amount", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetItemField, Field: "amount", Index: 0}, "999")).To(Succeed())
			Expect(inv.Items[0].Amount).To(Equal(999.0))

			Expect(ApplyEdit(inv, EditTarget{Kind: TargetItemField, Field: "price", Index: 0}, "12")).To(Succeed())
			Expect(inv.Items[0].Amount).To(Equal(24.0))
		})

		It("rounds derived amounts to two decimal places", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetItemField, Field: "price", Index: 0}, "0.125")).To(Succeed())
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetItemField, Field: "quantity", Index: 0}, "3")).To(Succeed())
			Expect(inv.Items[0].Amount).To(Equal(0.38))
		})

		It("strips a leading currency symbol before coercion", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetItemField, Field: "price", Index: 0}, " $ 1,250.00 ")).To(Succeed())
			Expect(inv.Items[0].Price).To(Equal(1250.0))
		})

		It("silently coerces garbage numerics to zero", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetItemField, Field: "price", Index: 0}, "twelve")).To(Succeed())
			Expect(inv.Items[0].Price).To(Equal(0.0))
			Expect(inv.Items[0].Amount).To(Equal(0.0))
			Expect(inv.Sum.Figures).To(Equal(5.0))
		})

		It("stores the product verbatim", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetItemField, Field: "product", Index: 0}, "blue Widget")).To(Succeed())
			Expect(inv.Items[0].Product).To(Equal("blue Widget"))
		})

		It("rejects an out-of-range index", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetItemField, Field: "price", Index: 9}, "1")).NotTo(Succeed())
		})
	})

	Describe("sum edits", func() {
		It("coerces figures with currency stripping", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetSumField, Field: "figures"}, "$ 31.50")).To(Succeed())
			Expect(inv.Sum.Figures).To(Equal(31.5))
		})

		It("stores words verbatim", func() {
			Expect(ApplyEdit(inv, EditTarget{Kind: TargetSumField, Field: "words"}, "thirty one fifty")).To(Succeed())
			Expect(inv.Sum.Words).To(Equal("thirty one fifty"))
		})
	})

	Describe("row operations", func() {
		It("AddItem appends a zero row and renumbers", func() {
			AddItem(inv)
			Expect(inv.Items).To(HaveLen(3))
			Expect(inv.Items[2].Serial).To(Equal(3))
			Expect(inv.Sum.Figures).To(Equal(25.0))
		})

		It("RemoveItem renumbers and recomputes the total", func() {
			Expect(RemoveItem(inv, 0)).To(Succeed())
			Expect(inv.Items).To(HaveLen(1))
			Expect(inv.Items[0].Serial).To(Equal(1))
			Expect(inv.Items[0].Product).To(Equal("gadget"))
			Expect(inv.Sum.Figures).To(Equal(5.0))
		})
	})
})
