package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/pkg/domain"
)

var fixedNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(ClockFunc(func() time.Time { return fixedNow }))}, opts...)
	return NewStore("Test Instance", opts...)
}

type salesFixture struct {
	screws   domain.ArticleType
	nails    domain.ArticleType
	customer domain.Customer
	order    domain.Order
	prices   domain.Prices
	terms    domain.PaymentTerms
}

func seedSales(t *testing.T, s *Store) salesFixture {
	t.Helper()
	var f salesFixture
	var err error
	f.screws, err = s.NewArticleType("Screws")
	require.NoError(t, err)
	f.nails, err = s.NewArticleType("Nails")
	require.NoError(t, err)
	f.customer, err = s.NewCustomer(domain.Customer{Name: "ACME", Address: "Main St 1", Contact: "acme@example.com"})
	require.NoError(t, err)
	f.order, err = s.NewOrder(f.customer.ID, []domain.OrderItem{
		{TypeID: f.screws.ID, Quantity: 3},
		{TypeID: f.nails.ID, Quantity: 10},
	})
	require.NoError(t, err)
	f.prices, err = s.NewPrices("Retail", map[int]decimal.Decimal{
		f.screws.ID: decimal.RequireFromString("1.25"),
		f.nails.ID:  decimal.RequireFromString("0.10"),
	})
	require.NoError(t, err)
	f.terms, err = s.NewPaymentTerms(domain.PaymentTermsInput{Name: "Net 30", Due: domain.DueInDays(30)})
	require.NoError(t, err)
	return f
}

func TestDeleteArticleTypeRejectedWhileReferenced(t *testing.T) {
	s := newTestStore(t)
	typ, err := s.NewArticleType("Bolts")
	require.NoError(t, err)
	article, err := s.NewArticle(typ.ID, 5)
	require.NoError(t, err)

	err = s.DeleteArticleType(typ.ID)
	var refErr domain.ErrReferenced
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, domain.EntityArticle, refErr.By)
	assert.Equal(t, article.ID, refErr.ByID)
	_, ok := s.FindArticleType(typ.ID)
	assert.True(t, ok, "article type must survive rejected delete")

	require.NoError(t, s.DeleteArticle(article.ID))
	require.NoError(t, s.DeleteArticleType(typ.ID))
	_, ok = s.FindArticleType(typ.ID)
	assert.False(t, ok)
}

func TestDeleteArticleTypeGuardsOrderLinesAndPrices(t *testing.T) {
	s := newTestStore(t)
	f := seedSales(t, s)

	var refErr domain.ErrReferenced
	require.ErrorAs(t, s.DeleteArticleType(f.screws.ID), &refErr)
	assert.Equal(t, domain.EntityOrder, refErr.By)

	other, err := s.NewArticleType("Washers")
	require.NoError(t, err)
	so, err := s.NewSelfOrder([]domain.OrderItem{{TypeID: other.ID, Quantity: 4}})
	require.NoError(t, err)
	require.ErrorAs(t, s.DeleteArticleType(other.ID), &refErr)
	assert.Equal(t, domain.EntitySelfOrder, refErr.By)
	assert.Equal(t, so.ID, refErr.ByID)

	priced, err := s.NewArticleType("Glue")
	require.NoError(t, err)
	_, err = s.SetUnitPrice(f.prices.ID, priced.ID, decimal.NewFromInt(4))
	require.NoError(t, err)
	require.ErrorAs(t, s.DeleteArticleType(priced.ID), &refErr)
	assert.Equal(t, domain.EntityPrices, refErr.By)
}

func TestGuardedDeletes(t *testing.T) {
	s := newTestStore(t)
	f := seedSales(t, s)
	bill, err := s.NewBill(f.order.ID, f.prices.ID, f.terms.ID)
	require.NoError(t, err)

	section, err := s.NewSection("Warehouse")
	require.NoError(t, err)
	employee, err := s.NewEmployee(domain.Employee{Name: "Kim", SectionID: section.ID})
	require.NoError(t, err)

	var refErr domain.ErrReferenced
	require.ErrorAs(t, s.DeleteSection(section.ID), &refErr)
	require.ErrorAs(t, s.DeleteCustomer(f.customer.ID), &refErr)
	assert.Equal(t, domain.EntityOrder, refErr.By)
	require.ErrorAs(t, s.DeleteOrder(f.order.ID), &refErr)
	assert.Equal(t, bill.ID, refErr.ByID)
	require.ErrorAs(t, s.DeletePaymentTerms(f.terms.ID), &refErr)

	require.NoError(t, s.DeleteEmployee(employee.ID))
	require.NoError(t, s.DeleteSection(section.ID))
	require.NoError(t, s.DeleteBill(bill.ID))
	require.NoError(t, s.DeleteOrder(f.order.ID))
	require.NoError(t, s.DeleteCustomer(f.customer.ID))
	require.NoError(t, s.DeletePaymentTerms(f.terms.ID))
}

func TestFactoriesRejectUnknownReferences(t *testing.T) {
	s := newTestStore(t)
	var notFound domain.ErrNotFound

	_, err := s.NewArticle(99, 1)
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, domain.EntityArticleType, notFound.Entity)

	_, err = s.NewOrderItem(99, 1)
	require.ErrorAs(t, err, &notFound)

	_, err = s.NewEmployee(domain.Employee{Name: "Nobody", SectionID: 7})
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, domain.EntitySection, notFound.Entity)

	typ, err := s.NewArticleType("Tape")
	require.NoError(t, err)
	_, err = s.NewOrderItem(typ.ID, 0)
	var qtyErr domain.ErrInvalidQuantity
	require.ErrorAs(t, err, &qtyErr)

	_, err = s.NewOrder(42, []domain.OrderItem{{TypeID: typ.ID, Quantity: 1}})
	require.ErrorAs(t, err, &notFound)
	assert.Empty(t, s.ListOrders())
}

func TestWithdrawRejectsOverdraw(t *testing.T) {
	logger := &captureLogger{}
	s := newTestStore(t, WithLogger(logger))
	typ, err := s.NewArticleType("Cable")
	require.NoError(t, err)
	article, err := s.NewArticle(typ.ID, 3)
	require.NoError(t, err)

	_, err = s.Withdraw(article.ID, 5)
	var stockErr domain.ErrInsufficientStock
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Stock)
	assert.Equal(t, 1, logger.warns)

	current, _ := s.FindArticle(article.ID)
	assert.Equal(t, 3, current.Stock)

	updated, err := s.Restock(article.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Stock)
	updated, err = s.Withdraw(article.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)
}

func TestSortArticleMembership(t *testing.T) {
	s := newTestStore(t)
	typ, _ := s.NewArticleType("Pipe")
	article, _ := s.NewArticle(typ.ID, 1)
	a, _ := s.NewStorageSlot("A1")
	b, _ := s.NewStorageSlot("B2")

	require.NoError(t, s.SortArticle(article.ID, a.ID))
	require.NoError(t, s.SortArticle(article.ID, a.ID))
	require.NoError(t, s.SortArticle(article.ID, b.ID))

	slot, _ := s.FindStorageSlot(a.ID)
	assert.Equal(t, []int{article.ID}, slot.ArticleIDs)
	assert.Equal(t, []int{a.ID, b.ID}, s.SlotsOf(article.ID))

	require.NoError(t, s.UnsortArticle(article.ID, b.ID))
	assert.Equal(t, []int{a.ID}, s.SlotsOf(article.ID))

	require.NoError(t, s.DeleteArticle(article.ID))
	slot, _ = s.FindStorageSlot(a.ID)
	assert.Empty(t, slot.ArticleIDs)
}

func TestNewBillMissingPriceCreatesNothing(t *testing.T) {
	s := newTestStore(t)
	f := seedSales(t, s)
	partial, err := s.NewPrices("Screws only", map[int]decimal.Decimal{f.screws.ID: decimal.NewFromInt(1)})
	require.NoError(t, err)

	_, err = s.NewBill(f.order.ID, partial.ID, f.terms.ID)
	var missing domain.ErrMissingPrice
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, f.nails.ID, missing.TypeID)
	assert.Empty(t, s.ListBills())

	next, err := s.NewBill(f.order.ID, f.prices.ID, f.terms.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next.ID, "rejected bill must not consume an id")
}

func TestBillTotalIsFixedAtCreation(t *testing.T) {
	s := newTestStore(t)
	f := seedSales(t, s)
	bill, err := s.NewBill(f.order.ID, f.prices.ID, f.terms.ID)
	require.NoError(t, err)
	assert.True(t, bill.TotalPrice.Equal(decimal.RequireFromString("4.75")), bill.TotalPrice.String())
	assert.Equal(t, f.customer.ID, bill.CustomerID)
	assert.Equal(t, fixedNow, bill.BillDate)

	_, err = s.SetUnitPrice(f.prices.ID, f.screws.ID, decimal.NewFromInt(100))
	require.NoError(t, err)
	stored, _ := s.FindBill(bill.ID)
	assert.True(t, stored.TotalPrice.Equal(bill.TotalPrice))
}

func TestDeletePricesRetainsBillBasis(t *testing.T) {
	s := newTestStore(t)
	f := seedSales(t, s)
	bill, err := s.NewBill(f.order.ID, f.prices.ID, f.terms.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeletePrices(f.prices.ID))
	_, live := s.FindPrices(f.prices.ID)
	assert.False(t, live)
	basis, ok := s.BillPrices(bill.ID)
	require.True(t, ok)
	assert.Equal(t, f.prices.ID, basis.ID)

	require.NoError(t, s.DeleteBill(bill.ID))
	assert.Empty(t, s.ListRetainedPrices())
}

func TestOrderStatusTransitions(t *testing.T) {
	s := newTestStore(t)
	f := seedSales(t, s)
	done, err := s.CompleteOrder(f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)

	_, err = s.CancelOrder(f.order.ID)
	var terminal domain.ErrTerminalStatus
	require.ErrorAs(t, err, &terminal)
}

func TestSelfOrderArrivalsThroughStore(t *testing.T) {
	s := newTestStore(t)
	typ, _ := s.NewArticleType("Paint")
	so, err := s.NewSelfOrder([]domain.OrderItem{{TypeID: typ.ID, Quantity: 200}})
	require.NoError(t, err)

	first, err := s.Arrive(so.ID, typ.ID, 60)
	require.NoError(t, err)
	current, _ := s.FindSelfOrder(so.ID)
	assert.Equal(t, domain.StatusPending, current.Status)

	second, err := s.Arrive(so.ID, typ.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, 140, second.Quantity)
	assert.Greater(t, second.ID, first.ID)

	current, _ = s.FindSelfOrder(so.ID)
	assert.Equal(t, domain.StatusCompleted, current.Status)
	assert.Empty(t, current.Pending)
	assert.Equal(t, 200, current.Delivered(typ.ID))

	_, err = s.Arrive(so.ID, typ.ID, 1)
	var terminal domain.ErrTerminalStatus
	require.ErrorAs(t, err, &terminal)

	_, err = s.CancelSelfOrder(so.ID)
	require.ErrorAs(t, err, &terminal)
}

func TestIDsAreNeverReused(t *testing.T) {
	s := newTestStore(t)
	first, _ := s.NewSection("One")
	require.NoError(t, s.DeleteSection(first.ID))
	second, _ := s.NewSection("Two")
	assert.Equal(t, first.ID+1, second.ID)
}

func TestReturnedValuesAreDetached(t *testing.T) {
	s := newTestStore(t)
	typ, _ := s.NewArticleType("Foam")
	so, _ := s.NewSelfOrder([]domain.OrderItem{{TypeID: typ.ID, Quantity: 2}})
	so.Pending[0].Quantity = 99

	stored, _ := s.FindSelfOrder(so.ID)
	assert.Equal(t, 2, stored.Pending[0].Quantity)
}

func TestStockReportAndReorderSuggestions(t *testing.T) {
	s := newTestStore(t)
	typ, _ := s.NewArticleType("Sand")
	other, _ := s.NewArticleType("Gravel")
	_, _ = s.NewArticle(typ.ID, 4)
	_, _ = s.NewArticle(typ.ID, 1)
	require.NoError(t, s.SetTargetStock(typ.ID, 20))
	require.NoError(t, s.SetTargetStock(other.ID, 2))
	_, err := s.NewSelfOrder([]domain.OrderItem{{TypeID: typ.ID, Quantity: 5}})
	require.NoError(t, err)

	report := s.StockReport()
	require.Len(t, report, 2)
	assert.Equal(t, StockLevel{TypeID: typ.ID, TypeName: "Sand", InStock: 5, Inbound: 5, Target: 20, Shortfall: 10}, report[0])

	lines := s.ReorderSuggestions()
	assert.Equal(t, []domain.OrderItem{
		{TypeID: typ.ID, Quantity: 10},
		{TypeID: other.ID, Quantity: 2},
	}, lines)

	_, err = s.NewSelfOrder(lines)
	require.NoError(t, err)
	assert.Empty(t, s.ReorderSuggestions())
}

func TestInstanceAttributes(t *testing.T) {
	s := newTestStore(t)
	_, set := s.OwnCapital()
	assert.False(t, set)
	require.NoError(t, s.SetOwnCapital(decimal.RequireFromString("1500.50")))
	capital, set := s.OwnCapital()
	assert.True(t, set)
	assert.Equal(t, "1500.5", capital.String())

	require.Error(t, s.Rename(""))
	require.NoError(t, s.Rename("Branch"))
	assert.Equal(t, "Branch", s.Name())

	s.SetCompany(&domain.Company{Name: "ERP GmbH", Bank: domain.BankInfo{IBAN: "DE00"}})
	company, ok := s.Company()
	require.True(t, ok)
	assert.Equal(t, "DE00", company.Bank.IBAN)

	var notFound domain.ErrNotFound
	require.True(t, errors.As(s.SetTargetStock(77, 1), &notFound))
}

func TestExportImportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	f := seedSales(t, s)
	_, err := s.NewBill(f.order.ID, f.prices.ID, f.terms.ID)
	require.NoError(t, err)
	_, err = s.NewArticle(f.screws.ID, 12)
	require.NoError(t, err)
	require.NoError(t, s.DeletePrices(f.prices.ID))

	exported := s.ExportState()
	restored := NewStoreFromState(exported)
	assert.Equal(t, exported, restored.ExportState())

	next, err := restored.NewArticleType("After import")
	require.NoError(t, err)
	assert.Equal(t, 3, next.ID)

	item, err := restored.NewOrderItem(next.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, exported.OrderItemSequence+1, item.ID)
}
