package core

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"erpcore/pkg/domain"
)

// State is a detached, fully materialized copy of everything an instance
// holds. It is what the snapshot codec encodes and what the resolver produces.
type State struct {
	Name          string
	OwnCapital    decimal.Decimal
	OwnCapitalSet bool
	TargetStock   map[int]int

	Counters          map[domain.EntityType]int
	OrderItemSequence int
	ScannerIDs        []int64

	ArticleTypes   []domain.ArticleType
	Articles       []domain.Article
	StorageSlots   []domain.StorageSlot
	Sections       []domain.Section
	Customers      []domain.Customer
	Employees      []domain.Employee
	Orders         []domain.Order
	SelfOrders     []domain.SelfOrder
	Prices         []domain.Prices
	RetainedPrices []domain.Prices
	PaymentTerms   []domain.PaymentTerms
	Bills          []domain.Bill

	Company *domain.Company
}

// Clone returns a deep copy of the state.
func (st State) Clone() State {
	out := st
	out.TargetStock = maps.Clone(st.TargetStock)
	out.Counters = maps.Clone(st.Counters)
	out.ScannerIDs = slices.Clone(st.ScannerIDs)
	out.ArticleTypes = slices.Clone(st.ArticleTypes)
	out.Articles = slices.Clone(st.Articles)
	out.StorageSlots = cloneAll(st.StorageSlots, domain.StorageSlot.Clone)
	out.Sections = slices.Clone(st.Sections)
	out.Customers = slices.Clone(st.Customers)
	out.Employees = slices.Clone(st.Employees)
	out.Orders = cloneAll(st.Orders, domain.Order.Clone)
	out.SelfOrders = cloneAll(st.SelfOrders, domain.SelfOrder.Clone)
	out.Prices = cloneAll(st.Prices, domain.Prices.Clone)
	out.RetainedPrices = cloneAll(st.RetainedPrices, domain.Prices.Clone)
	out.PaymentTerms = cloneAll(st.PaymentTerms, domain.PaymentTerms.Clone)
	out.Bills = slices.Clone(st.Bills)
	if st.Company != nil {
		c := *st.Company
		out.Company = &c
	}
	return out
}

func cloneAll[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}
