package domain

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// Clone returns a deep copy of the storage slot.
func (s StorageSlot) Clone() StorageSlot {
	s.ArticleIDs = slices.Clone(s.ArticleIDs)
	return s
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	o.Items = slices.Clone(o.Items)
	return o
}

// Clone returns a deep copy of the self-order.
func (s SelfOrder) Clone() SelfOrder {
	s.Pending = slices.Clone(s.Pending)
	s.Arrived = slices.Clone(s.Arrived)
	return s
}

// Clone returns a deep copy of the price list.
func (p Prices) Clone() Prices {
	p.UnitPrices = maps.Clone(p.UnitPrices)
	if p.UnitPrices == nil {
		p.UnitPrices = map[int]decimal.Decimal{}
	}
	return p
}

// Clone returns a deep copy of the payment terms.
func (t PaymentTerms) Clone() PaymentTerms {
	t.DiscountDays = cloneInt(t.DiscountDays)
	t.DiscountPercent = cloneDecimal(t.DiscountPercent)
	t.PenaltyRate = cloneDecimal(t.PenaltyRate)
	return t
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneDecimal(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
