package domain

import "github.com/shopspring/decimal"

// CalculateOrderTotal sums unit price times quantity for every order line and
// rounds the result to two decimal places. Any line whose article type is not
// priced fails the whole calculation with ErrMissingPrice.
func CalculateOrderTotal(order Order, prices Prices) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range order.Items {
		unit, ok := prices.UnitPrices[item.TypeID]
		if !ok {
			return decimal.Decimal{}, ErrMissingPrice{PricesID: prices.ID, TypeID: item.TypeID}
		}
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2), nil
}

// Covers reports whether the price list holds a unit price for the article type.
func (p Prices) Covers(typeID int) bool {
	_, ok := p.UnitPrices[typeID]
	return ok
}

// Coverage counts how many of the given article types the price list prices.
func (p Prices) Coverage(typeIDs []int) int {
	n := 0
	for _, id := range typeIDs {
		if p.Covers(id) {
			n++
		}
	}
	return n
}
