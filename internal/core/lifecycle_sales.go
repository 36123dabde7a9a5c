package core

import (
	"fmt"

	"github.com/shopspring/decimal"

	"erpcore/pkg/domain"
)

// NewOrderItem creates an order line with an id from the shared order-line
// sequence. The line is not stored until it is placed on an order.
func (s *Store) NewOrderItem(typeID, quantity int) (domain.OrderItem, error) {
	var created domain.OrderItem
	err := s.run("new_order_item", func() error {
		if err := s.validateLine(domain.OrderItem{TypeID: typeID, Quantity: quantity}); err != nil {
			return err
		}
		created = domain.OrderItem{ID: s.orderItems.Next(), TypeID: typeID, Quantity: quantity}
		return nil
	})
	return created, err
}

func (s *Store) validateLine(item domain.OrderItem) error {
	if !s.articleTypes.has(item.TypeID) {
		return domain.ErrNotFound{Entity: domain.EntityArticleType, ID: item.TypeID}
	}
	if item.Quantity <= 0 {
		return domain.ErrInvalidQuantity{Quantity: item.Quantity}
	}
	return nil
}

// prepareLines validates order lines and assigns sequence ids to lines that
// have none.
func (s *Store) prepareLines(items []domain.OrderItem) ([]domain.OrderItem, error) {
	if len(items) == 0 {
		return nil, domain.ErrInvalidValue{Field: "items", Reason: "must not be empty"}
	}
	for _, item := range items {
		if err := s.validateLine(item); err != nil {
			return nil, err
		}
	}
	lines := make([]domain.OrderItem, len(items))
	for i, item := range items {
		if item.ID == 0 {
			item.ID = s.orderItems.Next()
		}
		lines[i] = item
	}
	return lines, nil
}

// NewOrder places a pending customer order.
func (s *Store) NewOrder(customerID int, items []domain.OrderItem) (domain.Order, error) {
	var created domain.Order
	err := s.run("new_order", func() error {
		if !s.customers.has(customerID) {
			return domain.ErrNotFound{Entity: domain.EntityCustomer, ID: customerID}
		}
		lines, err := s.prepareLines(items)
		if err != nil {
			return err
		}
		created = domain.Order{
			ID:         s.seq.Next(domain.EntityOrder),
			CustomerID: customerID,
			Items:      lines,
			Status:     domain.StatusPending,
		}
		s.orders.insert(created)
		return nil
	})
	return created, err
}

// DeleteOrder removes an order no bill refers to.
func (s *Store) DeleteOrder(id int) error {
	return s.run("delete_order", func() error {
		if !s.orders.has(id) {
			return domain.ErrNotFound{Entity: domain.EntityOrder, ID: id}
		}
		if err := s.guardOrder(id); err != nil {
			return err
		}
		s.orders.remove(id)
		return nil
	})
}

// CompleteOrder moves a pending order to Completed.
func (s *Store) CompleteOrder(id int) (domain.Order, error) {
	return s.transitionOrder("complete_order", id, domain.StatusCompleted)
}

// CancelOrder moves a pending order to Cancelled.
func (s *Store) CancelOrder(id int) (domain.Order, error) {
	return s.transitionOrder("cancel_order", id, domain.StatusCancelled)
}

func (s *Store) transitionOrder(operation string, id int, to domain.Status) (domain.Order, error) {
	var updated domain.Order
	err := s.run(operation, func() error {
		order := s.orders.ref(id)
		if order == nil {
			return domain.ErrNotFound{Entity: domain.EntityOrder, ID: id}
		}
		if order.Status.Terminal() {
			return domain.ErrTerminalStatus{Entity: domain.EntityOrder, ID: id, Status: order.Status}
		}
		order.Status = to
		updated = order.Clone()
		return nil
	})
	return updated, err
}

// FindOrder looks up an order by id.
func (s *Store) FindOrder(id int) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders.get(id)
}

// ListOrders returns all orders in creation order.
func (s *Store) ListOrders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders.values()
}

// NewPrices creates a price list. Every key must name an existing article type.
func (s *Store) NewPrices(name string, unitPrices map[int]decimal.Decimal) (domain.Prices, error) {
	var created domain.Prices
	err := s.run("new_prices", func() error {
		for typeID, price := range unitPrices {
			if err := s.validatePrice(typeID, price); err != nil {
				return err
			}
		}
		created = domain.Prices{ID: s.seq.Next(domain.EntityPrices), Name: name, UnitPrices: unitPrices}.Clone()
		s.prices.insert(created)
		return nil
	})
	return created, err
}

func (s *Store) validatePrice(typeID int, price decimal.Decimal) error {
	if !s.articleTypes.has(typeID) {
		return domain.ErrNotFound{Entity: domain.EntityArticleType, ID: typeID}
	}
	if price.IsNegative() {
		return domain.ErrInvalidValue{Field: "unit_price", Reason: fmt.Sprintf("%s is negative", price)}
	}
	return nil
}

// SetUnitPrice changes one entry of a live price list. Existing bills keep the
// total they were created with.
func (s *Store) SetUnitPrice(pricesID, typeID int, price decimal.Decimal) (domain.Prices, error) {
	var updated domain.Prices
	err := s.run("set_unit_price", func() error {
		prices := s.prices.ref(pricesID)
		if prices == nil {
			return domain.ErrNotFound{Entity: domain.EntityPrices, ID: pricesID}
		}
		if err := s.validatePrice(typeID, price); err != nil {
			return err
		}
		if prices.UnitPrices == nil {
			prices.UnitPrices = make(map[int]decimal.Decimal)
		}
		prices.UnitPrices[typeID] = price
		updated = prices.Clone()
		return nil
	})
	return updated, err
}

// DeletePrices removes a live price list. A price list that bills were priced
// against moves to the retained set so those bills keep their pricing basis.
func (s *Store) DeletePrices(id int) error {
	return s.run("delete_prices", func() error {
		removed, ok := s.prices.remove(id)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityPrices, ID: id}
		}
		if s.billsUsingPrices(id) {
			s.retainedPrices.insert(removed)
			s.logger.Info("price list retained for bills", "prices_id", id)
		}
		return nil
	})
}

// FindPrices looks up a live price list by id.
func (s *Store) FindPrices(id int) (domain.Prices, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices.get(id)
}

// ListPrices returns all live price lists in creation order.
func (s *Store) ListPrices() []domain.Prices {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices.values()
}

// ListRetainedPrices returns deleted price lists kept alive by bills.
func (s *Store) ListRetainedPrices() []domain.Prices {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retainedPrices.values()
}

// NewPaymentTerms creates payment terms, resolving a due date against the
// store clock.
func (s *Store) NewPaymentTerms(input domain.PaymentTermsInput) (domain.PaymentTerms, error) {
	var created domain.PaymentTerms
	err := s.run("new_payment_terms", func() error {
		terms, err := input.Build(s.seq.Last(domain.EntityPaymentTerms)+1, s.now())
		if err != nil {
			return err
		}
		s.seq.Next(domain.EntityPaymentTerms)
		created = terms
		s.terms.insert(created)
		return nil
	})
	return created, err
}

// DeletePaymentTerms removes payment terms no bill refers to.
func (s *Store) DeletePaymentTerms(id int) error {
	return s.run("delete_payment_terms", func() error {
		if !s.terms.has(id) {
			return domain.ErrNotFound{Entity: domain.EntityPaymentTerms, ID: id}
		}
		if err := s.guardPaymentTerms(id); err != nil {
			return err
		}
		s.terms.remove(id)
		return nil
	})
}

// FindPaymentTerms looks up payment terms by id.
func (s *Store) FindPaymentTerms(id int) (domain.PaymentTerms, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms.get(id)
}

// ListPaymentTerms returns all payment terms in creation order.
func (s *Store) ListPaymentTerms() []domain.PaymentTerms {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.terms.values()
}

// NewBill prices an order against a live price list and records the bill. If
// any order line is not priced the bill is not created.
func (s *Store) NewBill(orderID, pricesID, termsID int) (domain.Bill, error) {
	var created domain.Bill
	err := s.run("new_bill", func() error {
		order, ok := s.orders.get(orderID)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityOrder, ID: orderID}
		}
		if order.Status == domain.StatusCancelled {
			return domain.ErrTerminalStatus{Entity: domain.EntityOrder, ID: orderID, Status: order.Status}
		}
		prices, ok := s.prices.get(pricesID)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityPrices, ID: pricesID}
		}
		if !s.terms.has(termsID) {
			return domain.ErrNotFound{Entity: domain.EntityPaymentTerms, ID: termsID}
		}
		total, err := domain.CalculateOrderTotal(order, prices)
		if err != nil {
			return fmt.Errorf("bill for order %d: %w", orderID, err)
		}
		created = domain.Bill{
			ID:             s.seq.Next(domain.EntityBill),
			TotalPrice:     total,
			OrderID:        orderID,
			CustomerID:     order.CustomerID,
			PaymentTermsID: termsID,
			PricesID:       pricesID,
			BillDate:       s.now(),
		}
		s.bills.insert(created)
		return nil
	})
	return created, err
}

// DeleteBill removes a bill and drops its retained price list once no other
// bill needs it.
func (s *Store) DeleteBill(id int) error {
	return s.run("delete_bill", func() error {
		removed, ok := s.bills.remove(id)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityBill, ID: id}
		}
		if s.retainedPrices.has(removed.PricesID) && !s.billsUsingPrices(removed.PricesID) {
			s.retainedPrices.remove(removed.PricesID)
		}
		return nil
	})
}

// FindBill looks up a bill by id.
func (s *Store) FindBill(id int) (domain.Bill, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bills.get(id)
}

// ListBills returns all bills in creation order.
func (s *Store) ListBills() []domain.Bill {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bills.values()
}

// BillPrices returns the price list a bill was priced against, live or retained.
func (s *Store) BillPrices(billID int) (domain.Prices, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bill, ok := s.bills.get(billID)
	if !ok {
		return domain.Prices{}, false
	}
	if p, ok := s.prices.get(bill.PricesID); ok {
		return p, true
	}
	return s.retainedPrices.get(bill.PricesID)
}
