package core

import "erpcore/pkg/domain"

// NewSelfOrder places a pending replenishment order.
func (s *Store) NewSelfOrder(items []domain.OrderItem) (domain.SelfOrder, error) {
	var created domain.SelfOrder
	err := s.run("new_self_order", func() error {
		lines, err := s.prepareLines(items)
		if err != nil {
			return err
		}
		created = domain.SelfOrder{
			ID:      s.seq.Next(domain.EntitySelfOrder),
			Pending: lines,
			Arrived: []domain.OrderItem{},
			Status:  domain.StatusPending,
		}
		s.selfOrders.insert(created)
		return nil
	})
	return created, err
}

// Arrive books a delivery against a self-order. Quantities beyond what is
// still pending for the type are capped.
func (s *Store) Arrive(selfOrderID, typeID, quantity int) (domain.OrderItem, error) {
	var arrived domain.OrderItem
	err := s.run("arrive", func() error {
		so := s.selfOrders.ref(selfOrderID)
		if so == nil {
			return domain.ErrNotFound{Entity: domain.EntitySelfOrder, ID: selfOrderID}
		}
		var err error
		arrived, err = so.Arrive(typeID, quantity, s.orderItems.Next)
		if err != nil {
			return err
		}
		if arrived.Quantity < quantity {
			s.logger.Info("arrival capped to pending quantity",
				"self_order_id", selfOrderID, "type_id", typeID, "requested", quantity, "delivered", arrived.Quantity)
		}
		if so.Status == domain.StatusCompleted {
			s.logger.Info("self order completed", "self_order_id", selfOrderID)
		}
		return nil
	})
	return arrived, err
}

// CancelSelfOrder moves a pending self-order to Cancelled.
func (s *Store) CancelSelfOrder(id int) (domain.SelfOrder, error) {
	var updated domain.SelfOrder
	err := s.run("cancel_self_order", func() error {
		so := s.selfOrders.ref(id)
		if so == nil {
			return domain.ErrNotFound{Entity: domain.EntitySelfOrder, ID: id}
		}
		if err := so.Cancel(); err != nil {
			return err
		}
		updated = so.Clone()
		return nil
	})
	return updated, err
}

// DeleteSelfOrder removes a self-order.
func (s *Store) DeleteSelfOrder(id int) error {
	return s.run("delete_self_order", func() error {
		if _, ok := s.selfOrders.remove(id); !ok {
			return domain.ErrNotFound{Entity: domain.EntitySelfOrder, ID: id}
		}
		return nil
	})
}

// FindSelfOrder looks up a self-order by id.
func (s *Store) FindSelfOrder(id int) (domain.SelfOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selfOrders.get(id)
}

// ListSelfOrders returns all self-orders in creation order.
func (s *Store) ListSelfOrders() []domain.SelfOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selfOrders.values()
}
