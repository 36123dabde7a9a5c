package domain

// Arrive records a delivery of quantity units of typeID against the self-order.
//
// The matching pending line is decremented by the delivered amount, capped to
// what is still outstanding, and a new arrived line is appended with an id drawn
// from nextID. A pending line that reaches zero is removed and the self-order
// completes once no pending lines remain. The returned item is the arrived line.
// On error the self-order is left untouched.
func (s *SelfOrder) Arrive(typeID, quantity int, nextID func() int) (OrderItem, error) {
	if s.Status.Terminal() {
		return OrderItem{}, ErrTerminalStatus{Entity: EntitySelfOrder, ID: s.ID, Status: s.Status}
	}
	idx := s.pendingIndex(typeID)
	if idx < 0 {
		return OrderItem{}, ErrNoPendingLine{SelfOrderID: s.ID, TypeID: typeID}
	}
	if quantity <= 0 {
		return OrderItem{}, ErrInvalidQuantity{Quantity: quantity}
	}

	remaining := s.Pending[idx].Quantity
	delivered := min(quantity, remaining)

	s.Pending[idx].Quantity = remaining - delivered
	arrived := OrderItem{ID: nextID(), TypeID: typeID, Quantity: delivered}
	s.Arrived = append(s.Arrived, arrived)

	if s.Pending[idx].Quantity == 0 {
		s.Pending = append(s.Pending[:idx], s.Pending[idx+1:]...)
	}
	if len(s.Pending) == 0 {
		s.Status = StatusCompleted
	}
	return arrived, nil
}

// Cancel moves a pending self-order to Cancelled.
func (s *SelfOrder) Cancel() error {
	if s.Status.Terminal() {
		return ErrTerminalStatus{Entity: EntitySelfOrder, ID: s.ID, Status: s.Status}
	}
	s.Status = StatusCancelled
	return nil
}

func (s *SelfOrder) pendingIndex(typeID int) int {
	for i, line := range s.Pending {
		if line.TypeID == typeID {
			return i
		}
	}
	return -1
}

// Remaining returns the quantity of typeID still outstanding.
func (s SelfOrder) Remaining(typeID int) int {
	return sumType(s.Pending, typeID)
}

// Delivered returns the quantity of typeID that has arrived so far.
func (s SelfOrder) Delivered(typeID int) int {
	return sumType(s.Arrived, typeID)
}

// OrderedQuantities returns the originally ordered quantity per article type,
// which is always the sum of arrived and pending quantities.
func (s SelfOrder) OrderedQuantities() map[int]int {
	out := make(map[int]int, len(s.Pending)+len(s.Arrived))
	for _, line := range s.Arrived {
		out[line.TypeID] += line.Quantity
	}
	for _, line := range s.Pending {
		out[line.TypeID] += line.Quantity
	}
	return out
}

// Normalize reconciles the status with the pending list: a pending self-order
// without outstanding lines is completed, and a completed one that still has
// outstanding lines is reopened. It reports whether the status changed.
func (s *SelfOrder) Normalize() bool {
	switch {
	case s.Status == StatusPending && len(s.Pending) == 0:
		s.Status = StatusCompleted
		return true
	case s.Status == StatusCompleted && len(s.Pending) > 0:
		s.Status = StatusPending
		return true
	}
	return false
}

func sumType(lines []OrderItem, typeID int) int {
	total := 0
	for _, line := range lines {
		if line.TypeID == typeID {
			total += line.Quantity
		}
	}
	return total
}
