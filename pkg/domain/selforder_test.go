package domain

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func counter() func() int {
	next := 0
	return func() int {
		next++
		return next
	}
}

func TestSelfOrderArriveCompletesAfterFullDelivery(t *testing.T) {
	so := SelfOrder{ID: 1, Status: StatusPending, Pending: []OrderItem{{ID: 1, TypeID: 7, Quantity: 200}}}
	ids := counter()

	if _, err := so.Arrive(7, 60, ids); err != nil {
		t.Fatalf("first arrival: %v", err)
	}
	if so.Status != StatusPending {
		t.Fatalf("expected pending after partial arrival, got %s", so.Status)
	}
	if got := so.Remaining(7); got != 140 {
		t.Fatalf("expected 140 remaining, got %d", got)
	}

	if _, err := so.Arrive(7, 140, ids); err != nil {
		t.Fatalf("second arrival: %v", err)
	}
	if so.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", so.Status)
	}
	if len(so.Pending) != 0 {
		t.Fatalf("expected empty pending list, got %+v", so.Pending)
	}
	if got := so.Delivered(7); got != 200 {
		t.Fatalf("expected 200 delivered, got %d", got)
	}
	if len(so.Arrived) != 2 || so.Arrived[0].ID == so.Arrived[1].ID {
		t.Fatalf("expected two arrived lines with distinct ids, got %+v", so.Arrived)
	}
}

func TestSelfOrderArriveCapsToRemaining(t *testing.T) {
	so := SelfOrder{ID: 2, Status: StatusPending, Pending: []OrderItem{
		{ID: 1, TypeID: 1, Quantity: 10},
		{ID: 2, TypeID: 2, Quantity: 5},
	}}
	item, err := so.Arrive(2, 50, counter())
	if err != nil {
		t.Fatalf("arrive: %v", err)
	}
	if item.Quantity != 5 {
		t.Fatalf("expected capped quantity 5, got %d", item.Quantity)
	}
	if so.Remaining(2) != 0 || len(so.Pending) != 1 {
		t.Fatalf("expected type 2 line removed, pending %+v", so.Pending)
	}
	if so.Status != StatusPending {
		t.Fatalf("expected still pending, got %s", so.Status)
	}
}

func TestSelfOrderArriveRejections(t *testing.T) {
	base := func() SelfOrder {
		return SelfOrder{ID: 3, Status: StatusPending, Pending: []OrderItem{{ID: 1, TypeID: 1, Quantity: 4}}}
	}
	cases := []struct {
		name   string
		mutate func(*SelfOrder)
		typeID int
		qty    int
		check  func(error) bool
	}{
		{"unknown type", nil, 9, 1, func(err error) bool { var e ErrNoPendingLine; return errors.As(err, &e) }},
		{"zero quantity", nil, 1, 0, func(err error) bool { var e ErrInvalidQuantity; return errors.As(err, &e) }},
		{"negative quantity", nil, 1, -3, func(err error) bool { var e ErrInvalidQuantity; return errors.As(err, &e) }},
		{"cancelled", func(s *SelfOrder) { s.Status = StatusCancelled }, 1, 1, func(err error) bool { var e ErrTerminalStatus; return errors.As(err, &e) }},
		{"completed", func(s *SelfOrder) { s.Status = StatusCompleted }, 1, 1, func(err error) bool { var e ErrTerminalStatus; return errors.As(err, &e) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			so := base()
			if tc.mutate != nil {
				tc.mutate(&so)
			}
			before := so.Clone()
			_, err := so.Arrive(tc.typeID, tc.qty, counter())
			if err == nil || !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
			if so.Remaining(1) != before.Remaining(1) || len(so.Arrived) != 0 || so.Status != before.Status {
				t.Fatalf("state changed on rejection: %+v", so)
			}
		})
	}
}

func TestSelfOrderConservationUnderRandomArrivals(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	for round := 0; round < 200; round++ {
		so := SelfOrder{ID: round + 1, Status: StatusPending}
		ordered := map[int]int{}
		lines := 1 + rng.IntN(4)
		for i := 0; i < lines; i++ {
			qty := 1 + rng.IntN(300)
			so.Pending = append(so.Pending, OrderItem{ID: i + 1, TypeID: i + 1, Quantity: qty})
			ordered[i+1] = qty
		}
		ids := counter()
		for step := 0; step < 60 && so.Status == StatusPending; step++ {
			typeID := 1 + rng.IntN(lines+1)
			qty := rng.IntN(120) - 10
			_, _ = so.Arrive(typeID, qty, ids)
			for tid, want := range ordered {
				if got := so.Delivered(tid) + so.Remaining(tid); got != want {
					t.Fatalf("round %d step %d: type %d arrived+pending=%d, ordered %d", round, step, tid, got, want)
				}
				if so.Remaining(tid) < 0 {
					t.Fatalf("round %d: negative remaining for type %d", round, tid)
				}
			}
			if (len(so.Pending) == 0) != (so.Status == StatusCompleted) {
				t.Fatalf("round %d: status %s with %d pending lines", round, so.Status, len(so.Pending))
			}
		}
	}
}

func TestSelfOrderNormalize(t *testing.T) {
	so := SelfOrder{Status: StatusPending}
	if !so.Normalize() || so.Status != StatusCompleted {
		t.Fatalf("expected empty pending order to complete, got %s", so.Status)
	}
	so = SelfOrder{Status: StatusCompleted, Pending: []OrderItem{{TypeID: 1, Quantity: 1}}}
	if !so.Normalize() || so.Status != StatusPending {
		t.Fatalf("expected reopened order, got %s", so.Status)
	}
	so = SelfOrder{Status: StatusCancelled, Pending: []OrderItem{{TypeID: 1, Quantity: 1}}}
	if so.Normalize() {
		t.Fatalf("cancelled orders must not be normalized")
	}
}
