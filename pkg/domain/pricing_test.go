package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateOrderTotal(t *testing.T) {
	prices := Prices{ID: 4, UnitPrices: map[int]decimal.Decimal{1: dec("2.345"), 2: dec("10")}}
	order := Order{ID: 1, Items: []OrderItem{{TypeID: 1, Quantity: 3}, {TypeID: 2, Quantity: 2}}}

	total, err := CalculateOrderTotal(order, prices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 7.035 + 20 rounds half away from zero.
	if !total.Equal(dec("27.04")) {
		t.Fatalf("expected 27.04, got %s", total)
	}
}

func TestCalculateOrderTotalMissingPrice(t *testing.T) {
	prices := Prices{ID: 4, UnitPrices: map[int]decimal.Decimal{1: dec("1")}}
	order := Order{Items: []OrderItem{{TypeID: 1, Quantity: 1}, {TypeID: 3, Quantity: 1}}}
	_, err := CalculateOrderTotal(order, prices)
	var missing ErrMissingPrice
	if !errors.As(err, &missing) || missing.TypeID != 3 || missing.PricesID != 4 {
		t.Fatalf("expected missing price for type 3, got %v", err)
	}
}

func TestPricesCoverage(t *testing.T) {
	prices := Prices{UnitPrices: map[int]decimal.Decimal{1: dec("1"), 2: dec("1")}}
	if got := prices.Coverage([]int{1, 2, 3}); got != 2 {
		t.Fatalf("expected coverage 2, got %d", got)
	}
}

func TestDuePeriodDays(t *testing.T) {
	today := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	if d, err := DueInDays(14).Days(today); err != nil || d != 14 {
		t.Fatalf("expected 14 days, got %d %v", d, err)
	}
	if d, err := DueOn(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)).Days(today); err != nil || d != 30 {
		t.Fatalf("expected 30 days, got %d %v", d, err)
	}
	if _, err := DueOn(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)).Days(today); !errors.Is(err, ErrDueDateInPast) {
		t.Fatalf("expected past due date error, got %v", err)
	}
	if _, err := DueInDays(-1).Days(today); err == nil {
		t.Fatalf("expected negative day count to fail")
	}
}

func TestPaymentTermsAmountDue(t *testing.T) {
	discountDays := 10
	discount := dec("2")
	rate := dec("5")
	terms := PaymentTerms{DaysUntilDue: 30, DiscountDays: &discountDays, DiscountPercent: &discount, PenaltyRate: &rate}
	billDate := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	total := dec("100")

	if got := terms.AmountDue(total, billDate, billDate.AddDate(0, 0, 5)); !got.Equal(dec("98")) {
		t.Fatalf("expected discounted 98, got %s", got)
	}
	if got := terms.AmountDue(total, billDate, billDate.AddDate(0, 0, 20)); !got.Equal(total) {
		t.Fatalf("expected full amount, got %s", got)
	}
	if got := terms.AmountDue(total, billDate, billDate.AddDate(0, 0, 31)); !got.Equal(dec("105")) {
		t.Fatalf("expected penalty rate applied, got %s", got)
	}

	absolute := PaymentTerms{DaysUntilDue: 30, AbsolutePenalty: dec("7.50")}
	if got := absolute.AmountDue(total, billDate, billDate.AddDate(0, 0, 40)); !got.Equal(dec("107.5")) {
		t.Fatalf("expected absolute penalty, got %s", got)
	}

	bill := Bill{BillDate: billDate}
	if due := bill.DueDate(terms); !due.Equal(billDate.AddDate(0, 0, 30)) {
		t.Fatalf("unexpected due date %s", due)
	}
	if deadline, ok := bill.DiscountDeadline(terms); !ok || !deadline.Equal(billDate.AddDate(0, 0, 10)) {
		t.Fatalf("unexpected discount deadline %s", deadline)
	}
}

func TestPaymentTermsInputBuild(t *testing.T) {
	today := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	days := 5
	if _, err := (PaymentTermsInput{Due: DueInDays(30), DiscountDays: &days}).Build(1, today); err == nil {
		t.Fatalf("expected discount days without percent to fail")
	}
	tooLong := 40
	pct := dec("3")
	if _, err := (PaymentTermsInput{Due: DueInDays(30), DiscountDays: &tooLong, DiscountPercent: &pct}).Build(1, today); err == nil {
		t.Fatalf("expected discount window beyond due period to fail")
	}
	terms, err := (PaymentTermsInput{Name: "Net 14", Due: DueOn(today.AddDate(0, 0, 14))}).Build(3, today)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if terms.ID != 3 || terms.DaysUntilDue != 14 || terms.UsingPenaltyRate() {
		t.Fatalf("unexpected terms %+v", terms)
	}
}
