package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StandardDueDays is the due period of the synthesized default payment terms.
const StandardDueDays = 30

// StandardTermsName names the synthesized default payment terms.
const StandardTermsName = "Standard"

var hundred = decimal.NewFromInt(100)

// DuePeriod is either an explicit number of days or a calendar date that is
// converted into a number of days when the payment terms are created.
type DuePeriod struct {
	days  int
	date  time.Time
	isDay bool
}

// DueInDays returns a due period of n days after the bill date.
func DueInDays(n int) DuePeriod {
	return DuePeriod{days: n, isDay: true}
}

// DueOn returns a due period ending on the given date.
func DueOn(date time.Time) DuePeriod {
	return DuePeriod{date: date}
}

// Days resolves the period to a day count relative to today.
func (p DuePeriod) Days(today time.Time) (int, error) {
	if p.isDay {
		if p.days < 0 {
			return 0, ErrInvalidValue{Field: "days_until_due", Reason: "must not be negative"}
		}
		return p.days, nil
	}
	if p.date.IsZero() {
		return 0, ErrInvalidValue{Field: "days_until_due", Reason: "no due period given"}
	}
	days := calendarDays(today, p.date)
	if days < 0 {
		return 0, ErrDueDateInPast
	}
	return days, nil
}

func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// PaymentTermsInput carries the caller-supplied fields of new payment terms.
type PaymentTermsInput struct {
	Name            string
	Due             DuePeriod
	DiscountDays    *int
	DiscountPercent *decimal.Decimal
	PenaltyRate     *decimal.Decimal
	AbsolutePenalty decimal.Decimal
}

// Build validates the input and resolves it into PaymentTerms with the given id.
func (in PaymentTermsInput) Build(id int, today time.Time) (PaymentTerms, error) {
	days, err := in.Due.Days(today)
	if err != nil {
		return PaymentTerms{}, err
	}
	if (in.DiscountDays == nil) != (in.DiscountPercent == nil) {
		return PaymentTerms{}, ErrInvalidValue{Field: "discount", Reason: "days and percent must be given together"}
	}
	if in.DiscountDays != nil {
		if *in.DiscountDays < 0 || *in.DiscountDays > days {
			return PaymentTerms{}, ErrInvalidValue{Field: "discount_days", Reason: "must lie within the due period"}
		}
		if in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred) {
			return PaymentTerms{}, ErrInvalidValue{Field: "discount_percent", Reason: "must be between 0 and 100"}
		}
	}
	if in.PenaltyRate != nil && in.PenaltyRate.IsNegative() {
		return PaymentTerms{}, ErrInvalidValue{Field: "penalty_rate", Reason: "must not be negative"}
	}
	if in.AbsolutePenalty.IsNegative() {
		return PaymentTerms{}, ErrInvalidValue{Field: "absolute_penalty", Reason: "must not be negative"}
	}
	return PaymentTerms{
		ID:              id,
		Name:            in.Name,
		DaysUntilDue:    days,
		DiscountDays:    cloneInt(in.DiscountDays),
		DiscountPercent: cloneDecimal(in.DiscountPercent),
		PenaltyRate:     cloneDecimal(in.PenaltyRate),
		AbsolutePenalty: in.AbsolutePenalty,
	}, nil
}

// StandardTerms returns the default terms used when a bill's terms cannot be resolved.
func StandardTerms(id int) PaymentTerms {
	return PaymentTerms{ID: id, Name: StandardTermsName, DaysUntilDue: StandardDueDays, AbsolutePenalty: decimal.Zero}
}

// AmountDue returns what is owed on a bill of the given total when it is paid
// on paidOn. Payment within the discount window earns the discount; payment
// after the due date adds the penalty rate as a percentage of the total, or the
// absolute penalty when no rate is set.
func (t PaymentTerms) AmountDue(total decimal.Decimal, billDate, paidOn time.Time) decimal.Decimal {
	elapsed := calendarDays(billDate, paidOn)
	switch {
	case t.DiscountDays != nil && t.DiscountPercent != nil && elapsed <= *t.DiscountDays:
		factor := hundred.Sub(*t.DiscountPercent).Div(hundred)
		return total.Mul(factor).Round(2)
	case elapsed > t.DaysUntilDue && t.UsingPenaltyRate():
		return total.Add(total.Mul(*t.PenaltyRate).Div(hundred)).Round(2)
	case elapsed > t.DaysUntilDue:
		return total.Add(t.AbsolutePenalty).Round(2)
	default:
		return total
	}
}

// DueDate returns the day payment of the bill falls due under the terms.
func (b Bill) DueDate(terms PaymentTerms) time.Time {
	return b.BillDate.AddDate(0, 0, terms.DaysUntilDue)
}

// DiscountDeadline returns the last day the early-payment discount applies.
func (b Bill) DiscountDeadline(terms PaymentTerms) (time.Time, bool) {
	if terms.DiscountDays == nil {
		return time.Time{}, false
	}
	return b.BillDate.AddDate(0, 0, *terms.DiscountDays), true
}
