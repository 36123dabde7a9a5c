// Package domain defines the business records tracked by erpcore together with
// the pure rules that operate on a single record: the self-order fulfillment
// state machine, bill pricing and payment-term arithmetic.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the type of record stored in an instance.
type EntityType string

// Supported entity type identifiers used in errors, counters and reconciliation warnings.
const (
	// EntityArticleType identifies an article type (catalogue entry).
	EntityArticleType EntityType = "article_type"
	// EntityArticle identifies a stocked article.
	EntityArticle EntityType = "article"
	// EntityStorageSlot identifies a storage slot.
	EntityStorageSlot EntityType = "storage_slot"
	// EntityOrderItem identifies an order line shared by orders and self-orders.
	EntityOrderItem EntityType = "order_item"
	// EntityOrder identifies a customer order.
	EntityOrder EntityType = "order"
	// EntitySelfOrder identifies a replenishment order.
	EntitySelfOrder EntityType = "self_order"
	// EntityPrices identifies a price list.
	EntityPrices EntityType = "prices"
	// EntityPaymentTerms identifies a payment terms record.
	EntityPaymentTerms EntityType = "payment_terms"
	// EntityBill identifies a bill.
	EntityBill EntityType = "bill"
	// EntitySection identifies an organisational section.
	EntitySection EntityType = "section"
	// EntityEmployee identifies an employee.
	EntityEmployee EntityType = "employee"
	// EntityCustomer identifies a customer.
	EntityCustomer EntityType = "customer"
	// EntityCompany identifies the company singleton.
	EntityCompany EntityType = "company"
)

// CountedEntities lists the entity types that own a per-type id counter, in
// dependency order.
var CountedEntities = []EntityType{
	EntityArticleType,
	EntityArticle,
	EntityStorageSlot,
	EntitySection,
	EntityCustomer,
	EntityEmployee,
	EntityOrder,
	EntitySelfOrder,
	EntityPrices,
	EntityPaymentTerms,
	EntityBill,
}

// Status enumerates the lifecycle of orders and self-orders.
type Status string

// Order and self-order statuses. Completed and Cancelled are terminal.
const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// ArticleType is a catalogue entry that articles, order lines and price lists refer to.
type ArticleType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Article is a stocked unit of an ArticleType identified by a scanner code.
type Article struct {
	ID        int   `json:"id"`
	ScannerID int64 `json:"scanner_id"`
	TypeID    int   `json:"type_id"`
	Stock     int   `json:"stock"`
}

// StorageSlot lists the articles stored at one physical location.
type StorageSlot struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	ArticleIDs []int  `json:"article_ids"`
}

// Contains reports whether the slot lists the article.
func (s StorageSlot) Contains(articleID int) bool {
	for _, id := range s.ArticleIDs {
		if id == articleID {
			return true
		}
	}
	return false
}

// OrderItem is a quantity of an ArticleType on an order or self-order.
type OrderItem struct {
	ID       int `json:"id"`
	TypeID   int `json:"type_id"`
	Quantity int `json:"quantity"`
}

// Order is a customer order.
type Order struct {
	ID         int         `json:"id"`
	CustomerID int         `json:"customer_id"`
	Items      []OrderItem `json:"items"`
	Status     Status      `json:"status"`
}

// TypeIDs returns the distinct article types on the order in line order.
func (o Order) TypeIDs() []int {
	seen := make(map[int]struct{}, len(o.Items))
	out := make([]int, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.TypeID]; ok {
			continue
		}
		seen[item.TypeID] = struct{}{}
		out = append(out, item.TypeID)
	}
	return out
}

// SelfOrder is a replenishment order fulfilled incrementally via arrivals.
type SelfOrder struct {
	ID      int         `json:"id"`
	Pending []OrderItem `json:"pending"`
	Arrived []OrderItem `json:"arrived"`
	Status  Status      `json:"status"`
}

// Prices maps article types to unit prices.
type Prices struct {
	ID         int                     `json:"id"`
	Name       string                  `json:"name"`
	UnitPrices map[int]decimal.Decimal `json:"unit_prices"`
}

// PaymentTerms describes when a bill is due and how early payment or lateness
// changes the amount owed.
type PaymentTerms struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	DaysUntilDue    int              `json:"days_until_due"`
	DiscountDays    *int             `json:"discount_days,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	PenaltyRate     *decimal.Decimal `json:"penalty_rate,omitempty"`
	AbsolutePenalty decimal.Decimal  `json:"absolute_penalty"`
}

// UsingPenaltyRate reports whether lateness is charged as a rate rather than an absolute amount.
func (t PaymentTerms) UsingPenaltyRate() bool {
	return t.PenaltyRate != nil
}

// Bill is an invoice for an order priced against a price list at creation time.
type Bill struct {
	ID             int             `json:"id"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	OrderID        int             `json:"order_id"`
	CustomerID     int             `json:"customer_id"`
	PaymentTermsID int             `json:"payment_terms_id"`
	PricesID       int             `json:"prices_id"`
	BillDate       time.Time       `json:"bill_date"`
}

// Section is an organisational unit employees belong to.
type Section struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Employee is a member of staff assigned to a section.
type Employee struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	SectionID int    `json:"section_id"`
	Address   string `json:"address"`
	Contact   string `json:"contact"`
}

// Customer is a buyer referenced by orders and bills.
type Customer struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

// BankInfo holds the company's banking details.
type BankInfo struct {
	Name string `json:"name"`
	IBAN string `json:"iban"`
	BIC  string `json:"bic"`
}

// Company is the optional identity of the business owning an instance.
type Company struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Bank    BankInfo `json:"bank"`
}
