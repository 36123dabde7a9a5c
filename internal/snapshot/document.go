// Package snapshot converts an instance into its flat, id-linked transfer
// document and rebuilds an instance from such a document, tolerating broken
// or missing references.
package snapshot

import (
	"time"

	"github.com/shopspring/decimal"

	"erpcore/pkg/domain"
)

// SchemaVersion is written into every document produced by Encode. Version 1
// documents lack counters and the price list and payment terms ids on bills.
const SchemaVersion = 2

// Extension is the file extension of the main snapshot document.
const Extension = ".erp.json"

// Document is the transfer representation of an instance. Every cross
// reference is a bare integer id.
type Document struct {
	SchemaVersion    int                  `json:"schema_version" jsonschema:"minimum=1"`
	Name             string               `json:"name"`
	OwnCapital       decimal.Decimal      `json:"own_capital"`
	OwnCapitalSet    bool                 `json:"own_capital_set"`
	TargetStock      map[int]int          `json:"target_stock,omitempty"`
	Counters         Counters             `json:"counters"`
	IssuedScannerIDs []int64              `json:"issued_scanner_ids,omitempty"`
	ArticleTypes     []ArticleTypeRecord  `json:"article_types"`
	Articles         []ArticleRecord      `json:"articles"`
	StorageSlots     []StorageSlotRecord  `json:"storage_slots"`
	Sections         []SectionRecord      `json:"sections"`
	Customers        []CustomerRecord     `json:"customers"`
	Employees        []EmployeeRecord     `json:"employees"`
	Orders           []OrderRecord        `json:"orders"`
	SelfOrders       []SelfOrderRecord    `json:"self_orders"`
	Prices           []PricesRecord       `json:"prices"`
	RetainedPrices   []PricesRecord       `json:"retained_prices,omitempty"`
	PaymentTerms     []PaymentTermsRecord `json:"payment_terms"`
	Bills            []BillRecord         `json:"bills"`
}

// Counters holds the last issued id of every entity type.
type Counters struct {
	ArticleType       int `json:"article_type"`
	Article           int `json:"article"`
	StorageSlot       int `json:"storage_slot"`
	Section           int `json:"section"`
	Customer          int `json:"customer"`
	Employee          int `json:"employee"`
	Order             int `json:"order"`
	SelfOrder         int `json:"self_order"`
	Prices            int `json:"prices"`
	PaymentTerms      int `json:"payment_terms"`
	Bill              int `json:"bill"`
	OrderItemSequence int `json:"order_item_sequence"`
}

func (c *Counters) fields() map[domain.EntityType]*int {
	return map[domain.EntityType]*int{
		domain.EntityArticleType:  &c.ArticleType,
		domain.EntityArticle:      &c.Article,
		domain.EntityStorageSlot:  &c.StorageSlot,
		domain.EntitySection:      &c.Section,
		domain.EntityCustomer:     &c.Customer,
		domain.EntityEmployee:     &c.Employee,
		domain.EntityOrder:        &c.Order,
		domain.EntitySelfOrder:    &c.SelfOrder,
		domain.EntityPrices:       &c.Prices,
		domain.EntityPaymentTerms: &c.PaymentTerms,
		domain.EntityBill:         &c.Bill,
	}
}

// ArticleTypeRecord is the transfer form of domain.ArticleType.
type ArticleTypeRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ArticleRecord is the transfer form of domain.Article.
type ArticleRecord struct {
	ID        int   `json:"id"`
	ScannerID int64 `json:"scanner_id"`
	TypeID    int   `json:"type_id"`
	Stock     int   `json:"stock"`
}

// StorageSlotRecord is the transfer form of domain.StorageSlot.
type StorageSlotRecord struct {
	ID         int    `json:"id"`
	Name       string `json:"name,omitempty"`
	ArticleIDs []int  `json:"article_ids"`
}

// SectionRecord is the transfer form of domain.Section.
type SectionRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CustomerRecord is the transfer form of domain.Customer.
type CustomerRecord struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

// EmployeeRecord is the transfer form of domain.Employee.
type EmployeeRecord struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	SectionID int    `json:"section_id"`
	Address   string `json:"address"`
	Contact   string `json:"contact"`
}

// OrderItemRecord is the transfer form of domain.OrderItem.
type OrderItemRecord struct {
	ID       int `json:"id"`
	TypeID   int `json:"type_id"`
	Quantity int `json:"quantity"`
}

// OrderRecord is the transfer form of domain.Order.
type OrderRecord struct {
	ID         int               `json:"id"`
	CustomerID int               `json:"customer_id"`
	Items      []OrderItemRecord `json:"items"`
	Status     string            `json:"status" jsonschema:"enum=Pending,enum=Completed,enum=Cancelled"`
}

// SelfOrderRecord is the transfer form of domain.SelfOrder.
type SelfOrderRecord struct {
	ID      int               `json:"id"`
	Pending []OrderItemRecord `json:"pending"`
	Arrived []OrderItemRecord `json:"arrived"`
	Status  string            `json:"status" jsonschema:"enum=Pending,enum=Completed,enum=Cancelled"`
}

// PricesRecord is the transfer form of domain.Prices. Unit prices are keyed
// by article type id.
type PricesRecord struct {
	ID         int                     `json:"id"`
	Name       string                  `json:"name,omitempty"`
	UnitPrices map[int]decimal.Decimal `json:"unit_prices"`
}

// PaymentTermsRecord is the transfer form of domain.PaymentTerms.
type PaymentTermsRecord struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	DaysUntilDue    int              `json:"days_until_due"`
	DiscountDays    *int             `json:"discount_days,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	PenaltyRate     *decimal.Decimal `json:"penalty_rate,omitempty"`
	AbsolutePenalty decimal.Decimal  `json:"absolute_penalty"`
}

// BillRecord is the transfer form of domain.Bill. The customer, price list and
// payment terms ids may be absent in older or hand-edited documents.
type BillRecord struct {
	ID             int             `json:"id"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	OrderID        int             `json:"order_id"`
	CustomerID     *int            `json:"customer_id,omitempty"`
	PaymentTermsID *int            `json:"payment_terms_id,omitempty"`
	PricesID       *int            `json:"prices_id,omitempty"`
	BillDate       time.Time       `json:"bill_date"`
}
