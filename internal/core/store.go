// Package core holds the live entity store of an instance: the collections,
// the id sequencing, the integrity guard and the lifecycle operations that keep
// every cross-reference valid.
package core

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"erpcore/pkg/domain"
)

// Store is the authoritative in-memory graph of one instance. Records are owned
// by their collection and refer to each other by id. All methods are safe for
// concurrent use; every mutation runs under one coarse lock.
type Store struct {
	mu sync.RWMutex

	name          string
	ownCapital    decimal.Decimal
	ownCapitalSet bool
	targetStock   map[int]int
	company       *domain.Company

	seq           *Sequencer
	orderItems    *OrderItemSequence
	scanners      *ScannerRegistry
	scannerSource ScannerSource

	articleTypes   *collection[domain.ArticleType]
	articles       *collection[domain.Article]
	slots          *collection[domain.StorageSlot]
	sections       *collection[domain.Section]
	customers      *collection[domain.Customer]
	employees      *collection[domain.Employee]
	orders         *collection[domain.Order]
	selfOrders     *collection[domain.SelfOrder]
	prices         *collection[domain.Prices]
	retainedPrices *collection[domain.Prices]
	terms          *collection[domain.PaymentTerms]
	bills          *collection[domain.Bill]

	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	clock   Clock
}

// NewStore returns an empty instance named name.
func NewStore(name string, opts ...Option) *Store {
	s := &Store{
		name:        name,
		targetStock: make(map[int]int),
		seq:         NewSequencer(),
		logger:      noopLogger{},
		metrics:     noopMetricsRecorder{},
		tracer:      noopTracer{},
		clock:       systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.orderItems == nil {
		s.orderItems = NewOrderItemSequence(0)
	}
	s.scanners = NewScannerRegistry(s.scannerSource)
	s.resetCollections()
	return s
}

// NewStoreFromState returns a store holding a copy of st.
func NewStoreFromState(st State, opts ...Option) *Store {
	s := NewStore(st.Name, opts...)
	s.ImportState(st)
	return s
}

func (s *Store) resetCollections() {
	s.articleTypes = newCollection(func(v domain.ArticleType) int { return v.ID }, nil)
	s.articles = newCollection(func(v domain.Article) int { return v.ID }, nil)
	s.slots = newCollection(func(v domain.StorageSlot) int { return v.ID }, domain.StorageSlot.Clone)
	s.sections = newCollection(func(v domain.Section) int { return v.ID }, nil)
	s.customers = newCollection(func(v domain.Customer) int { return v.ID }, nil)
	s.employees = newCollection(func(v domain.Employee) int { return v.ID }, nil)
	s.orders = newCollection(func(v domain.Order) int { return v.ID }, domain.Order.Clone)
	s.selfOrders = newCollection(func(v domain.SelfOrder) int { return v.ID }, domain.SelfOrder.Clone)
	s.prices = newCollection(func(v domain.Prices) int { return v.ID }, domain.Prices.Clone)
	s.retainedPrices = newCollection(func(v domain.Prices) int { return v.ID }, domain.Prices.Clone)
	s.terms = newCollection(func(v domain.PaymentTerms) int { return v.ID }, domain.PaymentTerms.Clone)
	s.bills = newCollection(func(v domain.Bill) int { return v.ID }, nil)
}

// run executes a mutation under the write lock and reports it to the tracer,
// the metrics recorder and the logger.
func (s *Store) run(operation string, fn func() error) error {
	ctx, span := s.tracer.Start(context.Background(), operation)
	start := time.Now()

	s.mu.Lock()
	err := fn()
	instance := s.name
	s.mu.Unlock()

	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	if err != nil {
		s.logger.Warn("store operation rejected", "operation", operation, "instance", instance, "error", err)
		return err
	}
	s.logger.Debug("store operation applied", "operation", operation, "instance", instance)
	return nil
}

func (s *Store) now() time.Time {
	return s.clock.Now()
}

// OrderItemSequence exposes the order-line sequence so that another store may share it.
func (s *Store) OrderItemSequence() *OrderItemSequence {
	return s.orderItems
}

// Name returns the instance display name.
func (s *Store) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// Rename changes the instance display name.
func (s *Store) Rename(name string) error {
	return s.run("rename", func() error {
		if name == "" {
			return domain.ErrInvalidValue{Field: "name", Reason: "must not be empty"}
		}
		s.name = name
		return nil
	})
}

// SetOwnCapital records the instance's own capital and marks it as explicitly set.
func (s *Store) SetOwnCapital(amount decimal.Decimal) error {
	return s.run("set_own_capital", func() error {
		s.ownCapital = amount
		s.ownCapitalSet = true
		return nil
	})
}

// OwnCapital returns the own capital and whether it was explicitly set.
func (s *Store) OwnCapital() (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownCapital, s.ownCapitalSet
}

// SetTargetStock records the desired stock level for an article type. A zero
// quantity removes the target.
func (s *Store) SetTargetStock(typeID, quantity int) error {
	return s.run("set_target_stock", func() error {
		if !s.articleTypes.has(typeID) {
			return domain.ErrNotFound{Entity: domain.EntityArticleType, ID: typeID}
		}
		if quantity < 0 {
			return domain.ErrInvalidQuantity{Quantity: quantity}
		}
		if quantity == 0 {
			delete(s.targetStock, typeID)
			return nil
		}
		s.targetStock[typeID] = quantity
		return nil
	})
}

// TargetStock returns a copy of the desired stock levels keyed by article type.
func (s *Store) TargetStock() map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.targetStock)
}

// SetCompany replaces the company identity. A nil company clears it.
func (s *Store) SetCompany(company *domain.Company) {
	_ = s.run("set_company", func() error {
		if company == nil {
			s.company = nil
			return nil
		}
		c := *company
		s.company = &c
		return nil
	})
}

// Company returns a copy of the company identity, if any.
func (s *Store) Company() (domain.Company, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.company == nil {
		return domain.Company{}, false
	}
	return *s.company, true
}

// ExportState returns a detached copy of the whole instance.
func (s *Store) ExportState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{
		Name:              s.name,
		OwnCapital:        s.ownCapital,
		OwnCapitalSet:     s.ownCapitalSet,
		TargetStock:       maps.Clone(s.targetStock),
		Counters:          s.seq.Counters(),
		OrderItemSequence: s.orderItems.Last(),
		ScannerIDs:        s.scanners.Issued(),
		ArticleTypes:      s.articleTypes.values(),
		Articles:          s.articles.values(),
		StorageSlots:      s.slots.values(),
		Sections:          s.sections.values(),
		Customers:         s.customers.values(),
		Employees:         s.employees.values(),
		Orders:            s.orders.values(),
		SelfOrders:        s.selfOrders.values(),
		Prices:            s.prices.values(),
		RetainedPrices:    s.retainedPrices.values(),
		PaymentTerms:      s.terms.values(),
		Bills:             s.bills.values(),
	}
	if s.company != nil {
		c := *s.company
		st.Company = &c
	}
	return st
}

// ImportState replaces the store contents with st. The state is expected to
// be referentially consistent, as produced by ExportState or the snapshot
// resolver. Counters are raised to cover every imported id.
func (s *Store) ImportState(st State) {
	_ = s.run("import_state", func() error {
		s.name = st.Name
		s.ownCapital = st.OwnCapital
		s.ownCapitalSet = st.OwnCapitalSet
		s.targetStock = maps.Clone(st.TargetStock)
		if s.targetStock == nil {
			s.targetStock = make(map[int]int)
		}
		s.company = nil
		if st.Company != nil {
			c := *st.Company
			s.company = &c
		}

		s.resetCollections()
		insertAll(s.articleTypes, st.ArticleTypes)
		insertAll(s.articles, st.Articles)
		insertAll(s.slots, st.StorageSlots)
		insertAll(s.sections, st.Sections)
		insertAll(s.customers, st.Customers)
		insertAll(s.employees, st.Employees)
		insertAll(s.orders, st.Orders)
		insertAll(s.selfOrders, st.SelfOrders)
		insertAll(s.prices, st.Prices)
		insertAll(s.retainedPrices, st.RetainedPrices)
		insertAll(s.terms, st.PaymentTerms)
		insertAll(s.bills, st.Bills)

		s.seq = NewSequencer()
		for entity, last := range st.Counters {
			s.seq.Raise(entity, last)
		}
		s.raiseCounters()
		s.orderItems.Raise(st.OrderItemSequence)
		s.orderItems.Raise(s.maxOrderItemID())

		s.scanners = NewScannerRegistry(s.scannerSource)
		for _, id := range st.ScannerIDs {
			s.scanners.Reserve(id)
		}
		s.articles.each(func(a *domain.Article) bool {
			s.scanners.Reserve(a.ScannerID)
			return true
		})
		return nil
	})
}

func insertAll[T any](c *collection[T], values []T) {
	for _, v := range values {
		c.insert(v)
	}
}

func (s *Store) raiseCounters() {
	s.seq.Raise(domain.EntityArticleType, s.articleTypes.maxID())
	s.seq.Raise(domain.EntityArticle, s.articles.maxID())
	s.seq.Raise(domain.EntityStorageSlot, s.slots.maxID())
	s.seq.Raise(domain.EntitySection, s.sections.maxID())
	s.seq.Raise(domain.EntityCustomer, s.customers.maxID())
	s.seq.Raise(domain.EntityEmployee, s.employees.maxID())
	s.seq.Raise(domain.EntityOrder, s.orders.maxID())
	s.seq.Raise(domain.EntitySelfOrder, s.selfOrders.maxID())
	s.seq.Raise(domain.EntityPrices, max(s.prices.maxID(), s.retainedPrices.maxID()))
	s.seq.Raise(domain.EntityPaymentTerms, s.terms.maxID())
	s.seq.Raise(domain.EntityBill, s.bills.maxID())
}

func (s *Store) maxOrderItemID() int {
	highest := 0
	s.orders.each(func(o *domain.Order) bool {
		for _, item := range o.Items {
			highest = max(highest, item.ID)
		}
		return true
	})
	s.selfOrders.each(func(so *domain.SelfOrder) bool {
		for _, item := range so.Pending {
			highest = max(highest, item.ID)
		}
		for _, item := range so.Arrived {
			highest = max(highest, item.ID)
		}
		return true
	})
	return highest
}

// Counts returns the number of records per entity type.
func (s *Store) Counts() map[domain.EntityType]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[domain.EntityType]int{
		domain.EntityArticleType:  s.articleTypes.len(),
		domain.EntityArticle:      s.articles.len(),
		domain.EntityStorageSlot:  s.slots.len(),
		domain.EntitySection:      s.sections.len(),
		domain.EntityCustomer:     s.customers.len(),
		domain.EntityEmployee:     s.employees.len(),
		domain.EntityOrder:        s.orders.len(),
		domain.EntitySelfOrder:    s.selfOrders.len(),
		domain.EntityPrices:       s.prices.len(),
		domain.EntityPaymentTerms: s.terms.len(),
		domain.EntityBill:         s.bills.len(),
	}
}

func (s *Store) String() string {
	return fmt.Sprintf("store(%s)", s.Name())
}
