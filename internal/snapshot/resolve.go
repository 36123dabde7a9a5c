package snapshot

import (
	"fmt"

	"github.com/shopspring/decimal"

	"erpcore/internal/core"
	"erpcore/pkg/domain"
)

type idSet map[int]struct{}

func (s idSet) has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) add(id int) { s[id] = struct{}{} }

func (s idSet) max() int {
	highest := 0
	for id := range s {
		highest = max(highest, id)
	}
	return highest
}

type resolver struct {
	doc    Document
	logger core.Logger
	st     core.State
	report Report

	typeIDs     idSet
	articleIDs  idSet
	slotIDs     idSet
	sectionIDs  idSet
	customerIDs idSet
	employeeIDs idSet
	orderIDs    idSet
	selfIDs     idSet
	priceIDs    idSet
	termIDs     idSet
	billIDs     idSet

	orders   map[int]domain.Order
	scanners *core.ScannerRegistry
	maxLine  int

	standardTermsID     *int
	synthesizedPricesID *int
}

// Resolve rebuilds a consistent state from a document. Records whose
// references cannot be resolved are skipped, and bills missing their payment
// terms or price list receive a deterministic substitute. Every skip and
// substitution is logged and collected in the report; Resolve itself never
// fails.
func Resolve(doc Document, logger core.Logger) (core.State, Report) {
	if logger == nil {
		logger = core.NoopLogger()
	}
	r := &resolver{
		doc:         doc,
		logger:      logger,
		typeIDs:     idSet{},
		articleIDs:  idSet{},
		slotIDs:     idSet{},
		sectionIDs:  idSet{},
		customerIDs: idSet{},
		employeeIDs: idSet{},
		orderIDs:    idSet{},
		selfIDs:     idSet{},
		priceIDs:    idSet{},
		termIDs:     idSet{},
		billIDs:     idSet{},
		orders:      make(map[int]domain.Order),
		scanners:    core.NewScannerRegistry(nil),
	}
	r.st = core.State{
		Name:           doc.Name,
		OwnCapital:     doc.OwnCapital,
		OwnCapitalSet:  doc.OwnCapitalSet,
		TargetStock:    make(map[int]int),
		Counters:       make(map[domain.EntityType]int),
		ArticleTypes:   []domain.ArticleType{},
		Articles:       []domain.Article{},
		StorageSlots:   []domain.StorageSlot{},
		Sections:       []domain.Section{},
		Customers:      []domain.Customer{},
		Employees:      []domain.Employee{},
		Orders:         []domain.Order{},
		SelfOrders:     []domain.SelfOrder{},
		Prices:         []domain.Prices{},
		RetainedPrices: []domain.Prices{},
		PaymentTerms:   []domain.PaymentTerms{},
		Bills:          []domain.Bill{},
	}

	if doc.SchemaVersion > SchemaVersion {
		r.warn("", 0, RuleUnsupportedVersion, "document schema version %d is newer than %d", doc.SchemaVersion, SchemaVersion)
	}
	r.articleTypes()
	r.articles()
	r.storageSlots()
	r.sections()
	r.customers()
	r.employees()
	r.customerOrders()
	r.selfOrders()
	r.priceLists()
	r.paymentTerms()
	r.bills()
	r.targetStock()
	r.counters()
	return r.st, r.report
}

func (r *resolver) warn(entity domain.EntityType, id int, rule Rule, format string, args ...any) {
	w := Warning{Entity: entity, ID: id, Rule: rule, Message: fmt.Sprintf(format, args...)}
	r.report.Warnings = append(r.report.Warnings, w)
	r.logger.Warn("snapshot reconciliation", "entity", string(entity), "id", id, "rule", string(rule), "detail", w.Message)
}

// admit reports whether a record id is usable: non-negative and not already
// taken by an earlier record of the same type.
func (r *resolver) admit(entity domain.EntityType, id int, seen idSet) bool {
	if id < 0 {
		r.warn(entity, id, RuleInvalidID, "negative id, record skipped")
		return false
	}
	if seen.has(id) {
		r.warn(entity, id, RuleDuplicateID, "duplicate id, later record skipped")
		return false
	}
	return true
}

func (r *resolver) articleTypes() {
	for _, rec := range r.doc.ArticleTypes {
		if !r.admit(domain.EntityArticleType, rec.ID, r.typeIDs) {
			continue
		}
		r.typeIDs.add(rec.ID)
		r.st.ArticleTypes = append(r.st.ArticleTypes, domain.ArticleType{ID: rec.ID, Name: rec.Name})
	}
}

func (r *resolver) articles() {
	for _, id := range r.doc.IssuedScannerIDs {
		r.scanners.Reserve(id)
	}
	for _, rec := range r.doc.Articles {
		if rec.ScannerID > 0 {
			r.scanners.Reserve(rec.ScannerID)
		}
	}

	seenScanner := make(map[int64]struct{}, len(r.doc.Articles))
	for _, rec := range r.doc.Articles {
		if !r.admit(domain.EntityArticle, rec.ID, r.articleIDs) {
			continue
		}
		if !r.typeIDs.has(rec.TypeID) {
			r.warn(domain.EntityArticle, rec.ID, RuleUnknownReference, "article type %d not found, article skipped", rec.TypeID)
			continue
		}
		article := domain.Article{ID: rec.ID, ScannerID: rec.ScannerID, TypeID: rec.TypeID, Stock: rec.Stock}
		if article.Stock < 0 {
			r.warn(domain.EntityArticle, rec.ID, RuleClampedValue, "negative stock %d set to 0", rec.Stock)
			article.Stock = 0
		}
		if _, dup := seenScanner[article.ScannerID]; dup || article.ScannerID <= 0 {
			article.ScannerID = r.scanners.Issue()
			r.warn(domain.EntityArticle, rec.ID, RuleScannerReassigned, "scanner id %d unusable, assigned %d", rec.ScannerID, article.ScannerID)
		}
		seenScanner[article.ScannerID] = struct{}{}
		r.articleIDs.add(rec.ID)
		r.st.Articles = append(r.st.Articles, article)
	}
	r.st.ScannerIDs = r.scanners.Issued()
}

func (r *resolver) storageSlots() {
	for _, rec := range r.doc.StorageSlots {
		if !r.admit(domain.EntityStorageSlot, rec.ID, r.slotIDs) {
			continue
		}
		slot := domain.StorageSlot{ID: rec.ID, Name: rec.Name, ArticleIDs: make([]int, 0, len(rec.ArticleIDs))}
		for _, articleID := range rec.ArticleIDs {
			switch {
			case !r.articleIDs.has(articleID):
				r.warn(domain.EntityStorageSlot, rec.ID, RuleUnknownReference, "article %d not found, membership skipped", articleID)
			case slot.Contains(articleID):
				r.warn(domain.EntityStorageSlot, rec.ID, RuleDuplicateID, "article %d listed twice", articleID)
			default:
				slot.ArticleIDs = append(slot.ArticleIDs, articleID)
			}
		}
		r.slotIDs.add(rec.ID)
		r.st.StorageSlots = append(r.st.StorageSlots, slot)
	}
}

func (r *resolver) sections() {
	for _, rec := range r.doc.Sections {
		if !r.admit(domain.EntitySection, rec.ID, r.sectionIDs) {
			continue
		}
		r.sectionIDs.add(rec.ID)
		r.st.Sections = append(r.st.Sections, domain.Section{ID: rec.ID, Name: rec.Name})
	}
}

func (r *resolver) customers() {
	for _, rec := range r.doc.Customers {
		if !r.admit(domain.EntityCustomer, rec.ID, r.customerIDs) {
			continue
		}
		r.customerIDs.add(rec.ID)
		r.st.Customers = append(r.st.Customers, domain.Customer{ID: rec.ID, Name: rec.Name, Address: rec.Address, Contact: rec.Contact})
	}
}

func (r *resolver) employees() {
	for _, rec := range r.doc.Employees {
		if !r.admit(domain.EntityEmployee, rec.ID, r.employeeIDs) {
			continue
		}
		if !r.sectionIDs.has(rec.SectionID) {
			r.warn(domain.EntityEmployee, rec.ID, RuleUnknownReference, "section %d not found, employee skipped", rec.SectionID)
			continue
		}
		r.employeeIDs.add(rec.ID)
		r.st.Employees = append(r.st.Employees, domain.Employee{
			ID: rec.ID, Name: rec.Name, SectionID: rec.SectionID, Address: rec.Address, Contact: rec.Contact,
		})
	}
}

// lines converts order lines, skipping lines of unknown article types and
// lines without a positive quantity.
func (r *resolver) lines(entity domain.EntityType, ownerID int, recs []OrderItemRecord) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(recs))
	for _, rec := range recs {
		switch {
		case !r.typeIDs.has(rec.TypeID):
			r.warn(entity, ownerID, RuleSkippedLine, "line %d: article type %d not found", rec.ID, rec.TypeID)
			continue
		case rec.Quantity <= 0:
			r.warn(entity, ownerID, RuleSkippedLine, "line %d: quantity %d is not positive", rec.ID, rec.Quantity)
			continue
		}
		r.maxLine = max(r.maxLine, rec.ID)
		out = append(out, domain.OrderItem{ID: rec.ID, TypeID: rec.TypeID, Quantity: rec.Quantity})
	}
	return out
}

func (r *resolver) customerOrders() {
	for _, rec := range r.doc.Orders {
		if !r.admit(domain.EntityOrder, rec.ID, r.orderIDs) {
			continue
		}
		if !r.customerIDs.has(rec.CustomerID) {
			r.warn(domain.EntityOrder, rec.ID, RuleUnknownReference, "customer %d not found, order skipped", rec.CustomerID)
			continue
		}
		order := domain.Order{
			ID:         rec.ID,
			CustomerID: rec.CustomerID,
			Items:      r.lines(domain.EntityOrder, rec.ID, rec.Items),
			Status:     domain.Status(rec.Status),
		}
		if !order.Status.Valid() {
			r.warn(domain.EntityOrder, rec.ID, RuleStatusNormalized, "unknown status %q set to %s", rec.Status, domain.StatusPending)
			order.Status = domain.StatusPending
		}
		r.orderIDs.add(rec.ID)
		r.orders[rec.ID] = order
		r.st.Orders = append(r.st.Orders, order)
	}
}

func (r *resolver) selfOrders() {
	for _, rec := range r.doc.SelfOrders {
		if !r.admit(domain.EntitySelfOrder, rec.ID, r.selfIDs) {
			continue
		}
		so := domain.SelfOrder{
			ID:      rec.ID,
			Pending: r.lines(domain.EntitySelfOrder, rec.ID, rec.Pending),
			Arrived: r.lines(domain.EntitySelfOrder, rec.ID, rec.Arrived),
			Status:  domain.Status(rec.Status),
		}
		if !so.Status.Valid() {
			so.Status = domain.StatusPending
			if len(so.Pending) == 0 {
				so.Status = domain.StatusCompleted
			}
			r.warn(domain.EntitySelfOrder, rec.ID, RuleStatusNormalized, "unknown status %q set to %s", rec.Status, so.Status)
		} else if before := so.Status; so.Normalize() {
			r.warn(domain.EntitySelfOrder, rec.ID, RuleStatusNormalized, "status %s disagrees with %d pending lines, set to %s", before, len(so.Pending), so.Status)
		}
		r.selfIDs.add(rec.ID)
		r.st.SelfOrders = append(r.st.SelfOrders, so)
	}
}

func (r *resolver) priceList(rec PricesRecord) domain.Prices {
	p := domain.Prices{ID: rec.ID, Name: rec.Name}
	p.UnitPrices = make(map[int]decimal.Decimal, len(rec.UnitPrices))
	for typeID, price := range rec.UnitPrices {
		if !r.typeIDs.has(typeID) {
			r.warn(domain.EntityPrices, rec.ID, RuleUnknownReference, "article type %d not found, price skipped", typeID)
			continue
		}
		p.UnitPrices[typeID] = price
	}
	return p
}

func (r *resolver) priceLists() {
	for _, rec := range r.doc.Prices {
		if !r.admit(domain.EntityPrices, rec.ID, r.priceIDs) {
			continue
		}
		r.priceIDs.add(rec.ID)
		r.st.Prices = append(r.st.Prices, r.priceList(rec))
	}
	for _, rec := range r.doc.RetainedPrices {
		if !r.admit(domain.EntityPrices, rec.ID, r.priceIDs) {
			continue
		}
		r.priceIDs.add(rec.ID)
		r.st.RetainedPrices = append(r.st.RetainedPrices, r.priceList(rec))
	}
}

func (r *resolver) paymentTerms() {
	for _, rec := range r.doc.PaymentTerms {
		if !r.admit(domain.EntityPaymentTerms, rec.ID, r.termIDs) {
			continue
		}
		terms := domain.PaymentTerms{
			ID:              rec.ID,
			Name:            rec.Name,
			DaysUntilDue:    rec.DaysUntilDue,
			DiscountDays:    rec.DiscountDays,
			DiscountPercent: rec.DiscountPercent,
			PenaltyRate:     rec.PenaltyRate,
			AbsolutePenalty: rec.AbsolutePenalty,
		}
		if terms.DaysUntilDue < 0 {
			r.warn(domain.EntityPaymentTerms, rec.ID, RuleClampedValue, "negative due period %d set to 0", rec.DaysUntilDue)
			terms.DaysUntilDue = 0
		}
		r.termIDs.add(rec.ID)
		r.st.PaymentTerms = append(r.st.PaymentTerms, terms.Clone())
	}
}

func (r *resolver) bills() {
	for _, rec := range r.doc.Bills {
		if !r.admit(domain.EntityBill, rec.ID, r.billIDs) {
			continue
		}
		order, ok := r.orders[rec.OrderID]
		if !ok {
			r.warn(domain.EntityBill, rec.ID, RuleBillDropped, "order %d not found", rec.OrderID)
			continue
		}
		customerID := order.CustomerID
		switch {
		case rec.CustomerID == nil:
			r.warn(domain.EntityBill, rec.ID, RuleCustomerFromOrder, "no customer id, using customer %d of order %d", customerID, order.ID)
		case *rec.CustomerID != customerID:
			r.warn(domain.EntityBill, rec.ID, RuleCustomerFromOrder, "customer %d differs from order %d, using customer %d", *rec.CustomerID, order.ID, customerID)
		}
		if !r.customerIDs.has(customerID) {
			r.warn(domain.EntityBill, rec.ID, RuleBillDropped, "customer %d not found", customerID)
			continue
		}

		bill := domain.Bill{
			ID:         rec.ID,
			TotalPrice: rec.TotalPrice,
			OrderID:    rec.OrderID,
			CustomerID: customerID,
			BillDate:   rec.BillDate,
		}
		if rec.PaymentTermsID != nil && r.termIDs.has(*rec.PaymentTermsID) {
			bill.PaymentTermsID = *rec.PaymentTermsID
		} else {
			bill.PaymentTermsID = r.standardTerms()
			r.warn(domain.EntityBill, rec.ID, RuleStandardTerms, "payment terms %s unresolved, using standard terms %d", describeRef(rec.PaymentTermsID), bill.PaymentTermsID)
		}
		if rec.PricesID != nil && r.priceIDs.has(*rec.PricesID) {
			bill.PricesID = *rec.PricesID
		} else {
			id, rule := r.fallbackPrices(order)
			bill.PricesID = id
			r.warn(domain.EntityBill, rec.ID, rule, "prices %s unresolved, using prices %d", describeRef(rec.PricesID), id)
		}
		r.billIDs.add(rec.ID)
		r.st.Bills = append(r.st.Bills, bill)
	}
}

func describeRef(id *int) string {
	if id == nil {
		return "missing"
	}
	return fmt.Sprintf("%d", *id)
}

func (r *resolver) targetStock() {
	for typeID, qty := range r.doc.TargetStock {
		switch {
		case !r.typeIDs.has(typeID):
			r.warn(domain.EntityArticleType, typeID, RuleUnknownReference, "target stock for unknown article type skipped")
		case qty <= 0:
			r.warn(domain.EntityArticleType, typeID, RuleClampedValue, "non-positive target stock %d skipped", qty)
		default:
			r.st.TargetStock[typeID] = qty
		}
	}
}

// counters restores the per-type counters and raises any that lag behind the
// highest id actually loaded, so that new records never collide.
func (r *resolver) counters() {
	loaded := map[domain.EntityType]idSet{
		domain.EntityArticleType:  r.typeIDs,
		domain.EntityArticle:      r.articleIDs,
		domain.EntityStorageSlot:  r.slotIDs,
		domain.EntitySection:      r.sectionIDs,
		domain.EntityCustomer:     r.customerIDs,
		domain.EntityEmployee:     r.employeeIDs,
		domain.EntityOrder:        r.orderIDs,
		domain.EntitySelfOrder:    r.selfIDs,
		domain.EntityPrices:       r.priceIDs,
		domain.EntityPaymentTerms: r.termIDs,
		domain.EntityBill:         r.billIDs,
	}
	counters := r.doc.Counters
	fields := counters.fields()
	versioned := r.doc.SchemaVersion >= 2
	for _, entity := range domain.CountedEntities {
		value := *fields[entity]
		if highest := loaded[entity].max(); highest > value {
			if versioned {
				r.warn(entity, highest, RuleCounterRaised, "counter %d raised to %d", value, highest)
			}
			value = highest
		}
		if value > 0 {
			r.st.Counters[entity] = value
		}
	}
	r.st.OrderItemSequence = max(counters.OrderItemSequence, r.maxLine)
}
