package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"

	"erpcore/internal/core"
	"erpcore/pkg/domain"
)

// ErrEmptyDocument is returned by Parse for empty input.
var ErrEmptyDocument = errors.New("snapshot: empty document")

// Encode flattens a state into its transfer document. Company data is left
// out; it belongs to the secrets document.
func Encode(st core.State) Document {
	doc := Document{
		SchemaVersion:    SchemaVersion,
		Name:             st.Name,
		OwnCapital:       st.OwnCapital,
		OwnCapitalSet:    st.OwnCapitalSet,
		TargetStock:      maps.Clone(st.TargetStock),
		IssuedScannerIDs: slices.Clone(st.ScannerIDs),
		ArticleTypes:     make([]ArticleTypeRecord, 0, len(st.ArticleTypes)),
		Articles:         make([]ArticleRecord, 0, len(st.Articles)),
		StorageSlots:     make([]StorageSlotRecord, 0, len(st.StorageSlots)),
		Sections:         make([]SectionRecord, 0, len(st.Sections)),
		Customers:        make([]CustomerRecord, 0, len(st.Customers)),
		Employees:        make([]EmployeeRecord, 0, len(st.Employees)),
		Orders:           make([]OrderRecord, 0, len(st.Orders)),
		SelfOrders:       make([]SelfOrderRecord, 0, len(st.SelfOrders)),
		Prices:           make([]PricesRecord, 0, len(st.Prices)),
		PaymentTerms:     make([]PaymentTermsRecord, 0, len(st.PaymentTerms)),
		Bills:            make([]BillRecord, 0, len(st.Bills)),
	}
	fields := doc.Counters.fields()
	for entity, last := range st.Counters {
		if f, ok := fields[entity]; ok {
			*f = last
		}
	}
	doc.Counters.OrderItemSequence = st.OrderItemSequence

	for _, t := range st.ArticleTypes {
		doc.ArticleTypes = append(doc.ArticleTypes, ArticleTypeRecord{ID: t.ID, Name: t.Name})
	}
	for _, a := range st.Articles {
		doc.Articles = append(doc.Articles, ArticleRecord{ID: a.ID, ScannerID: a.ScannerID, TypeID: a.TypeID, Stock: a.Stock})
	}
	for _, slot := range st.StorageSlots {
		ids := slices.Clone(slot.ArticleIDs)
		if ids == nil {
			ids = []int{}
		}
		doc.StorageSlots = append(doc.StorageSlots, StorageSlotRecord{ID: slot.ID, Name: slot.Name, ArticleIDs: ids})
	}
	for _, sec := range st.Sections {
		doc.Sections = append(doc.Sections, SectionRecord{ID: sec.ID, Name: sec.Name})
	}
	for _, c := range st.Customers {
		doc.Customers = append(doc.Customers, CustomerRecord{ID: c.ID, Name: c.Name, Address: c.Address, Contact: c.Contact})
	}
	for _, e := range st.Employees {
		doc.Employees = append(doc.Employees, EmployeeRecord{ID: e.ID, Name: e.Name, SectionID: e.SectionID, Address: e.Address, Contact: e.Contact})
	}
	for _, o := range st.Orders {
		doc.Orders = append(doc.Orders, OrderRecord{ID: o.ID, CustomerID: o.CustomerID, Items: encodeLines(o.Items), Status: string(o.Status)})
	}
	for _, so := range st.SelfOrders {
		doc.SelfOrders = append(doc.SelfOrders, SelfOrderRecord{
			ID:      so.ID,
			Pending: encodeLines(so.Pending),
			Arrived: encodeLines(so.Arrived),
			Status:  string(so.Status),
		})
	}
	for _, p := range st.Prices {
		doc.Prices = append(doc.Prices, encodePrices(p))
	}
	for _, p := range st.RetainedPrices {
		doc.RetainedPrices = append(doc.RetainedPrices, encodePrices(p))
	}
	for _, t := range st.PaymentTerms {
		t = t.Clone()
		doc.PaymentTerms = append(doc.PaymentTerms, PaymentTermsRecord{
			ID:              t.ID,
			Name:            t.Name,
			DaysUntilDue:    t.DaysUntilDue,
			DiscountDays:    t.DiscountDays,
			DiscountPercent: t.DiscountPercent,
			PenaltyRate:     t.PenaltyRate,
			AbsolutePenalty: t.AbsolutePenalty,
		})
	}
	for _, b := range st.Bills {
		doc.Bills = append(doc.Bills, BillRecord{
			ID:             b.ID,
			TotalPrice:     b.TotalPrice,
			OrderID:        b.OrderID,
			CustomerID:     intPtr(b.CustomerID),
			PaymentTermsID: intPtr(b.PaymentTermsID),
			PricesID:       intPtr(b.PricesID),
			BillDate:       b.BillDate,
		})
	}
	return doc
}

func encodeLines(lines []domain.OrderItem) []OrderItemRecord {
	out := make([]OrderItemRecord, 0, len(lines))
	for _, l := range lines {
		out = append(out, OrderItemRecord{ID: l.ID, TypeID: l.TypeID, Quantity: l.Quantity})
	}
	return out
}

func encodePrices(p domain.Prices) PricesRecord {
	unit := maps.Clone(p.UnitPrices)
	if unit == nil {
		unit = map[int]decimal.Decimal{}
	}
	return PricesRecord{ID: p.ID, Name: p.Name, UnitPrices: unit}
}

func intPtr(v int) *int { return &v }

// Marshal renders a document as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Parse decodes a document. Only structurally invalid input is an error;
// dangling references are left for Resolve.
func Parse(data []byte) (Document, error) {
	if len(data) == 0 {
		return Document{}, ErrEmptyDocument
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc, nil
}

// Load parses and resolves a document in one step.
func Load(data []byte, logger core.Logger) (core.State, Report, error) {
	doc, err := Parse(data)
	if err != nil {
		return core.State{}, Report{}, err
	}
	st, report := Resolve(doc, logger)
	return st, report, nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// Schema returns the JSON Schema of the main snapshot document.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == decimalType {
				return &jsonschema.Schema{
					Type:        "string",
					Pattern:     `^-?[0-9]+(\.[0-9]+)?$`,
					Description: "decimal number",
				}
			}
			return nil
		},
	}
	s := r.Reflect(&Document{})
	s.Title = "erpcore instance snapshot"
	return s
}
