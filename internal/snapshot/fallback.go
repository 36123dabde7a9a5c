package snapshot

import (
	"github.com/shopspring/decimal"

	"erpcore/pkg/domain"
)

// FallbackPricesName names the empty price list synthesized for bills when a
// document carries no price list at all.
const FallbackPricesName = "Fallback"

// freeID prefers the reserved id 0 and otherwise takes the next id above every
// id in use.
func freeID(used idSet) int {
	if !used.has(0) {
		return 0
	}
	return used.max() + 1
}

// standardTerms returns the id of the standard payment terms shared by every
// bill whose terms could not be resolved, creating them on first use.
func (r *resolver) standardTerms() int {
	if r.standardTermsID != nil {
		return *r.standardTermsID
	}
	id := freeID(r.termIDs)
	r.termIDs.add(id)
	r.st.PaymentTerms = append(r.st.PaymentTerms, domain.StandardTerms(id))
	r.standardTermsID = &id
	return id
}

// fallbackPrices picks a price list for a bill whose own list is gone. The
// only live list wins outright; otherwise the list covering most of the
// order's article types wins, ties going to the lowest id. Without any live
// list an empty one is synthesized once and retained for bills only.
func (r *resolver) fallbackPrices(order domain.Order) (int, Rule) {
	switch len(r.st.Prices) {
	case 0:
		return r.synthesizedPrices(), RuleSynthesizedPrices
	case 1:
		return r.st.Prices[0].ID, RuleSinglePrices
	}
	types := order.TypeIDs()
	best, bestCoverage := -1, -1
	for _, p := range r.st.Prices {
		coverage := p.Coverage(types)
		if coverage > bestCoverage || (coverage == bestCoverage && p.ID < best) {
			best, bestCoverage = p.ID, coverage
		}
	}
	return best, RuleBestCoverage
}

func (r *resolver) synthesizedPrices() int {
	if r.synthesizedPricesID != nil {
		return *r.synthesizedPricesID
	}
	id := freeID(r.priceIDs)
	r.priceIDs.add(id)
	r.st.RetainedPrices = append(r.st.RetainedPrices, domain.Prices{
		ID:         id,
		Name:       FallbackPricesName,
		UnitPrices: map[int]decimal.Decimal{},
	})
	r.synthesizedPricesID = &id
	return id
}
