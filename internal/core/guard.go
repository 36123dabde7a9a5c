package core

import "erpcore/pkg/domain"

// The guard functions run under the store lock before a delete and return
// domain.ErrReferenced naming the first dependent record found.

func referenced(entity domain.EntityType, id int, by domain.EntityType, byID int) error {
	return domain.ErrReferenced{Entity: entity, ID: id, By: by, ByID: byID}
}

func (s *Store) guardArticleType(id int) error {
	var err error
	s.articles.each(func(a *domain.Article) bool {
		if a.TypeID == id {
			err = referenced(domain.EntityArticleType, id, domain.EntityArticle, a.ID)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	s.orders.each(func(o *domain.Order) bool {
		if containsType(o.Items, id) {
			err = referenced(domain.EntityArticleType, id, domain.EntityOrder, o.ID)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	s.selfOrders.each(func(so *domain.SelfOrder) bool {
		if containsType(so.Pending, id) || containsType(so.Arrived, id) {
			err = referenced(domain.EntityArticleType, id, domain.EntitySelfOrder, so.ID)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	pricedBy := func(p *domain.Prices) bool {
		if p.Covers(id) {
			err = referenced(domain.EntityArticleType, id, domain.EntityPrices, p.ID)
		}
		return err == nil
	}
	s.prices.each(pricedBy)
	if err != nil {
		return err
	}
	s.retainedPrices.each(pricedBy)
	return err
}

func (s *Store) guardSection(id int) error {
	var err error
	s.employees.each(func(e *domain.Employee) bool {
		if e.SectionID == id {
			err = referenced(domain.EntitySection, id, domain.EntityEmployee, e.ID)
		}
		return err == nil
	})
	return err
}

func (s *Store) guardCustomer(id int) error {
	var err error
	s.orders.each(func(o *domain.Order) bool {
		if o.CustomerID == id {
			err = referenced(domain.EntityCustomer, id, domain.EntityOrder, o.ID)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	s.bills.each(func(b *domain.Bill) bool {
		if b.CustomerID == id {
			err = referenced(domain.EntityCustomer, id, domain.EntityBill, b.ID)
		}
		return err == nil
	})
	return err
}

func (s *Store) guardOrder(id int) error {
	var err error
	s.bills.each(func(b *domain.Bill) bool {
		if b.OrderID == id {
			err = referenced(domain.EntityOrder, id, domain.EntityBill, b.ID)
		}
		return err == nil
	})
	return err
}

func (s *Store) guardPaymentTerms(id int) error {
	var err error
	s.bills.each(func(b *domain.Bill) bool {
		if b.PaymentTermsID == id {
			err = referenced(domain.EntityPaymentTerms, id, domain.EntityBill, b.ID)
		}
		return err == nil
	})
	return err
}

// billsUsingPrices reports whether any bill was priced against the price list.
func (s *Store) billsUsingPrices(id int) bool {
	found := false
	s.bills.each(func(b *domain.Bill) bool {
		found = b.PricesID == id
		return !found
	})
	return found
}

func containsType(lines []domain.OrderItem, typeID int) bool {
	for _, line := range lines {
		if line.TypeID == typeID {
			return true
		}
	}
	return false
}
