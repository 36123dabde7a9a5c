package core

import (
	"slices"

	"erpcore/pkg/domain"
)

// NewArticleType creates a catalogue entry.
func (s *Store) NewArticleType(name string) (domain.ArticleType, error) {
	var created domain.ArticleType
	err := s.run("new_article_type", func() error {
		if name == "" {
			return domain.ErrInvalidValue{Field: "name", Reason: "must not be empty"}
		}
		created = domain.ArticleType{ID: s.seq.Next(domain.EntityArticleType), Name: name}
		s.articleTypes.insert(created)
		return nil
	})
	return created, err
}

// DeleteArticleType removes an article type nothing refers to any more.
func (s *Store) DeleteArticleType(id int) error {
	return s.run("delete_article_type", func() error {
		if !s.articleTypes.has(id) {
			return domain.ErrNotFound{Entity: domain.EntityArticleType, ID: id}
		}
		if err := s.guardArticleType(id); err != nil {
			return err
		}
		s.articleTypes.remove(id)
		delete(s.targetStock, id)
		return nil
	})
}

// FindArticleType looks up an article type by id.
func (s *Store) FindArticleType(id int) (domain.ArticleType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.articleTypes.get(id)
}

// ListArticleTypes returns all article types in creation order.
func (s *Store) ListArticleTypes() []domain.ArticleType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.articleTypes.values()
}

// NewArticle creates an article of the given type with a fresh scanner id.
func (s *Store) NewArticle(typeID, stock int) (domain.Article, error) {
	var created domain.Article
	err := s.run("new_article", func() error {
		if !s.articleTypes.has(typeID) {
			return domain.ErrNotFound{Entity: domain.EntityArticleType, ID: typeID}
		}
		if stock < 0 {
			return domain.ErrInvalidQuantity{Quantity: stock}
		}
		created = domain.Article{
			ID:        s.seq.Next(domain.EntityArticle),
			ScannerID: s.scanners.Issue(),
			TypeID:    typeID,
			Stock:     stock,
		}
		s.articles.insert(created)
		return nil
	})
	return created, err
}

// DeleteArticle removes an article and purges it from every storage slot.
func (s *Store) DeleteArticle(id int) error {
	return s.run("delete_article", func() error {
		if _, ok := s.articles.remove(id); !ok {
			return domain.ErrNotFound{Entity: domain.EntityArticle, ID: id}
		}
		s.slots.each(func(slot *domain.StorageSlot) bool {
			slot.ArticleIDs = slices.DeleteFunc(slot.ArticleIDs, func(a int) bool { return a == id })
			return true
		})
		return nil
	})
}

// FindArticle looks up an article by id.
func (s *Store) FindArticle(id int) (domain.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.articles.get(id)
}

// FindArticleByScanner looks up an article by its scanner id.
func (s *Store) FindArticleByScanner(scannerID int64) (domain.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found domain.Article
	ok := false
	s.articles.each(func(a *domain.Article) bool {
		if a.ScannerID == scannerID {
			found, ok = *a, true
		}
		return !ok
	})
	return found, ok
}

// ListArticles returns all articles in creation order.
func (s *Store) ListArticles() []domain.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.articles.values()
}

// Restock adds amount units to an article.
func (s *Store) Restock(articleID, amount int) (domain.Article, error) {
	var updated domain.Article
	err := s.run("restock", func() error {
		article := s.articles.ref(articleID)
		if article == nil {
			return domain.ErrNotFound{Entity: domain.EntityArticle, ID: articleID}
		}
		if amount <= 0 {
			return domain.ErrInvalidQuantity{Quantity: amount}
		}
		article.Stock += amount
		updated = *article
		return nil
	})
	return updated, err
}

// Withdraw removes amount units from an article. Withdrawing more than is in
// stock is rejected and leaves the article unchanged.
func (s *Store) Withdraw(articleID, amount int) (domain.Article, error) {
	var updated domain.Article
	err := s.run("withdraw", func() error {
		article := s.articles.ref(articleID)
		if article == nil {
			return domain.ErrNotFound{Entity: domain.EntityArticle, ID: articleID}
		}
		if amount <= 0 {
			return domain.ErrInvalidQuantity{Quantity: amount}
		}
		if amount > article.Stock {
			return domain.ErrInsufficientStock{ArticleID: articleID, Stock: article.Stock, Requested: amount}
		}
		article.Stock -= amount
		updated = *article
		return nil
	})
	return updated, err
}

// NewStorageSlot creates an empty storage slot.
func (s *Store) NewStorageSlot(name string) (domain.StorageSlot, error) {
	var created domain.StorageSlot
	err := s.run("new_storage_slot", func() error {
		created = domain.StorageSlot{ID: s.seq.Next(domain.EntityStorageSlot), Name: name, ArticleIDs: []int{}}
		s.slots.insert(created)
		return nil
	})
	return created, err
}

// DeleteStorageSlot removes a storage slot. Its articles are not affected.
func (s *Store) DeleteStorageSlot(id int) error {
	return s.run("delete_storage_slot", func() error {
		if _, ok := s.slots.remove(id); !ok {
			return domain.ErrNotFound{Entity: domain.EntityStorageSlot, ID: id}
		}
		return nil
	})
}

// FindStorageSlot looks up a storage slot by id.
func (s *Store) FindStorageSlot(id int) (domain.StorageSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots.get(id)
}

// ListStorageSlots returns all storage slots in creation order.
func (s *Store) ListStorageSlots() []domain.StorageSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots.values()
}

// SlotsOf returns the ids of every slot listing the article.
func (s *Store) SlotsOf(articleID int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []int
	s.slots.each(func(slot *domain.StorageSlot) bool {
		if slot.Contains(articleID) {
			ids = append(ids, slot.ID)
		}
		return true
	})
	return ids
}

// SortArticle lists the article in the slot. An article may live in several
// slots; sorting it into a slot that already lists it changes nothing.
func (s *Store) SortArticle(articleID, slotID int) error {
	return s.run("sort_article", func() error {
		if !s.articles.has(articleID) {
			return domain.ErrNotFound{Entity: domain.EntityArticle, ID: articleID}
		}
		slot := s.slots.ref(slotID)
		if slot == nil {
			return domain.ErrNotFound{Entity: domain.EntityStorageSlot, ID: slotID}
		}
		if !slot.Contains(articleID) {
			slot.ArticleIDs = append(slot.ArticleIDs, articleID)
		}
		return nil
	})
}

// UnsortArticle removes the article from the slot.
func (s *Store) UnsortArticle(articleID, slotID int) error {
	return s.run("unsort_article", func() error {
		slot := s.slots.ref(slotID)
		if slot == nil {
			return domain.ErrNotFound{Entity: domain.EntityStorageSlot, ID: slotID}
		}
		if !slot.Contains(articleID) {
			return domain.ErrNotFound{Entity: domain.EntityArticle, ID: articleID}
		}
		slot.ArticleIDs = slices.DeleteFunc(slot.ArticleIDs, func(a int) bool { return a == articleID })
		return nil
	})
}

// StockLevel summarizes one article type for reordering.
type StockLevel struct {
	TypeID    int
	TypeName  string
	InStock   int
	Inbound   int
	Target    int
	Shortfall int
}

// StockReport lists every article type with its stock on hand, the quantity
// still pending on open self-orders, the target and the remaining shortfall.
func (s *Store) StockReport() []StockLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inStock := make(map[int]int)
	s.articles.each(func(a *domain.Article) bool {
		inStock[a.TypeID] += a.Stock
		return true
	})
	inbound := make(map[int]int)
	s.selfOrders.each(func(so *domain.SelfOrder) bool {
		if so.Status == domain.StatusPending {
			for _, line := range so.Pending {
				inbound[line.TypeID] += line.Quantity
			}
		}
		return true
	})

	report := make([]StockLevel, 0, s.articleTypes.len())
	s.articleTypes.each(func(t *domain.ArticleType) bool {
		level := StockLevel{
			TypeID:   t.ID,
			TypeName: t.Name,
			InStock:  inStock[t.ID],
			Inbound:  inbound[t.ID],
			Target:   s.targetStock[t.ID],
		}
		level.Shortfall = max(0, level.Target-level.InStock-level.Inbound)
		report = append(report, level)
		return true
	})
	return report
}

// ReorderSuggestions returns one self-order line per article type whose stock
// and inbound quantity fall short of its target. The lines carry no ids; pass
// them to NewSelfOrder to place the order.
func (s *Store) ReorderSuggestions() []domain.OrderItem {
	var lines []domain.OrderItem
	for _, level := range s.StockReport() {
		if level.Shortfall > 0 {
			lines = append(lines, domain.OrderItem{TypeID: level.TypeID, Quantity: level.Shortfall})
		}
	}
	return lines
}
