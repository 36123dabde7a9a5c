package core

import "erpcore/pkg/domain"

// NewSection creates an organisational section.
func (s *Store) NewSection(name string) (domain.Section, error) {
	var created domain.Section
	err := s.run("new_section", func() error {
		if name == "" {
			return domain.ErrInvalidValue{Field: "name", Reason: "must not be empty"}
		}
		created = domain.Section{ID: s.seq.Next(domain.EntitySection), Name: name}
		s.sections.insert(created)
		return nil
	})
	return created, err
}

// DeleteSection removes a section no employee belongs to.
func (s *Store) DeleteSection(id int) error {
	return s.run("delete_section", func() error {
		if !s.sections.has(id) {
			return domain.ErrNotFound{Entity: domain.EntitySection, ID: id}
		}
		if err := s.guardSection(id); err != nil {
			return err
		}
		s.sections.remove(id)
		return nil
	})
}

// FindSection looks up a section by id.
func (s *Store) FindSection(id int) (domain.Section, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sections.get(id)
}

// ListSections returns all sections in creation order.
func (s *Store) ListSections() []domain.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sections.values()
}

// NewEmployee creates an employee. The id of input is ignored.
func (s *Store) NewEmployee(input domain.Employee) (domain.Employee, error) {
	var created domain.Employee
	err := s.run("new_employee", func() error {
		if input.Name == "" {
			return domain.ErrInvalidValue{Field: "name", Reason: "must not be empty"}
		}
		if !s.sections.has(input.SectionID) {
			return domain.ErrNotFound{Entity: domain.EntitySection, ID: input.SectionID}
		}
		created = input
		created.ID = s.seq.Next(domain.EntityEmployee)
		s.employees.insert(created)
		return nil
	})
	return created, err
}

// DeleteEmployee removes an employee.
func (s *Store) DeleteEmployee(id int) error {
	return s.run("delete_employee", func() error {
		if _, ok := s.employees.remove(id); !ok {
			return domain.ErrNotFound{Entity: domain.EntityEmployee, ID: id}
		}
		return nil
	})
}

// FindEmployee looks up an employee by id.
func (s *Store) FindEmployee(id int) (domain.Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.employees.get(id)
}

// ListEmployees returns all employees in creation order.
func (s *Store) ListEmployees() []domain.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.employees.values()
}

// NewCustomer creates a customer. The id of input is ignored.
func (s *Store) NewCustomer(input domain.Customer) (domain.Customer, error) {
	var created domain.Customer
	err := s.run("new_customer", func() error {
		if input.Name == "" {
			return domain.ErrInvalidValue{Field: "name", Reason: "must not be empty"}
		}
		created = input
		created.ID = s.seq.Next(domain.EntityCustomer)
		s.customers.insert(created)
		return nil
	})
	return created, err
}

// DeleteCustomer removes a customer no order or bill refers to.
func (s *Store) DeleteCustomer(id int) error {
	return s.run("delete_customer", func() error {
		if !s.customers.has(id) {
			return domain.ErrNotFound{Entity: domain.EntityCustomer, ID: id}
		}
		if err := s.guardCustomer(id); err != nil {
			return err
		}
		s.customers.remove(id)
		return nil
	})
}

// FindCustomer looks up a customer by id.
func (s *Store) FindCustomer(id int) (domain.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customers.get(id)
}

// ListCustomers returns all customers in creation order.
func (s *Store) ListCustomers() []domain.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customers.values()
}
