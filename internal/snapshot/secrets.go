package snapshot

import (
	"encoding/json"
	"fmt"

	"erpcore/internal/core"
	"erpcore/pkg/domain"
)

// SecretsExtension is the file extension of the secrets document kept next to
// the main snapshot.
const SecretsExtension = ".secrets.json"

// SecretsWarning is written into every secrets document.
const SecretsWarning = "This file contains company and banking details. Keep it private and out of version control."

// SecretsDocument carries the sensitive company identity of an instance.
type SecretsDocument struct {
	SchemaVersion int            `json:"schema_version"`
	Name          string         `json:"name"`
	Warning       string         `json:"warning"`
	Company       *CompanyRecord `json:"company,omitempty"`
}

// CompanyRecord is the transfer form of domain.Company. Every field may be
// absent in hand-edited documents.
type CompanyRecord struct {
	Name    *string     `json:"name,omitempty"`
	Address *string     `json:"address,omitempty"`
	Email   *string     `json:"email,omitempty"`
	Phone   *string     `json:"phone,omitempty"`
	Bank    *BankRecord `json:"bank,omitempty"`
}

// BankRecord is the transfer form of domain.BankInfo.
type BankRecord struct {
	Name *string `json:"name,omitempty"`
	IBAN *string `json:"iban,omitempty"`
	BIC  *string `json:"bic,omitempty"`
}

// SplitSecrets extracts the company identity of a state into its own
// document.
func SplitSecrets(st core.State) SecretsDocument {
	doc := SecretsDocument{SchemaVersion: SchemaVersion, Name: st.Name, Warning: SecretsWarning}
	if st.Company == nil {
		return doc
	}
	c := st.Company
	doc.Company = &CompanyRecord{
		Name:    strPtr(c.Name),
		Address: strPtr(c.Address),
		Email:   strPtr(c.Email),
		Phone:   strPtr(c.Phone),
		Bank: &BankRecord{
			Name: strPtr(c.Bank.Name),
			IBAN: strPtr(c.Bank.IBAN),
			BIC:  strPtr(c.Bank.BIC),
		},
	}
	return doc
}

// CompanyValue converts the record into a domain value, substituting empty
// strings for missing fields. It returns nil when the document holds no
// company.
func (d SecretsDocument) CompanyValue() *domain.Company {
	if d.Company == nil {
		return nil
	}
	rec := d.Company
	c := &domain.Company{
		Name:    str(rec.Name),
		Address: str(rec.Address),
		Email:   str(rec.Email),
		Phone:   str(rec.Phone),
	}
	if rec.Bank != nil {
		c.Bank = domain.BankInfo{Name: str(rec.Bank.Name), IBAN: str(rec.Bank.IBAN), BIC: str(rec.Bank.BIC)}
	}
	return c
}

// MergeSecrets installs the company identity of doc into an already rebuilt
// store.
func MergeSecrets(store *core.Store, doc SecretsDocument) {
	store.SetCompany(doc.CompanyValue())
}

// MarshalSecrets renders a secrets document as indented JSON.
func MarshalSecrets(doc SecretsDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode secrets: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseSecrets decodes a secrets document.
func ParseSecrets(data []byte) (SecretsDocument, error) {
	if len(data) == 0 {
		return SecretsDocument{}, ErrEmptyDocument
	}
	var doc SecretsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return SecretsDocument{}, fmt.Errorf("decode secrets: %w", err)
	}
	return doc, nil
}

func strPtr(s string) *string { return &s }

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
