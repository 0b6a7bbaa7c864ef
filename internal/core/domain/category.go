package domain

import (
	"fmt"
	"strings"
)

// Category is the subject area a document belongs to.
type Category string

// Known categories.
const (
	CategoryIncomeTax       Category = "income-tax"
	CategoryVAT             Category = "vat"
	CategorySocialInsurance Category = "social-insurance"
	CategoryHealthInsurance Category = "health-insurance"
	CategoryFlatTax         Category = "flat-tax"
	CategoryAccounting      Category = "accounting"
	CategoryLaw             Category = "law"
	CategoryForm            Category = "form"
	CategoryDeadline        Category = "deadline"
	CategoryLimit           Category = "limit"
	CategoryOther           Category = "other"
)

var allCategories = []Category{
	CategoryIncomeTax,
	CategoryVAT,
	CategorySocialInsurance,
	CategoryHealthInsurance,
	CategoryFlatTax,
	CategoryAccounting,
	CategoryLaw,
	CategoryForm,
	CategoryDeadline,
	CategoryLimit,
	CategoryOther,
}

// AllCategories returns every category in a stable order.
// Classifiers use this order to break ties.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// String returns the category identifier.
func (c Category) String() string {
	return string(c)
}

// ParseCategory converts a string to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, s)
	}
	return c, nil
}

// ParseCategories converts a list of strings, failing on the first unknown value.
func ParseCategories(values []string) ([]Category, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]Category, 0, len(values))
	for _, v := range values {
		c, err := ParseCategory(v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// DocumentType is the kind of publication a document is.
type DocumentType string

// Known document types.
const (
	DocumentTypeLaw       DocumentType = "law"
	DocumentTypeGuideline DocumentType = "guideline"
	DocumentTypeForm      DocumentType = "form"
	DocumentTypeArticle   DocumentType = "article"
	DocumentTypeManual    DocumentType = "manual"
	DocumentTypeFAQ       DocumentType = "faq"
	DocumentTypeOther     DocumentType = "other"
)

// IsValid reports whether t is a known document type.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeLaw, DocumentTypeGuideline, DocumentTypeForm, DocumentTypeArticle,
		DocumentTypeManual, DocumentTypeFAQ, DocumentTypeOther:
		return true
	default:
		return false
	}
}
