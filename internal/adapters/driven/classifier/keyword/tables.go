package keyword

import "github.com/custodia-labs/sercha-kb/internal/core/domain"

// Keyword stems are matched at word starts after normalisation,
// so "dohod" matches "dohodak" and "dohotka" is listed separately.
// URL tables are ASCII because paths rarely carry diacritics.

var categoryURLKeywords = map[domain.Category][]string{
	domain.CategoryIncomeTax:       {"porez na dohodak", "dohodak", "dohotk", "porez na zarad", "income tax"},
	domain.CategoryVAT:             {"pdv", "vat", "porez na dodatu vrednost"},
	domain.CategorySocialInsurance: {"pio", "penzij", "socijaln", "doprinos", "pension"},
	domain.CategoryHealthInsurance: {"zdravstv", "rfzo", "health"},
	domain.CategoryFlatTax:         {"pausal", "flat tax", "lump sum"},
	domain.CategoryAccounting:      {"racunovod", "knjigovod", "bilans", "accounting"},
	domain.CategoryLaw:             {"zakon", "propis", "pravilnik", "law"},
	domain.CategoryForm:            {"obrazac", "obrasc", "form"},
	domain.CategoryDeadline:        {"rok", "kalendar", "deadline"},
	domain.CategoryLimit:           {"limit", "prag", "granic", "threshold"},
}

var categoryContentKeywords = map[domain.Category][]string{
	domain.CategoryIncomeTax: {
		"porez na dohodak", "dohodak", "dohotk", "porez na zarad", "porez na prihod",
		"income tax", "personal income",
	},
	domain.CategoryVAT: {
		"pdv", "porez na dodatu vrednost", "obveznik pdv", "vat", "value added tax",
	},
	domain.CategorySocialInsurance: {
		"penzijsk", "pio", "socijalno osiguranj", "doprinos", "social insurance", "pension",
	},
	domain.CategoryHealthInsurance: {
		"zdravstven", "rfzo", "health insurance",
	},
	domain.CategoryFlatTax: {
		"paušal", "pausal", "flat tax", "lump sum",
	},
	domain.CategoryAccounting: {
		"računovodstv", "knjigovodstv", "bilans", "poslovne knjige", "accounting", "bookkeeping",
	},
	domain.CategoryLaw: {
		"zakon", "pravilnik", "uredb", "službeni glasnik", "law", "regulation",
	},
	domain.CategoryForm: {
		"obrazac", "obrasc", "form",
	},
	domain.CategoryDeadline: {
		"rok", "do kraja meseca", "deadline", "due date",
	},
	domain.CategoryLimit: {
		"limit", "prag", "granic", "maksimaln", "threshold",
	},
}

// documentTypeOrder is the precedence used when several types match.
var documentTypeOrder = []domain.DocumentType{
	domain.DocumentTypeLaw,
	domain.DocumentTypeForm,
	domain.DocumentTypeGuideline,
	domain.DocumentTypeFAQ,
	domain.DocumentTypeManual,
}

var documentTypeKeywords = map[domain.DocumentType][]string{
	domain.DocumentTypeLaw:       {"zakon o", "zakon", "pravilnik", "uredb", "law on", "act on"},
	domain.DocumentTypeForm:      {"obrazac", "obrasc", "form"},
	domain.DocumentTypeGuideline: {"uputstv", "smernic", "mišljenj", "misljenj", "guideline", "instruction"},
	domain.DocumentTypeFAQ:       {"faq", "česta pitanja", "cesta pitanja", "pitanja i odgovori", "frequently asked"},
	domain.DocumentTypeManual:    {"priručnik", "prirucnik", "vodič", "vodic", "manual", "handbook"},
}

// businessTypes maps business-type vocabulary to a canonical label.
var businessTypes = []struct {
	label    string
	keywords []string
}{
	{"entrepreneur", []string{"preduzetni", "entrepreneur", "sole trader"}},
	{"flat-tax-entrepreneur", []string{"paušalac", "paušalno oporezovan", "pausalac", "flat-rate"}},
	{"company", []string{"pravno lice", "pravna lica", "privredno društvo", "privredna društva", "company", "companies"}},
	{"individual", []string{"fizičko lice", "fizička lica", "individual"}},
	{"employee", []string{"zaposlen", "employee"}},
}
