package catalog

import (
	"strings"
	"time"
)

// Field names shared by candidate records and master records. These are the
// canonical wire names used in JSON payloads and database columns.
const (
	FieldProductType                        = "product_type"
	FieldProductName                        = "product_name"
	FieldBrand                              = "brand"
	FieldManufacturer                       = "manufacturer"
	FieldApprovalNumber                     = "approval_number"
	FieldSpecification                      = "specification"
	FieldBarcode                            = "barcode"
	FieldMAH                                = "mah"
	FieldDosageForm                         = "dosage_form"
	FieldProductTechnicalRequirementsNumber = "product_technical_requirements_number"
	FieldRegistrationClassification         = "registration_classification"
	FieldMainIngredients                    = "main_ingredients"
	FieldExecutionStandard                  = "execution_standard"
)

var fieldNames = []string{
	FieldProductType,
	FieldProductName,
	FieldBrand,
	FieldManufacturer,
	FieldApprovalNumber,
	FieldSpecification,
	FieldBarcode,
	FieldMAH,
	FieldDosageForm,
	FieldProductTechnicalRequirementsNumber,
	FieldRegistrationClassification,
	FieldMainIngredients,
	FieldExecutionStandard,
}

// FieldNames returns the ordered list of canonical field names.
func FieldNames() []string {
	cp := make([]string, len(fieldNames))
	copy(cp, fieldNames)
	return cp
}

// Fields is the structured attribute set extracted for a product. Every field
// except ProductType is optional; empty strings mean "not provided".
type Fields struct {
	ProductType                        string `json:"product_type"`
	ProductName                        string `json:"product_name,omitempty"`
	Brand                              string `json:"brand,omitempty"`
	Manufacturer                       string `json:"manufacturer,omitempty"`
	ApprovalNumber                     string `json:"approval_number,omitempty"`
	Specification                      string `json:"specification,omitempty"`
	Barcode                            string `json:"barcode,omitempty"`
	MAH                                string `json:"mah,omitempty"`
	DosageForm                         string `json:"dosage_form,omitempty"`
	ProductTechnicalRequirementsNumber string `json:"product_technical_requirements_number,omitempty"`
	RegistrationClassification         string `json:"registration_classification,omitempty"`
	MainIngredients                    string `json:"main_ingredients,omitempty"`
	ExecutionStandard                  string `json:"execution_standard,omitempty"`
}

// Record is a canonical master catalog entry.
type Record struct {
	ID int64
	Fields
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Get returns the value of the named field, or "" for unknown names.
func (f Fields) Get(name string) string {
	switch name {
	case FieldProductType:
		return f.ProductType
	case FieldProductName:
		return f.ProductName
	case FieldBrand:
		return f.Brand
	case FieldManufacturer:
		return f.Manufacturer
	case FieldApprovalNumber:
		return f.ApprovalNumber
	case FieldSpecification:
		return f.Specification
	case FieldBarcode:
		return f.Barcode
	case FieldMAH:
		return f.MAH
	case FieldDosageForm:
		return f.DosageForm
	case FieldProductTechnicalRequirementsNumber:
		return f.ProductTechnicalRequirementsNumber
	case FieldRegistrationClassification:
		return f.RegistrationClassification
	case FieldMainIngredients:
		return f.MainIngredients
	case FieldExecutionStandard:
		return f.ExecutionStandard
	default:
		return ""
	}
}

// Set assigns the named field. Unknown names are ignored.
func (f *Fields) Set(name, value string) {
	switch name {
	case FieldProductType:
		f.ProductType = value
	case FieldProductName:
		f.ProductName = value
	case FieldBrand:
		f.Brand = value
	case FieldManufacturer:
		f.Manufacturer = value
	case FieldApprovalNumber:
		f.ApprovalNumber = value
	case FieldSpecification:
		f.Specification = value
	case FieldBarcode:
		f.Barcode = value
	case FieldMAH:
		f.MAH = value
	case FieldDosageForm:
		f.DosageForm = value
	case FieldProductTechnicalRequirementsNumber:
		f.ProductTechnicalRequirementsNumber = value
	case FieldRegistrationClassification:
		f.RegistrationClassification = value
	case FieldMainIngredients:
		f.MainIngredients = value
	case FieldExecutionStandard:
		f.ExecutionStandard = value
	}
}

// Normalize trims surrounding whitespace from every field in place.
func (f *Fields) Normalize() {
	for _, name := range fieldNames {
		f.Set(name, strings.TrimSpace(f.Get(name)))
	}
}

// IsEmpty reports whether no field carries a value.
func (f Fields) IsEmpty() bool {
	for _, name := range fieldNames {
		if f.Get(name) != "" {
			return false
		}
	}
	return true
}
