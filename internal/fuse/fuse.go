package fuse

import (
	"catalogd/internal/catalog"
)

// Conflict records a contradictory field between an existing master record
// and an incoming candidate.
type Conflict struct {
	Field         string `json:"field"`
	ExistingValue string `json:"existing_value"`
	NewValue      string `json:"new_value"`
	Reason        string `json:"reason"`
}

// Conflict reasons carried into review items.
const (
	ReasonCriticalMismatch  = "critical field mismatch"
	ReasonImportantMismatch = "important field mismatch"
)

// Field tiers. The matcher weighs fields independently; fusion maintains its
// own lists.
var (
	criticalFields = []string{
		catalog.FieldProductType,
		catalog.FieldApprovalNumber,
	}
	importantFields = []string{
		catalog.FieldProductName,
		catalog.FieldManufacturer,
		catalog.FieldSpecification,
	}
	generalFields = []string{
		catalog.FieldBrand,
		catalog.FieldBarcode,
		catalog.FieldMAH,
		catalog.FieldDosageForm,
		catalog.FieldProductTechnicalRequirementsNumber,
		catalog.FieldRegistrationClassification,
		catalog.FieldMainIngredients,
		catalog.FieldExecutionStandard,
	}
)

// Fuse merges an incoming candidate into an existing master's fields.
//
// Critical fields that disagree abort immediately: the single conflict is
// returned and no merged fields are produced. Important fields accumulate
// conflicts with the existing value winning. General fields fill gaps only.
func Fuse(existing, incoming catalog.Fields) (catalog.Fields, []Conflict) {
	for _, field := range criticalFields {
		existingValue := existing.Get(field)
		incomingValue := incoming.Get(field)
		if existingValue != "" && incomingValue != "" && existingValue != incomingValue {
			return catalog.Fields{}, []Conflict{{
				Field:         field,
				ExistingValue: existingValue,
				NewValue:      incomingValue,
				Reason:        ReasonCriticalMismatch,
			}}
		}
	}

	fused := existing
	var conflicts []Conflict

	// Critical fields agree; adopt whichever side has a value.
	for _, field := range criticalFields {
		if fused.Get(field) == "" {
			fused.Set(field, incoming.Get(field))
		}
	}

	for _, field := range importantFields {
		existingValue := existing.Get(field)
		incomingValue := incoming.Get(field)
		switch {
		case existingValue == "" && incomingValue != "":
			fused.Set(field, incomingValue)
		case existingValue != "" && incomingValue != "" && existingValue != incomingValue:
			conflicts = append(conflicts, Conflict{
				Field:         field,
				ExistingValue: existingValue,
				NewValue:      incomingValue,
				Reason:        ReasonImportantMismatch,
			})
		}
	}

	for _, field := range generalFields {
		if fused.Get(field) == "" {
			fused.Set(field, incoming.Get(field))
		}
	}

	return fused, conflicts
}
