package extraction

import (
	"context"

	"catalogd/internal/catalog"
)

// Classifier determines the product type for a raw text snippet.
type Classifier interface {
	Classify(ctx context.Context, rawText string) (string, error)
}

// Extractor pulls structured fields out of raw text for a known product type.
type Extractor interface {
	Extract(ctx context.Context, rawText, productType string) (catalog.Fields, error)
}

// ValidationResult carries the validator verdict. ReviewReason is empty when
// the fields passed validation.
type ValidationResult struct {
	Validated    catalog.Fields
	ReviewReason string
}

// Validator checks extracted fields for completeness and plausibility.
type Validator interface {
	Validate(ctx context.Context, fields catalog.Fields, productType string) (ValidationResult, error)
}

// Collaborators bundles the three external stages consumed by the pipeline.
type Collaborators struct {
	Classifier Classifier
	Extractor  Extractor
	Validator  Validator
}
