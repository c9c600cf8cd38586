package match

import (
	"strings"

	"catalogd/internal/catalog"
)

// Field weights. Approval number dominates: an exact match alone clears the
// default candidate threshold.
const (
	scoreApprovalExact  = 40
	scoreApprovalPrefix = 20

	scoreNameVeryHigh = 25
	scoreNameHigh     = 20
	scoreNameMedium   = 15
	scoreNameLow      = 10

	scoreManufacturerHigh = 20
	scoreManufacturerLow  = 10

	scoreSpecificationHigh = 10
	scoreSpecificationLow  = 5

	scoreBrandHigh = 5
	scoreBrandLow  = 2
)

// Score computes the weighted similarity between an incoming record and a
// master record, in [0, 100]. The second return reports an exact approval
// number match.
func Score(incoming, master catalog.Fields) (int, bool) {
	score := 0
	exactApproval := false

	inApproval := normalizeValue(incoming.ApprovalNumber)
	masterApproval := normalizeValue(master.ApprovalNumber)
	if inApproval != "" && masterApproval != "" {
		switch {
		case inApproval == masterApproval:
			score += scoreApprovalExact
			exactApproval = true
		case strings.HasPrefix(inApproval, masterApproval) || strings.HasPrefix(masterApproval, inApproval):
			score += scoreApprovalPrefix
		}
	}

	switch nameRatio := Similarity(incoming.ProductName, master.ProductName); {
	case nameRatio > 0.9:
		score += scoreNameVeryHigh
	case nameRatio > 0.8:
		score += scoreNameHigh
	case nameRatio > 0.7:
		score += scoreNameMedium
	case nameRatio > 0.6:
		score += scoreNameLow
	}

	switch makerRatio := Similarity(incoming.Manufacturer, master.Manufacturer); {
	case makerRatio > 0.9:
		score += scoreManufacturerHigh
	case makerRatio > 0.8:
		score += scoreManufacturerLow
	}

	switch specRatio := Similarity(incoming.Specification, master.Specification); {
	case specRatio > 0.9:
		score += scoreSpecificationHigh
	case specRatio > 0.8:
		score += scoreSpecificationLow
	}

	switch brandRatio := Similarity(incoming.Brand, master.Brand); {
	case brandRatio > 0.9:
		score += scoreBrandHigh
	case brandRatio > 0.8:
		score += scoreBrandLow
	}

	return score, exactApproval
}
