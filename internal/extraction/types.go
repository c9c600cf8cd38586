package extraction

import "strings"

// Product type vocabulary. These values are data carried through the catalog,
// so they keep the upstream regulatory vocabulary.
const (
	TypeDrug          = "药品"
	TypeDevice        = "器械"
	TypeCosmeceutical = "药妆"
	TypeSupplement    = "保健品"
	TypeTCM           = "中药饮片"
	TypeGeneral       = "普通商品"
)

var knownTypes = []string{
	TypeDrug,
	TypeDevice,
	TypeCosmeceutical,
	TypeSupplement,
	TypeTCM,
	TypeGeneral,
}

// KnownTypes returns the ordered list of recognized product types.
func KnownTypes() []string {
	cp := make([]string, len(knownTypes))
	copy(cp, knownTypes)
	return cp
}

// IsKnownType reports whether value is a recognized product type.
func IsKnownType(value string) bool {
	value = NormalizeType(value)
	for _, t := range knownTypes {
		if value == t {
			return true
		}
	}
	return false
}

// NormalizeType strips punctuation and whitespace the classifier tends to
// append around the bare type name.
func NormalizeType(value string) string {
	replacer := strings.NewReplacer("。", "", "：", "", ":", "", " ", "")
	return replacer.Replace(strings.TrimSpace(value))
}
