package etl

import "strings"

// Canonical payment-method brands as stored in dim_payment_method. The
// brand strings the sources emit are normalized through explicit per-source
// tables so additions and typos surface in tests instead of silently
// rejecting rows.
const (
	BrandVisa       = "Visa"
	BrandMastercard = "Mastercard"
	BrandDiscover   = "Discover"
	BrandAmex       = "Amex"
	BrandCash       = "Cash"
	BrandRemotePBC  = "Remote/PBC"
)

var windcaveBrands = map[string]string{
	"visa":             BrandVisa,
	"mastercard":       BrandMastercard,
	"mc":               BrandMastercard,
	"discover":         BrandDiscover,
	"disc":             BrandDiscover,
	"amex":             BrandAmex,
	"american express": BrandAmex,
}

var ipsCardBrands = map[string]string{
	"visa":       BrandVisa,
	"mastercard": BrandMastercard,
	"mc":         BrandMastercard,
	"m/c":        BrandMastercard,
	"discover":   BrandDiscover,
	"disc":       BrandDiscover,
	"amex":       BrandAmex,
}

var paymentsInsiderBrands = map[string]string{
	"visa":       BrandVisa,
	"vs":         BrandVisa,
	"mastercard": BrandMastercard,
	"mc":         BrandMastercard,
	"discover":   BrandDiscover,
	"disc":       BrandDiscover,
	"amex":       BrandAmex,
}

// normalizeBrand rewrites a source brand string through the adapter's
// table. Anything mentioning Remote or PBC is the remote pay-by-cell
// method regardless of table contents. Unknown brands pass through
// unchanged and fail payment-method resolution downstream.
func normalizeBrand(table map[string]string, raw string) string {
	s := strings.TrimSpace(raw)
	if isRemotePBC(s) {
		return BrandRemotePBC
	}
	if canonical, ok := table[strings.ToLower(s)]; ok {
		return canonical
	}
	return s
}

func isRemotePBC(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "remote") || strings.Contains(lower, "pbc")
}
