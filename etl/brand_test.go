package etl

import "testing"

func TestNormalizeBrandTables(t *testing.T) {
	cases := []struct {
		table map[string]string
		in    string
		want  string
	}{
		{windcaveBrands, "VISA", BrandVisa},
		{windcaveBrands, "visa", BrandVisa},
		{windcaveBrands, "MC", BrandMastercard},
		{windcaveBrands, "Mastercard", BrandMastercard},
		{windcaveBrands, "DISC", BrandDiscover},
		{windcaveBrands, "American Express", BrandAmex},
		{ipsCardBrands, "M/C", BrandMastercard},
		{ipsCardBrands, "Visa", BrandVisa},
		{paymentsInsiderBrands, "VS", BrandVisa},
		{paymentsInsiderBrands, "AMEX", BrandAmex},
		{paymentsInsiderBrands, " Visa ", BrandVisa},
	}
	for _, c := range cases {
		if got := normalizeBrand(c.table, c.in); got != c.want {
			t.Errorf("normalizeBrand(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// Anything mentioning Remote or PBC is the remote pay-by-cell method, in
// every table.
func TestNormalizeBrandRemotePBC(t *testing.T) {
	for _, in := range []string{"Remote", "remote payment", "PBC", "Pay-by-Cell PBC", "REMOTE/PBC"} {
		for _, table := range []map[string]string{windcaveBrands, ipsCardBrands, paymentsInsiderBrands} {
			if got := normalizeBrand(table, in); got != BrandRemotePBC {
				t.Errorf("normalizeBrand(%q) = %q, want %q", in, got, BrandRemotePBC)
			}
		}
	}
}

// Unknown brands pass through so the reject row carries the raw value.
func TestNormalizeBrandUnknownPassThrough(t *testing.T) {
	if got := normalizeBrand(windcaveBrands, "Obscurecard"); got != "Obscurecard" {
		t.Errorf("unknown brand rewritten to %q", got)
	}
}
