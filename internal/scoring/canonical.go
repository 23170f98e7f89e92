package scoring

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Industry is a canonical industry cohort.
type Industry string

const (
	IndustryTechnology           Industry = "technology"
	IndustryFinancialServices    Industry = "financial_services"
	IndustryHealthcare           Industry = "healthcare"
	IndustryManufacturing        Industry = "manufacturing"
	IndustryRetail               Industry = "retail"
	IndustryGovernment           Industry = "government"
	IndustryEducation            Industry = "education"
	IndustryEnergyUtilities      Industry = "energy_utilities"
	IndustryProfessionalServices Industry = "professional_services"
	IndustryMediaTelecom         Industry = "media_telecom"
	IndustryOther                Industry = "other"
)

// CompanySize is a canonical headcount cohort.
type CompanySize string

const (
	SizeSmall           CompanySize = "small"
	SizeMidMarket       CompanySize = "mid_market"
	SizeEnterprise      CompanySize = "enterprise"
	SizeLargeEnterprise CompanySize = "large_enterprise"
)

// Region is a canonical geographic cohort.
type Region string

const (
	RegionNorthAmerica Region = "north_america"
	RegionLatinAmerica Region = "latin_america"
	RegionEMEA         Region = "emea"
	RegionAPAC         Region = "apac"
)

// maxFuzzyDistance bounds the edit distance accepted for near-miss spellings.
// Keys shorter than minFuzzyLength only match exactly.
const (
	maxFuzzyDistance = 2
	minFuzzyLength   = 5
)

var industryAliases = buildAliases(map[string]Industry{
	"technology":             IndustryTechnology,
	"tech":                   IndustryTechnology,
	"software":               IndustryTechnology,
	"saas":                   IndustryTechnology,
	"information technology": IndustryTechnology,
	"it":                     IndustryTechnology,

	"financial services": IndustryFinancialServices,
	"finance":            IndustryFinancialServices,
	"financial":          IndustryFinancialServices,
	"fintech":            IndustryFinancialServices,
	"banking":            IndustryFinancialServices,
	"insurance":          IndustryFinancialServices,

	"healthcare":    IndustryHealthcare,
	"health care":   IndustryHealthcare,
	"health":        IndustryHealthcare,
	"life sciences": IndustryHealthcare,
	"pharma":        IndustryHealthcare,

	"manufacturing": IndustryManufacturing,
	"industrial":    IndustryManufacturing,

	"retail":     IndustryRetail,
	"ecommerce":  IndustryRetail,
	"e-commerce": IndustryRetail,

	"government":    IndustryGovernment,
	"public sector": IndustryGovernment,

	"education":        IndustryEducation,
	"higher education": IndustryEducation,

	"energy & utilities": IndustryEnergyUtilities,
	"energy":             IndustryEnergyUtilities,
	"utilities":          IndustryEnergyUtilities,

	"professional services": IndustryProfessionalServices,
	"consulting":            IndustryProfessionalServices,
	"legal":                 IndustryProfessionalServices,

	"media & telecom":    IndustryMediaTelecom,
	"media":              IndustryMediaTelecom,
	"telecommunications": IndustryMediaTelecom,
	"telecom":            IndustryMediaTelecom,

	"other": IndustryOther,
})

var sizeAliases = buildAliases(map[string]CompanySize{
	"small":     SizeSmall,
	"startup":   SizeSmall,
	"smb":       SizeSmall,
	"1-50":      SizeSmall,
	"1-99":      SizeSmall,
	"51-99":     SizeSmall,
	"under 100": SizeSmall,

	"mid market": SizeMidMarket,
	"midmarket":  SizeMidMarket,
	"mid-size":   SizeMidMarket,
	"medium":     SizeMidMarket,
	"100-499":    SizeMidMarket,
	"500-999":    SizeMidMarket,
	"100-999":    SizeMidMarket,

	"enterprise": SizeEnterprise,
	"1000-4999":  SizeEnterprise,
	"5000-9999":  SizeEnterprise,
	"1000-9999":  SizeEnterprise,

	"large enterprise": SizeLargeEnterprise,
	"10000+":           SizeLargeEnterprise,
	"10000":            SizeLargeEnterprise,
	"10,000+":          SizeLargeEnterprise,
})

var regionAliases = buildAliases(map[string]Region{
	"north america": RegionNorthAmerica,
	"na":            RegionNorthAmerica,
	"us":            RegionNorthAmerica,
	"usa":           RegionNorthAmerica,
	"united states": RegionNorthAmerica,
	"canada":        RegionNorthAmerica,
	"latin america": RegionLatinAmerica,
	"latam":         RegionLatinAmerica,
	"south america": RegionLatinAmerica,
	"emea":          RegionEMEA,
	"europe":        RegionEMEA,
	"eu":            RegionEMEA,
	"uk":            RegionEMEA,
	"middle east":   RegionEMEA,
	"africa":        RegionEMEA,
	"apac":          RegionAPAC,
	"asia pacific":  RegionAPAC,
	"asia":          RegionAPAC,
	"australia":     RegionAPAC,
	"anz":           RegionAPAC,
	"japan":         RegionAPAC,
})

// CanonicalizeOrgMeta maps free-form organization metadata onto the canonical
// cohort values. Unknown industries become IndustryOther; unknown sizes and
// regions become empty so that no cohort is looked up for them.
func CanonicalizeOrgMeta(raw RawOrgMeta) OrgMeta {
	meta := OrgMeta{
		CompanySize: canonicalize(raw.CompanySize, sizeAliases),
		Region:      canonicalize(raw.Region, regionAliases),
	}
	if strings.TrimSpace(raw.Industry) != "" {
		meta.Industry = canonicalize(raw.Industry, industryAliases)
		if meta.Industry == "" {
			meta.Industry = IndustryOther
		}
	}
	return meta
}

// CanonicalIndustry resolves a single industry value.
func CanonicalIndustry(s string) (Industry, bool) {
	v := canonicalize(s, industryAliases)
	return v, v != ""
}

// CanonicalCompanySize resolves a single company size value.
func CanonicalCompanySize(s string) (CompanySize, bool) {
	v := canonicalize(s, sizeAliases)
	return v, v != ""
}

// CanonicalRegion resolves a single region value.
func CanonicalRegion(s string) (Region, bool) {
	v := canonicalize(s, regionAliases)
	return v, v != ""
}

// buildAliases normalizes alias keys and registers every canonical value as
// an alias of itself.
func buildAliases[T ~string](in map[string]T) map[string]T {
	out := make(map[string]T, len(in)*2)
	for alias, v := range in {
		out[normalizeKey(alias)] = v
		out[normalizeKey(string(v))] = v
	}
	return out
}

func canonicalize[T ~string](s string, aliases map[string]T) T {
	key := normalizeKey(s)
	if key == "" {
		return ""
	}
	if v, ok := aliases[key]; ok {
		return v
	}
	if len(key) < minFuzzyLength {
		return ""
	}

	var (
		best      T
		bestDist  = maxFuzzyDistance + 1
		ambiguous bool
	)
	for alias, v := range aliases {
		if len(alias) < minFuzzyLength {
			continue
		}
		d := levenshtein.ComputeDistance(key, alias)
		switch {
		case d < bestDist:
			best, bestDist, ambiguous = v, d, false
		case d == bestDist && v != best:
			ambiguous = true
		}
	}
	if bestDist > maxFuzzyDistance || ambiguous {
		return ""
	}
	return best
}

// normalizeKey folds case, strips diacritics and collapses every run of
// non-alphanumeric characters into a single underscore. "&" is read as "and".
// The Caser and transformer are created per call because both keep internal
// state.
func normalizeKey(s string) string {
	folded := cases.Fold().String(strings.TrimSpace(s))
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if plain, _, err := transform.String(stripMarks, folded); err == nil {
		folded = plain
	}
	folded = strings.ReplaceAll(folded, "&", " and ")

	var b strings.Builder
	pendingSep := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		if r == '-' && b.Len() > 0 {
			// keeps numeric ranges such as 1-50 distinct from 150
			b.WriteByte('-')
			pendingSep = false
			continue
		}
		pendingSep = true
	}
	return b.String()
}
