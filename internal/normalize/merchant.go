package normalize

import "strings"

// MerchantAlias maps a lower-case variant found in descriptions to the
// merchant's canonical display name
type MerchantAlias struct {
	Variant   string `mapstructure:"variant"`
	Canonical string `mapstructure:"canonical"`
}

// DefaultMerchantAliases is the hand-curated lookup table. Order matters:
// longer variants come before the shorter ones they contain.
var DefaultMerchantAliases = []MerchantAlias{
	{Variant: "lider express", Canonical: "Lider"},
	{Variant: "hiper lider", Canonical: "Lider"},
	{Variant: "lider", Canonical: "Lider"},
	{Variant: "jumbo", Canonical: "Jumbo"},
	{Variant: "santa isabel", Canonical: "Santa Isabel"},
	{Variant: "unimarc", Canonical: "Unimarc"},
	{Variant: "tottus", Canonical: "Tottus"},
	{Variant: "pronto copec", Canonical: "Pronto Copec"},
	{Variant: "copec", Canonical: "Copec"},
	{Variant: "uber eats", Canonical: "Uber Eats"},
	{Variant: "uber", Canonical: "Uber"},
	{Variant: "cabify", Canonical: "Cabify"},
	{Variant: "netflix", Canonical: "Netflix"},
	{Variant: "spotify", Canonical: "Spotify"},
	{Variant: "cruz verde", Canonical: "Cruz Verde"},
	{Variant: "salcobrand", Canonical: "Salcobrand"},
	{Variant: "falabella", Canonical: "Falabella"},
	{Variant: "ripley", Canonical: "Ripley"},
	{Variant: "mercadopago", Canonical: "Mercado Libre"},
	{Variant: "mercado libre", Canonical: "Mercado Libre"},
	{Variant: "mercadolibre", Canonical: "Mercado Libre"},
}

// MerchantNormalizer resolves raw descriptions to canonical merchant names
type MerchantNormalizer struct {
	aliases []MerchantAlias
}

// NewMerchantNormalizer creates a normalizer over aliases. Variants are
// lower-cased once here.
func NewMerchantNormalizer(aliases []MerchantAlias) *MerchantNormalizer {
	normalized := make([]MerchantAlias, 0, len(aliases))
	for _, alias := range aliases {
		variant := Key(alias.Variant)
		if variant == "" {
			continue
		}
		normalized = append(normalized, MerchantAlias{Variant: variant, Canonical: alias.Canonical})
	}
	return &MerchantNormalizer{aliases: normalized}
}

// Normalize returns the canonical name of the first alias whose variant
// appears in description, or description unchanged.
func (n *MerchantNormalizer) Normalize(description string) string {
	key := Key(description)
	if key == "" {
		return description
	}
	for _, alias := range n.aliases {
		if strings.Contains(key, alias.Variant) {
			return alias.Canonical
		}
	}
	return description
}

var defaultMerchants = NewMerchantNormalizer(DefaultMerchantAliases)

// NormalizeMerchant normalizes description with the default alias table
func NormalizeMerchant(description string) string {
	return defaultMerchants.Normalize(description)
}
