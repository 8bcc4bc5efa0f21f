package categorizer

import (
	"fmt"

	"statement-categorizer/internal/models"
	"statement-categorizer/internal/normalize"
)

// CategoryPatterns is the ordered keyword list of one category
type CategoryPatterns struct {
	ID       models.CategoryID `json:"id" mapstructure:"id"`
	Keywords []string          `json:"keywords" mapstructure:"keywords"`
}

// PatternLibrary is scanned in declaration order. When keywords of two
// categories overlap, the category declared first wins.
type PatternLibrary []CategoryPatterns

// DefaultPatterns returns the built-in keyword library for Chilean
// statements. "pronto copec" is a convenience store and is declared under
// alimentacion, ahead of the "copec" fuel keyword in transporte.
func DefaultPatterns() PatternLibrary {
	return PatternLibrary{
		{ID: "alimentacion", Keywords: []string{
			"lider", "jumbo", "unimarc", "santa isabel", "tottus", "acuenta",
			"supermercado", "pronto copec", "uber eats", "rappi", "pedidosya",
			"restaurant", "cafe", "panaderia", "sushi", "pizza", "mcdonald",
			"burger king", "starbucks",
		}},
		{ID: "transporte", Keywords: []string{
			"copec", "shell", "petrobras", "aramco", "uber", "cabify", "didi",
			"metro de santiago", "red movilidad", "carga bip", "autopista",
			"estacionamiento", "peaje",
		}},
		{ID: "salud", Keywords: []string{
			"farmacia", "cruz verde", "salcobrand", "ahumada", "clinica",
			"hospital", "isapre", "fonasa", "dental", "laboratorio", "medico",
		}},
		{ID: "entretenimiento", Keywords: []string{
			"netflix", "spotify", "disney", "hbo", "prime video", "cinemark",
			"cinepolis", "cine", "steam", "playstation", "ticketmaster",
			"puntoticket",
		}},
		{ID: "servicios", Keywords: []string{
			"enel", "aguas andinas", "metrogas", "abastible", "lipigas", "esval",
			"entel", "movistar", "wom", "claro", "vtr", "gtd",
		}},
		{ID: "hogar", Keywords: []string{
			"sodimac", "homecenter", "easy", "ikea", "construmart", "ferreteria",
			"muebles",
		}},
		{ID: "educacion", Keywords: []string{
			"universidad", "colegio", "instituto", "udemy", "coursera",
			"libreria", "matricula",
		}},
		{ID: "vestuario", Keywords: []string{
			"zara", "h&m", "falabella", "paris", "ripley", "hites", "la polar",
			"nike", "adidas", "zapatos",
		}},
		{ID: "tecnologia", Keywords: []string{
			"pc factory", "apple.com", "google", "microsoft", "samsung", "adobe",
			"openai",
		}},
		{ID: "viajes", Keywords: []string{
			"latam", "sky airline", "jetsmart", "airbnb", "booking", "hotel",
			"despegar", "turbus", "pullman",
		}},
	}
}

// Validate checks that every entry names a catalog category, appears once
// and carries at least one keyword
func (p PatternLibrary) Validate(catalog models.Catalog) error {
	seen := make(map[models.CategoryID]bool, len(p))
	for i, entry := range p {
		if entry.ID == "" {
			return fmt.Errorf("pattern entry %d has an empty category id", i)
		}
		if !catalog.Contains(entry.ID) {
			return fmt.Errorf("pattern entry %d references unknown category %s", i, entry.ID)
		}
		if seen[entry.ID] {
			return fmt.Errorf("category %s is declared more than once", entry.ID)
		}
		seen[entry.ID] = true

		if len(entry.normalizedKeywords()) == 0 {
			return fmt.Errorf("category %s has no keywords", entry.ID)
		}
	}
	return nil
}

// normalized returns a copy with lower-cased, trimmed and de-duplicated
// keywords, order preserved
func (p PatternLibrary) normalized() PatternLibrary {
	out := make(PatternLibrary, 0, len(p))
	for _, entry := range p {
		out = append(out, CategoryPatterns{ID: entry.ID, Keywords: entry.normalizedKeywords()})
	}
	return out
}

func (c CategoryPatterns) normalizedKeywords() []string {
	seen := make(map[string]bool, len(c.Keywords))
	keywords := make([]string, 0, len(c.Keywords))
	for _, keyword := range c.Keywords {
		k := normalize.Key(keyword)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keywords = append(keywords, k)
	}
	return keywords
}
