package diagnosis

import "strings"

// lookupFunc is one attempt of the advisory resolution chain.
type lookupFunc func(label string, lang Language) (Advisory, bool)

// Resolver turns a disease label into advisory text. Resolution tries the
// knowledge store, then the built-in table by exact label, then the built-in
// Healthy entry; the first hit wins. It never fails.
type Resolver struct {
	knowledge *Knowledge
	fallback  fallbackTable
	chain     []lookupFunc
}

// NewResolver builds a resolver over knowledge and the default fallback table.
func NewResolver(knowledge *Knowledge) *Resolver {
	return NewResolverWithFallback(knowledge, DefaultFallbackEntries())
}

// NewResolverWithFallback builds a resolver with a custom fallback table.
func NewResolverWithFallback(knowledge *Knowledge, entries []FallbackEntry) *Resolver {
	r := &Resolver{
		knowledge: knowledge,
		fallback:  newFallbackTable(entries),
	}
	r.chain = []lookupFunc{r.fromKnowledge, r.fromFallback, r.fromHealthy}
	return r
}

// Resolve returns the advisory for label in lang.
func (r *Resolver) Resolve(label string, lang Language) Advisory {
	for _, lookup := range r.chain {
		if adv, ok := lookup(label, lang); ok {
			return adv
		}
	}
	// Only reachable with a fallback table lacking a Healthy entry.
	return Advisory{
		AlternativeNames: []string{},
		AffectedCrops:    FallbackCrops(),
		Seasonality:      FallbackSeasonality,
		SpreadMethod:     FallbackSpreadMethod,
		Source:           SourceFallback,
	}
}

func (r *Resolver) fromKnowledge(label string, lang Language) (Advisory, bool) {
	rec, ok := r.knowledge.Lookup(label)
	if !ok {
		return Advisory{}, false
	}
	adv := Advisory{
		Symptoms:         pickText(lang, rec.SymptomsEN, rec.SymptomsHI),
		Treatment:        pickText(lang, rec.TreatmentEN, rec.TreatmentHI),
		Prevention:       pickText(lang, rec.PreventionEN, rec.PreventionHI),
		AlternativeNames: []string{rec.NameHI, rec.NameEN},
		AffectedCrops:    []string{rec.CropType},
		Seasonality:      KnowledgeSeasonality,
		SpreadMethod:     KnowledgeSpreadMethod,
		Source:           SourceKnowledge,
	}
	return adv, true
}

func (r *Resolver) fromFallback(label string, lang Language) (Advisory, bool) {
	entry, ok := r.fallback[label]
	if !ok {
		return Advisory{}, false
	}
	return entry.advisory(lang)
}

func (r *Resolver) fromHealthy(_ string, lang Language) (Advisory, bool) {
	return r.fromFallback(LabelHealthy, lang)
}

// pickText selects the Hindi variant for Hindi requests, using the English
// text when the record has no Hindi translation.
func pickText(lang Language, en, hi string) string {
	if lang == Hindi && strings.TrimSpace(hi) != "" {
		return hi
	}
	return en
}
