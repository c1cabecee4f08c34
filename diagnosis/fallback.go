package diagnosis

// Metadata returned with knowledge store records. The store keeps no per-record
// seasonality or spread data, so these are fixed.
const (
	KnowledgeSeasonality  = "Monsoon and post-monsoon"
	KnowledgeSpreadMethod = "Water, wind, and infected seeds"
)

// Metadata returned with built-in fallback entries.
const (
	FallbackSeasonality  = "Variable"
	FallbackSpreadMethod = "Environmental factors"
)

// FallbackCrops lists the crops reported for built-in fallback entries.
func FallbackCrops() []string {
	return []string{"Rice", "Wheat", "Corn"}
}

// AdvisoryText is one language variant of a built-in fallback entry.
type AdvisoryText struct {
	Symptoms   string
	Treatment  string
	Prevention string
}

// FallbackEntry is the built-in advisory for a label, keyed by language.
type FallbackEntry struct {
	Label string
	Texts map[Language]AdvisoryText
}

// DefaultFallbackEntries returns the advisory table consulted when the knowledge
// store has no record for a label.
func DefaultFallbackEntries() []FallbackEntry {
	return []FallbackEntry{
		{
			Label: LabelBacterialBlight,
			Texts: map[Language]AdvisoryText{
				English: {
					Symptoms:   "Water-soaked lesions on leaves, yellowing and wilting of affected areas",
					Treatment:  "Apply copper-based bactericides, remove infected plant parts, improve drainage",
					Prevention: "Use disease-free seeds, maintain proper plant spacing, avoid overhead irrigation",
				},
				Hindi: {
					Symptoms:   "पत्तियों पर पानी से भीगे घाव, प्रभावित क्षेत्रों का पीला होना और मुरझाना",
					Treatment:  "कॉपर आधारित बैक्टीरियासाइड लगाएं, संक्रमित पौधे के हिस्सों को हटाएं, जल निकासी में सुधार करें",
					Prevention: "रोग मुक्त बीजों का उपयोग करें, उचित पौधे की दूरी बनाए रखें, ऊपर से सिंचाई से बचें",
				},
			},
		},
		{
			Label: LabelBrownSpot,
			Texts: map[Language]AdvisoryText{
				English: {
					Symptoms:   "Small brown spots with yellow halos on leaves, spots may coalesce",
					Treatment:  "Apply fungicide sprays, improve air circulation, remove infected debris",
					Prevention: "Balanced fertilization, proper water management, crop rotation",
				},
				Hindi: {
					Symptoms:   "पत्तियों पर पीले हेलो के साथ छोटे भूरे धब्बे, धब्बे मिल सकते हैं",
					Treatment:  "फंगीसाइड स्प्रे करें, हवा संचार में सुधार करें, संक्रमित मलबे को हटाएं",
					Prevention: "संतुलित उर्वरीकरण, उचित जल प्रबंधन, फसल चक्र",
				},
			},
		},
		{
			Label: LabelHealthy,
			Texts: map[Language]AdvisoryText{
				English: {
					Symptoms:   "No disease symptoms detected. Plant appears healthy",
					Treatment:  "Continue regular care and monitoring",
					Prevention: "Maintain good agricultural practices, regular monitoring",
				},
				Hindi: {
					Symptoms:   "कोई रोग के लक्षण नहीं मिले। पौधा स्वस्थ दिखता है",
					Treatment:  "नियमित देखभाल और निगरानी जारी रखें",
					Prevention: "अच्छी कृषि प्रथाओं को बनाए रखें, नियमित निगरानी करें",
				},
			},
		},
	}
}

// fallbackTable indexes fallback entries by exact label.
type fallbackTable map[string]FallbackEntry

func newFallbackTable(entries []FallbackEntry) fallbackTable {
	t := make(fallbackTable, len(entries))
	for _, e := range entries {
		t[e.Label] = e
	}
	return t
}

// advisory renders the entry for lang, falling back to English when the entry
// has no variant for lang.
func (e FallbackEntry) advisory(lang Language) (Advisory, bool) {
	text, ok := e.Texts[lang]
	if !ok {
		text, ok = e.Texts[English]
	}
	if !ok {
		return Advisory{}, false
	}
	return Advisory{
		Symptoms:         text.Symptoms,
		Treatment:        text.Treatment,
		Prevention:       text.Prevention,
		AlternativeNames: []string{},
		AffectedCrops:    FallbackCrops(),
		Seasonality:      FallbackSeasonality,
		SpreadMethod:     FallbackSpreadMethod,
		Source:           SourceFallback,
	}, true
}
