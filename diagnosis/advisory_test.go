package diagnosis

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []DiseaseRecord {
	return []DiseaseRecord{
		{
			NameEN:       "Leaf Blast",
			NameHI:       "पत्ती झुलसा",
			SymptomsEN:   "Diamond shaped lesions with grey centres",
			SymptomsHI:   "धूसर केंद्र वाले हीरे के आकार के घाव",
			TreatmentEN:  "Spray tricyclazole at boot stage",
			TreatmentHI:  "बूट अवस्था में ट्राइसाइक्लाज़ोल का छिड़काव करें",
			PreventionEN: "Avoid excess nitrogen",
			PreventionHI: "अधिक नाइट्रोजन से बचें",
			CropType:     "Rice",
		},
		{
			NameEN:       "Sheath Rot",
			NameHI:       "शीथ सड़न",
			SymptomsEN:   "Rotting of the uppermost leaf sheath",
			TreatmentEN:  "Apply carbendazim",
			PreventionEN: "Remove infected stubble",
			CropType:     "Rice",
		},
	}
}

func TestNewKnowledge_FirstDuplicateWins(t *testing.T) {
	k := NewKnowledge([]DiseaseRecord{
		{NameEN: "Leaf Blast", TreatmentEN: "first"},
		{NameEN: ""},
		{NameEN: "leaf_blast", TreatmentEN: "second"},
	})
	assert.Equal(t, 1, k.Size())
	assert.Equal(t, []string{"leaf blast"}, k.Keys())
	rec, ok := k.Lookup("LEAF_BLAST")
	require.True(t, ok)
	assert.Equal(t, "first", rec.TreatmentEN)
}

func TestResolver_KnowledgeHit(t *testing.T) {
	r := NewResolver(NewKnowledge(sampleRecords()))

	got := r.Resolve(LabelLeafBlast, Hindi)
	want := Advisory{
		Symptoms:         "धूसर केंद्र वाले हीरे के आकार के घाव",
		Treatment:        "बूट अवस्था में ट्राइसाइक्लाज़ोल का छिड़काव करें",
		Prevention:       "अधिक नाइट्रोजन से बचें",
		AlternativeNames: []string{"पत्ती झुलसा", "Leaf Blast"},
		AffectedCrops:    []string{"Rice"},
		Seasonality:      KnowledgeSeasonality,
		SpreadMethod:     KnowledgeSpreadMethod,
		Source:           SourceKnowledge,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve(Leaf_Blast, hi) mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_KnowledgeMissingHindiUsesEnglish(t *testing.T) {
	r := NewResolver(NewKnowledge(sampleRecords()))
	got := r.Resolve(LabelSheathRot, Hindi)
	assert.Equal(t, "Rotting of the uppermost leaf sheath", got.Symptoms)
	assert.Equal(t, SourceKnowledge, got.Source)
}

func TestResolver_LookupKeyIsCaseAndUnderscoreInsensitive(t *testing.T) {
	r := NewResolver(NewKnowledge(sampleRecords()))
	for _, label := range []string{"Leaf_Blast", "leaf blast", "LEAF_BLAST", " leaf__blast "} {
		assert.Equal(t, SourceKnowledge, r.Resolve(label, English).Source, label)
	}
}

func TestResolver_StaticFallbackEnglish(t *testing.T) {
	r := NewResolver(NewKnowledge(nil))
	got := r.Resolve(LabelBacterialBlight, English)
	assert.Equal(t, "Water-soaked lesions on leaves, yellowing and wilting of affected areas", got.Symptoms)
	assert.Equal(t, []string{"Rice", "Wheat", "Corn"}, got.AffectedCrops)
	assert.Equal(t, "Variable", got.Seasonality)
	assert.Equal(t, "Environmental factors", got.SpreadMethod)
	assert.Empty(t, got.AlternativeNames)
	assert.NotNil(t, got.AlternativeNames)
	assert.Equal(t, SourceFallback, got.Source)
}

func TestResolver_UnknownLabelFallsBackToHealthy(t *testing.T) {
	r := NewResolver(NewKnowledge(sampleRecords()))

	got := r.Resolve("unknown_disease_xyz", ParseLanguage("hi"))
	assert.Equal(t, "कोई रोग के लक्षण नहीं मिले। पौधा स्वस्थ दिखता है", got.Symptoms)
	assert.Equal(t, "नियमित देखभाल और निगरानी जारी रखें", got.Treatment)
	assert.Equal(t, SourceFallback, got.Source)
}

func TestResolver_FallbackLabelIsExactMatch(t *testing.T) {
	r := NewResolver(nil)
	// Static entries are keyed by the exact classifier label.
	got := r.Resolve("brown_spot", English)
	assert.Equal(t, "No disease symptoms detected. Plant appears healthy", got.Symptoms)
}

func TestResolver_MissingLanguageVariantUsesEnglish(t *testing.T) {
	entries := []FallbackEntry{{
		Label: LabelHealthy,
		Texts: map[Language]AdvisoryText{
			English: {Symptoms: "fine", Treatment: "none", Prevention: "watch"},
		},
	}}
	r := NewResolverWithFallback(nil, entries)
	got := r.Resolve(LabelTungro, Hindi)
	assert.Equal(t, "fine", got.Symptoms)
}

func TestResolver_EmptyFallbackTableStillAnswers(t *testing.T) {
	r := NewResolverWithFallback(nil, nil)
	got := r.Resolve(LabelTungro, English)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, FallbackSeasonality, got.Seasonality)
}

func TestResolver_Idempotent(t *testing.T) {
	r := NewResolver(NewKnowledge(sampleRecords()))
	for _, label := range append(Labels(), "unknown_disease_xyz") {
		for _, lang := range []Language{English, Hindi} {
			first, err := json.Marshal(r.Resolve(label, lang))
			require.NoError(t, err)
			second, err := json.Marshal(r.Resolve(label, lang))
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second), "%s/%s", label, lang)
		}
	}
}

func TestResolver_ResultsDoNotShareSlices(t *testing.T) {
	r := NewResolver(nil)
	a := r.Resolve(LabelHealthy, English)
	a.AffectedCrops[0] = "Millet"
	b := r.Resolve(LabelHealthy, English)
	assert.Equal(t, "Rice", b.AffectedCrops[0])
}
