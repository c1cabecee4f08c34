package diagnosis

// Record fields addressable in CSV/TSV knowledge files.
const (
	FieldNameEN        = "name_en"
	FieldNameHI        = "name_hi"
	FieldDescriptionEN = "description_en"
	FieldDescriptionHI = "description_hi"
	FieldSymptomsEN    = "symptoms_en"
	FieldSymptomsHI    = "symptoms_hi"
	FieldTreatmentEN   = "treatment_en"
	FieldTreatmentHI   = "treatment_hi"
	FieldPreventionEN  = "prevention_en"
	FieldPreventionHI  = "prevention_hi"
	FieldCropType      = "crop_type"
	FieldSeverityLevel = "severity_level"
	FieldImageURL      = "image_url"
)

// ColumnCandidates maps each record field to header names accepted during
// auto-detection.
type ColumnCandidates map[string][]string

// DefaultColumnCandidates returns the built-in column detection candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		FieldNameEN:        {"name_en", "name", "english name", "disease", "label"},
		FieldNameHI:        {"name_hi", "hindi name", "नाम"},
		FieldDescriptionEN: {"description_en", "description"},
		FieldDescriptionHI: {"description_hi", "विवरण"},
		FieldSymptomsEN:    {"symptoms_en", "symptoms"},
		FieldSymptomsHI:    {"symptoms_hi", "लक्षण"},
		FieldTreatmentEN:   {"treatment_en", "treatment"},
		FieldTreatmentHI:   {"treatment_hi", "उपचार"},
		FieldPreventionEN:  {"prevention_en", "prevention"},
		FieldPreventionHI:  {"prevention_hi", "रोकथाम"},
		FieldCropType:      {"crop_type", "crop", "फसल"},
		FieldSeverityLevel: {"severity_level", "severity"},
		FieldImageURL:      {"image_url", "image", "url"},
	}
}

// withDefaults fills fields left nil with the built-in candidates, so callers
// can override only the parts they need.
func (c ColumnCandidates) withDefaults() ColumnCandidates {
	defaults := DefaultColumnCandidates()
	out := make(ColumnCandidates, len(defaults))
	for field, fallback := range defaults {
		out[field] = pickStrings(c[field], fallback)
	}
	return out
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
