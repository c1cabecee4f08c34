package diagnosis

var (
	severeDiseases = map[string]struct{}{
		LabelBacterialBlight: {},
		LabelLeafBlast:       {},
		LabelTungro:          {},
	}
	moderateDiseases = map[string]struct{}{
		LabelBrownSpot:    {},
		LabelSheathBlight: {},
	}
)

// SeverityFor maps a disease label and its confidence percentage to a risk tier.
// Healthy is always Low; otherwise the label's tier decides which confidence
// threshold escalates the rating.
func SeverityFor(label string, confidence float64) Severity {
	if IsHealthyLabel(label) {
		return SeverityLow
	}
	if _, ok := severeDiseases[label]; ok {
		if confidence > 80 {
			return SeverityHigh
		}
		return SeverityMedium
	}
	if _, ok := moderateDiseases[label]; ok {
		if confidence > 85 {
			return SeverityMedium
		}
		return SeverityLow
	}
	if confidence > 90 {
		return SeverityMedium
	}
	return SeverityLow
}
