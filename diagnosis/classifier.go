package diagnosis

import "math"

// Confidence bounds of a simulated classification, in percent.
const (
	MinConfidence = 65.0
	MaxConfidence = 95.0
)

// candidate describes the weight of one label before normalization:
//
//	base + (imageSize % sizeMod) / sizeDiv + plantPartFactor * partScale
type candidate struct {
	Label     string
	Base      float64
	SizeMod   int
	SizeDiv   float64
	PartScale float64
}

var candidates = []candidate{
	{Label: LabelHealthy, Base: 0.25, SizeMod: 500, SizeDiv: 5000},
	{Label: LabelBacterialBlight, Base: 0.15, PartScale: 0.10},
	{Label: LabelBrownSpot, Base: 0.12, SizeMod: 1000, SizeDiv: 10000},
	{Label: LabelLeafBlast, Base: 0.18, PartScale: 0.05},
	{Label: LabelLeafScald, Base: 0.08, SizeMod: 300, SizeDiv: 8000},
	{Label: LabelNarrowBrownSpot, Base: 0.06, SizeMod: 700, SizeDiv: 14000},
	{Label: LabelRiceHispa, Base: 0.05, PartScale: 0.04},
	{Label: LabelSheathBlight, Base: 0.10, PartScale: 0.08},
	{Label: LabelSheathRot, Base: 0.06, SizeMod: 400, SizeDiv: 16000, PartScale: 0.02},
	{Label: LabelTungro, Base: 0.12, PartScale: 0.03},
}

var plantPartFactors = map[string]float64{
	"leaves": 1.0,
	"stem":   0.8,
	"fruit":  0.6,
	"root":   0.4,
}

const unknownPlantPartFactor = 0.5

// Labels returns the fixed classification labels in declaration order.
func Labels() []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Label
	}
	return out
}

// IsKnownLabel reports whether label is one of the fixed classification labels.
func IsKnownLabel(label string) bool {
	for _, c := range candidates {
		if c.Label == label {
			return true
		}
	}
	return false
}

// PlantPartFactor returns the weighting factor of a plant part; unknown parts get 0.5.
func PlantPartFactor(plantPart string) float64 {
	if f, ok := plantPartFactors[NormalizePlantPart(plantPart)]; ok {
		return f
	}
	return unknownPlantPartFactor
}

// Prediction is the raw output of a classification.
type Prediction struct {
	Label       string
	Confidence  float64
	Probability float64
}

// Classifier simulates an image classifier over the fixed label set.
// It performs no I/O; all randomness comes from the injected source.
type Classifier struct {
	rnd RandomSource
}

// NewClassifier returns a classifier drawing from rnd, or from the process
// wide generator when rnd is nil.
func NewClassifier(rnd RandomSource) *Classifier {
	if rnd == nil {
		rnd = DefaultRandom()
	}
	return &Classifier{rnd: rnd}
}

// Distribution returns the normalized selection probabilities for an image of
// imageSize bytes taken from plantPart, in declaration order.
func Distribution(imageSize int, plantPart string) []float64 {
	if imageSize < 0 {
		imageSize = 0
	}
	factor := PlantPartFactor(plantPart)
	weights := make([]float64, len(candidates))
	var total float64
	for i, c := range candidates {
		w := c.Base + factor*c.PartScale
		if c.SizeMod > 0 && c.SizeDiv > 0 {
			w += float64(imageSize%c.SizeMod) / c.SizeDiv
		}
		weights[i] = w
		total += w
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}

// Classify draws a label for an image of imageSize bytes and scores its confidence.
func (c *Classifier) Classify(imageSize int, plantPart string) Prediction {
	probs := Distribution(imageSize, plantPart)
	idx := selectIndex(probs, clampUnit(c.rnd.Float64()))

	p := probs[idx]
	confidence := p*100 + (clampUnit(c.rnd.Float64())-0.5)*20
	confidence = math.Min(MaxConfidence, math.Max(MinConfidence, confidence))
	return Prediction{
		Label:       candidates[idx].Label,
		Confidence:  roundTo2(confidence),
		Probability: p,
	}
}

// selectIndex walks probs accumulating a running total and returns the first
// index whose cumulative sum reaches draw. Rounding can leave the final sum a
// hair under 1, in which case the last index owns the remainder.
func selectIndex(probs []float64, draw float64) int {
	var cumulative float64
	for i, p := range probs {
		cumulative += p
		if draw <= cumulative {
			return i
		}
	}
	return len(probs) - 1
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v >= 1 {
		return math.Nextafter(1, 0)
	}
	return v
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
