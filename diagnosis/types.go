package diagnosis

import (
	"strings"
	"time"
)

// Severity is the risk tier derived from a label and its confidence.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Disease labels produced by the classifier, in declaration order.
const (
	LabelHealthy         = "Healthy"
	LabelBacterialBlight = "Bacterial_Blight"
	LabelBrownSpot       = "Brown_Spot"
	LabelLeafBlast       = "Leaf_Blast"
	LabelLeafScald       = "Leaf_Scald"
	LabelNarrowBrownSpot = "Narrow_Brown_Spot"
	LabelRiceHispa       = "Rice_Hispa"
	LabelSheathBlight    = "Sheath_Blight"
	LabelSheathRot       = "Sheath_Rot"
	LabelTungro          = "Tungro"
)

// Advisory sources reported in AdditionalInfo.Source.
const (
	SourceKnowledge = "knowledge"
	SourceFallback  = "fallback"
)

// DiseaseRecord is a structured bilingual entry of the knowledge store.
type DiseaseRecord struct {
	ID            int64  `json:"id,omitempty" yaml:"id,omitempty"`
	NameEN        string `json:"name_en" yaml:"name_en"`
	NameHI        string `json:"name_hi" yaml:"name_hi"`
	DescriptionEN string `json:"description_en" yaml:"description_en"`
	DescriptionHI string `json:"description_hi" yaml:"description_hi"`
	SymptomsEN    string `json:"symptoms_en" yaml:"symptoms_en"`
	SymptomsHI    string `json:"symptoms_hi" yaml:"symptoms_hi"`
	TreatmentEN   string `json:"treatment_en" yaml:"treatment_en"`
	TreatmentHI   string `json:"treatment_hi" yaml:"treatment_hi"`
	PreventionEN  string `json:"prevention_en" yaml:"prevention_en"`
	PreventionHI  string `json:"prevention_hi" yaml:"prevention_hi"`
	CropType      string `json:"crop_type" yaml:"crop_type"`
	SeverityLevel string `json:"severity_level" yaml:"severity_level"`
	ImageURL      string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// Key returns the normalized lookup key of the record.
func (r DiseaseRecord) Key() string {
	return LookupKey(r.NameEN)
}

// Advisory is the user facing guidance for a disease label.
type Advisory struct {
	Symptoms         string   `json:"symptoms"`
	Treatment        string   `json:"treatment"`
	Prevention       string   `json:"prevention"`
	AlternativeNames []string `json:"alternativeNames"`
	AffectedCrops    []string `json:"affectedCrops"`
	Seasonality      string   `json:"seasonality"`
	SpreadMethod     string   `json:"spreadMethod"`
	Source           string   `json:"source"`
}

// AdditionalInfo carries supplementary metadata of a diagnosis.
type AdditionalInfo struct {
	AlternativeNames []string `json:"alternativeNames"`
	AffectedCrops    []string `json:"affectedCrops"`
	Seasonality      string   `json:"seasonality"`
	SpreadMethod     string   `json:"spreadMethod"`
	Source           string   `json:"source"`
}

// Result is a completed diagnosis. It is built once per request and never mutated.
type Result struct {
	Disease        string         `json:"disease"`
	Confidence     float64        `json:"confidence"`
	Severity       Severity       `json:"severity"`
	Symptoms       string         `json:"symptoms"`
	Treatment      string         `json:"treatment"`
	Prevention     string         `json:"prevention"`
	IsHealthy      bool           `json:"isHealthy"`
	PlantPart      string         `json:"plantPart"`
	Language       Language       `json:"language"`
	Timestamp      time.Time      `json:"timestamp"`
	AdditionalInfo AdditionalInfo `json:"additionalInfo"`
}

// IsHealthyLabel reports whether the label denotes the absence of disease.
func IsHealthyLabel(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), LabelHealthy)
}

// LogConfig selects zap's level and encoder.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	DatabasePath    string    `json:"databasePath"`
	KnowledgeFile   string    `json:"knowledgeFile"`
	Listen          string    `json:"listen"`
	DefaultLanguage Language  `json:"defaultLanguage"`
	MaxUploadBytes  int64     `json:"maxUploadBytes"`
	RandomSeed      uint64    `json:"randomSeed"`
	Log             LogConfig `json:"log"`
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.DatabasePath == "" {
		c.DatabasePath = "./data/cropdoctor.db"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	c.DefaultLanguage = ParseLanguage(string(c.DefaultLanguage))
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 10 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}
