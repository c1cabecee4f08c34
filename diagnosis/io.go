package diagnosis

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RecordParseOptions controls how CSV/TSV knowledge files map onto record fields.
type RecordParseOptions struct {
	// Columns pins a field to a header name or a 1-based "#N" index.
	Columns map[string]string
	// Candidates overrides the header names used for auto-detection.
	Candidates ColumnCandidates
}

// ParseDiseaseRecords reads disease records from a YAML, JSON, CSV or TSV file.
func ParseDiseaseRecords(path string) ([]DiseaseRecord, error) {
	return ParseDiseaseRecordsWithOptions(path, RecordParseOptions{})
}

// ParseDiseaseRecordsWithOptions allows callers to specify column mappings when reading delimited files.
func ParseDiseaseRecordsWithOptions(path string, opts RecordParseOptions) ([]DiseaseRecord, error) {
	var (
		records []DiseaseRecord
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = parseDelimitedRecords(path, ',', opts)
	case ".tsv":
		records, err = parseDelimitedRecords(path, '\t', opts)
	case ".yaml", ".yml", ".json":
		records, err = parseDocumentRecords(path)
	default:
		return nil, fmt.Errorf("unsupported knowledge file type: %s", filepath.Base(path))
	}
	if err != nil {
		return nil, err
	}
	records = cleanRecords(records)
	if len(records) == 0 {
		return nil, fmt.Errorf("no disease records found in %s", path)
	}
	return records, nil
}

// FileProvider reads the knowledge store from a file on every load.
type FileProvider struct {
	Path    string
	Options RecordParseOptions
}

// AllDiseaseRecords implements KnowledgeProvider.
func (p FileProvider) AllDiseaseRecords(context.Context) ([]DiseaseRecord, error) {
	return ParseDiseaseRecordsWithOptions(p.Path, p.Options)
}

// parseDocumentRecords accepts either a top-level list of records or a mapping
// with a "diseases" list. JSON documents go through the same YAML decoder.
func parseDocumentRecords(path string) ([]DiseaseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var doc struct {
		Diseases []DiseaseRecord `yaml:"diseases"`
	}
	docErr := yaml.Unmarshal(data, &doc)
	if docErr == nil && len(doc.Diseases) > 0 {
		return doc.Diseases, nil
	}
	var list []DiseaseRecord
	if err := yaml.Unmarshal(data, &list); err != nil {
		if docErr == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return list, nil
}

func parseDelimitedRecords(path string, comma rune, opts RecordParseOptions) ([]DiseaseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file")
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	cols, err := resolveRecordColumns(header, opts)
	if err != nil {
		return nil, err
	}
	if cols[FieldNameEN] < 0 {
		return nil, fmt.Errorf("no %s column found in %s", FieldNameEN, filepath.Base(path))
	}
	records := make([]DiseaseRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(field string) string {
			idx := cols[field]
			if idx < 0 || idx >= len(row) {
				return ""
			}
			return cleanCell(row[idx])
		}
		records = append(records, DiseaseRecord{
			NameEN:        cell(FieldNameEN),
			NameHI:        cell(FieldNameHI),
			DescriptionEN: cell(FieldDescriptionEN),
			DescriptionHI: cell(FieldDescriptionHI),
			SymptomsEN:    cell(FieldSymptomsEN),
			SymptomsHI:    cell(FieldSymptomsHI),
			TreatmentEN:   cell(FieldTreatmentEN),
			TreatmentHI:   cell(FieldTreatmentHI),
			PreventionEN:  cell(FieldPreventionEN),
			PreventionHI:  cell(FieldPreventionHI),
			CropType:      cell(FieldCropType),
			SeverityLevel: cell(FieldSeverityLevel),
			ImageURL:      cell(FieldImageURL),
		})
	}
	return records, nil
}

// cleanRecords trims every field and drops unnamed or duplicate records.
// The first record for a lookup key wins, matching NewKnowledge.
func cleanRecords(records []DiseaseRecord) []DiseaseRecord {
	out := make([]DiseaseRecord, 0, len(records))
	seen := make(map[string]struct{})
	for _, rec := range records {
		rec = trimRecord(rec)
		key := rec.Key()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func trimRecord(r DiseaseRecord) DiseaseRecord {
	r.NameEN = NormalizeText(r.NameEN)
	r.NameHI = NormalizeText(r.NameHI)
	r.DescriptionEN = strings.TrimSpace(r.DescriptionEN)
	r.DescriptionHI = strings.TrimSpace(r.DescriptionHI)
	r.SymptomsEN = strings.TrimSpace(r.SymptomsEN)
	r.SymptomsHI = strings.TrimSpace(r.SymptomsHI)
	r.TreatmentEN = strings.TrimSpace(r.TreatmentEN)
	r.TreatmentHI = strings.TrimSpace(r.TreatmentHI)
	r.PreventionEN = strings.TrimSpace(r.PreventionEN)
	r.PreventionHI = strings.TrimSpace(r.PreventionHI)
	r.CropType = strings.TrimSpace(r.CropType)
	r.SeverityLevel = strings.TrimSpace(r.SeverityLevel)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	return r
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

func findColumn(header []string, candidates []string) int {
	for i, col := range header {
		for _, cand := range candidates {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

// resolveRecordColumns returns the column index of every record field, -1 when absent.
func resolveRecordColumns(header []string, opts RecordParseOptions) (map[string]int, error) {
	candidates := opts.Candidates.withDefaults()
	out := make(map[string]int, len(candidates))
	for field, names := range candidates {
		if explicit := strings.TrimSpace(opts.Columns[field]); explicit != "" {
			idx, err := matchExplicitColumn(header, explicit)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", field, err)
			}
			out[field] = idx
			continue
		}
		out[field] = findColumn(header, names)
	}
	return out, nil
}

func matchExplicitColumn(header []string, explicit string) (int, error) {
	trimmed := strings.TrimSpace(explicit)
	for i, col := range header {
		if strings.EqualFold(col, trimmed) {
			return i, nil
		}
	}
	if strings.HasPrefix(trimmed, "#") {
		idx, err := parseColumnIndex(trimmed)
		if err != nil {
			return -1, err
		}
		if idx >= len(header) {
			return -1, fmt.Errorf("column index %s is out of range", trimmed)
		}
		return idx, nil
	}
	return -1, fmt.Errorf("column %q not found", explicit)
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	if trimmed == "" {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, fmt.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}
