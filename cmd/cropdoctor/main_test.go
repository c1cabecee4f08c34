package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/cropdoctor/diagnosis"
)

const sampleKnowledge = "../../knowledge/rice.yaml"

// writeTestConfig points the CLI at a temp database and returns the config path.
func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	t.Setenv(diagnosis.EnvDatabasePath, "")
	t.Setenv(diagnosis.EnvLogLevel, "")
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cropdoctor.db")
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, diagnosis.SaveConfig(cfgPath, diagnosis.Config{
		DatabasePath: dbPath,
		RandomSeed:   7,
		Log:          diagnosis.LogConfig{Level: "error"},
	}))
	return cfgPath, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeImage(t *testing.T, dir, name string, size int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, bytes.Repeat([]byte{0xab}, size), 0o644))
	return p
}

func TestSeedAndListDiseases(t *testing.T) {
	cfgPath, dbPath := writeTestConfig(t)

	out, err := execute(t, "--config", cfgPath, "seed", sampleKnowledge)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 5 disease records into "+dbPath)

	out, err = execute(t, "--config", cfgPath, "diseases", "--search", "blight", "--json")
	require.NoError(t, err)
	var records []diagnosis.DiseaseRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Bacterial_Blight", records[0].NameEN)
	assert.Equal(t, "Sheath_Blight", records[1].NameEN)

	out, err = execute(t, "--config", cfgPath, "diseases", "--severity", "Medium")
	require.NoError(t, err)
	assert.Contains(t, out, "Brown_Spot")
	assert.Contains(t, out, "Tungro")
	assert.NotContains(t, out, "Leaf_Blast")
}

func TestSeed_RejectsBadColumnFlag(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	_, err := execute(t, "--config", cfgPath, "seed", "--column", "name_en", sampleKnowledge)
	assert.ErrorContains(t, err, "want field=column")
}

func TestDiagnose_JSONIsReproducibleWithSeed(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	dir := t.TempDir()
	files := []string{
		writeImage(t, dir, "a.jpg", 0),
		writeImage(t, dir, "b.jpg", 1234),
		writeImage(t, dir, "c.jpg", 98765),
	}

	args := append([]string{"--config", cfgPath, "diagnose", "--plant-part", "leaves", "--knowledge", sampleKnowledge, "--language", "hi"}, files...)
	first, err := execute(t, args...)
	require.NoError(t, err)

	var results []imageResult
	require.NoError(t, json.Unmarshal([]byte(first), &results))
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, files[i], r.File)
		assert.True(t, diagnosis.IsKnownLabel(r.Result.Disease))
		assert.Equal(t, diagnosis.Hindi, r.Result.Language)
		assert.Equal(t, "leaves", r.Result.PlantPart)
		assert.GreaterOrEqual(t, r.Result.Confidence, diagnosis.MinConfidence)
		assert.LessOrEqual(t, r.Result.Confidence, diagnosis.MaxConfidence)
	}

	second, err := execute(t, args...)
	require.NoError(t, err)
	var again []imageResult
	require.NoError(t, json.Unmarshal([]byte(second), &again))
	require.Len(t, again, 3)
	for i := range results {
		assert.Equal(t, results[i].Result.Disease, again[i].Result.Disease)
		assert.Equal(t, results[i].Result.Confidence, again[i].Result.Confidence)
		assert.Equal(t, results[i].Result.Treatment, again[i].Result.Treatment)
	}
}

func TestDiagnose_CSVReport(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	dir := t.TempDir()
	img := writeImage(t, dir, "leaf.jpg", 512)
	report := filepath.Join(dir, "out", "report.csv")

	out, err := execute(t, "--config", cfgPath, "diagnose", "--plant-part", "stem",
		"--knowledge", sampleKnowledge, "--format", "csv", "--output", report, img)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1 diagnoses to ")

	f, err := os.Open(report)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, resultCSVHeader, rows[0])
	assert.Equal(t, img, rows[1][0])
	assert.True(t, diagnosis.IsKnownLabel(rows[1][1]))
	assert.Equal(t, "stem", rows[1][5])
	assert.Equal(t, "en", rows[1][6])
}

func TestDiagnose_Errors(t *testing.T) {
	cfgPath, _ := writeTestConfig(t)
	dir := t.TempDir()
	img := writeImage(t, dir, "leaf.jpg", 10)

	_, err := execute(t, "--config", cfgPath, "diagnose", img)
	assert.ErrorContains(t, err, "--plant-part")

	_, err = execute(t, "--config", cfgPath, "diagnose", "--plant-part", "leaves")
	assert.Error(t, err)

	_, err = execute(t, "--config", cfgPath, "diagnose", "--plant-part", "leaves", "--format", "xml", img)
	assert.ErrorContains(t, err, "unknown format")

	_, err = execute(t, "--config", cfgPath, "diagnose", "--plant-part", "leaves", filepath.Join(dir, "missing.jpg"))
	assert.ErrorContains(t, err, "read image")
}

func TestParseColumnFlags(t *testing.T) {
	got, err := parseColumnFlags([]string{"name_en=Disease", " symptoms_hi = #4 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name_en": "Disease", "symptoms_hi": "#4"}, got)

	got, err = parseColumnFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseColumnFlags([]string{"=x"})
	assert.Error(t, err)
}
