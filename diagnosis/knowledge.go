package diagnosis

import (
	"context"
	"sort"
)

// KnowledgeProvider supplies the disease records the engine indexes at startup.
type KnowledgeProvider interface {
	AllDiseaseRecords(ctx context.Context) ([]DiseaseRecord, error)
}

// StaticProvider serves a fixed record list.
type StaticProvider []DiseaseRecord

// AllDiseaseRecords implements KnowledgeProvider.
func (p StaticProvider) AllDiseaseRecords(context.Context) ([]DiseaseRecord, error) {
	out := make([]DiseaseRecord, len(p))
	copy(out, p)
	return out, nil
}

// Knowledge is an immutable lookup map over disease records keyed by LookupKey.
// Once built it is only read, so concurrent lookups need no locking.
type Knowledge struct {
	records map[string]DiseaseRecord
}

// NewKnowledge indexes records. Records without an English name are skipped;
// when two records share a lookup key the first one wins, as in ParseDiseaseRecords.
func NewKnowledge(records []DiseaseRecord) *Knowledge {
	k := &Knowledge{records: make(map[string]DiseaseRecord, len(records))}
	for _, rec := range records {
		key := rec.Key()
		if key == "" {
			continue
		}
		if _, dup := k.records[key]; dup {
			continue
		}
		k.records[key] = rec
	}
	return k
}

// Lookup finds the record for a label or English name.
func (k *Knowledge) Lookup(label string) (DiseaseRecord, bool) {
	if k == nil {
		return DiseaseRecord{}, false
	}
	rec, ok := k.records[LookupKey(label)]
	return rec, ok
}

// Size returns the number of indexed records.
func (k *Knowledge) Size() int {
	if k == nil {
		return 0
	}
	return len(k.records)
}

// Keys returns the indexed lookup keys in sorted order.
func (k *Knowledge) Keys() []string {
	if k == nil {
		return nil
	}
	keys := make([]string, 0, len(k.records))
	for key := range k.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
