package dataset

import (
	"fmt"

	"github.com/KaramelBytes/tally-cli/internal/summary"
)

// RecordSpec names the frame fields that feed a summary.Record.
type RecordSpec struct {
	Category string `yaml:"category" json:"category"`
	Subgroup string `yaml:"subgroup,omitempty" json:"subgroup,omitempty"`
	// Value names a numeric field. Empty counts each row as 1.
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
	// DropMissingSubgroup drops rows whose subgroup cell is empty.
	DropMissingSubgroup bool `yaml:"drop_missing_subgroup,omitempty" json:"drop_missing_subgroup,omitempty"`
}

// Extraction is the outcome of Records.
type Extraction struct {
	Records  []summary.Record
	Dropped  int
	Warnings []string
}

const maxRowWarnings = 5

// Records converts frame rows into records. Rows with an empty category, or an
// unparseable value, are dropped and counted.
func Records(f *Frame, spec RecordSpec, nf NumberFormat) (*Extraction, error) {
	if spec.Category == "" {
		return nil, &SchemaMismatchError{Table: f.Name, Reason: "no category field configured"}
	}
	for _, field := range []string{spec.Category, spec.Subgroup, spec.Value} {
		if field == "" {
			continue
		}
		if _, ok := f.Index(field); !ok {
			return nil, &SchemaMismatchError{Table: f.Name, Reason: fmt.Sprintf("unknown field %q", field)}
		}
	}
	out := &Extraction{Records: make([]summary.Record, 0, len(f.Rows))}
	var missingCat, missingSub, badValue int
	for i := range f.Rows {
		cat := f.Value(i, spec.Category)
		if cat == "" {
			missingCat++
			continue
		}
		rec := summary.Record{Category: cat, Value: 1}
		if spec.Subgroup != "" {
			rec.Subgroup = f.Value(i, spec.Subgroup)
			if rec.Subgroup == "" && spec.DropMissingSubgroup {
				missingSub++
				continue
			}
		}
		if spec.Value != "" {
			raw := f.Value(i, spec.Value)
			v, ok := ParseNumber(raw, nf)
			if !ok {
				if badValue < maxRowWarnings {
					out.Warnings = append(out.Warnings, fmt.Sprintf("row %d: %s value %q is not numeric", i+1, spec.Value, raw))
				}
				badValue++
				continue
			}
			rec.Value = v
		}
		out.Records = append(out.Records, rec)
	}
	if missingCat > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("dropped %d rows with empty %s", missingCat, spec.Category))
	}
	if missingSub > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("dropped %d rows with empty %s", missingSub, spec.Subgroup))
	}
	if badValue > maxRowWarnings {
		out.Warnings = append(out.Warnings, fmt.Sprintf("dropped %d rows with non-numeric %s", badValue, spec.Value))
	}
	out.Dropped = missingCat + missingSub + badValue
	return out, nil
}
