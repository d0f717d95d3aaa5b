// Package recipe describes a summarization pipeline as a YAML document.
package recipe

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/tally-cli/internal/dataset"
	"github.com/KaramelBytes/tally-cli/internal/source"
	"github.com/KaramelBytes/tally-cli/internal/summary"
	"gopkg.in/yaml.v3"
)

// Ratio reference modes.
const (
	ReferenceCategory = "category"
	ReferenceGrand    = "grand"
)

// Zero-reference policies.
const (
	OnZeroError = "error"
	OnZeroSkip  = "skip"
)

// Recipe is one end-to-end summarization.
type Recipe struct {
	Name     string             `yaml:"name"`
	Title    string             `yaml:"title,omitempty"`
	Subtitle string             `yaml:"subtitle,omitempty"`
	Caption  string             `yaml:"caption,omitempty"`
	Source   Source             `yaml:"source"`
	Schema   dataset.Schema     `yaml:"schema"`
	Filters  []dataset.Filter   `yaml:"filters,omitempty"`
	Record   dataset.RecordSpec `yaml:"record"`
	Collapse Collapse           `yaml:"collapse,omitempty"`
	Ratio    Ratio              `yaml:"ratio,omitempty"`
	Chart    Chart              `yaml:"chart,omitempty"`
	Numbers  Numbers            `yaml:"numbers,omitempty"`
}

// Source locates the input table.
type Source struct {
	URL       string `yaml:"url,omitempty"`
	Format    string `yaml:"format,omitempty"`
	Sheet     string `yaml:"sheet,omitempty"`
	Delimiter string `yaml:"delimiter,omitempty"`
	SkipRows  int    `yaml:"skip_rows,omitempty"`
}

// Collapse configures which categories survive lumping. The keep set is the
// union of Keep, the TopN largest and those reaching MinValue. When none is
// set, nothing is collapsed.
type Collapse struct {
	Keep       []string `yaml:"keep,omitempty"`
	TopN       int      `yaml:"top_n,omitempty"`
	MinValue   float64  `yaml:"min_value,omitempty"`
	OtherLabel string   `yaml:"other_label,omitempty"`
}

// Enabled reports whether any keep rule is configured.
func (c Collapse) Enabled() bool {
	return len(c.Keep) > 0 || c.TopN > 0 || c.MinValue > 0
}

// Ratio selects the denominator and the zero-denominator policy.
type Ratio struct {
	Reference string `yaml:"reference,omitempty"`
	OnZero    string `yaml:"on_zero,omitempty"`
}

// Chart carries display hints for renderers.
type Chart struct {
	// Vertical draws columns instead of the default horizontal bars.
	Vertical   bool   `yaml:"vertical,omitempty"`
	TitleCase  bool   `yaml:"title_case,omitempty"`
	ValueLabel string `yaml:"value_label,omitempty"`
}

// Numbers pins separators for numeric cells.
type Numbers struct {
	Decimal   string `yaml:"decimal,omitempty"`
	Thousands string `yaml:"thousands,omitempty"`
}

// Parse decodes a recipe, applies defaults and validates it.
func Parse(data []byte) (*Recipe, error) {
	var r Recipe
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("parse recipe: %w", err)
	}
	r.ApplyDefaults()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Load reads and parses a recipe file.
func Load(path string) (*Recipe, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	r, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Marshal encodes the recipe back to YAML.
func (r *Recipe) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("marshal recipe: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal recipe: %w", err)
	}
	return buf.Bytes(), nil
}

// ApplyDefaults fills unset policy fields.
func (r *Recipe) ApplyDefaults() {
	if r.Schema.Mode == "" {
		r.Schema.Mode = dataset.ModePosition
	}
	if r.Ratio.Reference == "" {
		if r.Record.Subgroup != "" {
			r.Ratio.Reference = ReferenceCategory
		} else {
			r.Ratio.Reference = ReferenceGrand
		}
	}
	if r.Ratio.OnZero == "" {
		r.Ratio.OnZero = OnZeroError
	}
	if r.Collapse.OtherLabel == "" {
		r.Collapse.OtherLabel = summary.DefaultOtherLabel
	}
	if r.Title == "" {
		r.Title = r.Name
	}
}

// Validate checks the recipe is internally consistent. The source URL may
// be empty; callers supply it at run time.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("recipe: name is required")
	}
	if strings.TrimSpace(r.Record.Category) == "" {
		return fmt.Errorf("recipe %s: record.category is required", r.Name)
	}
	switch r.Schema.Mode {
	case dataset.ModePosition, dataset.ModeName:
	default:
		return fmt.Errorf("recipe %s: schema.mode must be position or name", r.Name)
	}
	switch r.Ratio.Reference {
	case ReferenceCategory, ReferenceGrand:
	default:
		return fmt.Errorf("recipe %s: ratio.reference must be category or grand", r.Name)
	}
	switch r.Ratio.OnZero {
	case OnZeroError, OnZeroSkip:
	default:
		return fmt.Errorf("recipe %s: ratio.on_zero must be error or skip", r.Name)
	}
	if r.Collapse.TopN < 0 || r.Collapse.MinValue < 0 {
		return fmt.Errorf("recipe %s: collapse.top_n and collapse.min_value must be >= 0", r.Name)
	}
	if r.Source.SkipRows < 0 {
		return fmt.Errorf("recipe %s: source.skip_rows must be >= 0", r.Name)
	}
	if _, err := separator(r.Source.Delimiter); err != nil {
		return fmt.Errorf("recipe %s: source.delimiter: %w", r.Name, err)
	}
	if _, err := r.NumberFormat(); err != nil {
		return fmt.Errorf("recipe %s: %w", r.Name, err)
	}
	return nil
}

// Location converts the source block for the loader.
func (r *Recipe) Location() source.Location {
	delim, _ := separator(r.Source.Delimiter)
	return source.Location{
		URL:       r.Source.URL,
		Format:    r.Source.Format,
		Sheet:     r.Source.Sheet,
		Delimiter: delim,
		SkipRows:  r.Source.SkipRows,
	}
}

// NumberFormat converts the numbers block for the parser.
func (r *Recipe) NumberFormat() (dataset.NumberFormat, error) {
	return r.Numbers.Format()
}

// Format converts separator spellings to a dataset.NumberFormat.
func (n Numbers) Format() (dataset.NumberFormat, error) {
	var nf dataset.NumberFormat
	switch strings.ToLower(strings.TrimSpace(n.Decimal)) {
	case "":
	case ".", "dot":
		nf.Decimal = '.'
	case ",", "comma":
		nf.Decimal = ','
	default:
		return nf, fmt.Errorf("unsupported numbers.decimal %q (use '.'|'comma')", n.Decimal)
	}
	switch strings.ToLower(n.Thousands) {
	case "":
	case ",", "comma":
		nf.Thousands = ','
	case ".", "dot":
		nf.Thousands = '.'
	case " ", "space":
		nf.Thousands = ' '
	default:
		return nf, fmt.Errorf("unsupported numbers.thousands %q (use ','|'.'|'space')", n.Thousands)
	}
	return nf, nil
}

// ParseDelimiter maps flag spellings to a separator rune; "" means auto.
func ParseDelimiter(s string) (rune, error) { return separator(s) }

func separator(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	case "\t", "tab":
		return '\t', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter %q (use ',' | ';' | '|' | 'tab')", s)
	}
}
