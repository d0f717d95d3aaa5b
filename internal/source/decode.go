package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/KaramelBytes/tally-cli/internal/dataset"
	"github.com/xuri/excelize/v2"
)

// Location describes where a table lives and how to decode it.
type Location struct {
	URL string
	// Format is csv, tsv or xlsx. Empty picks by file extension, then csv.
	Format string
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
	// Delimiter overrides the CSV separator.
	Delimiter rune
	// SkipRows drops this many rows after the header (sub-header rows).
	SkipRows int
}

// Decoder turns raw bytes into a table.
type Decoder interface {
	Format() string
	CanDecode(name string) bool
	Decode(data []byte, loc Location) (*dataset.Table, error)
}

var registry []Decoder

// Register adds a decoder to the registry.
func Register(d Decoder) {
	registry = append(registry, d)
}

// Formats lists the registered format names.
func Formats() []string {
	out := make([]string, 0, len(registry))
	for _, d := range registry {
		out = append(out, d.Format())
	}
	sort.Strings(out)
	return out
}

// DecoderFor picks a decoder by explicit format, else by the location's name.
func DecoderFor(loc Location) (Decoder, error) {
	if f := strings.ToLower(strings.TrimSpace(loc.Format)); f != "" {
		for _, d := range registry {
			if d.Format() == f {
				return d, nil
			}
		}
		return nil, fmt.Errorf("unsupported format %q (supported: %s)", loc.Format, strings.Join(Formats(), ", "))
	}
	name := BaseName(loc.URL)
	for _, d := range registry {
		if d.CanDecode(name) {
			return d, nil
		}
	}
	return csvDecoder{}, nil
}

// Load fetches loc once and decodes it. Transport and decoding failures are
// both reported as *FetchError.
func Load(ctx context.Context, f *Fetcher, loc Location) (*dataset.Table, error) {
	dec, err := DecoderFor(loc)
	if err != nil {
		return nil, &FetchError{Location: loc.URL, Err: err}
	}
	data, err := f.Read(ctx, loc.URL)
	if err != nil {
		return nil, err
	}
	t, err := dec.Decode(data, loc)
	if err != nil {
		return nil, &FetchError{Location: loc.URL, Err: &MalformedError{Format: dec.Format(), Err: err}}
	}
	t.Name = BaseName(loc.URL)
	if loc.Sheet != "" && dec.Format() == "xlsx" {
		t.Name = fmt.Sprintf("%s (sheet: %s)", t.Name, loc.Sheet)
	}
	if loc.SkipRows > 0 {
		if loc.SkipRows >= len(t.Rows) {
			t.Rows = nil
		} else {
			t.Rows = t.Rows[loc.SkipRows:]
		}
	}
	return t, nil
}

type csvDecoder struct{}

func (csvDecoder) Format() string { return "csv" }

func (csvDecoder) CanDecode(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}

func (csvDecoder) Decode(data []byte, loc Location) (*dataset.Table, error) {
	delim := loc.Delimiter
	if delim == 0 {
		delim = ','
	}
	return decodeDelimited(data, delim)
}

type tsvDecoder struct{}

func (tsvDecoder) Format() string { return "tsv" }

func (tsvDecoder) CanDecode(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".tsv") || strings.HasSuffix(n, ".tab")
}

func (tsvDecoder) Decode(data []byte, loc Location) (*dataset.Table, error) {
	delim := loc.Delimiter
	if delim == 0 {
		delim = '\t'
	}
	return decodeDelimited(data, delim)
}

func decodeDelimited(data []byte, delim rune) (*dataset.Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = !unicode.IsSpace(delim)
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty input: no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &dataset.Table{Header: append([]string(nil), header...)}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

type xlsxDecoder struct{}

func (xlsxDecoder) Format() string { return "xlsx" }

func (xlsxDecoder) CanDecode(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xlsx")
}

func (xlsxDecoder) Decode(data []byte, loc Location) (*dataset.Table, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]
	if loc.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, loc.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet %q not found; available sheets: %s", loc.Sheet, strings.Join(sheets, ", "))
		}
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}
	return &dataset.Table{Header: rows[0], Rows: rows[1:]}, nil
}

func init() {
	Register(csvDecoder{})
	Register(tsvDecoder{})
	Register(xlsxDecoder{})
}
