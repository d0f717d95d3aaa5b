package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/tally-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins(t *testing.T) {
	got, err := Builtins()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "religions", got[0].Name)
	assert.Equal(t, "steak", got[1].Name)

	steak := got[1].Recipe
	assert.Equal(t, dataset.ModePosition, steak.Schema.Mode)
	assert.Equal(t, 15, steak.Schema.ExpectColumns)
	assert.Len(t, steak.Schema.Columns, 15)
	assert.Equal(t, "educ", steak.Record.Category)
	assert.Equal(t, "steak_prep", steak.Record.Subgroup)
	assert.Equal(t, ReferenceCategory, steak.Ratio.Reference)
	assert.Equal(t, OnZeroError, steak.Ratio.OnZero)
	assert.Equal(t, 1, steak.Location().SkipRows)
	assert.NotEmpty(t, steak.Source.URL)

	rel := got[0].Recipe
	assert.Equal(t, ReferenceGrand, rel.Ratio.Reference)
	assert.Equal(t, 6, rel.Collapse.TopN)
	assert.Equal(t, "Other", rel.Collapse.OtherLabel)
	assert.Empty(t, rel.Source.URL)
}

func TestParseDefaults(t *testing.T) {
	r, err := Parse([]byte("name: x\nrecord:\n  category: a\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", r.Title)
	assert.Equal(t, dataset.ModePosition, r.Schema.Mode)
	assert.Equal(t, ReferenceGrand, r.Ratio.Reference)
	assert.Equal(t, OnZeroError, r.Ratio.OnZero)
	assert.Equal(t, "Other", r.Collapse.OtherLabel)
	assert.False(t, r.Collapse.Enabled())

	r, err = Parse([]byte("name: y\nrecord:\n  category: a\n  subgroup: b\n"))
	require.NoError(t, err)
	assert.Equal(t, ReferenceCategory, r.Ratio.Reference)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"no name":        "record:\n  category: a\n",
		"no category":    "name: x\n",
		"bad reference":  "name: x\nrecord: {category: a}\nratio: {reference: column}\n",
		"bad on_zero":    "name: x\nrecord: {category: a}\nratio: {on_zero: ignore}\n",
		"bad mode":       "name: x\nrecord: {category: a}\nschema: {mode: fuzzy}\n",
		"negative top":   "name: x\nrecord: {category: a}\ncollapse: {top_n: -1}\n",
		"bad delimiter":  "name: x\nrecord: {category: a}\nsource: {delimiter: '#'}\n",
		"bad decimal":    "name: x\nrecord: {category: a}\nnumbers: {decimal: x}\n",
		"unknown field":  "name: x\nrecord: {category: a}\ncolour: red\n",
		"malformed yaml": "name: [x\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestNumberFormatAndLocation(t *testing.T) {
	r, err := Parse([]byte("name: eu\nrecord: {category: a, value: b}\nsource: {url: x.csv, delimiter: ';'}\nnumbers: {decimal: comma, thousands: dot}\n"))
	require.NoError(t, err)
	nf, err := r.NumberFormat()
	require.NoError(t, err)
	assert.Equal(t, dataset.NumberFormat{Decimal: ',', Thousands: '.'}, nf)
	loc := r.Location()
	assert.Equal(t, ';', loc.Delimiter)
	assert.Equal(t, "x.csv", loc.URL)
}

func TestMarshalRoundTrip(t *testing.T) {
	e, err := Lookup("steak")
	require.NoError(t, err)
	b, err := e.Recipe.Marshal()
	require.NoError(t, err)
	again, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, e.Recipe, again)
}

func TestListAndLookupDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pets.yaml"), []byte("name: pets\ntitle: Pets\nrecord: {category: species}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "steak.yml"), []byte("name: steak\ntitle: Local steak\nrecord: {category: educ}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	entries, skipped, err := List(dir, filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"pets", "religions", "steak"}, names)

	e, err := Lookup("STEAK", dir)
	require.NoError(t, err)
	assert.Equal(t, "Local steak", e.Title)
	assert.Equal(t, filepath.Join(dir, "steak.yml"), e.Origin)

	e, err = Lookup(filepath.Join(dir, "pets.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "pets", e.Name)

	_, err = Lookup("nope", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: pets, religions, steak")
}
