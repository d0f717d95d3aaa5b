package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/tally-cli/internal/dataset"
	"github.com/KaramelBytes/tally-cli/internal/logger"
	"github.com/KaramelBytes/tally-cli/internal/recipe"
	"github.com/KaramelBytes/tally-cli/internal/source"
	"github.com/KaramelBytes/tally-cli/internal/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func steakRow(id, steak, prep, educ string) string {
	cells := []string{id, "Lottery A", "No", "Yes", "No", "No", "No", "No", steak, prep, "Male", "18-29", "$50,000 - $99,999", educ, "Pacific"}
	for i, c := range cells {
		if strings.Contains(c, ",") {
			cells[i] = `"` + c + `"`
		}
	}
	return strings.Join(cells, ",") + "\n"
}

func steakSurvey() string {
	var b strings.Builder
	b.WriteString("RespondentID,Lottery,Smoke,Alcohol,Gamble,Skydiving,Speed,Cheated,Do you eat steak?,How do you like your steak prepared?,Gender,Age,Household Income,Education,Location (Census Region)\n")
	b.WriteString(",Response,Response,Response,Response,Response,Response,Response,Response,Response,Response,Response,Response,Response,Response\n")
	b.WriteString(steakRow("1", "Yes", "Medium rare", "Bachelor degree"))
	b.WriteString(steakRow("2", "Yes", "Medium", "Bachelor degree"))
	b.WriteString(steakRow("3", "Yes", "Medium rare", "Bachelor degree"))
	b.WriteString(steakRow("4", "Yes", "Rare", "Graduate degree"))
	b.WriteString(steakRow("5", "No", "", "Graduate degree"))
	b.WriteString(steakRow("6", "Yes", "Well", "Graduate degree"))
	b.WriteString(steakRow("7", "Yes", "", "Some college or Associate degree"))
	b.WriteString(steakRow("8", "Yes", "Medium rare", ""))
	return b.String()
}

func serve(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/steak-risk-survey.csv"
}

func builtin(t *testing.T, name string) *recipe.Recipe {
	t.Helper()
	e, err := recipe.Lookup(name)
	require.NoError(t, err)
	return e.Recipe
}

func TestRunSteak(t *testing.T) {
	url := serve(t, steakSurvey())
	res, err := Run(context.Background(), builtin(t, "steak"), Options{Fetcher: source.NewFetcher(5*time.Second, 0), Source: url})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "steak-risk-survey.csv", res.SourceName)
	assert.Equal(t, 8, res.InputRows)
	assert.Equal(t, 7, res.KeptRows)
	assert.Equal(t, 2, res.Dropped)
	assert.True(t, res.HasSubgroups())

	type row struct {
		cat, sub string
		ratio    float64
		rank     int
	}
	var got []row
	for _, r := range res.Rows {
		got = append(got, row{r.Category, r.Subgroup, r.Ratio, r.Rank})
	}
	require.Len(t, got, 4)
	assert.Equal(t, row{"Bachelor degree", "Medium rare", 2.0 / 3.0, 1}, got[0])
	assert.Equal(t, row{"Graduate degree", "Rare", 0.5, 2}, got[1])
	assert.Equal(t, row{"Graduate degree", "Well", 0.5, 3}, got[2])
	assert.Equal(t, row{"Bachelor degree", "Medium", 1.0 / 3.0, 4}, got[3])
	assert.Equal(t, map[string]float64{"Bachelor degree": 3, "Graduate degree": 2}, res.Totals)
	assert.Equal(t, 5.0, res.GrandTotal)
}

func TestRunReligionsLocalTSV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "religions.tsv")
	data := "\t\nChristianity\t2,382,000,000\nIslam\t1,907,000,000\nHinduism\t1,161,000,000\nBuddhism\t506,000,000\n" +
		"Folk religions\t430,000,000\nSikhism\t26,000,000\nJudaism\t14,700,000\nBahá'í\t5,000,000\n"
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))

	res, err := Run(context.Background(), builtin(t, "religions"), Options{Source: p})
	require.NoError(t, err)
	require.Len(t, res.Rows, 7)
	assert.Equal(t, "Christianity", res.Rows[0].Category)
	assert.Equal(t, 1, res.Rows[0].Rank)

	var other *summary.RankedRow
	var sum float64
	for i := range res.Rows {
		sum += res.Rows[i].Ratio
		if res.Rows[i].Category == "Other" {
			other = &res.Rows[i]
		}
	}
	require.NotNil(t, other)
	assert.Equal(t, 19_700_000.0, other.Value)
	assert.Equal(t, 2, other.Count)
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 6_431_700_000.0, res.GrandTotal, 1e-3)
}

func TestRunDropsNonFiniteValues(t *testing.T) {
	p := filepath.Join(t.TempDir(), "religions.tsv")
	data := "\t\nChristianity\t2,400\nIslam\tnan\nHinduism\t1,600\n"
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))

	res, err := Run(context.Background(), builtin(t, "religions"), Options{Source: p})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, 1, res.Dropped)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 4000.0, res.GrandTotal)
	assert.InDelta(t, 0.6, res.Rows[0].Ratio, 1e-9)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], `"nan" is not numeric`)
}

func TestRunLeavesWarningsToCaller(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf, logger.WarnLevel)
	t.Cleanup(func() { logger.SetOutput(os.Stderr, logger.WarnLevel) })

	p := filepath.Join(t.TempDir(), "religions.tsv")
	require.NoError(t, os.WriteFile(p, []byte("\t\nChristianity\t10\nIslam\tn/a\n"), 0o644))
	res, err := Run(context.Background(), builtin(t, "religions"), Options{Source: p})
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)
	assert.Empty(t, buf.String())
}

func TestRunNeedsSource(t *testing.T) {
	_, err := Run(context.Background(), builtin(t, "religions"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSource))
}

func TestRunSchemaMismatch(t *testing.T) {
	url := serve(t, "a,b,c\n1,2,3\n")
	_, err := Run(context.Background(), builtin(t, "steak"), Options{Source: url})
	require.ErrorIs(t, err, dataset.ErrSchemaMismatch)
}

func TestRunFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	_, err := Run(context.Background(), builtin(t, "steak"), Options{Source: srv.URL + "/missing.csv"})
	require.ErrorIs(t, err, source.ErrSourceFetch)
	var se *source.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestSummarizeCollapse(t *testing.T) {
	records := []summary.Record{
		{Category: "A", Value: 50}, {Category: "B", Value: 30}, {Category: "C", Value: 10},
		{Category: "D", Value: 6}, {Category: "E", Value: 4},
	}
	s, err := Summarize(records, Plan{TopN: 2, Reference: recipe.ReferenceGrand})
	require.NoError(t, err)
	require.Len(t, s.Rows, 3)
	assert.Equal(t, "A", s.Rows[0].Category)
	assert.InDelta(t, 0.5, s.Rows[0].Ratio, 1e-12)
	assert.Equal(t, "B", s.Rows[1].Category)
	assert.Equal(t, "Other", s.Rows[2].Category)
	assert.InDelta(t, 0.2, s.Rows[2].Ratio, 1e-12)
	assert.Equal(t, 100.0, s.GrandTotal)

	s, err = Summarize(records, Plan{Keep: []string{"E"}, MinValue: 30, OtherLabel: "Rest", Reference: recipe.ReferenceGrand})
	require.NoError(t, err)
	var cats []string
	for _, r := range s.Rows {
		cats = append(cats, r.Category)
	}
	assert.Equal(t, []string{"A", "B", "Rest", "E"}, cats)
}

func TestSummarizeZeroReference(t *testing.T) {
	records := []summary.Record{
		{Category: "X", Subgroup: "a", Value: 0},
		{Category: "Y", Subgroup: "a", Value: 2},
		{Category: "Y", Subgroup: "b", Value: 2},
	}
	_, err := Summarize(records, Plan{BySubgroup: true, Reference: recipe.ReferenceCategory})
	var due *summary.DivisionUndefinedError
	require.ErrorAs(t, err, &due)
	assert.Equal(t, "X", due.Category)

	s, err := Summarize(records, Plan{BySubgroup: true, Reference: recipe.ReferenceCategory, OnZero: recipe.OnZeroSkip})
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, s.Skipped)
	require.Len(t, s.Rows, 2)
	assert.Equal(t, "a", s.Rows[0].Subgroup)
	assert.Equal(t, "b", s.Rows[1].Subgroup)
}

func TestSummarizeRejectsUnknownPolicy(t *testing.T) {
	_, err := Summarize(nil, Plan{Reference: "column"})
	assert.Error(t, err)
	_, err = Summarize(nil, Plan{OnZero: "ignore"})
	assert.Error(t, err)
}

func TestRunAll(t *testing.T) {
	url := serve(t, steakSurvey())
	steak := *builtin(t, "steak")
	steak.Source.URL = url
	outs, err := RunAll(context.Background(), []*recipe.Recipe{&steak, builtin(t, "religions")}, Options{}, 2)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	require.NoError(t, outs[0].Err)
	assert.Len(t, outs[0].Result.Rows, 4)
	assert.ErrorIs(t, outs[1].Err, ErrNoSource)
	assert.Nil(t, outs[1].Result)
}
