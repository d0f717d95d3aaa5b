package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const steakCSV = "\xef\xbb\xbfRespondentID,Do you eat steak?,Education\n" +
	",Response,Response\n" +
	"3237565956,Yes,Bachelor degree\n" +
	"3234982343,No,\"Some college, no degree\"\n"

func TestLoadCSVOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/steak-risk-survey.csv" {
			http.NotFound(w, r)
			return
		}
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(steakCSV))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, 0)
	tbl, err := Load(context.Background(), f, Location{URL: srv.URL + "/steak-risk-survey.csv", SkipRows: 1})
	require.NoError(t, err)
	assert.Equal(t, "steak-risk-survey.csv", tbl.Name)
	assert.Equal(t, []string{"RespondentID", "Do you eat steak?", "Education"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Some college, no degree", tbl.Rows[1][2])
}

func TestLoadStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), NewFetcher(time.Second, 0), Location{URL: srv.URL + "/x.csv"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceFetch))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Contains(t, se.Body, "gone fishing")
}

func TestLoadUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/data.csv"
	srv.Close()

	_, err := Load(context.Background(), NewFetcher(time.Second, 0), Location{URL: url})
	require.ErrorIs(t, err, ErrSourceFetch)
	var ue *UnreachableError
	require.ErrorAs(t, err, &ue)
	assert.NotEmpty(t, ue.Host)
}

func TestLoadSizeCap(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "big.csv")
	require.NoError(t, os.WriteFile(p, []byte("a\n1\n2\n3\n4\n"), 0o644))
	_, err := Load(context.Background(), NewFetcher(0, 4), Location{URL: p})
	require.ErrorIs(t, err, ErrSourceFetch)
	assert.Contains(t, err.Error(), "larger than 4 B limit")
}

func TestLoadLocalTSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "religions.tsv")
	require.NoError(t, os.WriteFile(p, []byte("\t\nChristianity\t2,382,000,000\nIslam\t1,907,000,000\n"), 0o644))

	tbl, err := Load(context.Background(), NewFetcher(0, 0), Location{URL: p})
	require.NoError(t, err)
	assert.Equal(t, "religions.tsv", tbl.Name)
	assert.Equal(t, []string{"", ""}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "2,382,000,000", tbl.Rows[0][1])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), NewFetcher(0, 0), Location{URL: filepath.Join(t.TempDir(), "nope.csv")})
	require.ErrorIs(t, err, ErrSourceFetch)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadMalformedCSV(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(p, nil, 0o644))
	_, err := Load(context.Background(), NewFetcher(0, 0), Location{URL: p})
	require.ErrorIs(t, err, ErrSourceFetch)
	var me *MalformedError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "csv", me.Format)
}

func TestLoadXLSX(t *testing.T) {
	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetName("Sheet1", "Data"))
	_, err := wb.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, wb.SetSheetRow("Data", "A1", &[]interface{}{"religion", "followers"}))
	require.NoError(t, wb.SetSheetRow("Data", "A2", &[]interface{}{"Hinduism", 1161000000}))
	require.NoError(t, wb.SetSheetRow("Notes", "A1", &[]interface{}{"note"}))
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	p := filepath.Join(t.TempDir(), "religions.xlsx")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))

	tbl, err := Load(context.Background(), NewFetcher(0, 0), Location{URL: p, Sheet: "data"})
	require.NoError(t, err)
	assert.Equal(t, "religions.xlsx (sheet: data)", tbl.Name)
	assert.Equal(t, []string{"religion", "followers"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Hinduism", tbl.Rows[0][0])

	_, err = Load(context.Background(), NewFetcher(0, 0), Location{URL: p, Sheet: "missing"})
	require.ErrorIs(t, err, ErrSourceFetch)
	assert.Contains(t, err.Error(), "available sheets: Data, Notes")
}

func TestDecoderFor(t *testing.T) {
	d, err := DecoderFor(Location{URL: "https://example.org/data/file.TSV"})
	require.NoError(t, err)
	assert.Equal(t, "tsv", d.Format())

	d, err = DecoderFor(Location{URL: "https://example.org/data?id=3"})
	require.NoError(t, err)
	assert.Equal(t, "csv", d.Format())

	d, err = DecoderFor(Location{URL: "x.csv", Format: "XLSX"})
	require.NoError(t, err)
	assert.Equal(t, "xlsx", d.Format())

	_, err = DecoderFor(Location{URL: "x", Format: "parquet"})
	assert.Error(t, err)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "steak-risk-survey.csv", BaseName("https://raw.githubusercontent.com/fivethirtyeight/data/master/steak-survey/steak-risk-survey.csv"))
	assert.Equal(t, "example.org", BaseName("https://example.org/"))
	assert.Equal(t, "f.csv", BaseName("/tmp/dir/f.csv"))
}
