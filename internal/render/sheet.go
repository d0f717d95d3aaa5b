package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/KaramelBytes/tally-cli/internal/pipeline"
	"github.com/xuri/excelize/v2"
)

func sheetHeader(res *pipeline.Result) []string {
	if res.HasSubgroups() {
		return []string{"rank", "category", "subgroup", "value", "count", "ratio"}
	}
	return []string{"rank", "category", "value", "count", "ratio"}
}

type csvRenderer struct{}

func (csvRenderer) Format() string { return "csv" }

func (csvRenderer) Render(w io.Writer, res *pipeline.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sheetHeader(res)); err != nil {
		return err
	}
	for _, r := range res.Rows {
		rec := []string{strconv.Itoa(r.Rank), r.Category}
		if res.HasSubgroups() {
			rec = append(rec, r.Subgroup)
		}
		rec = append(rec,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			strconv.Itoa(r.Count),
			strconv.FormatFloat(r.Ratio, 'f', 6, 64),
		)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const summarySheet = "Summary"

// xlsxRenderer writes a workbook with the ranked table and a native bar chart.
type xlsxRenderer struct {
	opts Options
}

func (xlsxRenderer) Format() string { return "xlsx" }

func (x xlsxRenderer) Render(w io.Writer, res *pipeline.Result) error {
	wb := excelize.NewFile()
	defer wb.Close()
	if err := wb.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	header := sheetHeader(res)
	hdr := make([]interface{}, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := wb.SetSheetRow(summarySheet, "A1", &hdr); err != nil {
		return err
	}
	for i, r := range res.Rows {
		row := []interface{}{r.Rank, r.Category}
		if res.HasSubgroups() {
			row = append(row, r.Subgroup)
		}
		row = append(row, r.Value, r.Count, r.Ratio)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	ratioCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	pct, err := wb.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return err
	}
	if len(res.Rows) > 0 {
		last := len(res.Rows) + 1
		if err := wb.SetCellStyle(summarySheet, ratioCol+"2", fmt.Sprintf("%s%d", ratioCol, last), pct); err != nil {
			return err
		}
		labelCol := "B"
		if res.HasSubgroups() {
			labelCol = "C"
		}
		chartType := excelize.Bar
		if x.opts.Vertical || (res.Recipe != nil && res.Recipe.Chart.Vertical) {
			chartType = excelize.Col
		}
		if err := wb.AddChart(summarySheet, "H2", &excelize.Chart{
			Type: chartType,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$%s$1", summarySheet, ratioCol),
				Categories: fmt.Sprintf("%s!$%s$2:$%s$%d", summarySheet, labelCol, labelCol, last),
				Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", summarySheet, ratioCol, ratioCol, last),
			}},
		}); err != nil {
			return fmt.Errorf("add chart: %w", err)
		}
	}
	return wb.Write(w)
}

func init() {
	register("csv", func(Options) Renderer { return csvRenderer{} })
	register("xlsx", func(o Options) Renderer { return xlsxRenderer{opts: o} })
}
