package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/climate-risk-service/internal/classifier"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the exported dataset.
const SheetName = "Laporan Risiko"

// LabelHeader titles the label column.
const LabelHeader = "Risiko"

var columnHeaders = map[string]string{
	"rainfall_mm":       "Curah Hujan (mm)",
	"soil_moisture":     "Kelembapan Tanah",
	"elevation_m":       "Elevasi (m)",
	"deforestation_pct": "Deforestasi (%)",
}

// Headers returns the worksheet header row for a dataset.
func Headers(ds classifier.Dataset) []string {
	out := make([]string, 0, len(ds.Columns)+1)
	for _, c := range ds.Columns {
		if h, ok := columnHeaders[c]; ok {
			out = append(out, h)
			continue
		}
		out = append(out, c)
	}
	return append(out, LabelHeader)
}

// WriteExcel writes ds as a single-sheet workbook: one header row, then one
// row per sample with its features and label.
func WriteExcel(w io.Writer, ds classifier.Dataset) (err error) {
	if ds.Len() == 0 {
		return errors.New("dataset is empty")
	}
	if len(ds.Features) != ds.Len() {
		return fmt.Errorf("dataset has %d feature rows for %d labels", len(ds.Features), ds.Len())
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := Headers(ds)
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, features := range ds.Features {
		row := make([]any, 0, len(features)+1)
		for _, v := range features {
			row = append(row, v)
		}
		row = append(row, ds.Labels[i])

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
