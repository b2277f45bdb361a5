package report

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/agentstation/authmatch/pkg/errors"
)

// DiscrepancySheet is the worksheet name used by ExportXLSX.
const DiscrepancySheet = "Discrepancies"

// ExportXLSX copies the CSV at csvPath into a single-sheet workbook at
// xlsxPath. The header row is bold.
func ExportXLSX(csvPath, xlsxPath string) (err error) {
	in, err := os.Open(csvPath)
	if err != nil {
		return errors.WrapIO("open", csvPath, err)
	}
	defer in.Close()

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.WrapIO("close", xlsxPath, cerr)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), DiscrepancySheet); err != nil {
		return errors.WrapIO("write", xlsxPath, err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.WrapIO("write", xlsxPath, err)
	}
	sw, err := f.NewStreamWriter(DiscrepancySheet)
	if err != nil {
		return errors.WrapIO("write", xlsxPath, err)
	}
	if err := sw.SetColWidth(1, 7, 24); err != nil {
		return errors.WrapIO("write", xlsxPath, err)
	}

	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	for row := 1; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.WrapParse("csv", csvPath, err)
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return errors.WrapIO("write", xlsxPath, err)
		}
		values := make([]interface{}, len(record))
		for i, v := range record {
			values[i] = v
		}
		var opts []excelize.RowOpts
		if row == 1 {
			opts = append(opts, excelize.RowOpts{StyleID: bold})
		}
		if err := sw.SetRow(cell, values, opts...); err != nil {
			return errors.WrapIO("write", xlsxPath, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return errors.WrapIO("write", xlsxPath, err)
	}
	if err := f.SaveAs(xlsxPath); err != nil {
		return errors.WrapIO("save", xlsxPath, err)
	}
	return nil
}
