package pipeline

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/census-choropleth/internal/normalize"
)

// SheetName is the worksheet WriteXLSX writes rows to.
const SheetName = "data"

// WriteXLSX writes the Location and value columns of table to a spreadsheet.
// Geometry is not written.
func WriteXLSX(table *normalize.Table, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	header.AddCell().SetString(normalize.LocationColumn)
	header.AddCell().SetString(table.ValueColumn)

	for _, r := range table.Rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Location)
		cell := row.AddCell()
		switch v := r.Value.(type) {
		case int64:
			cell.SetInt64(v)
		case float64:
			cell.SetFloat(v)
		case string:
			cell.SetString(v)
		default:
			return eris.Errorf("xlsx: unsupported value %T for %s", r.Value, r.Location)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}
