package reports

import (
	"fmt"
	"io"

	"opsboard/pkg/model"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes the summary as a workbook: the KPIs on the first sheet
// and one sheet per grouping.
func ExportXLSX(w io.Writer, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	const first = "Resumen"
	if err := f.SetSheetName("Sheet1", first); err != nil {
		return err
	}
	kpis := [][]interface{}{
		{"Indicador", "Valor"},
		{"Ventana (días)", s.WindowDays},
		{"No evolutivos creados", s.CreatedIncidents},
		{"Evolutivos creados", s.CreatedChanges},
		{"No evolutivos cerrados", s.ClosedIncidents},
		{"Evolutivos cerrados", s.ClosedChanges},
		{"Generado", s.GeneratedAt.Format("02/01/2006 15:04")},
	}
	for i, row := range kpis {
		if err := f.SetSheetRow(first, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}

	groups := []struct {
		name    string
		header  string
		buckets []model.Bucket
	}{
		{"Cerrados por analista", "Agente asignado", s.ClosedIncidentsByAgent},
		{"Cerrados por aplicación", "Módulo", s.ClosedIncidentsByModule},
		{"Evolutivos por analista", "Agente asignado", s.ClosedChangesByAgent},
		{"Evolutivos por aplicación", "Módulo", s.ClosedChangesByModule},
	}
	for _, g := range groups {
		if _, err := f.NewSheet(g.name); err != nil {
			return err
		}
		head := []interface{}{g.header, "Cantidad"}
		if err := f.SetSheetRow(g.name, "A1", &head); err != nil {
			return err
		}
		for i, b := range g.buckets {
			row := []interface{}{b.Value, b.Count}
			if err := f.SetSheetRow(g.name, fmt.Sprintf("A%d", i+2), &row); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}
