// Package reports renders batch documents for export paperwork.
package reports

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"export-tracking-service/tracking/aggregation"
	"export-tracking-service/tracking/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetBatch       = "Lote"
	SheetProducers   = "Produtores"
	SheetCheckpoints = "Checkpoints"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ManifestFileName is the download name of a batch manifest.
func ManifestFileName(batch models.Batch) string {
	return fmt.Sprintf("manifesto_%s.xlsx", batch.BatchCode)
}

// BatchManifest writes a workbook with the batch summary, one row per
// producer product and one row per checkpoint.
func BatchManifest(batch models.Batch) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetBatch); err != nil {
		return nil, err
	}
	if err := writeSummary(f, batch); err != nil {
		return nil, fmt.Errorf("writing summary: %w", err)
	}
	if err := writeProducers(f, batch); err != nil {
		return nil, fmt.Errorf("writing producers: %w", err)
	}
	if err := writeCheckpoints(f, batch); err != nil {
		return nil, fmt.Errorf("writing checkpoints: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, batch models.Batch) error {
	sealedAt := ""
	if batch.SealedAt != nil {
		sealedAt = batch.SealedAt.UTC().Format(time.RFC3339)
	}
	rows := [][]interface{}{
		{"Código", batch.BatchCode},
		{"Nome", batch.Name},
		{"Origem", batch.Origin.String()},
		{"Destino", batch.Destination.String()},
		{"Modo de transporte", string(batch.TransportMode)},
		{"Quantidade total (t)", batch.TotalQuantity},
		{"Produtos", aggregation.FormatTotals(aggregation.ProductTotals(batch.Producers))},
		{"Estado", string(batch.Status)},
		{"Criado em", batch.CreatedAt.UTC().Format(time.RFC3339)},
		{"Selado por", batch.SealedBy},
		{"Selado em", sealedAt},
	}
	return writeRows(f, SheetBatch, rows)
}

func writeProducers(f *excelize.File, batch models.Batch) error {
	if _, err := f.NewSheet(SheetProducers); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Subcódigo", "Produtor", "Localização", "BI", "Produto", "Quantidade (t)"},
	}
	for _, p := range batch.Producers {
		names := make([]string, 0, len(p.BatchProducts))
		for name := range p.BatchProducts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows = append(rows, []interface{}{
				p.SubCode, p.Name, p.Location, p.Document, name, p.BatchProducts[name],
			})
		}
	}
	return writeRows(f, SheetProducers, rows)
}

func writeCheckpoints(f *excelize.File, batch models.Batch) error {
	if _, err := f.NewSheet(SheetCheckpoints); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"#", "Data", "Descrição", "Estado", "Transporte", "Operador", "Latitude", "Longitude", "Próximo destino", "Observações"},
	}
	for i, cp := range batch.Checkpoints {
		rows = append(rows, []interface{}{
			i + 1,
			cp.Timestamp.UTC().Format(time.RFC3339),
			cp.Desc,
			cp.Status,
			string(cp.Transport),
			cp.Operator,
			cp.Lat,
			cp.Lng,
			cp.NextDestination,
			strings.TrimSpace(cp.Notes),
		})
	}
	return writeRows(f, SheetCheckpoints, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
