package service

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"flowmrp/internal/dto"
	"flowmrp/internal/model"
	"flowmrp/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const ingestSheet = "BOM"

// templateHeader is the upload header row. The asterisk marks required
// columns; Parse strips it when verifying uploads.
var templateHeader = []string{"Parent Item Name *", "Child Item Name *", "Quantity *", "Unit"}

// IngestService turns spreadsheet uploads into BOM edges. Rows may leave the
// parent item name blank to inherit the previous row's parent (forward-fill),
// which lets one parent with many children be written without repetition.
type IngestService interface {
	// Template renders the empty upload workbook with the marked header row.
	Template() ([]byte, error)
	// Parse reads an uploaded workbook into rows, verifying the header.
	Parse(data []byte) ([]dto.IngestRow, error)
	// Ingest applies rows in file order inside one transaction. Any row-level
	// problem aborts the entire ingest with a row-numbered error and nothing
	// is committed — stricter than batch delete, and deliberately so: the fix
	// loop is "correct the named row and re-upload".
	Ingest(ctx context.Context, rows []dto.IngestRow) (*dto.IngestSummary, error)
}

type ingestService struct {
	edges   repository.BomEdgeRepository
	catalog repository.ItemCatalog
}

func NewIngestService(edges repository.BomEdgeRepository, catalog repository.ItemCatalog) IngestService {
	return &ingestService{edges: edges, catalog: catalog}
}

func (s *ingestService) Template() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", ingestSheet); err != nil {
		return nil, err
	}
	for i, h := range templateHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(ingestSheet, cell, h); err != nil {
			return nil, err
		}
	}
	// Required columns stand out in bold red.
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: "CC0000"}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(ingestSheet, "A1", "C1", style); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ingestService) Parse(data []byte) ([]dto.IngestRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, validationf("file is not a valid spreadsheet: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, validationf("spreadsheet is empty")
	}
	if err := verifyHeader(rows[0]); err != nil {
		return nil, err
	}

	parsed := make([]dto.IngestRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header
		row := dto.IngestRow{
			ParentName: cell(cells, 0),
			ChildName:  cell(cells, 1),
			Unit:       cell(cells, 3),
			RowNumber:  rowNum,
		}
		qty := cell(cells, 2)
		if row.ParentName == "" && row.ChildName == "" && qty == "" {
			continue // trailing blank rows are common in exported sheets
		}
		if row.ChildName == "" {
			return nil, validationf("row %d: child item name is required", rowNum)
		}
		q, err := decimal.NewFromString(qty)
		if err != nil {
			return nil, validationf("row %d: quantity %q is not numeric", rowNum, qty)
		}
		if !q.IsPositive() {
			return nil, validationf("row %d: quantity must be greater than zero", rowNum)
		}
		row.Quantity = q
		parsed = append(parsed, row)
	}
	if len(parsed) == 0 {
		return nil, validationf("spreadsheet has no data rows")
	}
	return parsed, nil
}

func (s *ingestService) Ingest(ctx context.Context, rows []dto.IngestRow) (*dto.IngestSummary, error) {
	summary := &dto.IngestSummary{}
	currentParent := ""

	err := runTx(ctx, s.edges.DB(), func(tx *gorm.DB) error {
		for i, row := range rows {
			rowNum := row.RowNumber
			if rowNum == 0 {
				rowNum = i + 1
			}

			if strings.TrimSpace(row.ParentName) != "" {
				code, err := s.catalog.FindCodeByName(ctx, strings.TrimSpace(row.ParentName))
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return validationf("row %d: parent item %q not found", rowNum, row.ParentName)
					}
					return err
				}
				currentParent = code
			}
			if currentParent == "" {
				return validationf("row %d: no parent item to attach to — the first row must name a parent", rowNum)
			}

			childCode, err := s.catalog.FindCodeByName(ctx, strings.TrimSpace(row.ChildName))
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationf("row %d: child item %q not found", rowNum, row.ChildName)
				}
				return err
			}
			if childCode == currentParent {
				return validationf("row %d: item %s cannot be a component of itself", rowNum, childCode)
			}

			unit := row.Unit
			if unit == "" {
				unit = "EA"
			}

			existing, err := s.edges.FindByParentAndChildTx(tx, currentParent, childCode)
			switch {
			case err == nil:
				existing.Quantity = row.Quantity
				existing.Unit = unit
				if err := s.edges.UpdateTx(tx, existing); err != nil {
					return err
				}
				summary.Updated++
			case errors.Is(err, gorm.ErrRecordNotFound):
				edge := &model.BomEdge{
					ParentCode: currentParent,
					ChildCode:  childCode,
					Quantity:   row.Quantity,
					Unit:       unit,
				}
				if err := s.edges.CreateTx(tx, edge); err != nil {
					return err
				}
				summary.Created++
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Msg("spreadsheet ingest committed")
	return summary, nil
}

func verifyHeader(cells []string) error {
	if len(cells) < 3 {
		return validationf("header row must contain at least %q, %q and %q",
			templateHeader[0], templateHeader[1], templateHeader[2])
	}
	for i := 0; i < 3; i++ {
		want := normalizeHeader(templateHeader[i])
		if normalizeHeader(cells[i]) != want {
			return validationf("unexpected header %q in column %d — expected %q", cells[i], i+1, templateHeader[i])
		}
	}
	return nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(h), "*")))
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// runTx executes fn inside a GORM transaction when db is available, or calls
// fn(nil) directly when db is nil (unit test mode with in-memory stubs).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
