package xslsxGenerator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/KotFed0t/portfolio_xray/internal/model"
	"github.com/KotFed0t/portfolio_xray/utils"
	"github.com/xuri/excelize/v2"
)

// excel limit for sheet names
const maxSheetNameLen = 31

// built-in number format "0.00%"
const percentFormat = 10

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

// Generate writes one sheet per view in presentation order.
func (g *XSLSXGenerator) Generate(ctx context.Context, views model.Views) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	if len(views) == 0 {
		return nil, "", errors.New("empty views")
	}

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return nil, "", err
	}

	weightStyle, err := f.NewStyle(&excelize.Style{NumFmt: percentFormat})
	if err != nil {
		return nil, "", err
	}

	for _, view := range views.Ordered() {
		err := g.fillSheet(ctx, f, view, headerStyle, weightStyle)
		if err != nil {
			return nil, "", err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XSLSXGenerator) fillSheet(ctx context.Context, f *excelize.File, view model.AggregateView, headerStyle, weightStyle int) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.fillSheet"

	sheetName := SheetName(view.Name)
	_, err := f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	header := append(append([]string(nil), view.KeyColumns...), view.WeightColumn)
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		_ = f.SetCellStr(sheetName, cell, title)
	}

	lastHeader, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	weightCol := len(view.KeyColumns) + 1
	for i, row := range view.Rows {
		rowNum := i + 2
		for col, key := range row.Keys {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			_ = f.SetCellStr(sheetName, cell, key)
		}
		cell, _ := excelize.CoordinatesToCellName(weightCol, rowNum)
		_ = f.SetCellFloat(sheetName, cell, row.Weight, -1, 64)
	}

	if len(view.Rows) > 0 {
		first, _ := excelize.CoordinatesToCellName(weightCol, 2)
		last, _ := excelize.CoordinatesToCellName(weightCol, len(view.Rows)+1)
		if err := f.SetCellStyle(sheetName, first, last, weightStyle); err != nil {
			return fmt.Errorf("apply weight style: %w", err)
		}
	}

	return nil
}

// SheetName truncates a view name to the excel sheet name limit.
func SheetName(name string) string {
	if utf8.RuneCountInString(name) <= maxSheetNameLen {
		return name
	}
	return string([]rune(name)[:maxSheetNameLen])
}
