package service

import (
	"bytes"
	"fmt"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/utils"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Sponsorships"

var sponsorshipReportHeader = []string{
	"Sponsorship ID",
	"Sponsor",
	"Event ID",
	"Type",
	"Description",
	"Value",
	"Currency",
	"Tier",
	"Status",
	"Payment Status",
	"Delivered",
	"Created",
}

var sponsorshipReportWidths = []float64{14, 28, 10, 12, 40, 14, 10, 12, 12, 16, 10, 20}

// BuildSponsorshipReport renders the organization's sponsorships as an XLSX workbook.
// displayNames maps sponsor ids to the name shown in the Sponsor column.
func BuildSponsorshipReport(orgName string, sponsorships []domain.Sponsorship, displayNames map[int32]string) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(reportSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range sponsorshipReportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(reportSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(reportSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(reportSheet, name, name, sponsorshipReportWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	var total float64
	var counted int
	for i, sp := range sponsorships {
		var eventID any
		if sp.EventID != nil {
			eventID = *sp.EventID
		}
		delivered := "No"
		if sp.Contribution.Delivered {
			delivered = "Yes"
		}
		values := []any{
			sp.ID,
			displayNames[sp.SponsorID],
			eventID,
			utils.FormatEnum(string(sp.Contribution.Type)),
			sp.Contribution.Description,
			sp.Contribution.Value,
			sp.Contribution.Currency,
			utils.FormatEnum(string(sp.Tier.Name)),
			utils.FormatEnum(string(sp.Status)),
			utils.FormatEnum(string(sp.Payment.Status)),
			delivered,
			sp.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
		if sp.Status.CountsTowardRollups() {
			total += sp.Contribution.Value
			counted++
		}
	}

	if err := f.SetPanes(reportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	summary := "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	rows := [][]any{
		{"Organization", orgName},
		{"Sponsorships", counted},
		{"Total", total},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}
