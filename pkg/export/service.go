package export

import (
	"fmt"
	"time"

	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/xuri/excelize/v2"
)

// BuildPipelineReport renders the current pipeline into an XLSX workbook:
// a Summary sheet with the overview and stage breakdown, plus a Deals sheet
// listing every deal. The caller owns closing the returned file.
func BuildPipelineReport(deals []*models.Deal, overview models.OverviewSnapshot, breakdown models.StageBreakdownSnapshot) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	summaryRows := [][]any{
		{"Total Leads", overview.TotalLeads},
		{"Active Leads", overview.ActiveLeads},
		{"Closed Won", overview.ClosedWon},
		{"Closed Lost", overview.ClosedLost},
		{"Pipeline Value", overview.TotalPipelineValue},
		{"Win Rate %", overview.WinRate},
	}
	f.SetCellValue(summary, "A1", "Metric")
	f.SetCellValue(summary, "B1", "Value")
	f.SetCellStyle(summary, "A1", "B1", headerStyle)
	for i, row := range summaryRows {
		f.SetCellValue(summary, fmt.Sprintf("A%d", i+2), row[0])
		f.SetCellValue(summary, fmt.Sprintf("B%d", i+2), row[1])
	}

	stageHeaderRow := len(summaryRows) + 3
	stageHeaders := []string{"Stage", "Count", "Value", "Avg Probability"}
	for i, header := range stageHeaders {
		cell := fmt.Sprintf("%c%d", 'A'+i, stageHeaderRow)
		f.SetCellValue(summary, cell, header)
		f.SetCellStyle(summary, cell, cell, headerStyle)
	}
	for i, row := range breakdown.Stages {
		r := stageHeaderRow + i + 1
		f.SetCellValue(summary, fmt.Sprintf("A%d", r), row.Stage)
		f.SetCellValue(summary, fmt.Sprintf("B%d", r), row.Count)
		f.SetCellValue(summary, fmt.Sprintf("C%d", r), row.Value)
		f.SetCellValue(summary, fmt.Sprintf("D%d", r), row.AvgProbability)
	}

	sheetName := "Deals"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headers := []string{
		"ID", "Stage", "Probability", "Expected Value", "Actual Value",
		"Currency", "Priority", "Source", "Agent", "Days In Pipeline",
		"Stage Changes", "Close Reason", "Created At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	now := time.Now()
	for rowIdx, deal := range deals {
		row := rowIdx + 2
		agent := ""
		if deal.Agent != nil {
			agent = deal.Agent.Name
		} else if deal.AgentID != nil {
			agent = fmt.Sprintf("#%d", *deal.AgentID)
		}
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), deal.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), deal.Stage)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), deal.Probability)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), deal.ExpectedValue)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), deal.ActualValue)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), deal.Currency)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), string(deal.Priority))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), deal.Source)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), agent)
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), deal.DaysInPipeline(now))
		f.SetCellValue(sheetName, fmt.Sprintf("K%d", row), deal.StageChangesCount)
		f.SetCellValue(sheetName, fmt.Sprintf("L%d", row), deal.CloseReason)
		f.SetCellValue(sheetName, fmt.Sprintf("M%d", row), deal.CreatedAt.Format(time.RFC3339))
	}

	for i := 0; i < len(headers); i++ {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 15)
	}

	f.SetActiveSheet(index)
	return f, nil
}
