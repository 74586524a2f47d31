package matchslipservice

import (
	"context"
	"fmt"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

var resultsHeader = []string{"Round", "Table", "Player 1", "Player 2", "Final Score", "Winner", "Status"}

// ExportResults renders a tournament's slips as an xlsx workbook.
func (s *MatchSlipService) ExportResults(ctx context.Context, tournamentID string) ([]byte, error) {
	slips, err := s.registry.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slips: %w", err)
	}
	return RenderResultsWorkbook(slips)
}

// RenderResultsWorkbook writes one row per slip under a header row. A slip
// without a decided winner leaves the winner cell empty.
func RenderResultsWorkbook(slips []*matchslipdomain.Slip) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(resultsSheet, "A1", &resultsHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, slip := range slips {
		winner := ""
		switch slip.WinnerID {
		case "":
		case slip.Player1.ID:
			winner = slip.Player1.Name
		case slip.Player2.ID:
			winner = slip.Player2.Name
		}
		row := []interface{}{
			slip.Round,
			slip.Table,
			slip.Player1.Name,
			slip.Player2.Name,
			slip.FinalScore,
			winner,
			string(slip.Status),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
