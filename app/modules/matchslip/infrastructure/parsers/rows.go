package matchslipparsers

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoRows = errors.New("file contains no paper slips")

type columns struct {
	slipID, submittedBy, number, judge int
}

func findColumn(header []string, names ...string) int {
	for i, col := range header {
		normalized := strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(col)), " ", ""), "_", "")
		for _, name := range names {
			if normalized == name {
				return i
			}
		}
	}
	return -1
}

func locateColumns(header []string) (columns, error) {
	c := columns{
		slipID:      findColumn(header, "slipid", "slip"),
		submittedBy: findColumn(header, "submittedby", "player", "playerid"),
		number:      findColumn(header, "paperslipnumber", "slipnumber", "number"),
		judge:       findColumn(header, "judgesignature", "judge", "judgeid"),
	}
	var missing []string
	if c.slipID < 0 {
		missing = append(missing, "slip_id")
	}
	if c.submittedBy < 0 {
		missing = append(missing, "submitted_by")
	}
	if c.number < 0 {
		missing = append(missing, "paper_slip_number")
	}
	if len(missing) > 0 {
		return c, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return c, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// toPaperSlips maps a header row plus data rows. Blank rows are skipped.
func toPaperSlips(rows [][]string, fileName string) ([]PaperSlipRow, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: %w", fileName, ErrNoRows)
	}

	cols, err := locateColumns(rows[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}

	out := make([]PaperSlipRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		r := PaperSlipRow{
			Line:            i + 1,
			SlipID:          cell(row, cols.slipID),
			SubmittedBy:     cell(row, cols.submittedBy),
			PaperSlipNumber: cell(row, cols.number),
			JudgeSignature:  cell(row, cols.judge),
		}
		if r.SlipID == "" && r.SubmittedBy == "" && r.PaperSlipNumber == "" && r.JudgeSignature == "" {
			continue
		}
		out = append(out, r)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", fileName, ErrNoRows)
	}
	return out, nil
}
