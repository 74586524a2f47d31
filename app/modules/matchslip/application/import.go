package matchslipservice

import (
	"context"
	"fmt"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/attr"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// ImportPaperSlips applies a judge's batch of transcribed paper slips row by
// row. Each row succeeds or fails on its own; one bad row never stops the rest.
func (s *MatchSlipService) ImportPaperSlips(ctx context.Context, fileName string, data []byte) (results.OperationResult[*ImportReport, error], error) {
	return withTelemetry(s, ctx, "ImportPaperSlips", "", func(ctx context.Context) (results.OperationResult[*ImportReport, error], error) {
		return s.importLogic(ctx, fileName, data)
	})
}

func (s *MatchSlipService) importLogic(ctx context.Context, fileName string, data []byte) (results.OperationResult[*ImportReport, error], error) {
	parser, err := s.parsers.GetParser(fileName)
	if err != nil {
		return results.FailureResult[*ImportReport, error](fmt.Errorf("%w: %v", matchslipdomain.ErrInvalidInput, err)), nil
	}
	rows, err := parser.Parse(data, fileName)
	if err != nil {
		return results.FailureResult[*ImportReport, error](fmt.Errorf("%w: %v", matchslipdomain.ErrInvalidInput, err)), nil
	}

	report := &ImportReport{FileName: fileName, Rows: make([]ImportRow, 0, len(rows))}
	for _, row := range rows {
		outcome := ImportRow{Line: row.Line, SlipID: row.SlipID, Status: ImportApplied}

		result, err := s.SubmitPaperSlip(ctx, row.SlipID, PaperSlipRequest{
			SubmittedBy:     row.SubmittedBy,
			PaperSlipNumber: row.PaperSlipNumber,
			JudgeSignature:  row.JudgeSignature,
		})
		switch {
		case err != nil:
			s.logger.ErrorContext(ctx, "Paper slip row failed",
				attr.ExtractCorrelationID(ctx),
				attr.String("file", fileName),
				attr.Int("line", row.Line),
				attr.Error(err),
			)
			outcome.Status = ImportRejected
			outcome.Reason = "internal"
			outcome.Message = "could not be applied"
		case result.IsFailure():
			outcome.Status = ImportRejected
			outcome.Reason = matchslipdomain.ReasonFor(*result.Failure)
			outcome.Message = (*result.Failure).Error()
		}

		if outcome.Status == ImportApplied {
			report.Applied++
		} else {
			report.Rejected++
		}
		report.Rows = append(report.Rows, outcome)
	}

	return results.SuccessResult[*ImportReport, error](report), nil
}
