package matchslipservice

import (
	"context"

	matchslipdomain "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/domain"
	matchslippolicy "github.com/Black-And-White-Club/tourney-desk/app/modules/matchslip/infrastructure/policy"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/notify"
	"github.com/Black-And-White-Club/tourney-desk/app/shared/results"
)

// Service drives a match slip from first game to signed or judged result.
type Service interface {
	CreateSlip(ctx context.Context, req CreateSlipRequest) (results.OperationResult[*matchslipdomain.Slip, error], error)
	SubmitGameResult(ctx context.Context, slipID string, req GameResultRequest) (results.OperationResult[*matchslipdomain.GameResult, error], error)
	SubmitSignature(ctx context.Context, slipID string, req SignatureRequest) (results.OperationResult[*matchslipdomain.Signature, error], error)
	SubmitPaperSlip(ctx context.Context, slipID string, req PaperSlipRequest) (results.OperationResult[*matchslipdomain.Slip, error], error)
	RaiseDispute(ctx context.Context, slipID string, req DisputeRequest) (results.OperationResult[*matchslipdomain.Dispute, error], error)
	ResolveDispute(ctx context.Context, slipID, judgeID, resolution string) (results.OperationResult[*matchslipdomain.Dispute, error], error)
	GetAvailableSignatureMethods(ctx context.Context, slipID string) (results.OperationResult[[]matchslipdomain.SignatureType, error], error)
	GetAlternativeMethods(ctx context.Context, tournamentID, operation string) ([]matchslippolicy.AlternativeMethod, error)
	GetSlip(ctx context.Context, slipID string) (results.OperationResult[*matchslipdomain.Slip, error], error)
	ListSlips(ctx context.Context, tournamentID string) (results.OperationResult[[]*matchslipdomain.Slip, error], error)
	ExportResults(ctx context.Context, tournamentID string) ([]byte, error)
	ImportPaperSlips(ctx context.Context, fileName string, data []byte) (results.OperationResult[*ImportReport, error], error)

	Subscribe(eventName string, handler notify.Handler) string
	Unsubscribe(id string) bool
}

// PlayerNames fills in participant display names. Errors fall back to the id.
type PlayerNames interface {
	ResolvePlayerName(ctx context.Context, playerID string) (string, error)
}

type CreateSlipRequest struct {
	TournamentID string                      `json:"tournament_id"`
	Round        int                         `json:"round"`
	Table        int                         `json:"table"`
	Player1      matchslipdomain.Participant `json:"player1"`
	Player2      matchslipdomain.Participant `json:"player2"`
}

type GameResultRequest struct {
	GameNumber  int        `json:"game_number"`
	WinnerID    string     `json:"winner_id"`
	Score       string     `json:"score"`
	Duration    GameLength `json:"duration"`
	SubmittedBy string     `json:"submitted_by"`
	Notes       string     `json:"notes,omitempty"`
}

type SignatureRequest struct {
	PlayerID   string                        `json:"player_id"`
	Type       matchslipdomain.SignatureType `json:"signature_type"`
	Data       string                        `json:"signature_data"`
	DeviceInfo matchslipdomain.DeviceInfo    `json:"device_info"`
}

type PaperSlipRequest struct {
	SubmittedBy     string `json:"submitted_by"`
	PaperSlipNumber string `json:"paper_slip_number"`
	JudgeSignature  string `json:"judge_signature,omitempty"`
}

type DisputeRequest struct {
	RaisedBy    string   `json:"raised_by"`
	Reason      string   `json:"reason"`
	Description string   `json:"description,omitempty"`
	Evidence    []string `json:"evidence,omitempty"`
}

// Import row outcomes.
const (
	ImportApplied  = "applied"
	ImportRejected = "rejected"
)

// ImportRow is the outcome of one transcribed paper slip.
type ImportRow struct {
	Line    int    `json:"line"`
	SlipID  string `json:"slip_id"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// ImportReport summarizes a paper-slip batch.
type ImportReport struct {
	FileName string      `json:"file_name"`
	Applied  int         `json:"applied"`
	Rejected int         `json:"rejected"`
	Rows     []ImportRow `json:"rows"`
}
