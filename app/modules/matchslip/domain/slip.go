package matchslipdomain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/Black-And-White-Club/tourney-desk/app/shared/audit"
)

// DefaultQRTTL is how long a slip's QR code stays valid.
const DefaultQRTTL = 24 * time.Hour

// Participant is one side of a match.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GameResult is one game's outcome. Immutable once recorded.
type GameResult struct {
	GameNumber  int           `json:"game_number"`
	WinnerID    string        `json:"winner_id"`
	Score       string        `json:"score"`
	Duration    time.Duration `json:"duration"`
	SubmittedBy string        `json:"submitted_by"`
	SubmittedAt time.Time     `json:"submitted_at"`
	Notes       string        `json:"notes,omitempty"`
}

// Slip is the authoritative record of one table's match.
type Slip struct {
	ID               string        `json:"id"`
	TournamentID     string        `json:"tournament_id"`
	Round            int           `json:"round"`
	Table            int           `json:"table"`
	Player1          Participant   `json:"player1"`
	Player2          Participant   `json:"player2"`
	Games            []GameResult  `json:"games"`
	Status           SlipStatus    `json:"status"`
	Player1Signature *Signature    `json:"player1_signature,omitempty"`
	Player2Signature *Signature    `json:"player2_signature,omitempty"`
	Dispute          *Dispute      `json:"dispute,omitempty"`
	WinnerID         string        `json:"winner_id,omitempty"`
	FinalScore       string        `json:"final_score"`
	PhoneBanned      bool          `json:"phone_banned"`
	QRCode           string        `json:"qr_code,omitempty"`
	QRCodeExpiresAt  *time.Time    `json:"qr_code_expires_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	SubmittedAt      *time.Time    `json:"submitted_at,omitempty"`
	ReviewedBy       string        `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time    `json:"reviewed_at,omitempty"`
	AuditTrail       []audit.Entry `json:"audit_trail"`
}

// NewSlip builds a Pending slip. A QR code is attached only when phones are allowed.
func NewSlip(id, tournamentID string, round, table int, p1, p2 Participant, phoneBanned bool, now time.Time, qrTTL time.Duration) (*Slip, error) {
	s := &Slip{
		ID:           id,
		TournamentID: tournamentID,
		Round:        round,
		Table:        table,
		Player1:      p1,
		Player2:      p2,
		Games:        []GameResult{},
		Status:       StatusPending,
		FinalScore:   "0-0",
		PhoneBanned:  phoneBanned,
		CreatedAt:    now,
		AuditTrail:   []audit.Entry{},
	}
	if phoneBanned {
		return s, nil
	}

	code, err := newQRCode(id)
	if err != nil {
		return nil, err
	}
	if qrTTL <= 0 {
		qrTTL = DefaultQRTTL
	}
	expires := now.Add(qrTTL)
	s.QRCode = code
	s.QRCodeExpiresAt = &expires
	return s, nil
}

func newQRCode(slipID string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return "slip:" + slipID + ":" + base64.RawURLEncoding.EncodeToString(buf), nil
}

func withDetail(err error, detail string) error {
	return fmt.Errorf("%w: %s", err, detail)
}

// IsParticipant reports whether playerID is one of the two players.
func (s *Slip) IsParticipant(playerID string) bool {
	return playerID != "" && (playerID == s.Player1.ID || playerID == s.Player2.ID)
}

// RecordGame appends a game result and recomputes the standing.
func (s *Slip) RecordGame(g GameResult) error {
	next, err := Transition(s.Status, TriggerGameRecorded)
	if err != nil {
		return err
	}
	if g.GameNumber < 1 {
		return withDetail(ErrInvalidInput, "game number must be positive")
	}
	if !s.IsParticipant(g.WinnerID) {
		return withDetail(ErrInvalidInput, "winner must be a participant")
	}
	for _, existing := range s.Games {
		if existing.GameNumber == g.GameNumber {
			return fmt.Errorf("%w: game %d", ErrDuplicateGame, g.GameNumber)
		}
	}

	s.Games = append(s.Games, g)
	s.Status = next
	s.recompute()
	return nil
}

// recompute derives WinnerID and FinalScore from per-game winners. A tie
// leaves WinnerID empty.
func (s *Slip) recompute() {
	var w1, w2 int
	for _, g := range s.Games {
		switch g.WinnerID {
		case s.Player1.ID:
			w1++
		case s.Player2.ID:
			w2++
		}
	}
	s.FinalScore = fmt.Sprintf("%d-%d", w1, w2)
	switch {
	case w1 > w2:
		s.WinnerID = s.Player1.ID
	case w2 > w1:
		s.WinnerID = s.Player2.ID
	default:
		s.WinnerID = ""
	}
}

func (s *Slip) slotFor(playerID string) **Signature {
	if playerID == s.Player1.ID {
		return &s.Player1Signature
	}
	return &s.Player2Signature
}

func (s *Slip) fullySignedWith(playerID string) bool {
	if playerID == s.Player1.ID {
		return s.Player2Signature != nil
	}
	return s.Player1Signature != nil
}

// Sign stores sig in the player's slot, overwriting an earlier one, and
// completes the slip once both slots are filled. It reports whether the slip
// completed.
func (s *Slip) Sign(sig Signature, now time.Time) (bool, error) {
	if !s.IsParticipant(sig.PlayerID) {
		return false, ErrNotParticipant
	}
	if !sig.Type.IsValid() {
		return false, withDetail(ErrInvalidInput, "unknown signature type")
	}
	if strings.TrimSpace(sig.Data) == "" {
		return false, withDetail(ErrInvalidInput, "signature data is required")
	}
	if err := sig.CheckPolicy(s.PhoneBanned); err != nil {
		return false, err
	}

	trigger := TriggerSigned
	if s.fullySignedWith(sig.PlayerID) {
		trigger = TriggerFullySigned
	}
	next, err := Transition(s.Status, trigger)
	if err != nil {
		return false, err
	}

	*s.slotFor(sig.PlayerID) = &sig
	s.Status = next
	if next == StatusCompleted {
		s.SubmittedAt = &now
		return true, nil
	}
	return false, nil
}

// PaperSignatureData encodes a paper slip number as signature data.
func PaperSignatureData(paperSlipNumber string) string {
	return "paper-slip:" + paperSlipNumber
}

// SubmitPaper records a transcribed paper slip for submittedBy. With a judge
// signature the slip completes immediately; without one it counts as that
// player's signature only.
func (s *Slip) SubmitPaper(submittedBy, paperSlipNumber, judgeSignature string, now time.Time) (bool, error) {
	if !s.PhoneBanned {
		return false, ErrInvalidFallback
	}
	if !s.IsParticipant(submittedBy) {
		return false, ErrNotParticipant
	}
	paperSlipNumber = strings.TrimSpace(paperSlipNumber)
	if paperSlipNumber == "" {
		return false, withDetail(ErrInvalidInput, "paper slip number is required")
	}

	trigger := TriggerSigned
	switch {
	case judgeSignature != "":
		trigger = TriggerJudgeAttested
	case s.fullySignedWith(submittedBy):
		trigger = TriggerFullySigned
	}
	next, err := Transition(s.Status, trigger)
	if err != nil {
		return false, err
	}

	*s.slotFor(submittedBy) = &Signature{
		PlayerID:   submittedBy,
		Type:       SignatureDigital,
		Data:       PaperSignatureData(paperSlipNumber),
		Timestamp:  now,
		DeviceInfo: DeviceInfo{UserAgent: "paper-slip"},
	}
	s.Status = next
	if trigger == TriggerJudgeAttested {
		s.ReviewedBy = judgeSignature
		s.ReviewedAt = &now
	}
	if next == StatusCompleted {
		s.SubmittedAt = &now
		return true, nil
	}
	return false, nil
}

// RaiseDispute opens d against the slip, overriding its status.
func (s *Slip) RaiseDispute(d Dispute) error {
	if !s.IsParticipant(d.RaisedBy) {
		return ErrNotParticipant
	}
	if strings.TrimSpace(d.Reason) == "" {
		return withDetail(ErrInvalidInput, "dispute reason is required")
	}
	next, err := Transition(s.Status, TriggerDisputeRaised)
	if err != nil {
		return err
	}

	d.Status = DisputeOpen
	s.Dispute = &d
	s.Status = next
	return nil
}

// ResolveDispute closes the open dispute with a judge's ruling.
func (s *Slip) ResolveDispute(judgeID, resolution string, now time.Time) (*Dispute, error) {
	if strings.TrimSpace(judgeID) == "" {
		return nil, ErrJudgeRequired
	}
	if s.Dispute == nil {
		return nil, ErrNoDispute
	}
	if s.Dispute.Status == DisputeResolved {
		return nil, ErrDisputeClosed
	}
	next, err := Transition(s.Status, TriggerDisputeResolved)
	if err != nil {
		return nil, err
	}

	s.Dispute.Status = DisputeResolved
	s.Dispute.AssignedJudge = judgeID
	s.Dispute.Resolution = resolution
	s.Dispute.ResolvedAt = &now
	s.Status = next
	s.ReviewedBy = judgeID
	s.ReviewedAt = &now
	return s.Dispute, nil
}

// AppendAudit adds an entry to the slip's own trail.
func (s *Slip) AppendAudit(e audit.Entry) {
	s.AuditTrail = append(s.AuditTrail, e)
}

// Clone returns a deep copy.
func (s *Slip) Clone() *Slip {
	if s == nil {
		return nil
	}
	c := *s
	c.Games = append([]GameResult(nil), s.Games...)
	if c.Games == nil {
		c.Games = []GameResult{}
	}
	c.Player1Signature = cloneSignature(s.Player1Signature)
	c.Player2Signature = cloneSignature(s.Player2Signature)
	if s.Dispute != nil {
		d := *s.Dispute
		d.Evidence = append([]string(nil), s.Dispute.Evidence...)
		d.ResolvedAt = cloneTime(s.Dispute.ResolvedAt)
		c.Dispute = &d
	}
	c.QRCodeExpiresAt = cloneTime(s.QRCodeExpiresAt)
	c.SubmittedAt = cloneTime(s.SubmittedAt)
	c.ReviewedAt = cloneTime(s.ReviewedAt)
	c.AuditTrail = make([]audit.Entry, len(s.AuditTrail))
	for i, e := range s.AuditTrail {
		c.AuditTrail[i] = e.Clone()
	}
	return &c
}

func cloneSignature(sig *Signature) *Signature {
	if sig == nil {
		return nil
	}
	c := *sig
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
