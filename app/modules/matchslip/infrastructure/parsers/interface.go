package matchslipparsers

// Parser reads a transcribed batch of paper slips.
type Parser interface {
	// Parse reads raw file bytes. fileName is only used in error messages.
	Parse(fileData []byte, fileName string) ([]PaperSlipRow, error)
}

// PaperSlipRow is one transcribed paper slip. Line is the 1-based row in the
// source file, header included.
type PaperSlipRow struct {
	Line            int    `json:"line"`
	SlipID          string `json:"slip_id"`
	SubmittedBy     string `json:"submitted_by"`
	PaperSlipNumber string `json:"paper_slip_number"`
	JudgeSignature  string `json:"judge_signature,omitempty"`
}
