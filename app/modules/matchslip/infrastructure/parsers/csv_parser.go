package matchslipparsers

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVParser reads comma separated paper-slip batches.
type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Parse(fileData []byte, fileName string) ([]PaperSlipRow, error) {
	reader := csv.NewReader(bytes.NewReader(fileData))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return toPaperSlips(rows, fileName)
}
