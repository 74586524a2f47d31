package matchslipparsers

import (
	"fmt"
	"strings"
)

// Factory picks a parser from a file extension.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// GetParser returns a parser for the given file name.
func (f *Factory) GetParser(fileName string) (Parser, error) {
	lower := strings.ToLower(fileName)

	if strings.HasSuffix(lower, ".csv") {
		return NewCSVParser(), nil
	}
	if strings.HasSuffix(lower, ".xlsx") {
		return NewXLSXParser(), nil
	}

	return nil, fmt.Errorf("unsupported file type: %s (must be .csv or .xlsx)", fileName)
}
