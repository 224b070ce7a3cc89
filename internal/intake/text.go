package intake

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/ppiankov/symptia/internal/model"
)

// TextAdapter reads one symptom description per line.
// Blank lines and lines starting with # are skipped.
type TextAdapter struct{}

func NewTextAdapter() *TextAdapter {
	return &TextAdapter{}
}

func (a *TextAdapter) Name() string {
	return "text"
}

// CanHandle accepts .txt files and files without an extension
func (a *TextAdapter) CanHandle(filename string) bool {
	return hasExt(filename, ".txt", "")
}

func (a *TextAdapter) Parse(data []byte) ([]model.Intake, error) {
	var intakes []model.Intake

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		intakes = append(intakes, model.Intake{Text: line})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}
	return intakes, nil
}
