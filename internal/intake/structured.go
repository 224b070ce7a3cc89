package intake

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/symptia/internal/model"
	"gopkg.in/yaml.v3"
)

// JSONLinesAdapter reads one JSON intake object per line
type JSONLinesAdapter struct{}

func NewJSONLinesAdapter() *JSONLinesAdapter {
	return &JSONLinesAdapter{}
}

func (a *JSONLinesAdapter) Name() string {
	return "jsonl"
}

func (a *JSONLinesAdapter) CanHandle(filename string) bool {
	return hasExt(filename, ".jsonl", ".ndjson")
}

func (a *JSONLinesAdapter) Parse(data []byte) ([]model.Intake, error) {
	var intakes []model.Intake

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var in model.Intake
		if err := json.Unmarshal([]byte(line), &in); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		intakes = append(intakes, in)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}
	return intakes, nil
}

// YAMLAdapter reads a YAML list of intakes
type YAMLAdapter struct{}

func NewYAMLAdapter() *YAMLAdapter {
	return &YAMLAdapter{}
}

func (a *YAMLAdapter) Name() string {
	return "yaml"
}

func (a *YAMLAdapter) CanHandle(filename string) bool {
	return hasExt(filename, ".yaml", ".yml")
}

func (a *YAMLAdapter) Parse(data []byte) ([]model.Intake, error) {
	var intakes []model.Intake
	if err := yaml.Unmarshal(data, &intakes); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return intakes, nil
}
