// Package symptom asks a generative model for likely conditions behind a set
// of reported symptoms.
package symptom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")
	// ErrUnparseable means the model answered with something other than the
	// requested JSON document.
	ErrUnparseable = errors.New("model answer is not valid analysis json")
)

// Generator produces text for a prompt. genai.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var medicationTypes = map[string]bool{
	"allopathy":   true,
	"ayurveda":    true,
	"homeopathy":  true,
	"unani":       true,
	"naturopathy": true,
}

const maxSymptomLen = 200

type Request struct {
	PrimarySymptom   string `json:"primary_symptom"`
	SecondarySymptom string `json:"secondary_symptom"`
	OptionalSymptom  string `json:"optional_symptom"`
	MedicationType   string `json:"medication_type"`
}

func (r *Request) Validate() error {
	r.PrimarySymptom = strings.TrimSpace(r.PrimarySymptom)
	r.SecondarySymptom = strings.TrimSpace(r.SecondarySymptom)
	r.OptionalSymptom = strings.TrimSpace(r.OptionalSymptom)
	r.MedicationType = strings.ToLower(strings.TrimSpace(r.MedicationType))

	if r.PrimarySymptom == "" || r.SecondarySymptom == "" {
		return fmt.Errorf("%w: primary and secondary symptoms are required", ErrValidation)
	}
	for _, s := range []string{r.PrimarySymptom, r.SecondarySymptom, r.OptionalSymptom} {
		if len(s) > maxSymptomLen {
			return fmt.Errorf("%w: symptoms must be at most %d characters", ErrValidation, maxSymptomLen)
		}
	}
	if r.MedicationType == "" {
		r.MedicationType = "allopathy"
	}
	if !medicationTypes[r.MedicationType] {
		return fmt.Errorf("%w: unknown medication type %q", ErrValidation, r.MedicationType)
	}
	return nil
}

type Condition struct {
	Name        string   `json:"name"`
	Probability float64  `json:"probability"`
	Medications []string `json:"medications"`
	Precautions []string `json:"precautions"`
}

type Analysis struct {
	Conditions []Condition `json:"conditions"`
}

func prompt(r *Request) string {
	var b strings.Builder
	b.WriteString("Given these symptoms:\n")
	fmt.Fprintf(&b, "Primary: %s\n", r.PrimarySymptom)
	fmt.Fprintf(&b, "Secondary: %s\n", r.SecondarySymptom)
	if r.OptionalSymptom != "" {
		fmt.Fprintf(&b, "Additional: %s\n", r.OptionalSymptom)
	}
	b.WriteString("\nProvide a medical analysis with:\n")
	b.WriteString("1. Three most likely conditions with probability percentages\n")
	fmt.Fprintf(&b, "2. Recommended %s medications for each condition\n", r.MedicationType)
	b.WriteString("3. Basic precautions and lifestyle recommendations\n\n")
	b.WriteString(`Respond with JSON only, in this format:
{"conditions": [{"name": "condition name", "probability": number, "medications": ["med1", "med2"], "precautions": ["precaution1", "precaution2"]}]}`)
	return b.String()
}

// parse extracts the analysis from a model answer, which may wrap the
// document in a fenced code block or surrounding prose.
func parse(answer string) (*Analysis, error) {
	s := strings.TrimSpace(answer)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, ErrUnparseable
	}

	var a Analysis
	if err := json.Unmarshal([]byte(s[start:end+1]), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if len(a.Conditions) == 0 {
		return nil, ErrUnparseable
	}
	for i := range a.Conditions {
		c := &a.Conditions[i]
		if c.Medications == nil {
			c.Medications = []string{}
		}
		if c.Precautions == nil {
			c.Precautions = []string{}
		}
	}
	return &a, nil
}

type Analyzer struct {
	gen Generator
}

func NewAnalyzer(gen Generator) *Analyzer {
	return &Analyzer{gen: gen}
}

func (a *Analyzer) Analyze(ctx context.Context, r *Request) (*Analysis, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	answer, err := a.gen.Generate(ctx, prompt(r))
	if err != nil {
		return nil, fmt.Errorf("generate analysis: %w", err)
	}
	return parse(answer)
}
