// Package analytics scores citizen health profiles for the admin risk view.
package analytics

import (
	"errors"
	"fmt"
	"strings"
)

// HighRiskThreshold is exclusive: a profile is high risk when its score is
// strictly greater.
const HighRiskThreshold = 7

// maxProfiles bounds a single scoring request.
const maxProfiles = 5000

var ErrValidation = errors.New("validation failed")

var chronicConditions = map[string]bool{
	"diabetes":      true,
	"hypertension":  true,
	"heart disease": true,
}

type HistoryEntry struct {
	Condition string `json:"condition"`
	Diagnosed string `json:"diagnosed,omitempty"`
}

// Visit is a clinic visit, most recent first.
type Visit struct {
	Date   string `json:"date,omitempty"`
	Reason string `json:"reason"`
}

type Profile struct {
	ID             string         `json:"id"`
	Name           string         `json:"name,omitempty"`
	Age            int            `json:"age"`
	MedicalHistory []HistoryEntry `json:"medicalHistory"`
	RecentVisits   []Visit        `json:"recentVisits"`
}

// Score computes the rule-based risk score of p.
//
//	+3 when older than 60
//	+1 per medical history entry
//	+2 when the latest visit mentions fever
//	+2 once when any history entry is a chronic condition
func Score(p *Profile) int {
	score := 0
	if p.Age > 60 {
		score += 3
	}
	score += len(p.MedicalHistory)
	if len(p.RecentVisits) > 0 && strings.Contains(strings.ToLower(p.RecentVisits[0].Reason), "fever") {
		score += 2
	}
	for _, h := range p.MedicalHistory {
		if chronicConditions[strings.ToLower(strings.TrimSpace(h.Condition))] {
			score += 2
			break
		}
	}
	return score
}

type ProfileScore struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Score    int    `json:"score"`
	HighRisk bool   `json:"high_risk"`
}

type Report struct {
	Scores        []ProfileScore `json:"scores"`
	Total         int            `json:"total"`
	HighRiskCount int            `json:"high_risk_count"`
}

// Assess scores every profile in input order.
func Assess(profiles []*Profile) (*Report, error) {
	if len(profiles) > maxProfiles {
		return nil, fmt.Errorf("%w: at most %d profiles per request", ErrValidation, maxProfiles)
	}
	r := &Report{Scores: make([]ProfileScore, 0, len(profiles)), Total: len(profiles)}
	for i, p := range profiles {
		if p == nil {
			return nil, fmt.Errorf("%w: profile %d is null", ErrValidation, i)
		}
		s := Score(p)
		high := s > HighRiskThreshold
		if high {
			r.HighRiskCount++
		}
		r.Scores = append(r.Scores, ProfileScore{ID: p.ID, Name: p.Name, Score: s, HighRisk: high})
	}
	return r, nil
}
