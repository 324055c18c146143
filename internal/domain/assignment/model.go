package assignment

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusNotStarted Status = "Not Started"
	StatusWorking    Status = "Working"
	StatusDone       Status = "Done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusNotStarted, StatusWorking, StatusDone:
		return true
	}
	return false
}

// maxSubmissionBytes bounds one submission. Submissions are usually data
// URLs of uploaded files.
const maxSubmissionBytes = 4 << 20

type Assignment struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	GivenAt        string    `json:"given_at"`
	Area           string    `json:"area"`
	SkillsRequired string    `json:"skills_required"`
	ContactNumber  string    `json:"contact_number"`
	AdminID        *int64    `json:"admin_id"`
	VolunteerID    *int64    `json:"volunteer_id"`
	Status         Status    `json:"assignment_status"`
	Submission1    string    `json:"submission1"`
	Submission2    string    `json:"submission2"`
	Submission3    string    `json:"submission3"`
	CreatedAt      time.Time `json:"created_at"`
}

// Draft is the admin manager's create and edit form.
type Draft struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	GivenAt        string `json:"given_at"`
	Area           string `json:"area"`
	SkillsRequired string `json:"skills_required"`
	ContactNumber  string `json:"contact_number"`
}

const dateLayout = "2006-01-02"

func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if d.GivenAt != "" {
		if _, err := time.Parse(dateLayout, d.GivenAt); err != nil {
			return fmt.Errorf("%w: given_at must be YYYY-MM-DD", ErrValidation)
		}
	}
	return nil
}

// Submission is a volunteer's progress report. Nil submissions are left
// unchanged.
type Submission struct {
	Status      Status  `json:"assignment_status"`
	Submission1 *string `json:"submission1"`
	Submission2 *string `json:"submission2"`
	Submission3 *string `json:"submission3"`
}

func (s *Submission) Validate() error {
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, s.Status)
	}
	for i, sub := range []*string{s.Submission1, s.Submission2, s.Submission3} {
		if sub != nil && len(*sub) > maxSubmissionBytes {
			return fmt.Errorf("%w: submission%d is too large", ErrValidation, i+1)
		}
	}
	return nil
}

// Apply merges s into a.
func (s *Submission) Apply(a *Assignment) {
	a.Status = s.Status
	if s.Submission1 != nil {
		a.Submission1 = *s.Submission1
	}
	if s.Submission2 != nil {
		a.Submission2 = *s.Submission2
	}
	if s.Submission3 != nil {
		a.Submission3 = *s.Submission3
	}
}

// VolunteerView is what a volunteer's panel lists.
type VolunteerView struct {
	Open []*Assignment `json:"open"`
	Mine []*Assignment `json:"mine"`
}
