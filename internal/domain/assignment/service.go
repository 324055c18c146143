// Package assignment hands field tasks from administrators to volunteers.
package assignment

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

var (
	ErrNotFound     = errors.New("assignment not found")
	ErrAlreadyTaken = errors.New("assignment already taken")
	ErrNotAssigned  = errors.New("assignment is not assigned to you")
	ErrValidation   = errors.New("validation failed")
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) VolunteerView(ctx context.Context, volunteerID int64) (*VolunteerView, error) {
	open, err := s.store.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	mine, err := s.store.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	return &VolunteerView{Open: open, Mine: mine}, nil
}

// Accept assigns the task to volunteerID and marks it Working.
func (s *Service) Accept(ctx context.Context, volunteerID, id int64) (*Assignment, error) {
	ok, err := s.store.Accept(ctx, id, volunteerID)
	if err != nil {
		return nil, err
	}
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		if a.VolunteerID != nil && *a.VolunteerID == volunteerID {
			return a, nil
		}
		return nil, ErrAlreadyTaken
	}
	zerolog.Ctx(ctx).Info().Int64("assignment_id", id).Int64("volunteer_id", volunteerID).Msg("assignment accepted")
	return a, nil
}

// Submit records progress. Only the assigned volunteer may do so.
func (s *Service) Submit(ctx context.Context, volunteerID, id int64, sub *Submission) (*Assignment, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	a, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.VolunteerID == nil || *a.VolunteerID != volunteerID {
		return nil, ErrNotAssigned
	}
	sub.Apply(a)
	ok, err := s.store.SaveSubmission(ctx, a, volunteerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAssigned
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Assignment, int, error) {
	return s.store.ListAll(ctx, limit, offset)
}

// Create stores a new Pending assignment owned by adminID.
func (s *Service) Create(ctx context.Context, adminID int64, d *Draft) (*Assignment, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	a := &Assignment{
		Title:          d.Title,
		Description:    d.Description,
		GivenAt:        d.GivenAt,
		Area:           d.Area,
		SkillsRequired: d.SkillsRequired,
		ContactNumber:  d.ContactNumber,
		AdminID:        &adminID,
		Status:         StatusPending,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, id int64, d *Draft) (*Assignment, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, d)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}
