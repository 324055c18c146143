package assignment

import "context"

type Store interface {
	ListOpen(ctx context.Context) ([]*Assignment, error)
	ListByVolunteer(ctx context.Context, volunteerID int64) ([]*Assignment, error)
	// ListAll returns one page, newest first, and the total count.
	ListAll(ctx context.Context, limit, offset int) ([]*Assignment, int, error)
	Get(ctx context.Context, id int64) (*Assignment, error)
	Create(ctx context.Context, a *Assignment) error
	Update(ctx context.Context, id int64, d *Draft) (*Assignment, error)
	Delete(ctx context.Context, id int64) error
	// Accept claims an unassigned assignment and reports whether it did.
	Accept(ctx context.Context, id, volunteerID int64) (bool, error)
	// SaveSubmission writes status and submissions only while volunteerID is
	// still the assignee and reports whether it did.
	SaveSubmission(ctx context.Context, a *Assignment, volunteerID int64) (bool, error)
}
