package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/db"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/pkg/pagination"
)

type pgStore struct {
	pool db.Queryable
}

func NewPGStore(pool db.Queryable) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, s.pool)
}

const assignmentCols = `id, title, description, COALESCE(to_char(given_at, 'YYYY-MM-DD'), ''), area,
	skills_required, contact_number, admin_id, volunteer_id, assignment_status,
	submission1, submission2, submission3, created_at`

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.GivenAt, &a.Area, &a.SkillsRequired,
		&a.ContactNumber, &a.AdminID, &a.VolunteerID, &a.Status, &a.Submission1, &a.Submission2,
		&a.Submission3, &a.CreatedAt)
	return &a, err
}

func (s *pgStore) query(ctx context.Context, sql string, args ...interface{}) ([]*Assignment, error) {
	rows, err := s.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	out := []*Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *pgStore) ListOpen(ctx context.Context) ([]*Assignment, error) {
	return s.query(ctx, `SELECT `+assignmentCols+` FROM assignments
		WHERE volunteer_id IS NULL ORDER BY created_at DESC, id DESC`)
}

func (s *pgStore) ListByVolunteer(ctx context.Context, volunteerID int64) ([]*Assignment, error) {
	return s.query(ctx, `SELECT `+assignmentCols+` FROM assignments
		WHERE volunteer_id = $1 ORDER BY created_at DESC, id DESC`, volunteerID)
}

func (s *pgStore) ListAll(ctx context.Context, limit, offset int) ([]*Assignment, int, error) {
	var total int
	if err := s.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM assignments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	page := pagination.Params{Limit: limit, Offset: offset}
	out, err := s.query(ctx, `SELECT `+assignmentCols+` FROM assignments
		ORDER BY created_at DESC, id DESC `+page.SQL())
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *pgStore) Get(ctx context.Context, id int64) (*Assignment, error) {
	a, err := scanAssignment(s.conn(ctx).QueryRow(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s *pgStore) Create(ctx context.Context, a *Assignment) error {
	err := s.conn(ctx).QueryRow(ctx, `INSERT INTO assignments
		(title, description, given_at, area, skills_required, contact_number, admin_id, assignment_status)
		VALUES ($1,$2,NULLIF($3,'')::date,$4,$5,$6,$7,$8)
		RETURNING id, created_at`,
		a.Title, a.Description, a.GivenAt, a.Area, a.SkillsRequired, a.ContactNumber, a.AdminID, a.Status,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

func (s *pgStore) Update(ctx context.Context, id int64, d *Draft) (*Assignment, error) {
	a, err := scanAssignment(s.conn(ctx).QueryRow(ctx, `UPDATE assignments SET
		title=$2, description=$3, given_at=NULLIF($4,'')::date, area=$5, skills_required=$6, contact_number=$7
		WHERE id=$1 RETURNING `+assignmentCols,
		id, d.Title, d.Description, d.GivenAt, d.Area, d.SkillsRequired, d.ContactNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update assignment: %w", err)
	}
	return a, nil
}

func (s *pgStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) Accept(ctx context.Context, id, volunteerID int64) (bool, error) {
	tag, err := s.conn(ctx).Exec(ctx, `UPDATE assignments SET volunteer_id = $2, assignment_status = $3
		WHERE id = $1 AND volunteer_id IS NULL`, id, volunteerID, StatusWorking)
	if err != nil {
		return false, fmt.Errorf("accept assignment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *pgStore) SaveSubmission(ctx context.Context, a *Assignment, volunteerID int64) (bool, error) {
	tag, err := s.conn(ctx).Exec(ctx, `UPDATE assignments SET assignment_status = $3,
		submission1 = $4, submission2 = $5, submission3 = $6
		WHERE id = $1 AND volunteer_id = $2`,
		a.ID, volunteerID, a.Status, a.Submission1, a.Submission2, a.Submission3)
	if err != nil {
		return false, fmt.Errorf("save submission: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
