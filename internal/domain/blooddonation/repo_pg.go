package blooddonation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/db"
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

const donationCols = `id, blood_group, area, contact, specific_requirement, created_at,
	volunteer_id, admin_id, hospital_admin_id, medical_shop_admin_id, citizen_id, donor_id, requireduser_id`

func scanDonation(row pgx.Row) (*Donation, error) {
	var d Donation
	err := row.Scan(&d.ID, &d.BloodGroup, &d.Area, &d.Contact, &d.SpecificRequirement, &d.CreatedAt,
		&d.VolunteerID, &d.AdminID, &d.HospitalAdminID, &d.MedicalShopAdminID, &d.CitizenID,
		&d.DonorID, &d.RequiredUserID)
	return &d, err
}

// likePattern escapes LIKE metacharacters in s and wraps it in wildcards.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (s *pgStore) List(ctx context.Context, search string) ([]*Donation, error) {
	sql := `SELECT ` + donationCols + ` FROM blood_donation`
	var args []interface{}
	if search != "" {
		sql += ` WHERE blood_group ILIKE $1 OR area ILIKE $1`
		args = append(args, likePattern(search))
	}
	sql += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list blood donations: %w", err)
	}
	defer rows.Close()

	out := []*Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blood donation: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *pgStore) Get(ctx context.Context, id int64) (*Donation, error) {
	d, err := scanDonation(s.conn(ctx).QueryRow(ctx, `SELECT `+donationCols+` FROM blood_donation WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blood donation: %w", err)
	}
	return d, nil
}

func (s *pgStore) Create(ctx context.Context, d *Donation) error {
	err := s.conn(ctx).QueryRow(ctx, `INSERT INTO blood_donation
		(blood_group, area, contact, specific_requirement, volunteer_id, admin_id,
		 hospital_admin_id, medical_shop_admin_id, citizen_id, donor_id, requireduser_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at`,
		d.BloodGroup, d.Area, d.Contact, d.SpecificRequirement, d.VolunteerID, d.AdminID,
		d.HospitalAdminID, d.MedicalShopAdminID, d.CitizenID, d.DonorID, d.RequiredUserID,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert blood donation: %w", err)
	}
	return nil
}

func (s *pgStore) SetDonor(ctx context.Context, id, donorID int64) (bool, error) {
	tag, err := s.conn(ctx).Exec(ctx,
		`UPDATE blood_donation SET donor_id = $2 WHERE id = $1 AND donor_id IS NULL`, id, donorID)
	if err != nil {
		return false, fmt.Errorf("pledge blood donation: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
