package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/db"
)

// Pool is the subset of *pgxpool.Pool the Postgres store needs.
type Pool interface {
	db.Queryable
	db.TxBeginner
}

type pgStore struct {
	pool Pool
}

func NewPGStore(pool Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, s.pool)
}

const accountCols = `id, firebase_uid, username, email, full_name, address, created_at`

// Lookup issues one query per collection in priority order.
func (s *pgStore) Lookup(ctx context.Context, uid string) (*Matches, error) {
	q := s.conn(ctx)
	m := &Matches{}

	var ha HospitalAdmin
	err := q.QueryRow(ctx, `SELECT `+accountCols+`, contact_number, hospital_id
		FROM hospital_admins WHERE firebase_uid = $1 ORDER BY id LIMIT 1`, uid).
		Scan(accountDest(&ha.Account, &ha.ContactNumber, &ha.HospitalID)...)
	if err = found(err, func() { m.HospitalAdmin = &ha }); err != nil {
		return nil, fmt.Errorf("lookup hospital_admins: %w", err)
	}

	var ms MedicalShopAdmin
	err = q.QueryRow(ctx, `SELECT `+accountCols+`, contact_number, medical_shop_id
		FROM medical_shop_admins WHERE firebase_uid = $1 ORDER BY id LIMIT 1`, uid).
		Scan(accountDest(&ms.Account, &ms.ContactNumber, &ms.MedicalShopID)...)
	if err = found(err, func() { m.MedicalShopAdmin = &ms }); err != nil {
		return nil, fmt.Errorf("lookup medical_shop_admins: %w", err)
	}

	var c Citizen
	err = q.QueryRow(ctx, `SELECT `+accountCols+`, COALESCE(to_char(date_of_birth, 'YYYY-MM-DD'), ''),
		phone_number, emergency_contact, medical_history, vaccination_record
		FROM citizens WHERE firebase_uid = $1 ORDER BY id LIMIT 1`, uid).
		Scan(accountDest(&c.Account, &c.DateOfBirth, &c.PhoneNumber, &c.EmergencyContact,
			&c.MedicalHistory, &c.VaccinationRecord)...)
	if err = found(err, func() { m.Citizen = &c }); err != nil {
		return nil, fmt.Errorf("lookup citizens: %w", err)
	}

	var v Volunteer
	err = q.QueryRow(ctx, `SELECT `+accountCols+`, COALESCE(to_char(date_of_birth, 'YYYY-MM-DD'), ''),
		phone_number, skills, availability
		FROM volunteers WHERE firebase_uid = $1 ORDER BY id LIMIT 1`, uid).
		Scan(accountDest(&v.Account, &v.DateOfBirth, &v.PhoneNumber, &v.Skills, &v.Availability)...)
	if err = found(err, func() { m.Volunteer = &v }); err != nil {
		return nil, fmt.Errorf("lookup volunteers: %w", err)
	}

	var a AdminUser
	err = q.QueryRow(ctx, `SELECT `+accountCols+`, role
		FROM admin_users WHERE firebase_uid = $1 ORDER BY id LIMIT 1`, uid).
		Scan(accountDest(&a.Account, &a.Role)...)
	if err = found(err, func() { m.AdminUser = &a }); err != nil {
		return nil, fmt.Errorf("lookup admin_users: %w", err)
	}

	return m, nil
}

func accountDest(a *Account, extra ...interface{}) []interface{} {
	return append([]interface{}{&a.ID, &a.FirebaseUID, &a.Username, &a.Email, &a.FullName, &a.Address, &a.CreatedAt}, extra...)
}

// found runs keep when err is nil and swallows pgx.ErrNoRows.
func found(err error, keep func()) error {
	switch {
	case err == nil:
		keep()
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	}
	return err
}

// Create serializes registrations per uid with a transaction-scoped advisory
// lock, so the exclusivity check and the insert cannot interleave.
func (s *pgStore) Create(ctx context.Context, rec RoleRecord) error {
	return db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		acct := rec.Common()
		q := s.conn(ctx)
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, acct.FirebaseUID); err != nil {
			return fmt.Errorf("lock registration: %w", err)
		}
		existing, err := s.Lookup(ctx, acct.FirebaseUID)
		if err != nil {
			return err
		}
		if len(existing.Records()) > 0 {
			return ErrAlreadyRegistered
		}

		var row pgx.Row
		switch r := rec.(type) {
		case *HospitalAdmin:
			row = q.QueryRow(ctx, `INSERT INTO hospital_admins
				(firebase_uid, username, email, full_name, address, contact_number)
				VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at`,
				acct.FirebaseUID, acct.Username, acct.Email, acct.FullName, acct.Address, r.ContactNumber)
		case *MedicalShopAdmin:
			row = q.QueryRow(ctx, `INSERT INTO medical_shop_admins
				(firebase_uid, username, email, full_name, address, contact_number)
				VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at`,
				acct.FirebaseUID, acct.Username, acct.Email, acct.FullName, acct.Address, r.ContactNumber)
		case *Citizen:
			row = q.QueryRow(ctx, `INSERT INTO citizens
				(firebase_uid, username, email, full_name, address, date_of_birth,
				 phone_number, emergency_contact, medical_history, vaccination_record)
				VALUES ($1,$2,$3,$4,$5,NULLIF($6,'')::date,$7,$8,$9,$10) RETURNING id, created_at`,
				acct.FirebaseUID, acct.Username, acct.Email, acct.FullName, acct.Address, r.DateOfBirth,
				r.PhoneNumber, r.EmergencyContact, r.MedicalHistory, r.VaccinationRecord)
		case *Volunteer:
			row = q.QueryRow(ctx, `INSERT INTO volunteers
				(firebase_uid, username, email, full_name, address, date_of_birth,
				 phone_number, skills, availability)
				VALUES ($1,$2,$3,$4,$5,NULLIF($6,'')::date,$7,$8,$9) RETURNING id, created_at`,
				acct.FirebaseUID, acct.Username, acct.Email, acct.FullName, acct.Address, r.DateOfBirth,
				r.PhoneNumber, r.Skills, r.Availability)
		case *AdminUser:
			row = q.QueryRow(ctx, `INSERT INTO admin_users
				(firebase_uid, username, email, full_name, address, role)
				VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at`,
				acct.FirebaseUID, acct.Username, acct.Email, acct.FullName, acct.Address, r.Role)
		default:
			return fmt.Errorf("%w: %T", ErrInvalidKind, rec)
		}
		if err := row.Scan(&acct.ID, &acct.CreatedAt); err != nil {
			return fmt.Errorf("insert %s: %w", rec.Kind(), err)
		}
		return nil
	})
}

func (s *pgStore) Update(ctx context.Context, rec RoleRecord) error {
	acct := rec.Common()
	var (
		sql  string
		args []interface{}
	)
	switch r := rec.(type) {
	case *HospitalAdmin:
		sql = `UPDATE hospital_admins SET username=$2, full_name=$3, address=$4, contact_number=$5 WHERE id=$1`
		args = []interface{}{acct.ID, acct.Username, acct.FullName, acct.Address, r.ContactNumber}
	case *MedicalShopAdmin:
		sql = `UPDATE medical_shop_admins SET username=$2, full_name=$3, address=$4, contact_number=$5 WHERE id=$1`
		args = []interface{}{acct.ID, acct.Username, acct.FullName, acct.Address, r.ContactNumber}
	case *Citizen:
		sql = `UPDATE citizens SET username=$2, full_name=$3, address=$4, date_of_birth=NULLIF($5,'')::date,
			phone_number=$6, emergency_contact=$7, medical_history=$8, vaccination_record=$9 WHERE id=$1`
		args = []interface{}{acct.ID, acct.Username, acct.FullName, acct.Address, r.DateOfBirth,
			r.PhoneNumber, r.EmergencyContact, r.MedicalHistory, r.VaccinationRecord}
	case *Volunteer:
		sql = `UPDATE volunteers SET username=$2, full_name=$3, address=$4, date_of_birth=NULLIF($5,'')::date,
			phone_number=$6, skills=$7, availability=$8 WHERE id=$1`
		args = []interface{}{acct.ID, acct.Username, acct.FullName, acct.Address, r.DateOfBirth,
			r.PhoneNumber, r.Skills, r.Availability}
	case *AdminUser:
		sql = `UPDATE admin_users SET username=$2, full_name=$3, address=$4 WHERE id=$1`
		args = []interface{}{acct.ID, acct.Username, acct.FullName, acct.Address}
	default:
		return fmt.Errorf("%w: %T", ErrInvalidKind, rec)
	}

	tag, err := s.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", rec.Kind(), err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}
