package facility

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

// NewPGStore returns a Store that runs provisioning in one transaction and
// locks the admin row for its duration.
func NewPGStore(pool Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, s.pool)
}

func (s *pgStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, s.pool, fn)
}

const (
	hospitalCols = `id, name, address, phone_number, specialities, total_icu_beds, total_general_beds,
		emergency_capacity, equipment_inventory, specialty_rooms, main_specialty, created_at, updated_at`
	shopCols = `id, name, address, phone_number, license_number, inventory_capacity, specialization,
		created_at, updated_at`
)

func (s *pgStore) AdminEntity(ctx context.Context, kind Kind, adminID int64) (*int64, error) {
	ts, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	var fk *int64
	err = s.conn(ctx).QueryRow(ctx,
		`SELECT `+ts.fk+` FROM `+ts.admins+` WHERE id = $1 FOR UPDATE`, adminID).Scan(&fk)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", ts.admins, err)
	}
	return fk, nil
}

func (s *pgStore) InsertEntity(ctx context.Context, e Entity) (int64, error) {
	var (
		id  int64
		row pgx.Row
	)
	switch v := e.(type) {
	case *Hospital:
		row = s.conn(ctx).QueryRow(ctx, `INSERT INTO hospitals
			(name, address, phone_number, specialities, total_icu_beds, total_general_beds,
			 emergency_capacity, equipment_inventory, specialty_rooms, main_specialty)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id, created_at, updated_at`,
			v.Name, v.Address, v.PhoneNumber, nonNil(v.Specialities), v.TotalICUBeds, v.TotalGeneralBeds,
			v.EmergencyCapacity, v.EquipmentInventory, nonNil(v.SpecialtyRooms), v.MainSpecialty)
		if err := row.Scan(&id, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return 0, fmt.Errorf("insert hospital: %w", err)
		}
		v.ID = id
	case *MedicalShop:
		row = s.conn(ctx).QueryRow(ctx, `INSERT INTO medical_shops
			(name, address, phone_number, license_number, inventory_capacity, specialization)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id, created_at, updated_at`,
			v.Name, v.Address, v.PhoneNumber, v.LicenseNumber, v.InventoryCapacity, v.Specialization)
		if err := row.Scan(&id, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return 0, fmt.Errorf("insert medical shop: %w", err)
		}
		v.ID = id
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnknownKind, e)
	}
	return id, nil
}

func (s *pgStore) InsertAssociation(ctx context.Context, kind Kind, adminID, entityID int64) error {
	ts, err := tablesFor(kind)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).Exec(ctx,
		`INSERT INTO `+ts.assoc+` (admin_id, `+ts.fk+`) VALUES ($1, $2)`, adminID, entityID)
	if err != nil {
		return fmt.Errorf("insert %s: %w", ts.assoc, err)
	}
	return nil
}

func (s *pgStore) LinkAdmin(ctx context.Context, kind Kind, adminID, entityID int64) error {
	ts, err := tablesFor(kind)
	if err != nil {
		return err
	}
	tag, err := s.conn(ctx).Exec(ctx,
		`UPDATE `+ts.admins+` SET `+ts.fk+` = $2 WHERE id = $1 AND `+ts.fk+` IS NULL`, adminID, entityID)
	if err != nil {
		return fmt.Errorf("update %s: %w", ts.admins, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("link %s %d: %w", ts.admins, adminID, ErrAlreadyProvisioned)
	}
	return nil
}

func (s *pgStore) DeleteAssociation(ctx context.Context, kind Kind, adminID, entityID int64) error {
	ts, err := tablesFor(kind)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).Exec(ctx,
		`DELETE FROM `+ts.assoc+` WHERE admin_id = $1 AND `+ts.fk+` = $2`, adminID, entityID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", ts.assoc, err)
	}
	return nil
}

func (s *pgStore) DeleteEntity(ctx context.Context, kind Kind, id int64) error {
	ts, err := tablesFor(kind)
	if err != nil {
		return err
	}
	if _, err := s.conn(ctx).Exec(ctx, `DELETE FROM `+ts.entity+` WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete %s: %w", ts.entity, err)
	}
	return nil
}

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.PhoneNumber, &h.Specialities, &h.TotalICUBeds,
		&h.TotalGeneralBeds, &h.EmergencyCapacity, &h.EquipmentInventory, &h.SpecialtyRooms,
		&h.MainSpecialty, &h.CreatedAt, &h.UpdatedAt)
	return &h, err
}

func scanShop(row pgx.Row) (*MedicalShop, error) {
	var m MedicalShop
	err := row.Scan(&m.ID, &m.Name, &m.Address, &m.PhoneNumber, &m.LicenseNumber,
		&m.InventoryCapacity, &m.Specialization, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (s *pgStore) Get(ctx context.Context, kind Kind, id int64) (Entity, error) {
	var (
		e   Entity
		err error
	)
	switch kind {
	case KindHospital:
		e, err = scanHospital(s.conn(ctx).QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
	case KindMedicalShop:
		e, err = scanShop(s.conn(ctx).QueryRow(ctx, `SELECT `+shopCols+` FROM medical_shops WHERE id = $1`, id))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return e, nil
}

func (s *pgStore) Update(ctx context.Context, e Entity) (Entity, error) {
	var (
		out Entity
		err error
	)
	switch v := e.(type) {
	case *Hospital:
		out, err = scanHospital(s.conn(ctx).QueryRow(ctx, `UPDATE hospitals SET
			name=$2, address=$3, phone_number=$4, specialities=$5, total_icu_beds=$6,
			total_general_beds=$7, emergency_capacity=$8, equipment_inventory=$9,
			specialty_rooms=$10, main_specialty=$11, updated_at=NOW()
			WHERE id=$1 RETURNING `+hospitalCols,
			v.ID, v.Name, v.Address, v.PhoneNumber, nonNil(v.Specialities), v.TotalICUBeds,
			v.TotalGeneralBeds, v.EmergencyCapacity, v.EquipmentInventory, nonNil(v.SpecialtyRooms),
			v.MainSpecialty))
	case *MedicalShop:
		out, err = scanShop(s.conn(ctx).QueryRow(ctx, `UPDATE medical_shops SET
			name=$2, address=$3, phone_number=$4, license_number=$5, inventory_capacity=$6,
			specialization=$7, updated_at=NOW()
			WHERE id=$1 RETURNING `+shopCols,
			v.ID, v.Name, v.Address, v.PhoneNumber, v.LicenseNumber, v.InventoryCapacity, v.Specialization))
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, e)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", e.Kind(), err)
	}
	return out, nil
}

func (s *pgStore) ListHospitals(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	var total int
	if err := s.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM hospitals`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count hospitals: %w", err)
	}
	rows, err := s.conn(ctx).Query(ctx, `SELECT `+hospitalCols+` FROM hospitals ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list hospitals: %w", err)
	}
	defer rows.Close()

	out := []*Hospital{}
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan hospital: %w", err)
		}
		out = append(out, h)
	}
	return out, total, rows.Err()
}

func (s *pgStore) ListMedicalShops(ctx context.Context, limit, offset int) ([]*MedicalShop, int, error) {
	var total int
	if err := s.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_shops`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medical shops: %w", err)
	}
	rows, err := s.conn(ctx).Query(ctx, `SELECT `+shopCols+` FROM medical_shops ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list medical shops: %w", err)
	}
	defer rows.Close()

	out := []*MedicalShop{}
	for rows.Next() {
		m, err := scanShop(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan medical shop: %w", err)
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}
