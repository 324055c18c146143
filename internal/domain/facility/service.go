// Package facility provisions and manages hospitals and medical shops on
// behalf of their administrators.
package facility

import (
	"context"
	"errors"
	"fmt"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/identity"
)

var (
	ErrNotFound           = errors.New("facility not found")
	ErrAdminNotFound      = errors.New("admin record not found")
	ErrAlreadyProvisioned = errors.New("admin already manages an entity")
	ErrForbidden          = errors.New("access denied")
	ErrValidation         = errors.New("validation failed")
	ErrUnknownKind        = errors.New("unknown facility kind")
)

type Service struct {
	store Store
	prov  *Provisioner
}

func NewService(store Store, mode Mode) *Service {
	return &Service{store: store, prov: NewProvisioner(store, mode)}
}

// AdminFor returns the caller's admin record id for kind. Only the admin kind
// that owns entities of that type qualifies.
func AdminFor(res *identity.Resolution, kind Kind) (int64, bool) {
	if res == nil {
		return 0, false
	}
	switch r := res.Record.(type) {
	case *identity.HospitalAdmin:
		return r.ID, kind == KindHospital
	case *identity.MedicalShopAdmin:
		return r.ID, kind == KindMedicalShop
	}
	return 0, false
}

// CanAccess reports whether the caller may read or edit the entity. Admin
// users reach every entity; facility admins only the one they are linked to.
func CanAccess(res *identity.Resolution, kind Kind, id int64) bool {
	if res == nil {
		return false
	}
	switch r := res.Record.(type) {
	case *identity.AdminUser:
		return true
	case *identity.HospitalAdmin:
		return kind == KindHospital && r.HospitalID != nil && *r.HospitalID == id
	case *identity.MedicalShopAdmin:
		return kind == KindMedicalShop && r.MedicalShopID != nil && *r.MedicalShopID == id
	}
	return false
}

// Provision creates the caller's entity from draft.
func (s *Service) Provision(ctx context.Context, res *identity.Resolution, draft Draft) (*Result, error) {
	adminID, ok := AdminFor(res, draft.Kind())
	if !ok {
		return nil, ErrForbidden
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return s.prov.Provision(ctx, adminID, draft.Entity())
}

func (s *Service) Get(ctx context.Context, res *identity.Resolution, kind Kind, id int64) (Entity, error) {
	if !CanAccess(res, kind, id) {
		return nil, ErrForbidden
	}
	return s.store.Get(ctx, kind, id)
}

func (s *Service) Update(ctx context.Context, res *identity.Resolution, id int64, draft Draft) (Entity, error) {
	if !CanAccess(res, draft.Kind(), id) {
		return nil, ErrForbidden
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	e := draft.Entity()
	switch v := e.(type) {
	case *Hospital:
		v.ID = id
	case *MedicalShop:
		v.ID = id
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, e)
	}
	return s.store.Update(ctx, e)
}

// List returns one page of hospitals and one page of shops.
func (s *Service) List(ctx context.Context, limit, offset int) (*Facilities, error) {
	hospitals, nh, err := s.store.ListHospitals(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	shops, ns, err := s.store.ListMedicalShops(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return &Facilities{
		Hospitals:         hospitals,
		MedicalShops:      shops,
		TotalHospitals:    nh,
		TotalMedicalShops: ns,
		Limit:             limit,
		Offset:            offset,
	}, nil
}
