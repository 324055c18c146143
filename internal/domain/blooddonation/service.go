// Package blooddonation matches blood requests with donors across every role.
package blooddonation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/identity"
)

var (
	ErrNotFound       = errors.New("blood donation not found")
	ErrAlreadyPledged = errors.New("a donor has already pledged")
	ErrOwnRequest     = errors.New("cannot pledge to your own request")
	ErrValidation     = errors.New("validation failed")
)

// OwnerColumn is the column that records a post by kind.
func OwnerColumn(kind identity.RoleKind) string {
	if kind == identity.KindAdminUser {
		return "admin_id"
	}
	return string(kind) + "_id"
}

// setOwner writes id into the owner field for kind.
func setOwner(d *Donation, kind identity.RoleKind, id int64) error {
	switch kind {
	case identity.KindAdminUser:
		d.AdminID = &id
	case identity.KindHospitalAdmin:
		d.HospitalAdminID = &id
	case identity.KindMedicalShopAdmin:
		d.MedicalShopAdminID = &id
	case identity.KindCitizen:
		d.CitizenID = &id
	case identity.KindVolunteer:
		d.VolunteerID = &id
	default:
		return fmt.Errorf("%w: unknown role %q", ErrValidation, kind)
	}
	return nil
}

// postedBy reports whether the role record (kind, id) posted d. Record ids
// are only unique within a kind.
func postedBy(d *Donation, kind identity.RoleKind, id int64) bool {
	var owner *int64
	switch kind {
	case identity.KindAdminUser:
		owner = d.AdminID
	case identity.KindHospitalAdmin:
		owner = d.HospitalAdminID
	case identity.KindMedicalShopAdmin:
		owner = d.MedicalShopAdminID
	case identity.KindCitizen:
		owner = d.CitizenID
	case identity.KindVolunteer:
		owner = d.VolunteerID
	}
	return owner != nil && *owner == id
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, search string) ([]*Donation, error) {
	return s.store.List(ctx, strings.TrimSpace(search))
}

// Create posts draft on behalf of the resolved caller.
func (s *Service) Create(ctx context.Context, res *identity.Resolution, draft *Draft) (*Donation, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	id := res.Record.RecordID()
	d := &Donation{
		BloodGroup:          draft.BloodGroup,
		Area:                strings.TrimSpace(draft.Area),
		Contact:             strings.TrimSpace(draft.Contact),
		SpecificRequirement: draft.SpecificRequirement,
	}
	if err := setOwner(d, res.Kind, id); err != nil {
		return nil, err
	}
	if draft.Intent == IntentDonate {
		d.DonorID = &id
	} else {
		d.RequiredUserID = &id
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Pledge records the caller as donor for an open request.
func (s *Service) Pledge(ctx context.Context, res *identity.Resolution, id int64) (*Donation, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	donor := res.Record.RecordID()
	if d.DonorID != nil {
		return nil, ErrAlreadyPledged
	}
	if d.IsRequest() && postedBy(d, res.Kind, donor) {
		return nil, ErrOwnRequest
	}
	ok, err := s.store.SetDonor(ctx, id, donor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyPledged
	}
	d.DonorID = &donor
	return d, nil
}
