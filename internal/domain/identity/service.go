package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/metrics"
)

var (
	ErrRoleNotFound        = errors.New("user not found")
	ErrEmptyIdentity       = errors.New("identity token is required")
	ErrAlreadyRegistered   = errors.New("user already registered")
	ErrInvalidKind         = errors.New("invalid role")
	ErrAdminSignupDisabled = errors.New("admin self-registration is disabled")
	ErrValidation          = errors.New("invalid input")
)

// Resolver maps an identity token to its role record. Results are never
// cached; every call reads the directory.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the highest-priority role record held by uid. Lower
// priority records are reported in Resolution.Shadowed and logged.
func (r *Resolver) Resolve(ctx context.Context, uid string) (*Resolution, error) {
	if uid == "" {
		return nil, ErrEmptyIdentity
	}
	m, err := r.dir.Lookup(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("resolve role: %w", err)
	}

	records := m.Records()
	if len(records) == 0 {
		metrics.RecordRoleResolution("")
		return nil, ErrRoleNotFound
	}

	winner := records[0]
	res := &Resolution{
		Kind:   winner.Kind(),
		Role:   string(winner.Kind()),
		Title:  winner.Kind().Title(),
		Record: winner,
	}
	if a, ok := winner.(*AdminUser); ok && a.Role != "" {
		res.Role = a.Role
	}
	for _, rec := range records[1:] {
		res.Shadowed = append(res.Shadowed, rec.Kind())
	}

	metrics.RecordRoleResolution(string(res.Kind))
	if len(res.Shadowed) > 0 {
		metrics.RecordRoleConflict(string(res.Kind))
		shadowed := make([]string, len(res.Shadowed))
		for i, k := range res.Shadowed {
			shadowed[i] = string(k)
		}
		zerolog.Ctx(ctx).Warn().
			Str("uid", uid).
			Str("kind", string(res.Kind)).
			Strs("shadowed", shadowed).
			Msg("principal holds several role records, using highest priority")
	}
	return res, nil
}

type Service struct {
	store            Store
	resolver         *Resolver
	allowAdminSignup bool
}

func NewService(store Store, allowAdminSignup bool) *Service {
	return &Service{store: store, resolver: NewResolver(store), allowAdminSignup: allowAdminSignup}
}

// Resolver exposes the service's resolver for middleware wiring.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// CheckRegistration validates reg and applies the admin sign-up gate. Sign-up
// runs it before any provider account is created.
func (s *Service) CheckRegistration(reg *Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	if reg.Kind == KindAdminUser && !s.allowAdminSignup {
		return ErrAdminSignupDisabled
	}
	return nil
}

// Register creates the role record for a principal that holds none yet.
func (s *Service) Register(ctx context.Context, uid, email string, reg *Registration) (RoleRecord, error) {
	if uid == "" {
		return nil, ErrEmptyIdentity
	}
	if err := s.CheckRegistration(reg); err != nil {
		return nil, err
	}

	rec := reg.Record(uid, email)
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("uid", uid).Str("kind", string(rec.Kind())).Int64("record_id", rec.RecordID()).Msg("role record registered")
	return rec, nil
}

// Profile resolves the caller's own record.
func (s *Service) Profile(ctx context.Context, uid string) (*Resolution, error) {
	return s.resolver.Resolve(ctx, uid)
}

// UpdateProfile applies u to the caller's resolved record and returns the
// re-resolved view.
func (s *Service) UpdateProfile(ctx context.Context, uid string, u *ProfileUpdate) (*Resolution, error) {
	res, err := s.resolver.Resolve(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := u.Apply(res.Record); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, res.Record); err != nil {
		return nil, err
	}
	return res, nil
}
