package facility

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/metrics"
)

// Mode selects what happens to completed steps when a later one fails.
type Mode string

const (
	// ModeSaga undoes completed steps in reverse order.
	ModeSaga Mode = "saga"
	// ModeBestEffort leaves completed steps in place.
	ModeBestEffort Mode = "best_effort"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSaga, "":
		return ModeSaga, nil
	case ModeBestEffort:
		return ModeBestEffort, nil
	}
	return "", fmt.Errorf("unknown provisioning mode %q", s)
}

type Step string

const (
	StepInsertEntity      Step = "insert_entity"
	StepInsertAssociation Step = "insert_association"
	StepLinkAdmin         Step = "link_admin"
)

// StepError reports the workflow step that failed.
type StepError struct {
	Entity Kind
	Step   Step
	Err    error
	// RolledBack is true when every completed step was undone.
	RolledBack bool
}

func (e *StepError) Error() string {
	return fmt.Sprintf("provision %s: %s: %v", e.Entity, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Result identifies the entity an admin manages after provisioning.
type Result struct {
	Entity   Kind  `json:"entity"`
	EntityID int64 `json:"entity_id"`
}

// Provisioner creates an entity, links it to its admin and sets the admin's
// foreign key.
type Provisioner struct {
	store Store
	mode  Mode
	group singleflight.Group
}

func NewProvisioner(store Store, mode Mode) *Provisioner {
	if mode == "" {
		mode = ModeSaga
	}
	return &Provisioner{store: store, mode: mode}
}

func (p *Provisioner) Mode() Mode { return p.mode }

// Provision runs the three steps for adminID. Concurrent calls for the same
// admin share one execution. An admin that already manages an entity gets
// ErrAlreadyProvisioned together with the existing id.
func (p *Provisioner) Provision(ctx context.Context, adminID int64, e Entity) (*Result, error) {
	key := string(e.Kind()) + ":" + strconv.FormatInt(adminID, 10)
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		return p.provision(ctx, adminID, e)
	})
	res, _ := v.(*Result)
	return res, err
}

func (p *Provisioner) provision(ctx context.Context, adminID int64, e Entity) (*Result, error) {
	kind := e.Kind()
	logger := zerolog.Ctx(ctx).With().Str("entity", string(kind)).Int64("admin_id", adminID).Logger()
	ctx = logger.WithContext(ctx)

	tx, atomic := p.store.(Transactor)
	var res *Result
	var done []Step
	run := func(ctx context.Context) error {
		var err error
		res, err = p.steps(ctx, adminID, e, !atomic && p.mode == ModeSaga, &done)
		return err
	}

	var err error
	if atomic {
		err = tx.InTx(ctx, run)
		var se *StepError
		if errors.As(err, &se) {
			se.RolledBack = true
			logger.Warn().Str("step", string(se.Step)).Msg("provisioning rolled back")
		}
	} else {
		err = run(ctx)
	}

	// Completed steps count only once the transaction outcome is known.
	for _, step := range done {
		if atomic && err != nil {
			metrics.RecordProvisioningRollback(string(kind), string(step))
		} else {
			metrics.RecordProvisioningStep(string(kind), string(step), nil)
		}
	}
	if err != nil && !errors.Is(err, ErrAlreadyProvisioned) {
		return nil, err
	}
	return res, err
}

// steps appends each completed step to done.
func (p *Provisioner) steps(ctx context.Context, adminID int64, e Entity, compensate bool, done *[]Step) (*Result, error) {
	kind := e.Kind()
	current, err := p.store.AdminEntity(ctx, kind, adminID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return &Result{Entity: kind, EntityID: *current}, ErrAlreadyProvisioned
	}

	fail := func(step Step, id int64, err error) error {
		metrics.RecordProvisioningStep(string(kind), string(step), err)
		zerolog.Ctx(ctx).Error().Err(err).Str("step", string(step)).Int64("entity_id", id).Msg("provisioning step failed")
		se := &StepError{Entity: kind, Step: step, Err: err}
		if compensate {
			se.RolledBack = p.compensate(ctx, kind, adminID, id, *done)
		}
		return se
	}

	id, err := p.store.InsertEntity(ctx, e)
	if err != nil {
		return nil, fail(StepInsertEntity, 0, err)
	}
	*done = append(*done, StepInsertEntity)

	if err := p.store.InsertAssociation(ctx, kind, adminID, id); err != nil {
		return nil, fail(StepInsertAssociation, id, err)
	}
	*done = append(*done, StepInsertAssociation)

	if err := p.store.LinkAdmin(ctx, kind, adminID, id); err != nil {
		return nil, fail(StepLinkAdmin, id, err)
	}
	*done = append(*done, StepLinkAdmin)

	zerolog.Ctx(ctx).Info().Int64("entity_id", id).Msg("entity provisioned")
	return &Result{Entity: kind, EntityID: id}, nil
}

// compensate undoes done in reverse order. It keeps going after a failed
// undo and reports whether all of them succeeded.
func (p *Provisioner) compensate(ctx context.Context, kind Kind, adminID, entityID int64, done []Step) bool {
	ctx = context.WithoutCancel(ctx)
	ok := true
	for i := len(done) - 1; i >= 0; i-- {
		var err error
		switch done[i] {
		case StepInsertAssociation:
			err = p.store.DeleteAssociation(ctx, kind, adminID, entityID)
		case StepInsertEntity:
			err = p.store.DeleteEntity(ctx, kind, entityID)
		}
		metrics.RecordCompensation(string(kind), string(done[i]), err)
		if err != nil {
			ok = false
			zerolog.Ctx(ctx).Error().Err(err).Str("step", string(done[i])).Int64("entity_id", entityID).
				Msg("compensation failed; manual cleanup required")
		}
	}
	return ok
}
