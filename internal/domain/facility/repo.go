package facility

import (
	"context"
	"fmt"
)

// Store holds managed entities. The provisioning methods map one to one onto
// workflow steps and their compensations.
type Store interface {
	// AdminEntity returns the admin's current foreign key for kind, or nil.
	AdminEntity(ctx context.Context, kind Kind, adminID int64) (*int64, error)
	InsertEntity(ctx context.Context, e Entity) (int64, error)
	InsertAssociation(ctx context.Context, kind Kind, adminID, entityID int64) error
	LinkAdmin(ctx context.Context, kind Kind, adminID, entityID int64) error
	DeleteAssociation(ctx context.Context, kind Kind, adminID, entityID int64) error
	DeleteEntity(ctx context.Context, kind Kind, id int64) error

	Get(ctx context.Context, kind Kind, id int64) (Entity, error)
	Update(ctx context.Context, e Entity) (Entity, error)
	ListHospitals(ctx context.Context, limit, offset int) ([]*Hospital, int, error)
	ListMedicalShops(ctx context.Context, limit, offset int) ([]*MedicalShop, int, error)
}

// Transactor is implemented by stores that can run every step in one
// transaction. The workflow then relies on rollback instead of compensation.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// tableSet names the backend collections behind one entity kind.
type tableSet struct {
	entity string
	admins string
	assoc  string
	fk     string
}

var tableSets = map[Kind]tableSet{
	KindHospital:    {entity: "hospitals", admins: "hospital_admins", assoc: "hospital_admin_associations", fk: "hospital_id"},
	KindMedicalShop: {entity: "medical_shops", admins: "medical_shop_admins", assoc: "medical_shop_admin_associations", fk: "medical_shop_id"},
}

func tablesFor(kind Kind) (tableSet, error) {
	ts, ok := tableSets[kind]
	if !ok {
		return tableSet{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return ts, nil
}
