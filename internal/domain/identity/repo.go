package identity

import "context"

// Directory looks a principal up across all role collections.
type Directory interface {
	// Lookup returns the first record in each collection whose firebase_uid
	// equals uid. An unknown uid yields empty Matches, not an error.
	Lookup(ctx context.Context, uid string) (*Matches, error)
}

// Store persists role records.
type Store interface {
	Directory
	// Create inserts rec and fills its ID and CreatedAt. It returns
	// ErrAlreadyRegistered when the uid already holds a record of any kind.
	Create(ctx context.Context, rec RoleRecord) error
	// Update writes the self-service fields of rec, matched by ID.
	Update(ctx context.Context, rec RoleRecord) error
}
