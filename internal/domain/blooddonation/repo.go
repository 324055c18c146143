package blooddonation

import "context"

type Store interface {
	// List returns entries newest first, filtered by Donation.Matches.
	List(ctx context.Context, search string) ([]*Donation, error)
	Get(ctx context.Context, id int64) (*Donation, error)
	Create(ctx context.Context, d *Donation) error
	// SetDonor sets donor_id only while it is still null and reports
	// whether it did.
	SetDonor(ctx context.Context, id, donorID int64) (bool, error)
}
