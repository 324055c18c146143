package blooddonation

import (
	"fmt"
	"strings"
	"time"
)

// BloodGroups lists the accepted ABO/Rh groups.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// Intent says whether the caller offers blood or asks for it.
type Intent string

const (
	IntentDonate  Intent = "donate"
	IntentRequest Intent = "request"
)

// Donation is a blood request or a donation offer. The owner columns record
// which role record posted it; at most one of them is set.
type Donation struct {
	ID                  int64     `json:"id"`
	BloodGroup          string    `json:"blood_group"`
	Area                string    `json:"area"`
	Contact             string    `json:"contact"`
	SpecificRequirement string    `json:"specific_requirement"`
	CreatedAt           time.Time `json:"created_at"`
	VolunteerID         *int64    `json:"volunteer_id"`
	AdminID             *int64    `json:"admin_id"`
	HospitalAdminID     *int64    `json:"hospital_admin_id"`
	MedicalShopAdminID  *int64    `json:"medical_shop_admin_id"`
	CitizenID           *int64    `json:"citizen_id"`
	DonorID             *int64    `json:"donor_id"`
	RequiredUserID      *int64    `json:"requireduser_id"`
}

// IsRequest reports whether the entry asks for blood rather than offering it.
func (d *Donation) IsRequest() bool { return d.RequiredUserID != nil }

// Matches reports whether search is a case-insensitive substring of the
// blood group or the area. An empty search matches everything.
func (d *Donation) Matches(search string) bool {
	if search == "" {
		return true
	}
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(d.BloodGroup), s) ||
		strings.Contains(strings.ToLower(d.Area), s)
}

type Draft struct {
	BloodGroup          string `json:"blood_group"`
	Area                string `json:"area"`
	Contact             string `json:"contact"`
	SpecificRequirement string `json:"specific_requirement"`
	Intent              Intent `json:"intent"`
}

func (d *Draft) Validate() error {
	valid := false
	for _, g := range BloodGroups {
		if strings.EqualFold(strings.TrimSpace(d.BloodGroup), g) {
			d.BloodGroup = g
			valid = true
			break
		}
	}
	switch {
	case !valid:
		return fmt.Errorf("%w: blood_group must be one of %s", ErrValidation, strings.Join(BloodGroups, ", "))
	case strings.TrimSpace(d.Area) == "":
		return fmt.Errorf("%w: area is required", ErrValidation)
	case strings.TrimSpace(d.Contact) == "":
		return fmt.Errorf("%w: contact is required", ErrValidation)
	case d.Intent != IntentDonate && d.Intent != IntentRequest:
		return fmt.Errorf("%w: intent must be %q or %q", ErrValidation, IntentDonate, IntentRequest)
	}
	return nil
}
