package identity

import (
	"fmt"
	"time"
)

// RoleKind names the collection a role record lives in.
type RoleKind string

const (
	KindHospitalAdmin    RoleKind = "hospital_admin"
	KindMedicalShopAdmin RoleKind = "medical_shop_admin"
	KindCitizen          RoleKind = "citizen"
	KindVolunteer        RoleKind = "volunteer"
	KindAdminUser        RoleKind = "admin_user"
)

// Priority orders the role collections from highest to lowest precedence.
// When a principal appears in several, the first match wins.
var Priority = []RoleKind{
	KindHospitalAdmin,
	KindMedicalShopAdmin,
	KindCitizen,
	KindVolunteer,
	KindAdminUser,
}

func (k RoleKind) Valid() bool {
	for _, p := range Priority {
		if k == p {
			return true
		}
	}
	return false
}

// Title is the human-readable role name shown on the dashboard.
func (k RoleKind) Title() string {
	switch k {
	case KindHospitalAdmin:
		return "Hospital Administrator"
	case KindMedicalShopAdmin:
		return "Medical Shop Administrator"
	case KindCitizen:
		return "Citizen"
	case KindVolunteer:
		return "Volunteer"
	case KindAdminUser:
		return "System Administrator"
	}
	return string(k)
}

// RoleRecord is implemented by every role collection's row type.
type RoleRecord interface {
	RecordID() int64
	Kind() RoleKind
	Common() *Account
}

// Account holds the fields every role record shares.
type Account struct {
	ID          int64     `json:"id"`
	FirebaseUID string    `json:"firebase_uid"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Account) RecordID() int64  { return a.ID }
func (a *Account) Common() *Account { return a }

type HospitalAdmin struct {
	Account
	ContactNumber string `json:"contact_number"`
	HospitalID    *int64 `json:"hospital_id"`
}

func (*HospitalAdmin) Kind() RoleKind { return KindHospitalAdmin }

type MedicalShopAdmin struct {
	Account
	ContactNumber string `json:"contact_number"`
	MedicalShopID *int64 `json:"medical_shop_id"`
}

func (*MedicalShopAdmin) Kind() RoleKind { return KindMedicalShopAdmin }

type Citizen struct {
	Account
	DateOfBirth       string `json:"date_of_birth"`
	PhoneNumber       string `json:"phone_number"`
	EmergencyContact  string `json:"emergency_contact"`
	MedicalHistory    string `json:"medical_history"`
	VaccinationRecord string `json:"vaccination_record"`
}

func (*Citizen) Kind() RoleKind { return KindCitizen }

type Volunteer struct {
	Account
	DateOfBirth  string `json:"date_of_birth"`
	PhoneNumber  string `json:"phone_number"`
	Skills       string `json:"skills"`
	Availability string `json:"availability"`
}

func (*Volunteer) Kind() RoleKind { return KindVolunteer }

// AdminUser is a global administrator. Role is its sub-role, for example
// "super_admin".
type AdminUser struct {
	Account
	Role string `json:"role"`
}

func (*AdminUser) Kind() RoleKind { return KindAdminUser }

// Matches holds the first record found in each role collection for one
// principal. Nil fields mean no record in that collection.
type Matches struct {
	HospitalAdmin    *HospitalAdmin
	MedicalShopAdmin *MedicalShopAdmin
	Citizen          *Citizen
	Volunteer        *Volunteer
	AdminUser        *AdminUser
}

// Records returns the non-empty matches in priority order.
func (m *Matches) Records() []RoleRecord {
	var out []RoleRecord
	if m.HospitalAdmin != nil {
		out = append(out, m.HospitalAdmin)
	}
	if m.MedicalShopAdmin != nil {
		out = append(out, m.MedicalShopAdmin)
	}
	if m.Citizen != nil {
		out = append(out, m.Citizen)
	}
	if m.Volunteer != nil {
		out = append(out, m.Volunteer)
	}
	if m.AdminUser != nil {
		out = append(out, m.AdminUser)
	}
	return out
}

// Resolution is the outcome of resolving a principal to a role.
type Resolution struct {
	Kind RoleKind `json:"kind"`
	// Role is the effective role name. For admin users it is the record's
	// sub-role; for every other kind it equals Kind.
	Role   string     `json:"role"`
	Title  string     `json:"title"`
	Record RoleRecord `json:"record"`
	// Shadowed lists lower-priority kinds that also held a record.
	Shadowed []RoleKind `json:"-"`
}

// Registration is the sign-up form. Which optional fields apply depends on
// Kind.
type Registration struct {
	Kind              RoleKind `json:"role"`
	Username          string   `json:"username"`
	FullName          string   `json:"full_name"`
	Address           string   `json:"address"`
	PhoneNumber       string   `json:"phone_number"`
	DateOfBirth       string   `json:"date_of_birth"`
	EmergencyContact  string   `json:"emergency_contact"`
	MedicalHistory    string   `json:"medical_history"`
	VaccinationRecord string   `json:"vaccination_record"`
	Skills            string   `json:"skills"`
	Availability      string   `json:"availability"`
	AdminRole         string   `json:"admin_role"`
}

const dateLayout = "2006-01-02"

// Validate checks the fields common to all kinds plus the date format.
func (r *Registration) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, r.Kind)
	}
	if r.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if r.DateOfBirth != "" {
		if _, err := time.Parse(dateLayout, r.DateOfBirth); err != nil {
			return fmt.Errorf("%w: date_of_birth must be YYYY-MM-DD", ErrValidation)
		}
	}
	return nil
}

// Record builds the role record for uid. Phone numbers land in
// contact_number for the admin kinds.
func (r *Registration) Record(uid, email string) RoleRecord {
	acct := Account{
		FirebaseUID: uid,
		Username:    r.Username,
		Email:       email,
		FullName:    r.FullName,
		Address:     r.Address,
	}
	switch r.Kind {
	case KindHospitalAdmin:
		return &HospitalAdmin{Account: acct, ContactNumber: r.PhoneNumber}
	case KindMedicalShopAdmin:
		return &MedicalShopAdmin{Account: acct, ContactNumber: r.PhoneNumber}
	case KindCitizen:
		return &Citizen{
			Account:           acct,
			DateOfBirth:       r.DateOfBirth,
			PhoneNumber:       r.PhoneNumber,
			EmergencyContact:  r.EmergencyContact,
			MedicalHistory:    r.MedicalHistory,
			VaccinationRecord: r.VaccinationRecord,
		}
	case KindVolunteer:
		return &Volunteer{
			Account:      acct,
			DateOfBirth:  r.DateOfBirth,
			PhoneNumber:  r.PhoneNumber,
			Skills:       r.Skills,
			Availability: r.Availability,
		}
	case KindAdminUser:
		role := r.AdminRole
		if role == "" {
			role = string(KindAdminUser)
		}
		return &AdminUser{Account: acct, Role: role}
	}
	return nil
}

// ProfileUpdate carries the self-service editable fields. Nil means
// unchanged. Fields that do not apply to the caller's kind are ignored.
type ProfileUpdate struct {
	Username          *string `json:"username"`
	FullName          *string `json:"full_name"`
	Address           *string `json:"address"`
	PhoneNumber       *string `json:"phone_number"`
	DateOfBirth       *string `json:"date_of_birth"`
	EmergencyContact  *string `json:"emergency_contact"`
	MedicalHistory    *string `json:"medical_history"`
	VaccinationRecord *string `json:"vaccination_record"`
	Skills            *string `json:"skills"`
	Availability      *string `json:"availability"`
}

// Apply copies the set fields onto rec.
func (u *ProfileUpdate) Apply(rec RoleRecord) error {
	if u.Username != nil && *u.Username == "" {
		return fmt.Errorf("%w: username cannot be empty", ErrValidation)
	}
	if u.DateOfBirth != nil && *u.DateOfBirth != "" {
		if _, err := time.Parse(dateLayout, *u.DateOfBirth); err != nil {
			return fmt.Errorf("%w: date_of_birth must be YYYY-MM-DD", ErrValidation)
		}
	}

	acct := rec.Common()
	set(&acct.Username, u.Username)
	set(&acct.FullName, u.FullName)
	set(&acct.Address, u.Address)

	switch r := rec.(type) {
	case *HospitalAdmin:
		set(&r.ContactNumber, u.PhoneNumber)
	case *MedicalShopAdmin:
		set(&r.ContactNumber, u.PhoneNumber)
	case *Citizen:
		set(&r.PhoneNumber, u.PhoneNumber)
		set(&r.DateOfBirth, u.DateOfBirth)
		set(&r.EmergencyContact, u.EmergencyContact)
		set(&r.MedicalHistory, u.MedicalHistory)
		set(&r.VaccinationRecord, u.VaccinationRecord)
	case *Volunteer:
		set(&r.PhoneNumber, u.PhoneNumber)
		set(&r.DateOfBirth, u.DateOfBirth)
		set(&r.Skills, u.Skills)
		set(&r.Availability, u.Availability)
	}
	return nil
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
