package facility

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Kind names a managed-entity type.
type Kind string

const (
	KindHospital    Kind = "hospital"
	KindMedicalShop Kind = "medical_shop"
)

// Entity is a hospital or a medical shop.
type Entity interface {
	Kind() Kind
	EntityID() int64
}

type Hospital struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Address            string    `json:"address"`
	PhoneNumber        string    `json:"phone_number"`
	Specialities       []string  `json:"specialities"`
	TotalICUBeds       int       `json:"total_icu_beds"`
	TotalGeneralBeds   int       `json:"total_general_beds"`
	EmergencyCapacity  int       `json:"emergency_capacity"`
	EquipmentInventory string    `json:"equipment_inventory"`
	SpecialtyRooms     []string  `json:"specialty_rooms"`
	MainSpecialty      string    `json:"main_specialty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (*Hospital) Kind() Kind        { return KindHospital }
func (h *Hospital) EntityID() int64 { return h.ID }

type MedicalShop struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Address           string    `json:"address"`
	PhoneNumber       string    `json:"phone_number"`
	LicenseNumber     string    `json:"license_number"`
	InventoryCapacity int       `json:"inventory_capacity"`
	Specialization    string    `json:"specialization"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (*MedicalShop) Kind() Kind        { return KindMedicalShop }
func (m *MedicalShop) EntityID() int64 { return m.ID }

// Coerce parses the leading integer of s. Leading whitespace and a sign are
// allowed; anything that does not start with a digit yields 0.
//
//	Coerce("12") == 12, Coerce(" 7 beds") == 7, Coerce("abc") == 0
func Coerce(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n > (1<<31-1)/10 {
			break
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		return -n
	}
	return n
}

// NumericText is a form field that should hold a number. It accepts a JSON
// number or string and is coerced with Coerce.
type NumericText string

func (n *NumericText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumericText(s)
		return nil
	}
	*n = NumericText(b)
	return nil
}

func (n NumericText) Int() int { return Coerce(string(n)) }

// StringList accepts a JSON array or a comma-separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = splitList(s)
		return nil
	}
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*l = StringList(items)
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Draft is a create or edit form for one entity kind.
type Draft interface {
	Kind() Kind
	Validate() error
	Entity() Entity
}

type HospitalDraft struct {
	Name               string      `json:"name"`
	Address            string      `json:"address"`
	PhoneNumber        string      `json:"phone_number"`
	Specialities       StringList  `json:"specialities"`
	TotalICUBeds       NumericText `json:"total_icu_beds"`
	TotalGeneralBeds   NumericText `json:"total_general_beds"`
	EmergencyCapacity  NumericText `json:"emergency_capacity"`
	EquipmentInventory string      `json:"equipment_inventory"`
	SpecialtyRooms     StringList  `json:"specialty_rooms"`
	MainSpecialty      string      `json:"main_specialty"`
}

func (*HospitalDraft) Kind() Kind { return KindHospital }

func (d *HospitalDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	for field, v := range map[string]NumericText{
		"total_icu_beds":     d.TotalICUBeds,
		"total_general_beds": d.TotalGeneralBeds,
		"emergency_capacity": d.EmergencyCapacity,
	} {
		if v.Int() < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrValidation, field)
		}
	}
	return nil
}

func (d *HospitalDraft) Entity() Entity {
	return &Hospital{
		Name:               strings.TrimSpace(d.Name),
		Address:            d.Address,
		PhoneNumber:        d.PhoneNumber,
		Specialities:       nonNil(d.Specialities),
		TotalICUBeds:       d.TotalICUBeds.Int(),
		TotalGeneralBeds:   d.TotalGeneralBeds.Int(),
		EmergencyCapacity:  d.EmergencyCapacity.Int(),
		EquipmentInventory: d.EquipmentInventory,
		SpecialtyRooms:     nonNil(d.SpecialtyRooms),
		MainSpecialty:      d.MainSpecialty,
	}
}

type MedicalShopDraft struct {
	Name              string      `json:"name"`
	Address           string      `json:"address"`
	PhoneNumber       string      `json:"phone_number"`
	LicenseNumber     string      `json:"license_number"`
	InventoryCapacity NumericText `json:"inventory_capacity"`
	Specialization    string      `json:"specialization"`
}

func (*MedicalShopDraft) Kind() Kind { return KindMedicalShop }

func (d *MedicalShopDraft) Validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case strings.TrimSpace(d.Address) == "":
		return fmt.Errorf("%w: address is required", ErrValidation)
	case strings.TrimSpace(d.PhoneNumber) == "":
		return fmt.Errorf("%w: phone number is required", ErrValidation)
	case strings.TrimSpace(d.LicenseNumber) == "":
		return fmt.Errorf("%w: license number is required", ErrValidation)
	case d.InventoryCapacity.Int() < 0:
		return fmt.Errorf("%w: inventory_capacity must not be negative", ErrValidation)
	}
	return nil
}

func (d *MedicalShopDraft) Entity() Entity {
	return &MedicalShop{
		Name:              strings.TrimSpace(d.Name),
		Address:           strings.TrimSpace(d.Address),
		PhoneNumber:       strings.TrimSpace(d.PhoneNumber),
		LicenseNumber:     strings.TrimSpace(d.LicenseNumber),
		InventoryCapacity: d.InventoryCapacity.Int(),
		Specialization:    d.Specialization,
	}
}

func nonNil(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

// Facilities is the global admin listing.
type Facilities struct {
	Hospitals         []*Hospital    `json:"hospitals"`
	MedicalShops      []*MedicalShop `json:"medical_shops"`
	TotalHospitals    int            `json:"total_hospitals"`
	TotalMedicalShops int            `json:"total_medical_shops"`
	Limit             int            `json:"limit"`
	Offset            int            `json:"offset"`
}
