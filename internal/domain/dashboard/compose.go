// Package dashboard decides which role-gated panel a caller sees.
package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/identity"
)

var ErrUnknownRole = errors.New("unknown role")

const apiPrefix = "/api/v1"

// Compose maps a role kind and its record to a panel. It is pure: the same
// inputs always give the same descriptor, and nothing is cached between
// calls.
func Compose(kind identity.RoleKind, rec identity.RoleRecord) (*PanelDescriptor, error) {
	if rec == nil || rec.Kind() != kind {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRole, kind)
	}

	d := &PanelDescriptor{
		Kind:    kind,
		Role:    string(kind),
		Title:   kind.Title(),
		Heading: "Welcome to Swasthya Setu Control Panel as " + kind.Title(),
	}

	switch r := rec.(type) {
	case *identity.HospitalAdmin:
		if r.HospitalID == nil {
			return createEntity(d, "hospital", SectionCreateHospital, r.ID,
				"You have not created any hospital yet. Please create a hospital to manage.",
				apiPrefix+"/hospitals"), nil
		}
		id := *r.HospitalID
		d.Panel = PanelHospitalManagement
		d.Params = map[string]int64{"hospital_id": id}
		d.Sections = []Section{SectionHospitalDetails, SectionHospitalStaff}
		d.Links = map[string]string{"hospital": apiPrefix + "/hospitals/" + strconv.FormatInt(id, 10)}

	case *identity.MedicalShopAdmin:
		if r.MedicalShopID == nil {
			return createEntity(d, "medical_shop", SectionCreateShop, r.ID,
				"You have not created any medical shop yet. Please create a medical shop to manage.",
				apiPrefix+"/medical-shops"), nil
		}
		id := *r.MedicalShopID
		d.Panel = PanelShopManagement
		d.Params = map[string]int64{"medical_shop_id": id}
		d.Sections = []Section{SectionShopDetails, SectionShopInventory}
		d.Links = map[string]string{"medical_shop": apiPrefix + "/medical-shops/" + strconv.FormatInt(id, 10)}

	case *identity.Citizen:
		d.Panel = PanelCitizenSelfService
		d.Params = map[string]int64{"citizen_id": r.ID}
		d.Sections = []Section{SectionCitizenCard}
		d.Links = map[string]string{"profile": apiPrefix + "/me", "symptoms": apiPrefix + "/ai/symptoms"}

	case *identity.Volunteer:
		d.Panel = PanelVolunteerAssignments
		d.Params = map[string]int64{"volunteer_id": r.ID}
		d.Sections = []Section{SectionAssignments}
		d.Links = map[string]string{"assignments": apiPrefix + "/assignments/volunteer"}

	case *identity.AdminUser:
		if r.Role != "" {
			d.Role = r.Role
		}
		d.Panel = PanelGlobalAdmin
		d.Sections = []Section{SectionFacilities, SectionAssignmentManager, SectionRiskAnalytics}
		d.Links = map[string]string{
			"facilities":  apiPrefix + "/facilities",
			"assignments": apiPrefix + "/assignments",
			"risk":        apiPrefix + "/analytics/risk",
		}

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownRole, rec)
	}

	d.Sections = append(d.Sections, SectionBloodDonation, SectionUserInformation)
	d.Links["blood_donations"] = apiPrefix + "/blood-donations"
	return d, nil
}

func createEntity(d *PanelDescriptor, entity string, section Section, adminID int64, notice, endpoint string) *PanelDescriptor {
	d.Panel = PanelCreateEntity
	d.Params = map[string]int64{"admin_id": adminID}
	d.Sections = []Section{section, SectionBloodDonation, SectionUserInformation}
	d.Links = map[string]string{"blood_donations": apiPrefix + "/blood-donations"}
	d.CreateEntity = &CreateEntityAction{
		Entity:   entity,
		Notice:   notice,
		Method:   http.MethodPost,
		Endpoint: endpoint,
		AdminID:  adminID,
	}
	return d
}

// ComposeResolution composes the panel for a resolved principal, carrying the
// admin sub-role through.
func ComposeResolution(res *identity.Resolution) (*PanelDescriptor, error) {
	if res == nil {
		return nil, ErrUnknownRole
	}
	return Compose(res.Kind, res.Record)
}
