package dashboard

import "github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/identity"

type PanelID string

const (
	PanelHospitalManagement   PanelID = "hospital_management"
	PanelShopManagement       PanelID = "shop_management"
	PanelCitizenSelfService   PanelID = "citizen_self_service"
	PanelVolunteerAssignments PanelID = "volunteer_assignments"
	PanelGlobalAdmin          PanelID = "global_admin"
	PanelCreateEntity         PanelID = "create_entity"
)

// Section names a block the panel mounts.
type Section string

const (
	SectionHospitalDetails   Section = "hospital_details"
	SectionHospitalStaff     Section = "hospital_staff"
	SectionShopDetails       Section = "shop_details"
	SectionShopInventory     Section = "shop_inventory"
	SectionCreateHospital    Section = "create_hospital"
	SectionCreateShop        Section = "create_medical_shop"
	SectionCitizenCard       Section = "citizen_card"
	SectionAssignments       Section = "volunteer_assignments"
	SectionFacilities        Section = "facilities"
	SectionAssignmentManager Section = "assignment_manager"
	SectionRiskAnalytics     Section = "risk_analytics"
	SectionBloodDonation     Section = "blood_donation"
	SectionUserInformation   Section = "user_information"
)

// PanelDescriptor tells the client which dashboard panel to render for the
// caller and with what parameters.
type PanelDescriptor struct {
	Panel    PanelID           `json:"panel"`
	Kind     identity.RoleKind `json:"kind"`
	Role     string            `json:"role"`
	Title    string            `json:"title"`
	Heading  string            `json:"heading"`
	Params   map[string]int64  `json:"params,omitempty"`
	Sections []Section         `json:"sections"`
	Links    map[string]string `json:"links,omitempty"`
	// CreateEntity is set only on the create_entity panel.
	CreateEntity *CreateEntityAction `json:"create_entity,omitempty"`
}

// CreateEntityAction is the call to action shown to an admin who has no
// managed entity yet.
type CreateEntityAction struct {
	Entity   string `json:"entity"`
	Notice   string `json:"notice"`
	Method   string `json:"method"`
	Endpoint string `json:"endpoint"`
	AdminID  int64  `json:"admin_id"`
}
