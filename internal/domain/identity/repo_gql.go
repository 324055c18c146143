package identity

import (
	"context"
	"fmt"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/graphql"
)

const (
	accountFields          = `id firebase_uid username email full_name address created_at`
	hospitalAdminFields    = accountFields + ` contact_number hospital_id`
	medicalShopAdminFields = accountFields + ` contact_number medical_shop_id`
	citizenFields          = accountFields + ` date_of_birth phone_number emergency_contact medical_history vaccination_record`
	volunteerFields        = accountFields + ` date_of_birth phone_number skills availability`
	adminUserFields        = accountFields + ` role`
)

// tables maps each kind to its backend collection.
var tables = map[RoleKind]string{
	KindHospitalAdmin:    "hospital_admins",
	KindMedicalShopAdmin: "medical_shop_admins",
	KindCitizen:          "citizens",
	KindVolunteer:        "volunteers",
	KindAdminUser:        "admin_users",
}

// resolveRoleDoc selects all five collections in one request.
const resolveRoleDoc = `query ResolveRole($uid: String!) {
  hospital_admins(where: {firebase_uid: {_eq: $uid}}, order_by: [{id: asc}], limit: 1) { ` + hospitalAdminFields + ` }
  medical_shop_admins(where: {firebase_uid: {_eq: $uid}}, order_by: [{id: asc}], limit: 1) { ` + medicalShopAdminFields + ` }
  citizens(where: {firebase_uid: {_eq: $uid}}, order_by: [{id: asc}], limit: 1) { ` + citizenFields + ` }
  volunteers(where: {firebase_uid: {_eq: $uid}}, order_by: [{id: asc}], limit: 1) { ` + volunteerFields + ` }
  admin_users(where: {firebase_uid: {_eq: $uid}}, order_by: [{id: asc}], limit: 1) { ` + adminUserFields + ` }
}`

func insertRoleDoc(table string) string {
	return fmt.Sprintf(`mutation InsertRoleRecord($object: %[1]s_insert_input!) {
  insert_%[1]s_one(object: $object) { id created_at }
}`, table)
}

func updateRoleDoc(table string) string {
	return fmt.Sprintf(`mutation UpdateRoleRecord($id: Int!, $set: %[1]s_set_input!) {
  update_%[1]s_by_pk(pk_columns: {id: $id}, _set: $set) { id }
}`, table)
}

type gqlStore struct {
	client graphql.Executor
}

// NewGraphQLStore returns a Store backed by the managed GraphQL backend.
// Create checks for an existing record before inserting; the backend's
// per-table unique firebase_uid constraint is the only guard against a
// concurrent registration of a different kind.
func NewGraphQLStore(client graphql.Executor) Store {
	return &gqlStore{client: client}
}

type resolveRoleData struct {
	HospitalAdmins    []HospitalAdmin    `json:"hospital_admins"`
	MedicalShopAdmins []MedicalShopAdmin `json:"medical_shop_admins"`
	Citizens          []Citizen          `json:"citizens"`
	Volunteers        []Volunteer        `json:"volunteers"`
	AdminUsers        []AdminUser        `json:"admin_users"`
}

func (s *gqlStore) Lookup(ctx context.Context, uid string) (*Matches, error) {
	var data resolveRoleData
	if err := s.client.Do(ctx, resolveRoleDoc, map[string]interface{}{"uid": uid}, &data); err != nil {
		return nil, fmt.Errorf("resolve role: %w", err)
	}
	m := &Matches{}
	if len(data.HospitalAdmins) > 0 {
		m.HospitalAdmin = &data.HospitalAdmins[0]
	}
	if len(data.MedicalShopAdmins) > 0 {
		m.MedicalShopAdmin = &data.MedicalShopAdmins[0]
	}
	if len(data.Citizens) > 0 {
		m.Citizen = &data.Citizens[0]
	}
	if len(data.Volunteers) > 0 {
		m.Volunteer = &data.Volunteers[0]
	}
	if len(data.AdminUsers) > 0 {
		m.AdminUser = &data.AdminUsers[0]
	}
	return m, nil
}

func (s *gqlStore) Create(ctx context.Context, rec RoleRecord) error {
	table, ok := tables[rec.Kind()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidKind, rec.Kind())
	}
	acct := rec.Common()
	existing, err := s.Lookup(ctx, acct.FirebaseUID)
	if err != nil {
		return err
	}
	if len(existing.Records()) > 0 {
		return ErrAlreadyRegistered
	}

	object := insertObject(rec)
	var data map[string]*Account
	if err := s.client.Do(ctx, insertRoleDoc(table), map[string]interface{}{"object": object}, &data); err != nil {
		if graphql.IsConstraintViolation(err) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("insert %s: %w", table, err)
	}
	inserted := data["insert_"+table+"_one"]
	if inserted == nil {
		return fmt.Errorf("insert %s: empty response", table)
	}
	acct.ID = inserted.ID
	acct.CreatedAt = inserted.CreatedAt
	return nil
}

func (s *gqlStore) Update(ctx context.Context, rec RoleRecord) error {
	table, ok := tables[rec.Kind()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidKind, rec.Kind())
	}
	set := insertObject(rec)
	delete(set, "firebase_uid")
	delete(set, "email")
	delete(set, "role")

	var data map[string]*struct {
		ID int64 `json:"id"`
	}
	vars := map[string]interface{}{"id": rec.RecordID(), "set": set}
	if err := s.client.Do(ctx, updateRoleDoc(table), vars, &data); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if data["update_"+table+"_by_pk"] == nil {
		return ErrRoleNotFound
	}
	return nil
}

// insertObject flattens rec into backend column names. Managed-entity
// foreign keys are never included.
func insertObject(rec RoleRecord) map[string]interface{} {
	acct := rec.Common()
	obj := map[string]interface{}{
		"firebase_uid": acct.FirebaseUID,
		"username":     acct.Username,
		"email":        acct.Email,
		"full_name":    acct.FullName,
		"address":      acct.Address,
	}
	switch r := rec.(type) {
	case *HospitalAdmin:
		obj["contact_number"] = r.ContactNumber
	case *MedicalShopAdmin:
		obj["contact_number"] = r.ContactNumber
	case *Citizen:
		obj["date_of_birth"] = nullIfEmpty(r.DateOfBirth)
		obj["phone_number"] = r.PhoneNumber
		obj["emergency_contact"] = r.EmergencyContact
		obj["medical_history"] = r.MedicalHistory
		obj["vaccination_record"] = r.VaccinationRecord
	case *Volunteer:
		obj["date_of_birth"] = nullIfEmpty(r.DateOfBirth)
		obj["phone_number"] = r.PhoneNumber
		obj["skills"] = r.Skills
		obj["availability"] = r.Availability
	case *AdminUser:
		obj["role"] = r.Role
	}
	return obj
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
