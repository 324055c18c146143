package facility

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/graphql"
)

const (
	hospitalFields = `id name address phone_number specialities total_icu_beds total_general_beds emergency_capacity equipment_inventory specialty_rooms main_specialty created_at updated_at`
	shopFields     = `id name address phone_number license_number inventory_capacity specialization created_at updated_at`
)

func fieldsFor(kind Kind) string {
	if kind == KindMedicalShop {
		return shopFields
	}
	return hospitalFields
}

func adminEntityDoc(ts tableSet) string {
	return fmt.Sprintf(`query AdminEntity($id: Int!) {
  %s_by_pk(id: $id) { id %s }
}`, ts.admins, ts.fk)
}

func insertEntityDoc(ts tableSet) string {
	return fmt.Sprintf(`mutation InsertEntity($object: %[1]s_insert_input!) {
  insert_%[1]s_one(object: $object) { id created_at updated_at }
}`, ts.entity)
}

func insertAssociationDoc(ts tableSet) string {
	return fmt.Sprintf(`mutation InsertAssociation($object: %[1]s_insert_input!) {
  insert_%[1]s_one(object: $object) { id }
}`, ts.assoc)
}

// linkAdminDoc sets the foreign key only while it is still null, so a
// concurrent provision on another instance cannot be overwritten.
func linkAdminDoc(ts tableSet) string {
	return fmt.Sprintf(`mutation LinkAdmin($id: Int!, $set: %[1]s_set_input!) {
  update_%[1]s(where: {id: {_eq: $id}, %[2]s: {_is_null: true}}, _set: $set) { affected_rows }
}`, ts.admins, ts.fk)
}

func deleteAssociationDoc(ts tableSet) string {
	return fmt.Sprintf(`mutation DeleteAssociation($where: %[1]s_bool_exp!) {
  delete_%[1]s(where: $where) { affected_rows }
}`, ts.assoc)
}

func deleteEntityDoc(ts tableSet) string {
	return fmt.Sprintf(`mutation DeleteEntity($id: Int!) {
  delete_%s_by_pk(id: $id) { id }
}`, ts.entity)
}

func getEntityDoc(ts tableSet, kind Kind) string {
	return fmt.Sprintf(`query GetEntity($id: Int!) {
  %s_by_pk(id: $id) { %s }
}`, ts.entity, fieldsFor(kind))
}

func updateEntityDoc(ts tableSet, kind Kind) string {
	return fmt.Sprintf(`mutation UpdateEntity($id: Int!, $set: %[1]s_set_input!) {
  update_%[1]s_by_pk(pk_columns: {id: $id}, _set: $set) { %[2]s }
}`, ts.entity, fieldsFor(kind))
}

func listEntitiesDoc(ts tableSet, kind Kind) string {
	return fmt.Sprintf(`query ListEntities($limit: Int, $offset: Int) {
  %[1]s(order_by: [{id: asc}], limit: $limit, offset: $offset) { %[2]s }
  %[1]s_aggregate { aggregate { count } }
}`, ts.entity, fieldsFor(kind))
}

type gqlStore struct {
	client graphql.Executor
}

// NewGraphQLStore returns a Store backed by the managed GraphQL backend.
// Every step is its own request, so atomicity comes from the workflow's
// compensations.
func NewGraphQLStore(client graphql.Executor) Store {
	return &gqlStore{client: client}
}

func (s *gqlStore) do(ctx context.Context, doc string, vars map[string]interface{}) (map[string]json.RawMessage, error) {
	var data map[string]json.RawMessage
	if err := s.client.Do(ctx, doc, vars, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// field decodes data[name] into out and reports whether it was non-null.
func field(data map[string]json.RawMessage, name string, out interface{}) (bool, error) {
	raw, ok := data[name]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

func (s *gqlStore) AdminEntity(ctx context.Context, kind Kind, adminID int64) (*int64, error) {
	ts, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	data, err := s.do(ctx, adminEntityDoc(ts), map[string]interface{}{"id": adminID})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ts.admins, err)
	}
	var row map[string]*int64
	ok, err := field(data, ts.admins+"_by_pk", &row)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAdminNotFound
	}
	return row[ts.fk], nil
}

func (s *gqlStore) InsertEntity(ctx context.Context, e Entity) (int64, error) {
	ts, err := tablesFor(e.Kind())
	if err != nil {
		return 0, err
	}
	data, err := s.do(ctx, insertEntityDoc(ts), map[string]interface{}{"object": entityObject(e)})
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", ts.entity, err)
	}
	var row struct {
		ID int64 `json:"id"`
	}
	ok, err := field(data, "insert_"+ts.entity+"_one", &row)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("insert %s: empty response", ts.entity)
	}
	switch v := e.(type) {
	case *Hospital:
		v.ID = row.ID
	case *MedicalShop:
		v.ID = row.ID
	}
	return row.ID, nil
}

func (s *gqlStore) InsertAssociation(ctx context.Context, kind Kind, adminID, entityID int64) error {
	ts, err := tablesFor(kind)
	if err != nil {
		return err
	}
	object := map[string]interface{}{"admin_id": adminID, ts.fk: entityID}
	if _, err := s.do(ctx, insertAssociationDoc(ts), map[string]interface{}{"object": object}); err != nil {
		return fmt.Errorf("insert %s: %w", ts.assoc, err)
	}
	return nil
}

func (s *gqlStore) LinkAdmin(ctx context.Context, kind Kind, adminID, entityID int64) error {
	ts, err := tablesFor(kind)
	if err != nil {
		return err
	}
	vars := map[string]interface{}{"id": adminID, "set": map[string]interface{}{ts.fk: entityID}}
	data, err := s.do(ctx, linkAdminDoc(ts), vars)
	if err != nil {
		return fmt.Errorf("update %s: %w", ts.admins, err)
	}
	var res struct {
		AffectedRows int `json:"affected_rows"`
	}
	if _, err := field(data, "update_"+ts.admins, &res); err != nil {
		return err
	}
	if res.AffectedRows == 0 {
		return fmt.Errorf("link %s %d: %w", ts.admins, adminID, ErrAlreadyProvisioned)
	}
	return nil
}

func (s *gqlStore) DeleteAssociation(ctx context.Context, kind Kind, adminID, entityID int64) error {
	ts, err := tablesFor(kind)
	if err != nil {
		return err
	}
	where := map[string]interface{}{
		"admin_id": map[string]interface{}{"_eq": adminID},
		ts.fk:      map[string]interface{}{"_eq": entityID},
	}
	if _, err := s.do(ctx, deleteAssociationDoc(ts), map[string]interface{}{"where": where}); err != nil {
		return fmt.Errorf("delete %s: %w", ts.assoc, err)
	}
	return nil
}

func (s *gqlStore) DeleteEntity(ctx context.Context, kind Kind, id int64) error {
	ts, err := tablesFor(kind)
	if err != nil {
		return err
	}
	if _, err := s.do(ctx, deleteEntityDoc(ts), map[string]interface{}{"id": id}); err != nil {
		return fmt.Errorf("delete %s: %w", ts.entity, err)
	}
	return nil
}

func newEntity(kind Kind) Entity {
	if kind == KindMedicalShop {
		return &MedicalShop{}
	}
	return &Hospital{}
}

func (s *gqlStore) Get(ctx context.Context, kind Kind, id int64) (Entity, error) {
	ts, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	data, err := s.do(ctx, getEntityDoc(ts, kind), map[string]interface{}{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ts.entity, err)
	}
	e := newEntity(kind)
	ok, err := field(data, ts.entity+"_by_pk", e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *gqlStore) Update(ctx context.Context, e Entity) (Entity, error) {
	ts, err := tablesFor(e.Kind())
	if err != nil {
		return nil, err
	}
	vars := map[string]interface{}{"id": e.EntityID(), "set": entityObject(e)}
	data, err := s.do(ctx, updateEntityDoc(ts, e.Kind()), vars)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", ts.entity, err)
	}
	out := newEntity(e.Kind())
	ok, err := field(data, "update_"+ts.entity+"_by_pk", out)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return out, nil
}

type aggregate struct {
	Aggregate struct {
		Count int `json:"count"`
	} `json:"aggregate"`
}

func (s *gqlStore) list(ctx context.Context, kind Kind, limit, offset int, out interface{}) (int, error) {
	ts, err := tablesFor(kind)
	if err != nil {
		return 0, err
	}
	data, err := s.do(ctx, listEntitiesDoc(ts, kind), map[string]interface{}{"limit": limit, "offset": offset})
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", ts.entity, err)
	}
	if _, err := field(data, ts.entity, out); err != nil {
		return 0, err
	}
	var agg aggregate
	if _, err := field(data, ts.entity+"_aggregate", &agg); err != nil {
		return 0, err
	}
	return agg.Aggregate.Count, nil
}

func (s *gqlStore) ListHospitals(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	out := []*Hospital{}
	total, err := s.list(ctx, KindHospital, limit, offset, &out)
	return out, total, err
}

func (s *gqlStore) ListMedicalShops(ctx context.Context, limit, offset int) ([]*MedicalShop, int, error) {
	out := []*MedicalShop{}
	total, err := s.list(ctx, KindMedicalShop, limit, offset, &out)
	return out, total, err
}

// entityObject flattens e into backend column names, excluding id and the
// timestamps.
func entityObject(e Entity) map[string]interface{} {
	switch v := e.(type) {
	case *Hospital:
		return map[string]interface{}{
			"name":                v.Name,
			"address":             v.Address,
			"phone_number":        v.PhoneNumber,
			"specialities":        nonNil(v.Specialities),
			"total_icu_beds":      v.TotalICUBeds,
			"total_general_beds":  v.TotalGeneralBeds,
			"emergency_capacity":  v.EmergencyCapacity,
			"equipment_inventory": v.EquipmentInventory,
			"specialty_rooms":     nonNil(v.SpecialtyRooms),
			"main_specialty":      v.MainSpecialty,
		}
	case *MedicalShop:
		return map[string]interface{}{
			"name":               v.Name,
			"address":            v.Address,
			"phone_number":       v.PhoneNumber,
			"license_number":     v.LicenseNumber,
			"inventory_capacity": v.InventoryCapacity,
			"specialization":     v.Specialization,
		}
	}
	return nil
}
