package assignment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/graphql"
)

const assignmentFields = `id title description given_at area skills_required contact_number admin_id volunteer_id assignment_status submission1 submission2 submission3 created_at`

const volunteerAssignmentsDoc = `query VolunteerAssignments($where: assignments_bool_exp) {
  assignments(where: $where, order_by: [{created_at: desc}, {id: desc}]) { ` + assignmentFields + ` }
}`

const listAssignmentsDoc = `query ListAssignments($limit: Int, $offset: Int) {
  assignments(order_by: [{created_at: desc}, {id: desc}], limit: $limit, offset: $offset) { ` + assignmentFields + ` }
  assignments_aggregate { aggregate { count } }
}`

const getAssignmentDoc = `query GetAssignment($id: Int!) {
  assignments_by_pk(id: $id) { ` + assignmentFields + ` }
}`

const insertAssignmentDoc = `mutation CreateAssignment($object: assignments_insert_input!) {
  insert_assignments_one(object: $object) { id created_at }
}`

const updateAssignmentDoc = `mutation UpdateAssignment($id: Int!, $set: assignments_set_input!) {
  update_assignments_by_pk(pk_columns: {id: $id}, _set: $set) { ` + assignmentFields + ` }
}`

const deleteAssignmentDoc = `mutation DeleteAssignment($id: Int!) {
  delete_assignments_by_pk(id: $id) { id }
}`

// acceptDoc and submitDoc guard on the current assignee so concurrent
// volunteers cannot overwrite each other.
const acceptDoc = `mutation AcceptAssignment($id: Int!, $volunteer: Int!, $status: String!) {
  update_assignments(where: {id: {_eq: $id}, volunteer_id: {_is_null: true}}, _set: {volunteer_id: $volunteer, assignment_status: $status}) { affected_rows }
}`

const submitDoc = `mutation SubmitAssignment($id: Int!, $volunteer: Int!, $set: assignments_set_input!) {
  update_assignments(where: {id: {_eq: $id}, volunteer_id: {_eq: $volunteer}}, _set: $set) { affected_rows }
}`

// nonNil keeps empty lists encoding as [] rather than null. A null given_at
// decodes to the empty string.
func nonNil(rows []*Assignment) []*Assignment {
	if rows == nil {
		return []*Assignment{}
	}
	return rows
}

type gqlStore struct {
	client graphql.Executor
}

func NewGraphQLStore(client graphql.Executor) Store {
	return &gqlStore{client: client}
}

func (s *gqlStore) where(ctx context.Context, where map[string]interface{}) ([]*Assignment, error) {
	var data struct {
		Rows []*Assignment `json:"assignments"`
	}
	if err := s.client.Do(ctx, volunteerAssignmentsDoc, map[string]interface{}{"where": where}, &data); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return nonNil(data.Rows), nil
}

func (s *gqlStore) ListOpen(ctx context.Context) ([]*Assignment, error) {
	return s.where(ctx, map[string]interface{}{"volunteer_id": map[string]interface{}{"_is_null": true}})
}

func (s *gqlStore) ListByVolunteer(ctx context.Context, volunteerID int64) ([]*Assignment, error) {
	return s.where(ctx, map[string]interface{}{"volunteer_id": map[string]interface{}{"_eq": volunteerID}})
}

func (s *gqlStore) ListAll(ctx context.Context, limit, offset int) ([]*Assignment, int, error) {
	var data struct {
		Rows      []*Assignment `json:"assignments"`
		Aggregate struct {
			Aggregate struct {
				Count int `json:"count"`
			} `json:"aggregate"`
		} `json:"assignments_aggregate"`
	}
	vars := map[string]interface{}{"limit": limit, "offset": offset}
	if err := s.client.Do(ctx, listAssignmentsDoc, vars, &data); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}
	return nonNil(data.Rows), data.Aggregate.Aggregate.Count, nil
}

func (s *gqlStore) Get(ctx context.Context, id int64) (*Assignment, error) {
	var data struct {
		Row *Assignment `json:"assignments_by_pk"`
	}
	if err := s.client.Do(ctx, getAssignmentDoc, map[string]interface{}{"id": id}, &data); err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if data.Row == nil {
		return nil, ErrNotFound
	}
	return data.Row, nil
}

func draftObject(d *Draft) map[string]interface{} {
	var givenAt interface{}
	if d.GivenAt != "" {
		givenAt = d.GivenAt
	}
	return map[string]interface{}{
		"title":           d.Title,
		"description":     d.Description,
		"given_at":        givenAt,
		"area":            d.Area,
		"skills_required": d.SkillsRequired,
		"contact_number":  d.ContactNumber,
	}
}

func (s *gqlStore) Create(ctx context.Context, a *Assignment) error {
	object := draftObject(&Draft{
		Title: a.Title, Description: a.Description, GivenAt: a.GivenAt,
		Area: a.Area, SkillsRequired: a.SkillsRequired, ContactNumber: a.ContactNumber,
	})
	object["admin_id"] = a.AdminID
	object["assignment_status"] = a.Status

	var data struct {
		Row *Assignment `json:"insert_assignments_one"`
	}
	if err := s.client.Do(ctx, insertAssignmentDoc, map[string]interface{}{"object": object}, &data); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	if data.Row == nil {
		return fmt.Errorf("insert assignment: empty response")
	}
	a.ID, a.CreatedAt = data.Row.ID, data.Row.CreatedAt
	return nil
}

func (s *gqlStore) Update(ctx context.Context, id int64, d *Draft) (*Assignment, error) {
	var data struct {
		Row *Assignment `json:"update_assignments_by_pk"`
	}
	vars := map[string]interface{}{"id": id, "set": draftObject(d)}
	if err := s.client.Do(ctx, updateAssignmentDoc, vars, &data); err != nil {
		return nil, fmt.Errorf("update assignment: %w", err)
	}
	if data.Row == nil {
		return nil, ErrNotFound
	}
	return data.Row, nil
}

func (s *gqlStore) Delete(ctx context.Context, id int64) error {
	var data map[string]json.RawMessage
	if err := s.client.Do(ctx, deleteAssignmentDoc, map[string]interface{}{"id": id}, &data); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if raw, ok := data["delete_assignments_by_pk"]; !ok || string(raw) == "null" {
		return ErrNotFound
	}
	return nil
}

type affected struct {
	AffectedRows int `json:"affected_rows"`
}

func (s *gqlStore) Accept(ctx context.Context, id, volunteerID int64) (bool, error) {
	var data struct {
		Result *affected `json:"update_assignments"`
	}
	vars := map[string]interface{}{"id": id, "volunteer": volunteerID, "status": StatusWorking}
	if err := s.client.Do(ctx, acceptDoc, vars, &data); err != nil {
		return false, fmt.Errorf("accept assignment: %w", err)
	}
	return data.Result != nil && data.Result.AffectedRows == 1, nil
}

func (s *gqlStore) SaveSubmission(ctx context.Context, a *Assignment, volunteerID int64) (bool, error) {
	var data struct {
		Result *affected `json:"update_assignments"`
	}
	vars := map[string]interface{}{
		"id":        a.ID,
		"volunteer": volunteerID,
		"set": map[string]interface{}{
			"assignment_status": a.Status,
			"submission1":       a.Submission1,
			"submission2":       a.Submission2,
			"submission3":       a.Submission3,
		},
	}
	if err := s.client.Do(ctx, submitDoc, vars, &data); err != nil {
		return false, fmt.Errorf("save submission: %w", err)
	}
	return data.Result != nil && data.Result.AffectedRows == 1, nil
}
