package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/graphql"
)

// fakeExecutor validates every document and answers from canned JSON keyed
// by the first root field it finds in the document.
type fakeExecutor struct {
	t         *testing.T
	validator *graphql.Validator
	responses map[string]string
	calls     []map[string]interface{}
	err       error
}

func newFakeExecutor(t *testing.T, responses map[string]string) *fakeExecutor {
	v, err := graphql.NewValidator()
	require.NoError(t, err)
	return &fakeExecutor{t: t, validator: v, responses: responses}
}

func (f *fakeExecutor) Do(_ context.Context, doc string, vars map[string]interface{}, out interface{}) error {
	require.NoError(f.t, f.validator.Validate(doc))
	f.calls = append(f.calls, vars)
	if f.err != nil {
		return f.err
	}
	for field, body := range f.responses {
		if strings.Contains(doc, field+"(") {
			return json.Unmarshal([]byte(body), out)
		}
	}
	f.t.Fatalf("no canned response for document:\n%s", doc)
	return nil
}

func TestGraphQLDocuments_Validate(t *testing.T) {
	v, err := graphql.NewValidator()
	require.NoError(t, err)

	docs := []string{resolveRoleDoc}
	for _, table := range tables {
		docs = append(docs, insertRoleDoc(table), updateRoleDoc(table))
	}
	for _, doc := range docs {
		assert.NoError(t, v.Validate(doc), doc)
	}
}

func TestGraphQLStore_Lookup(t *testing.T) {
	exec := newFakeExecutor(t, map[string]string{
		"hospital_admins": `{
			"hospital_admins": [],
			"medical_shop_admins": [{"id": 3, "firebase_uid": "uid", "username": "m", "email": "m@x", "full_name": "", "address": "", "created_at": "2024-05-01T10:00:00.000000+00:00", "contact_number": "1", "medical_shop_id": null}],
			"citizens": [{"id": 8, "firebase_uid": "uid", "username": "c", "email": "c@x", "full_name": "", "address": "", "created_at": "2024-05-01T10:00:00+00:00", "date_of_birth": null, "phone_number": "", "emergency_contact": "", "medical_history": "", "vaccination_record": ""}],
			"volunteers": [],
			"admin_users": []
		}`,
	})

	m, err := NewGraphQLStore(exec).Lookup(context.Background(), "uid")
	require.NoError(t, err)
	assert.Nil(t, m.HospitalAdmin)
	require.NotNil(t, m.MedicalShopAdmin)
	assert.Nil(t, m.MedicalShopAdmin.MedicalShopID)
	require.NotNil(t, m.Citizen)
	assert.Equal(t, int64(8), m.Citizen.ID)
	assert.Equal(t, "uid", exec.calls[0]["uid"])

	res, err := NewResolver(NewGraphQLStore(exec)).Resolve(context.Background(), "uid")
	require.NoError(t, err)
	assert.Equal(t, KindMedicalShopAdmin, res.Kind)
	assert.Equal(t, []RoleKind{KindCitizen}, res.Shadowed)
}

func TestGraphQLStore_Create(t *testing.T) {
	exec := newFakeExecutor(t, map[string]string{
		"insert_volunteers_one": `{"insert_volunteers_one": {"id": 21, "created_at": "2024-05-01T10:00:00+00:00"}}`,
		"hospital_admins":       `{"hospital_admins": [], "medical_shop_admins": [], "citizens": [], "volunteers": [], "admin_users": []}`,
	})

	v := &Volunteer{Account: Account{FirebaseUID: "uid", Username: "v"}, Skills: "driving"}
	require.NoError(t, NewGraphQLStore(exec).Create(context.Background(), v))
	assert.Equal(t, int64(21), v.ID)

	object := exec.calls[1]["object"].(map[string]interface{})
	assert.Equal(t, "driving", object["skills"])
	assert.Nil(t, object["date_of_birth"], "empty date should be sent as null")
}

func TestGraphQLStore_CreateRefusesExisting(t *testing.T) {
	exec := newFakeExecutor(t, map[string]string{
		"hospital_admins": `{"hospital_admins": [], "medical_shop_admins": [], "citizens": [], "volunteers": [], "admin_users": [{"id": 1, "firebase_uid": "uid", "username": "a", "email": "", "full_name": "", "address": "", "created_at": "2024-05-01T10:00:00+00:00", "role": "super_admin"}]}`,
	})

	err := NewGraphQLStore(exec).Create(context.Background(), &Citizen{Account: Account{FirebaseUID: "uid", Username: "c"}})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Len(t, exec.calls, 1, "insert must not be attempted")
}

func TestGraphQLStore_UpdateExcludesImmutableColumns(t *testing.T) {
	exec := newFakeExecutor(t, map[string]string{
		"update_hospital_admins_by_pk": `{"update_hospital_admins_by_pk": {"id": 4}}`,
	})

	hid := int64(42)
	rec := &HospitalAdmin{Account: Account{ID: 4, FirebaseUID: "uid", Email: "e", Username: "u"}, HospitalID: &hid}
	require.NoError(t, NewGraphQLStore(exec).Update(context.Background(), rec))

	set := exec.calls[0]["set"].(map[string]interface{})
	for _, col := range []string{"firebase_uid", "email", "hospital_id"} {
		_, present := set[col]
		assert.False(t, present, "%s must not be writable through profile update", col)
	}
}

func TestGraphQLStore_UpdateMissing(t *testing.T) {
	exec := newFakeExecutor(t, map[string]string{
		"update_citizens_by_pk": `{"update_citizens_by_pk": null}`,
	})
	err := NewGraphQLStore(exec).Update(context.Background(), &Citizen{Account: Account{ID: 99}})
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestGraphQLStore_BackendError(t *testing.T) {
	exec := newFakeExecutor(t, nil)
	exec.err = errors.New("timeout")
	_, err := NewGraphQLStore(exec).Lookup(context.Background(), "uid")
	assert.ErrorIs(t, err, exec.err)
}
