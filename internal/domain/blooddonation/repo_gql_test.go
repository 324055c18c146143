package blooddonation

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/graphql"
)

type fakeExecutor struct {
	t         *testing.T
	validator *graphql.Validator
	body      string
	vars      map[string]interface{}
}

func (f *fakeExecutor) Do(_ context.Context, doc string, vars map[string]interface{}, out interface{}) error {
	require.NoError(f.t, f.validator.Validate(doc))
	f.vars = vars
	return json.Unmarshal([]byte(f.body), out)
}

func newFakeExecutor(t *testing.T, body string) *fakeExecutor {
	v, err := graphql.NewValidator()
	require.NoError(t, err)
	return &fakeExecutor{t: t, validator: v, body: body}
}

func TestGraphQLDocuments_Validate(t *testing.T) {
	v, err := graphql.NewValidator()
	require.NoError(t, err)
	for _, doc := range []string{listDonationsDoc, getDonationDoc, insertDonationDoc, pledgeDoc} {
		assert.NoError(t, v.Validate(doc), doc)
	}
}

func TestGraphQLStore_ListSearch(t *testing.T) {
	exec := newFakeExecutor(t, `{"blood_donation": [{"id": 2, "blood_group": "O+", "area": "Pune", "requireduser_id": 5}]}`)
	rows, err := NewGraphQLStore(exec).List(context.Background(), "pune")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsRequest())

	where, ok := exec.vars["where"].(map[string]interface{})
	require.True(t, ok, "expected a where filter")
	assert.Len(t, where["_or"], 2)
}

func TestGraphQLStore_ListAll(t *testing.T) {
	exec := newFakeExecutor(t, `{"blood_donation": []}`)
	rows, err := NewGraphQLStore(exec).List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotContains(t, exec.vars, "where")
}

func TestGraphQLStore_Pledge(t *testing.T) {
	exec := newFakeExecutor(t, `{"update_blood_donation": {"affected_rows": 0}}`)
	ok, err := NewGraphQLStore(exec).SetDonor(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.False(t, ok, "expected already-pledged row to be left alone")
}

func TestGraphQLStore_GetMissing(t *testing.T) {
	exec := newFakeExecutor(t, `{"blood_donation_by_pk": null}`)
	_, err := NewGraphQLStore(exec).Get(context.Background(), 3)
	assert.ErrorIs(t, err, ErrNotFound)
}
