package blooddonation

import (
	"context"
	"fmt"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/graphql"
)

const donationFields = `id blood_group area contact specific_requirement created_at volunteer_id admin_id hospital_admin_id medical_shop_admin_id citizen_id donor_id requireduser_id`

const listDonationsDoc = `query ListBloodDonations($where: blood_donation_bool_exp) {
  blood_donation(where: $where, order_by: [{created_at: desc}, {id: desc}]) { ` + donationFields + ` }
}`

const getDonationDoc = `query GetBloodDonation($id: Int!) {
  blood_donation_by_pk(id: $id) { ` + donationFields + ` }
}`

const insertDonationDoc = `mutation InsertBloodDonation($object: blood_donation_insert_input!) {
  insert_blood_donation_one(object: $object) { id created_at }
}`

// pledgeDoc only matches rows whose donor is still unset.
const pledgeDoc = `mutation PledgeBloodDonation($id: Int!, $donor: Int!) {
  update_blood_donation(where: {id: {_eq: $id}, donor_id: {_is_null: true}}, _set: {donor_id: $donor}) { affected_rows }
}`

type gqlStore struct {
	client graphql.Executor
}

func NewGraphQLStore(client graphql.Executor) Store {
	return &gqlStore{client: client}
}

func (s *gqlStore) List(ctx context.Context, search string) ([]*Donation, error) {
	vars := map[string]interface{}{}
	if search != "" {
		pattern := map[string]interface{}{"_ilike": likePattern(search)}
		vars["where"] = map[string]interface{}{
			"_or": []interface{}{
				map[string]interface{}{"blood_group": pattern},
				map[string]interface{}{"area": pattern},
			},
		}
	}
	var data struct {
		Rows []*Donation `json:"blood_donation"`
	}
	if err := s.client.Do(ctx, listDonationsDoc, vars, &data); err != nil {
		return nil, fmt.Errorf("list blood donations: %w", err)
	}
	if data.Rows == nil {
		data.Rows = []*Donation{}
	}
	return data.Rows, nil
}

func (s *gqlStore) Get(ctx context.Context, id int64) (*Donation, error) {
	var data struct {
		Row *Donation `json:"blood_donation_by_pk"`
	}
	if err := s.client.Do(ctx, getDonationDoc, map[string]interface{}{"id": id}, &data); err != nil {
		return nil, fmt.Errorf("get blood donation: %w", err)
	}
	if data.Row == nil {
		return nil, ErrNotFound
	}
	return data.Row, nil
}

func (s *gqlStore) Create(ctx context.Context, d *Donation) error {
	object := map[string]interface{}{
		"blood_group":           d.BloodGroup,
		"area":                  d.Area,
		"contact":               d.Contact,
		"specific_requirement":  d.SpecificRequirement,
		"volunteer_id":          d.VolunteerID,
		"admin_id":              d.AdminID,
		"hospital_admin_id":     d.HospitalAdminID,
		"medical_shop_admin_id": d.MedicalShopAdminID,
		"citizen_id":            d.CitizenID,
		"donor_id":              d.DonorID,
		"requireduser_id":       d.RequiredUserID,
	}
	var data struct {
		Row *Donation `json:"insert_blood_donation_one"`
	}
	if err := s.client.Do(ctx, insertDonationDoc, map[string]interface{}{"object": object}, &data); err != nil {
		return fmt.Errorf("insert blood donation: %w", err)
	}
	if data.Row == nil {
		return fmt.Errorf("insert blood donation: empty response")
	}
	d.ID, d.CreatedAt = data.Row.ID, data.Row.CreatedAt
	return nil
}

func (s *gqlStore) SetDonor(ctx context.Context, id, donorID int64) (bool, error) {
	var data struct {
		Result *struct {
			AffectedRows int `json:"affected_rows"`
		} `json:"update_blood_donation"`
	}
	if err := s.client.Do(ctx, pledgeDoc, map[string]interface{}{"id": id, "donor": donorID}, &data); err != nil {
		return false, fmt.Errorf("pledge blood donation: %w", err)
	}
	return data.Result != nil && data.Result.AffectedRows == 1, nil
}
