package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// -- Mock Store --

type mockStore struct {
	matches map[string]*Matches
	nextID  int64
	err     error
}

func newMockStore() *mockStore {
	return &mockStore{matches: make(map[string]*Matches)}
}

func (m *mockStore) Lookup(_ context.Context, uid string) (*Matches, error) {
	if m.err != nil {
		return nil, m.err
	}
	if got, ok := m.matches[uid]; ok {
		return got, nil
	}
	return &Matches{}, nil
}

func (m *mockStore) Create(ctx context.Context, rec RoleRecord) error {
	uid := rec.Common().FirebaseUID
	existing, _ := m.Lookup(ctx, uid)
	if len(existing.Records()) > 0 {
		return ErrAlreadyRegistered
	}
	m.nextID++
	rec.Common().ID = m.nextID
	rec.Common().CreatedAt = time.Now()
	m.put(uid, rec)
	return nil
}

func (m *mockStore) Update(_ context.Context, rec RoleRecord) error {
	for _, mt := range m.matches {
		for _, r := range mt.Records() {
			if r.Kind() == rec.Kind() && r.RecordID() == rec.RecordID() {
				return nil
			}
		}
	}
	return ErrRoleNotFound
}

func (m *mockStore) put(uid string, rec RoleRecord) {
	mt, ok := m.matches[uid]
	if !ok {
		mt = &Matches{}
		m.matches[uid] = mt
	}
	switch r := rec.(type) {
	case *HospitalAdmin:
		mt.HospitalAdmin = r
	case *MedicalShopAdmin:
		mt.MedicalShopAdmin = r
	case *Citizen:
		mt.Citizen = r
	case *Volunteer:
		mt.Volunteer = r
	case *AdminUser:
		mt.AdminUser = r
	}
}

func int64Ptr(v int64) *int64 { return &v }

// -- Resolver --

func TestResolve_SingleRecordEachKind(t *testing.T) {
	tests := []struct {
		rec      RoleRecord
		wantKind RoleKind
		wantRole string
	}{
		{&HospitalAdmin{Account: Account{ID: 1}}, KindHospitalAdmin, "hospital_admin"},
		{&MedicalShopAdmin{Account: Account{ID: 2}}, KindMedicalShopAdmin, "medical_shop_admin"},
		{&Citizen{Account: Account{ID: 3}}, KindCitizen, "citizen"},
		{&Volunteer{Account: Account{ID: 4}}, KindVolunteer, "volunteer"},
		{&AdminUser{Account: Account{ID: 5}, Role: "super_admin"}, KindAdminUser, "super_admin"},
		{&AdminUser{Account: Account{ID: 6}}, KindAdminUser, "admin_user"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.wantKind, tt.rec.RecordID()), func(t *testing.T) {
			store := newMockStore()
			store.put("uid", tt.rec)

			res, err := NewResolver(store).Resolve(context.Background(), "uid")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, res.Kind)
			}
			if res.Role != tt.wantRole {
				t.Errorf("expected role %q, got %q", tt.wantRole, res.Role)
			}
			if res.Record.RecordID() != tt.rec.RecordID() {
				t.Errorf("expected record %d, got %d", tt.rec.RecordID(), res.Record.RecordID())
			}
			if len(res.Shadowed) != 0 {
				t.Errorf("expected no shadowed kinds, got %v", res.Shadowed)
			}
		})
	}
}

func TestResolve_PriorityOrder(t *testing.T) {
	store := newMockStore()
	store.put("uid", &Volunteer{Account: Account{ID: 10}})
	store.put("uid", &Citizen{Account: Account{ID: 11}})
	store.put("uid", &AdminUser{Account: Account{ID: 12}, Role: "super_admin"})

	res, err := NewResolver(store).Resolve(context.Background(), "uid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != KindCitizen {
		t.Fatalf("expected citizen to win, got %s", res.Kind)
	}
	want := []RoleKind{KindVolunteer, KindAdminUser}
	if len(res.Shadowed) != len(want) {
		t.Fatalf("expected shadowed %v, got %v", want, res.Shadowed)
	}
	for i := range want {
		if res.Shadowed[i] != want[i] {
			t.Errorf("shadowed[%d]: expected %s, got %s", i, want[i], res.Shadowed[i])
		}
	}
}

func TestResolve_HospitalAdminBeatsShopAdmin(t *testing.T) {
	store := newMockStore()
	store.put("uid", &MedicalShopAdmin{Account: Account{ID: 1}})
	store.put("uid", &HospitalAdmin{Account: Account{ID: 2}})

	res, err := NewResolver(store).Resolve(context.Background(), "uid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != KindHospitalAdmin {
		t.Errorf("expected hospital_admin, got %s", res.Kind)
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, err := NewResolver(newMockStore()).Resolve(context.Background(), "nobody")
	if !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("expected ErrRoleNotFound, got %v", err)
	}
	if err.Error() != "user not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestResolve_EmptyToken(t *testing.T) {
	_, err := NewResolver(newMockStore()).Resolve(context.Background(), "")
	if !errors.Is(err, ErrEmptyIdentity) {
		t.Errorf("expected ErrEmptyIdentity, got %v", err)
	}
}

func TestResolve_BackendError(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("connection refused")

	_, err := NewResolver(store).Resolve(context.Background(), "uid")
	if err == nil || errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
	if !errors.Is(err, store.err) {
		t.Errorf("expected backend error to be wrapped, got %v", err)
	}
}

// -- Registration --

func TestRegister_Citizen(t *testing.T) {
	svc := NewService(newMockStore(), false)
	reg := &Registration{
		Kind:           KindCitizen,
		Username:       "asha",
		FullName:       "Asha Rao",
		PhoneNumber:    "99999",
		DateOfBirth:    "1990-04-01",
		MedicalHistory: "asthma",
	}

	rec, err := svc.Register(context.Background(), "uid-1", "asha@example.org", reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, ok := rec.(*Citizen)
	if !ok {
		t.Fatalf("expected *Citizen, got %T", rec)
	}
	if c.ID == 0 || c.FirebaseUID != "uid-1" || c.Email != "asha@example.org" {
		t.Errorf("unexpected record %+v", c)
	}
	if c.PhoneNumber != "99999" || c.MedicalHistory != "asthma" {
		t.Errorf("expected citizen fields to be carried, got %+v", c)
	}

	res, err := svc.Profile(context.Background(), "uid-1")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if res.Kind != KindCitizen {
		t.Errorf("expected citizen, got %s", res.Kind)
	}
}

func TestRegister_AdminKindsUseContactNumber(t *testing.T) {
	svc := NewService(newMockStore(), false)
	rec, err := svc.Register(context.Background(), "uid-h", "", &Registration{
		Kind: KindHospitalAdmin, Username: "h", PhoneNumber: "080-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ha := rec.(*HospitalAdmin)
	if ha.ContactNumber != "080-1" {
		t.Errorf("expected contact_number from phone, got %q", ha.ContactNumber)
	}
	if ha.HospitalID != nil {
		t.Error("expected new hospital admin to have no hospital")
	}
}

func TestRegister_RefusesExistingRecord(t *testing.T) {
	store := newMockStore()
	store.put("uid-1", &Volunteer{Account: Account{ID: 7, FirebaseUID: "uid-1"}})
	svc := NewService(store, false)

	_, err := svc.Register(context.Background(), "uid-1", "", &Registration{Kind: KindCitizen, Username: "x"})
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestRegister_AdminSignup(t *testing.T) {
	reg := &Registration{Kind: KindAdminUser, Username: "root", AdminRole: "super_admin"}

	_, err := NewService(newMockStore(), false).Register(context.Background(), "uid-a", "", reg)
	if !errors.Is(err, ErrAdminSignupDisabled) {
		t.Errorf("expected ErrAdminSignupDisabled, got %v", err)
	}

	rec, err := NewService(newMockStore(), true).Register(context.Background(), "uid-a", "", reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.(*AdminUser).Role != "super_admin" {
		t.Errorf("expected sub-role to be kept, got %q", rec.(*AdminUser).Role)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(newMockStore(), true)
	tests := []struct {
		name string
		reg  Registration
		want error
	}{
		{"unknown kind", Registration{Kind: "doctor", Username: "x"}, ErrInvalidKind},
		{"missing username", Registration{Kind: KindCitizen}, ErrValidation},
		{"bad date", Registration{Kind: KindVolunteer, Username: "x", DateOfBirth: "01/02/1990"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), "uid", "", &tt.reg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// -- Profile --

func TestUpdateProfile(t *testing.T) {
	store := newMockStore()
	store.put("uid-v", &Volunteer{Account: Account{ID: 3, FirebaseUID: "uid-v", Username: "old"}, Skills: "first aid"})
	svc := NewService(store, false)

	name := "new"
	skills := "first aid, driving"
	emergency := "ignored for volunteers"
	res, err := svc.UpdateProfile(context.Background(), "uid-v", &ProfileUpdate{
		Username:         &name,
		Skills:           &skills,
		EmergencyContact: &emergency,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := res.Record.(*Volunteer)
	if v.Username != "new" || v.Skills != "first aid, driving" {
		t.Errorf("expected fields to be updated, got %+v", v)
	}
}

func TestUpdateProfile_NeverTouchesForeignKey(t *testing.T) {
	store := newMockStore()
	store.put("uid-h", &HospitalAdmin{Account: Account{ID: 1, FirebaseUID: "uid-h"}, HospitalID: int64Ptr(42)})
	svc := NewService(store, false)

	phone := "123"
	res, err := svc.UpdateProfile(context.Background(), "uid-h", &ProfileUpdate{PhoneNumber: &phone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ha := res.Record.(*HospitalAdmin)
	if ha.HospitalID == nil || *ha.HospitalID != 42 {
		t.Errorf("expected hospital_id to stay 42, got %v", ha.HospitalID)
	}
	if ha.ContactNumber != "123" {
		t.Errorf("expected contact number update, got %q", ha.ContactNumber)
	}
}

func TestUpdateProfile_EmptyUsername(t *testing.T) {
	store := newMockStore()
	store.put("uid", &Citizen{Account: Account{ID: 1, Username: "a"}})
	empty := ""
	_, err := NewService(store, false).UpdateProfile(context.Background(), "uid", &ProfileUpdate{Username: &empty})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestRoleKind_Title(t *testing.T) {
	if KindAdminUser.Title() != "System Administrator" {
		t.Errorf("unexpected title %q", KindAdminUser.Title())
	}
	if RoleKind("x").Valid() {
		t.Error("expected unknown kind to be invalid")
	}
}
