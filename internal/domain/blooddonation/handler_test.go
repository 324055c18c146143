package blooddonation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/identity"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/pkg/pagination"
)

func newContext(method, target, body string, res *identity.Resolution) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if res != nil {
		identity.WithResolution(c, res)
	}
	return c, rec
}

func TestHandler_CreateAndList(t *testing.T) {
	h := NewHandler(NewService(newMockStore()))

	c, rec := newContext(http.MethodPost, "/api/v1/blood-donations",
		`{"blood_group": "A+", "area": "Thane", "contact": "98", "intent": "request"}`,
		resolution(identity.KindHospitalAdmin, 6))
	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var d Donation
	json.Unmarshal(rec.Body.Bytes(), &d)
	if d.HospitalAdminID == nil || *d.HospitalAdminID != 6 {
		t.Errorf("expected hospital_admin_id 6, got %v", d.HospitalAdminID)
	}

	c, rec = newContext(http.MethodGet, "/api/v1/blood-donations?search=thane", "", resolution(identity.KindCitizen, 1))
	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var page pagination.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || page.HasMore {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestHandler_Create_Invalid(t *testing.T) {
	h := NewHandler(NewService(newMockStore()))
	c, _ := newContext(http.MethodPost, "/", `{"blood_group": "Z"}`, resolution(identity.KindCitizen, 1))
	err := h.Create(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_Pledge_Conflict(t *testing.T) {
	store := newMockStore()
	donor := int64(3)
	store.rows[1] = &Donation{ID: 1, BloodGroup: "A+", DonorID: &donor}
	h := NewHandler(NewService(store))

	c, _ := newContext(http.MethodPost, "/", "", resolution(identity.KindVolunteer, 2))
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.Pledge(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_RequiresResolution(t *testing.T) {
	h := NewHandler(NewService(newMockStore()))
	c, _ := newContext(http.MethodPost, "/", `{}`, nil)
	err := h.Create(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
