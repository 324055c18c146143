package analytics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/identity"
)

func history(conditions ...string) []HistoryEntry {
	out := make([]HistoryEntry, len(conditions))
	for i, c := range conditions {
		out[i] = HistoryEntry{Condition: c}
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    int
	}{
		{"empty", Profile{}, 0},
		{"age 60 not counted", Profile{Age: 60}, 0},
		{"age 61", Profile{Age: 61}, 3},
		{"history counts each entry", Profile{MedicalHistory: history("asthma", "migraine")}, 2},
		{"chronic bonus once", Profile{MedicalHistory: history("Diabetes", "hypertension")}, 4},
		{"chronic must match exactly", Profile{MedicalHistory: history("type 2 diabetes")}, 1},
		{"fever in latest visit", Profile{RecentVisits: []Visit{{Reason: "High FEVER and chills"}}}, 2},
		{"fever only in older visit", Profile{RecentVisits: []Visit{{Reason: "checkup"}, {Reason: "fever"}}}, 0},
		{
			"all rules",
			Profile{Age: 72, MedicalHistory: history("heart disease", "asthma"), RecentVisits: []Visit{{Reason: "fever"}}},
			3 + 2 + 2 + 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(&tt.profile); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAssess_HighRiskIsStrictlyAboveThreshold(t *testing.T) {
	seven := &Profile{ID: "a", Age: 65, MedicalHistory: history("diabetes", "asthma")} // 3+2+2
	eight := &Profile{ID: "b", Age: 65, MedicalHistory: history("diabetes", "asthma", "gout")}

	r, err := Assess([]*Profile{seven, eight})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Scores[0].Score != 7 || r.Scores[0].HighRisk {
		t.Errorf("expected score 7 not high risk, got %+v", r.Scores[0])
	}
	if r.Scores[1].Score != 8 || !r.Scores[1].HighRisk {
		t.Errorf("expected score 8 high risk, got %+v", r.Scores[1])
	}
	if r.HighRiskCount != 1 || r.Total != 2 {
		t.Errorf("unexpected totals %+v", r)
	}
}

func TestAssess_RejectsNullProfile(t *testing.T) {
	if _, err := Assess([]*Profile{nil}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestHandler_Risk(t *testing.T) {
	body := `{"profiles": [{"id": "c1", "age": 70, "medicalHistory": [{"condition": "Hypertension"}, {"condition": "asthma"}, {"condition": "gout"}]}]}`

	for kind, want := range map[identity.RoleKind]int{
		identity.KindAdminUser: http.StatusOK,
		identity.KindCitizen:   http.StatusForbidden,
	} {
		e := echo.New()
		api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				identity.WithResolution(c, &identity.Resolution{Kind: kind, Role: string(kind)})
				return next(c)
			}
		})
		NewHandler().RegisterRoutes(api)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/risk", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != want {
			t.Errorf("%s: expected %d, got %d", kind, want, rec.Code)
			continue
		}
		if want == http.StatusOK && !strings.Contains(rec.Body.String(), `"high_risk_count":1`) {
			t.Errorf("unexpected body %s", rec.Body)
		}
	}
}
