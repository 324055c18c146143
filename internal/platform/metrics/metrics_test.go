package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/api/v1/hospitals/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/hospitals/:id", "200"))
	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/hospitals/:id", "200"))

	if after-before != 3 {
		t.Errorf("expected 3 requests on one route label, got %v", after-before)
	}
}

func TestMiddleware_RecordsHTTPErrorStatus(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/forbidden", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "no")
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/forbidden", "403"))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/forbidden", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/forbidden", "403"))

	if after-before != 1 {
		t.Errorf("expected one 403 sample, got %v", after-before)
	}
}

func TestRecordProvisioningStep(t *testing.T) {
	c := provisioningSteps.WithLabelValues("hospital", "insert_association", "error")
	before := testutil.ToFloat64(c)
	RecordProvisioningStep("hospital", "insert_association", errors.New("boom"))
	if testutil.ToFloat64(c)-before != 1 {
		t.Error("expected error outcome to be counted")
	}
}

func TestRecordProvisioningRollback(t *testing.T) {
	c := provisioningSteps.WithLabelValues("medical_shop", "insert_entity", "rolled_back")
	before := testutil.ToFloat64(c)
	RecordProvisioningRollback("medical_shop", "insert_entity")
	if testutil.ToFloat64(c)-before != 1 {
		t.Error("expected rolled_back outcome to be counted")
	}
}

func TestRecordRoleResolution_EmptyKind(t *testing.T) {
	c := roleResolutions.WithLabelValues("none")
	before := testutil.ToFloat64(c)
	RecordRoleResolution("")
	if testutil.ToFloat64(c)-before != 1 {
		t.Error("expected empty kind to be recorded as none")
	}
}

func TestHandler_ExposesPortalMetrics(t *testing.T) {
	RecordRoleConflict("hospital_admin")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "portal_role_conflicts_total") {
		t.Error("expected portal metrics in exposition output")
	}
}
