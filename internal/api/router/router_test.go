package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthdesk/scheduler/internal/appointments"
	"github.com/healthdesk/scheduler/internal/basket"
	"github.com/healthdesk/scheduler/internal/doctors"
	httpmiddleware "github.com/healthdesk/scheduler/internal/http/middleware"
	"github.com/healthdesk/scheduler/internal/patients"
	"github.com/healthdesk/scheduler/internal/payments"
	"github.com/healthdesk/scheduler/internal/specialties"
)

func newTestRouter(t *testing.T, adminSecret string) http.Handler {
	t.Helper()
	aptService := appointments.NewService(appointments.NewInMemoryRepository(), nil, nil, nil)
	engine := basket.NewEngine(aptService, nil, time.Minute, nil, nil)
	return New(&Config{
		AppointmentsHandler: appointments.NewHandler(aptService, nil),
		DoctorsHandler:      doctors.NewHandler(doctors.NewInMemoryRepository(), aptService, nil),
		PatientsHandler:     patients.NewHandler(patients.NewInMemoryRepository(), aptService, nil),
		SpecialtiesHandler:  specialties.NewHandler(specialties.NewInMemoryRepository(), nil),
		BasketHandler:       basket.NewHandler(engine, payments.NewSimulatedGateway(0, nil), nil),
		AdminAuthSecret:     adminSecret,
	})
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, "")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestBookingFlowThroughRouter(t *testing.T) {
	r := newTestRouter(t, "")

	body, err := json.Marshal(map[string]any{
		"doctorId":  "doc-1",
		"patientId": "pat-1",
		"date":       "2024-01-08",
		"start":      "10:00",
		"end":        "10:30",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "doc-1")
}

func TestBasketFlowThroughRouter(t *testing.T) {
	r := newTestRouter(t, "")

	body, err := json.Marshal(map[string]any{
		"doctorId":  "doc-1",
		"patientId": "pat-1",
		"date":       "2024-01-08",
		"start":      "10:00",
		"end":        "10:30",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/basket/holds", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/basket/checkout", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/basket/holds", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestAdminGuardOnDelete(t *testing.T) {
	secret := "test-secret"
	r := newTestRouter(t, secret)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/appointments/some-id", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, httpmiddleware.AdminClaims{
		Role: httpmiddleware.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/appointments/some-id", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	// Authenticated but the appointment does not exist.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
