package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-intake/internal/bookings"
	"github.com/wolfman30/clinic-intake/internal/scheduling"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

type stubLister struct {
	appts []bookings.Appointment
	err   error
}

func (s stubLister) List(ctx context.Context) ([]bookings.Appointment, error) {
	return s.appts, s.err
}

func newDashboard(t *testing.T, appts AppointmentLister) (*AdminDashboardHandler, *scheduling.FileStore, http.Handler) {
	t.Helper()
	store, err := scheduling.OpenFileStore(filepath.Join(t.TempDir(), "slots.csv"), logging.Discard())
	require.NoError(t, err)
	require.NoError(t, store.Seed(context.Background(), []scheduling.Slot{
		{Doctor: "Dr. Smith", Date: "2025-06-02", Time: "9:00", Available: true},
		{Doctor: "Dr. Smith", Date: "2025-06-02", Time: "9:30", Available: true},
		{Doctor: "Dr. Brown", Date: "2025-06-03", Time: "14:00", Available: true},
	}))
	_, err = store.MarkUnavailable(context.Background(), "Dr. Smith", "2025-06-02", "9:00")
	require.NoError(t, err)

	plan := scheduling.SeedPlan{
		Doctors:         []string{"Dr. Lee"},
		Days:            1,
		StartHour:       9,
		EndHour:         11,
		LunchHour:       -1,
		IntervalMinutes: 30,
	}
	h := NewAdminDashboardHandler(store, appts, plan, logging.Discard())
	h.now = func() time.Time { return time.Date(2025, 6, 2, 8, 0, 0, 0, time.Local) }

	r := chi.NewRouter()
	r.Route("/admin", h.Routes)
	return h, store, r
}

func TestGetOverview(t *testing.T) {
	_, _, router := newDashboard(t, stubLister{appts: []bookings.Appointment{
		{PatientName: "John Smith", PatientType: "new", Doctor: "Dr. Smith", Date: "2025-06-02", Time: "9:00"},
		{PatientName: "Jane Doe", PatientType: "returning", Doctor: "Dr. Brown", Date: "2025-06-05", Time: "14:00"},
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DashboardOverviewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, SlotMetrics{Total: 3, Available: 2, Booked: 1}, resp.Slots)
	assert.Equal(t, AppointmentMetrics{Total: 2, New: 1, Returning: 1, Today: 1}, resp.Appointments)
	require.Len(t, resp.Doctors, 2)
	assert.Equal(t, DoctorMetrics{Doctor: "Dr. Brown", Available: 1}, resp.Doctors[0])
	assert.Equal(t, DoctorMetrics{Doctor: "Dr. Smith", Available: 1, Booked: 1}, resp.Doctors[1])
}

func TestGetOverview_LedgerError(t *testing.T) {
	_, _, router := newDashboard(t, stubLister{err: errors.New("disk gone")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListSlots_Filters(t *testing.T) {
	_, _, router := newDashboard(t, stubLister{})

	cases := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?doctor=dr.%20smith", 2},
		{"?available=true", 2},
		{"?available=false", 1},
		{"?date=2025-06-03", 1},
		{"?doctor=Dr.%20Smith&available=true", 1},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/slots"+tc.query, nil))
		require.Equal(t, http.StatusOK, rec.Code, tc.query)

		var resp ListSlotsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, tc.want, resp.Total, tc.query)
		assert.Len(t, resp.Slots, tc.want, tc.query)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/slots?available=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSeedSlots(t *testing.T) {
	_, store, router := newDashboard(t, stubLister{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/slots/seed", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SeedSlotsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 4, resp.Generated)

	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 7)

	body := `{"doctors":["Dr. Smith"],"start_date":"2025-06-02","days":1}`
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/slots/seed", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	// 9:00 was booked; reseeding must not reopen it.
	slots, err := store.ListAvailable(context.Background())
	require.NoError(t, err)
	for _, s := range slots {
		assert.False(t, s.Doctor == "Dr. Smith" && s.Date == "2025-06-02" && s.Time == "9:00")
	}
}

func TestSeedSlots_BadRequests(t *testing.T) {
	_, _, router := newDashboard(t, stubLister{})

	for _, body := range []string{`{`, `{"start_date":"06/02/2025"}`, `{"doctors":[""],"days":-1}`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/slots/seed", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestListAppointments(t *testing.T) {
	_, _, router := newDashboard(t, stubLister{appts: []bookings.Appointment{
		{PatientName: "John Smith", Doctor: "Dr. Smith", Date: "2025-06-02"},
		{PatientName: "Jane Doe", Doctor: "Dr. Brown", Date: "2025-06-02"},
		{PatientName: "Amy Poe", Doctor: "Dr. Smith", Date: "2025-06-04"},
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/appointments?doctor=Dr.%20Smith", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListAppointmentsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Total)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/appointments?date=2025-06-02", nil))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Total)
}

func TestNewAdminDashboardHandler_Panics(t *testing.T) {
	assert.Panics(t, func() { NewAdminDashboardHandler(nil, stubLister{}, scheduling.SeedPlan{}, nil) })
}
