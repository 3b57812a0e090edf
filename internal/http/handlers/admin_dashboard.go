// Package handlers holds the staff-facing HTTP endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-intake/internal/bookings"
	"github.com/wolfman30/clinic-intake/internal/scheduling"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

// AppointmentLister reads the appointment ledger.
type AppointmentLister interface {
	List(ctx context.Context) ([]bookings.Appointment, error)
}

// AdminDashboardHandler lets front-desk staff inspect the slot board and the
// appointment ledger, and top up availability.
type AdminDashboardHandler struct {
	slots        scheduling.Store
	appointments AppointmentLister
	seed         scheduling.SeedPlan
	logger       *logging.Logger
	now          func() time.Time
}

// NewAdminDashboardHandler creates a new admin dashboard handler. seed is the
// default plan used by POST /slots/seed when the body leaves fields empty.
func NewAdminDashboardHandler(slots scheduling.Store, appointments AppointmentLister, seed scheduling.SeedPlan, logger *logging.Logger) *AdminDashboardHandler {
	if slots == nil || appointments == nil {
		panic("handlers: slot store and appointment ledger required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminDashboardHandler{
		slots:        slots,
		appointments: appointments,
		seed:         seed,
		logger:       logger,
		now:          time.Now,
	}
}

// Routes mounts the dashboard endpoints on r.
func (h *AdminDashboardHandler) Routes(r chi.Router) {
	r.Get("/dashboard", h.GetOverview)
	r.Get("/slots", h.ListSlots)
	r.Post("/slots/seed", h.SeedSlots)
	r.Get("/appointments", h.ListAppointments)
}

// DashboardOverviewResponse summarizes the slot board and ledger.
type DashboardOverviewResponse struct {
	Slots        SlotMetrics        `json:"slots"`
	Appointments AppointmentMetrics `json:"appointments"`
	Doctors      []DoctorMetrics    `json:"doctors"`
}

// SlotMetrics counts slots by availability.
type SlotMetrics struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Booked    int `json:"booked"`
}

// AppointmentMetrics counts ledger rows by patient type.
type AppointmentMetrics struct {
	Total     int `json:"total"`
	New       int `json:"new"`
	Returning int `json:"returning"`
	Today     int `json:"today"`
}

// DoctorMetrics is the per-doctor slot breakdown.
type DoctorMetrics struct {
	Doctor    string `json:"doctor"`
	Available int    `json:"available"`
	Booked    int    `json:"booked"`
}

// GetOverview handles GET /admin/dashboard.
func (h *AdminDashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	slots, err := h.slots.ListAll(r.Context())
	if err != nil {
		h.logger.Error("admin: list slots", "error", err)
		jsonError(w, "failed to load slots", http.StatusInternalServerError)
		return
	}
	appts, err := h.appointments.List(r.Context())
	if err != nil {
		h.logger.Error("admin: list appointments", "error", err)
		jsonError(w, "failed to load appointments", http.StatusInternalServerError)
		return
	}

	var resp DashboardOverviewResponse
	byDoctor := map[string]*DoctorMetrics{}
	for _, s := range slots {
		dm, ok := byDoctor[s.Doctor]
		if !ok {
			resp.Doctors = append(resp.Doctors, DoctorMetrics{Doctor: s.Doctor})
			dm = &resp.Doctors[len(resp.Doctors)-1]
			byDoctor[s.Doctor] = dm
		}
		resp.Slots.Total++
		if s.Available {
			resp.Slots.Available++
			dm.Available++
		} else {
			resp.Slots.Booked++
			dm.Booked++
		}
	}

	today := h.now().Format("2006-01-02")
	for _, a := range appts {
		resp.Appointments.Total++
		switch a.PatientType {
		case "new":
			resp.Appointments.New++
		case "returning":
			resp.Appointments.Returning++
		}
		if a.Date == today {
			resp.Appointments.Today++
		}
	}
	if resp.Doctors == nil {
		resp.Doctors = []DoctorMetrics{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListSlotsResponse is returned by GET /admin/slots.
type ListSlotsResponse struct {
	Slots []scheduling.Slot `json:"slots"`
	Total int               `json:"total"`
}

// ListSlots handles GET /admin/slots?doctor=&date=&available=.
func (h *AdminDashboardHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var availableOnly *bool
	if raw := q.Get("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			jsonError(w, "available must be true or false", http.StatusBadRequest)
			return
		}
		availableOnly = &v
	}

	slots, err := h.slots.ListAll(r.Context())
	if err != nil {
		h.logger.Error("admin: list slots", "error", err)
		jsonError(w, "failed to load slots", http.StatusInternalServerError)
		return
	}

	doctor := strings.TrimSpace(q.Get("doctor"))
	date := strings.TrimSpace(q.Get("date"))
	out := make([]scheduling.Slot, 0, len(slots))
	for _, s := range slots {
		if doctor != "" && !strings.EqualFold(s.Doctor, doctor) {
			continue
		}
		if date != "" && s.Date != date {
			continue
		}
		if availableOnly != nil && s.Available != *availableOnly {
			continue
		}
		out = append(out, s)
	}
	writeJSON(w, http.StatusOK, ListSlotsResponse{Slots: out, Total: len(out)})
}

// SeedSlotsRequest overrides parts of the default seed plan.
type SeedSlotsRequest struct {
	Doctors   []string `json:"doctors,omitempty"`
	StartDate string   `json:"start_date,omitempty"` // YYYY-MM-DD, defaults to today
	Days      int      `json:"days,omitempty"`
}

// SeedSlotsResponse reports how many slots the plan covered.
type SeedSlotsResponse struct {
	Generated int `json:"generated"`
}

// SeedSlots handles POST /admin/slots/seed. Existing slots keep their availability.
func (h *AdminDashboardHandler) SeedSlots(w http.ResponseWriter, r *http.Request) {
	var req SeedSlotsRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	plan := h.seed
	if len(req.Doctors) > 0 {
		plan.Doctors = make([]string, 0, len(req.Doctors))
		for _, d := range req.Doctors {
			if d = strings.TrimSpace(d); d == "" {
				jsonError(w, "doctor names must not be blank", http.StatusBadRequest)
				return
			}
			plan.Doctors = append(plan.Doctors, d)
		}
	}
	if req.Days > 0 {
		plan.Days = req.Days
	}
	plan.Start = h.now()
	if req.StartDate != "" {
		start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local)
		if err != nil {
			jsonError(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		plan.Start = start
	}

	slots, err := scheduling.GenerateSlots(plan)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.slots.Seed(r.Context(), slots); err != nil {
		h.logger.Error("admin: seed slots", "error", err)
		jsonError(w, "failed to seed slots", http.StatusInternalServerError)
		return
	}
	h.logger.Info("admin: slots seeded", "generated", len(slots), "doctors", len(plan.Doctors), "days", plan.Days)
	writeJSON(w, http.StatusOK, SeedSlotsResponse{Generated: len(slots)})
}

// ListAppointmentsResponse is returned by GET /admin/appointments.
type ListAppointmentsResponse struct {
	Appointments []bookings.Appointment `json:"appointments"`
	Total        int                    `json:"total"`
}

// ListAppointments handles GET /admin/appointments?doctor=&date=.
func (h *AdminDashboardHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := h.appointments.List(r.Context())
	if err != nil {
		h.logger.Error("admin: list appointments", "error", err)
		jsonError(w, "failed to load appointments", http.StatusInternalServerError)
		return
	}

	doctor := strings.TrimSpace(r.URL.Query().Get("doctor"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	out := make([]bookings.Appointment, 0, len(appts))
	for _, a := range appts {
		if doctor != "" && !strings.EqualFold(a.Doctor, doctor) {
			continue
		}
		if date != "" && a.Date != date {
			continue
		}
		out = append(out, a)
	}
	writeJSON(w, http.StatusOK, ListAppointmentsResponse{Appointments: out, Total: len(out)})
}
