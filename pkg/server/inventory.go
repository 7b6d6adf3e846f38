package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/soltwin/soltwin/pkg/log"
	"github.com/soltwin/soltwin/pkg/storage"
	"github.com/soltwin/soltwin/pkg/types"
)

// panelPayload is the create/update body for a panel record. Pointer fields
// distinguish omitted fields from zero values so updates can be partial.
type panelPayload struct {
	Manufacturer      *string  `json:"manufacturer"`
	Model             *string  `json:"model"`
	RatedPowerKW      *float64 `json:"ratedPowerKw"`
	Quantity          *int     `json:"quantity"`
	EfficiencyPercent *float64 `json:"efficiencyPercent"`
	AreaM2            *float64 `json:"areaM2"`
	TiltDegrees       *float64 `json:"tiltDegrees"`
	Orientation       *string  `json:"orientation"`
}

func (p panelPayload) apply(spec *types.PanelSpec) {
	if p.Manufacturer != nil {
		spec.Manufacturer = *p.Manufacturer
	}
	if p.Model != nil {
		spec.Model = *p.Model
	}
	if p.RatedPowerKW != nil {
		spec.RatedPowerKW = *p.RatedPowerKW
	}
	if p.Quantity != nil {
		spec.Quantity = *p.Quantity
	}
	if p.EfficiencyPercent != nil {
		spec.EfficiencyPercent = *p.EfficiencyPercent
	}
	if p.AreaM2 != nil {
		spec.AreaM2 = *p.AreaM2
	}
	if p.TiltDegrees != nil {
		spec.TiltDegrees = *p.TiltDegrees
	}
	if p.Orientation != nil {
		spec.Orientation = *p.Orientation
	}
}

func requiredFieldError(field string) string {
	return fmt.Sprintf("El campo %s es obligatorio.", field)
}

func positiveFieldError(field string) string {
	return fmt.Sprintf("El campo %s debe ser un número mayor que cero.", field)
}

func percentFieldError(field string) string {
	return fmt.Sprintf("El campo %s debe ser un porcentaje entre 0 y 100.", field)
}

func nonNegativeFieldError(field string) string {
	return fmt.Sprintf("El campo %s debe ser un número mayor o igual que cero.", field)
}

// validatePanel returns a user-facing message for the first invalid field, or
// an empty string when the spec is valid.
func validatePanel(spec types.PanelSpec) string {
	if spec.Manufacturer == "" {
		return requiredFieldError("manufacturer")
	}
	if spec.RatedPowerKW <= 0 {
		return positiveFieldError("ratedPowerKw")
	}
	if spec.Quantity <= 0 {
		return positiveFieldError("quantity")
	}
	if spec.EfficiencyPercent < 0 || spec.EfficiencyPercent > 100 {
		return percentFieldError("efficiencyPercent")
	}
	if spec.AreaM2 < 0 {
		return nonNegativeFieldError("areaM2")
	}
	if spec.TiltDegrees < 0 {
		return nonNegativeFieldError("tiltDegrees")
	}
	return ""
}

func (s *Server) handleListPanels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	panels, err := s.storage.ListPanels(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list panels", slog.Any("error", err))
		writeJSONError(w, "failed to list panels", http.StatusInternalServerError)
		return
	}
	if panels == nil {
		panels = []types.PanelSpec{}
	}
	writeJSON(w, panels)
}

func (s *Server) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	panel, err := s.storage.GetPanel(ctx, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, "Panel no encontrado.", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get panel", slog.Any("error", err))
		writeJSONError(w, "failed to get panel", http.StatusInternalServerError)
		return
	}
	writeJSON(w, panel)
}

func (s *Server) handleCreatePanel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload panelPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var spec types.PanelSpec
	payload.apply(&spec)
	if msg := validatePanel(spec); msg != "" {
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}

	created, err := s.storage.CreatePanel(ctx, spec)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to create panel", slog.Any("error", err))
		writeJSONError(w, "failed to create panel", http.StatusInternalServerError)
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "panel created", slog.String("id", created.ID))
	writeJSONStatus(w, http.StatusCreated, created)
}

func (s *Server) handleUpdatePanel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload panelPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	panel, err := s.storage.GetPanel(ctx, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, "Panel no encontrado.", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get panel", slog.Any("error", err))
		writeJSONError(w, "failed to get panel", http.StatusInternalServerError)
		return
	}

	payload.apply(&panel)
	if msg := validatePanel(panel); msg != "" {
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}

	if err := s.storage.UpdatePanel(ctx, panel); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to update panel", slog.Any("error", err))
		writeJSONError(w, "failed to update panel", http.StatusInternalServerError)
		return
	}
	writeJSON(w, panel)
}

func (s *Server) handleDeletePanel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := s.storage.DeletePanel(ctx, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, "Panel no encontrado.", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to delete panel", slog.Any("error", err))
		writeJSONError(w, "failed to delete panel", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// batteryPayload is the create/update body for a battery record.
type batteryPayload struct {
	Name                       *string  `json:"name"`
	Manufacturer               *string  `json:"manufacturer"`
	Model                      *string  `json:"model"`
	CapacityKWH                *float64 `json:"capacityKwh"`
	Quantity                   *int     `json:"quantity"`
	MaxDepthOfDischargePercent *float64 `json:"maxDepthOfDischargePercent"`
	ChargeRateKW               *float64 `json:"chargeRateKw"`
	DischargeRateKW            *float64 `json:"dischargeRateKw"`
	EfficiencyPercent          *float64 `json:"efficiencyPercent"`
	Chemistry                  *string  `json:"chemistry"`
	NominalVoltage             *float64 `json:"nominalVoltage"`
	Notes                      *string  `json:"notes"`
}

func (p batteryPayload) apply(spec *types.BatterySpec) {
	if p.Name != nil {
		spec.Name = *p.Name
	}
	if p.Manufacturer != nil {
		spec.Manufacturer = *p.Manufacturer
	}
	if p.Model != nil {
		spec.Model = *p.Model
	}
	if p.CapacityKWH != nil {
		spec.CapacityKWH = *p.CapacityKWH
	}
	if p.Quantity != nil {
		spec.Quantity = *p.Quantity
	}
	if p.MaxDepthOfDischargePercent != nil {
		spec.MaxDepthOfDischargePercent = *p.MaxDepthOfDischargePercent
	}
	if p.ChargeRateKW != nil {
		spec.ChargeRateKW = *p.ChargeRateKW
	}
	if p.DischargeRateKW != nil {
		spec.DischargeRateKW = *p.DischargeRateKW
	}
	if p.EfficiencyPercent != nil {
		spec.EfficiencyPercent = *p.EfficiencyPercent
	}
	if p.Chemistry != nil {
		spec.Chemistry = *p.Chemistry
	}
	if p.NominalVoltage != nil {
		spec.NominalVoltage = *p.NominalVoltage
	}
	if p.Notes != nil {
		spec.Notes = *p.Notes
	}
}

func validateBattery(spec types.BatterySpec) string {
	if spec.Name == "" {
		return requiredFieldError("name")
	}
	if spec.CapacityKWH <= 0 {
		return positiveFieldError("capacityKwh")
	}
	if spec.Quantity <= 0 {
		return positiveFieldError("quantity")
	}
	if spec.MaxDepthOfDischargePercent < 0 || spec.MaxDepthOfDischargePercent > 100 {
		return percentFieldError("maxDepthOfDischargePercent")
	}
	if spec.EfficiencyPercent < 0 || spec.EfficiencyPercent > 100 {
		return percentFieldError("efficiencyPercent")
	}
	if spec.ChargeRateKW < 0 {
		return nonNegativeFieldError("chargeRateKw")
	}
	if spec.DischargeRateKW < 0 {
		return nonNegativeFieldError("dischargeRateKw")
	}
	if spec.NominalVoltage < 0 {
		return nonNegativeFieldError("nominalVoltage")
	}
	return ""
}

func (s *Server) handleListBatteries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	batteries, err := s.storage.ListBatteries(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list batteries", slog.Any("error", err))
		writeJSONError(w, "failed to list batteries", http.StatusInternalServerError)
		return
	}
	if batteries == nil {
		batteries = []types.BatterySpec{}
	}
	writeJSON(w, batteries)
}

func (s *Server) handleGetBattery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	battery, err := s.storage.GetBattery(ctx, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, "Batería no encontrada.", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get battery", slog.Any("error", err))
		writeJSONError(w, "failed to get battery", http.StatusInternalServerError)
		return
	}
	writeJSON(w, battery)
}

func (s *Server) handleCreateBattery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload batteryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var spec types.BatterySpec
	payload.apply(&spec)
	if msg := validateBattery(spec); msg != "" {
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}

	created, err := s.storage.CreateBattery(ctx, spec)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to create battery", slog.Any("error", err))
		writeJSONError(w, "failed to create battery", http.StatusInternalServerError)
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "battery created", slog.String("id", created.ID))
	writeJSONStatus(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBattery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload batteryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	battery, err := s.storage.GetBattery(ctx, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, "Batería no encontrada.", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get battery", slog.Any("error", err))
		writeJSONError(w, "failed to get battery", http.StatusInternalServerError)
		return
	}

	payload.apply(&battery)
	if msg := validateBattery(battery); msg != "" {
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}

	if err := s.storage.UpdateBattery(ctx, battery); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to update battery", slog.Any("error", err))
		writeJSONError(w, "failed to update battery", http.StatusInternalServerError)
		return
	}
	writeJSON(w, battery)
}

func (s *Server) handleDeleteBattery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := s.storage.DeleteBattery(ctx, r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, "Batería no encontrada.", http.StatusNotFound)
		return
	} else if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to delete battery", slog.Any("error", err))
		writeJSONError(w, "failed to delete battery", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
