package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/agencydesk/console/models"
	"github.com/agencydesk/console/repository"
	"github.com/go-chi/chi/v5"
)

// CallEndpoints handles transcript upload and AI scoring.
type CallEndpoints struct {
	repo     *repository.GORMRepository
	analysis *CallAnalysisService
	hub      EventPublisher
}

func NewCallEndpoints(repo *repository.GORMRepository, analysis *CallAnalysisService, hub EventPublisher) *CallEndpoints {
	return &CallEndpoints{
		repo:     repo,
		analysis: analysis,
		hub:      hub,
	}
}

func (e *CallEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/calls", func(r chi.Router) {
		r.Get("/", e.ListCallsHandler)
		r.Post("/", e.CreateCallHandler)
		r.Get("/{id}", e.GetCallHandler)
		r.Post("/{id}/analyze", e.AnalyzeCallHandler)
	})
	r.Route("/rubrics", func(r chi.Router) {
		r.Get("/{callType}", e.GetRubricHandler)
		r.Put("/{callType}", e.PutRubricHandler)
	})
}

type CreateCallRequest struct {
	StaffUserID     *string    `json:"staff_user_id,omitempty"`
	CallType        string     `json:"call_type" validate:"required,oneof=sales service"`
	Direction       string     `json:"direction" validate:"omitempty,oneof=inbound outbound"`
	DurationSeconds int        `json:"duration_seconds" validate:"gte=0"`
	Transcript      string     `json:"transcript" validate:"required"`
	OccurredAt      *time.Time `json:"occurred_at,omitempty"`
}

func (e *CallEndpoints) ListCallsHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	calls, err := e.repo.GetCalls(r.Context(), admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to get calls", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"calls": calls,
		"count": len(calls),
	})
}

func (e *CallEndpoints) CreateCallHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreateCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Call type (sales/service) and a transcript are required", http.StatusBadRequest)
		return
	}

	if req.StaffUserID != nil {
		staff, err := e.repo.GetStaffUserByID(r.Context(), admin.AgencyID, *req.StaffUserID)
		if err != nil {
			http.Error(w, "Failed to validate staff user", http.StatusInternalServerError)
			return
		}
		if staff == nil {
			http.Error(w, "Staff user not found", http.StatusNotFound)
			return
		}
	}

	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}
	direction := req.Direction
	if direction == "" {
		direction = "inbound"
	}

	call := models.AgencyCall{
		AgencyID:        admin.AgencyID,
		StaffUserID:     req.StaffUserID,
		CallType:        req.CallType,
		Direction:       direction,
		DurationSeconds: req.DurationSeconds,
		Transcript:      req.Transcript,
		OccurredAt:      occurredAt,
	}
	if err := e.repo.CreateCall(r.Context(), &call); err != nil {
		http.Error(w, "Failed to create call", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"call": call})
}

func (e *CallEndpoints) GetCallHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	call, err := e.repo.GetCallByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get call", http.StatusInternalServerError)
		return
	}
	if call == nil {
		http.Error(w, "Call not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"call": call})
}

// AnalyzeCallHandler kicks off scoring in the background and returns 202.
// The result lands via the repository and a websocket event.
func (e *CallEndpoints) AnalyzeCallHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}
	if e.analysis == nil {
		http.Error(w, "Call analysis is not configured", http.StatusServiceUnavailable)
		return
	}

	call, err := e.repo.GetCallByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get call", http.StatusInternalServerError)
		return
	}
	if call == nil {
		http.Error(w, "Call not found", http.StatusNotFound)
		return
	}

	existing, err := e.repo.GetCallAnalysisByCallID(r.Context(), admin.AgencyID, call.ID)
	if err != nil {
		http.Error(w, "Failed to check existing analysis", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "Call has already been analyzed", http.StatusConflict)
		return
	}

	rubric, err := e.resolveRubric(r.Context(), admin.AgencyID, call.CallType)
	if err != nil {
		http.Error(w, "Failed to load rubric", http.StatusInternalServerError)
		return
	}

	go e.runAnalysis(call, rubric)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"call_id": call.ID,
		"message": "Analysis started",
	})
}

// resolveRubric prefers the agency's saved rubric and falls back to the
// built-in one for the call type.
func (e *CallEndpoints) resolveRubric(ctx context.Context, agencyID, callType string) (Rubric, error) {
	saved, err := e.repo.GetCallRubric(ctx, agencyID, callType)
	if err != nil {
		return Rubric{}, err
	}
	if saved == nil {
		return DefaultRubric(callType), nil
	}

	var rubric Rubric
	if err := json.Unmarshal([]byte(saved.Definition), &rubric); err != nil {
		slog.Error("Saved rubric is malformed, using default", "error", err, "agency_id", agencyID, "call_type", callType)
		return DefaultRubric(callType), nil
	}
	rubric.CallType = callType
	return rubric, nil
}

func (e *CallEndpoints) runAnalysis(call *models.AgencyCall, rubric Rubric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := e.analysis.AnalyzeCall(ctx, call, rubric)
	if err != nil {
		slog.Error("Call analysis failed", "error", err, "call_id", call.ID)
		return
	}

	sections, err := json.Marshal(result.SectionScores)
	if err != nil {
		slog.Error("Failed to encode section scores", "error", err, "call_id", call.ID)
		return
	}
	checklist, err := json.Marshal(result.Checklist)
	if err != nil {
		slog.Error("Failed to encode checklist", "error", err, "call_id", call.ID)
		return
	}

	analysis := models.CallAnalysis{
		AgencyID:      call.AgencyID,
		CallID:        call.ID,
		OverallScore:  result.OverallScore,
		SectionScores: string(sections),
		Checklist:     string(checklist),
		Summary:       result.Summary,
		Coaching:      result.Coaching,
		Model:         e.analysis.Model(),
	}
	if err := e.repo.CreateCallAnalysis(ctx, &analysis); err != nil {
		return
	}

	if e.hub != nil {
		e.hub.Publish(call.AgencyID, "call.analyzed", map[string]interface{}{
			"call_id":       call.ID,
			"overall_score": analysis.OverallScore,
		})
	}
}

func (e *CallEndpoints) GetRubricHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	callType := chi.URLParam(r, "callType")
	if callType != "sales" && callType != "service" {
		http.Error(w, "Call type must be 'sales' or 'service'", http.StatusBadRequest)
		return
	}

	rubric, err := e.resolveRubric(r.Context(), admin.AgencyID, callType)
	if err != nil {
		http.Error(w, "Failed to load rubric", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"rubric": rubric})
}

func (e *CallEndpoints) PutRubricHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	callType := chi.URLParam(r, "callType")
	if callType != "sales" && callType != "service" {
		http.Error(w, "Call type must be 'sales' or 'service'", http.StatusBadRequest)
		return
	}

	var rubric Rubric
	if err := json.NewDecoder(r.Body).Decode(&rubric); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(rubric.Sections) == 0 {
		http.Error(w, "At least one scored section is required", http.StatusBadRequest)
		return
	}
	rubric.CallType = callType

	definition, err := json.Marshal(rubric)
	if err != nil {
		http.Error(w, "Failed to encode rubric", http.StatusInternalServerError)
		return
	}

	saved := models.CallRubric{
		AgencyID:   admin.AgencyID,
		CallType:   callType,
		Definition: string(definition),
	}
	if err := e.repo.UpsertCallRubric(r.Context(), &saved); err != nil {
		http.Error(w, "Failed to save rubric", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"rubric": rubric})
}
