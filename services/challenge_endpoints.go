package services

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/agencydesk/console/models"
	"github.com/agencydesk/console/repository"
	"github.com/go-chi/chi/v5"
)

// ChallengeEndpoints covers the gamified 6-week program: seat purchases,
// staff assignments, daily Core 4 logs, lesson reflections, and the
// leaderboard.
type ChallengeEndpoints struct {
	repo *repository.GORMRepository
	hub  EventPublisher
}

func NewChallengeEndpoints(repo *repository.GORMRepository, hub EventPublisher) *ChallengeEndpoints {
	return &ChallengeEndpoints{repo: repo, hub: hub}
}

func (e *ChallengeEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/challenge", func(r chi.Router) {
		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", e.ListPurchasesHandler)
			r.Post("/", e.CreatePurchaseHandler)
			r.Get("/{id}", e.GetPurchaseHandler)
			r.Get("/{id}/schedule", e.ScheduleHandler)
			r.Post("/{id}/assign", e.AssignSeatsHandler)
		})
		r.Get("/assignments", e.ListAssignmentsHandler)
		r.Get("/lessons", e.ListLessonsHandler)
		r.Route("/assignments/{id}", func(r chi.Router) {
			r.Get("/core4", e.ListCore4Handler)
			r.Put("/core4", e.UpsertCore4Handler)
			r.Get("/reflections", e.ListReflectionsHandler)
			r.Post("/reflections", e.CreateReflectionHandler)
		})
		r.Get("/leaderboard", e.LeaderboardHandler)
	})
}

type CreatePurchaseRequest struct {
	Seats     int    `json:"seats" validate:"required,gte=1"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
}

func (e *ChallengeEndpoints) ListPurchasesHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	purchases, err := e.repo.GetChallengePurchases(r.Context(), admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to get purchases", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"purchases": purchases,
		"count":     len(purchases),
	})
}

func (e *ChallengeEndpoints) CreatePurchaseHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Seats and a start date (YYYY-MM-DD) are required", http.StatusBadRequest)
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		http.Error(w, "Invalid start date", http.StatusBadRequest)
		return
	}
	if start.Weekday() != time.Monday {
		http.Error(w, "Start date must be a Monday", http.StatusBadRequest)
		return
	}

	purchase := models.ChallengePurchase{
		AgencyID:    admin.AgencyID,
		Seats:       req.Seats,
		StartDate:   start,
		PurchasedAt: time.Now(),
	}
	if err := e.repo.CreateChallengePurchase(r.Context(), &purchase); err != nil {
		http.Error(w, "Failed to create purchase", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"purchase": purchase})
}

func (e *ChallengeEndpoints) GetPurchaseHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	purchase, err := e.repo.GetChallengePurchaseByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get purchase", http.StatusInternalServerError)
		return
	}
	if purchase == nil {
		http.Error(w, "Purchase not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"purchase":        purchase,
		"seats_remaining": purchase.Seats - purchase.SeatsUsed,
	})
}

// ScheduleHandler returns the cohort's week start dates: prep week, six
// program weeks, and the wrap week.
func (e *ChallengeEndpoints) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	purchase, err := e.repo.GetChallengePurchaseByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get purchase", http.StatusInternalServerError)
		return
	}
	if purchase == nil {
		http.Error(w, "Purchase not found", http.StatusNotFound)
		return
	}

	starts := ChallengeWeekStarts(purchase.StartDate)
	weeks := make([]string, len(starts))
	for i, s := range starts {
		weeks[i] = s.Format("2006-01-02")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"purchase_id": purchase.ID,
		"week_starts": weeks,
	})
}

type AssignSeatsRequest struct {
	StaffUserIDs []string `json:"staff_user_ids" validate:"required,min=1"`
}

func (e *ChallengeEndpoints) AssignSeatsHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	purchaseID := chi.URLParam(r, "id")
	purchase, err := e.repo.GetChallengePurchaseByID(r.Context(), admin.AgencyID, purchaseID)
	if err != nil {
		http.Error(w, "Failed to get purchase", http.StatusInternalServerError)
		return
	}
	if purchase == nil {
		http.Error(w, "Purchase not found", http.StatusNotFound)
		return
	}

	var req AssignSeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "At least one staff user ID is required", http.StatusBadRequest)
		return
	}

	for _, staffUserID := range req.StaffUserIDs {
		staff, err := e.repo.GetStaffUserByID(r.Context(), admin.AgencyID, staffUserID)
		if err != nil {
			http.Error(w, "Failed to validate staff user", http.StatusInternalServerError)
			return
		}
		if staff == nil {
			http.Error(w, "Staff user not found", http.StatusNotFound)
			return
		}
	}

	created, err := e.repo.AssignChallengeSeats(r.Context(), admin.AgencyID, purchaseID, req.StaffUserIDs)
	if err != nil {
		if err == repository.ErrSeatCapacity {
			http.Error(w, "Not enough seats remaining on this purchase", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to assign seats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"assignments": created,
		"created":     len(created),
		"skipped":     len(req.StaffUserIDs) - len(created),
	})
}

func (e *ChallengeEndpoints) ListAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	assignments, err := e.repo.GetChallengeAssignments(r.Context(), admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to get challenge assignments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"assignments": assignments,
		"count":       len(assignments),
	})
}

func (e *ChallengeEndpoints) ListLessonsHandler(w http.ResponseWriter, r *http.Request) {
	lessons, err := e.repo.GetChallengeLessons(r.Context())
	if err != nil {
		http.Error(w, "Failed to get challenge lessons", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"lessons": lessons,
		"count":   len(lessons),
	})
}

func (e *ChallengeEndpoints) ListCore4Handler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	assignmentID := chi.URLParam(r, "id")
	assignment, err := e.repo.GetChallengeAssignmentByID(r.Context(), admin.AgencyID, assignmentID)
	if err != nil {
		http.Error(w, "Failed to get challenge assignment", http.StatusInternalServerError)
		return
	}
	if assignment == nil {
		http.Error(w, "Challenge assignment not found", http.StatusNotFound)
		return
	}

	logs, err := e.repo.GetCore4Logs(r.Context(), admin.AgencyID, assignmentID)
	if err != nil {
		http.Error(w, "Failed to get core 4 logs", http.StatusInternalServerError)
		return
	}

	total := 0
	for _, log := range logs {
		total += Core4DayScore(log)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"logs":         logs,
		"count":        len(logs),
		"total_points": total,
		"streak":       Core4Streak(logs),
	})
}

type UpsertCore4Request struct {
	LogDate  string `json:"log_date" validate:"required,datetime=2006-01-02"`
	Body     bool   `json:"body"`
	Being    bool   `json:"being"`
	Balance  bool   `json:"balance"`
	Business bool   `json:"business"`
}

// UpsertCore4Handler records or revises the daily log for a challenge
// assignment. Submitting the same date twice updates the existing row.
func (e *ChallengeEndpoints) UpsertCore4Handler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	assignmentID := chi.URLParam(r, "id")
	assignment, err := e.repo.GetChallengeAssignmentByID(r.Context(), admin.AgencyID, assignmentID)
	if err != nil {
		http.Error(w, "Failed to get challenge assignment", http.StatusInternalServerError)
		return
	}
	if assignment == nil {
		http.Error(w, "Challenge assignment not found", http.StatusNotFound)
		return
	}

	var req UpsertCore4Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "A log date (YYYY-MM-DD) is required", http.StatusBadRequest)
		return
	}
	logDate, err := time.Parse("2006-01-02", req.LogDate)
	if err != nil {
		http.Error(w, "Invalid log date", http.StatusBadRequest)
		return
	}

	log := models.Core4Log{
		AgencyID:     admin.AgencyID,
		AssignmentID: assignmentID,
		LogDate:      logDate,
		Body:         req.Body,
		Being:        req.Being,
		Balance:      req.Balance,
		Business:     req.Business,
	}
	if err := e.repo.UpsertCore4Log(r.Context(), &log); err != nil {
		http.Error(w, "Failed to save core 4 log", http.StatusInternalServerError)
		return
	}

	if e.hub != nil {
		e.hub.Publish(admin.AgencyID, "challenge.log", map[string]interface{}{
			"assignment_id": assignmentID,
			"log_date":      req.LogDate,
			"score":         Core4DayScore(log),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"log":   log,
		"score": Core4DayScore(log),
	})
}

type CreateReflectionRequest struct {
	LessonID string `json:"lesson_id" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

func (e *ChallengeEndpoints) ListReflectionsHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	assignmentID := chi.URLParam(r, "id")
	assignment, err := e.repo.GetChallengeAssignmentByID(r.Context(), admin.AgencyID, assignmentID)
	if err != nil {
		http.Error(w, "Failed to get challenge assignment", http.StatusInternalServerError)
		return
	}
	if assignment == nil {
		http.Error(w, "Challenge assignment not found", http.StatusNotFound)
		return
	}

	reflections, err := e.repo.GetReflections(r.Context(), admin.AgencyID, assignmentID)
	if err != nil {
		http.Error(w, "Failed to get reflections", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"reflections": reflections,
		"count":       len(reflections),
	})
}

func (e *ChallengeEndpoints) CreateReflectionHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	assignmentID := chi.URLParam(r, "id")
	assignment, err := e.repo.GetChallengeAssignmentByID(r.Context(), admin.AgencyID, assignmentID)
	if err != nil {
		http.Error(w, "Failed to get challenge assignment", http.StatusInternalServerError)
		return
	}
	if assignment == nil {
		http.Error(w, "Challenge assignment not found", http.StatusNotFound)
		return
	}

	var req CreateReflectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Lesson ID and content are required", http.StatusBadRequest)
		return
	}

	lesson, err := e.repo.GetChallengeLessonByID(r.Context(), req.LessonID)
	if err != nil {
		http.Error(w, "Failed to validate lesson", http.StatusInternalServerError)
		return
	}
	if lesson == nil {
		http.Error(w, "Challenge lesson not found", http.StatusNotFound)
		return
	}

	reflection := models.ChallengeReflection{
		AgencyID:     admin.AgencyID,
		AssignmentID: assignmentID,
		LessonID:     req.LessonID,
		Content:      req.Content,
	}
	if err := e.repo.CreateReflection(r.Context(), &reflection); err != nil {
		http.Error(w, "Failed to create reflection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"reflection": reflection})
}

// LeaderboardRow is one challenge participant's standing.
type LeaderboardRow struct {
	AssignmentID    string `json:"assignment_id"`
	StaffUserID     string `json:"staff_user_id"`
	StaffName       string `json:"staff_name"`
	Core4Points     int    `json:"core4_points"`
	Streak          int    `json:"streak"`
	ReflectionCount int64  `json:"reflection_count"`
	TotalPoints     int64  `json:"total_points"`
}

// LeaderboardHandler ranks participants by core 4 points plus reflections.
func (e *ChallengeEndpoints) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	assignments, err := e.repo.GetChallengeAssignments(r.Context(), admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to get challenge assignments", http.StatusInternalServerError)
		return
	}
	logs, err := e.repo.GetCore4LogsByAgency(r.Context(), admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to get core 4 logs", http.StatusInternalServerError)
		return
	}
	reflectionCounts, err := e.repo.CountReflectionsByAssignment(r.Context(), admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to count reflections", http.StatusInternalServerError)
		return
	}

	logsByAssignment := make(map[string][]models.Core4Log)
	for _, log := range logs {
		logsByAssignment[log.AssignmentID] = append(logsByAssignment[log.AssignmentID], log)
	}

	rows := make([]LeaderboardRow, 0, len(assignments))
	for _, a := range assignments {
		assignmentLogs := logsByAssignment[a.ID]
		points := 0
		for _, log := range assignmentLogs {
			points += Core4DayScore(log)
		}
		row := LeaderboardRow{
			AssignmentID:    a.ID,
			StaffUserID:     a.StaffUserID,
			StaffName:       a.StaffUser.FullName,
			Core4Points:     points,
			Streak:          Core4Streak(assignmentLogs),
			ReflectionCount: reflectionCounts[a.ID],
		}
		row.TotalPoints = int64(points) + row.ReflectionCount
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TotalPoints > rows[j].TotalPoints })

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"leaderboard": rows,
		"count":       len(rows),
	})
}
