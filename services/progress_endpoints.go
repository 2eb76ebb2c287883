package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/agencydesk/console/models"
	"github.com/agencydesk/console/repository"
	"github.com/go-chi/chi/v5"
)

// ProgressEndpoints covers training assignments and the progress report.
type ProgressEndpoints struct {
	repo *repository.GORMRepository
}

func NewProgressEndpoints(repo *repository.GORMRepository) *ProgressEndpoints {
	return &ProgressEndpoints{repo: repo}
}

func (e *ProgressEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/assignments", func(r chi.Router) {
		r.Get("/", e.ListAssignmentsHandler)
		r.Post("/", e.CreateAssignmentsHandler)
		r.Delete("/{id}", e.DeleteAssignmentHandler)
	})
	r.Route("/progress", func(r chi.Router) {
		r.Get("/report", e.ReportHandler)
		r.Get("/report.csv", e.ReportCSVHandler)
	})
	r.Post("/completions", e.RecordCompletionHandler)
}

type CreateAssignmentsRequest struct {
	StaffUserIDs []string   `json:"staff_user_ids" validate:"required,min=1"`
	ModuleIDs    []string   `json:"module_ids" validate:"required,min=1"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

func (e *ProgressEndpoints) ListAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	assignments, err := e.repo.GetAssignments(r.Context(), admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to get assignments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"assignments": assignments,
		"count":       len(assignments),
	})
}

// CreateAssignmentsHandler assigns every module to every staff user in the
// request. Pairs that already exist are skipped, not errored, so re-assigning
// a cohort is safe.
func (e *ProgressEndpoints) CreateAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreateAssignmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Staff user IDs and module IDs are required", http.StatusBadRequest)
		return
	}

	for _, moduleID := range req.ModuleIDs {
		module, err := e.repo.GetModuleByID(r.Context(), admin.AgencyID, moduleID)
		if err != nil {
			http.Error(w, "Failed to validate module", http.StatusInternalServerError)
			return
		}
		if module == nil {
			http.Error(w, "Module not found", http.StatusNotFound)
			return
		}
	}

	created := make([]models.TrainingAssignment, 0)
	skipped := 0
	now := time.Now()
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
		for _, moduleID := range req.ModuleIDs {
			existing, err := e.repo.GetAssignment(r.Context(), admin.AgencyID, staffUserID, moduleID)
			if err != nil {
				http.Error(w, "Failed to check existing assignment", http.StatusInternalServerError)
				return
			}
			if existing != nil {
				skipped++
				continue
			}
			assignment := models.TrainingAssignment{
				AgencyID:    admin.AgencyID,
				StaffUserID: staffUserID,
				ModuleID:    moduleID,
				DueDate:     req.DueDate,
				AssignedAt:  now,
			}
			if err := e.repo.CreateAssignment(r.Context(), &assignment); err != nil {
				http.Error(w, "Failed to create assignment", http.StatusInternalServerError)
				return
			}
			created = append(created, assignment)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"assignments": created,
		"created":     len(created),
		"skipped":     skipped,
	})
}

func (e *ProgressEndpoints) DeleteAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	if err := e.repo.DeleteAssignment(r.Context(), admin.AgencyID, chi.URLParam(r, "id")); err != nil {
		http.Error(w, "Failed to delete assignment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "Assignment removed"})
}

type RecordCompletionRequest struct {
	StaffUserID string `json:"staff_user_id" validate:"required"`
	LessonID    string `json:"lesson_id" validate:"required"`
	QuizScore   *int   `json:"quiz_score,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// RecordCompletionHandler marks a lesson done for a staff user. Admins use
// this to backfill sessions that happened off the portal.
func (e *ProgressEndpoints) RecordCompletionHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req RecordCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Staff user ID and lesson ID are required", http.StatusBadRequest)
		return
	}

	staff, err := e.repo.GetStaffUserByID(r.Context(), admin.AgencyID, req.StaffUserID)
	if err != nil {
		http.Error(w, "Failed to validate staff user", http.StatusInternalServerError)
		return
	}
	if staff == nil {
		http.Error(w, "Staff user not found", http.StatusNotFound)
		return
	}
	lesson, err := e.repo.GetLessonByID(r.Context(), admin.AgencyID, req.LessonID)
	if err != nil {
		http.Error(w, "Failed to validate lesson", http.StatusInternalServerError)
		return
	}
	if lesson == nil {
		http.Error(w, "Lesson not found", http.StatusNotFound)
		return
	}

	completion := models.LessonCompletion{
		AgencyID:    admin.AgencyID,
		StaffUserID: req.StaffUserID,
		LessonID:    req.LessonID,
		CompletedAt: time.Now(),
		QuizScore:   req.QuizScore,
	}
	if err := e.repo.CreateLessonCompletion(r.Context(), &completion); err != nil {
		http.Error(w, "Failed to record completion", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"completion": completion})
}

// ProgressRow is one assignment on the report.
type ProgressRow struct {
	AssignmentID     string     `json:"assignment_id"`
	StaffUserID      string     `json:"staff_user_id"`
	StaffName        string     `json:"staff_name"`
	ModuleID         string     `json:"module_id"`
	ModuleName       string     `json:"module_name"`
	LessonsCompleted int        `json:"lessons_completed"`
	LessonsTotal     int        `json:"lessons_total"`
	Percent          int        `json:"percent"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Status           string     `json:"status"`
}

func (e *ProgressEndpoints) buildReport(r *http.Request, agencyID string) ([]ProgressRow, error) {
	assignments, err := e.repo.GetAssignments(r.Context(), agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	lessons, err := e.repo.GetLessons(r.Context(), agencyID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load lessons: %w", err)
	}
	completions, err := e.repo.GetLessonCompletions(r.Context(), agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}

	// Index lessons by module, and completions by staff user + lesson,
	// so the report is three queries regardless of agency size.
	lessonsByModule := make(map[string][]string)
	for _, lesson := range lessons {
		lessonsByModule[lesson.ModuleID] = append(lessonsByModule[lesson.ModuleID], lesson.ID)
	}
	completed := make(map[string]bool)
	for _, c := range completions {
		completed[c.StaffUserID+"|"+c.LessonID] = true
	}

	now := time.Now()
	rows := make([]ProgressRow, 0, len(assignments))
	for _, a := range assignments {
		lessonIDs := lessonsByModule[a.ModuleID]
		done := 0
		for _, lessonID := range lessonIDs {
			if completed[a.StaffUserID+"|"+lessonID] {
				done++
			}
		}
		rows = append(rows, ProgressRow{
			AssignmentID:     a.ID,
			StaffUserID:      a.StaffUserID,
			StaffName:        a.StaffUser.FullName,
			ModuleID:         a.ModuleID,
			ModuleName:       a.Module.Name,
			LessonsCompleted: done,
			LessonsTotal:     len(lessonIDs),
			Percent:          CompletionPercent(done, len(lessonIDs)),
			DueDate:          a.DueDate,
			Status:           AssignmentStatus(done, len(lessonIDs), a.DueDate, now),
		})
	}
	return rows, nil
}

func (e *ProgressEndpoints) ReportHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	rows, err := e.buildReport(r, admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to build progress report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"rows":  rows,
		"count": len(rows),
	})
}

func (e *ProgressEndpoints) ReportCSVHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	rows, err := e.buildReport(r, admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to build progress report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="progress-report.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"Staff", "Module", "Lessons Completed", "Lessons Total", "Percent", "Due Date", "Status"})
	for _, row := range rows {
		due := ""
		if row.DueDate != nil {
			due = row.DueDate.Format("2006-01-02")
		}
		cw.Write([]string{
			row.StaffName,
			row.ModuleName,
			strconv.Itoa(row.LessonsCompleted),
			strconv.Itoa(row.LessonsTotal),
			strconv.Itoa(row.Percent),
			due,
			row.Status,
		})
	}
	cw.Flush()
}
