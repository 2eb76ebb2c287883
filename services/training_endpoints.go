package services

import (
	"encoding/json"
	"net/http"

	"github.com/agencydesk/console/models"
	"github.com/agencydesk/console/repository"
	"github.com/go-chi/chi/v5"
)

// TrainingEndpoints manages the content tree: categories contain modules,
// modules contain lessons, and a lesson may carry a quiz.
type TrainingEndpoints struct {
	repo *repository.GORMRepository
}

func NewTrainingEndpoints(repo *repository.GORMRepository) *TrainingEndpoints {
	return &TrainingEndpoints{repo: repo}
}

func (e *TrainingEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/training", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", e.ListCategoriesHandler)
			r.Post("/", e.CreateCategoryHandler)
			r.Put("/{id}", e.UpdateCategoryHandler)
			r.Get("/{id}/usage", e.CategoryUsageHandler)
			r.Delete("/{id}", e.DeleteCategoryHandler)
		})
		r.Route("/modules", func(r chi.Router) {
			r.Get("/", e.ListModulesHandler)
			r.Post("/", e.CreateModuleHandler)
			r.Put("/{id}", e.UpdateModuleHandler)
			r.Get("/{id}/usage", e.ModuleUsageHandler)
			r.Delete("/{id}", e.DeleteModuleHandler)
			r.Post("/{id}/reorder-lessons", e.ReorderLessonsHandler)
		})
		r.Route("/lessons", func(r chi.Router) {
			r.Get("/", e.ListLessonsHandler)
			r.Post("/", e.CreateLessonHandler)
			r.Get("/{id}", e.GetLessonHandler)
			r.Put("/{id}", e.UpdateLessonHandler)
			r.Get("/{id}/usage", e.LessonUsageHandler)
			r.Delete("/{id}", e.DeleteLessonHandler)
			r.Get("/{id}/quiz", e.GetQuizHandler)
			r.Put("/{id}/quiz", e.UpsertQuizHandler)
		})
	})
}

// Categories

type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

func (e *TrainingEndpoints) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	categories, err := e.repo.GetCategories(r.Context(), admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to get categories", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

func (e *TrainingEndpoints) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	category := models.TrainingCategory{
		AgencyID:    admin.AgencyID,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if err := e.repo.CreateCategory(r.Context(), &category); err != nil {
		http.Error(w, "Failed to create category", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"category": category})
}

func (e *TrainingEndpoints) UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	category, err := e.repo.GetCategoryByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get category", http.StatusInternalServerError)
		return
	}
	if category == nil {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	category.Name = req.Name
	category.Description = req.Description
	category.SortOrder = req.SortOrder
	if err := e.repo.UpdateCategory(r.Context(), category); err != nil {
		http.Error(w, "Failed to update category", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"category": category})
}

// CategoryUsageHandler reports what a delete would take with it, so the
// console can confirm before cascading.
func (e *TrainingEndpoints) CategoryUsageHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	category, err := e.repo.GetCategoryByID(r.Context(), admin.AgencyID, id)
	if err != nil {
		http.Error(w, "Failed to get category", http.StatusInternalServerError)
		return
	}
	if category == nil {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}

	moduleCount, err := e.repo.CountModulesInCategory(r.Context(), admin.AgencyID, id)
	if err != nil {
		http.Error(w, "Failed to count modules", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"category_id":  id,
		"module_count": moduleCount,
	})
}

func (e *TrainingEndpoints) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	category, err := e.repo.GetCategoryByID(r.Context(), admin.AgencyID, id)
	if err != nil {
		http.Error(w, "Failed to get category", http.StatusInternalServerError)
		return
	}
	if category == nil {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteCategory(r.Context(), admin.AgencyID, id); err != nil {
		http.Error(w, "Failed to delete category", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "Category deleted"})
}

// Modules

type ModuleRequest struct {
	CategoryID  string `json:"category_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

func (e *TrainingEndpoints) ListModulesHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	modules, err := e.repo.GetModules(r.Context(), admin.AgencyID, r.URL.Query().Get("category_id"))
	if err != nil {
		http.Error(w, "Failed to get modules", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"modules": modules,
		"count":   len(modules),
	})
}

func (e *TrainingEndpoints) CreateModuleHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req ModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Category ID and name are required", http.StatusBadRequest)
		return
	}

	category, err := e.repo.GetCategoryByID(r.Context(), admin.AgencyID, req.CategoryID)
	if err != nil {
		http.Error(w, "Failed to validate category", http.StatusInternalServerError)
		return
	}
	if category == nil {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}

	module := models.TrainingModule{
		AgencyID:    admin.AgencyID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if err := e.repo.CreateModule(r.Context(), &module); err != nil {
		http.Error(w, "Failed to create module", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"module": module})
}

func (e *TrainingEndpoints) UpdateModuleHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	module, err := e.repo.GetModuleByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get module", http.StatusInternalServerError)
		return
	}
	if module == nil {
		http.Error(w, "Module not found", http.StatusNotFound)
		return
	}

	var req ModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Category ID and name are required", http.StatusBadRequest)
		return
	}

	module.CategoryID = req.CategoryID
	module.Name = req.Name
	module.Description = req.Description
	module.SortOrder = req.SortOrder
	if err := e.repo.UpdateModule(r.Context(), module); err != nil {
		http.Error(w, "Failed to update module", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"module": module})
}

func (e *TrainingEndpoints) ModuleUsageHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	module, err := e.repo.GetModuleByID(r.Context(), admin.AgencyID, id)
	if err != nil {
		http.Error(w, "Failed to get module", http.StatusInternalServerError)
		return
	}
	if module == nil {
		http.Error(w, "Module not found", http.StatusNotFound)
		return
	}

	lessonCount, err := e.repo.CountLessonsInModule(r.Context(), admin.AgencyID, id)
	if err != nil {
		http.Error(w, "Failed to count lessons", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"module_id":    id,
		"lesson_count": lessonCount,
	})
}

func (e *TrainingEndpoints) DeleteModuleHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	module, err := e.repo.GetModuleByID(r.Context(), admin.AgencyID, id)
	if err != nil {
		http.Error(w, "Failed to get module", http.StatusInternalServerError)
		return
	}
	if module == nil {
		http.Error(w, "Module not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteModule(r.Context(), admin.AgencyID, id); err != nil {
		http.Error(w, "Failed to delete module", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "Module deleted"})
}

type ReorderLessonsRequest struct {
	LessonIDs []string `json:"lesson_ids" validate:"required,min=1"`
}

func (e *TrainingEndpoints) ReorderLessonsHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req ReorderLessonsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "At least one lesson ID is required", http.StatusBadRequest)
		return
	}

	if err := e.repo.ReorderLessons(r.Context(), admin.AgencyID, chi.URLParam(r, "id"), req.LessonIDs); err != nil {
		http.Error(w, "Failed to reorder lessons", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "Lessons reordered"})
}

// Lessons

type LessonRequest struct {
	ModuleID  string `json:"module_id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body"`
	VideoURL  string `json:"video_url" validate:"omitempty,url"`
	SortOrder int    `json:"sort_order"`
}

func (e *TrainingEndpoints) ListLessonsHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	lessons, err := e.repo.GetLessons(r.Context(), admin.AgencyID, r.URL.Query().Get("module_id"))
	if err != nil {
		http.Error(w, "Failed to get lessons", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"lessons": lessons,
		"count":   len(lessons),
	})
}

func (e *TrainingEndpoints) CreateLessonHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req LessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Module ID and title are required", http.StatusBadRequest)
		return
	}

	module, err := e.repo.GetModuleByID(r.Context(), admin.AgencyID, req.ModuleID)
	if err != nil {
		http.Error(w, "Failed to validate module", http.StatusInternalServerError)
		return
	}
	if module == nil {
		http.Error(w, "Module not found", http.StatusNotFound)
		return
	}

	lesson := models.TrainingLesson{
		AgencyID:  admin.AgencyID,
		ModuleID:  req.ModuleID,
		Title:     req.Title,
		Body:      req.Body,
		VideoURL:  req.VideoURL,
		SortOrder: req.SortOrder,
	}
	if err := e.repo.CreateLesson(r.Context(), &lesson); err != nil {
		http.Error(w, "Failed to create lesson", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"lesson": lesson})
}

func (e *TrainingEndpoints) GetLessonHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	lesson, err := e.repo.GetLessonByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get lesson", http.StatusInternalServerError)
		return
	}
	if lesson == nil {
		http.Error(w, "Lesson not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"lesson": lesson})
}

func (e *TrainingEndpoints) UpdateLessonHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	lesson, err := e.repo.GetLessonByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get lesson", http.StatusInternalServerError)
		return
	}
	if lesson == nil {
		http.Error(w, "Lesson not found", http.StatusNotFound)
		return
	}

	var req LessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Module ID and title are required", http.StatusBadRequest)
		return
	}

	lesson.ModuleID = req.ModuleID
	lesson.Title = req.Title
	lesson.Body = req.Body
	lesson.VideoURL = req.VideoURL
	lesson.SortOrder = req.SortOrder
	if err := e.repo.UpdateLesson(r.Context(), lesson); err != nil {
		http.Error(w, "Failed to update lesson", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"lesson": lesson})
}

func (e *TrainingEndpoints) LessonUsageHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	lesson, err := e.repo.GetLessonByID(r.Context(), admin.AgencyID, id)
	if err != nil {
		http.Error(w, "Failed to get lesson", http.StatusInternalServerError)
		return
	}
	if lesson == nil {
		http.Error(w, "Lesson not found", http.StatusNotFound)
		return
	}

	completionCount, err := e.repo.CountCompletionsForLesson(r.Context(), admin.AgencyID, id)
	if err != nil {
		http.Error(w, "Failed to count completions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"lesson_id":        id,
		"completion_count": completionCount,
	})
}

func (e *TrainingEndpoints) DeleteLessonHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "id")
	lesson, err := e.repo.GetLessonByID(r.Context(), admin.AgencyID, id)
	if err != nil {
		http.Error(w, "Failed to get lesson", http.StatusInternalServerError)
		return
	}
	if lesson == nil {
		http.Error(w, "Lesson not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteLesson(r.Context(), admin.AgencyID, id); err != nil {
		http.Error(w, "Failed to delete lesson", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"message": "Lesson deleted"})
}

// Quizzes

type QuizQuestionRequest struct {
	Prompt       string   `json:"prompt" validate:"required"`
	Options      []string `json:"options" validate:"required,min=2"`
	CorrectIndex int      `json:"correct_index" validate:"gte=0"`
}

type QuizRequest struct {
	Title        string                `json:"title"`
	PassingScore int                   `json:"passing_score" validate:"gte=0,lte=100"`
	Questions    []QuizQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

func (e *TrainingEndpoints) GetQuizHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	quiz, err := e.repo.GetQuizByLesson(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get quiz", http.StatusInternalServerError)
		return
	}
	if quiz == nil {
		http.Error(w, "Quiz not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"quiz": quiz})
}

// UpsertQuizHandler replaces the quiz for a lesson wholesale. Question edits
// come in as a full set, which keeps index bookkeeping out of the API.
func (e *TrainingEndpoints) UpsertQuizHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	lessonID := chi.URLParam(r, "id")
	lesson, err := e.repo.GetLessonByID(r.Context(), admin.AgencyID, lessonID)
	if err != nil {
		http.Error(w, "Failed to get lesson", http.StatusInternalServerError)
		return
	}
	if lesson == nil {
		http.Error(w, "Lesson not found", http.StatusNotFound)
		return
	}

	var req QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "At least one question with two options is required", http.StatusBadRequest)
		return
	}
	for _, q := range req.Questions {
		if q.CorrectIndex >= len(q.Options) {
			http.Error(w, "Correct index is out of range", http.StatusBadRequest)
			return
		}
	}

	quiz, err := e.repo.GetQuizByLesson(r.Context(), admin.AgencyID, lessonID)
	if err != nil {
		http.Error(w, "Failed to get quiz", http.StatusInternalServerError)
		return
	}
	if quiz == nil {
		quiz = &models.Quiz{
			AgencyID: admin.AgencyID,
			LessonID: lessonID,
		}
	}
	quiz.Title = req.Title
	if req.PassingScore > 0 {
		quiz.PassingScore = req.PassingScore
	}

	if quiz.ID == "" {
		if err := e.repo.CreateQuiz(r.Context(), quiz); err != nil {
			http.Error(w, "Failed to create quiz", http.StatusInternalServerError)
			return
		}
	} else {
		for _, existing := range quiz.Questions {
			if err := e.repo.DeleteQuizQuestion(r.Context(), existing.ID); err != nil {
				http.Error(w, "Failed to replace quiz questions", http.StatusInternalServerError)
				return
			}
		}
		quiz.Questions = nil
		if err := e.repo.UpdateQuiz(r.Context(), quiz); err != nil {
			http.Error(w, "Failed to update quiz", http.StatusInternalServerError)
			return
		}
	}

	for i, q := range req.Questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			http.Error(w, "Invalid question options", http.StatusBadRequest)
			return
		}
		question := models.QuizQuestion{
			QuizID:       quiz.ID,
			Prompt:       q.Prompt,
			Options:      string(options),
			CorrectIndex: q.CorrectIndex,
			SortOrder:    i,
		}
		if err := e.repo.CreateQuizQuestion(r.Context(), &question); err != nil {
			http.Error(w, "Failed to create quiz question", http.StatusInternalServerError)
			return
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"quiz": quiz})
}
