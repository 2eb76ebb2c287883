package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agencydesk/console/models"
	"github.com/agencydesk/console/repository"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

type StaffEndpoints struct {
	repo        *repository.GORMRepository
	authService *AuthService
	mailer      Mailer
	portalURL   string
}

func NewStaffEndpoints(repo *repository.GORMRepository, authService *AuthService, mailer Mailer, portalURL string) *StaffEndpoints {
	return &StaffEndpoints{
		repo:        repo,
		authService: authService,
		mailer:      mailer,
		portalURL:   portalURL,
	}
}

func (e *StaffEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/team-members", func(r chi.Router) {
		r.Get("/", e.ListTeamMembersHandler)
		r.Post("/", e.CreateTeamMemberHandler)
		r.Put("/{id}", e.UpdateTeamMemberHandler)
	})

	r.Route("/staff", func(r chi.Router) {
		r.Get("/", e.ListStaffHandler)
		r.Post("/", e.CreateStaffHandler)
		r.Get("/{id}", e.GetStaffHandler)
		r.Put("/{id}", e.UpdateStaffHandler)
		r.Post("/{id}/deactivate", e.DeactivateStaffHandler)
		r.Post("/{id}/grant-access", e.GrantAccessHandler)
		r.Post("/{id}/impersonate", e.ImpersonateHandler)
	})
}

type CreateTeamMemberRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Position string `json:"position"`
}

func (e *StaffEndpoints) ListTeamMembersHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	members, err := e.repo.GetTeamMembers(r.Context(), admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to get team members", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"team_members": members,
		"count":        len(members),
	})
}

func (e *StaffEndpoints) CreateTeamMemberHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreateTeamMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Full name is required", http.StatusBadRequest)
		return
	}

	member := models.TeamMember{
		AgencyID: admin.AgencyID,
		FullName: req.FullName,
		Email:    req.Email,
		Position: req.Position,
		Active:   true,
	}
	if err := e.repo.CreateTeamMember(r.Context(), &member); err != nil {
		http.Error(w, "Failed to create team member", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"team_member": member})
}

func (e *StaffEndpoints) UpdateTeamMemberHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	member, err := e.repo.GetTeamMemberByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get team member", http.StatusInternalServerError)
		return
	}
	if member == nil {
		http.Error(w, "Team member not found", http.StatusNotFound)
		return
	}

	var req CreateTeamMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Full name is required", http.StatusBadRequest)
		return
	}

	member.FullName = req.FullName
	member.Email = req.Email
	member.Position = req.Position
	if err := e.repo.UpdateTeamMember(r.Context(), member); err != nil {
		http.Error(w, "Failed to update team member", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"team_member": member})
}

type CreateStaffRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	FullName     string  `json:"full_name" validate:"required"`
	TeamMemberID *string `json:"team_member_id,omitempty"`
}

func (e *StaffEndpoints) ListStaffHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	staff, err := e.repo.GetStaffUsers(r.Context(), admin.AgencyID)
	if err != nil {
		http.Error(w, "Failed to get staff users", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"staff": staff,
		"count": len(staff),
	})
}

func (e *StaffEndpoints) CreateStaffHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Email and full name are required", http.StatusBadRequest)
		return
	}

	existing, err := e.repo.GetStaffUserByEmail(r.Context(), req.Email)
	if err != nil {
		http.Error(w, "Failed to check existing staff user", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "A staff user with that email already exists", http.StatusConflict)
		return
	}

	if req.TeamMemberID != nil {
		member, err := e.repo.GetTeamMemberByID(r.Context(), admin.AgencyID, *req.TeamMemberID)
		if err != nil {
			http.Error(w, "Failed to validate team member", http.StatusInternalServerError)
			return
		}
		if member == nil {
			http.Error(w, "Team member not found", http.StatusNotFound)
			return
		}
	}

	staff := models.StaffUser{
		AgencyID:     admin.AgencyID,
		TeamMemberID: req.TeamMemberID,
		Email:        req.Email,
		FullName:     req.FullName,
		Active:       true,
	}
	if err := e.repo.CreateStaffUser(r.Context(), &staff); err != nil {
		http.Error(w, "Failed to create staff user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"staff_user": staff})
}

func (e *StaffEndpoints) GetStaffHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	staff, err := e.repo.GetStaffUserByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get staff user", http.StatusInternalServerError)
		return
	}
	if staff == nil {
		http.Error(w, "Staff user not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"staff_user": staff})
}

type UpdateStaffRequest struct {
	FullName     string  `json:"full_name" validate:"required"`
	TeamMemberID *string `json:"team_member_id,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

func (e *StaffEndpoints) UpdateStaffHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	staff, err := e.repo.GetStaffUserByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get staff user", http.StatusInternalServerError)
		return
	}
	if staff == nil {
		http.Error(w, "Staff user not found", http.StatusNotFound)
		return
	}

	var req UpdateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Full name is required", http.StatusBadRequest)
		return
	}

	staff.FullName = req.FullName
	staff.TeamMemberID = req.TeamMemberID
	if req.Active != nil {
		staff.Active = *req.Active
	}
	if err := e.repo.UpdateStaffUser(r.Context(), staff); err != nil {
		http.Error(w, "Failed to update staff user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"staff_user": staff})
}

// DeactivateStaffHandler flips the Active flag. The row and its completion
// history are kept.
func (e *StaffEndpoints) DeactivateStaffHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	staff, err := e.repo.GetStaffUserByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get staff user", http.StatusInternalServerError)
		return
	}
	if staff == nil {
		http.Error(w, "Staff user not found", http.StatusNotFound)
		return
	}

	staff.Active = false
	if err := e.repo.UpdateStaffUser(r.Context(), staff); err != nil {
		http.Error(w, "Failed to deactivate staff user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"staff_user": staff,
		"message":    "Staff user deactivated",
	})

	slog.Info("Staff user deactivated", "staff_user_id", staff.ID, "admin_user_id", admin.ID)
}

// GrantAccessRequest selects exactly one of the two access modes:
// "invite" emails a set-password link; "password" stores a temporary
// password (supplied or auto-generated).
type GrantAccessRequest struct {
	Mode     string `json:"mode" validate:"required,oneof=invite password"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

type GrantAccessResponse struct {
	StaffUser *models.StaffUser `json:"staff_user"`
	// TempPassword is only populated for mode=password with an auto-generated
	// password, so the admin can hand it over.
	TempPassword string `json:"temp_password,omitempty"`
	Message      string `json:"message"`
}

func (e *StaffEndpoints) GrantAccessHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	staff, err := e.repo.GetStaffUserByID(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to get staff user", http.StatusInternalServerError)
		return
	}
	if staff == nil {
		http.Error(w, "Staff user not found", http.StatusNotFound)
		return
	}
	if !staff.Active {
		http.Error(w, "Cannot grant access to a deactivated staff user", http.StatusConflict)
		return
	}

	var req GrantAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Mode must be 'invite' or 'password'", http.StatusBadRequest)
		return
	}

	switch req.Mode {
	case "invite":
		if req.Password != "" {
			http.Error(w, "Password cannot be supplied in invite mode", http.StatusBadRequest)
			return
		}
		e.grantByInvite(w, r, staff)
	case "password":
		e.grantByPassword(w, r, staff, req.Password)
	}
}

func (e *StaffEndpoints) grantByInvite(w http.ResponseWriter, r *http.Request, staff *models.StaffUser) {
	token, err := e.authService.IssueSetPasswordToken(r.Context(), staff.AgencyID, staff.ID)
	if err != nil {
		slog.Error("Failed to mint invite token", "error", err, "staff_user_id", staff.ID)
		http.Error(w, "Failed to create invite", http.StatusInternalServerError)
		return
	}
	setupURL := fmt.Sprintf("%s/set-password?token=%s", e.portalURL, token)

	if err := e.mailer.SendStaffInvite(staff.FullName, staff.Email, setupURL); err != nil {
		http.Error(w, "Failed to send invite email", http.StatusBadGateway)
		return
	}

	now := time.Now()
	staff.InviteSentAt = &now
	if err := e.repo.UpdateStaffUser(r.Context(), staff); err != nil {
		http.Error(w, "Failed to record invite", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GrantAccessResponse{
		StaffUser: staff,
		Message:   "Invite email sent",
	})

	slog.Info("Staff invite sent", "staff_user_id", staff.ID, "email", staff.Email)
}

func (e *StaffEndpoints) grantByPassword(w http.ResponseWriter, r *http.Request, staff *models.StaffUser, supplied string) {
	password := supplied
	generated := false
	if password == "" {
		var err error
		password, err = GeneratePassword()
		if err != nil {
			slog.Error("Failed to generate password", "error", err)
			http.Error(w, "Failed to generate password", http.StatusInternalServerError)
			return
		}
		generated = true
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		http.Error(w, "Failed to set password", http.StatusInternalServerError)
		return
	}

	staff.Password = string(hashed)
	staff.MustChangePassword = true
	if err := e.repo.UpdateStaffUser(r.Context(), staff); err != nil {
		http.Error(w, "Failed to set password", http.StatusInternalServerError)
		return
	}

	resp := GrantAccessResponse{
		StaffUser: staff,
		Message:   "Temporary password set",
	}
	if generated {
		resp.TempPassword = password
		// Best effort: the admin already has the password in the response.
		if err := e.mailer.SendTempPassword(staff.FullName, staff.Email, password); err != nil {
			slog.Error("Failed to email temp password", "error", err, "staff_user_id", staff.ID)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)

	slog.Info("Staff password set", "staff_user_id", staff.ID, "generated", generated)
}

func (e *StaffEndpoints) ImpersonateHandler(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	token, err := e.authService.ImpersonateStaff(r.Context(), admin.AgencyID, chi.URLParam(r, "id"))
	if err != nil {
		slog.Error("Impersonation failed", "error", err, "admin_user_id", admin.ID)
		http.Error(w, "Failed to impersonate staff user", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token":   token,
		"message": "Impersonation token issued",
	})
}
