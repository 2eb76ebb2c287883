package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/agencydesk/console/models"
	"github.com/agencydesk/console/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// SetPasswordTokenExpiry matches the validity window stated in the staff
// invite email.
const SetPasswordTokenExpiry = 7 * 24 * time.Hour

type AuthService struct {
	repo          *repository.GORMRepository
	jwtSecret     []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// ConsoleClaims are carried in the admin access token. AgencyID scopes every
// request made with the token.
type ConsoleClaims struct {
	AdminUserID string `json:"admin_user_id"`
	AgencyID    string `json:"agency_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// StaffClaims are minted for staff-portal tokens issued by the console:
// short-lived impersonation tokens (scope "staff") and the longer-lived
// set-password tokens embedded in invite links (scope "set-password").
type StaffClaims struct {
	StaffUserID string `json:"staff_user_id"`
	AgencyID    string `json:"agency_id"`
	Scope       string `json:"scope"`
	jwt.RegisteredClaims
}

type AuthResponse struct {
	User         *models.AdminUser `json:"user"`
	AccessToken  string            `json:"access_token,omitempty"`
	RefreshToken string            `json:"refresh_token,omitempty"`
}

func NewAuthService(repo *repository.GORMRepository, jwtSecret string) *AuthService {
	return &AuthService{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		accessExpiry:  15 * time.Minute,
		refreshExpiry: 7 * 24 * time.Hour, // 7 days
	}
}

// generateSecureToken generates a cryptographically secure random token
func (s *AuthService) generateSecureToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashToken creates a SHA256 hash of the token for secure storage
func (s *AuthService) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Login authenticates an admin user and creates tokens
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.repo.GetAdminUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	refreshRecord := &models.RefreshToken{
		AdminUserID: user.ID,
		Token:       s.hashToken(refreshToken),
		ExpiresAt:   time.Now().Add(s.refreshExpiry),
	}
	if err := s.repo.CreateRefreshToken(ctx, refreshRecord); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	slog.Info("Admin user logged in", "admin_user_id", user.ID, "agency_id", user.AgencyID)
	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshToken generates a new access token using refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	tokenRecord, err := s.repo.GetRefreshToken(ctx, s.hashToken(refreshToken))
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if tokenRecord == nil {
		return nil, fmt.Errorf("invalid refresh token")
	}

	user, err := s.repo.GetAdminUserByID(ctx, tokenRecord.AdminUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("admin user not found")
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	slog.Info("Access token refreshed", "admin_user_id", user.ID)
	return &AuthResponse{
		User:        user,
		AccessToken: accessToken,
	}, nil
}

// Logout invalidates all tokens for the admin user
func (s *AuthService) Logout(ctx context.Context, adminUserID string) error {
	if err := s.repo.DeleteAllAdminTokens(ctx, adminUserID); err != nil {
		return fmt.Errorf("failed to delete admin tokens: %w", err)
	}

	slog.Info("Admin user logged out", "admin_user_id", adminUserID)
	return nil
}

// VerifyAccessToken verifies and extracts the admin user from an access token
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*models.AdminUser, error) {
	claims := &ConsoleClaims{}

	parsedToken, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !parsedToken.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	// Get user from database to ensure they still exist
	user, err := s.repo.GetAdminUserByID(ctx, claims.AdminUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("admin user not found")
	}

	return user, nil
}

// ImpersonateStaff mints a short-lived staff-portal token for a staff user in
// the admin's agency. The token lets an admin view the portal as that staff
// member.
func (s *AuthService) ImpersonateStaff(ctx context.Context, agencyID, staffUserID string) (string, error) {
	staff, err := s.repo.GetStaffUserByID(ctx, agencyID, staffUserID)
	if err != nil {
		return "", fmt.Errorf("failed to get staff user: %w", err)
	}
	if staff == nil {
		return "", fmt.Errorf("staff user not found")
	}
	if !staff.Active {
		return "", fmt.Errorf("staff user is deactivated")
	}

	claims := &StaffClaims{
		StaffUserID: staff.ID,
		AgencyID:    staff.AgencyID,
		Scope:       "staff",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign impersonation token: %w", err)
	}

	slog.Info("Impersonation token issued", "staff_user_id", staff.ID, "agency_id", agencyID)
	return signed, nil
}

// IssueSetPasswordToken mints the token embedded in a staff invite link. It
// lives as long as the invite email promises (7 days) and carries a scope
// distinct from impersonation tokens so one cannot stand in for the other.
func (s *AuthService) IssueSetPasswordToken(ctx context.Context, agencyID, staffUserID string) (string, error) {
	staff, err := s.repo.GetStaffUserByID(ctx, agencyID, staffUserID)
	if err != nil {
		return "", fmt.Errorf("failed to get staff user: %w", err)
	}
	if staff == nil {
		return "", fmt.Errorf("staff user not found")
	}
	if !staff.Active {
		return "", fmt.Errorf("staff user is deactivated")
	}

	claims := &StaffClaims{
		StaffUserID: staff.ID,
		AgencyID:    staff.AgencyID,
		Scope:       "set-password",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(SetPasswordTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign set-password token: %w", err)
	}

	slog.Info("Set-password token issued", "staff_user_id", staff.ID, "agency_id", agencyID)
	return signed, nil
}

// generateAccessToken creates a short-lived access token
func (s *AuthService) generateAccessToken(user *models.AdminUser) (string, error) {
	claims := &ConsoleClaims{
		AdminUserID: user.ID,
		AgencyID:    user.AgencyID,
		Email:       user.Email,
		Role:        user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// SetAuthCookies sets HTTP-only, secure cookies
func (s *AuthService) SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	isProduction := os.Getenv("ENVIRONMENT") == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.accessExpiry.Seconds()),
	})

	if refreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     "refresh_token",
			Value:    refreshToken,
			Path:     "/",
			HttpOnly: true,
			Secure:   isProduction,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(s.refreshExpiry.Seconds()),
		})
	}
}

// ClearAuthCookies clears all authentication cookies
func (s *AuthService) ClearAuthCookies(w http.ResponseWriter) {
	isProduction := os.Getenv("ENVIRONMENT") == "production"

	for _, cookieName := range []string{"access_token", "refresh_token"} {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   isProduction,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}

// GetTokenFromCookie extracts token from request cookies
func (s *AuthService) GetTokenFromCookie(r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Middleware for cookie-based authentication
func (s *AuthService) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Try to get access token from cookie
		accessToken := s.GetTokenFromCookie(r, "access_token")

		if accessToken != "" {
			user, err := s.VerifyAccessToken(r.Context(), accessToken)
			if err == nil {
				ctx := context.WithValue(r.Context(), "user", user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		// Try to refresh using refresh token
		refreshToken := s.GetTokenFromCookie(r, "refresh_token")
		if refreshToken != "" {
			authResponse, err := s.RefreshToken(r.Context(), refreshToken)
			if err == nil {
				s.SetAuthCookies(w, authResponse.AccessToken, "")

				ctx := context.WithValue(r.Context(), "user", authResponse.User)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

// AdminFromContext pulls the authenticated admin user placed in the request
// context by Middleware.
func AdminFromContext(ctx context.Context) (*models.AdminUser, bool) {
	user, ok := ctx.Value("user").(*models.AdminUser)
	return user, ok
}
