package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/nutriroom-backend/internal/tenant"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("email required and password must be at least 8 characters")
	ErrInvalidProfileType = errors.New("profile_type must be patient or professional")
)

type AuthService struct {
	db   *gorm.DB
	cfg  *config.Config
	feed realtime.Feed
}

func NewAuthService(db *gorm.DB, cfg *config.Config, feed realtime.Feed) *AuthService {
	return &AuthService{db: db, cfg: cfg, feed: feed}
}

// Register creates the account and its profile together.
func (s *AuthService) Register(ctx context.Context, tenantID string, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	profileType := req.ProfileType
	if profileType == "" {
		profileType = models.ProfileTypePatient
	}
	if profileType != models.ProfileTypePatient && profileType != models.ProfileTypeProfessional {
		return nil, ErrInvalidProfileType
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := models.Account{TenantID: tenantID, Email: email, Password: string(hash)}
	var profile models.UserProfile

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Account{}).Scopes(tenant.ForTenant(tenantID)).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}

		if err := tx.Create(&account).Error; err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}

		code, err := uniqueShareCode(ctx, tx)
		if err != nil {
			return err
		}

		fullName := strings.TrimSpace(req.FullName)
		if fullName == "" {
			fullName = strings.Split(email, "@")[0]
		}
		profile = models.UserProfile{
			ID:                  account.ID,
			TenantID:            tenantID,
			FullName:            fullName,
			Email:               email,
			ProfileType:         profileType,
			Role:                s.initialRole(email, profileType),
			ProfessionalRoomIDs: datatypes.JSONSlice[string]{},
			SubscriptionStatus:  models.SubscriptionInactive,
			DashboardShareCode:  code,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	realtime.PublishAll(ctx, s.feed, realtime.UserTopic(account.ID))
	return s.generateTokenPair(ctx, &account, &profile)
}

func (s *AuthService) initialRole(email string, profileType models.ProfileType) models.Role {
	for _, admin := range config.ParseCSV(s.cfg.SuperAdminEmails) {
		if strings.EqualFold(admin, email) {
			return models.RoleSuperAdmin
		}
	}
	if profileType == models.ProfileTypeProfessional {
		return models.RoleProfessional
	}
	return ""
}

func (s *AuthService) Login(ctx context.Context, tenantID string, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var account models.Account
	if err := s.db.WithContext(ctx).Scopes(tenant.ForTenant(tenantID)).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.loadProfile(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, &account, profile)
}

func (s *AuthService) Refresh(ctx context.Context, tenantID string, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	db := s.db.WithContext(ctx)
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := db.Scopes(tenant.ForTenant(tenantID)).Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	db.Model(&stored).Update("revoked", true)
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	var account models.Account
	if err := db.Scopes(tenant.ForTenant(tenantID)).First(&account, "id = ?", stored.AccountID).Error; err != nil {
		return nil, fmt.Errorf("account not found: %w", err)
	}

	profile, err := s.loadProfile(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, &account, profile)
}

func (s *AuthService) Logout(ctx context.Context, tenantID string, req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Scopes(tenant.ForTenant(tenantID)).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

// DeleteAccount removes the account and every document owned by it in one
// transaction. Rooms the user belongs to are deleted and the other
// participant's linkage is reversed.
func (s *AuthService) DeleteAccount(ctx context.Context, tenantID, userID, password string) error {
	var account models.Account
	if err := s.db.WithContext(ctx).Scopes(tenant.ForTenant(tenantID)).First(&account, "id = ?", userID).Error; err != nil {
		return ErrUserNotFound
	}

	if password == "" {
		return errors.New("password is required")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	topics, err := purgeUsers(ctx, s.db, []string{account.ID})
	if err != nil {
		return err
	}
	realtime.PublishAll(ctx, s.feed, topics...)
	return nil
}

func (s *AuthService) loadProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

func (s *AuthService) generateTokenPair(ctx context.Context, account *models.Account, profile *models.UserProfile) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(account, profile)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, account)
	if err != nil {
		return nil, err
	}

	user := dto.UserResponse{ID: account.ID, Email: account.Email, TenantID: account.TenantID}
	if profile != nil {
		user.ProfileType = profile.ProfileType
		user.Role = profile.Role
	}
	return &dto.AuthResponse{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

func (s *AuthService) generateAccessToken(account *models.Account, profile *models.UserProfile) (string, error) {
	claims := jwt.MapClaims{
		"sub":       account.ID,
		"email":     account.Email,
		"tenant_id": account.TenantID,
		"iat":       time.Now().Unix(),
		"exp":       time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}
	if profile != nil {
		claims["profile_type"] = string(profile.ProfileType)
		claims["role"] = string(profile.Role)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ParseAccessToken verifies an access token outside the HTTP middleware
// (the live socket authenticates with a message, not a header).
func (s *AuthService) ParseAccessToken(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

func (s *AuthService) generateRefreshToken(ctx context.Context, account *models.Account) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	record := models.RefreshToken{
		TenantID:  account.TenantID,
		AccountID: account.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
