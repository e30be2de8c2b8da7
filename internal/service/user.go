package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jpalomar/CitasGo/internal/auth"
	"github.com/jpalomar/CitasGo/internal/domain"
	"github.com/jpalomar/CitasGo/internal/mailer"
	"github.com/jpalomar/CitasGo/internal/repository"
	"github.com/jpalomar/CitasGo/internal/verification"
	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// UserService implements the business logic for user and auth operations.
type UserService struct {
	userRepo   repository.UserRepository
	jwtManager *auth.JWTManager
	tokens     *verification.Store
	mail       mailer.Sender
	baseURL    string
	logger     *slog.Logger
}

// NewUserService creates a new user service. baseURL is the front-end origin
// used to build verification links.
func NewUserService(
	userRepo repository.UserRepository,
	jwtManager *auth.JWTManager,
	tokens *verification.Store,
	mail mailer.Sender,
	baseURL string,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		tokens:     tokens,
		mail:       mail,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates a new student account pending email verification.
// Self-registration always produces an ALUMNO; specialist accounts are
// provisioned administratively. The verification email is best-effort: a
// delivery failure is logged but does not fail the registration.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	fields := map[string][]string{}
	if input.Email == "" {
		fields["email"] = append(fields["email"], "Este campo es requerido.")
	}
	if input.FirstName == "" {
		fields["first_name"] = append(fields["first_name"], "Este campo es requerido.")
	}
	if input.LastName == "" {
		fields["last_name"] = append(fields["last_name"], "Este campo es requerido.")
	}
	if err := validatePassword(input.Password); err != nil {
		fields["password"] = append(fields["password"], err.Error())
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation(fields)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	username, err := s.generateUsername(ctx, input.FirstName, input.LastName)
	if err != nil {
		return nil, fmt.Errorf("generate username: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:            uuid.New().String(),
		Username:      username,
		Email:         input.Email,
		PasswordHash:  string(hashedPassword),
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Role:          domain.RoleStudent,
		IsActive:      true,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.sendVerificationEmail(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification email",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login authenticates a user with email and password, returning tokens.
// Accounts with an unverified email are refused.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" || input.Password == "" {
		return nil, nil, apperrors.NonField("Correo y contraseña son requeridos.")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.NonField("Correo o contraseña incorrectos.")
	}

	if !user.IsActive {
		return nil, nil, apperrors.NonField("La cuenta está desactivada.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.NonField("Correo o contraseña incorrectos.")
	}

	if !user.EmailVerified {
		return nil, nil, apperrors.NonField("Debes verificar tu correo electrónico antes de iniciar sesión.")
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return user, tokens, nil
}

// VerifyEmail redeems a verification token and marks the account verified.
// Redeeming an already-verified account is a no-op success.
func (s *UserService) VerifyEmail(ctx context.Context, userID, token string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperrors.InvalidInput("El enlace de verificación es inválido o ha expirado.")
	}

	if user.EmailVerified {
		return nil
	}

	if err := s.tokens.Redeem(ctx, userID, token); err != nil {
		return err
	}

	user.EmailVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}

	s.logger.InfoContext(ctx, "email verified",
		slog.String("user_id", user.ID),
	)

	return nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("El token dado no es válido para ningún tipo de token.")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("El token dado no es válido para ningún tipo de token.")
	}

	if !user.IsActive {
		return nil, apperrors.Unauthorized("La cuenta está desactivada.")
	}

	return s.generateTokenPair(user)
}

// GetProfile returns the user's profile.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) generateTokenPair(user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(auth.AccessTokenInput{
		UserID:        user.ID,
		Email:         user.Email,
		Role:          user.Role,
		FullName:      user.FullName(),
		EmailVerified: user.EmailVerified,
	})
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *UserService) sendVerificationEmail(ctx context.Context, user *domain.User) error {
	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return err
	}

	verifyURL := fmt.Sprintf("%s/verify-email/%s/%s", strings.TrimRight(s.baseURL, "/"), user.ID, token)
	return s.mail.SendVerification(user.Email, user.FullName(), verifyURL)
}

// generateUsername derives first.last from the user's names, appending a
// numeric suffix when the base name is already taken.
func (s *UserService) generateUsername(ctx context.Context, firstName, lastName string) (string, error) {
	base := usernamePart(firstName) + "." + usernamePart(lastName)

	count, err := s.userRepo.CountUsernamePrefix(ctx, base)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return base, nil
	}

	return base + strconv.Itoa(count), nil
}

// usernamePart lowercases the first word of a name and strips everything but
// letters and digits.
func usernamePart(name string) string {
	word := strings.Fields(name)
	if len(word) == 0 {
		return "user"
	}

	var b strings.Builder
	for _, r := range strings.ToLower(word[0]) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}

	return b.String()
}

// validatePassword enforces the minimum password policy.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("La contraseña debe tener al menos %d caracteres.", minPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("La contraseña debe contener letras y números.")
	}

	return nil
}
