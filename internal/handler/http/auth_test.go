package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jpalomar/CitasGo/internal/domain"
	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

func verifiedStudent(t *testing.T, password string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	return &domain.User{
		ID:            testStudentID,
		Username:      "ana.garcia",
		Email:         "ana@uni.mx",
		PasswordHash:  hashForTest(t, password),
		FirstName:     "Ana",
		LastName:      "García",
		Role:          domain.RoleStudent,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestRegister_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(authTestHandler(userRepo))

	userRepo.On("CountUsernamePrefix", mock.Anything, "ana.garcia").Return(0, nil)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	body, _ := json.Marshal(map[string]string{
		"email":      "ana@uni.mx",
		"password":   "segura123",
		"first_name": "Ana",
		"last_name":  "García",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp RegisterResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Registro exitoso. Revisa tu correo para verificar tu cuenta.", resp.Message)
	assert.NotNil(t, resp.User)
	userRepo.AssertExpectations(t)
}

func TestRegister_InvalidEmail(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(authTestHandler(userRepo))

	body, _ := json.Marshal(map[string]string{
		"email":      "no-es-un-correo",
		"password":   "segura123",
		"first_name": "Ana",
		"last_name":  "García",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeFields(t, rec)
	assert.Equal(t, []string{"Enter a valid email address."}, fields["email"])
	userRepo.AssertNumberOfCalls(t, "Create", 0)
}

func TestRegister_MalformedJSON(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(authTestHandler(userRepo))

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(decodeDetail(t, rec), "JSON parse error - "))
}

func TestLogin_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(authTestHandler(userRepo))

	userRepo.On("GetByEmail", mock.Anything, "ana@uni.mx").
		Return(verifiedStudent(t, "segura123"), nil)

	body, _ := json.Marshal(map[string]string{
		"email":    "ana@uni.mx",
		"password": "segura123",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var tokens domain.TokenPair
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tokens))
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := handlerTestJWTManager().ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testStudentID, claims.UserID)
	assert.Equal(t, domain.RoleStudent, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(authTestHandler(userRepo))

	userRepo.On("GetByEmail", mock.Anything, "ana@uni.mx").
		Return(verifiedStudent(t, "segura123"), nil)

	body, _ := json.Marshal(map[string]string{
		"email":    "ana@uni.mx",
		"password": "incorrecta9",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeFields(t, rec)
	assert.Equal(t, []string{"Correo o contraseña incorrectos."}, fields[apperrors.NonFieldKey])
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(authTestHandler(userRepo))

	user := verifiedStudent(t, "segura123")
	user.EmailVerified = false
	userRepo.On("GetByEmail", mock.Anything, "ana@uni.mx").Return(user, nil)

	body, _ := json.Marshal(map[string]string{
		"email":    "ana@uni.mx",
		"password": "segura123",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeFields(t, rec)
	assert.Equal(t,
		[]string{"Debes verificar tu correo electrónico antes de iniciar sesión."},
		fields[apperrors.NonFieldKey],
	)
}

func TestVerifyEmail_AlreadyVerified(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(authTestHandler(userRepo))

	userRepo.On("GetByID", mock.Anything, testStudentID).
		Return(verifiedStudent(t, "segura123"), nil)

	req := httptest.NewRequest(http.MethodGet,
		"/auth/verify-email/"+testStudentID+"/algun-token", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	userRepo.AssertNumberOfCalls(t, "Update", 0)
}

func TestVerifyEmail_UnknownUser(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(authTestHandler(userRepo))

	userRepo.On("GetByID", mock.Anything, testStudentID).
		Return(nil, apperrors.NotFound("user", testStudentID))

	req := httptest.NewRequest(http.MethodGet,
		"/auth/verify-email/"+testStudentID+"/algun-token", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "El enlace de verificación es inválido o ha expirado.", decodeDetail(t, rec))
}

func TestRefresh_InvalidToken(t *testing.T) {
	userRepo := new(mockUserRepo)
	router := setupAuthRouter(authTestHandler(userRepo))

	body, _ := json.Marshal(map[string]string{"refresh": "no-es-un-jwt"})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "El token dado no es válido para ningún tipo de token.", decodeDetail(t, rec))
}
