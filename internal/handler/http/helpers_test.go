package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jpalomar/CitasGo/internal/auth"
	"github.com/jpalomar/CitasGo/internal/domain"
	"github.com/jpalomar/CitasGo/internal/event"
	"github.com/jpalomar/CitasGo/internal/service"
	"github.com/jpalomar/CitasGo/internal/verification"
	pkgkafka "github.com/jpalomar/CitasGo/pkg/kafka"
	"github.com/jpalomar/CitasGo/pkg/middleware"
)

const (
	testSpecialistID = "550e8400-e29b-41d4-a716-446655440001"
	testStudentID    = "550e8400-e29b-41d4-a716-446655440002"
	testSlotID       = "550e8400-e29b-41d4-a716-446655440003"
	testApptID       = "550e8400-e29b-41d4-a716-446655440004"
	testNotifID      = "550e8400-e29b-41d4-a716-446655440005"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) CountUsernamePrefix(ctx context.Context, username string) (int, error) {
	args := m.Called(ctx, username)
	return args.Int(0), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockSlotRepo struct {
	mock.Mock
}

func (m *mockSlotRepo) Create(ctx context.Context, slot *domain.Slot) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

func (m *mockSlotRepo) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Slot), args.Error(1)
}

func (m *mockSlotRepo) ListBySpecialist(ctx context.Context, specialistID string) ([]domain.Slot, error) {
	args := m.Called(ctx, specialistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Slot), args.Error(1)
}

func (m *mockSlotRepo) ListAvailable(ctx context.Context) ([]domain.Slot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Slot), args.Error(1)
}

func (m *mockSlotRepo) Exists(ctx context.Context, specialistID, date, startTime string) (bool, error) {
	args := m.Called(ctx, specialistID, date, startTime)
	return args.Bool(0), args.Error(1)
}

func (m *mockSlotRepo) HasAppointment(ctx context.Context, slotID string) (bool, error) {
	args := m.Called(ctx, slotID)
	return args.Bool(0), args.Error(1)
}

func (m *mockSlotRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockApptRepo struct {
	mock.Mock
}

func (m *mockApptRepo) Book(ctx context.Context, appt *domain.Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *mockApptRepo) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *mockApptRepo) ListByStudent(ctx context.Context, studentID string) ([]domain.Appointment, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Appointment), args.Error(1)
}

func (m *mockApptRepo) ListBySpecialist(ctx context.Context, specialistID string) ([]domain.Appointment, error) {
	args := m.Called(ctx, specialistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Appointment), args.Error(1)
}

func (m *mockApptRepo) HasActiveForStudent(ctx context.Context, studentID string) (bool, error) {
	args := m.Called(ctx, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *mockApptRepo) UpdateStatus(ctx context.Context, id, status string, releaseSlot bool) error {
	args := m.Called(ctx, id, status, releaseSlot)
	return args.Error(0)
}

type mockNotifRepo struct {
	mock.Mock
}

func (m *mockNotifRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockNotifRepo) ListByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *mockNotifRepo) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// nopMailer satisfies mailer.Sender without sending anything.
type nopMailer struct{}

func (nopMailer) SendVerification(toEmail, fullName, verifyURL string) error { return nil }

func (nopMailer) SendAppointmentStatus(toEmail, fullName, status, date, startTime string) error {
	return nil
}

// ============================================================================
// Test Helpers
// ============================================================================

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestProducer() *event.Producer {
	logger := handlerTestLogger()
	kafkaProducer := pkgkafka.NewProducer(
		pkgkafka.DefaultProducerConfig([]string{"localhost:19092"}),
		logger,
	)
	return event.NewProducer(kafkaProducer, logger)
}

func handlerTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-0123456789abcdef", 15*time.Minute, 24*time.Hour)
}

// handlerTestVerificationStore points at a closed port so token issuance
// fails fast; registration treats the verification email as best-effort.
func handlerTestVerificationStore() *verification.Store {
	return verification.NewStore(redis.NewClient(&redis.Options{
		Addr:        "localhost:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}))
}

func hashForTest(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	require.NoError(t, err)
	return string(hash)
}

// fakeTokenValidator returns a middleware.TokenValidator that always succeeds
// with the given identity.
func fakeTokenValidator(userID, role string) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		return &middleware.Claims{
			UserID: userID,
			Email:  "test@uni.mx",
			Role:   role,
		}, nil
	}
}

func authTestHandler(userRepo *mockUserRepo) *AuthHandler {
	svc := service.NewUserService(
		userRepo,
		handlerTestJWTManager(),
		handlerTestVerificationStore(),
		nopMailer{},
		"http://localhost:5173",
		handlerTestLogger(),
	)
	return NewAuthHandler(svc, handlerTestLogger())
}

func scheduleTestHandler(slotRepo *mockSlotRepo) *ScheduleHandler {
	svc := service.NewScheduleService(slotRepo, handlerTestProducer(), handlerTestLogger())
	return NewScheduleHandler(svc, handlerTestLogger())
}

func appointmentTestHandler(apptRepo *mockApptRepo, slotRepo *mockSlotRepo) *AppointmentHandler {
	svc := service.NewAppointmentService(apptRepo, slotRepo, handlerTestProducer(), handlerTestLogger())
	return NewAppointmentHandler(svc, handlerTestLogger())
}

// setupScheduleRouter mirrors the production routes for availability slots.
func setupScheduleRouter(h *ScheduleHandler, userID, role string) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/agenda/horarios", func(r chi.Router) {
		r.Use(middleware.Auth(fakeTokenValidator(userID, role)))
		r.Get("/", h.List)
		r.With(ContentTypeJSON, middleware.RequireRole(domain.RoleSpecialist, domain.RoleAdmin)).
			Post("/", h.Create)
		r.With(middleware.RequireRole(domain.RoleSpecialist, domain.RoleAdmin)).
			Delete("/{id}", h.Delete)
	})
	return r
}

// setupAppointmentRouter mirrors the production routes for appointments.
func setupAppointmentRouter(h *AppointmentHandler, userID, role string) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/citas/citas", func(r chi.Router) {
		r.Use(middleware.Auth(fakeTokenValidator(userID, role)))
		r.Get("/", h.List)
		r.With(ContentTypeJSON, middleware.RequireRole(domain.RoleStudent)).
			Post("/", h.Book)
		r.Route("/{id}", func(r chi.Router) {
			r.With(middleware.RequireRole(domain.RoleStudent)).
				Post("/cancelar", h.Cancel)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleSpecialist, domain.RoleAdmin))
				r.Post("/confirmar", h.Confirm)
				r.Post("/rechazar", h.Reject)
				r.Post("/completar", h.Complete)
			})
		})
	})
	return r
}

func setupAuthRouter(h *AuthHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.With(ContentTypeJSON).Post("/register", h.Register)
		r.With(ContentTypeJSON).Post("/login", h.Login)
		r.With(ContentTypeJSON).Post("/refresh", h.Refresh)
		r.Get("/verify-email/{uid}/{token}", h.VerifyEmail)
	})
	return r
}

func setupNotificationRouter(h *NotificationHandler, userID, role string) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/notificaciones", func(r chi.Router) {
		r.Use(middleware.Auth(fakeTokenValidator(userID, role)))
		r.Get("/", h.List)
		r.Post("/{id}/leer", h.MarkRead)
	})
	return r
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Detail
}

func decodeFields(t *testing.T, rec *httptest.ResponseRecorder) map[string][]string {
	t.Helper()
	var body map[string][]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}
