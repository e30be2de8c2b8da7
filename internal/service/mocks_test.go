package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jpalomar/CitasGo/internal/domain"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepository) CountUsernamePrefix(ctx context.Context, username string) (int, error) {
	args := m.Called(ctx, username)
	return args.Int(0), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockSlotRepository struct {
	mock.Mock
}

func (m *mockSlotRepository) Create(ctx context.Context, slot *domain.Slot) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

func (m *mockSlotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*domain.Slot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSlotRepository) ListBySpecialist(ctx context.Context, specialistID string) ([]domain.Slot, error) {
	args := m.Called(ctx, specialistID)
	if s := args.Get(0); s != nil {
		return s.([]domain.Slot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSlotRepository) ListAvailable(ctx context.Context) ([]domain.Slot, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]domain.Slot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSlotRepository) Exists(ctx context.Context, specialistID, date, startTime string) (bool, error) {
	args := m.Called(ctx, specialistID, date, startTime)
	return args.Bool(0), args.Error(1)
}

func (m *mockSlotRepository) HasAppointment(ctx context.Context, slotID string) (bool, error) {
	args := m.Called(ctx, slotID)
	return args.Bool(0), args.Error(1)
}

func (m *mockSlotRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockAppointmentRepository struct {
	mock.Mock
}

func (m *mockAppointmentRepository) Book(ctx context.Context, appt *domain.Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *mockAppointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*domain.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAppointmentRepository) ListByStudent(ctx context.Context, studentID string) ([]domain.Appointment, error) {
	args := m.Called(ctx, studentID)
	if a := args.Get(0); a != nil {
		return a.([]domain.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAppointmentRepository) ListBySpecialist(ctx context.Context, specialistID string) ([]domain.Appointment, error) {
	args := m.Called(ctx, specialistID)
	if a := args.Get(0); a != nil {
		return a.([]domain.Appointment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAppointmentRepository) HasActiveForStudent(ctx context.Context, studentID string) (bool, error) {
	args := m.Called(ctx, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAppointmentRepository) UpdateStatus(ctx context.Context, id, status string, releaseSlot bool) error {
	args := m.Called(ctx, id, status, releaseSlot)
	return args.Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendVerification(toEmail, fullName, verifyURL string) error {
	args := m.Called(toEmail, fullName, verifyURL)
	return args.Error(0)
}

func (m *mockMailer) SendAppointmentStatus(toEmail, fullName, status, date, startTime string) error {
	args := m.Called(toEmail, fullName, status, date, startTime)
	return args.Error(0)
}
