package service

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jpalomar/CitasGo/internal/auth"
	"github.com/jpalomar/CitasGo/internal/event"
	"github.com/jpalomar/CitasGo/internal/verification"
	pkgkafka "github.com/jpalomar/CitasGo/pkg/kafka"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// newTestEventProducer builds a producer pointed at a broker that is not
// expected to be there. Event publishing is non-fatal in every service, so
// tests only need the publish attempt to fail fast and get logged.
func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaProducer := pkgkafka.NewProducer(
		pkgkafka.DefaultProducerConfig([]string{"localhost:9092"}),
		logger,
	)
	return event.NewProducer(kafkaProducer, logger)
}

// newTestVerificationStore builds a store whose Redis client points at a
// closed port, so Issue fails immediately. Register treats the verification
// email as best-effort, which is the behavior under test.
func newTestVerificationStore() *verification.Store {
	return verification.NewStore(redis.NewClient(&redis.Options{
		Addr:        "localhost:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}))
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-0123456789abcdef", 15*time.Minute, 24*time.Hour)
}

// hashForTest hashes with a low cost so the suite stays fast.
func hashForTest(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	require.NoError(t, err)
	return string(hash)
}
