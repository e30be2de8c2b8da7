package client

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClaims_RejectsMalformedStructure(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "no dots", token: "notatoken"},
		{name: "two segments", token: "aaa.bbb"},
		{name: "four segments", token: "a.b.c.d"},
		{name: "claims segment not base64", token: "aaa.!!!.ccc"},
		{name: "claims segment not JSON", token: "aaa." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".ccc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := DecodeClaims(tt.token)
			require.Error(t, err)
			assert.True(t, identity.IsZero())
		})
	}
}

func TestDecodeClaims_MissingFieldsDefaultToEmpty(t *testing.T) {
	token := mintToken(t, map[string]any{"email": "ana@uni.edu"})

	identity, err := DecodeClaims(token)
	require.NoError(t, err)

	assert.Equal(t, "ana@uni.edu", identity.Email)
	assert.Equal(t, "", identity.ID)
	assert.Equal(t, "", identity.Role)
	assert.Equal(t, "", identity.FullName)
	assert.False(t, identity.EmailVerified)
}

func TestDecodeClaims_ToleratesNumericUserID(t *testing.T) {
	token := mintToken(t, map[string]any{"user_id": 42, "rol": RoleStudent})

	identity, err := DecodeClaims(token)
	require.NoError(t, err)

	assert.Equal(t, "42", identity.ID)
	assert.Equal(t, RoleStudent, identity.Role)
}

func TestDecodeClaims_FullClaims(t *testing.T) {
	token := mintToken(t, map[string]any{
		"user_id":        "u-1",
		"email":          "ana@uni.edu",
		"rol":            RoleSpecialist,
		"full_name":      "Ana Torres",
		"email_verified": true,
	})

	identity, err := DecodeClaims(token)
	require.NoError(t, err)

	assert.Equal(t, Identity{
		ID:            "u-1",
		Email:         "ana@uni.edu",
		Role:          RoleSpecialist,
		FullName:      "Ana Torres",
		EmailVerified: true,
	}, identity)
}

func TestSession_RestoreWithoutPersistedToken(t *testing.T) {
	session := NewSession(NewMemoryTokenStore(), nil, testLogger())

	session.Restore(context.Background())

	assert.False(t, session.IsAuthenticated())
	assert.Empty(t, session.AccessToken())
}

func TestSession_RestoreClearsUndecodableToken(t *testing.T) {
	store := NewMemoryTokenStore()
	require.NoError(t, store.Save("garbage-token", "refresh"))
	session := NewSession(store, nil, testLogger())

	session.Restore(context.Background())

	assert.False(t, session.IsAuthenticated())
	access, refresh, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestSession_RestoreRebuildsIdentity(t *testing.T) {
	token := mintToken(t, map[string]any{"user_id": "u-1", "rol": RoleStudent})
	store := NewMemoryTokenStore()
	require.NoError(t, store.Save(token, "refresh-1"))
	session := NewSession(store, nil, testLogger())

	session.Restore(context.Background())

	assert.True(t, session.IsAuthenticated())
	assert.Equal(t, RoleStudent, session.Role())
	assert.Equal(t, token, session.AccessToken())
	assert.Equal(t, "refresh-1", session.RefreshToken())
}

func TestSession_EstablishNavigatesByRole(t *testing.T) {
	tests := []struct {
		role      string
		wantRoute string
	}{
		{role: RoleStudent, wantRoute: RouteStudentHome},
		{role: RoleSpecialist, wantRoute: RouteSpecialistHome},
		{role: RoleAdmin, wantRoute: RouteHome},
		{role: "", wantRoute: RouteHome},
	}

	for _, tt := range tests {
		t.Run("role "+tt.role, func(t *testing.T) {
			nav := &navRecorder{}
			session := NewSession(NewMemoryTokenStore(), nav, testLogger())
			token := mintToken(t, map[string]any{"user_id": "u-1", "rol": tt.role})

			require.NoError(t, session.Establish(context.Background(), token, "refresh"))

			assert.Equal(t, tt.wantRoute, nav.last())
		})
	}
}

func TestSession_EstablishRejectsMalformedToken(t *testing.T) {
	nav := &navRecorder{}
	store := NewMemoryTokenStore()
	session := NewSession(store, nav, testLogger())

	err := session.Establish(context.Background(), "only.two", "refresh")

	require.Error(t, err)
	assert.False(t, session.IsAuthenticated())
	assert.Empty(t, nav.last())
	access, _, loadErr := store.Load()
	require.NoError(t, loadErr)
	assert.Empty(t, access, "malformed token must not be persisted")
}

func TestSession_ClearWipesEverything(t *testing.T) {
	nav := &navRecorder{}
	store := NewMemoryTokenStore()
	session := NewSession(store, nav, testLogger())
	token := mintToken(t, map[string]any{"user_id": "u-1", "rol": RoleStudent})
	require.NoError(t, session.Establish(context.Background(), token, "refresh"))

	session.Clear()

	assert.False(t, session.IsAuthenticated())
	assert.Empty(t, session.AccessToken())
	assert.Equal(t, RouteLogin, nav.last())
	access, _, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, access)
}

func TestSession_ConcurrentEstablishAndClear(t *testing.T) {
	session := NewSession(NewMemoryTokenStore(), nil, testLogger())
	token := mintToken(t, map[string]any{"user_id": "u-1", "rol": RoleStudent})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = session.Establish(context.Background(), token, "refresh")
		}()
		go func() {
			defer wg.Done()
			session.Clear()
		}()
	}
	wg.Wait()

	// Whichever mutation landed last, identity and token must agree.
	if session.IsAuthenticated() {
		assert.Equal(t, token, session.AccessToken())
	} else {
		assert.Empty(t, session.AccessToken())
	}
}
