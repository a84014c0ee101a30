package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sk-platform/skauth/pkg/models"
	"github.com/sk-platform/skauth/pkg/store"
)

const testSecret = "test-secret-key-that-is-long-enough!"

func newTestStore(t *testing.T) *store.GORMStore {
	t.Helper()

	st, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()

	svc, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)
	return svc
}

func createTestUser(t *testing.T, st store.Store, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email: email,
		Role:  string(models.RoleViewer),
	}
	id, err := st.CreateUser(t.Context(), user)
	require.NoError(t, err)
	user.ID = id
	return user
}
