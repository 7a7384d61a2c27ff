package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/server/models"
)

func newManager() *Manager {
	return NewManager("secretKey", time.Hour)
}

func TestManager_LoginAndRequire(t *testing.T) {
	m := newManager()

	token, err := m.Login(models.RoleUser, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := m.Require(token, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, session.Role)
	assert.Equal(t, "alice", session.Username)
}

func TestManager_Require_WrongRole(t *testing.T) {
	m := newManager()

	token, err := m.Login(models.RoleAdmin, "")
	require.NoError(t, err)

	_, err = m.Require(token, models.RoleUser)
	assert.ErrorIs(t, err, common.ErrWrongRole)
}

func TestManager_Require_NoToken(t *testing.T) {
	m := newManager()

	_, err := m.Require("", models.RoleUser)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestManager_Logout_InvalidatesUnexpiredToken(t *testing.T) {
	m := newManager()

	token, err := m.Login(models.RoleUser, "alice")
	require.NoError(t, err)

	m.Logout(token)

	_, err = m.Require(token, models.RoleUser)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	// logging out twice is a no-op
	m.Logout(token)
}

func TestManager_Drop(t *testing.T) {
	m := newManager()

	token, err := m.Login(models.RoleUser, "alice")
	require.NoError(t, err)

	session, err := m.Require(token, models.RoleUser)
	require.NoError(t, err)

	m.Drop(session.ID)

	_, err = m.Require(token, models.RoleUser)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	m := newManager()

	aliceToken, err := m.Login(models.RoleUser, "alice")
	require.NoError(t, err)
	bobToken, err := m.Login(models.RoleUser, "bob")
	require.NoError(t, err)

	m.Logout(aliceToken)

	session, err := m.Require(bobToken, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "bob", session.Username)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := newManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := m.Login(models.RoleUser, "alice")
			if err != nil {
				t.Errorf("Login: %v", err)
				return
			}
			if _, err := m.Require(token, models.RoleUser); err != nil {
				t.Errorf("Require: %v", err)
			}
			m.Logout(token)
		}()
	}
	wg.Wait()
}
