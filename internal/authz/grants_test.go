package authz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/forum/internal/model"
	"github.com/sakif/forum/internal/privilege"
)

func TestGrantStoreLowestIgnoresExpired(t *testing.T) {
	s := NewGrantStore()
	user, entity := model.NewID(), model.NewID()
	key := privilege.KeyOf(privilege.ThreadAddMessage)

	s.Add(Grant{User: user, Entity: entity, Privilege: key, Value: 5})
	s.Add(Grant{User: user, Entity: entity, Privilege: key, Value: -3, ExpiresAt: now})

	v, ok := s.Lowest(user, entity, key, now.Add(-time.Second))
	require.True(t, ok)
	assert.Equal(t, privilege.Value(-3), v)

	v, ok = s.Lowest(user, entity, key, now)
	require.True(t, ok)
	assert.Equal(t, privilege.Value(5), v)

	_, ok = s.Lowest(user, model.ZeroID, key, now)
	assert.False(t, ok)
}

func TestGrantStoreSweepExpired(t *testing.T) {
	s := NewGrantStore()
	user := model.NewID()
	key := privilege.KeyOf(privilege.ForumWideLogin)

	for i := 3; i >= 1; i-- {
		s.Add(Grant{User: user, Privilege: key, Value: privilege.Value(i), ExpiresAt: now.Add(time.Duration(i) * time.Minute)})
	}
	s.Add(Grant{User: user, Privilege: key, Value: 10})
	require.Equal(t, 4, s.Len())

	assert.Equal(t, 0, s.SweepExpired(now))
	assert.Equal(t, 2, s.SweepExpired(now.Add(2*time.Minute)))
	assert.Equal(t, 2, s.Len())

	v, ok := s.Lowest(user, model.ZeroID, key, now.Add(2*time.Minute))
	require.True(t, ok)
	assert.Equal(t, privilege.Value(3), v)

	assert.Equal(t, 1, s.SweepExpired(now.Add(time.Hour)))
	assert.Len(t, s.ForUser(user), 1)
}

func TestGrantStoreRevoke(t *testing.T) {
	s := NewGrantStore()
	alice, bob := model.NewID(), model.NewID()
	thread := model.NewID()
	key := privilege.KeyOf(privilege.ThreadChangeName)

	s.Add(Grant{User: alice, Entity: thread, Privilege: key, Value: 1, ExpiresAt: now.Add(time.Hour)})
	s.Add(Grant{User: alice, Privilege: key, Value: 1})
	s.Add(Grant{User: bob, Entity: thread, Privilege: key, Value: 1})

	assert.Equal(t, 2, s.RevokeUser(alice))
	assert.Empty(t, s.ForUser(alice))
	assert.Equal(t, 0, s.SweepExpired(now.Add(2*time.Hour)), "revoked grants leave the expiry list")

	assert.Equal(t, 1, s.RevokeEntity(thread))
	assert.Equal(t, 0, s.Len())
}

func TestDefaultsByName(t *testing.T) {
	var d Defaults
	require.NoError(t, d.SetLevel("message.view", 1))
	require.NoError(t, d.SetLevel("forum_wide.add_user", 2))
	require.NoError(t, d.SetDuration("message.change_content", time.Hour))

	v, ok := d.Messages.Get(privilege.MessageView)
	assert.True(t, ok)
	assert.Equal(t, privilege.Value(1), v)

	v, _ = d.ForumWide.Get(privilege.ForumWideAddUser)
	assert.Equal(t, privilege.Value(2), v)

	dur, _ := d.MessageDurations.Get(privilege.DurationChangeContent)
	assert.Equal(t, time.Hour, dur)

	assert.Error(t, d.SetLevel("message", 1))
	assert.Error(t, d.SetLevel("message.fly", 1))
	assert.Error(t, d.SetLevel("message.view", 32001))
	assert.Error(t, d.SetDuration("thread.change_content", time.Hour))
}
