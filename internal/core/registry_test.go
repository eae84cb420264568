package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/mumblebot/internal/proto"
)

// offlineSession has registries but no transport.
func offlineSession() *Session {
	s := &Session{events: NewEmitter(), perms: NewPermissionCache()}
	s.users = newUsers(s)
	s.channels = newChannels(s)
	return s
}

func TestUserSyncKeepsAbsentFields(t *testing.T) {
	s := offlineSession()

	u, created, changed := s.users.apply(&proto.UserState{
		Session:   proto.Uint32(3),
		Name:      proto.String("alice"),
		ChannelID: proto.Uint32(2),
		Comment:   proto.String("hi"),
		SelfMute:  proto.Bool(true),
	})
	require.True(t, created)
	require.True(t, changed)
	assert.Equal(t, "alice", u.Name)

	u, created, changed = s.users.apply(&proto.UserState{
		Session: proto.Uint32(3),
		Name:    proto.String(""),
		Deaf:    proto.Bool(true),
	})
	assert.False(t, created)
	assert.True(t, changed)
	assert.Equal(t, "alice", u.Name, "empty string must not overwrite")
	assert.Equal(t, "hi", u.Comment)
	assert.Equal(t, uint32(2), u.ChannelID)
	assert.True(t, u.SelfMute)
	assert.True(t, u.Deaf)
	assert.False(t, u.Registered())
}

func TestUserSyncFalseBoolOverwrites(t *testing.T) {
	s := offlineSession()
	s.users.apply(&proto.UserState{Session: proto.Uint32(3), SelfMute: proto.Bool(true)})

	u, _, changed := s.users.apply(&proto.UserState{Session: proto.Uint32(3), SelfMute: proto.Bool(false)})
	assert.True(t, changed)
	assert.False(t, u.SelfMute)

	_, _, changed = s.users.apply(&proto.UserState{Session: proto.Uint32(3), SelfMute: proto.Bool(false)})
	assert.False(t, changed)
}

func TestUserSnapshotsAreIndependent(t *testing.T) {
	s := offlineSession()
	s.users.apply(&proto.UserState{Session: proto.Uint32(3), UserID: proto.Uint32(10)})

	a, ok := s.users.Get(3)
	require.True(t, ok)
	*a.UserID = 99

	b, _ := s.users.Get(3)
	assert.Equal(t, uint32(10), *b.UserID)
	assert.True(t, b.Registered())
}

func TestUsersLookups(t *testing.T) {
	s := offlineSession()
	s.users.apply(&proto.UserState{Session: proto.Uint32(1), Name: proto.String("a"), ChannelID: proto.Uint32(0)})
	s.users.apply(&proto.UserState{Session: proto.Uint32(2), Name: proto.String("b"), ChannelID: proto.Uint32(5), UserID: proto.Uint32(40)})
	s.users.apply(&proto.UserState{Session: proto.Uint32(3), Name: proto.String("c"), ChannelID: proto.Uint32(5)})

	assert.Equal(t, 3, s.users.Len())

	b, ok := s.users.ByName("b")
	require.True(t, ok)
	assert.Equal(t, uint32(2), b.Session)

	reg, ok := s.users.ByUserID(40)
	require.True(t, ok)
	assert.Equal(t, "b", reg.Name)

	_, ok = s.users.ByName("nobody")
	assert.False(t, ok)

	inFive := s.users.FindAll(func(u User) bool { return u.ChannelID == 5 })
	require.Len(t, inFive, 2)
	assert.Equal(t, "b", inFive[0].Name)
	assert.Equal(t, "c", inFive[1].Name)

	removed, ok := s.users.remove(2)
	require.True(t, ok)
	assert.Equal(t, "b", removed.Name)
	_, ok = s.users.remove(2)
	assert.False(t, ok)

	names := make([]string, 0, 2)
	for _, u := range s.users.All() {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"a", "c"}, names)
}

func TestChannelHierarchy(t *testing.T) {
	s := offlineSession()
	s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(0), Name: proto.String("Root")})
	s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(1), Parent: proto.Uint32(0), Name: proto.String("Lobby")})
	s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(2), Parent: proto.Uint32(0), Name: proto.String("Games")})
	s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(3), Parent: proto.Uint32(2), Name: proto.String("Chess")})
	s.users.apply(&proto.UserState{Session: proto.Uint32(8), Name: proto.String("dave"), ChannelID: proto.Uint32(3)})

	root, ok := s.channels.Root()
	require.True(t, ok)
	_, ok = root.Parent()
	assert.False(t, ok)
	require.Len(t, root.Children(), 2)
	assert.Equal(t, "Lobby", root.Children()[0].Name)

	chess, ok := s.channels.ByName("Chess")
	require.True(t, ok)
	parent, ok := chess.Parent()
	require.True(t, ok)
	assert.Equal(t, "Games", parent.Name)

	require.Len(t, chess.Users(), 1)
	dave := chess.Users()[0]
	in, ok := dave.Channel()
	require.True(t, ok)
	assert.Equal(t, chess.ID, in.ID)
}

func TestChannelMoveUpdatesParent(t *testing.T) {
	s := offlineSession()
	s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(0), Name: proto.String("Root")})
	s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(1), Parent: proto.Uint32(0), Name: proto.String("A")})
	s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(2), Parent: proto.Uint32(0), Name: proto.String("B")})

	c, _, changed := s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(2), Parent: proto.Uint32(1)})
	require.True(t, changed)
	assert.Equal(t, "B", c.Name)

	a, _ := s.channels.Get(1)
	require.Len(t, a.Children(), 1)
	assert.Equal(t, uint32(2), a.Children()[0].ID)
}

func TestChannelLinks(t *testing.T) {
	s := offlineSession()
	for id := uint32(1); id <= 4; id++ {
		s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(id), Parent: proto.Uint32(0)})
	}

	c, _, _ := s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(1), Links: []uint32{2, 3}})
	assert.Equal(t, []uint32{2, 3}, c.Links)

	c, _, changed := s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(1), LinksAdd: []uint32{4, 2}, LinksRemove: []uint32{3}})
	assert.True(t, changed)
	assert.Equal(t, []uint32{2, 4}, c.Links)

	// An empty list is "not sent", not "unlink everything".
	c, _, changed = s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(1), Links: nil})
	assert.False(t, changed)
	assert.Equal(t, []uint32{2, 4}, c.Links)

	s.channels.remove(4)
	linked := c.Linked()
	require.Len(t, linked, 1)
	assert.Equal(t, uint32(2), linked[0].ID)
}

func TestChannelSnapshotLinksAreCopies(t *testing.T) {
	s := offlineSession()
	c, _, _ := s.channels.apply(&proto.ChannelState{ChannelID: proto.Uint32(1), Links: []uint32{2}})
	c.Links[0] = 42

	again, _ := s.channels.Get(1)
	assert.Equal(t, []uint32{2}, again.Links)
}

func TestDetachedSnapshotsFailCommands(t *testing.T) {
	var u User
	assert.ErrorIs(t, u.SendMessage("x"), ErrClientDisconnected)
	_, ok := u.Channel()
	assert.False(t, ok)

	var c Channel
	assert.ErrorIs(t, c.SendMessage("x"), ErrClientDisconnected)
	assert.Nil(t, c.Children())
}

func TestPermissionCache(t *testing.T) {
	c := NewPermissionCache()

	c.apply(&proto.PermissionQuery{ChannelID: proto.Uint32(1)})
	c.apply(&proto.PermissionQuery{Permissions: proto.Uint32(0xf)})
	assert.Zero(t, c.Len())

	c.apply(&proto.PermissionQuery{ChannelID: proto.Uint32(1), Permissions: proto.Uint32(uint32(PermEnter | PermSpeak))})
	c.apply(&proto.PermissionQuery{ChannelID: proto.Uint32(2), Permissions: proto.Uint32(0), Flush: proto.Bool(true)})

	p, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "enter|speak", p.String())

	// Flush is not honoured: channel 1 survives.
	snap := c.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, "none", snap[2].String())
	snap[1] = 0
	p, _ = c.Get(1)
	assert.True(t, p.Has(PermSpeak))

	c.clear()
	_, ok = c.Get(1)
	assert.False(t, ok)
}

func TestFilters(t *testing.T) {
	us := &proto.UserState{Session: proto.Uint32(1), SelfMute: proto.Bool(true)}
	ping := &proto.Ping{}

	var all Filter
	assert.True(t, all.match(ping))

	mute := Match(func(m *proto.UserState) bool { return eqBool(m.SelfMute, true) })
	assert.True(t, mute(us))
	assert.False(t, mute(ping))

	either := AnyOf(mute, OfType(proto.TypePing))
	assert.True(t, either(us))
	assert.True(t, either(ping))
	assert.False(t, either(&proto.TextMessage{}))
}

func TestEmitterOrderAndOff(t *testing.T) {
	e := NewEmitter()
	var got []string

	e.On(EventPacket, func(Event) { got = append(got, "first") })
	off := e.On(EventPacket, func(Event) { got = append(got, "second") })
	e.On(EventPacket, func(Event) { got = append(got, "third") })
	e.On(EventConnect, func(Event) { got = append(got, "connect") })

	e.emit(Event{Kind: EventPacket})
	assert.Equal(t, []string{"first", "second", "third"}, got)

	got = nil
	off()
	off()
	e.emit(Event{Kind: EventPacket})
	assert.Equal(t, []string{"first", "third"}, got)
}
