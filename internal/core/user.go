package core

import (
	"context"

	"github.com/vovakirdan/mumblebot/internal/proto"
)

// User mirrors a connected user as last reported by the server.
// It is a snapshot: relationship lookups and commands go back
// to the session's registries at call time.
type User struct {
	Session         uint32
	Name            string
	UserID          *uint32
	ChannelID       uint32
	Mute            bool
	Deaf            bool
	Suppress        bool
	SelfMute        bool
	SelfDeaf        bool
	PrioritySpeaker bool
	Recording       bool
	Comment         string
	Hash            string

	sess *Session
}

// Registered reports whether the user has a registered account on the server.
func (u User) Registered() bool {
	return u.UserID != nil
}

// IsSelf reports whether u is the session's own user.
func (u User) IsSelf() bool {
	return u.sess != nil && u.sess.ID() == u.Session
}

// Channel resolves the user's current channel.
func (u User) Channel() (Channel, bool) {
	if u.sess == nil {
		return Channel{}, false
	}
	return u.sess.channels.Get(u.ChannelID)
}

// sync merges the defined fields of us into u.
// Absent fields and empty strings never overwrite stored values.
func (u *User) sync(us *proto.UserState) bool {
	changed := false
	setString := func(dst *string, src *string) {
		if src != nil && *src != "" && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}

	setString(&u.Name, us.Name)
	setString(&u.Comment, us.Comment)
	setString(&u.Hash, us.Hash)
	if us.ChannelID != nil && u.ChannelID != *us.ChannelID {
		u.ChannelID = *us.ChannelID
		changed = true
	}
	if us.UserID != nil && (u.UserID == nil || *u.UserID != *us.UserID) {
		id := *us.UserID
		u.UserID = &id
		changed = true
	}
	setBool(&u.Mute, us.Mute)
	setBool(&u.Deaf, us.Deaf)
	setBool(&u.Suppress, us.Suppress)
	setBool(&u.SelfMute, us.SelfMute)
	setBool(&u.SelfDeaf, us.SelfDeaf)
	setBool(&u.PrioritySpeaker, us.PrioritySpeaker)
	setBool(&u.Recording, us.Recording)
	return changed
}

// refresh returns the registry's current copy of u, or u itself if the
// user is gone.
func (u User) refresh() User {
	if cur, ok := u.sess.users.Get(u.Session); ok {
		return cur
	}
	return u
}

// MoveToChannel asks the server to move u into channelID and waits for the
// UserState confirming the move.
func (u User) MoveToChannel(ctx context.Context, channelID uint32) (User, error) {
	if u.sess == nil {
		return u, ErrClientDisconnected
	}
	_, err := u.sess.Do(ctx, Command{
		Name:   "moveToChannel",
		Packet: &proto.UserState{Session: proto.Uint32(u.Session), ChannelID: proto.Uint32(channelID)},
		Success: Match(func(us *proto.UserState) bool {
			return eqUint32(us.Session, u.Session) && eqUint32(us.ChannelID, channelID)
		}),
		Failure: deniedFor(u.Session),
	})
	if err != nil {
		return u, err
	}
	return u.refresh(), nil
}

// SetSelfMute changes u's self-mute flag and waits for the server to echo it.
// Only the session's own user can be self-muted.
func (u User) SetSelfMute(ctx context.Context, selfMute bool) (User, error) {
	if u.sess == nil {
		return u, ErrClientDisconnected
	}
	_, err := u.sess.Do(ctx, Command{
		Name:   "setSelfMute",
		Packet: &proto.UserState{Session: proto.Uint32(u.Session), SelfMute: proto.Bool(selfMute)},
		Success: Match(func(us *proto.UserState) bool {
			return eqUint32(us.Session, u.Session) && eqBool(us.SelfMute, selfMute)
		}),
		Failure: deniedFor(u.Session),
	})
	if err != nil {
		return u, err
	}
	return u.refresh(), nil
}

// SetSelfDeaf changes u's self-deaf flag and waits for the server to echo it.
// The server also self-mutes a user who self-deafens.
func (u User) SetSelfDeaf(ctx context.Context, selfDeaf bool) (User, error) {
	if u.sess == nil {
		return u, ErrClientDisconnected
	}
	_, err := u.sess.Do(ctx, Command{
		Name:   "setSelfDeaf",
		Packet: &proto.UserState{Session: proto.Uint32(u.Session), SelfDeaf: proto.Bool(selfDeaf)},
		Success: Match(func(us *proto.UserState) bool {
			return eqUint32(us.Session, u.Session) && eqBool(us.SelfDeaf, selfDeaf)
		}),
		Failure: deniedFor(u.Session),
	})
	if err != nil {
		return u, err
	}
	return u.refresh(), nil
}

// SendMessage sends a private text message to u. Delivery is not confirmed.
func (u User) SendMessage(text string) error {
	if u.sess == nil {
		return ErrClientDisconnected
	}
	return u.sess.Send(&proto.TextMessage{Sessions: []uint32{u.Session}, Message: proto.String(text)})
}

// deniedFor matches PermissionDenied packets that concern session,
// or that do not name any session at all.
func deniedFor(session uint32) Filter {
	return Match(func(pd *proto.PermissionDenied) bool {
		return pd.Session == nil || *pd.Session == session
	})
}

// Users is the registry of connected users, keyed by session id.
type Users struct {
	reg  *registry[User]
	sess *Session
}

func newUsers(s *Session) *Users {
	return &Users{
		reg: newRegistry(func(u User) User {
			if u.UserID != nil {
				id := *u.UserID
				u.UserID = &id
			}
			return u
		}),
		sess: s,
	}
}

// Get returns the user with the given session id.
func (r *Users) Get(session uint32) (User, bool) {
	return r.reg.get(session)
}

// ByName returns the first user with the given name.
func (r *Users) ByName(name string) (User, bool) {
	found := r.reg.find(func(u User) bool { return u.Name == name }, 1)
	if len(found) == 0 {
		return User{}, false
	}
	return found[0], true
}

// ByUserID returns the connected user registered under id.
func (r *Users) ByUserID(id uint32) (User, bool) {
	found := r.reg.find(func(u User) bool { return u.UserID != nil && *u.UserID == id }, 1)
	if len(found) == 0 {
		return User{}, false
	}
	return found[0], true
}

// FindAll returns every user satisfying pred, in insertion order.
func (r *Users) FindAll(pred func(User) bool) []User {
	return r.reg.find(pred, 0)
}

// All returns every user in insertion order.
func (r *Users) All() []User {
	return r.reg.find(nil, 0)
}

// Len returns the number of known users.
func (r *Users) Len() int {
	return r.reg.len()
}

func (r *Users) apply(us *proto.UserState) (User, bool, bool) {
	session := *us.Session
	return r.reg.upsert(session,
		func() User { return User{Session: session, sess: r.sess} },
		func(u *User) bool { return u.sync(us) },
	)
}

func (r *Users) remove(session uint32) (User, bool) {
	return r.reg.remove(session)
}
