package core

import (
	"slices"

	"github.com/vovakirdan/mumblebot/internal/proto"
)

// RootChannelID is the id of the server's root channel.
const RootChannelID uint32 = 0

// Channel mirrors a server channel as last reported by the server.
// Like User it is a snapshot; hierarchy queries resolve by id at call time.
type Channel struct {
	ID          uint32
	Name        string
	ParentID    *uint32
	Description string
	Position    int32
	Temporary   bool
	MaxUsers    uint32
	Links       []uint32

	sess *Session
}

// Parent resolves the parent channel. The root channel has none.
func (c Channel) Parent() (Channel, bool) {
	if c.sess == nil || c.ParentID == nil {
		return Channel{}, false
	}
	return c.sess.channels.Get(*c.ParentID)
}

// Children returns the direct subchannels of c.
func (c Channel) Children() []Channel {
	if c.sess == nil {
		return nil
	}
	return c.sess.channels.FindAll(func(o Channel) bool {
		return o.ParentID != nil && *o.ParentID == c.ID
	})
}

// Users returns the users currently in c.
func (c Channel) Users() []User {
	if c.sess == nil {
		return nil
	}
	return c.sess.users.FindAll(func(u User) bool { return u.ChannelID == c.ID })
}

// Linked returns the channels c is linked to that are still known.
func (c Channel) Linked() []Channel {
	if c.sess == nil {
		return nil
	}
	out := make([]Channel, 0, len(c.Links))
	for _, id := range c.Links {
		if l, ok := c.sess.channels.Get(id); ok {
			out = append(out, l)
		}
	}
	return out
}

// SendMessage posts text to everyone in c. Delivery is not confirmed.
func (c Channel) SendMessage(text string) error {
	if c.sess == nil {
		return ErrClientDisconnected
	}
	return c.sess.Send(&proto.TextMessage{ChannelID: []uint32{c.ID}, Message: proto.String(text)})
}

// sync merges the defined fields of cs into c. Absent fields and empty
// strings leave stored values alone. A non-empty link list replaces the
// stored one; additions and removals are applied on top.
func (c *Channel) sync(cs *proto.ChannelState) bool {
	changed := false

	if cs.Name != nil && *cs.Name != "" && c.Name != *cs.Name {
		c.Name = *cs.Name
		changed = true
	}
	if cs.Description != nil && *cs.Description != "" && c.Description != *cs.Description {
		c.Description = *cs.Description
		changed = true
	}
	if cs.Parent != nil && (c.ParentID == nil || *c.ParentID != *cs.Parent) {
		p := *cs.Parent
		c.ParentID = &p
		changed = true
	}
	if cs.Position != nil && c.Position != *cs.Position {
		c.Position = *cs.Position
		changed = true
	}
	if cs.Temporary != nil && c.Temporary != *cs.Temporary {
		c.Temporary = *cs.Temporary
		changed = true
	}
	if cs.MaxUsers != nil && c.MaxUsers != *cs.MaxUsers {
		c.MaxUsers = *cs.MaxUsers
		changed = true
	}
	if len(cs.Links) > 0 && !slices.Equal(c.Links, cs.Links) {
		c.Links = slices.Clone(cs.Links)
		changed = true
	}
	for _, id := range cs.LinksAdd {
		if !slices.Contains(c.Links, id) {
			c.Links = append(c.Links, id)
			changed = true
		}
	}
	for _, id := range cs.LinksRemove {
		if i := slices.Index(c.Links, id); i >= 0 {
			c.Links = slices.Delete(c.Links, i, i+1)
			changed = true
		}
	}
	return changed
}

// Channels is the registry of server channels, keyed by channel id.
type Channels struct {
	reg  *registry[Channel]
	sess *Session
}

func newChannels(s *Session) *Channels {
	return &Channels{
		reg: newRegistry(func(c Channel) Channel {
			c.Links = slices.Clone(c.Links)
			if c.ParentID != nil {
				p := *c.ParentID
				c.ParentID = &p
			}
			return c
		}),
		sess: s,
	}
}

// Get returns the channel with the given id.
func (r *Channels) Get(id uint32) (Channel, bool) {
	return r.reg.get(id)
}

// Root returns the root channel once it has been observed.
func (r *Channels) Root() (Channel, bool) {
	return r.reg.get(RootChannelID)
}

// ByName returns the first channel with the given name.
func (r *Channels) ByName(name string) (Channel, bool) {
	return r.Find(func(c Channel) bool { return c.Name == name })
}

// Find returns the first channel satisfying pred.
func (r *Channels) Find(pred func(Channel) bool) (Channel, bool) {
	found := r.reg.find(pred, 1)
	if len(found) == 0 {
		return Channel{}, false
	}
	return found[0], true
}

// FindAll returns every channel satisfying pred, in insertion order.
func (r *Channels) FindAll(pred func(Channel) bool) []Channel {
	return r.reg.find(pred, 0)
}

// All returns every channel in insertion order.
func (r *Channels) All() []Channel {
	return r.reg.find(nil, 0)
}

// Len returns the number of known channels.
func (r *Channels) Len() int {
	return r.reg.len()
}

func (r *Channels) apply(cs *proto.ChannelState) (Channel, bool, bool) {
	id := *cs.ChannelID
	return r.reg.upsert(id,
		func() Channel { return Channel{ID: id, sess: r.sess} },
		func(c *Channel) bool { return c.sync(cs) },
	)
}

func (r *Channels) remove(id uint32) (Channel, bool) {
	return r.reg.remove(id)
}
