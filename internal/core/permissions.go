package core

import (
	"strings"
	"sync"

	"github.com/vovakirdan/mumblebot/internal/proto"
)

// Permissions is the set of ACL rights the server grants in a channel.
type Permissions uint32

const (
	PermWrite            Permissions = 0x1
	PermTraverse         Permissions = 0x2
	PermEnter            Permissions = 0x4
	PermSpeak            Permissions = 0x8
	PermMuteDeafen       Permissions = 0x10
	PermMove             Permissions = 0x20
	PermMakeChannel      Permissions = 0x40
	PermLinkChannel      Permissions = 0x80
	PermWhisper          Permissions = 0x100
	PermTextMessage      Permissions = 0x200
	PermMakeTempChannel  Permissions = 0x400
	PermListen           Permissions = 0x800
	PermKick             Permissions = 0x10000
	PermBan              Permissions = 0x20000
	PermRegister         Permissions = 0x40000
	PermSelfRegister     Permissions = 0x80000
	PermResetUserContent Permissions = 0x100000
)

var permNames = []struct {
	p    Permissions
	name string
}{
	{PermWrite, "write"},
	{PermTraverse, "traverse"},
	{PermEnter, "enter"},
	{PermSpeak, "speak"},
	{PermMuteDeafen, "mute_deafen"},
	{PermMove, "move"},
	{PermMakeChannel, "make_channel"},
	{PermLinkChannel, "link_channel"},
	{PermWhisper, "whisper"},
	{PermTextMessage, "text_message"},
	{PermMakeTempChannel, "make_temp_channel"},
	{PermListen, "listen"},
	{PermKick, "kick"},
	{PermBan, "ban"},
	{PermRegister, "register"},
	{PermSelfRegister, "self_register"},
	{PermResetUserContent, "reset_user_content"},
}

// Has reports whether every right in want is granted.
func (p Permissions) Has(want Permissions) bool {
	return p&want == want
}

// Names lists the granted rights in bit order.
func (p Permissions) Names() []string {
	names := make([]string, 0, len(permNames))
	for _, pn := range permNames {
		if p.Has(pn.p) {
			names = append(names, pn.name)
		}
	}
	return names
}

func (p Permissions) String() string {
	if p == 0 {
		return "none"
	}
	return strings.Join(p.Names(), "|")
}

// PermissionCache remembers the last permission set the server pushed
// for each channel. It is filled only by PermissionQuery packets; entries
// never expire and a miss means "not observed yet".
type PermissionCache struct {
	mu      sync.RWMutex
	entries map[uint32]Permissions
}

// NewPermissionCache returns an empty cache.
func NewPermissionCache() *PermissionCache {
	return &PermissionCache{entries: make(map[uint32]Permissions)}
}

// Get returns the cached permissions for channelID.
func (c *PermissionCache) Get(channelID uint32) (Permissions, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[channelID]
	return p, ok
}

// Snapshot returns a copy of every entry.
func (c *PermissionCache) Snapshot() map[uint32]Permissions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[uint32]Permissions, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of cached channels.
func (c *PermissionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// apply records pq. Packets without a channel id or without a
// permission set are ignored; the flush flag is not honoured.
func (c *PermissionCache) apply(pq *proto.PermissionQuery) {
	if pq.ChannelID == nil || pq.Permissions == nil {
		return
	}
	c.mu.Lock()
	c.entries[*pq.ChannelID] = Permissions(*pq.Permissions)
	c.mu.Unlock()
}

func (c *PermissionCache) clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}
