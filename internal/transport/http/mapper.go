package http

import (
	"sort"

	"github.com/vovakirdan/mumblebot/internal/core"
	"github.com/vovakirdan/mumblebot/internal/proto"
)

// SessionResponse describes the connection as a whole.
type SessionResponse struct {
	State         string `json:"state"`
	Session       uint32 `json:"session"`
	WelcomeText   string `json:"welcome_text,omitempty"`
	MaxBandwidth  uint32 `json:"max_bandwidth,omitempty"`
	ServerVersion string `json:"server_version,omitempty"`
	ServerRelease string `json:"server_release,omitempty"`
	ServerOS      string `json:"server_os,omitempty"`
	Users         int    `json:"users"`
	Channels      int    `json:"channels"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	Session         uint32  `json:"session"`
	Name            string  `json:"name"`
	UserID          *uint32 `json:"user_id,omitempty"`
	ChannelID       uint32  `json:"channel_id"`
	Mute            bool    `json:"mute"`
	Deaf            bool    `json:"deaf"`
	Suppress        bool    `json:"suppress"`
	SelfMute        bool    `json:"self_mute"`
	SelfDeaf        bool    `json:"self_deaf"`
	PrioritySpeaker bool    `json:"priority_speaker"`
	Recording       bool    `json:"recording"`
	Comment         string  `json:"comment,omitempty"`
	Self            bool    `json:"self"`
}

// ChannelResponse represents a channel in API responses.
type ChannelResponse struct {
	ID          uint32   `json:"id"`
	Name        string   `json:"name"`
	ParentID    *uint32  `json:"parent_id,omitempty"`
	Description string   `json:"description,omitempty"`
	Position    int32    `json:"position"`
	Temporary   bool     `json:"temporary"`
	MaxUsers    uint32   `json:"max_users,omitempty"`
	Links       []uint32 `json:"links"`
}

// PermissionResponse is the cached permission set of one channel.
type PermissionResponse struct {
	ChannelID uint32   `json:"channel_id"`
	Bits      uint32   `json:"bits"`
	Names     []string `json:"names"`
}

func sessionResponse(info SessionInfo) SessionResponse {
	resp := SessionResponse{
		State:        info.State.String(),
		Session:      info.ID,
		WelcomeText:  info.WelcomeText,
		MaxBandwidth: info.MaxBandwidth,
		Users:        info.Users,
		Channels:     info.Channels,
	}
	if v := info.ServerVersion; v != nil {
		resp.ServerVersion = proto.SemVerOf(v).String()
		if v.Release != nil {
			resp.ServerRelease = *v.Release
		}
		if v.OS != nil {
			resp.ServerOS = *v.OS
		}
	}
	return resp
}

func userResponse(u core.User, selfID uint32) UserResponse {
	return UserResponse{
		Session:         u.Session,
		Name:            u.Name,
		UserID:          u.UserID,
		ChannelID:       u.ChannelID,
		Mute:            u.Mute,
		Deaf:            u.Deaf,
		Suppress:        u.Suppress,
		SelfMute:        u.SelfMute,
		SelfDeaf:        u.SelfDeaf,
		PrioritySpeaker: u.PrioritySpeaker,
		Recording:       u.Recording,
		Comment:         u.Comment,
		Self:            selfID != 0 && u.Session == selfID,
	}
}

func channelResponse(c core.Channel) ChannelResponse {
	links := c.Links
	if links == nil {
		links = []uint32{}
	}
	return ChannelResponse{
		ID:          c.ID,
		Name:        c.Name,
		ParentID:    c.ParentID,
		Description: c.Description,
		Position:    c.Position,
		Temporary:   c.Temporary,
		MaxUsers:    c.MaxUsers,
		Links:       links,
	}
}

func permissionResponses(perms map[uint32]core.Permissions) []PermissionResponse {
	out := make([]PermissionResponse, 0, len(perms))
	for id, p := range perms {
		out = append(out, PermissionResponse{ChannelID: id, Bits: uint32(p), Names: p.Names()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChannelID < out[j].ChannelID })
	return out
}
