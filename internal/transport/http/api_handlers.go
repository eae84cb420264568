package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/mumblebot/internal/core"
	"github.com/vovakirdan/mumblebot/internal/proto"
)

// SessionInfo is a point-in-time summary of a session.
type SessionInfo struct {
	State         core.State
	ID            uint32
	WelcomeText   string
	MaxBandwidth  uint32
	ServerVersion *proto.Version
	Users         int
	Channels      int
}

// Source is what the status API reads from.
type Source interface {
	Info() SessionInfo
	Users() []core.User
	User(session uint32) (core.User, bool)
	Channels() []core.Channel
	Channel(id uint32) (core.Channel, bool)
	Permissions() map[uint32]core.Permissions
}

// SessionSource adapts a *core.Session to Source.
type SessionSource struct {
	Session *core.Session
}

func (s SessionSource) Info() SessionInfo {
	return SessionInfo{
		State:         s.Session.State(),
		ID:            s.Session.ID(),
		WelcomeText:   s.Session.WelcomeText(),
		MaxBandwidth:  s.Session.MaxBandwidth(),
		ServerVersion: s.Session.ServerVersion(),
		Users:         s.Session.Users().Len(),
		Channels:      s.Session.Channels().Len(),
	}
}

func (s SessionSource) Users() []core.User { return s.Session.Users().All() }

func (s SessionSource) User(session uint32) (core.User, bool) {
	return s.Session.Users().Get(session)
}

func (s SessionSource) Channels() []core.Channel { return s.Session.Channels().All() }

func (s SessionSource) Channel(id uint32) (core.Channel, bool) {
	return s.Session.Channels().Get(id)
}

func (s SessionSource) Permissions() map[uint32]core.Permissions {
	return s.Session.Permissions().Snapshot()
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusHandlers serves the session's mirrored state.
type StatusHandlers struct {
	src Source
	log *zerolog.Logger
}

// NewStatusHandlers creates a new status handlers instance.
func NewStatusHandlers(src Source, logger *zerolog.Logger) *StatusHandlers {
	return &StatusHandlers{
		src: src,
		log: logger,
	}
}

// Session reports the connection summary.
// GET /api/session
func (h *StatusHandlers) Session(c *gin.Context) {
	c.JSON(http.StatusOK, sessionResponse(h.src.Info()))
}

// ListUsers lists every known user in arrival order.
// GET /api/users
func (h *StatusHandlers) ListUsers(c *gin.Context) {
	self := h.src.Info().ID
	users := h.src.Users()
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse(u, self))
	}
	c.JSON(http.StatusOK, out)
}

// GetUser returns one user.
// GET /api/users/:session
func (h *StatusHandlers) GetUser(c *gin.Context) {
	id, ok := h.parseID(c, "session")
	if !ok {
		return
	}
	u, found := h.src.User(id)
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		return
	}
	c.JSON(http.StatusOK, userResponse(u, h.src.Info().ID))
}

// ListChannels lists every known channel in arrival order.
// GET /api/channels
func (h *StatusHandlers) ListChannels(c *gin.Context) {
	channels := h.src.Channels()
	out := make([]ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, channelResponse(ch))
	}
	c.JSON(http.StatusOK, out)
}

// GetChannel returns one channel.
// GET /api/channels/:id
func (h *StatusHandlers) GetChannel(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	ch, found := h.src.Channel(id)
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "channel not found"})
		return
	}
	c.JSON(http.StatusOK, channelResponse(ch))
}

// ListPermissions returns the permission cache ordered by channel id.
// GET /api/permissions
func (h *StatusHandlers) ListPermissions(c *gin.Context) {
	c.JSON(http.StatusOK, permissionResponses(h.src.Permissions()))
}

func (h *StatusHandlers) parseID(c *gin.Context, param string) (uint32, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		h.log.Debug().Err(err).Str(param, raw).Msg("invalid id in path")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param})
		return 0, false
	}
	return uint32(id), true
}
