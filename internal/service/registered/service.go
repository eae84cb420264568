package registered

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/mumblebot/internal/core"
	"github.com/vovakirdan/mumblebot/internal/proto"
)

// Commander runs correlated commands against a live connection.
// *core.Session satisfies it.
type Commander interface {
	Do(ctx context.Context, cmd core.Command) (proto.Message, error)
}

// User is an entry of the server's registered user list.
type User struct {
	UserID      uint32
	Name        string
	LastSeen    string
	LastChannel *uint32
}

// Service provides registered user management on top of a session.
type Service struct {
	sess    Commander
	log     *zerolog.Logger
	timeout time.Duration
}

// New creates a registered user service. A zero timeout leaves the
// session default in place.
func New(sess Commander, logger *zerolog.Logger, timeout time.Duration) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{sess: sess, log: logger, timeout: timeout}
}

// List fetches the registered user list. The server answers an empty
// UserList with the full list, provided we may register users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	reply, err := s.sess.Do(ctx, core.Command{
		Name:    "listRegisteredUsers",
		Packet:  &proto.UserList{},
		Success: core.OfType(proto.TypeUserList),
		Failure: core.OfType(proto.TypePermissionDenied),
		Timeout: s.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("list registered users: %w", err)
	}

	list := reply.(*proto.UserList)
	users := make([]User, 0, len(list.Users))
	for _, u := range list.Users {
		if u.UserID == nil {
			continue
		}
		users = append(users, User{
			UserID:      u.GetUserID(),
			Name:        u.GetName(),
			LastSeen:    deref(u.LastSeen),
			LastChannel: u.LastChannel,
		})
	}
	s.log.Debug().Int("count", len(users)).Msg("registered users listed")
	return users, nil
}

// ByName returns the registered user called name.
func (s *Service) ByName(ctx context.Context, name string) (User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.Name == name {
			return u, nil
		}
	}
	return User{}, &core.UserNotRegisteredError{Name: name}
}

// Rename changes the name of the registration userID.
func (s *Service) Rename(ctx context.Context, userID uint32, name string) error {
	if name == "" {
		return fmt.Errorf("rename registered user %d: empty name", userID)
	}
	if err := s.update(ctx, "renameRegisteredUser", &proto.UserListUser{
		UserID: proto.Uint32(userID),
		Name:   proto.String(name),
	}); err != nil {
		return err
	}
	s.log.Info().Uint32("user_id", userID).Str("name", name).Msg("registered user renamed")
	return nil
}

// Deregister deletes the registration userID. Mumble treats an entry
// without a name as a deletion.
func (s *Service) Deregister(ctx context.Context, userID uint32) error {
	if err := s.update(ctx, "deregisterUser", &proto.UserListUser{UserID: proto.Uint32(userID)}); err != nil {
		return err
	}
	s.log.Info().Uint32("user_id", userID).Msg("user deregistered")
	return nil
}

// update sends a one-entry UserList. The server does not acknowledge the
// edit itself; the next UserState it broadcasts is taken as confirmation.
func (s *Service) update(ctx context.Context, name string, entry *proto.UserListUser) error {
	_, err := s.sess.Do(ctx, core.Command{
		Name:    name,
		Packet:  &proto.UserList{Users: []*proto.UserListUser{entry}},
		Success: core.OfType(proto.TypeUserState),
		Failure: core.OfType(proto.TypePermissionDenied),
		Timeout: s.timeout,
	})
	if err != nil {
		return fmt.Errorf("%s %d: %w", name, entry.GetUserID(), err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
