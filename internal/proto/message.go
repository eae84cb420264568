package proto

// Message is a decoded, typed Mumble control packet.
// Optional fields are pointers so that an absent field can be told
// apart from a zero value.
type Message interface {
	Type() MessageType
	appendPayload(b []byte) []byte
	unmarshal(b []byte) error
}

// Version announces the software version of either peer.
type Version struct {
	VersionV1 *uint32
	VersionV2 *uint64
	Release   *string
	OS        *string
	OSVersion *string
}

func (*Version) Type() MessageType { return TypeVersion }

func (m *Version) appendPayload(b []byte) []byte {
	b = appendUint32(b, 1, m.VersionV1)
	b = appendString(b, 2, m.Release)
	b = appendString(b, 3, m.OS)
	b = appendString(b, 4, m.OSVersion)
	return appendUint64(b, 5, m.VersionV2)
}

func (m *Version) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.VersionV1 = f.uint32()
		case 2:
			m.Release = f.string()
		case 3:
			m.OS = f.string()
		case 4:
			m.OSVersion = f.string()
		case 5:
			m.VersionV2 = f.uint64()
		}
		return nil
	})
}

// GetRelease returns the release string or "".
func (m *Version) GetRelease() string {
	if m == nil || m.Release == nil {
		return ""
	}
	return *m.Release
}

// Authenticate carries the client's credentials.
type Authenticate struct {
	Username   *string
	Password   *string
	Tokens     []string
	Opus       *bool
	ClientType *int32
}

func (*Authenticate) Type() MessageType { return TypeAuthenticate }

func (m *Authenticate) appendPayload(b []byte) []byte {
	b = appendString(b, 1, m.Username)
	b = appendString(b, 2, m.Password)
	b = appendStrings(b, 3, m.Tokens)
	b = appendBool(b, 5, m.Opus)
	return appendInt32(b, 6, m.ClientType)
}

func (m *Authenticate) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Username = f.string()
		case 2:
			m.Password = f.string()
		case 3:
			m.Tokens = append(m.Tokens, *f.string())
		case 5:
			m.Opus = f.bool()
		case 6:
			m.ClientType = f.int32()
		}
		return nil
	})
}

// Ping is the keep-alive exchanged over the control channel.
type Ping struct {
	Timestamp  *uint64
	Good       *uint32
	Late       *uint32
	Lost       *uint32
	Resync     *uint32
	UDPPackets *uint32
	TCPPackets *uint32
	UDPPingAvg *float32
	UDPPingVar *float32
	TCPPingAvg *float32
	TCPPingVar *float32
}

func (*Ping) Type() MessageType { return TypePing }

func (m *Ping) appendPayload(b []byte) []byte {
	b = appendUint64(b, 1, m.Timestamp)
	b = appendUint32(b, 2, m.Good)
	b = appendUint32(b, 3, m.Late)
	b = appendUint32(b, 4, m.Lost)
	b = appendUint32(b, 5, m.Resync)
	b = appendUint32(b, 6, m.UDPPackets)
	b = appendUint32(b, 7, m.TCPPackets)
	b = appendFloat32(b, 8, m.UDPPingAvg)
	b = appendFloat32(b, 9, m.UDPPingVar)
	b = appendFloat32(b, 10, m.TCPPingAvg)
	return appendFloat32(b, 11, m.TCPPingVar)
}

func (m *Ping) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Timestamp = f.uint64()
		case 2:
			m.Good = f.uint32()
		case 3:
			m.Late = f.uint32()
		case 4:
			m.Lost = f.uint32()
		case 5:
			m.Resync = f.uint32()
		case 6:
			m.UDPPackets = f.uint32()
		case 7:
			m.TCPPackets = f.uint32()
		case 8:
			m.UDPPingAvg = f.float32()
		case 9:
			m.UDPPingVar = f.float32()
		case 10:
			m.TCPPingAvg = f.float32()
		case 11:
			m.TCPPingVar = f.float32()
		}
		return nil
	})
}

// Reject is sent by the server when it refuses the handshake.
type Reject struct {
	RejectType *RejectType
	Reason     *string
}

func (*Reject) Type() MessageType { return TypeReject }

func (m *Reject) appendPayload(b []byte) []byte {
	if m.RejectType != nil {
		v := int32(*m.RejectType)
		b = appendInt32(b, 1, &v)
	}
	return appendString(b, 2, m.Reason)
}

func (m *Reject) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			v := RejectType(int32(f.varint))
			m.RejectType = &v
		case 2:
			m.Reason = f.string()
		}
		return nil
	})
}

// GetRejectType returns the reject type or RejectNone.
func (m *Reject) GetRejectType() RejectType {
	if m == nil || m.RejectType == nil {
		return RejectNone
	}
	return *m.RejectType
}

// GetReason returns the reason or "".
func (m *Reject) GetReason() string {
	if m == nil || m.Reason == nil {
		return ""
	}
	return *m.Reason
}

// ServerSync completes a successful handshake.
type ServerSync struct {
	Session      *uint32
	MaxBandwidth *uint32
	WelcomeText  *string
	Permissions  *uint64
}

func (*ServerSync) Type() MessageType { return TypeServerSync }

func (m *ServerSync) appendPayload(b []byte) []byte {
	b = appendUint32(b, 1, m.Session)
	b = appendUint32(b, 2, m.MaxBandwidth)
	b = appendString(b, 3, m.WelcomeText)
	return appendUint64(b, 4, m.Permissions)
}

func (m *ServerSync) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Session = f.uint32()
		case 2:
			m.MaxBandwidth = f.uint32()
		case 3:
			m.WelcomeText = f.string()
		case 4:
			m.Permissions = f.uint64()
		}
		return nil
	})
}

// ChannelRemove announces the deletion of a channel.
type ChannelRemove struct {
	ChannelID *uint32
}

func (*ChannelRemove) Type() MessageType { return TypeChannelRemove }

func (m *ChannelRemove) appendPayload(b []byte) []byte {
	return appendUint32(b, 1, m.ChannelID)
}

func (m *ChannelRemove) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		if f.num == 1 {
			m.ChannelID = f.uint32()
		}
		return nil
	})
}

// ChannelState is a full or partial description of a channel.
type ChannelState struct {
	ChannelID       *uint32
	Parent          *uint32
	Name            *string
	Links           []uint32
	Description     *string
	LinksAdd        []uint32
	LinksRemove     []uint32
	Temporary       *bool
	Position        *int32
	DescriptionHash []byte
	MaxUsers        *uint32
}

func (*ChannelState) Type() MessageType { return TypeChannelState }

func (m *ChannelState) appendPayload(b []byte) []byte {
	b = appendUint32(b, 1, m.ChannelID)
	b = appendUint32(b, 2, m.Parent)
	b = appendString(b, 3, m.Name)
	b = appendUint32s(b, 4, m.Links)
	b = appendString(b, 5, m.Description)
	b = appendUint32s(b, 6, m.LinksAdd)
	b = appendUint32s(b, 7, m.LinksRemove)
	b = appendBool(b, 8, m.Temporary)
	b = appendInt32(b, 9, m.Position)
	b = appendBlob(b, 10, m.DescriptionHash)
	return appendUint32(b, 11, m.MaxUsers)
}

func (m *ChannelState) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			m.ChannelID = f.uint32()
		case 2:
			m.Parent = f.uint32()
		case 3:
			m.Name = f.string()
		case 4:
			m.Links, err = f.uint32s(m.Links)
		case 5:
			m.Description = f.string()
		case 6:
			m.LinksAdd, err = f.uint32s(m.LinksAdd)
		case 7:
			m.LinksRemove, err = f.uint32s(m.LinksRemove)
		case 8:
			m.Temporary = f.bool()
		case 9:
			m.Position = f.int32()
		case 10:
			m.DescriptionHash = f.blob()
		case 11:
			m.MaxUsers = f.uint32()
		}
		return err
	})
}

// UserRemove announces that a user left or was kicked/banned.
type UserRemove struct {
	Session *uint32
	Actor   *uint32
	Reason  *string
	Ban     *bool
}

func (*UserRemove) Type() MessageType { return TypeUserRemove }

func (m *UserRemove) appendPayload(b []byte) []byte {
	b = appendUint32(b, 1, m.Session)
	b = appendUint32(b, 2, m.Actor)
	b = appendString(b, 3, m.Reason)
	return appendBool(b, 4, m.Ban)
}

func (m *UserRemove) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Session = f.uint32()
		case 2:
			m.Actor = f.uint32()
		case 3:
			m.Reason = f.string()
		case 4:
			m.Ban = f.bool()
		}
		return nil
	})
}

// GetReason returns the reason or "".
func (m *UserRemove) GetReason() string {
	if m == nil || m.Reason == nil {
		return ""
	}
	return *m.Reason
}

// UserState is a full or partial description of a connected user.
// Clients send it to change their own (or, with permission, others') state.
type UserState struct {
	Session         *uint32
	Actor           *uint32
	Name            *string
	UserID          *uint32
	ChannelID       *uint32
	Mute            *bool
	Deaf            *bool
	Suppress        *bool
	SelfMute        *bool
	SelfDeaf        *bool
	Comment         *string
	Hash            *string
	PrioritySpeaker *bool
	Recording       *bool
}

func (*UserState) Type() MessageType { return TypeUserState }

func (m *UserState) appendPayload(b []byte) []byte {
	b = appendUint32(b, 1, m.Session)
	b = appendUint32(b, 2, m.Actor)
	b = appendString(b, 3, m.Name)
	b = appendUint32(b, 4, m.UserID)
	b = appendUint32(b, 5, m.ChannelID)
	b = appendBool(b, 6, m.Mute)
	b = appendBool(b, 7, m.Deaf)
	b = appendBool(b, 8, m.Suppress)
	b = appendBool(b, 9, m.SelfMute)
	b = appendBool(b, 10, m.SelfDeaf)
	b = appendString(b, 14, m.Comment)
	b = appendString(b, 15, m.Hash)
	b = appendBool(b, 18, m.PrioritySpeaker)
	return appendBool(b, 19, m.Recording)
}

func (m *UserState) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Session = f.uint32()
		case 2:
			m.Actor = f.uint32()
		case 3:
			m.Name = f.string()
		case 4:
			m.UserID = f.uint32()
		case 5:
			m.ChannelID = f.uint32()
		case 6:
			m.Mute = f.bool()
		case 7:
			m.Deaf = f.bool()
		case 8:
			m.Suppress = f.bool()
		case 9:
			m.SelfMute = f.bool()
		case 10:
			m.SelfDeaf = f.bool()
		case 14:
			m.Comment = f.string()
		case 15:
			m.Hash = f.string()
		case 18:
			m.PrioritySpeaker = f.bool()
		case 19:
			m.Recording = f.bool()
		}
		return nil
	})
}

// GetSession returns the session or 0.
func (m *UserState) GetSession() uint32 {
	if m == nil || m.Session == nil {
		return 0
	}
	return *m.Session
}

// TextMessage is a chat message to users, channels or channel trees.
type TextMessage struct {
	Actor     *uint32
	Sessions  []uint32
	ChannelID []uint32
	TreeID    []uint32
	Message   *string
}

func (*TextMessage) Type() MessageType { return TypeTextMessage }

func (m *TextMessage) appendPayload(b []byte) []byte {
	b = appendUint32(b, 1, m.Actor)
	b = appendUint32s(b, 2, m.Sessions)
	b = appendUint32s(b, 3, m.ChannelID)
	b = appendUint32s(b, 4, m.TreeID)
	return appendString(b, 5, m.Message)
}

func (m *TextMessage) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			m.Actor = f.uint32()
		case 2:
			m.Sessions, err = f.uint32s(m.Sessions)
		case 3:
			m.ChannelID, err = f.uint32s(m.ChannelID)
		case 4:
			m.TreeID, err = f.uint32s(m.TreeID)
		case 5:
			m.Message = f.string()
		}
		return err
	})
}

// PermissionDenied is the server's explicit refusal of a request.
type PermissionDenied struct {
	Permission *uint32
	ChannelID  *uint32
	Session    *uint32
	Reason     *string
	DenyType   *DenyType
	Name       *string
}

func (*PermissionDenied) Type() MessageType { return TypePermissionDenied }

func (m *PermissionDenied) appendPayload(b []byte) []byte {
	b = appendUint32(b, 1, m.Permission)
	b = appendUint32(b, 2, m.ChannelID)
	b = appendUint32(b, 3, m.Session)
	b = appendString(b, 4, m.Reason)
	if m.DenyType != nil {
		v := int32(*m.DenyType)
		b = appendInt32(b, 5, &v)
	}
	return appendString(b, 6, m.Name)
}

func (m *PermissionDenied) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.Permission = f.uint32()
		case 2:
			m.ChannelID = f.uint32()
		case 3:
			m.Session = f.uint32()
		case 4:
			m.Reason = f.string()
		case 5:
			v := DenyType(int32(f.varint))
			m.DenyType = &v
		case 6:
			m.Name = f.string()
		}
		return nil
	})
}

// UserListUser is one registered user in a UserList.
type UserListUser struct {
	UserID      *uint32
	Name        *string
	LastSeen    *string
	LastChannel *uint32
}

// GetName returns the name or "".
func (u *UserListUser) GetName() string {
	if u == nil || u.Name == nil {
		return ""
	}
	return *u.Name
}

// GetUserID returns the registered id or 0.
func (u *UserListUser) GetUserID() uint32 {
	if u == nil || u.UserID == nil {
		return 0
	}
	return *u.UserID
}

func (u *UserListUser) appendPayload(b []byte) []byte {
	b = appendUint32(b, 1, u.UserID)
	b = appendString(b, 2, u.Name)
	b = appendString(b, 3, u.LastSeen)
	return appendUint32(b, 4, u.LastChannel)
}

func (u *UserListUser) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			u.UserID = f.uint32()
		case 2:
			u.Name = f.string()
		case 3:
			u.LastSeen = f.string()
		case 4:
			u.LastChannel = f.uint32()
		}
		return nil
	})
}

// UserList lists, renames or deregisters registered users.
// An empty list sent by the client requests the full list.
type UserList struct {
	Users []*UserListUser
}

func (*UserList) Type() MessageType { return TypeUserList }

func (m *UserList) appendPayload(b []byte) []byte {
	for _, u := range m.Users {
		b = appendBlob(b, 1, u.appendPayload([]byte{}))
	}
	return b
}

func (m *UserList) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		u := new(UserListUser)
		if err := u.unmarshal(f.bytes); err != nil {
			return err
		}
		m.Users = append(m.Users, u)
		return nil
	})
}

// PermissionQuery reports the client's effective permissions in a channel.
type PermissionQuery struct {
	ChannelID   *uint32
	Permissions *uint32
	Flush       *bool
}

func (*PermissionQuery) Type() MessageType { return TypePermissionQuery }

func (m *PermissionQuery) appendPayload(b []byte) []byte {
	b = appendUint32(b, 1, m.ChannelID)
	b = appendUint32(b, 2, m.Permissions)
	return appendBool(b, 3, m.Flush)
}

func (m *PermissionQuery) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.ChannelID = f.uint32()
		case 2:
			m.Permissions = f.uint32()
		case 3:
			m.Flush = f.bool()
		}
		return nil
	})
}

// ServerConfig carries server-wide limits sent after ServerSync.
type ServerConfig struct {
	MaxBandwidth       *uint32
	WelcomeText        *string
	AllowHTML          *bool
	MessageLength      *uint32
	ImageMessageLength *uint32
	MaxUsers           *uint32
	RecordingAllowed   *bool
}

func (*ServerConfig) Type() MessageType { return TypeServerConfig }

func (m *ServerConfig) appendPayload(b []byte) []byte {
	b = appendUint32(b, 1, m.MaxBandwidth)
	b = appendString(b, 2, m.WelcomeText)
	b = appendBool(b, 3, m.AllowHTML)
	b = appendUint32(b, 4, m.MessageLength)
	b = appendUint32(b, 5, m.ImageMessageLength)
	b = appendUint32(b, 6, m.MaxUsers)
	return appendBool(b, 7, m.RecordingAllowed)
}

func (m *ServerConfig) unmarshal(b []byte) error {
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.MaxBandwidth = f.uint32()
		case 2:
			m.WelcomeText = f.string()
		case 3:
			m.AllowHTML = f.bool()
		case 4:
			m.MessageLength = f.uint32()
		case 5:
			m.ImageMessageLength = f.uint32()
		case 6:
			m.MaxUsers = f.uint32()
		case 7:
			m.RecordingAllowed = f.bool()
		}
		return nil
	})
}

// Unknown holds a packet of a type this package does not model.
// The payload is kept verbatim so it can be re-encoded unchanged.
type Unknown struct {
	Kind    MessageType
	Payload []byte
}

func (m *Unknown) Type() MessageType { return m.Kind }

func (m *Unknown) appendPayload(b []byte) []byte { return append(b, m.Payload...) }

func (m *Unknown) unmarshal(b []byte) error {
	m.Payload = append([]byte(nil), b...)
	return nil
}
