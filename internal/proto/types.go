package proto

import "strconv"

// MessageType is the numeric tag carried in every frame header.
type MessageType uint16

const (
	TypeVersion MessageType = iota
	TypeUDPTunnel
	TypeAuthenticate
	TypePing
	TypeReject
	TypeServerSync
	TypeChannelRemove
	TypeChannelState
	TypeUserRemove
	TypeUserState
	TypeBanList
	TypeTextMessage
	TypePermissionDenied
	TypeACL
	TypeQueryUsers
	TypeCryptSetup
	TypeContextActionModify
	TypeContextAction
	TypeUserList
	TypeVoiceTarget
	TypePermissionQuery
	TypeCodecVersion
	TypeUserStats
	TypeRequestBlob
	TypeServerConfig
	TypeSuggestConfig
)

var typeNames = [...]string{
	TypeVersion:             "Version",
	TypeUDPTunnel:           "UDPTunnel",
	TypeAuthenticate:        "Authenticate",
	TypePing:                "Ping",
	TypeReject:              "Reject",
	TypeServerSync:          "ServerSync",
	TypeChannelRemove:       "ChannelRemove",
	TypeChannelState:        "ChannelState",
	TypeUserRemove:          "UserRemove",
	TypeUserState:           "UserState",
	TypeBanList:             "BanList",
	TypeTextMessage:         "TextMessage",
	TypePermissionDenied:    "PermissionDenied",
	TypeACL:                 "ACL",
	TypeQueryUsers:          "QueryUsers",
	TypeCryptSetup:          "CryptSetup",
	TypeContextActionModify: "ContextActionModify",
	TypeContextAction:       "ContextAction",
	TypeUserList:            "UserList",
	TypeVoiceTarget:         "VoiceTarget",
	TypePermissionQuery:     "PermissionQuery",
	TypeCodecVersion:        "CodecVersion",
	TypeUserStats:           "UserStats",
	TypeRequestBlob:         "RequestBlob",
	TypeServerConfig:        "ServerConfig",
	TypeSuggestConfig:       "SuggestConfig",
}

func (t MessageType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "MessageType(" + strconv.Itoa(int(t)) + ")"
}

// RejectType is the machine readable cause of a Reject packet.
type RejectType int32

const (
	RejectNone RejectType = iota
	RejectWrongVersion
	RejectInvalidUsername
	RejectWrongUserPW
	RejectWrongServerPW
	RejectUsernameInUse
	RejectServerFull
	RejectNoCertificate
	RejectAuthenticatorFail
	RejectNoNewConnections
)

var rejectNames = [...]string{
	RejectNone:              "None",
	RejectWrongVersion:      "WrongVersion",
	RejectInvalidUsername:   "InvalidUsername",
	RejectWrongUserPW:       "WrongUserPW",
	RejectWrongServerPW:     "WrongServerPW",
	RejectUsernameInUse:     "UsernameInUse",
	RejectServerFull:        "ServerFull",
	RejectNoCertificate:     "NoCertificate",
	RejectAuthenticatorFail: "AuthenticatorFail",
	RejectNoNewConnections:  "NoNewConnections",
}

func (t RejectType) String() string {
	if t >= 0 && int(t) < len(rejectNames) {
		return rejectNames[t]
	}
	return "RejectType(" + strconv.Itoa(int(t)) + ")"
}

// DenyType classifies a PermissionDenied packet.
type DenyType int32

const (
	DenyText DenyType = iota
	DenyPermission
	DenySuperUser
	DenyChannelName
	DenyTextTooLong
	DenyH9K
	DenyTemporaryChannel
	DenyMissingCertificate
	DenyUserName
	DenyChannelFull
	DenyNestingLimit
	DenyChannelCountLimit
	DenyChannelListenerLimit
	DenyUserListenerLimit
)

var denyNames = [...]string{
	DenyText:                 "Text",
	DenyPermission:           "Permission",
	DenySuperUser:            "SuperUser",
	DenyChannelName:          "ChannelName",
	DenyTextTooLong:          "TextTooLong",
	DenyH9K:                  "H9K",
	DenyTemporaryChannel:     "TemporaryChannel",
	DenyMissingCertificate:   "MissingCertificate",
	DenyUserName:             "UserName",
	DenyChannelFull:          "ChannelFull",
	DenyNestingLimit:         "NestingLimit",
	DenyChannelCountLimit:    "ChannelCountLimit",
	DenyChannelListenerLimit: "ChannelListenerLimit",
	DenyUserListenerLimit:    "UserListenerLimit",
}

func (t DenyType) String() string {
	if t >= 0 && int(t) < len(denyNames) {
		return denyNames[t]
	}
	return "DenyType(" + strconv.Itoa(int(t)) + ")"
}
