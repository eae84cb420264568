package proto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the size of the type+length prefix of every frame.
	HeaderSize = 6
	// MaxPayloadSize bounds a single control frame.
	MaxPayloadSize = 8 << 20
)

// ErrFrameTooLarge is returned for frames exceeding MaxPayloadSize.
var ErrFrameTooLarge = errors.New("frame too large")

// New returns an empty message for t, or an *Unknown for types
// without a typed model.
func New(t MessageType) Message {
	switch t {
	case TypeVersion:
		return new(Version)
	case TypeAuthenticate:
		return new(Authenticate)
	case TypePing:
		return new(Ping)
	case TypeReject:
		return new(Reject)
	case TypeServerSync:
		return new(ServerSync)
	case TypeChannelRemove:
		return new(ChannelRemove)
	case TypeChannelState:
		return new(ChannelState)
	case TypeUserRemove:
		return new(UserRemove)
	case TypeUserState:
		return new(UserState)
	case TypeTextMessage:
		return new(TextMessage)
	case TypePermissionDenied:
		return new(PermissionDenied)
	case TypeUserList:
		return new(UserList)
	case TypePermissionQuery:
		return new(PermissionQuery)
	case TypeServerConfig:
		return new(ServerConfig)
	default:
		return &Unknown{Kind: t}
	}
}

// Marshal encodes the payload of m, without a frame header.
func Marshal(m Message) []byte {
	return m.appendPayload(nil)
}

// Decode builds the typed message for t from its payload.
func Decode(t MessageType, payload []byte) (Message, error) {
	m := New(t)
	if err := m.unmarshal(payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return m, nil
}

// Encode returns the framed form of m: header followed by payload.
func Encode(m Message) ([]byte, error) {
	buf := make([]byte, HeaderSize, HeaderSize+64)
	buf = m.appendPayload(buf)

	size := len(buf) - HeaderSize
	if size > MaxPayloadSize {
		return nil, fmt.Errorf("encode %s: %w (%d bytes)", m.Type(), ErrFrameTooLarge, size)
	}
	binary.BigEndian.PutUint16(buf[0:2], uint16(m.Type()))
	binary.BigEndian.PutUint32(buf[2:6], uint32(size))
	return buf, nil
}

// ReadFrame reads one frame from r and returns its type and payload.
// A clean end of stream before any header byte yields io.EOF.
func ReadFrame(r io.Reader) (MessageType, []byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}

	t := MessageType(binary.BigEndian.Uint16(hdr[0:2]))
	size := binary.BigEndian.Uint32(hdr[2:6])
	if size > MaxPayloadSize {
		return t, nil, fmt.Errorf("read %s: %w (%d bytes)", t, ErrFrameTooLarge, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return t, nil, err
	}
	return t, payload, nil
}

// WriteFrame encodes m and writes it to w in a single Write call.
func WriteFrame(w io.Writer, m Message) error {
	buf, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
