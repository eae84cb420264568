package proto

import "fmt"

// ClientVersion is the protocol version this client announces.
var ClientVersion = SemVer{Major: 1, Minor: 4, Patch: 287}

// SemVer is a major.minor.patch protocol version.
type SemVer struct {
	Major, Minor, Patch uint32
}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Legacy packs v into the 32-bit version_v1 layout.
// The patch byte saturates at 255.
func (v SemVer) Legacy() uint32 {
	patch := v.Patch
	if patch > 0xff {
		patch = 0xff
	}
	return (v.Major&0xffff)<<16 | (v.Minor&0xff)<<8 | patch
}

// V2 packs v into the 64-bit version_v2 layout.
func (v SemVer) V2() uint64 {
	return uint64(v.Major&0xffff)<<48 | uint64(v.Minor&0xffff)<<32 | uint64(v.Patch&0xffff)<<16
}

// SemVerOf extracts the version carried by a Version packet,
// preferring the v2 encoding when present.
func SemVerOf(m *Version) SemVer {
	if m == nil {
		return SemVer{}
	}
	if m.VersionV2 != nil {
		v := *m.VersionV2
		return SemVer{
			Major: uint32(v >> 48 & 0xffff),
			Minor: uint32(v >> 32 & 0xffff),
			Patch: uint32(v >> 16 & 0xffff),
		}
	}
	if m.VersionV1 != nil {
		v := *m.VersionV1
		return SemVer{Major: v >> 16 & 0xffff, Minor: v >> 8 & 0xff, Patch: v & 0xff}
	}
	return SemVer{}
}
