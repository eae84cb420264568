package core

import "github.com/vovakirdan/mumblebot/internal/proto"

// Filter selects packets from the stream. A nil Filter matches everything.
type Filter func(proto.Message) bool

func (f Filter) match(m proto.Message) bool {
	return f == nil || f(m)
}

// Match returns a Filter accepting packets of type T for which
// every predicate holds.
func Match[T proto.Message](preds ...func(T) bool) Filter {
	return func(m proto.Message) bool {
		v, ok := m.(T)
		if !ok {
			return false
		}
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

// AnyOf returns a Filter accepting packets matched by any of fs.
func AnyOf(fs ...Filter) Filter {
	return func(m proto.Message) bool {
		for _, f := range fs {
			if f.match(m) {
				return true
			}
		}
		return false
	}
}

// OfType returns a Filter accepting packets with one of the given type tags.
func OfType(types ...proto.MessageType) Filter {
	return func(m proto.Message) bool {
		for _, t := range types {
			if m.Type() == t {
				return true
			}
		}
		return false
	}
}

func eqUint32(p *uint32, v uint32) bool {
	return p != nil && *p == v
}

func eqBool(p *bool, v bool) bool {
	return p != nil && *p == v
}
