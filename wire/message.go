package wire

import "github.com/keybuk/nih-dbus/dbustype"

// Type is the D-Bus message type.
type Type byte

const (
	TypeInvalid      Type = 0
	TypeMethodCall   Type = 1
	TypeMethodReturn Type = 2
	TypeError        Type = 3
	TypeSignal       Type = 4
)

func (t Type) String() string {
	switch t {
	case TypeMethodCall:
		return "method_call"
	case TypeMethodReturn:
		return "method_return"
	case TypeError:
		return "error"
	case TypeSignal:
		return "signal"
	default:
		return "invalid"
	}
}

// Flags carries the per-message behavioural flags.
type Flags byte

const (
	FlagNoReplyExpected               Flags = 1 << 0
	FlagNoAutoStart                   Flags = 1 << 1
	FlagAllowInteractiveAuthorization Flags = 1 << 2
)

func (f Flags) WantReply() bool { return f&FlagNoReplyExpected == 0 }

// Message is the logical envelope a Connection and ProxyObject exchange:
// the header fields a message carries, plus an already-marshalled Body.
// Framing the envelope onto an actual socket (byte order mark, fixed
// header, padding to the 8-byte body boundary) is the transport's job,
// so Message carries only what the dispatch and proxy layers need to
// route and correlate.
type Message struct {
	Type   Type
	Flags  Flags
	Serial uint32

	Path        dbustype.ObjectPath
	Interface   string
	Member      string
	ErrorName   string
	ReplySerial uint32
	Destination string
	Sender      string

	Signature dbustype.Signature
	Body      []byte
}

// Args decodes the message body against its declared Signature.
func (m *Message) Args() ([]any, error) {
	if len(m.Signature) == 0 {
		return nil, nil
	}
	return DecodeArgs(NewDecoder(m.Body), string(m.Signature))
}

// SetArgs encodes args against the given signature and installs the
// result as the message body, encoding each argument in sequence.
func SetArgs(m *Message, sig string, args ...any) error {
	types, err := dbustype.ParseSignature(sig)
	if err != nil {
		return invalidArgs("argument signature %q: %v", sig, err)
	}
	if len(types) != len(args) {
		return invalidArgs("signature %q declares %d arguments, got %d", sig, len(types), len(args))
	}
	enc := NewEncoder()
	for i, t := range types {
		if err := Encode(enc, t, args[i]); err != nil {
			return invalidArgs("argument %d: %v", i, err)
		}
	}
	m.Signature = dbustype.Signature(sig)
	m.Body = enc.Bytes()
	return nil
}
