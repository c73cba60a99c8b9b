// Package introspect holds the normalised, in-memory representation of
// D-Bus interfaces described by the standard introspection XML schema.
// It is built by Load, the XML loader, and
// consumed by package gen and package dispatch.
package introspect

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/keybuk/nih-dbus/dbustype"
)

// Direction is the direction of a method argument.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Access is the access mode of a property.
type Access string

const (
	AccessRead      Access = "read"
	AccessWrite     Access = "write"
	AccessReadWrite Access = "readwrite"
)

// AsyncAnnotation is the annotation name that selects the async dispatch
// style for a method.
const AsyncAnnotation = "org.nih.Method.Async"

// DeprecatedAnnotation is the conventional annotation marking a member
// deprecated.
const DeprecatedAnnotation = "org.freedesktop.DBus.Deprecated"

// Annotation is a name/value pair attached to an interface, method,
// signal, property or argument.
type Annotation struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Argument is one method or signal argument. Name may be empty — the
// argument is then positional only.
type Argument struct {
	Name      string    `xml:"name,attr"`
	Type      string    `xml:"type,attr"`
	Direction Direction `xml:"direction,attr"`

	typ dbustype.Type
}

// ParsedType returns the parsed dbustype.Type of the argument.
func (a *Argument) ParsedType() dbustype.Type { return a.typ }

// Method is one D-Bus method: its ordered arguments and annotations.
type Method struct {
	Name        string       `xml:"name,attr"`
	Args        []Argument   `xml:"arg"`
	Annotations []Annotation `xml:"annotation"`
}

// InputArguments returns the method's in-direction arguments in
// declared order.
func (m *Method) InputArguments() []Argument {
	return m.argsByDirection(DirectionIn)
}

// OutputArguments returns the method's out-direction arguments in
// declared order.
func (m *Method) OutputArguments() []Argument {
	return m.argsByDirection(DirectionOut)
}

func (m *Method) argsByDirection(dir Direction) []Argument {
	var out []Argument
	for _, a := range m.Args {
		// The D-Bus introspection schema defaults an argument with no
		// explicit direction to "in".
		d := a.Direction
		if d == "" {
			d = DirectionIn
		}
		if d == dir {
			out = append(out, a)
		}
	}
	return out
}

// InputSignature returns the concatenated wire signature of the
// method's in arguments.
func (m *Method) InputSignature() string {
	return signatureOfArgs(m.InputArguments())
}

// OutputSignature returns the concatenated wire signature of the
// method's out arguments.
func (m *Method) OutputSignature() string {
	return signatureOfArgs(m.OutputArguments())
}

func signatureOfArgs(args []Argument) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.Type)
	}
	return b.String()
}

// Deprecated reports whether the method carries the deprecation
// annotation.
func (m *Method) Deprecated() bool {
	return hasAnnotation(m.Annotations, DeprecatedAnnotation, "true")
}

// Async reports whether the method is marked for the async dispatch
// style.
func (m *Method) Async() bool {
	return hasAnnotation(m.Annotations, AsyncAnnotation, "true")
}

func hasAnnotation(anns []Annotation, name, value string) bool {
	for _, a := range anns {
		if a.Name == name && (value == "" || a.Value == value) {
			return true
		}
	}
	return false
}

// Signal is one D-Bus signal: an ordered list of (implicitly out)
// arguments.
type Signal struct {
	Name        string       `xml:"name,attr"`
	Args        []Argument   `xml:"arg"`
	Annotations []Annotation `xml:"annotation"`
}

// Signature returns the concatenated wire signature of the signal's
// arguments.
func (s *Signal) Signature() string {
	return signatureOfArgs(s.Args)
}

// Deprecated reports whether the signal carries the deprecation
// annotation.
func (s *Signal) Deprecated() bool {
	return hasAnnotation(s.Annotations, DeprecatedAnnotation, "true")
}

// Property is one D-Bus property.
type Property struct {
	Name        string       `xml:"name,attr"`
	Type        string       `xml:"type,attr"`
	Access      Access       `xml:"access,attr"`
	Annotations []Annotation `xml:"annotation"`

	typ dbustype.Type
}

// Signature returns the property's wire signature.
func (p *Property) Signature() string { return p.Type }

// Readable reports whether Get is a legal call on this property.
func (p *Property) Readable() bool {
	return p.Access == AccessRead || p.Access == AccessReadWrite
}

// Writable reports whether Set is a legal call on this property.
func (p *Property) Writable() bool {
	return p.Access == AccessWrite || p.Access == AccessReadWrite
}

// Interface is one D-Bus interface: name-unique Methods, Signals and
// Properties.
type Interface struct {
	Name       string     `xml:"name,attr"`
	Methods    []Method   `xml:"method"`
	Signals    []Signal   `xml:"signal"`
	Properties []Property `xml:"property"`
}

// LookupMethod finds a method by name.
func (i *Interface) LookupMethod(name string) (*Method, bool) {
	for idx := range i.Methods {
		if i.Methods[idx].Name == name {
			return &i.Methods[idx], true
		}
	}
	return nil, false
}

// LookupSignal finds a signal by name.
func (i *Interface) LookupSignal(name string) (*Signal, bool) {
	for idx := range i.Signals {
		if i.Signals[idx].Name == name {
			return &i.Signals[idx], true
		}
	}
	return nil, false
}

// LookupProperty finds a property by name.
func (i *Interface) LookupProperty(name string) (*Property, bool) {
	for idx := range i.Properties {
		if i.Properties[idx].Name == name {
			return &i.Properties[idx], true
		}
	}
	return nil, false
}

// Node is the root of a parsed introspection document: a path
// (optional) and the interfaces defined at it, plus any child node
// names (for recursive introspection — carried through but not acted
// on by this core, whose dispatcher serves a single path).
type Node struct {
	Name       string      `xml:"name,attr"`
	Interfaces []Interface `xml:"interface"`
	Children   []Node      `xml:"node"`
}

// LookupInterface finds an interface by name.
func (n *Node) LookupInterface(name string) (*Interface, bool) {
	for idx := range n.Interfaces {
		if n.Interfaces[idx].Name == name {
			return &n.Interfaces[idx], true
		}
	}
	return nil, false
}

var (
	interfaceNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)+$`)
	memberNameRE    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Load parses and validates a D-Bus introspection XML document,
// checking that interface names match the
// D-Bus "interface" grammar, member names match "member", and every
// argument type parses under dbustype.
func Load(r io.Reader) (*Node, error) {
	var n Node
	if err := xml.NewDecoder(r).Decode(&n); err != nil {
		return nil, fmt.Errorf("introspect: decoding XML: %w", err)
	}
	if err := n.validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

func (n *Node) validate() error {
	for ii := range n.Interfaces {
		iface := &n.Interfaces[ii]
		if !interfaceNameRE.MatchString(iface.Name) {
			return fmt.Errorf("introspect: invalid interface name %q", iface.Name)
		}
		seen := map[string]bool{}
		for mi := range iface.Methods {
			m := &iface.Methods[mi]
			if !memberNameRE.MatchString(m.Name) {
				return fmt.Errorf("introspect: interface %s: invalid method name %q", iface.Name, m.Name)
			}
			if seen["method:"+m.Name] {
				return fmt.Errorf("introspect: interface %s: duplicate method %q", iface.Name, m.Name)
			}
			seen["method:"+m.Name] = true
			for ai := range m.Args {
				a := &m.Args[ai]
				if a.Direction == "" {
					a.Direction = DirectionIn
				}
				t, err := dbustype.ParseSingle(a.Type)
				if err != nil {
					return fmt.Errorf("introspect: interface %s method %s arg %d: %w", iface.Name, m.Name, ai, err)
				}
				a.typ = t
			}
		}
		for si := range iface.Signals {
			s := &iface.Signals[si]
			if !memberNameRE.MatchString(s.Name) {
				return fmt.Errorf("introspect: interface %s: invalid signal name %q", iface.Name, s.Name)
			}
			if seen["signal:"+s.Name] {
				return fmt.Errorf("introspect: interface %s: duplicate signal %q", iface.Name, s.Name)
			}
			seen["signal:"+s.Name] = true
			for ai := range s.Args {
				a := &s.Args[ai]
				t, err := dbustype.ParseSingle(a.Type)
				if err != nil {
					return fmt.Errorf("introspect: interface %s signal %s arg %d: %w", iface.Name, s.Name, ai, err)
				}
				a.typ = t
			}
		}
		for pi := range iface.Properties {
			p := &iface.Properties[pi]
			if !memberNameRE.MatchString(p.Name) {
				return fmt.Errorf("introspect: interface %s: invalid property name %q", iface.Name, p.Name)
			}
			if seen["property:"+p.Name] {
				return fmt.Errorf("introspect: interface %s: duplicate property %q", iface.Name, p.Name)
			}
			seen["property:"+p.Name] = true
			t, err := dbustype.ParseSingle(p.Type)
			if err != nil {
				return fmt.Errorf("introspect: interface %s property %s: %w", iface.Name, p.Name, err)
			}
			p.typ = t
			switch p.Access {
			case AccessRead, AccessWrite, AccessReadWrite:
			default:
				return fmt.Errorf("introspect: interface %s property %s: invalid access %q", iface.Name, p.Name, p.Access)
			}
		}
	}
	for ci := range n.Children {
		if err := n.Children[ci].validate(); err != nil {
			return err
		}
	}
	return nil
}
