package gen

import (
	"sort"

	"github.com/keybuk/nih-dbus/dbustype"
	"github.com/keybuk/nih-dbus/introspect"
)

type argModel struct {
	Name   string
	GoType string
}

type methodModel struct {
	DBusName string
	GoName   string
	Async    bool
	AsyncGoName string
	InArgs   []argModel
	OutArgs  []argModel
	InSig    string
	OutSig   string
}

type signalModel struct {
	DBusName    string
	EmitName    string
	ConnectName string
	Args        []argModel
	Sig         string
}

type propModel struct {
	DBusName   string
	GetterName string
	SetterName string
	GoType     string
	Readable   bool
	Writable   bool
}

type ifaceModel struct {
	DBusName   string
	GoName     string
	Methods    []methodModel
	Signals    []signalModel
	Properties []propModel
}

type fileModel struct {
	Package    string
	Interfaces []ifaceModel
}

func buildModel(node *introspect.Node, pkg, prefix string) (*fileModel, error) {
	fm := &fileModel{Package: pkg}
	ifaces := append([]introspect.Interface(nil), node.Interfaces...)
	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].Name < ifaces[j].Name })

	for _, iface := range ifaces {
		im := ifaceModel{DBusName: iface.Name, GoName: prefix + InterfaceGoName(iface.Name)}

		for _, m := range iface.Methods {
			mm := methodModel{
				DBusName: m.Name,
				GoName:   SyncMethodName(m.Name),
				Async:    m.Async(),
				AsyncGoName: AsyncMethodName(m.Name),
				InSig:    m.InputSignature(),
				OutSig:   m.OutputSignature(),
			}
			for _, a := range m.InputArguments() {
				mm.InArgs = append(mm.InArgs, argModel{Name: a.Name, GoType: goType(a.ParsedType())})
			}
			for _, a := range m.OutputArguments() {
				mm.OutArgs = append(mm.OutArgs, argModel{Name: a.Name, GoType: goType(a.ParsedType())})
			}
			im.Methods = append(im.Methods, mm)
		}

		for _, s := range iface.Signals {
			sm := signalModel{
				DBusName:    s.Name,
				EmitName:    SignalEmitName(s.Name),
				ConnectName: SignalConnectName(s.Name),
				Sig:         s.Signature(),
			}
			for _, a := range s.Args {
				t, err := dbustype.ParseSingle(a.Type)
				if err != nil {
					return nil, err
				}
				sm.Args = append(sm.Args, argModel{Name: a.Name, GoType: goType(t)})
			}
			im.Signals = append(im.Signals, sm)
		}

		for _, p := range iface.Properties {
			t, err := dbustype.ParseSingle(p.Type)
			if err != nil {
				return nil, err
			}
			im.Properties = append(im.Properties, propModel{
				DBusName:   p.Name,
				GetterName: PropertyGetterName(p.Name),
				SetterName: PropertySetterName(p.Name),
				GoType:     goType(t),
				Readable:   p.Readable(),
				Writable:   p.Writable(),
			})
		}

		fm.Interfaces = append(fm.Interfaces, im)
	}
	return fm, nil
}
