package gen_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keybuk/nih-dbus/gen"
	"github.com/keybuk/nih-dbus/introspect"
)

const testXML = `<node name="/com/netsplit/Nih/Test">
  <interface name="com.netsplit.Nih.Test">
    <method name="OrdinaryMethod">
      <arg name="str" type="s" direction="in"/>
      <arg name="str" type="s" direction="out"/>
    </method>
    <method name="AsyncMethod">
      <arg name="height" type="u" direction="in"/>
      <annotation name="org.nih.Method.Async" value="true"/>
    </method>
    <signal name="Bounced">
      <arg name="height" type="u"/>
    </signal>
    <property name="Count" type="u" access="readwrite"/>
  </interface>
</node>`

func loadTestNode(t *testing.T) *introspect.Node {
	t.Helper()
	node, err := introspect.Load(strings.NewReader(testXML))
	require.NoError(t, err)
	return node
}

func TestGenerateServerMode(t *testing.T) {
	node := loadTestNode(t)

	var buf bytes.Buffer
	err := gen.Generate(node, &buf, gen.Options{Package: "niftest", Mode: gen.ModeServer})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "package niftest")
	assert.Contains(t, out, "type TestServer interface")
	assert.Contains(t, out, "OrdinaryMethod(str string) (string, error)")
	assert.Contains(t, out, "AsyncMethodAsync(ctx *dispatch.CallContext, height uint32)")
	assert.Contains(t, out, "GetCount() (uint32, error)")
	assert.Contains(t, out, "SetCount(v uint32) error")
	assert.Contains(t, out, "func RegisterTest(obj *dispatch.ServerObject, impl TestServer)")
	assert.Contains(t, out, `obj.RegisterMethod("com.netsplit.Nih.Test", "OrdinaryMethod",`)
	assert.Contains(t, out, `obj.RegisterMethod("com.netsplit.Nih.Test", "AsyncMethod", nil,`)
	assert.Contains(t, out, `obj.RegisterProperty("com.netsplit.Nih.Test", "Count",`)
}

func TestGenerateClientMode(t *testing.T) {
	node := loadTestNode(t)

	var buf bytes.Buffer
	err := gen.Generate(node, &buf, gen.Options{Package: "niftest", Mode: gen.ModeClient})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "package niftest")
	assert.Contains(t, out, "type TestProxy struct")
	assert.Contains(t, out, "func NewTestProxy(obj *proxy.Object) *TestProxy")
	assert.Contains(t, out, "func (p *TestProxy) OrdinaryMethod(ctx context.Context, str string) (string, error)")
	assert.Contains(t, out, `p.Object.Call(ctx, "com.netsplit.Nih.Test", "OrdinaryMethod", "s", "s", str)`)
	assert.Contains(t, out, "func (p *TestProxy) ConnectBounced(fn func(uint32))")
	assert.Contains(t, out, `p.Object.ConnectSignal("com.netsplit.Nih.Test", "Bounced", "u",`)
	assert.NotContains(t, out, "AsyncMethod")
}

func TestGenerateUnknownModeErrors(t *testing.T) {
	node := loadTestNode(t)
	var buf bytes.Buffer
	err := gen.Generate(node, &buf, gen.Options{Package: "niftest", Mode: gen.Mode(99)})
	require.Error(t, err)
}
