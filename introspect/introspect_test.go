package introspect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testXML = `<?xml version="1.0" encoding="UTF-8"?>
<node name="/com/netsplit/Nih/Test">
  <interface name="com.netsplit.Nih.Test">
    <method name="OrdinaryMethod">
      <arg name="str" type="s" direction="in"/>
      <arg name="str" type="s" direction="out"/>
    </method>
    <method name="StructToStr">
      <arg name="structure" type="(su)" direction="in"/>
      <arg name="str" type="s" direction="out"/>
    </method>
    <method name="AsyncMethod">
      <arg name="str" type="s" direction="in"/>
      <arg name="str" type="s" direction="out"/>
      <annotation name="org.nih.Method.Async" value="true"/>
    </method>
    <signal name="Bounced">
      <arg name="height" type="u"/>
    </signal>
    <property name="uint32" type="u" access="readwrite"/>
  </interface>
</node>`

func TestLoad(t *testing.T) {
	n, err := Load(strings.NewReader(testXML))
	require.NoError(t, err)
	assert.Equal(t, "/com/netsplit/Nih/Test", n.Name)
	require.Len(t, n.Interfaces, 1)

	iface, ok := n.LookupInterface("com.netsplit.Nih.Test")
	require.True(t, ok)

	m, ok := iface.LookupMethod("OrdinaryMethod")
	require.True(t, ok)
	assert.Equal(t, "s", m.InputSignature())
	assert.Equal(t, "s", m.OutputSignature())
	assert.False(t, m.Async())

	am, ok := iface.LookupMethod("AsyncMethod")
	require.True(t, ok)
	assert.True(t, am.Async())

	s, ok := iface.LookupSignal("Bounced")
	require.True(t, ok)
	assert.Equal(t, "u", s.Signature())

	p, ok := iface.LookupProperty("uint32")
	require.True(t, ok)
	assert.True(t, p.Readable())
	assert.True(t, p.Writable())

	_, ok = iface.LookupMethod("NoSuchMethod")
	assert.False(t, ok)
}

func TestLoadRejectsBadSignature(t *testing.T) {
	badXML := `<node><interface name="com.netsplit.Nih.Test">
    <method name="Bad"><arg type="{sv}" direction="in"/></method>
  </interface></node>`
	_, err := Load(strings.NewReader(badXML))
	require.Error(t, err)
}

func TestLoadRejectsBadInterfaceName(t *testing.T) {
	badXML := `<node><interface name="NotDotted">
    <method name="M"/>
  </interface></node>`
	_, err := Load(strings.NewReader(badXML))
	require.Error(t, err)
}

func TestLoadRejectsDuplicateMethod(t *testing.T) {
	badXML := `<node><interface name="com.netsplit.Nih.Test">
    <method name="M"/>
    <method name="M"/>
  </interface></node>`
	_, err := Load(strings.NewReader(badXML))
	require.Error(t, err)
}
