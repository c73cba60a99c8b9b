package proxy_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keybuk/nih-dbus/dispatch"
	"github.com/keybuk/nih-dbus/dispatch/dispatchtest"
	"github.com/keybuk/nih-dbus/introspect"
	"github.com/keybuk/nih-dbus/proxy"
	"github.com/keybuk/nih-dbus/wire"
)

const testXML = `<node name="/com/netsplit/Nih/Test">
  <interface name="com.netsplit.Nih.Test">
    <method name="OrdinaryMethod">
      <arg name="str" type="s" direction="in"/>
      <arg name="str" type="s" direction="out"/>
    </method>
    <signal name="Bounced">
      <arg name="height" type="u"/>
    </signal>
  </interface>
</node>`

func newFixture(t *testing.T) (*dispatch.Connection, *proxy.Object, func()) {
	t.Helper()
	node, err := introspect.Load(strings.NewReader(testXML))
	require.NoError(t, err)

	obj := dispatch.NewServerObject("/com/netsplit/Nih/Test", node)
	obj.RegisterMethod("com.netsplit.Nih.Test", "OrdinaryMethod", func(ctx *dispatch.CallContext, args []any) ([]any, error) {
		return []any{"echo:" + args[0].(string)}, nil
	}, nil)

	serverSide, clientSide := dispatchtest.NewPipe()
	server := dispatch.NewConnection(serverSide, nil)
	server.RegisterObject(obj)
	client := dispatch.NewConnection(clientSide, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go server.Serve(ctx)
	go client.Serve(ctx)

	p := proxy.New(client, "com.netsplit.Nih.Test", "/com/netsplit/Nih/Test")
	return server, p, cancel
}

func TestProxyCall(t *testing.T) {
	_, p, cancel := newFixture(t)
	defer cancel()

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	out, err := p.Call(ctx, "com.netsplit.Nih.Test", "OrdinaryMethod", "s", "s", "hi")
	require.NoError(t, err)
	assert.Equal(t, []any{"echo:hi"}, out)
}

func TestProxyCallAsync(t *testing.T) {
	_, p, cancel := newFixture(t)
	defer cancel()

	result := make(chan []any, 1)
	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	p.CallAsync(ctx, "com.netsplit.Nih.Test", "OrdinaryMethod", "s", "s", func(args []any, err error) {
		require.NoError(t, err)
		result <- args
	}, "async")

	select {
	case args := <-result:
		assert.Equal(t, []any{"echo:async"}, args)
	case <-time.After(time.Second):
		t.Fatal("async call did not complete")
	}
}

func TestProxyConnectSignal(t *testing.T) {
	server, p, cancel := newFixture(t)
	defer cancel()

	received := make(chan []any, 1)
	p.ConnectSignal("com.netsplit.Nih.Test", "Bounced", "u", func(args []any) {
		received <- args
	})

	sig := &wire.Message{Path: "/com/netsplit/Nih/Test", Interface: "com.netsplit.Nih.Test", Member: "Bounced"}
	require.NoError(t, wire.SetArgs(sig, "u", uint32(11)))
	require.NoError(t, server.Emit(sig))

	select {
	case args := <-received:
		assert.Equal(t, []any{uint32(11)}, args)
	case <-time.After(time.Second):
		t.Fatal("signal not delivered to proxy")
	}
}
