package bridge

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petal-labs/aide/core"
)

func TestSessionRejectsDuplicateCallID(t *testing.T) {
	transport := &fakeTransport{block: true}
	srv := httptest.NewServer(NewServer(WithTransport(transport)))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	require.NoError(t, err)
	defer conn.CloseNow()

	call := Frame{
		Kind:    FrameCall,
		ID:      "call-1",
		Command: CommandSendMessage,
		Args:    mustArgs(t, testConfig, []core.Message{{Role: core.RoleUser, Content: "hi"}}),
	}
	require.NoError(t, wsjson.Write(ctx, conn, call))
	require.Eventually(t, func() bool { return transport.calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, wsjson.Write(ctx, conn, call))
	var reply Frame
	require.NoError(t, wsjson.Read(ctx, conn, &reply))
	assert.Equal(t, FrameResult, reply.Kind)
	assert.Equal(t, "call-1", reply.ID)
	require.NotNil(t, reply.Error)
	assert.Equal(t, KindInvalidArguments, reply.Error.Kind)
	assert.EqualValues(t, 1, transport.calls.Load(), "the duplicate must not start a second exchange")

	require.NoError(t, wsjson.Write(ctx, conn, Frame{Kind: FrameCancel, ID: "call-1"}))
	require.NoError(t, wsjson.Read(ctx, conn, &reply))
	require.NotNil(t, reply.Error)
	assert.Equal(t, KindCancelled, reply.Error.Kind, "the first call is still addressable")
}
