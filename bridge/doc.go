// Package bridge relays executor calls from a process that cannot perform
// network I/O to one that can.
//
// The relay runs over a websocket carrying JSON frames. A call frame names a
// command (testConnection, sendMessage or sendStreamingMessage) with
// positional arguments; the server answers with a result frame carrying
// either the value or an error. Streamed text is delivered out of band as
// streamChunk event frames tagged with the id of the originating call, so
// several streaming calls may share one connection.
//
// Server implements http.Handler. Client implements anthropic.Transport:
//
//	relay, err := bridge.Dial(ctx, "ws://127.0.0.1:7345/bridge")
//	client := anthropic.New(holder, anthropic.WithTransport(relay))
package bridge
