package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/petal-labs/aide/core"
	"github.com/petal-labs/aide/providers/anthropic"
)

// Server executes bridge commands on behalf of processes that cannot reach
// the network. It serves one websocket session per connection; calls within
// a session run concurrently.
type Server struct {
	s         settings
	transport anthropic.Transport
	logger    *zap.Logger
}

// NewServer creates a Server.
func NewServer(opts ...Option) *Server {
	s := buildSettings(opts)
	transport := s.transport
	if transport == nil {
		transport = anthropic.NewHTTPTransport(append(s.executorOpts, anthropic.WithLogger(s.logger))...)
	}
	return &Server{
		s:         s,
		transport: transport,
		logger:    s.logger.With(zap.String("component", "bridge.server")),
	}
}

// Call dispatches one command. Arguments are positional JSON values; emit
// receives stream chunks of sendStreamingMessage in order, before Call
// returns. The result is a bool for testConnection and a *core.Response
// otherwise.
func (srv *Server) Call(ctx context.Context, id, command string, args []json.RawMessage, emit func(StreamChunk)) (any, error) {
	arity, ok := commandArity[command]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCommand, command)
	}
	if len(args) < arity {
		return nil, fmt.Errorf("%w: %s expects at least %d arguments, got %d",
			core.ErrInvalidArguments, command, arity, len(args))
	}

	var wc WireConfig
	if err := decodeArg(args, 0, "config", &wc); err != nil {
		return nil, err
	}
	client := srv.executor(wc.Config())

	if command == CommandTestConnection {
		return client.TestConnection(ctx), nil
	}

	var messages []core.Message
	if err := decodeArg(args, 1, "messages", &messages); err != nil {
		return nil, err
	}
	var opts core.SendOptions
	if err := decodeOptionalArg(args, 2, "options", &opts); err != nil {
		return nil, err
	}

	var onProgress func(string)
	if command == CommandSendStreamingMessage {
		onProgress = func(text string) {
			if emit != nil {
				emit(StreamChunk{RequestID: id, Text: text})
			}
		}
	}
	return client.SendMessage(ctx, messages, "", opts, onProgress)
}

// executor builds a per-call executor around the shared transport.
func (srv *Server) executor(cfg core.Config) *anthropic.Client {
	opts := make([]anthropic.Option, 0, len(srv.s.executorOpts)+2)
	opts = append(opts, srv.s.executorOpts...)
	opts = append(opts, anthropic.WithTransport(srv.transport), anthropic.WithLogger(srv.s.logger))
	return anthropic.New(core.NewHolder(cfg), opts...)
}

// ServeHTTP upgrades the request to a websocket session.
func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		srv.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(srv.s.readLimit)

	sess := &session{
		srv:      srv,
		conn:     conn,
		inflight: make(map[string]context.CancelFunc),
	}
	sess.run(r.Context())
}

type session struct {
	srv  *Server
	conn *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
	wg       sync.WaitGroup
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer s.conn.CloseNow()
	defer s.wg.Wait()
	defer cancel()

	for {
		var f Frame
		if err := wsjson.Read(ctx, s.conn, &f); err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				s.srv.logger.Debug("session ended", zap.Error(err))
			}
			return
		}

		switch f.Kind {
		case FrameCall:
			s.start(ctx, f)
		case FrameCancel:
			s.cancel(f.ID)
		default:
			s.srv.logger.Debug("ignoring frame", zap.String("kind", string(f.Kind)))
		}
	}
}

func (s *session) start(ctx context.Context, f Frame) {
	callCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if _, dup := s.inflight[f.ID]; dup {
		s.mu.Unlock()
		cancel()
		err := fmt.Errorf("%w: call id %q is already in flight", core.ErrInvalidArguments, f.ID)
		s.write(Frame{Kind: FrameResult, ID: f.ID, Error: encodeError(err)})
		return
	}
	s.inflight[f.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.forget(f.ID)

		result, err := s.srv.Call(callCtx, f.ID, f.Command, f.Args, func(chunk StreamChunk) {
			payload, _ := json.Marshal(chunk)
			s.write(Frame{Kind: FrameEvent, Event: EventStreamChunk, Payload: payload})
		})

		reply := Frame{Kind: FrameResult, ID: f.ID}
		if err != nil {
			reply.Error = encodeError(err)
			s.srv.logger.Debug("call failed",
				zap.String("id", f.ID),
				zap.String("command", f.Command),
				zap.String("kind", reply.Error.Kind),
			)
		} else if reply.Result, err = json.Marshal(result); err != nil {
			reply.Error = encodeError(fmt.Errorf("bridge: encode result: %w", err))
		}
		s.write(reply)
	}()
}

func (s *session) cancel(id string) {
	s.mu.Lock()
	cancel := s.inflight[id]
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *session) forget(id string) {
	s.mu.Lock()
	cancel := s.inflight[id]
	delete(s.inflight, id)
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// write sends a frame with its own deadline; a call context must not be
// used because an expiring write context closes the connection.
func (s *session) write(f Frame) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.srv.s.writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, s.conn, f); err != nil {
		s.srv.logger.Debug("frame write failed", zap.String("kind", string(f.Kind)), zap.Error(err))
	}
}
