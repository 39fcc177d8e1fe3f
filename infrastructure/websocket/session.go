package websocket

import (
	"altus-chat/domain"
	"altus-chat/errors"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultPingInterval = 30 * time.Second
	defaultPongWait     = 60 * time.Second
	defaultWriteWait    = 10 * time.Second
	responseBufferSize  = 16
)

// session is one websocket connection.
// The read loop handles requests in order, the write loop is the only writer on the socket.
type session struct {
	server     *Server
	conn       *websocket.Conn
	sink       *Sink
	connID     domain.ConnectionID
	userID     string
	responses  chan Frame
	ctx        context.Context
	cancel     context.CancelFunc
	writerDone chan struct{}
}

func newSession(ctx context.Context, cancel context.CancelFunc, server *Server, conn *websocket.Conn) *session {
	return &session{
		server:     server,
		conn:       conn,
		sink:       NewSink(server.config.ConnectionBufferSize),
		connID:     domain.NewConnectionID(),
		responses:  make(chan Frame, responseBufferSize),
		ctx:        ctx,
		cancel:     cancel,
		writerDone: make(chan struct{}),
	}
}

func (s *session) run() {
	go s.writeLoop()
	defer s.close()
	s.readLoop()
}

// attach binds the session to an authenticated user and registers it for delivery.
func (s *session) attach(userID string) {
	s.userID = userID
	s.server.services.Presence.Connect(s.ctx, userID, s.connID, s.sink)
	s.server.log.Debug("Session authenticated", "user", userID, "connection", s.connID)
}

func (s *session) close() {
	if s.userID != "" {
		s.server.services.Presence.Disconnect(context.Background(), s.connID)
	}
	s.sink.Close()
	s.cancel()
	<-s.writerDone
	_ = s.conn.Close()
}

func (s *session) readLoop() {
	pongWait := s.server.config.PongWait
	s.conn.SetReadLimit(s.server.config.MaxFrameBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.server.log.Debug("Websocket closed unexpectedly", "connection", s.connID, "error", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		if messageType != websocket.TextMessage {
			continue
		}

		frame, err := decodeFrame(data)
		if err != nil {
			s.respond(newErrorResponse("", err))
			continue
		}
		if !s.handle(frame) {
			return
		}
	}
}

// handle answers one request. It returns false when the session must end.
func (s *session) handle(frame Frame) bool {
	start := time.Now()
	payload, err := s.dispatch(frame)

	code := "OK"
	if err == nil {
		response, encodeErr := newResponse(frame.ID, payload)
		if encodeErr != nil {
			err = errors.Wrap(errors.CodeInternal, "cannot encode response", encodeErr)
		} else {
			s.respond(response)
		}
	}
	if err != nil {
		code = string(errors.CodeOf(err))
		s.respond(newErrorResponse(frame.ID, err))
		if errors.CodeOf(err) == errors.CodeInternal {
			s.server.log.Error("Request failed", "method", frame.Method, "user", s.userID, "error", err)
		}
	}
	s.server.metrics.ObserveRequest(frame.Method, code, time.Since(start).Seconds())

	// A failed handshake ends the session
	return frame.Method != connectMethod || err == nil
}

func (s *session) dispatch(frame Frame) (any, error) {
	if frame.Method == connectMethod {
		return s.handleConnect(frame.Params)
	}
	if s.userID == "" {
		return nil, fmt.Errorf("%w: first request must be %s", errors.ErrUnauthenticated, connectMethod)
	}
	h, ok := handlers[frame.Method]
	if !ok {
		return nil, fmt.Errorf("%w: unknown method %q", errors.ErrInvalidInput, frame.Method)
	}
	return h(s, frame.Params)
}

type connectParams struct {
	Token string `json:"token"`
}

type connectResult struct {
	UserID       string              `json:"user_id"`
	ConnectionID domain.ConnectionID `json:"connection_id"`
}

func (s *session) handleConnect(raw json.RawMessage) (any, error) {
	params, err := decodeParams[connectParams](raw)
	if err != nil {
		return nil, err
	}
	userID, err := s.server.authenticate(s.ctx, params.Token)
	if err != nil {
		return nil, err
	}
	if s.userID != "" && s.userID != userID {
		return nil, fmt.Errorf("%w: session already bound to another user", errors.ErrForbidden)
	}
	if s.userID == "" {
		s.attach(userID)
	}
	return connectResult{UserID: userID, ConnectionID: s.connID}, nil
}

// respond queues a response. It waits for the writer, which slows down a client flooding requests.
func (s *session) respond(frame Frame) {
	select {
	case s.responses <- frame:
	case <-s.ctx.Done():
	}
}

func (s *session) writeLoop() {
	defer close(s.writerDone)
	ticker := time.NewTicker(s.server.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.flushResponses()
			_ = s.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-s.responses:
			if err := s.writeFrame(frame); err != nil {
				s.abort(err)
				return
			}
		case evt := <-s.sink.Events():
			frame, err := newEvent(evt)
			if err != nil {
				s.server.log.Error("Cannot encode event", "event", evt.Kind(), "error", err)
				continue
			}
			if err = s.writeFrame(frame); err != nil {
				s.abort(err)
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.abort(err)
				return
			}
		}
	}
}

// flushResponses writes the responses still queued, such as a rejected handshake.
func (s *session) flushResponses() {
	for {
		select {
		case frame := <-s.responses:
			if err := s.writeFrame(frame); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *session) abort(err error) {
	s.server.log.Debug("Websocket write failed", "connection", s.connID, "error", err)
	s.cancel()
	_ = s.conn.Close()
}

func (s *session) writeFrame(frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return s.write(websocket.TextMessage, data)
}

func (s *session) write(messageType int, data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteWait))
	return s.conn.WriteMessage(messageType, data)
}
