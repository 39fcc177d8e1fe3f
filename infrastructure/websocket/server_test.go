package websocket

import (
	"altus-chat/auth"
	"altus-chat/domain"
	"altus-chat/domain/event"
	"altus-chat/errors"
	"altus-chat/moderation"
	"altus-chat/notify"
	"altus-chat/repositories"
	"altus-chat/runtime"
	"altus-chat/runtime/workers"
	"altus-chat/services"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func newTestServer(t *testing.T) *httptest.Server {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)

	registry := runtime.NewRegistry()
	supervisor := workers.NewSupervisor(log, nil, 10*time.Millisecond)
	orchestrator := runtime.NewOrchestrator(log, supervisor, registry, notify.NewLogNotifier(log), nil,
		32, time.Second, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	go orchestrator.Start(ctx)

	moderator, err := moderation.NewModerator([]string{"idiot"}, '*', log)
	require.NoError(t, err)
	graph := services.NewFollowGraph(repositories.NewFollowRepository(db), false)

	server := NewServer(log, Services{
		Presence: services.NewPresenceService(log, registry, orchestrator, graph),
		Messages: services.NewMessageService(log, repositories.NewMessageRepository(db, log, lo.ToPtr(50)),
			orchestrator, graph, moderator, nil, nil, 500),
		Typing:  services.NewTypingService(orchestrator, 3*time.Second),
		Groups:  services.NewGroupService(log, repositories.NewGroupRepository(db, log, lo.ToPtr(50)), orchestrator, moderator, nil, 500),
		Follows: graph,
	}, nil, secret, Config{ConnectionBufferSize: 32, PingInterval: time.Second})

	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		httpServer.Close()
		cancel()
		_ = db.Close()
	})
	return httpServer
}

type testClient struct {
	t      *testing.T
	conn   *websocket.Conn
	seq    int
	events []Frame
}

func token(t *testing.T, userID string) string {
	signed, err := auth.GenerateToken(secret, userID, nil, time.Hour)
	require.NoError(t, err)
	return signed
}

func dial(t *testing.T, server *httptest.Server, header http.Header) *testClient {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn}
}

// connect dials and authenticates with a connect request.
func connect(t *testing.T, server *httptest.Server, userID string) *testClient {
	client := dial(t, server, nil)
	res := client.call("connect", connectParams{Token: token(t, userID)})
	require.True(t, *res.OK, "connect failed: %v", res.Error)
	return client
}

func (c *testClient) read() Frame {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := c.conn.ReadMessage()
	require.NoError(c.t, err)
	var frame Frame
	require.NoError(c.t, json.Unmarshal(data, &frame))
	return frame
}

// call sends a request and waits for its response, keeping the events received meanwhile.
func (c *testClient) call(method string, params any) Frame {
	c.t.Helper()
	c.seq++
	id := strconv.Itoa(c.seq)
	req, err := NewRequest(id, method, params)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(req))
	for {
		frame := c.read()
		if frame.Type == EventFrame {
			c.events = append(c.events, frame)
			continue
		}
		if frame.ID == id {
			return frame
		}
	}
}

func (c *testClient) nextEvent(kind event.Kind) Frame {
	c.t.Helper()
	for i, frame := range c.events {
		if frame.Event == string(kind) {
			c.events = append(c.events[:i], c.events[i+1:]...)
			return frame
		}
	}
	for {
		frame := c.read()
		if frame.Type == EventFrame && frame.Event == string(kind) {
			return frame
		}
		if frame.Type == EventFrame {
			c.events = append(c.events, frame)
		}
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestServer_Requires_Handshake(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	client := dial(t, server, nil)

	// When a request comes before connect
	res := client.call("ping", nil)

	// Then it is rejected and the session stays open
	req.False(*res.OK)
	req.Equal(errors.CodeUnauthenticated, res.Error.Code)

	// When connect carries a bad token
	res = client.call("connect", connectParams{Token: "forged"})

	// Then the session is closed
	req.False(*res.OK)
	req.Equal(errors.CodeUnauthenticated, res.Error.Code)
	_ = client.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err := client.conn.ReadMessage()
	req.Error(err)
}

func TestServer_Rejects_Bad_Bearer_Token(t *testing.T) {
	server := newTestServer(t)
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer forged"}})

	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_Direct_Message_Flow(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	// Given bob authenticated on the upgrade request and alice with connect
	bob := dial(t, server, http.Header{"Authorization": {"Bearer " + token(t, "bob")}})
	req.True(*bob.call("ping", nil).OK)
	alice := connect(t, server, "alice")

	// When alice sends a message to bob
	res := alice.call("message.send", sendMessageParams{To: "bob", Content: "hi idiot"})

	// Then it is censored, delivered to bob and marked delivered
	req.True(*res.OK, "%v", res.Error)
	sent := decode[domain.DirectMessage](t, res.Payload)
	req.Equal("hi *****", sent.Content)
	req.NotNil(sent.DeliveredAt)

	received := decode[event.NewMessage](t, bob.nextEvent(event.NewMessageKind).Payload)
	req.Equal(sent.ID, received.Message.ID)

	// When bob reads it
	req.True(*bob.call("message.read", messageRefParams{MessageID: sent.ID}).OK)

	// Then alice gets the read receipt and bob has nothing unread
	receipt := decode[event.Read](t, alice.nextEvent(event.ReadKind).Payload)
	req.Equal(sent.ID, receipt.MessageID)
	req.Equal("bob", receipt.RecipientID)

	unread := bob.call("message.unread", nil)
	req.True(*unread.OK)
	req.Empty(decode[map[string]int](t, unread.Payload))

	history := bob.call("message.history", historyParams{PeerID: "alice"})
	req.True(*history.OK)
	req.Len(decode[page[domain.DirectMessage]](t, history.Payload).Items, 1)

	// When alice starts typing
	req.True(*alice.call("typing.start", typingParams{To: "bob"}).OK)

	// Then bob sees the indicator
	typing := decode[event.Typing](t, bob.nextEvent(event.TypingKind).Payload)
	req.Equal("alice", typing.FromID)
}

func TestServer_Presence_Between_Mutual_Follows(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)

	// Given alice and bob follow each other
	alice := connect(t, server, "alice")
	bob := connect(t, server, "bob")
	req.True(*alice.call("follow.add", userRefParams{UserID: "bob"}).OK)
	req.True(*bob.call("follow.add", userRefParams{UserID: "alice"}).OK)

	presence := decode[map[string]bool](t, bob.call("presence.query", presenceParams{UserIDs: []string{"alice", "carol"}}).Payload)
	req.Equal(map[string]bool{"alice": true, "carol": false}, presence)

	// When alice leaves
	req.NoError(alice.conn.Close())

	// Then bob is told she went offline
	offline := decode[event.UserOffline](t, bob.nextEvent(event.UserOfflineKind).Payload)
	req.Equal("alice", offline.UserID)
}

func TestServer_Group_Flow(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice := connect(t, server, "alice")
	bob := connect(t, server, "bob")

	// Given alice created a group with bob
	res := alice.call("group.create", createGroupParams{Name: "Deadlift club", MemberIDs: []string{"bob"}})
	req.True(*res.OK, "%v", res.Error)
	group := decode[domain.Group](t, res.Payload)

	// When bob posts in it
	res = bob.call("group.send", sendGroupParams{GroupID: group.ID, Content: "pr today"})
	req.True(*res.OK, "%v", res.Error)
	sent := decode[domain.GroupMessage](t, res.Payload)
	req.True(sent.IsDeliveredTo("alice"))

	// Then alice receives it and bob hears about her read
	received := decode[event.NewGroupMessage](t, alice.nextEvent(event.NewGroupMessageKind).Payload)
	req.Equal(sent.ID, received.Message.ID)
	req.True(*alice.call("group.read", messageRefParams{MessageID: sent.ID}).OK)
	read := decode[event.GroupRead](t, bob.nextEvent(event.GroupReadKind).Payload)
	req.Equal("alice", read.UserID)

	// And an outsider cannot see the group
	carol := connect(t, server, "carol")
	res = carol.call("group.get", groupRefParams{GroupID: group.ID})
	req.False(*res.OK)
	req.Equal(errors.CodePermissionDenied, res.Error.Code)
}

func TestServer_Rejects_Unknown_Method_And_Bad_Params(t *testing.T) {
	req := require.New(t)
	server := newTestServer(t)
	alice := connect(t, server, "alice")

	res := alice.call("message.delete", nil)
	req.False(*res.OK)
	req.Equal(errors.CodeInvalidArgument, res.Error.Code)

	res = alice.call("message.read", map[string]string{"message_id": "not-a-uuid"})
	req.False(*res.OK)
	req.Equal(errors.CodeInvalidArgument, res.Error.Code)

	res = alice.call("message.send", sendMessageParams{To: "bob", Content: "   "})
	req.False(*res.OK)
	req.Equal(errors.CodeInvalidArgument, res.Error.Code)
}
