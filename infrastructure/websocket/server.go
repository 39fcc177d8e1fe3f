package websocket

import (
	"altus-chat/auth"
	"altus-chat/errors"
	"altus-chat/observability"
	"altus-chat/services"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type Config struct {
	ConnectionBufferSize int
	PingInterval         time.Duration
	PongWait             time.Duration
	WriteWait            time.Duration
	MaxFrameBytes        int64
}

// Services gathers what a session can call.
type Services struct {
	Presence services.IPresenceService
	Messages services.IMessageService
	Typing   services.ITypingService
	Groups   services.IGroupService
	Follows  services.IFollowService
}

// Server upgrades HTTP requests to websocket sessions.
// A session is anonymous until it authenticates, either with a bearer token
// on the upgrade request or with a connect request.
type Server struct {
	log      *slog.Logger
	services Services
	metrics  *observability.Metrics
	secret   []byte
	config   Config
	upgrader websocket.Upgrader
}

func NewServer(log *slog.Logger, services Services, metrics *observability.Metrics, secret []byte, config Config) *Server {
	if config.MaxFrameBytes <= 0 {
		config.MaxFrameBytes = 64 << 10
	}
	if config.PingInterval <= 0 {
		config.PingInterval = defaultPingInterval
	}
	if config.PongWait <= config.PingInterval {
		config.PongWait = max(defaultPongWait, 2*config.PingInterval)
	}
	if config.WriteWait <= 0 {
		config.WriteWait = defaultWriteWait
	}
	return &Server{
		log:      log,
		services: services,
		metrics:  metrics,
		secret:   secret,
		config:   config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var userID string
	if token := auth.TokenFromRequest(r); token != "" {
		ctx, err := auth.Authenticate(r.Context(), s.secret, token)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		userID, _ = auth.UserIDFromContext(ctx)
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("Websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := newSession(ctx, cancel, s, conn)
	if userID != "" {
		session.attach(userID)
	}
	session.run()
}

// authenticate resolves the user behind a connect token.
func (s *Server) authenticate(ctx context.Context, token string) (string, error) {
	ctx, err := auth.Authenticate(ctx, s.secret, token)
	if err != nil {
		return "", err
	}
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", errors.ErrUnauthenticated
	}
	return userID, nil
}
