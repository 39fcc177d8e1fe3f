package main

import (
	"altus-chat/auth"
	"altus-chat/domain/event"
	ws "altus-chat/infrastructure/websocket"
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}

func run() (int, error) {
	config, err := LoadConfig()
	if err != nil {
		return 2, err
	}
	token, err := resolveToken(config)
	if err != nil {
		return 2, err
	}

	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(config.ServerURL, header)
	if err != nil {
		return 1, fmt.Errorf("cannot reach %s: %w", config.ServerURL, err)
	}
	defer conn.Close()

	c := &client{conn: conn, colours: config.Colours}
	c.printf(color.FgGreen, "  ====== connected to %s as %s ======", config.ServerURL, config.UserID)

	go c.readLoop()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		method, params, err := parseLine(scanner.Text())
		if err != nil {
			fmt.Println(err)
			continue
		}
		if err = c.send(method, params); err != nil {
			return 1, err
		}
	}
	return 0, scanner.Err()
}

func resolveToken(config Config) (string, error) {
	if config.Token != "" {
		return config.Token, nil
	}
	if config.JWTSecret == "" || config.UserID == "" {
		return "", errors.New("set CHAT_TOKEN, or CHAT_USER with CHAT_JWT_SECRET")
	}
	return auth.GenerateToken([]byte(config.JWTSecret), config.UserID, nil, config.TokenDuration)
}

// client shares one socket between the stdin loop and the read loop, which acknowledges reads.
type client struct {
	conn    *websocket.Conn
	colours bool
	mu      sync.Mutex
	seq     int
}

func (c *client) send(method string, params any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	frame, err := ws.NewRequest(strconv.Itoa(c.seq), method, params)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(frame)
}

func (c *client) readLoop() {
	for {
		var frame ws.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			c.printf(color.FgRed, "connection closed: %v", err)
			os.Exit(1)
		}
		switch frame.Type {
		case ws.EventFrame:
			c.printEvent(frame)
		case ws.ResponseFrame:
			c.printResponse(frame)
		}
	}
}

func (c *client) printResponse(frame ws.Frame) {
	if frame.OK != nil && !*frame.OK && frame.Error != nil {
		c.printf(color.FgRed, "[%s] %s: %s", frame.ID, frame.Error.Code, frame.Error.Message)
		return
	}
	c.printf(color.FgGray, "[%s] %s", frame.ID, frame.Payload)
}

func (c *client) printEvent(frame ws.Frame) {
	switch event.Kind(frame.Event) {
	case event.NewMessageKind:
		var e event.NewMessage
		if json.Unmarshal(frame.Payload, &e) == nil {
			c.printf(color.FgCyan, "%s: %s", e.Message.SenderID, e.Message.Content)
			_ = c.send("message.read", map[string]string{"message_id": e.Message.ID.String()})
			return
		}
	case event.NewGroupMessageKind:
		var e event.NewGroupMessage
		if json.Unmarshal(frame.Payload, &e) == nil {
			c.printf(color.FgMagenta, "#%s %s: %s", e.Message.GroupID, e.Message.SenderID, e.Message.Content)
			_ = c.send("group.read", map[string]string{"message_id": e.Message.ID.String()})
			return
		}
	case event.TypingKind:
		var e event.Typing
		if json.Unmarshal(frame.Payload, &e) == nil {
			c.printf(color.FgGray, "%s is typing...", e.FromID)
			return
		}
	case event.UserOnlineKind, event.UserOfflineKind:
		var e event.UserOnline
		if json.Unmarshal(frame.Payload, &e) == nil {
			c.printf(color.FgYellow, "%s %s", e.UserID, frame.Event)
			return
		}
	}
	c.printf(color.FgGray, "%s %s", frame.Event, frame.Payload)
}

func (c *client) printf(colour color.Color, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if c.colours {
		line = colour.Render(line)
	}
	fmt.Println(line)
}
