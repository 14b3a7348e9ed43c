/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/senryu/room"
	"github.com/Seednode/senryu/senryu"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 32
)

var (
	errClientClosed = errors.New("client closed")
	errSlowClient   = errors.New("client send buffer full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket connection. Everything it is sent goes through a
// buffered channel drained by writePump, so a slow reader never blocks the
// room that is sending to it.
type Client struct {
	conn    *websocket.Conn
	limiter *rate.Limiter

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(cfg *Config, conn *websocket.Conn) *Client {
	limit := rate.Inf
	burst := 1
	if cfg.rateLimit > 0 {
		limit = rate.Limit(cfg.rateLimit)
		burst = max(1, int(cfg.rateLimit*2))
	}

	return &Client{
		conn:    conn,
		limiter: rate.NewLimiter(limit, burst),
		send:    make(chan []byte, sendBuffer),
	}
}

// Send queues data for writing. It fails instead of blocking when the
// buffer is full, which gets the client evicted.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errSlowClient
	}
}

// Close stops the writer, which closes the connection and in turn ends the
// reader. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) sendEvent(e senryu.Event) {
	data, err := e.Marshal()
	if err != nil {
		return
	}
	_ = c.Send(data)
}

func serveRoomWS(cfg *Config, manager *room.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := ps.ByName("roomid")
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "WS: Upgrade failed for %s: %v", realIP(r), err)
			return
		}

		logf(cfg, "WS: %s connected to room %s", realIP(r), roomID)

		client := newClient(cfg, conn)

		go client.writePump()
		client.readPump(cfg, manager, roomID)

		logf(cfg, "WS: %s left room %s", realIP(r), roomID)
	}
}

func (c *Client) readPump(cfg *Config, manager *room.Manager, roomID string) {
	ctx, cancel := context.WithCancel(context.Background())

	defer func() {
		cancel()
		manager.Leave(roomID, c)
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logf(cfg, "WS: Read failed in room %s: %v", roomID, err)
			}
			return
		}

		if !c.limiter.Allow() {
			c.sendEvent(senryu.ErrorEvent(ErrRateLimited))
			continue
		}

		cmd, err := senryu.ParseMessage(data)
		if err != nil {
			c.sendEvent(senryu.ErrorEvent(err))
			continue
		}

		// Rejections arrive as a bare *senryu.Error and have already been
		// sent on this connection by the room. Anything else has not.
		if _, err := manager.Dispatch(ctx, roomID, c, cmd); err != nil {
			if _, rejected := err.(*senryu.Error); !rejected {
				logf(cfg, "WS: %s in room %s failed: %v", cmd.Type(), roomID, err)
				c.sendEvent(senryu.ErrorEvent(err))
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// joinURL is the page a scanned QR code opens: the room path with the join
// code attached. That page belongs to the web front end, which reads the
// code and talks to this server over /api and /rooms/:roomid/ws; the server
// itself only answers the /ws and /qr paths below it.
func joinURL(r *http.Request, code string) string {
	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:roomid/qr; strip trailing "/qr" to get the room URL.
	return scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr") + "?code=" + code
}

// qrHandler generates a PNG QR code of joinURL using go-qrcode.
func qrHandler(cfg *Config, manager *room.Manager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		snap, err := manager.Snapshot(r.Context(), ps.ByName("roomid"))
		if err != nil {
			writeError(cfg, w, r, err)
			return
		}

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(joinURL(r, snap.Code), qrcode.Medium, qrSize)
		if err != nil {
			writeError(cfg, w, r, err)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

// registerSenryu sets up routes so that:
//   - $prefix/rooms/:roomid/ws              → WebSocket for that room
//   - $prefix/rooms/:roomid/qr              → PNG QR code of the front end's join URL
//   - $prefix/api/rooms                     → create a room (POST)
//   - $prefix/api/rooms/:roomid             → room snapshot
//   - $prefix/api/rooms/:roomid/players     → join a room (POST)
//   - $prefix/api/codes/:code               → resolve a join code
//   - $prefix/api/leaderboard               → published senryu
func registerSenryu(cfg *Config, manager *room.Manager, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/rooms/:roomid/ws", serveRoomWS(cfg, manager))
	mux.GET(cfg.prefix+"/rooms/:roomid/qr", qrHandler(cfg, manager))

	mux.POST(cfg.prefix+"/api/rooms", serveCreateRoom(cfg, manager, errs))
	mux.GET(cfg.prefix+"/api/rooms/:roomid", serveRoom(cfg, manager, errs))
	mux.POST(cfg.prefix+"/api/rooms/:roomid/players", serveJoinRoom(cfg, manager, errs))
	mux.GET(cfg.prefix+"/api/codes/:code", serveCode(cfg, manager, errs))
	mux.GET(cfg.prefix+"/api/leaderboard", serveLeaderboard(cfg, manager, errs))
}
