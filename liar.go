// Liar Game
//
// Everyone in a room is dealt the same secret word except one player, the
// liar, who only learns the category. Players take turns describing the word,
// then vote on who they think the liar is. A caught liar still wins by
// guessing the word.
//
// Routes:
// - $path                → redirect to a new room with a random 8-char id
// - $path/:gameid        → JSON snapshot of the room
// - $path/:gameid/ws     → WebSocket for that room
// - $path/:gameid/qr     → PNG QR code for the room URL
//
// Participants are identified by a uuid cookie. A dropped connection keeps its
// seat for --player-timeout so a reload lands back in the same round.

package main

import (
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/liargame/games/liar"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 4096
	sendBufferSize = 32
	maxGameIDLen   = 32
)

var errRateLimited = errors.New("slow down")

type Client struct {
	conn     *websocket.Conn
	send     chan liar.Message
	playerID string
	limiter  *rate.Limiter
}

type inbound struct {
	client *Client
	msg    liar.Message
}

// Hub is the transport for one room. It owns the connections; the session
// owns the game.
type Hub struct {
	id      string
	session *liar.Session
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	inbox    chan inbound
	done     chan struct{}

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time
	closed     bool
}

func newHub(cfg *Config, gameID string, catalog *liar.Catalog) *Hub {
	now := time.Now()

	h := &Hub{
		id:         gameID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		inbox:      make(chan inbound),
		done:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}

	h.session = liar.NewSession(gameID, h, liar.Options{
		VoteTimeout:     cfg.voteTimeout,
		GuessTimeout:    cfg.guessTimeout,
		TurnDelay:       cfg.turnDelay,
		ResultCountdown: cfg.resultCountdown,
		Catalog:         catalog,
		Logger:          &cfg.logger,
	})

	return h
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true
			h.mu.Unlock()

			// A known cookie picks up where it left off; anyone else gets a
			// look at the room before choosing a nickname.
			if !h.session.Resync(c.playerID) {
				h.deliver(c, h.session.Snapshot())
			}

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

			go h.scheduleRemoval(cfg, c.playerID, cfg.playerTimeout)

		case in := <-h.inbox:
			h.touch()

			if err := h.session.Handle(in.client.playerID, in.msg); err != nil {
				h.reject(cfg, in.client, in.msg.Kind(), err)
			}

		case <-h.done:
			return
		}
	}
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

// Broadcast implements liar.Transport. It never blocks: a client whose
// buffer is full is dropped.
func (h *Hub) Broadcast(m liar.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.sendLocked(client, m)
	}
}

// SendTo implements liar.Transport. Every connection sharing the cookie gets
// a copy.
func (h *Hub) SendTo(id string, m liar.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.playerID == id {
			h.sendLocked(client, m)
		}
	}
}

func (h *Hub) deliver(c *Client, m liar.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c] {
		h.sendLocked(c, m)
	}
}

func (h *Hub) sendLocked(c *Client, m liar.Message) {
	select {
	case c.send <- m:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

// reject reports a failed action to the connection that sent it.
func (h *Hub) reject(cfg *Config, c *Client, kind liar.Kind, err error) {
	code := liar.ErrorCode(err)
	if errors.Is(err, errRateLimited) {
		code = "rateLimited"
	}

	cfg.logger.Debug().
		Str("room", h.id).
		Str("player", c.playerID).
		Str("kind", string(kind)).
		Err(err).
		Msg("action rejected")

	h.deliver(c, liar.ErrorMessage{Code: code, Message: err.Error()})
}

// scheduleRemoval waits for d, and if no client with this playerID is
// connected by then, takes the participant out of the room.
func (h *Hub) scheduleRemoval(cfg *Config, playerID string, d time.Duration) {
	select {
	case <-time.After(d):
	case <-h.done:
		return
	}

	h.mu.RLock()
	for client := range h.clients {
		if client.playerID == playerID {
			h.mu.RUnlock()
			return
		}
	}
	h.mu.RUnlock()

	if h.session.Has(playerID) {
		logf(cfg, "GAMES: Removing disconnected player %s from %s", playerID, h.id)
		h.session.Leave(playerID)
		h.touch()
	}
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll() {
	h.session.Close()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	close(h.done)

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "liargame_id"

// playerCookie returns the caller's participant id, and a fresh cookie to set
// when the request did not carry a valid one.
func playerCookie(cfg *Config, r *http.Request) (string, *http.Cookie) {
	if c, err := r.Cookie(playerCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String(), nil
		}
	}

	id := uuid.NewString()

	return id, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     cfg.prefix + "/",
		HttpOnly: true,
		Secure:   cfg.scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	}
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	cfg         *Config
	catalog     *liar.Catalog
	hubs        map[string]*Hub
	idleTimeout time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

func newGameManager(cfg *Config, catalog *liar.Catalog) *GameManager {
	gm := &GameManager{
		cfg:         cfg,
		catalog:     catalog,
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
		stop:        make(chan struct{}),
	}
	if gm.idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(gm.cfg, gameID, gm.catalog)
	gm.hubs[gameID] = hub
	go hub.run(gm.cfg)
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-gm.stop:
			return
		}

		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			if hub.idleSince().Before(cutoff) {
				delete(gm.hubs, id)
				logf(gm.cfg, "GAMES: Reaped idle game %s", id)
				go hub.closeAll()
			}
		}
		gm.mu.Unlock()
	}
}

func (gm *GameManager) closeAll() {
	gm.stopOnce.Do(func() { close(gm.stop) })

	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		delete(gm.hubs, id)
		hub.closeAll()
	}
}

func validGameID(id string) bool {
	if id == "" || len(id) > maxGameIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !validGameID(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		playerID, cookie := playerCookie(cfg, r)

		var header http.Header
		if cookie != nil {
			header = http.Header{"Set-Cookie": {cookie.String()}}
		}

		hub := gm.getHub(gameID)

		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			cfg.logger.Warn().Err(err).Str("remote", realIP(r)).Msg("websocket upgrade failed")
			return
		}

		logf(cfg, "GAMES: %s connected to %s as %s", realIP(r), gameID, playerID)

		client := &Client{
			conn:     conn,
			send:     make(chan liar.Message, sendBufferSize),
			playerID: playerID,
			limiter:  rate.NewLimiter(rate.Limit(cfg.chatRate), cfg.chatBurst),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(cfg, hub)
	}
}

func (c *Client) readPump(cfg *Config, h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := liar.Decode(frame)
		if err != nil {
			cfg.logger.Warn().Str("room", h.id).Str("player", c.playerID).Err(err).Msg("bad frame")
			h.deliver(c, liar.ErrorMessage{Code: "badMessage", Message: err.Error()})
			continue
		}

		if !c.limiter.Allow() {
			h.reject(cfg, c, msg.Kind(), errRateLimited)
			continue
		}

		select {
		case h.inbox <- inbound{client: c, msg: msg}:
		case <-h.done:
			return
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
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			frame, err := liar.Encode(msg)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validGameID(ps.ByName("gameid")) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			serverError(cfg, w, r, err)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

type roomSnapshot struct {
	ID   string                `json:"id"`
	Room liar.RoomStateMessage `json:"room"`
	WS   string                `json:"ws"`
	QR   string                `json:"qr"`
}

// serveRoom describes a room over plain HTTP and hands out the participant
// cookie ahead of the websocket connecting.
func serveRoom(cfg *Config, path string, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		gameID := ps.ByName("gameid")
		if !validGameID(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		if _, cookie := playerCookie(cfg, r); cookie != nil {
			http.SetCookie(w, cookie)
		}

		hub := gm.getHub(gameID)
		base := cfg.prefix + path + "/" + gameID

		written, err := writeJSON(cfg, w, http.StatusOK, roomSnapshot{
			ID:   gameID,
			Room: hub.session.Snapshot(),
			WS:   base + "/ws",
			QR:   base + "/qr",
		})
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Room %s (%s) to %s in %s",
			gameID,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		gm.getHub(gameID)
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerLiarGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → JSON room snapshot
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerLiarGame(cfg *Config, catalog *liar.Catalog, path string, mux *httprouter.Router, errs chan<- error) *GameManager {
	gm := newGameManager(cfg, catalog)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", serveRoom(cfg, path, gm, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg))

	return gm
}
