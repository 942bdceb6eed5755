// Fibbery
//
// A moderator-less bluffing game. Each round every player is dealt a role:
// contestants present a definition for an obscure word, judges vote for the
// definition they believe is genuine. Exactly one contestant is shown the
// real definition; the rest make theirs up. Judges score for sniffing out
// the truth, the real contestant scores for slipping it past them, and any
// bluffer who attracts a vote scores too.
//
// Features:
// - Single shared game per process: /path, /path/ws, /path/qr
// - Players join by name; rejoining with the same name resumes the record
// - Disconnecting never deletes a player, so scores survive page reloads
// - Roles are redealt every round with no spectators: 1/1, 2/1, 2/2, 3/2,
//   3/3 for 2-6 players, then alternating from 7 up
// - Phase advances are cooldown-protected against double taps
// - All-bluff mode for playtesting: nobody holds the real definition
// - In-browser QR button to share the game URL, backed by go-qrcode

package main

import (
	_ "embed"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type         string  `json:"type"`                   // "joinGame", "startGame", "nextPhase", "submitFakeDefinition", "contestantReady", "judgeVote", "nextRound"
	PlayerName   string  `json:"playerName,omitempty"`   // joinGame
	ContestantID *string `json:"contestantId,omitempty"` // submitFakeDefinition / contestantReady; for judgeVote, the vote target, where an explicit null retracts the judge's vote
	JudgeID      string  `json:"judgeId,omitempty"`      // judgeVote
	Definition   string  `json:"definition,omitempty"`   // submitFakeDefinition
}

// GameStateMessage is the global snapshot, broadcast identically to every
// connection after any mutation.
type GameStateMessage struct {
	Type      string     `json:"type"` // "gameStateUpdate"
	GameState *GameState `json:"gameState"`
}

// PersonalStateMessage is the personalized snapshot, unicast so each client
// learns its own record (and freshly dealt role) without guessing.
type PersonalStateMessage struct {
	Type          string     `json:"type"` // "personalGameState"
	GameState     *GameState `json:"gameState"`
	CurrentPlayer *Player    `json:"currentPlayer"`
}

// SimpleMessage is for generic notifications ("gameFull", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type intent struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	intents  chan intent

	mu sync.Mutex

	state       *GameState
	playerConns map[string]*Client // playerID -> connection
	connPlayers map[*Client]string // connection -> playerID
	lastAdvance time.Time
}

func newHub(cfg *Config) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unreg:       make(chan *Client),
		intents:     make(chan intent),
		state:       newGameState(cfg.roundTimer),
		playerConns: make(map[string]*Client),
		connPlayers: make(map[*Client]string),
	}
}

// run is the only goroutine that touches the game state. Every intent is
// handled to completion before the next one, so the state needs no locking
// discipline of its own.
func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.dropClientLocked(c)
			}
			h.mu.Unlock()

		case in := <-h.intents:
			h.handleIntent(cfg, in)
		}
	}
}

func (h *Hub) handleIntent(cfg *Config, in intent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch in.msg.Type {
	case "joinGame":
		h.handleJoin(cfg, in.client, in.msg)
	case "startGame":
		h.handleStart(cfg)
	case "nextPhase":
		h.handleNextPhase(cfg)
	case "submitFakeDefinition":
		if in.msg.ContestantID == nil || in.msg.Definition == "" {
			return
		}
		h.state.recordSubmission(*in.msg.ContestantID, in.msg.Definition)
		h.broadcastStateLocked()
	case "contestantReady":
		if in.msg.ContestantID == nil {
			return
		}
		h.state.markReady(*in.msg.ContestantID)
		h.broadcastStateLocked()
	case "judgeVote":
		if in.msg.JudgeID == "" {
			return
		}
		h.state.recordVote(in.msg.JudgeID, in.msg.ContestantID)
		h.broadcastStateLocked()
	case "nextRound":
		h.handleNextRound(cfg)
	default:
		// ignore unknown types
	}
}

// handleJoin resumes an existing player by name or creates a new one. The
// player record outlives its connection; only the binding changes here.
func (h *Hub) handleJoin(cfg *Config, c *Client, msg ClientMessage) {
	// The read pump can race one last intent past a drop; a dropped
	// client must not take over a player binding.
	if !h.clients[c] {
		return
	}

	name := strings.TrimSpace(msg.PlayerName)
	if name == "" {
		return
	}

	if existing := h.state.playerByName(name); existing != nil {
		if old, ok := h.playerConns[existing.ID]; ok && old != c {
			delete(h.connPlayers, old)
		}
		h.playerConns[existing.ID] = c
		h.connPlayers[c] = existing.ID

		logf(cfg, "GAMES: Player %q reconnected", name)

		h.sendPersonalLocked(c, existing)

		return
	}

	if len(h.state.Players) >= cfg.maxPlayers {
		h.sendLocked(c, SimpleMessage{
			Type:    "gameFull",
			Message: "The game is full; no new players may join.",
		})

		return
	}

	player := h.state.addPlayer(name)
	h.playerConns[player.ID] = c
	h.connPlayers[c] = player.ID

	logf(cfg, "GAMES: Player %q joined, %d total", name, len(h.state.Players))

	h.broadcastStateLocked()
	h.sendPersonalLocked(c, player)
}

func (h *Hub) handleStart(cfg *Config) {
	if !h.state.startGame(cfg.allBluff) {
		return
	}

	logf(cfg, "GAMES: Game started with %d players, %d contestants and %d judges",
		len(h.state.Players),
		len(h.state.Contestants),
		len(h.state.Judges),
	)

	h.broadcastStateLocked()
	h.sendPersonalAllLocked()
}

func (h *Hub) handleNextPhase(cfg *Config) {
	now := time.Now()
	if now.Sub(h.lastAdvance) < cfg.phaseCooldown {
		logf(cfg, "GAMES: Phase advance blocked, %s since last", now.Sub(h.lastAdvance))

		return
	}
	h.lastAdvance = now

	from := h.state.GamePhase
	to := h.state.advancePhase()

	logf(cfg, "GAMES: Phase %s -> %s", from, to)

	h.broadcastStateLocked()
}

func (h *Hub) handleNextRound(cfg *Config) {
	h.state.nextRound(cfg.allBluff)

	logf(cfg, "GAMES: Round %d started", h.state.CurrentRound)

	h.broadcastStateLocked()
	h.sendPersonalAllLocked()
}

// sendLocked queues a message for one client, dropping the client if its
// send buffer is full. A client the hub has already dropped may still have
// an intent in flight from its read pump; its send channel is closed, so
// it must be skipped rather than sent to.
func (h *Hub) sendLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		h.dropClientLocked(c)
	}
}

func (h *Hub) dropClientLocked(c *Client) {
	delete(h.clients, c)
	close(c.send)

	if playerID, ok := h.connPlayers[c]; ok {
		delete(h.connPlayers, c)
		if h.playerConns[playerID] == c {
			delete(h.playerConns, playerID)
		}
	}
}

func (h *Hub) broadcastStateLocked() {
	msg := GameStateMessage{
		Type:      "gameStateUpdate",
		GameState: h.state,
	}

	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

func (h *Hub) sendPersonalLocked(c *Client, player *Player) {
	h.sendLocked(c, PersonalStateMessage{
		Type:          "personalGameState",
		GameState:     h.state,
		CurrentPlayer: player,
	})
}

// sendPersonalAllLocked unicasts each connected player their own snapshot,
// used after every role reshuffle.
func (h *Hub) sendPersonalAllLocked() {
	for _, player := range h.state.Players {
		if c, ok := h.playerConns[player.ID]; ok {
			h.sendPersonalLocked(c, player)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveWS(cfg *Config, hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Websocket upgrade for %s: %v", realIP(r), err)

			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
		}

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		h.intents <- intent{
			client: c,
			msg:    msg,
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../qr; strip the trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ---- Static file paths ----

//go:embed fibbery/index.html
var indexHTML []byte

//go:embed fibbery/app.css
var fibberyCSS []byte

//go:embed fibbery/app.js
var fibberyJS []byte

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(indexHTML)
	}
}

func getCssHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(fibberyCSS)
	}
}

func getJsHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(fibberyJS)
	}
}

// registerFibberyGame sets up routes so that:
//   - $path        → HTML client
//   - $path/ws     → WebSocket for the shared game
//   - $path/qr     → PNG QR code for the game URL
func registerFibberyGame(cfg *Config, path string, mux *httprouter.Router) {
	hub := newHub(cfg)
	go hub.run(cfg)

	// The one shared game (HTML client)
	mux.GET(cfg.prefix+path, getIndexHandler(cfg))

	// Shared assets
	mux.GET(cfg.prefix+"/assets/fibbery/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/fibbery/app.js", getJsHandler(cfg))

	// Game websocket
	mux.GET(cfg.prefix+path+"/ws", serveWS(cfg, hub))

	// QR code for sharing
	mux.GET(cfg.prefix+path+"/qr", qrHandler)
}
