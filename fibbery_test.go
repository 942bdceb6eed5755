package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		bind:          "127.0.0.1",
		port:          8080,
		maxPlayers:    20,
		phaseCooldown: 2 * time.Second,
		roundTimer:    30,
	}
}

// Hub handlers are exercised synchronously here, the same way the run
// goroutine invokes them, with clients that have no real connection.
func attachClient(h *Hub) *Client {
	c := &Client{send: make(chan any, 16)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func recv(t *testing.T, c *Client) any {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	default:
		t.Fatal("expected a message, got none")
		return nil
	}
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func join(h *Hub, cfg *Config, c *Client, name string) {
	h.handleIntent(cfg, intent{client: c, msg: ClientMessage{Type: "joinGame", PlayerName: name}})
}

func TestJoinCreatesPendingPlayer(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)
	c := attachClient(h)

	join(h, cfg, c, "dana")

	require.Len(t, h.state.Players, 1)
	player := h.state.Players[0]
	assert.Equal(t, "dana", player.Name)
	assert.Equal(t, RolePending, player.Role)
	assert.Zero(t, player.Points)
	assert.NotEmpty(t, player.ID)

	// Broadcast first, then the personalized snapshot.
	broadcast, ok := recv(t, c).(GameStateMessage)
	require.True(t, ok)
	assert.Equal(t, "gameStateUpdate", broadcast.Type)

	personal, ok := recv(t, c).(PersonalStateMessage)
	require.True(t, ok)
	assert.Equal(t, "personalGameState", personal.Type)
	assert.Equal(t, player, personal.CurrentPlayer)
}

func TestJoinBlankNameIgnored(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)
	c := attachClient(h)

	join(h, cfg, c, "   ")

	assert.Empty(t, h.state.Players)
	assert.Empty(t, c.send)
}

func TestReconnectResumesPlayer(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)

	c1 := attachClient(h)
	join(h, cfg, c1, "dana")
	original := h.state.Players[0]
	original.Points = 3
	original.Role = RoleJudge

	// Disconnect unbinds the connection but keeps the player.
	h.mu.Lock()
	h.dropClientLocked(c1)
	h.mu.Unlock()

	require.Len(t, h.state.Players, 1)
	assert.Empty(t, h.playerConns)

	c2 := attachClient(h)
	join(h, cfg, c2, "dana")

	require.Len(t, h.state.Players, 1, "rejoin must not create a second player")
	assert.Equal(t, c2, h.playerConns[original.ID])
	assert.Equal(t, original.ID, h.connPlayers[c2])

	// A resumed player only gets the personalized snapshot.
	personal, ok := recv(t, c2).(PersonalStateMessage)
	require.True(t, ok)
	assert.Equal(t, original.ID, personal.CurrentPlayer.ID)
	assert.Equal(t, 3, personal.CurrentPlayer.Points)
	assert.Equal(t, RoleJudge, personal.CurrentPlayer.Role)
	assert.Empty(t, c2.send)
}

func TestJoinRebindsLiveConnection(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)

	c1 := attachClient(h)
	join(h, cfg, c1, "dana")
	player := h.state.Players[0]

	// Same name from a second tab steals the binding.
	c2 := attachClient(h)
	join(h, cfg, c2, "dana")

	assert.Equal(t, c2, h.playerConns[player.ID])
	assert.Equal(t, player.ID, h.connPlayers[c2])
	_, stale := h.connPlayers[c1]
	assert.False(t, stale)
}

func TestJoinRefusedWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.maxPlayers = 2
	h := newHub(cfg)

	join(h, cfg, attachClient(h), "alice")
	join(h, cfg, attachClient(h), "bob")

	late := attachClient(h)
	join(h, cfg, late, "carol")

	assert.Len(t, h.state.Players, 2)

	msg, ok := recv(t, late).(SimpleMessage)
	require.True(t, ok)
	assert.Equal(t, "gameFull", msg.Type)
}

func TestStartGameDealsRolesAndNotifiesEveryone(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)

	c1 := attachClient(h)
	c2 := attachClient(h)
	join(h, cfg, c1, "alice")
	join(h, cfg, c2, "bob")
	drain(c1)
	drain(c2)

	h.handleIntent(cfg, intent{client: c1, msg: ClientMessage{Type: "startGame"}})

	assert.Equal(t, PhaseRoleAssignment, h.state.GamePhase)
	assert.Len(t, h.state.Contestants, 1)
	assert.Len(t, h.state.Judges, 1)

	for _, c := range []*Client{c1, c2} {
		_, ok := recv(t, c).(GameStateMessage)
		require.True(t, ok)
		personal, ok := recv(t, c).(PersonalStateMessage)
		require.True(t, ok)
		assert.NotEqual(t, RolePending, personal.CurrentPlayer.Role)
	}
}

func TestStartGameNoOpBelowTwoPlayers(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)

	c := attachClient(h)
	join(h, cfg, c, "alice")
	drain(c)

	h.handleIntent(cfg, intent{client: c, msg: ClientMessage{Type: "startGame"}})

	assert.Equal(t, PhaseLogin, h.state.GamePhase)
	assert.Empty(t, c.send, "a refused start must not broadcast")
}

func TestNextPhaseCooldown(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)
	c := attachClient(h)

	h.handleIntent(cfg, intent{client: c, msg: ClientMessage{Type: "nextPhase"}})
	assert.Equal(t, PhaseWaiting, h.state.GamePhase)

	// Within the cooldown window the second advance is a no-op.
	h.handleIntent(cfg, intent{client: c, msg: ClientMessage{Type: "nextPhase"}})
	assert.Equal(t, PhaseWaiting, h.state.GamePhase)

	// Once the window has passed, advancing works again.
	h.mu.Lock()
	h.lastAdvance = time.Now().Add(-cfg.phaseCooldown)
	h.mu.Unlock()

	h.handleIntent(cfg, intent{client: c, msg: ClientMessage{Type: "nextPhase"}})
	assert.Equal(t, PhaseRoleAssignment, h.state.GamePhase)
}

func TestJudgeVoteAndRetractionOverWire(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)
	c := attachClient(h)
	join(h, cfg, c, "judy")
	judy := h.state.Players[0]
	drain(c)

	target := "some-contestant"
	h.handleIntent(cfg, intent{client: c, msg: ClientMessage{
		Type:         "judgeVote",
		JudgeID:      judy.ID,
		ContestantID: &target,
	}})

	require.NotNil(t, h.state.JudgeVotes[judy.ID])
	assert.Equal(t, target, *h.state.JudgeVotes[judy.ID])

	h.handleIntent(cfg, intent{client: c, msg: ClientMessage{
		Type:    "judgeVote",
		JudgeID: judy.ID,
	}})

	vote, ok := h.state.JudgeVotes[judy.ID]
	require.True(t, ok)
	assert.Nil(t, vote)
}

func TestSubmissionAndReadyOverWire(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)
	c := attachClient(h)
	join(h, cfg, c, "bluffer")
	player := h.state.Players[0]
	drain(c)

	h.handleIntent(cfg, intent{client: c, msg: ClientMessage{
		Type:         "submitFakeDefinition",
		ContestantID: &player.ID,
		Definition:   "a ceremonial hat worn by lighthouse keepers",
	}})
	h.handleIntent(cfg, intent{client: c, msg: ClientMessage{
		Type:         "contestantReady",
		ContestantID: &player.ID,
	}})

	assert.Equal(t, "a ceremonial hat worn by lighthouse keepers", h.state.FakeDefinitions[player.ID])
	assert.Equal(t, []string{player.ID}, h.state.ContestantsReady)
}

func TestNextRoundScoresAndRedeals(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)

	clients := make(map[string]*Client)
	for _, name := range []string{"alice", "bob", "carol"} {
		c := attachClient(h)
		join(h, cfg, c, name)
		clients[name] = c
	}
	h.handleIntent(cfg, intent{client: clients["alice"], msg: ClientMessage{Type: "startGame"}})

	real := h.state.playerByID(*h.state.RealContestantID)
	judge := h.state.Judges[0]
	h.handleIntent(cfg, intent{client: clients[judge.Name], msg: ClientMessage{
		Type:         "judgeVote",
		JudgeID:      judge.ID,
		ContestantID: &real.ID,
	}})

	for _, c := range clients {
		drain(c)
	}

	h.handleIntent(cfg, intent{client: clients["alice"], msg: ClientMessage{Type: "nextRound"}})

	assert.Equal(t, 2, h.state.CurrentRound)
	assert.Equal(t, PhaseRoleAssignment, h.state.GamePhase)
	assert.Equal(t, 1, h.state.playerByID(judge.ID).Points)
	assert.Empty(t, h.state.JudgeVotes)

	// Everyone hears about the reshuffle, globally and personally.
	for name, c := range clients {
		_, ok := recv(t, c).(GameStateMessage)
		require.True(t, ok, name)
		_, ok = recv(t, c).(PersonalStateMessage)
		require.True(t, ok, name)
	}
}

func TestJoinFromDroppedClientIsIgnored(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)

	c := attachClient(h)
	join(h, cfg, c, "dana")
	player := h.state.Players[0]
	drain(c)

	h.mu.Lock()
	h.dropClientLocked(c)
	h.mu.Unlock()

	// The read pump can still deliver one last intent after the hub has
	// dropped the client; it must not panic the hub or rebind the player
	// to the dead connection.
	join(h, cfg, c, "dana")

	require.Len(t, h.state.Players, 1)
	assert.Empty(t, h.playerConns)
	assert.Empty(t, h.connPlayers)

	// The other unicast paths must survive the dead client too.
	h.mu.Lock()
	h.sendPersonalLocked(c, player)
	h.sendLocked(c, SimpleMessage{Type: "gameFull"})
	h.mu.Unlock()
}

func TestDroppedClientStopsReceiving(t *testing.T) {
	cfg := testConfig()
	h := newHub(cfg)

	c := attachClient(h)
	join(h, cfg, c, "ghost")
	drain(c)

	h.mu.Lock()
	h.dropClientLocked(c)
	h.broadcastStateLocked()
	h.mu.Unlock()

	// The channel is closed and empty rather than holding a broadcast.
	_, open := <-c.send
	assert.False(t, open)
}
