package main

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// Role is a player's assignment for the current round. Roles are rewritten
// from scratch on every role assignment; nobody keeps a role across rounds.
type Role string

const (
	RolePending    Role = "pending"
	RoleContestant Role = "contestant"
	RoleJudge      Role = "judge"

	// RoleSpectator survives on the wire for clients that still know the
	// older variant of the game, but no assignment path produces it.
	RoleSpectator Role = "spectator"
)

// Phase is one step of the fixed game cycle.
type Phase string

const (
	PhaseLogin          Phase = "login"
	PhaseWaiting        Phase = "waiting"
	PhaseRoleAssignment Phase = "roleAssignment"
	PhaseContestant     Phase = "contestantPhase"
	PhaseVoting         Phase = "votingPhase"
	PhaseResults        Phase = "results"
	PhaseNextRound      Phase = "nextRound"
)

var phaseCycle = []Phase{
	PhaseLogin,
	PhaseWaiting,
	PhaseRoleAssignment,
	PhaseContestant,
	PhaseVoting,
	PhaseResults,
	PhaseNextRound,
}

// Player is created on first join by a given name and is never deleted,
// so a disconnected player can resume their record by rejoining with the
// same name. Points persist across rounds.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Points int    `json:"points"`
}

// WordEntry is one (word, definition) pair from the corpus.
type WordEntry struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
}

// GameState is the single authoritative game. It carries no locking of its
// own: every mutation happens on the hub goroutine, one intent at a time.
type GameState struct {
	Players          []*Player          `json:"players"`
	CurrentRound     int                `json:"currentRound"`
	CurrentWord      *WordEntry         `json:"currentWord"`
	GamePhase        Phase              `json:"gamePhase"`
	Contestants      []*Player          `json:"contestants"`
	Judges           []*Player          `json:"judges"`
	Timer            int                `json:"timer"`
	JudgeVotes       map[string]*string `json:"judgeVotes"`
	FakeDefinitions  map[string]string  `json:"fakeDefinitions"`
	ContestantsReady []string           `json:"contestantsReady"`
	RealContestantID *string            `json:"realContestantId"`
}

func newGameState(timer int) *GameState {
	return &GameState{
		Players:          []*Player{},
		CurrentRound:     1,
		GamePhase:        PhaseLogin,
		Contestants:      []*Player{},
		Judges:           []*Player{},
		Timer:            timer,
		JudgeVotes:       make(map[string]*string),
		FakeDefinitions:  make(map[string]string),
		ContestantsReady: []string{},
	}
}

func (g *GameState) playerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *GameState) playerByName(name string) *Player {
	for _, p := range g.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// addPlayer appends a new pending player and returns it. Join order is
// preserved: Players is never reordered after this.
func (g *GameState) addPlayer(name string) *Player {
	p := &Player{
		ID:   uuid.NewString(),
		Name: name,
		Role: RolePending,
	}
	g.Players = append(g.Players, p)

	return p
}

// partitionSizes returns how many contestants and judges a game of n players
// gets. From 7 players on, the first six split evenly and the rest alternate
// starting with contestant.
func partitionSizes(n int) (contestants, judges int) {
	switch n {
	case 0:
		return 0, 0
	case 1:
		return 1, 0
	case 2:
		return 1, 1
	case 3:
		return 2, 1
	case 4:
		return 2, 2
	case 5:
		return 3, 2
	case 6:
		return 3, 3
	}

	extra := n - 6

	return 3 + (extra+1)/2, 3 + extra/2
}

// assignRoles shuffles all players, splits them into contestants and judges
// (every player lands in exactly one group), draws a fresh word, and marks
// the first contestant of the shuffle as the one who will see the real
// definition. With allBluff set nobody gets the real definition and every
// contestant writes a fake.
func (g *GameState) assignRoles(allBluff bool) {
	shuffled := make([]*Player, len(g.Players))
	copy(shuffled, g.Players)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	contestantCount, _ := partitionSizes(len(shuffled))

	for i, p := range shuffled {
		if i < contestantCount {
			p.Role = RoleContestant
		} else {
			p.Role = RoleJudge
		}
	}

	// The derived arrays stay in join order even though the partition
	// itself is random.
	g.Contestants = g.Contestants[:0]
	g.Judges = g.Judges[:0]
	for _, p := range g.Players {
		switch p.Role {
		case RoleContestant:
			g.Contestants = append(g.Contestants, p)
		case RoleJudge:
			g.Judges = append(g.Judges, p)
		}
	}

	g.CurrentWord = randomWord()

	g.RealContestantID = nil
	if !allBluff && contestantCount > 0 {
		g.RealContestantID = &shuffled[0].ID
	}
}

// recordVote stores or overwrites a judge's vote. A nil contestantID is a
// retraction and stays in the map as an explicit null.
func (g *GameState) recordVote(judgeID string, contestantID *string) {
	g.JudgeVotes[judgeID] = contestantID
}

// recordSubmission stores or overwrites a contestant's fake definition.
// Deliberately unvalidated: the client decides who gets the affordance.
func (g *GameState) recordSubmission(contestantID, definition string) {
	g.FakeDefinitions[contestantID] = definition
}

// markReady adds a contestant to the ready set. Idempotent.
func (g *GameState) markReady(contestantID string) {
	for _, id := range g.ContestantsReady {
		if id == contestantID {
			return
		}
	}
	g.ContestantsReady = append(g.ContestantsReady, contestantID)
}

// tallyVotes counts non-nil votes per contestant and picks the plurality
// winner. Ties go to the contestant earliest in join order.
func (g *GameState) tallyVotes() (counts map[string]int, plurality string) {
	counts = make(map[string]int)
	for _, vote := range g.JudgeVotes {
		if vote != nil {
			counts[*vote]++
		}
	}

	best := 0
	for _, p := range g.Players {
		if counts[p.ID] > best {
			best = counts[p.ID]
			plurality = p.ID
		}
	}

	return counts, plurality
}

// scoreRound awards points for the round that just finished, reading the
// state as-is. It touches nothing but player points; clearing votes and
// definitions is the round reset's job.
//
// If the judges' plurality pick is the real contestant, every judge who
// voted gets a point. If they miss, the real contestant gets a point for
// the bluff. Any other contestant who fooled at least one judge gets a
// point regardless of the overall outcome.
func (g *GameState) scoreRound() {
	if g.RealContestantID == nil || len(g.JudgeVotes) == 0 {
		return
	}

	counts, plurality := g.tallyVotes()
	if plurality == "" {
		// Every vote was retracted.
		return
	}

	correctGuess := plurality == *g.RealContestantID

	for judgeID := range g.JudgeVotes {
		judge := g.playerByID(judgeID)
		if judge == nil {
			continue
		}
		if correctGuess {
			judge.Points++
		}
	}

	if real := g.playerByID(*g.RealContestantID); real != nil && !correctGuess {
		real.Points++
	}

	for contestantID, count := range counts {
		if contestantID == *g.RealContestantID || count < 1 {
			continue
		}
		if bluffer := g.playerByID(contestantID); bluffer != nil {
			bluffer.Points++
		}
	}
}

// resetForNextRound clears the per-round bookkeeping and bumps the round
// counter. The next assignRoles call repopulates the word, the roles, and
// the real contestant.
func (g *GameState) resetForNextRound() {
	g.JudgeVotes = make(map[string]*string)
	g.FakeDefinitions = make(map[string]string)
	g.ContestantsReady = g.ContestantsReady[:0]
	g.RealContestantID = nil
	g.CurrentRound++
}

// advancePhase steps to the next phase of the fixed cycle, unconditionally.
// Round preconditions (all votes in, all contestants ready) are the
// client's concern, and double-advance protection is the hub's.
func (g *GameState) advancePhase() Phase {
	for i, phase := range phaseCycle {
		if phase == g.GamePhase {
			g.GamePhase = phaseCycle[(i+1)%len(phaseCycle)]
			break
		}
	}

	return g.GamePhase
}

// startGame begins round one. Only valid in the login phase with at least
// two players; otherwise it reports false and changes nothing.
func (g *GameState) startGame(allBluff bool) bool {
	if g.GamePhase != PhaseLogin || len(g.Players) < 2 {
		return false
	}

	g.assignRoles(allBluff)
	g.GamePhase = PhaseRoleAssignment

	return true
}

// nextRound scores the finished round, resets the per-round state, deals
// fresh roles, and restarts the cycle at role assignment without passing
// through login.
func (g *GameState) nextRound(allBluff bool) {
	g.scoreRound()
	g.resetForNextRound()
	g.assignRoles(allBluff)
	g.GamePhase = PhaseRoleAssignment
}
