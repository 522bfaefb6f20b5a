package liar

import (
	"cmp"
	"slices"
)

// Replica is a participant's local, read-only copy of a room, rebuilt purely
// from messages the authority sends. It never decides anything; requests go
// back to the authority as client messages.
type Replica struct {
	Self       string
	Players    []Player
	Spectators []Spectator
	Mode       Mode
	Phase      Phase
	HostID     string

	Category   string
	Word       string
	IsLiar     bool
	IsSpy      bool
	TurnOrder  []PlayerRef
	Speaker    string
	TurnNumber int

	Result    *GameResult
	EndReason string
}

func NewReplica() *Replica {
	return &Replica{Phase: PhaseLobby, Mode: ModeBasic}
}

// Apply folds one authority message into the replica.
func (r *Replica) Apply(m Message) {
	switch m := m.(type) {
	case WelcomeMessage:
		r.Self = m.PlayerID
	case RoomStateMessage:
		r.Players = append([]Player(nil), m.Players...)
		r.Spectators = append([]Spectator(nil), m.Spectators...)
		r.Mode = m.Mode
		r.Phase = m.Phase
		r.HostID = m.HostID
	case GameStartedMessage:
		r.clearRound()
		r.EndReason = ""
		r.Phase = PhaseAwaitingTurn
		r.Mode = m.Mode
		r.Category = m.Category
		r.Word = m.Word
		r.IsLiar = m.IsLiar
		r.IsSpy = m.IsSpy
		r.TurnOrder = append([]PlayerRef(nil), m.TurnOrder...)
	case TurnStartMessage:
		r.Phase = PhaseAwaitingTurn
		r.Speaker = m.PlayerID
		r.TurnNumber = m.TurnNumber
	case VoteStartMessage:
		r.Phase = PhaseVoting
		r.Speaker = ""
	case VoteResultMessage:
		if m.GameResult != nil {
			r.resolve(*m.GameResult, m.PlayerScores)
		}
	case WordGuessStartMessage:
		r.Phase = PhaseGuess
	case GameResultMessage:
		r.resolve(m.GameResult, m.PlayerScores)
	case GameRestartedMessage:
		r.clearRound()
		r.Phase = PhaseLobby
		r.Players = append([]Player(nil), m.Players...)
	case GameEndedMessage:
		r.clearRound()
		r.Phase = PhaseLobby
		r.EndReason = m.Reason
	case PlayerLeftMessage:
		r.Players = slices.DeleteFunc(r.Players, func(p Player) bool { return p.ID == m.ID })
	case HostChangedMessage:
		r.HostID = m.ID
		for i := range r.Players {
			r.Players[i].IsHost = r.Players[i].ID == m.ID
		}
	case PlayerJoinMessage, GameModeSetMessage, StartGameMessage, TurnChatMessage, ChatMessage,
		VoteMessage, GuessMessage, RestartGameMessage, EndGameMessage, PlayerJoinedMessage,
		SpectatorJoinedMessage, SpectatorLeftMessage, ErrorMessage:
		// no state of their own; a RoomState or nothing follows
	}
}

func (r *Replica) resolve(result GameResult, scores []PlayerScore) {
	r.Phase = PhaseResult
	r.Speaker = ""
	r.Result = &result

	for _, s := range scores {
		for i := range r.Players {
			if r.Players[i].ID == s.ID {
				r.Players[i].Score = s.Score
			}
		}
	}
}

func (r *Replica) clearRound() {
	r.Category = ""
	r.Word = ""
	r.IsLiar = false
	r.IsSpy = false
	r.TurnOrder = nil
	r.Speaker = ""
	r.TurnNumber = 0
	r.Result = nil
}

func (r *Replica) IsHost() bool {
	return r.Self != "" && r.Self == r.HostID
}

func (r *Replica) IsMyTurn() bool {
	return r.Phase == PhaseAwaitingTurn && r.Self != "" && r.Speaker == r.Self
}

// Leaderboard sorts players by score, highest first; ties keep join order.
func (r *Replica) Leaderboard() []PlayerScore {
	board := make([]PlayerScore, len(r.Players))
	for i, p := range r.Players {
		board[i] = PlayerScore{ID: p.ID, Nickname: p.Nickname, Score: p.Score}
	}

	slices.SortStableFunc(board, func(a, b PlayerScore) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return board
}
