package liar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplica_Apply(t *testing.T) {
	r := NewReplica()

	r.Apply(WelcomeMessage{PlayerID: "P2", Nickname: "bo"})
	r.Apply(RoomStateMessage{
		Players: []Player{
			{ID: "P1", Nickname: "ann", IsHost: true},
			{ID: "P2", Nickname: "bo"},
			{ID: "P3", Nickname: "cy"},
		},
		Mode:   ModeSpy,
		Phase:  PhaseLobby,
		HostID: "P1",
	})
	assert.False(t, r.IsHost())
	assert.Equal(t, ModeSpy, r.Mode)

	r.Apply(GameStartedMessage{
		Category:  "Food",
		Word:      "Taco",
		IsSpy:     true,
		Mode:      ModeSpy,
		TurnOrder: []PlayerRef{{ID: "P2", Nickname: "bo"}, {ID: "P1", Nickname: "ann"}},
		PlayerID:  "P2",
	})
	assert.Equal(t, PhaseAwaitingTurn, r.Phase)
	assert.Equal(t, "Taco", r.Word)
	assert.True(t, r.IsSpy)

	r.Apply(TurnStartMessage{PlayerID: "P2", Nickname: "bo", TurnNumber: 1})
	assert.True(t, r.IsMyTurn())

	r.Apply(TurnStartMessage{PlayerID: "P1", Nickname: "ann", TurnNumber: 2})
	assert.False(t, r.IsMyTurn())
	assert.Equal(t, 2, r.TurnNumber)

	r.Apply(VoteStartMessage{Seconds: 20})
	assert.Equal(t, PhaseVoting, r.Phase)

	result := GameResult{Outcome: LiarWin, LiarID: "P3", LiarNickname: "cy", Word: "Taco"}
	r.Apply(VoteResultMessage{
		GameResult:   &result,
		PlayerScores: []PlayerScore{{ID: "P3", Score: 3}, {ID: "P2", Score: 1}},
	})
	assert.Equal(t, PhaseResult, r.Phase)
	require.NotNil(t, r.Result)
	assert.Equal(t, LiarWin, r.Result.Outcome)

	board := r.Leaderboard()
	require.Len(t, board, 3)
	assert.Equal(t, []string{"P3", "P2", "P1"}, []string{board[0].ID, board[1].ID, board[2].ID})

	r.Apply(GameRestartedMessage{Players: r.Players})
	assert.Equal(t, PhaseLobby, r.Phase)
	assert.Empty(t, r.Word)
	assert.Nil(t, r.Result)
	assert.Equal(t, 3, r.Players[0].Score)
}

func TestReplica_HostChangeAndLeave(t *testing.T) {
	r := NewReplica()
	r.Apply(WelcomeMessage{PlayerID: "P2"})
	r.Apply(RoomStateMessage{
		Players: []Player{{ID: "P1", IsHost: true}, {ID: "P2"}},
		HostID:  "P1",
		Phase:   PhaseLobby,
		Mode:    ModeBasic,
	})

	r.Apply(PlayerLeftMessage{ID: "P1"})
	r.Apply(HostChangedMessage{ID: "P2"})

	require.Len(t, r.Players, 1)
	assert.True(t, r.Players[0].IsHost)
	assert.True(t, r.IsHost())
}

func TestReplica_EndReasonSurvivesRestart(t *testing.T) {
	r := NewReplica()
	r.Apply(GameStartedMessage{Category: "Food", Mode: ModeBasic})
	r.Apply(GameEndedMessage{Reason: "The liar has left the game."})
	r.Apply(GameRestartedMessage{})

	assert.Equal(t, "The liar has left the game.", r.EndReason)

	r.Apply(GameStartedMessage{Category: "Jobs", Mode: ModeBasic})
	assert.Empty(t, r.EndReason)
}

func TestReplica_FollowsSession(t *testing.T) {
	s, tr, clock := newTestSession(t, 3, Options{})

	replicas := map[string]*Replica{}
	for _, id := range []string{"P1", "P2", "P3"} {
		r := NewReplica()
		r.Apply(WelcomeMessage{PlayerID: id})
		r.Apply(s.Snapshot())
		replicas[id] = r
	}
	tr.Reset()

	feed := func() {
		for id, r := range replicas {
			for _, m := range tr.Inbox(id) {
				r.Apply(m)
			}
		}
		tr.Reset()
	}

	require.NoError(t, s.StartGame("P1"))
	feed()

	liar := liarOf(s)
	for id, r := range replicas {
		assert.Equal(t, id == liar, r.IsLiar, id)
		if id == liar {
			assert.Empty(t, r.Word)
		} else {
			assert.Equal(t, wordOf(s), r.Word)
		}
	}

	speakAll(t, s)
	feed()

	for _, r := range replicas {
		assert.Equal(t, PhaseVoting, r.Phase)
	}

	clock.Advance(DefaultVoteTimeout + time.Second)
	feed()

	for id, r := range replicas {
		assert.Equal(t, s.Phase(), r.Phase, id)
		assert.Equal(t, PhaseResult, r.Phase, id)
		require.NotNil(t, r.Result, id)
		assert.Equal(t, LiarWin, r.Result.Outcome, id)
	}
}
