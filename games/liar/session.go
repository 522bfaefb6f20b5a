/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package liar

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Transport delivers the authority's messages. Implementations must not
// block; slow or gone participants are their problem, not the session's.
type Transport interface {
	Broadcast(m Message)
	SendTo(id string, m Message)
}

type Options struct {
	VoteTimeout  time.Duration
	GuessTimeout time.Duration

	// TurnDelay is how long a turn message stays up before the next speaker
	// is called. Zero advances immediately.
	TurnDelay time.Duration

	// ResultCountdown restarts the room automatically after a round
	// resolves. Zero leaves the restart to the host.
	ResultCountdown time.Duration

	Catalog *Catalog
	Clock   Clock
	Random  Random
	Logger  *zerolog.Logger
}

// Session is the authority for one room. Every mutation goes through mu,
// including timer callbacks, so there is exactly one writer at a time.
type Session struct {
	mu sync.Mutex

	id        string
	transport Transport
	opts      Options
	log       zerolog.Logger

	phase  Phase
	mode   Mode
	dir    Directory
	round  *Round
	votes  VoteState
	spoken bool
	result *GameResult
	scores []PlayerScore

	timer    Timer
	epoch    uint64
	deadline time.Time
	closed   bool
}

func NewSession(id string, transport Transport, opts Options) *Session {
	if opts.VoteTimeout <= 0 {
		opts.VoteTimeout = DefaultVoteTimeout
	}
	if opts.GuessTimeout <= 0 {
		opts.GuessTimeout = DefaultGuessTimeout
	}
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Random == nil {
		opts.Random = globalRandom{}
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Session{
		id:        id,
		transport: transport,
		opts:      opts,
		log:       logger.With().Str("room", id).Logger(),
		phase:     PhaseLobby,
		mode:      ModeBasic,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.phase
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mode
}

func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dir.Players()
}

// Has reports whether id is a player or spectator in this room.
func (s *Session) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dir.IsPlayer(id) || s.dir.IsSpectator(id)
}

// Snapshot is the public room state; it never contains the word or roles.
func (s *Session) Snapshot() RoomStateMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.roomStateLocked()
}

// Close stops any pending timer. The session ignores timers from then on.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()
	s.closed = true
}

// Handle dispatches a decoded client message on behalf of from.
func (s *Session) Handle(from string, m Message) error {
	switch m := m.(type) {
	case PlayerJoinMessage:
		return s.Join(from, m.Nickname)
	case GameModeSetMessage:
		return s.SetMode(from, m.Mode)
	case StartGameMessage:
		return s.StartGame(from)
	case TurnChatMessage:
		return s.SendTurnMessage(from, m.Text)
	case ChatMessage:
		return s.SendFreeMessage(from, m.Text)
	case VoteMessage:
		target := ""
		if m.TargetID != nil {
			target = *m.TargetID
		}
		return s.CastVote(from, target)
	case GuessMessage:
		return s.SubmitGuess(from, m.Word)
	case RestartGameMessage:
		return s.Restart(from)
	case EndGameMessage:
		return s.EndGame(from, m.Reason)
	case RoomStateMessage, GameStartedMessage, TurnStartMessage, VoteStartMessage,
		VoteResultMessage, WordGuessStartMessage, GameResultMessage, GameRestartedMessage,
		GameEndedMessage, WelcomeMessage, PlayerJoinedMessage, PlayerLeftMessage,
		SpectatorJoinedMessage, SpectatorLeftMessage, HostChangedMessage, ErrorMessage:
		return fmt.Errorf("%w: %s", ErrUnexpectedMessage, m.Kind())
	default:
		return ErrUnknownMessage
	}
}

// Join adds id to the room. Joining again with a known id resynchronizes
// that participant instead.
func (s *Session) Join(id, nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir.IsPlayer(id) || s.dir.IsSpectator(id) {
		s.resyncLocked(id)
		return nil
	}

	spectator, err := s.dir.Join(id, nickname, s.phase != PhaseLobby)
	if err != nil {
		return err
	}

	s.transport.SendTo(id, s.welcomeLocked(id))

	if spectator {
		s.log.Info().Str("player", id).Str("nickname", nickname).Msg("spectator joined")
		s.transport.Broadcast(SpectatorJoinedMessage{ID: id, Nickname: nickname})
	} else {
		s.log.Info().Str("player", id).Str("nickname", nickname).Msg("player joined")
		s.transport.Broadcast(PlayerJoinedMessage{ID: id, Nickname: nickname})
	}

	s.transport.Broadcast(s.roomStateLocked())

	return nil
}

// Leave removes id. It is driven by disconnects, so it never fails.
func (s *Session) Leave(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dep, ok := s.dir.Leave(id)
	if !ok {
		return
	}

	if dep.Spectator {
		s.log.Info().Str("player", id).Msg("spectator left")
		s.transport.Broadcast(SpectatorLeftMessage{ID: id, Nickname: dep.Nickname})
		s.transport.Broadcast(s.roomStateLocked())
		return
	}

	s.log.Info().Str("player", id).Msg("player left")
	s.transport.Broadcast(PlayerLeftMessage{ID: id, Nickname: dep.Nickname})

	if dep.NewHost != nil {
		s.log.Info().Str("player", dep.NewHost.ID).Msg("host changed")
		s.transport.Broadcast(HostChangedMessage{ID: dep.NewHost.ID, Nickname: dep.NewHost.Nickname})
	}

	s.transport.Broadcast(s.roomStateLocked())

	if !s.phase.InRound() {
		return
	}

	switch {
	case s.dir.Len() == 0:
		s.endLocked("All players have left the game.")
	case s.round.Roles.IsLiar(id):
		s.endLocked("The liar has left the game.")
	case s.phase == PhaseAwaitingTurn:
		if current, ok := s.round.Turns.Current(); ok && current == id && !s.spoken {
			s.advanceTurnLocked()
		}
	case s.phase == PhaseVoting:
		s.votes.Discard(id)
		if s.votes.AllCast(s.dir.PlayerIDs()) {
			s.closeVotingLocked()
		}
	}
}

// Resync resends everything a reconnecting participant needs.
func (s *Session) Resync(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dir.IsPlayer(id) && !s.dir.IsSpectator(id) {
		return false
	}

	s.resyncLocked(id)

	return true
}

func (s *Session) SetMode(playerID string, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHostLocked(playerID); err != nil {
		return err
	}

	m, err := ParseMode(string(mode))
	if err != nil {
		return fmt.Errorf("%w: %q", err, mode)
	}

	if s.phase != PhaseLobby && s.phase != PhaseResult {
		return ErrWrongPhase
	}

	s.mode = m
	s.transport.Broadcast(s.roomStateLocked())

	return nil
}

func (s *Session) StartGame(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHostLocked(playerID); err != nil {
		return err
	}

	if s.phase != PhaseLobby {
		return ErrWrongPhase
	}

	round, err := StartRound(s.mode, s.dir.PlayerIDs(), s.opts.Catalog, s.opts.Random)
	if err != nil {
		return err
	}

	s.cancelTimerLocked()
	s.round = &round
	s.votes = VoteState{}
	s.spoken = false
	s.result = nil
	s.scores = nil
	s.phase = PhaseAwaitingTurn

	s.log.Info().
		Str("mode", string(round.Config.Mode)).
		Str("category", round.Config.Category).
		Int("players", len(round.Turns.Order)).
		Msg("round started")

	for _, id := range s.dir.PlayerIDs() {
		s.transport.SendTo(id, s.gameStartedLocked(id))
	}
	for _, sp := range s.dir.Spectators() {
		s.transport.SendTo(sp.ID, s.gameStartedLocked(sp.ID))
	}

	s.transport.Broadcast(s.turnStartLocked())

	return nil
}

// SendTurnMessage posts the current speaker's description and schedules the
// next turn.
func (s *Session) SendTurnMessage(playerID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseAwaitingTurn {
		return ErrWrongPhase
	}

	current, ok := s.round.Turns.Current()
	if !ok || current != playerID || s.spoken {
		return ErrNotYourTurn
	}

	s.spoken = true
	s.transport.Broadcast(TurnChatMessage{
		PlayerID: playerID,
		Nickname: s.dir.Nickname(playerID),
		Text:     Truncate(text),
	})

	if s.opts.TurnDelay <= 0 {
		s.advanceTurnLocked()
		return nil
	}

	s.scheduleLocked(s.opts.TurnDelay, s.advanceTurnLocked)

	return nil
}

// SendFreeMessage is open chat; it has no effect on the game.
func (s *Session) SendFreeMessage(playerID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dir.IsPlayer(playerID) && !s.dir.IsSpectator(playerID) {
		return ErrNotParticipant
	}

	s.transport.Broadcast(ChatMessage{
		PlayerID: playerID,
		Nickname: s.dir.Nickname(playerID),
		Text:     Truncate(text),
	})

	return nil
}

// CastVote records or replaces voterID's ballot. An empty targetID abstains.
// Voting closes early once every player has voted.
func (s *Session) CastVote(voterID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseVoting {
		return ErrWrongPhase
	}

	if !s.dir.IsPlayer(voterID) {
		return ErrNotParticipant
	}

	if targetID != "" && !s.dir.IsPlayer(targetID) {
		return ErrUnknownTarget
	}

	s.votes.Cast(voterID, targetID)

	if s.votes.AllCast(s.dir.PlayerIDs()) {
		s.closeVotingLocked()
	}

	return nil
}

func (s *Session) SubmitGuess(playerID, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseGuess {
		return ErrWrongPhase
	}

	if !s.round.Roles.IsLiar(playerID) {
		return ErrNotLiar
	}

	s.resolveGuessLocked(Truncate(word))

	return nil
}

func (s *Session) Restart(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHostLocked(playerID); err != nil {
		return err
	}

	s.restartLocked()

	return nil
}

func (s *Session) EndGame(playerID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireHostLocked(playerID); err != nil {
		return err
	}

	if reason == "" {
		reason = "The host ended the game."
	}

	s.endLocked(reason)

	return nil
}

func (s *Session) requireHostLocked(id string) error {
	if !s.dir.IsHost(id) {
		return ErrNotHost
	}
	return nil
}

func (s *Session) advanceTurnLocked() {
	s.cancelTimerLocked()
	s.spoken = false

	if !s.round.Turns.Advance(s.dir.IsPlayer) {
		s.transport.Broadcast(s.turnStartLocked())
		return
	}

	if s.dir.Len() == 1 {
		s.resolveSoloLocked()
		return
	}

	s.startVotingLocked()
}

func (s *Session) resolveSoloLocked() {
	result := s.resultLocked(LiarWin)
	result.IsSoloGame = true

	scores := s.applyScoresLocked(result.Outcome)
	s.transport.Broadcast(GameResultMessage{GameResult: result, PlayerScores: scores})

	s.enterResultLocked(result)
}

func (s *Session) startVotingLocked() {
	s.votes = VoteState{}
	s.phase = PhaseVoting
	s.scheduleLocked(s.opts.VoteTimeout, s.closeVotingLocked)

	players := s.dir.Players()
	refs := make([]PlayerRef, len(players))
	for i, p := range players {
		refs[i] = PlayerRef{ID: p.ID, Nickname: p.Nickname}
	}

	s.transport.Broadcast(VoteStartMessage{Players: refs, Seconds: s.secondsLeftLocked()})
}

func (s *Session) closeVotingLocked() {
	s.cancelTimerLocked()

	tally := s.votes.Tally(s.dir.Len())
	msg := VoteResultMessage{
		Votes:     s.votes.Votes(),
		VoteCount: tally.Counts,
	}

	verdict := tally.Verdict(s.round.Roles.LiarID)

	s.log.Info().
		Str("accused", tally.Accused).
		Int("votes", tally.MaxVotes).
		Int("threshold", tally.Threshold).
		Msg("voting closed")

	if verdict == LiarAccused {
		s.transport.Broadcast(msg)
		s.startGuessLocked()
		return
	}

	result := s.resultLocked(LiarWin)
	msg.GameResult = &result
	msg.PlayerScores = s.applyScoresLocked(result.Outcome)
	s.transport.Broadcast(msg)

	s.enterResultLocked(result)
}

func (s *Session) startGuessLocked() {
	s.phase = PhaseGuess
	s.scheduleLocked(s.opts.GuessTimeout, func() { s.resolveGuessLocked("") })

	liar := s.round.Roles.LiarID
	s.transport.Broadcast(WordGuessStartMessage{
		LiarID:       liar,
		LiarNickname: s.dir.Nickname(liar),
		Seconds:      s.secondsLeftLocked(),
	})
}

func (s *Session) resolveGuessLocked(guess string) {
	s.cancelTimerLocked()

	outcome, correct := ResolveGuess(s.round.Config.Word, guess)

	result := s.resultLocked(outcome)
	result.GuessedWord = &guess
	result.IsCorrect = &correct

	scores := s.applyScoresLocked(outcome)
	s.transport.Broadcast(GameResultMessage{GameResult: result, PlayerScores: scores})

	s.enterResultLocked(result)
}

func (s *Session) resultLocked(outcome Outcome) GameResult {
	roles := s.round.Roles

	result := GameResult{
		Outcome:      outcome,
		LiarID:       roles.LiarID,
		LiarNickname: s.dir.Nickname(roles.LiarID),
		Word:         s.round.Config.Word,
	}

	if roles.SpyID != "" {
		result.SpyID = roles.SpyID
		result.SpyNickname = s.dir.Nickname(roles.SpyID)
	}

	return result
}

// applyScoresLocked is only reached from a round resolution, each of which
// leaves the round phases immediately, so a round is scored once.
func (s *Session) applyScoresLocked(outcome Outcome) []PlayerScore {
	scores := ApplyScores(outcome, s.round.Roles, s.dir.Players())
	s.dir.SetScores(scores)
	s.scores = scores
	return scores
}

func (s *Session) enterResultLocked(result GameResult) {
	s.result = &result
	s.phase = PhaseResult

	s.log.Info().Str("result", string(result.Outcome)).Msg("round resolved")

	if s.opts.ResultCountdown > 0 {
		s.scheduleLocked(s.opts.ResultCountdown, s.restartLocked)
	}
}

// restartLocked returns to the lobby, keeping scores and seating anyone who
// was spectating.
func (s *Session) restartLocked() {
	s.cancelTimerLocked()

	s.phase = PhaseLobby
	s.round = nil
	s.votes = VoteState{}
	s.spoken = false
	s.result = nil
	s.scores = nil

	promoted := s.dir.PromoteSpectators()
	for _, p := range promoted {
		s.transport.SendTo(p.ID, s.welcomeLocked(p.ID))
	}

	s.transport.Broadcast(GameRestartedMessage{Players: s.dir.Players()})
	s.transport.Broadcast(s.roomStateLocked())
}

func (s *Session) endLocked(reason string) {
	s.cancelTimerLocked()

	s.log.Info().Str("reason", reason).Msg("game ended")
	s.transport.Broadcast(GameEndedMessage{Reason: reason})

	s.restartLocked()
}

func (s *Session) resyncLocked(id string) {
	s.transport.SendTo(id, s.welcomeLocked(id))
	s.transport.SendTo(id, s.roomStateLocked())

	if s.round == nil {
		return
	}

	s.transport.SendTo(id, s.gameStartedLocked(id))

	switch s.phase {
	case PhaseAwaitingTurn:
		s.transport.SendTo(id, s.turnStartLocked())
	case PhaseVoting:
		players := s.dir.Players()
		refs := make([]PlayerRef, len(players))
		for i, p := range players {
			refs[i] = PlayerRef{ID: p.ID, Nickname: p.Nickname}
		}
		s.transport.SendTo(id, VoteStartMessage{Players: refs, Seconds: s.secondsLeftLocked()})
	case PhaseGuess:
		liar := s.round.Roles.LiarID
		s.transport.SendTo(id, WordGuessStartMessage{
			LiarID:       liar,
			LiarNickname: s.dir.Nickname(liar),
			Seconds:      s.secondsLeftLocked(),
		})
	case PhaseResult:
		if s.result != nil {
			s.transport.SendTo(id, GameResultMessage{GameResult: *s.result, PlayerScores: s.scores})
		}
	}
}

func (s *Session) welcomeLocked(id string) WelcomeMessage {
	return WelcomeMessage{
		PlayerID:    id,
		Nickname:    s.dir.Nickname(id),
		IsHost:      s.dir.IsHost(id),
		IsSpectator: s.dir.IsSpectator(id),
	}
}

func (s *Session) roomStateLocked() RoomStateMessage {
	return RoomStateMessage{
		Players:    s.dir.Players(),
		Spectators: s.dir.Spectators(),
		Mode:       s.mode,
		Phase:      s.phase,
		HostID:     s.dir.HostID(),
	}
}

// gameStartedLocked builds id's view of the round. The liar and spectators
// never receive the word.
func (s *Session) gameStartedLocked(id string) GameStartedMessage {
	order := make([]PlayerRef, len(s.round.Turns.Order))
	for i, pid := range s.round.Turns.Order {
		order[i] = PlayerRef{ID: pid, Nickname: s.dir.Nickname(pid)}
	}

	msg := GameStartedMessage{
		Category:  s.round.Config.Category,
		Mode:      s.round.Config.Mode,
		TurnOrder: order,
		PlayerID:  id,
	}

	switch {
	case !s.dir.IsPlayer(id):
		msg.IsSpectator = true
	case s.round.Roles.IsLiar(id):
		msg.IsLiar = true
	default:
		msg.Word = s.round.Config.Word
		msg.IsSpy = s.round.Roles.IsSpy(id)
	}

	return msg
}

func (s *Session) turnStartLocked() TurnStartMessage {
	current, _ := s.round.Turns.Current()

	return TurnStartMessage{
		PlayerID:   current,
		Nickname:   s.dir.Nickname(current),
		TurnNumber: s.round.Turns.Number(),
	}
}

// scheduleLocked replaces the pending timer. A timer that fires after its
// phase was left for another reason sees a stale epoch and does nothing.
func (s *Session) scheduleLocked(d time.Duration, fn func()) {
	s.cancelTimerLocked()

	epoch := s.epoch
	s.deadline = s.opts.Clock.Now().Add(d)
	s.timer = s.opts.Clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed || s.epoch != epoch {
			return
		}
		s.timer = nil

		fn()
	})
}

func (s *Session) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.epoch++
	s.deadline = time.Time{}
}

func (s *Session) secondsLeftLocked() int {
	if s.deadline.IsZero() {
		return 0
	}

	left := s.deadline.Sub(s.opts.Clock.Now()).Seconds()
	if left <= 0 {
		return 0
	}

	return int(math.Ceil(left))
}
