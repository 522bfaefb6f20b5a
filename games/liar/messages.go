/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package liar

import (
	"encoding/json"
	"fmt"
)

type Kind string

// Sent by clients
const (
	KindPlayerJoin  Kind = "playerJoin"
	KindGameModeSet Kind = "gameModeSet"
	KindStartGame   Kind = "startGame"
	KindTurnChat    Kind = "turnChat"
	KindChat        Kind = "chat"
	KindVote        Kind = "vote"
	KindGuess       Kind = "guess"
	KindRestartGame Kind = "restartGame"
	KindEndGame     Kind = "endGame"
)

// Sent by the authority
const (
	KindRoomState       Kind = "roomState"
	KindGameStarted     Kind = "gameStarted"
	KindTurnStart       Kind = "turnStart"
	KindVoteStart       Kind = "voteStart"
	KindVoteResult      Kind = "voteResult"
	KindWordGuessStart  Kind = "wordGuessStart"
	KindGameResult      Kind = "gameResult"
	KindGameRestarted   Kind = "gameRestarted"
	KindGameEnded       Kind = "gameEnded"
	KindWelcome         Kind = "welcome"
	KindPlayerJoined    Kind = "playerJoined"
	KindPlayerLeft      Kind = "playerLeft"
	KindSpectatorJoined Kind = "spectatorJoined"
	KindSpectatorLeft   Kind = "spectatorLeft"
	KindHostChanged     Kind = "hostChanged"
	KindError           Kind = "error"
)

// Message is the closed set of payloads exchanged with participants. Only
// types in this file implement it.
type Message interface {
	Kind() Kind
	isMessage()
}

type PlayerJoinMessage struct {
	Nickname string `json:"nickname"`
}

type GameModeSetMessage struct {
	Mode Mode `json:"mode"`
}

type StartGameMessage struct{}

// TurnChatMessage is both the request to speak on your turn and its
// broadcast; PlayerID and Nickname are filled in by the authority.
type TurnChatMessage struct {
	PlayerID string `json:"playerId,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Text     string `json:"text"`
}

type ChatMessage struct {
	PlayerID string `json:"playerId,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Text     string `json:"text"`
}

// VoteMessage carries a nil TargetID for an abstention.
type VoteMessage struct {
	VoterID  string  `json:"voterId,omitempty"`
	TargetID *string `json:"targetId"`
}

type GuessMessage struct {
	PlayerID string `json:"playerId,omitempty"`
	Word     string `json:"word"`
}

type RestartGameMessage struct{}

type EndGameMessage struct {
	Reason string `json:"reason,omitempty"`
}

type RoomStateMessage struct {
	Players    []Player    `json:"players"`
	Spectators []Spectator `json:"spectators"`
	Mode       Mode        `json:"mode"`
	Phase      Phase       `json:"phase"`
	HostID     string      `json:"hostId,omitempty"`
}

type PlayerRef struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// GameStartedMessage is addressed to one participant. Word is left empty for
// the liar and for spectators.
type GameStartedMessage struct {
	Category    string      `json:"category"`
	Word        string      `json:"word,omitempty"`
	IsLiar      bool        `json:"isLiar"`
	IsSpy       bool        `json:"isSpy"`
	IsSpectator bool        `json:"isSpectator,omitempty"`
	Mode        Mode        `json:"mode"`
	TurnOrder   []PlayerRef `json:"turnOrder"`
	PlayerID    string      `json:"playerId"`
}

type TurnStartMessage struct {
	PlayerID   string `json:"playerId"`
	Nickname   string `json:"nickname"`
	TurnNumber int    `json:"turnNumber"`
}

type VoteStartMessage struct {
	Players []PlayerRef `json:"players"`
	Seconds int         `json:"seconds"`
}

type VoteResultMessage struct {
	Votes        map[string]*string `json:"votes"`
	VoteCount    map[string]int     `json:"voteCount"`
	GameResult   *GameResult        `json:"gameResult,omitempty"`
	PlayerScores []PlayerScore      `json:"playerScores,omitempty"`
}

type WordGuessStartMessage struct {
	LiarID       string `json:"liarId"`
	LiarNickname string `json:"liarNickname"`
	Seconds      int    `json:"seconds"`
}

type GameResultMessage struct {
	GameResult   GameResult    `json:"gameResult"`
	PlayerScores []PlayerScore `json:"playerScores"`
}

type GameRestartedMessage struct {
	Players []Player `json:"players"`
}

type GameEndedMessage struct {
	Reason string `json:"reason"`
}

// WelcomeMessage tells a participant who they are after joining.
type WelcomeMessage struct {
	PlayerID    string `json:"playerId"`
	Nickname    string `json:"nickname"`
	IsHost      bool   `json:"isHost"`
	IsSpectator bool   `json:"isSpectator"`
}

type PlayerJoinedMessage struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type PlayerLeftMessage struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type SpectatorJoinedMessage struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type SpectatorLeftMessage struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type HostChangedMessage struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// ErrorMessage is only ever sent to the participant whose action failed.
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (PlayerJoinMessage) Kind() Kind      { return KindPlayerJoin }
func (GameModeSetMessage) Kind() Kind     { return KindGameModeSet }
func (StartGameMessage) Kind() Kind       { return KindStartGame }
func (TurnChatMessage) Kind() Kind        { return KindTurnChat }
func (ChatMessage) Kind() Kind            { return KindChat }
func (VoteMessage) Kind() Kind            { return KindVote }
func (GuessMessage) Kind() Kind           { return KindGuess }
func (RestartGameMessage) Kind() Kind     { return KindRestartGame }
func (EndGameMessage) Kind() Kind         { return KindEndGame }
func (RoomStateMessage) Kind() Kind       { return KindRoomState }
func (GameStartedMessage) Kind() Kind     { return KindGameStarted }
func (TurnStartMessage) Kind() Kind       { return KindTurnStart }
func (VoteStartMessage) Kind() Kind       { return KindVoteStart }
func (VoteResultMessage) Kind() Kind      { return KindVoteResult }
func (WordGuessStartMessage) Kind() Kind  { return KindWordGuessStart }
func (GameResultMessage) Kind() Kind      { return KindGameResult }
func (GameRestartedMessage) Kind() Kind   { return KindGameRestarted }
func (GameEndedMessage) Kind() Kind       { return KindGameEnded }
func (WelcomeMessage) Kind() Kind         { return KindWelcome }
func (PlayerJoinedMessage) Kind() Kind    { return KindPlayerJoined }
func (PlayerLeftMessage) Kind() Kind      { return KindPlayerLeft }
func (SpectatorJoinedMessage) Kind() Kind { return KindSpectatorJoined }
func (SpectatorLeftMessage) Kind() Kind   { return KindSpectatorLeft }
func (HostChangedMessage) Kind() Kind     { return KindHostChanged }
func (ErrorMessage) Kind() Kind           { return KindError }

func (PlayerJoinMessage) isMessage()      {}
func (GameModeSetMessage) isMessage()     {}
func (StartGameMessage) isMessage()       {}
func (TurnChatMessage) isMessage()        {}
func (ChatMessage) isMessage()            {}
func (VoteMessage) isMessage()            {}
func (GuessMessage) isMessage()           {}
func (RestartGameMessage) isMessage()     {}
func (EndGameMessage) isMessage()         {}
func (RoomStateMessage) isMessage()       {}
func (GameStartedMessage) isMessage()     {}
func (TurnStartMessage) isMessage()       {}
func (VoteStartMessage) isMessage()       {}
func (VoteResultMessage) isMessage()      {}
func (WordGuessStartMessage) isMessage()  {}
func (GameResultMessage) isMessage()      {}
func (GameRestartedMessage) isMessage()   {}
func (GameEndedMessage) isMessage()       {}
func (WelcomeMessage) isMessage()         {}
func (PlayerJoinedMessage) isMessage()    {}
func (PlayerLeftMessage) isMessage()      {}
func (SpectatorJoinedMessage) isMessage() {}
func (SpectatorLeftMessage) isMessage()   {}
func (HostChangedMessage) isMessage()     {}
func (ErrorMessage) isMessage()           {}

type envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps m as {"type": ..., "data": ...}.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: m.Kind(), Data: data})
}

// Decode parses a frame produced by Encode. Unknown tags are an error rather
// than being silently ignored.
func Decode(frame []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case KindPlayerJoin:
		return decodeAs[PlayerJoinMessage](env)
	case KindGameModeSet:
		return decodeAs[GameModeSetMessage](env)
	case KindStartGame:
		return decodeAs[StartGameMessage](env)
	case KindTurnChat:
		return decodeAs[TurnChatMessage](env)
	case KindChat:
		return decodeAs[ChatMessage](env)
	case KindVote:
		return decodeAs[VoteMessage](env)
	case KindGuess:
		return decodeAs[GuessMessage](env)
	case KindRestartGame:
		return decodeAs[RestartGameMessage](env)
	case KindEndGame:
		return decodeAs[EndGameMessage](env)
	case KindRoomState:
		return decodeAs[RoomStateMessage](env)
	case KindGameStarted:
		return decodeAs[GameStartedMessage](env)
	case KindTurnStart:
		return decodeAs[TurnStartMessage](env)
	case KindVoteStart:
		return decodeAs[VoteStartMessage](env)
	case KindVoteResult:
		return decodeAs[VoteResultMessage](env)
	case KindWordGuessStart:
		return decodeAs[WordGuessStartMessage](env)
	case KindGameResult:
		return decodeAs[GameResultMessage](env)
	case KindGameRestarted:
		return decodeAs[GameRestartedMessage](env)
	case KindGameEnded:
		return decodeAs[GameEndedMessage](env)
	case KindWelcome:
		return decodeAs[WelcomeMessage](env)
	case KindPlayerJoined:
		return decodeAs[PlayerJoinedMessage](env)
	case KindPlayerLeft:
		return decodeAs[PlayerLeftMessage](env)
	case KindSpectatorJoined:
		return decodeAs[SpectatorJoinedMessage](env)
	case KindSpectatorLeft:
		return decodeAs[SpectatorLeftMessage](env)
	case KindHostChanged:
		return decodeAs[HostChangedMessage](env)
	case KindError:
		return decodeAs[ErrorMessage](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
}

func decodeAs[T Message](env envelope) (Message, error) {
	var m T
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
	}
	return m, nil
}
