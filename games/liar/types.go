/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package liar

import (
	"time"
	"unicode/utf8"
)

const (
	// MaxPlayers caps the number of active players in a room.
	MaxPlayers = 8

	// MaxNicknameLength is measured in characters, not bytes.
	MaxNicknameLength = 6

	// MaxMessageLength is the truncation limit for turn and free chat.
	MaxMessageLength = 40

	DefaultVoteTimeout     = 20 * time.Second
	DefaultGuessTimeout    = 20 * time.Second
	DefaultTurnDelay       = time.Second
	DefaultResultCountdown = 10 * time.Second
)

type Mode string

const (
	ModeBasic Mode = "basic"
	ModeSpy   Mode = "spy"
)

// ParseMode rejects anything but the two known modes.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBasic, ModeSpy:
		return Mode(s), nil
	default:
		return "", ErrUnknownMode
	}
}

type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhaseAwaitingTurn Phase = "playing"
	PhaseVoting       Phase = "voting"
	PhaseGuess        Phase = "wordGuess"
	PhaseResult       Phase = "result"
)

// InRound reports whether a round is in progress (turns, voting or guessing).
func (p Phase) InRound() bool {
	return p == PhaseAwaitingTurn || p == PhaseVoting || p == PhaseGuess
}

type Player struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"isHost"`
	Score    int    `json:"score"`
}

type Spectator struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type RoundConfig struct {
	Mode     Mode
	Category string
	Word     string
}

// Roles holds the secret assignment for a round. SpyID is empty when no spy
// was assigned.
type Roles struct {
	LiarID string
	SpyID  string
}

func (r Roles) IsLiar(id string) bool { return id != "" && id == r.LiarID }
func (r Roles) IsSpy(id string) bool  { return id != "" && id == r.SpyID }

type Outcome string

const (
	LiarWin    Outcome = "liarWin"
	PlayersWin Outcome = "playersWin"
)

type GameResult struct {
	Outcome      Outcome `json:"result"`
	LiarID       string  `json:"liarId"`
	LiarNickname string  `json:"liarNickname,omitempty"`
	SpyID        string  `json:"spyId,omitempty"`
	SpyNickname  string  `json:"spyNickname,omitempty"`
	Word         string  `json:"word"`
	GuessedWord  *string `json:"guessedWord,omitempty"`
	IsCorrect    *bool   `json:"isCorrect,omitempty"`
	IsSoloGame   bool    `json:"isSoloGame,omitempty"`
}

type PlayerScore struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// ValidNickname checks the 1-6 character rule.
func ValidNickname(nickname string) bool {
	n := utf8.RuneCountInString(nickname)
	return n >= 1 && n <= MaxNicknameLength
}

// Truncate cuts text to the first MaxMessageLength characters.
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= MaxMessageLength {
		return text
	}
	return string([]rune(text)[:MaxMessageLength])
}
