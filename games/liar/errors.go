/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package liar

import "errors"

var (
	ErrInvalidNickname     = errors.New("nickname must be between 1 and 6 characters")
	ErrInsufficientPlayers = errors.New("not enough players to start a round")
	ErrWrongPhase          = errors.New("action not allowed in the current phase")
	ErrNotHost             = errors.New("only the host may do that")
	ErrNotLiar             = errors.New("only the liar may guess the word")
	ErrRoomFull            = errors.New("room is full")
	ErrNotYourTurn         = errors.New("it is not your turn")
	ErrUnknownMode         = errors.New("unknown game mode")
	ErrNotParticipant      = errors.New("not a participant in this room")
	ErrUnknownTarget       = errors.New("vote target is not a player")
	ErrUnknownMessage      = errors.New("unknown message type")
	ErrUnexpectedMessage   = errors.New("message type is not accepted from clients")
)

// ErrorCode maps an error to the short code sent to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidNickname):
		return "invalidNickname"
	case errors.Is(err, ErrInsufficientPlayers):
		return "insufficientPlayers"
	case errors.Is(err, ErrWrongPhase):
		return "wrongPhase"
	case errors.Is(err, ErrNotHost):
		return "notHost"
	case errors.Is(err, ErrNotLiar):
		return "notLiar"
	case errors.Is(err, ErrRoomFull):
		return "roomFull"
	case errors.Is(err, ErrNotYourTurn):
		return "notYourTurn"
	case errors.Is(err, ErrUnknownMode):
		return "unknownMode"
	case errors.Is(err, ErrNotParticipant):
		return "notParticipant"
	case errors.Is(err, ErrUnknownTarget):
		return "unknownTarget"
	case errors.Is(err, ErrUnknownMessage), errors.Is(err, ErrUnexpectedMessage):
		return "badMessage"
	default:
		return "internal"
	}
}
