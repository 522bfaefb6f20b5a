package liar

import "strings"

// GuessMatches compares case-insensitively; no trimming or fuzzy matching.
func GuessMatches(word, guess string) bool {
	return strings.ToLower(guess) == strings.ToLower(word)
}

// ResolveGuess turns the liar's guess into the round outcome.
func ResolveGuess(word, guess string) (Outcome, bool) {
	if GuessMatches(word, guess) {
		return LiarWin, true
	}
	return PlayersWin, false
}
