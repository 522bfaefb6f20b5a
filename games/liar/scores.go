package liar

// ApplyScores returns every player's new score for a resolved round. It does
// not mutate players, so calling it twice with the same input is harmless.
//
// Liar wins: liar +3, spy +1. Players win: everyone but liar and spy +1.
func ApplyScores(outcome Outcome, roles Roles, players []Player) []PlayerScore {
	scores := make([]PlayerScore, 0, len(players))

	for _, p := range players {
		score := p.Score

		switch outcome {
		case LiarWin:
			if roles.IsLiar(p.ID) {
				score += 3
			} else if roles.IsSpy(p.ID) {
				score++
			}
		case PlayersWin:
			if !roles.IsLiar(p.ID) && !roles.IsSpy(p.ID) {
				score++
			}
		}

		scores = append(scores, PlayerScore{ID: p.ID, Nickname: p.Nickname, Score: score})
	}

	return scores
}
