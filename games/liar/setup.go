package liar

// Round is everything chosen when a round starts.
type Round struct {
	Config RoundConfig
	Roles  Roles
	Turns  TurnState
}

// StartRound picks a category and word, assigns the liar (and in spy mode
// with at least two players, a spy who is never the liar), and shuffles the
// speaking order.
func StartRound(mode Mode, playerIDs []string, catalog *Catalog, rng Random) (Round, error) {
	n := len(playerIDs)
	if n < 1 {
		return Round{}, ErrInsufficientPlayers
	}

	category, word := catalog.Pick(rng)

	liar := rng.IntN(n)
	roles := Roles{LiarID: playerIDs[liar]}

	if mode == ModeSpy && n >= 2 {
		spy := rng.IntN(n)
		for spy == liar {
			spy = rng.IntN(n)
		}
		roles.SpyID = playerIDs[spy]
	}

	return Round{
		Config: RoundConfig{Mode: mode, Category: category, Word: word},
		Roles:  roles,
		Turns:  TurnState{Order: shuffle(playerIDs, rng)},
	}, nil
}

// shuffle returns a Fisher-Yates permutation of ids without touching the input.
func shuffle(ids []string, rng Random) []string {
	out := append([]string(nil), ids...)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
