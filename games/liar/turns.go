package liar

// TurnState is the fixed speaking order for a round and the position in it.
// Index == len(Order) means every turn has been consumed.
type TurnState struct {
	Order []string
	Index int
}

// Current returns the player whose turn it is.
func (t *TurnState) Current() (string, bool) {
	if t.Exhausted() {
		return "", false
	}
	return t.Order[t.Index], true
}

func (t *TurnState) Exhausted() bool {
	return t.Index >= len(t.Order)
}

// Advance moves to the next speaker still present in the room and reports
// whether the order is now exhausted. Departed players are skipped; the
// order itself never changes mid-round.
func (t *TurnState) Advance(present func(id string) bool) bool {
	if !t.Exhausted() {
		t.Index++
	}
	return t.skipAbsent(present)
}

func (t *TurnState) skipAbsent(present func(id string) bool) bool {
	for !t.Exhausted() && !present(t.Order[t.Index]) {
		t.Index++
	}
	return t.Exhausted()
}

// Number is the 1-based turn number shown to players.
func (t *TurnState) Number() int {
	return t.Index + 1
}
