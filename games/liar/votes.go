package liar

// Ballot is one voter's choice. An empty Target is an abstention.
type Ballot struct {
	Voter  string
	Target string
}

// VoteState keeps ballots in the order voters first cast them. Recasting
// replaces the ballot in place, so the order is stable for the tie-break.
type VoteState struct {
	ballots []Ballot
}

func (v *VoteState) Cast(voter, target string) {
	for i := range v.ballots {
		if v.ballots[i].Voter == voter {
			v.ballots[i].Target = target
			return
		}
	}
	v.ballots = append(v.ballots, Ballot{Voter: voter, Target: target})
}

func (v *VoteState) Discard(voter string) {
	for i := range v.ballots {
		if v.ballots[i].Voter == voter {
			v.ballots = append(v.ballots[:i], v.ballots[i+1:]...)
			return
		}
	}
}

func (v *VoteState) Has(voter string) bool {
	for _, b := range v.ballots {
		if b.Voter == voter {
			return true
		}
	}
	return false
}

func (v *VoteState) Ballots() []Ballot {
	return append([]Ballot(nil), v.ballots...)
}

// AllCast reports whether every id in ids has a ballot.
func (v *VoteState) AllCast(ids []string) bool {
	for _, id := range ids {
		if !v.Has(id) {
			return false
		}
	}
	return len(ids) > 0
}

// Votes is the wire form: voter to target, nil for abstain.
func (v *VoteState) Votes() map[string]*string {
	out := make(map[string]*string, len(v.ballots))
	for _, b := range v.ballots {
		if b.Target == "" {
			out[b.Voter] = nil
			continue
		}
		target := b.Target
		out[b.Voter] = &target
	}
	return out
}

// MajorityThreshold is floor(n/2)+1.
func MajorityThreshold(playerCount int) int {
	return playerCount/2 + 1
}

type Verdict int

const (
	// NoMajority means nobody reached the threshold.
	NoMajority Verdict = iota
	// WrongAccused means a majority landed on someone other than the liar.
	WrongAccused
	// LiarAccused means the liar was caught and gets to guess the word.
	LiarAccused
)

type Tally struct {
	Counts    map[string]int
	Accused   string
	MaxVotes  int
	Threshold int
}

// Tally counts non-abstaining ballots. Ties go to whichever tied target was
// counted first, walking ballots in cast order.
func (v *VoteState) Tally(playerCount int) Tally {
	t := Tally{
		Counts:    make(map[string]int),
		Threshold: MajorityThreshold(playerCount),
	}

	var order []string
	for _, b := range v.ballots {
		if b.Target == "" {
			continue
		}
		if _, seen := t.Counts[b.Target]; !seen {
			order = append(order, b.Target)
		}
		t.Counts[b.Target]++
	}

	for _, target := range order {
		if t.Counts[target] > t.MaxVotes {
			t.MaxVotes = t.Counts[target]
			t.Accused = target
		}
	}

	return t
}

func (t Tally) Verdict(liarID string) Verdict {
	switch {
	case t.MaxVotes < t.Threshold:
		return NoMajority
	case t.Accused == liarID:
		return LiarAccused
	default:
		return WrongAccused
	}
}
