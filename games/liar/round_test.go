package liar

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("P%d", i+1)
	}
	return ids
}

func TestStartRound_InsufficientPlayers(t *testing.T) {
	_, err := StartRound(ModeBasic, nil, DefaultCatalog(), rand.New(rand.NewPCG(1, 1)))
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
}

func TestStartRound_Roles(t *testing.T) {
	catalog := DefaultCatalog()

	for n := 1; n <= MaxPlayers; n++ {
		for _, mode := range []Mode{ModeBasic, ModeSpy} {
			for seed := uint64(0); seed < 50; seed++ {
				ids := playerIDs(n)
				rng := rand.New(rand.NewPCG(seed, uint64(n)))

				round, err := StartRound(mode, ids, catalog, rng)
				require.NoError(t, err)

				assert.Contains(t, ids, round.Roles.LiarID)

				if mode == ModeSpy && n >= 2 {
					assert.Contains(t, ids, round.Roles.SpyID)
					assert.NotEqual(t, round.Roles.LiarID, round.Roles.SpyID)
				} else {
					assert.Empty(t, round.Roles.SpyID)
				}

				order := slices.Clone(round.Turns.Order)
				assert.Len(t, order, n)
				slices.Sort(order)
				assert.Equal(t, ids, order, "turn order must be a permutation")
				assert.Zero(t, round.Turns.Index)

				assert.Equal(t, mode, round.Config.Mode)
				assert.Contains(t, catalog.Categories(), round.Config.Category)
				assert.NotEmpty(t, round.Config.Word)
			}
		}
	}
}

func TestStartRound_DoesNotReorderInput(t *testing.T) {
	ids := playerIDs(6)
	_, err := StartRound(ModeBasic, ids, DefaultCatalog(), rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	assert.Equal(t, playerIDs(6), ids)
}

// Every player should be picked as liar at least once over enough rounds.
func TestStartRound_LiarCoversEveryone(t *testing.T) {
	ids := playerIDs(4)
	rng := rand.New(rand.NewPCG(11, 12))
	seen := make(map[string]bool)

	for range 400 {
		round, err := StartRound(ModeBasic, ids, DefaultCatalog(), rng)
		require.NoError(t, err)
		seen[round.Roles.LiarID] = true
	}

	assert.Len(t, seen, 4)
}

func TestTurnState_Advance(t *testing.T) {
	present := map[string]bool{"A": true, "C": true}
	isPresent := func(id string) bool { return present[id] }

	turns := TurnState{Order: []string{"A", "B", "C"}}

	current, ok := turns.Current()
	require.True(t, ok)
	assert.Equal(t, "A", current)

	assert.False(t, turns.Advance(isPresent))
	current, _ = turns.Current()
	assert.Equal(t, "C", current, "departed B is skipped")
	assert.Equal(t, 3, turns.Number())

	assert.True(t, turns.Advance(isPresent))
	assert.True(t, turns.Exhausted())
	assert.Equal(t, len(turns.Order), turns.Index)

	_, ok = turns.Current()
	assert.False(t, ok)

	assert.True(t, turns.Advance(isPresent))
	assert.Equal(t, len(turns.Order), turns.Index, "index never passes the end")
}
