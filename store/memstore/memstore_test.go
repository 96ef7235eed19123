package memstore

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-board-system/models"
	"match-board-system/store"
)

func TestAtomicRollsBackEverything(t *testing.T) {
	st := New()
	p := &models.Player{ID: uuid.NewString(), ExternalUserID: uuid.NewString(), DisplayName: "Ana"}
	require.NoError(t, st.UpsertPlayer(p))

	boom := errors.New("boom")
	err := st.Atomic(func(tx store.Store) error {
		require.NoError(t, tx.UpdateAggregates(p.ID, 3, 0, 6))
		require.NoError(t, tx.CreateMatch(&models.Match{ID: uuid.NewString(), Name: "M", StartAt: time.Now()}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := st.GetPlayer(p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, got.PraiseCount)

	matches, err := st.ListMatches()
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestAtomicCommitsAsAUnit(t *testing.T) {
	st := New()
	p := &models.Player{ID: uuid.NewString(), ExternalUserID: uuid.NewString(), DisplayName: "Ana"}
	require.NoError(t, st.UpsertPlayer(p))

	m := &models.Match{ID: uuid.NewString(), Name: "M", StartAt: time.Now()}
	err := st.Atomic(func(tx store.Store) error {
		if err := tx.CreateMatch(m); err != nil {
			return err
		}
		return tx.UpdateAggregates(p.ID, 5, 0, 7)
	})
	require.NoError(t, err)

	got, err := st.GetPlayer(p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Reputation)
	_, err = st.GetMatch(m.ID, false)
	assert.NoError(t, err)
}

func TestAtomicIsReentrant(t *testing.T) {
	st := New()
	err := st.Atomic(func(tx store.Store) error {
		return tx.Atomic(func(inner store.Store) error {
			return inner.CreateMatch(&models.Match{ID: uuid.NewString(), Name: "M", StartAt: time.Now()})
		})
	})
	require.NoError(t, err)

	matches, err := st.ListMatches()
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestUpsertPlayerKeepsCountsOnExternalIDConflict(t *testing.T) {
	st := New()
	extID := uuid.NewString()
	p := &models.Player{ID: uuid.NewString(), ExternalUserID: extID, DisplayName: "Ana"}
	require.NoError(t, st.UpsertPlayer(p))
	require.NoError(t, st.UpdateAggregates(p.ID, 5, 0, 7))

	// A sync batch re-sends the member under a fresh row ID.
	require.NoError(t, st.UpsertPlayer(&models.Player{
		ID:             uuid.NewString(),
		ExternalUserID: extID,
		DisplayName:    "Ana Maria",
		IsVip:          true,
	}))

	got, err := st.GetPlayerByExternalID(extID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "Ana Maria", got.DisplayName)
	assert.True(t, got.IsVip)
	assert.Equal(t, 5, got.PraiseCount)
	assert.Equal(t, 7, got.Reputation)
}

func TestSearchPlayersFoldsAccents(t *testing.T) {
	st := New()
	jose := &models.Player{
		ID:             uuid.NewString(),
		ExternalUserID: uuid.NewString(),
		DisplayName:    "José",
		Nickname:       "Pepe",
	}
	require.NoError(t, st.UpsertPlayer(jose))
	require.NoError(t, st.UpsertPlayer(&models.Player{
		ID:             uuid.NewString(),
		ExternalUserID: uuid.NewString(),
		DisplayName:    "Riley",
	}))

	// The accented name is stored under its folded key, so both the
	// bare and the accented spelling find it.
	for _, q := range []string{"jose", "JOSÉ", "pepe"} {
		hits, total, err := st.SearchPlayers(q, 1, 10)
		require.NoError(t, err)
		require.EqualValues(t, 1, total, "query %q", q)
		assert.Equal(t, jose.ID, hits[0].ID)
	}

	// Renames refresh the key.
	require.NoError(t, st.UpdateProfile(jose.ID, map[string]interface{}{"display_name": "Søren"}))
	_, total, err := st.SearchPlayers("jose", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	hits, total, err := st.SearchPlayers("soren", 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, jose.ID, hits[0].ID)
}
