package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-board-system/models"
	"match-board-system/store"
	"match-board-system/store/memstore"
)

func newTestMatchService() (*MatchService, store.Store) {
	st := memstore.New()
	return NewMatchService(st, NewNotificationService(st)), st
}

func seedPlayer(t *testing.T, st store.Store, name string, vip bool) *models.Player {
	t.Helper()
	p := &models.Player{
		ID:             uuid.NewString(),
		ExternalUserID: uuid.NewString(),
		DisplayName:    name,
		IsVip:          vip,
		Reputation:     ReputationBase,
	}
	require.NoError(t, st.UpsertPlayer(p))
	return p
}

func seedMatch(t *testing.T, st store.Store, startAt time.Time) *models.Match {
	t.Helper()
	m := &models.Match{
		ID:      uuid.NewString(),
		Name:    "Thursday Night Pickup",
		Slug:    "thursday-night-pickup",
		StartAt: startAt,
	}
	require.NoError(t, st.CreateMatch(m))
	return m
}

func requireKind(t *testing.T, err error, kind ErrKind) {
	t.Helper()
	require.Error(t, err)
	de, ok := err.(*DomainError)
	require.True(t, ok, "expected *DomainError, got %T: %v", err, err)
	assert.Equal(t, kind, de.Kind)
}

func TestMatchStateDerivation(t *testing.T) {
	now := time.Now()
	m := &models.Match{StartAt: now.Add(time.Hour)}
	assert.Equal(t, models.MatchScheduled, m.StateAt(now))
	assert.Equal(t, models.MatchLocked, m.StateAt(now.Add(2*time.Hour)))

	finalized := now.Add(3 * time.Hour)
	m.FinalizedAt = &finalized
	assert.Equal(t, models.MatchFinalized, m.StateAt(now))
}

func TestCreateMatchValidation(t *testing.T) {
	svc, _ := newTestMatchService()
	now := time.Now()

	_, err := svc.createMatch("  ", "court 2", now.Add(time.Hour), now)
	requireKind(t, err, KindValidation)

	_, err = svc.createMatch("Pickup", "court 2", now.Add(-time.Hour), now)
	requireKind(t, err, KindValidation)

	m, err := svc.createMatch("Thursday Pickup", "court 2", now.Add(time.Hour), now)
	require.NoError(t, err)
	assert.Equal(t, "thursday-pickup", m.Slug)
	assert.Equal(t, models.MatchScheduled, m.State)
}

func TestSubscribeFreezesFeeBreakdown(t *testing.T) {
	svc, st := newTestMatchService()
	now := time.Now()
	m := seedMatch(t, st, now.Add(time.Hour))
	vip := seedPlayer(t, st, "Vera", true)

	sub, breakdown, err := svc.subscribe(m.ID, vip.ID, true, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3500), sub.AmountCents)
	assert.Equal(t, int64(1500), sub.DiscountCents)
	assert.Equal(t, int64(3500), breakdown.TotalCents)

	// Losing VIP later must not touch the already-frozen fee.
	require.NoError(t, st.UpdateProfile(vip.ID, map[string]interface{}{"is_vip": false}))
	stored, err := st.GetSubscription(m.ID, vip.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3500), stored.AmountCents)
}

func TestSubscribeStateGuards(t *testing.T) {
	svc, st := newTestMatchService()
	now := time.Now()
	p := seedPlayer(t, st, "Sam", false)

	locked := seedMatch(t, st, now.Add(-time.Hour))
	_, _, err := svc.subscribe(locked.ID, p.ID, false, now)
	requireKind(t, err, KindState)

	scheduled := seedMatch(t, st, now.Add(time.Hour))
	_, _, err = svc.subscribe(scheduled.ID, p.ID, false, now)
	require.NoError(t, err)

	_, _, err = svc.subscribe(scheduled.ID, p.ID, false, now)
	requireKind(t, err, KindState)

	_, _, err = svc.subscribe(uuid.NewString(), p.ID, false, now)
	requireKind(t, err, KindNotFound)
}

func TestUnsubscribeRequiresSubscription(t *testing.T) {
	svc, st := newTestMatchService()
	now := time.Now()
	m := seedMatch(t, st, now.Add(time.Hour))
	p := seedPlayer(t, st, "Sam", false)

	err := svc.unsubscribe(m.ID, p.ID, now)
	requireKind(t, err, KindState)

	_, _, err = svc.subscribe(m.ID, p.ID, false, now)
	require.NoError(t, err)
	require.NoError(t, svc.unsubscribe(m.ID, p.ID, now))

	_, err = st.GetSubscription(m.ID, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkAttendanceGuards(t *testing.T) {
	svc, st := newTestMatchService()
	now := time.Now()
	p := seedPlayer(t, st, "Sam", false)

	scheduled := seedMatch(t, st, now.Add(time.Hour))
	_, _, err := svc.subscribe(scheduled.ID, p.ID, false, now)
	require.NoError(t, err)

	// Scheduled: nobody can be marked yet.
	_, err = svc.markAttendance(scheduled.ID, p.ID, true, "admin-1", now)
	requireKind(t, err, KindState)

	// Locked: marking works and is re-markable.
	later := now.Add(2 * time.Hour)
	rec, err := svc.markAttendance(scheduled.ID, p.ID, true, "admin-1", later)
	require.NoError(t, err)
	assert.True(t, rec.Attended)

	rec2, err := svc.markAttendance(scheduled.ID, p.ID, false, "admin-1", later)
	require.NoError(t, err)
	assert.False(t, rec2.Attended)
	assert.Equal(t, rec.ID, rec2.ID)

	// Unsubscribed players cannot be marked.
	stranger := seedPlayer(t, st, "Riley", false)
	_, err = svc.markAttendance(scheduled.ID, stranger.ID, true, "admin-1", later)
	requireKind(t, err, KindState)
}

func TestFinalizeAppliesAttendanceToReputation(t *testing.T) {
	svc, st := newTestMatchService()
	now := time.Now()
	m := seedMatch(t, st, now.Add(time.Hour))
	good := seedPlayer(t, st, "Grace", false)
	flake := seedPlayer(t, st, "Frank", false)

	_, _, err := svc.subscribe(m.ID, good.ID, false, now)
	require.NoError(t, err)
	_, _, err = svc.subscribe(m.ID, flake.ID, false, now)
	require.NoError(t, err)

	afterStart := now.Add(2 * time.Hour)
	_, err = svc.markAttendance(m.ID, good.ID, true, "admin-1", afterStart)
	require.NoError(t, err)
	// Frank never gets a record: missing means absent.

	summary, err := svc.finalize(m.ID, "admin-1", afterStart)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Attended)
	assert.Equal(t, 1, summary.Absent)
	assert.Equal(t, []string{flake.ID}, summary.AbsenteeIDs)

	gotGood, err := st.GetPlayer(good.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, gotGood.PraiseCount)
	assert.Equal(t, 6, gotGood.Reputation)

	gotFlake, err := st.GetPlayer(flake.ID, false)
	require.NoError(t, err)
	assert.Equal(t, AbsencePenalty, gotFlake.ReportCount)
	assert.Equal(t, 5, gotFlake.Reputation)

	// The absence leaves a system entry on the flake's board.
	entries, total, err := st.ListByTarget(flake.ID, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, models.TransmissionReport, entries[0].Type)
	assert.Nil(t, entries[0].SubmitterID)

	// The absentee is told after commit.
	notifs, err := st.ListNotifications(flake.ID, false)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifyAbsenceReported, notifs[0].Type)

	gotMatch, err := st.GetMatch(m.ID, false)
	require.NoError(t, err)
	require.NotNil(t, gotMatch.FinalizedAt)
	assert.Equal(t, "admin-1", *gotMatch.FinalizedBy)
}

func TestFinalizeIsIrreversibleAndGuarded(t *testing.T) {
	svc, st := newTestMatchService()
	now := time.Now()
	m := seedMatch(t, st, now.Add(time.Hour))

	// Not started yet.
	_, err := svc.finalize(m.ID, "admin-1", now)
	requireKind(t, err, KindState)

	afterStart := now.Add(2 * time.Hour)
	_, err = svc.finalize(m.ID, "admin-1", afterStart)
	require.NoError(t, err)

	_, err = svc.finalize(m.ID, "admin-1", afterStart.Add(time.Minute))
	requireKind(t, err, KindState)

	// A finalized match can no longer be edited or deleted.
	_, err = svc.updateMatch(m.ID, "New Name", "court 3", afterStart.Add(time.Hour), afterStart)
	requireKind(t, err, KindState)
	err = svc.deleteMatch(m.ID)
	requireKind(t, err, KindState)
}

func TestFinalizedMatchClosesRoster(t *testing.T) {
	svc, st := newTestMatchService()
	now := time.Now()
	m := seedMatch(t, st, now.Add(time.Hour))
	in := seedPlayer(t, st, "Ingrid", false)
	out := seedPlayer(t, st, "Oscar", false)

	_, _, err := svc.subscribe(m.ID, in.ID, false, now)
	require.NoError(t, err)

	afterStart := now.Add(2 * time.Hour)
	_, err = svc.finalize(m.ID, "admin-1", afterStart)
	require.NoError(t, err)

	// Once finalized, the roster is closed in every direction.
	_, _, err = svc.subscribe(m.ID, out.ID, false, afterStart)
	requireKind(t, err, KindState)

	err = svc.unsubscribe(m.ID, in.ID, afterStart)
	requireKind(t, err, KindState)

	_, err = svc.markAttendance(m.ID, in.ID, true, "admin-1", afterStart)
	requireKind(t, err, KindState)
}

func TestFinalizeAccumulatesAcrossMatches(t *testing.T) {
	svc, st := newTestMatchService()
	now := time.Now()
	flake := seedPlayer(t, st, "Frank", false)

	for i := 0; i < 2; i++ {
		m := seedMatch(t, st, now.Add(time.Hour))
		_, _, err := svc.subscribe(m.ID, flake.ID, false, now)
		require.NoError(t, err)
		_, err = svc.finalize(m.ID, "admin-1", now.Add(2*time.Hour))
		require.NoError(t, err)
	}

	got, err := st.GetPlayer(flake.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2*AbsencePenalty, got.ReportCount)
	assert.Equal(t, 4, got.Reputation)
}
