package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-board-system/models"
	"match-board-system/store"
)

type feedFixture struct {
	svc   *TransmissionService
	match *MatchService
	st    store.Store

	game        *models.Match
	attendee    *models.Player
	teammate    *models.Player
	absentee    *models.Player
	finalizedAt time.Time
}

// newFeedFixture builds a finalized match with two attendees and one
// absentee, finalized one hour ago.
func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()
	matchSvc, st := newTestMatchService()
	f := &feedFixture{
		svc:      NewTransmissionService(st, matchSvc.Notifier),
		match:    matchSvc,
		st:       st,
		attendee: seedPlayer(t, st, "Ana", false),
		teammate: seedPlayer(t, st, "Theo", false),
		absentee: seedPlayer(t, st, "Casey", false),
	}

	base := time.Now()
	f.game = seedMatch(t, st, base.Add(-2*time.Hour))
	subscribeAt := base.Add(-3 * time.Hour)
	for _, p := range []*models.Player{f.attendee, f.teammate, f.absentee} {
		_, _, err := matchSvc.subscribe(f.game.ID, p.ID, false, subscribeAt)
		require.NoError(t, err)
	}

	f.finalizedAt = base.Add(-time.Hour)
	_, err := matchSvc.markAttendance(f.game.ID, f.attendee.ID, true, "admin-1", f.finalizedAt)
	require.NoError(t, err)
	_, err = matchSvc.markAttendance(f.game.ID, f.teammate.ID, true, "admin-1", f.finalizedAt)
	require.NoError(t, err)

	_, err = matchSvc.finalize(f.game.ID, "admin-1", f.finalizedAt)
	require.NoError(t, err)
	return f
}

func TestSubmitPraise(t *testing.T) {
	f := newFeedFixture(t)
	now := f.finalizedAt.Add(time.Hour)

	entry, err := f.svc.submit(f.attendee.ID, f.teammate.ID, f.game.ID, models.TransmissionPraise, "great defense", now)
	require.NoError(t, err)
	assert.Equal(t, f.attendee.ID, *entry.SubmitterID)
	assert.Equal(t, f.game.ID, *entry.MatchID)

	// One praise on top of the attendance praise from finalize.
	target, err := f.st.GetPlayer(f.teammate.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, target.PraiseCount)
	assert.Equal(t, 6, target.Reputation)

	notifs, err := f.st.ListNotifications(f.teammate.ID, false)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifyPraiseReceived, notifs[0].Type)
}

func TestSubmitWindowEdges(t *testing.T) {
	f := newFeedFixture(t)

	// Exactly at the window boundary is still allowed.
	atBoundary := f.finalizedAt.Add(TransmissionWindow)
	_, err := f.svc.submit(f.attendee.ID, f.teammate.ID, f.game.ID, models.TransmissionPraise, "", atBoundary)
	require.NoError(t, err)

	// One second past it is not.
	_, err = f.svc.submit(f.teammate.ID, f.attendee.ID, f.game.ID, models.TransmissionPraise, "", atBoundary.Add(time.Second))
	requireKind(t, err, KindEligibility)
}

func TestSubmitDenials(t *testing.T) {
	f := newFeedFixture(t)
	now := f.finalizedAt.Add(time.Hour)

	// Self-target.
	_, err := f.svc.submit(f.attendee.ID, f.attendee.ID, f.game.ID, models.TransmissionPraise, "", now)
	requireKind(t, err, KindEligibility)

	// No match given.
	_, err = f.svc.submit(f.attendee.ID, f.teammate.ID, "", models.TransmissionPraise, "", now)
	requireKind(t, err, KindEligibility)

	// Unknown match.
	_, err = f.svc.submit(f.attendee.ID, f.teammate.ID, uuid.NewString(), models.TransmissionPraise, "", now)
	requireKind(t, err, KindNotFound)

	// Not-yet-finalized match.
	open := seedMatch(t, f.st, now.Add(time.Hour))
	_, err = f.svc.submit(f.attendee.ID, f.teammate.ID, open.ID, models.TransmissionPraise, "", now)
	requireKind(t, err, KindEligibility)

	// Absentees never earned the right to submit.
	_, err = f.svc.submit(f.absentee.ID, f.teammate.ID, f.game.ID, models.TransmissionReport, "", now)
	requireKind(t, err, KindEligibility)

	// Absentees can still be targets, once per match per submitter.
	_, err = f.svc.submit(f.attendee.ID, f.absentee.ID, f.game.ID, models.TransmissionReport, "left us hanging", now)
	require.NoError(t, err)
	_, err = f.svc.submit(f.attendee.ID, f.absentee.ID, f.game.ID, models.TransmissionPraise, "", now)
	requireKind(t, err, KindEligibility)

	// Bad type.
	_, err = f.svc.submit(f.attendee.ID, f.teammate.ID, f.game.ID, "rant", "", now)
	requireKind(t, err, KindValidation)
}

func TestRetractReversesReport(t *testing.T) {
	f := newFeedFixture(t)
	now := f.finalizedAt.Add(time.Hour)

	entry, err := f.svc.submit(f.attendee.ID, f.teammate.ID, f.game.ID, models.TransmissionReport, "no-call fouls", now)
	require.NoError(t, err)

	target, err := f.st.GetPlayer(f.teammate.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, target.ReportCount)

	// Only the submitter may retract.
	_, err = f.svc.retract(entry.ID, f.teammate.ID)
	requireKind(t, err, KindAuthorization)

	got, err := f.svc.retract(entry.ID, f.attendee.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRetracted)

	target, err = f.st.GetPlayer(f.teammate.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, target.ReportCount)

	// Retracting twice is a state violation.
	_, err = f.svc.retract(entry.ID, f.attendee.ID)
	requireKind(t, err, KindState)
}

func TestRetractPraiseRejected(t *testing.T) {
	f := newFeedFixture(t)
	now := f.finalizedAt.Add(time.Hour)

	entry, err := f.svc.submit(f.attendee.ID, f.teammate.ID, f.game.ID, models.TransmissionPraise, "", now)
	require.NoError(t, err)

	_, err = f.svc.retract(entry.ID, f.attendee.ID)
	requireKind(t, err, KindValidation)
}

func TestAdminRetractSystemAbsenceEntry(t *testing.T) {
	f := newFeedFixture(t)

	// Finalize left the absentee with the full penalty and one system entry.
	absentee, err := f.st.GetPlayer(f.absentee.ID, false)
	require.NoError(t, err)
	require.Equal(t, AbsencePenalty, absentee.ReportCount)

	entries, _, err := f.st.ListByTarget(f.absentee.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Nil(t, entries[0].SubmitterID)

	// An excused absence: retracting the system entry returns the
	// whole penalty it documents.
	_, err = f.svc.adminRetract(entries[0].ID)
	require.NoError(t, err)

	absentee, err = f.st.GetPlayer(f.absentee.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, absentee.ReportCount)
	assert.Equal(t, 6, absentee.Reputation)
}

func TestAdminRemoveReversesUnretracted(t *testing.T) {
	f := newFeedFixture(t)
	now := f.finalizedAt.Add(time.Hour)

	entry, err := f.svc.submit(f.attendee.ID, f.teammate.ID, f.game.ID, models.TransmissionReport, "", now)
	require.NoError(t, err)

	require.NoError(t, f.svc.adminRemove(entry.ID))

	target, err := f.st.GetPlayer(f.teammate.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, target.ReportCount)

	_, err = f.st.GetTransmission(entry.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// An already-retracted entry was reversed once; removal must not
	// reverse it again.
	entry2, err := f.svc.submit(f.attendee.ID, f.absentee.ID, f.game.ID, models.TransmissionReport, "", now)
	require.NoError(t, err)
	_, err = f.svc.retract(entry2.ID, f.attendee.ID)
	require.NoError(t, err)
	before, err := f.st.GetPlayer(f.absentee.ID, false)
	require.NoError(t, err)
	require.NoError(t, f.svc.adminRemove(entry2.ID))
	after, err := f.st.GetPlayer(f.absentee.ID, false)
	require.NoError(t, err)
	assert.Equal(t, before.ReportCount, after.ReportCount)
}

func TestAdminEditContent(t *testing.T) {
	f := newFeedFixture(t)
	now := f.finalizedAt.Add(time.Hour)

	entry, err := f.svc.submit(f.attendee.ID, f.teammate.ID, f.game.ID, models.TransmissionPraise, "grate defense", now)
	require.NoError(t, err)

	got, err := f.svc.adminEdit(entry.ID, "great defense")
	require.NoError(t, err)
	assert.Equal(t, "great defense", got.Content)

	_, err = f.svc.adminEdit(entry.ID, "   ")
	requireKind(t, err, KindValidation)
}

func TestEligibleMatches(t *testing.T) {
	f := newFeedFixture(t)
	now := f.finalizedAt.Add(time.Hour)

	got, err := f.svc.eligibleMatches(f.attendee.ID, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.game.ID, got[0].ID)
	assert.Equal(t, models.MatchFinalized, got[0].State)

	// Absentees have nothing to submit about.
	got, err = f.svc.eligibleMatches(f.absentee.ID, now)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Window expiry drops the match.
	got, err = f.svc.eligibleMatches(f.attendee.ID, f.finalizedAt.Add(TransmissionWindow).Add(time.Second))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConcurrentDuplicateSubmits(t *testing.T) {
	f := newFeedFixture(t)
	now := f.finalizedAt.Add(time.Hour)

	// Two racing submissions of the same (submitter, target, match)
	// triple: exactly one may land.
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.submit(f.attendee.ID, f.teammate.ID, f.game.ID, models.TransmissionPraise, "", now)
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		requireKind(t, err, KindEligibility)
		dup++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)

	target, err := f.st.GetPlayer(f.teammate.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, target.PraiseCount) // attendance praise + the one that landed
}

func TestConcurrentSubmitsDistinctSubmitters(t *testing.T) {
	f := newFeedFixture(t)
	now := f.finalizedAt.Add(time.Hour)

	// Two different attendees praise the same target at once. Both
	// must land and neither increment may be lost.
	var wg sync.WaitGroup
	for _, submitter := range []string{f.attendee.ID, f.teammate.ID} {
		wg.Add(1)
		go func(submitter string) {
			defer wg.Done()
			_, err := f.svc.submit(submitter, f.absentee.ID, f.game.ID, models.TransmissionPraise, "", now)
			assert.NoError(t, err)
		}(submitter)
	}
	wg.Wait()

	target, err := f.st.GetPlayer(f.absentee.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, target.PraiseCount)
}
