package events

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simple-event-calendar/server/internal/audit"
	"github.com/simple-event-calendar/server/internal/domain/apperr"
	"github.com/simple-event-calendar/server/internal/storage"
	"github.com/simple-event-calendar/server/internal/storage/sqlite"
)

type fixture struct {
	svc  *Service
	repo storage.Repository
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "events.sqlite")
	require.NoError(t, sqlite.MigrateUp(dsn))
	repo, err := sqlite.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	f := &fixture{
		repo: repo,
		now:  time.Now().UTC().Truncate(time.Second),
	}
	f.svc = NewService(repo, audit.NewLoggerWithZerolog(zerolog.Nop()), zerolog.Nop()).WithLocation(time.UTC)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) user(t *testing.T, email, handle string) storage.User {
	t.Helper()
	user, err := f.repo.Users().Create(context.Background(), storage.CreateUserParams{
		Name:         "Name " + handle,
		Email:        email,
		GivenName:    handle,
		PasswordHash: "x",
		CreatedAt:    f.now,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) event(t *testing.T, title string, in time.Duration) storage.Event {
	t.Helper()
	event, err := f.svc.CreateEvent(context.Background(), CreateEventParams{
		Title:         title,
		Date:          f.now.Add(in).Format(time.RFC3339),
		ConfirmeUntil: f.now.Add(in).Format(time.RFC3339),
		Category:      "party",
		CreatedBy:     "alice",
	})
	require.NoError(t, err)
	return event
}

func TestCreateEventRoundTrip(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "a@x.com", "alice")
	date := f.now.Add(48 * time.Hour)
	deadline := f.now.Add(24 * time.Hour)

	created, err := f.svc.CreateEvent(context.Background(), CreateEventParams{
		Title:         "Forró night",
		Date:          date.Format(time.RFC3339),
		Description:   "Bring <b>friends</b> & snacks",
		Category:      "music",
		ConfirmeUntil: deadline.Format(time.RFC3339),
		Address: Address{
			Location:       "Rua da Aurora",
			LocationNumber: "100",
			District:       "Boa Vista",
			LocationCity:   "Recife",
			UF:             "PE",
			CEP:            "50050-000",
		},
		CreatedBy: "alice",
		UserID:    &owner.ID,
	})
	require.NoError(t, err)

	fetched, err := f.svc.GetEvent(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Forró night", fetched.Title)
	assert.Equal(t, "Bring friends & snacks", fetched.Description)
	assert.Equal(t, "music", fetched.Category)
	assert.Equal(t, "Rua da Aurora, 100 - Boa Vista, Recife - PE, 50050-000", fetched.Location)
	assert.True(t, fetched.Date.Equal(date))
	assert.True(t, fetched.ConfirmeUntil.Equal(deadline))
	require.NotNil(t, fetched.UserID)
	assert.Equal(t, owner.ID, *fetched.UserID)
}

func TestCreateEventRejectsPastOrPresent(t *testing.T) {
	f := newFixture(t)
	future := f.now.Add(time.Hour).Format(time.RFC3339)

	tests := []struct {
		name          string
		date          string
		confirmeUntil string
		msg           string
	}{
		{"date now", f.now.Format(time.RFC3339), future, MsgDateNotInFuture},
		{"date past", f.now.Add(-time.Minute).Format(time.RFC3339), future, MsgDateNotInFuture},
		{"deadline now", future, f.now.Format(time.RFC3339), MsgConfirmeUntilNotFuture},
		{"deadline past", future, f.now.Add(-time.Hour).Format(time.RFC3339), MsgConfirmeUntilNotFuture},
		{"date missing", "", future, "date is required"},
		{"date garbage", "zzzz", future, "date must be a valid date and time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateEvent(context.Background(), CreateEventParams{
				Title:         "Party",
				Date:          tt.date,
				ConfirmeUntil: tt.confirmeUntil,
			})
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tt.msg, apperr.Message(err, ""))
		})
	}
}

func TestCreateEventRequiresTitle(t *testing.T) {
	f := newFixture(t)
	future := f.now.Add(time.Hour).Format(time.RFC3339)

	_, err := f.svc.CreateEvent(context.Background(), CreateEventParams{Title: "<script>x</script>", Date: future, ConfirmeUntil: future})
	assert.Equal(t, MsgTitleRequired, apperr.Message(err, ""))
}

func TestCreateEventUnknownOwner(t *testing.T) {
	f := newFixture(t)
	future := f.now.Add(time.Hour).Format(time.RFC3339)
	ghost := int64(999)

	_, err := f.svc.CreateEvent(context.Background(), CreateEventParams{Title: "Party", Date: future, ConfirmeUntil: future, UserID: &ghost})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListEventsOnlyOpenSoonestFirst(t *testing.T) {
	f := newFixture(t)
	later := f.event(t, "later", 3*time.Hour)
	sooner := f.event(t, "sooner", time.Hour)

	events, err := f.svc.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, sooner.ID, events[0].ID)
	assert.Equal(t, later.ID, events[1].ID)

	f.now = f.now.Add(2 * time.Hour)
	events, err = f.svc.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, later.ID, events[0].ID)

	f.now = f.now.Add(24 * time.Hour)
	events, err = f.svc.ListEvents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestDeleteEvent(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "a@x.com", "alice")
	event := f.event(t, "party", time.Hour)
	_, err := f.svc.AddParticipant(context.Background(), user.ID, event.ID, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteEvent(context.Background(), event.ID, "a@x.com"))

	_, err = f.svc.GetEvent(context.Background(), event.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	joined, err := f.svc.ListEventsForUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, joined, "participants are removed with their event")

	err = f.svc.DeleteEvent(context.Background(), event.ID, "a@x.com")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAddParticipantPriority(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "a@x.com", "alice")
	event := f.event(t, "party", time.Hour)

	p, err := f.svc.AddParticipant(context.Background(), user.ID, event.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Name alice", p.Name, "display name defaults to the user's name")
	assert.False(t, p.Confirmed)

	_, err = f.svc.AddParticipant(context.Background(), user.ID, event.ID, "Alice")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, MsgAlreadyParticipant, apperr.Message(err, ""))

	_, err = f.svc.AddParticipant(context.Background(), 999, event.ID, "x")
	assert.Equal(t, MsgUserNotFound, apperr.Message(err, ""))

	_, err = f.svc.AddParticipant(context.Background(), user.ID, 999, "x")
	assert.Equal(t, MsgEventNotFound, apperr.Message(err, ""))

	_, err = f.svc.AddParticipant(context.Background(), 998, 999, "x")
	assert.Equal(t, MsgUserNotFound, apperr.Message(err, ""), "missing user is reported before missing event")
}

func TestAddParticipantConcurrentJoinStoresOneRow(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "a@x.com", "alice")
	event := f.event(t, "party", time.Hour)

	const joins = 8
	var wg sync.WaitGroup
	errs := make([]error, joins)
	for i := 0; i < joins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.AddParticipant(context.Background(), user.ID, event.ID, "Alice")
		}(i)
	}
	wg.Wait()

	added := 0
	for _, err := range errs {
		if err == nil {
			added++
			continue
		}
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, added)

	participants, err := f.svc.ListParticipants(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 1)
}

func TestConfirmParticipationDeadline(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "a@x.com", "alice")
	event := f.event(t, "party", time.Hour)
	_, err := f.svc.AddParticipant(context.Background(), user.ID, event.ID, "Alice")
	require.NoError(t, err)

	start := f.now

	f.now = event.ConfirmeUntil
	_, err = f.svc.ConfirmParticipation(context.Background(), user.ID, event.ID, nil)
	assert.Equal(t, apperr.KindExpired, apperr.KindOf(err), "deadline instant is already too late")

	f.now = start
	earlier := start.Add(-time.Second)
	_, err = f.svc.ConfirmParticipation(context.Background(), user.ID, event.ID, &earlier)
	assert.Equal(t, apperr.KindExpired, apperr.KindOf(err), "client deadline can only shorten the window")

	f.now = event.ConfirmeUntil.Add(-time.Microsecond)
	laterThanStored := event.ConfirmeUntil.Add(time.Hour)
	p, err := f.svc.ConfirmParticipation(context.Background(), user.ID, event.ID, &laterThanStored)
	require.NoError(t, err)
	assert.True(t, p.Confirmed)

	p, err = f.svc.ConfirmParticipation(context.Background(), user.ID, event.ID, nil)
	require.NoError(t, err, "confirming again is a no-op")
	assert.True(t, p.Confirmed)
}

func TestConfirmParticipationNotFound(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "a@x.com", "alice")
	event := f.event(t, "party", time.Hour)

	_, err := f.svc.ConfirmParticipation(context.Background(), user.ID, event.ID, nil)
	assert.Equal(t, MsgParticipantNotFound, apperr.Message(err, ""))

	_, err = f.svc.ConfirmParticipation(context.Background(), user.ID, 999, nil)
	assert.Equal(t, MsgEventNotFound, apperr.Message(err, ""))
}

func TestListEventsForUser(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "a@x.com", "alice")
	first := f.event(t, "first", time.Hour)
	second := f.event(t, "second", 2*time.Hour)
	f.event(t, "not joined", 3*time.Hour)

	for _, e := range []storage.Event{first, second} {
		_, err := f.svc.AddParticipant(context.Background(), user.ID, e.ID, "Alice")
		require.NoError(t, err)
	}
	_, err := f.svc.ConfirmParticipation(context.Background(), user.ID, second.ID, nil)
	require.NoError(t, err)

	joined, err := f.svc.ListEventsForUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, joined, 2)

	byTitle := map[string]storage.ParticipatingEvent{}
	for _, j := range joined {
		byTitle[j.Event.Title] = j
	}
	assert.False(t, byTitle["first"].Participant.Confirmed)
	assert.True(t, byTitle["second"].Participant.Confirmed)
}

func TestComments(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "a@x.com", "alice")
	event := f.event(t, "party", time.Hour)

	_, err := f.svc.AddComment(context.Background(), AddCommentParams{EventID: event.ID, UserID: &user.ID, Author: "alice", Text: "first"})
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	_, err = f.svc.AddComment(context.Background(), AddCommentParams{EventID: event.ID, UserID: &user.ID, Author: "alice", Text: "second"})
	require.NoError(t, err)

	comments, err := f.svc.ListComments(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text)
	assert.Equal(t, "first", comments[1].Text)

	_, err = f.svc.AddComment(context.Background(), AddCommentParams{EventID: event.ID, Text: "  "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.AddComment(context.Background(), AddCommentParams{EventID: 999, Text: "hello"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// Register, create, join, confirm; then a second join conflicts.
func TestParticipationScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "a@x.com", "alice")
	inOneHour := f.now.Add(time.Hour).Format(time.RFC3339)

	event, err := f.svc.CreateEvent(ctx, CreateEventParams{Title: "E", Date: inOneHour, ConfirmeUntil: inOneHour, UserID: &alice.ID})
	require.NoError(t, err)

	_, err = f.svc.AddParticipant(ctx, alice.ID, event.ID, "Alice")
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmParticipation(ctx, alice.ID, event.ID, nil)
	require.NoError(t, err)
	assert.True(t, confirmed.Confirmed)

	_, err = f.svc.AddParticipant(ctx, alice.ID, event.ID, "Alice")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}
