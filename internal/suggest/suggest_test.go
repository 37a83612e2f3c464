package suggest

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"coworking/internal/catalog"
	"coworking/internal/models"
	"coworking/internal/policy"
	"coworking/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

var today = day(2024, 6, 1)

func singleInstanceCatalog() *catalog.Catalog {
	return catalog.New([]models.ResourceType{
		{Key: models.TypeWorkspaceOpen, Label: "Open workspace"},
		{Key: models.TypeOfficeLight, Label: "Light office"},
		{Key: models.TypeOfficePremium, Label: "Premium office"},
		{Key: models.TypeMeetingRoom, Label: "Meeting room"},
	})
}

func setup(t *testing.T) (*Finder, *repository.MemoryStore, *policy.Policy) {
	t.Helper()
	store := repository.NewMemoryStore()
	p := policy.New(policy.FixedClock{At: today}, policy.DefaultMaxAdvanceDays)
	logger := zerolog.New(io.Discard)
	return NewFinder(store, p, &logger), store, p
}

func book(t *testing.T, store *repository.MemoryStore, user, typeKey string, start time.Time, days int) {
	t.Helper()
	require.NoError(t, store.CreateReservation(context.Background(), &models.Reservation{
		UserID:        user,
		ResourceType:  typeKey,
		StartDate:     start,
		DurationUnit:  models.UnitDays,
		DurationValue: days,
	}))
}

func candidate(t *testing.T, p *policy.Policy, cat *catalog.Catalog, user, typeKey, start string, days int) policy.Candidate {
	t.Helper()
	cand, _, ok := p.Validate(cat, models.BookingRequest{
		UserID:        user,
		ResourceType:  typeKey,
		StartDate:     start,
		DurationUnit:  string(models.UnitDays),
		DurationValue: days,
	})
	require.True(t, ok)
	return cand
}

func TestNearestDate(t *testing.T) {
	finder, store, p := setup(t)
	cat := singleInstanceCatalog()
	book(t, store, "bob", models.TypeMeetingRoom, day(2024, 6, 10), 3)

	d, ok := finder.NearestDate(context.Background(), candidate(t, p, cat, "alice", models.TypeMeetingRoom, "2024-06-11", 1))
	require.True(t, ok)
	assert.Equal(t, day(2024, 6, 13), d)

	// a two-day window must fit whole
	book(t, store, "carol", models.TypeMeetingRoom, day(2024, 6, 14), 1)
	d, ok = finder.NearestDate(context.Background(), candidate(t, p, cat, "alice", models.TypeMeetingRoom, "2024-06-11", 2))
	require.True(t, ok)
	assert.Equal(t, day(2024, 6, 15), d)
}

func TestNearestDate_NeverPastHorizon(t *testing.T) {
	finder, store, p := setup(t)
	cat := singleInstanceCatalog()
	book(t, store, "bob", models.TypeOfficeLight, day(2024, 6, 20), 12) // through 2024-07-01

	_, ok := finder.NearestDate(context.Background(), candidate(t, p, cat, "alice", models.TypeOfficeLight, "2024-06-25", 1))
	assert.False(t, ok)

	// free from 2024-07-02 on, which is past today+30
	_, ok = finder.NearestDate(context.Background(), candidate(t, p, cat, "alice", models.TypeOfficeLight, "2024-06-30", 1))
	assert.False(t, ok)
}

func TestNearestDate_HorizonBoundaryIsIncluded(t *testing.T) {
	finder, store, p := setup(t)
	cat := singleInstanceCatalog()
	book(t, store, "bob", models.TypeOfficeLight, day(2024, 6, 20), 11) // through 2024-06-30

	d, ok := finder.NearestDate(context.Background(), candidate(t, p, cat, "alice", models.TypeOfficeLight, "2024-06-25", 1))
	require.True(t, ok)
	assert.Equal(t, p.Horizon(), d)
}

func TestNearestDate_SkipsOwnSameTypeReservations(t *testing.T) {
	finder, store, p := setup(t)
	cat := singleInstanceCatalog()
	book(t, store, "alice", models.TypeOfficeLight, day(2024, 6, 10), 1)
	book(t, store, "alice", models.TypeOfficeLight, day(2024, 6, 11), 1)

	d, ok := finder.NearestDate(context.Background(), candidate(t, p, cat, "alice", models.TypeOfficeLight, "2024-06-10", 1))
	require.True(t, ok)
	assert.Equal(t, day(2024, 6, 12), d)
}

func TestAlternativeType(t *testing.T) {
	finder, store, p := setup(t)
	cat := singleInstanceCatalog()
	book(t, store, "bob", models.TypeMeetingRoom, day(2024, 6, 10), 1)
	book(t, store, "bob", models.TypeWorkspaceOpen, day(2024, 6, 10), 1)

	rt, ok := finder.AlternativeType(context.Background(), cat, candidate(t, p, cat, "alice", models.TypeMeetingRoom, "2024-06-10", 1))
	require.True(t, ok)
	assert.Equal(t, models.TypeOfficeLight, rt.Key)
	assert.Equal(t, "Light office", rt.Label)

	// the user's own light office booking rules that type out
	book(t, store, "alice", models.TypeOfficeLight, day(2024, 6, 10), 1)
	rt, ok = finder.AlternativeType(context.Background(), cat, candidate(t, p, cat, "alice", models.TypeMeetingRoom, "2024-06-10", 1))
	require.True(t, ok)
	assert.Equal(t, models.TypeOfficePremium, rt.Key)

	book(t, store, "bob", models.TypeOfficePremium, day(2024, 6, 10), 1)
	_, ok = finder.AlternativeType(context.Background(), cat, candidate(t, p, cat, "alice", models.TypeMeetingRoom, "2024-06-10", 1))
	assert.False(t, ok)
}

func TestSuggest(t *testing.T) {
	finder, store, p := setup(t)
	cat := catalog.Default()
	book(t, store, "bob", models.TypeOfficeLight, day(2024, 6, 10), 1)

	s := finder.Suggest(context.Background(), cat, candidate(t, p, cat, "alice", models.TypeOfficeLight, "2024-06-10", 1))
	require.False(t, s.Empty())
	require.NotNil(t, s.Date)
	assert.Equal(t, day(2024, 6, 11), *s.Date)
	require.NotNil(t, s.Type)
	assert.Equal(t, models.TypeWorkspaceOpen, s.Type.Key)
}

type failingReader struct{}

func (failingReader) GetReservationsByType(context.Context, string) ([]*models.Reservation, error) {
	return nil, errors.New("snapshot unavailable")
}

func (failingReader) GetReservationsByUser(context.Context, string) ([]*models.Reservation, error) {
	return nil, errors.New("snapshot unavailable")
}

func TestSuggest_ReadErrorsFindNothing(t *testing.T) {
	p := policy.New(policy.FixedClock{At: today}, policy.DefaultMaxAdvanceDays)
	logger := zerolog.New(io.Discard)
	finder := NewFinder(failingReader{}, p, &logger)
	cat := singleInstanceCatalog()

	s := finder.Suggest(context.Background(), cat, candidate(t, p, cat, "alice", models.TypeOfficeLight, "2024-06-10", 1))
	assert.True(t, s.Empty())
}
