package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiva/tripplanner/internal/model"
)

func samplePlan(id string) *model.TripPlan {
	start := model.NewDate(2025, time.June, 10)
	return &model.TripPlan{
		TripID:      id,
		UserID:      "demo-user",
		Destination: "Lisbon",
		StartDate:   start,
		EndDate:     start.AddDays(1),
		Days: []model.DayPlan{
			{Date: start, Activities: []model.Activity{{TimeOfDay: model.Morning, Title: "Alfama walking tour", Description: "Old town", CostEstimate: 60, BookingRequired: true}}},
			{Date: start.AddDays(1), Activities: []model.Activity{{TimeOfDay: model.Evening, Title: "LX Factory evening", Description: "Food", CostEstimate: 40}}},
		},
		BudgetSummary: model.BudgetSummary{
			TotalEstimated: 710,
			Breakdown:      map[string]float64{model.CategoryFlight: 450, model.CategoryHotel: 160, model.CategoryActivities: 100},
		},
	}
}

func sampleBooking(id, tripID string, typ model.BookingType) model.BookingRecord {
	return model.BookingRecord{
		BookingID:     id,
		UserID:        "demo-user",
		TripID:        tripID,
		Type:          typ,
		Status:        model.BookingConfirmed,
		Provider:      "mock-air",
		Price:         450,
		CreatedAt:     time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC),
		PaymentStatus: model.PaymentAuthorized,
	}
}

// ─── MemoryStore ────────────────────────────────────────────

func TestMemoryStore_PlanRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	plan := samplePlan("t1")
	require.NoError(t, s.SavePlan(ctx, plan))

	got, err := s.GetPlan(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, plan, got)

	// Stored value is a copy.
	plan.Destination = "Bali"
	got.Days[0].Activities[0].Title = "changed"
	again, err := s.GetPlan(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", again.Destination)
	assert.Equal(t, "Alfama walking tour", again.Days[0].Activities[0].Title)
}

func TestMemoryStore_GetPlanNotFound(t *testing.T) {
	_, err := NewMemoryStore().GetPlan(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestMemoryStore_SavePlanWithoutIDFails(t *testing.T) {
	assert.Error(t, NewMemoryStore().SavePlan(context.Background(), &model.TripPlan{}))
}

func TestMemoryStore_BookingsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.SaveBooking(ctx, sampleBooking("b1", "t1", model.BookingFlight)))
	require.NoError(t, s.SaveBookings(ctx, []model.BookingRecord{
		sampleBooking("b2", "t1", model.BookingHotel),
		sampleBooking("b3", "t2", model.BookingActivity),
		sampleBooking("b4", "t1", model.BookingActivity),
	}))

	got, err := s.ListBookings(ctx, "t1")
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, b := range got {
		ids[i] = b.BookingID
	}
	assert.Equal(t, []string{"b1", "b2", "b4"}, ids)

	none, err := s.ListBookings(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestMemoryStore_SaveBookingsIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	bad := sampleBooking("", "t1", model.BookingHotel)
	err := s.SaveBookings(ctx, []model.BookingRecord{sampleBooking("b1", "t1", model.BookingFlight), bad})
	require.Error(t, err)

	got, err := s.ListBookings(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.SaveBooking(ctx, sampleBooking(fmt.Sprintf("b%d", i), "t1", model.BookingActivity))
			_, _ = s.ListBookings(ctx, "t1")
		}(i)
	}
	wg.Wait()

	got, err := s.ListBookings(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

// ─── CachedStore ────────────────────────────────────────────

// countingStore records how often plans are read from the backing store.
type countingStore struct {
	*MemoryStore
	gets int
}

func (c *countingStore) GetPlan(ctx context.Context, tripID string) (*model.TripPlan, error) {
	c.gets++
	return c.MemoryStore.GetPlan(ctx, tripID)
}

func newCached(t *testing.T, ttl time.Duration) (*CachedStore, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &countingStore{MemoryStore: NewMemoryStore()}
	return NewCachedStore(backing, client, ttl), backing, mr
}

func TestCachedStore_SavePlanPopulatesCache(t *testing.T) {
	ctx := context.Background()
	s, backing, mr := newCached(t, time.Minute)

	plan := samplePlan("t1")
	require.NoError(t, s.SavePlan(ctx, plan))
	assert.True(t, mr.Exists(planKeyPrefix+"t1"))
	assert.Equal(t, time.Minute, mr.TTL(planKeyPrefix+"t1"))

	got, err := s.GetPlan(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, plan, got)
	assert.Equal(t, 0, backing.gets, "served from redis")
}

func TestCachedStore_MissReadsThrough(t *testing.T) {
	ctx := context.Background()
	s, backing, mr := newCached(t, 0)

	require.NoError(t, backing.SavePlan(ctx, samplePlan("t1")))

	_, err := s.GetPlan(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, backing.gets)
	assert.Equal(t, DefaultPlanCacheTTL, mr.TTL(planKeyPrefix+"t1"))

	_, err = s.GetPlan(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, backing.gets)
}

func TestCachedStore_ExpiredEntryReloads(t *testing.T) {
	ctx := context.Background()
	s, backing, mr := newCached(t, time.Minute)

	require.NoError(t, s.SavePlan(ctx, samplePlan("t1")))
	mr.FastForward(2 * time.Minute)

	_, err := s.GetPlan(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, backing.gets)
}

func TestCachedStore_CorruptEntryFallsBack(t *testing.T) {
	ctx := context.Background()
	s, backing, mr := newCached(t, time.Minute)

	require.NoError(t, backing.SavePlan(ctx, samplePlan("t1")))
	require.NoError(t, mr.Set(planKeyPrefix+"t1", "{not json"))

	got, err := s.GetPlan(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", got.Destination)
	assert.Equal(t, 1, backing.gets)
}

func TestCachedStore_NotFoundPropagates(t *testing.T) {
	s, _, mr := newCached(t, time.Minute)

	_, err := s.GetPlan(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPlanNotFound)
	assert.False(t, mr.Exists(planKeyPrefix+"missing"))
}

func TestCachedStore_RedisDownStillServes(t *testing.T) {
	ctx := context.Background()
	s, backing, mr := newCached(t, time.Minute)

	require.NoError(t, backing.SavePlan(ctx, samplePlan("t1")))
	mr.Close()

	got, err := s.GetPlan(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.TripID)
	require.NoError(t, s.SavePlan(ctx, samplePlan("t2")))
}

func TestCachedStore_BookingsPassThrough(t *testing.T) {
	ctx := context.Background()
	s, backing, _ := newCached(t, time.Minute)

	require.NoError(t, s.SaveBookings(ctx, []model.BookingRecord{
		sampleBooking("b1", "t1", model.BookingFlight),
		sampleBooking("b2", "t1", model.BookingHotel),
	}))
	require.NoError(t, s.SaveBooking(ctx, sampleBooking("b3", "t1", model.BookingActivity)))

	direct, err := backing.ListBookings(ctx, "t1")
	require.NoError(t, err)
	viaCache, err := s.ListBookings(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, direct, 3)
	assert.Equal(t, direct, viaCache)
}
