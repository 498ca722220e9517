package duplicate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campreg/internal/catalog/models"
)

type stubStore struct {
	mu      sync.Mutex
	calls   atomic.Int32
	delay   time.Duration
	results map[string][]models.Cohort
}

func (s *stubStore) FindCohorts(ctx context.Context, lastName string, _ time.Time) ([]models.Cohort, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[lastName], nil
}

var birth = time.Date(2012, time.March, 5, 0, 0, 0, 0, time.UTC)

func TestDebounceCollapsesBursts(t *testing.T) {
	store := &stubStore{results: map[string][]models.Cohort{
		"Иванов": {models.CohortChildren},
	}}
	checker := New(store, WithQuietPeriod(30*time.Millisecond))

	// Simulated keystrokes: only the settled value may reach the store.
	checker.Schedule("sess", "И", birth)
	checker.Schedule("sess", "Ив", birth)
	checker.Schedule("sess", "Иванов", birth)

	require.Eventually(t, func() bool {
		cohorts, ready := checker.Cohorts("sess")
		return ready && len(cohorts) == 1
	}, time.Second, 5*time.Millisecond)

	assert.EqualValues(t, 1, store.calls.Load(), "burst must collapse to one lookup")
	cohorts, _ := checker.Cohorts("sess")
	assert.Equal(t, []models.Cohort{models.CohortChildren}, cohorts)
}

func TestSameStableInputsYieldOneResult(t *testing.T) {
	store := &stubStore{results: map[string][]models.Cohort{
		"Петров": {models.CohortTeen},
	}}
	checker := New(store, WithQuietPeriod(20*time.Millisecond))

	checker.Schedule("sess", "Петров", birth)
	checker.Schedule("sess", "Петров", birth)

	require.Eventually(t, func() bool {
		_, ready := checker.Cohorts("sess")
		return ready
	}, time.Second, 5*time.Millisecond)

	assert.EqualValues(t, 1, store.calls.Load())
	cohorts, ready := checker.Cohorts("sess")
	require.True(t, ready)
	assert.Equal(t, []models.Cohort{models.CohortTeen}, cohorts)
}

func TestNewerInputWinsOverStaleInFlight(t *testing.T) {
	store := &stubStore{
		delay: 50 * time.Millisecond,
		results: map[string][]models.Cohort{
			"Старый": {models.CohortChildren},
			"Новый":  {models.CohortYouth},
		},
	}
	checker := New(store, WithQuietPeriod(5*time.Millisecond))

	checker.Schedule("sess", "Старый", birth)
	time.Sleep(15 * time.Millisecond) // first lookup is now in flight
	checker.Schedule("sess", "Новый", birth)

	// The superseded lookup finishes first; its result must never become
	// visible, not even before the newer lookup lands.
	deadline := time.Now().Add(time.Second)
	for {
		cohorts, ready := checker.Cohorts("sess")
		if ready {
			require.Equal(t, []models.Cohort{models.CohortYouth}, cohorts,
				"a result for superseded inputs must be discarded")
			break
		}
		require.True(t, time.Now().Before(deadline), "newer lookup never landed")
		time.Sleep(2 * time.Millisecond)
	}

	// Nothing may overwrite the settled result afterwards.
	time.Sleep(80 * time.Millisecond)
	cohorts, _ := checker.Cohorts("sess")
	assert.Equal(t, []models.Cohort{models.CohortYouth}, cohorts)
}

func TestEmptyInputsClearResult(t *testing.T) {
	store := &stubStore{results: map[string][]models.Cohort{
		"Иванов": {models.CohortChildren},
	}}
	checker := New(store, WithQuietPeriod(10*time.Millisecond))

	checker.Schedule("sess", "Иванов", birth)
	require.Eventually(t, func() bool {
		_, ready := checker.Cohorts("sess")
		return ready
	}, time.Second, 5*time.Millisecond)

	checker.Schedule("sess", "", birth)
	cohorts, ready := checker.Cohorts("sess")
	assert.False(t, ready)
	assert.Empty(t, cohorts)
	assert.EqualValues(t, 1, store.calls.Load(), "clearing must not query")
}

func TestForgetCancelsPending(t *testing.T) {
	store := &stubStore{results: map[string][]models.Cohort{}}
	checker := New(store, WithQuietPeriod(20*time.Millisecond))

	checker.Schedule("sess", "Иванов", birth)
	checker.Forget("sess")

	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 0, store.calls.Load())
	_, ready := checker.Cohorts("sess")
	assert.False(t, ready)
}
