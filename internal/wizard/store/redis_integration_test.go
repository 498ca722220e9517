//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"campreg/internal/wizard/models"
	"campreg/internal/wizard/store"
	"campreg/pkg/platform/sentinel"
	"campreg/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedis(s.redis.Client, time.Minute)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func makeSession() models.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return models.Session{
		ID:          uuid.New(),
		Step:        models.StepCampSelection,
		FirstName:   "Иван",
		LastName:    "Петров",
		DateOfBirth: time.Date(2014, 3, 1, 0, 0, 0, 0, time.UTC),
		City:        "Казань",
		CampIDs:     []uuid.UUID{uuid.New()},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *RedisStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	session := makeSession()

	s.Require().NoError(s.store.Save(ctx, session))

	loaded, err := s.store.Find(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, loaded.ID)
	s.Equal(session.Step, loaded.Step)
	s.Equal(session.CampIDs, loaded.CampIDs)
	s.True(session.DateOfBirth.Equal(loaded.DateOfBirth))
}

func (s *RedisStoreSuite) TestFindUnknown() {
	_, err := s.store.Find(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDelete() {
	ctx := context.Background()
	session := makeSession()
	s.Require().NoError(s.store.Save(ctx, session))
	s.Require().NoError(s.store.Delete(ctx, session.ID))

	_, err := s.store.Find(ctx, session.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// delete is idempotent
	s.Require().NoError(s.store.Delete(ctx, session.ID))
}

func (s *RedisStoreSuite) TestTTLExpiry() {
	ctx := context.Background()
	short := store.NewRedis(s.redis.Client, 100*time.Millisecond)
	session := makeSession()
	s.Require().NoError(short.Save(ctx, session))

	s.Require().Eventually(func() bool {
		_, err := short.Find(ctx, session.ID)
		return err != nil
	}, 2*time.Second, 50*time.Millisecond)
}
