package detector_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carrierwatch/carrierwatch/internal/detector"
)

func newSQLiteRepo(t *testing.T) *detector.SQLiteRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	repo, err := detector.NewSQLiteRepository(context.Background(), path, zerolog.Nop())
	if err != nil {
		t.Fatalf("opening sqlite repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepository_GetMissing(t *testing.T) {
	repo := newSQLiteRepo(t)

	_, err := repo.Get(context.Background(), "vzn")
	if !errors.Is(err, detector.ErrStateNotFound) {
		t.Errorf("err = %v, want ErrStateNotFound", err)
	}
}

func TestSQLiteRepository_PutGetRoundTrip(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	firstSeen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := detector.PersistedState{
		State:      detector.StateDegraded,
		FailStreak: 2,
		FirstSeen:  &firstSeen,
	}
	if err := repo.Put(ctx, "vzn", in); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.Get(ctx, "vzn")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != detector.StateDegraded || got.FailStreak != 2 || got.OKStreak != 0 {
		t.Errorf("got %+v, want %+v", got, in)
	}
	if got.FirstSeen == nil || !got.FirstSeen.Equal(firstSeen) {
		t.Errorf("FirstSeen = %v, want %v", got.FirstSeen, firstSeen)
	}
}

func TestSQLiteRepository_PutOverwrites(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	if err := repo.Put(ctx, "vzn", detector.PersistedState{State: detector.StateMajorOutage, FailStreak: 5}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, "vzn", detector.PersistedState{State: detector.StateOK, OKStreak: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := repo.Get(ctx, "vzn")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != detector.StateOK || got.FailStreak != 0 || got.OKStreak != 1 {
		t.Errorf("got %+v after overwrite", got)
	}
	if got.FirstSeen != nil {
		t.Errorf("FirstSeen = %v, want nil after clear", got.FirstSeen)
	}
}

func TestSQLiteRepository_StateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	repo, err := detector.NewSQLiteRepository(ctx, path, zerolog.Nop())
	if err != nil {
		t.Fatalf("opening sqlite repository: %v", err)
	}
	if err := repo.Put(ctx, "vzn", detector.PersistedState{State: detector.StateDegraded, FailStreak: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := detector.NewSQLiteRepository(ctx, path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopening sqlite repository: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "vzn")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.State != detector.StateDegraded || got.FailStreak != 1 {
		t.Errorf("got %+v after reopen", got)
	}
}
