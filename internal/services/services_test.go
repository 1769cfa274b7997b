package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"drinklog/internal/blob"
	"drinklog/internal/cache"
	"drinklog/internal/core"
	"drinklog/internal/log"
	"drinklog/internal/metrics"
	"drinklog/internal/storage"
)

// testEnv wires the services against a real temp-file database.
type testEnv struct {
	store   *storage.SQLiteStore
	entries *EntryService
	summary *SummaryService
	groups  *GroupService
	members *MemberService
	drinks  *DrinkService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	summaryCache := cache.NewLRU[any](64, time.Minute)

	env := &testEnv{
		store:   store,
		entries: NewEntryService(store, blob.NoopStore{}, summaryCache, metrics.New(), logger),
		summary: NewSummaryService(store, summaryCache, logger),
		groups:  NewGroupService(store, logger),
		members: NewMemberService(store, logger),
		drinks:  NewDrinkService(store, logger),
	}
	if err := env.drinks.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	return env
}

func (e *testEnv) member(t *testing.T, email string) int64 {
	t.Helper()
	m, err := e.members.Register(context.Background(), email, "tester")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return m.ID
}

// group creates a group led by the first member id and adds the rest.
func (e *testEnv) group(t *testing.T, memberIDs ...int64) int64 {
	t.Helper()
	g, err := e.groups.Create(context.Background(), memberIDs[0], "crew", "")
	if err != nil {
		t.Fatalf("Create group failed: %v", err)
	}
	for _, id := range memberIDs[1:] {
		if err := e.groups.AddMember(context.Background(), g.ID, id); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
	}
	return g.ID
}

func (e *testEnv) memberPaid(t *testing.T, memberID int64) int64 {
	t.Helper()
	m, err := e.store.GetMember(context.Background(), memberID)
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	return m.TotalPaid
}

func (e *testEnv) groupPaid(t *testing.T, groupID int64) int64 {
	t.Helper()
	g, err := e.store.GetGroup(context.Background(), groupID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	return g.TotalPaid
}

func (e *testEnv) entriesOf(t *testing.T, userID int64) []core.Entry {
	t.Helper()
	entries, err := e.store.EntriesByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("EntriesByUser failed: %v", err)
	}
	return entries
}

func date(year int, month time.Month, day int) time.Time {
	return core.Date(year, month, day)
}

func groupRequest(userID, groupID int64, total int64) core.EntryRequest {
	return core.EntryRequest{
		UserID:       userID,
		GroupID:      &groupID,
		DrinkingDate: date(2025, time.June, 14),
		Memo:         "round one",
		TotalPrice:   total,
	}
}
