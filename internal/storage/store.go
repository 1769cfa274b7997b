// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"drinklog/internal/core"
)

// Tx is the set of data operations available both standalone and inside a
// transaction. The entry engine runs every multi-row mutation through
// Store.WithTx so an entry and its financial side effects land atomically.
type Tx interface {
	// Calendar entries. CreateEntry populates ID and CreatedAt.
	CreateEntry(ctx context.Context, e *core.Entry) error
	GetEntry(ctx context.Context, id int64) (*core.Entry, error)
	UpdateEntry(ctx context.Context, e *core.Entry) error
	DeleteEntry(ctx context.Context, id int64) error

	// Group-shared set lookups. EntriesByGroupAndDate is the legacy fallback
	// for rows predating the group-entry id.
	EntriesByShareID(ctx context.Context, shareID int64) ([]core.Entry, error)
	EntriesByGroupAndDate(ctx context.Context, groupID int64, date time.Time) ([]core.Entry, error)

	// Listing and aggregation reads.
	EntriesByUser(ctx context.Context, userID int64) ([]core.Entry, error)
	EntriesByGroup(ctx context.Context, groupID int64) ([]core.Entry, error)
	GroupSharedEntriesByUser(ctx context.Context, userID int64) ([]core.Entry, error)
	EntriesByUserAndDate(ctx context.Context, userID int64, date time.Time) ([]core.Entry, error)
	EntriesByUserBetween(ctx context.Context, userID int64, start, end time.Time) ([]core.Entry, error)
	EntriesByGroupBetween(ctx context.Context, groupID int64, start, end time.Time) ([]core.Entry, error)
	SumPriceByUserBetween(ctx context.Context, userID int64, start, end time.Time) (int64, error)
	SumPriceByGroupBetween(ctx context.Context, groupID int64, start, end time.Time) (int64, error)

	// Drink lines, owned by their entry.
	AddDrinkLine(ctx context.Context, line *core.DrinkLine) error
	DrinkLinesByEntry(ctx context.Context, entryID int64) ([]core.DrinkLine, error)
	DeleteDrinkLinesByEntry(ctx context.Context, entryID int64) error

	// Drink catalog. DrinkByType returns (nil, nil) for an unknown type;
	// callers treat that as a skip signal, not an error.
	DrinkByType(ctx context.Context, drinkType string) (*core.Drink, error)
	EnsureDrink(ctx context.Context, name, drinkType string) error
	ListDrinks(ctx context.Context) ([]core.Drink, error)

	// Member ledger. TotalPaid moves only through add-delta.
	GetMember(ctx context.Context, id int64) (*core.Member, error)
	CreateMember(ctx context.Context, m *core.Member) error
	AddMemberPaid(ctx context.Context, memberID, delta int64) error

	// Group registry. AddGroupPaid clamps the running total at zero.
	GetGroup(ctx context.Context, id int64) (*core.Group, error)
	CreateGroup(ctx context.Context, g *core.Group) error
	UpdateGroup(ctx context.Context, g *core.Group) error
	DeleteGroup(ctx context.Context, id int64) error
	AddGroupPaid(ctx context.Context, groupID, delta int64) error

	// Group roster.
	GroupMemberIDs(ctx context.Context, groupID int64) ([]int64, error)
	AddGroupMember(ctx context.Context, groupID, memberID int64) error
	RemoveGroupMember(ctx context.Context, groupID, memberID int64) error
	IsGroupMember(ctx context.Context, groupID, memberID int64) (bool, error)
}

// Store is the full storage interface. This abstraction keeps the service
// layer independent of the SQLite backend and lets tests swap in fakes.
type Store interface {
	Tx

	// WithTx runs fn inside a single transaction, rolling back on error.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}
