package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Well-known drink types seeded into the catalog at startup.
	DrinkTypeSoju = "soju"
	DrinkTypeBeer = "beer"

	MaxMemoLength = 500
)

type (
	// Entry is one calendar row: a dated drinking record with its share of the
	// cost. For a group expense the author's row is the anchor
	// (IsGroupShared false, GroupEntryID pointing at its own id) and every
	// other group member gets a mirrored row (IsGroupShared true) sharing the
	// same GroupEntryID.
	Entry struct {
		ID            int64
		UserID        int64
		GroupID       *int64
		GroupEntryID  *int64
		DrinkingDate  time.Time
		Memo          string
		TotalPrice    int64
		PhotoURL      string
		CreatedAt     time.Time
		IsGroupShared bool
	}

	// DrinkLine links an entry to a catalog drink with a quantity. Lines are
	// owned by their entry and replaced wholesale when the entry changes.
	DrinkLine struct {
		ID       int64
		EntryID  int64
		DrinkID  int64
		Quantity int
	}

	// Drink is a static catalog row, created at startup and never deleted.
	Drink struct {
		ID   int64
		Name string
		Type string
	}

	// Member carries the running total-paid counter the splitting engine
	// mutates. Members themselves are created outside the engine.
	Member struct {
		ID        int64
		Email     string
		Nickname  string
		TotalPaid int64
	}

	// Group is the registry row for a drinking group: leader, roster metadata
	// and the gross running total of everything the group logged.
	Group struct {
		ID          int64
		LeaderID    int64
		Name        string
		Description string
		TotalPaid   int64
	}

	// DrinkRequest is one (type, quantity) line of an entry request. Unknown
	// types are skipped, not rejected.
	DrinkRequest struct {
		Type     string
		Quantity int
	}

	// EntryRequest is the full payload for creating or replacing an entry.
	EntryRequest struct {
		UserID       int64
		GroupID      *int64
		DrinkingDate time.Time
		Memo         string
		TotalPrice   int64
		PhotoURL     string
		Drinks       []DrinkRequest
	}

	// DrinkItem is a drink line joined with its catalog row.
	DrinkItem struct {
		DrinkID  int64
		Name     string
		Type     string
		Quantity int
	}

	// EntryWithDrinks is an entry enriched with its drink list, the shape the
	// engine hands back to callers.
	EntryWithDrinks struct {
		Entry
		Drinks []DrinkItem
	}
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalid        = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNoGroupMembers = errors.New("no members in group")
)

// IsGrouped reports whether the request targets a group expense.
func (r EntryRequest) IsGrouped() bool {
	return r.GroupID != nil
}

func (r EntryRequest) Validate() error {
	if r.UserID <= 0 {
		return errors.New("user id required")
	}
	if r.DrinkingDate.IsZero() {
		return errors.New("drinking date required")
	}
	if r.TotalPrice < 0 {
		return errors.New("total price cannot be negative")
	}
	if len(r.Memo) > MaxMemoLength {
		return errors.New("memo too long")
	}
	for _, d := range r.Drinks {
		if strings.TrimSpace(d.Type) == "" {
			return errors.New("drink type required")
		}
		if d.Quantity < 0 {
			return errors.New("drink quantity cannot be negative")
		}
	}
	return nil
}

// IsAnchor reports whether the entry anchors a group-shared set. Mirrored
// rows are flagged, so the check goes through the flag rather than comparing
// GroupEntryID against the row's own id.
func (e Entry) IsAnchor() bool {
	return e.GroupID != nil && !e.IsGroupShared
}

// Date truncates t to calendar-day precision in UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day normalizes a timestamp to its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
