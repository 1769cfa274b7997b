package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"drinklog/internal/core"
)

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

const dateLayout = "2006-01-02"

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same queries back
// standalone calls and transactional ones.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements Tx over any dbtx.
type queries struct {
	db dbtx
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	queries
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at dbPath and
// runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{queries: queries{db: db}, db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// WithTx runs fn inside one transaction. Any error from fn rolls the whole
// transaction back, so an entry mutation and its ledger deltas are all-or-nothing.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- calendar entries ---

const entryColumns = "id, user_id, group_id, group_entry_id, drinking_date, memo, total_price, photo_url, created_at, is_group_shared"

func (q *queries) CreateEntry(ctx context.Context, e *core.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO calendar_entries (user_id, group_id, group_entry_id, drinking_date, memo, total_price, photo_url, created_at, is_group_shared)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, nullID(e.GroupID), nullID(e.GroupEntryID), e.DrinkingDate.Format(dateLayout),
		e.Memo, e.TotalPrice, e.PhotoURL, e.CreatedAt.Format(time.RFC3339), boolToInt(e.IsGroupShared),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("entry insert id: %w", err)
	}
	e.ID = id
	return nil
}

func (q *queries) GetEntry(ctx context.Context, id int64) (*core.Entry, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM calendar_entries WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

func (q *queries) UpdateEntry(ctx context.Context, e *core.Entry) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE calendar_entries
		 SET user_id = ?, group_id = ?, group_entry_id = ?, drinking_date = ?, memo = ?, total_price = ?, photo_url = ?, is_group_shared = ?
		 WHERE id = ?`,
		e.UserID, nullID(e.GroupID), nullID(e.GroupEntryID), e.DrinkingDate.Format(dateLayout),
		e.Memo, e.TotalPrice, e.PhotoURL, boolToInt(e.IsGroupShared), e.ID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRow(res, "entry", e.ID)
}

func (q *queries) DeleteEntry(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM calendar_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res, "entry", id)
}

func (q *queries) EntriesByShareID(ctx context.Context, shareID int64) ([]core.Entry, error) {
	return q.listEntries(ctx,
		"SELECT "+entryColumns+" FROM calendar_entries WHERE group_entry_id = ? ORDER BY id", shareID)
}

func (q *queries) EntriesByGroupAndDate(ctx context.Context, groupID int64, date time.Time) ([]core.Entry, error) {
	return q.listEntries(ctx,
		"SELECT "+entryColumns+" FROM calendar_entries WHERE group_id = ? AND drinking_date = ? ORDER BY id",
		groupID, date.Format(dateLayout))
}

func (q *queries) EntriesByUser(ctx context.Context, userID int64) ([]core.Entry, error) {
	return q.listEntries(ctx,
		"SELECT "+entryColumns+" FROM calendar_entries WHERE user_id = ? ORDER BY drinking_date, id", userID)
}

func (q *queries) EntriesByGroup(ctx context.Context, groupID int64) ([]core.Entry, error) {
	return q.listEntries(ctx,
		"SELECT "+entryColumns+" FROM calendar_entries WHERE group_id = ? ORDER BY drinking_date, id", groupID)
}

func (q *queries) GroupSharedEntriesByUser(ctx context.Context, userID int64) ([]core.Entry, error) {
	return q.listEntries(ctx,
		"SELECT "+entryColumns+" FROM calendar_entries WHERE user_id = ? AND is_group_shared = 1 ORDER BY drinking_date, id", userID)
}

func (q *queries) EntriesByUserAndDate(ctx context.Context, userID int64, date time.Time) ([]core.Entry, error) {
	return q.listEntries(ctx,
		"SELECT "+entryColumns+" FROM calendar_entries WHERE user_id = ? AND drinking_date = ? ORDER BY id",
		userID, date.Format(dateLayout))
}

func (q *queries) EntriesByUserBetween(ctx context.Context, userID int64, start, end time.Time) ([]core.Entry, error) {
	return q.listEntries(ctx,
		"SELECT "+entryColumns+" FROM calendar_entries WHERE user_id = ? AND drinking_date BETWEEN ? AND ? ORDER BY drinking_date, id",
		userID, start.Format(dateLayout), end.Format(dateLayout))
}

func (q *queries) EntriesByGroupBetween(ctx context.Context, groupID int64, start, end time.Time) ([]core.Entry, error) {
	return q.listEntries(ctx,
		"SELECT "+entryColumns+" FROM calendar_entries WHERE group_id = ? AND drinking_date BETWEEN ? AND ? ORDER BY drinking_date, id",
		groupID, start.Format(dateLayout), end.Format(dateLayout))
}

func (q *queries) SumPriceByUserBetween(ctx context.Context, userID int64, start, end time.Time) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(total_price), 0) FROM calendar_entries WHERE user_id = ? AND drinking_date BETWEEN ? AND ?",
		userID, start.Format(dateLayout), end.Format(dateLayout)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum price by user: %w", err)
	}
	return total, nil
}

func (q *queries) SumPriceByGroupBetween(ctx context.Context, groupID int64, start, end time.Time) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(total_price), 0) FROM calendar_entries WHERE group_id = ? AND drinking_date BETWEEN ? AND ?",
		groupID, start.Format(dateLayout), end.Format(dateLayout)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum price by group: %w", err)
	}
	return total, nil
}

func (q *queries) listEntries(ctx context.Context, query string, args ...any) ([]core.Entry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*core.Entry, error) {
	var (
		e         core.Entry
		groupID   sql.NullInt64
		shareID   sql.NullInt64
		date      string
		createdAt string
		groupFlag int
	)
	err := row.Scan(&e.ID, &e.UserID, &groupID, &shareID, &date, &e.Memo, &e.TotalPrice, &e.PhotoURL, &createdAt, &groupFlag)
	if err != nil {
		return nil, err
	}
	if groupID.Valid {
		e.GroupID = &groupID.Int64
	}
	if shareID.Valid {
		e.GroupEntryID = &shareID.Int64
	}
	if e.DrinkingDate, err = time.ParseInLocation(dateLayout, date, time.UTC); err != nil {
		return nil, fmt.Errorf("parse drinking date %q: %w", date, err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parse created at %q: %w", createdAt, err)
	}
	e.IsGroupShared = groupFlag != 0
	return &e, nil
}

// --- drink lines ---

func (q *queries) AddDrinkLine(ctx context.Context, line *core.DrinkLine) error {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO calendar_drinks (calendar_id, drink_id, quantity) VALUES (?, ?, ?)",
		line.EntryID, line.DrinkID, line.Quantity)
	if err != nil {
		return fmt.Errorf("insert drink line: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("drink line insert id: %w", err)
	}
	line.ID = id
	return nil
}

func (q *queries) DrinkLinesByEntry(ctx context.Context, entryID int64) ([]core.DrinkLine, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT id, calendar_id, drink_id, quantity FROM calendar_drinks WHERE calendar_id = ? ORDER BY id", entryID)
	if err != nil {
		return nil, fmt.Errorf("query drink lines: %w", err)
	}
	defer rows.Close()

	var lines []core.DrinkLine
	for rows.Next() {
		var l core.DrinkLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.DrinkID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan drink line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drink lines: %w", err)
	}
	return lines, nil
}

func (q *queries) DeleteDrinkLinesByEntry(ctx context.Context, entryID int64) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM calendar_drinks WHERE calendar_id = ?", entryID); err != nil {
		return fmt.Errorf("delete drink lines: %w", err)
	}
	return nil
}

// --- drink catalog ---

func (q *queries) DrinkByType(ctx context.Context, drinkType string) (*core.Drink, error) {
	var d core.Drink
	err := q.db.QueryRowContext(ctx,
		"SELECT id, name, type FROM drinks WHERE type = ?", drinkType).Scan(&d.ID, &d.Name, &d.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get drink by type: %w", err)
	}
	return &d, nil
}

func (q *queries) EnsureDrink(ctx context.Context, name, drinkType string) error {
	if _, err := q.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO drinks (name, type) VALUES (?, ?)", name, drinkType); err != nil {
		return fmt.Errorf("ensure drink %q: %w", drinkType, err)
	}
	return nil
}

func (q *queries) ListDrinks(ctx context.Context) ([]core.Drink, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT id, name, type FROM drinks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query drinks: %w", err)
	}
	defer rows.Close()

	var drinks []core.Drink
	for rows.Next() {
		var d core.Drink
		if err := rows.Scan(&d.ID, &d.Name, &d.Type); err != nil {
			return nil, fmt.Errorf("scan drink: %w", err)
		}
		drinks = append(drinks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drinks: %w", err)
	}
	return drinks, nil
}

// --- member ledger ---

func (q *queries) GetMember(ctx context.Context, id int64) (*core.Member, error) {
	var m core.Member
	err := q.db.QueryRowContext(ctx,
		"SELECT id, email, nickname, total_paid FROM members WHERE id = ?", id).
		Scan(&m.ID, &m.Email, &m.Nickname, &m.TotalPaid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return &m, nil
}

func (q *queries) CreateMember(ctx context.Context, m *core.Member) error {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO members (email, nickname, total_paid) VALUES (?, ?, ?)",
		m.Email, m.Nickname, m.TotalPaid)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("member insert id: %w", err)
	}
	m.ID = id
	return nil
}

func (q *queries) AddMemberPaid(ctx context.Context, memberID, delta int64) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE members SET total_paid = total_paid + ? WHERE id = ?", delta, memberID)
	if err != nil {
		return fmt.Errorf("add member paid: %w", err)
	}
	return requireRow(res, "member", memberID)
}

// --- group registry ---

func (q *queries) GetGroup(ctx context.Context, id int64) (*core.Group, error) {
	var g core.Group
	err := q.db.QueryRowContext(ctx,
		"SELECT id, leader_id, name, description, total_paid FROM group_info WHERE id = ?", id).
		Scan(&g.ID, &g.LeaderID, &g.Name, &g.Description, &g.TotalPaid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &g, nil
}

func (q *queries) CreateGroup(ctx context.Context, g *core.Group) error {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO group_info (leader_id, name, description, total_paid) VALUES (?, ?, ?, ?)",
		g.LeaderID, g.Name, g.Description, g.TotalPaid)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("group insert id: %w", err)
	}
	g.ID = id
	return nil
}

func (q *queries) UpdateGroup(ctx context.Context, g *core.Group) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE group_info SET leader_id = ?, name = ?, description = ?, total_paid = ? WHERE id = ?",
		g.LeaderID, g.Name, g.Description, g.TotalPaid, g.ID)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return requireRow(res, "group", g.ID)
}

func (q *queries) DeleteGroup(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM group_info WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return requireRow(res, "group", id)
}

func (q *queries) AddGroupPaid(ctx context.Context, groupID, delta int64) error {
	// The running total never goes below zero, even when reversing more than
	// the group currently carries.
	res, err := q.db.ExecContext(ctx,
		"UPDATE group_info SET total_paid = MAX(0, total_paid + ?) WHERE id = ?", delta, groupID)
	if err != nil {
		return fmt.Errorf("add group paid: %w", err)
	}
	return requireRow(res, "group", groupID)
}

// --- group roster ---

func (q *queries) GroupMemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT member_id FROM group_members WHERE group_id = ? ORDER BY id", groupID)
	if err != nil {
		return nil, fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group members: %w", err)
	}
	return ids, nil
}

func (q *queries) AddGroupMember(ctx context.Context, groupID, memberID int64) error {
	if _, err := q.db.ExecContext(ctx,
		"INSERT INTO group_members (group_id, member_id) VALUES (?, ?)", groupID, memberID); err != nil {
		return fmt.Errorf("insert group member: %w", err)
	}
	return nil
}

func (q *queries) RemoveGroupMember(ctx context.Context, groupID, memberID int64) error {
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM group_members WHERE group_id = ? AND member_id = ?", groupID, memberID)
	if err != nil {
		return fmt.Errorf("delete group member: %w", err)
	}
	return requireRow(res, "group member", memberID)
}

func (q *queries) IsGroupMember(ctx context.Context, groupID, memberID int64) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx,
		"SELECT 1 FROM group_members WHERE group_id = ? AND member_id = ?", groupID, memberID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check group member: %w", err)
	}
	return true, nil
}

// --- helpers ---

func nullID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, core.ErrNotFound)
	}
	return nil
}
