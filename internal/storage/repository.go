package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budget/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const timeLayout = time.RFC3339Nano

const cycleColumns = `id, user_id, month_key, salary, pct_savings, pct_monthly, pct_wants,
	alloc_savings, alloc_monthly, alloc_wants, created_at, updated_at`

const transactionColumns = `id, user_id, cycle_id, bucket, date, note, amount, created_at, updated_at`

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, username string) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, created_at) VALUES (?, ?)`,
		username, r.now().Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("username %q: %w", username, core.ErrConflict)
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User saved to SQLite", "id", id, "username", username)
	return core.User{ID: id, Username: username}, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username FROM users WHERE id = ?`, id)
	return scanUser(row, fmt.Sprintf("user %d", id))
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username FROM users WHERE username = ?`, username)
	return scanUser(row, fmt.Sprintf("user %q", username))
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row *sql.Row, what string) (core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, fmt.Errorf("%s: %w", what, core.ErrNotFound)
		}
		return core.User{}, fmt.Errorf("get %s: %w", what, err)
	}
	return u, nil
}

// Cycles

func (r *SQLiteRepository) UpsertCycle(ctx context.Context, c core.Cycle) (core.Cycle, error) {
	now := r.now()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO cycles (user_id, month_key, salary, pct_savings, pct_monthly, pct_wants,
			alloc_savings, alloc_monthly, alloc_wants, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, month_key) DO UPDATE SET
			salary = excluded.salary,
			pct_savings = excluded.pct_savings,
			pct_monthly = excluded.pct_monthly,
			pct_wants = excluded.pct_wants,
			alloc_savings = excluded.alloc_savings,
			alloc_monthly = excluded.alloc_monthly,
			alloc_wants = excluded.alloc_wants,
			updated_at = excluded.updated_at
		RETURNING `+cycleColumns,
		c.UserID, c.MonthKey, c.Salary,
		c.Percentages.Savings, c.Percentages.Monthly, c.Percentages.Wants,
		c.Allocation.Savings, c.Allocation.Monthly, c.Allocation.Wants,
		now.Format(timeLayout), now.Format(timeLayout))

	saved, err := scanCycle(row)
	if err != nil {
		return core.Cycle{}, fmt.Errorf("upsert cycle %s: %w", c.MonthKey, err)
	}

	slog.InfoContext(ctx, "Cycle saved to SQLite",
		"id", saved.ID,
		"user_id", saved.UserID,
		"month_key", saved.MonthKey,
		"salary", saved.Salary.String())

	return saved, nil
}

func (r *SQLiteRepository) GetCycle(ctx context.Context, id, userID int64) (core.Cycle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cycleColumns+` FROM cycles WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCycle(row)
	if err != nil {
		return core.Cycle{}, fmt.Errorf("cycle %d: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCycleByMonth(ctx context.Context, userID int64, monthKey string) (core.Cycle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cycleColumns+` FROM cycles WHERE user_id = ? AND month_key = ?`, userID, monthKey)
	c, err := scanCycle(row)
	if err != nil {
		return core.Cycle{}, fmt.Errorf("cycle %s: %w", monthKey, err)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCycle(ctx context.Context, c core.Cycle) (core.Cycle, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE cycles SET
			salary = ?, pct_savings = ?, pct_monthly = ?, pct_wants = ?,
			alloc_savings = ?, alloc_monthly = ?, alloc_wants = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
		RETURNING `+cycleColumns,
		c.Salary,
		c.Percentages.Savings, c.Percentages.Monthly, c.Percentages.Wants,
		c.Allocation.Savings, c.Allocation.Monthly, c.Allocation.Wants,
		r.now().Format(timeLayout),
		c.ID, c.UserID)

	saved, err := scanCycle(row)
	if err != nil {
		return core.Cycle{}, fmt.Errorf("update cycle %d: %w", c.ID, err)
	}
	return saved, nil
}

func (r *SQLiteRepository) DeleteCycle(ctx context.Context, id, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete cycle: %w", err)
	}
	defer tx.Rollback()

	txnRes, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE cycle_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transactions of cycle %d: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM cycles WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete cycle %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete cycle %d: %w", id, err)
	} else if n == 0 {
		return fmt.Errorf("cycle %d: %w", id, core.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete cycle %d: %w", id, err)
	}

	removed, _ := txnRes.RowsAffected()
	slog.InfoContext(ctx, "Cycle deleted from SQLite",
		"id", id,
		"user_id", userID,
		"transactions_removed", removed)
	return nil
}

func (r *SQLiteRepository) ListCycles(ctx context.Context, userID int64) ([]core.Cycle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cycleColumns+` FROM cycles WHERE user_id = ? ORDER BY month_key DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var cycles []core.Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("list cycles: %w", err)
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

// Transactions

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := r.now().Format(timeLayout)
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO transactions (user_id, cycle_id, bucket, date, note, amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+transactionColumns,
		t.UserID, t.CycleID, string(t.Bucket), t.Date.String(), t.Note, t.Amount, now, now)

	saved, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", saved.ID,
		"cycle_id", saved.CycleID,
		"bucket", saved.Bucket,
		"amount", saved.Amount.String(),
		"date", saved.Date.String())

	return saved, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE transactions SET bucket = ?, date = ?, note = ?, amount = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
		RETURNING `+transactionColumns,
		string(t.Bucket), t.Date.String(), t.Note, t.Amount, r.now().Format(timeLayout),
		t.ID, t.UserID)

	saved, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	return saved, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ? AND cycle_id = ?`
	args := []any{f.UserID, f.CycleID}
	if f.Bucket != nil {
		query += ` AND bucket = ?`
		args = append(args, string(*f.Bucket))
	}
	query += ` ORDER BY date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCycle(row rowScanner) (core.Cycle, error) {
	var (
		c                core.Cycle
		created, updated string
	)
	err := row.Scan(&c.ID, &c.UserID, &c.MonthKey, &c.Salary,
		&c.Percentages.Savings, &c.Percentages.Monthly, &c.Percentages.Wants,
		&c.Allocation.Savings, &c.Allocation.Monthly, &c.Allocation.Wants,
		&created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Cycle{}, core.ErrNotFound
		}
		return core.Cycle{}, fmt.Errorf("scan cycle: %w", err)
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return c, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                core.Transaction
		bucket, date     string
		created, updated string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.CycleID, &bucket, &date, &t.Note, &t.Amount, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Bucket = core.Bucket(bucket)
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: stored %w", t.ID, err)
	}
	t.CreatedAt = parseTime(created)
	t.UpdatedAt = parseTime(updated)
	return t, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE"))
}
