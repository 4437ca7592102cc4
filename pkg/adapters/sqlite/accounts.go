package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
)

// AccountStore implements ports.AccountStore on the customers, subscriptions,
// experiences and reservations tables.
type AccountStore struct {
	db *sql.DB
}

// NewAccountStore creates an account store on an opened database (see Open).
func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

// LoadAccount replaces the data of accountID in one transaction.
func (a *AccountStore) LoadAccount(ctx context.Context, accountID string, data domain.AccountData) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin account load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"reservations", "subscriptions", "experiences", "customers"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE account_id = ?`, accountID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, c := range data.Customers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO customers (account_id, user_id, full_name, email, blocked) VALUES (?, ?, ?, ?, ?)`,
			accountID, c.UserID, c.FullName, c.Email, c.Blocked); err != nil {
			return fmt.Errorf("failed to insert customer '%s': %w", c.UserID, err)
		}
		if s := c.Subscription; s != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO subscriptions (account_id, user_id, tier, status, monthly_quota, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
				accountID, c.UserID, s.Tier, s.Status, s.MonthlyQuota, s.StartedAt.UnixNano()); err != nil {
				return fmt.Errorf("failed to insert subscription of '%s': %w", c.UserID, err)
			}
		}
	}
	for _, e := range data.Experiences {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO experiences (account_id, experience_id, title, description, location, starts, slots_available, premium)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			accountID, e.ExperienceID, e.Title, e.Description, e.Location, e.When, e.SlotsAvailable, e.Premium); err != nil {
			return fmt.Errorf("failed to insert experience '%s': %w", e.ExperienceID, err)
		}
	}
	for _, r := range data.Reservations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reservations (account_id, reservation_id, user_id, experience_id, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			accountID, r.ReservationID, r.UserID, r.ExperienceID, r.Status, r.CreatedAt.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert reservation '%s': %w", r.ReservationID, err)
		}
	}
	return tx.Commit()
}

const customerQuery = `
	SELECT c.user_id, c.full_name, c.email, c.blocked,
		s.tier, s.status, s.monthly_quota, s.started_at
	FROM customers c
	LEFT JOIN subscriptions s ON s.account_id = c.account_id AND s.user_id = c.user_id
	WHERE c.account_id = ? AND `

// Customer returns the customer with userID.
func (a *AccountStore) Customer(ctx context.Context, accountID, userID string) (domain.Customer, error) {
	return a.customer(ctx, customerQuery+`c.user_id = ?`, accountID, userID)
}

// CustomerByEmail returns the customer with email, ignoring case.
func (a *AccountStore) CustomerByEmail(ctx context.Context, accountID, email string) (domain.Customer, error) {
	return a.customer(ctx, customerQuery+`c.email = ? COLLATE NOCASE`, accountID, email)
}

func (a *AccountStore) customer(ctx context.Context, query string, args ...any) (domain.Customer, error) {
	var (
		c         domain.Customer
		tier      sql.NullString
		status    sql.NullString
		quota     sql.NullInt64
		startedAt sql.NullInt64
	)
	err := a.db.QueryRowContext(ctx, query, args...).Scan(
		&c.UserID, &c.FullName, &c.Email, &c.Blocked, &tier, &status, &quota, &startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, domain.ErrAccountRecordNotFound
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("failed to query customer: %w", err)
	}
	if tier.Valid {
		c.Subscription = &domain.Subscription{
			Tier:         tier.String,
			Status:       status.String,
			MonthlyQuota: int(quota.Int64),
			StartedAt:    time.Unix(0, startedAt.Int64).UTC(),
		}
	}
	return c, nil
}

// Reservations returns the customer's reservations, oldest first.
func (a *AccountStore) Reservations(ctx context.Context, accountID, userID, status string) ([]domain.Reservation, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT reservation_id, user_id, experience_id, status, created_at
		FROM reservations
		WHERE account_id = ? AND user_id = ? AND (? = '' OR status = ?)
		ORDER BY created_at`, accountID, userID, status, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		var (
			r         domain.Reservation
			createdAt int64
		)
		if err := rows.Scan(&r.ReservationID, &r.UserID, &r.ExperienceID, &r.Status, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

const experienceQuery = `
	SELECT experience_id, title, description, location, starts, slots_available, premium
	FROM experiences WHERE account_id = ? AND `

// Experience returns the experience with experienceID.
func (a *AccountStore) Experience(ctx context.Context, accountID, experienceID string) (domain.Experience, error) {
	found, err := a.experiences(ctx, experienceQuery+`experience_id = ?`, accountID, experienceID)
	if err != nil {
		return domain.Experience{}, err
	}
	if len(found) == 0 {
		return domain.Experience{}, domain.ErrAccountRecordNotFound
	}
	return found[0], nil
}

// SearchExperiences matches titles case-insensitively by substring.
func (a *AccountStore) SearchExperiences(ctx context.Context, accountID, title string) ([]domain.Experience, error) {
	return a.experiences(ctx, experienceQuery+`instr(lower(title), ?) > 0 ORDER BY title`, accountID, strings.ToLower(title))
}

func (a *AccountStore) experiences(ctx context.Context, query string, args ...any) ([]domain.Experience, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiences: %w", err)
	}
	defer rows.Close()

	out := []domain.Experience{}
	for rows.Next() {
		var e domain.Experience
		if err := rows.Scan(&e.ExperienceID, &e.Title, &e.Description, &e.Location, &e.When, &e.SlotsAvailable, &e.Premium); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
