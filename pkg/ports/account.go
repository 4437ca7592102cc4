package ports

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

// AccountStore reads customer data scoped to an account (the client business).
// Lookups that match nothing return domain.ErrAccountRecordNotFound.
type AccountStore interface {
	Customer(ctx context.Context, accountID, userID string) (domain.Customer, error)
	CustomerByEmail(ctx context.Context, accountID, email string) (domain.Customer, error)

	// Reservations returns the customer's reservations, oldest first.
	// An empty status matches every reservation.
	Reservations(ctx context.Context, accountID, userID, status string) ([]domain.Reservation, error)

	Experience(ctx context.Context, accountID, experienceID string) (domain.Experience, error)
	// SearchExperiences matches titles case-insensitively by substring.
	SearchExperiences(ctx context.Context, accountID, title string) ([]domain.Experience, error)
}

// AccountLoader replaces the data of an account.
type AccountLoader interface {
	LoadAccount(ctx context.Context, accountID string, data domain.AccountData) error
}

// AccountStoreLoader is an AccountStore that can be seeded.
type AccountStoreLoader interface {
	AccountStore
	AccountLoader
}
