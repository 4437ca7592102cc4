package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
)

// AccountStore implements ports.AccountStore in memory.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]domain.AccountData
}

// NewAccountStore creates an empty account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]domain.AccountData)}
}

// LoadAccount replaces the data of accountID.
func (a *AccountStore) LoadAccount(ctx context.Context, accountID string, data domain.AccountData) error {
	cp := domain.AccountData{
		Customers:    make([]domain.Customer, 0, len(data.Customers)),
		Experiences:  append([]domain.Experience(nil), data.Experiences...),
		Reservations: append([]domain.Reservation(nil), data.Reservations...),
	}
	for _, c := range data.Customers {
		cp.Customers = append(cp.Customers, copyCustomer(c))
	}
	sort.SliceStable(cp.Reservations, func(i, j int) bool {
		return cp.Reservations[i].CreatedAt.Before(cp.Reservations[j].CreatedAt)
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	a.accounts[accountID] = cp
	return nil
}

// Customer returns the customer with userID.
func (a *AccountStore) Customer(ctx context.Context, accountID, userID string) (domain.Customer, error) {
	return a.findCustomer(accountID, func(c domain.Customer) bool { return c.UserID == userID })
}

// CustomerByEmail returns the customer with email, ignoring case.
func (a *AccountStore) CustomerByEmail(ctx context.Context, accountID, email string) (domain.Customer, error) {
	return a.findCustomer(accountID, func(c domain.Customer) bool { return strings.EqualFold(c.Email, email) })
}

func (a *AccountStore) findCustomer(accountID string, match func(domain.Customer) bool) (domain.Customer, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, c := range a.accounts[accountID].Customers {
		if match(c) {
			return copyCustomer(c), nil
		}
	}
	return domain.Customer{}, domain.ErrAccountRecordNotFound
}

// Reservations returns the customer's reservations, oldest first.
func (a *AccountStore) Reservations(ctx context.Context, accountID, userID, status string) ([]domain.Reservation, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := []domain.Reservation{}
	for _, r := range a.accounts[accountID].Reservations {
		if r.UserID == userID && (status == "" || r.Status == status) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Experience returns the experience with experienceID.
func (a *AccountStore) Experience(ctx context.Context, accountID, experienceID string) (domain.Experience, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, e := range a.accounts[accountID].Experiences {
		if e.ExperienceID == experienceID {
			return e, nil
		}
	}
	return domain.Experience{}, domain.ErrAccountRecordNotFound
}

// SearchExperiences matches titles case-insensitively by substring.
func (a *AccountStore) SearchExperiences(ctx context.Context, accountID, title string) ([]domain.Experience, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	needle := strings.ToLower(title)
	out := []domain.Experience{}
	for _, e := range a.accounts[accountID].Experiences {
		if strings.Contains(strings.ToLower(e.Title), needle) {
			out = append(out, e)
		}
	}
	return out, nil
}

func copyCustomer(c domain.Customer) domain.Customer {
	if c.Subscription != nil {
		sub := *c.Subscription
		c.Subscription = &sub
	}
	return c
}
