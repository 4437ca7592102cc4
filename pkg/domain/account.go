package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrAccountRecordNotFound is returned by account lookups that match nothing.
var ErrAccountRecordNotFound = errors.New("account record not found")

// Reservation statuses.
const (
	ReservationReserved  = "reserved"
	ReservationCancelled = "cancelled"
	ReservationCompleted = "completed"
)

// Subscription is a customer's plan with the client business.
type Subscription struct {
	Tier         string    `json:"tier" yaml:"tier"`
	Status       string    `json:"status" yaml:"status"`
	MonthlyQuota int       `json:"monthly_quota" yaml:"monthly_quota"`
	StartedAt    time.Time `json:"started_at" yaml:"started_at"`
}

// Customer is an end user of the client business identified by an account.
type Customer struct {
	UserID       string        `json:"user_id" yaml:"user_id"`
	FullName     string        `json:"full_name" yaml:"full_name"`
	Email        string        `json:"email" yaml:"email"`
	Blocked      bool          `json:"blocked" yaml:"blocked"`
	Subscription *Subscription `json:"subscription,omitempty" yaml:"subscription,omitempty"`
}

// Experience is a bookable offering of the client business.
type Experience struct {
	ExperienceID   string `json:"experience_id" yaml:"experience_id"`
	Title          string `json:"title" yaml:"title"`
	Description    string `json:"description,omitempty" yaml:"description"`
	Location       string `json:"location,omitempty" yaml:"location"`
	When           string `json:"when,omitempty" yaml:"when"`
	SlotsAvailable int    `json:"slots_available" yaml:"slots_available"`
	Premium        bool   `json:"premium" yaml:"premium"`
}

// Reservation books a customer onto an experience.
type Reservation struct {
	ReservationID string    `json:"reservation_id" yaml:"reservation_id"`
	UserID        string    `json:"user_id" yaml:"user_id"`
	ExperienceID  string    `json:"experience_id" yaml:"experience_id"`
	Status        string    `json:"status" yaml:"status"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// AccountData is the customer-facing data of one account.
type AccountData struct {
	Customers    []Customer    `json:"customers" yaml:"customers"`
	Experiences  []Experience  `json:"experiences" yaml:"experiences"`
	Reservations []Reservation `json:"reservations" yaml:"reservations"`
}

// CustomerProfile is a customer with reservation counts, as returned by the
// lookup_user tool and handed to responders.
type CustomerProfile struct {
	Customer
	Reservations       int `json:"reservations"`
	ActiveReservations int `json:"active_reservations"`
}

// String renders the profile for prompts.
func (p CustomerProfile) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s), user id %s", p.FullName, p.Email, p.UserID)
	if p.Blocked {
		b.WriteString(", account blocked")
	}
	if s := p.Subscription; s != nil {
		fmt.Fprintf(&b, "; subscription: %s tier, %s, monthly quota %d", s.Tier, s.Status, s.MonthlyQuota)
	} else {
		b.WriteString("; no subscription")
	}
	fmt.Fprintf(&b, "; reservations: %d total, %d active", p.Reservations, p.ActiveReservations)
	return b.String()
}
