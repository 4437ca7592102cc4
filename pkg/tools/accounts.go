package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Account lookup tools registered by RegisterSupportTools when an account store is set.
const (
	LookupUserTool         = "lookup_user"
	LookupSubscriptionTool = "lookup_subscription"
	LookupReservationsTool = "lookup_reservations"
	LookupExperienceTool   = "lookup_experience"
)

// SubscriptionInfo is the result of lookup_subscription. Subscription is nil
// when the user has none.
type SubscriptionInfo struct {
	UserID       string               `json:"user_id"`
	FullName     string               `json:"full_name"`
	Subscription *domain.Subscription `json:"subscription,omitempty"`
}

// ReservationDetail is one entry of the lookup_reservations result.
type ReservationDetail struct {
	domain.Reservation
	ExperienceTitle string `json:"experience_title"`
}

type accountTools struct {
	store ports.AccountStore
}

type userArgs struct {
	AccountID string `mapstructure:"account_id"`
	UserID    string `mapstructure:"user_id"`
	Email     string `mapstructure:"email"`
}

func (t accountTools) lookupUser(ctx context.Context, args map[string]any) (any, error) {
	var a userArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var (
		c   domain.Customer
		err error
	)
	switch {
	case a.UserID != "":
		c, err = t.store.Customer(ctx, a.AccountID, a.UserID)
	case a.Email != "":
		c, err = t.store.CustomerByEmail(ctx, a.AccountID, a.Email)
	default:
		return nil, &ArgsError{Msg: "user_id or email is required"}
	}
	if err != nil {
		return nil, notFound(err, "user", a.UserID+a.Email)
	}

	res, err := t.store.Reservations(ctx, a.AccountID, c.UserID, "")
	if err != nil {
		return nil, err
	}
	p := domain.CustomerProfile{Customer: c, Reservations: len(res)}
	for _, r := range res {
		if r.Status == domain.ReservationReserved {
			p.ActiveReservations++
		}
	}
	return p, nil
}

func (t accountTools) lookupSubscription(ctx context.Context, args map[string]any) (any, error) {
	var a userArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.UserID == "" {
		return nil, &ArgsError{Msg: "user_id is required"}
	}
	c, err := t.store.Customer(ctx, a.AccountID, a.UserID)
	if err != nil {
		return nil, notFound(err, "user", a.UserID)
	}
	return SubscriptionInfo{UserID: c.UserID, FullName: c.FullName, Subscription: c.Subscription}, nil
}

type reservationArgs struct {
	AccountID string `mapstructure:"account_id"`
	UserID    string `mapstructure:"user_id"`
	Status    string `mapstructure:"status"`
}

func (t accountTools) lookupReservations(ctx context.Context, args map[string]any) (any, error) {
	var a reservationArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.UserID == "" {
		return nil, &ArgsError{Msg: "user_id is required"}
	}
	if _, err := t.store.Customer(ctx, a.AccountID, a.UserID); err != nil {
		return nil, notFound(err, "user", a.UserID)
	}

	res, err := t.store.Reservations(ctx, a.AccountID, a.UserID, a.Status)
	if err != nil {
		return nil, err
	}
	out := make([]ReservationDetail, 0, len(res))
	for _, r := range res {
		d := ReservationDetail{Reservation: r, ExperienceTitle: "Unknown Experience"}
		if exp, err := t.store.Experience(ctx, a.AccountID, r.ExperienceID); err == nil {
			d.ExperienceTitle = exp.Title
		}
		out = append(out, d)
	}
	return out, nil
}

type experienceArgs struct {
	AccountID    string `mapstructure:"account_id"`
	ExperienceID string `mapstructure:"experience_id"`
	TitleSearch  string `mapstructure:"title_search"`
}

func (t accountTools) lookupExperience(ctx context.Context, args map[string]any) (any, error) {
	var a experienceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	switch {
	case a.ExperienceID != "":
		exp, err := t.store.Experience(ctx, a.AccountID, a.ExperienceID)
		if err != nil {
			return nil, notFound(err, "experience", a.ExperienceID)
		}
		return []domain.Experience{exp}, nil
	case a.TitleSearch != "":
		return t.store.SearchExperiences(ctx, a.AccountID, a.TitleSearch)
	default:
		return nil, &ArgsError{Msg: "experience_id or title_search is required"}
	}
}

func notFound(err error, what, key string) error {
	if errors.Is(err, domain.ErrAccountRecordNotFound) {
		return fmt.Errorf("%s not found: %s: %w", what, key, err)
	}
	return err
}

func registerAccountTools(r *Registry, store ports.AccountStore) {
	t := accountTools{store: store}
	r.Register(LookupUserTool, t.lookupUser,
		WithDescription("Look up a customer by user_id or email: profile, blocked status, subscription and reservation counts."))
	r.Register(LookupSubscriptionTool, t.lookupSubscription,
		WithDescription("Look up the subscription tier, status and monthly quota of a customer."))
	r.Register(LookupReservationsTool, t.lookupReservations,
		WithDescription("List a customer's reservations, optionally filtered by status."))
	r.Register(LookupExperienceTool, t.lookupExperience,
		WithDescription("Look up an experience by id or search experiences by title."))
}

// AccountsFile is the on-disk format of seed account data, keyed by account id.
type AccountsFile struct {
	Accounts map[string]domain.AccountData `yaml:"accounts" json:"accounts"`
}

// LoadAccounts reads seed account data from a YAML or JSON file.
func LoadAccounts(path string) (map[string]domain.AccountData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts: %w", err)
	}

	var f AccountsFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return f.Accounts, nil
}
