package cli

import (
	"context"
	"time"

	"github.com/brunoscheufler/inkwell/store"
)

// Plan is a membership tier shown on the premium page.
type Plan struct {
	Name        string
	Price       string
	Description string
	Features    []string
	Recommended bool
	Paid        bool
}

var Plans = []Plan{
	{
		Name:        "Basic",
		Price:       "Free",
		Description: "Great for getting started with writing",
		Features:    []string{"Unlimited public posts", "Basic profile customization", "Community access"},
	},
	{
		Name:        "Pro",
		Price:       "$5",
		Description: "Perfect for regular writers",
		Features:    []string{"Everything in Basic", "Advanced analytics", "Ad-free experience", "Custom themes", "Private posts"},
		Recommended: true,
		Paid:        true,
	},
	{
		Name:        "Premium",
		Price:       "$12",
		Description: "For serious content creators",
		Features: []string{
			"Everything in Pro",
			"Priority support",
			"Monetization options",
			"Custom domain",
			"Early access to new features",
			"Premium community access",
		},
		Paid: true,
	},
}

// upgrade simulates payment processing for delay, then marks the signed-in
// account as premium.
func upgrade(ctx context.Context, users *store.UserStore, delay time.Duration) (store.Account, error) {
	if _, ok := users.CurrentAccount(); !ok {
		return store.Account{}, store.ErrNoSession
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return store.Account{}, ctx.Err()
	case <-timer.C:
	}

	return users.SetPremium(ctx, true)
}

// cancelMembership drops the signed-in account back to the free tier.
func cancelMembership(ctx context.Context, users *store.UserStore) (store.Account, error) {
	return users.SetPremium(ctx, false)
}
