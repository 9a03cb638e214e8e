// Package access restricts the management listing to what the signed-in
// user may see: registrations in categories of queues they created, plus
// categories where their email was invited as staff.
package access

import (
	"context"
	"errors"
	"sort"

	"github.com/queuev/queuev-api/models"
)

// ErrNoAccessibleQueues distinguishes "this user has nothing to manage"
// from "no registrations matched the selected category". The UI renders
// the two states differently.
var ErrNoAccessibleQueues = errors.New("no accessible queues")

// Source supplies the two category-name sets the union is built from.
type Source interface {
	CreatedCategoryNames(ctx context.Context, userID string) ([]string, error)
	InvitedCategoryNames(ctx context.Context, email string) ([]string, error)
}

type Filter struct {
	source Source
}

func NewFilter(source Source) *Filter {
	return &Filter{source: source}
}

// AccessibleCategories computes the union of the user's created and
// invited category names, sorted for deterministic output. Recomputing with
// unchanged data yields an identical slice, so concurrent refresh triggers
// may fire in any order.
func (f *Filter) AccessibleCategories(ctx context.Context, userID, email string) ([]string, error) {
	created, err := f.source.CreatedCategoryNames(ctx, userID)
	if err != nil {
		return nil, err
	}
	invited, err := f.source.InvitedCategoryNames(ctx, email)
	if err != nil {
		return nil, err
	}
	return Union(created, invited), nil
}

// VisibleRegistrations filters the flat registration list down to rows
// whose category is accessible to the user. A user with no created queues
// and no invitations gets ErrNoAccessibleQueues rather than an empty list.
func (f *Filter) VisibleRegistrations(ctx context.Context, userID, email string, registrations []models.Registration) ([]models.Registration, error) {
	accessible, err := f.AccessibleCategories(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	if len(accessible) == 0 {
		return nil, ErrNoAccessibleQueues
	}
	return FilterByCategory(registrations, accessible), nil
}

// Union merges name sets, dropping duplicates and empties.
func Union(sets ...[]string) []string {
	seen := make(map[string]bool)
	for _, set := range sets {
		for _, name := range set {
			if name != "" {
				seen[name] = true
			}
		}
	}
	union := make([]string, 0, len(seen))
	for name := range seen {
		union = append(union, name)
	}
	sort.Strings(union)
	return union
}

// FilterByCategory keeps registrations whose type is in the accessible set,
// preserving input order.
func FilterByCategory(registrations []models.Registration, accessible []string) []models.Registration {
	allowed := make(map[string]bool, len(accessible))
	for _, name := range accessible {
		allowed[name] = true
	}

	visible := make([]models.Registration, 0, len(registrations))
	for _, r := range registrations {
		if allowed[r.Type] {
			visible = append(visible, r)
		}
	}
	return visible
}
