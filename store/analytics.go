package store

import (
	"maps"
	"slices"
)

// AuthorStats summarizes an account's public output.
type AuthorStats struct {
	Account   Account
	PostCount int
	Likes     int
}

// TopAuthors ranks accounts by the number of posts visible to viewerID,
// then by likes received. Accounts without visible posts are left out.
// A limit of zero or less returns every ranked account.
func TopAuthors(users *UserStore, posts *PostStore, viewerID string, limit int) []AuthorStats {
	byOwner := make(map[string]*AuthorStats)
	for post := range posts.ListAll() {
		if !VisibleTo(post, viewerID) {
			continue
		}
		stats, ok := byOwner[post.OwnerID]
		if !ok {
			account, found := users.LookupAccount(post.OwnerID)
			if !found {
				account = post.Author
			}
			stats = &AuthorStats{Account: account}
			byOwner[post.OwnerID] = stats
		}
		stats.PostCount++
		stats.Likes += post.Likes
	}

	ranked := make([]AuthorStats, 0, len(byOwner))
	for _, account := range users.Accounts() {
		if stats, ok := byOwner[account.ID]; ok {
			ranked = append(ranked, *stats)
			delete(byOwner, account.ID)
		}
	}
	// Owners no longer in the account list keep their snapshot
	for _, ownerID := range slices.Sorted(maps.Keys(byOwner)) {
		ranked = append(ranked, *byOwner[ownerID])
	}

	slices.SortStableFunc(ranked, func(a, b AuthorStats) int {
		if a.PostCount != b.PostCount {
			return b.PostCount - a.PostCount
		}
		return b.Likes - a.Likes
	})

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}
