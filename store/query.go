package store

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VisibleTo reports whether the post can be seen by the account with the
// given ID. An empty ID means nobody is signed in.
func VisibleTo(post Post, accountID string) bool {
	return post.IsPublic() || (accountID != "" && post.OwnerID == accountID)
}

// FilterVisible returns the posts visible to accountID in input order.
func FilterVisible(posts []Post, accountID string) []Post {
	visible := make([]Post, 0, len(posts))
	for _, post := range posts {
		if VisibleTo(post, accountID) {
			visible = append(visible, post.clone())
		}
	}
	return visible
}

// Search filters posts for the viewer and matches them against query.
//
// A query starting with '#' matches hashtags only. Any other query matches
// the title, the body or a hashtag. Matching is a case-insensitive substring
// test; a blank query returns every visible post.
func Search(posts []Post, query, accountID string) []Post {
	visible := FilterVisible(posts, accountID)

	// A Caser carries state and must not be shared between goroutines
	lower := cases.Lower(language.Und)
	term := strings.TrimSpace(lower.String(query))
	if term == "" {
		return visible
	}

	hashtagOnly := strings.HasPrefix(term, "#")
	if hashtagOnly {
		term = strings.TrimPrefix(term, "#")
	}

	results := make([]Post, 0, len(visible))
	for _, post := range visible {
		if matchesHashtag(lower, post, term) {
			results = append(results, post)
			continue
		}
		if hashtagOnly {
			continue
		}
		if strings.Contains(lower.String(post.Title), term) || strings.Contains(lower.String(post.Body), term) {
			results = append(results, post)
		}
	}
	return results
}

func matchesHashtag(lower cases.Caser, post Post, term string) bool {
	for _, tag := range post.Hashtags {
		if strings.Contains(lower.String(tag), term) {
			return true
		}
	}
	return false
}
