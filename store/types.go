package store

import (
	"maps"
	"slices"
	"time"
)

// Account is a registered user as seen by callers. It never carries the
// credential; see accountRecord for the stored form.
type Account struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	Name        string            `json:"name"`
	Bio         string            `json:"bio,omitempty"`
	AvatarURL   string            `json:"avatarUrl,omitempty"`
	SocialLinks map[string]string `json:"socialLinks,omitempty"`
	Premium     bool              `json:"premium"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func (a Account) clone() Account {
	a.SocialLinks = maps.Clone(a.SocialLinks)
	return a
}

// accountRecord is the persisted account including its credential hash.
type accountRecord struct {
	Account
	PasswordHash string `json:"passwordHash"`
}

// AccountUpdate holds the profile fields to change. Nil fields are left
// untouched. A non-nil SocialLinks replaces the whole mapping; an empty map
// clears it.
type AccountUpdate struct {
	Name        *string
	Bio         *string
	AvatarURL   *string
	SocialLinks map[string]string
	Premium     *bool
}

func (u AccountUpdate) apply(a *Account) {
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Bio != nil {
		a.Bio = *u.Bio
	}
	if u.AvatarURL != nil {
		a.AvatarURL = *u.AvatarURL
	}
	if u.SocialLinks != nil {
		a.SocialLinks = nil
		for platform, url := range u.SocialLinks {
			if url == "" {
				continue
			}
			if a.SocialLinks == nil {
				a.SocialLinks = make(map[string]string)
			}
			a.SocialLinks[platform] = url
		}
	}
	if u.Premium != nil {
		a.Premium = *u.Premium
	}
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Post is a user-authored content item.
//
// Author is a copy of the owning account taken when the post was created.
// It goes stale when the account changes its profile; OwnerID is the
// authoritative link.
type Post struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	CoverImage string     `json:"coverImage,omitempty"`
	Visibility Visibility `json:"visibility"`
	OwnerID    string     `json:"ownerId"`
	Author     Account    `json:"author"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	Hashtags   []string   `json:"hashtags"`
	Likes      int        `json:"likes"`
	Media      []string   `json:"media,omitempty"`
	LikedBy    []string   `json:"likedBy,omitempty"`
}

func (p Post) IsPublic() bool {
	return p.Visibility != VisibilityPrivate
}

// LikedByAccount reports whether accountID has liked the post.
func (p Post) LikedByAccount(accountID string) bool {
	return slices.Contains(p.LikedBy, accountID)
}

func (p Post) clone() Post {
	p.Author = p.Author.clone()
	p.Hashtags = slices.Clone(p.Hashtags)
	p.Media = slices.Clone(p.Media)
	p.LikedBy = slices.Clone(p.LikedBy)
	return p
}

// Draft is the input for CreatePost. An empty Visibility means public.
type Draft struct {
	Title      string
	Body       string
	CoverImage string
	Visibility Visibility
	Hashtags   []string
	Media      []string
}

// PostUpdate holds the post fields to change. Nil fields are left untouched;
// for the slices a non-nil empty value clears them.
type PostUpdate struct {
	Title      *string
	Body       *string
	CoverImage *string
	Visibility *Visibility
	Hashtags   []string
	Media      []string
}

type FeedFilter int

const (
	// FeedAll shows every post visible to the session.
	FeedAll FeedFilter = iota
	// FeedFollowing shows the session's own posts. There is no follow
	// graph yet.
	FeedFollowing
)

// UserState is the snapshot published to UserStore subscribers.
type UserState struct {
	Current   *Account
	Loading   bool
	LastError error
}

// PostState is the snapshot published to PostStore subscribers.
type PostState struct {
	Posts     []Post
	Owned     []Post
	Loading   bool
	LastError error
}

// SessionSource resolves the active account for PostStore.
type SessionSource interface {
	CurrentAccount() (Account, bool)
	Subscribe(fn func(UserState)) (unsubscribe func())
}
