package forms

import (
	"maps"
	"strings"

	"github.com/brunoscheufler/inkwell/store"
)

// SocialPlatforms lists the platforms the profile editor offers, in display
// order.
var SocialPlatforms = []string{"twitter", "linkedin", "github", "facebook", "instagram"}

// ProfileForm edits the signed-in account's public profile.
type ProfileForm struct {
	Name        string            `form:"name" validate:"required,max=80"`
	Bio         string            `form:"bio" validate:"max=500"`
	AvatarURL   string            `form:"avatarUrl" validate:"omitempty,url"`
	SocialLinks map[string]string `form:"socialLinks" validate:"dive,omitempty,url"`
}

// ProfileFormFor prefills the form from account.
func ProfileFormFor(account store.Account) ProfileForm {
	return ProfileForm{
		Name:        account.Name,
		Bio:         account.Bio,
		AvatarURL:   account.AvatarURL,
		SocialLinks: maps.Clone(account.SocialLinks),
	}
}

func (f *ProfileForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Bio = strings.TrimSpace(f.Bio)
	f.AvatarURL = strings.TrimSpace(f.AvatarURL)
	for platform, url := range f.SocialLinks {
		f.SocialLinks[platform] = strings.TrimSpace(url)
	}
	return check(f)
}

// Update converts the form into a full profile replacement. Social links
// left blank are removed from the account.
func (f ProfileForm) Update() store.AccountUpdate {
	links := make(map[string]string, len(f.SocialLinks))
	for platform, url := range f.SocialLinks {
		if url != "" {
			links[platform] = url
		}
	}

	return store.AccountUpdate{
		Name:        &f.Name,
		Bio:         &f.Bio,
		AvatarURL:   &f.AvatarURL,
		SocialLinks: links,
	}
}
