package forms

import (
	"slices"
	"strings"
	"unicode"

	"github.com/brunoscheufler/inkwell/constants"
	"github.com/brunoscheufler/inkwell/store"
)

// PostForm is the create and edit post form. Hashtags holds the raw tag
// input as typed by the user.
type PostForm struct {
	Title      string   `form:"title" validate:"required,max=200"`
	Body       string   `form:"body" validate:"required"`
	CoverImage string   `form:"coverImage" validate:"omitempty,url"`
	Visibility string   `form:"visibility" validate:"oneof=public private"`
	Hashtags   string   `form:"hashtags"`
	Media      []string `form:"media" validate:"dive,url"`
}

// PostFormFor prefills the form for editing post.
func PostFormFor(post store.Post) PostForm {
	return PostForm{
		Title:      post.Title,
		Body:       post.Body,
		CoverImage: post.CoverImage,
		Visibility: string(post.Visibility),
		Hashtags:   FormatHashtags(post.Hashtags),
		Media:      slices.Clone(post.Media),
	}
}

func (f *PostForm) Validate() error {
	f.Title = strings.TrimSpace(f.Title)
	f.CoverImage = strings.TrimSpace(f.CoverImage)
	if f.Visibility == "" {
		f.Visibility = string(store.VisibilityPublic)
	}
	if strings.TrimSpace(f.Body) == "" {
		f.Body = ""
	}
	f.Media = slices.DeleteFunc(f.Media, func(m string) bool {
		return strings.TrimSpace(m) == ""
	})
	return check(f)
}

// Draft converts the form into CreatePost input. The cover image falls back
// to the first media item.
func (f PostForm) Draft() store.Draft {
	cover := f.CoverImage
	if cover == "" && len(f.Media) > 0 {
		cover = f.Media[0]
	}
	return store.Draft{
		Title:      f.Title,
		Body:       f.Body,
		CoverImage: cover,
		Visibility: store.Visibility(f.Visibility),
		Hashtags:   ParseHashtags(f.Hashtags),
		Media:      slices.Clone(f.Media),
	}
}

// Update converts the form into an UpdatePost input that rewrites every
// editable field.
func (f PostForm) Update() store.PostUpdate {
	draft := f.Draft()
	media := draft.Media
	if media == nil {
		media = []string{}
	}
	return store.PostUpdate{
		Title:      &draft.Title,
		Body:       &draft.Body,
		CoverImage: &draft.CoverImage,
		Visibility: &draft.Visibility,
		Hashtags:   draft.Hashtags,
		Media:      media,
	}
}

// ParseHashtags splits raw tag input on commas and whitespace the way the
// post editor adds tags: a leading '#' is dropped, repeats are ignored and
// tags past the limit are discarded.
func ParseHashtags(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	tags := make([]string, 0, constants.MaxHashtags)
	for _, field := range fields {
		tag := strings.TrimPrefix(strings.TrimSpace(field), "#")
		if tag == "" || len(tags) >= constants.MaxHashtags {
			continue
		}
		if slices.ContainsFunc(tags, func(t string) bool { return strings.EqualFold(t, tag) }) {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// FormatHashtags renders tags back into editor input.
func FormatHashtags(tags []string) string {
	formatted := make([]string, 0, len(tags))
	for _, tag := range tags {
		formatted = append(formatted, "#"+tag)
	}
	return strings.Join(formatted, " ")
}
