package forms

import (
	"errors"
	"testing"

	"github.com/brunoscheufler/inkwell/store"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var errs FieldErrors
	require.True(t, errors.As(err, &errs), "expected FieldErrors, got %v", err)
	return errs
}

func TestRegisterForm(t *testing.T) {
	tests := []struct {
		name string
		form RegisterForm
		want FieldErrors
	}{
		{
			name: "valid",
			form: RegisterForm{Name: "Ann", Email: "ann@x.com", Password: "secret1", ConfirmPassword: "secret1"},
		},
		{
			name: "blank name",
			form: RegisterForm{Name: "   ", Email: "ann@x.com", Password: "secret1", ConfirmPassword: "secret1"},
			want: FieldErrors{"name": "Name is required"},
		},
		{
			name: "invalid email",
			form: RegisterForm{Name: "Ann", Email: "ann-at-x", Password: "secret1", ConfirmPassword: "secret1"},
			want: FieldErrors{"email": "Email is invalid"},
		},
		{
			name: "missing email",
			form: RegisterForm{Name: "Ann", Password: "secret1", ConfirmPassword: "secret1"},
			want: FieldErrors{"email": "Email is required"},
		},
		{
			name: "short password",
			form: RegisterForm{Name: "Ann", Email: "ann@x.com", Password: "abc", ConfirmPassword: "abc"},
			want: FieldErrors{"password": "Password must be at least 6 characters"},
		},
		{
			name: "mismatched confirmation",
			form: RegisterForm{Name: "Ann", Email: "ann@x.com", Password: "secret1", ConfirmPassword: "secret2"},
			want: FieldErrors{"confirmPassword": "Passwords do not match"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.Equal(t, tt.want, fieldErrors(t, err))
		})
	}
}

func TestLoginForm(t *testing.T) {
	form := LoginForm{Email: " ann@x.com ", Password: "secret1"}
	require.NoError(t, form.Validate())
	require.Equal(t, "ann@x.com", form.Email)

	form = LoginForm{}
	errs := fieldErrors(t, form.Validate())
	require.Equal(t, "Email is required", errs["email"])
	require.Equal(t, "Password is required", errs["password"])
	require.Equal(t, "Email is required", errs.First("email", "password"))
}

func TestProfileForm(t *testing.T) {
	account := store.Account{
		Name:        "Ann",
		SocialLinks: map[string]string{"github": "https://github.com/ann"},
	}
	form := ProfileFormFor(account)
	form.Bio = "  Gopher  "
	form.SocialLinks["twitter"] = ""
	require.NoError(t, form.Validate())

	update := form.Update()
	require.Equal(t, "Gopher", *update.Bio)
	require.Equal(t, map[string]string{"github": "https://github.com/ann"}, update.SocialLinks)

	// The prefilled form does not share the account's map
	require.NotContains(t, account.SocialLinks, "twitter")

	form.SocialLinks["github"] = "not a url"
	form.Name = ""
	errs := fieldErrors(t, form.Validate())
	require.Equal(t, "Name is required", errs["name"])
	require.Equal(t, "Social links must be a valid URL", errs["socialLinks"])
}

func TestPostForm(t *testing.T) {
	form := PostForm{
		Title:    "  Hello  ",
		Body:     "<p>World</p>",
		Hashtags: "#go, tui #Go",
		Media:    []string{"", "https://img.example/1.png"},
	}
	require.NoError(t, form.Validate())

	draft := form.Draft()
	require.Equal(t, "Hello", draft.Title)
	require.Equal(t, store.VisibilityPublic, draft.Visibility)
	require.Equal(t, []string{"go", "tui"}, draft.Hashtags)
	require.Equal(t, "https://img.example/1.png", draft.CoverImage)
	require.Equal(t, []string{"https://img.example/1.png"}, draft.Media)

	empty := PostForm{Body: "   ", Visibility: "friends"}
	errs := fieldErrors(t, empty.Validate())
	require.Equal(t, "Title is required", errs["title"])
	require.Equal(t, "Content is required", errs["body"])
	require.Contains(t, errs["visibility"], "Visibility must be one of")
}

func TestPostFormRoundTrip(t *testing.T) {
	post := store.Post{
		Title:      "Title",
		Body:       "Body",
		Visibility: store.VisibilityPrivate,
		Hashtags:   []string{"go", "Tips"},
	}

	form := PostFormFor(post)
	require.Equal(t, "#go #Tips", form.Hashtags)
	require.NoError(t, form.Validate())

	update := form.Update()
	require.Equal(t, store.VisibilityPrivate, *update.Visibility)
	require.Equal(t, []string{"go", "Tips"}, update.Hashtags)
	require.NotNil(t, update.Media)
	require.Empty(t, update.Media)
}

func TestParseHashtags(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "", want: []string{}},
		{input: "#", want: []string{}},
		{input: "go", want: []string{"go"}},
		{input: "#go,#Go  go", want: []string{"go"}},
		{input: "a b c d e f g", want: []string{"a", "b", "c", "d", "e"}},
		{input: " #one,\ttwo\nthree ", want: []string{"one", "two", "three"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.want, ParseHashtags(tt.input))
		})
	}
}
