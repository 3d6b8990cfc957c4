package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brunoscheufler/inkwell/constants"
	"github.com/brunoscheufler/inkwell/forms"
	"github.com/brunoscheufler/inkwell/store"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func (c *CLIApp) newList(title string) *tview.List {
	list := tview.NewList()
	list.SetBorder(true)
	list.SetTitle(" " + title + " ")
	list.SetTitleAlign(tview.AlignLeft)
	list.SetBorderColor(c.theme.Border)
	list.SetTitleColor(c.theme.Title)
	list.SetMainTextColor(c.theme.Foreground)
	list.SetSelectedTextColor(c.theme.Highlight)
	list.SetSelectedBackgroundColor(tcell.ColorDefault)
	list.ShowSecondaryText(true)
	return list
}

func (c *CLIApp) newForm(title string) *tview.Form {
	form := tview.NewForm()
	form.SetBorder(true)
	form.SetTitle(" " + title + " ")
	form.SetTitleAlign(tview.AlignLeft)
	form.SetBorderColor(c.theme.Border)
	form.SetTitleColor(c.theme.Title)
	form.SetLabelColor(c.theme.Foreground)
	form.SetButtonsAlign(tview.AlignLeft)
	form.SetCancelFunc(c.showHome)
	return form
}

// Home

func (c *CLIApp) buildHome() tview.Primitive {
	c.feedList = c.newList("Home")
	c.feedList.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if index < len(c.feedPosts) {
			c.openPost(c.feedPosts[index].ID)
		}
	})
	c.feedList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'a':
			c.feedFilter = store.FeedAll
			c.renderFeed()
			return nil
		case 'm':
			if _, ok := c.requireSession("Sign in to see your posts"); ok {
				c.feedFilter = store.FeedFollowing
				c.renderFeed()
			}
			return nil
		case 'n':
			c.showEditor(nil)
			return nil
		case '/':
			c.showSearch()
			return nil
		}
		return event
	})

	c.topWritersView = newPanel("Top Writers", c.theme)

	flex := tview.NewFlex()
	flex.SetDirection(tview.FlexColumn)
	flex.AddItem(c.feedList, 0, 3, true)
	flex.AddItem(c.topWritersView, 36, 0, false)
	return flex
}

func (c *CLIApp) showHome() {
	c.renderFeed()
	c.show(pageHome, c.feedList)
}

func (c *CLIApp) renderFeed() {
	if _, ok := c.Users.CurrentAccount(); !ok {
		c.feedFilter = store.FeedAll
	}

	title := "Home · All posts"
	if c.feedFilter == store.FeedFollowing {
		title = "Home · My posts"
	}
	c.feedList.SetTitle(" " + title + " [a]ll [m]ine [n]ew [/]search ")

	c.feedPosts = c.Posts.Feed(c.feedFilter)
	c.fillPostList(c.feedList, c.feedPosts, "No posts yet", "Press F3 to write the first one")
}

// fillPostList replaces the list items with posts, keeping the selection
// position where possible.
func (c *CLIApp) fillPostList(list *tview.List, posts []store.Post, emptyMain, emptySecondary string) {
	current := list.GetCurrentItem()
	list.Clear()

	if len(posts) == 0 {
		list.AddItem(c.theme.SecondaryTag+emptyMain+"[-]", c.theme.SecondaryTag+emptySecondary+"[-]", 0, nil)
		return
	}

	for _, post := range posts {
		main, secondary := feedItem(post, c.Renderer, c.theme)
		list.AddItem(main, secondary, 0, nil)
	}
	list.SetCurrentItem(min(current, len(posts)-1))
}

func (c *CLIApp) renderTopWriters() {
	viewerID := ""
	if account, ok := c.Users.CurrentAccount(); ok {
		viewerID = account.ID
	}
	authors := store.TopAuthors(c.Users, c.Posts, viewerID, constants.TopWriters)
	c.topWritersView.SetText(formatTopWriters(authors, c.theme))
}

// Search

func (c *CLIApp) buildSearch() tview.Primitive {
	c.searchInput = tview.NewInputField()
	c.searchInput.SetLabel("Search: ")
	c.searchInput.SetPlaceholder("Search posts and hashtags... (#tag for hashtags only)")
	c.searchInput.SetFieldBackgroundColor(tcell.ColorDefault)
	c.searchInput.SetLabelColor(c.theme.Title)
	c.searchInput.SetChangedFunc(c.startSearch)
	c.searchInput.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter || key == tcell.KeyTab || key == tcell.KeyDown {
			c.app.SetFocus(c.searchList)
		}
	})

	c.searchInfo = tview.NewTextView()
	c.searchInfo.SetDynamicColors(true)
	ApplyThemeToTextView(c.searchInfo, c.theme)

	c.searchList = c.newList("Results")
	c.searchList.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if index < len(c.searchPosts) {
			c.openPost(c.searchPosts[index].ID)
		}
	})
	c.searchList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Rune() == '/' || (event.Key() == tcell.KeyUp && c.searchList.GetCurrentItem() == 0) {
			c.app.SetFocus(c.searchInput)
			return nil
		}
		return event
	})

	flex := tview.NewFlex()
	flex.SetDirection(tview.FlexRow)
	flex.AddItem(c.searchInput, 1, 0, true)
	flex.AddItem(c.searchInfo, 1, 0, false)
	flex.AddItem(c.searchList, 0, 1, false)
	return flex
}

func (c *CLIApp) showSearch() {
	c.show(pageSearch, c.searchInput)
	c.startSearch(c.searchInput.GetText())
}

// startSearch abandons the running search and starts a new one. Results
// arrive through the searcher subscription.
func (c *CLIApp) startSearch(query string) {
	if c.searchCancel != nil {
		c.searchCancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.searchCancel = cancel

	go func() {
		if _, _, err := c.Searcher.Search(ctx, query); err != nil && !errors.Is(err, context.Canceled) {
			c.Telemetry.GetLogger().Warn("Search failed", "query", query, "error", err)
		}
	}()
}

func (c *CLIApp) renderSearch(state store.SearchState) {
	switch {
	case state.Loading:
		c.searchInfo.SetText(c.theme.SecondaryTag + "Searching...[-]")
		return
	case strings.TrimSpace(state.Query) == "":
		c.searchInfo.SetText(c.theme.SecondaryTag + "Search for posts by title, content, or hashtags.[-]")
	default:
		c.searchInfo.SetText(fmt.Sprintf("%s%d results for %q[-]", c.theme.SecondaryTag, len(state.Results), tview.Escape(state.Query)))
	}

	c.searchPosts = state.Results
	c.fillPostList(c.searchList, c.searchPosts, "No posts found", "Try a different word or #hashtag")
}

// Post detail

func (c *CLIApp) buildPostDetail() tview.Primitive {
	c.postView = newPanel("Post", c.theme)
	c.postView.SetScrollable(true)
	c.postView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'l':
			c.toggleLike()
			return nil
		case 'e':
			if post, ok := c.ownedCurrentPost(); ok {
				c.showEditor(&post)
			}
			return nil
		case 'd':
			if post, ok := c.ownedCurrentPost(); ok {
				c.confirmDelete(post)
			}
			return nil
		}
		return event
	})
	return c.postView
}

func (c *CLIApp) openPost(id string) {
	c.currentPost = id
	c.renderPost()
	c.show(pagePost, c.postView)
	c.postView.ScrollToBeginning()
}

func (c *CLIApp) viewerID() string {
	if account, ok := c.Users.CurrentAccount(); ok {
		return account.ID
	}
	return ""
}

func (c *CLIApp) renderPost() {
	post, ok := c.Posts.GetPost(c.currentPost)
	if !ok || !store.VisibleTo(post, c.viewerID()) {
		c.postView.SetText(c.theme.SecondaryTag + "Post not found. It may have been deleted or made private.[-]")
		return
	}
	c.postView.SetText(formatPostDetail(post, c.viewerID(), c.Renderer, c.theme))
}

func (c *CLIApp) ownedCurrentPost() (store.Post, bool) {
	post, ok := c.Posts.GetPost(c.currentPost)
	if !ok {
		return store.Post{}, false
	}
	if post.OwnerID != c.viewerID() {
		c.setError(store.ErrNotOwner)
		return store.Post{}, false
	}
	return post, true
}

func (c *CLIApp) toggleLike() {
	account, ok := c.requireSession("Sign in to like posts")
	if !ok {
		return
	}
	post, ok := c.Posts.GetPost(c.currentPost)
	if !ok {
		return
	}

	c.perform(func(ctx context.Context) error {
		var err error
		if post.LikedByAccount(account.ID) {
			_, err = c.Posts.UnlikePost(ctx, post.ID)
		} else {
			_, err = c.Posts.LikePost(ctx, post.ID)
		}
		return err
	}, nil)
}

func (c *CLIApp) confirmDelete(post store.Post) {
	modal := tview.NewModal()
	modal.SetText(fmt.Sprintf("Delete %q? This cannot be undone.", post.Title))
	modal.AddButtons([]string{"Delete", "Cancel"})
	modal.SetDoneFunc(func(_ int, label string) {
		c.pages.RemovePage(pageConfirm)
		c.app.SetFocus(c.postView)
		if label != "Delete" {
			return
		}
		c.perform(func(ctx context.Context) error {
			return c.Posts.DeletePost(ctx, post.ID)
		}, func(err error) {
			if err == nil {
				c.showHome()
				c.setStatus(fmt.Sprintf("%sDeleted %q[-]", c.theme.SecondaryTag, tview.Escape(post.Title)))
			}
		})
	})
	c.pages.AddPage(pageConfirm, modal, false, true)
	c.app.SetFocus(modal)
}

// Editor

func (c *CLIApp) showEditor(existing *store.Post) {
	if _, ok := c.requireSession("Sign in to write a post"); !ok {
		return
	}

	input := forms.PostForm{Visibility: string(store.VisibilityPublic)}
	title := "New post"
	if existing != nil {
		input = forms.PostFormFor(*existing)
		title = "Edit post"
	}

	visibilities := []string{string(store.VisibilityPublic), string(store.VisibilityPrivate)}
	selected := 0
	if input.Visibility == string(store.VisibilityPrivate) {
		selected = 1
	}

	form := c.newForm(title)
	form.AddInputField("Title", input.Title, 60, nil, func(text string) { input.Title = text })
	form.AddTextArea("Content", input.Body, 60, 8, 0, func(text string) { input.Body = text })
	form.AddInputField("Hashtags", input.Hashtags, 60, nil, func(text string) { input.Hashtags = text })
	form.AddInputField("Cover image URL", input.CoverImage, 60, nil, func(text string) { input.CoverImage = text })
	form.AddInputField("Media URLs", strings.Join(input.Media, ", "), 60, nil, func(text string) {
		input.Media = splitList(text)
	})
	form.AddDropDown("Visibility", visibilities, selected, func(option string, _ int) { input.Visibility = option })

	save := "Publish"
	if existing != nil {
		save = "Save changes"
	}
	form.AddButton(save, func() {
		if err := input.Validate(); err != nil {
			c.setFormError(err, "title", "body", "coverImage", "media", "visibility")
			return
		}
		if existing == nil {
			c.createPost(input)
		} else {
			c.updatePost(existing.ID, input)
		}
	})
	form.AddButton("Cancel", func() {
		if existing != nil {
			c.openPost(existing.ID)
			return
		}
		c.showHome()
	})

	c.pages.AddPage(pageEditor, form, true, false)
	c.show(pageEditor, form)
	c.setStatus(fmt.Sprintf("%sUp to %d hashtags, separated by spaces or commas[-]", c.theme.SecondaryTag, constants.MaxHashtags))
}

func (c *CLIApp) createPost(input forms.PostForm) {
	var created store.Post
	c.perform(func(ctx context.Context) error {
		var err error
		created, err = c.Posts.CreatePost(ctx, input.Draft())
		return err
	}, func(err error) {
		if err == nil {
			c.openPost(created.ID)
			c.setStatus(c.theme.SuccessTag + "Published[-]")
		}
	})
}

func (c *CLIApp) updatePost(id string, input forms.PostForm) {
	c.perform(func(ctx context.Context) error {
		_, err := c.Posts.UpdatePost(ctx, id, input.Update())
		return err
	}, func(err error) {
		if err == nil {
			c.openPost(id)
			c.setStatus(c.theme.SuccessTag + "Saved[-]")
		}
	})
}

func (c *CLIApp) setFormError(err error, order ...string) {
	var fieldErrs forms.FieldErrors
	if errors.As(err, &fieldErrs) {
		c.setStatus(c.theme.ErrorTag + tview.Escape(fieldErrs.First(order...)) + "[-]")
		return
	}
	c.setError(err)
}

func splitList(text string) []string {
	var items []string
	for _, item := range strings.Split(text, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Login and registration

func (c *CLIApp) showLogin() {
	var input forms.LoginForm

	form := c.newForm("Sign in to your account")
	form.AddInputField("Email", "", 40, nil, func(text string) { input.Email = text })
	form.AddPasswordField("Password", "", 40, '*', func(text string) { input.Password = text })
	form.AddButton("Sign in", func() {
		if err := input.Validate(); err != nil {
			c.setFormError(err, "email", "password")
			return
		}
		var account store.Account
		c.perform(func(ctx context.Context) error {
			var err error
			account, err = c.Users.Login(ctx, input.Email, input.Password)
			return err
		}, func(err error) {
			if err == nil {
				c.showHome()
				c.setStatus(fmt.Sprintf("%sWelcome back, %s[-]", c.theme.SuccessTag, tview.Escape(account.Name)))
			}
		})
	})
	form.AddButton("Create account", c.showRegister)
	form.AddButton("Cancel", c.showHome)

	c.pages.AddPage(pageLogin, form, true, false)
	c.show(pageLogin, form)
}

func (c *CLIApp) showRegister() {
	var input forms.RegisterForm

	form := c.newForm("Create an account")
	form.AddInputField("Name", "", 40, nil, func(text string) { input.Name = text })
	form.AddInputField("Email", "", 40, nil, func(text string) { input.Email = text })
	form.AddPasswordField("Password", "", 40, '*', func(text string) { input.Password = text })
	form.AddPasswordField("Confirm password", "", 40, '*', func(text string) { input.ConfirmPassword = text })
	form.AddButton("Create account", func() {
		if err := input.Validate(); err != nil {
			c.setFormError(err, "name", "email", "password", "confirmPassword")
			return
		}
		var account store.Account
		c.perform(func(ctx context.Context) error {
			var err error
			account, err = c.Users.Register(ctx, input.Name, input.Email, input.Password)
			return err
		}, func(err error) {
			if err == nil {
				c.showHome()
				c.setStatus(fmt.Sprintf("%sWelcome to inkwell, %s[-]", c.theme.SuccessTag, tview.Escape(account.Name)))
			}
		})
	})
	form.AddButton("I have an account", c.showLogin)
	form.AddButton("Cancel", c.showHome)

	c.pages.AddPage(pageRegister, form, true, false)
	c.show(pageRegister, form)
}

// Profile

func (c *CLIApp) buildProfile() tview.Primitive {
	c.profileView = newPanel("Profile", c.theme)

	c.profileList = c.newList("My posts [e]dit profile [p]remium")
	c.profileList.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		if index < len(c.profilePosts) {
			c.openPost(c.profilePosts[index].ID)
		}
	})
	c.profileList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'e':
			c.showEditProfile()
			return nil
		case 'p':
			c.showPremium()
			return nil
		}
		return event
	})

	flex := tview.NewFlex()
	flex.SetDirection(tview.FlexRow)
	flex.AddItem(c.profileView, 0, 1, false)
	flex.AddItem(c.profileList, 0, 2, true)
	return flex
}

func (c *CLIApp) showProfile() {
	if _, ok := c.requireSession("Sign in to see your profile"); !ok {
		return
	}
	c.renderProfile()
	c.show(pageProfile, c.profileList)
}

func (c *CLIApp) renderProfile() {
	account, ok := c.Users.CurrentAccount()
	if !ok {
		c.profileView.SetText("")
		c.profilePosts = nil
		c.profileList.Clear()
		if c.currentPage == pageProfile {
			c.showHome()
		}
		return
	}

	c.profilePosts = c.Posts.OwnedPosts()
	c.profileView.SetText(formatProfile(account, c.profilePosts, c.theme))
	c.fillPostList(c.profileList, c.profilePosts, "You haven't written anything yet", "Press F3 to write your first post")
}

func (c *CLIApp) showEditProfile() {
	account, ok := c.requireSession("Sign in to edit your profile")
	if !ok {
		return
	}

	input := forms.ProfileFormFor(account)
	if input.SocialLinks == nil {
		input.SocialLinks = make(map[string]string)
	}

	form := c.newForm("Edit profile")
	form.AddInputField("Name", input.Name, 40, nil, func(text string) { input.Name = text })
	form.AddTextArea("Bio", input.Bio, 60, 4, 0, func(text string) { input.Bio = text })
	form.AddInputField("Avatar URL", input.AvatarURL, 60, nil, func(text string) { input.AvatarURL = text })
	for _, platform := range sortedSocialLinks(input.SocialLinks) {
		form.AddInputField(strings.ToUpper(platform[:1])+platform[1:], input.SocialLinks[platform], 60, nil, func(text string) {
			input.SocialLinks[platform] = text
		})
	}
	form.AddButton("Save", func() {
		if err := input.Validate(); err != nil {
			c.setFormError(err, "name", "bio", "avatarUrl", "socialLinks")
			return
		}
		c.perform(func(ctx context.Context) error {
			_, err := c.Users.UpdateUser(ctx, input.Update())
			return err
		}, func(err error) {
			if err == nil {
				c.showProfile()
				c.setStatus(c.theme.SuccessTag + "Profile updated[-]")
			}
		})
	})
	form.AddButton("Cancel", c.showProfile)

	c.pages.AddPage(pageEditProfile, form, true, false)
	c.show(pageEditProfile, form)
}

// Premium

func (c *CLIApp) buildPremium() tview.Primitive {
	c.premiumView = newPanel("Premium", c.theme)
	c.premiumView.SetScrollable(true)

	c.premiumActions = tview.NewForm()
	c.premiumActions.SetButtonsAlign(tview.AlignLeft)
	c.premiumActions.SetCancelFunc(c.showHome)

	flex := tview.NewFlex()
	flex.SetDirection(tview.FlexRow)
	flex.AddItem(c.premiumView, 0, 1, false)
	flex.AddItem(c.premiumActions, 3, 0, true)
	return flex
}

func (c *CLIApp) showPremium() {
	if _, ok := c.requireSession("Sign in to manage your membership"); !ok {
		return
	}
	c.renderPremium()
	c.show(pagePremium, c.premiumActions)
}

func (c *CLIApp) renderPremium() {
	account, ok := c.Users.CurrentAccount()
	if !ok {
		c.premiumView.SetText("")
		c.premiumActions.ClearButtons()
		return
	}

	c.premiumView.SetText(formatPlans(account, c.upgrading, c.theme))

	c.premiumActions.ClearButtons()
	switch {
	case c.upgrading:
		// No actions while a payment is processing
	case account.Premium:
		c.premiumActions.AddButton("Cancel membership", c.cancelPremium)
	default:
		for _, plan := range Plans {
			if !plan.Paid {
				continue
			}
			c.premiumActions.AddButton("Upgrade to "+plan.Name, func() {
				c.upgradePremium(plan)
			})
		}
	}
	c.premiumActions.AddButton("Back", c.showProfile)
}

func (c *CLIApp) upgradePremium(plan Plan) {
	c.upgrading = true
	c.renderPremium()

	c.perform(func(ctx context.Context) error {
		_, err := upgrade(ctx, c.Users, c.options.PaymentDelay)
		return err
	}, func(err error) {
		c.upgrading = false
		c.renderPremium()
		if err == nil {
			c.showProfile()
			c.setStatus(fmt.Sprintf("%sSuccessfully upgraded to %s tier![-]", c.theme.SuccessTag, plan.Name))
		}
	})
}

func (c *CLIApp) cancelPremium() {
	c.perform(func(ctx context.Context) error {
		_, err := cancelMembership(ctx, c.Users)
		return err
	}, func(err error) {
		if err == nil {
			c.setStatus(c.theme.SecondaryTag + "Your membership was cancelled[-]")
		}
	})
}

// Stats and logs

func (c *CLIApp) buildStats() tview.Primitive {
	c.statsView = newPanel("Stats", c.theme)
	return c.statsView
}

func (c *CLIApp) buildLogs() tview.Primitive {
	c.logView = newPanel("Logs", c.theme)
	c.logView.SetScrollable(true)
	c.logView.SetMaxLines(constants.DefaultLogBufferSize)
	return c.logView
}
