package cli

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/brunoscheufler/inkwell/content"
	"github.com/brunoscheufler/inkwell/forms"
	"github.com/brunoscheufler/inkwell/store"
	"github.com/rivo/tview"
)

const dateFormat = "Jan 2, 2006"

// feedItem returns the main and secondary list lines for a post.
func feedItem(post store.Post, renderer *content.Renderer, theme Theme) (string, string) {
	var main strings.Builder
	main.WriteString(tview.Escape(post.Title))
	if !post.IsPublic() {
		main.WriteString(" " + theme.SecondaryTag + "(private)[-]")
	}

	var secondary strings.Builder
	fmt.Fprintf(&secondary, "%s%s · %s · ♥ %d",
		theme.SecondaryTag, tview.Escape(post.Author.Name), post.CreatedAt.Local().Format(dateFormat), post.Likes)
	if tags := formatTags(post.Hashtags, 3); tags != "" {
		secondary.WriteString(" · " + tags)
	}
	if preview := renderer.Preview(post.Body, 60); preview != "" {
		secondary.WriteString(" · " + tview.Escape(preview))
	}
	secondary.WriteString("[-]")

	return main.String(), secondary.String()
}

// formatTags renders up to limit tags, then a "+n" counter for the rest.
func formatTags(tags []string, limit int) string {
	if len(tags) == 0 {
		return ""
	}
	shown := tags
	if limit > 0 && len(tags) > limit {
		shown = tags[:limit]
	}
	formatted := make([]string, 0, len(shown)+1)
	for _, tag := range shown {
		formatted = append(formatted, "#"+tview.Escape(tag))
	}
	if len(shown) < len(tags) {
		formatted = append(formatted, fmt.Sprintf("+%d", len(tags)-len(shown)))
	}
	return strings.Join(formatted, " ")
}

func formatPostDetail(post store.Post, viewerID string, renderer *content.Renderer, theme Theme) string {
	var result strings.Builder

	fmt.Fprintf(&result, "%s%s[-]\n", theme.HeaderTag, tview.Escape(post.Title))
	fmt.Fprintf(&result, "%sby %s · %s", theme.SecondaryTag, tview.Escape(post.Author.Name), post.CreatedAt.Local().Format(dateFormat))
	if post.UpdatedAt.After(post.CreatedAt) {
		fmt.Fprintf(&result, " · edited %s", post.UpdatedAt.Local().Format(dateFormat))
	}
	if !post.IsPublic() {
		result.WriteString(" · private")
	}
	result.WriteString("[-]\n")

	if cover := content.CoverImage(post); cover != "" {
		fmt.Fprintf(&result, "%sCover: %s[-]\n", theme.SecondaryTag, tview.Escape(cover))
	}
	result.WriteString("\n")
	result.WriteString(tview.Escape(renderer.Text(post.Body)))
	result.WriteString("\n\n")

	if tags := formatTags(post.Hashtags, 0); tags != "" {
		fmt.Fprintf(&result, "%s%s[-]\n", theme.ValueTag, tags)
	}
	for _, media := range post.Media {
		fmt.Fprintf(&result, "%sMedia: %s[-]\n", theme.SecondaryTag, tview.Escape(media))
	}

	heart := "♡"
	if post.LikedByAccount(viewerID) {
		heart = "♥"
	}
	fmt.Fprintf(&result, "\n%s%s %d likes[-]\n", theme.ValueTag, heart, post.Likes)

	var keys []string
	if viewerID != "" {
		keys = append(keys, "l like/unlike")
	}
	if viewerID != "" && viewerID == post.OwnerID {
		keys = append(keys, "e edit", "d delete")
	}
	keys = append(keys, "Esc back")
	fmt.Fprintf(&result, "\n%s%s[-]", theme.SecondaryTag, strings.Join(keys, " · "))

	return result.String()
}

func formatProfile(account store.Account, owned []store.Post, theme Theme) string {
	var result strings.Builder

	fmt.Fprintf(&result, "%s%s[-]", theme.HeaderTag, tview.Escape(account.Name))
	if account.Premium {
		fmt.Fprintf(&result, " %s★ Premium[-]", theme.SuccessTag)
	}
	fmt.Fprintf(&result, "\n%s%s · joined %s[-]\n", theme.SecondaryTag, tview.Escape(account.Email), account.CreatedAt.Local().Format(dateFormat))

	if account.Bio != "" {
		fmt.Fprintf(&result, "\n%s\n", tview.Escape(account.Bio))
	}
	if account.AvatarURL != "" {
		fmt.Fprintf(&result, "%sAvatar: %s[-]\n", theme.SecondaryTag, tview.Escape(account.AvatarURL))
	}

	var links []string
	for _, platform := range forms.SocialPlatforms {
		if url, ok := account.SocialLinks[platform]; ok {
			links = append(links, fmt.Sprintf("%s%s:%s %s", theme.LabelTag, platform, theme.ValueTag, tview.Escape(url)))
		}
	}
	if len(links) > 0 {
		result.WriteString("\n" + strings.Join(links, "\n") + "[-]\n")
	}

	public := 0
	likes := 0
	for _, post := range owned {
		if post.IsPublic() {
			public++
		}
		likes += post.Likes
	}
	fmt.Fprintf(&result, "\n%sPosts:%s %d %s(%d public, %d private)%s · Likes:%s %d[-]\n",
		theme.LabelTag, theme.ValueTag, len(owned), theme.SecondaryTag, public, len(owned)-public, theme.LabelTag, theme.ValueTag, likes)

	return result.String()
}

func formatTopWriters(authors []store.AuthorStats, theme Theme) string {
	if len(authors) == 0 {
		return theme.SecondaryTag + "No posts yet...[-]\n"
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s%-20s %5s %5s[-]\n", theme.HeaderTag, "Writer", "Posts", "Likes"))
	result.WriteString(fmt.Sprintf("%s%s[-]\n", theme.HeaderTag, strings.Repeat("─", 32)))

	for _, author := range authors {
		name := content.Truncate(author.Account.Name, 17)
		result.WriteString(fmt.Sprintf("%s%-20s %s%5d %5d[-]\n",
			theme.LabelTag, tview.Escape(name), theme.ValueTag, author.PostCount, author.Likes))
	}
	return result.String()
}

func formatPlans(account store.Account, upgrading bool, theme Theme) string {
	var result strings.Builder

	if account.Premium {
		fmt.Fprintf(&result, "%s★ Premium Membership[-]\n", theme.SuccessTag)
		result.WriteString("Thank you for being a premium member! Enjoy your enhanced features.\n\n")
		fmt.Fprintf(&result, "%sYour Premium Benefits[-]\n", theme.HeaderTag)
		for _, feature := range Plans[len(Plans)-1].Features {
			fmt.Fprintf(&result, "  %s✓[-] %s\n", theme.SuccessTag, feature)
		}
		return result.String()
	}

	fmt.Fprintf(&result, "%sTake your writing to the next level with premium features[-]\n\n", theme.HeaderTag)
	for _, plan := range Plans {
		fmt.Fprintf(&result, "%s%s[-] %s%s[-]", theme.HeaderTag, plan.Name, theme.ValueTag, plan.Price)
		if plan.Recommended {
			fmt.Fprintf(&result, " %s(recommended)[-]", theme.SuccessTag)
		}
		fmt.Fprintf(&result, "\n%s%s[-]\n", theme.SecondaryTag, plan.Description)
		for _, feature := range plan.Features {
			fmt.Fprintf(&result, "  %s✓[-] %s\n", theme.SuccessTag, feature)
		}
		result.WriteString("\n")
	}
	if upgrading {
		fmt.Fprintf(&result, "%sProcessing payment...[-]\n", theme.ValueTag)
	}
	return result.String()
}

func formatError(err error, theme Theme) string {
	if err == nil {
		return ""
	}
	return theme.ErrorTag + tview.Escape(err.Error()) + "[-]"
}

// sortedSocialLinks returns the social platforms with editor platforms
// first, then any others alphabetically.
func sortedSocialLinks(links map[string]string) []string {
	platforms := slices.Clone(forms.SocialPlatforms)
	var extra []string
	for platform := range links {
		if !slices.Contains(platforms, platform) {
			extra = append(extra, platform)
		}
	}
	slices.Sort(extra)
	return append(platforms, extra...)
}

func formatDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
