package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/brunoscheufler/inkwell/constants"
	"github.com/brunoscheufler/inkwell/content"
	"github.com/brunoscheufler/inkwell/store"
	"github.com/charmbracelet/lipgloss"
)

const cardWidth = 72

// RenderPostCards writes posts as bordered cards, for the non-interactive
// search and feed commands.
func RenderPostCards(w io.Writer, heading string, posts []store.Post, renderer *content.Renderer, theme Theme) error {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Card.Highlight)

	subtleStyle := lipgloss.NewStyle().
		Foreground(theme.Card.Subtle)

	var out strings.Builder
	out.WriteString(titleStyle.Render(heading))
	out.WriteString("\n")

	if len(posts) == 0 {
		out.WriteString(subtleStyle.Render("No posts found"))
		out.WriteString("\n")
		_, err := io.WriteString(w, out.String())
		return err
	}

	for _, post := range posts {
		out.WriteString(renderCard(post, renderer, theme))
		out.WriteString("\n")
	}
	out.WriteString(subtleStyle.Render(fmt.Sprintf("%d posts", len(posts))))
	out.WriteString("\n")

	_, err := io.WriteString(w, out.String())
	return err
}

func renderCard(post store.Post, renderer *content.Renderer, theme Theme) string {
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Card.Border).
		Padding(0, 1).
		Width(cardWidth)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Card.Primary)

	metaStyle := lipgloss.NewStyle().
		Foreground(theme.Card.Secondary)

	tagStyle := lipgloss.NewStyle().
		Foreground(theme.Card.Accent)

	title := post.Title
	if !post.IsPublic() {
		title += " (private)"
	}

	lines := []string{
		titleStyle.Render(title),
		metaStyle.Render(fmt.Sprintf("%s · %s · ♥ %d", post.Author.Name, post.CreatedAt.Local().Format(dateFormat), post.Likes)),
	}
	if cover := content.CoverImage(post); cover != "" {
		lines = append(lines, metaStyle.Render("Cover: "+cover))
	}
	if preview := renderer.Preview(post.Body, constants.PreviewLength); preview != "" {
		lines = append(lines, "", preview)
	}
	if len(post.Hashtags) > 0 {
		tags := make([]string, 0, len(post.Hashtags))
		for _, tag := range post.Hashtags {
			tags = append(tags, "#"+tag)
		}
		lines = append(lines, "", tagStyle.Render(strings.Join(tags, " ")))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
