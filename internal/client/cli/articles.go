package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/mddclient/internal/client/guards"
	"github.com/dmitrijs2005/mddclient/internal/client/models"
	"github.com/dmitrijs2005/mddclient/internal/client/services"
)

const dateLayout = "02/01/2006"

func formatDate(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(dateLayout)
}

// excerpt shortens content to a single line of at most n runes.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func (a *App) sortOrder() services.SortOrder {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.order
}

func (a *App) toggleOrder() services.SortOrder {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.order = a.order.Toggle()
	return a.order
}

// articles lists the feed of the followed themes. "articles sort" flips the
// order before listing.
func (a *App) articles(ctx context.Context, args []string) error {
	order := a.sortOrder()
	if len(args) > 0 && args[0] == actionSort {
		order = a.toggleOrder()
	}

	feed, err := a.articleService.Feed(ctx, order)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Articles (%s)\n", order)
	if len(feed) == 0 {
		fmt.Fprintln(a.out, "No articles yet. Follow some themes with 'themes'.")
		return nil
	}
	for _, art := range feed {
		fmt.Fprintf(a.out, "#%d  %s  [%s]\n", art.ID, art.Title, art.ThemeTitle)
		fmt.Fprintf(a.out, "     %s  by %s\n", formatDate(art.CreatedAt), art.AuthorUsername)
		fmt.Fprintf(a.out, "     %s\n", excerpt(art.Content, 80))
	}
	return nil
}

// article shows one article with its comments. "article comment <id>"
// prompts for a comment first.
func (a *App) article(ctx context.Context, args []string) error {
	commenting := len(args) > 0 && args[0] == actionComment
	if commenting {
		args = args[1:]
	}

	id, err := parseID(args, 0, "article")
	if err != nil {
		return err
	}

	if commenting {
		content, err := getMultiline(a.reader, "Your comment", a.out)
		if err != nil {
			return err
		}
		if _, err := a.articleService.Comment(ctx, id, content); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Comment posted.")
	}

	art, err := a.articleService.Get(ctx, id)
	if err != nil {
		return err
	}
	a.printArticle(art)
	return nil
}

func (a *App) printArticle(art *models.Article) {
	fmt.Fprintf(a.out, "%s\n", art.Title)
	fmt.Fprintf(a.out, "%s  %s  %s\n", formatDate(art.CreatedAt), art.AuthorUsername, art.ThemeTitle)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, art.Content)
	fmt.Fprintln(a.out)

	fmt.Fprintf(a.out, "Comments (%d)\n", len(art.Comments))
	for _, c := range art.Comments {
		fmt.Fprintf(a.out, "  %s: %s\n", c.SenderUsername, c.Content)
	}
}

func (a *App) createArticle(ctx context.Context, _ []string) error {
	themes, err := a.themeService.Themes(ctx)
	if err != nil {
		return err
	}
	if len(themes) == 0 {
		fmt.Fprintln(a.out, "There are no themes to publish in.")
		return nil
	}

	fmt.Fprintln(a.out, "Themes:")
	for _, t := range themes {
		fmt.Fprintf(a.out, "  %d  %s\n", t.ID, t.Title)
	}

	raw, err := getSimpleText(a.reader, "Theme id", a.out)
	if err != nil {
		return err
	}
	themeID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || themeID <= 0 {
		return usage("theme id must be a positive number, got %q", raw)
	}

	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	content, err := getMultiline(a.reader, "Content", a.out)
	if err != nil {
		return err
	}

	art, err := a.articleService.Create(ctx, models.NewArticle{ThemeID: themeID, Title: title, Content: content})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Article #%d published.\n", art.ID)
	a.router.Request(guards.RouteArticles)
	return nil
}
