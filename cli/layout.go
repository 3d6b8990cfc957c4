package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brunoscheufler/inkwell/constants"
	"github.com/brunoscheufler/inkwell/store"
	"github.com/brunoscheufler/inkwell/telemetry"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	pageHome        = "home"
	pageSearch      = "search"
	pagePost        = "post"
	pageEditor      = "editor"
	pageLogin       = "login"
	pageRegister    = "register"
	pageProfile     = "profile"
	pageEditProfile = "edit-profile"
	pagePremium     = "premium"
	pageStats       = "stats"
	pageLogs        = "logs"
	pageConfirm     = "confirm"
)

const navigationHelp = "F1 Home  F2 Search  F3 Write  F4 Profile  F5 Premium  F6 Stats  F7 Logs  F8 Sign in/out  Ctrl-C Quit"

type CLIApp struct {
	app    *tview.Application
	pages  *tview.Pages
	header *tview.TextView
	status *tview.TextView

	feedList       *tview.List
	topWritersView *tview.TextView
	searchInput    *tview.InputField
	searchInfo     *tview.TextView
	searchList     *tview.List
	postView       *tview.TextView
	profileView    *tview.TextView
	profileList    *tview.List
	premiumView    *tview.TextView
	premiumActions *tview.Form
	statsView      *tview.TextView
	logView        *tview.TextView

	*AppConfig
	options   CLIOptions
	theme     Theme
	startedAt time.Time

	// Owned by the UI goroutine
	currentPage  string
	feedFilter   store.FeedFilter
	feedPosts    []store.Post
	searchPosts  []store.Post
	profilePosts []store.Post
	currentPost  string
	upgrading    bool
	searchCancel context.CancelFunc

	unsubscribe []func()

	ctx    context.Context
	cancel context.CancelFunc
}

func NewCLIApp(appConfig *AppConfig, options CLIOptions) *CLIApp {
	ctx, cancel := context.WithCancel(context.Background())

	if options.PaymentDelay == 0 {
		options.PaymentDelay = constants.PaymentDelay
	}

	return &CLIApp{
		app:       tview.NewApplication(),
		AppConfig: appConfig,
		options:   options,
		theme:     GetTheme(options.Theme),
		startedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (c *CLIApp) Setup() {
	ApplyTheme(c.theme)

	c.header = tview.NewTextView()
	c.header.SetDynamicColors(true)
	ApplyThemeToTextView(c.header, c.theme)

	c.status = tview.NewTextView()
	c.status.SetDynamicColors(true)
	ApplyThemeToTextView(c.status, c.theme)

	c.pages = tview.NewPages()
	c.pages.AddPage(pageHome, c.buildHome(), true, true)
	c.pages.AddPage(pageSearch, c.buildSearch(), true, false)
	c.pages.AddPage(pagePost, c.buildPostDetail(), true, false)
	c.pages.AddPage(pageProfile, c.buildProfile(), true, false)
	c.pages.AddPage(pagePremium, c.buildPremium(), true, false)
	c.pages.AddPage(pageStats, c.buildStats(), true, false)
	c.pages.AddPage(pageLogs, c.buildLogs(), true, false)
	c.currentPage = pageHome

	mainFlex := tview.NewFlex()
	mainFlex.SetDirection(tview.FlexRow)
	mainFlex.AddItem(c.header, 1, 0, false)
	mainFlex.AddItem(c.pages, 0, 1, true)
	mainFlex.AddItem(c.status, 1, 0, false)

	c.app.SetRoot(mainFlex, true)
	c.app.SetFocus(c.feedList)
	c.app.EnableMouse(true)

	c.app.SetInputCapture(c.handleGlobalKey)

	// Store callbacks may run on any goroutine
	c.unsubscribe = append(c.unsubscribe,
		c.Users.Subscribe(func(store.UserState) {
			c.app.QueueUpdateDraw(c.refresh)
		}),
		c.Posts.Subscribe(func(store.PostState) {
			c.app.QueueUpdateDraw(c.refresh)
		}),
		c.Searcher.Subscribe(func(state store.SearchState) {
			c.app.QueueUpdateDraw(func() {
				c.renderSearch(state)
			})
		}),
	)

	c.Telemetry.LogCapture.SetLogCallback(func(entry telemetry.LogEntry) {
		c.appendLog(FormatLogEntryWithTheme(entry, c.theme))
	})

	c.refresh()
}

func (c *CLIApp) Start() error {
	go c.statsUpdateLoop()

	go func() {
		c.loadExistingLogs()
	}()

	return c.app.Run()
}

func (c *CLIApp) Stop() {
	c.cancel()
	for _, unsubscribe := range c.unsubscribe {
		unsubscribe()
	}
	c.Telemetry.LogCapture.SetLogCallback(nil)
	c.app.Stop()
}

func (c *CLIApp) handleGlobalKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyCtrlC:
		c.Stop()
		return nil
	case tcell.KeyEscape:
		if c.currentPage != pageHome {
			c.showHome()
			return nil
		}
		return event
	case tcell.KeyF1:
		c.showHome()
	case tcell.KeyF2:
		c.showSearch()
	case tcell.KeyF3:
		c.showEditor(nil)
	case tcell.KeyF4:
		c.showProfile()
	case tcell.KeyF5:
		c.showPremium()
	case tcell.KeyF6:
		c.show(pageStats, c.statsView)
		c.updateStats()
	case tcell.KeyF7:
		c.show(pageLogs, c.logView)
	case tcell.KeyF8:
		c.toggleSession()
	default:
		return event
	}
	return nil
}

// show switches to page and focuses primitive. Any open confirmation is
// dismissed.
func (c *CLIApp) show(page string, focus tview.Primitive) {
	if c.pages.HasPage(pageConfirm) {
		c.pages.RemovePage(pageConfirm)
	}
	c.pages.SwitchToPage(page)
	c.currentPage = page
	if focus != nil {
		c.app.SetFocus(focus)
	}
	c.setStatus("")
}

func (c *CLIApp) setStatus(text string) {
	c.status.SetText(text)
}

func (c *CLIApp) setError(err error) {
	c.setStatus(formatError(err, c.theme))
}

// perform runs op off the UI goroutine. done, if set, runs on the UI
// goroutine afterwards; failures are reported in the status line first.
func (c *CLIApp) perform(op func(ctx context.Context) error, done func(err error)) {
	go func() {
		err := op(c.ctx)
		c.app.QueueUpdateDraw(func() {
			if err != nil {
				c.setError(err)
			}
			if done != nil {
				done(err)
			}
		})
	}()
}

// requireSession sends anonymous users to the login page.
func (c *CLIApp) requireSession(reason string) (store.Account, bool) {
	account, ok := c.Users.CurrentAccount()
	if !ok {
		c.showLogin()
		c.setStatus(c.theme.SecondaryTag + reason + "[-]")
	}
	return account, ok
}

func (c *CLIApp) toggleSession() {
	account, ok := c.Users.CurrentAccount()
	if !ok {
		c.showLogin()
		return
	}
	c.perform(c.Users.Logout, func(err error) {
		if err == nil {
			c.showHome()
			c.setStatus(fmt.Sprintf("%sSigned out %s[-]", c.theme.SecondaryTag, tview.Escape(account.Name)))
		}
	})
}

// refresh re-renders everything derived from store state.
func (c *CLIApp) refresh() {
	c.renderHeader()
	c.renderFeed()
	c.renderTopWriters()
	c.renderProfile()
	c.renderPremium()
	if c.currentPage == pagePost {
		c.renderPost()
	}
}

func (c *CLIApp) renderHeader() {
	var session string
	if account, ok := c.Users.CurrentAccount(); ok {
		session = fmt.Sprintf("%s%s[-]", c.theme.ValueTag, tview.Escape(account.Name))
		if account.Premium {
			session += " " + c.theme.SuccessTag + "★[-]"
		}
	} else {
		session = c.theme.SecondaryTag + "not signed in[-]"
	}
	c.header.SetText(fmt.Sprintf("%s[::b]inkwell[::-][-] %s  %s%s[-]", c.theme.HeaderTag, session, c.theme.SecondaryTag, navigationHelp))
}

func (c *CLIApp) statsUpdateLoop() {
	ticker := time.NewTicker(constants.DefaultStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.app.QueueUpdateDraw(c.updateStats)
		}
	}
}

func (c *CLIApp) updateStats() {
	data := StatsData{
		AccountCount: len(c.Users.Accounts()),
		SignedIn:     "nobody",
		Uptime:       formatDuration(time.Since(c.startedAt)),
	}
	for post := range c.Posts.ListAll() {
		data.PostCount++
		if post.IsPublic() {
			data.PublicCount++
		} else {
			data.PrivateCount++
		}
		data.LikeCount += post.Likes
	}
	if account, ok := c.Users.CurrentAccount(); ok {
		data.SignedIn = tview.Escape(account.Name)
	}

	stats := c.Telemetry.GetStatsCollector().Export()
	c.statsView.SetText(FormatStatsWithTheme(data, stats, c.theme))
}

func (c *CLIApp) appendLog(message string) {
	c.app.QueueUpdateDraw(func() {
		fmt.Fprint(c.logView, message)
		c.logView.ScrollToEnd()
	})
}

func (c *CLIApp) loadExistingLogs() {
	logs := c.Telemetry.LogCapture.GetAllLogs()

	if len(logs) == 0 {
		c.appendLog(c.theme.SecondaryTag + "Waiting for logs...[-]\n")
		return
	}

	var logText strings.Builder
	for _, entry := range logs {
		logText.WriteString(FormatLogEntryWithTheme(entry, c.theme))
	}

	c.app.QueueUpdateDraw(func() {
		c.logView.SetText(logText.String())
		c.logView.ScrollToEnd()
	})
}
