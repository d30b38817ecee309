package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"snda-browse/api"
	"snda-browse/auth"
	"snda-browse/catalog"
	"snda-browse/collection"
	"snda-browse/config"
	"snda-browse/likes"
	"snda-browse/live"
	"snda-browse/reader"
	"snda-browse/scheduler"
	"snda-browse/session"
)

func main() {
	// Set up structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	slog.Info("starting snda-browse")

	// Load configuration
	configPath := config.GetConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	slog.Info("config loaded", "path", configPath, "api", cfg.APIBaseURL)

	// Initialize session store
	store, err := session.NewDB(cfg.SessionDBPath)
	if err != nil {
		slog.Error("failed to open session store", "path", cfg.SessionDBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize components
	client := api.NewClient(cfg.APIBaseURL,
		api.WithTimeout(cfg.FetchTimeout()),
	)
	controller := collection.NewController(client,
		collection.WithPageSize(cfg.PageSize),
		collection.WithDebounceWindow(cfg.DebounceWindow()),
	)
	defer controller.Close()

	authenticator := auth.NewSessionAuth(store, cfg.SiteBaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	likeMgr, err := likes.NewManager(ctx, store, authenticator, controller,
		likes.WithCooldown(cfg.LikeCooldown()),
	)
	if err != nil {
		slog.Error("failed to initialize like manager", "error", err)
		os.Exit(1)
	}

	caseReader := reader.NewReader(cfg.SiteBaseURL,
		reader.WithTimeout(cfg.FetchTimeout()),
	)

	// Initialize the daily refresh
	refresher, err := scheduler.NewRefresher(cfg.Timezone, func(ctx context.Context) error {
		return controller.Retry(ctx)
	})
	if err != nil {
		slog.Error("failed to initialize refresher", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}
	if err := refresher.ScheduleDaily(cfg.RefreshTime); err != nil {
		slog.Error("failed to schedule refresh", "error", err)
		os.Exit(1)
	}
	refresher.Start()
	defer refresher.Stop()
	slog.Info("daily refresh scheduled", "time", cfg.RefreshTime, "timezone", cfg.Timezone)

	// Subscribe to the live story channel
	wsURL, err := live.URL(cfg.APIBaseURL, cfg.StoriesWSPath)
	if err != nil {
		slog.Error("failed to build stories websocket URL", "error", err)
		os.Exit(1)
	}
	sub := live.Subscribe(wsURL, func(it catalog.Item) {
		if controller.Prepend(it) {
			fmt.Printf("\n[live] new story: %s (%s)\n> ", it.Title, it.ID)
		}
	})
	defer sub.Stop()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	app := &App{
		cfg:        cfg,
		controller: controller,
		auth:       authenticator,
		likes:      likeMgr,
		reader:     caseReader,
		refresher:  refresher,
	}

	// Initial load
	if err := controller.Search(ctx, catalog.FilterState{}); err != nil {
		slog.Warn("initial fetch failed", "error", err)
		fmt.Println("initial fetch failed; use /refresh to retry")
	}

	app.run(ctx)
	slog.Info("snda-browse stopped")
}

// App holds all application dependencies.
type App struct {
	cfg        *config.Config
	controller *collection.Controller
	auth       *auth.SessionAuth
	likes      *likes.Manager
	reader     *reader.Reader
	refresher  *scheduler.Refresher
}

func (a *App) run(ctx context.Context) {
	fmt.Println("snda-browse: charity case referral browser. Type /help for commands.")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Print("> ")
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !a.handleCommand(ctx, strings.TrimSpace(line)) {
				return
			}
			fmt.Print("> ")
		}
	}
}

// handleCommand runs one command line. It returns false when the loop should
// exit.
func (a *App) handleCommand(ctx context.Context, line string) bool {
	if line == "" {
		return true
	}

	cmd, args := line, ""
	if i := strings.IndexByte(line, ' '); i >= 0 {
		cmd, args = line[:i], strings.TrimSpace(line[i+1:])
	}

	switch cmd {
	case "/quit", "/exit":
		return false
	case "/help":
		a.printHelp()
	case "/search":
		a.handleSearch(args)
	case "/urgency":
		a.handleUrgency(args)
	case "/types":
		a.handleTypes(args)
	case "/list":
		a.printView()
	case "/more":
		a.handleMore(ctx)
	case "/like":
		a.handleLike(ctx, args)
	case "/login":
		a.handleLogin(ctx, args)
	case "/logout":
		a.handleLogout(ctx)
	case "/detail":
		a.handleDetail(ctx, args)
	case "/stories":
		a.handleStories(args)
	case "/refresh":
		a.handleRefresh(ctx)
	default:
		fmt.Printf("unknown command %q; try /help\n", cmd)
	}
	return true
}

func (a *App) printHelp() {
	fmt.Println(`Commands:
  /search <text>     set the search query (debounced)
  /urgency <level>   filter by urgency: all, high, medium, low
  /types <a,b,...>   filter by case types (empty clears)
  /list              show the current view
  /more              load the next page
  /like <id>         toggle a like (queued until login when signed out)
  /login <token>     sign in and replay queued likes
  /logout            sign out
  /detail <id>       fetch the readable text of a case page
  /stories [type]    show community stories, optionally by type
  /refresh           re-run the current fetch now
  /quit              exit`)
}

func (a *App) handleSearch(query string) {
	f := a.controller.Filters()
	f.Query = query
	a.controller.SetFilters(f)
	fmt.Printf("searching %q...\n", query)
}

func (a *App) handleUrgency(arg string) {
	urgency, err := catalog.ParseUrgency(arg)
	if err != nil {
		fmt.Println(err)
		return
	}
	f := a.controller.Filters()
	f.Urgency = urgency
	a.controller.SetFilters(f)
	fmt.Printf("urgency filter: %s\n", urgency)
}

func (a *App) handleTypes(arg string) {
	var caseTypes []string
	for _, t := range strings.Split(arg, ",") {
		if t = strings.TrimSpace(t); t != "" {
			caseTypes = append(caseTypes, t)
		}
	}
	f := a.controller.Filters()
	f.CaseTypes = caseTypes
	a.controller.SetFilters(f)
	if len(caseTypes) == 0 {
		fmt.Println("case type filter cleared")
	} else {
		fmt.Printf("case type filter: %s\n", strings.Join(caseTypes, ", "))
	}
}

func (a *App) handleMore(ctx context.Context) {
	if err := a.controller.LoadMore(ctx); err != nil {
		fmt.Printf("load more failed: %v\n", err)
		return
	}
	a.printView()
}

func (a *App) printView() {
	if err := a.controller.Err(); err != nil {
		fmt.Printf("last fetch failed: %v (use /refresh to retry)\n", err)
	}

	items := a.controller.Items()
	if len(items) == 0 {
		fmt.Println("no referrals match the current filters")
		return
	}

	for i, it := range items {
		liked := " "
		if a.likes.IsLiked(it.ID) {
			liked = "♥"
		}
		line := fmt.Sprintf("%2d. %s %-10s %s", i+1, liked, it.ID, it.Title)
		if it.Urgency != "" && it.Urgency != string(catalog.UrgencyAll) {
			line += fmt.Sprintf(" [%s]", it.Urgency)
		}
		if it.LikeCount > 0 {
			line += fmt.Sprintf(" (%d likes)", it.LikeCount)
		}
		fmt.Println(line)
	}

	if total, ok := a.controller.Total(); ok {
		fmt.Printf("showing %d of %d", len(items), total)
	} else {
		fmt.Printf("showing %d", len(items))
	}
	if a.controller.HasMore() {
		fmt.Print(" (more available: /more)")
	}
	fmt.Println()
}

func (a *App) handleLike(ctx context.Context, arg string) {
	if arg == "" {
		fmt.Println("usage: /like <id>")
		return
	}

	id := catalog.ID(arg)
	err := a.likes.Toggle(ctx, id)
	switch {
	case errors.Is(err, likes.ErrAuthRequired):
		fmt.Printf("like queued; sign in to apply it: %s\n", a.auth.LoginURL("/wall-of-love"))
	case errors.Is(err, likes.ErrCoolingDown):
		fmt.Println("slow down; try again in a moment")
	case err != nil:
		fmt.Printf("like failed: %v\n", err)
	case a.likes.IsLiked(id):
		fmt.Printf("liked %s\n", id)
	default:
		fmt.Printf("unliked %s\n", id)
	}
}

func (a *App) handleLogin(ctx context.Context, token string) {
	if token == "" {
		fmt.Printf("usage: /login <token>\nsign in at %s\n", a.auth.LoginURL("/wall-of-love"))
		return
	}

	if err := a.auth.SignIn(ctx, token); err != nil {
		fmt.Printf("sign in failed: %v\n", err)
		return
	}

	applied, err := a.likes.ProcessPending(ctx)
	if err != nil {
		fmt.Printf("signed in, but replaying queued likes failed: %v\n", err)
		return
	}
	if applied > 0 {
		fmt.Printf("signed in; applied %d queued like(s)\n", applied)
	} else {
		fmt.Println("signed in")
	}
}

func (a *App) handleLogout(ctx context.Context) {
	if err := a.auth.SignOut(ctx); err != nil {
		fmt.Printf("sign out failed: %v\n", err)
		return
	}
	fmt.Println("signed out")
}

func (a *App) handleDetail(ctx context.Context, arg string) {
	if arg == "" {
		fmt.Println("usage: /detail <id>")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	text, err := a.reader.CaseText(ctx, arg)
	if err != nil {
		fmt.Printf("detail fetch failed: %v\n", err)
		return
	}
	fmt.Println(text)
}

func (a *App) handleStories(storyType string) {
	stories := catalog.FilterStoriesByType(catalog.SeedStories, storyType)
	if len(stories) == 0 {
		fmt.Printf("no stories of type %q\n", storyType)
		return
	}
	for _, s := range stories {
		fmt.Printf("- %s (%s) by %s\n", s.Title, s.StoryType, s.AuthorName)
	}
}

func (a *App) handleRefresh(ctx context.Context) {
	if err := a.refresher.RunNow(ctx); err != nil {
		fmt.Printf("refresh failed: %v\n", err)
		return
	}
	fmt.Println("refreshed")
	a.printView()
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
