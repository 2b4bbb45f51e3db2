package ui

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rivo/tview"

	"github.com/cnharrison/harq/internal/format"
	"github.com/cnharrison/harq/internal/logger"
	"github.com/cnharrison/harq/internal/query"
)

const (
	// Animation and timing constants
	animationIntervalMs      = 500
	statusMessageDurationSec = 5
	animationCycleFrames     = 4
	pulseCycleFrames         = 2

	// Layout constants
	searchInputWidthRatio = 2
	searchBoxHeight       = 3
	tabsHeightRatio       = 2
	maxPathDisplayLength  = 50
	pathTruncateOffset    = 3

	// HTTP status code thresholds
	statusCodeSuccess     = 200
	statusCodeRedirect    = 300
	statusCodeClientError = 400
)

// Options configures an Application
type Options struct {
	// Title describes where the traffic comes from
	Title string
	// Events triggers a reload, typically from a file watcher
	Events <-chan string
	// PollInterval reloads periodically; zero disables polling
	PollInterval time.Duration
	Logger       logger.Logger
	// Version is stamped into saved HAR files
	Version string
}

// Application browses combined request/response records in the terminal
type Application struct {
	queries   *query.Engine
	opts      Options
	app       *tview.Application
	formatter *format.ContentFormatter
	log       logger.Logger
	ctx       context.Context

	// query state
	searchText string
	records    []query.CombinedRecord
	loadErr    error
	generation atomic.Uint64

	// UI state
	currentTab     int
	focusOnBottom  bool
	animationFrame int

	// Confirmation/status messages
	confirmationMessage string
	confirmationEnd     time.Time

	// UI components
	requests     *tview.List
	tabs         *tview.Pages
	requestView  *tview.TextView
	responseView *tview.TextView
	bodyView     *tview.TextView
	topBar       *tview.TextView
	tabBar       *tview.TextView
	bottomBar    *tview.TextView
	searchInput  *tview.InputField
	layout       *tview.Flex
}

// NewApplication creates a browser over queries
func NewApplication(queries *query.Engine, opts Options) *Application {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Application{
		queries:   queries,
		opts:      opts,
		app:       tview.NewApplication(),
		formatter: format.NewContentFormatter(format.Markup),
		log:       log,
		ctx:       context.Background(),
	}
}

// Run starts the TUI and blocks until the user quits or ctx is done
func (app *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.ctx = ctx

	app.setupUI()
	app.setupEventHandling()
	app.startAnimationLoop(ctx)
	app.startRefreshLoop(ctx)

	app.updateFocusStyles()
	app.updateTabBar()
	app.updateBottomBar()
	app.reload(ctx)

	go func() {
		<-ctx.Done()
		app.app.Stop()
	}()
	return app.app.SetRoot(app.layout, true).Run()
}

// showStatusMessage shows a temporary status message
func (app *Application) showStatusMessage(msg string) {
	app.confirmationMessage = msg
	app.confirmationEnd = time.Now().Add(statusMessageDurationSec * time.Second)
}
