package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var tabNames = []string{"Request", "Response", "Body"}

// setupUI creates and configures all UI components
func (app *Application) setupUI() {
	// Configure tview for transparent background
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorDefault
	tview.Styles.ContrastBackgroundColor = tcell.ColorDefault

	app.createComponents()
	app.styleComponents()
	app.createLayout()
}

// createComponents initializes all UI components
func (app *Application) createComponents() {
	title := " harq "
	if app.opts.Title != "" {
		title += "- " + tview.Escape(app.opts.Title) + " "
	}
	app.topBar = tview.NewTextView().
		SetText("[::b][yellow]" + title + "[-:-:-] [gray]/ search  c curl  m markdown  s save  e edit  r reload  q quit[-]").
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	app.searchInput = tview.NewInputField()
	app.searchInput.SetLabel("")
	app.searchInput.SetFieldWidth(0)
	app.searchInput.SetBorder(true)
	app.searchInput.SetTitle(" URL contains ")
	app.searchInput.SetTitleAlign(tview.AlignCenter)
	app.searchInput.SetBorderColor(tcell.ColorGreen)

	app.requests = tview.NewList().ShowSecondaryText(false)

	app.requestView = tview.NewTextView().SetDynamicColors(true).SetWrap(true).SetWordWrap(true)
	app.responseView = tview.NewTextView().SetDynamicColors(true).SetWrap(true).SetWordWrap(true)
	app.bodyView = tview.NewTextView().SetDynamicColors(true).SetWrap(true).SetWordWrap(true)

	app.tabs = tview.NewPages()
	app.tabs.AddPage(tabNames[0], app.requestView, true, true)
	app.tabs.AddPage(tabNames[1], app.responseView, true, false)
	app.tabs.AddPage(tabNames[2], app.bodyView, true, false)

	app.tabBar = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter)
	app.bottomBar = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignLeft)
}

// styleComponents applies styling to all components
func (app *Application) styleComponents() {
	app.requests.SetBorder(true).SetTitle(" Requests ").SetTitleAlign(tview.AlignCenter).SetBorderColor(tcell.ColorTeal)
	app.requests.SetSelectedBackgroundColor(tcell.ColorDarkBlue)
	app.requests.SetSelectedTextColor(tcell.ColorYellow)
	app.requests.SetMainTextColor(tcell.ColorWhite)

	for _, view := range app.tabViews() {
		view.SetBorder(true).SetTitleAlign(tview.AlignCenter)
	}
}

// tabViews returns the tab contents in tabNames order
func (app *Application) tabViews() []*tview.TextView {
	return []*tview.TextView{app.requestView, app.responseView, app.bodyView}
}
