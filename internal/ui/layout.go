package ui

import (
	"github.com/rivo/tview"
)

// createLayout builds the main application layout
func (app *Application) createLayout() {
	searchContainer := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(nil, 0, 1, false).
		AddItem(app.searchInput, 0, searchInputWidthRatio, false).
		AddItem(nil, 0, 1, false)

	requestsPanel := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(searchContainer, searchBoxHeight, 0, false).
		AddItem(app.requests, 0, 1, true)

	app.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(app.topBar, 1, 0, false).
		AddItem(requestsPanel, 0, 1, true).
		AddItem(app.tabBar, 1, 0, false).
		AddItem(app.tabs, 0, tabsHeightRatio, false).
		AddItem(app.bottomBar, 1, 0, false)
}
