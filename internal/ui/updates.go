package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func (app *Application) updateRequestsList() {
	currentItem := app.requests.GetCurrentItem()
	app.requests.Clear()

	for _, rec := range app.records {
		app.requests.AddItem(requestRowText(rec), "", 0, nil)
	}

	if len(app.records) == 0 {
		for _, view := range app.tabViews() {
			view.Clear()
		}
		switch {
		case app.loadErr != nil:
			app.requestView.SetText("[red]" + tview.Escape(app.loadErr.Error()) + "[-]")
		case app.searchText != "":
			app.requestView.SetText("[gray]No requests match the current filter[-]")
		default:
			app.requestView.SetText("[gray]No requests captured yet[-]")
		}
		return
	}

	if currentItem < 0 || currentItem >= len(app.records) {
		currentItem = 0
	}
	app.requests.SetCurrentItem(currentItem)
	// SetCurrentItem does not fire the changed func for an unchanged index
	app.updateTabContent(currentItem)
}

// updateTabContent renders the selected record into every tab
func (app *Application) updateTabContent(selectedIndex int) {
	rec, ok := app.selected(selectedIndex)
	if !ok {
		return
	}
	app.requestView.SetText(requestTabText(app.formatter, rec)).ScrollToBeginning()
	app.responseView.SetText(responseTabText(app.formatter, rec)).ScrollToBeginning()
	app.bodyView.SetText(bodyTabText(app.formatter, rec)).ScrollToBeginning()
}

// updateTabBar updates the tab indicator bar
func (app *Application) updateTabBar() {
	var tabText strings.Builder
	for i, name := range tabNames {
		if i == app.currentTab {
			fmt.Fprintf(&tabText, "[black:white] %s [-:-]", name)
		} else {
			fmt.Fprintf(&tabText, " [blue]%s[-] ", name)
		}
		if i < len(tabNames)-1 {
			tabText.WriteString(" │ ")
		}
	}
	app.tabBar.SetText(tabText.String())
}

// updateBottomBar updates the status/bottom bar
func (app *Application) updateBottomBar() {
	var statusText strings.Builder

	if time.Now().Before(app.confirmationEnd) && app.confirmationMessage != "" {
		pulse := []string{"●", "◐", "◑", "◒", "◓", "○"}
		pulseFrame := (app.animationFrame / pulseCycleFrames) % len(pulse)
		fmt.Fprintf(&statusText, " [yellow]%s [-]%s", pulse[pulseFrame], tview.Escape(app.confirmationMessage))
	} else {
		app.confirmationMessage = ""
		if app.loadErr != nil {
			statusText.WriteString("[red]source unavailable[-]")
		} else {
			fmt.Fprintf(&statusText, "%d %s", len(app.records), plural(len(app.records), "request"))
		}
		if app.searchText != "" {
			fmt.Fprintf(&statusText, " | URL contains: [aqua]%s[-]", tview.Escape(app.searchText))
		}
	}

	app.bottomBar.SetText(" " + statusText.String() + " ")
}

// updateFocusStyles marks the focused panel with a blinking arrow
func (app *Application) updateFocusStyles() {
	arrow := app.getBlinkingArrows()
	colors := []tcell.Color{tcell.ColorDarkCyan, tcell.ColorDarkGreen, tcell.ColorDarkBlue}

	if app.focusOnBottom {
		app.requests.SetBorderColor(tcell.ColorDarkGray)
		app.requests.SetTitle(" Requests ")
	} else {
		app.requests.SetBorderColor(tcell.ColorTeal)
		app.requests.SetTitle(fmt.Sprintf(" [aqua]%s[-] Requests ", arrow))
	}

	for i, view := range app.tabViews() {
		if app.focusOnBottom && i == app.currentTab {
			view.SetBorderColor(tcell.ColorWhite)
			view.SetTitle(fmt.Sprintf(" [yellow]%s[-] %s ", arrow, tabNames[i]))
			continue
		}
		view.SetBorderColor(colors[i])
		view.SetTitle(" " + tabNames[i] + " ")
	}
}

// switchTab moves the tab selection by delta, wrapping around
func (app *Application) switchTab(delta int) {
	app.currentTab = (app.currentTab + delta + len(tabNames)) % len(tabNames)
	app.tabs.SwitchToPage(tabNames[app.currentTab])
	app.updateTabBar()
	app.updateFocusStyles()
	if app.focusOnBottom {
		app.app.SetFocus(app.getCurrentView())
	}
}
