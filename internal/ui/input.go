package ui

import (
	"github.com/gdamore/tcell/v2"
)

// handleInput handles all keyboard input for the application
func (app *Application) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if app.app.GetFocus() == app.searchInput {
		if event.Key() == tcell.KeyEscape {
			app.focusOnBottom = false
			app.updateFocusStyles()
			app.app.SetFocus(app.requests)
			return nil
		}
		switch event.Key() {
		case tcell.KeyTab, tcell.KeyBacktab:
			return nil
		}
		return event
	}

	switch event.Key() {
	case tcell.KeyTab:
		app.switchTab(1)
		return nil
	case tcell.KeyBacktab:
		app.switchTab(-1)
		return nil
	case tcell.KeyCtrlD:
		if app.focusOnBottom {
			row, _ := app.getCurrentView().GetScrollOffset()
			app.getCurrentView().ScrollTo(row+10, 0)
			return nil
		}
	case tcell.KeyCtrlU:
		if app.focusOnBottom {
			row, _ := app.getCurrentView().GetScrollOffset()
			app.getCurrentView().ScrollTo(max(row-10, 0), 0)
			return nil
		}
	}

	currentIndex := app.requests.GetCurrentItem()
	switch event.Rune() {
	case 'q':
		app.app.Stop()
		return nil
	case 'i':
		app.focusOnBottom = !app.focusOnBottom
		if app.focusOnBottom {
			app.app.SetFocus(app.getCurrentView())
		} else {
			app.app.SetFocus(app.requests)
		}
		app.updateFocusStyles()
		return nil
	case 'j':
		if app.focusOnBottom {
			row, _ := app.getCurrentView().GetScrollOffset()
			app.getCurrentView().ScrollTo(row+1, 0)
		} else if currentIndex < len(app.records)-1 {
			app.requests.SetCurrentItem(currentIndex + 1)
		}
		return nil
	case 'k':
		if app.focusOnBottom {
			row, _ := app.getCurrentView().GetScrollOffset()
			app.getCurrentView().ScrollTo(max(row-1, 0), 0)
		} else if currentIndex > 0 {
			app.requests.SetCurrentItem(currentIndex - 1)
		}
		return nil
	case 'g':
		if app.focusOnBottom {
			app.getCurrentView().ScrollToBeginning()
		} else {
			app.requests.SetCurrentItem(0)
		}
		return nil
	case 'G':
		if app.focusOnBottom {
			app.getCurrentView().ScrollToEnd()
		} else if len(app.records) > 0 {
			app.requests.SetCurrentItem(len(app.records) - 1)
		}
		return nil
	case 'h':
		app.switchTab(-1)
		return nil
	case 'l':
		app.switchTab(1)
		return nil
	case '/':
		app.app.SetFocus(app.searchInput)
		return nil
	case 'a':
		// clearing the input fires the changed func, which reloads
		app.searchInput.SetText("")
		app.showStatusMessage("Filter cleared")
		return nil
	case 'r':
		app.reload(app.ctx)
		app.showStatusMessage("Reloading")
		return nil
	case 'c':
		app.copyCurl()
		return nil
	case 'm':
		app.copyMarkdown()
		return nil
	case 's':
		app.saveFilteredHAR()
		return nil
	case 'e':
		app.editBody()
		return nil
	}
	return event
}
