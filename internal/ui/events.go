package ui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/cnharrison/harq/internal/filter"
	"github.com/cnharrison/harq/internal/query"
)

// setupEventHandling configures all event handlers
func (app *Application) setupEventHandling() {
	app.searchInput.SetChangedFunc(func(text string) {
		app.searchText = text
		app.reload(app.ctx)
	})

	app.searchInput.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape || key == tcell.KeyEnter {
			app.focusOnBottom = false
			app.updateFocusStyles()
			app.app.SetFocus(app.requests)
		}
	})

	app.searchInput.SetFocusFunc(func() {
		app.searchInput.SetTitle(" URL contains (typing) ")
		app.searchInput.SetBorderColor(tcell.ColorYellow)
	})

	app.searchInput.SetBlurFunc(func() {
		app.searchInput.SetTitle(" URL contains ")
		app.searchInput.SetBorderColor(tcell.ColorGreen)
	})

	app.requests.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		app.updateTabContent(index)
	})

	app.app.SetInputCapture(app.handleInput)
}

// startAnimationLoop redraws focus arrows and expires status messages
func (app *Application) startAnimationLoop(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(animationIntervalMs * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			app.app.QueueUpdateDraw(func() {
				app.animationFrame++
				app.updateFocusStyles()
				app.updateBottomBar()
			})
		}
	}()
}

// startRefreshLoop reloads on watcher events and on the poll interval
func (app *Application) startRefreshLoop(ctx context.Context) {
	if app.opts.Events == nil && app.opts.PollInterval <= 0 {
		return
	}
	go func() {
		var tick <-chan time.Time
		if app.opts.PollInterval > 0 {
			ticker := time.NewTicker(app.opts.PollInterval)
			defer ticker.Stop()
			tick = ticker.C
		}
		events := app.opts.Events
		for {
			select {
			case <-ctx.Done():
				return
			case path, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				app.log.Debug("HAR changed: %s", path)
			case <-tick:
			}
			app.app.QueueUpdate(func() { app.reload(ctx) })
		}
	}()
}

// reload re-runs the combined query for the current search text.
// Results from superseded queries are dropped.
func (app *Application) reload(ctx context.Context) {
	gen := app.generation.Add(1)
	f := filter.Contains(app.searchText)
	go func() {
		records, err := app.queries.RequestAndResponseData(ctx, f)
		app.app.QueueUpdateDraw(func() {
			if app.generation.Load() != gen {
				return
			}
			app.applyRecords(records, err)
		})
	}()
}

// applyRecords swaps in a new result set, keeping the selection when possible
func (app *Application) applyRecords(records []query.CombinedRecord, err error) {
	app.loadErr = err
	if err != nil {
		app.log.Debug("reload failed: %v", err)
		records = nil
	}
	app.records = records
	app.updateRequestsList()
	app.updateBottomBar()
}
