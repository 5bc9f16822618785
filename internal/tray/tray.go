// Package tray provides a system tray interface showing the counting session.
package tray

import (
	"fmt"
	"sync"

	"github.com/ayusman/formcheck/internal/session"
	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onStop func()
	onOpen func()
	onQuit func()
	status string
	active bool
	mu     sync.RWMutex

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuStop   *systray.MenuItem
}

// New creates a new Tray instance showing no session.
func New() *Tray {
	return &Tray{
		status: idleTitle,
	}
}

// OnStop sets the callback invoked when the stop menu item is clicked.
func (t *Tray) OnStop(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStop = fn
}

// OnOpen sets the callback invoked when the dashboard menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Formcheck")
	systray.SetTooltip("Formcheck repetition counter")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem(t.status, "Current session")
	t.menuStatus.Disable()
	systray.AddSeparator()

	t.menuStop = systray.AddMenuItem("Stop counting", "Stop the active session")
	if !t.active {
		t.menuStop.Disable()
	}
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Formcheck")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuStop.ClickedCh:
				t.handle(func() func() { return t.onStop })
			case <-menuOpen.ClickedCh:
				t.handle(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.handle(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handle calls the selected callback outside the lock.
func (t *Tray) handle(pick func() func()) {
	t.mu.RLock()
	callback := pick()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// CountChanged implements session.Listener.
func (t *Tray) CountChanged(e session.CountChangedEvent) {
	t.setStatus(countTitle(e.Task, e.Count, e.MaxCount), true)
}

// SessionEnded implements session.Listener.
func (t *Tray) SessionEnded(e session.EndedEvent) {
	t.setStatus(endedTitle(e), false)
}

// SessionStarted shows a freshly started session.
func (t *Tray) SessionStarted(st session.Status) {
	t.setStatus(countTitle(st.Task, st.Count, st.MaxCount), true)
}

// Status returns the current status line and whether a session is active.
func (t *Tray) Status() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status, t.active
}

func (t *Tray) setStatus(title string, active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = title
	t.active = active

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(title)
	}
	if t.menuStop != nil {
		if active {
			t.menuStop.Enable()
		} else {
			t.menuStop.Disable()
		}
	}
}

const idleTitle = "Idle"

func countTitle(task string, count, max int) string {
	return fmt.Sprintf("%s: %d/%d", task, count, max)
}

func endedTitle(e session.EndedEvent) string {
	switch e.Reason {
	case session.EndCompleted:
		return fmt.Sprintf("%s: done (%d/%d)", e.Task, e.Count, e.MaxCount)
	case session.EndFailed:
		return fmt.Sprintf("%s: failed at %d", e.Task, e.Count)
	default:
		return idleTitle
	}
}
