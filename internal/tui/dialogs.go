package tui

import (
	"context"
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"
)

// textField is a single-line value edited through a fieldEditor. While
// selected is set the whole value is selected and the next keystroke
// replaces it.
type textField struct {
	value    string
	selected bool
}

func (f *textField) apply(key gocui.Key, ch rune, mod gocui.Modifier) bool {
	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		if f.selected {
			f.value = ""
			f.selected = false
			return true
		}
		runes := []rune(f.value)
		if len(runes) > 0 {
			f.value = string(runes[:len(runes)-1])
		}
		return true
	case gocui.KeyCtrlU:
		f.value = ""
		f.selected = false
		return true
	case gocui.KeySpace:
		f.insert(" ")
		return true
	case gocui.KeyArrowLeft, gocui.KeyArrowRight, gocui.KeyHome, gocui.KeyEnd:
		f.selected = false
		return true
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == gocui.ModNone {
		f.insert(string(ch))
		return true
	}
	return false
}

func (f *textField) insert(text string) {
	if f.selected {
		f.value = ""
		f.selected = false
	}
	f.value += text
}

type fieldEditor struct {
	ui    *UI
	field func(*UI) *textField
}

func (e *fieldEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	if e.ui == nil {
		return false
	}
	field := e.field(e.ui)
	if field == nil {
		return false
	}
	handled := field.apply(key, ch, mod)
	if view != nil {
		e.ui.renderField(view, field)
	}
	return handled
}

type editState struct {
	index int
	id    string
	field textField
}

type confirmState struct {
	index int
	id    string
	text  string
}

func (u *UI) editTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	task, ok := u.store.At(u.selected)
	if !ok {
		return nil
	}
	u.edit = &editState{
		index: u.selected,
		id:    task.ID,
		field: textField{value: task.Text, selected: true},
	}
	return nil
}

func (u *UI) showEdit(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	view, created, err := setView(gui, viewEdit, centeredRect(maxX, maxY, max(40, maxX/2), 2))
	if err != nil {
		return err
	}
	if created {
		view.Wrap = false
	}
	view.Title = "Edit Task"
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.editEditor
	view.FrameColor = gocui.ColorYellow
	u.renderField(view, &u.edit.field)
	_, _ = gui.SetCurrentView(viewEdit)
	return nil
}

// submitEdit keeps the dialog open when the new text is blank.
func (u *UI) submitEdit(gui *gocui.Gui, _ *gocui.View) error {
	if u.edit == nil {
		return nil
	}
	index := u.resolve(u.edit.index, u.edit.id)
	if index < 0 {
		u.edit = nil
		u.closeView(gui, viewEdit)
		u.refresh()
		return nil
	}

	changed, err := u.store.EditAt(context.Background(), index, u.edit.field.value)
	if !changed {
		return nil
	}
	u.edit = nil
	u.closeView(gui, viewEdit)
	u.afterMutation(err)
	return nil
}

func (u *UI) cancelEdit(gui *gocui.Gui, _ *gocui.View) error {
	u.edit = nil
	u.closeView(gui, viewEdit)
	return nil
}

func (u *UI) deleteTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	task, ok := u.store.At(u.selected)
	if !ok {
		return nil
	}
	u.confirm = &confirmState{index: u.selected, id: task.ID, text: task.Text}
	return nil
}

func (u *UI) showConfirm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	view, _, err := setView(gui, viewConfirm, centeredRect(maxX, maxY, max(46, maxX/2), 6))
	if err != nil {
		return err
	}
	view.Title = "Confirm Delete"
	view.Wrap = true
	view.FrameColor = gocui.ColorRed
	view.Clear()
	fmt.Fprintln(view, "Are you sure you want to delete this task?")
	fmt.Fprintln(view)
	fmt.Fprintln(view, "  "+u.confirm.text)
	fmt.Fprintln(view)
	fmt.Fprint(view, "[y] Yes    [n] No")
	_, _ = gui.SetCurrentView(viewConfirm)
	return nil
}

func (u *UI) confirmDelete(gui *gocui.Gui, _ *gocui.View) error {
	if u.confirm == nil {
		return nil
	}
	index := u.resolve(u.confirm.index, u.confirm.id)
	u.confirm = nil
	u.closeView(gui, viewConfirm)

	changed, err := u.store.DeleteAt(context.Background(), index)
	if !changed {
		u.refresh()
		return nil
	}
	u.selected = -1
	u.selectedID = ""
	u.afterMutation(err)
	return nil
}

func (u *UI) cancelDelete(gui *gocui.Gui, _ *gocui.View) error {
	u.confirm = nil
	u.closeView(gui, viewConfirm)
	return nil
}

func (u *UI) showStats(gui *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	stats := u.store.Stats()
	u.stats = &stats
	return nil
}

func (u *UI) showStatsDialog(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	view, _, err := setView(gui, viewStats, centeredRect(maxX, maxY, 36, 8))
	if err != nil {
		return err
	}
	view.Title = "Statistics"
	view.FrameColor = gocui.ColorCyan
	view.Clear()
	fmt.Fprint(view, formatStats(*u.stats))
	_, _ = gui.SetCurrentView(viewStats)
	return nil
}

func (u *UI) closeStats(gui *gocui.Gui, _ *gocui.View) error {
	u.stats = nil
	u.closeView(gui, viewStats)
	return nil
}

func (u *UI) modalActive() bool {
	return u.edit != nil || u.confirm != nil || u.stats != nil
}

// closeView drops a popup and hands focus back to the main views.
func (u *UI) closeView(gui *gocui.Gui, name string) {
	if gui == nil {
		return
	}
	_ = gui.DeleteView(name)
	_, _ = gui.SetCurrentView(u.focus)
}

func (u *UI) renderField(view *gocui.View, field *textField) {
	view.Clear()
	if field.selected && field.value != "" {
		fmt.Fprint(view, u.styles.selection.Render(field.value))
	} else {
		fmt.Fprint(view, field.value)
	}
	view.SetCursor(displayWidth(field.value), 0)
}

func centeredRect(maxX, maxY, width, height int) rect {
	width = min(width, max(maxX-2, 10))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2
	return rect{x0: x0, y0: y0, x1: x0 + width, y1: y0 + height}
}

// setView creates or updates a view and reports whether it was just created.
func setView(gui *gocui.Gui, name string, r rect) (*gocui.View, bool, error) {
	view, err := gui.SetView(name, r.x0, r.y0, r.x1, r.y1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return nil, false, err
	}
	return view, err != nil, nil
}
