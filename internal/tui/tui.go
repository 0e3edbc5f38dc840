package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Joseda-hg/todolist/internal/config"
	"github.com/Joseda-hg/todolist/internal/model"
	"github.com/Joseda-hg/todolist/internal/store"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/jesseduffield/gocui"
	"github.com/muesli/termenv"
)

const (
	viewHeader  = "header"
	viewInput   = "input"
	viewAdd     = "add"
	viewTasks   = "tasks"
	viewFooter  = "footer"
	viewEdit    = "edit"
	viewConfirm = "confirm"
	viewStats   = "stats"

	windowTitle       = "Advanced Todo List"
	headerTitle       = "📝 TODO List"
	addButtonWidth    = 14
	doubleClickWindow = 500 * time.Millisecond
)

type Options struct {
	Logger *log.Logger
	Colors config.Colors
}

type UI struct {
	store  *store.Store
	logger *log.Logger
	styles rowStyles
	now    func() time.Time

	rows       []row
	selected   int
	selectedID string
	focus      string

	input       textField
	inputEditor *fieldEditor
	edit        *editState
	editEditor  *fieldEditor
	confirm     *confirmState
	stats       *model.Stats

	lastClick clickState
	status    string
}

type clickState struct {
	row int
	at  time.Time
}

type action struct {
	view    string
	label   string
	color   gocui.Attribute
	handler func(*gocui.Gui, *gocui.View) error
}

func Run(st *store.Store, opts Options) error {
	termenv.NewOutput(os.Stdout).SetWindowTitle(windowTitle)

	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.Output256})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(st, opts)
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

func newUI(st *store.Store, opts Options) *UI {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	colors := opts.Colors
	if colors.Completed == "" || colors.Pending == "" {
		colors = config.DefaultColors()
	}

	ui := &UI{
		store:    st,
		logger:   logger,
		styles:   newRowStyles(colors),
		now:      time.Now,
		selected: -1,
		focus:    viewInput,
	}
	ui.inputEditor = &fieldEditor{ui: ui, field: func(u *UI) *textField { return &u.input }}
	ui.editEditor = &fieldEditor{ui: ui, field: func(u *UI) *textField {
		if u.edit == nil {
			return nil
		}
		return &u.edit.field
	}}
	ui.refresh()
	return ui
}

func (u *UI) actions() []action {
	return []action{
		{view: "btnComplete", label: "x Complete", color: gocui.ColorGreen, handler: u.completeTask},
		{view: "btnEdit", label: "e Edit", color: gocui.ColorYellow, handler: u.editTask},
		{view: "btnDelete", label: "d Delete", color: gocui.ColorRed, handler: u.deleteTask},
		{view: "btnStats", label: "s Stats", color: gocui.ColorCyan, handler: u.showStats},
		{view: "btnSave", label: "w Save", color: gocui.ColorWhite, handler: u.saveTasks},
	}
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	type binding struct {
		view    string
		key     interface{}
		handler func(*gocui.Gui, *gocui.View) error
	}
	bindings := []binding{
		{"", gocui.KeyCtrlC, u.quit},
		{"", gocui.KeyCtrlS, u.saveTasks},

		{viewInput, gocui.KeyEnter, u.submitInput},
		{viewInput, gocui.KeyEsc, u.focusTasks},
		{viewInput, gocui.KeyTab, u.switchFocus},

		{viewTasks, gocui.KeyArrowDown, u.moveDown},
		{viewTasks, 'j', u.moveDown},
		{viewTasks, gocui.KeyArrowUp, u.moveUp},
		{viewTasks, 'k', u.moveUp},
		{viewTasks, gocui.KeyEnter, u.toggleTask},
		{viewTasks, gocui.KeySpace, u.toggleTask},
		{viewTasks, 'x', u.completeTask},
		{viewTasks, 'e', u.editTask},
		{viewTasks, 'd', u.deleteTask},
		{viewTasks, gocui.KeyDelete, u.deleteTask},
		{viewTasks, 's', u.showStats},
		{viewTasks, 'w', u.saveTasks},
		{viewTasks, 'a', u.focusInput},
		{viewTasks, 'i', u.focusInput},
		{viewTasks, gocui.KeyTab, u.switchFocus},
		{viewTasks, 'q', u.quit},
		{viewTasks, gocui.MouseWheelUp, u.scrollUp},
		{viewTasks, gocui.MouseWheelDown, u.scrollDown},

		{viewEdit, gocui.KeyEnter, u.submitEdit},
		{viewEdit, gocui.KeyEsc, u.cancelEdit},

		{viewConfirm, 'y', u.confirmDelete},
		{viewConfirm, 'Y', u.confirmDelete},
		{viewConfirm, gocui.KeyEnter, u.confirmDelete},
		{viewConfirm, 'n', u.cancelDelete},
		{viewConfirm, 'N', u.cancelDelete},
		{viewConfirm, gocui.KeyEsc, u.cancelDelete},

		{viewStats, gocui.KeyEnter, u.closeStats},
		{viewStats, gocui.KeyEsc, u.closeStats},
		{viewStats, 'q', u.closeStats},
	}
	for _, b := range bindings {
		if err := gui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}

	clicks := map[string]func(*gocui.Gui, *gocui.View) error{
		viewInput: u.focusInput,
		viewAdd:   u.submitInput,
	}
	for _, a := range u.actions() {
		clicks[a.view] = a.handler
	}
	for name, handler := range clicks {
		handler := handler
		if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: name, Key: gocui.MouseLeft, Handler: func(gocui.ViewMouseBindingOpts) error {
			return handler(gui, nil)
		}}); err != nil {
			return err
		}
	}

	return gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewTasks, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onListClick(gui, opts)
	}})
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}
	actions := u.actions()
	l := computeLayout(maxX, maxY, len(actions))

	headerView, _, err := setView(gui, viewHeader, l.header.frameless())
	if err != nil {
		return err
	}
	headerView.Frame = false
	headerView.FgColor = gocui.ColorDefault | gocui.AttrBold
	headerView.Clear()
	fmt.Fprint(headerView, " "+headerTitle)

	inputView, _, err := setView(gui, viewInput, l.input)
	if err != nil {
		return err
	}
	inputView.Title = "New task"
	inputView.Editable = true
	inputView.KeybindOnEdit = true
	inputView.Editor = u.inputEditor
	applyViewStyle(inputView, u.focus == viewInput, false)
	u.renderField(inputView, &u.input)

	addView, _, err := setView(gui, viewAdd, l.add)
	if err != nil {
		return err
	}
	addView.FrameColor = gocui.ColorGreen
	addView.FgColor = gocui.ColorGreen | gocui.AttrBold
	addView.Clear()
	fmt.Fprint(addView, " Add Task")

	tasksView, _, err := setView(gui, viewTasks, l.tasks)
	if err != nil {
		return err
	}
	tasksView.Title = "Tasks"
	applyViewStyle(tasksView, u.focus == viewTasks, u.selected >= 0)
	u.renderTasks(tasksView)

	for i, a := range actions {
		buttonView, _, err := setView(gui, a.view, l.buttons[i])
		if err != nil {
			return err
		}
		buttonView.FrameColor = a.color
		buttonView.FgColor = a.color | gocui.AttrBold
		buttonView.Clear()
		fmt.Fprint(buttonView, " "+a.label)
	}

	footerView, _, err := setView(gui, viewFooter, l.footer.frameless())
	if err != nil {
		return err
	}
	footerView.Frame = false
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	footerView.Clear()
	fmt.Fprintln(footerView, helpLine())
	fmt.Fprint(footerView, u.footerStatus())

	if err := u.layoutPopups(gui); err != nil {
		return err
	}

	if !u.modalActive() {
		if current := gui.CurrentView(); current == nil || current.Name() != u.focus {
			_, _ = gui.SetCurrentView(u.focus)
		}
	}
	gui.Cursor = u.edit != nil || (u.focus == viewInput && !u.modalActive())

	return nil
}

func (u *UI) layoutPopups(gui *gocui.Gui) error {
	if u.edit != nil {
		if err := u.showEdit(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewEdit)
	}

	if u.confirm != nil {
		if err := u.showConfirm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewConfirm)
	}

	if u.stats != nil {
		if err := u.showStatsDialog(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewStats)
	}
	return nil
}

type rect struct {
	x0, y0, x1, y1 int
}

// frameless grows r by one cell on each side: a view without a frame still
// reserves its border cells.
func (r rect) frameless() rect {
	return rect{x0: r.x0 - 1, y0: r.y0 - 1, x1: r.x1 + 1, y1: r.y1 + 1}
}

type layout struct {
	header  rect
	input   rect
	add     rect
	tasks   rect
	buttons []rect
	footer  rect
}

func computeLayout(width, height, buttons int) layout {
	w := max(width, 40)
	h := max(height, 16)
	buttons = max(buttons, 1)

	barY0 := h - 5
	barY1 := h - 3

	l := layout{
		header: rect{x0: 0, y0: 0, x1: w - 1, y1: 0},
		input:  rect{x0: 0, y0: 1, x1: w - addButtonWidth - 2, y1: 3},
		add:    rect{x0: w - addButtonWidth - 1, y0: 1, x1: w - 1, y1: 3},
		tasks:  rect{x0: 0, y0: 4, x1: w - 1, y1: barY0 - 1},
		footer: rect{x0: 0, y0: h - 2, x1: w - 1, y1: h - 1},
	}

	span := w / buttons
	for i := 0; i < buttons; i++ {
		x0 := i * span
		x1 := x0 + span - 1
		if i == buttons-1 {
			x1 = w - 1
		}
		l.buttons = append(l.buttons, rect{x0: x0, y0: barY0, x1: x1, y1: barY1})
	}
	return l
}

// refresh rebuilds the visible rows from the store. The selection follows
// the selected task's ID and is dropped when that task is gone.
func (u *UI) refresh() {
	tasks := u.store.Tasks()
	u.rows = make([]row, 0, len(tasks))
	for _, task := range tasks {
		u.rows = append(u.rows, newRow(task))
	}
	u.selected = u.store.IndexOf(u.selectedID)
	if u.selected < 0 {
		u.selectedID = ""
	}
}

func (u *UI) afterMutation(err error) {
	u.refresh()
	if err != nil {
		u.status = "Save failed: " + err.Error()
		return
	}
	u.status = ""
}

func (u *UI) selectRow(index int) {
	if index < 0 || index >= len(u.rows) {
		u.selected = -1
		u.selectedID = ""
		return
	}
	u.selected = index
	u.selectedID = u.rows[index].ID
}

// resolve maps a remembered index back to the task it referred to, in case
// the list changed underneath it.
func (u *UI) resolve(index int, id string) int {
	if task, ok := u.store.At(index); ok && task.ID == id {
		return index
	}
	return u.store.IndexOf(id)
}

func (u *UI) renderTasks(view *gocui.View) {
	view.Clear()
	x0, y0, x1, y1 := view.Dimensions()
	width := x1 - x0 - 1
	height := y1 - y0 - 1
	for _, r := range u.rows {
		fmt.Fprintln(view, u.styles.render(r, width))
	}
	if u.selected < 0 {
		return
	}

	_, oy := view.Origin()
	if u.selected < oy {
		oy = u.selected
	} else if height > 0 && u.selected >= oy+height {
		oy = u.selected - height + 1
	}
	view.SetOrigin(0, oy)
	view.SetCursor(0, u.selected-oy)
}

func (u *UI) footerStatus() string {
	parts := []string{fmt.Sprintf("%d tasks", len(u.rows))}
	if saved := u.store.SavedAt(); !saved.IsZero() {
		parts = append(parts, "saved "+humanize.RelTime(saved, u.now(), "ago", "from now"))
	}
	if u.status != "" {
		parts = append(parts, u.status)
	}
	return strings.Join(parts, " · ")
}

func (u *UI) submitInput(gui *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	changed, err := u.store.Add(context.Background(), u.input.value)
	if !changed {
		return nil
	}
	u.input = textField{}
	u.afterMutation(err)
	return nil
}

func (u *UI) completeTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() || u.selected < 0 {
		return nil
	}
	changed, err := u.store.CompleteAt(context.Background(), u.selected)
	if changed {
		u.afterMutation(err)
	}
	return nil
}

func (u *UI) toggleTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() || u.selected < 0 {
		return nil
	}
	changed, err := u.store.ToggleAt(context.Background(), u.selected)
	if changed {
		u.afterMutation(err)
	}
	return nil
}

func (u *UI) saveTasks(gui *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() {
		return nil
	}
	if err := u.store.Save(context.Background()); err != nil {
		u.status = "Save failed: " + err.Error()
		return nil
	}
	u.status = "Saved"
	return nil
}

func (u *UI) onListClick(gui *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if u.modalActive() {
		return nil
	}
	view, err := gui.View(viewTasks)
	if err != nil {
		return nil
	}
	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	if err := u.setFocus(gui, viewTasks); err != nil {
		return err
	}
	return u.clickRow(gui, opts.Y-y0-1+oy)
}

// clickRow selects the clicked row; a second click on the same row within
// doubleClickWindow toggles it.
func (u *UI) clickRow(gui *gocui.Gui, index int) error {
	if index < 0 || index >= len(u.rows) {
		return nil
	}
	now := u.now()
	double := u.lastClick.row == index && !u.lastClick.at.IsZero() && now.Sub(u.lastClick.at) <= doubleClickWindow
	u.selectRow(index)
	if double {
		u.lastClick = clickState{}
		return u.toggleTask(gui, nil)
	}
	u.lastClick = clickState{row: index, at: now}
	return nil
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() || len(u.rows) == 0 {
		return nil
	}
	if u.selected < len(u.rows)-1 {
		u.selectRow(u.selected + 1)
	}
	return nil
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	if u.modalActive() || len(u.rows) == 0 {
		return nil
	}
	switch {
	case u.selected < 0:
		u.selectRow(len(u.rows) - 1)
	case u.selected > 0:
		u.selectRow(u.selected - 1)
	}
	return nil
}

func (u *UI) scrollUp(gui *gocui.Gui, view *gocui.View) error {
	if u.modalActive() || view == nil {
		return nil
	}
	view.ScrollUp(1)
	return nil
}

func (u *UI) scrollDown(gui *gocui.Gui, view *gocui.View) error {
	if u.modalActive() || view == nil {
		return nil
	}
	view.ScrollDown(1)
	return nil
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.focus == viewInput {
		return u.setFocus(gui, viewTasks)
	}
	return u.setFocus(gui, viewInput)
}

func (u *UI) focusInput(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewInput)
}

func (u *UI) focusTasks(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewTasks)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	if u.modalActive() {
		return nil
	}
	u.focus = name
	if name == viewTasks && u.selected < 0 && len(u.rows) > 0 {
		u.selectRow(0)
	}
	if gui != nil {
		_, _ = gui.SetCurrentView(name)
	}
	return nil
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}

func displayWidth(text string) int {
	return lipgloss.Width(text)
}
