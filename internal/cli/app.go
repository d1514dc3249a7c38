package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "timetracker/internal/errors"
	"timetracker/internal/model"
	"timetracker/internal/repository"
	"timetracker/internal/service"
	"timetracker/internal/session"
)

// App is the interactive console front end. It owns no business rules: it
// parses input, calls the services, and renders results and errors. Reads
// and writes go through injected streams so the loop is testable.
type App struct {
	in  *bufio.Scanner
	out io.Writer

	auth     *service.AuthService
	users    *repository.UserRepository
	tasks    *service.TaskService
	timer    *service.TimerService
	reports  *service.ReportService
	exports  *service.ExportService
	notifier *service.NotificationService
	sessions *session.Store
	logger   *slog.Logger

	user *model.User
}

type Deps struct {
	Auth     *service.AuthService
	Users    *repository.UserRepository
	Tasks    *service.TaskService
	Timer    *service.TimerService
	Reports  *service.ReportService
	Exports  *service.ExportService
	Notifier *service.NotificationService
	Sessions *session.Store
	Logger   *slog.Logger
}

// lockedWriter serializes writes to the shared output stream. The
// notification watcher runs in its own goroutine and prints through the
// same writer as the menu loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func New(in io.Reader, out io.Writer, deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		in:       bufio.NewScanner(in),
		out:      &lockedWriter{w: out},
		auth:     deps.Auth,
		users:    deps.Users,
		tasks:    deps.Tasks,
		timer:    deps.Timer,
		reports:  deps.Reports,
		exports:  deps.Exports,
		notifier: deps.Notifier,
		sessions: deps.Sessions,
		logger:   logger,
	}
}

// Run drives the menu loop until the user exits, input ends, or the context
// is cancelled. Domain errors are rendered and the loop continues; only I/O
// failures terminate it.
func (a *App) Run(ctx context.Context) error {
	a.restoreSession(ctx)
	fmt.Fprintln(a.out, "Welcome to Time Tracker")

	for ctx.Err() == nil {
		var done bool
		if a.user == nil {
			done = a.authMenu(ctx)
		} else {
			done = a.mainMenu(ctx)
		}
		if done {
			break
		}
	}
	return nil
}

// restoreSession resumes the previous login from the session file. Any
// failure (missing file, expired token, deleted user) falls back to the
// login menu silently.
func (a *App) restoreSession(ctx context.Context) {
	if a.sessions == nil {
		return
	}
	token, err := a.sessions.Load()
	if err != nil || token == "" {
		return
	}
	userID, apiErr := a.auth.ParseToken(token)
	if apiErr != nil {
		_ = a.sessions.Clear()
		return
	}
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		_ = a.sessions.Clear()
		return
	}
	a.user = user
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
}

func (a *App) authMenu(ctx context.Context) bool {
	fmt.Fprintln(a.out, "\n1) Register  2) Login  0) Exit")
	choice, ok := a.prompt("> ")
	if !ok {
		return true
	}

	switch choice {
	case "1":
		a.register(ctx)
	case "2":
		a.login(ctx)
	case "0":
		return true
	default:
		fmt.Fprintln(a.out, "unknown option")
	}
	return false
}

func (a *App) mainMenu(ctx context.Context) bool {
	fmt.Fprintln(a.out, "\n1) List tasks   2) Create task  3) Update task  4) Delete task")
	fmt.Fprintln(a.out, "5) Start timer  6) Pause timer  7) Resume timer 8) Stop timer")
	fmt.Fprintln(a.out, "9) Report       10) Export CSV  11) Categories  12) Logout  0) Exit")
	choice, ok := a.prompt("> ")
	if !ok {
		return true
	}

	switch choice {
	case "1":
		a.listTasks(ctx)
	case "2":
		a.createTask(ctx)
	case "3":
		a.updateTask(ctx)
	case "4":
		a.deleteTask(ctx)
	case "5":
		a.timerEvent(ctx, model.EventStart)
	case "6":
		a.timerEvent(ctx, model.EventPause)
	case "7":
		a.timerEvent(ctx, model.EventResume)
	case "8":
		a.timerEvent(ctx, model.EventStop)
	case "9":
		a.report(ctx)
	case "10":
		a.exportCSV(ctx)
	case "11":
		a.listCategories(ctx)
	case "12":
		a.logout()
	case "0":
		return true
	default:
		fmt.Fprintln(a.out, "unknown option")
	}
	return false
}

func (a *App) register(ctx context.Context) {
	email, ok := a.prompt("email: ")
	if !ok {
		return
	}
	password, ok := a.prompt("password: ")
	if !ok {
		return
	}

	result, apiErr := a.auth.Register(ctx, email, password)
	if apiErr != nil {
		a.renderError(apiErr)
		return
	}
	a.finishLogin(result)
	fmt.Fprintf(a.out, "registered %s\n", result.User.Email)
}

func (a *App) login(ctx context.Context) {
	email, ok := a.prompt("email: ")
	if !ok {
		return
	}
	password, ok := a.prompt("password: ")
	if !ok {
		return
	}

	result, apiErr := a.auth.Login(ctx, email, password)
	if apiErr != nil {
		a.renderError(apiErr)
		return
	}
	a.finishLogin(result)
	fmt.Fprintf(a.out, "logged in as %s\n", result.User.Email)
}

func (a *App) finishLogin(result *service.AuthResult) {
	user := result.User
	a.user = &user
	if a.sessions != nil {
		if err := a.sessions.Save(result.Token); err != nil {
			a.logger.Warn("failed to save session", slog.String("error", err.Error()))
		}
	}
}

func (a *App) logout() {
	if a.sessions != nil {
		_ = a.sessions.Clear()
	}
	a.user = nil
	fmt.Fprintln(a.out, "logged out")
}

func (a *App) listTasks(ctx context.Context) {
	tasks, apiErr := a.tasks.List(ctx, a.user.ID)
	if apiErr != nil {
		a.renderError(apiErr)
		return
	}
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "no tasks yet")
		return
	}
	for _, task := range tasks {
		fmt.Fprintf(a.out, "[%d] %s (%s) %s %s\n",
			task.ID, task.TaskName, task.CategoryName, formatSeconds(task.Duration), task.TaskStatus)
	}
}

func (a *App) createTask(ctx context.Context) {
	name, ok := a.prompt("task name: ")
	if !ok {
		return
	}
	category, ok := a.prompt("category: ")
	if !ok {
		return
	}
	estimate, ok := a.promptFloat("estimated seconds (0 for none): ")
	if !ok {
		return
	}

	task, apiErr := a.tasks.Create(ctx, a.user.ID, category, name, estimate)
	if apiErr != nil {
		a.renderError(apiErr)
		return
	}
	fmt.Fprintf(a.out, "created task %d\n", task.ID)
}

func (a *App) updateTask(ctx context.Context) {
	taskID, ok := a.promptInt64("task id: ")
	if !ok {
		return
	}
	name, ok := a.prompt("task name: ")
	if !ok {
		return
	}
	category, ok := a.prompt("category: ")
	if !ok {
		return
	}
	duration, ok := a.promptFloat("duration seconds: ")
	if !ok {
		return
	}

	if apiErr := a.tasks.Update(ctx, a.user.ID, taskID, category, name, duration); apiErr != nil {
		a.renderError(apiErr)
		return
	}
	fmt.Fprintln(a.out, "task updated")
}

func (a *App) deleteTask(ctx context.Context) {
	taskID, ok := a.promptInt64("task id: ")
	if !ok {
		return
	}
	if apiErr := a.tasks.Delete(ctx, a.user.ID, taskID); apiErr != nil {
		a.renderError(apiErr)
		return
	}
	fmt.Fprintln(a.out, "task and its timing log deleted")
}

func (a *App) timerEvent(ctx context.Context, eventType string) {
	taskID, ok := a.promptInt64("task id: ")
	if !ok {
		return
	}

	task, apiErr := a.timer.ApplyEvent(ctx, a.user.ID, taskID, eventType, time.Now().UTC())
	if apiErr != nil {
		a.renderError(apiErr)
		return
	}

	switch eventType {
	case model.EventStop:
		fmt.Fprintf(a.out, "timer stopped, total %s\n", formatSeconds(task.Duration))
	default:
		fmt.Fprintf(a.out, "timer %s: task %d is %s\n", eventType, task.ID, task.TaskStatus)
	}

	if eventType == model.EventStart && a.notifier != nil {
		go a.notifier.Watch(ctx, a.user.ID, taskID, func(t *model.Task, elapsed float64) {
			fmt.Fprintf(a.out, "\nNotification: task %q reached its estimated duration (%s elapsed)\n",
				t.TaskName, formatSeconds(elapsed))
		})
	}
}

func (a *App) report(ctx context.Context) {
	days, ok := a.promptInt64("days to cover (0 for overall): ")
	if !ok {
		return
	}

	var report *service.Report
	var apiErr *apperrors.AppError
	if days > 0 {
		report, apiErr = a.reports.LastDays(ctx, a.user.ID, int(days))
	} else {
		report, apiErr = a.reports.Overall(ctx, a.user.ID)
	}
	if apiErr != nil {
		a.renderError(apiErr)
		return
	}

	if len(report.Tasks) == 0 {
		fmt.Fprintln(a.out, "nothing tracked in this range")
		return
	}
	for _, summary := range report.Tasks {
		fmt.Fprintf(a.out, "[%d] %s (%s) tracked %s, stored %s, %s\n",
			summary.TaskID, summary.TaskName, summary.CategoryName,
			formatSeconds(summary.DerivedSeconds), formatSeconds(summary.StoredSeconds), summary.Status)
	}
	for category, seconds := range report.CategoryTotals {
		fmt.Fprintf(a.out, "category %s: %s\n", category, formatSeconds(seconds))
	}
	fmt.Fprintf(a.out, "total tracked: %s\n", formatSeconds(report.TotalSeconds))
}

func (a *App) exportCSV(ctx context.Context) {
	days, ok := a.promptInt64("days to cover (0 for overall): ")
	if !ok {
		return
	}
	path, apiErr := a.exports.ExportCSV(ctx, a.user.ID, int(days))
	if apiErr != nil {
		a.renderError(apiErr)
		return
	}
	fmt.Fprintf(a.out, "exported to %s\n", path)
}

func (a *App) listCategories(ctx context.Context) {
	categories, apiErr := a.tasks.Categories(ctx)
	if apiErr != nil {
		a.renderError(apiErr)
		return
	}
	if len(categories) == 0 {
		fmt.Fprintln(a.out, "no categories yet")
		return
	}
	for _, category := range categories {
		fmt.Fprintln(a.out, category.Name)
	}
}

func (a *App) renderError(apiErr *apperrors.AppError) {
	fmt.Fprintf(a.out, "error: %s\n", apiErr.Message)
}

func (a *App) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *App) promptInt64(label string) (int64, bool) {
	raw, ok := a.prompt(label)
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Fprintln(a.out, "error: expected a whole number")
		return 0, false
	}
	return value, true
}

func (a *App) promptFloat(label string) (float64, bool) {
	raw, ok := a.prompt(label)
	if !ok {
		return 0, false
	}
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fmt.Fprintln(a.out, "error: expected a number")
		return 0, false
	}
	return value, true
}

func formatSeconds(seconds float64) string {
	total := int64(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
}
