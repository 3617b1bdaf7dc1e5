package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/octabyte/taskdesk/dashboard"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/fakeapi"
	"github.com/octabyte/taskdesk/flows"
	"github.com/octabyte/taskdesk/models"
	"github.com/octabyte/taskdesk/router"
	"github.com/octabyte/taskdesk/session"
	"github.com/octabyte/taskdesk/tokenstore"
	"github.com/octabyte/taskdesk/utils"
	"github.com/octabyte/taskdesk/utils/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var errNotSignedIn = errors.New("not signed in, run `taskdesk login` or `taskdesk otp-login` first")

// protected runs fn as the screen of a guarded route, so the session is
// verified (and refreshed when needed) before fn sees it.
func protected(ctx context.Context, a *app, route enums.Route, fn func(ctx context.Context) error) error {
	a.router.Handle(route, func(ctx context.Context, _ router.Location) error {
		return fn(ctx)
	})
	err := a.router.Navigate(ctx, route)
	if errors.Is(err, router.ErrNotAuthenticated) {
		return errNotSignedIn
	}
	return err
}

func runWhoami(ctx context.Context, a *app, _ []string) error {
	if !session.IsAuthenticated(ctx, a.store) {
		return errNotSignedIn
	}
	valid := session.NewVerifier(a.client, a.store).Verify(ctx)
	if !valid {
		return errNotSignedIn
	}

	sess, err := a.store.Session(ctx)
	if err != nil {
		return err
	}
	if sess.User != nil {
		fmt.Println(renderUser(*sess.User))
	}
	if exp, err := utils.TokenExpiry(sess.Tokens.Access); err == nil {
		fmt.Println(mutedStyle.Render("access token expires " + exp.Local().Format(time.RFC1123)))
	}
	fmt.Println(mutedStyle.Render("backend " + a.client.BaseURL()))
	if sess.TabScoped {
		fmt.Println(mutedStyle.Render("session is not remembered"))
	}
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	if err := session.Logout(ctx, a.client, a.store, a.router); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Signed out"))
	return nil
}

func parseFilter(s string) (enums.TaskFilter, error) {
	switch f := enums.TaskFilter(s); f {
	case enums.TaskFilterAll, enums.TaskFilterPending, enums.TaskFilterInProgress,
		enums.TaskFilterCompleted, enums.TaskFilterHighPriority:
		return f, nil
	}
	if _, err := utils.ParseDay(s); err == nil {
		return enums.DateFilter(s), nil
	}
	return "", errors.Errorf("unknown filter %q", s)
}

func runTasks(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("tasks", flag.ContinueOnError)
	filter := fs.String("filter", string(enums.TaskFilterAll), "all, pending, in-progress, completed, high-priority or a YYYY-MM-DD due date")
	sortBy := fs.String("sort", string(enums.TaskSortDueDate), "dueDate, priority, title or status")
	month := fs.String("month", "", "calendar month as YYYY-MM (default current month)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := parseFilter(*filter)
	if err != nil {
		return err
	}
	today := a.clock.Now()
	year, mon := today.Year(), today.Month()
	if *month != "" {
		t, err := time.Parse("2006-01", *month)
		if err != nil {
			return errors.Wrap(err, "parse -month")
		}
		year, mon = t.Year(), t.Month()
	}

	return protected(ctx, a, enums.RouteDashboard, func(ctx context.Context) error {
		svc := a.dashboard()
		svc.SetFilter(f)
		svc.SetSortBy(enums.TaskSort(*sortBy))
		if err := svc.Load(ctx); err != nil {
			st := svc.Store().State()
			return errors.New(firstNonEmpty(st.Tasks.Error, st.Categories.Error, err.Error()))
		}

		st := svc.Store().State()
		if user := cachedUser(ctx, a); user != nil {
			fmt.Println(renderUser(*user))
		}
		fmt.Println(renderStats(st.Tasks.Stats))
		fmt.Println(renderSidebar(st.Tasks.Tasks, today))
		fmt.Println(renderTasks(dashboard.Visible(st.Tasks), today))
		fmt.Println()
		fmt.Println(renderCalendar(year, mon, st.Tasks.Tasks, today))
		return nil
	})
}

func runTask(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: taskdesk task add|edit|done|rm ...")
	}
	sub, args := args[0], args[1:]

	fs := flag.NewFlagSet("task "+sub, flag.ContinueOnError)
	title := fs.String("title", "", "title")
	desc := fs.String("desc", "", "description")
	status := fs.String("status", string(enums.TaskStatusPending), "pending, in-progress or completed")
	priority := fs.String("priority", string(enums.TaskPriorityMedium), "low, medium or high")
	due := fs.String("due", "", "due date YYYY-MM-DD")
	category := fs.Int("category", 0, "category id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id := 0
	if sub != "add" {
		if fs.NArg() != 1 {
			return errors.Errorf("usage: taskdesk task %s [flags] <id>", sub)
		}
		n, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			return errors.Wrap(err, "task id")
		}
		id = n
	}

	return protected(ctx, a, enums.RouteDashboard, func(ctx context.Context) error {
		svc := a.dashboard()
		if err := svc.FetchTasks(ctx); err != nil {
			return errors.New(svc.Store().State().Tasks.Error)
		}

		var err error
		switch sub {
		case "add", "edit":
			in := models.TaskInput{Status: enums.TaskStatus(*status), Priority: enums.TaskPriority(*priority)}
			if sub == "edit" {
				in, err = existingInput(svc.Store().State().Tasks.Tasks, id)
				if err != nil {
					return err
				}
			}
			if err := applyTaskFlags(fs, &in, *title, *desc, *status, *priority, *due, *category); err != nil {
				return err
			}
			var task *models.Task
			task, err = svc.SaveTask(ctx, id, in)
			if err == nil {
				fmt.Println(successStyle.Render(fmt.Sprintf("Saved task %d", task.ID)))
			}
		case "done":
			err = svc.ToggleStatus(ctx, id)
			if err == nil {
				fmt.Println(successStyle.Render("Toggled task " + strconv.Itoa(id)))
			}
		case "rm":
			err = svc.DeleteTask(ctx, id)
			if err == nil {
				fmt.Println(successStyle.Render("Deleted task " + strconv.Itoa(id)))
			}
		default:
			return errors.Errorf("unknown task command %q", sub)
		}
		if err != nil {
			return errors.New(svc.Store().State().Tasks.Error)
		}
		fmt.Println(renderStats(svc.Store().State().Tasks.Stats))
		return nil
	})
}

func existingInput(tasks []models.Task, id int) (models.TaskInput, error) {
	for _, t := range tasks {
		if t.ID == id {
			return models.InputFrom(t), nil
		}
	}
	return models.TaskInput{}, errors.Errorf("task %d not found", id)
}

// applyTaskFlags copies the flags that were set onto in. On add every flag counts.
func applyTaskFlags(fs *flag.FlagSet, in *models.TaskInput, title, desc, status, priority, due string, category int) error {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	add := fs.Name() == "task add"

	if add || set["title"] {
		in.Title = strings.TrimSpace(title)
	}
	if add || set["desc"] {
		in.Description = desc
	}
	if add || set["status"] {
		in.Status = enums.TaskStatus(status)
	}
	if add || set["priority"] {
		in.Priority = enums.TaskPriority(priority)
	}
	if set["due"] {
		d, err := models.ParseDate(due)
		if err != nil {
			return errors.Wrap(err, "parse -due")
		}
		in.DueDate = d
	}
	if set["category"] {
		if category == 0 {
			in.CategoryID = nil
		} else {
			in.CategoryID = &category
		}
	}
	return nil
}

func runCategories(ctx context.Context, a *app, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	fs := flag.NewFlagSet("categories "+sub, flag.ContinueOnError)
	desc := fs.String("desc", "", "description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return protected(ctx, a, enums.RouteDashboard, func(ctx context.Context) error {
		svc := a.dashboard()
		var err error
		switch sub {
		case "list":
			err = svc.FetchCategories(ctx)
		case "add":
			_, err = svc.SaveCategory(ctx, 0, models.CategoryInput{Name: strings.Join(fs.Args(), " "), Description: *desc})
		case "rm":
			id, convErr := strconv.Atoi(fs.Arg(0))
			if convErr != nil {
				return errors.Wrap(convErr, "category id")
			}
			err = svc.DeleteCategory(ctx, id)
		default:
			return errors.Errorf("unknown categories command %q", sub)
		}
		if err != nil {
			return errors.New(svc.Store().State().Categories.Error)
		}
		if sub != "list" {
			if err := svc.FetchCategories(ctx); err != nil {
				return errors.New(svc.Store().State().Categories.Error)
			}
		}
		for _, c := range svc.Store().State().Categories.Categories {
			fmt.Printf("%-4d %s %s\n", c.ID, c.Name, mutedStyle.Render(c.Description))
		}
		return nil
	})
}

func runProfile(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	name := fs.String("name", "", "new full name")
	current := fs.String("current-password", "", "current password, to change it")
	next := fs.String("new-password", "", "new password")
	confirm := fs.String("confirm-password", "", "new password again")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return protected(ctx, a, enums.RouteProfile, func(ctx context.Context) error {
		profile := flows.NewProfile(a.client, a.store, a.deps())
		defer func() { fmt.Println(renderNotifications(a.notifier.Active())) }()

		if *name != "" {
			if _, err := profile.UpdateName(ctx, *name); err != nil {
				return err
			}
		}
		if *next != "" {
			err := profile.ChangePassword(ctx, models.PasswordChange{
				CurrentPassword: *current,
				NewPassword:     *next,
				ConfirmPassword: *confirm,
			})
			for field, msg := range profile.State().PasswordErrors {
				fmt.Println(errorStyle.Render(field + ": " + msg))
			}
			if err != nil {
				return err
			}
		}

		user, err := profile.Load(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderUser(*user))
		return nil
	})
}

func runServeFake(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve-fake", flag.ContinueOnError)
	seed := fs.String("seed", "", "account to create, as email:full name:password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := fakeapi.Config{
		Secret:        a.cfg.FakeAPI.Secret,
		RotateRefresh: a.cfg.FakeAPI.RotateRefresh,
		ServiceName:   a.cfg.Env.ServiceName + "-fakeapi",
		AccessTTL:     fakeapi.DefaultAccessTTL,
		OTPTTL:        a.cfg.OTP.OTPTTL,
	}
	if code := a.cfg.FakeAPI.OTP; code != "" {
		cfg.OTP = func() string { return code }
	}
	fake := fakeapi.New(cfg)

	if *seed != "" {
		parts := strings.SplitN(*seed, ":", 3)
		if len(parts) != 3 {
			return errors.New("-seed wants email:full name:password")
		}
		fake.AddUser(parts[0], parts[1], parts[2])
	}

	errCh := make(chan error, 1)
	go func() { errCh <- fake.Start(a.cfg.FakeAPI.Addr) }()
	logger.LogInfo("fake backend listening", zap.String("addr", a.cfg.FakeAPI.Addr), zap.String("prefix", fakeapi.Prefix))
	fmt.Printf("serving http://%s%s (ctrl-c to stop)\n", a.cfg.FakeAPI.Addr, fakeapi.Prefix)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return fake.Shutdown(shutdownCtx)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// cachedUser is the profile remembered with the session, if any.
func cachedUser(ctx context.Context, a *app) *models.User {
	return tokenstore.CurrentUser(ctx, a.store)
}
