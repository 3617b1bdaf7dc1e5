package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/flows"
	"github.com/octabyte/taskdesk/models"
	"github.com/octabyte/taskdesk/notify"
	"github.com/octabyte/taskdesk/router"
	"github.com/pkg/errors"
)

// refreshMsg asks the screen to re-read flow state.
type refreshMsg struct{}

// navigatedMsg reports that a flow moved the app to another route.
type navigatedMsg struct{ loc router.Location }

// doneMsg carries the result of a flow call made off the update loop.
type doneMsg struct{ err error }

// bridge lets flow callbacks, which run on timer goroutines, reach the program.
type bridge struct {
	program *tea.Program
}

func (b *bridge) send(msg tea.Msg) {
	if b.program != nil {
		b.program.Send(msg)
	}
}

func call(fn func() error) tea.Cmd {
	return func() tea.Msg { return doneMsg{err: fn()} }
}

// runScreen runs model until it quits. Navigation to any of exits ends the
// program with that location as the result.
func runScreen(ctx context.Context, a *app, model tea.Model, b *bridge, exits ...enums.Route) (router.Location, error) {
	var reached router.Location
	for _, route := range exits {
		a.router.Handle(route, func(_ context.Context, loc router.Location) error {
			b.send(navigatedMsg{loc: loc})
			return nil
		})
	}
	a.notifier.OnChange(func([]notify.Notification) { b.send(refreshMsg{}) })

	b.program = tea.NewProgram(model, tea.WithContext(ctx))
	final, err := b.program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return reached, err
	}
	if s, ok := final.(interface{ reached() router.Location }); ok {
		reached = s.reached()
	}
	return reached, nil
}

// field is a single line text input.
type field struct {
	label  string
	value  []rune
	masked bool
}

func (f *field) update(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyBackspace:
		if len(f.value) > 0 {
			f.value = f.value[:len(f.value)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		f.value = append(f.value, msg.Runes...)
	}
}

func (f field) String() string {
	return string(f.value)
}

func (f field) view(focused bool) string {
	text := f.String()
	if f.masked {
		text = strings.Repeat("•", len(f.value))
	}
	cursor := " "
	if focused {
		cursor = "▌"
	}
	label := mutedStyle.Render(fmt.Sprintf("%-17s", f.label))
	if focused {
		label = titleStyle.Render(fmt.Sprintf("%-17s", f.label))
	}
	return label + text + cursor
}

func checkbox(label string, on bool) string {
	if on {
		return "[x] " + label
	}
	return "[ ] " + label
}

func footer(a *app, help string) string {
	out := ""
	if n := renderNotifications(a.notifier.Active()); n != "" {
		out += "\n" + n
	}
	return out + "\n\n" + mutedStyle.Render(help)
}

// --- password login ---

type passwordLoginModel struct {
	ctx      context.Context
	a        *app
	flow     *flows.PasswordLogin
	fields   []field
	focus    int
	remember bool
	loc      router.Location
}

func (m *passwordLoginModel) reached() router.Location { return m.loc }

func (m *passwordLoginModel) Init() tea.Cmd { return nil }

func (m *passwordLoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case navigatedMsg:
		m.loc = msg.loc
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab, tea.KeyDown:
			m.focus = (m.focus + 1) % len(m.fields)
		case tea.KeyShiftTab, tea.KeyUp:
			m.focus = (m.focus + len(m.fields) - 1) % len(m.fields)
		case tea.KeyCtrlR:
			m.remember = !m.remember
		case tea.KeyEnter:
			if m.focus < len(m.fields)-1 {
				m.focus++
				return m, nil
			}
			email, password, remember := m.fields[0].String(), m.fields[1].String(), m.remember
			return m, call(func() error { return m.flow.Submit(m.ctx, email, password, remember) })
		default:
			m.fields[m.focus].update(msg)
		}
	}
	return m, nil
}

func (m *passwordLoginModel) View() string {
	st := m.flow.State()
	lines := []string{titleStyle.Render("Sign in"), ""}
	for i, f := range m.fields {
		lines = append(lines, f.view(i == m.focus))
	}
	lines = append(lines, "", checkbox("Remember me (ctrl+r)", m.remember))
	if st.Loading {
		lines = append(lines, mutedStyle.Render("Signing in..."))
	}
	if st.Error != "" {
		lines = append(lines, errorStyle.Render(st.Error))
	}
	return strings.Join(lines, "\n") + footer(m.a, "tab next field • enter submit • esc quit")
}

func runPasswordLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "prefill the email address")
	remember := fs.Bool("remember", true, "keep the session after this terminal closes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow := flows.NewPasswordLogin(a.client, a.store, a.deps())
	defer flow.Close()

	b := &bridge{}
	m := &passwordLoginModel{
		ctx:      ctx,
		a:        a,
		flow:     flow,
		remember: *remember,
		fields: []field{
			{label: "Email", value: []rune(*email)},
			{label: "Password", masked: true},
		},
	}
	if *email != "" {
		m.focus = 1
	}
	loc, err := runScreen(ctx, a, m, b, enums.RouteDashboard)
	if err != nil {
		return err
	}
	return signedIn(ctx, a, loc)
}

// --- OTP login ---

type otpLoginModel struct {
	ctx   context.Context
	a     *app
	flow  *flows.OTPLogin
	email field
	loc   router.Location
}

func (m *otpLoginModel) reached() router.Location { return m.loc }

func (m *otpLoginModel) Init() tea.Cmd { return nil }

func (m *otpLoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case navigatedMsg:
		m.loc = msg.loc
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if m.flow.State().Step == enums.OTPLoginStepEnteringEmail {
			return m, m.updateEmail(msg)
		}
		return m, m.updateCode(msg)
	}
	return m, nil
}

func (m *otpLoginModel) updateEmail(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlR:
		m.flow.SetRememberMe(!m.flow.State().RememberMe)
	case tea.KeyEnter:
		email := m.email.String()
		return call(func() error { return m.flow.RequestOTP(m.ctx, email) })
	default:
		m.email.update(msg)
	}
	return nil
}

func (m *otpLoginModel) updateCode(msg tea.KeyMsg) tea.Cmd {
	st := m.flow.State()
	switch {
	case msg.Paste:
		text := string(msg.Runes)
		return call(func() error { return m.flow.Paste(m.ctx, text) })
	case msg.Type == tea.KeyBackspace:
		m.flow.Backspace(st.Focus)
	case msg.Type == tea.KeyCtrlE:
		_ = m.flow.ChangeEmail()
	case msg.Type == tea.KeyEnter:
		return call(func() error { return m.flow.Verify(m.ctx) })
	case msg.Type == tea.KeyRunes && string(msg.Runes) == "r":
		if st.CanResend() {
			return call(func() error { return m.flow.Resend(m.ctx) })
		}
	case msg.Type == tea.KeyRunes:
		digit := string(msg.Runes)
		return call(func() error { return m.flow.EnterDigit(m.ctx, st.Focus, digit) })
	}
	return nil
}

func (m *otpLoginModel) View() string {
	st := m.flow.State()
	var lines []string
	if st.Step == enums.OTPLoginStepEnteringEmail {
		lines = append(lines,
			titleStyle.Render("Sign in with a one-time code"), "",
			m.email.view(true), "",
			checkbox("Remember me (ctrl+r)", st.RememberMe))
	} else {
		boxes := make([]string, flows.OTPLength)
		for i, d := range st.Digits {
			style := boxStyle
			if i == st.Focus {
				style = focusStyle
			}
			boxes[i] = style.Render(d)
		}
		lines = append(lines,
			titleStyle.Render("Enter the code sent to "+st.Email), "",
			lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
		switch {
		case st.Expired:
			lines = append(lines, errorStyle.Render("Code expired"))
		case st.SecondsLeft > 0:
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("Resend available in %ds", st.SecondsLeft)))
		default:
			lines = append(lines, mutedStyle.Render("Press r to resend the code"))
		}
	}
	if st.Loading {
		lines = append(lines, mutedStyle.Render("Please wait..."))
	}
	if st.Error != "" {
		lines = append(lines, errorStyle.Render(st.Error))
	}
	help := "enter send code • esc quit"
	if st.Step == enums.OTPLoginStepAwaitingOTP {
		help = "digits fill the boxes • backspace clear • r resend • ctrl+e change email • esc quit"
	}
	return strings.Join(lines, "\n") + footer(m.a, help)
}

func runOTPLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("otp-login", flag.ContinueOnError)
	email := fs.String("email", "", "prefill the email address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	b := &bridge{}
	flow := flows.NewOTPLogin(a.client, a.store, a.deps())
	defer flow.Close()
	flow.OnChange(func(flows.OTPLoginState) { b.send(refreshMsg{}) })

	m := &otpLoginModel{ctx: ctx, a: a, flow: flow, email: field{label: "Email", value: []rune(*email)}}
	loc, err := runScreen(ctx, a, m, b, enums.RouteDashboard)
	if err != nil {
		return err
	}
	return signedIn(ctx, a, loc)
}

// --- registration ---

type registerModel struct {
	ctx    context.Context
	a      *app
	flow   *flows.Registration
	fields []field
	otp    field
	focus  int
	loc    router.Location
}

func (m *registerModel) reached() router.Location { return m.loc }

func (m *registerModel) Init() tea.Cmd { return nil }

func (m *registerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case navigatedMsg:
		m.loc = msg.loc
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.flow.State().Step == enums.RegistrationStepAwaitingOTP {
			return m, m.updateOTP(msg)
		}
		if msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		return m, m.updateProfile(msg)
	}
	return m, nil
}

func (m *registerModel) updateProfile(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		m.focus = (m.focus + 1) % len(m.fields)
	case tea.KeyShiftTab, tea.KeyUp:
		m.focus = (m.focus + len(m.fields) - 1) % len(m.fields)
	case tea.KeyEnter:
		if m.focus < len(m.fields)-1 {
			m.focus++
			return nil
		}
		req := models.RegistrationRequest{
			Email:           strings.TrimSpace(m.fields[0].String()),
			FullName:        strings.TrimSpace(m.fields[1].String()),
			Password:        m.fields[2].String(),
			ConfirmPassword: m.fields[3].String(),
		}
		return call(func() error { return m.flow.SubmitProfile(m.ctx, req) })
	default:
		m.fields[m.focus].update(msg)
	}
	return nil
}

func (m *registerModel) updateOTP(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		if m.flow.Back() == nil {
			m.otp.value = nil
		}
	case tea.KeyCtrlR:
		return call(func() error { return m.flow.Resend(m.ctx) })
	case tea.KeyEnter:
		code := m.otp.String()
		return call(func() error { return m.flow.SubmitOTP(m.ctx, code) })
	default:
		if len(m.otp.value) < flows.OTPLength || msg.Type == tea.KeyBackspace {
			m.otp.update(msg)
		}
	}
	return nil
}

func (m *registerModel) View() string {
	st := m.flow.State()
	var lines []string
	switch st.Step {
	case enums.RegistrationStepAwaitingOTP:
		lines = append(lines, titleStyle.Render("Confirm "+st.Email), "", m.otp.view(true), "")
		if st.OTPExpired {
			lines = append(lines, errorStyle.Render(flows.MsgRegistrationOTPExpired))
		} else {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("Code expires in %ds", st.ExpiresIn)))
		}
		if st.ResendDisabled {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("Resend available in %ds", st.ResendIn)))
		} else {
			lines = append(lines, mutedStyle.Render("ctrl+r resends the code"))
		}
	case enums.RegistrationStepCompleted:
		lines = append(lines, successStyle.Render(flows.MsgRegistrationComplete))
	default:
		lines = append(lines, titleStyle.Render("Create account"), "")
		for i, f := range m.fields {
			lines = append(lines, f.view(i == m.focus))
		}
	}
	if st.Loading {
		lines = append(lines, mutedStyle.Render("Please wait..."))
	}
	if st.Error != "" {
		lines = append(lines, errorStyle.Render(st.Error))
	}
	help := "tab next field • enter submit • esc quit"
	if st.Step == enums.RegistrationStepAwaitingOTP {
		help = "enter verify • ctrl+r resend • esc back"
	}
	return strings.Join(lines, "\n") + footer(m.a, help)
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "prefill the email address")
	name := fs.String("name", "", "prefill the full name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	b := &bridge{}
	flow := flows.NewRegistration(a.client, a.deps())
	defer flow.Close()
	flow.OnChange(func(flows.RegistrationState) { b.send(refreshMsg{}) })

	m := &registerModel{
		ctx:  ctx,
		a:    a,
		flow: flow,
		fields: []field{
			{label: "Email", value: []rune(*email)},
			{label: "Full name", value: []rune(*name)},
			{label: "Password", masked: true},
			{label: "Confirm password", masked: true},
		},
		otp: field{label: "Code"},
	}
	loc, err := runScreen(ctx, a, m, b, enums.RouteLogin)
	if err != nil {
		return err
	}
	if loc.Path == enums.RouteLogin {
		fmt.Println(successStyle.Render(flows.MsgRegistrationComplete + " Sign in with `taskdesk login`."))
	}
	return nil
}

func signedIn(ctx context.Context, a *app, loc router.Location) error {
	if loc.Path != enums.RouteDashboard {
		return nil
	}
	if user := cachedUser(ctx, a); user != nil {
		fmt.Println(successStyle.Render("Signed in as ") + renderUser(*user))
	}
	return nil
}
