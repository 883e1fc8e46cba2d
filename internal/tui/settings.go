package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/shiftr/internal/clock"
	"github.com/sadopc/shiftr/internal/notify"
	"github.com/sadopc/shiftr/internal/store"
)

type settingsModel struct {
	env    *env
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	breakPolicy *string
	locale      *string
	dailyGoal   *string
	weekStart   *string
}

func newSettingsModel(e *env) settingsModel {
	bp, loc, dg, ws := "", "", "", ""
	return settingsModel{
		env:         e,
		breakPolicy: &bp,
		locale:      &loc,
		dailyGoal:   &dg,
		weekStart:   &ws,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	st := s.env.store
	return func() tea.Msg {
		settings, _ := st.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	// Load current values
	*s.breakPolicy = s.getVal(store.SettingBreakPolicy, string(clock.BreakPolicyCheckout))
	*s.locale = s.getVal(store.SettingLocale, "en")
	*s.dailyGoal = secsToHours(s.getVal(store.SettingDailyGoal, "28800"))
	*s.weekStart = s.getVal(store.SettingWeekStart, "monday")

	var localeOptions []huh.Option[string]
	for _, l := range notify.Locales() {
		localeOptions = append(localeOptions, huh.NewOption(l, l))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Task on break").
				Options(
					huh.NewOption("Check the task out", string(clock.BreakPolicyCheckout)),
					huh.NewOption("Pause the task", string(clock.BreakPolicyPause)),
				).Value(s.breakPolicy),
			huh.NewSelect[string]().Title("Language").
				Options(localeOptions...).
				Value(s.locale),
		).Title("Clock"),
		huh.NewGroup(
			huh.NewInput().Title("Daily goal (hours)").Value(s.dailyGoal).Validate(validateHours),
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Sunday", "sunday"),
				).Value(s.weekStart),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.saveSettings(); err != nil {
			return s, statusCmd(statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true})
		}
		return s, tea.Batch(s.refresh(), statusCmd(statusMsg{text: "Settings saved"}))
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	values := []store.Setting{
		{Key: store.SettingBreakPolicy, Value: *s.breakPolicy},
		{Key: store.SettingLocale, Value: *s.locale},
		{Key: store.SettingDailyGoal, Value: hoursToSecs(*s.dailyGoal)},
		{Key: store.SettingWeekStart, Value: *s.weekStart},
	}
	for _, v := range values {
		if err := s.env.store.SetSetting(v.Key, v.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	return s.env.store.SettingOr(k, fallback)
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  Running with break policy %q, language %q. Changes apply on restart.",
		s.env.ctrl.Policy(), s.env.tr.Locale())))
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingDailyGoal:
		if secs, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%.1f hours", float64(secs)/3600)
		}
	case store.SettingBreakPolicy:
		switch clock.BreakPolicy(v) {
		case clock.BreakPolicyCheckout:
			return "check the task out"
		case clock.BreakPolicyPause:
			return "pause the task"
		}
	case store.SettingWeekStart:
		return strings.ToUpper(v[:min(1, len(v))]) + v[min(1, len(v)):]
	}
	return v
}

func validateHours(s string) error {
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || h <= 0 || h > 24 {
		return fmt.Errorf("enter hours between 0 and 24")
	}
	return nil
}

func secsToHours(s string) string {
	if secs, err := strconv.Atoi(s); err == nil {
		return fmt.Sprintf("%.1f", float64(secs)/3600)
	}
	return s
}

func hoursToSecs(s string) string {
	if hours, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return strconv.Itoa(int(hours * 3600))
	}
	return s
}
