package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/shiftr/internal/attendance"
	"github.com/sadopc/shiftr/internal/store"
	"github.com/sadopc/shiftr/internal/task"
)

const deadlineLayout = "2006-01-02 15:04"

type teamModel struct {
	env    *env
	width  int
	height int

	employees    []store.Employee
	tasks        []task.Task
	cursor       int
	taskCursor   int
	showArchived bool
	viewingTasks bool // true = viewing tasks of selected employee

	formActive bool
	form       *huh.Form
	formType   string // "employee", "edit_employee", "task"

	// Form field pointers (survive value copies)
	formName     *string
	formEmail    *string
	formPhone    *string
	formRole     *string
	formLocation *string
	formDesc     *string
	formPriority *string
	formDeadline *string

	editingID string
}

func newTeamModel(e *env) teamModel {
	name, email, phone, role, loc := "", "", "", string(attendance.RoleEmployee), ""
	desc, prio, deadline := "", string(task.Medium), ""
	return teamModel{
		env:          e,
		formName:     &name,
		formEmail:    &email,
		formPhone:    &phone,
		formRole:     &role,
		formLocation: &loc,
		formDesc:     &desc,
		formPriority: &prio,
		formDeadline: &deadline,
	}
}

func (p *teamModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type employeesDataMsg struct {
	employees []store.Employee
}

type teamTasksDataMsg struct {
	tasks []task.Task
}

func (p teamModel) refresh() tea.Cmd {
	s := p.env.store
	archived := p.showArchived
	return func() tea.Msg {
		employees, _ := s.ListEmployees(archived)
		return employeesDataMsg{employees: employees}
	}
}

func (p teamModel) refreshTasks() tea.Cmd {
	if p.cursor >= len(p.employees) {
		return nil
	}
	s := p.env.store
	id := p.employees[p.cursor].ID
	return func() tea.Msg {
		tasks, _ := s.ListTasks(store.TaskFilter{AssigneeID: id})
		return teamTasksDataMsg{tasks: tasks}
	}
}

// canManage reports whether the acting employee may change the team. With no
// actor yet the first employees can be created.
func (p teamModel) canManage() bool {
	if p.env.actorID == "" {
		return true
	}
	emp, err := p.env.actor()
	return err == nil && emp.IsAdmin()
}

func (p teamModel) update(msg tea.Msg) (teamModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case employeesDataMsg:
		p.employees = msg.employees
		if p.cursor >= len(p.employees) {
			p.cursor = max(0, len(p.employees)-1)
		}
		return p, nil

	case teamTasksDataMsg:
		p.tasks = msg.tasks
		if p.taskCursor >= len(p.tasks) {
			p.taskCursor = max(0, len(p.tasks)-1)
		}
		return p, nil

	case tea.KeyMsg:
		if p.viewingTasks {
			return p.updateTaskView(msg)
		}
		return p.updateEmployeeList(msg)
	}
	return p, nil
}

var errNotAdmin = errors.New("only admins can manage the team")

func (p teamModel) updateEmployeeList(msg tea.KeyMsg) (teamModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.employees)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(p.employees) > 0 {
			p.viewingTasks = true
			p.taskCursor = 0
			return p, p.refreshTasks()
		}
	case key.Matches(msg, keys.Act):
		if len(p.employees) > 0 {
			emp := p.employees[p.cursor]
			return p, func() tea.Msg { return actorChangedMsg{id: emp.ID} }
		}
	case key.Matches(msg, keys.Filter):
		p.showArchived = !p.showArchived
		return p, p.refresh()
	case key.Matches(msg, keys.New):
		if !p.canManage() {
			return p, statusCmd(statusMsg{text: errNotAdmin.Error(), isError: true})
		}
		return p.showEmployeeForm(nil)
	case key.Matches(msg, keys.Edit):
		if !p.canManage() {
			return p, statusCmd(statusMsg{text: errNotAdmin.Error(), isError: true})
		}
		if len(p.employees) > 0 {
			emp := p.employees[p.cursor]
			return p.showEmployeeForm(&emp)
		}
	case key.Matches(msg, keys.Delete):
		if !p.canManage() {
			return p, statusCmd(statusMsg{text: errNotAdmin.Error(), isError: true})
		}
		if len(p.employees) > 0 {
			emp := p.employees[p.cursor]
			if emp.ID == p.env.actorID {
				return p, statusCmd(statusMsg{text: "You cannot archive yourself", isError: true})
			}
			if err := p.env.store.ArchiveEmployee(emp.ID); err != nil {
				return p, statusCmd(statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true})
			}
			return p, p.refresh()
		}
	}
	return p, nil
}

func (p teamModel) updateTaskView(msg tea.KeyMsg) (teamModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		p.viewingTasks = false
		return p, nil
	case key.Matches(msg, keys.Up):
		if p.taskCursor > 0 {
			p.taskCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.taskCursor < len(p.tasks)-1 {
			p.taskCursor++
		}
	case key.Matches(msg, keys.New):
		if !p.canManage() {
			return p, statusCmd(statusMsg{text: errNotAdmin.Error(), isError: true})
		}
		return p.showTaskForm()
	case key.Matches(msg, keys.Delete):
		if !p.canManage() {
			return p, statusCmd(statusMsg{text: errNotAdmin.Error(), isError: true})
		}
		if len(p.tasks) > 0 {
			t := p.tasks[p.taskCursor]
			if t.Status == task.InProgress {
				return p, statusCmd(statusMsg{text: "Task is in progress; check out first", isError: true})
			}
			if err := p.env.store.DeleteTask(t.ID); err != nil {
				return p, statusCmd(statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true})
			}
			return p, p.refreshTasks()
		}
	}
	return p, nil
}

func (p teamModel) showEmployeeForm(emp *store.Employee) (teamModel, tea.Cmd) {
	p.formType = "employee"
	p.editingID = ""
	*p.formName, *p.formEmail, *p.formPhone, *p.formLocation = "", "", "", ""
	*p.formRole = string(attendance.RoleEmployee)
	if len(p.employees) == 0 {
		*p.formRole = string(attendance.RoleAdmin)
	}
	if emp != nil {
		p.formType = "edit_employee"
		p.editingID = emp.ID
		*p.formName = emp.Name
		*p.formEmail = emp.Email
		*p.formPhone = emp.Phone
		*p.formRole = string(emp.Role)
		*p.formLocation = emp.FieldLocation
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(p.formName).Validate(required("name")),
			huh.NewInput().Title("Email").Value(p.formEmail).Validate(validateEmail),
			huh.NewInput().Title("Phone").Value(p.formPhone),
			huh.NewSelect[string]().Title("Role").
				Options(
					huh.NewOption("Employee", string(attendance.RoleEmployee)),
					huh.NewOption("Admin", string(attendance.RoleAdmin)),
				).Value(p.formRole),
			huh.NewInput().Title("Field location").Value(p.formLocation),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p teamModel) showTaskForm() (teamModel, tea.Cmd) {
	*p.formName, *p.formDesc, *p.formLocation, *p.formDeadline = "", "", "", ""
	*p.formPriority = string(task.Medium)
	p.formType = "task"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(p.formName).Validate(required("title")),
			huh.NewText().Title("Description").Value(p.formDesc),
			huh.NewInput().Title("Location").Value(p.formLocation),
			huh.NewSelect[string]().Title("Priority").
				Options(
					huh.NewOption("Low", string(task.Low)),
					huh.NewOption("Medium", string(task.Medium)),
					huh.NewOption("High", string(task.High)),
				).Value(p.formPriority),
			huh.NewInput().Title("Deadline (YYYY-MM-DD HH:MM, optional)").Value(p.formDeadline).Validate(validateDeadline),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("email is required")
	}
	if at := strings.Index(s, "@"); at < 1 || at == len(s)-1 {
		return fmt.Errorf("invalid email %q", s)
	}
	return nil
}

func parseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(deadlineLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q, want YYYY-MM-DD HH:MM", s)
	}
	return &t, nil
}

func validateDeadline(s string) error {
	_, err := parseDeadline(s)
	return err
}

func (p teamModel) updateForm(msg tea.Msg) (teamModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.form = nil
		created, err := p.save()
		if err != nil {
			return p, statusCmd(statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true})
		}
		if p.formType == "task" {
			return p, p.refreshTasks()
		}
		if created != "" && p.env.actorID == "" {
			return p, tea.Batch(p.refresh(), func() tea.Msg { return actorChangedMsg{id: created} })
		}
		return p, p.refresh()
	}

	return p, cmd
}

// save writes the completed form. It returns the ID of a created employee.
func (p teamModel) save() (string, error) {
	s := p.env.store
	switch p.formType {
	case "employee":
		emp, err := s.CreateEmployee(strings.TrimSpace(*p.formName), *p.formEmail, *p.formPhone,
			attendance.Role(*p.formRole), *p.formLocation)
		if err != nil {
			return "", err
		}
		return emp.ID, nil
	case "edit_employee":
		emp, err := s.GetEmployee(p.editingID)
		if err != nil {
			return "", err
		}
		emp.Name = *p.formName
		emp.Email = *p.formEmail
		emp.Phone = *p.formPhone
		emp.Role = attendance.Role(*p.formRole)
		emp.FieldLocation = *p.formLocation
		return "", s.UpdateEmployee(*emp)
	case "task":
		if p.cursor >= len(p.employees) {
			return "", nil
		}
		deadline, err := parseDeadline(*p.formDeadline)
		if err != nil {
			return "", err
		}
		now := time.Now()
		_, err = s.CreateTask(task.Task{
			Title:       strings.TrimSpace(*p.formName),
			Description: *p.formDesc,
			AssigneeID:  p.employees[p.cursor].ID,
			Location:    *p.formLocation,
			Priority:    task.Priority(*p.formPriority),
			StartAt:     &now,
			EndAt:       deadline,
		})
		return "", err
	}
	return "", nil
}

func (p teamModel) view() string {
	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Employee")
		if p.formType == "edit_employee" {
			title = titleStyle.Render("Edit Employee")
		} else if p.formType == "task" && p.cursor < len(p.employees) {
			title = titleStyle.Render("New Task for " + p.employees[p.cursor].Name)
		}
		formView := p.form.View()
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", formView)
		return panelStyle.Width(p.width - 4).Render(content)
	}

	if p.viewingTasks && p.cursor < len(p.employees) {
		return p.renderTaskView()
	}
	return p.renderEmployeeList()
}

func (p teamModel) renderEmployeeList() string {
	w := p.width - 4
	title := titleStyle.Render("Team")

	if len(p.employees) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No employees yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-22s %-28s %-9s %s", "", "Name", "Email", "Role", "Location"))
	rows = append(rows, header)

	for i, emp := range p.employees {
		marker := " "
		if emp.ID == p.env.actorID {
			marker = successStyle.Render("●")
		}
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		name := emp.Name
		if emp.Archived {
			name += " (archived)"
		}
		row := style.Render(fmt.Sprintf("%s%s %-22s %-28s %-9s %s", cursor, marker, name, emp.Email, emp.Role, emp.FieldLocation))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: archive  f: archived  a: act as  enter: tasks"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p teamModel) renderTaskView() string {
	w := p.width - 4
	emp := p.employees[p.cursor]
	title := titleStyle.Render(fmt.Sprintf("%s: Tasks", emp.Name))

	if len(p.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	now := time.Now()
	for i, t := range p.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == p.taskCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-30s", cursor, t.Title))+" "+
			lipgloss.NewStyle().Width(12).Render(renderStatus(t.Status))+" "+
			mutedStyle.Render(string(t.Priority))+"  "+dueLabel(t, now))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new task  d: delete  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
