package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/shiftr/internal/clock"
	"github.com/sadopc/shiftr/internal/config"
	"github.com/sadopc/shiftr/internal/notify"
	"github.com/sadopc/shiftr/internal/store"
	"github.com/sadopc/shiftr/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The terminal belongs to the UI; logs go to a file or nowhere.
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "shiftr")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		if dbPath, err = store.DefaultDBPath(); err != nil {
			return err
		}
	}
	s, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	var kv clock.Persistence = s
	if cfg.UsesMongo() {
		m, err := store.NewMongoKV(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			m.Close(ctx)
		}()
		kv = m
	}

	policyName := cfg.BreakPolicy
	if policyName == "" {
		policyName = s.SettingOr(store.SettingBreakPolicy, string(clock.BreakPolicyCheckout))
	}
	policy, err := clock.ParseBreakPolicy(policyName)
	if err != nil {
		return err
	}

	locale := cfg.Locale
	if locale == "" {
		locale = s.SettingOr(store.SettingLocale, "en")
	}
	tr, err := notify.NewTranslator(locale)
	if err != nil {
		return err
	}

	ctx := context.Background()
	ctrl, err := clock.New(ctx, kv, s, s.Tasks(), clock.WithBreakPolicy(policy))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	actor, err := resolveActor(s, cfg.Employee)
	if err != nil {
		return err
	}

	app := tui.NewApp(s, ctrl, tr, tui.Options{EmployeeID: actor, ExportDir: cfg.ExportDir})
	p := tea.NewProgram(app, tea.WithAltScreen())
	ctrl.OnTick(tui.LiveUpdates(p))

	if actor != "" {
		if err := ctrl.Resume(ctx, actor); err != nil {
			log.Printf("resume %s: %v", actor, err)
		}
	}

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// resolveActor finds the employee to act as: the configured one, or the
// first active employee when none is configured.
func resolveActor(s *store.Store, idOrEmail string) (string, error) {
	if idOrEmail != "" {
		emp, err := s.FindEmployee(idOrEmail)
		if err != nil {
			return "", fmt.Errorf("SHIFTR_EMPLOYEE: %w", err)
		}
		return emp.ID, nil
	}
	list, err := s.ListEmployees(false)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", nil
	}
	return list[0].ID, nil
}
