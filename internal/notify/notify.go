package notify

import (
	"log"

	"github.com/sadopc/shiftr/internal/attendance"
)

type Severity int

const (
	Info Severity = iota
	Success
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "info"
}

// Notifier shows a message to the user. It must not block.
type Notifier interface {
	Notify(message string, severity Severity)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string, severity Severity)

func (f NotifierFunc) Notify(message string, severity Severity) { f(message, severity) }

// Dispatcher reports the outcome of a user action.
type Dispatcher struct {
	tr *Translator
	n  Notifier
}

func NewDispatcher(tr *Translator, n Notifier) *Dispatcher {
	return &Dispatcher{tr: tr, n: n}
}

// Result notifies success with the action's message, a rejection with its
// localized reason and any other error as a generic failure.
func (d *Dispatcher) Result(action string, err error, data map[string]any) {
	if err == nil {
		d.n.Notify(d.tr.T("ok."+action, data), Success)
		return
	}
	if r, ok := attendance.ReasonOf(err); ok {
		d.n.Notify(d.tr.Reason(r), Error)
		return
	}
	log.Printf("%s: %v", action, err)
	d.n.Notify(d.tr.T("error.generic", map[string]any{"Error": err.Error()}), Error)
}
