package attendance

import (
	"errors"
	"fmt"
)

// Reason says why a transition was not applied.
type Reason int

const (
	ReasonAlreadyActive Reason = iota + 1
	ReasonAlreadyInactive
	ReasonAlreadyOnBreak
	ReasonBreakLimitReached
	ReasonNotActiveForBreak
	ReasonNoOpenBreak
	ReasonSessionNotStartedForTask
	ReasonCheckoutWhileOnBreak
	ReasonCheckoutPending
	ReasonNoCheckoutPending
	ReasonTaskNotFound
	ReasonRecordNotFound
)

var reasonNames = map[Reason]string{
	ReasonAlreadyActive:            "AlreadyActive",
	ReasonAlreadyInactive:          "AlreadyInactive",
	ReasonAlreadyOnBreak:           "AlreadyOnBreak",
	ReasonBreakLimitReached:        "BreakLimitReached",
	ReasonNotActiveForBreak:        "NotActiveForBreak",
	ReasonNoOpenBreak:              "NoOpenBreak",
	ReasonSessionNotStartedForTask: "SessionNotStartedForTask",
	ReasonCheckoutWhileOnBreak:     "CheckoutWhileOnBreak",
	ReasonCheckoutPending:          "CheckoutPending",
	ReasonNoCheckoutPending:        "NoCheckoutPending",
	ReasonTaskNotFound:             "TaskNotFound",
	ReasonRecordNotFound:           "RecordNotFound",
}

// Reasons lists every reason in declaration order.
func Reasons() []Reason {
	out := make([]Reason, 0, len(reasonNames))
	for r := ReasonAlreadyActive; r <= ReasonRecordNotFound; r++ {
		out = append(out, r)
	}
	return out
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Rejection is returned when a transition's preconditions do not hold. The
// state it was checked against is left unchanged unless documented otherwise.
type Rejection struct {
	Reason     Reason
	EmployeeID string
	Date       string
}

func (e *Rejection) Error() string {
	if e == nil {
		return ""
	}
	if e.Date == "" {
		return fmt.Sprintf("%s: employee %q", e.Reason, e.EmployeeID)
	}
	return fmt.Sprintf("%s: employee %q on %s", e.Reason, e.EmployeeID, e.Date)
}

// Is matches another *Rejection with the same reason, so errors.Is works
// against the Err* sentinels.
func (e *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	if !ok {
		return false
	}
	return t.EmployeeID == "" && t.Date == "" && t.Reason == e.Reason
}

func reject(r Reason, employeeID, date string) error {
	return &Rejection{Reason: r, EmployeeID: employeeID, Date: date}
}

// Sentinels for errors.Is.
var (
	ErrAlreadyActive            = &Rejection{Reason: ReasonAlreadyActive}
	ErrAlreadyInactive          = &Rejection{Reason: ReasonAlreadyInactive}
	ErrAlreadyOnBreak           = &Rejection{Reason: ReasonAlreadyOnBreak}
	ErrBreakLimitReached        = &Rejection{Reason: ReasonBreakLimitReached}
	ErrNotActiveForBreak        = &Rejection{Reason: ReasonNotActiveForBreak}
	ErrNoOpenBreak              = &Rejection{Reason: ReasonNoOpenBreak}
	ErrSessionNotStartedForTask = &Rejection{Reason: ReasonSessionNotStartedForTask}
	ErrCheckoutWhileOnBreak     = &Rejection{Reason: ReasonCheckoutWhileOnBreak}
	ErrCheckoutPending          = &Rejection{Reason: ReasonCheckoutPending}
	ErrNoCheckoutPending        = &Rejection{Reason: ReasonNoCheckoutPending}
	ErrTaskNotFound             = &Rejection{Reason: ReasonTaskNotFound}
	ErrRecordNotFound           = &Rejection{Reason: ReasonRecordNotFound}
)

// Reject builds a rejection for callers outside the ledger (the clock
// controller uses it for task and checkout preconditions).
func Reject(r Reason, employeeID, date string) error {
	return reject(r, employeeID, date)
}

// ReasonOf extracts the rejection reason from err, if it carries one.
func ReasonOf(err error) (Reason, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return 0, false
}
