package health

import (
	"context"
	"time"

	"github.com/hwbot/partswatch/internal/core/domain"
	"github.com/hwbot/partswatch/internal/infra/storage"
)

type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Checker pings an infrastructure dependency.
type Checker interface {
	Health(ctx context.Context) error
}

// CategoryReport describes the refresh state of one category.
type CategoryReport struct {
	Category string    `json:"category"`
	NextDue  time.Time `json:"next_due"`
	Overdue  int       `json:"overdue_days"`
	Status   Status    `json:"status"`
}

// Report is the full health snapshot.
type Report struct {
	Status     Status           `json:"status"`
	Database   string           `json:"database"`
	Categories []CategoryReport `json:"categories,omitempty"`
}

// Monitor derives health from the refresh schedule: a category more than
// two frequency periods overdue means refreshes are persistently failing.
type Monitor struct {
	schedules     storage.ScheduleRepository
	db            Checker
	frequencyDays int
}

func NewMonitor(schedules storage.ScheduleRepository, db Checker, frequencyDays int) *Monitor {
	if frequencyDays <= 0 {
		frequencyDays = 7
	}
	return &Monitor{schedules: schedules, db: db, frequencyDays: frequencyDays}
}

// Check builds the current health report.
func (m *Monitor) Check(ctx context.Context) Report {
	report := Report{Status: StatusHealthy, Database: "ok"}

	if m.db != nil {
		if err := m.db.Health(ctx); err != nil {
			report.Database = err.Error()
			report.Status = StatusCritical
			return report
		}
	}

	entries, err := m.schedules.GetAll(ctx)
	if err != nil {
		report.Status = StatusDegraded
		return report
	}

	today := domain.DateOf(time.Now())
	for _, e := range entries {
		overdue := int(today.Sub(domain.DateOf(e.NextDue)).Hours() / 24)
		if overdue < 0 {
			overdue = 0
		}
		cr := CategoryReport{
			Category: string(e.Category),
			NextDue:  domain.DateOf(e.NextDue),
			Overdue:  overdue,
			Status:   StatusHealthy,
		}
		if overdue > 2*m.frequencyDays {
			cr.Status = StatusDegraded
			if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		}
		report.Categories = append(report.Categories, cr)
	}
	return report
}
