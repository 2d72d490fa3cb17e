package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hwbot/partswatch/internal/core/domain"
	"github.com/hwbot/partswatch/internal/infra/storage/memory"
)

type brokenSchedules struct {
	*memory.ScheduleRepo
	err error
}

func (r brokenSchedules) GetAll(ctx context.Context) ([]domain.Schedule, error) {
	return nil, r.err
}

func TestWriteStatusRendersScheduleWithCounts(t *testing.T) {
	store := memory.NewMemoryStorage()
	schedules := memory.NewScheduleRepo(store)
	components := memory.NewComponentRepo(store)
	ctx := context.Background()

	due := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	if err := schedules.Save(ctx, domain.Schedule{Category: domain.CategoryRAM, NextDue: due}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := components.InsertBatch(ctx, []domain.Component{
		{ID: "r1", Category: domain.CategoryRAM, Price: 2500},
		{ID: "r2", Category: domain.CategoryRAM, Price: 7500},
	}); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	var out strings.Builder
	if err := writeStatus(ctx, &out, schedules, components); err != nil {
		t.Fatalf("writeStatus: %v", err)
	}

	got := out.String()
	for _, want := range []string{"CATEGORY", "ram", "2026-09-04", "2"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestWriteStatusSurfacesStorageErrors(t *testing.T) {
	store := memory.NewMemoryStorage()
	schedules := brokenSchedules{
		ScheduleRepo: memory.NewScheduleRepo(store),
		err:          errors.New("connection reset"),
	}

	var out strings.Builder
	err := writeStatus(context.Background(), &out, schedules, memory.NewComponentRepo(store))
	if err == nil {
		t.Fatal("writeStatus swallowed the storage error")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("error = %v, want the storage failure", err)
	}
}
