package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/graest/orcamento/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "plans.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func plan(nickname string) *model.Snapshot {
	p := model.NewSnapshot()
	p.Nickname = nickname
	p.Title = "Projeto " + nickname
	p.StartDate = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	p.EndDate = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	_ = p.Insert(model.Equipment, model.EquipmentItem{Name: "Servidor", Quantity: 1, UnitCost: 32000})
	p.Schedule = []model.MonthlyAllocation{
		{Month: 1, Amounts: map[model.Category]float64{model.Equipment: 32000}},
	}
	return p
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	p := plan("sensores")

	if err := s.Save(ctx, p); err != nil {
		t.Fatal(err)
	}

	for _, ref := range []string{p.ID, "sensores"} {
		got, err := s.Load(ctx, ref)
		if err != nil {
			t.Fatalf("Load(%q): %v", ref, err)
		}
		if got.ID != p.ID || got.Title != p.Title {
			t.Errorf("Load(%q) = %s %q", ref, got.ID, got.Title)
		}
		if !got.StartDate.Equal(p.StartDate) || got.Duration() != 12 {
			t.Errorf("dates = %v..%v", got.StartDate, got.EndDate)
		}
		if len(got.Equipment) != 1 || got.Equipment[0].UnitCost != 32000 {
			t.Errorf("Equipment = %+v", got.Equipment)
		}
		if got.Schedule[0].Amount(model.Equipment) != 32000 {
			t.Errorf("Schedule = %+v", got.Schedule)
		}
	}
}

func TestSave_Upserts(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	p := plan("a")
	if err := s.Save(ctx, p); err != nil {
		t.Fatal(err)
	}
	p.Title = "Novo título"
	if err := s.Save(ctx, p); err != nil {
		t.Fatal(err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("List = %d plans, want 1", len(list))
	}
	if list[0].Title != "Novo título" {
		t.Errorf("Title = %q", list[0].Title)
	}
	if list[0].StartDate.Format(dateLayout) != "2025-02-01" {
		t.Errorf("StartDate = %v", list[0].StartDate)
	}
}

func TestLoad_NotFound(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := s.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete err = %v, want ErrNotFound", err)
	}
}

func TestList_OrderedByNickname(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	for _, n := range []string{"zeta", "alfa", "mu"} {
		if err := s.Save(ctx, plan(n)); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].Nickname != "alfa" || list[2].Nickname != "zeta" {
		t.Fatalf("List = %+v", list)
	}
}

func TestExports_HistoryAndCascade(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	p := plan("b")
	if err := s.Save(ctx, p); err != nil {
		t.Fatal(err)
	}

	first := &ExportRecord{PlanID: p.ID, Filename: "financeiro-b.xlsx", Total: 42666.67, SizeBytes: 18000}
	if err := s.RecordExport(ctx, first); err != nil {
		t.Fatal(err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Fatalf("record not filled in: %+v", first)
	}
	second := &ExportRecord{PlanID: p.ID, Filename: "financeiro-b.xlsx", Total: 50000, SizeBytes: 18100,
		CreatedAt: first.CreatedAt.Add(time.Second)}
	if err := s.RecordExport(ctx, second); err != nil {
		t.Fatal(err)
	}

	history, err := s.Exports(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].ID != first.ID || history[1].Total != 50000 {
		t.Fatalf("history = %+v", history)
	}

	if err := s.Delete(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	history, err = s.Exports(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Fatalf("exports survived plan deletion: %+v", history)
	}
}

func TestRecordExport_UnknownPlan(t *testing.T) {
	s := openTemp(t)
	err := s.RecordExport(context.Background(), &ExportRecord{PlanID: "missing", Filename: "x.xlsx"})
	if err == nil {
		t.Fatal("expected foreign key error")
	}
}
