package spend

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRecordAccumulatesInPlace(t *testing.T) {
	r := NewRegistry()
	one := decimal.NewFromInt(1)

	r.Record("acc1", one)
	for _, u := range []string{"acc1", "acc2", "acc3"} {
		r.Record(u, one)
	}
	for _, u := range []string{"acc1", "acc2", "acc3"} {
		r.Record(u, one)
	}

	users, total := r.List(0, 10)
	if total != 3 || len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", total)
	}
	if users[0].User != "acc1" || !users[0].Spent.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected first record: %+v", users[0])
	}
	if !users[1].Spent.Equal(decimal.NewFromInt(2)) || !users[2].Spent.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("unexpected spend for later users: %+v", users)
	}
	if users[1].User == users[2].User {
		t.Fatalf("duplicate user records")
	}
}

func TestListPaging(t *testing.T) {
	r := NewRegistry()
	for _, u := range []string{"a", "b", "c", "d"} {
		r.Record(u, decimal.NewFromInt(1))
	}
	page, total := r.List(2, 5)
	if total != 4 || len(page) != 2 || page[0].User != "c" {
		t.Fatalf("unexpected page %+v total %d", page, total)
	}
	page, total = r.List(10, 5)
	if total != 4 || len(page) != 0 {
		t.Fatalf("expected empty page past the end, got %+v", page)
	}
}

func TestTopDoesNotReorderStorage(t *testing.T) {
	r := NewRegistry()
	r.Record("low", decimal.NewFromInt(1))
	r.Record("high", decimal.NewFromInt(9))
	r.Record("mid", decimal.NewFromInt(5))

	top := r.Top(2)
	if len(top) != 2 || top[0].User != "high" || top[1].User != "mid" {
		t.Fatalf("unexpected ranking: %+v", top)
	}
	all, _ := r.List(0, 10)
	if all[0].User != "low" {
		t.Fatalf("top must not reorder first-seen order")
	}
}

func TestFromRecords(t *testing.T) {
	src := NewRegistry()
	src.Record("x", decimal.RequireFromString("0.5"))
	src.Record("y", decimal.NewFromInt(2))
	restored := FromRecords(src.Records())
	if !restored.Spent("x").Equal(decimal.RequireFromString("0.5")) || restored.Len() != 2 {
		t.Fatalf("unexpected restored registry: %+v", restored.Records())
	}
}
