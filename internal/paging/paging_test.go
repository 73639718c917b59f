package paging

import "testing"

func TestWindow(t *testing.T) {
	cases := []struct {
		name                 string
		total, offset, limit int
		start, end           int
	}{
		{"full", 5, 0, 10, 0, 5},
		{"middle", 5, 1, 2, 1, 3},
		{"offset at end", 5, 5, 2, 5, 5},
		{"offset beyond", 5, 9, 2, 5, 5},
		{"zero limit", 5, 0, 0, 5, 5},
		{"negative offset", 5, -3, 2, 0, 2},
		{"empty", 0, 0, 10, 0, 0},
	}
	for _, tc := range cases {
		start, end := Window(tc.total, tc.offset, tc.limit)
		if start != tc.start || end != tc.end {
			t.Fatalf("%s: expected [%d,%d), got [%d,%d)", tc.name, tc.start, tc.end, start, end)
		}
	}
}

func TestSliceCopies(t *testing.T) {
	items := []int{1, 2, 3}
	page := Slice(items, 0, 2)
	page[0] = 99
	if items[0] != 1 {
		t.Fatalf("page must not alias the source slice")
	}
	if len(Slice(items, 7, 2)) != 0 {
		t.Fatalf("expected empty page past the end")
	}
}

func TestLimit(t *testing.T) {
	if Limit(0, 50) != 50 || Limit(500, 50) != 50 || Limit(10, 50) != 10 {
		t.Fatalf("unexpected limit clamping")
	}
}
