package knowledge

import "testing"

func TestReorder(t *testing.T) {
	cases := []struct {
		name     string
		in       []int
		from, to int
		want     []int
		moved    bool
	}{
		{"forward", []int{0, 1, 2, 3}, 0, 2, []int{1, 2, 0, 3}, true},
		{"backward", []int{0, 1, 2, 3}, 3, 1, []int{0, 3, 1, 2}, true},
		{"adjacent", []int{0, 1}, 0, 1, []int{1, 0}, true},
		{"same index", []int{0, 1, 2}, 1, 1, []int{0, 1, 2}, false},
		{"from out of bounds", []int{0, 1}, 2, 0, []int{0, 1}, false},
		{"to out of bounds", []int{0, 1}, 0, -1, []int{0, 1}, false},
		{"empty", nil, 0, 0, nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := make([]int, len(tc.in))
			copy(got, tc.in)
			moved := Reorder(got, tc.from, tc.to)
			if moved != tc.moved {
				t.Errorf("moved=%v, want %v", moved, tc.moved)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestReorder_RoundTrip(t *testing.T) {
	orig := []string{"a", "b", "c", "d", "e"}
	for from := 0; from < len(orig); from++ {
		for to := 0; to < len(orig); to++ {
			got := make([]string, len(orig))
			copy(got, orig)
			Reorder(got, from, to)
			Reorder(got, to, from)
			for i := range orig {
				if got[i] != orig[i] {
					t.Fatalf("round trip (%d,%d) broke order: %v", from, to, got)
				}
			}
		}
	}
}
