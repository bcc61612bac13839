package protocol

import "testing"

func TestVersionOrdering(t *testing.T) {
	cases := []struct {
		a, b Version
		less bool
	}{
		{Version{0, 3, 9, ""}, Version{0, 3, 9, ""}, false},
		{Version{0, 3, 8, ""}, Version{0, 3, 9, ""}, true},
		{Version{0, 4, 0, ""}, Version{0, 3, 9, ""}, false},
		{Version{1, 0, 0, ""}, Version{0, 9, 9, ""}, false},
	}
	for _, c := range cases {
		if got := c.a.Less(c.b); got != c.less {
			t.Fatalf("%+v.Less(%+v) = %v, want %v", c.a, c.b, got, c.less)
		}
		if got := c.a.AtLeast(c.b); got == c.less {
			t.Fatalf("%+v.AtLeast(%+v) should be the negation of Less", c.a, c.b)
		}
	}
}
