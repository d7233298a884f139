package assembler

import "testing"

func TestLocation_String(t *testing.T) {
	cases := []struct {
		loc  Location
		want string
	}{
		{Loc("main.s", 12, 5), "main.s:12:5"},
		{Loc("main.s", 12, 0), "main.s:12"},
	}
	for _, c := range cases {
		if got := c.loc.String(); got != c.want {
			t.Errorf("Loc(...).String() = %q, want %q", got, c.want)
		}
	}
}

func TestModule_Loc_UsesTheModulesFilePath(t *testing.T) {
	m := NewModule("start.s")
	got := m.Loc(4, 2)
	want := Loc("start.s", 4, 2)
	if got != want {
		t.Errorf("m.Loc(4, 2) = %+v, want %+v", got, want)
	}
}
