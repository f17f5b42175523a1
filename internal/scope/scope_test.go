package scope

import (
	"errors"
	"testing"
)

func TestParseGlobal(t *testing.T) {
	s, err := Parse("global")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !s.IsGlobal() {
		t.Error("IsGlobal = false, want true")
	}
	if s.String() != "global" {
		t.Errorf("String = %q, want global", s.String())
	}
}

func TestParseProject(t *testing.T) {
	s, err := Parse("project:/home/user/src/app")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.IsGlobal() {
		t.Error("IsGlobal = true, want false")
	}
	if s.Path() != "/home/user/src/app" {
		t.Errorf("Path = %q", s.Path())
	}
	if s.String() != "project:/home/user/src/app" {
		t.Errorf("String = %q", s.String())
	}
}

func TestParseCleansPath(t *testing.T) {
	s, err := Parse("project:/home/user//src/app/")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want, _ := Project("/home/user/src/app")
	if s != want {
		t.Errorf("Parse = %v, want %v", s, want)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"project:",
		"project:relative/path",
		"Global",
		"workspace:/a",
		"global:extra",
	}
	for _, raw := range cases {
		if _, err := Parse(raw); !errors.Is(err, ErrInvalidScope) {
			t.Errorf("Parse(%q) = %v, want ErrInvalidScope", raw, err)
		}
	}
}

func TestVisibleIn(t *testing.T) {
	projA, _ := Project("/a")
	projB, _ := Project("/b")

	cases := []struct {
		record, query Scope
		want          bool
	}{
		{Global, Global, true},
		{Global, projA, true},
		{projA, projA, true},
		{projA, Global, false},
		{projA, projB, false},
	}
	for _, c := range cases {
		if got := c.record.VisibleIn(c.query); got != c.want {
			t.Errorf("%v visible in %v = %v, want %v", c.record, c.query, got, c.want)
		}
	}
}

func TestZeroValueIsGlobal(t *testing.T) {
	var s Scope
	if s != Global {
		t.Error("zero Scope != Global")
	}
}
