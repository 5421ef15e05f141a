package utils

import "testing"

func TestEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	if !IsDev() || IsProd() {
		t.Fatal("empty ENVIRONMENT should be development")
	}
	if GetEnvironment() != "development" {
		t.Fatalf("GetEnvironment() = %q", GetEnvironment())
	}

	t.Setenv("ENVIRONMENT", "Production")
	if !IsProd() || IsDev() {
		t.Fatal("Production should be prod")
	}
}

func TestClientIP(t *testing.T) {
	cases := map[string]string{
		"10.0.0.1:5555": "10.0.0.1",
		"[::1]:8000":    "::1",
		"10.0.0.2":      "10.0.0.2",
	}
	for in, want := range cases {
		if got := ClientIP(in); got != want {
			t.Errorf("ClientIP(%q) = %q, want %q", in, got, want)
		}
	}
}
