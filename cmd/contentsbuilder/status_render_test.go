package main

import "testing"

func TestFormatCheck(t *testing.T) {
	cases := []struct {
		name     string
		outcome  checkOutcome
		detail   string
		colorize bool
		want     string
	}{
		{"pass", outcomePass, "ok", false, "  PASS  Workbook: ok"},
		{"fail without detail", outcomeFail, "", false, "  FAIL  Workbook"},
		{"colored label only", outcomeSkip, "x", true, "  \x1b[90mSKIP\x1b[0m  Workbook: x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatCheck("Workbook", tc.outcome, tc.detail, tc.colorize); got != tc.want {
				t.Fatalf("formatCheck = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestShouldColorizeRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if shouldColorize(nil) {
		t.Fatal("expected NO_COLOR to disable color")
	}
}
