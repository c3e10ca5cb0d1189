package sanitizer

import (
	"reflect"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain string", input: "Sala 1", want: "Sala 1"},
		{name: "surrounding whitespace", input: "  Sala 1  ", want: "Sala 1"},
		{name: "internal runs collapse", input: "Sala \t  MAC", want: "Sala MAC"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \t\n ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeLabName(t *testing.T) {
	if got := NormalizeLabName("  sala   mac "); got != "SALA MAC" {
		t.Errorf("NormalizeLabName = %q, want %q", got, "SALA MAC")
	}
	// Idempotent.
	if got := NormalizeLabName(NormalizeLabName("sala 2")); got != "SALA 2" {
		t.Errorf("NormalizeLabName not idempotent: %q", got)
	}
}

func TestNormalizeSoftwareList(t *testing.T) {
	got := NormalizeSoftwareList([]string{" MATLAB ", "matlab", "", "AutoCAD", "  "})
	want := []string{"matlab", "autocad"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeSoftwareList = %v, want %v", got, want)
	}
}

func TestNormalizeStringSlice_Empty(t *testing.T) {
	got := NormalizeStringSlice(nil, TrimAndNormalize)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}
