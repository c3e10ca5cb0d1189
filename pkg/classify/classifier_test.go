package classify

import "testing"

func testRules() []Rule {
	return []Rule{
		{Keywords: []string{"sistemas", "programación", "redes"}, SchoolCode: "ING"},
		{Keywords: []string{"enfermería", "anatomía", "salud"}, SchoolCode: "SAL"},
		{Keywords: []string{"derecho", "legal"}, SchoolCode: "DER"},
	}
}

func TestClassify(t *testing.T) {
	c := New(testRules(), "TC")

	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{name: "single keyword", subject: "Programación Avanzada", want: "ING"},
		{name: "case-insensitive", subject: "DERECHO CONSTITUCIONAL", want: "DER"},
		{name: "keyword inside sentence", subject: "Fundamentos de Redes de Datos", want: "ING"},
		{name: "no match falls back", subject: "Matemáticas I", want: "TC"},
		{name: "empty subject falls back", subject: "", want: "TC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.subject); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.subject, got, tt.want)
			}
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	c := New(testRules(), "TC")

	// Subject matches both ING ("sistemas") and SAL ("salud"); rule order
	// decides, not match position within the subject.
	if got := c.Classify("Salud y Sistemas de Información"); got != "ING" {
		t.Errorf("expected first rule to win, got %q", got)
	}
}

func TestClassify_EmptyRuleTable(t *testing.T) {
	c := New(nil, "TC")
	if got := c.Classify("anything"); got != "TC" {
		t.Errorf("expected fallback with empty table, got %q", got)
	}
}
