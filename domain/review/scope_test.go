package review

import "testing"

func TestParseScopeLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    ScopeLevel
		wantErr bool
	}{
		{"file", ScopeFile, false},
		{"module", ScopeModule, false},
		{"repo", ScopeRepo, false},
		{"", "", true},
		{"repository", "", true},
		{"FILE", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseScopeLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScopeLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseScopeLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestScopeLevel_Widen(t *testing.T) {
	if ScopeFile.Widen() != ScopeModule {
		t.Errorf("file.Widen() = %v, want module", ScopeFile.Widen())
	}
	if ScopeModule.Widen() != ScopeRepo {
		t.Errorf("module.Widen() = %v, want repo", ScopeModule.Widen())
	}
	if ScopeRepo.Widen() != ScopeRepo {
		t.Errorf("repo.Widen() = %v, want repo", ScopeRepo.Widen())
	}
}

func TestNewScope_Fields(t *testing.T) {
	s := NewScope(ScopeModule, []string{"pkg/a.go", "pkg/b.go"})

	if s.Level() != ScopeModule {
		t.Errorf("Level() = %v, want module", s.Level())
	}
	if s.FileCount() != 2 {
		t.Errorf("FileCount() = %d, want 2", s.FileCount())
	}
	if s.Escalated() {
		t.Error("Escalated() should be false for a fresh scope")
	}
	if s.EscalationReason() != "" {
		t.Errorf("EscalationReason() = %q, want empty", s.EscalationReason())
	}
}

func TestNewScope_CopiesFiles(t *testing.T) {
	paths := []string{"a.go"}
	s := NewScope(ScopeFile, paths)

	paths[0] = "modified.go"
	if s.Files()[0] != "a.go" {
		t.Error("NewScope should copy the file slice")
	}

	got := s.Files()
	got[0] = "mutated.go"
	if s.Files()[0] != "a.go" {
		t.Error("Files() should return a copy")
	}
}

func TestScope_WithEscalation(t *testing.T) {
	s := NewScope(ScopeFile, []string{"auth/login.go"})
	escalated := s.WithEscalation(ScopeModule, "security-sensitive paths changed")

	if !escalated.Escalated() {
		t.Error("Escalated() should be true after WithEscalation")
	}
	if escalated.Level() != ScopeModule {
		t.Errorf("Level() = %v, want module", escalated.Level())
	}
	if escalated.EscalationReason() != "security-sensitive paths changed" {
		t.Errorf("EscalationReason() = %q", escalated.EscalationReason())
	}

	// Original is unchanged
	if s.Escalated() {
		t.Error("WithEscalation should not mutate the original")
	}
	if s.Level() != ScopeFile {
		t.Errorf("original Level() = %v, want file", s.Level())
	}
}
