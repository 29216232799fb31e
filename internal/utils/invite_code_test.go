package utils

import (
	"strings"
	"testing"
)

func TestGenerateInviteCode_Format(t *testing.T) {
	code, err := GenerateInviteCode()
	if err != nil {
		t.Fatalf("GenerateInviteCode() error = %v", err)
	}

	groups := strings.Split(code, "-")
	if len(groups) != 8 {
		t.Fatalf("expected 8 groups, got %d (%q)", len(groups), code)
	}
	for _, g := range groups {
		if len(g) != 4 {
			t.Errorf("group %q should be 4 chars", g)
		}
	}
}

func TestGenerateInviteCode_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateInviteCode()
		if err != nil {
			t.Fatalf("GenerateInviteCode() error = %v", err)
		}
		if seen[code] {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = true
	}
}
