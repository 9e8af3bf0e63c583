package profile

import "testing"

func TestLoad_Builtins(t *testing.T) {
	for _, name := range []string{"general", "academic", "business", "casual"} {
		p, err := Load(name)
		if err != nil {
			t.Errorf("Load(%q): unexpected error %v", name, err)
			continue
		}
		if p.Name != name {
			t.Errorf("Load(%q).Name = %q", name, p.Name)
		}
		if p.SystemPromptAddendum == "" {
			t.Errorf("Load(%q): empty SystemPromptAddendum", name)
		}
		if p.DefaultLevel == "" {
			t.Errorf("Load(%q): empty DefaultLevel", name)
		}
	}
}

func TestLoad_Unknown(t *testing.T) {
	if _, err := Load("poetry"); err == nil {
		t.Error("Load(\"poetry\"): expected error, got nil")
	}
	if _, err := Load(""); err == nil {
		t.Error("Load(\"\"): expected error, got nil")
	}
}
