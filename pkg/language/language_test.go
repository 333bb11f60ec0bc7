package language

import (
	"testing"

	"github.com/pradeepp3/CODATS/pkg/rules"
)

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func TestApplicableCategoryKeys(t *testing.T) {
	tests := []struct {
		language string
		count    int
		excludes []string
	}{
		{"js", 9, nil},
		{"javascript", 9, nil},
		{"JavaScript", 9, nil},
		{"  JS  ", 9, nil},
		{"py", 8, []string{rules.KeyXSS}},
		{"Python", 8, []string{rules.KeyXSS}},
		{"java", 7, []string{rules.KeyXSS, rules.KeyInsecureConfig}},
		{"PHP", 7, []string{rules.KeyInsecureCrypto, rules.KeyInsecureConfig}},
		{"typescript", 9, nil},
		{"cobol", 9, nil},
		{"", 9, nil},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			keys := ApplicableCategoryKeys(tt.language)
			if len(keys) != tt.count {
				t.Errorf("ApplicableCategoryKeys(%q) = %d keys, want %d", tt.language, len(keys), tt.count)
			}
			for _, ex := range tt.excludes {
				if contains(keys, ex) {
					t.Errorf("ApplicableCategoryKeys(%q) should not contain %s", tt.language, ex)
				}
			}
			for _, k := range keys {
				if _, ok := rules.ByKey(k); !ok {
					t.Errorf("key %s is not in the catalog", k)
				}
			}
		})
	}
}

func TestApplicableCategoryKeys_ReturnsCopy(t *testing.T) {
	keys := ApplicableCategoryKeys("js")
	keys[0] = "mutated"

	if ApplicableCategoryKeys("js")[0] != rules.KeySQLInjection {
		t.Error("language table was mutated through returned slice")
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"app.js", "javascript"},
		{"Component.JSX", "javascript"},
		{"index.ts", "typescript"},
		{"view.tsx", "typescript"},
		{"main.py", "python"},
		{"Main.java", "java"},
		{"index.php", "php"},
		{"server.rb", "ruby"},
		{"main.go", "go"},
		{"lib.rs", "rust"},
		{"util.c", "c"},
		{"util.cpp", "cpp"},
		{"engine.cc", "cpp"},
		{"Program.cs", "csharp"},
		{"README", "javascript"},
		{"notes.txt", "javascript"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := Detect(tt.filename); got != tt.want {
				t.Errorf("Detect(%q) = %s, want %s", tt.filename, got, tt.want)
			}
		})
	}
}

func TestIsSupportedFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"a.js", true},
		{"a.PY", true},
		{"dir/a.cs", true},
		{"a.cc", true},
		{"a.txt", false},
		{"a.rs", false},
		{"Makefile", false},
	}

	for _, tt := range tests {
		if got := IsSupportedFile(tt.filename); got != tt.want {
			t.Errorf("IsSupportedFile(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestSupported(t *testing.T) {
	langs := Supported()
	if len(langs) != 10 {
		t.Fatalf("expected 10 supported languages, got %d", len(langs))
	}
	if langs[0].ID != "javascript" {
		t.Errorf("first language = %s, want javascript", langs[0].ID)
	}
	for _, l := range langs {
		if len(l.Extensions) == 0 {
			t.Errorf("language %s has no extensions", l.ID)
		}
	}
}

func TestSupported_ExtensionsAccepted(t *testing.T) {
	accepted := make(map[string]bool)
	for _, ext := range SupportedExtensions() {
		accepted[ext] = true
	}

	for _, l := range Supported() {
		for _, ext := range l.Extensions {
			name := "file" + ext
			if !IsSupportedFile(name) || !accepted[ext] {
				t.Errorf("%s advertises %s but it is not accepted", l.ID, ext)
			}
			if got := Detect(name); got != l.ID {
				t.Errorf("Detect(%q) = %s, want %s", name, got, l.ID)
			}
		}
	}
}
