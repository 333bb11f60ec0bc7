// Package language maps language identifiers and file names to the rule
// categories that apply to them.
package language

import (
	"path/filepath"
	"strings"

	"github.com/pradeepp3/CODATS/pkg/rules"
)

// Default is the language assumed when none is given.
const Default = "javascript"

var (
	jsRules = []string{
		rules.KeySQLInjection,
		rules.KeyXSS,
		rules.KeyHardcodedCredentials,
		rules.KeyCommandInjection,
		rules.KeyUnsafeFunctions,
		rules.KeyPathTraversal,
		rules.KeyInsecureCrypto,
		rules.KeyInsecureConfig,
		rules.KeyInformationDisclosure,
	}
	pythonRules = []string{
		rules.KeySQLInjection,
		rules.KeyHardcodedCredentials,
		rules.KeyCommandInjection,
		rules.KeyUnsafeFunctions,
		rules.KeyPathTraversal,
		rules.KeyInsecureCrypto,
		rules.KeyInsecureConfig,
		rules.KeyInformationDisclosure,
	}
	javaRules = []string{
		rules.KeySQLInjection,
		rules.KeyHardcodedCredentials,
		rules.KeyCommandInjection,
		rules.KeyUnsafeFunctions,
		rules.KeyPathTraversal,
		rules.KeyInsecureCrypto,
		rules.KeyInformationDisclosure,
	}
	phpRules = []string{
		rules.KeySQLInjection,
		rules.KeyXSS,
		rules.KeyHardcodedCredentials,
		rules.KeyCommandInjection,
		rules.KeyUnsafeFunctions,
		rules.KeyPathTraversal,
		rules.KeyInformationDisclosure,
	}
)

// languageRules is keyed by lower-case language id.
var languageRules = map[string][]string{
	"js":         jsRules,
	"javascript": jsRules,
	"py":         pythonRules,
	"python":     pythonRules,
	"java":       javaRules,
	"php":        phpRules,
}

// ApplicableCategoryKeys returns the rule category keys that apply to the
// given language. Lookup ignores case and surrounding whitespace; unknown
// languages get the JavaScript set.
func ApplicableCategoryKeys(languageID string) []string {
	keys, ok := languageRules[strings.ToLower(strings.TrimSpace(languageID))]
	if !ok {
		keys = jsRules
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// extensionLanguages maps lower-case file extensions (without the dot) to
// language ids.
var extensionLanguages = map[string]string{
	"js":   "javascript",
	"jsx":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"py":   "python",
	"java": "java",
	"php":  "php",
	"rb":   "ruby",
	"go":   "go",
	"rs":   "rust",
	"c":    "c",
	"cpp":  "cpp",
	"cc":   "cpp",
	"cs":   "csharp",
}

// Detect returns the language id for a file name based on its extension,
// falling back to Default.
func Detect(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return Default
}

// uploadExtensions is the allow-list for uploaded and watched files.
var uploadExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".py": true, ".java": true, ".php": true, ".rb": true,
	".go": true, ".c": true, ".cpp": true, ".cc": true, ".cs": true,
}

// IsSupportedFile reports whether a file name has an extension the scanner accepts.
func IsSupportedFile(filename string) bool {
	return uploadExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SupportedExtensions returns the accepted file extensions in a stable order.
func SupportedExtensions() []string {
	return []string{".js", ".jsx", ".ts", ".tsx", ".py", ".java", ".php", ".rb", ".go", ".c", ".cpp", ".cc", ".cs"}
}

// Info describes a language offered to clients.
type Info struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// Supported returns the languages advertised to clients.
func Supported() []Info {
	return []Info{
		{ID: "javascript", Name: "JavaScript", Extensions: []string{".js", ".jsx"}},
		{ID: "typescript", Name: "TypeScript", Extensions: []string{".ts", ".tsx"}},
		{ID: "python", Name: "Python", Extensions: []string{".py"}},
		{ID: "java", Name: "Java", Extensions: []string{".java"}},
		{ID: "php", Name: "PHP", Extensions: []string{".php"}},
		{ID: "go", Name: "Go", Extensions: []string{".go"}},
		{ID: "ruby", Name: "Ruby", Extensions: []string{".rb"}},
		{ID: "c", Name: "C", Extensions: []string{".c"}},
		{ID: "cpp", Name: "C++", Extensions: []string{".cpp", ".cc"}},
		{ID: "csharp", Name: "C#", Extensions: []string{".cs"}},
	}
}
