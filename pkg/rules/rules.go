// Package rules holds the static vulnerability rule catalog used by the CODATS scanner.
package rules

import "strings"

// Severity represents how serious a vulnerability category is.
type Severity string

const (
	Critical Severity = "Critical"
	High     Severity = "High"
	Medium   Severity = "Medium"
	Low      Severity = "Low"
)

// Severities returns all known severities, most severe first.
func Severities() []Severity {
	return []Severity{Critical, High, Medium, Low}
}

// Category keys. These appear in scan output as the finding's ruleKey.
const (
	KeySQLInjection          = "sqlInjection"
	KeyXSS                   = "xss"
	KeyHardcodedCredentials  = "hardcodedCredentials"
	KeyCommandInjection      = "commandInjection"
	KeyUnsafeFunctions       = "unsafeFunctions"
	KeyPathTraversal         = "pathTraversal"
	KeyInsecureCrypto        = "insecureCrypto"
	KeyInsecureConfig        = "insecureConfig"
	KeyInformationDisclosure = "informationDisclosure"
)

// Category is a named class of vulnerability with an ordered list of matchers.
type Category struct {
	Key           string
	Name          string
	Severity      Severity
	SeverityScore int
	Matchers      []Matcher
	Fix           string
}

// catalog is built once at package init and never modified afterwards.
var catalog = buildCatalog()

// All returns every category in catalog order.
func All() []Category {
	out := make([]Category, len(catalog))
	for i, c := range catalog {
		out[i] = c.clone()
	}
	return out
}

// Keys returns every category key in catalog order.
func Keys() []string {
	keys := make([]string, len(catalog))
	for i, c := range catalog {
		keys[i] = c.Key
	}
	return keys
}

// ByKey looks up a category by its key.
func ByKey(key string) (Category, bool) {
	for _, c := range catalog {
		if c.Key == key {
			return c.clone(), true
		}
	}
	return Category{}, false
}

// BySeverity returns the categories with the given severity. The comparison
// ignores case, so "critical" and "Critical" are equivalent.
func BySeverity(severity string) []Category {
	var out []Category
	for _, c := range catalog {
		if strings.EqualFold(string(c.Severity), strings.TrimSpace(severity)) {
			out = append(out, c.clone())
		}
	}
	return out
}

// clone copies the matcher slice so callers cannot reorder the shared catalog.
func (c Category) clone() Category {
	matchers := make([]Matcher, len(c.Matchers))
	copy(matchers, c.Matchers)
	c.Matchers = matchers
	return c
}
