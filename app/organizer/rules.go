package organizer

import (
	"net/url"
	"strings"

	"github.com/lysyi3m/bookmark-comb/app/database"
)

// RuleKind identifies which bookmark field a rule predicate inspects.
type RuleKind string

const (
	RuleURL      RuleKind = "url"      // URL contains keyword
	RuleURLIs    RuleKind = "url-is"   // URL starts with keyword
	RuleDomain   RuleKind = "domain"   // URL host contains keyword
	RuleTitle    RuleKind = "title"    // title contains keyword
	RulePath     RuleKind = "path"     // alias of url
	RuleContent  RuleKind = "content"  // fetched page text contains keyword
	RuleHomepage RuleKind = "homepage" // URL path is empty, "/" or an index file
)

// Rule is one user-authored classification rule: a single predicate and the
// category it routes to.
type Rule struct {
	Kind     RuleKind
	Keyword  string
	Category string
}

// RuleMatcher evaluates an ordered rule list against a bookmark. The first
// matching rule wins.
type RuleMatcher struct {
	rules []Rule
}

// NewRuleMatcher parses user-authored rule text, one rule per line in the
// form "kind: keyword -> Category/Path" ("homepage -> Category" needs no
// keyword). Malformed lines are ignored, not errored.
func NewRuleMatcher(text string) *RuleMatcher {
	return &RuleMatcher{rules: ParseRules(text)}
}

func ParseRules(text string) []Rule {
	var rules []Rule

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		condition, category, found := strings.Cut(line, "->")
		if !found {
			continue
		}
		category = NormalizeCategoryPath(category)
		if category == "" {
			continue
		}

		condition = strings.TrimSpace(condition)
		kindText, keyword, hasKeyword := strings.Cut(condition, ":")
		kind := RuleKind(strings.ToLower(strings.TrimSpace(kindText)))
		keyword = strings.TrimSpace(keyword)

		switch kind {
		case RuleHomepage:
			rules = append(rules, Rule{Kind: kind, Category: category})
		case RuleURL, RuleURLIs, RuleDomain, RuleTitle, RulePath, RuleContent:
			if !hasKeyword || keyword == "" {
				continue
			}
			rules = append(rules, Rule{Kind: kind, Keyword: keyword, Category: category})
		}
	}

	return rules
}

// Run returns the category of the first rule matching the bookmark, or
// ("", false) when no rule matches. Keyword matching is case-insensitive.
func (m *RuleMatcher) Run(bookmark *database.Node, pageContent string) (string, bool) {
	for _, rule := range m.rules {
		if m.matches(rule, bookmark, pageContent) {
			return rule.Category, true
		}
	}
	return "", false
}

func (m *RuleMatcher) matches(rule Rule, bookmark *database.Node, pageContent string) bool {
	keyword := strings.ToLower(rule.Keyword)

	switch rule.Kind {
	case RuleURL, RulePath:
		return strings.Contains(strings.ToLower(bookmark.URL), keyword)
	case RuleURLIs:
		return strings.HasPrefix(strings.ToLower(bookmark.URL), keyword)
	case RuleDomain:
		parsed, err := url.Parse(bookmark.URL)
		if err != nil {
			return false
		}
		return strings.Contains(strings.ToLower(parsed.Host), keyword)
	case RuleTitle:
		return strings.Contains(strings.ToLower(bookmark.Title), keyword)
	case RuleContent:
		return strings.Contains(strings.ToLower(pageContent), keyword)
	case RuleHomepage:
		return isHomepage(bookmark.URL)
	}

	return false
}

var indexFileNames = map[string]bool{
	"index.html":   true,
	"index.htm":    true,
	"index.php":    true,
	"default.html": true,
	"default.htm":  true,
}

func isHomepage(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := parsed.Path
	if path == "" || path == "/" {
		return true
	}

	base := strings.ToLower(path[strings.LastIndex(path, "/")+1:])
	return indexFileNames[base] && strings.Count(strings.Trim(path, "/"), "/") == 0
}
