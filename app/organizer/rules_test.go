package organizer

import (
	"testing"

	"github.com/lysyi3m/bookmark-comb/app/database"
)

func TestParseRules(t *testing.T) {
	text := `# routing rules
domain: github.com -> Technology/Programming
title: recipe -> Cooking
homepage -> Homepages

malformed line without arrow
url: -> MissingKeyword
unknown: foo -> Bar
`

	rules := ParseRules(text)

	if len(rules) != 3 {
		t.Fatalf("Expected 3 parsed rules, got %d: %v", len(rules), rules)
	}
	if rules[0].Kind != RuleDomain || rules[0].Keyword != "github.com" || rules[0].Category != "Technology/Programming" {
		t.Errorf("Unexpected first rule: %+v", rules[0])
	}
	if rules[1].Kind != RuleTitle || rules[1].Keyword != "recipe" {
		t.Errorf("Unexpected second rule: %+v", rules[1])
	}
	if rules[2].Kind != RuleHomepage || rules[2].Keyword != "" || rules[2].Category != "Homepages" {
		t.Errorf("Unexpected homepage rule: %+v", rules[2])
	}
}

func TestRuleMatcher_Run_FirstMatchWins(t *testing.T) {
	matcher := NewRuleMatcher(`domain: github.com -> First
url: github -> Second`)

	bookmark := &database.Node{URL: "https://github.com/golang/go", Title: "golang/go"}

	category, matched := matcher.Run(bookmark, "")
	if !matched {
		t.Fatal("Expected a rule to match")
	}
	if category != "First" {
		t.Errorf("Expected earlier rule to win, got %q", category)
	}
}

func TestRuleMatcher_Run_Kinds(t *testing.T) {
	scenarios := []struct {
		name     string
		rules    string
		bookmark database.Node
		content  string
		want     string
		matched  bool
	}{
		{
			name:     "url contains",
			rules:    "url: /blog/ -> Blogs",
			bookmark: database.Node{URL: "https://example.com/Blog/post-1"},
			want:     "Blogs",
			matched:  true,
		},
		{
			name:     "url-is prefix",
			rules:    "url-is: https://news.ycombinator.com -> News",
			bookmark: database.Node{URL: "https://news.ycombinator.com/item?id=1"},
			want:     "News",
			matched:  true,
		},
		{
			name:     "url-is no match mid-url",
			rules:    "url-is: ycombinator -> News",
			bookmark: database.Node{URL: "https://news.ycombinator.com"},
			matched:  false,
		},
		{
			name:     "domain",
			rules:    "domain: Dribbble -> Design/UI",
			bookmark: database.Node{URL: "https://dribbble.com/shots"},
			want:     "Design/UI",
			matched:  true,
		},
		{
			name:     "domain does not match path",
			rules:    "domain: shots -> Design",
			bookmark: database.Node{URL: "https://dribbble.com/shots"},
			matched:  false,
		},
		{
			name:     "title case-insensitive",
			rules:    "title: RECIPE -> Cooking",
			bookmark: database.Node{Title: "Best pasta recipe ever"},
			want:     "Cooking",
			matched:  true,
		},
		{
			name:     "content",
			rules:    "content: kubernetes -> Technology/DevOps",
			bookmark: database.Node{URL: "https://example.com"},
			content:  "A guide to Kubernetes operators",
			want:     "Technology/DevOps",
			matched:  true,
		},
		{
			name:     "homepage root path",
			rules:    "homepage -> Homepages",
			bookmark: database.Node{URL: "https://example.com/"},
			want:     "Homepages",
			matched:  true,
		},
		{
			name:     "homepage index file",
			rules:    "homepage -> Homepages",
			bookmark: database.Node{URL: "https://example.com/index.html"},
			want:     "Homepages",
			matched:  true,
		},
		{
			name:     "homepage deep path no match",
			rules:    "homepage -> Homepages",
			bookmark: database.Node{URL: "https://example.com/docs/index.html"},
			matched:  false,
		},
	}

	for _, scenario := range scenarios {
		matcher := NewRuleMatcher(scenario.rules)
		category, matched := matcher.Run(&scenario.bookmark, scenario.content)

		if matched != scenario.matched {
			t.Errorf("%s: expected matched=%v, got %v", scenario.name, scenario.matched, matched)
			continue
		}
		if matched && category != scenario.want {
			t.Errorf("%s: expected category %q, got %q", scenario.name, scenario.want, category)
		}
	}
}

func TestRuleMatcher_Run_NoRules(t *testing.T) {
	matcher := NewRuleMatcher("")

	if _, matched := matcher.Run(&database.Node{URL: "https://example.com"}, ""); matched {
		t.Error("Empty rule set must never match")
	}
}
