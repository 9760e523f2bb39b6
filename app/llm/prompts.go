package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const sampleContentLength = 600

func buildProposePrompts(samples []Sample, maxCount, maxDepth int, lang string) (string, string) {
	systemPrompt := fmt.Sprintf(`You design a folder taxonomy for a bookmark collection.
Given sample pages, propose at most %d category paths, each at most %d levels deep.
Use "/" to separate levels (e.g. "Technology/Programming").
Category names must be in %s.
Prefer broad, reusable topics over one-off categories.

Respond with JSON only (no markdown):
["Technology/Programming", "Design", ...]`, maxCount, maxDepth, languageName(lang))

	var sampleLines strings.Builder
	for _, sample := range samples {
		content := sample.Content
		if len(content) > sampleContentLength {
			content = content[:sampleContentLength] + "..."
		}
		sampleLines.WriteString(fmt.Sprintf("- %s (%s): %s\n", sample.Title, sample.URL, content))
	}

	userPrompt := "Propose categories for a collection containing pages like these:\n\n" + sampleLines.String()
	return systemPrompt, userPrompt
}

func buildClassifyPrompts(title, url, content string, existing []string, maxDepth int, lang string) (string, string) {
	var categoryLines strings.Builder
	for _, category := range existing {
		categoryLines.WriteString("- " + category + "\n")
	}
	categoryBlock := categoryLines.String()
	if categoryBlock == "" {
		categoryBlock = "none\n"
	}

	systemPrompt := fmt.Sprintf(`You classify a bookmark into one category path.
Existing categories:
%s
Prefer an existing category when it fits well. Only propose a new path
(at most %d levels, "/"-separated, names in %s) if nothing existing is appropriate.

Respond with JSON only (no markdown):
{"category": "Technology/Programming", "reason": "short justification"}`, categoryBlock, maxDepth, languageName(lang))

	userPrompt := fmt.Sprintf("Classify this bookmark:\n\nTitle: %s\nURL: %s\nContent: %s", title, url, content)
	return systemPrompt, userPrompt
}

func parseCategoriesResponse(responseText string) ([]string, error) {
	cleaned := stripFences(responseText)

	var parsed []string
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("parsing category proposal response: %w (response: %s)", err, cleaned)
	}

	var categories []string
	for _, category := range parsed {
		category = strings.Trim(strings.TrimSpace(category), "/")
		if category != "" {
			categories = append(categories, category)
		}
	}

	if len(categories) == 0 {
		return nil, fmt.Errorf("model proposed no categories (response: %s)", cleaned)
	}

	return categories, nil
}

type classifyResponse struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

func parseClassifyResponse(responseText string) (*Result, error) {
	cleaned := stripFences(responseText)

	var parsed classifyResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("parsing classify response: %w (response: %s)", err, cleaned)
	}

	path := strings.Trim(strings.TrimSpace(parsed.Category), "/")
	if path == "" {
		return nil, fmt.Errorf("model returned no category (response: %s)", cleaned)
	}

	return &Result{Path: path, Reason: strings.TrimSpace(parsed.Reason)}, nil
}

func stripFences(responseText string) string {
	cleaned := strings.TrimSpace(responseText)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// languageName turns a BCP 47 tag into its English display name for use in
// prompts ("de" -> "German"). Unparseable tags pass through unchanged.
func languageName(lang string) string {
	if lang == "" {
		return "English"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return lang
	}
	return name
}
