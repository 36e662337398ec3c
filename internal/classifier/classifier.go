package classifier

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Intent represents what the user wants done with a message
type Intent string

const (
	IntentLog       Intent = "log"
	IntentList      Intent = "list"
	IntentSummarize Intent = "summarize"
)

// Rule names the decision step that produced an intent
type Rule string

const (
	RuleCommand          Rule = "command"
	RuleSummarizeKeyword Rule = "summarize_keyword"
	RuleListKeyword      Rule = "list_keyword"
	RuleLogHeuristic     Rule = "log_heuristic"
	RuleDefault          Rule = "default"
)

// Decision is the classifier's verdict for one message
type Decision struct {
	Intent Intent `json:"intent"`
	// Payload is the text to act on: entry text for log, the question for
	// summarize (empty means the default question), unused for list.
	Payload string `json:"payload"`
	Rule    Rule   `json:"rule"`
}

// Implicit reports whether the log intent was inferred rather than commanded
func (d Decision) Implicit() bool {
	return d.Intent == IntentLog && d.Rule == RuleLogHeuristic
}

var commands = map[string]Intent{
	"/log":     IntentLog,
	"/entries": IntentList,
	"/sum":     IntentSummarize,
}

// Classifier performs rule-based intent classification. Rules are checked in
// a fixed order and the first match wins.
type Classifier struct {
	summarizePatterns []*regexp.Regexp
	listPatterns      []*regexp.Regexp
	symptomPatterns   []*regexp.Regexp
	timeHintPatterns  []*regexp.Regexp
	spaceNormalizer   *regexp.Regexp
}

// NewClassifier creates a new intent classifier
func NewClassifier() *Classifier {
	return &Classifier{
		spaceNormalizer: regexp.MustCompile(`\s+`),
		summarizePatterns: compilePatterns([]string{
			`\b(summarize|summary|trend|overview|doctor)\b`,
		}),
		listPatterns: compilePatterns([]string{
			`\b(show|list|entries|logs?)\b`,
		}),
		// keywords with their compounds and derived forms, so "backache" and
		// "nauseous" count while "number" and "painting" do not
		symptomPatterns: compilePatterns([]string{
			`\b(back|head|stomach|tummy|tooth|ear|belly|body|neck)?(ache|aching)(s|y)?\b`,
			`\bpain(s|ful|fully)?\b`,
			`\bnause(a|ous|ated|ating)\b`,
			`\b(numb|tingle|fever|dizzy|vomit|cough|fatigue|migraine|sore|cramp)(s|es|ed|ing|y|ish|ness)?\b`,
			`\b(tingling|tingly|vomiting|numbness|feverish|fatigued|dizziness)\b`,
		}),
		timeHintPatterns: compilePatterns([]string{
			`\b(today|yesterday|this morning|last night|since)\b`,
			`\bfor \d+ (days?|weeks?|hours?)\b`,
		}),
	}
}

// Classify decides the intent of text
func (c *Classifier) Classify(text string) Decision {
	original := strings.TrimSpace(text)
	normalized := c.normalizeText(text)

	if d, ok := c.command(original); ok {
		return d
	}

	if c.matchesPatterns(normalized, c.summarizePatterns) {
		return Decision{Intent: IntentSummarize, Payload: original, Rule: RuleSummarizeKeyword}
	}

	if c.matchesPatterns(normalized, c.listPatterns) {
		return Decision{Intent: IntentList, Rule: RuleListKeyword}
	}

	if c.matchesPatterns(normalized, c.symptomPatterns) || c.matchesPatterns(normalized, c.timeHintPatterns) {
		return Decision{Intent: IntentLog, Payload: original, Rule: RuleLogHeuristic}
	}

	return Decision{Intent: IntentSummarize, Payload: original, Rule: RuleDefault}
}

// command matches an explicit slash command on the first whitespace-delimited token
func (c *Classifier) command(original string) (Decision, bool) {
	fields := strings.Fields(original)
	if len(fields) == 0 {
		return Decision{}, false
	}

	intent, ok := commands[cases.Fold().String(fields[0])]
	if !ok {
		return Decision{}, false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(original, fields[0]))
	d := Decision{Intent: intent, Rule: RuleCommand}
	switch intent {
	case IntentLog:
		d.Payload = payload
		if d.Payload == "" {
			d.Payload = original
		}
	case IntentSummarize:
		d.Payload = payload
	}
	return d, true
}

// normalizeText preprocesses input text for classification
func (c *Classifier) normalizeText(input string) string {
	text := cases.Fold().String(input)
	text = strings.TrimSpace(text)
	text = c.spaceNormalizer.ReplaceAllString(text, " ")
	return text
}

// matchesPatterns checks if any pattern matches
func (c *Classifier) matchesPatterns(text string, patterns []*regexp.Regexp) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// compilePatterns compiles a slice of regex patterns
func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}
