package symptoms

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
	log "github.com/sirupsen/logrus"
)

var (
	// explicitStampPattern finds "YYYY-MM-DD HH:MM" (or T-separated) with optional seconds and zone.
	explicitStampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:\s?(?:Z|[+-]\d{2}:?\d{2}))?`)

	zonedLayouts = []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04Z0700",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}

	meridiemOnly = regexp.MustCompile(`(?i)^\W*\d{1,2}\s*(a\.?m\.?|p\.?m\.?)\W*$`)
)

type phraseRule struct {
	pattern *regexp.Regexp
	resolve func(now time.Time) time.Time
}

// phraseRules are evaluated in order and the first match wins, so
// "yesterday ... this morning" resolves to this morning.
var phraseRules = []phraseRule{
	{regexp.MustCompile(`\bthis morning\b`), func(now time.Time) time.Time { return atHour(now, 0, 8) }},
	{regexp.MustCompile(`\bthis afternoon\b`), func(now time.Time) time.Time { return atHour(now, 0, 15) }},
	{regexp.MustCompile(`\b(tonight|this evening)\b`), func(now time.Time) time.Time { return atHour(now, 0, 20) }},
	{regexp.MustCompile(`\blast night\b`), func(now time.Time) time.Time { return atHour(now, -1, 22) }},
	{regexp.MustCompile(`\byesterday\b`), func(now time.Time) time.Time { return atHour(now, -1, 12) }},
	{regexp.MustCompile(`\b(now|today)\b`), func(now time.Time) time.Time { return now }},
}

// TimeNormalizer turns absolute timestamps and loose time phrases into UTC instants
type TimeNormalizer struct {
	now    func() time.Time
	parser *when.Parser
}

// NewTimeNormalizer creates a normalizer; now defaults to time.Now
func NewTimeNormalizer(now func() time.Time) *TimeNormalizer {
	if now == nil {
		now = time.Now
	}

	parser := when.New(nil)
	parser.Add(en.All...)

	return &TimeNormalizer{
		now:    now,
		parser: parser,
	}
}

// Normalize resolves text in the source location and returns the instant in UTC.
// A nil location means UTC.
func (n *TimeNormalizer) Normalize(text string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, &UnparseableTimeError{Text: text}
	}

	if stamp := explicitStampPattern.FindString(trimmed); stamp != "" {
		t, ok := parseExplicit(stamp, loc)
		if !ok {
			return time.Time{}, &UnparseableTimeError{Text: text}
		}
		return t.UTC(), nil
	}

	now := n.now().In(loc)
	lower := strings.ToLower(trimmed)
	for _, rule := range phraseRules {
		if rule.pattern.MatchString(lower) {
			return rule.resolve(now).UTC(), nil
		}
	}

	t, ok := n.parseFreeText(trimmed, now)
	if !ok {
		return time.Time{}, &UnparseableTimeError{Text: text}
	}
	return t.UTC(), nil
}

// parseFreeText tries whole-string absolute formats first, then time expressions embedded in prose.
func (n *TimeNormalizer) parseFreeText(text string, now time.Time) (time.Time, bool) {
	if t, err := dateparse.ParseIn(text, now.Location()); err == nil {
		return t, true
	}

	res, err := n.parser.Parse(text, now)
	if err != nil {
		log.Debugf("free-text time parse failed: %v", err)
		return time.Time{}, false
	}
	if res == nil {
		return time.Time{}, false
	}

	t := res.Time.Truncate(time.Minute)
	if meridiemOnly.MatchString(res.Text) {
		y, m, d := t.Date()
		t = time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
	}
	return t, true
}

func parseExplicit(stamp string, loc *time.Location) (time.Time, bool) {
	s := strings.Replace(stamp, " ", "T", 1)
	s = strings.ReplaceAll(s, " ", "")

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func atHour(now time.Time, dayOffset, hour int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+dayOffset, hour, 0, 0, 0, now.Location())
}

// LoadLocation resolves an IANA zone name, falling back when the name is empty or unknown.
func LoadLocation(name string, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warnf("Unknown timezone %q, using %s", name, fallback)
		return fallback
	}
	return loc
}
