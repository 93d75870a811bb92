package prompt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// SplitIdeas assigns each line starting with "n." or "n)" to slot n-1. Later
// lines overwrite earlier ones for the same n; unmatched slots stay empty.
func SplitIdeas(text string, slots int) []string {
	ideas := make([]string, max(slots, 0))
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		for n := 1; n <= slots; n++ {
			marker := strconv.Itoa(n)
			if strings.HasPrefix(line, marker+".") || strings.HasPrefix(line, marker+")") {
				ideas[n-1] = strings.TrimSpace(line[len(marker)+1:])
				break
			}
		}
	}
	return ideas
}

// segmentForm is one way an LLM labels segment n: a start marker followed by
// text that runs until the marker for n+1 or the end of the reply.
type segmentForm struct {
	start string
	next  string
}

var segmentForms = []segmentForm{
	{start: `(?is)SEGMENT\s*%d\s*[:\-]\s*`, next: `(?is)SEGMENT\s*%d`},
	{start: `(?s)%d\.\s*`, next: `%d\.`},
}

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

func compiled(format string, n int) *regexp.Regexp {
	expr := fmt.Sprintf(format, n)
	patternMu.Lock()
	defer patternMu.Unlock()
	re, ok := patternCache[expr]
	if !ok {
		re = regexp.MustCompile(expr)
		patternCache[expr] = re
	}
	return re
}

// SplitSegments extracts up to slots segments, trying the "SEGMENT n:" form
// before the bare "n." form. Parsing never fails; unmatched slots stay empty.
func SplitSegments(text string, slots int) []string {
	segments := make([]string, max(slots, 0))
	for n := 1; n <= slots; n++ {
		for _, form := range segmentForms {
			if body, ok := matchSegment(text, form, n); ok {
				segments[n-1] = body
				break
			}
		}
	}
	return segments
}

func matchSegment(text string, form segmentForm, n int) (string, bool) {
	loc := compiled(form.start, n).FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	if end := compiled(form.next, n+1).FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return strings.TrimSpace(rest), true
}
