package ai

import "strings"

// ExtractJSON pulls a JSON document out of free-form model text. Strategies
// are tried in order: fenced code block, balanced-brace object scan,
// balanced-bracket array scan. The boolean is false when no JSON-shaped span
// exists; callers must handle absence explicitly.
func ExtractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if fenced, ok := extractFenced(text); ok {
		text = fenced
	}

	if span, ok := balancedSpan(text, '{', '}'); ok {
		return span, true
	}
	if span, ok := balancedSpan(text, '[', ']'); ok {
		return span, true
	}
	return "", false
}

// extractFenced returns the body of the first markdown code fence, if any.
func extractFenced(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	// Skip a language tag on the fence line.
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine == "" || (len(firstLine) < 20 && !strings.ContainsAny(firstLine, " {[")) {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedSpan finds the first balanced open..close span, tracking string
// literals and escapes so braces inside strings don't close the span.
func balancedSpan(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
