package quizgen

import "strings"

// Clean repairs the near-valid JSON that LLMs commonly emit: markdown code
// fences, prose around the payload, trailing commas before a closing
// bracket, and surrounding whitespace. It is a heuristic, not a JSON
// repairer; anything else is left for the parser to reject.
//
// Clean is idempotent: Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	s := raw
	for {
		next := cleanOnce(s)
		// Every step only removes bytes, so this terminates.
		if next == s {
			return s
		}
		s = next
	}
}

func cleanOnce(s string) string {
	s = strings.TrimSpace(s)
	s = stripFences(s)
	s = extractPayload(s)
	s = removeTrailingCommas(s)
	return strings.TrimSpace(s)
}

// stripFences removes a leading ```lang line and a trailing ``` marker.
func stripFences(s string) string {
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimLeft(s[3:], "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
		}
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(s[:len(s)-3])
	}
	return s
}

// extractPayload trims any prose before the first opening bracket and after
// the last closing bracket.
func extractPayload(s string) string {
	start := strings.IndexAny(s, "{[")
	end := strings.LastIndexAny(s, "}]")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// removeTrailingCommas drops a comma that is followed, after optional
// whitespace, by } or ]. Commas inside string literals are kept.
func removeTrailingCommas(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(s) && isJSONSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
