package gemini

// ExtractJSONObject scans free text for the first balanced brace-delimited
// substring. Models often wrap the requested JSON in prose or code fences, so
// this is a best-effort scan rather than a strict parser; the caller still
// validates with a real JSON unmarshal and degrades gracefully on failure.
func ExtractJSONObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start >= 0 {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		case '"':
			if start >= 0 {
				inString = true
			}
		}
	}

	return "", false
}
