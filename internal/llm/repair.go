package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Repair recovers syntactically valid JSON from raw model output on a
// best-effort basis. It never fails: stages run in order of increasing
// aggressiveness, each followed by a trial parse, and the first stage whose
// output parses wins. If nothing structural survives, a minimal known-field
// salvage runs, and as a last resort a zero-value object is returned.
func Repair(text string) string {
	candidate := strings.TrimSpace(text)
	if json.Valid([]byte(candidate)) {
		return candidate
	}

	for _, stage := range gentleStages {
		candidate = stage.fn(candidate)
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}

	// Aggressive pass: re-run the cheap fixes on a whitespace- and
	// control-character-stripped copy, then try to close unterminated strings.
	aggressive := stripControlChars(collapseWhitespace(candidate))
	aggressive = stripTrailingCommas(quoteBareKeys(aggressive))
	if json.Valid([]byte(aggressive)) {
		return aggressive
	}
	aggressive = closeUnterminated(aggressive)
	if json.Valid([]byte(aggressive)) {
		return aggressive
	}

	if salvaged := salvageKnownFields(text); salvaged != "" {
		return salvaged
	}
	return `{"vendor":"","totalAmount":0}`
}

type repairStage struct {
	name string
	fn   func(string) string
}

var gentleStages = []repairStage{
	{"extract_object", extractObject},
	{"normalize_quotes", normalizeQuotes},
	{"strip_trailing_commas", stripTrailingCommas},
	{"quote_bare_keys", quoteBareKeys},
}

// extractObject cuts the substring from the first '{' to the last '}',
// discarding prose and markdown fences around the object.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

var reSingleQuoted = regexp.MustCompile(`'([^'\\]*)'`)

// normalizeQuotes converts single-quoted string delimiters to double quotes.
func normalizeQuotes(s string) string {
	return reSingleQuoted.ReplaceAllString(s, `"$1"`)
}

var reTrailingComma = regexp.MustCompile(`,\s*([}\]])`)

// stripTrailingCommas removes commas directly before a closing brace/bracket.
func stripTrailingCommas(s string) string {
	return reTrailingComma.ReplaceAllString(s, "$1")
}

var reBareKey = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

// quoteBareKeys wraps unquoted object keys in double quotes.
func quoteBareKeys(s string) string {
	return reBareKey.ReplaceAllString(s, `$1"$2":`)
}

// collapseWhitespace removes whitespace outside of string literals.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '"':
			inString = true
		}
		b.WriteByte(c)
	}
	return b.String()
}

// stripControlChars drops raw control characters, which are illegal inside
// JSON strings and frequently leak out of model output.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// closeUnterminated appends a closing quote when an odd number of unescaped
// quotes is present, then balances braces and brackets.
func closeUnterminated(s string) string {
	quotes := 0
	depthObj, depthArr := 0, 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
				quotes++
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			quotes++
		case '{':
			depthObj++
		case '}':
			depthObj--
		case '[':
			depthArr++
		case ']':
			depthArr--
		}
	}
	if quotes%2 == 1 {
		s += `"`
	}
	for ; depthArr > 0; depthArr-- {
		s += "]"
	}
	for ; depthObj > 0; depthObj-- {
		s += "}"
	}
	return s
}

var salvagePatterns = map[string]*regexp.Regexp{
	"vendor":        regexp.MustCompile(`(?i)"?vendor"?\s*:\s*['"]?([^'",}\n]+)`),
	"invoiceNumber": regexp.MustCompile(`(?i)"?invoice_?number"?\s*:\s*['"]?([^'",}\n]+)`),
	"date":          regexp.MustCompile(`(?i)"?date"?\s*:\s*['"]?(\d{4}-\d{2}-\d{2})`),
}

var reSalvageTotal = regexp.MustCompile(`(?i)"?total_?amount"?\s*:\s*['"]?\$?([0-9]+(?:\.[0-9]+)?)`)

// salvageKnownFields regex-extracts a minimal known-field subset from text
// that resisted structural repair. Returns "" when nothing was found.
func salvageKnownFields(text string) string {
	out := map[string]any{}
	for key, re := range salvagePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			out[key] = strings.TrimSpace(m[1])
		}
	}
	if m := reSalvageTotal.FindStringSubmatch(text); m != nil {
		out["totalAmount"] = m[1]
	}
	if len(out) == 0 {
		return ""
	}
	b, err := json.Marshal(out)
	if err != nil {
		return ""
	}
	return string(b)
}
