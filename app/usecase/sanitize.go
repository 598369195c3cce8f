package usecase

import (
	"regexp"
	"strings"

	"codegen/internal/domain/entity"
)

var (
	// First fenced block, optionally language tagged.
	fenceRe = regexp.MustCompile("(?s)```[A-Za-z0-9_+.#-]*[ \\t]*\\r?\\n(.*?)```")
	// Line-start anchors used to cut a prose preamble.
	anchorRe     = regexp.MustCompile(`(?im)^(?:def|class|from|import)[ \t]`)
	assignmentRe = regexp.MustCompile(`^[A-Za-z_]\w*\s*=`)

	// Lines that start code in the other languages, matched on trimmed lines.
	codeStartRe = map[entity.Language]*regexp.Regexp{
		entity.LanguageJavaScript: regexp.MustCompile(`^(?:(?:async\s+)?function\b|(?:const|let|var|class|export)\s|import[\s{*'"]|require\(|['"]use strict|//|/\*|[A-Za-z_$][\w$]*(?:\.[\w$]+)+\s*[(=]|[A-Za-z_$][\w$]*\s*=[^=])`),
		entity.LanguageSQL:        regexp.MustCompile(`(?i)^(?:(?:SELECT|WITH|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP|TRUNCATE|MERGE|GRANT|REVOKE|BEGIN|EXPLAIN)\b|--)`),
		entity.LanguageHTMLCSS:    regexp.MustCompile(`^(?:<|@(?:media|import|font-face|keyframes)\b|:root\b|[.#*]?[A-Za-z][\w\-.#:, >]*\{)`),
	}
)

// Sanitize isolates a code span from raw model output: fence extraction,
// prose-prefix stripping, duplicate-line collapse, unbalanced triple-quote
// removal and leading natural-language line drop.
//
// One pass can expose work for another (removing a dangling triple quote may
// make two adjacent lines identical), so passes repeat until the text stops
// changing. Every pass that changes the text makes it shorter, which bounds
// the loop and makes Sanitize idempotent.
func Sanitize(raw string) string {
	code := sanitizePass(raw)
	for {
		next := sanitizePass(code)
		if next == code {
			return code
		}
		code = next
	}
}

// ExtractFenced returns the first fenced block when there is one, trimmed. The line-level steps of
// Sanitize assume Python and would damage brace or tag languages, where
// consecutive closing lines are legitimately identical.
func ExtractFenced(raw string) string {
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// ExtractCode is the cleanup for languages other than Python: fence
// extraction, then lines before the first one that starts code in lang are
// dropped. Without such a line the fenced or trimmed text is kept.
func ExtractCode(raw string, lang entity.Language) string {
	code := ExtractFenced(raw)
	start, ok := codeStartRe[lang]
	if !ok {
		return code
	}
	lines := strings.Split(code, "\n")
	for i, ln := range lines {
		if start.MatchString(strings.TrimSpace(ln)) {
			return strings.TrimSpace(strings.Join(lines[i:], "\n"))
		}
	}
	return code
}

func sanitizePass(text string) string {
	code := text
	if m := fenceRe.FindStringSubmatch(code); m != nil {
		code = m[1]
	} else if !startsWithCode(code) {
		if loc := anchorRe.FindStringIndex(code); loc != nil {
			code = code[loc[0]:]
		}
	}

	code = strings.TrimSpace(collapseDuplicateLines(code))
	code = dropUnbalancedTripleQuotes(code)
	code = dropLeadingProse(code)
	return strings.TrimSpace(code)
}

// collapseDuplicateLines drops a line whose trimmed content equals the
// trimmed content of the previous kept line. Repeated blank lines collapse
// too; the Python formatter restores conventional spacing afterwards.
func collapseDuplicateLines(code string) string {
	lines := strings.Split(code, "\n")
	kept := make([]string, 0, len(lines))
	prev, havePrev := "", false
	for _, ln := range lines {
		s := strings.TrimSpace(ln)
		if havePrev && s == prev {
			continue
		}
		kept = append(kept, ln)
		prev, havePrev = s, true
	}
	return strings.Join(kept, "\n")
}

func dropUnbalancedTripleQuotes(code string) string {
	for _, q := range []string{`"""`, `'''`} {
		if strings.Count(code, q)%2 == 1 {
			code = strings.ReplaceAll(code, q, "")
		}
	}
	return code
}

// dropLeadingProse removes lines up to the first code-like one. Without any
// code-like line the block is kept as is.
func dropLeadingProse(code string) string {
	lines := strings.Split(code, "\n")
	for i, ln := range lines {
		if isCodeLike(ln) {
			return strings.Join(lines[i:], "\n")
		}
	}
	return code
}

func isCodeLike(line string) bool {
	s := strings.TrimLeft(line, " \t")
	for _, prefix := range []string{"def ", "class ", "import ", "from ", "@"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return assignmentRe.MatchString(s)
}

// startsWithCode reports whether the first non-blank line is code-like, in
// which case there is no preamble to strip.
func startsWithCode(code string) bool {
	for _, ln := range strings.Split(code, "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		return isCodeLike(ln)
	}
	return false
}
