package fs

import (
	"regexp"
	"strings"
	"sync"
)

var patternCache sync.Map // map[string]*regexp.Regexp

// Match reports whether the slash separated relative path rel matches
// pattern. The syntax is fnmatch: "*" matches any run of characters and
// "?" any single character, both including "/". "[seq]" and "[!seq]"
// match character classes. An unterminated "[" is a literal.
func Match(pattern, rel string) bool {
	return compile(pattern).MatchString(rel)
}

func compile(pattern string) *regexp.Regexp {
	if re, ok := patternCache.Load(pattern); ok {
		return re.(*regexp.Regexp) //nolint:forcetypeassert // cache only holds regexps
	}
	re := regexp.MustCompile(translate(pattern))
	patternCache.Store(pattern, re)
	return re
}

func translate(pattern string) string {
	var b strings.Builder
	b.WriteString(`(?s)^`)

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			end := classEnd(pattern, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : end]
			b.WriteByte('[')
			if strings.HasPrefix(class, "!") {
				b.WriteByte('^')
				class = class[1:]
			}
			// Only "!" negates; a leading "^" is a literal.
			if strings.HasPrefix(class, "^") {
				b.WriteString(`\^`)
				class = class[1:]
			}
			b.WriteString(strings.ReplaceAll(class, `\`, `\\`))
			b.WriteByte(']')
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString(`$`)
	return b.String()
}

// classEnd returns the index of the "]" closing the class opened at start,
// or -1 when the class is unterminated.
func classEnd(pattern string, start int) int {
	j := start + 1
	if j < len(pattern) && pattern[j] == '!' {
		j++
	}
	// A leading "]" is part of the class.
	if j < len(pattern) && pattern[j] == ']' {
		j++
	}
	for ; j < len(pattern); j++ {
		if pattern[j] == ']' {
			return j
		}
	}
	return -1
}
