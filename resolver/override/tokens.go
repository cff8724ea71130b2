package override

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	keyCode
	equalsCode
	commaCode
	semicolonCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	keyToken        = parsly.NewToken(keyCode, "Key", newKeyMatcher())
	equalsToken     = parsly.NewToken(equalsCode, "=", matcher.NewByte('='))
	commaToken      = parsly.NewToken(commaCode, ",", matcher.NewByte(','))
	semicolonToken  = parsly.NewToken(semicolonCode, ";", matcher.NewByte(';'))
)

// Custom matchers
func newKeyMatcher() parsly.Matcher {
	return &keyMatcher{}
}

// keyMatcher matches feature keys and flow names: letters, digits,
// underscore, dash and dot, starting with a letter, digit or underscore.
type keyMatcher struct{}

func (m *keyMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}

	if !isLetter(input[pos]) && !isDigit(input[pos]) && input[pos] != '_' {
		return 0
	}

	matched := 1
	for i := pos + 1; i < size; i++ {
		if isLetter(input[i]) || isDigit(input[i]) || input[i] == '_' || input[i] == '-' || input[i] == '.' {
			matched++
			continue
		}
		break
	}

	return matched
}

// Helper functions
func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
