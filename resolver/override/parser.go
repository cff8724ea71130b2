package override

import (
	"github.com/viant/parsly"
)

// Pair is a single parsed feature=flow assignment.
type Pair struct {
	Feature string
	Flow    string
}

// Parse parses an override expression in the format:
// feature=flow[,feature=flow...]. Assignments may be separated by ',' or
// ';' and surrounded by arbitrary whitespace. An empty expression yields no
// pairs; the order of pairs is preserved so a later assignment can overwrite
// an earlier one.
func Parse(input []byte) ([]Pair, error) {
	cursor := parsly.NewCursor("", input, 0)
	var pairs []Pair
	expectPair := false
	for {
		cursor.MatchOne(whitespaceToken)
		if cursor.Pos >= cursor.InputSize {
			// a separator promised another assignment
			if expectPair {
				return nil, cursor.NewError(keyToken)
			}
			return pairs, nil
		}

		// Match the feature key
		matched := cursor.MatchOne(keyToken)
		if matched.Code != keyToken.Code {
			return nil, cursor.NewError(keyToken)
		}
		feature := matched.Text(cursor)

		// Match the assignment operator
		matched = cursor.MatchAfterOptional(whitespaceToken, equalsToken)
		if matched.Code != equalsToken.Code {
			return nil, cursor.NewError(equalsToken)
		}

		// Match the flow name
		matched = cursor.MatchAfterOptional(whitespaceToken, keyToken)
		if matched.Code != keyToken.Code {
			return nil, cursor.NewError(keyToken)
		}
		pairs = append(pairs, Pair{Feature: feature, Flow: matched.Text(cursor)})

		// Match a separator or the end of input
		matched = cursor.MatchAfterOptional(whitespaceToken, commaToken, semicolonToken)
		switch matched.Code {
		case commaToken.Code, semicolonToken.Code:
			expectPair = true
		default:
			cursor.MatchOne(whitespaceToken)
			if cursor.Pos < cursor.InputSize {
				return nil, cursor.NewError(commaToken, semicolonToken)
			}
			return pairs, nil
		}
	}
}
