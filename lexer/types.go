package lexer

// TokenType represents all the possible types of a lexical unit
type TokenType uint8

// List of types of lexical units
const (
	TokenInvalid         TokenType = iota
	TokenInt                       // Integer: "-12"
	TokenFloat                     // Float: "3.14"
	TokenString                    // String literal, text is the decoded content
	TokenBool                      // Reserved literal: "T" or "F"
	TokenNull                      // Reserved literal: "N"
	TokenSymbol                    // Symbol: "make-adder"
	TokenKeyword                   // Keyword: ":name", text excludes the colon
	TokenHashRef                   // Hash reference: "#abc", text excludes the hash
	TokenOpenExpression            // Open parenthesis: "("
	TokenCloseExpression           // Close parenthesis: ")"
	TokenOpenList                  // Open square bracket: "["
	TokenCloseList                 // Close square bracket: "]"
	TokenOpenMap                   // Open curly bracket: "{"
	TokenCloseMap                  // Close curly bracket: "}"
	TokenPipe                      // Pipe: "|>"
	TokenQuote                     // Quote: "'"
	TokenUnquote                   // Unquote: "~"
	TokenSplice                    // Splice: "~@"
	TokenEOF                       // End of file
)

var tokenValues = map[TokenType][]rune{
	TokenOpenExpression:  []rune{'('},
	TokenCloseExpression: []rune{')'},
	TokenOpenList:        []rune{'['},
	TokenCloseList:       []rune{']'},
	TokenOpenMap:         []rune{'{'},
	TokenCloseMap:        []rune{'}'},
	TokenQuote:           []rune{'\''},
	TokenUnquote:         []rune{'~'},
	TokenString:          []rune{'"'},
	TokenHashRef:         []rune{'#'},
	TokenKeyword:         []rune{':'},
	TokenInt:             []rune("0123456789"),
	TokenSymbol:          []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_!?+-*/<>=&|%"),
}

var tokenNames = map[TokenType]string{
	TokenInvalid:         "invalid",
	TokenInt:             "int",
	TokenFloat:           "float",
	TokenString:          "string",
	TokenBool:            "bool",
	TokenNull:            "null",
	TokenSymbol:          "symbol",
	TokenKeyword:         "keyword",
	TokenHashRef:         "hashref",
	TokenOpenExpression:  "open_expression",
	TokenCloseExpression: "close_expression",
	TokenOpenList:        "open_list",
	TokenCloseList:       "close_list",
	TokenOpenMap:         "open_map",
	TokenCloseMap:        "close_map",
	TokenPipe:            "pipe",
	TokenQuote:           "quote",
	TokenUnquote:         "unquote",
	TokenSplice:          "splice",
	TokenEOF:             "EOF",
}

func (tt TokenType) String() string {
	if v, ok := tokenNames[tt]; ok {
		return v
	}
	return tokenNames[TokenInvalid]
}

func isTokenType(tt TokenType) func(r rune) bool {
	return func(r rune) bool {
		for _, v := range tokenValues[tt] {
			if v == r {
				return true
			}
		}
		return false
	}
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

// isDelimiter reports whether r ends a symbol, keyword, number or hash
// reference.
func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}', ';', '"', '\'':
		return true
	}
	return isWhitespace(r)
}

func isKeywordStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || r == '_'
}
