package latex

import (
	"fmt"
	"slices"
)

// TokenType is the type of token.
type TokenType int

// Token types as constants.
const (
	TokError TokenType = iota
	TokEOF

	// Literals.
	TokNumber  // 12, 0.25
	TokLetter  // a single ASCII letter
	TokCommand // \frac, \alpha, \{

	// Operators.
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokCaret
	TokUnderscore
	TokBang
	TokEquals

	// Delimiters.
	TokPipe
	TokComma
	TokParenLeft
	TokParenRight
	TokBraceLeft
	TokBraceRight
	TokBracketLeft
	TokBracketRight

	// End of tokens.
	FinalToken
)

// String returns the string representation of the token type.
func (tt TokenType) String() string {
	return tokenTypeStrings[tt]
}

// Map of token types to their string representation for debugging.
var tokenTypeStrings = map[TokenType]string{
	TokError: "ERROR",
	TokEOF:   "EOF",

	TokNumber:  "NUMBER",
	TokLetter:  "LETTER",
	TokCommand: "COMMAND",

	TokPlus:       "PLUS",
	TokMinus:      "MINUS",
	TokStar:       "STAR",
	TokSlash:      "SLASH",
	TokCaret:      "CARET",
	TokUnderscore: "UNDERSCORE",
	TokBang:       "BANG",
	TokEquals:     "EQUALS",

	TokPipe:         "PIPE",
	TokComma:        "COMMA",
	TokParenLeft:    "PAREN_LEFT",
	TokParenRight:   "PAREN_RIGHT",
	TokBraceLeft:    "BRACE_LEFT",
	TokBraceRight:   "BRACE_RIGHT",
	TokBracketLeft:  "BRACKET_LEFT",
	TokBracketRight: "BRACKET_RIGHT",
}

func (tt TokenType) IsOneOf(t ...TokenType) bool {
	return slices.Contains(t, tt)
}

// Token is a lexical token. Pos is the byte offset of its first character.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

func (t Token) String() string {
	switch {
	case t.Type == TokEOF:
		return "EOF"
	case len(t.Value) > 16:
		return fmt.Sprintf("%s[%d]: %.16q", t.Type, t.Pos, t.Value)
	}
	return fmt.Sprintf("%s[%d]: %q", t.Type, t.Pos, t.Value)
}

// describe renders a token for error messages.
func (t Token) describe() string {
	switch t.Type {
	case TokEOF:
		return "end of input"
	case TokCommand:
		return `'\` + t.Value + `'`
	}
	return "'" + t.Value + "'"
}
