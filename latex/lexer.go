package latex

import (
	"strings"
	"unicode/utf8"

	"github.com/njchilds90/mathflow/errs"
)

const eof = -1

// spacing commands carry no meaning for the parser and are dropped by the
// lexer.
var spacing = map[string]bool{
	",": true, ";": true, ":": true, "!": true, " ": true,
	"quad": true, "qquad": true, "displaystyle": true, "textstyle": true,
}

// unicode spellings accepted in place of their commands.
var unicodeCommands = map[rune]string{
	'π': "pi", '∞': "infty", '·': "cdot", '×': "times", '÷': "div",
	'α': "alpha", 'β': "beta", 'γ': "gamma", 'θ': "theta", 'λ': "lambda",
}

// Lexer holds the state of the scanner.
type Lexer struct {
	input  string
	start  int // Start position of the current token.
	pos    int // Current position in the input.
	width  int // Width of the last rune read.
	tokens []Token
	err    error
}

// stateFn represents the state of the scanner as a function that returns
// the next state.
type stateFn func(*Lexer) stateFn

// Lex scans the whole input in one pass.
func Lex(input string) ([]Token, error) {
	l := &Lexer{input: input}
	for state := lexAny; state != nil; {
		state = state(l)
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.tokens, nil
}

func (l *Lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

func (l *Lexer) backup() { l.pos -= l.width }

func (l *Lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *Lexer) ignore() { l.start = l.pos }

func (l *Lexer) acceptRun(valid func(rune) bool) {
	for valid(l.next()) {
	}
	l.backup()
}

func (l *Lexer) emit(t TokenType) {
	l.emitValue(t, l.input[l.start:l.pos])
}

func (l *Lexer) emitValue(t TokenType, value string) {
	l.tokens = append(l.tokens, Token{Type: t, Value: value, Pos: l.start})
	l.start = l.pos
}

func (l *Lexer) errorf(format string, args ...any) stateFn {
	l.err = errs.Parse(l.input, l.start, format, args...)
	return nil
}

func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }
func isSpace(r rune) bool  { return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '~' }

var singles = map[rune]TokenType{
	'+': TokPlus, '-': TokMinus, '−': TokMinus, '*': TokStar, '/': TokSlash,
	'^': TokCaret, '_': TokUnderscore, '!': TokBang, '=': TokEquals,
	'|': TokPipe, ',': TokComma, '(': TokParenLeft, ')': TokParenRight,
	'{': TokBraceLeft, '}': TokBraceRight, '[': TokBracketLeft, ']': TokBracketRight,
}

func lexAny(l *Lexer) stateFn {
	r := l.next()
	switch {
	case r == eof:
		l.emitValue(TokEOF, "")
		return nil
	case isSpace(r):
		l.acceptRun(isSpace)
		l.ignore()
		return lexAny
	case isDigit(r) || r == '.' && isDigit(l.peek()):
		l.backup()
		return lexNumber
	case isLetter(r):
		l.emit(TokLetter)
		return lexAny
	case r == '\\':
		return lexCommand
	}
	if t, ok := singles[r]; ok {
		l.emit(t)
		return lexAny
	}
	if name, ok := unicodeCommands[r]; ok {
		l.emitValue(TokCommand, name)
		return lexAny
	}
	return l.errorf("unexpected character %q", r)
}

func lexNumber(l *Lexer) stateFn {
	l.acceptRun(isDigit)
	if l.peek() == '.' {
		l.next()
		if !isDigit(l.peek()) {
			l.backup()
			l.emit(TokNumber)
			return lexAny
		}
		l.acceptRun(isDigit)
	}
	if l.peek() == '.' {
		l.next()
		return l.errorf("malformed number %q", l.input[l.start:l.pos])
	}
	l.emit(TokNumber)
	return lexAny
}

// lexCommand scans the name after a backslash: a run of letters or a single
// other character.
func lexCommand(l *Lexer) stateFn {
	r := l.next()
	switch {
	case r == eof:
		return l.errorf("trailing backslash")
	case isLetter(r):
		l.acceptRun(isLetter)
	}
	name := l.input[l.start+1 : l.pos]
	if spacing[name] {
		l.ignore()
		return lexAny
	}
	l.emitValue(TokCommand, strings.Clone(name))
	return lexAny
}
