package latex

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/njchilds90/mathflow/errs"
	"github.com/njchilds90/mathflow/expr"
)

const (
	defaultMaxDepth = 500
	// bytesPerNode bounds the input length admitted before lexing.
	bytesPerNode = 32
)

// Parser converts LaTeX math into canonical expression trees. The zero
// value applies no node limit and the default nesting limit.
type Parser struct {
	MaxNodes int
	MaxDepth int
}

// Parse reads input with the zero Parser.
func Parse(input string) (expr.Expr, error) { return Parser{}.Parse(input) }

// ParseEquation reads input with the zero Parser.
func ParseEquation(input string) (lhs, rhs expr.Expr, err error) {
	return Parser{}.ParseEquation(input)
}

// Parse reads a single expression. An '=' is a parse error.
func (c Parser) Parse(input string) (expr.Expr, error) {
	lhs, _, err := c.run(input, false)
	return lhs, err
}

// ParseEquation reads "lhs" or "lhs = rhs". rhs is nil when the input has
// no top-level '='.
func (c Parser) ParseEquation(input string) (lhs, rhs expr.Expr, err error) {
	return c.run(input, true)
}

// parseErr carries a failure through the recursive descent.
type parseErr struct{ err *errs.Error }

type parser struct {
	input    string
	toks     []Token
	pos      int
	depth    int
	maxDepth int
	abs      int // open |...| groups
}

func (c Parser) run(input string, allowEquals bool) (lhs, rhs expr.Expr, err error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil, errs.Parse(input, 0, "empty expression")
	}
	if c.MaxNodes > 0 && len(input) > c.MaxNodes*bytesPerNode {
		return nil, nil, errs.New(errs.ExpressionTooLargeError, "input of %d bytes exceeds the limit", len(input))
	}
	toks, err := Lex(input)
	if err != nil {
		return nil, nil, err
	}
	p := &parser{input: input, toks: toks, maxDepth: c.MaxDepth}
	if p.maxDepth <= 0 {
		p.maxDepth = defaultMaxDepth
	}
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(parseErr)
			if !ok {
				panic(r)
			}
			lhs, rhs, err = nil, nil, pe.err
		}
	}()

	lhs = p.sum()
	if t := p.peek(); t.Type == TokEquals && allowEquals {
		p.next()
		rhs = p.sum()
	}
	if t := p.peek(); t.Type != TokEOF {
		panic(p.fail(t, "unexpected %s", t.describe()))
	}
	if c.MaxNodes > 0 {
		n := expr.Size(lhs)
		if rhs != nil {
			n += expr.Size(rhs)
		}
		if n > c.MaxNodes {
			return nil, nil, errs.New(errs.ExpressionTooLargeError, "expression has %d nodes, limit is %d", n, c.MaxNodes)
		}
	}
	return lhs, rhs, nil
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Type != TokEOF {
		p.pos++
	}
	return t
}

func (p *parser) fail(t Token, format string, args ...any) parseErr {
	return parseErr{errs.Parse(p.input, t.Pos, format, args...)}
}

func (p *parser) expect(tt TokenType) {
	if t := p.next(); t.Type != tt {
		panic(p.fail(t, "expected %s, found %s", closers[tt], t.describe()))
	}
}

var closers = map[TokenType]string{
	TokParenRight:   "')'",
	TokBraceRight:   "'}'",
	TokBracketRight: "']'",
	TokPipe:         "'|'",
}

func (p *parser) enter() {
	p.depth++
	if p.depth > p.maxDepth {
		panic(parseErr{errs.New(errs.ExpressionTooLargeError, "expression nests deeper than %d levels", p.maxDepth)})
	}
}

func (p *parser) leave() { p.depth-- }

func isCommand(t Token, names ...string) bool {
	if t.Type != TokCommand {
		return false
	}
	for _, n := range names {
		if t.Value == n {
			return true
		}
	}
	return false
}

// sum:
//
//	term [('+' | '-') term]...
func (p *parser) sum() expr.Expr {
	p.enter()
	defer p.leave()
	terms := []expr.Expr{p.term()}
	for {
		switch p.peek().Type {
		case TokPlus:
			p.next()
			terms = append(terms, p.term())
		case TokMinus:
			p.next()
			terms = append(terms, expr.NegOf(p.term()))
		default:
			return expr.AddOf(terms...)
		}
	}
}

// term:
//
//	unary [('*' | '\cdot' | '\times') unary | ('/' | '\div') unary | power]...
//
// A juxtaposed power is an implicit product.
func (p *parser) term() expr.Expr {
	factors := []expr.Expr{p.unary()}
	for {
		t := p.peek()
		switch {
		case t.Type == TokStar || isCommand(t, "cdot", "times"):
			p.next()
			factors = append(factors, p.unary())
		case t.Type == TokSlash || isCommand(t, "div"):
			p.next()
			factors = append(factors, expr.InvOf(p.unary()))
		case p.startsFactor(t):
			factors = append(factors, p.power())
		default:
			return expr.MulOf(factors...)
		}
	}
}

// unary:
//
//	('-' | '+') unary
//	power
func (p *parser) unary() expr.Expr {
	switch p.peek().Type {
	case TokMinus:
		p.next()
		p.enter()
		defer p.leave()
		return expr.NegOf(p.unary())
	case TokPlus:
		p.next()
		p.enter()
		defer p.leave()
		return p.unary()
	}
	return p.power()
}

// power:
//
//	postfix ['^' superscript] ['!']...
func (p *parser) power() expr.Expr {
	base := p.postfix()
	if p.peek().Type != TokCaret {
		return base
	}
	p.next()
	exp := p.superscript()
	if t := p.peek(); t.Type == TokCaret {
		panic(p.fail(t, "double superscript; use braces"))
	}
	return p.factorials(expr.PowOf(base, exp))
}

// postfix:
//
//	primary ['!']...
func (p *parser) postfix() expr.Expr { return p.factorials(p.primary()) }

func (p *parser) factorials(e expr.Expr) expr.Expr {
	for p.peek().Type == TokBang {
		p.next()
		e = expr.FactorialOf(e)
	}
	return e
}

// superscript:
//
//	'-' superscript
//	'(' sum ')'
//	arg
func (p *parser) superscript() expr.Expr {
	switch p.peek().Type {
	case TokMinus:
		p.next()
		return expr.NegOf(p.superscript())
	case TokParenLeft:
		return p.primary()
	}
	return p.arg()
}

// arg is a braced group or a single token: one digit, one letter, or a
// command with its own arguments.
func (p *parser) arg() expr.Expr {
	t := p.peek()
	switch t.Type {
	case TokBraceLeft:
		p.next()
		return p.group(TokBraceRight)
	case TokNumber:
		p.next()
		return p.digit(t)
	case TokLetter:
		p.next()
		return letter(t.Value)
	case TokCommand:
		return p.primary()
	}
	panic(p.fail(t, "expected an argument, found %s", t.describe()))
}

// digit consumes the first digit of a number token and leaves the rest for
// the next read.
func (p *parser) digit(t Token) expr.Expr {
	if len(t.Value) > 1 {
		if t.Value[0] == '.' {
			panic(p.fail(t, "malformed number %q", t.Value))
		}
		p.pos--
		p.toks[p.pos] = Token{Type: TokNumber, Value: t.Value[1:], Pos: t.Pos + 1}
		t.Value = t.Value[:1]
	}
	return p.number(t)
}

func (p *parser) startsFactor(t Token) bool {
	switch t.Type {
	case TokNumber, TokLetter, TokParenLeft, TokBracketLeft, TokBraceLeft:
		return true
	case TokPipe:
		return p.abs == 0
	case TokCommand:
		return !infixCommands[t.Value]
	}
	return false
}

var infixCommands = map[string]bool{
	"cdot": true, "times": true, "div": true, "right": true, "pm": true, "mp": true,
}

func (p *parser) isFunctionStart(t Token) bool {
	return t.Type == TokCommand && (functions[t.Value] != "" || t.Value == "operatorname")
}

// primary:
//
//	number | letter ['_' subscript]
//	'(' sum ')' | '[' sum ']' | '{' sum '}' | '|' sum '|'
//	command
func (p *parser) primary() expr.Expr {
	p.enter()
	defer p.leave()
	t := p.next()
	switch t.Type {
	case TokNumber:
		return p.number(t)
	case TokLetter:
		return p.symbol(t.Value)
	case TokParenLeft:
		return p.group(TokParenRight)
	case TokBracketLeft:
		return p.group(TokBracketRight)
	case TokBraceLeft:
		return p.group(TokBraceRight)
	case TokPipe:
		p.abs++
		inner := p.sum()
		p.expect(TokPipe)
		p.abs--
		return expr.AbsOf(inner)
	case TokCommand:
		return p.command(t)
	}
	panic(p.fail(t, "unexpected %s", t.describe()))
}

func (p *parser) group(close TokenType) expr.Expr {
	e := p.sum()
	p.expect(close)
	return e
}

func (p *parser) number(t Token) expr.Expr {
	if !strings.Contains(t.Value, ".") {
		n, _ := new(big.Int).SetString(t.Value, 10)
		return expr.I(n)
	}
	d, _, err := apd.NewFromString(t.Value)
	if err != nil {
		panic(p.fail(t, "malformed number %q", t.Value))
	}
	return expr.R(decimalRat(d))
}

// decimalRat converts an exact decimal to a rational.
func decimalRat(d *apd.Decimal) *big.Rat {
	coeff, _ := new(big.Int).SetString(d.Coeff.String(), 10)
	if d.Negative {
		coeff.Neg(coeff)
	}
	exp := int64(d.Exponent)
	if exp < 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(-exp), nil)
		return new(big.Rat).SetFrac(coeff, scale)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
	return new(big.Rat).SetInt(coeff.Mul(coeff, scale))
}

// letter maps a bare name to a symbol; e alone is Euler's number.
func letter(name string) expr.Expr {
	if name == "e" {
		return expr.E
	}
	return expr.S(name)
}

func (p *parser) symbol(name string) expr.Expr {
	if p.peek().Type != TokUnderscore {
		return letter(name)
	}
	p.next()
	return expr.S(name + "_" + p.subscript())
}

// subscript reads the raw text of a subscript: one character, or a braced
// run of letters, digits and Greek names.
func (p *parser) subscript() string {
	t := p.next()
	switch t.Type {
	case TokLetter:
		return t.Value
	case TokNumber:
		if len(t.Value) > 1 {
			p.pos--
			p.toks[p.pos] = Token{Type: TokNumber, Value: t.Value[1:], Pos: t.Pos + 1}
		}
		return t.Value[:1]
	case TokCommand:
		if greek[t.Value] {
			return t.Value
		}
	case TokBraceLeft:
		var b strings.Builder
		for {
			t := p.next()
			switch {
			case t.Type == TokLetter || t.Type == TokNumber:
				b.WriteString(t.Value)
			case t.Type == TokCommand && greek[t.Value]:
				b.WriteString(t.Value)
			case t.Type == TokBraceRight && b.Len() > 0:
				return b.String()
			default:
				panic(p.fail(t, "unsupported subscript"))
			}
		}
	}
	panic(p.fail(t, "unsupported subscript"))
}

// greek lists the letter commands read as symbols. \pi is the constant.
var greek = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true,
	"varepsilon": true, "zeta": true, "eta": true, "theta": true, "vartheta": true,
	"iota": true, "kappa": true, "lambda": true, "mu": true, "nu": true, "xi": true,
	"rho": true, "sigma": true, "tau": true, "upsilon": true, "phi": true,
	"varphi": true, "chi": true, "psi": true, "omega": true,
	"Gamma": true, "Delta": true, "Theta": true, "Lambda": true, "Xi": true,
	"Sigma": true, "Upsilon": true, "Phi": true, "Psi": true, "Omega": true,
}

// functions maps function commands to expression function names.
var functions = map[string]string{
	"sin": "sin", "cos": "cos", "tan": "tan", "cot": "cot", "sec": "sec", "csc": "csc",
	"arcsin": "asin", "arccos": "acos", "arctan": "atan",
	"sinh": "sinh", "cosh": "cosh", "tanh": "tanh",
	"ln": "ln", "log": "ln", "exp": "exp",
}

// namedFunctions are the names accepted inside \operatorname and \mathrm.
var namedFunctions = map[string]string{
	"asin": "asin", "acos": "acos", "atan": "atan", "sqrt": "sqrt", "abs": "abs",
}

var inverseFunctions = map[string]string{"sin": "asin", "cos": "acos", "tan": "atan"}

func (p *parser) command(t Token) expr.Expr {
	name := t.Value
	switch {
	case name == "left":
		return p.left()
	case name == "frac" || name == "dfrac" || name == "tfrac":
		num := p.arg()
		den := p.arg()
		return expr.DivOf(num, den)
	case name == "sqrt":
		if p.peek().Type == TokBracketLeft {
			p.next()
			index := p.group(TokBracketRight)
			return expr.PowOf(p.arg(), expr.InvOf(index))
		}
		return expr.SqrtOf(p.arg())
	case name == "pi":
		return expr.Pi
	case name == "infty":
		return expr.Inf
	case greek[name]:
		return p.symbol(name)
	case name == "mathrm" || name == "text" || name == "mathit" || name == "operatorname":
		return p.named(t)
	case functions[name] != "":
		return p.function(name, functions[name])
	}
	panic(p.fail(t, `unsupported command \%s`, name))
}

// named reads \mathrm{name} and friends: a function when name is one,
// otherwise a multi-letter symbol. A bare \operatorname applied to a
// parenthesized list is an uninterpreted function.
func (p *parser) named(t Token) expr.Expr {
	p.expect(TokBraceLeft)
	var b strings.Builder
	for {
		n := p.peek()
		if n.Type != TokLetter && n.Type != TokNumber {
			break
		}
		b.WriteString(p.next().Value)
	}
	if b.Len() == 0 {
		panic(p.fail(p.peek(), "empty name"))
	}
	p.expect(TokBraceRight)
	name := b.String()
	if fn, ok := functions[name]; ok {
		return p.function(name, fn)
	}
	if fn, ok := namedFunctions[name]; ok {
		return p.function(name, fn)
	}
	if t.Value == "operatorname" && (p.peek().Type == TokParenLeft || isCommand(p.peek(), "left")) {
		return expr.FuncOf(name, p.callArgs()...)
	}
	return p.symbol(name)
}

// callArgs reads a parenthesized, comma-separated argument list.
func (p *parser) callArgs() []expr.Expr {
	closing := func() {
		p.expect(TokParenRight)
	}
	if isCommand(p.peek(), "left") {
		p.next()
		closing = func() {
			if t := p.next(); !isCommand(t, "right") {
				panic(p.fail(t, `expected \right, found %s`, t.describe()))
			}
			p.expect(TokParenRight)
		}
	}
	p.expect(TokParenLeft)
	args := []expr.Expr{p.sum()}
	for p.peek().Type == TokComma {
		p.next()
		args = append(args, p.sum())
	}
	closing()
	return args
}

// function reads the operand of a function command. A superscript before
// the operand is a power of the result, except ^{-1} on sin, cos and tan,
// which names the inverse. \log_b x is the logarithm to base b.
func (p *parser) function(cmd, name string) expr.Expr {
	var base, power expr.Expr
	if cmd == "log" && p.peek().Type == TokUnderscore {
		p.next()
		base = p.arg()
	}
	if p.peek().Type == TokCaret {
		p.next()
		power = p.superscript()
		if inv, ok := inverseFunctions[name]; ok && expr.IsNum(power, -1) {
			name, power = inv, nil
		}
	}
	arg := p.funcArg()
	out := expr.FuncOf(name, arg)
	if base != nil {
		out = expr.DivOf(expr.LnOf(arg), expr.LnOf(base))
	}
	if power != nil {
		out = expr.PowOf(out, power)
	}
	return out
}

// funcArg reads a delimited group, or else the run of implicit factors up
// to the next operator or function.
func (p *parser) funcArg() expr.Expr {
	t := p.peek()
	switch {
	case t.Type == TokParenLeft || t.Type == TokBraceLeft || t.Type == TokBracketLeft || isCommand(t, "left"):
		return p.primary()
	case t.Type == TokMinus:
		p.next()
		return expr.NegOf(p.funcArg())
	case !p.startsFactor(t):
		panic(p.fail(t, "missing function argument"))
	}
	factors := []expr.Expr{p.power()}
	for t := p.peek(); p.startsFactor(t) && !p.isFunctionStart(t); t = p.peek() {
		factors = append(factors, p.power())
	}
	return expr.MulOf(factors...)
}

// left reads \left<open> sum \right<close>. Vertical bars make an
// absolute value.
func (p *parser) left() expr.Expr {
	open := p.next()
	var match func(Token) bool
	abs := false
	switch {
	case open.Type == TokParenLeft:
		match = func(t Token) bool { return t.Type == TokParenRight }
	case open.Type == TokBracketLeft:
		match = func(t Token) bool { return t.Type == TokBracketRight }
	case isCommand(open, "{"):
		match = func(t Token) bool { return isCommand(t, "}") }
	case open.Type == TokPipe || isCommand(open, "vert"):
		abs = true
		match = func(t Token) bool { return t.Type == TokPipe || isCommand(t, "vert") }
	case isCommand(open, "lvert"):
		abs = true
		match = func(t Token) bool { return isCommand(t, "rvert") }
	default:
		panic(p.fail(open, `unsupported delimiter %s after \left`, open.describe()))
	}
	outer := p.abs
	p.abs = 0
	inner := p.sum()
	p.abs = outer
	if t := p.next(); !isCommand(t, "right") {
		panic(p.fail(t, `expected \right, found %s`, t.describe()))
	}
	if t := p.next(); !match(t) {
		panic(p.fail(t, "mismatched delimiter %s", t.describe()))
	}
	if abs {
		return expr.AbsOf(inner)
	}
	return inner
}
