package formula

import (
	"fmt"
	"strings"
)

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenString
	TokenBoolean
	TokenCell
	TokenIdentifier
	TokenOperator
	TokenLeftParen
	TokenRightParen
	TokenComma
	TokenColon
	TokenSemicolon
)

var tokenTypeNames = map[TokenType]string{
	TokenEOF:        "EOF",
	TokenNumber:     "Number",
	TokenString:     "String",
	TokenBoolean:    "Boolean",
	TokenCell:       "Cell",
	TokenIdentifier: "Identifier",
	TokenOperator:   "Operator",
	TokenLeftParen:  "LeftParen",
	TokenRightParen: "RightParen",
	TokenComma:      "Comma",
	TokenColon:      "Colon",
	TokenSemicolon:  "Semicolon",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// character classification constants. slightly easier to read.
const (
	charNull       = 0
	charTab        = '\t'
	charNewline    = '\n'
	charReturn     = '\r'
	charSpace      = ' '
	charQuote      = '"'
	charPercent    = '%'
	charAmpersand  = '&'
	charLParen     = '('
	charRParen     = ')'
	charAsterisk   = '*'
	charPlus       = '+'
	charComma      = ','
	charMinus      = '-'
	charPeriod     = '.'
	charSlash      = '/'
	charColon      = ':'
	charSemicolon  = ';'
	charLess       = '<'
	charEqual      = '='
	charGreater    = '>'
	charCaret      = '^'
	charUnderscore = '_'
)

// Token represents a lexical token with position information
type Token struct {
	Type  TokenType
	Value string
	Pos   int // rune offset in input
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%s)", t.Type, t.Value)
}

// Lexer tokenizes spreadsheet formula expressions. It never fails:
// characters outside the formula alphabet are skipped, structural
// problems are left for the parser to report.
type Lexer struct {
	input  string
	runes  []rune // UTF-8 aware representation
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given formula input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		runes:  []rune(input), // runes for UTF-8 support. could do without but a real pain
		tokens: []Token{},
	}
}

// Tokenize tokenizes the entire input. The returned slice always ends
// with an EOF sentinel token.
func (l *Lexer) Tokenize() []Token {
	for l.pos < len(l.runes) {
		tok, ok := l.nextToken()
		if !ok {
			continue
		}
		if tok.Type == TokenEOF {
			break
		}
		l.tokens = append(l.tokens, tok)
	}
	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: len(l.runes)})
	return l.tokens
}

// nextToken scans the next token. ok is false when the character at the
// current position is outside the formula alphabet; such characters are
// skipped without producing a token, for compatibility with sloppy
// inputs.
func (l *Lexer) nextToken() (Token, bool) {
	l.skipWhitespace()

	if l.pos >= len(l.runes) {
		return Token{Type: TokenEOF, Pos: l.pos}, true
	}

	startPos := l.pos
	ch := l.current()

	// check for string literals
	if ch == charQuote {
		return l.scanString(), true
	}

	// check for numbers
	if l.isNumberStart(0) {
		return l.scanNumber(), true
	}

	// check for operators and special characters
	switch ch {
	case charLParen:
		l.pos++
		return Token{Type: TokenLeftParen, Value: "(", Pos: startPos}, true
	case charRParen:
		l.pos++
		return Token{Type: TokenRightParen, Value: ")", Pos: startPos}, true
	case charComma:
		l.pos++
		return Token{Type: TokenComma, Value: ",", Pos: startPos}, true
	case charColon:
		l.pos++
		return Token{Type: TokenColon, Value: ":", Pos: startPos}, true
	case charSemicolon:
		l.pos++
		return Token{Type: TokenSemicolon, Value: ";", Pos: startPos}, true
	case charMinus:
		// a minus folds into the following number as its sign when no
		// operand precedes it. only minus does this; plus is always an
		// operator.
		if l.isSignContext() && l.isNumberStart(1) {
			return l.scanNumber(), true
		}
		l.pos++
		return Token{Type: TokenOperator, Value: "-", Pos: startPos}, true
	case charPlus, charAsterisk, charSlash, charPercent, charCaret, charAmpersand, charEqual:
		l.pos++
		return Token{Type: TokenOperator, Value: string(ch), Pos: startPos}, true
	case charLess, charGreater:
		return l.scanComparison(), true
	}

	// check for identifiers, cells, booleans
	if l.isAlpha(ch) {
		return l.scanIdentifierOrCell(), true
	}

	// anything else is dropped silently
	l.pos++
	return Token{}, false
}

// helper methods for character navigation and classification

// substring returns a substring of the original input based on rune positions
func (l *Lexer) substring(start, end int) string {
	if start < 0 || end > len(l.runes) || start > end {
		return ""
	}
	return string(l.runes[start:end])
}

func (l *Lexer) current() rune {
	if l.pos >= len(l.runes) {
		return charNull
	}
	return l.runes[l.pos]
}

func (l *Lexer) peek(offset int) rune {
	pos := l.pos + offset
	if pos >= len(l.runes) || pos < 0 {
		return charNull
	}
	return l.runes[pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.runes) {
		ch := l.current()
		if ch == charSpace || ch == charTab || ch == charNewline || ch == charReturn {
			l.pos++
		} else {
			break
		}
	}
}

func (l *Lexer) isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func (l *Lexer) isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func (l *Lexer) isAlphaNumeric(ch rune) bool {
	return l.isAlpha(ch) || l.isDigit(ch)
}

// isNumberStart reports whether the rune at the given offset from the
// current position begins a number literal: a digit, or a period
// followed by a digit.
func (l *Lexer) isNumberStart(offset int) bool {
	ch := l.peek(offset)
	if l.isDigit(ch) {
		return true
	}
	return ch == charPeriod && l.isDigit(l.peek(offset+1))
}

// isSignContext reports whether a minus at the current position has no
// left operand: at the start of input, or after an operator, a left
// paren, or a comma.
func (l *Lexer) isSignContext() bool {
	if len(l.tokens) == 0 {
		return true
	}
	switch l.tokens[len(l.tokens)-1].Type {
	case TokenOperator, TokenLeftParen, TokenComma:
		return true
	}
	return false
}

// scanNumber scans a number token, including an already-validated
// leading minus sign. Digits with at most one decimal point; no
// scientific notation, no thousands separators.
func (l *Lexer) scanNumber() Token {
	startPos := l.pos

	if l.current() == charMinus {
		l.pos++
	}

	seenPeriod := false
	for l.pos < len(l.runes) {
		ch := l.current()
		if l.isDigit(ch) {
			l.pos++
		} else if ch == charPeriod && !seenPeriod {
			seenPeriod = true
			l.pos++
		} else {
			break
		}
	}

	value := l.substring(startPos, l.pos)
	return Token{Type: TokenNumber, Value: value, Pos: startPos}
}

// scanString scans a string literal. Content is taken verbatim, with no
// escape sequences; an unterminated literal runs to the end of input
// and still yields a string token.
func (l *Lexer) scanString() Token {
	startPos := l.pos
	l.pos++ // consume opening quote

	contentStart := l.pos
	for l.pos < len(l.runes) && l.current() != charQuote {
		l.pos++
	}

	value := l.substring(contentStart, l.pos)
	if l.pos < len(l.runes) {
		l.pos++ // consume closing quote
	}
	return Token{Type: TokenString, Value: value, Pos: startPos}
}

// scanIdentifierOrCell scans identifiers, cell references, and booleans.
// Whether an identifier names a function is not decided here; that
// depends on the registry and belongs to the parser.
func (l *Lexer) scanIdentifierOrCell() Token {
	startPos := l.pos

	for l.pos < len(l.runes) && (l.isAlphaNumeric(l.current()) || l.current() == charUnderscore) {
		l.pos++
	}

	value := l.substring(startPos, l.pos)
	upperValue := strings.ToUpper(value)

	// check for boolean literals
	if upperValue == "TRUE" || upperValue == "FALSE" {
		return Token{Type: TokenBoolean, Value: upperValue, Pos: startPos}
	}

	// check for a cell reference, normalized to upper case
	if IsCellAddress(value) {
		return Token{Type: TokenCell, Value: upperValue, Pos: startPos}
	}

	return Token{Type: TokenIdentifier, Value: value, Pos: startPos}
}

// IsCellAddress reports whether a string has the shape of a cell
// reference: one or more letters followed by one or more digits, e.g.
// A1 or BC12. Exported so hosts storing cells by address can validate
// addresses the same way the lexer classifies them.
func IsCellAddress(s string) bool {
	if len(s) < 2 {
		return false
	}

	// find where letters end and numbers begin
	letterEnd := 0
	for i, ch := range s {
		if ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' {
			letterEnd = i + 1
		} else {
			break
		}
	}

	// must have at least one letter and one digit
	if letterEnd == 0 || letterEnd == len(s) {
		return false
	}

	// check remaining characters are all digits
	for i := letterEnd; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// scanComparison scans < > and their two-character forms <= >= <>
func (l *Lexer) scanComparison() Token {
	startPos := l.pos
	ch := l.current()
	l.pos++

	if ch == charLess {
		switch l.current() {
		case charEqual:
			l.pos++
			return Token{Type: TokenOperator, Value: "<=", Pos: startPos}
		case charGreater:
			l.pos++
			return Token{Type: TokenOperator, Value: "<>", Pos: startPos}
		}
		return Token{Type: TokenOperator, Value: "<", Pos: startPos}
	}

	if l.current() == charEqual {
		l.pos++
		return Token{Type: TokenOperator, Value: ">=", Pos: startPos}
	}
	return Token{Type: TokenOperator, Value: ">", Pos: startPos}
}
