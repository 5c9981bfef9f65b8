package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

type NodePosition struct {
	Start int
	End   int
}

// AST enables recursive evaluation, normalization for the formula
// cache, and inspection through tree traversal. A function call holds
// its argument expressions directly, so no argument-count bookkeeping
// survives into evaluation.
type ASTNode interface {
	Eval(e *Engine) (Value, error)
	GetPosition() NodePosition
	ToString() string
}

// BinaryOp represents binary operators in AST nodes
type BinaryOp int

const (
	BinOpAdd BinaryOp = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
	BinOpModulo
	BinOpPower
	BinOpConcat
	BinOpEqual
	BinOpNotEqual
	BinOpLess
	BinOpLessEqual
	BinOpGreater
	BinOpGreaterEqual
)

// Parser parses tokens into an AST
type Parser struct {
	tokens   []Token
	pos      int
	registry *Registry
}

// StringNode represents a string literal
type StringNode struct {
	Value    string
	Position NodePosition
}

func (n *StringNode) Eval(e *Engine) (Value, error) {
	return n.Value, nil
}

func (n *StringNode) GetPosition() NodePosition {
	return n.Position
}

func (n *StringNode) ToString() string {
	return "\"" + n.Value + "\""
}

// NumberNode represents a numeric literal. Value holds int64 for
// literals without a decimal point and float64 for everything else.
type NumberNode struct {
	Value    Value
	Position NodePosition
}

func (n *NumberNode) Eval(e *Engine) (Value, error) {
	return n.Value, nil
}

func (n *NumberNode) GetPosition() NodePosition {
	return n.Position
}

func (n *NumberNode) ToString() string {
	return toText(n.Value)
}

// BooleanNode represents a boolean literal
type BooleanNode struct {
	Value    bool
	Position NodePosition
}

func (n *BooleanNode) Eval(e *Engine) (Value, error) {
	return n.Value, nil
}

func (n *BooleanNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BooleanNode) ToString() string {
	if n.Value {
		return "TRUE"
	}
	return "FALSE"
}

// CellRefNode represents a reference to a cell by its address, e.g. A1.
// The value comes from the engine's resolver at evaluation time.
type CellRefNode struct {
	Address  string
	Position NodePosition
}

func (n *CellRefNode) Eval(e *Engine) (Value, error) {
	return e.resolveCell(n.Address)
}

func (n *CellRefNode) GetPosition() NodePosition {
	return n.Position
}

func (n *CellRefNode) ToString() string {
	return n.Address
}

// BinaryOpNode represents a binary operation
type BinaryOpNode struct {
	Op       BinaryOp
	Left     ASTNode
	Right    ASTNode
	Position NodePosition
}

func (n *BinaryOpNode) Eval(e *Engine) (Value, error) {
	leftVal, err := n.Left.Eval(e)
	if err != nil {
		return nil, err
	}
	rightVal, err := n.Right.Eval(e)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case BinOpAdd:
		return numberOrZero(leftVal) + numberOrZero(rightVal), nil

	case BinOpSubtract:
		return numberOrZero(leftVal) - numberOrZero(rightVal), nil

	case BinOpMultiply:
		return numberOrZero(leftVal) * numberOrZero(rightVal), nil

	case BinOpDivide:
		rightNum := numberOrZero(rightVal)
		if rightNum == 0 {
			// division by zero yields 0, a compatibility leniency
			return float64(0), nil
		}
		return numberOrZero(leftVal) / rightNum, nil

	case BinOpModulo:
		rightNum := numberOrZero(rightVal)
		if rightNum == 0 {
			// same leniency as division
			return float64(0), nil
		}
		return math.Mod(numberOrZero(leftVal), rightNum), nil

	case BinOpPower:
		return math.Pow(numberOrZero(leftVal), numberOrZero(rightVal)), nil

	case BinOpConcat:
		return toText(leftVal) + toText(rightVal), nil

	case BinOpEqual:
		return compareValues(leftVal, rightVal) == 0, nil

	case BinOpNotEqual:
		return compareValues(leftVal, rightVal) != 0, nil

	case BinOpLess:
		return compareValues(leftVal, rightVal) < 0, nil

	case BinOpLessEqual:
		return compareValues(leftVal, rightVal) <= 0, nil

	case BinOpGreater:
		return compareValues(leftVal, rightVal) > 0, nil

	case BinOpGreaterEqual:
		return compareValues(leftVal, rightVal) >= 0, nil

	default:
		// unreachable with the fixed token set
		return nil, NewError(ErrorCodeOperator, fmt.Sprintf("unsupported operator: %s", n.opString()))
	}
}

func (n *BinaryOpNode) GetPosition() NodePosition {
	return n.Position
}

func (n *BinaryOpNode) opString() string {
	switch n.Op {
	case BinOpAdd:
		return "+"
	case BinOpSubtract:
		return "-"
	case BinOpMultiply:
		return "*"
	case BinOpDivide:
		return "/"
	case BinOpModulo:
		return "%"
	case BinOpPower:
		return "^"
	case BinOpConcat:
		return "&"
	case BinOpEqual:
		return "="
	case BinOpNotEqual:
		return "<>"
	case BinOpLess:
		return "<"
	case BinOpLessEqual:
		return "<="
	case BinOpGreater:
		return ">"
	case BinOpGreaterEqual:
		return ">="
	}
	return "?"
}

func (n *BinaryOpNode) ToString() string {
	return fmt.Sprintf("(%s%s%s)", n.Left.ToString(), n.opString(), n.Right.ToString())
}

// FunctionCallNode represents a function call
type FunctionCallNode struct {
	Name     string
	Args     []ASTNode
	Position NodePosition
}

func (n *FunctionCallNode) Eval(e *Engine) (Value, error) {
	// evaluate arguments left to right
	args := make([]Value, len(n.Args))
	for i, argNode := range n.Args {
		argVal, err := argNode.Eval(e)
		if err != nil {
			return nil, err
		}
		args[i] = argVal
	}

	// look up by name at evaluation time so re-registering a name takes
	// effect for already-cached trees
	fn, ok := e.registry.Lookup(n.Name)
	if !ok {
		return nil, NewError(ErrorCodeName, fmt.Sprintf("unknown function: %s", n.Name))
	}
	return fn(args...)
}

func (n *FunctionCallNode) GetPosition() NodePosition {
	return n.Position
}

func (n *FunctionCallNode) ToString() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.ToString()
	}
	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ","))
}

// NewParser creates a new parser over a token stream. The registry is
// consulted to validate function names during parsing; a nil registry
// skips that check.
func NewParser(tokens []Token, registry *Registry) *Parser {
	return &Parser{
		tokens:   tokens,
		registry: registry,
	}
}

// Parse parses the tokens into an AST. An empty stream (EOF only)
// yields a nil node, which the engine evaluates to 0.
func (p *Parser) Parse() (ASTNode, error) {
	if len(p.tokens) == 0 || p.tokens[0].Type == TokenEOF {
		return nil, nil
	}

	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	// ensure all tokens are consumed
	if p.current().Type != TokenEOF {
		return nil, NewError(ErrorCodeParse, fmt.Sprintf("unexpected token after expression: %s", p.current().Value))
	}

	return node, nil
}

// current returns the token at the cursor. The stream always ends with
// an EOF sentinel, so this is safe to call unconditionally.
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF, Pos: p.pos}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekType(offset int) TokenType {
	pos := p.pos + offset
	if pos >= len(p.tokens) {
		return TokenEOF
	}
	return p.tokens[pos].Type
}

// parseComparison handles comparison operators (lowest precedence)
func (p *Parser) parseComparison() (ASTNode, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		if tok.Type != TokenOperator {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "=":
			op = BinOpEqual
		case "<>":
			op = BinOpNotEqual
		case "<":
			op = BinOpLess
		case "<=":
			op = BinOpLessEqual
		case ">":
			op = BinOpGreater
		case ">=":
			op = BinOpGreaterEqual
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseAddition handles addition, subtraction, and concatenation, which
// share a precedence level
func (p *Parser) parseAddition() (ASTNode, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		if tok.Type != TokenOperator {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "+":
			op = BinOpAdd
		case "-":
			op = BinOpSubtract
		case "&":
			op = BinOpConcat
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parseMultiplication handles multiplication, division, and modulo
func (p *Parser) parseMultiplication() (ASTNode, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.current()
		if tok.Type != TokenOperator {
			break
		}

		var op BinaryOp
		switch tok.Value {
		case "*":
			op = BinOpMultiply
		case "/":
			op = BinOpDivide
		case "%":
			op = BinOpModulo
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       op,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parsePower handles exponentiation. Left-associative like every other
// operator here, so 2^3^2 is (2^3)^2.
func (p *Parser) parsePower() (ASTNode, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOperator && p.current().Value == "^" {
		p.pos++
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{
			Op:       BinOpPower,
			Left:     left,
			Right:    right,
			Position: NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End},
		}
	}

	return left, nil
}

// parsePrimary handles primary expressions (literals, references,
// function calls, parentheses)
func (p *Parser) parsePrimary() (ASTNode, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.pos++
		return p.parseNumberLiteral(tok)

	case TokenString:
		p.pos++
		return &StringNode{
			Value:    tok.Value,
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + utf8.RuneCountInString(tok.Value) + 2}, // +2 for quotes
		}, nil

	case TokenBoolean:
		p.pos++
		return &BooleanNode{
			Value:    tok.Value == "TRUE",
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenCell:
		p.pos++
		return &CellRefNode{
			Address:  tok.Value,
			Position: NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)},
		}, nil

	case TokenIdentifier:
		if p.peekType(1) == TokenLeftParen {
			return p.parseFunctionCall()
		}
		return nil, NewError(ErrorCodeName, fmt.Sprintf("unknown identifier: %s", tok.Value))

	case TokenLeftParen:
		p.pos++
		node, err := p.parseComparison()
		if err != nil {
			return nil, err
		}

		if p.current().Type != TokenRightParen {
			return nil, NewError(ErrorCodeParse, "expected closing parenthesis")
		}
		p.pos++

		return node, nil

	case TokenOperator:
		// an operator with nothing on its left lands here
		return nil, NewError(ErrorCodeArity, fmt.Sprintf("operator '%s' is missing an operand", tok.Value))

	case TokenEOF:
		return nil, NewError(ErrorCodeArity, "unexpected end of expression")

	default:
		return nil, NewError(ErrorCodeParse, fmt.Sprintf("unexpected token: %s", tok.Value))
	}
}

// parseNumberLiteral converts a number token into a node. Literals
// without a decimal point stay integers when they fit in int64;
// everything else becomes a float.
func (p *Parser) parseNumberLiteral(tok Token) (ASTNode, error) {
	position := NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)}

	if !strings.Contains(tok.Value, ".") {
		if intVal, err := strconv.ParseInt(tok.Value, 10, 64); err == nil {
			return &NumberNode{Value: intVal, Position: position}, nil
		}
	}

	floatVal, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		return nil, NewError(ErrorCodeParse, fmt.Sprintf("invalid number: %s", tok.Value))
	}
	return &NumberNode{Value: floatVal, Position: position}, nil
}

// parseFunctionCall parses a function call. The name must be known to
// the registry; anything else fails before the arguments are looked at.
func (p *Parser) parseFunctionCall() (ASTNode, error) {
	nameTok := p.current()
	funcName := strings.ToUpper(nameTok.Value)
	startPos := nameTok.Pos
	p.pos++ // consume function name

	if p.registry != nil && !p.registry.Has(funcName) {
		return nil, NewError(ErrorCodeName, fmt.Sprintf("unknown function: %s", funcName))
	}

	p.pos++ // consume '('

	args := []ASTNode{}

	// check for empty argument list
	if p.current().Type == TokenRightParen {
		endPos := p.current().Pos + 1
		p.pos++
		return &FunctionCallNode{
			Name:     funcName,
			Args:     args,
			Position: NodePosition{Start: startPos, End: endPos},
		}, nil
	}

	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if p.current().Type == TokenRightParen {
			p.pos++
			break
		}

		if p.current().Type != TokenComma {
			return nil, NewError(ErrorCodeParse, "expected ',' or ')' in function arguments")
		}
		p.pos++
	}

	return &FunctionCallNode{
		Name:     funcName,
		Args:     args,
		Position: NodePosition{Start: startPos, End: p.tokens[p.pos-1].Pos + 1},
	}, nil
}

// compareValues compares two values. Returns -1 if left < right, 0 if
// equal, 1 if left > right. The ordering is total: when both sides
// coerce to numbers they compare numerically (numeric text included,
// so "10" equals 10), everything else compares by text form.
func compareValues(left, right Value) int {
	// handle nil values; empty sorts before everything
	if left == nil && right == nil {
		return 0
	}
	if left == nil {
		return -1
	}
	if right == nil {
		return 1
	}

	// try numeric comparison first
	leftNum, leftIsNum := parseNumeric(left)
	rightNum, rightIsNum := parseNumeric(right)

	if leftIsNum && rightIsNum {
		if leftNum < rightNum {
			return -1
		} else if leftNum > rightNum {
			return 1
		}
		return 0
	}

	// fall back to text comparison
	leftStr := toText(left)
	rightStr := toText(right)

	if leftStr < rightStr {
		return -1
	} else if leftStr > rightStr {
		return 1
	}
	return 0
}
