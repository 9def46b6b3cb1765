// Package formula resolves plan fields that may be symbolic expressions over
// named settings identifiers into plain numbers. The grammar is deliberately
// closed: identifiers from a fixed set, decimal literals, parentheses and the
// operators + - * / ^. Anything else is a configuration error.
package formula

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/hpgo/household-planner/internal/domain"
)

// LinkVar is the sentinel identifier that copies the value of the same field
// from the account's linked income account.
const LinkVar = "incomeLink"

// Resolver evaluates formulas against one plan's settings.
type Resolver struct {
	vars map[string]decimal.Decimal
}

// NewResolver builds a resolver exposing the settings-scoped identifiers:
// yearStart, yearBorn, yearRetire, yearDie, ageNow, ageRetire, ageDie and
// inflation.
func NewResolver(settings *domain.Settings) *Resolver {
	return &Resolver{vars: map[string]decimal.Decimal{
		"yearStart":  decimal.NewFromInt(int64(settings.YearStart)),
		"yearBorn":   decimal.NewFromInt(int64(settings.YearBorn)),
		"yearRetire": decimal.NewFromInt(int64(settings.YearRetire())),
		"yearDie":    decimal.NewFromInt(int64(settings.YearDie())),
		"ageNow":     decimal.NewFromInt(int64(settings.AgeNow())),
		"ageRetire":  decimal.NewFromInt(int64(settings.AgeRetire)),
		"ageDie":     decimal.NewFromInt(int64(settings.AgeDie)),
		"inflation":  settings.Inflation,
	}}
}

// WithLink returns a resolver that additionally binds the incomeLink
// sentinel to the given value.
func (r *Resolver) WithLink(value decimal.Decimal) *Resolver {
	vars := make(map[string]decimal.Decimal, len(r.vars)+1)
	for k, v := range r.vars {
		vars[k] = v
	}
	vars[LinkVar] = value
	return &Resolver{vars: vars}
}

// Resolve evaluates a formula to a decimal. Empty formulas resolve to the
// given default. Failures are ConfigurationErrors.
func (r *Resolver) Resolve(f domain.Formula, def decimal.Decimal) (decimal.Decimal, error) {
	if f.IsZero() {
		return def, nil
	}
	p := &parser{input: string(f), vars: r.vars}
	v, err := p.parseExpr()
	if err != nil {
		return decimal.Zero, domain.ConfigErrorf("formula %q: %v", f, err)
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return decimal.Zero, domain.ConfigErrorf("formula %q: unexpected %q", f, p.input[p.pos:])
	}
	return v, nil
}

// ResolveYear evaluates a formula to a calendar year, rounding half away
// from zero.
func (r *Resolver) ResolveYear(f domain.Formula, def int) (int, error) {
	v, err := r.Resolve(f, decimal.NewFromInt(int64(def)))
	if err != nil {
		return 0, err
	}
	return int(v.Round(0).IntPart()), nil
}

// parser is a recursive-descent evaluator over the closed grammar:
//
//	expr   := term { ('+'|'-') term }
//	term   := factor { ('*'|'/') factor }
//	factor := ['-'] ( number | ident | '(' expr ')' ) [ '^' factor ]
type parser struct {
	input string
	pos   int
	vars  map[string]decimal.Decimal
}

func (p *parser) parseExpr() (decimal.Decimal, error) {
	v, err := p.parseTerm()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return decimal.Zero, err
			}
			v = v.Add(rhs)
		case '-':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return decimal.Zero, err
			}
			v = v.Sub(rhs)
		default:
			return v, nil
		}
	}
}

func (p *parser) parseTerm() (decimal.Decimal, error) {
	v, err := p.parseFactor()
	if err != nil {
		return decimal.Zero, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return decimal.Zero, err
			}
			v = v.Mul(rhs)
		case '/':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return decimal.Zero, err
			}
			if rhs.IsZero() {
				return decimal.Zero, fmt.Errorf("division by zero")
			}
			v = v.Div(rhs)
		default:
			return v, nil
		}
	}
}

func (p *parser) parseFactor() (decimal.Decimal, error) {
	p.skipSpace()
	neg := false
	if p.peek() == '-' {
		neg = true
		p.pos++
		p.skipSpace()
	}

	var v decimal.Decimal
	var err error
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		v, err = p.parseExpr()
		if err != nil {
			return decimal.Zero, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return decimal.Zero, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
	case unicode.IsDigit(rune(c)) || c == '.':
		v, err = p.parseNumber()
		if err != nil {
			return decimal.Zero, err
		}
	case unicode.IsLetter(rune(c)):
		v, err = p.parseIdent()
		if err != nil {
			return decimal.Zero, err
		}
	default:
		return decimal.Zero, fmt.Errorf("unexpected character %q", string(c))
	}

	p.skipSpace()
	if p.peek() == '^' {
		p.pos++
		exp, err := p.parseFactor()
		if err != nil {
			return decimal.Zero, err
		}
		v = v.Pow(exp)
	}

	if neg {
		v = v.Neg()
	}
	return v, nil
}

func (p *parser) parseNumber() (decimal.Decimal, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if unicode.IsDigit(rune(c)) || c == '.' {
			p.pos++
			continue
		}
		break
	}
	v, err := decimal.NewFromString(p.input[start:p.pos])
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return v, nil
}

func (p *parser) parseIdent() (decimal.Decimal, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := rune(p.input[p.pos])
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			p.pos++
			continue
		}
		break
	}
	name := p.input[start:p.pos]
	if v, ok := p.vars[name]; ok {
		return v, nil
	}
	if strings.EqualFold(name, LinkVar) {
		return decimal.Zero, fmt.Errorf("identifier %q requires an income link", name)
	}
	return decimal.Zero, fmt.Errorf("unknown identifier %q", name)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}
