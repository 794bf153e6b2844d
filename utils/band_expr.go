package utils

import (
	"fmt"
	"strings"

	goeval "github.com/edisonguo/govaluate"
)

// BandExpressions holds the compiled derived column expressions of a
// process. ExprNames are the output column names, ExprVarRef lists the
// band sums referenced by each expression and VarList is the union of
// all referenced bands in first-seen order.
type BandExpressions struct {
	ExprText    []string
	Expressions []*goeval.EvaluableExpression
	ExprNames   []string
	ExprVarRef  [][]string
	VarList     []string
}

// ParseBandExpressions compiles derived column definitions of the form
// "name=expression". A bare expression names its column after its own
// text. Every expression must reference at least one band sum.
func ParseBandExpressions(bands []string) (*BandExpressions, error) {
	bandExpr := &BandExpressions{}
	varFound := make(map[string]bool)
	for _, bandRaw := range bands {
		band := strings.TrimSpace(bandRaw)
		if len(band) == 0 {
			return nil, fmt.Errorf("empty expression")
		}

		exprName := band
		exprText := band
		// A leading "name=" is a column alias. The identifier test keeps
		// comparison operators such as == and >= out of the split.
		if idx := strings.Index(band, "="); idx > 0 && idx < len(band)-1 && band[idx+1] != '=' {
			name := strings.TrimSpace(band[:idx])
			if isColumnName(name) {
				exprName = name
				exprText = strings.TrimSpace(band[idx+1:])
			}
		}
		if len(exprText) == 0 {
			return nil, fmt.Errorf("expression named '%v' is empty", exprName)
		}

		expr, err := goeval.NewEvaluableExpression(exprText)
		if err != nil {
			return nil, fmt.Errorf("parsing error in expression '%v': %v", exprText, err)
		}

		bandExpr.ExprText = append(bandExpr.ExprText, exprText)
		bandExpr.Expressions = append(bandExpr.Expressions, expr)
		bandExpr.ExprNames = append(bandExpr.ExprNames, exprName)

		bandVarFound := make(map[string]bool)
		var bandVars []string
		for _, token := range expr.Tokens() {
			if token.Kind == goeval.VARIABLE {
				varName, ok := token.Value.(string)
				if !ok {
					return nil, fmt.Errorf("variable token '%v' failed to cast string", token.Value)
				}
				if !varFound[varName] {
					varFound[varName] = true
					bandExpr.VarList = append(bandExpr.VarList, varName)
				}
				if !bandVarFound[varName] {
					bandVarFound[varName] = true
					bandVars = append(bandVars, varName)
				}
			}
		}
		if len(bandVars) == 0 {
			return nil, fmt.Errorf("expression '%v' does not reference any band", exprText)
		}
		bandExpr.ExprVarRef = append(bandExpr.ExprVarRef, bandVars)
	}
	return bandExpr, nil
}

func isColumnName(name string) bool {
	if len(name) == 0 {
		return false
	}
	for i, c := range name {
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return false
	}
	return true
}
