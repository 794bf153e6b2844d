package raster

import (
	"fmt"
	"sort"

	goeval "github.com/edisonguo/govaluate"
)

// Expression derives a raster by evaluating an algebraic expression per
// pixel, with the supplied rasters bound to the expression's variable
// names. A pixel is undefined in the output wherever any referenced input
// is undefined or the evaluated value is not finite (e.g. a negative base
// raised to a fractional power).
func Expression(name string, exprText string, vars map[string]*Raster) (*Raster, error) {
	expr, err := goeval.NewEvaluableExpression(exprText)
	if err != nil {
		return nil, fmt.Errorf("expression '%v' parse error: %v", exprText, err)
	}

	var refs []string
	seen := map[string]struct{}{}
	for _, token := range expr.Tokens() {
		if token.Kind != goeval.VARIABLE {
			continue
		}
		varName, ok := token.Value.(string)
		if !ok {
			return nil, fmt.Errorf("variable token '%v' failed to cast string", token.Value)
		}
		if _, found := vars[varName]; !found {
			return nil, fmt.Errorf("variable %v is not supported. Valid variables are %v", varName, varNames(vars))
		}
		if _, dup := seen[varName]; !dup {
			seen[varName] = struct{}{}
			refs = append(refs, varName)
		}
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("expression '%v' references no raster variable", exprText)
	}

	grid := vars[refs[0]].grid
	for _, ref := range refs[1:] {
		if !grid.Equal(vars[ref].grid) {
			return nil, fmt.Errorf("expression '%v': variable %v has a mismatched grid", exprText, ref)
		}
	}

	return New(grid, name, func() (*Plane, error) {
		planes := make([]*Plane, len(refs))
		for i, ref := range refs {
			plane, err := vars[ref].Plane()
			if err != nil {
				return nil, err
			}
			planes[i] = plane
		}

		out := newPlane(grid.Size())
		parameters := make(map[string]interface{}, len(refs))
		for i := 0; i < grid.Size(); i++ {
			defined := true
			for iv, ref := range refs {
				if !planes[iv].Valid[i] {
					defined = false
					break
				}
				parameters[ref] = planes[iv].Data[i]
			}
			if !defined {
				continue
			}

			result, err := expr.Evaluate(parameters)
			if err != nil {
				return nil, fmt.Errorf("eval '%v' error: %v", exprText, err)
			}

			var val float64
			switch res := result.(type) {
			case float32:
				val = float64(res)
			case float64:
				val = res
			case bool:
				if res {
					val = 1
				}
			default:
				return nil, fmt.Errorf("failed to cast eval results '%v' to number, %v", result, exprText)
			}

			if !finite(val) {
				continue
			}
			out.Data[i] = val
			out.Valid[i] = true
		}
		return out, nil
	}), nil
}

func varNames(vars map[string]*Raster) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
