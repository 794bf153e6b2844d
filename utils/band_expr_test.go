package utils

import (
	"math"
	"testing"
)

func TestParseBandExpressions(t *testing.T) {
	bandExpr, err := ParseBandExpressions([]string{
		"net_carbon=cb2020 - cb2001",
		"total_emissions=ce2002 + ce2003 + ce2002",
		"fc2020 / 1000",
	})
	if err != nil {
		t.Fatalf("expression parsing failed: %v", err)
	}

	expectedNames := []string{"net_carbon", "total_emissions", "fc2020 / 1000"}
	for i, name := range expectedNames {
		if bandExpr.ExprNames[i] != name {
			t.Errorf("column name test failed. Expecting %v, actual: %v", name, bandExpr.ExprNames[i])
		}
	}

	expectedVars := []string{"cb2020", "cb2001", "ce2002", "ce2003", "fc2020"}
	if len(bandExpr.VarList) != len(expectedVars) {
		t.Fatalf("var list test failed. Expecting %v, actual: %v", expectedVars, bandExpr.VarList)
	}
	for i, v := range expectedVars {
		if bandExpr.VarList[i] != v {
			t.Errorf("var order test failed. Expecting %v, actual: %v", v, bandExpr.VarList[i])
		}
	}

	if len(bandExpr.ExprVarRef[1]) != 2 {
		t.Errorf("per-expression var dedup test failed. Expecting 2 vars, actual: %v", bandExpr.ExprVarRef[1])
	}

	result, err := bandExpr.Expressions[0].Evaluate(map[string]interface{}{"cb2020": 120.0, "cb2001": 100.0})
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	val, ok := result.(float32)
	if !ok {
		t.Fatalf("failed to cast eval result to float32: %v", result)
	}
	if math.Abs(float64(val)-20.0) > 1e-4 {
		t.Errorf("evaluation test failed. Expecting 20, actual: %v", val)
	}

	cmp, err := ParseBandExpressions([]string{"fc2020 >= 100"})
	if err != nil {
		t.Fatalf("comparison parsing failed: %v", err)
	}
	if cmp.ExprNames[0] != "fc2020 >= 100" || cmp.ExprText[0] != "fc2020 >= 100" {
		t.Errorf("comparison alias test failed. Expecting full text, actual: %v, %v", cmp.ExprNames[0], cmp.ExprText[0])
	}

	for _, bad := range []string{"", "3 + 4", "x +* 2", "name="} {
		if _, err := ParseBandExpressions([]string{bad}); err == nil {
			t.Errorf("invalid expression test failed for '%v'. Expecting error, actual nil", bad)
		}
	}
}
