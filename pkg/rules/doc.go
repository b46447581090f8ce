// Package rules is the default declarative rule suite for the validation
// orchestrator.
//
// A Suite is an ordered list of Tests. Each test belongs to a field path and
// either calls a Check against the whole model or evaluates a rules/expr
// expression; an optional When expression gates it. Running the suite for a
// single field (focused mode) only evaluates that field's tests, which is what
// the orchestrator does for every debounced control.
//
//	suite := rules.MustNew(
//		rules.Test{Field: "name", Message: "Name is required", Check: rules.Required("name")},
//		rules.Test{Field: "passwords", Message: "Passwords do not match",
//			Check: rules.Equals("passwords.confirmPassword", "passwords.password")},
//		rules.Test{Field: "age", Message: "Must be an adult", Expr: "age >= 18", When: "country == 'IT'"},
//	)
//
// Suites can also be loaded from YAML with LoadYAML.
package rules
