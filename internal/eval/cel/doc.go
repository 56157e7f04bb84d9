// Package cel provides a CEL (Common Expression Language) evaluator for
// history token rewrite rules.
//
// Two variables are declared:
//   - token: the history token, a string
//   - session: attributes of the browser session, a map of string to dyn
//
// Example usage:
//
//	evaluator := cel.NewEvaluator()
//
//	vars := cel.Vars("c/1234", map[string]interface{}{"beta": true})
//	matched, err := evaluator.Match(ctx, "token.startsWith('c/')", vars)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Supported operations:
//   - Comparisons: ==, !=, <, <=, >, >=
//   - Boolean logic: &&, ||, !
//   - String operations: contains, startsWith, endsWith, matches
//   - Map access: session.field, session["field"], has(session.field)
package cel
