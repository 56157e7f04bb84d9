// Package template provides a Handlebars template engine for rendering the
// notices shown when a history token names no screen.
//
// Example usage:
//
//	engine := template.NewEngine()
//
//	data := map[string]interface{}{
//	    "token":      "admin,people",
//	    "session_id": "s-1",
//	}
//
//	notice, err := engine.Render(template.DefaultNotice, data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Output: Page "admin,people" was not found.
//
// Built-in helpers:
//   - uppercase - Convert string to uppercase
//   - lowercase - Convert string to lowercase
//   - trim - Trim whitespace from string
//   - default - Return default value if first arg is empty
//   - eq - Equality comparison
//   - truncate - Cut a string to n characters and append "..."
//
// Example with helpers:
//
//	{{default token "(empty)"}}                  # "(empty)" if token is empty
//	{{truncate token 40}}                        # long tokens are shortened
//	{{#if (eq token "all")}}...{{/if}}           # Conditional
package template
