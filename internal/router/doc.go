// Package router decides which screen a browser history token should show.
//
// Routing happens in three phases:
//   - Direct: the token is looked up in the link vocabulary (see package link)
//   - Rewrite: an unknown token is matched against CEL rules, and the first
//     matching rule's target token is looked up instead
//   - Not found: the configured policy either renders a notice or redirects
//     to a default screen
//
// A change token with a malformed id is never rewritten or redirected; Route
// returns an error wrapping link.ErrInvalidChangeID.
//
// Example:
//
//	services, _ := changes.NewServices("https://review.example.com/")
//	r, err := router.NewRouter(services, router.Config{
//	    Rules: []router.Rule{
//	        {Condition: "token == 'starred'", Target: "mine,starred"},
//	    },
//	    NotFound: router.PolicyNotice,
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	decision, err := r.Route(ctx, &router.Request{SessionID: "s-1", Token: "change,42"})
package router
