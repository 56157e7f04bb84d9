// Package changes locates the remote services behind the change screens.
//
// Example usage:
//
//	services, err := changes.NewServices("https://review.example.com/gerrit/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(services.ChangeList) // https://review.example.com/gerrit/rpc/ChangeListService
package changes
