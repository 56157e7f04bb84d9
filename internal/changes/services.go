package changes

import (
	"fmt"
	"net/url"
	"strings"
)

// ChangeListPath is the path of the change list RPC endpoint relative to the
// module base URL
const ChangeListPath = "rpc/ChangeListService"

// Services holds the remote endpoints used by change screens.
// Build one with NewServices and pass it to whatever needs it
type Services struct {
	BaseURL    string `json:"base_url"`
	ChangeList string `json:"change_list"`
}

// NewServices binds the change services to moduleBaseURL, which must be an
// absolute http or https URL without query or fragment. A trailing slash is
// added to its path when missing
func NewServices(moduleBaseURL string) (*Services, error) {
	if moduleBaseURL == "" {
		return nil, fmt.Errorf("module base url is required")
	}

	u, err := url.Parse(moduleBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid module base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("module base url %q must use http or https", moduleBaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("module base url %q has no host", moduleBaseURL)
	}

	if u.RawQuery != "" || u.ForceQuery || u.Fragment != "" {
		return nil, fmt.Errorf("module base url %q must not carry a query or fragment", moduleBaseURL)
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		u.RawPath = ""
	}

	return &Services{
		BaseURL:    u.String(),
		ChangeList: u.JoinPath(ChangeListPath).String(),
	}, nil
}
