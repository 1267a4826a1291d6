package capture

import (
	"encoding/base64"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// setBasicAuth makes every request of the tab carry an Authorization
// header, which the board requires when basic auth is configured.
func setBasicAuth(username, password string) chromedp.Action {
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return chromedp.Tasks{
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Authorization": "Basic " + token}),
	}
}
