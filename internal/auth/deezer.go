// Deezer's OAuth endpoints predate the current RFCs: the token endpoint is a
// GET returning a query-encoded body (access_token=...&expires=...), there is
// no refresh token, and expires=0 marks a non-expiring token.
package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dzx-app/dzx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	deezerAuthURL  = "https://connect.deezer.com/oauth/auth.php"
	deezerTokenURL = "https://connect.deezer.com/oauth/access_token.php"

	// Permissions requested during interactive authorization.
	deezerPerms = "basic_access,offline_access,manage_library"
)

// deezerExchanger trades an authorization code for an access token against
// Deezer's non-standard token endpoint. Implements the callback handler's
// Exchanger contract.
type deezerExchanger struct {
	appID      string
	appSecret  string
	tokenURL   string
	httpClient *http.Client
}

func newDeezerExchanger(appID, appSecret string, httpClient *http.Client) *deezerExchanger {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &deezerExchanger{
		appID:      appID,
		appSecret:  appSecret,
		tokenURL:   deezerTokenURL,
		httpClient: httpClient,
	}
}

// Exchange performs the code-for-token request and parses the query-encoded
// body. The opts are accepted for interface compatibility and ignored; Deezer
// has no use for them.
func (d *deezerExchanger) Exchange(ctx context.Context, code string, _ ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	q := url.Values{
		"app_id": {d.appID},
		"secret": {d.appSecret},
		"code":   {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.tokenURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: token endpoint returned status %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	return parseDeezerToken(string(body))
}

// parseDeezerToken decodes an access_token=...&expires=... body.
func parseDeezerToken(body string) (*oauth2.Token, error) {
	values, err := url.ParseQuery(body)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed token response: %v", shared.ErrAuthFailed, err)
	}

	accessToken := values.Get("access_token")
	if accessToken == "" {
		return nil, fmt.Errorf("%w: token response carried no access_token (%q)", shared.ErrAuthFailed, body)
	}

	token := &oauth2.Token{AccessToken: accessToken}
	if raw := values.Get("expires"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed expires value %q", shared.ErrAuthFailed, raw)
		}
		// expires=0 grants a non-expiring token (offline_access); leave the
		// zero Expiry in place so oauth2 treats it as always valid.
		if secs > 0 {
			token.Expiry = time.Now().Add(time.Duration(secs) * time.Second)
		}
	}
	return token, nil
}

// deezerAuthCodeURL builds the user-facing authorization URL.
func deezerAuthCodeURL(appID, redirectURI, state string) string {
	q := url.Values{
		"app_id":        {appID},
		"redirect_uri":  {redirectURI},
		"perms":         {deezerPerms},
		"response_type": {"code"},
		"state":         {state},
	}
	return deezerAuthURL + "?" + q.Encode()
}
