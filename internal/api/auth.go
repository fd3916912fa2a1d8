package api

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"
)

var (
	tokenPaths = []string{"access_token", "accessToken", "token", "data.access_token", "data.accessToken", "data.token"}
	userPaths  = []string{"user", "data.user", "data.data", "data"}
)

// SavedCookie is a cookie persisted between CLI invocations
type SavedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is the persisted authentication state
type Session struct {
	Token   string        `json:"token,omitempty"`
	Cookies []SavedCookie `json:"cookies,omitempty"`
	User    *types.User   `json:"user,omitempty"`
}

// Empty reports whether the session carries no credentials
func (s Session) Empty() bool {
	return s.Token == "" && len(s.Cookies) == 0
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, creds types.Credentials) (*types.User, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingCredentials, "email and password are required", nil)
	}

	resp, err := c.Do(ctx, Request{
		Name:      "auth.login",
		Method:    http.MethodPost,
		Path:      "/auth/login",
		Body:      creds,
		NoRefresh: true,
	})
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeAuth) {
			return nil, errors.NewAuthError(errors.ErrCodeUnauthorized, "invalid email or password", err)
		}
		return nil, err
	}

	var user *types.User
	if decoded, err := Decode[types.User](resp.Data, userPaths...); err == nil && (decoded.ID != "" || decoded.Email != "") {
		user = &decoded
	} else {
		user = &types.User{Email: creds.Email}
	}

	c.setCredentials(LocateString(resp.Data, tokenPaths...), user, true)
	c.logger.Info("Logged in", "email", user.Email)
	return user, nil
}

// Refresh renews the session unconditionally
func (c *Client) Refresh(ctx context.Context) error {
	_, generation := c.credentials()
	return c.refreshAfter(ctx, generation)
}

// refreshAfter refreshes the session unless another caller already did so
// after generation was observed. Concurrent callers share one request, which
// runs detached from any single caller so one cancellation cannot fail the
// rest. A cancelled caller stops waiting and gets its context error.
func (c *Client) refreshAfter(ctx context.Context, generation uint64) error {
	if _, current := c.credentials(); current != generation {
		return nil
	}
	result := c.refresh.DoChan("refresh", func() (any, error) {
		if _, current := c.credentials(); current != generation {
			return nil, nil
		}
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.http.Timeout)
		defer cancel()
		return nil, c.doRefresh(refreshCtx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-result:
		if res.Shared {
			c.logger.Debug("Joined in-flight session refresh")
		}
		return res.Err
	}
}

func (c *Client) doRefresh(ctx context.Context) error {
	resp, err := c.Do(ctx, Request{
		Name:      "auth.refresh",
		Method:    http.MethodPost,
		Path:      "/auth/refresh",
		NoRefresh: true,
	})
	if err != nil {
		c.observer.RefreshAttempted(ctx, false)
		c.logger.LogError(err, "Session refresh failed")
		return errors.NewAuthError(errors.ErrCodeRefreshFailed, "your session has expired, please log in again", err)
	}
	c.observer.RefreshAttempted(ctx, true)

	token := LocateString(resp.Data, tokenPaths...)
	if token == "" {
		// cookie-based sessions rotate through Set-Cookie only
		token, _ = c.credentials()
	}
	c.setCredentials(token, nil, false)
	c.logger.Debug("Session refreshed")
	return nil
}

// Logout ends the session on the server and forgets local credentials. Local
// state is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.Do(ctx, Request{
		Name:      "auth.logout",
		Method:    http.MethodPost,
		Path:      "/auth/logout",
		NoRefresh: true,
	})

	c.jar.Reset()
	c.authMu.Lock()
	c.token = ""
	c.user = nil
	c.authGen++
	c.authMu.Unlock()
	c.notifySession()

	if err != nil && !errors.IsType(err, errors.ErrorTypeAuth) {
		return err
	}
	return nil
}

// Me returns the authenticated account
func (c *Client) Me(ctx context.Context) (*types.User, error) {
	resp, err := c.Do(ctx, Request{
		Name:   "auth.me",
		Method: http.MethodGet,
		Path:   "/auth/me",
	})
	if err != nil {
		return nil, err
	}
	user, err := Decode[types.User](resp.Data, append(userPaths, "@")...)
	if err != nil {
		return nil, err
	}

	c.authMu.Lock()
	c.user = &user
	c.authMu.Unlock()
	return &user, nil
}

// Session exports the current credentials for persistence
func (c *Client) Session() Session {
	c.authMu.RLock()
	session := Session{Token: c.token, User: c.user}
	c.authMu.RUnlock()

	for _, cookie := range c.jar.Cookies(c.baseURL) {
		session.Cookies = append(session.Cookies, SavedCookie{Name: cookie.Name, Value: cookie.Value})
	}
	return session
}

func (c *Client) restoreSession(s Session) {
	c.authMu.Lock()
	c.token = s.Token
	c.user = s.User
	c.authMu.Unlock()

	if len(s.Cookies) == 0 {
		return
	}
	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for _, saved := range s.Cookies {
		cookies = append(cookies, &http.Cookie{Name: saved.Name, Value: saved.Value, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, cookies)
}

// credentials returns the bearer token and the auth generation it belongs to
func (c *Client) credentials() (string, uint64) {
	c.authMu.RLock()
	defer c.authMu.RUnlock()
	return c.token, c.authGen
}

func (c *Client) setCredentials(token string, user *types.User, replaceUser bool) {
	c.authMu.Lock()
	c.token = token
	if replaceUser {
		c.user = user
	}
	c.authGen++
	c.authMu.Unlock()
	c.notifySession()
}

func (c *Client) notifySession() {
	if c.onSession != nil {
		c.onSession(c.Session())
	}
}

// sessionJar is a cookie jar that can be emptied on logout
type sessionJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newSessionJar() (*sessionJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &sessionJar{jar: jar}, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

// Reset drops every stored cookie
func (j *sessionJar) Reset() {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}
