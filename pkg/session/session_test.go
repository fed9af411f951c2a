package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/pkg/config"
	"liscraper/pkg/errors"
	"liscraper/pkg/logger"
)

// loginPage is a scripted PageDriver covering only what the login state
// machine touches.
type loginPage struct {
	visible map[string]bool
	url     string

	typed   map[string]string
	clicks  []string
	visited []string

	navErr error
}

func newLoginPage() *loginPage {
	return &loginPage{
		visible: make(map[string]bool),
		typed:   make(map[string]string),
	}
}

func (l *loginPage) Navigate(url string) error {
	if l.navErr != nil {
		return l.navErr
	}
	l.visited = append(l.visited, url)
	l.url = url
	return nil
}

func (l *loginPage) WaitVisible(selector string, timeout time.Duration) error { return nil }

func (l *loginPage) Exists(selector string) (bool, error) {
	return l.visible[selector], nil
}

func (l *loginPage) CountElements(selector string) (int, error)    { return 0, nil }
func (l *loginPage) QueryOuterHTML(selector string) ([]string, error) { return nil, nil }
func (l *loginPage) ScrollToBottom() error                         { return nil }

func (l *loginPage) SendKeys(selector, value string) error {
	l.typed[selector] = value
	return nil
}

func (l *loginPage) Click(selector string) error {
	l.clicks = append(l.clicks, selector)
	return nil
}

func (l *loginPage) CurrentURL() (string, error) { return l.url, nil }
func (l *loginPage) Close() error                { return nil }

func testMarkers() Markers {
	return Markers{
		EmailField:            "#email",
		PasswordField:         "#pass",
		SubmitButton:          "#submit",
		Success:               []string{"#home"},
		Challenge:             []string{"#captcha"},
		ChallengeURLFragments: []string{"/checkpoint/"},
		Rejected:              []string{"#bad-credentials"},
	}
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		LoginURL:              "https://example.com/login",
		ChallengePollInterval: time.Millisecond,
		ChallengeTimeout:      50 * time.Millisecond,
		LoginTimeout:          50 * time.Millisecond,
	}
}

func newTestManager(page *loginPage) *Manager {
	m := NewManager(page, testSessionConfig(), testMarkers(), logger.GetLogger())
	m.sleep = func(time.Duration) {}
	return m
}

func TestAuthenticateHappyPath(t *testing.T) {
	page := newLoginPage()
	page.visible["#home"] = true // landing page appears right after submit

	m := newTestManager(page)
	state, err := m.Authenticate(Credentials{Email: "me@example.com", Password: "secret"})

	require.NoError(t, err)
	assert.Equal(t, Authenticated, state)
	assert.Equal(t, Authenticated, m.State())

	// The form actually got filled and submitted.
	assert.Equal(t, []string{"https://example.com/login"}, page.visited)
	assert.Equal(t, "me@example.com", page.typed["#email"])
	assert.Equal(t, "secret", page.typed["#pass"])
	assert.Equal(t, []string{"#submit"}, page.clicks)
}

func TestAuthenticateRejectedCredentials(t *testing.T) {
	page := newLoginPage()
	page.visible["#bad-credentials"] = true

	m := newTestManager(page)
	state, err := m.Authenticate(Credentials{Email: "me@example.com", Password: "wrong"})

	require.Error(t, err)
	assert.Equal(t, Failed, state)
	assert.Equal(t, errors.ErrorTypeAuth, errors.TypeOf(err))
}

func TestAuthenticateMissingCredentials(t *testing.T) {
	m := newTestManager(newLoginPage())

	state, err := m.Authenticate(Credentials{})
	require.Error(t, err)
	assert.Equal(t, Failed, state)
	assert.Equal(t, errors.ErrorTypeAuth, errors.TypeOf(err))
}

func TestAuthenticateChallengeResolved(t *testing.T) {
	page := newLoginPage()
	page.visible["#captcha"] = true

	m := NewManager(page, testSessionConfig(), testMarkers(), logger.GetLogger())

	// The operator "solves" the challenge on the third poll.
	polls := 0
	m.sleep = func(time.Duration) {
		polls++
		if polls == 3 {
			page.visible["#captcha"] = false
			page.visible["#home"] = true
		}
	}

	state, err := m.Authenticate(Credentials{Email: "me@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, Authenticated, state)
}

func TestAuthenticateChallengeTimeout(t *testing.T) {
	page := newLoginPage()
	page.visible["#captcha"] = true // never resolved

	m := newTestManager(page)
	state, err := m.Authenticate(Credentials{Email: "me@example.com", Password: "secret"})

	require.Error(t, err)
	assert.Equal(t, Failed, state)
	// A challenge timeout is not a credential failure; callers can tell
	// them apart.
	assert.Equal(t, errors.ErrorTypeChallenge, errors.TypeOf(err))
}

func TestChallengeDetectedByURL(t *testing.T) {
	page := newLoginPage()

	m := NewManager(page, testSessionConfig(), testMarkers(), logger.GetLogger())
	polls := 0
	m.sleep = func(time.Duration) {
		polls++
		if polls == 1 {
			// Submit redirected to a checkpoint page with no known marker.
			page.url = "https://example.com/checkpoint/challenge/xyz"
		}
		if polls == 4 {
			page.url = "https://example.com/feed/"
			page.visible["#home"] = true
		}
	}

	state, err := m.Authenticate(Credentials{Email: "me@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, Authenticated, state)
}
