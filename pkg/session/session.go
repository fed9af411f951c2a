// Package session drives the login flow as an explicit state machine, so a
// credential rejection and a challenge timeout end in distinguishable
// terminal states instead of a tangle of conditionals.
package session

import (
	"strings"
	"time"

	"liscraper/pkg/browser"
	"liscraper/pkg/config"
	"liscraper/pkg/errors"
	"liscraper/pkg/logger"
)

// State is the position of the login state machine. Lifetime is one
// pipeline run; nothing here is persisted.
type State int

const (
	Unauthenticated State = iota
	CredentialsSubmitted
	AwaitingManualChallenge
	Authenticated
	Failed
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case CredentialsSubmitted:
		return "credentials_submitted"
	case AwaitingManualChallenge:
		return "awaiting_manual_challenge"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Credentials are passed straight to the login form and never persisted by
// this package.
type Credentials struct {
	Email    string
	Password string
}

// Markers are the page features the state machine observes. The DOM
// knowledge itself belongs to the provider package; the caller wires the
// selectors in.
type Markers struct {
	EmailField    string
	PasswordField string
	SubmitButton  string

	// Success marks an authenticated landing page (any match wins).
	Success []string
	// Challenge marks a manual verification page.
	Challenge []string
	// ChallengeURLFragments identify challenge pages by address.
	ChallengeURLFragments []string
	// Rejected marks an inline credential error on the login form.
	Rejected []string
}

// Manager owns the login state machine for one run.
type Manager struct {
	driver  browser.PageDriver
	cfg     config.SessionConfig
	markers Markers
	log     logger.Logger
	state   State

	// sleep is the suspension primitive, swappable in tests.
	sleep func(time.Duration)
}

// NewManager creates a session manager in the Unauthenticated state.
func NewManager(driver browser.PageDriver, cfg config.SessionConfig, markers Markers, log logger.Logger) *Manager {
	return &Manager{
		driver:  driver,
		cfg:     cfg,
		markers: markers,
		log:     log,
		state:   Unauthenticated,
		sleep:   time.Sleep,
	}
}

// State returns the current machine state.
func (m *Manager) State() State {
	return m.state
}

// Authenticate drives Unauthenticated through to Authenticated or Failed.
// A challenge page parks the machine in AwaitingManualChallenge and polls
// until the operator resolves it in the browser or the challenge timeout
// elapses. Rejected credentials and a challenge timeout both end in Failed
// but carry different error types.
func (m *Manager) Authenticate(creds Credentials) (State, error) {
	if creds.Email == "" || creds.Password == "" {
		m.state = Failed
		return m.state, errors.New(errors.ErrorTypeAuth, "email and password are required")
	}

	m.log.InfoWithFields("submitting credentials", map[string]interface{}{
		"login_url": m.cfg.LoginURL,
	})

	if err := m.submitCredentials(creds); err != nil {
		m.state = Failed
		return m.state, err
	}
	m.state = CredentialsSubmitted

	return m.awaitOutcome()
}

func (m *Manager) submitCredentials(creds Credentials) error {
	if err := m.driver.Navigate(m.cfg.LoginURL); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "login page unreachable", err)
	}
	if err := m.driver.WaitVisible(m.markers.EmailField, m.cfg.LoginTimeout); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "login form did not render", err)
	}
	if err := m.driver.SendKeys(m.markers.EmailField, creds.Email); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "could not fill email field", err)
	}
	if err := m.driver.SendKeys(m.markers.PasswordField, creds.Password); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "could not fill password field", err)
	}
	if err := m.driver.Click(m.markers.SubmitButton); err != nil {
		return errors.Wrap(errors.ErrorTypeAuth, "could not submit login form", err)
	}
	return nil
}

// awaitOutcome watches the post-login page settle into one of three
// shapes: an authenticated landing page, an inline credential error, or a
// challenge page.
func (m *Manager) awaitOutcome() (State, error) {
	deadline := time.Now().Add(m.cfg.LoginTimeout)
	for {
		if ok, _ := m.anyVisible(m.markers.Success); ok {
			m.state = Authenticated
			m.log.Info("authenticated")
			return m.state, nil
		}
		if ok, _ := m.anyVisible(m.markers.Rejected); ok {
			m.state = Failed
			return m.state, errors.New(errors.ErrorTypeAuth, "credentials rejected by provider")
		}
		if m.challengePresent() {
			return m.awaitChallenge()
		}
		if time.Now().After(deadline) {
			break
		}
		m.sleep(m.cfg.ChallengePollInterval)
	}

	// The page settled into none of the known shapes. Treat it as a
	// challenge wait: an operator watching the browser may still get
	// through.
	return m.awaitChallenge()
}

// awaitChallenge blocks in AwaitingManualChallenge, polling until the
// challenge markers disappear and an authenticated page shows up, or the
// timeout elapses.
func (m *Manager) awaitChallenge() (State, error) {
	m.state = AwaitingManualChallenge
	m.log.WarnWithFields("manual verification required, complete it in the browser", map[string]interface{}{
		"timeout": m.cfg.ChallengeTimeout.String(),
	})

	deadline := time.Now().Add(m.cfg.ChallengeTimeout)
	for time.Now().Before(deadline) {
		if !m.challengePresent() {
			if ok, _ := m.anyVisible(m.markers.Success); ok {
				m.state = Authenticated
				m.log.Info("challenge resolved, authenticated")
				return m.state, nil
			}
		}
		m.sleep(m.cfg.ChallengePollInterval)
	}

	m.state = Failed
	return m.state, errors.New(errors.ErrorTypeChallenge, "manual challenge was not resolved in time")
}

func (m *Manager) challengePresent() bool {
	if ok, _ := m.anyVisible(m.markers.Challenge); ok {
		return true
	}
	if len(m.markers.ChallengeURLFragments) > 0 {
		if url, err := m.driver.CurrentURL(); err == nil {
			for _, fragment := range m.markers.ChallengeURLFragments {
				if strings.Contains(url, fragment) {
					return true
				}
			}
		}
	}
	return false
}

func (m *Manager) anyVisible(selectors []string) (bool, error) {
	for _, sel := range selectors {
		ok, err := m.driver.Exists(sel)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
