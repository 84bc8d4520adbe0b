package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/createsphere/marketplace/internal/core/ports"
)

// Outcome is the terminal state of a restoration pass.
type Outcome int

const (
	// OutcomeNoToken: storage unavailable or holding no credentials.
	OutcomeNoToken Outcome = iota
	// OutcomeRestored: the session was rebuilt from a stored token.
	OutcomeRestored
	// OutcomeTeardown: the stored token was rejected and every credential
	// was cleared.
	OutcomeTeardown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoToken:
		return "no_token"
	case OutcomeRestored:
		return "restored"
	case OutcomeTeardown:
		return "teardown"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes what a restoration pass did. Err carries the swallowed
// validation failure for diagnostics.
type Result struct {
	Outcome Outcome
	Admin   bool
	Err     error
}

// The restoration pass is guarded per process, not per Restorer: a host
// that mounts its root twice (hot reload, several windows sharing one
// storage) must not validate and rewrite the stored credentials twice.
var (
	restoreMu     sync.Mutex
	restoreDone   bool
	restoreResult Result
)

// Restorer rebuilds a Session from durable storage.
type Restorer struct {
	session  *Session
	store    ports.KeyValueStore
	identity ports.IdentityAPI
	log      zerolog.Logger
}

// NewRestorer wires a restoration pass. store may be nil for hosts without
// durable storage.
func NewRestorer(sess *Session, store ports.KeyValueStore, identity ports.IdentityAPI, log zerolog.Logger) *Restorer {
	return &Restorer{session: sess, store: store, identity: identity, log: log}
}

// Restore runs the restoration pass the first time any Restorer in the
// process is asked to, and returns that result on every later call. It
// never fails: a rejected token ends in OutcomeTeardown with the session
// empty. Concurrent callers wait for the pass in flight.
func (r *Restorer) Restore(ctx context.Context) Result {
	restoreMu.Lock()
	defer restoreMu.Unlock()

	if restoreDone {
		r.log.Debug().
			Str("outcome", restoreResult.Outcome.String()).
			Msg("session restoration already ran in this process")
		return restoreResult
	}

	restoreResult = r.run(ctx)
	restoreDone = true
	r.log.Info().
		Str("outcome", restoreResult.Outcome.String()).
		Bool("admin", restoreResult.Admin).
		Msg("session restoration finished")
	return restoreResult
}

// ResetRestoration forgets the process-wide restoration result so the next
// Restore runs again. Intended for use in tests only.
func ResetRestoration() {
	restoreMu.Lock()
	defer restoreMu.Unlock()
	restoreDone = false
	restoreResult = Result{}
}

func (r *Restorer) run(ctx context.Context) Result {
	if r.store == nil {
		return Result{Outcome: OutcomeNoToken}
	}

	adminToken := r.read(KeyAdminToken)
	authToken := r.read(KeyAuthToken)

	if adminToken != "" {
		// Admin sessions are accepted on presence alone; the regular token
		// stays in storage untouched for this run.
		if err := r.session.SetAdminToken(adminToken); err != nil {
			r.log.Warn().Err(err).Msg("persist admin token")
		}
		return Result{Outcome: OutcomeRestored, Admin: true}
	}
	if authToken == "" {
		return Result{Outcome: OutcomeNoToken}
	}

	if err := r.session.SetAuthToken(authToken); err != nil {
		r.log.Warn().Err(err).Msg("persist auth token")
	}

	user, err := r.identity.Profile(ctx, authToken)
	if err == nil && user == nil {
		err = fmt.Errorf("identity returned no profile")
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("stored token rejected, clearing session")
		if clearErr := r.session.Clear(); clearErr != nil {
			r.log.Error().Err(clearErr).Msg("clear session storage")
		}
		return Result{Outcome: OutcomeTeardown, Err: err}
	}

	if err := r.session.SetUser(user); err != nil {
		r.log.Warn().Err(err).Msg("persist user role")
	}
	return Result{Outcome: OutcomeRestored}
}

// read treats storage faults as an absent key.
func (r *Restorer) read(key string) string {
	value, found, err := r.store.Get(key)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("read session storage")
		return ""
	}
	if !found {
		return ""
	}
	return value
}
