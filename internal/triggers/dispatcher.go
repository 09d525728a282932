package triggers

import (
	"context"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"

	contribsvc "github.com/contribhub/sync-functions/internal/contributors/service"
	"github.com/contribhub/sync-functions/internal/domain"
	projectsvc "github.com/contribhub/sync-functions/internal/projects/service"
	usersvc "github.com/contribhub/sync-functions/internal/users/service"
)

// TokenVerifier resolves a Firebase ID token to its claims. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Ledger records deliveries per event id. It never decides whether a delivery runs.
type Ledger interface {
	Begin(ctx context.Context, eventID string, trigger string) (attempt int64, err error)
	Finish(ctx context.Context, eventID string, outcome string, handlerErr error) error
}

// Services are the handlers the dispatcher routes to.
type Services struct {
	Projects     *projectsvc.ProjectService
	Contributors *contribsvc.ContributorService
	Users        *usersvc.UserService
}

// Dispatcher maps one trigger event to exactly one handler.
type Dispatcher struct {
	services Services
	ledger   Ledger
	verifier TokenVerifier
	metrics  *Metrics
	now      func() time.Time
}

type Option func(*Dispatcher)

func WithLedger(l Ledger) Option {
	return func(d *Dispatcher) { d.ledger = l }
}

func WithTokenVerifier(v TokenVerifier) Option {
	return func(d *Dispatcher) { d.verifier = v }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(services Services, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		services: services,
		metrics:  NewMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Dispatch validates the envelope and runs the trigger's handler to completion.
// A returned error means the host should redeliver, unless it wraps ErrInvalidEvent
// or ErrUnknownTrigger.
func (d *Dispatcher) Dispatch(ctx context.Context, t Trigger, env Envelope) (domain.Outcome, error) {
	if err := env.Validate(t); err != nil {
		return "", err
	}

	logCtx := zerolog.Ctx(ctx).With().Str("event_id", env.EventID).Str("trigger", string(t))
	if env.Params.ProjectID != "" {
		logCtx = logCtx.Str("project_id", env.Params.ProjectID)
	}
	if env.Params.UserID != "" {
		logCtx = logCtx.Str("user_id", env.Params.UserID)
	}
	logger := logCtx.Logger()
	ctx = logger.WithContext(ctx)

	d.begin(ctx, &logger, t, env.EventID)

	start := time.Now()
	outcome, err := d.route(ctx, t, env)
	d.metrics.record(t, time.Since(start), outcome == domain.OutcomeSkipped, err)

	if err != nil {
		logger.Error().Err(err).Msg("trigger failed")
	}
	d.finish(ctx, &logger, env.EventID, outcome, err)

	return outcome, err
}

func (d *Dispatcher) route(ctx context.Context, t Trigger, env Envelope) (domain.Outcome, error) {
	eventTime := d.now().UTC()
	if env.CreateTime != nil && !env.CreateTime.IsZero() {
		eventTime = env.CreateTime.UTC()
	}

	switch t {
	case UsersCreate:
		return d.services.Users.OnIdentityCreate(ctx, domain.IdentityFromData(env.Params.UID, env.Value))
	case UsersDelete:
		return d.services.Users.OnIdentityDelete(ctx, env.Params.UID)
	case ProjectsCreate:
		return d.services.Projects.Enrich(ctx, projectsvc.EnrichRequest{
			ProjectID:  env.Params.ProjectID,
			CreatorUID: d.creatorUID(ctx, env.Auth),
			CreateTime: eventTime,
		})
	case ProjectsDelete:
		outcome, _, err := d.services.Projects.Cleanup(ctx, projectsvc.CleanupRequest{
			ProjectID: env.Params.ProjectID,
			Snapshot:  env.Value,
		})
		return outcome, err
	case ContributorsCreate, ContributorsDelete:
		ev := contribsvc.RelationshipEvent{
			ProjectID:  env.Params.ProjectID,
			UserID:     env.Params.UserID,
			Snapshot:   env.Value,
			CreateTime: eventTime,
		}
		if t == ContributorsCreate {
			return d.services.Contributors.OnCreate(ctx, ev)
		}
		return d.services.Contributors.OnDelete(ctx, ev)
	}
	return "", ErrUnknownTrigger
}

// creatorUID prefers the uid supplied by the host, then a verified ID token.
// Anything else is treated as an unauthenticated write.
func (d *Dispatcher) creatorUID(ctx context.Context, a *AuthContext) string {
	if a == nil {
		return ""
	}
	if uid := strings.TrimSpace(a.UID); uid != "" {
		return uid
	}
	if a.Token == "" || d.verifier == nil {
		return ""
	}
	token, err := d.verifier.VerifyIDToken(ctx, a.Token)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("creator token rejected")
		return ""
	}
	return token.UID
}

func (d *Dispatcher) begin(ctx context.Context, logger *zerolog.Logger, t Trigger, eventID string) {
	if d.ledger == nil {
		return
	}
	attempt, err := d.ledger.Begin(ctx, eventID, string(t))
	if err != nil {
		logger.Warn().Err(err).Msg("ledger begin failed")
		return
	}
	if attempt > 1 {
		logger.Info().Int64("attempt", attempt).Msg("redelivery")
	}
}

func (d *Dispatcher) finish(ctx context.Context, logger *zerolog.Logger, eventID string, outcome domain.Outcome, handlerErr error) {
	if d.ledger == nil {
		return
	}
	status := string(outcome)
	if handlerErr != nil {
		status = "failed"
	}
	if err := d.ledger.Finish(ctx, eventID, status, handlerErr); err != nil {
		logger.Warn().Err(err).Msg("ledger finish failed")
	}
}
