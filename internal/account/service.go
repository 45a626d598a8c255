// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stkaddons/stkaddons/pkg/errutil"
)

var tracer = otel.Tracer("stkaddons/account")

// Service is the entry point the outer surfaces call. It composes the
// validator, identity store, session manager and verification workflow and
// adds tracing, metrics and the login throttle.
type Service struct {
	validator    *Validator
	identity     *IdentityStore
	sessions     *SessionManager
	verification *VerificationWorkflow
	guard        *Guard
	throttle     LoginThrottle
	logger       *slog.Logger

	registrationDisabled bool
	mailQueued           bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithThrottle enables the failed-login throttle.
func WithThrottle(t LoginThrottle) ServiceOption {
	return func(s *Service) {
		s.throttle = t
	}
}

// WithRegistrationDisabled makes Register fail with ErrRegistrationDisabled.
func WithRegistrationDisabled(disabled bool) ServiceOption {
	return func(s *Service) {
		s.registrationDisabled = disabled
	}
}

// WithGuardOptions configures the session guard.
func WithGuardOptions(opts ...GuardOption) ServiceOption {
	return func(s *Service) {
		for _, opt := range opts {
			opt(s.guard)
		}
	}
}

// WithQueuedMail marks the verification sender as a queue. Accepted mail is
// then recorded as queued, and the queue records the delivery outcome
// through RecordVerificationMail.
func WithQueuedMail(queued bool) ServiceOption {
	return func(s *Service) {
		s.mailQueued = queued
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service.
func NewService(
	validator *Validator,
	identity *IdentityStore,
	sessions *SessionManager,
	verification *VerificationWorkflow,
	opts ...ServiceOption,
) (*Service, error) {
	switch {
	case identity == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("identity store is required")
	case sessions == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("session manager is required")
	case verification == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("verification workflow is required")
	}
	s := &Service{
		validator:    validator,
		identity:     identity,
		sessions:     sessions,
		verification: verification,
		guard:        NewGuard(sessions),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// begin opens a span for op and returns the function that closes it,
// records metrics and logs unexpected failures.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "account."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(CodeOf(err)))
			if KindOf(err) == KindDatabase {
				errutil.LogError(s.logger, "account operation failed", oops.With("operation", op).Wrap(err))
			}
		}
		span.End()
		RecordOperation(op, err, time.Since(start))
	}
}

// Register validates req, creates the account and sends the verification
// email. A failed email does not fail registration; the user can request a
// new one with ResendVerification.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (user *User, err error) {
	ctx, done := s.begin(ctx, OpRegister, attribute.String("account.username", req.Username))
	defer func() { done(err) }()

	if s.registrationDisabled {
		return nil, ErrRegistrationDisabled
	}
	if err := s.validator.Registration(req); err != nil {
		return nil, err
	}

	user, _, err = s.identity.Register(ctx, Registration{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		RealName: req.RealName,
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account registered", "user_id", user.ID, "username", user.Username)

	s.recordMail(s.verification.SendVerificationEmail(ctx, user.ID))
	return user, nil
}

// Login authenticates the user and opens a session.
func (s *Service) Login(ctx context.Context, username, password, userAgent string) (session *Session, err error) {
	ctx, done := s.begin(ctx, OpLogin, attribute.String("account.username", username))
	defer func() { done(err) }()

	if s.throttle != nil && username != "" {
		if err := s.throttle.Check(ctx, username); err != nil {
			if errors.Is(err, ErrTooManyAttempts) {
				return nil, err
			}
			s.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
		}
	}

	session, err = s.sessions.Create(ctx, username, password, userAgent)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) && s.throttle != nil && username != "" {
			if tErr := s.throttle.Failure(ctx, username); tErr != nil {
				s.logger.WarnContext(ctx, "login throttle unavailable", "error", tErr)
			}
		}
		return nil, err
	}

	if s.throttle != nil {
		if tErr := s.throttle.Reset(ctx, username); tErr != nil {
			s.logger.WarnContext(ctx, "login throttle unavailable", "error", tErr)
		}
	}
	RecordLogin(ClientVersionLabel(userAgent))
	s.logger.InfoContext(ctx, "user signed in",
		"user_id", session.UserID,
		"session_id", session.ID.String(),
		"client_version", ClientVersionLabel(userAgent),
	)
	return session, nil
}

// ValidateSession checks a (userID, token) pair.
func (s *Service) ValidateSession(ctx context.Context, userID int64, token string) (session *Session, err error) {
	ctx, done := s.begin(ctx, OpValidate, attribute.Int64("account.user_id", userID))
	defer func() { done(err) }()

	return s.guard.RequireSession(ctx, userID, token)
}

// ResolveSession finds the session for a token alone.
func (s *Service) ResolveSession(ctx context.Context, token string) (session *Session, err error) {
	ctx, done := s.begin(ctx, OpResolve)
	defer func() { done(err) }()

	return s.guard.RequireToken(ctx, token)
}

// Poll validates the session and records activity on it.
func (s *Service) Poll(ctx context.Context, userID int64, token string) (session *Session, err error) {
	ctx, done := s.begin(ctx, OpPoll, attribute.Int64("account.user_id", userID))
	defer func() { done(err) }()

	session, err = s.guard.RequireSession(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Poll(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Activate consumes a verification code and returns the activated user.
func (s *Service) Activate(ctx context.Context, code string) (user *User, err error) {
	ctx, done := s.begin(ctx, OpActivate)
	defer func() { done(err) }()

	userID, err := s.verification.Consume(ctx, code)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account activated", "user_id", userID)
	return s.identity.GetUser(ctx, ByID(userID))
}

// ResendVerification issues a fresh code and mails it. Activated accounts
// return ErrAlreadyActivated.
func (s *Service) ResendVerification(ctx context.Context, lookup Lookup) (err error) {
	ctx, done := s.begin(ctx, OpResend)
	defer func() { done(err) }()

	user, err := s.identity.GetUser(ctx, lookup)
	if err != nil {
		return err
	}
	if user.Activated {
		return ErrAlreadyActivated
	}
	if _, err := s.verification.IssueCode(ctx, user.ID); err != nil {
		return err
	}
	err = s.verification.SendVerificationEmail(ctx, user.ID)
	s.recordMail(err)
	return err
}

// GetUser looks a user up by id or username.
func (s *Service) GetUser(ctx context.Context, lookup Lookup) (user *User, err error) {
	ctx, done := s.begin(ctx, OpGetUser)
	defer func() { done(err) }()

	return s.identity.GetUser(ctx, lookup)
}

// Profile is a user with its role and earned achievements.
type Profile struct {
	User         *User
	Role         *Role
	Achievements []AchievementID
	Sessions     []*Session
}

// Profile loads the user, role, achievements and sessions.
func (s *Service) Profile(ctx context.Context, lookup Lookup) (profile *Profile, err error) {
	ctx, done := s.begin(ctx, OpProfile)
	defer func() { done(err) }()

	user, err := s.identity.GetUser(ctx, lookup)
	if err != nil {
		return nil, err
	}
	role, err := s.identity.Role(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	achieved, err := s.identity.Achievements(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.Sessions(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Role: role, Achievements: achieved, Sessions: sessions}, nil
}

// ValidateFields runs the credential checks on whichever fields are
// non-empty and returns every failure.
func (s *Service) ValidateFields(ctx context.Context, username, password, email string) (errs []error) {
	_, done := s.begin(ctx, OpValidateFields)
	defer func() { done(errors.Join(errs...)) }()

	if username != "" {
		if err := s.validator.Username(username); err != nil {
			errs = append(errs, err)
		}
	}
	if password != "" {
		if err := ValidatePassword(password); err != nil {
			errs = append(errs, err)
		}
	}
	if email != "" {
		if err := ValidateEmail(email); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (s *Service) recordMail(err error) {
	if err == nil && s.mailQueued {
		RecordVerificationMailQueued()
		return
	}
	RecordVerificationMail(err)
}
