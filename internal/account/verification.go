// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/stkaddons/stkaddons/internal/mail"
	"github.com/stkaddons/stkaddons/pkg/errutil"
)

// VerificationWorkflow issues, mails and consumes activation codes.
type VerificationWorkflow struct {
	store      Store
	identity   *IdentityStore
	tokens     TokenSource
	codeLength int
	sender     mail.Sender
	composer   *mail.Composer
	logger     *slog.Logger
}

// NewVerificationWorkflow creates a VerificationWorkflow. The code length
// follows the identity store so registration and reissue agree.
func NewVerificationWorkflow(
	store Store,
	identity *IdentityStore,
	sender mail.Sender,
	composer *mail.Composer,
	logger *slog.Logger,
) (*VerificationWorkflow, error) {
	switch {
	case store == nil:
		return nil, oops.Code("VERIFICATION_INVALID_CONFIG").Errorf("store is required")
	case identity == nil:
		return nil, oops.Code("VERIFICATION_INVALID_CONFIG").Errorf("identity store is required")
	case sender == nil:
		return nil, oops.Code("VERIFICATION_INVALID_CONFIG").Errorf("mail sender is required")
	case composer == nil:
		return nil, oops.Code("VERIFICATION_INVALID_CONFIG").Errorf("mail composer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationWorkflow{
		store:      store,
		identity:   identity,
		tokens:     identity.tokens,
		codeLength: identity.codeLength,
		sender:     sender,
		composer:   composer,
		logger:     logger,
	}, nil
}

// IssueCode generates a new code for the user, replacing any outstanding
// one.
func (w *VerificationWorkflow) IssueCode(ctx context.Context, userID int64) (*VerificationCode, error) {
	repos := w.store.Repos()
	if _, err := getUser(ctx, repos.Users, ByID(userID)); err != nil {
		return nil, err
	}
	code, err := issueCode(ctx, repos.Verifications, w.tokens, userID, w.codeLength)
	if err != nil {
		return nil, databaseError(err)
	}
	return code, nil
}

// SendVerificationEmail mails the user's outstanding code. Delivery failures
// are logged and returned; the caller decides whether they matter.
func (w *VerificationWorkflow) SendVerificationEmail(ctx context.Context, userID int64) error {
	repos := w.store.Repos()

	user, err := getUser(ctx, repos.Users, ByID(userID))
	if err != nil {
		return err
	}
	code, err := repos.Verifications.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidCode
		}
		return databaseError(err)
	}

	msg, err := w.composer.Verification(mail.Recipient{
		Username:    user.Username,
		DisplayName: user.DisplayName(),
		Email:       user.Email,
	}, code.Code)
	if err != nil {
		return err
	}

	if err := w.sender.Send(ctx, msg); err != nil {
		err = oops.Code("VERIFICATION_MAIL_FAILED").
			With("user_id", userID).
			With("username", user.Username).
			Wrap(err)
		errutil.LogError(w.logger, "verification email not sent", err)
		return err
	}
	w.logger.InfoContext(ctx, "verification email sent", "user_id", userID)
	return nil
}

// Consume activates the account that owns code and returns its id. An empty
// or unknown code returns ErrInvalidCode. Codes are single use: activation
// deletes them.
func (w *VerificationWorkflow) Consume(ctx context.Context, code string) (int64, error) {
	if code == "" {
		return 0, ErrInvalidCode
	}
	vc, err := w.store.Repos().Verifications.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, ErrInvalidCode
		}
		return 0, databaseError(err)
	}
	if err := w.identity.Activate(ctx, vc.UserID); err != nil {
		return 0, err
	}
	return vc.UserID, nil
}
