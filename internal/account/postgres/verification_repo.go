// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/stkaddons/stkaddons/internal/account"
)

// VerificationRepository implements account.VerificationRepository using
// PostgreSQL. The table holds at most one code per user.
type VerificationRepository struct {
	db DB
}

var _ account.VerificationRepository = (*VerificationRepository)(nil)

// NewVerificationRepository creates a new VerificationRepository.
func NewVerificationRepository(db DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Upsert stores code, replacing the user's previous code.
func (r *VerificationRepository) Upsert(ctx context.Context, code account.VerificationCode) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO verification (user_id, code)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET code = EXCLUDED.code
	`, code.UserID, code.Code)
	if err != nil {
		return oops.Code("VERIFICATION_UPSERT_FAILED").
			With("operation", "upsert verification").
			With("user_id", code.UserID).
			Wrap(err)
	}
	return nil
}

// GetByUser returns the outstanding code of a user.
func (r *VerificationRepository) GetByUser(ctx context.Context, userID int64) (*account.VerificationCode, error) {
	var vc account.VerificationCode
	err := r.db.QueryRow(ctx, `SELECT user_id, code FROM verification WHERE user_id = $1`, userID).
		Scan(&vc.UserID, &vc.Code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("VERIFICATION_NOT_FOUND").
			With("user_id", userID).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("VERIFICATION_GET_FAILED").
			With("operation", "get verification by user").
			With("user_id", userID).
			Wrap(err)
	}
	return &vc, nil
}

// GetByCode looks a code up by value.
func (r *VerificationRepository) GetByCode(ctx context.Context, code string) (*account.VerificationCode, error) {
	var vc account.VerificationCode
	err := r.db.QueryRow(ctx, `SELECT user_id, code FROM verification WHERE code = $1`, code).
		Scan(&vc.UserID, &vc.Code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("VERIFICATION_NOT_FOUND").Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("VERIFICATION_GET_FAILED").
			With("operation", "get verification by code").
			Wrap(err)
	}
	return &vc, nil
}

// DeleteByUser removes the user's code if there is one.
func (r *VerificationRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM verification WHERE user_id = $1`, userID); err != nil {
		return oops.Code("VERIFICATION_DELETE_FAILED").
			With("operation", "delete verification").
			With("user_id", userID).
			Wrap(err)
	}
	return nil
}
