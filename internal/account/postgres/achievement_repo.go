// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 STK Addons Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/stkaddons/stkaddons/internal/account"
)

// AchievementRepository implements account.AchievementRepository using
// PostgreSQL.
type AchievementRepository struct {
	db DB
}

var _ account.AchievementRepository = (*AchievementRepository)(nil)

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(db DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// ListByUser returns the achievement ids earned by a user in ascending order.
func (r *AchievementRepository) ListByUser(ctx context.Context, userID int64) ([]account.AchievementID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT achievement_id FROM achieved WHERE user_id = $1 ORDER BY achievement_id
	`, userID)
	if err != nil {
		return nil, oops.Code("ACHIEVEMENT_LIST_FAILED").
			With("operation", "list achievements").
			With("user_id", userID).
			Wrap(err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, oops.Code("ACHIEVEMENT_LIST_FAILED").
			With("operation", "scan achievements").
			With("user_id", userID).
			Wrap(err)
	}

	out := make([]account.AchievementID, len(ids))
	for i, id := range ids {
		out[i] = account.AchievementID(id)
	}
	return out, nil
}
