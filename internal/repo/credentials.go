package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/izinapp/izin-api/internal/models"
)

// UpsertForUser stores the hashed refresh token as the user's single live
// credential, replacing any prior row in place. The prior row is read first
// so the audit entry can carry a before/after diff; the write itself is a
// conditional insert keyed on user_id, which is what enforces the
// one-live-session invariant.
//
// If a concurrent login or rotation for the same user lands between our
// read and write, the insert can still surface a uniqueness conflict. The
// transaction has rolled back by then, so we retry once as a direct update
// keyed on user_id; the racing writer has inserted the row this path
// updates. The fallback writes its audit entry too.
func (r *Repo) UpsertForUser(ctx context.Context, userID uint, plaintextToken string, expiresAt time.Time, actorID *uint) (*models.RefreshToken, error) {
	tokenHash := r.Hasher.Sum(plaintextToken)

	var saved models.RefreshToken
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior models.RefreshToken
		hadPrior := true
		if err := tx.Where("user_id = ?", userID).First(&prior).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hadPrior = false
		}

		rec := models.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_hash", "expires_at", "updated_at"}),
		}).Create(&rec).Error; err != nil {
			return err
		}

		// Re-read: on the conflict path Create does not backfill the row.
		if err := tx.Where("user_id = ?", userID).First(&saved).Error; err != nil {
			return err
		}

		action := models.AuditActionCreate
		var oldData any
		if hadPrior {
			action = models.AuditActionUpdate
			oldData = &prior
		}
		return writeAudit(tx, actorID, action, &saved.ID, oldData, &saved)
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.updateForUser(ctx, userID, tokenHash, expiresAt, actorID)
	}
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// updateForUser is the uniqueness-conflict fallback: the racing writer owns
// the insert, this caller only overwrites hash and expiry.
func (r *Repo) updateForUser(ctx context.Context, userID uint, tokenHash string, expiresAt time.Time, actorID *uint) (*models.RefreshToken, error) {
	var saved models.RefreshToken
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior models.RefreshToken
		if err := tx.Where("user_id = ?", userID).First(&prior).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.RefreshToken{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{"token_hash": tokenHash, "expires_at": expiresAt}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).First(&saved).Error; err != nil {
			return err
		}
		return writeAudit(tx, actorID, models.AuditActionUpdate, &saved.ID, &prior, &saved)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// FindLive resolves a plaintext token to its credential row, provided the
// row has not expired. Absent and expired rows are both a plain miss, so a
// caller cannot probe which tokens ever existed.
func (r *Repo) FindLive(ctx context.Context, plaintextToken string) (*models.RefreshToken, error) {
	tokenHash := r.Hasher.Sum(plaintextToken)

	var rec models.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("token_hash = ? AND expires_at > ?", tokenHash, time.Now().UTC()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteByToken removes the credential row for a plaintext token and audits
// the deletion. Deleting a token that is not stored is not an error; it
// reports 0 rows and writes no audit entry.
func (r *Repo) DeleteByToken(ctx context.Context, plaintextToken string, actorID *uint) (int64, error) {
	tokenHash := r.Hasher.Sum(plaintextToken)

	var deleted int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prior models.RefreshToken
		if err := tx.Where("token_hash = ?", tokenHash).First(&prior).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		res := tx.Where("token_hash = ?", tokenHash).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		if deleted == 0 {
			return nil
		}
		return writeAudit(tx, actorID, models.AuditActionDelete, &prior.ID, &prior, nil)
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// RevokeAllForUser soft-expires every credential row the user has (at most
// one in this model) and writes a single REVOKE_ALL audit entry over the
// whole before/after set. TargetID stays nil: the action is set-oriented.
func (r *Repo) RevokeAllForUser(ctx context.Context, userID uint, actorID *uint) (int64, error) {
	var affected int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var oldRows []models.RefreshToken
		if err := tx.Where("user_id = ?", userID).Find(&oldRows).Error; err != nil {
			return err
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("user_id = ?", userID).
			Update("expires_at", time.Now().UTC())
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected

		var newRows []models.RefreshToken
		if err := tx.Where("user_id = ?", userID).Find(&newRows).Error; err != nil {
			return err
		}
		return writeAudit(tx, actorID, models.AuditActionRevokeAll, nil, oldRows, newRows)
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
