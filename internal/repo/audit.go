package repo

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/izinapp/izin-api/internal/models"
)

// writeAudit appends one audit entry inside the caller's transaction. A
// failed audit insert fails the transaction: a credential mutation is never
// committed without its audit row. Snapshots are marshalled through the
// model's json tags, which keep the token hash out of the audit table.
func writeAudit(tx *gorm.DB, actorID *uint, action string, targetID *uint, oldData, newData any) error {
	oldJSON, err := marshalSnapshot(oldData)
	if err != nil {
		return fmt.Errorf("audit old_data: %w", err)
	}
	newJSON, err := marshalSnapshot(newData)
	if err != nil {
		return fmt.Errorf("audit new_data: %w", err)
	}

	entry := models.AuditLog{
		UserID:      actorID,
		Action:      action,
		TargetTable: credentialsTable,
		TargetID:    targetID,
		OldData:     oldJSON,
		NewData:     newJSON,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit insert: %w", err)
	}
	return nil
}

func marshalSnapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
