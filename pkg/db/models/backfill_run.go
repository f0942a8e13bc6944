package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/jes-wd/freya-sync/pkg/db/types"
)

// BackfillRun records one execution of the subscription backfill for
// auditing and support.
type BackfillRun struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	DryRun     bool            `gorm:"column:dry_run;not null;default:false"`
	Params     dbtypes.JSONMap `gorm:"column:params;type:jsonb"`
	Processed  int             `gorm:"column:processed;not null;default:0"`
	Skipped    int             `gorm:"column:skipped;not null;default:0"`
	Errored    int             `gorm:"column:errored;not null;default:0"`
	Notes      *string         `gorm:"column:notes"`
	StartedAt  time.Time       `gorm:"column:started_at;autoCreateTime"`
	FinishedAt *time.Time      `gorm:"column:finished_at"`
}
