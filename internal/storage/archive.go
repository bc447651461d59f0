package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/hvdclogix/cargoflow/internal/export"
	"github.com/rs/zerolog/log"
)

// Archiver copies finished report files into object storage, keyed by the
// snapshot stamp so successive runs of the same snapshot overwrite cleanly.
type Archiver struct {
	store ObjectStorage
}

func NewArchiver(store ObjectStorage) *Archiver {
	return &Archiver{store: store}
}

// ArchiveRun uploads every report of one run under reports/<stamp>/.
func (a *Archiver) ArchiveRun(ctx context.Context, stamp string, paths export.ReportPaths) error {
	for _, reportPath := range []string{paths.Items, paths.Warehouse, paths.Site, paths.Billing, paths.KPI} {
		if reportPath == "" {
			continue
		}
		data, err := os.ReadFile(reportPath)
		if err != nil {
			return fmt.Errorf("failed reading report %s: %w", reportPath, err)
		}

		key := path.Join("reports", stamp, filepath.Base(reportPath))
		if err := a.store.UploadObject(ctx, key, data); err != nil {
			return err
		}
		log.Debug().Str("key", key).Int("bytes", len(data)).Msg("report archived")
	}
	return nil
}
