package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"reflect"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/pkg/logger"
	"github.com/shashiranjanraj/rincon/pkg/orm"
	"github.com/shashiranjanraj/rincon/pkg/storage"
)

type tabler interface{ TableName() string }

// ExportService writes a JSON snapshot of every table to a disk.
type ExportService struct {
	store *orm.Store
	disk  storage.Disk
	now   func() time.Time
}

func NewExportService(store *orm.Store, disk storage.Disk) *ExportService {
	return &ExportService{store: store, disk: disk, now: time.Now}
}

// Export writes <dir>/<stamp>/<Table>.json for each table and returns the
// written paths. Password hashes are never exported.
func (s *ExportService) Export(ctx context.Context, dir string) ([]string, error) {
	stamp := s.now().UTC().Format("20060102T150405Z")
	var written []string

	for _, m := range models.All() {
		table := m.(tabler).TableName()

		rows := reflect.New(reflect.SliceOf(reflect.TypeOf(m).Elem()))
		err := s.store.Run(ctx, table, orm.OpSelect, func(tx *gorm.DB) error {
			return tx.Order("id").Find(rows.Interface()).Error
		})
		if err != nil {
			return written, fmt.Errorf("export: read %s: %w", table, err)
		}

		data, err := json.MarshalIndent(rows.Interface(), "", "  ")
		if err != nil {
			return written, fmt.Errorf("export: encode %s: %w", table, err)
		}

		p := path.Join(dir, stamp, table+".json")
		if err := s.disk.Put(ctx, p, data); err != nil {
			return written, err
		}
		logger.WithCtx(ctx).Info("export: table written", "table", table, "rows", rows.Elem().Len(), "path", p)
		written = append(written, p)
	}
	return written, nil
}
