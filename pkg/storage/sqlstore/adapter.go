package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gitvault/pkg/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Adapter 实现了 storage.Medium，每个对象一行
// 单行 INSERT 对读者是原子的；主键冲突时 DO NOTHING 实现写一次语义
type Adapter struct {
	db *DB
}

func NewAdapter(db *DB) *Adapter {
	return &Adapter{db: db}
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) Write(ctx context.Context, key storage.Key, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	rec := ObjectRecord{Dir: key.Dir, Name: key.Name, Data: data}

	err := a.db.GetConn().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dir"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) Read(ctx context.Context, key storage.Key) ([]byte, error) {
	var rec ObjectRecord
	err := a.db.GetConn().WithContext(ctx).
		Where("dir = ? AND name = ?", key.Dir, key.Name).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return rec.Data, nil
}

func (a *Adapter) Has(ctx context.Context, key storage.Key) (bool, error) {
	var count int64
	err := a.db.GetConn().WithContext(ctx).
		Model(&ObjectRecord{}).
		Where("dir = ? AND name = ?", key.Dir, key.Name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return count > 0, nil
}

// List 的 namePrefix 只含十六进制字符，不需要转义 LIKE 通配符
func (a *Adapter) List(ctx context.Context, dir string, namePrefix string) ([]string, error) {
	var names []string
	err := a.db.GetConn().WithContext(ctx).
		Model(&ObjectRecord{}).
		Where("dir = ? AND name LIKE ?", dir, namePrefix+"%").
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket %s: %w", dir, err)
	}
	return names, nil
}

func (a *Adapter) Buckets(ctx context.Context) ([]string, error) {
	var dirs []string
	err := a.db.GetConn().WithContext(ctx).
		Model(&ObjectRecord{}).
		Distinct("dir").
		Order("dir").
		Pluck("dir", &dirs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	return dirs, nil
}
