package sqlstore

import "time"

// ObjectRecord 是一行对象数据，(dir, name) 对应两级布局
type ObjectRecord struct {
	Dir  string `gorm:"primaryKey;type:char(2)"`
	Name string `gorm:"primaryKey;type:varchar(38)"`
	Data []byte `gorm:"not null"`

	CreatedAt time.Time
}

func (ObjectRecord) TableName() string {
	return "objects"
}
