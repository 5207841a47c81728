package models

// DatabaseRecord describes one tracked database, its owning employee and its classification
type DatabaseRecord struct {
	ID             uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string         `gorm:"column:db_name;not null" json:"db_name"`
	OwnerID        int64          `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Classification Classification `gorm:"column:classification;not null;index" json:"classification"`

	Owner *Employee `gorm:"foreignKey:OwnerID;references:UserID" json:"-"`
}

// TableName overrides the table name for DatabaseRecord
func (DatabaseRecord) TableName() string {
	return "db_info"
}
