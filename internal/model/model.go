package model

import (
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the edge and meta tables of one collection.
func AutoMigrate(db *gorm.DB, edgeTable, metaTable string) error {
	if err := db.Table(edgeTable).AutoMigrate(&LinkEdge{}); err != nil {
		return err
	}
	return db.Table(metaTable).AutoMigrate(&ScanMeta{})
}
