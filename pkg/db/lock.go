package db

import "gorm.io/gorm"

// ForUpdate returns the row-lock suffix for raw SELECTs, or "" on dialects
// without row locks (sqlite serializes writers at the database level).
func ForUpdate(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return ""
	}
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return " FOR UPDATE"
	default:
		return ""
	}
}
