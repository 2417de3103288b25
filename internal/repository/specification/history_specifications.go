package specification

import "gorm.io/gorm"

type ByUserID struct {
	UserID string
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type BySessionID struct {
	SessionID string
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type SuccessfulOnly struct{}

func (s SuccessfulOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("success = ?", true)
}

// Chronological orders by timestamp, using the id to break ties between
// interactions saved within the same clock tick.
type Chronological struct {
	Desc bool
}

func (s Chronological) Apply(db *gorm.DB) *gorm.DB {
	db = OrderBy{Field: "timestamp", Desc: s.Desc}.Apply(db)
	return OrderBy{Field: "id", Desc: s.Desc}.Apply(db)
}
