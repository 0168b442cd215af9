package models

import "time"

// ClientSlot is one named durable value (cart items, session token, session user).
type ClientSlot struct {
	SlotKey   string    `gorm:"column:slot_key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (ClientSlot) TableName() string {
	return "client_slots"
}
