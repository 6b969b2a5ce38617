package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member is a person holding deposits or loans with the cooperative.
// The settlement engine only reads members to check they exist.
type Member struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName   string    `gorm:"size:100;not null" json:"first_name"`
	LastName    string    `gorm:"size:100;not null" json:"last_name"`
	Phone       *string   `gorm:"size:15;index" json:"phone"`
	Address     *string   `gorm:"type:text" json:"address"`
	JoiningDate time.Time `gorm:"type:date;not null" json:"joining_date"`
	IsActive    bool      `gorm:"default:true;not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Member
func (Member) TableName() string {
	return "members"
}

// BeforeCreate assigns a UUID when the caller did not.
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// FullName joins first and last name.
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// MaskedName keeps initials only, for public listings: "Ramesh Kumar" => "R***** K****".
func (m *Member) MaskedName() string {
	parts := []string{maskWord(m.FirstName), maskWord(m.LastName)}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func maskWord(word string) string {
	runes := []rune(strings.TrimSpace(word))
	if len(runes) == 0 {
		return ""
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-1)
}
