package companies

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyStatus represents the verification status of a buyer company
type CompanyStatus string

const (
	CompanyStatusPending  CompanyStatus = "Pending"
	CompanyStatusApproved CompanyStatus = "Approved"
	CompanyStatusRejected CompanyStatus = "Rejected"
)

// Company represents a registered credit buyer. IsVerified is derived from
// Status on every save and must never be written independently.
type Company struct {
	ID                 uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	Name               string        `json:"name" gorm:"not null"`
	WalletAddress      string        `json:"wallet_address" gorm:"uniqueIndex;not null"`
	RegistrationNumber string        `json:"registration_number" gorm:"not null"`
	Sector             string        `json:"sector" gorm:"not null"`
	Status             CompanyStatus `json:"status" gorm:"default:'Pending';index"`
	IsVerified         bool          `json:"is_verified" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps IsVerified in sync with Status on every persistence, so the
// invariant holds regardless of which code path wrote the record.
func (c *Company) BeforeSave(tx *gorm.DB) error {
	c.IsVerified = c.Status == CompanyStatusApproved
	return nil
}
