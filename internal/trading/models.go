package trading

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BuyRequestStatus represents the lifecycle status of a buy request
type BuyRequestStatus string

const (
	BuyRequestStatusPending  BuyRequestStatus = "Pending"
	BuyRequestStatusApproved BuyRequestStatus = "Approved"
)

// TransactionType distinguishes ledger entries
type TransactionType string

const (
	TransactionTypeBuy    TransactionType = "buy"
	TransactionTypeRetire TransactionType = "retire"
)

// TransactionStatus represents the settlement status of a ledger entry
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "Pending"
	TransactionStatusCompleted TransactionStatus = "Completed"
	TransactionStatusRejected  TransactionStatus = "Rejected"
)

// BuyRequest is a company's intent to purchase credits from a project
// owner. At most one Pending request may exist per company/project pair.
type BuyRequest struct {
	ID            uuid.UUID        `json:"id" gorm:"type:uuid;primary_key"`
	CompanyID     uuid.UUID        `json:"company_id" gorm:"type:uuid;not null;index"`
	ProjectID     uuid.UUID        `json:"project_id" gorm:"type:uuid;not null;index"`
	OwnerWallet   string           `json:"owner_wallet" gorm:"not null;index"`
	Amount        int64            `json:"amount" gorm:"not null"`
	Status        BuyRequestStatus `json:"status" gorm:"default:'Pending';index"`
	SettlementRef *string          `json:"settlement_ref"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (b *BuyRequest) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// CompanyTransaction is an append-only ledger entry. Rows are never
// updated or deleted; company holdings are derived by summing them.
type CompanyTransaction struct {
	ID            uuid.UUID         `json:"id" gorm:"type:uuid;primary_key"`
	CompanyID     uuid.UUID         `json:"company_id" gorm:"type:uuid;not null;index"`
	ProjectID     uuid.UUID         `json:"project_id" gorm:"type:uuid;not null;index"`
	CompanyWallet string            `json:"company_wallet" gorm:"not null;index"`
	OwnerWallet   string            `json:"owner_wallet" gorm:"not null"`
	Amount        int64             `json:"amount" gorm:"not null"`
	Type          TransactionType   `json:"type" gorm:"not null;index"`
	Status        TransactionStatus `json:"status" gorm:"default:'Pending'"`
	SettlementRef *string           `json:"settlement_ref"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (t *CompanyTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// CompanyBalance summarizes a company's position in one project.
type CompanyBalance struct {
	CompanyID uuid.UUID `json:"company_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Owned     int64     `json:"owned"`
	Retired   int64     `json:"retired"`
}
