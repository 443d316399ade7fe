package minting

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"blue-carbon/registry-portal/registry-portal-backend/internal/projects"
)

// RequestStatus represents the lifecycle status of a mint request
type RequestStatus string

const (
	RequestStatusPending           RequestStatus = "Pending"
	RequestStatusPartiallyApproved RequestStatus = "PartiallyApproved"
	RequestStatusExecuted          RequestStatus = "Executed"
	RequestStatusRejected          RequestStatus = "Rejected"
)

// MintRequest represents a request to issue credits for a project. Amount is
// the eligible CCT derived once at creation and immutable afterward.
// Approvals is a set of normalized verifier identities. Processed guards the
// one-time ledger mutation on execution.
type MintRequest struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	ProjectID     uuid.UUID      `json:"project_id" gorm:"type:uuid;not null;index"`
	Amount        int64          `json:"amount" gorm:"not null"`
	Approvals     datatypes.JSON `json:"approvals" gorm:"default:'[]'"`
	Status        RequestStatus  `json:"status" gorm:"default:'Pending';index"`
	Processed     bool           `json:"processed" gorm:"default:false"`
	SettlementRef *string        `json:"settlement_ref" gorm:"index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Project projects.Project `json:"-" gorm:"foreignKey:ProjectID"`
}

func (m *MintRequest) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ApprovedBy returns the verifier identities that approved this request.
func (m *MintRequest) ApprovedBy() []string {
	var approvals []string
	if len(m.Approvals) == 0 {
		return approvals
	}
	if err := json.Unmarshal(m.Approvals, &approvals); err != nil {
		return nil
	}
	return approvals
}

// HasApproval reports whether the normalized identity already approved.
func (m *MintRequest) HasApproval(identity string) bool {
	for _, v := range m.ApprovedBy() {
		if v == identity {
			return true
		}
	}
	return false
}

// AddApproval records an approval. The caller must have checked for
// duplicates; identities are stored normalized.
func (m *MintRequest) AddApproval(identity string) error {
	approvals := append(m.ApprovedBy(), identity)
	data, err := json.Marshal(approvals)
	if err != nil {
		return err
	}
	m.Approvals = datatypes.JSON(data)
	return nil
}
