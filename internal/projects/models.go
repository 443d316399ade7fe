package projects

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"blue-carbon/registry-portal/registry-portal-backend/pkg/chain"
)

// ProjectStatus represents the registry status of a restoration project
type ProjectStatus string

const (
	ProjectStatusPending  ProjectStatus = "Pending"
	ProjectStatusApproved ProjectStatus = "Approved"
	ProjectStatusRejected ProjectStatus = "Rejected"
)

// AssignedVerifiers is the number of independent verifiers every approved
// project carries.
const AssignedVerifiers = 3

// DefaultMinApprovals is the default quorum for executing a mint request.
const DefaultMinApprovals = 2

// Project represents a field-restoration project and its credit ledger. All
// CCT counters are integers in minor units; no floating point touches the
// ledger.
type Project struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	Name          string         `json:"name" gorm:"not null"`
	Description   string         `json:"description"`
	EcosystemType string         `json:"ecosystem_type" gorm:"not null"`
	Location      datatypes.JSON `json:"location" gorm:"default:'[]'"` // [lat, lng], captured externally
	OwnerWallet   string         `json:"owner_wallet" gorm:"index;not null"`
	EvidenceCID   string         `json:"evidence_cid"`

	// Eligibility attributes, used only to compute eligible CCT at
	// mint-request creation.
	AreaHectares int64 `json:"area_hectares" gorm:"not null"`
	Saplings     int64 `json:"saplings" gorm:"not null"`
	SurvivalRate int64 `json:"survival_rate" gorm:"not null"` // percent
	ProjectYears int64 `json:"project_years" gorm:"not null"`

	MinApprovals int            `json:"min_approvals" gorm:"default:2"`
	Verifiers    datatypes.JSON `json:"verifiers" gorm:"default:'[]'"` // normalized identities
	Status       ProjectStatus  `json:"status" gorm:"default:'Pending';index"`

	// Credit ledger counters (cached projection; the mint/transaction log is
	// authoritative and can rebuild these).
	TotalMintedCCT int64 `json:"total_minted_cct" gorm:"default:0"`
	BufferCCT      int64 `json:"buffer_cct" gorm:"default:0"`
	SoldCCT        int64 `json:"sold_cct" gorm:"default:0"`
	RetiredCCT     int64 `json:"retired_cct" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AvailableCCT returns minted minus buffer, sold and retired, floored at zero.
func (p *Project) AvailableCCT() int64 {
	available := p.TotalMintedCCT - p.BufferCCT - p.SoldCCT - p.RetiredCCT
	if available < 0 {
		return 0
	}
	return available
}

// VerifierSet returns the project's assigned verifier identities.
func (p *Project) VerifierSet() []string {
	var verifiers []string
	if len(p.Verifiers) == 0 {
		return verifiers
	}
	if err := json.Unmarshal(p.Verifiers, &verifiers); err != nil {
		return nil
	}
	return verifiers
}

// SetVerifiers stores the assigned verifier identities.
func (p *Project) SetVerifiers(verifiers []string) error {
	data, err := json.Marshal(verifiers)
	if err != nil {
		return err
	}
	p.Verifiers = datatypes.JSON(data)
	return nil
}

// HasVerifier reports whether identity is assigned to this project. The
// identity is expected to be normalized already.
func (p *Project) HasVerifier(identity string) bool {
	for _, v := range p.VerifierSet() {
		if chain.NormalizeAddress(v) == identity {
			return true
		}
	}
	return false
}

func setLocation(p *Project, latLng []float64) error {
	data, err := json.Marshal(latLng)
	if err != nil {
		return err
	}
	p.Location = datatypes.JSON(data)
	return nil
}

// Balance is the serving view of a project's credit ledger.
type Balance struct {
	TotalMinted int64 `json:"total_minted"`
	Buffer      int64 `json:"buffer"`
	Sold        int64 `json:"sold"`
	Retired     int64 `json:"retired"`
	Available   int64 `json:"available"`
}

// BalanceOf builds the balance view for a project.
func BalanceOf(p *Project) Balance {
	return Balance{
		TotalMinted: p.TotalMintedCCT,
		Buffer:      p.BufferCCT,
		Sold:        p.SoldCCT,
		Retired:     p.RetiredCCT,
		Available:   p.AvailableCCT(),
	}
}
