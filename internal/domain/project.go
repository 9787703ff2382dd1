package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PropertyStatus string

const (
	StatusOffPlan   PropertyStatus = "Off-Plan"
	StatusOffResale PropertyStatus = "Off-Resale"
	StatusSecondary PropertyStatus = "Secondary"
	StatusResale    PropertyStatus = "Resale"
)

const (
	DefaultCurrency   = "AED"
	DefaultDLDPercent = 4.0
)

var PropertyStatuses = []PropertyStatus{StatusOffPlan, StatusOffResale, StatusSecondary, StatusResale}

func (s PropertyStatus) Valid() bool {
	for _, v := range PropertyStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Project is one property investment owned by an agent.
type Project struct {
	ProjectID            uuid.UUID         `gorm:"column:project_id;type:uuid;primaryKey" json:"_id"`
	AgentID              uuid.UUID         `gorm:"column:agent_id;type:uuid;not null;index" json:"agentId"`
	ProjectName          string            `gorm:"column:project_name;not null" json:"projectName"`
	Developer            string            `gorm:"column:developer;not null" json:"developer"`
	Location             string            `gorm:"column:location" json:"location,omitempty"`
	Type                 string            `gorm:"column:type" json:"type"`
	Bedrooms             int               `gorm:"column:bedrooms" json:"bedrooms"`
	Status               PropertyStatus    `gorm:"column:status;type:varchar(20)" json:"status"`
	Currency             string            `gorm:"column:currency;type:varchar(3);default:'AED'" json:"currency"`
	Price                float64           `gorm:"column:price;type:decimal(18,2);not null" json:"price"`
	AreaSqFt             float64           `gorm:"column:area_sq_ft;type:decimal(12,2);not null" json:"areaSqFt"`
	AreaSqM              float64           `gorm:"column:area_sq_m;type:decimal(12,2)" json:"areaSqM"`
	DLDPercent           *float64          `gorm:"column:dld_percent;type:decimal(5,2)" json:"dldPercent,omitempty"`
	ServiceChargePerSqFt float64           `gorm:"column:service_charge_per_sq_ft;type:decimal(10,2)" json:"serviceChargePerSqFt"`
	IsLiked              bool              `gorm:"column:is_liked;default:false" json:"isLiked"`
	IsSold               bool              `gorm:"column:is_sold;default:false" json:"isSold"`
	IsDeleted            bool              `gorm:"column:is_deleted;default:false" json:"isDeleted"`
	PaymentPlan          PaymentPlan       `gorm:"column:payment_plan;type:json" json:"paymentPlan"`
	Projections          Projections       `gorm:"column:projections;type:json" json:"projections"`
	Ratings              Ratings           `gorm:"column:ratings;type:json" json:"ratings"`
	ExitStrategies       ExitStrategyTable `gorm:"column:exit_strategies;type:json" json:"exitStrategies"`
	CreatedAt            time.Time         `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt            time.Time         `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Project) TableName() string {
	return "Projects"
}

// BeforeCreate sets project_id if not already set (DBs without default uuid).
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ProjectID == uuid.Nil {
		p.ProjectID = uuid.New()
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return nil
}

// DLD returns the transfer-fee percent, 4 when unset.
func (p Project) DLD() float64 {
	if p.DLDPercent == nil {
		return DefaultDLDPercent
	}
	return *p.DLDPercent
}

// CurrencyCode returns the record currency or AED.
func (p Project) CurrencyCode() string {
	if p.Currency == "" {
		return DefaultCurrency
	}
	return p.Currency
}
