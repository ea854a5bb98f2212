package models

import "time"

// Store is master data for a client site, looked up by Oracle CCID when a
// quotation is created. Jobs snapshot these fields instead of joining live.
type Store struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	OracleCCID    string    `json:"oracle_ccid" gorm:"column:oracle_ccid;uniqueIndex;not null"`
	BrandName     string    `json:"brand_name"`
	Location      string    `json:"location"`
	City          string    `json:"city"`
	Region        string    `json:"region"`
	ClientGroupID uint      `json:"client_group_id" gorm:"index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CustomStore holds user-entered sites not present in the imported master
// list. Same shape, separate table so master imports can be replaced wholesale.
type CustomStore struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	OracleCCID    string    `json:"oracle_ccid" gorm:"column:oracle_ccid;uniqueIndex;not null"`
	BrandName     string    `json:"brand_name"`
	Location      string    `json:"location"`
	City          string    `json:"city"`
	Region        string    `json:"region"`
	ClientGroupID uint      `json:"client_group_id" gorm:"index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PriceList is the imported rate catalog. Job items reference ItemCode as a
// soft reference; rows may be replaced by later imports.
type PriceList struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ItemCode      string    `json:"item_code" gorm:"uniqueIndex;not null"`
	Description   string    `json:"description"`
	Unit          string    `json:"unit"`
	MaterialPrice float64   `json:"material_price"`
	LaborPrice    float64   `json:"labor_price"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CustomPriceList holds user-entered catalog rows.
type CustomPriceList struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ItemCode      string    `json:"item_code" gorm:"uniqueIndex;not null"`
	Description   string    `json:"description"`
	Unit          string    `json:"unit"`
	MaterialPrice float64   `json:"material_price"`
	LaborPrice    float64   `json:"labor_price"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ClientGroup groups stores under one client account.
type ClientGroup struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	VatNo     string    `json:"vat_no"`
	Contact   string    `json:"contact"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
