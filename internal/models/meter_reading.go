package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MeterType string

const (
	MeterElectricity MeterType = "electricity"
	MeterWater       MeterType = "water"
)

func (t MeterType) Valid() bool {
	return t == MeterElectricity || t == MeterWater
}

// InitialReadingImage is the placeholder image path of seed readings
const InitialReadingImage = "initial_reading.jpg"

// MeterReading is one entry of a tenant's per-utility reading log. Never updated.
type MeterReading struct {
	ID           int             `json:"id"`
	UserID       int             `json:"user_id"`
	MeterType    MeterType       `json:"meter_type"`
	ReadingValue decimal.Decimal `json:"reading_value"`
	ReadingDate  time.Time       `json:"reading_date"`
	ImagePath    string          `json:"image_path,omitempty"`
	IsProcessed  bool            `json:"is_processed"`
}

// ReadingView pairs a reading with its predecessor for display.
type ReadingView struct {
	Reading     *MeterReading    `json:"reading"`
	Previous    *MeterReading    `json:"previous,omitempty"`
	Consumption *decimal.Decimal `json:"consumption,omitempty"`
}

// UploadReadingResponse lists what an upload stored
type UploadReadingResponse struct {
	Readings  []*MeterReading `json:"readings"`
	WaterBill *WaterBill      `json:"water_bill,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
}
