package domain

import "time"

// SupplementInfo is the treatment product suggested for a disease class.
type SupplementInfo struct {
	Name     string `json:"name" gorm:"type:varchar(255)"`
	ImageURL string `json:"image_url" gorm:"type:text"`
	BuyLink  string `json:"buy_link" gorm:"type:text"`
}

// PredictionRecord is written once per successful inference and never mutated.
type PredictionRecord struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	ImageFilename string         `gorm:"type:varchar(255)" json:"image_filename"`
	ClassIndex    int            `json:"class_index"`
	DiseaseName   string         `gorm:"type:varchar(255)" json:"disease_name"`
	Confidence    float64        `json:"confidence"`
	Description   string         `gorm:"type:text" json:"description"`
	PossibleSteps string         `gorm:"type:text" json:"possible_steps"`
	Supplement    SupplementInfo `gorm:"embedded;embeddedPrefix:supplement_" json:"supplement"`
	CreatedAt     time.Time      `gorm:"index:idx_predictions_created_at" json:"created_at"`
}

// TableName pins the table name for GORM.
func (PredictionRecord) TableName() string {
	return "predictions"
}
