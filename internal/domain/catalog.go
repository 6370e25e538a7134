package domain

// DiseaseRecord is one row of the disease table. ClassIndex is the row position.
type DiseaseRecord struct {
	ClassIndex       int
	DiseaseName      string
	Description      string
	RemediationSteps string
	ImageURL         string
}

// SupplementRecord is one row of the supplement table, aligned by row with DiseaseRecord.
type SupplementRecord struct {
	ClassIndex     int
	DiseaseName    string
	SupplementName string
	ImageURL       string
	BuyLink        string
}

// DiseaseInfo is the merged disease + supplement view of one class index.
type DiseaseInfo struct {
	ClassIndex      int            `json:"class_index"`
	DiseaseName     string         `json:"disease_name"`
	Description     string         `json:"description"`
	PossibleSteps   string         `json:"possible_steps"`
	DiseaseImageURL string         `json:"disease_image_url"`
	Supplement      SupplementInfo `json:"supplement"`
}
