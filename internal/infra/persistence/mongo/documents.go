package mongopersistence

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"plantguard/internal/domain"
)

type supplementDocument struct {
	Name     string `bson:"name"`
	ImageURL string `bson:"image_url"`
	BuyLink  string `bson:"buy_link"`
}

type predictionDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ImageFilename string             `bson:"image_filename"`
	ClassIndex    int                `bson:"class_index"`
	DiseaseName   string             `bson:"disease_name"`
	Confidence    float64            `bson:"confidence"`
	Description   string             `bson:"description"`
	PossibleSteps string             `bson:"possible_steps"`
	Supplement    supplementDocument `bson:"supplement"`
	CreatedAt     time.Time          `bson:"created_at"`
}

func newPredictionDocument(r *domain.PredictionRecord) predictionDocument {
	return predictionDocument{
		ImageFilename: r.ImageFilename,
		ClassIndex:    r.ClassIndex,
		DiseaseName:   r.DiseaseName,
		Confidence:    r.Confidence,
		Description:   r.Description,
		PossibleSteps: r.PossibleSteps,
		Supplement: supplementDocument{
			Name:     r.Supplement.Name,
			ImageURL: r.Supplement.ImageURL,
			BuyLink:  r.Supplement.BuyLink,
		},
		CreatedAt: r.CreatedAt,
	}
}

func (d predictionDocument) toDomain() domain.PredictionRecord {
	return domain.PredictionRecord{
		ID:            d.ID.Hex(),
		ImageFilename: d.ImageFilename,
		ClassIndex:    d.ClassIndex,
		DiseaseName:   d.DiseaseName,
		Confidence:    d.Confidence,
		Description:   d.Description,
		PossibleSteps: d.PossibleSteps,
		Supplement: domain.SupplementInfo{
			Name:     d.Supplement.Name,
			ImageURL: d.Supplement.ImageURL,
			BuyLink:  d.Supplement.BuyLink,
		},
		CreatedAt: d.CreatedAt,
	}
}

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Password:  d.Password,
		CreatedAt: d.CreatedAt,
	}
}

type contactDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Message   string             `bson:"message"`
	CreatedAt time.Time          `bson:"created_at"`
}
