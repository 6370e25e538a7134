// Package catalog holds the static disease and supplement reference data.
//
// The two source tables are joined by row position: row i of each file describes
// class index i of the classifier output. Load refuses to start with tables that
// disagree in length, or whose length differs from the model's class count.
package catalog

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"plantguard/internal/domain"
)

// DefaultNumClasses is the output cardinality of the plant disease model.
const DefaultNumClasses = 39

var (
	// ErrNotFound is returned by Lookup for class indexes outside the catalog.
	ErrNotFound = errors.New("catalog: class index not found")
	// ErrMisaligned means the tables cannot be joined safely. Fatal at startup.
	ErrMisaligned = errors.New("catalog: tables misaligned")
)

// Store is immutable after Load and safe for concurrent readers.
type Store struct {
	diseases    []domain.DiseaseRecord
	supplements []domain.SupplementRecord
}

// Load reads both tables and checks their alignment. expected is the number of
// classes the model produces; expected <= 0 skips that check.
func Load(diseasePath, supplementPath string, expected int) (*Store, error) {
	diseases, err := readDiseases(diseasePath)
	if err != nil {
		return nil, err
	}
	supplements, err := readSupplements(supplementPath)
	if err != nil {
		return nil, err
	}
	return New(diseases, supplements, expected)
}

// New builds a Store from already parsed tables, applying the same checks as Load.
func New(diseases []domain.DiseaseRecord, supplements []domain.SupplementRecord, expected int) (*Store, error) {
	if len(diseases) == 0 || len(supplements) == 0 {
		return nil, fmt.Errorf("%w: empty table (diseases=%d, supplements=%d)", ErrMisaligned, len(diseases), len(supplements))
	}
	if len(diseases) != len(supplements) {
		return nil, fmt.Errorf("%w: %d disease rows vs %d supplement rows", ErrMisaligned, len(diseases), len(supplements))
	}
	if expected > 0 && len(diseases) != expected {
		return nil, fmt.Errorf("%w: %d rows but the model has %d classes", ErrMisaligned, len(diseases), expected)
	}

	for i := range diseases {
		if diseases[i].ClassIndex != i {
			return nil, fmt.Errorf("%w: disease row %d carries index %d", ErrMisaligned, i, diseases[i].ClassIndex)
		}
		if supplements[i].ClassIndex != i {
			return nil, fmt.Errorf("%w: supplement row %d carries index %d", ErrMisaligned, i, supplements[i].ClassIndex)
		}
		// Names are free text in both files; a difference is suspicious but not proof of drift.
		if sn := supplements[i].DiseaseName; sn != "" && sn != diseases[i].DiseaseName {
			logrus.WithFields(logrus.Fields{
				"class_index":     i,
				"disease_name":    diseases[i].DiseaseName,
				"supplement_name": sn,
			}).Warn("Catalog: disease name differs between disease and supplement tables")
		}
	}

	return &Store{diseases: diseases, supplements: supplements}, nil
}

// Len is the number of classes in the catalog.
func (s *Store) Len() int { return len(s.diseases) }

// Lookup merges the disease and supplement rows for classIndex.
func (s *Store) Lookup(classIndex int) (domain.DiseaseInfo, error) {
	if classIndex < 0 || classIndex >= len(s.diseases) {
		return domain.DiseaseInfo{}, fmt.Errorf("%w: %d (catalog has %d classes)", ErrNotFound, classIndex, len(s.diseases))
	}
	return s.merge(classIndex), nil
}

// Entries returns the merged view of every class, in class order.
func (s *Store) Entries() []domain.DiseaseInfo {
	out := make([]domain.DiseaseInfo, len(s.diseases))
	for i := range s.diseases {
		out[i] = s.merge(i)
	}
	return out
}

func (s *Store) merge(i int) domain.DiseaseInfo {
	d, sup := s.diseases[i], s.supplements[i]
	return domain.DiseaseInfo{
		ClassIndex:      i,
		DiseaseName:     d.DiseaseName,
		Description:     d.Description,
		PossibleSteps:   d.RemediationSteps,
		DiseaseImageURL: d.ImageURL,
		Supplement: domain.SupplementInfo{
			Name:     sup.SupplementName,
			ImageURL: sup.ImageURL,
			BuyLink:  sup.BuyLink,
		},
	}
}
