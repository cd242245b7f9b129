package services

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/diewo77/facturacion/internal/models"
	"gorm.io/gorm"
)

// numberPattern matches "<seq>-<year>" at the end of an invoice number, so
// prefixed formats like "FAC-12-2025" parse too.
var numberPattern = regexp.MustCompile(`(\d+)-(\d{4})$`)

// NumberingService issues sequential invoice numbers scoped to the
// calendar year, format "<n>-<year>". The next number is computed at the
// moment of issuance; issuance is serialized behind a mutex and the
// numero_factura UNIQUE constraint catches anything that still races.
type NumberingService struct {
	db  *gorm.DB
	mu  sync.Mutex
	now func() time.Time
}

func NewNumberingService(db *gorm.DB) *NumberingService {
	return &NumberingService{db: db, now: time.Now}
}

// Next returns the next free number for the current year. The first number
// of a year starts at the organization's configured initial number
// (default 1), regardless of prior years.
func (s *NumberingService) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	year := s.now().Year()
	var numbers []string
	err := s.db.Model(&models.Invoice{}).
		Where("numero_factura LIKE ?", fmt.Sprintf("%%-%d", year)).
		Pluck("numero_factura", &numbers).Error
	if err != nil {
		return "", fmt.Errorf("%w: scanning invoice numbers: %v", ErrStorage, err)
	}

	maxSeq := 0
	for _, n := range numbers {
		m := numberPattern.FindStringSubmatch(n)
		if m == nil {
			continue
		}
		if y, _ := strconv.Atoi(m[2]); y != year {
			continue
		}
		if seq, err := strconv.Atoi(m[1]); err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}
	if maxSeq > 0 {
		return fmt.Sprintf("%d-%d", maxSeq+1, year), nil
	}
	return fmt.Sprintf("%d-%d", s.initialNumber(), year), nil
}

// initialNumber never fails: issuance falls back to 1 when the settings
// row is missing or unreadable.
func (s *NumberingService) initialNumber() int {
	var org models.Organization
	if err := s.db.First(&org, 1).Error; err != nil {
		return 1
	}
	if org.InitialNumber > 0 {
		return org.InitialNumber
	}
	return 1
}
