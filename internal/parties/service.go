package parties

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrPartyNotFound indicates the referenced party does not exist.
	ErrPartyNotFound = errors.New("parties: party not found")
	// ErrInvalidName indicates an empty party name.
	ErrInvalidName = errors.New("parties: party name is required")
)

// ServiceConfig describes the dependencies for party management.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages the customer registry.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the party service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errors.New("parties: database handle is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// PartyInput carries party attributes.
type PartyInput struct {
	Name          string
	ContactPerson string
	Phone         string
	Address       string
}

// FindOrCreate resolves a party by normalized name, creating it when the
// name has not been seen before. Metadata on an existing party is refreshed
// from non-empty input fields.
func (s *Service) FindOrCreate(ctx context.Context, input PartyInput) (Party, error) {
	name := strings.TrimSpace(input.Name)
	normalized := NormalizeName(name)
	if normalized == "" {
		return Party{}, ErrInvalidName
	}

	var party Party
	err := s.db.WithContext(ctx).
		Where("normalized_name = ?", normalized).
		First(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := s.clock().UTC().Unix()
		party = Party{
			Name:             name,
			NormalizedName:   normalized,
			ContactPerson:    strings.TrimSpace(input.ContactPerson),
			Phone:            strings.TrimSpace(input.Phone),
			Address:          strings.TrimSpace(input.Address),
			CreatedAtSeconds: now,
			UpdatedAtSeconds: now,
		}
		if err := s.db.WithContext(ctx).Create(&party).Error; err != nil {
			return Party{}, err
		}
		s.logger.Info("party created", zap.String("party", name))
		return party, nil
	}
	if err != nil {
		return Party{}, err
	}

	updates := map[string]interface{}{}
	if contact := strings.TrimSpace(input.ContactPerson); contact != "" && contact != party.ContactPerson {
		updates["contact_person"] = contact
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" && phone != party.Phone {
		updates["phone"] = phone
	}
	if address := strings.TrimSpace(input.Address); address != "" && address != party.Address {
		updates["address"] = address
	}
	if len(updates) > 0 {
		updates["updated_at_s"] = s.clock().UTC().Unix()
		if err := s.db.WithContext(ctx).Model(&Party{}).
			Where("id = ?", party.ID).
			Updates(updates).Error; err != nil {
			return Party{}, err
		}
		return s.Get(ctx, party.ID)
	}
	return party, nil
}

// Get loads one party by id.
func (s *Service) Get(ctx context.Context, id uint) (Party, error) {
	var party Party
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Party{}, fmt.Errorf("%w: id %d", ErrPartyNotFound, id)
	}
	if err != nil {
		return Party{}, err
	}
	return party, nil
}

// List returns all parties ordered by name.
func (s *Service) List(ctx context.Context) ([]Party, error) {
	var items []Party
	if err := s.db.WithContext(ctx).
		Order("normalized_name ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Update edits party attributes.
func (s *Service) Update(ctx context.Context, id uint, input PartyInput) (Party, error) {
	party, err := s.Get(ctx, id)
	if err != nil {
		return Party{}, err
	}

	name := strings.TrimSpace(input.Name)
	normalized := NormalizeName(name)
	if normalized == "" {
		return Party{}, ErrInvalidName
	}

	party.Name = name
	party.NormalizedName = normalized
	party.ContactPerson = strings.TrimSpace(input.ContactPerson)
	party.Phone = strings.TrimSpace(input.Phone)
	party.Address = strings.TrimSpace(input.Address)
	party.UpdatedAtSeconds = s.clock().UTC().Unix()

	if err := s.db.WithContext(ctx).Save(&party).Error; err != nil {
		return Party{}, err
	}
	return party, nil
}

// Delete removes a party.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&Party{}, id).Error
}
