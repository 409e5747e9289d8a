package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/murmurchat/murmur/internal/models"
)

// ErrAdNotFound is returned when an ad id does not exist.
var ErrAdNotFound = errors.New("ad not found")

// ActiveAds returns every ad currently flagged active, newest first.
func (s *Store) ActiveAds(ctx context.Context) ([]models.Ad, error) {
	var ads []models.Ad
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at desc").
		Find(&ads).Error
	return ads, err
}

// AllAds returns every ad regardless of active flag, newest first.
func (s *Store) AllAds(ctx context.Context) ([]models.Ad, error) {
	var ads []models.Ad
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&ads).Error
	return ads, err
}

// CreateAd persists a new ad and fills in its generated id.
func (s *Store) CreateAd(ctx context.Context, ad *models.Ad) error {
	return s.db.WithContext(ctx).Create(ad).Error
}

// UpdateAd overwrites the mutable fields of an existing ad.
func (s *Store) UpdateAd(ctx context.Context, id uint, update models.Ad) (models.Ad, error) {
	var ad models.Ad

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ad, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAdNotFound
			}
			return err
		}
		return tx.Model(&ad).Updates(map[string]interface{}{
			"title":     update.Title,
			"content":   update.Content,
			"image_url": update.ImageURL,
			"link_url":  update.LinkURL,
			"active":    update.Active,
		}).Error
	})

	return ad, err
}

// DeleteAd removes an ad. Reports whether a row was deleted.
func (s *Store) DeleteAd(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.Ad{}, id)
	return res.RowsAffected > 0, res.Error
}
