// internal/domain/product/image_service.go
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
)

const msgImageNotFound = "Image not found"

// AddImageRequest represents a new gallery image
type AddImageRequest struct {
	URL          string  `json:"url" binding:"required,url,max=500"`
	ThumbnailURL *string `json:"thumbnailUrl" binding:"omitempty,url,max=500"`
	AltText      *string `json:"altText" binding:"omitempty,max=255"`
}

// UpdateImageRequest holds optional fields; nil leaves the stored value unchanged
type UpdateImageRequest struct {
	URL          *string `json:"url" binding:"omitempty,url,max=500"`
	ThumbnailURL *string `json:"thumbnailUrl" binding:"omitempty,url,max=500"`
	AltText      *string `json:"altText" binding:"omitempty,max=255"`
}

// ReorderImagesRequest lists a product's image IDs in their new display order
type ReorderImagesRequest struct {
	OrderedIDs []uint `json:"orderedIds" binding:"required,min=1,dive,gt=0"`
}

// AddImage appends an image to the end of a product's gallery
func (s *Service) AddImage(ctx context.Context, productID uint, req *AddImageRequest) (*ProductImage, error) {
	image := &ProductImage{
		ProductID:    productID,
		URL:          req.URL,
		ThumbnailURL: req.ThumbnailURL,
		AltText:      req.AltText,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check product: %w", err)
		}
		if count == 0 {
			return apperror.NotFound(msgProductNotFound)
		}

		var last struct{ Max *int }
		if err := tx.Model(&ProductImage{}).
			Select("MAX(display_order) AS max").
			Where("product_id = ?", productID).
			Scan(&last).Error; err != nil {
			return fmt.Errorf("failed to read image order: %w", err)
		}
		if last.Max != nil {
			image.DisplayOrder = *last.Max + 1
		}

		if err := tx.Create(image).Error; err != nil {
			return fmt.Errorf("failed to add image: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"product_id": productID,
		"image_id":   image.ID,
	}).Info("Product image added")
	return image, nil
}

// UpdateImage merges the given fields into an image
func (s *Service) UpdateImage(ctx context.Context, imageID uint, req *UpdateImageRequest) (*ProductImage, error) {
	db := s.db.WithContext(ctx)
	image, err := findImage(db, imageID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.URL != nil {
		updates["url"] = *req.URL
	}
	if req.ThumbnailURL != nil {
		updates["thumbnail_url"] = *req.ThumbnailURL
	}
	if req.AltText != nil {
		updates["alt_text"] = *req.AltText
	}
	if len(updates) > 0 {
		if err := db.Model(image).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update image: %w", err)
		}
	}
	return findImage(db, imageID)
}

// DeleteImage removes one image from a gallery
func (s *Service) DeleteImage(ctx context.Context, imageID uint) error {
	result := s.db.WithContext(ctx).Delete(&ProductImage{}, imageID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound(msgImageNotFound)
	}
	logrus.WithField("image_id", imageID).Info("Product image deleted")
	return nil
}

// ReorderImages assigns display order by position in the list.
// Every ID must belong to the product.
func (s *Service) ReorderImages(ctx context.Context, productID uint, req *ReorderImagesRequest) ([]ProductImage, error) {
	ids := req.OrderedIDs
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, apperror.BadRequest("Duplicate image IDs")
		}
		seen[id] = struct{}{}
	}

	images := []ProductImage{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found int64
		if err := tx.Model(&ProductImage{}).
			Where("id IN ? AND product_id = ?", ids, productID).
			Count(&found).Error; err != nil {
			return fmt.Errorf("failed to check images: %w", err)
		}
		if found != int64(len(ids)) {
			return apperror.BadRequest("Some image IDs are invalid")
		}
		for position, id := range ids {
			if err := tx.Model(&ProductImage{}).Where("id = ?", id).Update("display_order", position).Error; err != nil {
				return fmt.Errorf("failed to reorder images: %w", err)
			}
		}
		return tx.Where("product_id = ?", productID).
			Order("display_order ASC, id ASC").
			Find(&images).Error
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

func findImage(db *gorm.DB, id uint) (*ProductImage, error) {
	var image ProductImage
	if err := db.First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(msgImageNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve image: %w", err)
	}
	return &image, nil
}
