package service

import (
	"context"
	"errors"
	"time"

	"github.com/Sagararora90/ynme/internal/model"
	"gorm.io/gorm"
)

// DeviceService manages device registration records.
type DeviceService struct {
	db *gorm.DB
}

// NewDeviceService creates a device service.
func NewDeviceService(db *gorm.DB) *DeviceService {
	return &DeviceService{db: db}
}

// Upsert registers a device for a user. Repeated registration for the same
// (user, device name) pair updates the existing record instead of creating a
// duplicate.
func (s *DeviceService) Upsert(ctx context.Context, userID, deviceName, deviceType, connectionID string) (*model.Device, error) {
	var dev model.Device
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND device_name = ?", userID, deviceName).
		First(&dev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		dev = model.Device{
			UserID:       userID,
			DeviceName:   deviceName,
			DeviceType:   deviceType,
			ConnectionID: connectionID,
			LastSeen:     time.Now(),
		}
		if err := s.db.WithContext(ctx).Create(&dev).Error; err != nil {
			return nil, err
		}
		return &dev, nil
	}
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"device_type":   deviceType,
		"connection_id": connectionID,
		"last_seen":     time.Now(),
	}
	if err := s.db.WithContext(ctx).Model(&dev).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &dev, nil
}

// ClearConnection clears (does not delete) the device record for a closed
// connection, so registration history survives disconnects.
func (s *DeviceService) ClearConnection(ctx context.Context, connectionID string) error {
	return s.db.WithContext(ctx).Model(&model.Device{}).
		Where("connection_id = ?", connectionID).
		Update("connection_id", "").Error
}

// ListForUser returns all devices registered by a user.
func (s *DeviceService) ListForUser(ctx context.Context, userID string) ([]model.Device, error) {
	var devices []model.Device
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_seen DESC").
		Find(&devices).Error
	return devices, err
}
