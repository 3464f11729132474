package repository

import (
	"context"
	"errors"
	"fmt"
	"tracking/internal/core/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Table names match the Mongo collection names.
const (
	tableLocations        = "locations"
	tableAlarms           = "alarms"
	tableHeartbeats       = "heartbeats"
	tableStatuses         = "statuses"
	tableCommandResponses = "command_responses"
	tableDevices          = "devices"
)

// MigratePostgres creates or updates the tables used by the gorm repositories.
func MigratePostgres(db *gorm.DB) error {
	tables := []struct {
		name  string
		model any
	}{
		{tableLocations, &model.Position{}},
		{tableAlarms, &model.Alarm{}},
		{tableHeartbeats, &model.StatusReport{}},
		{tableStatuses, &model.StatusReport{}},
		{tableCommandResponses, &model.CommandResponse{}},
		{tableDevices, &model.Device{}},
	}
	for _, t := range tables {
		if err := db.Table(t.name).AutoMigrate(t.model); err != nil {
			return fmt.Errorf("migrate %s: %w", t.name, err)
		}
	}
	return nil
}

type GormPositionRepository struct {
	db *gorm.DB
}

func NewGormPositionRepository(db *gorm.DB) *GormPositionRepository {
	return &GormPositionRepository{db: db}
}

func (r *GormPositionRepository) Create(ctx context.Context, position *model.Position) error {
	return r.db.WithContext(ctx).Table(tableLocations).Create(position).Error
}

func (r *GormPositionRepository) FindByDeviceID(ctx context.Context, deviceID string, limit int) ([]*model.Position, error) {
	db := r.db.WithContext(ctx).Table(tableLocations).
		Where("device_id = ?", deviceID).
		Order("timestamp DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}

	var positions []*model.Position
	if err := db.Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (r *GormPositionRepository) FindLatestByDeviceID(ctx context.Context, deviceID string) (*model.Position, error) {
	var position model.Position
	err := r.db.WithContext(ctx).Table(tableLocations).
		Where("device_id = ?", deviceID).
		Order("timestamp DESC").
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) CreateAlarm(ctx context.Context, alarm *model.Alarm) error {
	return r.db.WithContext(ctx).Table(tableAlarms).Create(alarm).Error
}

func (r *GormEventRepository) CreateStatusReport(ctx context.Context, report *model.StatusReport) error {
	var table string
	switch report.Kind {
	case model.ReportHeartbeat:
		table = tableHeartbeats
	case model.ReportStatus:
		table = tableStatuses
	default:
		return fmt.Errorf("unknown status report kind %q", report.Kind)
	}
	return r.db.WithContext(ctx).Table(table).Create(report).Error
}

func (r *GormEventRepository) CreateCommandResponse(ctx context.Context, resp *model.CommandResponse) error {
	return r.db.WithContext(ctx).Table(tableCommandResponses).Create(resp).Error
}

func (r *GormEventRepository) FindAlarmsByDeviceID(ctx context.Context, deviceID string, limit int) ([]*model.Alarm, error) {
	db := r.db.WithContext(ctx).Table(tableAlarms).
		Where("device_id = ?", deviceID).
		Order("timestamp DESC")
	if limit > 0 {
		db = db.Limit(limit)
	}

	var alarms []*model.Alarm
	if err := db.Find(&alarms).Error; err != nil {
		return nil, err
	}
	return alarms, nil
}

type GormDeviceRepository struct {
	db *gorm.DB
}

func NewGormDeviceRepository(db *gorm.DB) *GormDeviceRepository {
	return &GormDeviceRepository{db: db}
}

// Save inserts the device or overwrites the row with the same IMEI.
func (r *GormDeviceRepository) Save(ctx context.Context, device *model.Device) error {
	return r.db.WithContext(ctx).Table(tableDevices).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "imei"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "protocol", "gateway_id", "last_position_id", "last_login", "last_seen",
			}),
		}).
		Create(device).Error
}

func (r *GormDeviceRepository) FindByIMEI(ctx context.Context, imei string) (*model.Device, error) {
	var device model.Device
	err := r.db.WithContext(ctx).Table(tableDevices).Where("imei = ?", imei).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *GormDeviceRepository) FindAll(ctx context.Context) ([]*model.Device, error) {
	var devices []*model.Device
	if err := r.db.WithContext(ctx).Table(tableDevices).Order("imei").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}
