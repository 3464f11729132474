package model

import (
	"time"
	"tracking/internal/core/util"
)

const ProtocolGT06 = "gt06"

const (
	DeviceStatusOnline  = "online"
	DeviceStatusOffline = "offline"
)

// Device is the registry entry of a terminal that has logged in at least once.
type Device struct {
	ID             string    `json:"id" bson:"_id" gorm:"primaryKey;size:24"`
	IMEI           string    `json:"imei" bson:"imei" gorm:"uniqueIndex;size:16"`
	Status         string    `json:"status" bson:"status" gorm:"size:16"`
	Protocol       string    `json:"protocol" bson:"protocol" gorm:"size:16"`
	GatewayID      string    `json:"gatewayId" bson:"gatewayId" gorm:"size:64"`
	LastPositionID string    `json:"lastPositionId,omitempty" bson:"lastPositionId,omitempty" gorm:"size:24"`
	FirstSeen      time.Time `json:"firstSeen" bson:"firstSeen"`
	LastLogin      time.Time `json:"lastLogin" bson:"lastLogin"`
	LastSeen       time.Time `json:"lastSeen" bson:"lastSeen"`
}

func NewDevice(imei string, now time.Time) *Device {
	return &Device{
		ID:        util.GenerateID(),
		IMEI:      imei,
		Status:    DeviceStatusOffline,
		Protocol:  ProtocolGT06,
		FirstSeen: now,
		LastSeen:  now,
	}
}

// MarkLogin records a successful login through the given gateway.
func (d *Device) MarkLogin(gatewayID string, at time.Time) {
	d.Status = DeviceStatusOnline
	d.GatewayID = gatewayID
	d.LastLogin = at
	d.Touch(at)
}

// MarkSeen records traffic from a live session, which also means the device
// is online even if an older session of it was torn down meanwhile.
func (d *Device) MarkSeen(at time.Time) {
	d.Status = DeviceStatusOnline
	d.Touch(at)
}

func (d *Device) Touch(at time.Time) {
	if at.After(d.LastSeen) {
		d.LastSeen = at
	}
}
