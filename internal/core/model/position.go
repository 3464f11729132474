package model

import "time"

// Position is one GPS fix reported by a location packet.
type Position struct {
	ID         string    `json:"id" bson:"_id" gorm:"primaryKey;size:24"`
	DeviceID   string    `json:"deviceId" bson:"deviceId" gorm:"index;size:16"`
	Timestamp  time.Time `json:"timestamp" bson:"dateTime" gorm:"index"`
	ReceivedAt time.Time `json:"receivedAt" bson:"receivedAt"`
	Latitude   float64   `json:"latitude" bson:"latitude"`
	Longitude  float64   `json:"longitude" bson:"longitude"`
	Speed      int       `json:"speed" bson:"speed"`
	Course     int       `json:"course" bson:"course"`
	Satellites int       `json:"satellites" bson:"satellites"`
	Valid      bool      `json:"valid" bson:"valid"` // GPS positioned and time decoded
	RealTime   bool      `json:"realTime" bson:"realTime"`
	Cell       Cell      `json:"cell" bson:"cell" gorm:"embedded;embeddedPrefix:cell_"`
	Protocol   string    `json:"protocol" bson:"protocol" gorm:"size:16"`
	Serial     int       `json:"serialNumber" bson:"serialNumber"`
}

// Cell identifies the GSM cell the device was attached to.
type Cell struct {
	MCC    int `json:"mcc" bson:"mcc"`
	MNC    int `json:"mnc" bson:"mnc"`
	LAC    int `json:"lac" bson:"lac"`
	CellID int `json:"cellId" bson:"cellId"`
}
