package model

import "time"

const (
	ReportHeartbeat = "heartbeat"
	ReportStatus    = "status"
)

// TerminalInfo is the rendered terminal status byte.
type TerminalInfo struct {
	OilElectricity string `json:"oilElectricity" bson:"oilElectricity" gorm:"size:16"`
	GPSTracking    string `json:"gpsTracking" bson:"gpsTracking" gorm:"size:16"`
	AlarmStatus    string `json:"alarmStatus" bson:"alarmStatus" gorm:"size:16"`
	ChargingStatus string `json:"chargingStatus" bson:"chargingStatus" gorm:"size:16"`
	ACCStatus      string `json:"accStatus" bson:"accStatus" gorm:"size:16"`
	Activated      string `json:"activated" bson:"activated" gorm:"size:16"`
}

// StatusReport is a heartbeat or status packet. Kind selects the collection.
type StatusReport struct {
	ID          string       `json:"id" bson:"_id" gorm:"primaryKey;size:24"`
	Kind        string       `json:"kind" bson:"kind" gorm:"size:16"`
	DeviceID    string       `json:"deviceId" bson:"deviceId" gorm:"index;size:16"`
	ReceivedAt  time.Time    `json:"receivedAt" bson:"receivedAt" gorm:"index"`
	Terminal    TerminalInfo `json:"terminalInfo" bson:"terminalInfo" gorm:"embedded;embeddedPrefix:terminal_"`
	Voltage     string       `json:"voltageLevel" bson:"voltageLevel" gorm:"size:16"`
	GSMSignal   string       `json:"gsmSignalStrength" bson:"gsmSignalStrength" gorm:"size:16"`
	AlarmStatus string       `json:"alarmStatus" bson:"alarmStatus" gorm:"size:16"`
	Language    string       `json:"language,omitempty" bson:"language,omitempty" gorm:"size:16"`
	Serial      int          `json:"serialNumber" bson:"serialNumber"`
}

// Alarm is an alarm packet: a fix plus the terminal status at the time.
type Alarm struct {
	ID          string       `json:"id" bson:"_id" gorm:"primaryKey;size:24"`
	DeviceID    string       `json:"deviceId" bson:"deviceId" gorm:"index;size:16"`
	Timestamp   time.Time    `json:"timestamp" bson:"dateTime" gorm:"index"`
	ReceivedAt  time.Time    `json:"receivedAt" bson:"receivedAt"`
	Latitude    float64      `json:"latitude" bson:"latitude"`
	Longitude   float64      `json:"longitude" bson:"longitude"`
	Speed       int          `json:"speed" bson:"speed"`
	Course      int          `json:"course" bson:"course"`
	Satellites  int          `json:"satellites" bson:"satellites"`
	Cell        Cell         `json:"cell" bson:"cell" gorm:"embedded;embeddedPrefix:cell_"`
	Terminal    TerminalInfo `json:"terminalInfo" bson:"terminalInfo" gorm:"embedded;embeddedPrefix:terminal_"`
	Voltage     string       `json:"voltageLevel" bson:"voltageLevel" gorm:"size:16"`
	GSMSignal   string       `json:"gsmSignalStrength" bson:"gsmSignalStrength" gorm:"size:16"`
	AlarmStatus string       `json:"alarmStatus" bson:"alarmStatus" gorm:"size:16"`
	Language    string       `json:"language" bson:"language" gorm:"size:16"`
	Serial      int          `json:"serialNumber" bson:"serialNumber"`
}

// CommandResponse is a terminal's answer to a server command.
type CommandResponse struct {
	ID         string    `json:"id" bson:"_id" gorm:"primaryKey;size:24"`
	DeviceID   string    `json:"deviceId" bson:"deviceId" gorm:"index;size:16"`
	ReceivedAt time.Time `json:"receivedAt" bson:"receivedAt"`
	Content    string    `json:"content" bson:"content"`
	RawHex     string    `json:"raw" bson:"raw"`
	Serial     int       `json:"serialNumber" bson:"serialNumber"`
}
