package service

import (
	"encoding/hex"
	"strings"
	"time"
	"tracking/internal/core/model"
	"tracking/internal/core/util"
	"tracking/internal/protocol/gt06"
	"unicode"
)

func positionRecord(m *gt06.LocationMessage, receivedAt time.Time) *model.Position {
	fixTime := m.Time
	if !m.TimeValid {
		fixTime = receivedAt
	}
	return &model.Position{
		ID:         util.GenerateID(),
		DeviceID:   m.DeviceID,
		Timestamp:  fixTime,
		ReceivedAt: receivedAt,
		Latitude:   m.Fix.Latitude,
		Longitude:  m.Fix.Longitude,
		Speed:      m.Fix.Speed,
		Course:     m.Fix.Course,
		Satellites: m.Fix.Satellites,
		Valid:      m.TimeValid && m.CourseStatus.Positioned,
		RealTime:   m.CourseStatus.RealTime,
		Cell:       cellRecord(m.Cell),
		Protocol:   model.ProtocolGT06,
		Serial:     int(m.Head.Serial),
	}
}

func alarmRecord(m *gt06.AlarmMessage, receivedAt time.Time) *model.Alarm {
	fixTime := m.Time
	if !m.TimeValid {
		fixTime = receivedAt
	}
	return &model.Alarm{
		ID:          util.GenerateID(),
		DeviceID:    m.DeviceID,
		Timestamp:   fixTime,
		ReceivedAt:  receivedAt,
		Latitude:    m.Fix.Latitude,
		Longitude:   m.Fix.Longitude,
		Speed:       m.Fix.Speed,
		Course:      m.Fix.Course,
		Satellites:  m.Fix.Satellites,
		Cell:        cellRecord(m.Cell),
		Terminal:    terminalRecord(m.Terminal),
		Voltage:     gt06.VoltageLevel(m.Voltage),
		GSMSignal:   gt06.GSMSignal(m.GSMSignal),
		AlarmStatus: gt06.AlarmStatus(m.AlarmStatus),
		Language:    gt06.Language(m.Language),
		Serial:      int(m.Head.Serial),
	}
}

func statusRecord(m *gt06.StatusMessage, receivedAt time.Time) *model.StatusReport {
	return &model.StatusReport{
		ID:          util.GenerateID(),
		Kind:        model.ReportStatus,
		DeviceID:    m.DeviceID,
		ReceivedAt:  receivedAt,
		Terminal:    terminalRecord(m.Terminal),
		Voltage:     gt06.VoltageLevel(m.Voltage),
		GSMSignal:   gt06.GSMSignal(m.GSMSignal),
		AlarmStatus: gt06.AlarmStatus(m.AlarmStatus),
		Serial:      int(m.Head.Serial),
	}
}

func heartbeatRecord(m *gt06.HeartbeatMessage, receivedAt time.Time) *model.StatusReport {
	return &model.StatusReport{
		ID:          util.GenerateID(),
		Kind:        model.ReportHeartbeat,
		DeviceID:    m.DeviceID,
		ReceivedAt:  receivedAt,
		Terminal:    terminalRecord(m.Terminal),
		Voltage:     gt06.VoltageLevel(m.Voltage),
		GSMSignal:   gt06.GSMSignal(m.GSMSignal),
		AlarmStatus: gt06.AlarmStatus(m.AlarmStatus),
		Language:    gt06.Language(m.Language),
		Serial:      int(m.Head.Serial),
	}
}

func commandResponseRecord(m *gt06.CommandResponseMessage, receivedAt time.Time) *model.CommandResponse {
	return &model.CommandResponse{
		ID:         util.GenerateID(),
		DeviceID:   m.DeviceID,
		ReceivedAt: receivedAt,
		Content:    printable(m.Content),
		RawHex:     hex.EncodeToString(m.Content),
		Serial:     int(m.Head.Serial),
	}
}

func cellRecord(c gt06.CellInfo) model.Cell {
	return model.Cell{
		MCC:    int(c.MCC),
		MNC:    int(c.MNC),
		LAC:    int(c.LAC),
		CellID: int(c.CellID),
	}
}

func terminalRecord(t gt06.TerminalInfo) model.TerminalInfo {
	return model.TerminalInfo{
		OilElectricity: t.OilElectricity(),
		GPSTracking:    t.GPSTrackingStatus(),
		AlarmStatus:    t.AlarmStatus(),
		ChargingStatus: t.ChargingStatus(),
		ACCStatus:      t.ACCStatus(),
		Activated:      t.ActivatedStatus(),
	}
}

// printable keeps the text of a command response, dropping control bytes.
func printable(b []byte) string {
	return strings.Map(func(r rune) rune {
		if r == unicode.ReplacementChar || (!unicode.IsPrint(r) && r != '\n') {
			return -1
		}
		return r
	}, string(b))
}
