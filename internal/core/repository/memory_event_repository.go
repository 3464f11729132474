package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"tracking/internal/core/model"
)

// InMemoryEventRepository keeps events in arrival order. The exported
// accessors are used by tests and the memory storage driver.
type InMemoryEventRepository struct {
	alarms           []*model.Alarm
	reports          []*model.StatusReport
	commandResponses []*model.CommandResponse
	mutex            sync.RWMutex
}

func NewInMemoryEventRepository() *InMemoryEventRepository {
	return &InMemoryEventRepository{}
}

func (r *InMemoryEventRepository) CreateAlarm(_ context.Context, alarm *model.Alarm) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.alarms = append(r.alarms, alarm)
	return nil
}

func (r *InMemoryEventRepository) CreateStatusReport(_ context.Context, report *model.StatusReport) error {
	if report.Kind != model.ReportHeartbeat && report.Kind != model.ReportStatus {
		return fmt.Errorf("unknown status report kind %q", report.Kind)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, report)
	return nil
}

func (r *InMemoryEventRepository) CreateCommandResponse(_ context.Context, resp *model.CommandResponse) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.commandResponses = append(r.commandResponses, resp)
	return nil
}

func (r *InMemoryEventRepository) FindAlarmsByDeviceID(_ context.Context, deviceID string, limit int) ([]*model.Alarm, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.Alarm
	for _, alarm := range r.alarms {
		if alarm.DeviceID == deviceID {
			result = append(result, alarm)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// StatusReports returns the stored heartbeat and status reports of one kind.
func (r *InMemoryEventRepository) StatusReports(kind string) []*model.StatusReport {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.StatusReport
	for _, report := range r.reports {
		if report.Kind == kind {
			result = append(result, report)
		}
	}
	return result
}

func (r *InMemoryEventRepository) CommandResponses() []*model.CommandResponse {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]*model.CommandResponse(nil), r.commandResponses...)
}
