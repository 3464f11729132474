package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"tracking/internal/core/model"
)

type inMemoryDeviceRepository struct {
	devices map[string]*model.Device
	mutex   sync.RWMutex
}

func NewInMemoryDeviceRepository() DeviceRepository {
	return &inMemoryDeviceRepository{
		devices: make(map[string]*model.Device),
	}
}

func (r *inMemoryDeviceRepository) Save(_ context.Context, device *model.Device) error {
	if device.IMEI == "" {
		return fmt.Errorf("device %s has no IMEI", device.ID)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored := *device
	r.devices[device.IMEI] = &stored
	return nil
}

func (r *inMemoryDeviceRepository) FindByIMEI(_ context.Context, imei string) (*model.Device, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if device, exists := r.devices[imei]; exists {
		copied := *device
		return &copied, nil
	}
	return nil, nil
}

func (r *inMemoryDeviceRepository) FindAll(_ context.Context) ([]*model.Device, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	devices := make([]*model.Device, 0, len(r.devices))
	for _, device := range r.devices {
		copied := *device
		devices = append(devices, &copied)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].IMEI < devices[j].IMEI })
	return devices, nil
}
