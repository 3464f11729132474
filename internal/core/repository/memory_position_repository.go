package repository

import (
	"context"
	"sort"
	"sync"
	"tracking/internal/core/model"
)

type inMemoryPositionRepository struct {
	positions map[string]*model.Position
	mutex     sync.RWMutex
}

func NewInMemoryPositionRepository() PositionRepository {
	return &inMemoryPositionRepository{
		positions: make(map[string]*model.Position),
	}
}

func (r *inMemoryPositionRepository) Create(_ context.Context, position *model.Position) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.positions[position.ID] = position
	return nil
}

func (r *inMemoryPositionRepository) FindByDeviceID(_ context.Context, deviceID string, limit int) ([]*model.Position, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var result []*model.Position
	for _, position := range r.positions {
		if position.DeviceID == deviceID {
			result = append(result, position)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID > result[j].ID
		}
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *inMemoryPositionRepository) FindLatestByDeviceID(ctx context.Context, deviceID string) (*model.Position, error) {
	positions, err := r.FindByDeviceID(ctx, deviceID, 1)
	if err != nil || len(positions) == 0 {
		return nil, err
	}
	return positions[0], nil
}
