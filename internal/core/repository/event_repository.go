package repository

import (
	"context"
	"fmt"
	"tracking/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventRepository stores the non-positional packets: alarms, heartbeats,
// status reports and command responses.
type EventRepository interface {
	CreateAlarm(ctx context.Context, alarm *model.Alarm) error
	CreateStatusReport(ctx context.Context, report *model.StatusReport) error
	CreateCommandResponse(ctx context.Context, resp *model.CommandResponse) error
	FindAlarmsByDeviceID(ctx context.Context, deviceID string, limit int) ([]*model.Alarm, error)
}

type MongoEventRepository struct {
	alarms           *mongo.Collection
	heartbeats       *mongo.Collection
	statuses         *mongo.Collection
	commandResponses *mongo.Collection
}

func NewMongoEventRepository(db *mongo.Database) *MongoEventRepository {
	return &MongoEventRepository{
		alarms:           db.Collection("alarms"),
		heartbeats:       db.Collection("heartbeats"),
		statuses:         db.Collection("statuses"),
		commandResponses: db.Collection("command_responses"),
	}
}

func (r *MongoEventRepository) CreateAlarm(ctx context.Context, alarm *model.Alarm) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.alarms.InsertOne(ctx, alarm)
	return err
}

func (r *MongoEventRepository) CreateStatusReport(ctx context.Context, report *model.StatusReport) error {
	var coll *mongo.Collection
	switch report.Kind {
	case model.ReportHeartbeat:
		coll = r.heartbeats
	case model.ReportStatus:
		coll = r.statuses
	default:
		return fmt.Errorf("unknown status report kind %q", report.Kind)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := coll.InsertOne(ctx, report)
	return err
}

func (r *MongoEventRepository) CreateCommandResponse(ctx context.Context, resp *model.CommandResponse) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.commandResponses.InsertOne(ctx, resp)
	return err
}

func (r *MongoEventRepository) FindAlarmsByDeviceID(ctx context.Context, deviceID string, limit int) ([]*model.Alarm, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "dateTime", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.alarms.Find(ctx, bson.M{"deviceId": deviceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alarms []*model.Alarm
	if err = cursor.All(ctx, &alarms); err != nil {
		return nil, err
	}
	return alarms, nil
}
