package repository

import (
	"context"
	"tracking/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeviceRepository is the registry of known terminals, keyed by IMEI.
type DeviceRepository interface {
	Save(ctx context.Context, device *model.Device) error
	FindByIMEI(ctx context.Context, imei string) (*model.Device, error)
	FindAll(ctx context.Context) ([]*model.Device, error)
}

type MongoDeviceRepository struct {
	collection *mongo.Collection
}

func NewMongoDeviceRepository(db *mongo.Database) *MongoDeviceRepository {
	return &MongoDeviceRepository{
		collection: db.Collection("devices"),
	}
}

// Save upserts the device by IMEI. The _id and firstSeen of an existing
// document are kept, so two gateways racing on a first login agree on one.
func (r *MongoDeviceRepository) Save(ctx context.Context, device *model.Device) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"imei": device.IMEI}, deviceUpdate(device), opts)
	return err
}

func deviceUpdate(device *model.Device) bson.M {
	set := bson.M{
		"status":    device.Status,
		"protocol":  device.Protocol,
		"gatewayId": device.GatewayID,
		"lastLogin": device.LastLogin,
	}
	if device.LastPositionID != "" {
		set["lastPositionId"] = device.LastPositionID
	}
	return bson.M{
		"$set":         set,
		"$max":         bson.M{"lastSeen": device.LastSeen},
		"$setOnInsert": bson.M{"_id": device.ID, "firstSeen": device.FirstSeen},
	}
}

func (r *MongoDeviceRepository) FindByIMEI(ctx context.Context, imei string) (*model.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var device model.Device
	err := r.collection.FindOne(ctx, bson.M{"imei": imei}).Decode(&device)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *MongoDeviceRepository) FindAll(ctx context.Context) ([]*model.Device, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var devices []*model.Device
	if err = cursor.All(ctx, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}
