package util

import "go.mongodb.org/mongo-driver/bson/primitive"

// GenerateID returns a new ObjectID in hex form. IDs sort by creation time.
func GenerateID() string {
	return primitive.NewObjectID().Hex()
}
