package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coolmember/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoTimeout bounds every call when no timeout is configured.
const DefaultMongoTimeout = 5 * time.Second

// MongoMemberRepository is the remote document store adapter. Queries filter
// by ownerId only and return unsorted results, so no compound index is needed;
// callers sort client-side. It never falls back on error.
type MongoMemberRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
	now        Clock
}

func NewMongoMemberRepository(db *mongo.Database, timeout time.Duration) *MongoMemberRepository {
	if timeout <= 0 {
		timeout = DefaultMongoTimeout
	}
	return &MongoMemberRepository{
		collection: db.Collection(MembersCollection),
		timeout:    timeout,
		now:        time.Now,
	}
}

func (r *MongoMemberRepository) List(ctx context.Context, ownerID string) ([]model.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	nowMillis := r.now().UnixMilli()
	members := make([]model.Member, 0, len(docs))
	for _, doc := range docs {
		members = append(members, memberFromDocument(doc, nowMillis))
	}
	return members, nil
}

func (r *MongoMemberRepository) Get(ctx context.Context, ownerID, id string) (*model.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc bson.M
	err := r.collection.FindOne(ctx, ownedFilter(ownerID, id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	member := memberFromDocument(doc, r.now().UnixMilli())
	return &member, nil
}

func (r *MongoMemberRepository) Create(ctx context.Context, ownerID string, fields model.MemberFields) (*model.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	nowMillis := r.now().UnixMilli()
	stamp := primitive.DateTime(nowMillis)
	doc := bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "ownerId", Value: ownerID},
		{Key: "name", Value: fields.Name},
		{Key: "phoneNumber", Value: fields.PhoneNumber},
		{Key: "address", Value: fields.Address},
		{Key: "memberId", Value: fields.MemberID},
		{Key: "bloodGroup", Value: fields.BloodGroup},
		{Key: "createdAt", Value: stamp},
		{Key: "updatedAt", Value: stamp},
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	return model.NewMember(documentID(res.InsertedID), fields, nowMillis), nil
}

// Update applies the patch and refreshes updatedAt, returning the post-image
// from the same round trip.
func (r *MongoMemberRepository) Update(ctx context.Context, ownerID, id string, patch model.MemberPatch) (*model.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	update := updateDocument(patch, r.now().UnixMilli())
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc bson.M
	err := r.collection.FindOneAndUpdate(ctx, ownedFilter(ownerID, id), update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	member := memberFromDocument(doc, r.now().UnixMilli())
	return &member, nil
}

// updateDocument stamps updatedAt from the same clock Create uses for
// createdAt, so the two timestamps of one record are always comparable.
func updateDocument(patch model.MemberPatch, nowMillis int64) bson.M {
	set := bson.M{"updatedAt": primitive.DateTime(nowMillis)}
	for field, value := range patch.Fields() {
		set[field] = value
	}
	return bson.M{"$set": set}
}

func (r *MongoMemberRepository) Delete(ctx context.Context, ownerID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, ownedFilter(ownerID, id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Ping checks that the deployment is reachable.
func (r *MongoMemberRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.collection.Database().Client().Ping(ctx, nil)
}

// Count returns the number of documents in the collection across all owners.
func (r *MongoMemberRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{})
}

// ownedFilter matches a document by id and owner. Ids that are not ObjectID
// hex strings are matched literally.
func ownedFilter(ownerID, id string) bson.M {
	filter := bson.M{"ownerId": ownerID, "_id": id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		filter["_id"] = oid
	}
	return filter
}

func documentID(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func memberFromDocument(doc bson.M, nowMillis int64) model.Member {
	return model.Member{
		ID:          documentID(doc["_id"]),
		Name:        stringField(doc, "name"),
		PhoneNumber: stringField(doc, "phoneNumber"),
		Address:     stringField(doc, "address"),
		MemberID:    stringField(doc, "memberId"),
		BloodGroup:  stringField(doc, "bloodGroup"),
		CreatedAt:   toMillis(doc["createdAt"], nowMillis),
		UpdatedAt:   toMillis(doc["updatedAt"], nowMillis),
	}
}

func stringField(doc bson.M, key string) string {
	s, _ := doc[key].(string)
	return s
}

// toMillis normalises a stored timestamp to epoch milliseconds. Missing or
// unrecognised values become fallback.
func toMillis(v interface{}, fallback int64) int64 {
	switch ts := v.(type) {
	case primitive.DateTime:
		return int64(ts)
	case time.Time:
		return ts.UnixMilli()
	case primitive.Timestamp:
		return int64(ts.T) * 1000
	case int64:
		return ts
	case int32:
		return int64(ts)
	case int:
		return int64(ts)
	case float64:
		return int64(ts)
	default:
		return fallback
	}
}
