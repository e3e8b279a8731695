package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"homecook/models"
	"homecook/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongo builds a Store on top of the given database. Transactions need
// the server to run as a replica set.
func NewMongo(client *mongo.Client, database *mongo.Database) *Store {
	return &Store{
		Dishes:  &mongoDishes{coll: database.Collection("dishes")},
		Carts:   &mongoCarts{coll: database.Collection("carts")},
		Orders:  &mongoOrders{coll: database.Collection("orders")},
		Users:   &mongoUsers{coll: database.Collection("users")},
		Reviews: &mongoReviews{coll: database.Collection("reviews")},
		Tx:      &mongoTx{client: client},
	}
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s find: %w", coll.Name(), err)
	}
	return &doc, nil
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id string, doc any, upsert bool) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(upsert))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("%s replace: %w", coll.Name(), err)
	}
	if !upsert && res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// setOne applies a $set to the document with id and decodes the result.
func setOne[T any](ctx context.Context, coll *mongo.Collection, id string, set bson.M) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc T
	err := coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s update: %w", coll.Name(), err)
	}
	return &doc, nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%s delete: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc any) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("%s insert: %w", coll.Name(), err)
	}
	return nil
}

// page returns one page of documents, newest first by sortField, and the total count.
func page[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, sortField string, p utils.Page) ([]T, int64, error) {
	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%s count: %w", coll.Name(), err)
	}

	if p.Size <= 0 {
		return []T{}, count, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: -1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Size))
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s find: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	items := []T{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("%s decode: %w", coll.Name(), err)
	}
	return items, count, nil
}

type mongoDishes struct{ coll *mongo.Collection }

func (m *mongoDishes) Get(ctx context.Context, id string) (*models.Dish, error) {
	return findOne[models.Dish](ctx, m.coll, bson.M{"_id": id})
}

func (m *mongoDishes) Insert(ctx context.Context, d *models.Dish) error {
	return insert(ctx, m.coll, d)
}

// dishSet turns u into a $set document. Quantity and soldOut always move
// together.
func dishSet(u DishUpdate) bson.M {
	set := bson.M{"updatedAt": time.Now()}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.Quantity != nil {
		set["quantity"] = *u.Quantity
		set["soldOut"] = *u.Quantity <= 0
	}
	if u.RatingsAverage != nil {
		set["ratingsAverage"] = *u.RatingsAverage
	}
	if u.RatingsQuantity != nil {
		set["ratingsQuantity"] = *u.RatingsQuantity
	}
	return set
}

func (m *mongoDishes) Update(ctx context.Context, id string, u DishUpdate) (*models.Dish, error) {
	return setOne[models.Dish](ctx, m.coll, id, dishSet(u))
}

func (m *mongoDishes) Delete(ctx context.Context, id string) (*models.Dish, error) {
	var dish models.Dish
	err := m.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&dish)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dishes delete: %w", err)
	}
	return &dish, nil
}

func (m *mongoDishes) List(ctx context.Context, f DishFilter, p utils.Page) ([]models.Dish, int64, error) {
	filter := bson.M{}
	if f.Cook != "" {
		filter["cook"] = f.Cook
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Cooks != nil {
		if f.Cook != "" && !utils.Contains(f.Cooks, f.Cook) {
			return []models.Dish{}, 0, nil
		}
		if f.Cook == "" {
			filter["cook"] = bson.M{"$in": f.Cooks}
		}
	}
	return page[models.Dish](ctx, m.coll, filter, "createdAt", p)
}

func (m *mongoDishes) Decrement(ctx context.Context, id string, qty int) (*models.Dish, error) {
	// Pipeline stages run in order, so soldOut sees the new quantity.
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "quantity", Value: bson.D{{Key: "$subtract", Value: bson.A{"$quantity", qty}}}},
			{Key: "updatedAt", Value: time.Now()},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "soldOut", Value: bson.D{{Key: "$lte", Value: bson.A{"$quantity", 0}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var dish models.Dish
	err := m.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "quantity": bson.M{"$gte": qty}}, update, opts).Decode(&dish)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := m.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrInsufficient
	}
	if err != nil {
		return nil, fmt.Errorf("dishes decrement: %w", err)
	}
	return &dish, nil
}

type mongoCarts struct{ coll *mongo.Collection }

func (m *mongoCarts) Get(ctx context.Context, id string) (*models.Cart, error) {
	return findOne[models.Cart](ctx, m.coll, bson.M{"_id": id})
}

func (m *mongoCarts) GetByUser(ctx context.Context, userID string) (*models.Cart, error) {
	return findOne[models.Cart](ctx, m.coll, bson.M{"user": userID})
}

func (m *mongoCarts) Save(ctx context.Context, c *models.Cart) error {
	return replaceByID(ctx, m.coll, c.ID, c, true)
}

func (m *mongoCarts) Delete(ctx context.Context, id string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("carts delete: %w", err)
	}
	return nil
}

func (m *mongoCarts) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"user": userID}); err != nil {
		return fmt.Errorf("carts delete: %w", err)
	}
	return nil
}

type mongoOrders struct{ coll *mongo.Collection }

func (m *mongoOrders) Insert(ctx context.Context, o *models.Order) error {
	return insert(ctx, m.coll, o)
}

func (m *mongoOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	return findOne[models.Order](ctx, m.coll, bson.M{"_id": id})
}

func (m *mongoOrders) Update(ctx context.Context, o *models.Order) error {
	return replaceByID(ctx, m.coll, o.ID, o, false)
}

func (m *mongoOrders) List(ctx context.Context, f OrderFilter, p utils.Page) ([]models.Order, int64, error) {
	filter := bson.M{}
	if f.User != "" {
		filter["user"] = f.User
	}
	if f.CookID != "" {
		filter["cookId"] = f.CookID
	}
	return page[models.Order](ctx, m.coll, filter, "createdAt", p)
}

func (m *mongoOrders) HasDelivered(ctx context.Context, userID, dishID string) (bool, error) {
	n, err := m.coll.CountDocuments(ctx, bson.M{
		"user":            userID,
		"isDelivered":     true,
		"orderItems.dish": dishID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("orders count delivered: %w", err)
	}
	return n > 0, nil
}

type mongoUsers struct{ coll *mongo.Collection }

func (m *mongoUsers) Get(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, m.coll, bson.M{"_id": id})
}

func (m *mongoUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, m.coll, bson.M{"email": email})
}

func (m *mongoUsers) Insert(ctx context.Context, u *models.User) error {
	return insert(ctx, m.coll, u)
}

func (m *mongoUsers) UpdateAddress(ctx context.Context, id string, addr models.Address) error {
	res, err := m.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"address":    addr,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("users update address: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// equalFold matches v ignoring case and surrounding space.
func equalFold(v string) bson.M {
	pattern := "^\\s*" + regexp.QuoteMeta(strings.TrimSpace(v)) + "\\s*$"
	return bson.M{"$regex": primitive.Regex{Pattern: pattern, Options: "i"}}
}

func userFilter(f UserFilter) bson.M {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.City != "" {
		filter["address.city"] = equalFold(f.City)
	}
	if f.District != "" {
		filter["address.district"] = equalFold(f.District)
	}
	return filter
}

func (m *mongoUsers) List(ctx context.Context, f UserFilter, p utils.Page) ([]models.User, int64, error) {
	return page[models.User](ctx, m.coll, userFilter(f), "created_at", p)
}

func (m *mongoUsers) IDs(ctx context.Context, f UserFilter) ([]string, error) {
	cursor, err := m.coll.Find(ctx, userFilter(f), options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("users find ids: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("users decode ids: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (m *mongoUsers) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, m.coll, id)
}

type mongoReviews struct{ coll *mongo.Collection }

func (m *mongoReviews) Get(ctx context.Context, id string) (*models.Review, error) {
	return findOne[models.Review](ctx, m.coll, bson.M{"_id": id})
}

// Insert relies on the unique (dish, user) index for duplicate detection.
func (m *mongoReviews) Insert(ctx context.Context, r *models.Review) error {
	return insert(ctx, m.coll, r)
}

func (m *mongoReviews) Update(ctx context.Context, id string, u ReviewUpdate) (*models.Review, error) {
	set := bson.M{"updatedAt": time.Now()}
	if u.Rating != nil {
		set["rating"] = *u.Rating
	}
	if u.Comment != nil {
		set["comment"] = *u.Comment
	}
	return setOne[models.Review](ctx, m.coll, id, set)
}

func (m *mongoReviews) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, m.coll, id)
}

func (m *mongoReviews) DeleteByDish(ctx context.Context, dishID string) error {
	if _, err := m.coll.DeleteMany(ctx, bson.M{"dish": dishID}); err != nil {
		return fmt.Errorf("reviews delete by dish: %w", err)
	}
	return nil
}

func (m *mongoReviews) ListByDish(ctx context.Context, dishID string, p utils.Page) ([]models.Review, int64, error) {
	return page[models.Review](ctx, m.coll, bson.M{"dish": dishID}, "createdAt", p)
}

func (m *mongoReviews) Ratings(ctx context.Context, dishID string) (float64, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"dish": dishID}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$dish"},
			{Key: "avg", Value: bson.M{"$avg": "$rating"}},
			{Key: "n", Value: bson.M{"$sum": 1}},
		}}},
	}
	cursor, err := m.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("reviews aggregate: %w", err)
	}
	defer cursor.Close(ctx)

	var out []struct {
		Avg float64 `bson:"avg"`
		N   int     `bson:"n"`
	}
	if err := cursor.All(ctx, &out); err != nil {
		return 0, 0, fmt.Errorf("reviews decode ratings: %w", err)
	}
	if len(out) == 0 {
		return 0, 0, nil
	}
	return out[0].Avg, out[0].N, nil
}

type mongoTx struct{ client *mongo.Client }

func (t *mongoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
