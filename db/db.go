package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	UserCollection   *mongo.Collection
	DishCollection   *mongo.Collection
	CartCollection   *mongo.Collection
	OrderCollection  *mongo.Collection
	ReviewCollection *mongo.Collection
	Database         *mongo.Database
	Client           *mongo.Client
)

// Connect opens the MongoDB client, pings it and binds the collections.
func Connect(ctx context.Context, uri, database string) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping MongoDB: %w", err)
	}

	Client = client
	Database = client.Database(database)
	UserCollection = Database.Collection("users")
	DishCollection = Database.Collection("dishes")
	CartCollection = Database.Collection("carts")
	OrderCollection = Database.Collection("orders")
	ReviewCollection = Database.Collection("reviews")

	log.Printf("Connected to MongoDB database %q", database)
	return nil
}

// EnsureIndexes creates the indexes the services rely on. The unique
// carts.user index is what keeps a customer at one cart.
func EnsureIndexes(ctx context.Context) error {
	if _, err := CartCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_cart_user"),
	}); err != nil {
		return fmt.Errorf("carts index: %w", err)
	}

	if _, err := UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_email"),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	orderIdxs := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("user_created")},
		{Keys: bson.D{{Key: "cookId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("cook_created")},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "orderItems.dish", Value: 1}, {Key: "isDelivered", Value: 1}}, Options: options.Index().SetName("user_dish_delivered")},
	}
	if _, err := OrderCollection.Indexes().CreateMany(ctx, orderIdxs); err != nil {
		return fmt.Errorf("orders indexes: %w", err)
	}

	if _, err := DishCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "cook", Value: 1}, {Key: "category", Value: 1}},
		Options: options.Index().SetName("cook_category"),
	}); err != nil {
		return fmt.Errorf("dishes index: %w", err)
	}

	// One review per customer and dish.
	if _, err := ReviewCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "dish", Value: 1}, {Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_review_dish_user"),
	}); err != nil {
		return fmt.Errorf("reviews index: %w", err)
	}
	return nil
}

func Disconnect(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}
