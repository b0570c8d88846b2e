package store

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// NewMongoStores câble les stores sur les collections users, products,
// carts et orders de la base donnée.
func NewMongoStores(client *mongo.Client, db *mongo.Database) *Stores {
	return &Stores{
		Users:    &mongoUsers{col: db.Collection("users")},
		Products: &mongoProducts{col: db.Collection("products")},
		Carts:    &mongoCarts{col: db.Collection("carts")},
		Orders:   &mongoOrders{col: db.Collection("orders")},
		Tx:       &mongoTransactor{client: client},
	}
}

type mongoTransactor struct {
	client *mongo.Client
}

// WithTransaction enveloppe fn dans une session MongoDB. Le SessionContext
// transmis à fn lie automatiquement toutes les opérations des collections à
// la transaction ; une erreur de fn annule l'ensemble.
func (t *mongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
