// Package mongo is the MongoDB backed Store. Multi-document writes need a
// replica set, since WithinTx runs on a session transaction.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colCategories         = "categories"
	colProducts           = "products"
	colQuotations         = "quotations"
	colQuotationCounters  = "quotation_counters"
	colClientTransactions = "client_transactions"
)

// Store implements repository.Store.
type Store struct {
	db *mongo.Database
	sc mongo.SessionContext // set inside WithinTx
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// ctx binds calls to the session when running inside a transaction.
func (s *Store) ctx(ctx context.Context) context.Context {
	if s.sc != nil {
		return s.sc
	}
	return ctx
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// WithinTx runs fn in a session transaction. The driver retries fn on
// transient errors such as write conflicts, so fn must be safe to rerun.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.sc != nil {
		return fn(s)
	}
	sess, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(&Store{db: s.db, sc: sc})
	})
	return err
}

func (s *Store) Categories() repository.CategoryRepository { return &categoryRepo{s} }

func (s *Store) Products() repository.ProductRepository { return &productRepo{s} }

func (s *Store) Quotations() repository.QuotationRepository { return &quotationRepo{s} }

func (s *Store) ClientTransactions() repository.ClientTransactionRepository {
	return &clientTransactionRepo{s}
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		colCategories: {
			{Keys: bson.D{{Key: "categoryName", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "parentCategory", Value: 1}}},
			{Keys: bson.D{{Key: "level", Value: 1}}},
		},
		colProducts: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "category.mainCategory", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		colQuotations: {
			{Keys: bson.D{{Key: "quotationNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "isDeleted", Value: 1}, {Key: "date", Value: -1}}},
		},
		colClientTransactions: {
			{Keys: bson.D{{Key: "quotationId", Value: 1}, {Key: "date", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", msg, apperrors.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", msg, apperrors.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func notFound(format string, args ...any) error {
	return translate(mongo.ErrNoDocuments, format, args...)
}
