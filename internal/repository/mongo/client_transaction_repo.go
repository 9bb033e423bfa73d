package mongo

import (
	"context"
	"time"

	"backoffice-api/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type clientTransactionRepo struct {
	s *Store
}

func (r *clientTransactionRepo) Create(ctx context.Context, tx *model.ClientTransaction) error {
	tx.Touch(time.Now().UTC())
	_, err := r.s.coll(colClientTransactions).InsertOne(r.s.ctx(ctx), tx)
	return translate(err, "create client transaction")
}

func (r *clientTransactionRepo) FindByQuotation(ctx context.Context, quotationID uuid.UUID) ([]model.ClientTransaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	out, err := findAll[model.ClientTransaction](r.s.ctx(ctx), r.s.coll(colClientTransactions),
		bson.M{"quotationId": quotationID}, opts)
	return out, translate(err, "list client transactions of %s", quotationID)
}
