package mongo

import (
	"context"
	"regexp"
	"sort"
	"time"

	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type quotationRepo struct {
	s *Store
}

func (r *quotationRepo) Create(ctx context.Context, quotation *model.Quotation) error {
	now := time.Now().UTC()
	quotation.Touch(now)
	if quotation.Transactions == nil {
		quotation.Transactions = []model.LedgerEntry{}
	}
	for i := range quotation.Transactions {
		e := &quotation.Transactions[i]
		e.QuotationID = quotation.ID
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
	}
	_, err := r.s.coll(colQuotations).InsertOne(r.s.ctx(ctx), quotation)
	return translate(err, "create quotation %q", quotation.QuotationNumber)
}

func (r *quotationRepo) decodeOne(ctx context.Context, filter bson.M, what string) (*model.Quotation, error) {
	var q model.Quotation
	if err := r.s.coll(colQuotations).FindOne(r.s.ctx(ctx), filter).Decode(&q); err != nil {
		return nil, translate(err, "find quotation %s", what)
	}
	fillQuotationID(&q)
	return &q, nil
}

// fillQuotationID restores the back reference that embedded entries do not store.
func fillQuotationID(q *model.Quotation) {
	for i := range q.Transactions {
		q.Transactions[i].QuotationID = q.ID
		q.Transactions[i].Seq = i + 1
	}
}

func (r *quotationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	return r.decodeOne(ctx, bson.M{"_id": id}, id.String())
}

// FindByIDForUpdate writes to the document so a concurrent transaction
// touching it hits a write conflict and is retried.
func (r *quotationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var q model.Quotation
	err := r.s.coll(colQuotations).FindOneAndUpdate(r.s.ctx(ctx),
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&q)
	if err != nil {
		return nil, translate(err, "lock quotation %s", id)
	}
	fillQuotationID(&q)
	return &q, nil
}

func (r *quotationRepo) FindByNumber(ctx context.Context, number string) (*model.Quotation, error) {
	return r.decodeOne(ctx, bson.M{"quotationNumber": number, "isDeleted": false}, number)
}

func (r *quotationRepo) FindAll(ctx context.Context, filter repository.QuotationFilter) ([]model.Quotation, int64, error) {
	query := bson.M{"isDeleted": false}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"quotationName": re},
			bson.M{"clientName": re},
			bson.M{"quotationNumber": re},
		}
	}
	if filter.ItemCategory != "" {
		query["items.category"] = filter.ItemCategory
	}

	coll := r.s.coll(colQuotations)
	total, err := coll.CountDocuments(r.s.ctx(ctx), query)
	if err != nil {
		return nil, 0, translate(err, "count quotations")
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetSkip(int64(repository.Offset(filter.Page, filter.Limit))).SetLimit(int64(filter.Limit))
	}
	quotations, err := findAll[model.Quotation](r.s.ctx(ctx), coll, query, opts)
	if err != nil {
		return nil, 0, translate(err, "list quotations")
	}
	for i := range quotations {
		fillQuotationID(&quotations[i])
	}
	return quotations, total, nil
}

func (r *quotationRepo) Numbers(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "quotationNumber", Value: 1}}).
		SetProjection(bson.M{"quotationNumber": 1})
	rows, err := findAll[struct {
		Number string `bson:"quotationNumber"`
	}](r.s.ctx(ctx), r.s.coll(colQuotations), bson.M{"isDeleted": false}, opts)
	if err != nil {
		return nil, translate(err, "list quotation numbers")
	}
	numbers := make([]string, 0, len(rows))
	for _, row := range rows {
		numbers = append(numbers, row.Number)
	}
	return numbers, nil
}

func (r *quotationRepo) ItemCategories(ctx context.Context) ([]string, error) {
	values, err := r.s.coll(colQuotations).Distinct(r.s.ctx(ctx), "items.category", bson.M{"isDeleted": false})
	if err != nil {
		return nil, translate(err, "list item categories")
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *quotationRepo) Save(ctx context.Context, q *model.Quotation) error {
	q.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"quotationName":      q.QuotationName,
		"clientName":         q.ClientName,
		"clientId":           q.ClientID,
		"subject":            q.Subject,
		"date":               q.Date,
		"status":             q.Status,
		"items":              q.Items,
		"payments":           q.Payments,
		"subtotal":           q.Subtotal,
		"cgst":               q.CGST,
		"sgst":               q.SGST,
		"otherTax":           q.OtherTax,
		"tax":                q.Tax,
		"discount":           q.Discount,
		"total":              q.Total,
		"runningBalance":     q.RunningBalance,
		"termsAndConditions": q.TermsAndConditions,
		"attachments":        q.Attachments,
		"isDeleted":          q.IsDeleted,
		"updatedAt":          q.UpdatedAt,
		"updatedBy":          q.UpdatedBy,
	}
	res, err := r.s.coll(colQuotations).UpdateOne(r.s.ctx(ctx), bson.M{"_id": q.ID}, bson.M{"$set": set})
	if err != nil {
		return translate(err, "save quotation %s", q.ID)
	}
	if res.MatchedCount == 0 {
		return notFound("save quotation %s", q.ID)
	}
	return nil
}

func (r *quotationRepo) AppendEntry(ctx context.Context, quotationID uuid.UUID, entry *model.LedgerEntry) error {
	entry.QuotationID = quotationID
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res, err := r.s.coll(colQuotations).UpdateOne(r.s.ctx(ctx),
		bson.M{"_id": quotationID},
		bson.M{"$push": bson.M{"transactions": entry}},
	)
	if err != nil {
		return translate(err, "append ledger entry to %s", quotationID)
	}
	if res.MatchedCount == 0 {
		return notFound("append ledger entry to %s", quotationID)
	}
	return nil
}

func (r *quotationRepo) NextSequence(ctx context.Context, financialYear int) (int64, error) {
	var counter model.QuotationCounter
	err := r.s.coll(colQuotationCounters).FindOneAndUpdate(r.s.ctx(ctx),
		bson.M{"_id": financialYear},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, translate(err, "next quotation sequence for %d", financialYear)
	}
	return counter.Seq, nil
}
