package mongo

import (
	"context"
	"regexp"
	"time"

	"backoffice-api/internal/model"
	"backoffice-api/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var categoryFields = []string{"category.mainCategory", "category.subCategory", "category.subSubCategory"}

type productRepo struct {
	s *Store
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	product.Touch(time.Now().UTC())
	_, err := r.s.coll(colProducts).InsertOne(r.s.ctx(ctx), product)
	return translate(err, "create product %q", product.Code)
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.s.coll(colProducts).FindOne(r.s.ctx(ctx), bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translate(err, "find product %s", id)
	}
	return &product, nil
}

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	if err := r.s.coll(colProducts).FindOne(r.s.ctx(ctx), bson.M{"code": code}).Decode(&product); err != nil {
		return nil, translate(err, "find product by code %q", code)
	}
	return &product, nil
}

func anyCategory(ids any) bson.A {
	or := bson.A{}
	for _, f := range categoryFields {
		or = append(or, bson.M{f: ids})
	}
	return or
}

func (r *productRepo) FindAll(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	var and bson.A
	if filter.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{bson.M{"productName": re}, bson.M{"code": re}}})
	}
	if filter.CategoryID != nil {
		and = append(and, bson.M{"$or": anyCategory(*filter.CategoryID)})
	}
	query := bson.M{}
	if len(and) > 0 {
		query["$and"] = and
	}

	coll := r.s.coll(colProducts)
	total, err := coll.CountDocuments(r.s.ctx(ctx), query)
	if err != nil {
		return nil, 0, translate(err, "count products")
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetSkip(int64(repository.Offset(filter.Page, filter.Limit))).SetLimit(int64(filter.Limit))
	}
	products, err := findAll[model.Product](r.s.ctx(ctx), coll, query, opts)
	if err != nil {
		return nil, 0, translate(err, "list products")
	}
	return products, total, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	product.UpdatedAt = time.Now().UTC()
	res, err := r.s.coll(colProducts).ReplaceOne(r.s.ctx(ctx), bson.M{"_id": product.ID}, product)
	if err != nil {
		return translate(err, "update product %s", product.ID)
	}
	if res.MatchedCount == 0 {
		return notFound("update product %s", product.ID)
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.s.coll(colProducts).DeleteOne(r.s.ctx(ctx), bson.M{"_id": id})
	if err != nil {
		return translate(err, "delete product %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound("delete product %s", id)
	}
	return nil
}

func (r *productRepo) CountInCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	n, err := r.s.coll(colProducts).CountDocuments(r.s.ctx(ctx), bson.M{"$or": anyCategory(categoryID)})
	return n, translate(err, "count products in category %s", categoryID)
}

// ClearCategoryReferences nulls matching fields with one pipeline update so
// a product referencing several deleted categories is written once.
func (r *productRepo) ClearCategoryReferences(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	set := bson.D{}
	for _, f := range categoryFields {
		set = append(set, bson.E{Key: f, Value: bson.M{
			"$cond": bson.A{bson.M{"$in": bson.A{"$" + f, ids}}, nil, "$" + f},
		}})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: time.Now().UTC()})

	res, err := r.s.coll(colProducts).UpdateMany(r.s.ctx(ctx),
		bson.M{"$or": anyCategory(bson.M{"$in": ids})},
		mongo.Pipeline{{{Key: "$set", Value: set}}},
	)
	if err != nil {
		return 0, translate(err, "clear category references")
	}
	return res.ModifiedCount, nil
}
