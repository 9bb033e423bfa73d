package mongo

import (
	"context"
	"time"

	"backoffice-api/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type categoryRepo struct {
	s *Store
}

func byName() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "categoryName", Value: 1}})
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	category.Touch(time.Now().UTC())
	_, err := r.s.coll(colCategories).InsertOne(r.s.ctx(ctx), category)
	return translate(err, "create category %q", category.CategoryName)
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	err := r.s.coll(colCategories).FindOne(r.s.ctx(ctx), bson.M{"_id": id}).Decode(&category)
	if err != nil {
		return nil, translate(err, "find category %s", id)
	}
	return &category, nil
}

func (r *categoryRepo) NameExists(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	filter := bson.M{"categoryName": name}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	n, err := r.s.coll(colCategories).CountDocuments(r.s.ctx(ctx), filter, options.Count().SetLimit(1))
	return n > 0, translate(err, "check category name")
}

func (r *categoryRepo) find(ctx context.Context, filter bson.M, activeOnly bool) ([]model.Category, error) {
	if activeOnly {
		filter["isActive"] = true
	}
	out, err := findAll[model.Category](r.s.ctx(ctx), r.s.coll(colCategories), filter, byName())
	return out, translate(err, "list categories")
}

func (r *categoryRepo) FindAll(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	return r.find(ctx, bson.M{}, activeOnly)
}

func (r *categoryRepo) FindByLevel(ctx context.Context, level int, activeOnly bool) ([]model.Category, error) {
	return r.find(ctx, bson.M{"level": level}, activeOnly)
}

func (r *categoryRepo) FindByParent(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]model.Category, error) {
	return r.find(ctx, bson.M{"parentCategory": parentID}, activeOnly)
}

func (r *categoryRepo) FindByParents(ctx context.Context, parentIDs []uuid.UUID) ([]model.Category, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"parentCategory": bson.M{"$in": parentIDs}}, false)
}

func (r *categoryRepo) CountChildren(ctx context.Context, parentIDs []uuid.UUID, activeOnly bool) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(parentIDs))
	if len(parentIDs) == 0 {
		return counts, nil
	}

	match := bson.M{"parentCategory": bson.M{"$in": parentIDs}}
	if activeOnly {
		match["isActive"] = true
	}
	pipeline := bson.A{
		bson.M{"$match": match},
		bson.M{"$group": bson.M{"_id": "$parentCategory", "count": bson.M{"$sum": 1}}},
	}
	cur, err := r.s.coll(colCategories).Aggregate(r.s.ctx(ctx), pipeline)
	if err != nil {
		return nil, translate(err, "count children")
	}
	var rows []struct {
		ParentID uuid.UUID `bson:"_id"`
		Count    int64     `bson:"count"`
	}
	if err := cur.All(r.s.ctx(ctx), &rows); err != nil {
		return nil, translate(err, "count children")
	}
	for _, row := range rows {
		counts[row.ParentID] = row.Count
	}
	return counts, nil
}

func (r *categoryRepo) Update(ctx context.Context, category *model.Category) error {
	category.UpdatedAt = time.Now().UTC()
	res, err := r.s.coll(colCategories).ReplaceOne(r.s.ctx(ctx), bson.M{"_id": category.ID}, category)
	if err != nil {
		return translate(err, "update category %s", category.ID)
	}
	if res.MatchedCount == 0 {
		return notFound("update category %s", category.ID)
	}
	return nil
}

func (r *categoryRepo) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.s.coll(colCategories).DeleteMany(r.s.ctx(ctx), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, translate(err, "delete categories")
	}
	return res.DeletedCount, nil
}
