package service

import (
	"context"
	"testing"

	"backoffice-api/internal/apperrors"
	"backoffice-api/internal/model"
	"backoffice-api/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type CategoryServiceSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Store
	events *eventRecorder
	svc    CategoryService
}

func TestCategoryService(t *testing.T) {
	suite.Run(t, new(CategoryServiceSuite))
}

func (s *CategoryServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.events = &eventRecorder{}
	s.svc = NewCategoryService(s.store, s.events)
}

func (s *CategoryServiceSuite) electronics() *model.Category {
	root, err := s.svc.CreateCategory(s.ctx, CategorySpec{
		CategoryName: "Electronics",
		Subcategories: []CategorySpec{
			{CategoryName: "Phones", Subcategories: []CategorySpec{{CategoryName: "Android"}}},
			{CategoryName: "Laptops"},
		},
	}, tester)
	s.Require().NoError(err)
	return root
}

func (s *CategoryServiceSuite) TestCreateCategory_BuildsSubtree() {
	root := s.electronics()

	s.Equal(0, root.Level)
	s.Equal(model.CategoryParent, root.CategoryType)
	s.Empty(root.AncestryPath)
	s.Nil(root.ParentCategory)
	s.Equal("u-1", root.CreatedBy)
	s.Require().Len(root.Subcategories, 2)

	phones := root.Subcategories[0]
	s.Equal("Phones", phones.CategoryName)
	s.Equal(1, phones.Level)
	s.Equal(model.CategorySubcategory, phones.CategoryType)
	s.Equal(root.ID, *phones.ParentCategory)
	s.Equal([]uuid.UUID{root.ID}, []uuid.UUID(phones.AncestryPath))

	s.Require().Len(phones.Subcategories, 1)
	android := phones.Subcategories[0]
	s.Equal(2, android.Level)
	s.Equal(model.CategorySubSubcategory, android.CategoryType)
	s.Equal([]uuid.UUID{root.ID, phones.ID}, []uuid.UUID(android.AncestryPath))

	s.Equal([]string{"category_created"}, s.events.actions())
}

func (s *CategoryServiceSuite) TestCreateCategory_RejectsExistingName() {
	s.electronics()

	_, err := s.svc.CreateCategory(s.ctx, CategorySpec{
		CategoryName:  "Accessories",
		Subcategories: []CategorySpec{{CategoryName: "Laptops"}},
	}, tester)
	s.ErrorIs(err, apperrors.ErrDuplicate)

	all, err := s.store.Categories().FindAll(s.ctx, false)
	s.Require().NoError(err)
	s.Len(all, 4)
}

func (s *CategoryServiceSuite) TestCreateCategory_RejectsNameRepeatedInRequest() {
	_, err := s.svc.CreateCategory(s.ctx, CategorySpec{
		CategoryName: "Lighting",
		Subcategories: []CategorySpec{
			{CategoryName: "Lamps", Subcategories: []CategorySpec{{CategoryName: "Bulbs"}}},
			{CategoryName: "Bulbs"},
		},
	}, tester)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *CategoryServiceSuite) TestCreateCategory_RejectsFourthLevel() {
	_, err := s.svc.CreateCategory(s.ctx, CategorySpec{
		CategoryName: "Level0",
		Subcategories: []CategorySpec{{
			CategoryName: "Level1",
			Subcategories: []CategorySpec{{
				CategoryName:  "Level2",
				Subcategories: []CategorySpec{{CategoryName: "Level3"}},
			}},
		}},
	}, tester)
	s.ErrorIs(err, apperrors.ErrMaxDepthExceeded)

	all, _ := s.store.Categories().FindAll(s.ctx, false)
	s.Empty(all)
}

func (s *CategoryServiceSuite) TestCreateCategory_ValidatesName() {
	_, err := s.svc.CreateCategory(s.ctx, CategorySpec{CategoryName: "  x  "}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *CategoryServiceSuite) TestCreateBulk_ReportsPerEntryErrors() {
	result, err := s.svc.CreateBulk(s.ctx, []CategorySpec{
		{CategoryName: "Paint"},
		{CategoryName: "Paint"},
		{CategoryName: "Plumbing", Subcategories: []CategorySpec{{CategoryName: "Pipes"}}},
	}, tester)
	s.Require().NoError(err)

	s.Len(result.Created, 2)
	s.Require().Len(result.Errors, 1)
	s.Equal(1, result.Errors[0].Index)
	s.Equal("Paint", result.Errors[0].CategoryName)
}

func (s *CategoryServiceSuite) TestAddChildren() {
	root := s.electronics()
	android := root.Subcategories[0].Subcategories[0]

	created, err := s.svc.AddChildren(s.ctx, root.ID, []CategorySpec{
		{CategoryName: "Cameras", Subcategories: []CategorySpec{{CategoryName: "Lenses"}}},
	}, tester)
	s.Require().NoError(err)
	s.Require().Len(created, 1)
	s.Equal(1, created[0].Level)
	s.Require().Len(created[0].Subcategories, 1)
	s.Equal([]uuid.UUID{root.ID, created[0].ID}, []uuid.UUID(created[0].Subcategories[0].AncestryPath))

	_, err = s.svc.AddChildren(s.ctx, android.ID, []CategorySpec{{CategoryName: "Pixel"}}, tester)
	s.ErrorIs(err, apperrors.ErrMaxDepthExceeded)

	_, err = s.svc.AddChildren(s.ctx, uuid.New(), []CategorySpec{{CategoryName: "Orphan"}}, tester)
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.svc.AddChildren(s.ctx, root.ID, []CategorySpec{{CategoryName: "Drones"}, {CategoryName: "Phones"}}, tester)
	s.ErrorIs(err, apperrors.ErrDuplicate)
	exists, _ := s.store.Categories().NameExists(s.ctx, "Drones", nil)
	s.False(exists, "a failed call must not leave partial children")
}

func (s *CategoryServiceSuite) TestRename() {
	root := s.electronics()

	name := "Electronics"
	desc := "Gadgets"
	updated, err := s.svc.Rename(s.ctx, root.ID, UpdateCategoryRequest{CategoryName: &name, Description: &desc}, tester)
	s.Require().NoError(err)
	s.Equal("Gadgets", updated.Description)

	taken := "Laptops"
	_, err = s.svc.Rename(s.ctx, root.ID, UpdateCategoryRequest{CategoryName: &taken}, tester)
	s.ErrorIs(err, apperrors.ErrDuplicate)

	short := "E"
	_, err = s.svc.Rename(s.ctx, root.ID, UpdateCategoryRequest{CategoryName: &short}, tester)
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.svc.Rename(s.ctx, uuid.New(), UpdateCategoryRequest{Description: &desc}, tester)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *CategoryServiceSuite) TestDeleteCategory_Cascades() {
	root := s.electronics()
	phones := root.Subcategories[0]
	android := phones.Subcategories[0]

	product := &model.Product{
		ProductName: "Pixel 9",
		Code:        "PX9",
		Category:    model.ProductCategory{MainCategory: &root.ID, SubCategory: &phones.ID, SubSubCategory: &android.ID},
	}
	s.Require().NoError(s.store.Products().Create(s.ctx, product))

	result, err := s.svc.DeleteCategory(s.ctx, root.ID, tester)
	s.Require().NoError(err)
	s.Len(result.DeletedIDs, 4)
	s.Equal(int64(1), result.ProductsUpdated)

	all, err := s.store.Categories().FindAll(s.ctx, false)
	s.Require().NoError(err)
	s.Empty(all)

	p, err := s.store.Products().FindByID(s.ctx, product.ID)
	s.Require().NoError(err)
	s.Empty(p.Category.References())

	s.Equal("category_deleted", s.events.actions()[len(s.events.actions())-1])
}

func (s *CategoryServiceSuite) TestDeleteCategory_LeavesSiblings() {
	root := s.electronics()
	phones := root.Subcategories[0]

	_, err := s.svc.DeleteCategory(s.ctx, phones.ID, tester)
	s.Require().NoError(err)

	tree, err := s.svc.ListTree(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(tree, 1)
	s.Require().Len(tree[0].Subcategories, 1)
	s.Equal("Laptops", tree[0].Subcategories[0].CategoryName)

	_, err = s.svc.DeleteCategory(s.ctx, phones.ID, tester)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *CategoryServiceSuite) TestListTree_SortedAndActiveOnly() {
	root := s.electronics()
	_, err := s.svc.CreateCategory(s.ctx, CategorySpec{CategoryName: "Books"}, tester)
	s.Require().NoError(err)

	inactive := false
	_, err = s.svc.Rename(s.ctx, root.Subcategories[1].ID, UpdateCategoryRequest{IsActive: &inactive}, tester)
	s.Require().NoError(err)

	tree, err := s.svc.ListTree(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(tree, 2)
	s.Equal("Books", tree[0].CategoryName)
	s.Equal("Electronics", tree[1].CategoryName)
	s.Require().Len(tree[1].Subcategories, 1)
	s.Equal("Phones", tree[1].Subcategories[0].CategoryName)
	s.Len(tree[1].Subcategories[0].Subcategories, 1)
}

func (s *CategoryServiceSuite) TestListByParent_CountsChildren() {
	root := s.electronics()

	children, err := s.svc.ListByParent(s.ctx, root.ID)
	s.Require().NoError(err)
	s.Require().Len(children, 2)
	s.Equal("Laptops", children[0].CategoryName)
	s.Equal(int64(0), *children[0].ChildCount)
	s.Equal("Phones", children[1].CategoryName)
	s.Equal(int64(1), *children[1].ChildCount)

	_, err = s.svc.ListByParent(s.ctx, uuid.New())
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *CategoryServiceSuite) TestListParentsAndDropdown() {
	root := s.electronics()
	s.Require().NoError(s.store.Products().Create(s.ctx, &model.Product{
		ProductName: "USB cable",
		Code:        "USB-1",
		Category:    model.ProductCategory{MainCategory: &root.ID},
	}))

	parents, err := s.svc.ListParents(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(parents, 1)
	s.Equal(int64(1), *parents[0].ProductCount)
	s.Equal(int64(2), *parents[0].SubcategoriesCount)

	options, err := s.svc.Dropdown(s.ctx)
	s.Require().NoError(err)
	s.Len(options, 4)
	s.Equal("Android", options[0].Name)
}

func (s *CategoryServiceSuite) TestGetCategory() {
	root := s.electronics()

	got, err := s.svc.GetCategory(s.ctx, root.Subcategories[0].ID)
	s.Require().NoError(err)
	s.Equal("Phones", got.CategoryName)
	s.Require().Len(got.Subcategories, 1)
	s.Equal("Android", got.Subcategories[0].CategoryName)
}
