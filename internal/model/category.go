package model

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CategoryType string

const (
	CategoryParent         CategoryType = "parentcategory"
	CategorySubcategory    CategoryType = "subcategory"
	CategorySubSubcategory CategoryType = "sub-subcategory"
)

// MaxCategoryLevel is the deepest level a category may sit at (0-based).
const MaxCategoryLevel = 2

// CategoryTypeForLevel maps a tree level to its category type.
func CategoryTypeForLevel(level int) CategoryType {
	switch level {
	case 0:
		return CategoryParent
	case 1:
		return CategorySubcategory
	default:
		return CategorySubSubcategory
	}
}

// Category is a node of the three level product category tree. Children are
// found through their ParentCategory, the list of subcategories is never stored.
type Category struct {
	BaseModel      `bson:",inline"`
	CategoryName   string                         `gorm:"type:varchar(50);uniqueIndex;not null" json:"categoryName" bson:"categoryName"`
	Description    string                         `gorm:"type:varchar(500)" json:"description" bson:"description"`
	Level          int                            `gorm:"not null;default:0;index" json:"level" bson:"level"`
	CategoryType   CategoryType                   `gorm:"type:varchar(20);not null" json:"categoryType" bson:"categoryType"`
	ParentCategory *uuid.UUID                     `gorm:"type:uuid;index" json:"parentCategory" bson:"parentCategory"`
	AncestryPath   datatypes.JSONSlice[uuid.UUID] `gorm:"type:jsonb" json:"ancestryPath" bson:"ancestryPath"`
	IsActive       bool                           `gorm:"not null;default:true" json:"isActive" bson:"isActive"`

	// Read model only
	Subcategories      []Category `gorm:"-" json:"subcategories,omitempty" bson:"-"`
	ChildCount         *int64     `gorm:"-" json:"childCount,omitempty" bson:"-"`
	ProductCount       *int64     `gorm:"-" json:"productCount,omitempty" bson:"-"`
	SubcategoriesCount *int64     `gorm:"-" json:"subcategoriesCount,omitempty" bson:"-"`
}

// CategoryOption is the flat shape used by category pickers.
type CategoryOption struct {
	ID       uuid.UUID    `json:"_id"`
	Name     string       `json:"name"`
	Level    int          `json:"level"`
	Type     CategoryType `json:"type"`
	ParentID *uuid.UUID   `json:"parentId"`
}
