package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ProductCategory points a product at up to one category per tree level.
// MainCategory is required on create but is cleared when the category is deleted.
type ProductCategory struct {
	MainCategory   *uuid.UUID `gorm:"type:uuid;index" json:"mainCategory" bson:"mainCategory"`
	SubCategory    *uuid.UUID `gorm:"type:uuid;index" json:"subCategory" bson:"subCategory"`
	SubSubCategory *uuid.UUID `gorm:"type:uuid;index" json:"subSubCategory" bson:"subSubCategory"`
}

// References returns the non-empty category ids of the product.
func (pc ProductCategory) References() []uuid.UUID {
	var ids []uuid.UUID
	for _, id := range []*uuid.UUID{pc.MainCategory, pc.SubCategory, pc.SubSubCategory} {
		if id != nil {
			ids = append(ids, *id)
		}
	}
	return ids
}

type Product struct {
	BaseModel      `bson:",inline"`
	ProductName    string                      `gorm:"type:varchar(255);not null" json:"productName" bson:"productName"`
	Code           string                      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code" bson:"code"`
	Category       ProductCategory             `gorm:"embedded;embeddedPrefix:category_" json:"category" bson:"category"`
	Price          decimal.Decimal             `gorm:"type:numeric(14,2);not null;default:0" json:"price" bson:"price"`
	Quantity       decimal.Decimal             `gorm:"type:numeric(14,3);not null;default:0" json:"quantity" bson:"quantity"`
	Unit           string                      `gorm:"type:varchar(20)" json:"unit" bson:"unit"`
	Description    string                      `json:"description" bson:"description"`
	ProductImage   string                      `gorm:"type:varchar(255)" json:"productImage" bson:"productImage"`
	ProductGallery datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"productGallery" bson:"productGallery"`
	IsActive       bool                        `gorm:"not null;default:true" json:"isActive" bson:"isActive"`

	// Read model only
	ProductImageURL    string   `gorm:"-" json:"productImageUrl,omitempty" bson:"-"`
	ProductGalleryURLs []string `gorm:"-" json:"productGalleryUrls,omitempty" bson:"-"`
}

// Assets lists every stored file the product references.
func (p *Product) Assets() []string {
	var files []string
	if p.ProductImage != "" {
		files = append(files, p.ProductImage)
	}
	for _, f := range p.ProductGallery {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}
