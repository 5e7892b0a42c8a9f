package model

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ProductID   uint            `gorm:"primaryKey" json:"productId"`
	Name        string          `gorm:"not null;type:varchar(255)" json:"name"`
	Description string          `gorm:"not null;type:text" json:"description"`
	Price       decimal.Decimal `gorm:"not null;type:decimal(12,2)" json:"price"`
	Category    string          `gorm:"not null;type:varchar(100)" json:"category"`
	SubCategory string          `gorm:"not null;type:varchar(100)" json:"subCategory"`
	Bestseller  bool            `gorm:"not null;default:false" json:"bestseller"`

	// 尺寸/顏色清單保留給前端篩選用，實際庫存以 variants 為準
	Sizes  []string `gorm:"serializer:json;type:text" json:"sizes"`
	Colors []string `gorm:"serializer:json;type:text" json:"colors"`

	// 顏色對應圖片，例如 {"Black": [url1, url2]}
	ColorImages map[string][]string `gorm:"serializer:json;type:text" json:"colorImages"`
	// legacy 圖片清單，無 colorImages 時使用
	Images []string `gorm:"serializer:json;type:text" json:"image"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	BaseModel
}

// 每個 (size, color) 組合一筆，同一商品下組合唯一
type ProductVariant struct {
	VariantID uint   `gorm:"primaryKey" json:"variantId"`
	ProductID uint   `gorm:"not null;uniqueIndex:idx_variant_size_color" json:"productId"`
	Size      string `gorm:"not null;type:varchar(50);uniqueIndex:idx_variant_size_color" json:"size"`
	Color     string `gorm:"not null;type:varchar(50);uniqueIndex:idx_variant_size_color" json:"color"`
	Stock     uint   `gorm:"not null;default:0" json:"stock"`

	// 售價為 0 時回退到 Product.Price
	Price decimal.Decimal `gorm:"not null;type:decimal(12,2);default:0" json:"price"`
	Cost  decimal.Decimal `gorm:"not null;type:decimal(12,2);default:0" json:"cost"`
	BaseModel
}

// FindVariant 精確比對 size 與 color，不做模糊匹配
func (p *Product) FindVariant(size, color string) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].Size == size && p.Variants[i].Color == color {
			return &p.Variants[i]
		}
	}
	return nil
}

// ImagesForColor 回傳該顏色的圖片，沒有設定時回退到 legacy 圖片清單
func (p *Product) ImagesForColor(color string) []string {
	if imgs, ok := p.ColorImages[color]; ok && len(imgs) > 0 {
		return imgs
	}
	return p.Images
}

// ResolvePrice 變體售價，為 0 時回退到商品底價
func (v *ProductVariant) ResolvePrice(basePrice decimal.Decimal) decimal.Decimal {
	if v.Price.IsPositive() {
		return v.Price
	}
	return basePrice
}
