package handler

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/upload"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxProductFormSize = 32 << 20 // 32MB

type ProductHandler struct {
	catalogService service.ICatalogService
	uploader       upload.ImageUploader
	logger         zerolog.Logger
}

func NewProductHandler(catalogService service.ICatalogService, uploader upload.ImageUploader, logger zerolog.Logger) *ProductHandler {
	if catalogService == nil {
		panic("catalogService cannot be nil")
	}
	return &ProductHandler{
		catalogService: catalogService,
		uploader:       uploader,
		logger:         logger,
	}
}

// uploadFiles 逐一上傳 multipart 檔案並回傳 URL
func (h *ProductHandler) uploadFiles(r *http.Request, headers []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		url, err := h.uploader.Upload(r.Context(), f, fh.Filename)
		f.Close()
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// collectImages 表單檔案欄位: "images" 是通用圖，"color_<顏色>" 是該顏色專屬圖
func (h *ProductHandler) collectImages(r *http.Request) (images []string, colorImages map[string][]string, err error) {
	colorImages = map[string][]string{}
	if r.MultipartForm == nil {
		return nil, colorImages, nil
	}

	for field, headers := range r.MultipartForm.File {
		urls, uploadErr := h.uploadFiles(r, headers)
		if uploadErr != nil {
			return nil, nil, uploadErr
		}

		switch {
		case field == "images":
			images = append(images, urls...)
		case strings.HasPrefix(field, "color_"):
			color := strings.TrimPrefix(field, "color_")
			colorImages[color] = append(colorImages[color], urls...)
		}
	}
	return images, colorImages, nil
}

func parseVariants(raw string) ([]model.ProductVariant, error) {
	if raw == "" {
		return nil, nil
	}
	var dtos []dto.VariantDTO
	if err := json.Unmarshal([]byte(raw), &dtos); err != nil {
		return nil, err
	}
	variants := make([]model.ProductVariant, 0, len(dtos))
	for _, v := range dtos {
		variants = append(variants, model.ProductVariant{
			Size:  v.Size,
			Color: v.Color,
			Stock: v.Stock,
			Price: v.Price,
			Cost:  v.Cost,
		})
	}
	return variants, nil
}

func parseStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

func (h *ProductHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxProductFormSize); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	variants, err := parseVariants(r.FormValue("variants"))
	if err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	images, colorImages, err := h.collectImages(r)
	if err != nil {
		h.logger.Error().Err(err).Msg("image upload failed")
		api.ErrorJSON(w, msgInternalError)
		return
	}

	product, err := h.catalogService.AddProduct(r.Context(), service.AddProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
		SubCategory: r.FormValue("subCategory"),
		Bestseller:  r.FormValue("bestseller") == "true",
		Sizes:       parseStringList(r.FormValue("sizes")),
		Colors:      parseStringList(r.FormValue("colors")),
		ColorImages: colorImages,
		Images:      images,
		Variants:    variants,
	})
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{
		"message": "Thêm sản phẩm thành công",
		"product": product,
	})
}

func (h *ProductHandler) EditProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxProductFormSize); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	productID, err := strconv.ParseUint(r.FormValue("productId"), 10, 64)
	if err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	input := service.EditProductInput{}

	// 只有表單帶了的欄位才更新
	formValue := func(key string) (string, bool) {
		if r.MultipartForm == nil {
			return "", false
		}
		vals, ok := r.MultipartForm.Value[key]
		if !ok || len(vals) == 0 {
			return "", false
		}
		return vals[0], true
	}

	if v, ok := formValue("name"); ok {
		input.Name = &v
	}
	if v, ok := formValue("description"); ok {
		input.Description = &v
	}
	if v, ok := formValue("price"); ok {
		price, err := decimal.NewFromString(v)
		if err != nil {
			api.ErrorJSON(w, msgInvalidRequest)
			return
		}
		input.Price = &price
	}
	if v, ok := formValue("category"); ok {
		input.Category = &v
	}
	if v, ok := formValue("subCategory"); ok {
		input.SubCategory = &v
	}
	if v, ok := formValue("bestseller"); ok {
		b := v == "true"
		input.Bestseller = &b
	}
	if v, ok := formValue("sizes"); ok {
		input.Sizes = parseStringList(v)
	}
	if v, ok := formValue("colors"); ok {
		input.Colors = parseStringList(v)
	}
	if v, ok := formValue("variants"); ok {
		variants, err := parseVariants(v)
		if err != nil {
			api.ErrorJSON(w, msgInvalidRequest)
			return
		}
		input.Variants = variants
	}

	images, colorImages, err := h.collectImages(r)
	if err != nil {
		h.logger.Error().Err(err).Msg("image upload failed")
		api.ErrorJSON(w, msgInternalError)
		return
	}
	input.Images = images
	if len(colorImages) > 0 {
		input.ColorImages = colorImages
	}

	product, err := h.catalogService.EditProduct(r.Context(), uint(productID), input)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{
		"message": "Cập nhật sản phẩm thành công",
		"product": product,
	})
}

func (h *ProductHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductIDDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	if err := h.catalogService.RemoveProduct(r.Context(), req.ProductID); err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessMsgJSON(w, "Xóa sản phẩm thành công")
}

func (h *ProductHandler) SingleProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductIDDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{"product": product})
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.ListProducts(r.Context())
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{"products": products})
}

func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var req dto.SearchProductsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	products, err := h.catalogService.SearchProducts(r.Context(), req.Name, req.Category)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{"products": products})
}

// Restock 批次補貨，逐項回報結果，不合法的項目跳過不影響其他項
func (h *ProductHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req dto.RestockProductDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ErrorJSON(w, msgInvalidRequest)
		return
	}

	items := make([]service.RestockItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.RestockItem{
			Size:     it.Size,
			Color:    it.Color,
			Quantity: it.Quantity,
		})
	}

	results, err := h.catalogService.Restock(r.Context(), req.ProductID, items)
	if err != nil {
		api.ErrorJSON(w, messageFor(err))
		return
	}

	api.SuccessJSON(w, map[string]any{"results": results})
}
