package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mitodev/mito/models"
	"github.com/mitodev/mito/utils"
)

// CategoryController manages post categories.
type CategoryController struct {
	db *gorm.DB
}

func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required,max=64"`
	Description string `json:"description"`
}

// CategoryData is the wire representation of a category.
type CategoryData struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func categoryData(category models.Category) CategoryData {
	return CategoryData{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
	}
}

// ListCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Router /api/v1/categories [get]
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	var categories []models.Category
	if err := c.db.Order("id ASC").Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	list := make([]CategoryData, 0, len(categories))
	for _, category := range categories {
		list = append(list, categoryData(category))
	}
	utils.SuccessMsg(ctx, "Categories retrieved successfully", list)
}

// CreateCategory godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body categoryRequest true "category fields"
// @Security BearerAuth
// @Success 201 {object} utils.JSONResponse
// @Router /api/v1/categories [post]
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ErrorData(ctx, http.StatusBadRequest, "Invalid data", bindingErrors(err))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.ErrorData(ctx, http.StatusBadRequest, "Invalid data",
			gin.H{"name": []string{"This field is required."}})
		return
	}

	category, err := getOrCreateCategory(c.db, name)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	if desc := strings.TrimSpace(req.Description); desc != "" && desc != category.Description {
		category.Description = desc
		if err := c.db.Model(&category).Update("description", desc).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
			return
		}
	}
	utils.Created(ctx, "Category created successfully", categoryData(category))
}

// GetCategory godoc
// @Summary Get a category
// @Tags categories
// @Produce json
// @Param id path int true "category id"
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Failure 404 {object} utils.JSONResponse
// @Router /api/v1/categories/{id} [get]
func (c *CategoryController) GetCategory(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, "Category not found")
		return
	}

	var category models.Category
	if err := c.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.SuccessMsg(ctx, "Category retrieved successfully", categoryData(category))
}

// UpdateCategory godoc
// @Summary Update a category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path int true "category id"
// @Param category body categoryRequest true "category fields"
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Failure 404 {object} utils.JSONResponse
// @Failure 409 {object} utils.JSONResponse
// @Router /api/v1/categories/{id} [put]
func (c *CategoryController) UpdateCategory(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, "Category not found")
		return
	}

	var category models.Category
	if err := c.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ErrorData(ctx, http.StatusBadRequest, "Invalid data", bindingErrors(err))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.ErrorData(ctx, http.StatusBadRequest, "Invalid data",
			gin.H{"name": []string{"This field is required."}})
		return
	}
	description := strings.TrimSpace(req.Description)

	err := c.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Where("name = ? AND id <> ?", name, category.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errNameTaken
		}
		return tx.Model(&category).Select("name", "description").
			Updates(map[string]interface{}{
				"name":        name,
				"description": description,
			}).Error
	})
	if errors.Is(err, errNameTaken) {
		utils.ErrorData(ctx, http.StatusConflict, "Invalid data",
			gin.H{"name": []string{"A category with this name already exists."}})
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	category.Name = name
	category.Description = description
	utils.SuccessMsg(ctx, "Category updated successfully", categoryData(category))
}

// DeleteCategory godoc
// @Summary Delete a category
// @Description Posts in the category are kept and left uncategorized
// @Tags categories
// @Produce json
// @Param id path int true "category id"
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Failure 404 {object} utils.JSONResponse
// @Router /api/v1/categories/{id} [delete]
func (c *CategoryController) DeleteCategory(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, "Category not found")
		return
	}

	var category models.Category
	if err := c.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.SuccessMsg(ctx, "Category deleted successfully", gin.H{})
}
