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

// TagController manages the tag vocabulary shared by posts.
type TagController struct {
	db *gorm.DB
}

func NewTagController(db *gorm.DB) *TagController {
	return &TagController{db: db}
}

type tagRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

// TagData is the wire representation of a tag.
type TagData struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func tagData(tag models.Tag) TagData {
	return TagData{ID: tag.ID, Name: tag.Name}
}

// ListTags godoc
// @Summary List tags
// @Tags tags
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Router /api/v1/tags [get]
func (t *TagController) ListTags(ctx *gin.Context) {
	var tags []models.Tag
	if err := t.db.Order("id ASC").Find(&tags).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	list := make([]TagData, 0, len(tags))
	for _, tag := range tags {
		list = append(list, tagData(tag))
	}
	utils.SuccessMsg(ctx, "Tags retrieved successfully", list)
}

// CreateTag godoc
// @Summary Create a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param tag body tagRequest true "tag fields"
// @Security BearerAuth
// @Success 201 {object} utils.JSONResponse
// @Router /api/v1/tags [post]
func (t *TagController) CreateTag(ctx *gin.Context) {
	var req tagRequest
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

	tag, err := getOrCreateTag(t.db, name)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.Created(ctx, "Tag created successfully", tagData(tag))
}

// GetTag godoc
// @Summary Get a tag
// @Tags tags
// @Produce json
// @Param id path int true "tag id"
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Failure 404 {object} utils.JSONResponse
// @Router /api/v1/tags/{id} [get]
func (t *TagController) GetTag(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, "Tag not found")
		return
	}

	var tag models.Tag
	if err := t.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Tag not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.SuccessMsg(ctx, "Tag retrieved successfully", tagData(tag))
}

// UpdateTag godoc
// @Summary Rename a tag
// @Tags tags
// @Accept json
// @Produce json
// @Param id path int true "tag id"
// @Param tag body tagRequest true "tag fields"
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Failure 404 {object} utils.JSONResponse
// @Failure 409 {object} utils.JSONResponse
// @Router /api/v1/tags/{id} [put]
func (t *TagController) UpdateTag(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, "Tag not found")
		return
	}

	var tag models.Tag
	if err := t.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Tag not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req tagRequest
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

	err := t.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Tag{}).Where("name = ? AND id <> ?", name, tag.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errNameTaken
		}
		return tx.Model(&tag).Update("name", name).Error
	})
	if errors.Is(err, errNameTaken) {
		utils.ErrorData(ctx, http.StatusConflict, "Invalid data",
			gin.H{"name": []string{"A tag with this name already exists."}})
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	tag.Name = name
	utils.SuccessMsg(ctx, "Tag updated successfully", tagData(tag))
}

// DeleteTag godoc
// @Summary Delete a tag
// @Description Removes the tag and detaches it from every post
// @Tags tags
// @Produce json
// @Param id path int true "tag id"
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Failure 404 {object} utils.JSONResponse
// @Router /api/v1/tags/{id} [delete]
func (t *TagController) DeleteTag(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, "Tag not found")
		return
	}

	var tag models.Tag
	if err := t.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Tag not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	err := t.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.SuccessMsg(ctx, "Tag deleted successfully", gin.H{})
}
