package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mitodev/mito/models"
	"github.com/mitodev/mito/tasks"
	"github.com/mitodev/mito/utils"
)

// postOrderFields is the allowlist for the ordering query parameter.
var postOrderFields = map[string]bool{
	"id":         true,
	"title":      true,
	"created_at": true,
	"updated_at": true,
}

// PostController manages CRUD operations for posts.
type PostController struct {
	db     *gorm.DB
	broker tasks.Enqueuer
}

// NewPostController creates a PostController. broker may be nil, in which
// case no background task is fired on creation.
func NewPostController(db *gorm.DB, broker tasks.Enqueuer) *PostController {
	return &PostController{db: db, broker: broker}
}

// PostData is the wire representation of a post: author as username, category
// as name, tags as a list of names.
type PostData struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Category  *string   `json:"category"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type postRequest struct {
	Title    string   `json:"title" binding:"required,max=255"`
	Content  string   `json:"content" binding:"required"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func postData(post models.Post) PostData {
	data := PostData{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Author:    post.Author.Username,
		Tags:      make([]string, 0, len(post.Tags)),
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
	if post.Category != nil {
		data.Category = &post.Category.Name
	}
	for _, tag := range post.Tags {
		data.Tags = append(data.Tags, tag.Name)
	}
	return data
}

// parseOrdering validates a comma separated ordering expression against the
// allowlist and converts it to an ORDER BY clause. A leading '-' means
// descending.
func parseOrdering(raw string) (string, bool) {
	clauses := []string{}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		direction := "ASC"
		if strings.HasPrefix(field, "-") {
			direction = "DESC"
			field = field[1:]
		}
		if !postOrderFields[field] {
			return "", false
		}
		clauses = append(clauses, field+" "+direction)
	}
	if len(clauses) == 0 {
		return "", false
	}
	return strings.Join(clauses, ", "), true
}

// ListPosts godoc
// @Summary List posts
// @Description Paginated post list, orderable by id, title, created_at or updated_at
// @Tags posts
// @Produce json
// @Param page query int false "page number"
// @Param page_size query int false "items per page (max 100)"
// @Param ordering query string false "field name, '-' prefix for descending"
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Router /api/v1/posts [get]
func (p *PostController) ListPosts(ctx *gin.Context) {
	ordering := strings.TrimSpace(ctx.Query("ordering"))
	if ordering == "" {
		ordering = "-created_at"
	}
	orderBy, ok := parseOrdering(ordering)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, "invalid ordering field")
		return
	}

	page, pageSize := utils.ParsePageParams(ctx)

	var total int64
	if err := p.db.Model(&models.Post{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	var posts []models.Post
	err := p.db.Preload("Author").Preload("Category").Preload("Tags").
		Order(orderBy).
		Offset(utils.Offset(page, pageSize)).
		Limit(pageSize).
		Find(&posts).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	list := make([]PostData, 0, len(posts))
	for _, post := range posts {
		list = append(list, postData(post))
	}
	utils.Success(ctx, utils.NewPage(ctx, list, total, page, pageSize))
}

// CreatePost godoc
// @Summary Create a post
// @Description Creates a post for the authenticated user; named tags and category are created on demand
// @Tags posts
// @Accept json
// @Produce json
// @Param post body postRequest true "post fields"
// @Security BearerAuth
// @Success 201 {object} utils.JSONResponse
// @Router /api/v1/posts [post]
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ErrorData(ctx, http.StatusBadRequest, "Invalid data", bindingErrors(err))
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.ErrorData(ctx, http.StatusBadRequest, "Invalid data",
			gin.H{"title": []string{"This field is required."}})
		return
	}
	content := utils.Sanitize(req.Content)

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	post := models.Post{
		Title:    title,
		Content:  content,
		AuthorID: userID,
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if name := strings.TrimSpace(req.Category); name != "" {
			category, err := getOrCreateCategory(tx, name)
			if err != nil {
				return err
			}
			post.CategoryID = &category.ID
		}
		for _, name := range utils.UniqueStrings(req.Tags) {
			tag, err := getOrCreateTag(tx, name)
			if err != nil {
				return err
			}
			post.Tags = append(post.Tags, tag)
		}
		return tx.Create(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := p.preloadPost(&post, post.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	if p.broker != nil {
		p.broker.PostCreated(post.ID)
	}

	utils.Created(ctx, "Post created successfully", postData(post))
}

// GetPost godoc
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "post id"
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Failure 404 {object} utils.JSONResponse
// @Router /api/v1/posts/{id} [get]
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, "Post not found")
		return
	}

	var post models.Post
	if err := p.preloadPost(&post, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.SuccessMsg(ctx, "Post retrieved successfully", postData(post))
}

// UpdatePost godoc
// @Summary Update a post
// @Description Full update of title, content, category and tags; the author never changes
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "post id"
// @Param post body postRequest true "post fields"
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Failure 404 {object} utils.JSONResponse
// @Router /api/v1/posts/{id} [put]
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, "Post not found")
		return
	}

	var post models.Post
	if err := p.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ErrorData(ctx, http.StatusBadRequest, "Invalid data", bindingErrors(err))
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.ErrorData(ctx, http.StatusBadRequest, "Invalid data",
			gin.H{"title": []string{"This field is required."}})
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		post.Title = title
		post.Content = utils.Sanitize(req.Content)

		post.CategoryID = nil
		if name := strings.TrimSpace(req.Category); name != "" {
			category, err := getOrCreateCategory(tx, name)
			if err != nil {
				return err
			}
			post.CategoryID = &category.ID
		}

		newTags := make([]models.Tag, 0, len(req.Tags))
		for _, name := range utils.UniqueStrings(req.Tags) {
			tag, err := getOrCreateTag(tx, name)
			if err != nil {
				return err
			}
			newTags = append(newTags, tag)
		}
		if err := tx.Model(&post).Association("Tags").Replace(newTags); err != nil {
			return err
		}

		return tx.Model(&post).Select("title", "content", "category_id").
			Updates(map[string]interface{}{
				"title":       post.Title,
				"content":     post.Content,
				"category_id": post.CategoryID,
			}).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := p.preloadPost(&post, post.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.SuccessMsg(ctx, "Post updated successfully", postData(post))
}

// DeletePost godoc
// @Summary Delete a post
// @Description Hard delete; a repeated delete of the same id returns 404
// @Tags posts
// @Produce json
// @Param id path int true "post id"
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Failure 404 {object} utils.JSONResponse
// @Router /api/v1/posts/{id} [delete]
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, "Post not found")
		return
	}

	var post models.Post
	if err := p.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.SuccessMsg(ctx, "Post deleted successfully", gin.H{})
}

func (p *PostController) preloadPost(post *models.Post, id uint) error {
	return p.db.Preload("Author").Preload("Category").Preload("Tags").
		First(post, id).Error
}

// getOrCreateTag resolves a tag by name, inserting it when absent. A lost
// race against a concurrent insert falls back to re-reading the winner row,
// which the unique index on name guarantees to exist.
func getOrCreateTag(tx *gorm.DB, name string) (models.Tag, error) {
	var tag models.Tag
	err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error
	if err == nil {
		return tag, nil
	}
	if retryErr := tx.Where("name = ?", name).First(&tag).Error; retryErr == nil {
		return tag, nil
	}
	return tag, err
}

// getOrCreateCategory mirrors getOrCreateTag for categories.
func getOrCreateCategory(tx *gorm.DB, name string) (models.Category, error) {
	var category models.Category
	err := tx.Where(models.Category{Name: name}).FirstOrCreate(&category).Error
	if err == nil {
		return category, nil
	}
	if retryErr := tx.Where("name = ?", name).First(&category).Error; retryErr == nil {
		return category, nil
	}
	return category, err
}
