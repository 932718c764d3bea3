package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/quill/utils"
	"github.com/quillhq/quill/workflow"
)

// PublicController serves the unauthenticated read surface: published posts
// only, cached in Redis because this is what the blog frontend hammers.
type PublicController struct {
	svc *workflow.Service
}

// NewPublicController creates a PublicController.
func NewPublicController(svc *workflow.Service) *PublicController {
	return &PublicController{svc: svc}
}

const publicCachePrefix = "cache:public:posts:"

// cachedWrapper matches the standard response envelope so cache hits can be
// served byte-for-byte.
type cachedWrapper struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ListPublished returns published posts, newest publication first, with an
// optional free-text search over title and content.
func (p *PublicController) ListPublished(ctx *gin.Context) {
	pg := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))

	// Cache plain pages only; search terms would explode the key space.
	cacheKey := ""
	if search == "" {
		cacheKey = fmt.Sprintf("%slist:page=%d:size=%d", publicCachePrefix, pg.Page, pg.PageSize)
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	items, total, err := p.svc.ListPublished(ctx.Request.Context(), search, pg)
	if err != nil {
		workflowError(ctx, err)
		return
	}

	payload := gin.H{
		"items":      items,
		"pagination": paginationPayload(pg, total),
	}
	if cacheKey != "" {
		utils.CacheSetJSON(cacheKey, cachedWrapper{Code: 0, Message: "success", Data: payload}, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetPublishedBySlug returns a single published post; anything else is a 404.
func (p *PublicController) GetPublishedBySlug(ctx *gin.Context) {
	slug := strings.TrimSpace(ctx.Param("slug"))

	cacheKey := publicCachePrefix + "slug:" + slug
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	post, err := p.svc.GetPublishedBySlug(ctx.Request.Context(), slug)
	if err != nil {
		workflowError(ctx, err)
		return
	}

	payload := gin.H{"post": post}
	utils.CacheSetJSON(cacheKey, cachedWrapper{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// RecentPublished returns the latest published posts for sidebars and feeds.
func (p *PublicController) RecentPublished(ctx *gin.Context) {
	limit := 5
	if n, err := atoiPositive(ctx.Param("limit")); err == nil {
		limit = n
	}

	cacheKey := fmt.Sprintf("%srecent:limit=%d", publicCachePrefix, limit)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	posts, err := p.svc.RecentPublished(ctx.Request.Context(), limit)
	if err != nil {
		workflowError(ctx, err)
		return
	}

	payload := gin.H{"items": posts}
	utils.CacheSetJSON(cacheKey, cachedWrapper{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// invalidatePublicCaches drops every cached public page after a mutation;
// prefix invalidation covers list pages, slug details and recent feeds alike.
func invalidatePublicCaches() {
	utils.InvalidateByPrefix(publicCachePrefix)
}
