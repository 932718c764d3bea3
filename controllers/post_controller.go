package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/quill/middleware"
	"github.com/quillhq/quill/utils"
	"github.com/quillhq/quill/workflow"
)

// PostController owns the authenticated post lifecycle: create, draft,
// submit, edit, moderate and delete.
type PostController struct {
	svc *workflow.Service
}

// NewPostController creates a new PostController instance.
func NewPostController(svc *workflow.Service) *PostController {
	return &PostController{svc: svc}
}

type postRequest struct {
	Title      string `json:"title" binding:"required,min=1"`
	Content    string `json:"content" binding:"required"`
	Excerpt    string `json:"excerpt"`
	CoverImage string `json:"cover_image"`
}

func (r postRequest) toInput() workflow.PostInput {
	return workflow.PostInput{
		Title:      utils.SanitizeText(r.Title),
		Content:    utils.Sanitize(r.Content),
		Excerpt:    utils.SanitizeText(r.Excerpt),
		CoverImage: r.CoverImage,
	}
}

// CreatePost submits a new post for review (status PENDING).
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	post, err := p.svc.CreatePost(ctx.Request.Context(), middleware.CallerFrom(ctx), req.toInput())
	if err != nil {
		workflowError(ctx, err)
		return
	}

	invalidatePublicCaches()
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"post": post})
}

// SaveDraft stores a new post without submitting it for review.
func (p *PostController) SaveDraft(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request payload")
		return
	}

	post, err := p.svc.SaveDraft(ctx.Request.Context(), middleware.CallerFrom(ctx), req.toInput())
	if err != nil {
		workflowError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"post": post})
}

// SubmitPost moves a draft or rejected post back into review.
func (p *PostController) SubmitPost(ctx *gin.Context) {
	post, err := p.svc.SubmitPost(ctx.Request.Context(), middleware.CallerFrom(ctx), ctx.Param("id"))
	if err != nil {
		workflowError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// ListPosts returns posts visible to the caller, filtered and paginated.
func (p *PostController) ListPosts(ctx *gin.Context) {
	pg := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	filter := workflow.ListFilter{
		Status:   ctx.Query("status"),
		AuthorID: ctx.Query("author_id"),
		Search:   ctx.Query("search"),
	}

	items, total, err := p.svc.ListPosts(ctx.Request.Context(), middleware.CallerFrom(ctx), filter, pg)
	if err != nil {
		workflowError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"items":      items,
		"pagination": paginationPayload(pg, total),
	})
}

// GetPost returns a single post by id, if the caller may view it.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.svc.GetPost(ctx.Request.Context(), middleware.CallerFrom(ctx), ctx.Param("id"))
	if err != nil {
		workflowError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// GetPostBySlug returns a single post by slug, if the caller may view it.
func (p *PostController) GetPostBySlug(ctx *gin.Context) {
	post, err := p.svc.GetPostBySlug(ctx.Request.Context(), middleware.CallerFrom(ctx), ctx.Param("slug"))
	if err != nil {
		workflowError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost edits a post's fields; absent fields are left untouched.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title      *string `json:"title"`
		Content    *string `json:"content"`
		Excerpt    *string `json:"excerpt"`
		CoverImage *string `json:"cover_image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	update := workflow.PostUpdate{
		CoverImage: req.CoverImage,
	}
	if req.Title != nil {
		clean := utils.SanitizeText(*req.Title)
		update.Title = &clean
	}
	if req.Content != nil {
		clean := utils.Sanitize(*req.Content)
		update.Content = &clean
	}
	if req.Excerpt != nil {
		clean := utils.SanitizeText(*req.Excerpt)
		update.Excerpt = &clean
	}

	post, err := p.svc.UpdatePost(ctx.Request.Context(), middleware.CallerFrom(ctx), ctx.Param("id"), update)
	if err != nil {
		workflowError(ctx, err)
		return
	}

	invalidatePublicCaches()
	utils.Success(ctx, gin.H{"post": post})
}

// ApprovePost publishes a pending post (admin only).
func (p *PostController) ApprovePost(ctx *gin.Context) {
	post, err := p.svc.ApprovePost(ctx.Request.Context(), middleware.CallerFrom(ctx), ctx.Param("id"))
	if err != nil {
		workflowError(ctx, err)
		return
	}

	invalidatePublicCaches()
	utils.Success(ctx, gin.H{"post": post})
}

// RejectPost declines a pending post (admin only).
func (p *PostController) RejectPost(ctx *gin.Context) {
	post, err := p.svc.RejectPost(ctx.Request.Context(), middleware.CallerFrom(ctx), ctx.Param("id"))
	if err != nil {
		workflowError(ctx, err)
		return
	}

	invalidatePublicCaches()
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post for its author or an admin.
func (p *PostController) DeletePost(ctx *gin.Context) {
	if err := p.svc.DeletePost(ctx.Request.Context(), middleware.CallerFrom(ctx), ctx.Param("id")); err != nil {
		workflowError(ctx, err)
		return
	}

	invalidatePublicCaches()
	utils.Success(ctx, gin.H{"message": "post deleted"})
}
