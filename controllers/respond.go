package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quillhq/quill/utils"
	"github.com/quillhq/quill/workflow"
)

// workflowError maps a workflow error kind onto an HTTP status and API code,
// reusing the error's own message for everything but internal failures.
func workflowError(ctx *gin.Context, err error) {
	kind := workflow.KindOf(err)
	switch kind {
	case workflow.KindValidation:
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
	case workflow.KindUnauthenticated:
		utils.Error(ctx, http.StatusUnauthorized, 40100, err.Error())
	case workflow.KindForbidden:
		utils.Error(ctx, http.StatusForbidden, 40300, err.Error())
	case workflow.KindNotFound:
		utils.Error(ctx, http.StatusNotFound, 40400, err.Error())
	case workflow.KindConflict:
		utils.Error(ctx, http.StatusConflict, 40900, err.Error())
	case workflow.KindInvalidTransition:
		utils.Error(ctx, http.StatusConflict, 40910, err.Error())
	default:
		if utils.Sugar != nil {
			utils.Sugar.Errorf("request failed: %v", err)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}

func parsePagination(pageStr, sizeStr string) workflow.Pagination {
	pg := workflow.Pagination{Page: 1, PageSize: 10}
	if pageStr != "" {
		if p, err := atoiPositive(pageStr); err == nil {
			pg.Page = p
		}
	}
	if sizeStr != "" {
		if s, err := atoiPositive(sizeStr); err == nil && s <= 100 {
			pg.PageSize = s
		}
	}
	return pg
}

func atoiPositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errors.New("not positive")
	}
	return n, nil
}

func paginationPayload(pg workflow.Pagination, total int64) gin.H {
	pg = pg.Normalize()
	return gin.H{
		"page":        pg.Page,
		"page_size":   pg.PageSize,
		"total":       total,
		"total_pages": int((total + int64(pg.PageSize) - 1) / int64(pg.PageSize)),
	}
}
