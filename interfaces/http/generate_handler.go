package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"flowfarm/domain/dto"
	"flowfarm/usecase"
)

// maxUploadBytes bounds anchor image uploads (the provider rejects larger).
const maxUploadBytes = 20 << 20

type IGenerateHandler interface {
	Generate(ctx *gin.Context)
	GenerateChain(ctx *gin.Context)
	CheckStatus(ctx *gin.Context)
	GetResult(ctx *gin.Context)
	UploadImage(ctx *gin.Context)
}

type GenerateHandler struct {
	genUsecase usecase.IGenerationUsecase
}

func NewGenerateHandler(uc usecase.IGenerationUsecase) IGenerateHandler {
	return &GenerateHandler{genUsecase: uc}
}

func (h *GenerateHandler) Generate(ctx *gin.Context) {
	var req dto.GenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
		return
	}
	result, err := h.genUsecase.Generate(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.OK(result))
}

func (h *GenerateHandler) GenerateChain(ctx *gin.Context) {
	var req dto.ChainRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
		return
	}
	results, err := h.genUsecase.GenerateChain(ctx.Request.Context(), req)
	if err != nil {
		// Partial chains are still useful: surface completed steps alongside
		// the failure, with the same status and flag mapping as elsewhere.
		status, res := errorResponse(err)
		res.Data = results
		ctx.JSON(status, res)
		return
	}
	ctx.JSON(http.StatusOK, dto.OK(results))
}

func (h *GenerateHandler) CheckStatus(ctx *gin.Context) {
	var req dto.StatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
		return
	}
	ops, err := h.genUsecase.CheckStatus(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.OK(ops))
}

func (h *GenerateHandler) GetResult(ctx *gin.Context) {
	jobID := ctx.Param("jobId")
	result, ok := h.genUsecase.Result(ctx.Request.Context(), jobID)
	if !ok {
		ctx.JSON(http.StatusNotFound, dto.Fail("no result for job "+jobID))
		return
	}
	ctx.JSON(http.StatusOK, dto.OK(result))
}

// UploadImage accepts a raw image body and returns the provider media id
// usable as a START_END anchor.
func (h *GenerateHandler) UploadImage(ctx *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxUploadBytes))
	if err != nil || len(data) == 0 {
		ctx.JSON(http.StatusBadRequest, dto.Fail("empty or unreadable image body"))
		return
	}
	mimeType := ctx.ContentType()
	if mimeType == "" {
		mimeType = "image/png"
	}
	mediaID, err := h.genUsecase.UploadImage(ctx.Request.Context(), ctx.Query("lane"), data, mimeType)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.OK(gin.H{"media_id": mediaID}))
}
