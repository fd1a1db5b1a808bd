package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flowfarm/domain/dto"
	"flowfarm/usecase"
)

type ISceneHandler interface {
	AppendClip(ctx *gin.Context)
	GetClips(ctx *gin.Context)
}

type SceneHandler struct {
	genUsecase usecase.IGenerationUsecase
}

func NewSceneHandler(uc usecase.IGenerationUsecase) ISceneHandler {
	return &SceneHandler{genUsecase: uc}
}

// AppendClip appends a completed media as the scene's next clip and returns
// the full updated clip list.
func (h *SceneHandler) AppendClip(ctx *gin.Context) {
	sceneID := ctx.Param("sceneId")
	var req dto.AppendClipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
		return
	}
	clips, err := h.genUsecase.AppendClip(ctx.Request.Context(), sceneID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.OK(gin.H{"scene_id": sceneID, "clips": clips}))
}

func (h *SceneHandler) GetClips(ctx *gin.Context) {
	sceneID := ctx.Param("sceneId")
	projectID := ctx.Query("project_id")
	if projectID == "" {
		ctx.JSON(http.StatusBadRequest, dto.Fail("project_id query parameter required"))
		return
	}
	clips, err := h.genUsecase.SceneClips(ctx.Request.Context(), sceneID, projectID, ctx.Query("lane"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.OK(gin.H{"scene_id": sceneID, "clips": clips}))
}
