package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flowfarm/domain/dto"
	"flowfarm/domain/model"
	"flowfarm/infrastructure/logger"
	"flowfarm/usecase"
)

type ILaneHandler interface {
	List(ctx *gin.Context)
	Get(ctx *gin.Context)
	Save(ctx *gin.Context)
	Delete(ctx *gin.Context)
	LoadPool(ctx *gin.Context)
	CaptureImport(ctx *gin.Context)
	CaptureCurrent(ctx *gin.Context)
	Refresh(ctx *gin.Context)
	Stats(ctx *gin.Context)
}

type LaneHandler struct {
	laneUsecase usecase.ILaneUsecase
}

func NewLaneHandler(uc usecase.ILaneUsecase) ILaneHandler {
	return &LaneHandler{laneUsecase: uc}
}

// redact strips credential material before a lane leaves the API.
func redact(lane model.Lane) model.Lane {
	lane.Cookies = ""
	lane.SessionToken = ""
	lane.BearerToken = ""
	return lane
}

func (h *LaneHandler) List(ctx *gin.Context) {
	lanes, err := h.laneUsecase.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	out := make([]model.Lane, len(lanes))
	for i, lane := range lanes {
		out[i] = redact(lane)
	}
	ctx.JSON(http.StatusOK, dto.OK(out))
}

func (h *LaneHandler) Get(ctx *gin.Context) {
	name := ctx.Param("name")
	lane, err := h.laneUsecase.Get(ctx.Request.Context(), name)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if lane == nil {
		ctx.JSON(http.StatusNotFound, dto.Fail("lane "+name+" not found"))
		return
	}
	ctx.JSON(http.StatusOK, dto.OK(redact(*lane)))
}

func (h *LaneHandler) Save(ctx *gin.Context) {
	var req dto.LaneSaveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
		return
	}
	lane, err := h.laneUsecase.Save(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	logger.GetLogger().WithField("lane", lane.Name).Info("Lane saved")
	ctx.JSON(http.StatusOK, dto.OK(redact(*lane)))
}

func (h *LaneHandler) Delete(ctx *gin.Context) {
	name := ctx.Param("name")
	if err := h.laneUsecase.Delete(ctx.Request.Context(), name); err != nil {
		ctx.JSON(http.StatusNotFound, dto.Fail(err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, dto.OK(gin.H{"deleted": name}))
}

func (h *LaneHandler) LoadPool(ctx *gin.Context) {
	var req dto.LoadPoolRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
		return
	}
	loaded, err := h.laneUsecase.LoadPool(ctx.Request.Context(), req.Names)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.OK(gin.H{"lanes": loaded}))
}

func (h *LaneHandler) CaptureImport(ctx *gin.Context) {
	var req dto.CaptureImportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.Fail("invalid request body"))
		return
	}
	lane, err := h.laneUsecase.CaptureImport(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	logger.GetLogger().WithField("lane", lane.Name).Info("Captured session imported")
	ctx.JSON(http.StatusOK, dto.OK(redact(*lane)))
}

// CaptureCurrent pulls credentials from the live browser session through the
// configured capture driver and stores them under the named lane.
func (h *LaneHandler) CaptureCurrent(ctx *gin.Context) {
	name := ctx.Param("name")
	lane, err := h.laneUsecase.CaptureCurrent(ctx.Request.Context(), name)
	if err != nil {
		respondError(ctx, err)
		return
	}
	logger.GetLogger().WithField("lane", lane.Name).Info("Lane seeded from live session")
	ctx.JSON(http.StatusOK, dto.OK(redact(*lane)))
}

func (h *LaneHandler) Refresh(ctx *gin.Context) {
	name := ctx.Param("name")
	lane, err := h.laneUsecase.Refresh(ctx.Request.Context(), name)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.OK(gin.H{
		"lane":         lane.Name,
		"refreshed_at": lane.LastRefreshedAt,
	}))
}

func (h *LaneHandler) Stats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.OK(h.laneUsecase.Stats()))
}
