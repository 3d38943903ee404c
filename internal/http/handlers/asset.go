package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/krafton-jungle/mediagen-backend/internal/http/middleware"
	"github.com/krafton-jungle/mediagen-backend/internal/http/response"
	"github.com/krafton-jungle/mediagen-backend/internal/services"
)

type AssetHandler struct {
	assetService services.AssetService
}

func NewAssetHandler(assetService services.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// GET /api/assets?skip=0&limit=20
func (ah *AssetHandler) ListAssets(c *gin.Context) {
	user := middleware.CurrentUser(c)
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	assets, err := ah.assetService.List(c.Request.Context(), user.ID, skip, limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, assets)
}

// GET /api/assets/:id
func (ah *AssetHandler) GetAsset(c *gin.Context) {
	assetID, err := parseAssetID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "validation_error", err)
		return
	}
	user := middleware.CurrentUser(c)
	asset, err := ah.assetService.Get(c.Request.Context(), user.ID, assetID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, asset)
}

// DELETE /api/assets/:id
func (ah *AssetHandler) DeleteAsset(c *gin.Context) {
	assetID, err := parseAssetID(c)
	if err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "validation_error", err)
		return
	}
	user := middleware.CurrentUser(c)
	if err := ah.assetService.Delete(c.Request.Context(), user.ID, assetID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func parseAssetID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
