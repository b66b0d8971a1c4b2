package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"surekeys_dev_v1/internal/middleware"
	"surekeys_dev_v1/internal/service"
	"surekeys_dev_v1/pkg/surekeys"
)

// ListingController 房源浏览
type ListingController struct {
	listingService *service.ListingService
}

func NewListingController(listingService *service.ListingService) *ListingController {
	return &ListingController{listingService: listingService}
}

// SearchListings 房源列表
// @Summary 分页查询房源
// @Tags Listing
// @Produce json
// @Param page query int false "页码，默认 1"
// @Param limit query int false "每页数量，默认 12"
// @Param sort query string false "排序字段，默认 -createdAt"
// @Param state query string false "州"
// @Param locality query string false "地区"
// @Param propertyType query string false "房屋类型"
// @Param minRent query string false "最低租金"
// @Param maxRent query string false "最高租金"
// @Success 200 {object} surekeys.ListingsPage
// @Router /api/listings [get]
func (ctrl *ListingController) SearchListings(c *gin.Context) {
	var query surekeys.ListingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	page, err := ctrl.listingService.Search(c.Request.Context(), query)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, page)
}

// GetListing 房源详情
// @Summary 获取房源详情
// @Tags Listing
// @Param id path string true "房源ID"
// @Success 200 {object} model.Listing
// @Router /api/listing/{id} [get]
func (ctrl *ListingController) GetListing(c *gin.Context) {
	listing, err := ctrl.listingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, listing)
}

// UpdateListing 部分更新
// @Summary 更新房源部分字段
// @Tags Listing
// @Accept json
// @Security BearerAuth
// @Param id path string true "房源ID"
// @Param body body map[string]interface{} true "要更新的字段"
// @Success 200 {object} model.Listing
// @Router /api/listings/{id} [put]
func (ctrl *ListingController) UpdateListing(c *gin.Context) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	if len(fields) == 0 {
		fail(c, http.StatusBadRequest, "没有需要更新的字段")
		return
	}

	listing, err := ctrl.listingService.Update(c.Request.Context(), c.Param("id"), fields, middleware.GetToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, listing)
}

// DeleteListing 删除房源
// @Summary 删除房源
// @Tags Listing
// @Security BearerAuth
// @Param id path string true "房源ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/listings/{id} [delete]
func (ctrl *ListingController) DeleteListing(c *gin.Context) {
	if err := ctrl.listingService.Delete(c.Request.Context(), c.Param("id"), middleware.GetToken(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "删除成功",
	})
}
