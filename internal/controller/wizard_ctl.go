package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"surekeys_dev_v1/internal/api/dto"
	"surekeys_dev_v1/internal/middleware"
	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/internal/service"
	"surekeys_dev_v1/internal/validator"
	"surekeys_dev_v1/pkg/surekeys"
)

// DefaultMaxBatchFiles 单次上传最多文件数
const DefaultMaxBatchFiles = 20

// ==================== 控制器 ====================

// WizardController 发布向导控制器
type WizardController struct {
	wizardService *service.WizardService
	maxBatchFiles int
}

func NewWizardController(wizardService *service.WizardService, maxBatchFiles int) *WizardController {
	if maxBatchFiles <= 0 {
		maxBatchFiles = DefaultMaxBatchFiles
	}
	return &WizardController{wizardService: wizardService, maxBatchFiles: maxBatchFiles}
}

// wizard 取当前登录用户的会话
func (ctrl *WizardController) wizard(c *gin.Context) (*service.Wizard, bool) {
	w, err := ctrl.wizardService.Get(c.Request.Context(), c.Param("id"), middleware.GetSessionID(c))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return w, true
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		fail(c, http.StatusBadRequest, "无效的索引")
		return 0, false
	}
	return index, true
}

// ==================== 会话 ====================

// CreateSession 开始发布
// @Summary 新建发布会话
// @Tags Wizard
// @Produce json
// @Success 201 {object} dto.SessionView
// @Router /api/wizard/sessions [post]
func (ctrl *WizardController) CreateSession(c *gin.Context) {
	w, err := ctrl.wizardService.Create(c.Request.Context(), middleware.GetSessionID(c), middleware.GetUserRole(c))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusCreated, w.View())
}

// GetSession 会话详情，包含当前步骤的预填表单
// @Summary 获取发布会话
// @Tags Wizard
// @Param id path string true "会话ID"
// @Success 200 {object} dto.SessionView
// @Router /api/wizard/sessions/{id} [get]
func (ctrl *WizardController) GetSession(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	success(c, http.StatusOK, w.View())
}

// CancelSession 放弃草稿
// @Summary 取消发布
// @Tags Wizard
// @Param id path string true "会话ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/wizard/sessions/{id} [delete]
func (ctrl *WizardController) CancelSession(c *gin.Context) {
	if err := ctrl.wizardService.Delete(c.Request.Context(), c.Param("id"), middleware.GetSessionID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "草稿已丢弃",
	})
}

// ==================== 步骤 ====================

// ValidateStep 逐字段实时校验，不保存
// @Summary 校验某一步表单
// @Tags Wizard
// @Accept json
// @Param id path string true "会话ID"
// @Param step path string true "address / details / photos"
// @Success 200 {object} map[string]interface{}
// @Router /api/wizard/sessions/{id}/validate/{step} [post]
func (ctrl *WizardController) ValidateStep(c *gin.Context) {
	if _, ok := ctrl.wizard(c); !ok {
		return
	}

	var violations []validator.FieldViolation
	switch c.Param("step") {
	case model.StepAddress:
		var form dto.AddressForm
		if !bindForm(c, &form) {
			return
		}
		violations = validator.CheckAddress(form)
	case model.StepDetails:
		var form dto.DetailsForm
		if !bindForm(c, &form) {
			return
		}
		violations = validator.CheckDetails(form)
	case model.StepPhotos:
		var form dto.PhotosForm
		if !bindForm(c, &form) {
			return
		}
		violations = validator.CheckPhotos(form)
	default:
		fail(c, http.StatusBadRequest, "未知步骤: "+c.Param("step"))
		return
	}

	if violations == nil {
		violations = []validator.FieldViolation{}
	}
	success(c, http.StatusOK, gin.H{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}

// SubmitAddress 第一步
// @Summary 保存地址并进入详情
// @Tags Wizard
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.AddressForm true "地址表单"
// @Success 200 {object} dto.SessionView
// @Router /api/wizard/sessions/{id}/address [put]
func (ctrl *WizardController) SubmitAddress(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	var form dto.AddressForm
	if !bindForm(c, &form) {
		return
	}
	if err := w.SubmitAddress(form); err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, w.View())
}

// SubmitDetails 第二步
// @Summary 保存详情并进入图片
// @Tags Wizard
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.DetailsForm true "详情表单"
// @Success 200 {object} dto.SessionView
// @Router /api/wizard/sessions/{id}/details [put]
func (ctrl *WizardController) SubmitDetails(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	var form dto.DetailsForm
	if !bindForm(c, &form) {
		return
	}
	if err := w.SubmitDetails(form); err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, w.View())
}

// ProceedToPreview 第三步完成
// @Summary 图片确认后进入预览
// @Tags Wizard
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.PreviewRequest false "图片备注"
// @Success 200 {object} dto.SessionView
// @Router /api/wizard/sessions/{id}/preview [post]
func (ctrl *WizardController) ProceedToPreview(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	var req dto.PreviewRequest
	if c.Request.ContentLength > 0 && !bindForm(c, &req) {
		return
	}
	if err := w.ProceedToPreview(req.PhotoNotes); err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, w.View())
}

// Back 返回上一步
// @Summary 返回上一步，已填内容保留
// @Tags Wizard
// @Param id path string true "会话ID"
// @Success 200 {object} dto.SessionView
// @Router /api/wizard/sessions/{id}/back [post]
func (ctrl *WizardController) Back(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	if _, err := w.Back(); err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, w.View())
}

// Submit 预览确认后提交
// @Summary 提交房源
// @Tags Wizard
// @Param id path string true "会话ID"
// @Success 201 {object} dto.SubmitResult
// @Failure 502 {object} map[string]interface{} "远程创建失败，草稿保留"
// @Router /api/wizard/sessions/{id}/submit [post]
func (ctrl *WizardController) Submit(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	listingID, err := ctrl.wizardService.Submit(c.Request.Context(), w, middleware.GetToken(c))
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusCreated, dto.SubmitResult{ListingID: listingID})
}

// ==================== 附件 ====================

// UploadImages 批量上传图片（multipart 字段 images）
// @Summary 上传图片，逐个上传，失败的文件跳过
// @Tags Wizard
// @Accept multipart/form-data
// @Param id path string true "会话ID"
// @Param images formData file true "图片文件，可多个"
// @Success 200 {object} dto.UploadBatchResult
// @Router /api/wizard/sessions/{id}/images [post]
func (ctrl *WizardController) UploadImages(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, "请使用 multipart/form-data 上传图片")
		return
	}
	headers := form.File["images"]
	if len(headers) == 0 {
		fail(c, http.StatusBadRequest, "没有选择图片")
		return
	}
	if len(headers) > ctrl.maxBatchFiles {
		fail(c, http.StatusBadRequest, fmt.Sprintf("单次最多上传 %d 个文件", ctrl.maxBatchFiles))
		return
	}

	files := make([]surekeys.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			fail(c, http.StatusBadRequest, "读取文件失败: "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			fail(c, http.StatusBadRequest, "读取文件失败: "+fh.Filename)
			return
		}
		// 浏览器未识别的类型交给服务端按内容判断
		contentType := fh.Header.Get("Content-Type")
		if contentType == "application/octet-stream" {
			contentType = ""
		}
		files = append(files, surekeys.UploadFile{
			Name:        fh.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}

	result, err := w.UploadImages(c.Request.Context(), middleware.GetToken(c), files)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, result)
}

// SetCover 设置封面
// @Summary 设置封面图
// @Tags Wizard
// @Param id path string true "会话ID"
// @Param index path int true "图片序号"
// @Success 200 {object} dto.SessionView
// @Router /api/wizard/sessions/{id}/images/{index}/cover [put]
func (ctrl *WizardController) SetCover(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	if err := w.SetCover(index); err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, w.View())
}

// RemoveImage 删除图片
// @Summary 删除图片
// @Tags Wizard
// @Param id path string true "会话ID"
// @Param index path int true "图片序号"
// @Success 200 {object} dto.SessionView
// @Router /api/wizard/sessions/{id}/images/{index} [delete]
func (ctrl *WizardController) RemoveImage(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	if err := w.RemoveImage(index); err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, w.View())
}

// AddVideoLink 添加视频链接
// @Summary 添加视频链接，按域名识别平台
// @Tags Wizard
// @Accept json
// @Param id path string true "会话ID"
// @Param body body dto.AddVideoRequest true "视频链接"
// @Success 201 {object} model.VideoLink
// @Router /api/wizard/sessions/{id}/videos [post]
func (ctrl *WizardController) AddVideoLink(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	var req dto.AddVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	link, err := w.AddVideoLink(req.URL, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusCreated, link)
}

// RemoveVideoLink 删除视频链接
// @Summary 删除视频链接
// @Tags Wizard
// @Param id path string true "会话ID"
// @Param index path int true "视频序号"
// @Success 200 {object} dto.SessionView
// @Router /api/wizard/sessions/{id}/videos/{index} [delete]
func (ctrl *WizardController) RemoveVideoLink(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	if err := w.RemoveVideoLink(index); err != nil {
		writeError(c, err)
		return
	}
	success(c, http.StatusOK, w.View())
}

// ==================== 进度推送 ====================

// StreamProgress SSE 订阅上传进度
// @Summary SSE 实时推送上传进度
// @Tags Wizard
// @Param id path string true "会话ID"
// @Produce text/event-stream
// @Router /api/wizard/sessions/{id}/stream [get]
func (ctrl *WizardController) StreamProgress(c *gin.Context) {
	w, ok := ctrl.wizard(c)
	if !ok {
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// 订阅进度
	progressCh := ctrl.wizardService.Subscribe(w.ID())
	defer ctrl.wizardService.Unsubscribe(w.ID(), progressCh)

	// 发送心跳和进度
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			return
		case <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"time": time.Now().Unix()})
			c.Writer.Flush()
		case event, ok := <-progressCh:
			if !ok {
				return
			}
			data, _ := json.Marshal(event)
			c.SSEvent("progress", string(data))
			c.Writer.Flush()

			// 整批完成后关闭连接
			if event.Stage == dto.StageDone {
				return
			}
		}
	}
}

// bindForm 只解码 JSON，字段规则由 validator 包处理
func bindForm(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return false
	}
	return true
}
