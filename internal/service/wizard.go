package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"surekeys_dev_v1/internal/api/dto"
	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/internal/validator"
	"surekeys_dev_v1/pkg/logger"
	"surekeys_dev_v1/pkg/surekeys"
	"surekeys_dev_v1/pkg/utils"
)

// ==================== 外部依赖 ====================

// ListingGateway 创建房源的远程调用
type ListingGateway interface {
	CreateListing(ctx context.Context, payload *surekeys.ListingPayload, token string) (string, error)
}

// MediaUploader 单张图片上传
type MediaUploader interface {
	UploadImage(ctx context.Context, file surekeys.UploadFile, token string) (*surekeys.UploadResult, error)
}

// ==================== 错误 ====================

var (
	ErrWrongStep           = errors.New("当前步骤不允许该操作")
	ErrNoPreviousStep      = errors.New("已经是第一步")
	ErrUploadInFlight      = errors.New("仍有图片正在上传")
	ErrNotEnoughImages     = errors.New("图片数量不足")
	ErrSubmitInProgress    = errors.New("正在提交中")
	ErrSubmitFailed        = errors.New("提交房源失败")
	ErrUnsupportedFileType = errors.New("只支持图片文件")
	ErrFileTooLarge        = errors.New("图片超过大小限制")
	ErrDraftDiscarded      = errors.New("草稿已放弃")
)

// 图片数量下限
const MinImages = 3

// DefaultMaxImageBytes 单张图片大小上限 5MB
const DefaultMaxImageBytes int64 = 5 * 1024 * 1024

// ==================== 向导 ====================

// Wizard 单个发布会话的步骤状态机
// 地址 → 详情 → 图片 → 预览 → 已提交；锁不跨网络调用持有
type Wizard struct {
	mu sync.Mutex

	id      string
	ownerID string
	role    string

	step       string
	store      *DraftStore
	media      *AttachmentManager
	photoNotes string

	inFlight   int
	submitting bool
	generation int  // 每次清空草稿加一，进行中的上传据此丢弃结果
	closed     bool // 会话已删除
	listingID  string
	expiresAt  time.Time

	gateway       ListingGateway
	uploader      MediaUploader
	maxImageBytes int64

	notify   func(dto.ProgressEvent)
	onChange func(model.WizardSnapshot)
}

// WizardDeps 向导依赖
type WizardDeps struct {
	Gateway       ListingGateway
	Uploader      MediaUploader
	MaxImageBytes int64
	Notify        func(dto.ProgressEvent)
	OnChange      func(model.WizardSnapshot)
}

// NewWizard 创建新会话，从地址步骤开始
func NewWizard(id, ownerID, role string, deps WizardDeps) *Wizard {
	if deps.MaxImageBytes <= 0 {
		deps.MaxImageBytes = DefaultMaxImageBytes
	}
	return &Wizard{
		id:            id,
		ownerID:       ownerID,
		role:          role,
		step:          model.StepAddress,
		store:         NewDraftStore(),
		media:         NewAttachmentManager(),
		gateway:       deps.Gateway,
		uploader:      deps.Uploader,
		maxImageBytes: deps.MaxImageBytes,
		notify:        deps.Notify,
		onChange:      deps.OnChange,
	}
}

// RestoreWizard 从持久化快照恢复会话
func RestoreWizard(snap model.WizardSnapshot, deps WizardDeps) *Wizard {
	w := NewWizard(snap.ID, snap.OwnerID, snap.Role, deps)
	w.step = snap.Step
	w.store.Restore(snap.Draft)
	w.media.Load(model.PhotosSection{Images: snap.Images, VideoLinks: snap.VideoLinks})
	if snap.Draft.Photos != nil {
		w.photoNotes = snap.Draft.Photos.PhotoNotes
	}
	w.listingID = snap.ListingID
	w.expiresAt = snap.ExpiresAt
	return w
}

// ==================== 只读 ====================

// ID 会话ID
func (w *Wizard) ID() string { return w.id }

// OwnerID 所属认证会话
func (w *Wizard) OwnerID() string { return w.ownerID }

// Step 当前步骤
func (w *Wizard) Step() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft 草稿快照
func (w *Wizard) Draft() model.Draft {
	return w.store.Snapshot()
}

// ExpiresAt 过期时间
func (w *Wizard) ExpiresAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expiresAt
}

// Touch 续期
func (w *Wizard) Touch(expiresAt time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expiresAt = expiresAt
}

// Snapshot 当前完整状态
func (w *Wizard) Snapshot() model.WizardSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Wizard) snapshotLocked() model.WizardSnapshot {
	return model.WizardSnapshot{
		ID:         w.id,
		OwnerID:    w.ownerID,
		Role:       w.role,
		Step:       w.step,
		Draft:      w.store.Snapshot(),
		Images:     w.media.Images(),
		VideoLinks: w.media.VideoLinks(),
		ListingID:  w.listingID,
		ExpiresAt:  w.expiresAt,
	}
}

// View 会话视图，附带当前步骤的预填表单
func (w *Wizard) View() *dto.SessionView {
	w.mu.Lock()
	defer w.mu.Unlock()
	draft := w.store.Snapshot()
	return &dto.SessionView{
		ID:              w.id,
		Step:            w.step,
		Role:            w.role,
		Draft:           draft,
		RentDisplay:     rentDisplay(draft),
		Images:          w.media.Images(),
		VideoLinks:      w.media.VideoLinks(),
		UploadsInFlight: w.inFlight,
		Form:            w.prefillLocked(),
		ListingID:       w.listingID,
		ExpiresAt:       w.expiresAt,
	}
}

// rentDisplay 预览用的租金展示文本
func rentDisplay(draft model.Draft) string {
	if draft.Details == nil {
		return ""
	}
	rent, err := utils.ParseAmount(draft.Details.RentAmount)
	if err != nil {
		return ""
	}
	return utils.FormatNaira(rent)
}

// Prefill 重新进入当前步骤时的表单内容，只从草稿读取
func (w *Wizard) Prefill() interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prefillLocked()
}

func (w *Wizard) prefillLocked() interface{} {
	draft := w.store.Snapshot()
	switch w.step {
	case model.StepAddress:
		if draft.Address == nil {
			return dto.AddressForm{}
		}
		return dto.AddressFormFrom(*draft.Address)
	case model.StepDetails:
		if draft.Details == nil {
			return dto.DetailsForm{}
		}
		return dto.DetailsFormFrom(*draft.Details)
	case model.StepPhotos:
		return w.media.Form(w.photoNotes)
	case model.StepPreview:
		return draft
	}
	return nil
}

// ==================== 步骤切换 ====================

// guardLocked 检查步骤与提交状态
func (w *Wizard) guardLocked(op string, steps ...string) error {
	if w.submitting {
		return ErrSubmitInProgress
	}
	for _, s := range steps {
		if w.step == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s 不能在 %s 步骤执行", ErrWrongStep, op, w.step)
}

// SubmitAddress 地址校验通过后保存并进入详情
func (w *Wizard) SubmitAddress(form dto.AddressForm) error {
	w.mu.Lock()
	if err := w.guardLocked("SubmitAddress", model.StepAddress); err != nil {
		w.mu.Unlock()
		return err
	}
	section, err := validator.ValidateAddress(form)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.store.SetAddress(section)
	w.step = model.StepDetails
	w.mu.Unlock()

	w.changed()
	return nil
}

// SubmitDetails 详情校验通过后保存并进入图片
func (w *Wizard) SubmitDetails(form dto.DetailsForm) error {
	w.mu.Lock()
	if err := w.guardLocked("SubmitDetails", model.StepDetails); err != nil {
		w.mu.Unlock()
		return err
	}
	section, err := validator.ValidateDetails(form)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.store.SetDetails(section)

	// 附件区为空而草稿里有图片时，从草稿恢复
	if w.media.ImageCount() == 0 {
		if draft := w.store.Snapshot(); draft.Photos != nil {
			w.media.Load(*draft.Photos)
			w.photoNotes = draft.Photos.PhotoNotes
		}
	}
	w.step = model.StepPhotos
	w.mu.Unlock()

	w.changed()
	return nil
}

// ProceedToPreview 图片步骤完成：至少 3 张且没有上传中的文件，补齐封面后保存
func (w *Wizard) ProceedToPreview(photoNotes string) error {
	w.mu.Lock()
	if err := w.guardLocked("ProceedToPreview", model.StepPhotos); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.inFlight > 0 {
		w.mu.Unlock()
		return ErrUploadInFlight
	}
	if w.media.ImageCount() < MinImages {
		w.mu.Unlock()
		return fmt.Errorf("%w: 需要 %d 张，当前 %d 张", ErrNotEnoughImages, MinImages, w.media.ImageCount())
	}

	section, err := validator.ValidatePhotos(w.media.Form(photoNotes))
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.media.FinalizeCover()
	section.Images = w.media.Images()

	w.photoNotes = section.PhotoNotes
	w.store.SetPhotos(section)
	w.step = model.StepPreview
	w.mu.Unlock()

	w.changed()
	return nil
}

// Back 返回上一步，不清除已保存的分段
func (w *Wizard) Back() (string, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return "", ErrSubmitInProgress
	}

	switch w.step {
	case model.StepDetails:
		w.step = model.StepAddress
	case model.StepPhotos:
		w.step = model.StepDetails
	case model.StepPreview:
		w.step = model.StepPhotos
	case model.StepAddress:
		w.mu.Unlock()
		return model.StepAddress, ErrNoPreviousStep
	default:
		step := w.step
		w.mu.Unlock()
		return step, fmt.Errorf("%w: 已提交的会话不能返回", ErrWrongStep)
	}
	step := w.step
	w.mu.Unlock()

	w.changed()
	return step, nil
}

// Cancel 放弃草稿，回到地址步骤
func (w *Wizard) Cancel() error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return ErrSubmitInProgress
	}
	w.store.Reset()
	w.media.Reset()
	w.photoNotes = ""
	w.listingID = ""
	w.step = model.StepAddress
	w.generation++
	w.mu.Unlock()

	w.changed()
	return nil
}

// Close 标记会话已删除，之后的变更不再持久化
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.generation++
}

// ==================== 附件操作 ====================

// SetCover 设置封面
func (w *Wizard) SetCover(index int) error {
	return w.mutateMedia("SetCover", func(m *AttachmentManager) error { return m.SetCover(index) })
}

// RemoveImage 删除图片
func (w *Wizard) RemoveImage(index int) error {
	return w.mutateMedia("RemoveImage", func(m *AttachmentManager) error { return m.RemoveImage(index) })
}

// AddVideoLink 添加视频链接
func (w *Wizard) AddVideoLink(rawURL, title string) (model.VideoLink, error) {
	var link model.VideoLink
	err := w.mutateMedia("AddVideoLink", func(m *AttachmentManager) error {
		var err error
		link, err = m.AddVideoLink(rawURL, title)
		return err
	})
	return link, err
}

// RemoveVideoLink 删除视频链接
func (w *Wizard) RemoveVideoLink(index int) error {
	return w.mutateMedia("RemoveVideoLink", func(m *AttachmentManager) error { return m.RemoveVideoLink(index) })
}

func (w *Wizard) mutateMedia(op string, fn func(m *AttachmentManager) error) error {
	w.mu.Lock()
	if err := w.guardLocked(op, model.StepPhotos); err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fn(w.media); err != nil {
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	w.changed()
	return nil
}

// ==================== 图片上传 ====================

// UploadImages 按原始顺序逐个上传，每个文件完成后才追加，失败的文件跳过并记录
func (w *Wizard) UploadImages(ctx context.Context, token string, files []surekeys.UploadFile) (*dto.UploadBatchResult, error) {
	w.mu.Lock()
	if err := w.guardLocked("UploadImages", model.StepPhotos); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.inFlight += len(files)
	generation := w.generation
	w.mu.Unlock()

	// 已发出的上传不随请求取消
	ctx = context.WithoutCancel(ctx)
	log := logger.WithSession(w.id)

	result := &dto.UploadBatchResult{
		Added:  []model.ListingImage{},
		Failed: []dto.UploadFailure{},
	}
	total := len(files)

	for i, file := range files {
		w.emit(dto.ProgressEvent{Stage: dto.StageUploading, Index: i, Total: total, FileName: file.Name})

		// 草稿已放弃时剩余文件不再上传
		var res *surekeys.UploadResult
		err := ErrDraftDiscarded
		if !w.isStale(generation) {
			res, err = w.uploadOne(ctx, token, file)
		}

		w.mu.Lock()
		w.inFlight--
		var img model.ListingImage
		if err == nil {
			if w.staleLocked(generation) {
				err = ErrDraftDiscarded
			} else {
				img = w.media.AddImage(*res)
			}
		}
		w.mu.Unlock()

		if err != nil {
			log.Warn("[WizardUpload] 图片上传失败", zap.String("file", file.Name), zap.Error(err))
			reason := uploadFailureReason(file.Name, err)
			result.Failed = append(result.Failed, dto.UploadFailure{FileName: file.Name, Reason: reason})
			w.emit(dto.ProgressEvent{Stage: dto.StageFailed, Index: i, Total: total, FileName: file.Name, Message: reason})
			continue
		}

		result.Added = append(result.Added, img)
		w.emit(dto.ProgressEvent{Stage: dto.StageUploaded, Index: i, Total: total, FileName: file.Name, Image: &img})
	}

	w.mu.Lock()
	result.Images = w.media.Images()
	stale := w.staleLocked(generation)
	w.mu.Unlock()

	w.emit(dto.ProgressEvent{
		Stage:   dto.StageDone,
		Index:   total,
		Total:   total,
		Message: fmt.Sprintf("%d uploaded, %d failed", len(result.Added), len(result.Failed)),
	})
	log.Info("[WizardUpload] 批量上传完成", zap.Int("added", len(result.Added)), zap.Int("failed", len(result.Failed)))

	if !stale {
		w.changed()
	}
	return result, nil
}

// staleLocked 批次开始后草稿被清空或会话被删除
func (w *Wizard) staleLocked(generation int) bool {
	return w.closed || w.generation != generation
}

func (w *Wizard) isStale(generation int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.staleLocked(generation)
}

func (w *Wizard) uploadOne(ctx context.Context, token string, file surekeys.UploadFile) (*surekeys.UploadResult, error) {
	if file.ContentType == "" {
		file.ContentType = http.DetectContentType(file.Data)
	}
	if !strings.HasPrefix(file.ContentType, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, file.ContentType)
	}
	if int64(len(file.Data)) > w.maxImageBytes {
		return nil, fmt.Errorf("%w: %d 字节", ErrFileTooLarge, len(file.Data))
	}
	return w.uploader.UploadImage(ctx, file, token)
}

// uploadFailureReason 面向用户的失败提示
func uploadFailureReason(name string, err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFileType):
		return fmt.Sprintf("%s is not an image file", name)
	case errors.Is(err, ErrFileTooLarge):
		return fmt.Sprintf("%s is larger than 5MB", name)
	case errors.Is(err, ErrDraftDiscarded):
		return fmt.Sprintf("%s was discarded because the draft was cancelled", name)
	}
	return fmt.Sprintf("Failed to upload %s", name)
}

// ==================== 提交 ====================

// Submit 预览确认后提交：最终校验、组装请求并调用一次远程接口
// 成功后清空草稿进入已提交；失败时停留在预览且草稿保持不变
func (w *Wizard) Submit(ctx context.Context, token string) (string, error) {
	w.mu.Lock()
	if err := w.guardLocked("Submit", model.StepPreview); err != nil {
		w.mu.Unlock()
		return "", err
	}
	draft := w.store.Snapshot()
	if err := validator.ValidateDraft(draft); err != nil {
		w.mu.Unlock()
		return "", err
	}
	payload, err := BuildPayload(draft, w.role)
	if err != nil {
		w.mu.Unlock()
		return "", err
	}
	w.submitting = true
	w.mu.Unlock()

	listingID, err := w.gateway.CreateListing(context.WithoutCancel(ctx), payload, token)

	w.mu.Lock()
	w.submitting = false
	if err != nil {
		w.mu.Unlock()
		zap.L().Warn("[WizardSubmit] 创建房源失败", zap.String("session_id", w.id), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	w.store.Reset()
	w.media.Reset()
	w.photoNotes = ""
	w.listingID = listingID
	w.step = model.StepSubmitted
	w.mu.Unlock()

	zap.L().Info("[WizardSubmit] 房源创建成功", zap.String("session_id", w.id), zap.String("listing_id", listingID))
	w.changed()
	return listingID, nil
}

// ==================== 通知 ====================

func (w *Wizard) emit(event dto.ProgressEvent) {
	if w.notify == nil {
		return
	}
	event.SessionID = w.id
	w.notify(event)
}

func (w *Wizard) changed() {
	if w.onChange == nil {
		return
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.onChange(snap)
}
