package handler

import (
	"Fellowship/internal/api/dto"
	"Fellowship/internal/model"
	"Fellowship/internal/pkg/consts"
	"Fellowship/internal/pkg/response"
	"Fellowship/internal/service"
	"context"
	"io"
	log "log/slog"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ObjectStorage 附件对象存储
type ObjectStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	GetPublicURL(objectName string) string
}

type AttachmentHandler struct {
	storage ObjectStorage
	maxSize int64
}

func NewAttachmentHandler(storage ObjectStorage, maxSize int64) *AttachmentHandler {
	return &AttachmentHandler{storage: storage, maxSize: maxSize}
}

// blockedMimes 可执行文件不允许作为附件
var blockedMimes = []string{
	"application/x-msdownload",
	"application/x-executable",
	"application/x-elf",
	"application/x-mach-binary",
	"application/x-sh",
	"text/x-shellscript",
}

// Upload 上传附件，返回发送消息时使用的 file_url/file_name/file_size
func (s *AttachmentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, service.Unprocessable, service.ErrParamInvalid.Error(), map[string]string{"file": "is required"})
		return
	}
	if s.maxSize > 0 && file.Size > s.maxSize {
		response.Error(c, service.ErrFileTooLarge)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	mtype, err := mimetype.DetectReader(reader)
	if err != nil {
		response.Error(c, service.ErrFileNotSupported)
		return
	}
	for _, blocked := range blockedMimes {
		if mtype.Is(blocked) {
			response.Error(c, service.ErrFileNotSupported)
			return
		}
	}
	if _, err = reader.Seek(0, io.SeekStart); err != nil {
		response.Error(c, err)
		return
	}

	contentType := mtype.String()
	ext := path.Ext(file.Filename)
	if ext == "" {
		ext = mtype.Extension()
	}
	objectName := "chat/" + time.Now().Format("2006/01/02/") + uuid.NewString() + ext

	fileKey, err := s.storage.UploadFile(c.Request.Context(), objectName, reader, file.Size, contentType)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "MinIO upload failed", "err", err)
		response.Error(c, service.UnExpectedError)
		return
	}

	response.Created(c, &dto.AttachmentDTO{
		FileURL:  s.storage.GetPublicURL(fileKey),
		FileName: path.Base(file.Filename),
		FileSize: file.Size,
		MimeType: contentType,
		Type:     messageTypeOf(contentType),
	})
}

// messageTypeOf 按 MIME 大类推断消息类型
func messageTypeOf(contentType string) model.MessageType {
	switch {
	case strings.HasPrefix(contentType, consts.MimePrefixImage):
		return model.MessageImage
	case strings.HasPrefix(contentType, consts.MimePrefixAudio):
		return model.MessageAudio
	case strings.HasPrefix(contentType, consts.MimePrefixVideo):
		return model.MessageVideo
	default:
		return model.MessageFile
	}
}
