package handler

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/hitoshi/conecta/internal/media"
	"github.com/hitoshi/conecta/internal/model"
)

// avatarField はプロフィール画像のフォーム項目名。
const avatarField = "profile_picture"

// multipartOverhead はファイル以外のフォーム項目とエンコードのための余裕。
const multipartOverhead = 1 << 20

// isMultipart はリクエストがmultipart/form-dataかを返す。
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipart は上限付きでmultipartフォームを解析する。
// 上限を超えた場合はINVALID_UPLOAD、それ以外の解析失敗はINVALID_REQUESTを返す。
// 呼び出し元はr.MultipartForm.RemoveAllで一時ファイルを削除すること。
func parseMultipart(w http.ResponseWriter, r *http.Request, maxUploadBytes int64) *model.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxUploadBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.NewInvalidUploadError(
				fmt.Sprintf(model.MsgFileTooLarge, humanize.IBytes(uint64(maxUploadBytes))),
			)
		}
		return model.NewInvalidRequestError(model.MsgInvalidBody)
	}
	return nil
}

// formFile はmultipartフォームからファイルを取り出す。
// ファイルが無い場合はnilを返す。返されたcloseは必ず呼び出すこと。
func formFile(r *http.Request, field string) (f *media.File, closeFn func(), err error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return &media.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}, func() { file.Close() }, nil
}
