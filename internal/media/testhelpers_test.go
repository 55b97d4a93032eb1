package media

import (
	"bytes"
	"strings"
)

// 各画像形式のシグネチャ。内容判定に十分な先頭バイトのみを含む。
var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	jpegBytes = append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), make([]byte, 64)...)
	gifBytes  = append([]byte("GIF89a"), make([]byte, 64)...)
	webpBytes = append([]byte("RIFF\x24\x00\x00\x00WEBPVP8 "), make([]byte, 64)...)
)

func newFile(name, contentType string, content []byte) *File {
	return &File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Content:     bytes.NewReader(content),
	}
}

func textFile(name, contentType string) *File {
	return newFile(name, contentType, []byte(strings.Repeat("apenas texto\n", 10)))
}
