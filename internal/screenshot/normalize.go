package screenshot

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"uigate/internal/logger"
)

// 视觉调用的尺寸上限：超出按比例缩小，绝不放大。
const (
	MaxWidth  = 1920
	MaxHeight = 1080

	jpegQuality = 80
)

// Screenshot 是经过归一化、可直接放入消息的图片载体。
type Screenshot struct {
	Bytes []byte
	MIME  string
}

// Base64 返回标准 base64 编码内容。
func (s Screenshot) Base64() string {
	return base64.StdEncoding.EncodeToString(s.Bytes)
}

// DataURI 返回 data-URL 形式，便于日志与 chat-completions 的 image_url。
func (s Screenshot) DataURI() string {
	return "data:" + s.MIME + ";base64," + s.Base64()
}

// FromBase64 接收 base64 字符串（可带 data:image/...;base64, 前缀），
// 解码后归一化。base64 本身非法时按原样字节处理，不让整个请求失败。
func FromBase64(input string) (Screenshot, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Screenshot{}, false
	}
	input = StripDataURL(input)
	raw, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(input)
	}
	if err != nil {
		logger.Debugf("screenshot: base64 decode failed, passing raw bytes through: %v", err)
		raw = []byte(input)
	}
	return Normalize(raw), true
}

// StripDataURL 去掉 data:image/<type>;base64, 前缀。
func StripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if idx := strings.Index(s, "base64,"); idx != -1 {
		return s[idx+len("base64,"):]
	}
	return s
}

// Normalize 把图片字节限制到 MaxWidth×MaxHeight 内并统一转 JPEG。
// 解码或重编码失败时原样返回，画质退化不应中断本可服务的请求。
func Normalize(raw []byte) Screenshot {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		logger.Debugf("screenshot: decode failed, keeping original payload: %v", err)
		return Screenshot{Bytes: raw, MIME: sniffMIME(raw)}
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tw, th := FitWithin(w, h, MaxWidth, MaxHeight)

	out := src
	if tw != w || th != h {
		dst := image.NewRGBA(image.Rect(0, 0, tw, th))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		logger.Debugf("screenshot: jpeg encode failed, keeping original payload: %v", err)
		return Screenshot{Bytes: raw, MIME: sniffMIME(raw)}
	}
	return Screenshot{Bytes: buf.Bytes(), MIME: "image/jpeg"}
}

// FitWithin 计算保持宽高比且不放大的目标尺寸。
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	tw := int(float64(w) * scale)
	th := int(float64(h) * scale)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}

func sniffMIME(raw []byte) string {
	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		return "image/png"
	}
	return mime
}
