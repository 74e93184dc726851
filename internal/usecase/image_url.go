package usecase

import (
	"strings"

	"shoporder/internal/domain/model"
)

const DefaultProductImage = "/uploads/products/default.svg"

// 画像パスを絶対URLにする
type ImageURLFormatter struct {
	BaseURL string
}

func NewImageURLFormatter(baseURL string) ImageURLFormatter {
	return ImageURLFormatter{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (f ImageURLFormatter) URL(path string) string {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return f.BaseURL + path
}

// 画像が無ければデフォルト画像1枚
func (f ImageURLFormatter) URLs(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, f.URL(p))
	}
	if len(out) == 0 {
		out = append(out, f.URL(DefaultProductImage))
	}
	return out
}

// 返却用のコピー（元のスライスは書き換えない）
func (f ImageURLFormatter) Product(p model.Product) model.Product {
	p.Images = f.URLs(p.Images)
	return p
}

func (f ImageURLFormatter) Products(ps []model.Product) []model.Product {
	out := make([]model.Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, f.Product(p))
	}
	return out
}
