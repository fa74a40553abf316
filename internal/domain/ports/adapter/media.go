package adapter

import "context"

// ImageIngest downloads a product photo and returns its stable public URL.
type ImageIngest interface {
	DownloadAndSaveImage(ctx context.Context, url string, productID int64) (string, error)
}
