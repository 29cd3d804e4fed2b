package scraper

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const (
	// imageRetrySlack is how many extra candidate URLs are tried beyond the
	// target count to absorb individual download failures.
	imageRetrySlack = 2

	imageTimeout  = 20 * time.Second
	maxImageBytes = 8 << 20

	defaultImageMIME = "image/jpeg"
)

var extMIMEs = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// DownloadImages fetches listing photos sequentially, stopping as soon as
// max images have been retrieved. Up to max+imageRetrySlack candidates are
// attempted; a failed download just moves on to the next URL.
func (e *Extractor) DownloadImages(ctx context.Context, urls []string, max int) []ImageData {
	if max <= 0 || len(urls) == 0 {
		return nil
	}

	candidates := urls
	if len(candidates) > max+imageRetrySlack {
		candidates = candidates[:max+imageRetrySlack]
	}

	var images []ImageData
	for _, imageURL := range candidates {
		if len(images) >= max {
			break
		}
		img, err := e.downloadImage(ctx, imageURL)
		if err != nil {
			e.log.WithError(err).WithField("url", imageURL).Debug("listing image download failed")
			continue
		}
		images = append(images, img)
	}
	return images
}

func (e *Extractor) downloadImage(ctx context.Context, imageURL string) (ImageData, error) {
	ctx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return ImageData{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return ImageData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ImageData{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return ImageData{}, err
	}
	if len(data) == 0 {
		return ImageData{}, fmt.Errorf("empty body")
	}

	return ImageData{
		Data:     data,
		MIMEType: imageMIME(resp.Header.Get("Content-Type"), imageURL),
	}, nil
}

// imageMIME resolves the MIME type from the response header, then the URL's
// file extension, then a jpeg default.
func imageMIME(contentType, imageURL string) string {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil &&
			strings.HasPrefix(mediaType, "image/") {
			return mediaType
		}
	}
	if parsed, err := url.Parse(imageURL); err == nil {
		if mimeType, ok := extMIMEs[strings.ToLower(path.Ext(parsed.Path))]; ok {
			return mimeType
		}
	}
	return defaultImageMIME
}
