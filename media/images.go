package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"platinumlist-scraper/models"
	"platinumlist-scraper/storage"
	"platinumlist-scraper/utils"
)

// Variant is one of the fixed derived image sizes.
type Variant struct {
	Name string
	MaxW int
	MaxH int
}

var (
	VariantThumbnail = Variant{Name: "thumbnail", MaxW: 480, MaxH: 360}
	VariantCover     = Variant{Name: "cover", MaxW: 1280, MaxH: 720}
)

const maxImageBytes = 20 << 20

// Pipeline downloads a listing's source image, derives the thumbnail and
// cover variants as lossy WebP, and uploads them to object storage.
type Pipeline struct {
	uploader storage.ObjectUploader
	client   *http.Client
	logger   *utils.Logger
	quality  float32
	now      func() time.Time
}

// NewPipeline creates an image Pipeline writing through the given uploader.
func NewPipeline(uploader storage.ObjectUploader, quality int, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		uploader: uploader,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		quality:  float32(quality),
		now:      time.Now,
	}
}

// Process fetches the listing's image and replaces ImageURL/CoverURL with
// the uploaded variant URLs. Every failure is soft: the listing keeps its
// prior field values and the run continues.
func (p *Pipeline) Process(ctx context.Context, l *models.Listing) {
	if l.ImageURL == "" {
		return
	}

	src := p.fetch(ctx, l.ImageURL)
	if src == nil {
		return
	}

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		p.logger.Warn("[media] Decode failed for %s: %v", l.ImageURL, err)
		return
	}

	if u := p.derive(ctx, img, l, VariantThumbnail); u != "" {
		l.ImageURL = u
	}
	if u := p.derive(ctx, img, l, VariantCover); u != "" {
		l.CoverURL = u
	}
}

// fetch downloads the source bytes, returning nil on any failure.
func (p *Pipeline) fetch(ctx context.Context, url string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("[media] Fetch failed for %s: %v", url, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.Debug("[media] Fetch for %s returned %d", url, resp.StatusCode)
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil
	}
	return data
}

// derive resizes, encodes and uploads one variant, returning its public URL
// or "" on failure.
func (p *Pipeline) derive(ctx context.Context, img image.Image, l *models.Listing, v Variant) string {
	w, h := FitWithin(img.Bounds().Dx(), img.Bounds().Dy(), v.MaxW, v.MaxH)
	resized := imaging.Resize(img, w, h, imaging.Lanczos)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resized, &webp.Options{Quality: p.quality}); err != nil {
		p.logger.Warn("[media] WebP encode (%s) failed for %s: %v", v.Name, l.Slug, err)
		return ""
	}

	key := ObjectKey(l.Type, l.Slug, v.Name, p.now())
	url, err := p.uploader.Upload(ctx, key, "image/webp", buf.Bytes())
	if err != nil {
		p.logger.Warn("[media] Upload (%s) failed for %s: %v", v.Name, l.Slug, err)
		return ""
	}
	return url
}

// FitWithin scales (w, h) to fit inside (maxW, maxH) preserving aspect
// ratio. Images already inside the box are left at their original size.
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

	outW := int(float64(w) * scale)
	outH := int(float64(h) * scale)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}

// ObjectKey builds the storage key for one derived variant. The epoch-ms
// component keeps re-runs from colliding with cached objects.
func ObjectKey(entityType models.EntityType, slug, variant string, ts time.Time) string {
	return fmt.Sprintf("processed/%s/%s-%s-%d.webp", entityType, slug, variant, ts.UnixMilli())
}
