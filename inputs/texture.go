// Package inputs acquires the background image the effect samples.
package inputs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	// Blank imports for image decoders so image.Decode can handle them.
	_ "image/jpeg"
	_ "image/png"
)

// Result is the outcome of an asynchronous image load. Exactly one Result
// is delivered per LoadAsync call.
type Result struct {
	Image *image.RGBA
	Err   error
}

var httpClient = &http.Client{
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	},
}

// Load acquires and decodes the background image from a file path or an
// http(s) URL. An empty source yields the built-in gradient card. The
// returned image is in GL texture orientation, first row at the bottom.
func Load(source string, timeout time.Duration) (*image.RGBA, error) {
	if source == "" {
		return Placeholder(), nil
	}

	var (
		img image.Image
		err error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		img, err = fetch(source, timeout)
	} else {
		img, err = fromFile(source)
	}
	if err != nil {
		return nil, err
	}
	return ToGL(img), nil
}

// LoadAsync runs Load in the background and delivers exactly one Result on
// the returned channel, then closes it.
func LoadAsync(source string, timeout time.Duration) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		img, err := Load(source, timeout)
		ch <- Result{Image: img, Err: err}
	}()
	return ch
}

func fromFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return img, nil
}

func fetch(url string, timeout time.Duration) (image.Image, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading image %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading image %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading image data from %s: %w", url, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding downloaded image from %s: %w", url, err)
	}
	return img, nil
}

// ToGL converts a decoded image to RGBA in GL texture orientation.
func ToGL(img image.Image) *image.RGBA {
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, image.Point{}, draw.Src)
	return vflip(rgba)
}

// vflip vertically flips the provided RGBA image to match GL's bottom-left
// texture origin.
func vflip(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	flipped := image.NewRGBA(bounds)
	height := bounds.Dy()

	// Row copies instead of per-pixel At/Set
	rowSize := bounds.Dx() * 4
	for y := 0; y < height; y++ {
		srcRow := src.Pix[((height-1)-y)*src.Stride:]
		dstRow := flipped.Pix[y*flipped.Stride:]
		copy(dstRow, srcRow[:rowSize])
	}
	return flipped
}

// Placeholder returns the built-in gradient card used when no image source
// is configured. The 16:9 size keeps cover-fit exercised on common
// viewports.
func Placeholder() *image.RGBA {
	const w, h = 960, 540
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		fy := float64(y) / (h - 1)
		for x := 0; x < w; x++ {
			fx := float64(x) / (w - 1)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(18 + 40*fx),
				G: uint8(52 + 120*fy),
				B: uint8(120 + 90*fx),
				A: 255,
			})
		}
	}
	return img
}
