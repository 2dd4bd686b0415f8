package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/EdlinOrg/prominentcolor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nfnt/resize"
	"github.com/spf13/afero"
	_ "golang.org/x/image/webp"
)

// Cover file names looked up next to the track, in order.
var coverNames = []string{
	"cover.jpg", "cover.jpeg", "cover.png", "cover.webp",
	"folder.jpg", "folder.png",
}

var errNoCover = errors.New("no cover image")

// kittyImageID is the placement reused for every cover, so a new one
// replaces the old.
const kittyImageID = 42

// artworkMsg carries the processed cover of a track.
type artworkMsg struct {
	source  string
	encoded string // Kitty-encoded image, empty when not displayable
	color   string // dominant color, empty when not extracted
	err     error
}

// findCover returns the first cover image next to source.
func findCover(fs afero.Fs, source string) (string, error) {
	dir := filepath.Dir(source)
	for _, name := range coverNames {
		path := filepath.Join(dir, name)
		if ok, _ := afero.Exists(fs, path); ok {
			return path, nil
		}
	}
	return "", errNoCover
}

// decodeArtworkData decodes raw image bytes
func decodeArtworkData(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// loadArtworkCmd looks up, decodes and encodes the cover of source in the
// background.
func loadArtworkCmd(fs afero.Fs, source string, cfg Config, kitty bool) tea.Cmd {
	return func() tea.Msg {
		msg := artworkMsg{source: source}

		path, err := findCover(fs, source)
		if err != nil {
			msg.err = err
			return msg
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			msg.err = fmt.Errorf("read cover: %w", err)
			return msg
		}
		img, err := decodeArtworkData(data)
		if err != nil {
			msg.err = err
			return msg
		}

		if cfg.UI.ColorMode == "auto" {
			if c, err := extractDominantColor(img); err == nil {
				msg.color = c
			}
		}
		if kitty && cfg.Artwork.Enabled {
			encoded, err := encodeArtworkForKitty(img, cfg.Artwork.WidthPixels, cfg.Artwork.WidthColumns)
			if err != nil {
				msg.err = err
				return msg
			}
			msg.encoded = encoded
		}
		return msg
	}
}

// extractDominantColor picks a vibrant, light color suitable for a dark
// background and returns it as #rrggbb.
func extractDominantColor(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	// every 5th pixel in both directions
	const sampleStep = 5
	bounds := img.Bounds()
	counts := make(map[uint32]int)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += sampleStep {
		for x := bounds.Min.X; x < bounds.Max.X; x += sampleStep {
			r, g, b, a := img.At(x, y).RGBA()
			if a < 0x8000 {
				continue
			}
			counts[(r>>8)<<16|(g>>8)<<8|b>>8]++
		}
	}

	type candidate struct {
		rgb   uint32
		score float64
	}
	var candidates []candidate
	for rgb, count := range counts {
		lightness, saturation := hsl(rgb)
		if lightness < 0.3 || lightness > 0.85 || saturation < 0.25 {
			continue
		}
		lightnessScore := lightness
		if lightness > 0.7 {
			lightnessScore = 0.7 - (lightness - 0.7)
		}
		score := saturation*2.5 + lightnessScore*1.5 + float64(count)/1000.0
		candidates = append(candidates, candidate{rgb: rgb, score: score})
	}

	if len(candidates) == 0 {
		colors, err := prominentcolor.Kmeans(img)
		if err != nil || len(colors) == 0 {
			return "", fmt.Errorf("no suitable colors found")
		}
		c := colors[0].Color
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B), nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score == candidates[j].score {
			return candidates[i].rgb < candidates[j].rgb
		}
		return candidates[i].score > candidates[j].score
	})
	return fmt.Sprintf("#%06x", candidates[0].rgb), nil
}

// hsl returns the lightness and saturation of a packed 0xRRGGBB color.
func hsl(rgb uint32) (lightness, saturation float64) {
	r := float64(rgb>>16&0xff) / 255
	g := float64(rgb>>8&0xff) / 255
	b := float64(rgb&0xff) / 255

	hi := max(r, g, b)
	low := min(r, g, b)
	lightness = (hi + low) / 2
	if hi == low {
		return lightness, 0
	}
	if lightness > 0.5 {
		return lightness, (hi - low) / (2 - hi - low)
	}
	return lightness, (hi - low) / (hi + low)
}

// supportsKittyGraphics reports whether the terminal speaks the Kitty
// graphics protocol.
func supportsKittyGraphics() bool {
	term := os.Getenv("TERM")
	if strings.Contains(term, "kitty") || strings.Contains(term, "konsole") {
		return true
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "ghostty", "WezTerm":
		return true
	}
	return false
}

// encodeArtworkForKitty resizes img to widthPixels and wraps it in Kitty
// graphics escapes sized to widthColumns cells.
func encodeArtworkForKitty(img image.Image, widthPixels, widthColumns int) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	resized := resize.Resize(uint(widthPixels), 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	payload := base64.StdEncoding.EncodeToString(buf.Bytes())

	// Payloads are sent in chunks of at most 4096 bytes; m=1 marks more to come.
	const chunkSize = 4096
	var out strings.Builder
	fmt.Fprintf(&out, "\033_Ga=d,d=I,i=%d\033\\", kittyImageID)
	for i := 0; i < len(payload); i += chunkSize {
		end := min(i+chunkSize, len(payload))
		more := 0
		if end < len(payload) {
			more = 1
		}
		if i == 0 {
			fmt.Fprintf(&out, "\033_Ga=T,f=100,t=d,i=%d,c=%d,C=1,m=%d;%s\033\\",
				kittyImageID, widthColumns, more, payload[i:end])
		} else {
			fmt.Fprintf(&out, "\033_Gm=%d;%s\033\\", more, payload[i:end])
		}
	}
	return out.String(), nil
}

// clearKittyImages deletes every image placement.
const clearKittyImages = "\033_Ga=d,d=A\033\\"
