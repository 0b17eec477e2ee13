// Command validate checks a rendered frame before it is pushed to a panel:
// the PNG must have the panel's dimensions and use only palette colors.
//
// Usage:
//
//	go run ./cmd/validate -frame radar.png -width 800 -height 480 \
//	  -palette '#ffffff,#000000,#ff0000,#ffff00,#00ff00,#0000ff'
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sort"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

// maxErrors caps per-phase detail so a wrong palette does not print every pixel.
const maxErrors = 20

func (p *phase) errorf(format string, args ...any) {
	if len(p.errors) < maxErrors {
		p.errors = append(p.errors, fmt.Sprintf(format, args...))
	}
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	framePath := flag.String("frame", "radar.png", "path to the rendered PNG frame")
	width := flag.Int("width", 800, "expected frame width in pixels")
	height := flag.Int("height", 480, "expected frame height in pixels")
	paletteFlag := flag.String("palette", "", "comma-separated hex palette (default: six-color panel palette)")
	minColors := flag.Int("min-colors", 2, "fail when the frame uses fewer distinct colors (blank renders)")
	flag.Parse()

	if code := run(*framePath, image.Pt(*width, *height), *paletteFlag, *minColors); code != 0 {
		os.Exit(code)
	}
}

func run(framePath string, size image.Point, paletteFlag string, minColors int) int {
	palette := domain.DefaultPalette
	if paletteFlag != "" {
		p, err := domain.ParsePalette(paletteFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: parse palette: %v\n", err)
			return 1
		}
		palette = p
	}

	frame, err := loadPNG(framePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load frame: %v\n", err)
		return 1
	}

	counts := histogram(frame)
	phases := []*phase{
		validateSize(frame, size),
		validatePalette(counts, palette),
		validateDetail(counts, minColors),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Frame: %s, %d distinct colors\n", frame.Bounds().Size(), len(counts))
	for _, c := range sortedColors(counts) {
		fmt.Printf("  #%02x%02x%02x %7d px\n", c.R, c.G, c.B, counts[c])
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// histogram counts pixels by opaque RGB color.
func histogram(img image.Image) map[color.RGBA]int {
	counts := make(map[color.RGBA]int)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			counts[color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}]++
		}
	}
	return counts
}

func sortedColors(counts map[color.RGBA]int) []color.RGBA {
	out := make([]color.RGBA, 0, len(counts))
	for c := range counts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return counts[out[i]] > counts[out[j]] })
	return out
}

func validateSize(img image.Image, want image.Point) *phase {
	p := &phase{name: "Phase 1: Frame size"}
	if got := img.Bounds().Size(); got != want {
		p.errorf("frame is %s, panel is %s", got, want)
	}
	return p
}

func validatePalette(counts map[color.RGBA]int, palette domain.Palette) *phase {
	p := &phase{name: "Phase 2: Palette conformance"}
	allowed := make(map[color.RGBA]bool, len(palette))
	for _, c := range palette {
		allowed[color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}] = true
	}
	for _, c := range sortedColors(counts) {
		if !allowed[c] {
			p.errorf("#%02x%02x%02x is not a panel color (%d px)", c.R, c.G, c.B, counts[c])
		}
	}
	return p
}

func validateDetail(counts map[color.RGBA]int, minColors int) *phase {
	p := &phase{name: "Phase 3: Frame detail"}
	if len(counts) < minColors {
		p.errorf("frame uses %d colors, expected at least %d", len(counts), minColors)
	}
	return p
}
