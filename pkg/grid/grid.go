// Package grid renders a contact sheet of downloaded images.
package grid

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/image/draw"
	apperrors "imgurdl/pkg/errors"
	"imgurdl/pkg/logger"
)

// ErrNoImages is returned when the source directory has nothing to render
var ErrNoImages = errors.New("no images to render")

// Options describes what to render and where
type Options struct {
	SourceDir string
	Extension string
	Output    string
	Columns   int
	ThumbSize int
	Quality   int
	Logger    logger.Logger
}

// Background fills cells around letterboxed thumbnails
var Background = color.RGBA{R: 24, G: 24, B: 24, A: 255}

// Result describes a rendered sheet
type Result struct {
	Output  string
	Images  int
	Skipped int
	Width   int
	Height  int
}

// Render tiles every image in SourceDir, sorted by name, into square cells
// Columns wide and writes the sheet as a JPEG to Output. Files that do not
// decode are skipped.
func Render(opts Options) (*Result, error) {
	if opts.Columns <= 0 || opts.ThumbSize <= 0 {
		return nil, apperrors.New(apperrors.ErrorTypeConfig, 0, "grid columns and thumb size must be positive")
	}
	if opts.Quality <= 0 {
		opts.Quality = jpeg.DefaultQuality
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	paths, err := filepath.Glob(filepath.Join(opts.SourceDir, "*"+opts.Extension))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, "")
	}
	sort.Strings(paths)

	outAbs, _ := filepath.Abs(opts.Output)
	var thumbs []image.Image
	skipped := 0
	for _, path := range paths {
		if abs, _ := filepath.Abs(path); abs == outAbs {
			continue
		}
		img, err := decodeFile(path)
		if err != nil {
			skipped++
			log.WithError(err).WarnWithFields("Skipping undecodable image", map[string]interface{}{
				"path": path,
			})
			continue
		}
		thumbs = append(thumbs, img)
	}
	if len(thumbs) == 0 {
		return nil, ErrNoImages
	}

	cols := opts.Columns
	if len(thumbs) < cols {
		cols = len(thumbs)
	}
	rows := (len(thumbs) + cols - 1) / cols
	size := opts.ThumbSize

	sheet := image.NewRGBA(image.Rect(0, 0, cols*size, rows*size))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	for i, img := range thumbs {
		cell := image.Rect(0, 0, size, size).Add(image.Pt((i%cols)*size, (i/cols)*size))
		draw.CatmullRom.Scale(sheet, fit(img.Bounds(), cell), img, img.Bounds(), draw.Over, nil)
	}

	if err := writeJPEG(opts.Output, sheet, opts.Quality); err != nil {
		return nil, err
	}

	log.InfoWithFields("Grid rendered", map[string]interface{}{
		"output":  opts.Output,
		"images":  len(thumbs),
		"columns": cols,
		"rows":    rows,
	})
	return &Result{
		Output:  opts.Output,
		Images:  len(thumbs),
		Skipped: skipped,
		Width:   sheet.Bounds().Dx(),
		Height:  sheet.Bounds().Dy(),
	}, nil
}

// fit returns the largest rectangle with src's aspect ratio centred in cell
func fit(src, cell image.Rectangle) image.Rectangle {
	w, h := src.Dx(), src.Dy()
	cw, ch := cell.Dx(), cell.Dy()
	if w <= 0 || h <= 0 {
		return cell
	}

	if w*ch > h*cw {
		h = h * cw / w
		w = cw
	} else {
		w = w * ch / h
		h = ch
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	x := cell.Min.X + (cw-w)/2
	y := cell.Min.Y + (ch-h)/2
	return image.Rect(x, y, x+w, y+h)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func writeJPEG(path string, img image.Image, quality int) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".imgurdl-grid-*.part")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, fmt.Sprintf("failed to create grid file: %v", err))
	}
	tmpName := tmp.Name()

	encErr := jpeg.Encode(tmp, img, &jpeg.Options{Quality: quality})
	closeErr := tmp.Close()
	if err := errors.Join(encErr, closeErr); err != nil {
		os.Remove(tmpName)
		return apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, fmt.Sprintf("failed to write grid: %v", err))
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, "")
	}
	return nil
}
