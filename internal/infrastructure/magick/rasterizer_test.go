package magick

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vector-area/internal/domain/entity"
	"vector-area/internal/logger"
)

const helperDocument = "%!PS-Adobe-3.0 EPSF-3.0"

// TestHelperProcess играет роль ImageMagick, когда тестовый бинарник запущен конвертером
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}

	switch os.Getenv("HELPER_MODE") {
	case "fail":
		fmt.Fprint(os.Stderr, "convert: no images defined `raster.png' @ error/convert.c/ConvertImageCommand/3322.\n")
		os.Exit(1)
	case "sleep":
		time.Sleep(30 * time.Second)
		os.Exit(0)
	case "silent":
		os.Exit(0)
	}

	// -density <dpi> <input> ... <output>
	if len(args) != 9 || args[0] != "-density" {
		fmt.Fprintf(os.Stderr, "unexpected args %q", args)
		os.Exit(2)
	}
	data, err := os.ReadFile(args[2])
	if err != nil || string(data) != helperDocument {
		fmt.Fprintf(os.Stderr, "bad input %v", err)
		os.Exit(3)
	}

	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
			if x < 10 {
				c = color.RGBA{A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(args[len(args)-1])
	if err != nil {
		os.Exit(4)
	}
	if err := png.Encode(f, img); err != nil {
		os.Exit(5)
	}
	f.Close()
	os.Exit(0)
}

func helperRasterizer(t *testing.T, mode string, timeout time.Duration) *Rasterizer {
	t.Helper()
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	t.Setenv("HELPER_MODE", mode)
	return NewRasterizer(Config{
		Command: os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--"},
		Timeout: timeout,
	}, logger.Discard())
}

func testJob(t *testing.T) entity.RasterJob {
	t.Helper()
	doc, err := entity.NewSourceDocument("badge.eps", []byte(helperDocument))
	require.NoError(t, err)
	dir := t.TempDir()
	return entity.RasterJob{
		Document:   doc,
		Resolution: 254,
		Quality:    90,
		Background: "white",
		InputPath:  filepath.Join(dir, "source.eps"),
		OutputPath: filepath.Join(dir, "raster.png"),
	}
}

func TestBuildArgs(t *testing.T) {
	r := NewRasterizer(Config{Command: "magick", Args: []string{"convert"}}, logger.Discard())
	job := entity.RasterJob{
		Resolution: 254,
		Quality:    90,
		Background: "white",
		InputPath:  "/tmp/x/source.ai",
		OutputPath: "/tmp/x/raster.png",
	}

	require.Equal(t, []string{
		"convert",
		"-density", "254",
		"/tmp/x/source.ai",
		"-quality", "90",
		"-background", "white",
		"-flatten",
		"/tmp/x/raster.png",
	}, r.BuildArgs(job))

	job.Resolution = 127.5
	require.Equal(t, "127.5", r.BuildArgs(job)[2])
}

func TestRasterize_Success(t *testing.T) {
	r := helperRasterizer(t, "ok", 0)
	job := testJob(t)

	img, err := r.Rasterize(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())

	cr, _, _, _ := img.At(0, 0).RGBA()
	require.Zero(t, cr)
	cr, _, _, _ = img.At(19, 0).RGBA()
	require.Equal(t, uint32(0xffff), cr)
}

func TestRasterize_ConverterFails(t *testing.T) {
	r := helperRasterizer(t, "fail", 0)

	_, err := r.Rasterize(context.Background(), testJob(t))
	require.Error(t, err)
	require.Equal(t, entity.KindConversionFailed, entity.KindOf(err))
	require.Contains(t, err.Error(), "no images defined")
}

func TestRasterize_NoOutput(t *testing.T) {
	r := helperRasterizer(t, "silent", 0)

	_, err := r.Rasterize(context.Background(), testJob(t))
	require.Equal(t, entity.KindInternal, entity.KindOf(err))
}

func TestRasterize_Timeout(t *testing.T) {
	r := helperRasterizer(t, "sleep", 200*time.Millisecond)

	started := time.Now()
	_, err := r.Rasterize(context.Background(), testJob(t))
	require.Equal(t, entity.KindConversionFailed, entity.KindOf(err))
	require.Less(t, time.Since(started), 20*time.Second)
}

func TestRasterize_ConverterMissing(t *testing.T) {
	r := NewRasterizer(Config{Command: "vector-area-no-such-converter"}, logger.Discard())
	job := testJob(t)

	_, err := r.Rasterize(context.Background(), job)
	require.Equal(t, entity.KindUnavailable, entity.KindOf(err))
	require.Error(t, r.Available())

	_, statErr := os.Stat(job.OutputPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestRasterize_ConverterPathMissing(t *testing.T) {
	r := NewRasterizer(Config{Command: filepath.Join(t.TempDir(), "magick")}, logger.Discard())

	_, err := r.Rasterize(context.Background(), testJob(t))
	require.Equal(t, entity.KindUnavailable, entity.KindOf(err))
}

func TestRasterize_RejectsUnsupportedFormat(t *testing.T) {
	r := helperRasterizer(t, "ok", 0)
	job := testJob(t)
	job.Document = &entity.SourceDocument{Filename: "x.png", Format: "png", Data: []byte("x")}

	_, err := r.Rasterize(context.Background(), job)
	require.Equal(t, entity.KindInvalidInput, entity.KindOf(err))

	// конвертер не запускался, входной файл даже не записан
	_, statErr := os.Stat(job.InputPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestRasterize_RasterTooLarge(t *testing.T) {
	r := helperRasterizer(t, "ok", 0)
	r.cfg.Limits.MaxPixels = 100

	_, err := r.Rasterize(context.Background(), testJob(t))
	require.Equal(t, entity.KindInvalidInput, entity.KindOf(err))
}

func TestAvailable(t *testing.T) {
	r := NewRasterizer(Config{Command: os.Args[0]}, logger.Discard())
	require.NoError(t, r.Available())
}
