package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"vector-area/internal/domain/entity"
	"vector-area/internal/logger"
)

type fakeMeasurer struct {
	m        *entity.Measurement
	err      error
	called   bool
	filename string
	data     []byte
}

func (f *fakeMeasurer) Measure(_ context.Context, filename string, data []byte) (*entity.Measurement, error) {
	f.called = true
	f.filename = filename
	f.data = data
	return f.m, f.err
}

type fakeHealth struct{ err error }

func (f fakeHealth) Available() error { return f.err }

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(m Measurer, h HealthChecker, maxUpload int64) *gin.Engine {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	return NewServer(m, h, metrics, maxUpload, logger.Discard()).Router()
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "nothing"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/calculate_area", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCalculateArea_Success(t *testing.T) {
	m := &fakeMeasurer{m: &entity.Measurement{
		AreaCM2:     0.25,
		BlackPixels: 2500,
		Width:       100,
		Height:      100,
		Resolution:  254,
		Preview:     []byte{0xff, 0xd8, 0xff},
		PreviewMIME: "image/jpeg",
	}}
	router := newTestServer(m, fakeHealth{}, 1<<20)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "file", "logo.ai", []byte("%PDF")))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "logo.ai", m.filename)
	require.Equal(t, []byte("%PDF"), m.data)

	var resp AreaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.InDelta(t, 0.25, resp.Area, 1e-12)
	require.Equal(t, int64(2500), resp.BlackPixels)
	require.Equal(t, 100, resp.Width)
	require.Equal(t, 100, resp.Height)
	require.Equal(t, 254.0, resp.DPI)
	require.Equal(t, "/9j/", resp.ImageBase64)
}

func TestCalculateArea_NoFileField(t *testing.T) {
	m := &fakeMeasurer{}
	router := newTestServer(m, fakeHealth{}, 1<<20)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "", "", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, string(entity.KindInvalidInput), decodeError(t, rec).Kind)
	require.False(t, m.called)
}

func TestCalculateArea_NotMultipart(t *testing.T) {
	m := &fakeMeasurer{}
	router := newTestServer(m, fakeHealth{}, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/calculate_area", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, m.called)
}

func TestCalculateArea_TooLarge(t *testing.T) {
	m := &fakeMeasurer{}
	router := newTestServer(m, fakeHealth{}, 512)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "file", "big.eps", bytes.Repeat([]byte("x"), 4096)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, m.called)
}

func TestCalculateArea_ErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   entity.ErrorKind
	}{
		{
			name:   "unsupported format",
			err:    entity.NewError(entity.KindInvalidInput, "only .ai and .eps files are accepted", nil),
			status: http.StatusBadRequest,
			kind:   entity.KindInvalidInput,
		},
		{
			name:   "converter missing",
			err:    errors.Wrap(entity.NewError(entity.KindUnavailable, "converter is not available", nil), "rasterize"),
			status: http.StatusServiceUnavailable,
			kind:   entity.KindUnavailable,
		},
		{
			name:   "conversion failed",
			err:    entity.NewError(entity.KindConversionFailed, "conversion failed", errors.New("no images defined")),
			status: http.StatusInternalServerError,
			kind:   entity.KindConversionFailed,
		},
		{
			name:   "unclassified",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			kind:   entity.KindInternal,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestServer(&fakeMeasurer{err: tc.err}, fakeHealth{}, 1<<20)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartRequest(t, "file", "logo.eps", []byte("%!PS")))

			require.Equal(t, tc.status, rec.Code)
			resp := decodeError(t, rec)
			require.Equal(t, string(tc.kind), resp.Kind)
			require.NotEmpty(t, resp.Error)
		})
	}
}

func TestCalculateArea_ConversionErrorCarriesDescription(t *testing.T) {
	err := entity.NewError(entity.KindConversionFailed, "conversion failed", errors.New("no images defined"))
	router := newTestServer(&fakeMeasurer{err: err}, fakeHealth{}, 1<<20)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "file", "logo.eps", []byte("%!PS")))

	require.Contains(t, decodeError(t, rec).Error, "no images defined")
}

func TestIndex(t *testing.T) {
	router := newTestServer(&fakeMeasurer{}, fakeHealth{}, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), `name="file"`)
}

func TestHealth(t *testing.T) {
	router := newTestServer(&fakeMeasurer{}, fakeHealth{}, 0)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	router = newTestServer(&fakeMeasurer{}, fakeHealth{err: errors.New("convert not found")}, 0)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "degraded", resp.Status)
	require.Equal(t, "convert not found", resp.Converter)
}

func TestMetricsRoute(t *testing.T) {
	router := newTestServer(&fakeMeasurer{}, fakeHealth{}, 0)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "# metrics", rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, StatusFor(entity.KindInvalidInput))
	require.Equal(t, http.StatusServiceUnavailable, StatusFor(entity.KindUnavailable))
	require.Equal(t, http.StatusInternalServerError, StatusFor(entity.KindConversionFailed))
	require.Equal(t, http.StatusInternalServerError, StatusFor(entity.KindInternal))
}
