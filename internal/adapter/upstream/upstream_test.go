package upstream

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/storm-radar-display/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestClient_GetSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "storm-radar-display/test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New("nws", 5*time.Second)
	c.Header.Set("User-Agent", "storm-radar-display/test")

	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestClient_GetStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid apiKey"}`))
	}))
	defer srv.Close()

	_, err := New("geoapify", 5*time.Second).Get(context.Background(), srv.URL)
	require.Error(t, err)

	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "geoapify", fe.Source)
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
	assert.Contains(t, err.Error(), "Invalid apiKey")
}

func TestClient_GetTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := New("noaa", 50*time.Millisecond).Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, "fetch", domain.ErrorKind(err))
}

func TestClient_GetImage(t *testing.T) {
	data := pngBytes(t, 4, 3, color.NRGBA{R: 255, A: 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	img, err := New("noaa", 5*time.Second).GetImage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 3), img.Bounds().Size())
}

func TestClient_GetImageDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<ServiceExceptionReport/>"))
	}))
	defer srv.Close()

	_, err := New("noaa", 5*time.Second).GetImage(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, "decode", domain.ErrorKind(err))
}
