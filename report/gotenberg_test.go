package report

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

func TestRenderPDFSendsBothParts(t *testing.T) {
	var gotPath string
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 ok"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	out, err := client.RenderPDF(context.Background(), "<html>doc</html>", "body{color:red}")
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.7 ok"), out)
	require.Equal(t, "/forms/chromium/convert/html", gotPath)
	require.Contains(t, gotBody, `filename="index.html"`)
	require.Contains(t, gotBody, `filename="styles.css"`)
	require.Contains(t, gotBody, "body{color:red}")
}

func TestRenderPDFMapsServerErrorToRenderFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "layout exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.RenderPDF(context.Background(), "<html>", "")
	require.ErrorIs(t, err, httpx.ErrRenderFailed)
}

func TestRenderPDFMapsTruncatedBodyToRenderFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Promise more bytes than arrive so the body read fails mid-stream.
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, err := client.RenderPDF(context.Background(), "<html>", "")
	require.ErrorIs(t, err, httpx.ErrRenderFailed)
}

func TestRenderPDFTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 50*time.Millisecond)
	_, err := client.RenderPDF(context.Background(), "<html>", "")
	require.ErrorIs(t, err, httpx.ErrRenderTimeout)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/health") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL, time.Second).Ping(context.Background()))
}
