package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/vtonlab/vtonds/pkg/fetch"
)

const warningPage = `<!DOCTYPE html><html><head><title>Google Drive - Virus scan warning</title></head>
<body><form id="download-form" action="%s" method="get">
<input type="hidden" name="id" value="%s">
<input type="hidden" name="export" value="download">
<input type="hidden" name="confirm" value="t">
<input type="hidden" name="uuid" value="0f1e2d3c">
</form></body></html>`

func TestGoogleDrive(t *testing.T) {
	t.Run("when drive shows the virus scan warning, it confirms and downloads", func(t *testing.T) {
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		defer srv.Close()

		mux.HandleFunc("/uc", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("id") != "FILEID" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, warningPage, srv.URL+"/download", "FILEID")
		})
		mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("id") != "FILEID" || q.Get("confirm") != "t" || q.Get("uuid") != "0f1e2d3c" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			serveContent(w, r)
		})

		dest := filepath.Join(t.TempDir(), "viton_hd.zip")
		testee := &fetch.GoogleDrive{
			FileID:     "FILEID",
			BaseURL:    srv.URL + "/uc",
			ContentURL: srv.URL + "/download",
			Backoff:    quickBackoff,
		}
		if err := testee.Fetch(context.Background(), dest); err != nil {
			t.Fatal(err)
		}
		assertFile(t, dest, payload)
	})

	t.Run("when drive serves the file directly, it downloads", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/zip")
			serveContent(w, r)
		}))
		defer srv.Close()

		dest := filepath.Join(t.TempDir(), "viton_hd.zip")
		testee := &fetch.GoogleDrive{FileID: "FILEID", BaseURL: srv.URL, Backoff: quickBackoff}
		if err := testee.Fetch(context.Background(), dest); err != nil {
			t.Fatal(err)
		}
		assertFile(t, dest, payload)
	})

	t.Run("when drive refuses with a page without confirmation, it requires manual download", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html><body>Too many users have viewed or downloaded this file recently.</body></html>")
		}))
		defer srv.Close()

		dest := filepath.Join(t.TempDir(), "viton_hd.zip")
		testee := &fetch.GoogleDrive{FileID: "FILEID", BaseURL: srv.URL, Backoff: quickBackoff}
		if err := testee.Fetch(context.Background(), dest); !errors.Is(err, fetch.ErrManualDownloadRequired) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
