package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vtonlab/vtonds/pkg/progress"
	"github.com/vtonlab/vtonds/pkg/utils/retry"
)

// HTTP downloads a file with GET.
//
// Partial files are resumed with Range request. When the server ignores Range,
// the transfer restarts from the beginning.
type HTTP struct {
	URL string

	// Header is added to each request.
	Header http.Header

	Client   *http.Client
	Progress io.Writer
	Backoff  func() retry.Backoff
}

func (h *HTTP) Fetch(ctx context.Context, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	partial := dest + PartialSuffix

	newBackoff := h.Backoff
	if newBackoff == nil {
		newBackoff = DefaultBackoff
	}
	if _, err := retry.Blocking(ctx, newBackoff(), func() (struct{}, error) {
		return struct{}{}, h.attempt(ctx, dest, partial)
	}); err != nil {
		return err
	}

	return os.Rename(partial, dest)
}

func transient(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return fmt.Errorf("%w: %w", retry.ErrRetry, err)
}

// contentRangeStart parses "bytes <start>-<end>/<size>".
func contentRangeStart(header string) (int64, bool) {
	rest, ok := strings.CutPrefix(header, "bytes ")
	if !ok {
		return 0, false
	}
	start, _, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(start, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (h *HTTP) attempt(ctx context.Context, dest string, partial string) error {
	var offset int64
	if s, err := os.Stat(partial); err == nil {
		offset = s.Size()
	} else if !os.IsNotExist(err) {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return err
	}
	for k, vs := range h.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if 0 < offset {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return transient(ctx, err)
	}
	defer resp.Body.Close()

	flag := os.O_CREATE | os.O_WRONLY
	switch {
	case resp.StatusCode == http.StatusPartialContent:
		start, ok := contentRangeStart(resp.Header.Get("Content-Range"))
		if !ok || start != offset {
			// unusable range. start over.
			if err := os.Remove(partial); err != nil && !os.IsNotExist(err) {
				return err
			}
			return fmt.Errorf("%w: server responded range from %d, requested %d", retry.ErrRetry, start, offset)
		}
		flag |= os.O_APPEND
	case resp.StatusCode == http.StatusOK:
		flag |= os.O_TRUNC
		offset = 0
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && 0 < offset:
		// the partial file already has everything.
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || http.StatusInternalServerError <= resp.StatusCode:
		return fmt.Errorf("%w: %w: %s", retry.ErrRetry, ErrUnexpectedStatus, resp.Status)
	default:
		return fmt.Errorf("%w: %s (GET %s)", ErrUnexpectedStatus, resp.Status, h.URL)
	}

	if isHTML(resp) {
		// a web page in place of the file: login walls, quota pages, revoked links.
		return fmt.Errorf("%w: GET %s responded a web page, not a file", ErrManualDownloadRequired, h.URL)
	}

	total := int64(-1)
	if 0 <= resp.ContentLength {
		total = offset + resp.ContentLength
	}

	f, err := os.OpenFile(partial, flag, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	bar := progress.Bytes(
		h.Progress, total,
		fmt.Sprintf("downloading %s:", progress.Ellipsis(filepath.Base(dest), 40)),
	)
	bar.SetCurrent(offset)
	w := bar.NewProxyWriter(f) // do not close. bar is finished below.
	n, err := io.Copy(w, resp.Body)
	bar.Finish()
	if err != nil {
		return transient(ctx, err)
	}
	if 0 <= resp.ContentLength && n < resp.ContentLength {
		return transient(ctx, io.ErrUnexpectedEOF)
	}
	return nil
}
