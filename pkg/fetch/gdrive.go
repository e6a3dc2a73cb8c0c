package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/vtonlab/vtonds/pkg/utils/retry"
)

const (
	DefaultGoogleDriveURL        = "https://drive.google.com/uc"
	DefaultGoogleDriveContentURL = "https://drive.usercontent.google.com/download"
)

// GoogleDrive downloads a publicly shared Google Drive file.
//
// Large files are served after an HTML page warning that they cannot be
// scanned for viruses. GoogleDrive reads confirmation parameters from the page
// and downloads the file from ContentURL with them.
type GoogleDrive struct {
	FileID string

	// BaseURL is the endpoint of the first request. Default: DefaultGoogleDriveURL.
	BaseURL string

	// ContentURL is the endpoint of confirmed downloads. Default: DefaultGoogleDriveContentURL.
	ContentURL string

	Client   *http.Client
	Progress io.Writer
	Backoff  func() retry.Backoff
}

var (
	reConfirmInput = regexp.MustCompile(`name="confirm"\s+value="([^"]+)"`)
	reUUIDInput    = regexp.MustCompile(`name="uuid"\s+value="([^"]+)"`)
	reConfirmQuery = regexp.MustCompile(`confirm=([0-9A-Za-z_\-]+)`)
)

// confirmation extracts confirm token and uuid from the warning page.
func confirmation(page string) (confirm string, uuid string, ok bool) {
	if m := reConfirmInput.FindStringSubmatch(page); m != nil {
		confirm = m[1]
	} else if m := reConfirmQuery.FindStringSubmatch(page); m != nil {
		confirm = m[1]
	} else {
		return "", "", false
	}
	if m := reUUIDInput.FindStringSubmatch(page); m != nil {
		uuid = m[1]
	}
	return confirm, uuid, true
}

func isHTML(resp *http.Response) bool {
	mediatype, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mediatype == "text/html"
}

// resolve returns URL which responds the file content.
func (g *GoogleDrive) resolve(ctx context.Context, client *http.Client) (string, error) {
	base := g.BaseURL
	if base == "" {
		base = DefaultGoogleDriveURL
	}
	direct := base + "?" + url.Values{"export": {"download"}, "id": {g.FileID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, direct, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s (GET %s)", ErrUnexpectedStatus, resp.Status, direct)
	}
	if !isHTML(resp) {
		return direct, nil
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	confirm, uuid, ok := confirmation(string(page))
	if !ok {
		for _, c := range resp.Cookies() {
			if strings.HasPrefix(c.Name, "download_warning") {
				confirm, ok = c.Value, true
				break
			}
		}
	}
	if !ok {
		return "", fmt.Errorf(
			"%w: google drive did not offer the file %s (quota exceeded or access denied)",
			ErrManualDownloadRequired, g.FileID,
		)
	}

	content := g.ContentURL
	if content == "" {
		content = DefaultGoogleDriveContentURL
	}
	q := url.Values{"export": {"download"}, "id": {g.FileID}, "confirm": {confirm}}
	if uuid != "" {
		q.Set("uuid", uuid)
	}
	return content + "?" + q.Encode(), nil
}

func (g *GoogleDrive) Fetch(ctx context.Context, dest string) error {
	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	u, err := g.resolve(ctx, client)
	if err != nil {
		return err
	}

	h := &HTTP{URL: u, Client: client, Progress: g.Progress, Backoff: g.Backoff}
	return h.Fetch(ctx, dest)
}
