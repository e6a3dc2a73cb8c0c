package fetch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vtonlab/vtonds/pkg/utils/retry"
)

const DefaultKaggleURL = "https://www.kaggle.com/api/v1"

// KaggleCredentials is a Kaggle API token, as in kaggle.json.
type KaggleCredentials struct {
	Username string `json:"username"`
	Key      string `json:"key"`
}

// KaggleConfigPath returns the path of kaggle.json.
//
// KAGGLE_CONFIG_DIR is respected. Otherwise, it is the per-OS default location.
func KaggleConfigPath(getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if dir := getenv("KAGGLE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "kaggle.json"), nil
	}
	home, err := kaggleHome(getenv)
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".kaggle", "kaggle.json"), nil
}

// LoadKaggleCredentials finds Kaggle API credentials.
//
// KAGGLE_USERNAME and KAGGLE_KEY take precedence over kaggle.json.
// When none are found, it returns an error wrapping ErrNoCredentials.
func LoadKaggleCredentials(getenv func(string) string) (KaggleCredentials, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if u, k := getenv("KAGGLE_USERNAME"), getenv("KAGGLE_KEY"); u != "" && k != "" {
		return KaggleCredentials{Username: u, Key: k}, nil
	}

	path, err := KaggleConfigPath(getenv)
	if err != nil {
		return KaggleCredentials{}, fmt.Errorf("%w: %w", ErrNoCredentials, err)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return KaggleCredentials{}, fmt.Errorf("%w: %s is not found", ErrNoCredentials, path)
		}
		return KaggleCredentials{}, err
	}

	cred := KaggleCredentials{}
	if err := json.Unmarshal(buf, &cred); err != nil {
		return KaggleCredentials{}, fmt.Errorf("%w: %s is broken: %w", ErrNoCredentials, path, err)
	}
	if cred.Username == "" || cred.Key == "" {
		return KaggleCredentials{}, fmt.Errorf("%w: %s lacks username or key", ErrNoCredentials, path)
	}
	return cred, nil
}

// Kaggle downloads a dataset archive with Kaggle API.
type Kaggle struct {
	// Slug is "owner/dataset".
	Slug string

	// BaseURL of Kaggle API. Default: DefaultKaggleURL.
	BaseURL string

	// Getenv looks up environment variables for credentials. Default: os.Getenv.
	Getenv func(string) string

	Client   *http.Client
	Progress io.Writer
	Backoff  func() retry.Backoff
}

func (k *Kaggle) Fetch(ctx context.Context, dest string) error {
	owner, name, ok := strings.Cut(k.Slug, "/")
	if !ok || owner == "" || name == "" {
		return fmt.Errorf("malformed kaggle dataset: %q (expected owner/dataset)", k.Slug)
	}

	cred, err := LoadKaggleCredentials(k.Getenv)
	if err != nil {
		return err
	}

	base := k.BaseURL
	if base == "" {
		base = DefaultKaggleURL
	}

	auth := base64.StdEncoding.EncodeToString([]byte(cred.Username + ":" + cred.Key))
	h := &HTTP{
		URL:      strings.TrimSuffix(base, "/") + "/datasets/download/" + owner + "/" + name,
		Header:   http.Header{"Authorization": {"Basic " + auth}},
		Client:   k.Client,
		Progress: k.Progress,
		Backoff:  k.Backoff,
	}
	return h.Fetch(ctx, dest)
}
