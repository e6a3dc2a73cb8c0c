package settings_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vtonlab/vtonds/cmd/vtonds/config/settings"
	"github.com/vtonlab/vtonds/pkg/utils/try"
)

func write(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// clearEnv makes variables empty during the test, which GetEnvOr treats as missing.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		settings.EnvBucket, settings.EnvRegion, settings.EnvEndpoint,
		settings.EnvAccessKeyID, settings.EnvSecretAccessKey,
	} {
		t.Setenv(name, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("when no files are there, it returns defaults", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		s := try.To(settings.Load(filepath.Join(dir, "vtonds.yaml"), filepath.Join(dir, ".env"))).OrFatal(t)
		if s.Bucket != "p1-to-ep1" || s.Region != "us-east-1" || s.Prefix != "baselines" || s.TempDir != "./datasets_temp" {
			t.Errorf("settings: %+v", s)
		}
	})

	t.Run("yaml overrides defaults, dotenv overrides yaml, environment overrides dotenv", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		config := write(t, dir, "vtonds.yaml", `
bucket: from-yaml
region: ap-northeast-1
endpoint: http://minio.invalid:9000
prefix: research/baselines
credentials:
  accessKeyId: yaml-key
  secretAccessKey: yaml-secret
`)
		env := write(t, dir, ".env", "S3_REGION=eu-west-1\nAWS_ACCESS_KEY_ID=dotenv-key\nKAGGLE_USERNAME=someone\n")
		t.Setenv(settings.EnvAccessKeyID, "env-key")

		s := try.To(settings.Load(config, env)).OrFatal(t)
		if s.Bucket != "from-yaml" {
			t.Errorf("bucket: %s", s.Bucket)
		}
		if s.Region != "eu-west-1" {
			t.Errorf("region: %s", s.Region)
		}
		if s.Endpoint != "http://minio.invalid:9000" {
			t.Errorf("endpoint: %s", s.Endpoint)
		}
		if s.Prefix != "research/baselines" || s.TempDir != "./datasets_temp" {
			t.Errorf("settings: %+v", s)
		}
		if s.Credentials.AccessKeyID != "env-key" || s.Credentials.SecretAccessKey != "yaml-secret" {
			t.Errorf("credentials: %+v", s.Credentials)
		}
		if u := s.Getenv("KAGGLE_USERNAME"); u != "someone" {
			t.Errorf("dotenv lookup: %s", u)
		}

		conf := s.S3()
		if conf.Bucket != "from-yaml" || conf.Region != "eu-west-1" || conf.AccessKeyID != "env-key" {
			t.Errorf("s3 config: %+v", conf)
		}
	})

	t.Run("when yaml is broken, it returns error", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		config := write(t, dir, "vtonds.yaml", "bucket: [unclosed\n")
		if _, err := settings.Load(config, ""); err == nil {
			t.Error("no error")
		}
	})
}

func TestVerify(t *testing.T) {
	for name, testcase := range map[string]struct {
		settings settings.Settings
		ok       bool
	}{
		"defaults are valid": {settings: settings.Default(), ok: true},
		"empty bucket is invalid": {
			settings: settings.Settings{Region: "us-east-1"},
		},
		"empty region is invalid": {
			settings: settings.Settings{Bucket: "b"},
		},
		"a half of credentials is invalid": {
			settings: settings.Settings{
				Bucket: "b", Region: "us-east-1",
				Credentials: settings.Credentials{AccessKeyID: "key"},
			},
		},
		"full credentials are valid": {
			settings: settings.Settings{
				Bucket: "b", Region: "us-east-1",
				Credentials: settings.Credentials{AccessKeyID: "key", SecretAccessKey: "secret"},
			},
			ok: true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			err := testcase.settings.Verify()
			if testcase.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !testcase.ok && !errors.Is(err, settings.ErrInvalidSettings) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestWriteTemplate(t *testing.T) {
	t.Run("template is loaded as default settings", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "vtonds.yaml")
		if err := settings.WriteTemplate(path, false); err != nil {
			t.Fatal(err)
		}

		s := try.To(settings.Load(path, "")).OrFatal(t)
		expected := settings.Default()
		if s.Bucket != expected.Bucket || s.Region != expected.Region || s.Prefix != expected.Prefix || s.TempDir != expected.TempDir || s.Endpoint != "" {
			t.Errorf("settings: %+v", s)
		}
	})

	t.Run("it does not overwrite without force", func(t *testing.T) {
		path := write(t, t.TempDir(), "vtonds.yaml", "bucket: mine\n")
		if err := settings.WriteTemplate(path, false); !os.IsExist(err) {
			t.Errorf("unexpected error: %v", err)
		}
		if err := settings.WriteTemplate(path, true); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
