// Package settings loads vtonds configuration from a YAML file, a dotenv file
// and environment variables, in increasing order of precedence.
package settings

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/vtonlab/vtonds/cmd/vtonds/config/open"
	"github.com/vtonlab/vtonds/pkg/storage"
	kos "github.com/vtonlab/vtonds/pkg/utils/os"
	"github.com/vtonlab/vtonds/pkg/utils/yamler"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSettings = errors.New("settings are invalid")

const (
	DefaultBucket  = "p1-to-ep1"
	DefaultRegion  = "us-east-1"
	DefaultPrefix  = "baselines"
	DefaultTempDir = "./datasets_temp"
)

// environment variables overriding settings.
const (
	EnvBucket          = "S3_BUCKET_NAME"
	EnvRegion          = "S3_REGION"
	EnvEndpoint        = "S3_ENDPOINT"
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
)

type Credentials struct {
	AccessKeyID     string `yaml:"accessKeyId,omitempty"`
	SecretAccessKey string `yaml:"secretAccessKey,omitempty"`
}

type Settings struct {
	// Bucket is the S3 bucket name where datasets are uploaded.
	Bucket string `yaml:"bucket"`

	Region string `yaml:"region"`

	// Endpoint of S3 compatible storage. Empty means AWS.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Prefix is the key prefix under which datasets are placed.
	Prefix string `yaml:"prefix"`

	// TempDir is where datasets are downloaded and staged.
	TempDir string `yaml:"tempDir"`

	// Credentials are static AWS credentials.
	// When empty, the default credential chain of AWS SDK is used.
	Credentials Credentials `yaml:"credentials,omitempty"`

	// dotenv is variables read from the dotenv file.
	dotenv map[string]string
}

func Default() Settings {
	return Settings{
		Bucket:  DefaultBucket,
		Region:  DefaultRegion,
		Prefix:  DefaultPrefix,
		TempDir: DefaultTempDir,
	}
}

// Unmarshal reads YAML onto default settings.
func Unmarshal(buf []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(buf, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load builds settings.
//
// Values are taken from (in order of precedence) environment variables,
// the dotenv file at envFile, the YAML file at configFile and defaults.
// Missing files are ignored.
func Load(configFile string, envFile string) (Settings, error) {
	s := Default()
	if buf, err := os.ReadFile(configFile); err == nil {
		_s, err := Unmarshal(buf)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", configFile, err)
		}
		s = _s
	} else if !os.IsNotExist(err) {
		return Settings{}, err
	}

	dotenv := map[string]string{}
	if envFile != "" {
		if _dotenv, err := godotenv.Read(envFile); err == nil {
			dotenv = _dotenv
		} else if !os.IsNotExist(err) {
			return Settings{}, fmt.Errorf("%s: %w", envFile, err)
		}
	}
	s.dotenv = dotenv

	or := func(name string, fallback string) string {
		if v := dotenv[name]; v != "" {
			fallback = v
		}
		return kos.GetEnvOr(name, fallback)
	}
	s.Bucket = or(EnvBucket, s.Bucket)
	s.Region = or(EnvRegion, s.Region)
	s.Endpoint = or(EnvEndpoint, s.Endpoint)
	s.Credentials.AccessKeyID = or(EnvAccessKeyID, s.Credentials.AccessKeyID)
	s.Credentials.SecretAccessKey = or(EnvSecretAccessKey, s.Credentials.SecretAccessKey)

	return s, nil
}

// Getenv looks up an environment variable, then the dotenv file.
func (s Settings) Getenv(name string) string {
	return kos.GetEnvOr(name, s.dotenv[name])
}

func (s Settings) Verify() error {
	if s.Bucket == "" {
		return fmt.Errorf("%w: bucket is empty", ErrInvalidSettings)
	}
	if s.Region == "" {
		return fmt.Errorf("%w: region is empty", ErrInvalidSettings)
	}
	if (s.Credentials.AccessKeyID == "") != (s.Credentials.SecretAccessKey == "") {
		return fmt.Errorf(
			"%w: both of %s and %s should be set, or neither",
			ErrInvalidSettings, EnvAccessKeyID, EnvSecretAccessKey,
		)
	}
	return nil
}

func (s Settings) S3() storage.S3Config {
	return storage.S3Config{
		Bucket:          s.Bucket,
		Region:          s.Region,
		Endpoint:        s.Endpoint,
		AccessKeyID:     s.Credentials.AccessKeyID,
		SecretAccessKey: s.Credentials.SecretAccessKey,
	}
}

// Template is a commented YAML document of default settings.
func Template() *yaml.Node {
	d := Default()
	return yamler.Map(
		yamler.Entry(
			yamler.Text("bucket", yamler.WithHeadComment(
				"S3 bucket where datasets are uploaded.\nOverridden by "+EnvBucket+".",
			)),
			yamler.Text(d.Bucket),
		),
		yamler.Entry(
			yamler.Text("region", yamler.WithHeadComment("Overridden by "+EnvRegion+".")),
			yamler.Text(d.Region),
		),
		yamler.Entry(
			yamler.Text("endpoint", yamler.WithHeadComment(
				"Endpoint of S3 compatible storage (for example, MinIO).\nLeave it empty for AWS. Overridden by "+EnvEndpoint+".",
			)),
			yamler.Text("", yamler.WithStyle(yaml.DoubleQuotedStyle)),
		),
		yamler.Entry(
			yamler.Text("prefix", yamler.WithHeadComment("Datasets are uploaded to s3://<bucket>/<prefix>/<dataset>/.")),
			yamler.Text(d.Prefix),
		),
		yamler.Entry(
			yamler.Text("tempDir", yamler.WithHeadComment("Local directory for downloads and staging.")),
			yamler.Text(d.TempDir),
		),
		yamler.Entry(
			yamler.Text("credentials", yamler.WithHeadComment(
				"Static credentials. Leave them empty to use the default credential chain of AWS.\n"+
					"Overridden by "+EnvAccessKeyID+" and "+EnvSecretAccessKey+".",
			)),
			yamler.Map(
				yamler.Entry(yamler.Text("accessKeyId"), yamler.Text("", yamler.WithStyle(yaml.DoubleQuotedStyle))),
				yamler.Entry(yamler.Text("secretAccessKey"), yamler.Text("", yamler.WithStyle(yaml.DoubleQuotedStyle))),
			),
		),
	)
}

// WriteTemplate writes Template into a new file readable only by the owner.
//
// When force is false and the file exists, it fails with an error satisfying os.IsExist.
func WriteTemplate(path string, force bool) error {
	f, err := open.NewSafeFile(path, !force)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(Template()); err != nil {
		return err
	}
	return enc.Close()
}
