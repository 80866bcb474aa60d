package publish

import (
	"strings"

	"github.com/flarebyte/nbrun/internal/config"
	"github.com/flarebyte/nbrun/internal/errors"
)

// Config locates the bucket that receives run artifacts.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

// ConfigFromSettings copies the publish.* settings.
func ConfigFromSettings(s config.PublishSettings) Config {
	return Config{
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		Region:    s.Region,
		UseSSL:    s.UseSSL,
		Bucket:    s.Bucket,
		Prefix:    s.Prefix,
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.WithHint(errors.New("endpoint is required"), "set publish.endpoint or NBRUN_PUBLISH_ENDPOINT")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.WithHint(errors.New("access key is required"), "set NBRUN_PUBLISH_ACCESS_KEY")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.WithHint(errors.New("secret key is required"), "set NBRUN_PUBLISH_SECRET_KEY")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.WithHint(errors.New("bucket is required"), "set publish.bucket or NBRUN_PUBLISH_BUCKET")
	}
	if strings.Contains(c.Endpoint, "://") {
		return errors.Newf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}
