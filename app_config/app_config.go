package app_config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultPageSize           = 10
	DefaultCommentPreviewSize = 3
)

// This is the app config for the api server and the seeder.
type AppConfig struct {
	// Number of events, comments or users returned per page.
	PAGE_SIZE int `yaml:"PAGE_SIZE"`
	// Number of newest comments embedded into an event's presentation.
	COMMENT_PREVIEW_SIZE int `yaml:"COMMENT_PREVIEW_SIZE"`
	// Activity catalog, created by the seeder if missing.
	ACTIVITIES []string `yaml:"ACTIVITIES"`
	// Usernames granted the admin flag by the seeder.
	ADMINS []string `yaml:"ADMINS"`
}

// ParseAppConfig reads the yaml config at path, zero sizes fall back to the
// defaults.
func ParseAppConfig(path string) (AppConfig, error) {
	c := AppConfig{}
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "cannot read app config %s", path)
	}
	if err := yaml.Unmarshal(yamlFile, &c); err != nil {
		return c, errors.Wrapf(err, "cannot unmarshal app config %s", path)
	}
	c.applyDefaults()
	return c, nil
}

// DefaultAppConfig is used when no config file is provided.
func DefaultAppConfig() AppConfig {
	c := AppConfig{}
	c.applyDefaults()
	return c
}

func (c *AppConfig) applyDefaults() {
	if c.PAGE_SIZE <= 0 {
		c.PAGE_SIZE = DefaultPageSize
	}
	if c.COMMENT_PREVIEW_SIZE <= 0 {
		c.COMMENT_PREVIEW_SIZE = DefaultCommentPreviewSize
	}
}
