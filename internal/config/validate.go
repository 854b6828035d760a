package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
)

var bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAligner(); err != nil {
		return err
	}
	if err := c.validateDecoder(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAligner() error {
	if c.Aligner.TimeoutSeconds < 0 {
		return errors.New("aligner.timeout_seconds must be zero (no limit) or positive")
	}
	return nil
}

func (c *Config) validateDecoder() error {
	if c.Decoder.Workers < 1 || c.Decoder.Workers > 64 {
		return fmt.Errorf("decoder.workers must be between 1 and 64, got %d", c.Decoder.Workers)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind %q: %w", c.API.Bind, err)
	}
	if c.API.MaxBodyBytes < 0 {
		return errors.New("api.max_body_bytes must be positive")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.MaxRows < 0 {
		return errors.New("history.max_rows must be positive")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.S3Enabled {
		return nil
	}
	if c.Publish.S3Bucket == "" {
		return errors.New("publish.s3_bucket must be set when publish.s3_enabled is true")
	}
	if !bucketNamePattern.MatchString(c.Publish.S3Bucket) {
		return fmt.Errorf("publish.s3_bucket %q is not a valid bucket name", c.Publish.S3Bucket)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
