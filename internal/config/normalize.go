package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStores(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeAPI()
	c.normalizeNotifications()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStores() error {
	var err error
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = filepath.Join(c.Paths.DataDir, "fingerprints.db")
	}
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	if strings.TrimSpace(c.Queue.Path) == "" {
		c.Queue.Path = filepath.Join(c.Paths.DataDir, "queue.db")
	}
	if c.Queue.Path, err = expandPath(c.Queue.Path); err != nil {
		return fmt.Errorf("queue.path: %w", err)
	}
	c.Queue.InboundQueue = strings.TrimSpace(c.Queue.InboundQueue)
	if c.Queue.InboundQueue == "" {
		c.Queue.InboundQueue = defaultInboundQueue
	}
	c.Queue.OutboundQueue = strings.TrimSpace(c.Queue.OutboundQueue)
	if c.Queue.OutboundQueue == "" {
		c.Queue.OutboundQueue = defaultOutboundQueue
	}
	return nil
}

func (c *Config) normalizeMatching() {
	c.Matching.RootFingerprintID1 = strings.TrimSpace(c.Matching.RootFingerprintID1)
	c.Matching.RootFingerprintID2 = strings.TrimSpace(c.Matching.RootFingerprintID2)
}

func (c *Config) normalizeAPI() {
	if c.API.Password == "" {
		if value, ok := os.LookupEnv("STATMATCH_API_PASSWORD"); ok {
			c.API.Password = value
		}
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.API.TokenURL = strings.TrimSpace(c.API.TokenURL)
	c.API.ClientID = strings.TrimSpace(c.API.ClientID)
	c.API.Username = strings.TrimSpace(c.API.Username)
	c.API.OrganizationID = strings.TrimSpace(c.API.OrganizationID)
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultAPITimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.ProcessTimeout <= 0 {
		c.Workflow.ProcessTimeout = defaultProcessTimeout
	}
	if c.Workflow.ReclaimAfter <= 0 {
		c.Workflow.ReclaimAfter = defaultReclaimAfter
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
