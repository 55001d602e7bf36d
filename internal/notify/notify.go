// Package notify surfaces session status as freedesktop desktop
// notifications.
package notify

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Sebstrdigital/dua-talk/internal/config"
)

// Desktop sends replaceable desktop notifications over DBus. Each Notify
// call replaces the previous notification so status updates do not stack.
// It implements session.Notifier; failures are logged, never surfaced.
type Desktop struct {
	cfg    config.NotifyConfig
	logger *slog.Logger

	mu     sync.Mutex
	lastID uint32
}

// NewDesktop creates a desktop notifier from config.
func NewDesktop(cfg config.NotifyConfig, logger *slog.Logger) *Desktop {
	return &Desktop{cfg: cfg, logger: logger}
}

// Notify displays summary, replacing the previous notification.
func (d *Desktop) Notify(ctx context.Context, summary string) {
	if !d.cfg.Enable {
		return
	}

	appName := strings.TrimSpace(d.cfg.AppName)
	if appName == "" {
		appName = "duatalk"
	}
	timeoutMS := d.cfg.TimeoutMS
	if timeoutMS <= 0 {
		timeoutMS = 1600
	}

	d.mu.Lock()
	replaceID := d.lastID
	d.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()

	id, err := desktopNotify(runCtx, appName, replaceID, summary, timeoutMS)
	if err != nil {
		d.log("notification dispatch failed", err)
		return
	}

	d.mu.Lock()
	d.lastID = id
	d.mu.Unlock()
}

// log emits debug-only notifier failures to the runtime logger.
func (d *Desktop) log(message string, err error) {
	if d.logger == nil || err == nil {
		return
	}
	d.logger.Debug(message, "error", err.Error())
}
