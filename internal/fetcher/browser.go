package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"bwf-news-parser/internal/config"
	"bwf-news-parser/internal/observability"
)

// Browser headless Chrome для страниц, которые отдают заглушку простому HTTP-клиенту.
// Запускается лениво при первом запросе.
type Browser struct {
	cfg       config.RodConfig
	userAgent string
	logger    *observability.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewBrowser(cfg config.RodConfig, userAgent string, logger *observability.Logger) *Browser {
	return &Browser{cfg: cfg, userAgent: userAgent, logger: logger}
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().Headless(true).Leakless(true)
	if b.cfg.ChromePath != "" {
		l = l.Bin(b.cfg.ChromePath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}

	b.logger.Info("Headless browser started", "control_url", controlURL)
	b.launcher = l
	b.browser = browser
	return browser, nil
}

// Render открывает страницу, ждёт загрузки и ленивых картинок, отдаёт итоговый HTML
func (b *Browser) Render(ctx context.Context, target string) (string, error) {
	browser, err := b.connect()
	if err != nil {
		return "", err
	}

	pageTimeout := time.Duration(b.cfg.PageTimeoutS) * time.Second
	page, err := browser.Context(ctx).Timeout(pageTimeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if b.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.userAgent}); err != nil {
			return "", fmt.Errorf("failed to set user agent: %w", err)
		}
	}
	if err := page.Navigate(target); err != nil {
		return "", fmt.Errorf("failed to navigate to %s: %w", target, err)
	}

	waitLoad := time.Duration(b.cfg.WaitLoadTimeoutS) * time.Second
	if err := page.Timeout(waitLoad).WaitLoad(); err != nil {
		return "", fmt.Errorf("page load timeout for %s: %w", target, err)
	}

	if delay := time.Duration(b.cfg.LazyLoadDelayS) * time.Second; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	if b.launcher != nil {
		b.launcher.Kill()
	}
	b.browser = nil
	b.launcher = nil
	return err
}
