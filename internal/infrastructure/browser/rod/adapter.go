package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vahan-scraper/internal/application/port/output"
	"vahan-scraper/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrInvalidSelector = errors.New("invalid selector")
	ErrElementNotFound = errors.New("element not found")
	ErrClosed          = errors.New("browser closed")
)

const (
	defaultSlowMotion   = 0
	defaultTimeout      = 20 * time.Second
	defaultProbeTimeout = 2 * time.Second
	maxScreenshotWidth  = 1024
)

type BrowserAdapter struct {
	mu           sync.Mutex
	browser      *rod.Browser
	launcher     *launcher.Launcher
	page         *rod.Page
	timeout      time.Duration
	probeTimeout time.Duration
	settle       time.Duration
	closed       bool
}

type BrowserConfig struct {
	Headless     bool
	SlowMotion   time.Duration
	Timeout      time.Duration
	ProbeTimeout time.Duration
	// Settle is how long to wait for network idle after navigation and clicks.
	Settle      time.Duration
	NoSandbox   bool
	DevTools    bool
	DownloadDir string
	WindowSize  string
	// Bin is an optional browser binary; empty lets rod find or fetch one.
	Bin string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:     true,
		SlowMotion:   defaultSlowMotion,
		Timeout:      defaultTimeout,
		ProbeTimeout: defaultProbeTimeout,
		Settle:       2 * time.Second,
		NoSandbox:    true,
		DevTools:     false,
		DownloadDir:  "downloads",
		WindowSize:   "1920,1080",
	}
}

// NewBrowserAdapter launches a browser, opens a blank page and routes
// downloads into cfg.DownloadDir.
func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Set("disable-dev-shm-usage")
	if cfg.WindowSize != "" {
		l = l.Set("window-size", cfg.WindowSize)
	}
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(controlURL).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	if cfg.DownloadDir != "" {
		dir, err := filepath.Abs(cfg.DownloadDir)
		if err != nil {
			_ = browser.Close()
			l.Kill()
			return nil, fmt.Errorf("resolve download dir: %w", err)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			_ = browser.Close()
			l.Kill()
			return nil, fmt.Errorf("create download dir: %w", err)
		}
		err = proto.BrowserSetDownloadBehavior{
			Behavior:     proto.BrowserSetDownloadBehaviorBehaviorAllow,
			DownloadPath: dir,
		}.Call(browser)
		if err != nil {
			_ = browser.Close()
			l.Kill()
			return nil, fmt.Errorf("set download behavior: %w", err)
		}
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &BrowserAdapter{
		browser:      browser,
		launcher:     l,
		page:         page,
		timeout:      cfg.Timeout,
		probeTimeout: cfg.ProbeTimeout,
		settle:       cfg.Settle,
	}, nil
}

func (b *BrowserAdapter) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && b.page != nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}
	page, err := b.activePage(ctx)
	if err != nil {
		return err
	}

	if err := page.Timeout(b.timeout).Navigate(rawURL); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.Timeout(b.timeout).WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	if b.settle > 0 {
		_ = page.WaitIdle(b.settle)
	}
	return nil
}

func (b *BrowserAdapter) Click(ctx context.Context, selector string) error {
	page, err := b.activePage(ctx)
	if err != nil {
		return err
	}

	el, err := b.find(page.Timeout(b.timeout), selector)
	if err != nil {
		return err
	}

	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	if b.settle > 0 {
		_ = page.WaitIdle(b.settle)
	}
	return nil
}

// Inspect reads the attributes checkbox probes care about. It waits at most
// the probe timeout for the element to appear.
func (b *BrowserAdapter) Inspect(ctx context.Context, selector string) (*entity.ElementState, error) {
	page, err := b.activePage(ctx)
	if err != nil {
		return nil, err
	}

	el, err := b.find(page.Timeout(b.probeTimeout), selector)
	if err != nil {
		return nil, err
	}

	state := &entity.ElementState{
		Class:       attr(el, "class"),
		AriaChecked: attr(el, "aria-checked"),
	}
	if checked, err := el.Attribute("checked"); err == nil && checked != nil {
		state.Checked = true
	}
	if text, err := el.Text(); err == nil {
		state.Text = strings.TrimSpace(text)
	}
	if parent, err := el.Parent(); err == nil {
		state.ParentClass = attr(parent, "class")
	}
	return state, nil
}

func (b *BrowserAdapter) OuterHTML(ctx context.Context, selector string) (string, error) {
	page, err := b.activePage(ctx)
	if err != nil {
		return "", err
	}

	el, err := b.find(page.Timeout(b.probeTimeout), selector)
	if err != nil {
		return "", err
	}

	html, err := el.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	page, err := b.activePage(ctx)
	if err != nil {
		return nil, err
	}

	imgBytes, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (b *BrowserAdapter) CurrentURL() string {
	page, err := b.activePage(context.Background())
	if err != nil {
		return ""
	}
	info, err := page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

func (b *BrowserAdapter) activePage(ctx context.Context) (*rod.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.page == nil {
		return nil, ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return b.page.Context(ctx), nil
}

func (b *BrowserAdapter) find(page *rod.Page, selector string) (*rod.Element, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, ErrInvalidSelector
	}

	var (
		el  *rod.Element
		err error
	)
	if isXPath(selector) {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrElementNotFound, selector, err)
	}
	return el, nil
}

func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(")
}

func validateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "http", "https", "file":
		return nil
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
}

func attr(el *rod.Element, name string) string {
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}
