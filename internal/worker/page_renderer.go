package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// 预览图尺寸（CSS 像素），与 HTML 模板的桌面断点一致。
const (
	previewWidth  = 1200
	previewHeight = 1600
)

// Screenshotter 把一份完整的 HTML 文档渲染成 JPEG。
type Screenshotter interface {
	Screenshot(ctx context.Context, html string, quality int) ([]byte, error)
}

// RodScreenshotter 每次调用启动一个无头 Chromium，用完即关。
type RodScreenshotter struct {
	logger  *slog.Logger
	timeout time.Duration
}

func NewRodScreenshotter(logger *slog.Logger) *RodScreenshotter {
	return &RodScreenshotter{logger: logger, timeout: 60 * time.Second}
}

// Screenshot 用 SetDocumentContent 载入文档，等字体就绪后截取首屏。
func (r *RodScreenshotter) Screenshot(ctx context.Context, html string, quality int) (_ []byte, err error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	defer launch.Cleanup()

	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Context(ctx).Timeout(r.timeout)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             previewWidth,
		Height:            previewHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	// 外链字体可能加载失败，最多等 3 秒后继续
	if _, evalErr := page.Timeout(5 * time.Second).Eval(`() => {
	  if (document && document.fonts && document.fonts.ready) {
	    return Promise.race([
	      document.fonts.ready.then(() => true),
	      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
	    ]);
	  }
	  return true;
	}`); evalErr != nil {
		r.logger.Warn("document.fonts.ready wait failed, continue", slog.Any("error", evalErr))
	}

	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: intPtr(quality),
	})
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	return data, nil
}

func intPtr(value int) *int {
	return &value
}
