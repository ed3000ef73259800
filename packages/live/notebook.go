package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/abdul-hamid-achik/nbtest/packages/display"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ErrNoPublisher is returned when a notebook channel is requested without a
// display publisher
var ErrNoPublisher = errors.New("no display publisher")

// RegionPrefix prefixes every display region id
const RegionPrefix = "nbtest_"

// NotebookChannel appends progress glyphs to a display region in the host
// notebook
type NotebookChannel struct {
	pub       display.Publisher
	id        string
	limiter   *rate.Limiter
	pending   strings.Builder
	finalized bool
	logger    *slog.Logger
}

// NewNotebookChannel allocates a display region and binds a script handle to it
func NewNotebookChannel(pub display.Publisher, opts ...Option) (*NotebookChannel, error) {
	if pub == nil {
		return nil, ErrNoPublisher
	}
	o := buildOptions(opts)

	c := &NotebookChannel{
		pub:    pub,
		id:     newRegionID(),
		logger: o.logger,
	}
	if o.updateRate != rate.Inf && o.updateRate > 0 {
		c.limiter = rate.NewLimiter(o.updateRate, 1)
	}

	if err := pub.PublishHTML(fmt.Sprintf(`<div id="%s"></div>`, c.id)); err != nil {
		return nil, fmt.Errorf("creating display region: %w", err)
	}
	if err := pub.PublishJavaScript(fmt.Sprintf(`document.%s = document.getElementById("%s");`, c.id, c.id)); err != nil {
		return nil, fmt.Errorf("binding display region: %w", err)
	}
	return c, nil
}

// newRegionID returns a random 128 bit token usable as both an element id
// and a JavaScript identifier
func newRegionID() string {
	id := uuid.New()
	return RegionPrefix + strings.ReplaceAll(id.String(), "-", "")
}

// ID returns the display region id
func (c *NotebookChannel) ID() string {
	return c.id
}

// Publish appends text to the region. Text is escaped as markup and then as
// a script string literal.
func (c *NotebookChannel) Publish(text string) {
	if c.finalized || text == "" {
		return
	}
	c.pending.WriteString(text)
	if c.limiter != nil && !c.limiter.Allow() {
		return
	}
	c.flush()
}

// Finalize flushes buffered text and releases the script handle
func (c *NotebookChannel) Finalize() {
	if c.finalized {
		return
	}
	c.flush()
	c.finalized = true
	if err := c.pub.PublishJavaScript(fmt.Sprintf("delete document.%s;", c.id)); err != nil {
		c.logger.Warn("failed to release display region", "region", c.id, "error", err)
	}
}

func (c *NotebookChannel) flush() {
	if c.pending.Len() == 0 {
		return
	}
	text := c.pending.String()
	c.pending.Reset()

	span := jsString("<span>" + html.EscapeString(text) + "</span>")
	script := fmt.Sprintf(`document.%s.insertAdjacentHTML("beforeend", %s);`, c.id, span)
	if err := c.pub.PublishJavaScript(script); err != nil {
		c.logger.Warn("failed to publish progress", "region", c.id, "error", err)
	}
}

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
