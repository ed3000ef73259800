package display

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// MIME types used in display bundles
const (
	MIMEHTML       = "text/html"
	MIMEJavaScript = "application/javascript"
)

// Publisher is the rich display primitive pair offered by a notebook host
type Publisher interface {
	PublishHTML(markup string) error
	PublishJavaScript(script string) error
}

// Bundle is a Jupyter display_data payload
type Bundle struct {
	Data     map[string]string `json:"data"`
	Metadata map[string]any    `json:"metadata"`
}

// StreamPublisher writes each display instruction as one JSON line
type StreamPublisher struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStreamPublisher creates a publisher writing bundles to w
func NewStreamPublisher(w io.Writer) *StreamPublisher {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &StreamPublisher{enc: enc}
}

// PublishHTML publishes a block of markup
func (p *StreamPublisher) PublishHTML(markup string) error {
	return p.publish(MIMEHTML, markup)
}

// PublishJavaScript publishes a script fragment
func (p *StreamPublisher) PublishJavaScript(script string) error {
	return p.publish(MIMEJavaScript, script)
}

func (p *StreamPublisher) publish(mime, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := Bundle{
		Data:     map[string]string{mime: content},
		Metadata: map[string]any{},
	}
	if err := p.enc.Encode(b); err != nil {
		return fmt.Errorf("publishing %s: %w", mime, err)
	}
	return nil
}
