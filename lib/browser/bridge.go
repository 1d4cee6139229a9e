package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Bridge talks to the browser-automation sidecar over its local HTTP API.
// One POST per primitive; the sidecar owns the real page, its timeouts and
// the authenticated session. Waits are bounded on both sides: the sidecar
// enforces its own selector timeout and the resty client gives up after
// WaitTimeout regardless.
type Bridge struct {
	http *resty.Client
}

type BridgeOptions struct {
	BaseUrl string
	// upper bound for a single primitive, defaults to 30s
	WaitTimeout time.Duration
}

func NewBridge(opts BridgeOptions) *Bridge {
	timeout := opts.WaitTimeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetTimeout(timeout)

	return &Bridge{http: client}
}

type bridgeResult struct {
	Ok     bool   `json:"ok"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

func (b *Bridge) call(ctx context.Context, op string, body map[string]string) (string, error) {
	var result bridgeResult
	res, err := b.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/" + op)
	if err != nil {
		return "", err
	}
	if res.StatusCode() != 200 {
		return "", fmt.Errorf("bridge %s: status %d", op, res.StatusCode())
	}
	if !result.Ok {
		return "", fmt.Errorf("bridge %s: %s", op, result.Error)
	}
	return result.Result, nil
}

func (b *Bridge) Content(ctx context.Context) (string, error) {
	return b.call(ctx, "content", nil)
}

func (b *Bridge) Click(ctx context.Context, selector string) error {
	_, err := b.call(ctx, "click", map[string]string{"selector": selector})
	return err
}

func (b *Bridge) Fill(ctx context.Context, selector, value string) error {
	_, err := b.call(ctx, "fill", map[string]string{
		"selector": selector,
		"value":    value,
	})
	return err
}

func (b *Bridge) WaitFor(ctx context.Context, selector string) error {
	_, err := b.call(ctx, "wait", map[string]string{"selector": selector})
	return err
}

func (b *Bridge) Evaluate(ctx context.Context, script string) (string, error) {
	return b.call(ctx, "evaluate", map[string]string{"script": script})
}

func (b *Bridge) SelectOption(ctx context.Context, selector, optionText string) error {
	_, err := b.call(ctx, "select", map[string]string{
		"selector": selector,
		"option":   optionText,
	})
	return err
}
