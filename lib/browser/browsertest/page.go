// Package browsertest provides a scripted browser.Page for tests, backed by
// static HTML snapshots instead of a live driver.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"causawatch-backend/lib/htmlutil"
)

type Page struct {
	mu   sync.Mutex
	html string

	// selector -> handler invoked on Click; the handler usually swaps
	// the current HTML to the next view
	ClickHandlers map[string]func()
	// selector -> handler invoked on SelectOption with the option text
	SelectHandlers map[string]func(option string) error
	// invoked on Evaluate, may be nil
	EvaluateHandler func(script string) (string, error)

	// every primitive is appended here in call order
	Calls []string
}

func New(html string) *Page {
	return &Page{
		html:           html,
		ClickHandlers:  map[string]func(){},
		SelectHandlers: map[string]func(option string) error{},
	}
}

func (p *Page) SetHTML(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = html
}

func (p *Page) record(call string) {
	p.Calls = append(p.Calls, call)
}

func (p *Page) Content(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("content")
	return p.html, nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	p.record("click " + selector)
	handler, ok := p.ClickHandlers[selector]
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("no enabled control matching %q", selector)
	}
	// run outside the lock so handlers can call SetHTML
	handler()
	return nil
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("fill " + selector)
	return nil
}

func (p *Page) WaitFor(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("wait " + selector)

	doc, err := htmlutil.Parse(p.html)
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("timed out waiting for %q", selector)
	}
	return nil
}

func (p *Page) Evaluate(ctx context.Context, script string) (string, error) {
	p.mu.Lock()
	handler := p.EvaluateHandler
	p.record("evaluate")
	p.mu.Unlock()

	if handler == nil {
		return "", nil
	}
	return handler(script)
}

func (p *Page) SelectOption(ctx context.Context, selector, optionText string) error {
	p.mu.Lock()
	p.record("select " + selector + " " + optionText)
	handler, ok := p.SelectHandlers[selector]
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("no select control matching %q", selector)
	}
	return handler(optionText)
}
