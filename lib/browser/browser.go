// Package browser defines the contract against the session/navigation
// provider. Login, tab navigation and page lifecycle live in an external
// driver process; the core only issues primitives against whatever view is
// currently rendered and observes their success or failure.
package browser

import "context"

type Page interface {
	// Content returns the HTML of the current view.
	Content(ctx context.Context) (string, error)
	// Click activates the first element matching selector.
	Click(ctx context.Context, selector string) error
	// Fill sets the value of the input matching selector.
	Fill(ctx context.Context, selector, value string) error
	// WaitFor blocks until selector is present and visible, or the
	// implementation's bounded wait elapses.
	WaitFor(ctx context.Context, selector string) error
	// Evaluate runs a script in the view and returns its result as a string.
	Evaluate(ctx context.Context, script string) (string, error)
	// SelectOption sets the <select> matching selector to the option with
	// the given visible text and fires its change event.
	SelectOption(ctx context.Context, selector, optionText string) error
}
