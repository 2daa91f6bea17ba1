package fetch

import (
	"context"

	"github.com/watchharvest/watchharvest/internal/types"
)

// MockPage is a scripted feed. Every scroll reveals the next batch of
// elements; once all batches are revealed scrolling has no effect.
type MockPage struct {
	batches  [][]types.Element
	revealed int

	// Scrolls counts the TriggerScroll calls.
	Scrolls int
	// ScrollErr and ListErr are returned by the respective calls if set.
	ScrollErr error
	ListErr   error
}

// NewMockPage returns a page with the given batches of element html. The
// first batch is visible before any scroll.
func NewMockPage(initial []string, batches ...[]string) *MockPage {
	m := &MockPage{revealed: 1}
	m.batches = append(m.batches, toElements(initial))
	for _, b := range batches {
		m.batches = append(m.batches, toElements(b))
	}
	return m
}

func toElements(htmls []string) []types.Element {
	elements := make([]types.Element, 0, len(htmls))
	for _, h := range htmls {
		elements = append(elements, types.Element{HTML: h})
	}
	return elements
}

func (m *MockPage) TriggerScroll(ctx context.Context) (bool, error) {
	m.Scrolls++
	if m.ScrollErr != nil {
		return false, m.ScrollErr
	}
	if m.revealed < len(m.batches) {
		m.revealed++
		return true, nil
	}
	return false, nil
}

func (m *MockPage) ListElements(ctx context.Context) ([]types.Element, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	elements := []types.Element{}
	for _, b := range m.batches[:m.revealed] {
		elements = append(elements, b...)
	}
	return elements, nil
}

// Cancel is a no-op, to match Browser.
func (m *MockPage) Cancel() {}
