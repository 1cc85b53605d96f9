package puzzle

import "image"

// Classifier owns the registered handlers in registration order.
type Classifier struct {
	handlers []Handler
}

func NewClassifier(handlers ...Handler) *Classifier {
	c := &Classifier{}
	for _, h := range handlers {
		c.Register(h)
	}
	return c
}

// Register appends h. Order is significant: the first handler that reports
// activity wins. A nil handler is ignored.
func (c *Classifier) Register(h Handler) {
	if h == nil {
		return
	}
	c.handlers = append(c.handlers, h)
}

// DetectActivePuzzle asks each handler in order and returns the type of the
// first one whose puzzle is on screen.
func (c *Classifier) DetectActivePuzzle(edges *image.Gray) (Type, bool) {
	for _, h := range c.handlers {
		if h.DetectActive(edges) {
			return h.Type(), true
		}
	}
	return None, false
}

// Handler returns the first registered handler of type t.
func (c *Classifier) Handler(t Type) (Handler, bool) {
	for _, h := range c.handlers {
		if h.Type() == t {
			return h, true
		}
	}
	return nil, false
}

// Handlers returns the registered handlers in order.
func (c *Classifier) Handlers() []Handler {
	out := make([]Handler, len(c.handlers))
	copy(out, c.handlers)
	return out
}
