package playground

// Listener receives values pushed by an API.
type Listener interface {
	ValueReceived(i int)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(i int)

// ValueReceived calls fn(i).
func (fn ListenerFunc) ValueReceived(i int) { fn(i) }

// API is a push-style producer: each listener synchronously receives 1..5
// while it is being added.
type API struct{}

// AddListener attaches l and pushes the values before returning.
func (API) AddListener(l Listener) {
	for i := 1; i <= 5; i++ {
		l.ValueReceived(i)
	}
}
