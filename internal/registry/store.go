package registry

// Store holds one opaque value and notifies subscribers synchronously, in
// subscription order, whenever Set replaces it (spec.md §3 "Store",
// testable property 5). Stores are created independently of plugin
// instances and live until process shutdown.
//
// Per spec.md §9 "Store value semantics", a Store conveys its value by
// reference to whatever the caller passed to Set/create_store. This
// implementation treats values as immutable from the core's point of view
// (it never mutates what it holds) and it is the scripting host's job
// to round-trip script values so "set the same value again" is always an
// explicit notify, never a silently-observed in-place mutation.
type Store struct {
	value       any
	subscribers []*subscription
	nextToken   uint64
}

// SubToken identifies a subscription for Unsubscribe.
type SubToken uint64

type subscription struct {
	token SubToken
	cb    func(value any)
}

// NewStore creates a store holding initial.
func NewStore(initial any) *Store {
	return &Store{value: initial}
}

// Get returns the current value.
func (s *Store) Get() any {
	return s.value
}

// Set replaces the value and synchronously invokes every subscriber, in
// subscription order, with the new value. Callers are expected to be on the
// event-loop thread; Set does not itself touch any other shared state.
func (s *Store) Set(value any) {
	s.value = value
	for _, sub := range s.subscribers {
		sub.cb(value)
	}
}

// Subscribe registers cb and returns a token that Unsubscribe can later use
// to remove it. cb is not invoked for the current value; only for values set
// after subscription.
func (s *Store) Subscribe(cb func(value any)) SubToken {
	s.nextToken++
	token := SubToken(s.nextToken)
	s.subscribers = append(s.subscribers, &subscription{token: token, cb: cb})
	return token
}

// Unsubscribe removes the subscription for token, if any. Returns false if
// token was never issued or was already removed.
func (s *Store) Unsubscribe(token SubToken) bool {
	for i, sub := range s.subscribers {
		if sub.token == token {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			return true
		}
	}
	return false
}
