package mediator

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/glimte/mediate-go/contracts"
)

// SubscriptionRegistry holds runtime subscribers, the mutable counterpart to
// the startup-stable Registry. Subscribers can be keyed by a concrete
// notification type or by an interface the notification's runtime type
// implements; a notification satisfying several registrations is delivered
// to all of them.
//
// Publish iterates a snapshot, so adding or removing subscribers while a
// publish is in flight is safe and affects only later publishes.
type SubscriptionRegistry struct {
	mu      sync.RWMutex
	byType  map[string][]*Subscription
	byIface []*Subscription

	// interface-satisfaction decisions per (runtime type, interface)
	matches sync.Map
}

// Subscription is a handle for one registered subscriber.
type Subscription struct {
	id      string
	typeKey string
	iface   reflect.Type
	handler NotificationHandler
}

// ID returns the unique subscription token.
func (s *Subscription) ID() string {
	return s.id
}

type ifaceMatchKey struct {
	concrete reflect.Type
	iface    reflect.Type
}

// NewSubscriptionRegistry creates an empty subscription registry.
func NewSubscriptionRegistry() *SubscriptionRegistry {
	return &SubscriptionRegistry{
		byType: make(map[string][]*Subscription),
	}
}

// Subscribe registers a subscriber for the prototype's concrete type.
func (r *SubscriptionRegistry) Subscribe(prototype contracts.Notification, handler NotificationHandler) (*Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	key, err := MessageKey(prototype)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		id:      uuid.New().String(),
		typeKey: key,
		handler: handler,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[key] = append(r.byType[key], sub)
	return sub, nil
}

// SubscribeInterface registers a subscriber for every notification whose
// runtime type implements the given interface. Pass a nil interface
// pointer to name the interface:
//
//	subs.SubscribeInterface((*Auditable)(nil), handler)
func (r *SubscriptionRegistry) SubscribeInterface(ifacePtr any, handler NotificationHandler) (*Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	t := reflect.TypeOf(ifacePtr)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Interface {
		return nil, fmt.Errorf("expected a nil interface pointer like (*Iface)(nil), got %T", ifacePtr)
	}

	sub := &Subscription{
		id:      uuid.New().String(),
		iface:   t.Elem(),
		handler: handler,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byIface = append(r.byIface, sub)
	return sub, nil
}

// Unsubscribe removes a subscription. Removing an already-removed
// subscription is an error.
func (r *SubscriptionRegistry) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return fmt.Errorf("subscription cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.iface != nil {
		for i, existing := range r.byIface {
			if existing.id == sub.id {
				r.byIface = append(r.byIface[:i], r.byIface[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("subscription %s not found", sub.id)
	}

	subs := r.byType[sub.typeKey]
	for i, existing := range subs {
		if existing.id == sub.id {
			r.byType[sub.typeKey] = append(subs[:i], subs[i+1:]...)
			if len(r.byType[sub.typeKey]) == 0 {
				delete(r.byType, sub.typeKey)
			}
			return nil
		}
	}
	return fmt.Errorf("subscription %s not found", sub.id)
}

// Snapshot returns the subscriptions matching a notification at this
// moment: subscribers for its concrete type plus interface subscribers
// whose interface its runtime type implements.
func (r *SubscriptionRegistry) Snapshot(n contracts.Notification) []*Subscription {
	key, err := MessageKey(n)
	if err != nil {
		return nil
	}
	runtimeType := reflect.TypeOf(n)

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*Subscription, 0, len(r.byType[key]))
	matched = append(matched, r.byType[key]...)

	for _, sub := range r.byIface {
		if r.implements(runtimeType, sub.iface) {
			matched = append(matched, sub)
		}
	}
	return matched
}

// Count returns the number of live subscriptions.
func (r *SubscriptionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := len(r.byIface)
	for _, subs := range r.byType {
		count += len(subs)
	}
	return count
}

func (r *SubscriptionRegistry) implements(concrete, iface reflect.Type) bool {
	key := ifaceMatchKey{concrete: concrete, iface: iface}
	if cached, ok := r.matches.Load(key); ok {
		return cached.(bool)
	}

	ok := concrete.Implements(iface)
	if !ok && concrete.Kind() != reflect.Ptr {
		ok = reflect.PointerTo(concrete).Implements(iface)
	}
	r.matches.Store(key, ok)
	return ok
}
