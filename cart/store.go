// Package cart holds the line item store: the only mutable cart state.
package cart

import (
	"encoding/json"
	"fmt"
	"sort"

	"pricing-service/models"

	"github.com/shopspring/decimal"
)

// Store maps product ids to line items. It is not safe for concurrent use;
// callers hold one Store per session and serialize access to it.
type Store struct {
	items     map[string]models.LineItem
	listeners map[int]Listener
	nextID    int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		items:     make(map[string]models.LineItem),
		listeners: make(map[int]Listener),
	}
}

// FromItems builds a store from persisted items without emitting notifications.
func FromItems(items []models.LineItem) (*Store, error) {
	s := NewStore()
	if err := s.load(items); err != nil {
		return nil, err
	}
	return s, nil
}

// Subscribe registers fn for every future notification and returns a func
// that removes it again.
func (s *Store) Subscribe(fn Listener) func() {
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

// Add inserts item with the given quantity, or increments the quantity of the
// existing entry with the same product id.
func (s *Store) Add(item models.LineItem, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := validate(item); err != nil {
		return err
	}

	if existing, ok := s.items[item.ProductID]; ok {
		existing.Quantity += quantity
		s.items[item.ProductID] = existing
		s.emit(Notification{
			Type:      QuantityUpdated,
			ProductID: item.ProductID,
			Quantity:  existing.Quantity,
			Message:   fmt.Sprintf("Updated quantity of %s in cart", displayName(existing)),
		})
		return nil
	}

	item.Quantity = quantity
	s.items[item.ProductID] = item
	s.emit(Notification{
		Type:      ItemAdded,
		ProductID: item.ProductID,
		Quantity:  quantity,
		Message:   fmt.Sprintf("Added %s to cart", displayName(item)),
	})
	return nil
}

// UpdateQuantity sets the quantity of an existing entry. A quantity below 1 is
// rejected; use Remove to delete an entry.
func (s *Store) UpdateQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	item, ok := s.items[productID]
	if !ok {
		return ErrItemNotFound
	}
	item.Quantity = quantity
	s.items[productID] = item
	s.emit(Notification{
		Type:      QuantityUpdated,
		ProductID: productID,
		Quantity:  quantity,
		Message:   fmt.Sprintf("Updated quantity of %s in cart", displayName(item)),
	})
	return nil
}

// Remove deletes the entry for productID. It reports whether anything was
// removed; removing an absent id is a no-op.
func (s *Store) Remove(productID string) bool {
	item, ok := s.items[productID]
	if !ok {
		return false
	}
	delete(s.items, productID)
	s.emit(Notification{
		Type:      ItemRemoved,
		ProductID: productID,
		Message:   fmt.Sprintf("Removed %s from cart", displayName(item)),
	})
	return true
}

// Clear empties the store.
func (s *Store) Clear() {
	s.items = make(map[string]models.LineItem)
	s.emit(Notification{Type: CartCleared, Message: "Cart has been cleared"})
}

// Total is the sum of UnitPrice * Quantity over all entries.
func (s *Store) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Count is the sum of quantities, not the number of entries.
func (s *Store) Count() int {
	n := 0
	for _, item := range s.items {
		n += item.Quantity
	}
	return n
}

// Len returns the number of distinct products.
func (s *Store) Len() int { return len(s.items) }

// Get returns a copy of the entry for productID.
func (s *Store) Get(productID string) (models.LineItem, bool) {
	item, ok := s.items[productID]
	return item, ok
}

// Items returns copies of all entries ordered by product id.
func (s *Store) Items() []models.LineItem {
	out := make([]models.LineItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Snapshot captures the current entries for a later Restore.
func (s *Store) Snapshot() []models.LineItem {
	return s.Items()
}

// Restore replaces the entries with a snapshot. Listeners are not notified.
func (s *Store) Restore(snapshot []models.LineItem) {
	s.items = make(map[string]models.LineItem, len(snapshot))
	for _, item := range snapshot {
		s.items[item.ProductID] = item
	}
}

// MarshalJSON encodes the store as an array of line items.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Items())
}

// UnmarshalJSON replaces the entries with a decoded array of line items.
func (s *Store) UnmarshalJSON(data []byte) error {
	var items []models.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if s.listeners == nil {
		s.listeners = make(map[int]Listener)
	}
	return s.load(items)
}

func (s *Store) load(items []models.LineItem) error {
	loaded := make(map[string]models.LineItem, len(items))
	for _, item := range items {
		if err := validate(item); err != nil {
			return err
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: product %s", ErrInvalidQuantity, item.ProductID)
		}
		if _, dup := loaded[item.ProductID]; dup {
			return fmt.Errorf("%w: duplicate product %s", ErrInvalidLineItem, item.ProductID)
		}
		loaded[item.ProductID] = item
	}
	s.items = loaded
	return nil
}

func (s *Store) emit(n Notification) {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := s.listeners[id]; ok {
			fn(n)
		}
	}
}

func validate(item models.LineItem) error {
	if item.ProductID == "" {
		return fmt.Errorf("%w: missing product id", ErrInvalidLineItem)
	}
	if item.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: negative unit price for %s", ErrInvalidLineItem, item.ProductID)
	}
	return nil
}

func displayName(item models.LineItem) string {
	if item.Name != "" {
		return item.Name
	}
	return item.ProductID
}
