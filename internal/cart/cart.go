// Package cart holds the shopping cart: a list of items unique by ID,
// persisted to a JSON file after every change.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Item represents one cart line
type Item struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Price      float64           `json:"price"`
	Quantity   int               `json:"quantity"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Cart is a persisted list of items. An empty path keeps it in memory only.
type Cart struct {
	mu    sync.Mutex
	path  string
	items []Item
}

// New returns an empty in-memory cart
func New() *Cart {
	return &Cart{}
}

// Open loads the cart stored at path, or an empty cart if the file is missing
func Open(path string) (*Cart, error) {
	c := &Cart{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse cart: %w", err)
	}
	c.items = snap.Items
	return c, nil
}

type snapshot struct {
	Items []Item `json:"items"`
}

// AddItem adds item to the cart, merging quantities with an existing line of
// the same ID. A quantity below one counts as one.
func (c *Cart) AddItem(item Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	qty := item.Quantity
	if qty < 1 {
		qty = 1
	}

	if i := c.indexOf(item.ID); i >= 0 {
		c.items[i].Quantity += qty
	} else {
		item.Quantity = qty
		c.items = append(c.items, item)
	}
	return c.persist()
}

// RemoveItem drops the line with the given ID, if any
func (c *Cart) RemoveItem(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(id)
	return c.persist()
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
// Unknown IDs are ignored.
func (c *Cart) UpdateQuantity(id string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil
	}
	if quantity > 0 {
		c.items[i].Quantity = quantity
	} else {
		c.remove(id)
	}
	return c.persist()
}

func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	return c.persist()
}

// Items returns a copy of the cart lines in insertion order
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, item := range c.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (c *Cart) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) remove(id string) {
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
}

func (c *Cart) persist() error {
	if c.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(snapshot{Items: c.items}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cart directory: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	return nil
}
