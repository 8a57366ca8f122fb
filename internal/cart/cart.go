package cart

import (
	"errors"

	"shipquote/internal/catalog"
)

var (
	ErrNilArticle      = errors.New("article is required")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotFound    = errors.New("item not in cart")
)

// Item is one article line of a groupage load.
type Item struct {
	Article   *catalog.Article `json:"article"`
	Quantity  int              `json:"quantity"`
	Stackable bool             `json:"stackable"`
}

// Cart is an ordered list of items sharing one physical load. Exactly one
// item is the base while the cart is non-empty. The zero value is an empty cart.
type Cart struct {
	items  []Item
	baseID string
}

// Add appends an article or, when it is already in the cart, increases its
// quantity. New items start with the article's own stackable flag. The first
// item added becomes the base.
func (c *Cart) Add(a *catalog.Article, qty int) error {
	if a == nil {
		return ErrNilArticle
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if i := c.index(a.ID); i >= 0 {
		c.items[i].Quantity += qty
		return nil
	}
	c.items = append(c.items, Item{Article: a, Quantity: qty, Stackable: a.Rules.Stackable})
	if c.baseID == "" {
		c.baseID = a.ID
	}
	return nil
}

// Remove drops an item. Removing the base hands the role to the first
// remaining item, or clears it when the cart becomes empty.
func (c *Cart) Remove(articleID string) error {
	i := c.index(articleID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	if articleID == c.baseID {
		c.baseID = ""
		if len(c.items) > 0 {
			c.baseID = c.items[0].Article.ID
		}
	}
	return nil
}

// SetQuantity replaces an item's quantity.
func (c *Cart) SetQuantity(articleID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	i := c.index(articleID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.items[i].Quantity = qty
	return nil
}

// ToggleStackable flips an item's stackable flag and returns the new value.
func (c *Cart) ToggleStackable(articleID string) (bool, error) {
	i := c.index(articleID)
	if i < 0 {
		return false, ErrItemNotFound
	}
	c.items[i].Stackable = !c.items[i].Stackable
	return c.items[i].Stackable, nil
}

// SetStackable sets an item's stackable flag.
func (c *Cart) SetStackable(articleID string, v bool) error {
	i := c.index(articleID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.items[i].Stackable = v
	return nil
}

// SetBase designates an existing item as the base.
func (c *Cart) SetBase(articleID string) error {
	if c.index(articleID) < 0 {
		return ErrItemNotFound
	}
	c.baseID = articleID
	return nil
}

// Base returns the base item.
func (c *Cart) Base() (Item, bool) {
	i := c.index(c.baseID)
	if i < 0 {
		return Item{}, false
	}
	return c.items[i], true
}

// BaseID returns the article id of the base item, or "" for an empty cart.
func (c *Cart) BaseID() string { return c.baseID }

// Items returns a copy of the items in insertion order.
func (c *Cart) Items() []Item {
	return append([]Item(nil), c.items...)
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) index(articleID string) int {
	if articleID == "" {
		return -1
	}
	for i, it := range c.items {
		if it.Article.ID == articleID {
			return i
		}
	}
	return -1
}
