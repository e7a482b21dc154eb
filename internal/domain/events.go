package domain

// TopicOrderPlaced is published on the application bus after an order commits.
const TopicOrderPlaced = "order:placed"

// OrderPlaced carries a committed order to post-commit subscribers.
type OrderPlaced struct {
	Order *Order
}

func (OrderPlaced) Type() string {
	return TopicOrderPlaced
}
