package cart

// NotificationType identifies the mutation that produced a Notification.
type NotificationType string

const (
	ItemAdded       NotificationType = "cart.item_added"
	QuantityUpdated NotificationType = "cart.quantity_updated"
	ItemRemoved     NotificationType = "cart.item_removed"
	CartCleared     NotificationType = "cart.cleared"
)

// Notification is emitted after every successful store mutation. Message is
// the user-facing confirmation shown by the presentation layer.
type Notification struct {
	Type      NotificationType
	ProductID string
	Quantity  int
	Message   string
}

// Listener receives notifications synchronously, in mutation order.
type Listener func(Notification)
