package ports

// Notifier delivers short user-facing notices outside the request that
// caused them, such as a paused task being stopped by another start.
type Notifier interface {
	Notify(title, message string) error
}
