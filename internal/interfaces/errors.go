package interfaces

import (
	"errors"
	"fmt"
)

// ErrDeliveryFailed is returned by the delivery engine when the primary
// provider and every configured fallback exhausted their retry budgets.
// Webhook handlers translate it into an HTTP 200 body with delivered=false.
var ErrDeliveryFailed = errors.New("delivery failed on all providers")

// ErrMissingCredentials is returned by chat clients constructed without an
// API key. The answer orchestrator treats it like any other provider failure.
var ErrMissingCredentials = errors.New("missing provider credentials")

// ProviderAuthError marks a 401/403-class rejection from an outbound
// provider. Auth failures are terminal for the current call: logged, never
// retried, never escalated past the engine.
type ProviderAuthError struct {
	Provider   string
	StatusCode int
}

func (e *ProviderAuthError) Error() string {
	return fmt.Sprintf("%s rejected request with status %d", e.Provider, e.StatusCode)
}

// IsAuthError reports whether err is (or wraps) a ProviderAuthError.
func IsAuthError(err error) bool {
	var authErr *ProviderAuthError
	return errors.As(err, &authErr)
}
