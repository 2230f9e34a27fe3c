package notifications

import "github.com/linksquared/linksquared-go/pkg/api"

// Notification is a message the backend holds for this device.
type Notification = api.Notification
