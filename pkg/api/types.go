package api

import (
	"github.com/linksquared/linksquared-go/pkg/events"
)

// AppDetails describes the device and app build to the backend.
type AppDetails struct {
	AppVersion string `json:"app_version"`
	Build      string `json:"build"`
	Bundle     string `json:"bundle"`
	Device     string `json:"device"`
	VendorID   string `json:"vendor_id"`
	UserAgent  string `json:"user_agent"`
	// URL is the link the payload lookup is for.
	URL *string `json:"url,omitempty"`
}

// WithURL returns a copy of d asking about link.
func (d AppDetails) WithURL(link string) AppDetails {
	d.URL = &link
	return d
}

// DeeplinkDetails is the payload resolved for a device or link.
// A nil Link means the app was not opened from a Linksquared link.
type DeeplinkDetails struct {
	Link *string        `json:"link"`
	Data map[string]any `json:"data"`
}

// AuthenticationResponse establishes the device session.
type AuthenticationResponse struct {
	LinksquaredID string         `json:"linksquared"`
	URIScheme     string         `json:"uri_scheme"`
	SDKIdentifier *string        `json:"sdk_identifier"`
	SDKAttributes map[string]any `json:"sdk_attributes"`
}

// LinkParams describes a link to generate.
type LinkParams struct {
	Title    string
	Subtitle string
	ImageURL string
	Data     map[string]any
	Tags     []string
}

// GenerateLinkRequest is the create_link body. Data and Tags travel as JSON
// encoded strings.
type GenerateLinkRequest struct {
	Title    *string `json:"title,omitempty"`
	Subtitle *string `json:"subtitle,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
	Data     *string `json:"data,omitempty"`
	Tags     *string `json:"tags,omitempty"`
}

// GenerateLinkResponse is the body returned by the generate endpoint.
type GenerateLinkResponse struct {
	Link string `json:"link"`
}

// DeviceResponse carries the last time the backend saw a vendor id.
type DeviceResponse struct {
	LastSeen events.Timestamp `json:"last_seen"`
}

// UpdateAttributesRequest pushes the host-set identity to the backend.
type UpdateAttributesRequest struct {
	SDKIdentifier *string        `json:"sdk_identifier"`
	SDKAttributes map[string]any `json:"sdk_attributes"`
	PushToken     *string        `json:"push_token"`
}

// Notification is an in-app message addressed to the device.
type Notification struct {
	ID          int              `json:"id"`
	Title       string           `json:"title"`
	UpdatedAt   events.Timestamp `json:"updated_at"`
	Subtitle    *string          `json:"subtitle"`
	AutoDisplay bool             `json:"auto_display"`
	AccessURL   *string          `json:"access_url"`
	Read        bool             `json:"read"`
}

// NotificationsRequest asks for one page of notifications.
type NotificationsRequest struct {
	Page int `json:"page"`
}

// NotificationsResponse carries one page of notifications.
type NotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
}

// UnreadCountResponse carries the unread notification count.
type UnreadCountResponse struct {
	NumberOfUnreadNotifications int `json:"number_of_unread_notifications"`
}

// MarkNotificationReadRequest names the notification to mark as read.
type MarkNotificationReadRequest struct {
	ID int `json:"id"`
}

// ErrorMessage is the body of a rejected request.
type ErrorMessage struct {
	Error string `json:"error"`
}
