package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/linksquared/linksquared-go/pkg/events"
)

// Endpoint names, relative to the base URL.
const (
	EndpointDataForDevice        = "data_for_device"
	EndpointDataForDeviceAndURL  = "data_for_device_and_url"
	EndpointAuthenticate         = "authenticate"
	EndpointCreateLink           = "create_link"
	EndpointEvent                = "event"
	EndpointVisitorAttributes    = "visitor_attributes"
	EndpointDeviceForVendorID    = "device_for_vendor_id"
	EndpointNotifications        = "notifications_for_device"
	EndpointUnreadNotifications  = "number_of_unread_notifications"
	EndpointMarkNotificationRead = "mark_notification_as_read"
	EndpointAutoDisplay          = "notifications_to_display_automatically"
)

// PayloadForDevice asks for a deferred deep link matched to this device.
// Retries until answered.
func (c *Client) PayloadForDevice(ctx context.Context, details AppDetails) (DeeplinkDetails, error) {
	var out DeeplinkDetails
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: EndpointDataForDevice,
		body:     details,
		out:      &out,
		mode:     retryIndefinitely,
	})
	return out, err
}

// PayloadWithLink resolves the payload of the link in details.URL.
// Retries until answered.
func (c *Client) PayloadWithLink(ctx context.Context, details AppDetails) (DeeplinkDetails, error) {
	var out DeeplinkDetails
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: EndpointDataForDeviceAndURL,
		body:     details,
		out:      &out,
		mode:     retryIndefinitely,
	})
	return out, err
}

// Authenticate opens the device session. Retries until answered.
func (c *Client) Authenticate(ctx context.Context, details AppDetails) (AuthenticationResponse, error) {
	var out AuthenticationResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: EndpointAuthenticate,
		body:     details,
		out:      &out,
		mode:     retryIndefinitely,
	})
	if err == nil && out.LinksquaredID == "" {
		err = fmt.Errorf("%w: authenticate response has no session id", ErrEmptyResponse)
	}
	return out, err
}

// GenerateLink creates a short link. Single attempt.
func (c *Client) GenerateLink(ctx context.Context, params LinkParams) (string, error) {
	req, err := params.request()
	if err != nil {
		return "", err
	}

	var out GenerateLinkResponse
	if err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: EndpointCreateLink,
		body:     req,
		out:      &out,
		mode:     singleAttempt,
	}); err != nil {
		return "", err
	}
	if out.Link == "" {
		return "", ErrMissingLink
	}
	return out.Link, nil
}

func (p LinkParams) request() (GenerateLinkRequest, error) {
	req := GenerateLinkRequest{
		Title:    optional(p.Title),
		Subtitle: optional(p.Subtitle),
		ImageURL: optional(p.ImageURL),
	}
	if p.Data != nil {
		raw, err := json.Marshal(p.Data)
		if err != nil {
			return req, fmt.Errorf("%w: encode link data: %w", ErrSerialization, err)
		}
		req.Data = optional(string(raw))
	}
	if p.Tags != nil {
		raw, err := json.Marshal(p.Tags)
		if err != nil {
			return req, fmt.Errorf("%w: encode link tags: %w", ErrSerialization, err)
		}
		req.Tags = optional(string(raw))
	}
	return req, nil
}

// AddEvent submits one analytics event. Single attempt.
func (c *Client) AddEvent(ctx context.Context, e events.Event) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: EndpointEvent,
		body:     e,
		mode:     singleAttempt,
	})
}

// UpdateAttributes pushes identifier, attributes and push token.
// Retries until answered.
func (c *Client) UpdateAttributes(ctx context.Context, req UpdateAttributesRequest) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: EndpointVisitorAttributes,
		body:     req,
		mode:     retryIndefinitely,
	})
}

// DeviceLastSeen returns when the backend last saw vendorID.
// A zero time means never. Retries until answered.
func (c *Client) DeviceLastSeen(ctx context.Context, vendorID string) (time.Time, error) {
	var out DeviceResponse
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: EndpointDeviceForVendorID,
		query:    url.Values{"vendor_id": {vendorID}},
		out:      &out,
		mode:     retryIndefinitely,
	})
	return out.LastSeen.Time, err
}

// Notifications returns one page of the device's notifications.
func (c *Client) Notifications(ctx context.Context, page int) ([]Notification, error) {
	var out NotificationsResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: EndpointNotifications,
		body:     NotificationsRequest{Page: page},
		out:      &out,
		mode:     retryIndefinitely,
	})
	return out.Notifications, err
}

// UnreadNotificationCount returns the number of unread notifications.
func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var out UnreadCountResponse
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: EndpointUnreadNotifications,
		out:      &out,
		mode:     retryIndefinitely,
	})
	return out.NumberOfUnreadNotifications, err
}

// MarkNotificationRead marks notification id as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidNotification, id)
	}
	return c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: EndpointMarkNotificationRead,
		body:     MarkNotificationReadRequest{ID: id},
		mode:     retryIndefinitely,
	})
}

// AutoDisplayNotifications returns notifications the app should show
// without user action.
func (c *Client) AutoDisplayNotifications(ctx context.Context) ([]Notification, error) {
	var out NotificationsResponse
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: EndpointAutoDisplay,
		out:      &out,
		mode:     retryIndefinitely,
	})
	return out.Notifications, err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
