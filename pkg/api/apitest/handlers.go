package apitest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/linksquared/linksquared-go/pkg/api"
	"github.com/linksquared/linksquared-go/pkg/events"
)

func (b *Backend) authenticate(w http.ResponseWriter, r *http.Request) {
	var details api.AppDetails
	if !decode(w, r, &details) {
		return
	}
	if details.VendorID == "" {
		writeError(w, http.StatusUnprocessableEntity, "vendor_id is required")
		return
	}

	b.mu.Lock()
	hold := b.authHold
	b.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	session := uuid.NewString()
	b.mu.Lock()
	b.sessions[session] = details.VendorID
	b.lastSeen[details.VendorID] = b.now()
	resp := api.AuthenticationResponse{
		LinksquaredID: session,
		URIScheme:     URIScheme,
		SDKIdentifier: b.sdkIdentifier,
		SDKAttributes: b.sdkAttributes,
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) deviceForVendorID(w http.ResponseWriter, r *http.Request) {
	vendorID := r.URL.Query().Get("vendor_id")

	b.mu.Lock()
	seen, ok := b.lastSeen[vendorID]
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, api.DeviceResponse{LastSeen: events.NewTimestamp(seen)})
}

func (b *Backend) dataForDevice(w http.ResponseWriter, r *http.Request) {
	var details api.AppDetails
	if !decode(w, r, &details) {
		return
	}

	b.mu.Lock()
	resp := api.DeeplinkDetails{}
	if b.deferred != nil {
		resp = *b.deferred
		b.deferred = nil
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) dataForDeviceAndURL(w http.ResponseWriter, r *http.Request) {
	var details api.AppDetails
	if !decode(w, r, &details) {
		return
	}
	if details.URL == nil {
		writeError(w, http.StatusUnprocessableEntity, "url is required")
		return
	}

	b.mu.Lock()
	data, ok := b.links[*details.URL]
	b.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "link not found")
		return
	}
	link := *details.URL
	writeJSON(w, http.StatusOK, api.DeeplinkDetails{Link: &link, Data: data})
}

func (b *Backend) createLink(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateLinkRequest
	if !decode(w, r, &req) {
		return
	}

	var data map[string]any
	if req.Data != nil {
		if err := json.Unmarshal([]byte(*req.Data), &data); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "data must be a JSON object")
			return
		}
	}
	if req.Tags != nil {
		var tags []string
		if err := json.Unmarshal([]byte(*req.Tags), &tags); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "tags must be a JSON array of strings")
			return
		}
	}

	link := b.linkDomain + strings.SplitN(uuid.NewString(), "-", 2)[0]

	b.mu.Lock()
	b.created = append(b.created, req)
	b.links[link] = data
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, api.GenerateLinkResponse{Link: link})
}

func (b *Backend) event(w http.ResponseWriter, r *http.Request) {
	var e events.Event
	if !decode(w, r, &e) {
		return
	}
	if !e.Kind.Valid() {
		writeError(w, http.StatusUnprocessableEntity, "unknown event")
		return
	}
	if e.CreatedAt.IsZero() {
		writeError(w, http.StatusUnprocessableEntity, "created_at is required")
		return
	}

	b.mu.Lock()
	b.events = append(b.events, e)
	b.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (b *Backend) visitorAttributes(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateAttributesRequest
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	b.attributes = append(b.attributes, req)
	b.sdkIdentifier = req.SDKIdentifier
	b.sdkAttributes = req.SDKAttributes
	b.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (b *Backend) listNotifications(w http.ResponseWriter, r *http.Request) {
	var req api.NotificationsRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}

	b.mu.Lock()
	start := (req.Page - 1) * notificationsPageSize
	page := []api.Notification{}
	if start < len(b.notifications) {
		end := min(start+notificationsPageSize, len(b.notifications))
		page = append(page, b.notifications[start:end]...)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, api.NotificationsResponse{Notifications: page})
}

func (b *Backend) unreadNotifications(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	unread := 0
	for _, n := range b.notifications {
		if !n.Read {
			unread++
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, api.UnreadCountResponse{NumberOfUnreadNotifications: unread})
}

func (b *Backend) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	var req api.MarkNotificationReadRequest
	if !decode(w, r, &req) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.notifications {
		if b.notifications[i].ID == req.ID {
			b.notifications[i].Read = true
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	writeError(w, http.StatusNotFound, "notification not found")
}

func (b *Backend) autoDisplayNotifications(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	out := []api.Notification{}
	for _, n := range b.notifications {
		if n.AutoDisplay && !n.Read {
			out = append(out, n)
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, api.NotificationsResponse{Notifications: out})
}
