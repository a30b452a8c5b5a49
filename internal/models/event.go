// Sitebeacon - Web Traffic Analytics for Content Sites
// Copyright 2026 Sitebeacon Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sitebeacon/sitebeacon

// Package models defines the core data types shared across the service.
package models

import (
	"time"
)

// Event types accepted by the ingestion gateway.
const (
	EventTypePageview = "pageview"
	EventTypeClick    = "click"
	EventTypeCustom   = "custom"
)

// Device classifications produced by the user-agent classifier.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// Event is a single stored analytics event.
// IPToken is a keyed one-way digest of the caller address; the raw
// address is never persisted.
type Event struct {
	ID           string                 `json:"id"`
	OwnerID      string                 `json:"ownerId"`
	EventType    string                 `json:"eventType"`
	Domain       string                 `json:"domain"`
	Path         string                 `json:"path"`
	Referrer     string                 `json:"referrer,omitempty"`
	UserAgentRaw string                 `json:"userAgentRaw,omitempty"`
	IPToken      string                 `json:"ipToken,omitempty"`
	DeviceType   string                 `json:"deviceType,omitempty"`
	Browser      string                 `json:"browser,omitempty"`
	OS           string                 `json:"os,omitempty"`
	Country      string                 `json:"country,omitempty"`
	City         string                 `json:"city,omitempty"`
	ScreenWidth  int                    `json:"screenWidth,omitempty"`
	ScreenHeight int                    `json:"screenHeight,omitempty"`
	SessionID    string                 `json:"sessionId,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// IngestRequest is the wire payload accepted by POST /api/v1/events.
// Client-supplied deviceType/browser/os take precedence over values
// derived from the User-Agent header, and UserAgent is the fallback
// classification source when the header is absent (server SDKs,
// proxied webviews). Country and city are caller-supplied; the server
// does no geolocation. UserID is honored only for API-key
// authenticated callers.
type IngestRequest struct {
	EventType    string                 `json:"eventType" validate:"required,oneof=pageview click custom"`
	Domain       string                 `json:"domain" validate:"required,max=253"`
	Path         string                 `json:"path" validate:"required,max=2048"`
	Referrer     string                 `json:"referrer,omitempty" validate:"omitempty,max=2048"`
	UserAgent    string                 `json:"userAgent,omitempty" validate:"omitempty,max=1024"`
	SessionID    string                 `json:"sessionId,omitempty" validate:"omitempty,max=128"`
	DeviceType   string                 `json:"deviceType,omitempty" validate:"omitempty,oneof=desktop mobile tablet"`
	Browser      string                 `json:"browser,omitempty" validate:"omitempty,max=64"`
	OS           string                 `json:"os,omitempty" validate:"omitempty,max=64"`
	Country      string                 `json:"country,omitempty" validate:"omitempty,max=64"`
	City         string                 `json:"city,omitempty" validate:"omitempty,max=128"`
	ScreenWidth  int                    `json:"screenWidth,omitempty" validate:"omitempty,min=0,max=32767"`
	ScreenHeight int                    `json:"screenHeight,omitempty" validate:"omitempty,min=0,max=32767"`
	UserID       string                 `json:"userId,omitempty" validate:"omitempty,max=128"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" validate:"omitempty,max=32"`
}

// ValidEventType reports whether t is one of the accepted event types.
func ValidEventType(t string) bool {
	switch t {
	case EventTypePageview, EventTypeClick, EventTypeCustom:
		return true
	default:
		return false
	}
}
