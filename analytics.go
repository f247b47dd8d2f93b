// Copyright 2025 xenoDB (https://github.com/xenoDB)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

package xenoclient

import (
	"os"
	"sync"

	"github.com/posthog/posthog-go"
)

const (
	posthogAPIKey = "phc_wQxNu4kPZ8vMd20Ri5KcqLyphh3TlhSX2NbhQU7G1cfv"
	posthogHost   = "https://us.i.posthog.com"
)

var (
	analyticsClient      posthog.Client
	analyticsOnce        sync.Once
	analyticsEnabled     = true
	analyticsInitialized = false
)

// initAnalytics initializes the PostHog client (lazy, called once).
func initAnalytics() {
	analyticsOnce.Do(func() {
		// Check if analytics is disabled via environment variable
		if os.Getenv("XENODB_DISABLE_ANALYTICS") == "true" {
			analyticsEnabled = false
			return
		}

		client, err := posthog.NewWithConfig(
			posthogAPIKey,
			posthog.Config{
				Endpoint: posthogHost,
			},
		)
		if err != nil {
			// Failed to initialize, disable analytics
			analyticsEnabled = false
			return
		}

		analyticsClient = client
		analyticsInitialized = true
	})
}

// trackEvent sends an event to PostHog with static metadata only.
func trackEvent(eventName string, properties map[string]interface{}) {
	initAnalytics()

	if !analyticsEnabled || !analyticsInitialized {
		return
	}

	// Add SDK metadata to all events
	if properties == nil {
		properties = make(map[string]interface{})
	}
	properties["sdk_version"] = Version
	properties["sdk_language"] = "go"

	// Use anonymous distinct ID (we don't track users)
	distinctID := "anonymous"

	// Enqueue event (non-blocking)
	_ = analyticsClient.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      eventName,
		Properties: properties,
	})
}

// trackClientConnected tracks a successfully established connection.
func trackClientConnected() {
	trackEvent("client_connected", nil)
}

// trackError tracks error events with error type and location.
func trackError(errorType, location string) {
	trackEvent(errorType, map[string]interface{}{
		"error_type": errorType,
		"location":   location,
	})
}

// closeAnalytics closes the PostHog client (called on shutdown).
func closeAnalytics() {
	if analyticsInitialized && analyticsClient != nil {
		_ = analyticsClient.Close()
	}
}
