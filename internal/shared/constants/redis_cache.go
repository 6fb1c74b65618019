package constants

import (
	"strconv"
	"time"
)

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_SEMI_STATIC_MEDIUM = 2 * time.Hour    // event details
	TTL_SEMI_STATIC_QUICK  = 15 * time.Minute // event listings
	TTL_DYNAMIC_MEDIUM     = 10 * time.Minute // analytics
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "eventhub"
)

// ================== EVENTS MODULE ==================

const (
	CACHE_KEY_EVENTS_LIST  = CACHE_PREFIX + ":events:list"         // + :<query hash>
	CACHE_KEY_EVENT_DETAIL = CACHE_PREFIX + ":events:detail:uuid:" // + event-id
)

const (
	TTL_EVENT_LIST   = TTL_SEMI_STATIC_QUICK
	TTL_EVENT_DETAIL = TTL_SEMI_STATIC_MEDIUM
)

// ================== ANALYTICS MODULE ==================

const (
	CACHE_KEY_ANALYTICS_DASHBOARD = CACHE_PREFIX + ":analytics:dashboard:admin"
	TTL_ANALYTICS_DASHBOARD       = TTL_DYNAMIC_MEDIUM
)

// ================== REALTIME MODULE ==================

const (
	CHANNEL_REALTIME_EVENT   = CACHE_PREFIX + ":realtime:event:" // + event-id
	CHANNEL_REALTIME_PATTERN = CHANNEL_REALTIME_EVENT + "*"
)

// ================== RATE LIMIT ==================

const (
	CACHE_KEY_RATE_LIMIT = CACHE_PREFIX + ":ratelimit:" // + type:ip
)

// ================== INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_EVENT_LIST   = CACHE_KEY_EVENTS_LIST + "*"
	PATTERN_INVALIDATE_EVENT_DETAIL = CACHE_KEY_EVENT_DETAIL // + event-id + "*"
)

// BuildEventDetailKey returns the cache key for one event
func BuildEventDetailKey(eventID string) string {
	return CACHE_KEY_EVENT_DETAIL + eventID
}

// BuildEventListKey returns the cache key for one listing page
func BuildEventListKey(fingerprint string, page, limit int) string {
	return CACHE_KEY_EVENTS_LIST + ":" + fingerprint + ":page:" + strconv.Itoa(page) + ":limit:" + strconv.Itoa(limit)
}

// BuildRealtimeChannel returns the pub/sub channel for one event topic
func BuildRealtimeChannel(eventID string) string {
	return CHANNEL_REALTIME_EVENT + eventID
}
