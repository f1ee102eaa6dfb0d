package goout

// CollectEventURLs turns raw API events into public event URLs.
// Events without a usable slug are skipped and duplicates (after tagging) are dropped,
// keeping first-seen order.
func CollectEventURLs(events []map[string]any, eventBaseURL, referral string) []string {
	urls := make([]string, 0, len(events))
	seen := make(map[string]bool, len(events))

	for _, evt := range events {
		slug, ok := ExtractSlug(evt)
		if !ok {
			continue
		}
		eventURL := AppendAffiliate(eventBaseURL+slug, referral)
		if seen[eventURL] {
			continue
		}
		seen[eventURL] = true
		urls = append(urls, eventURL)
	}
	return urls
}

// HasEventList reports whether payload carries a non-empty "events" array,
// whatever its items are
func HasEventList(payload map[string]any) bool {
	raw, ok := payload["events"].([]any)
	return ok && len(raw) > 0
}

// EventsFromPayload pulls the event objects out of a decoded API response.
// Anything that is not {"events": [ {...}, ... ]} yields no events.
func EventsFromPayload(payload map[string]any) []map[string]any {
	raw, ok := payload["events"].([]any)
	if !ok {
		return nil
	}

	events := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			events = append(events, m)
		}
	}
	return events
}
