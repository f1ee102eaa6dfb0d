package record

// EventRecord is a fetched event URL tagged with the carousel it belongs to
type EventRecord struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Build returns one EventRecord per URL, all carrying the given title
func Build(title string, urls []string) []EventRecord {
	records := make([]EventRecord, 0, len(urls))
	for _, u := range urls {
		records = append(records, EventRecord{Title: title, URL: u})
	}
	return records
}

// Merge flattens several record collections into one, preserving order
func Merge(collections ...[]EventRecord) []EventRecord {
	total := 0
	for _, c := range collections {
		total += len(c)
	}

	merged := make([]EventRecord, 0, total)
	for _, c := range collections {
		merged = append(merged, c...)
	}
	return merged
}

// URLs returns the URL of every record in order
func URLs(records []EventRecord) []string {
	urls := make([]string, 0, len(records))
	for _, r := range records {
		urls = append(urls, r.URL)
	}
	return urls
}
