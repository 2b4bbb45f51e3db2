package query

// Combine attaches to each request the first response with the same URL and
// method, in request order. Repeated (URL, method) pairs all receive that
// first response.
func Combine(requests []RequestPayloadRecord, responses []ResponseBodyRecord) []CombinedRecord {
	type key struct{ url, method string }
	first := make(map[key]int, len(responses))
	for i := len(responses) - 1; i >= 0; i-- {
		first[key{responses[i].URL, responses[i].Method}] = i
	}

	combined := make([]CombinedRecord, 0, len(requests))
	for _, req := range requests {
		rec := CombinedRecord{URL: req.URL, Method: req.Method, Request: req}
		if i, ok := first[key{req.URL, req.Method}]; ok {
			resp := responses[i]
			rec.Response = &resp
		}
		combined = append(combined, rec)
	}
	return combined
}
