package eformsign

// Page is a normalized page request. The zero value is replaced with the
// defaults page=1, limit=20.
type Page struct {
	Number int
	Limit  int
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	return p
}

// FetchLimit is the bound requested from the provider on every list call;
// page/limit slicing happens locally.
const FetchLimit = 1000

// paginateList extracts the slice under listKey from a provider response
// and applies local page/limit slicing. The result envelope is always
// {<listKey>: slice, total_count: total}, independent of the upstream shape.
func paginateList(response map[string]any, listKey string, p Page) map[string]any {
	p = p.normalize()

	var full []any
	if response != nil {
		if raw, ok := response[listKey].([]any); ok {
			full = raw
		}
	}

	total := len(full)
	skip := (p.Number - 1) * p.Limit

	paged := []any{}
	if skip < total {
		end := skip + p.Limit
		if end > total {
			end = total
		}
		paged = full[skip:end]
	}

	return map[string]any{
		listKey:       paged,
		"total_count": total,
	}
}
