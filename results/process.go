package results

import (
	"fmt"

	getsafe "github.com/w-h-a/graphiti/util/get_safe"
)

// Options control the post-processing applied to a record list. Each option
// is independent; the zero value passes records through simplification only.
type Options struct {
	// FullOutput leaves records at full detail instead of simplifying them.
	// Embedding stripping is the caller's responsibility in that case.
	FullOutput bool
	// MinScore drops records whose score is present and below the threshold.
	// Records without a score are never filtered.
	MinScore *float64
	// DistinctBy deduplicates on "fact" or "uuid", keeping first occurrences.
	DistinctBy string
	// Page and PageSize slice the list 1-based. PageSize 0 returns all.
	Page     int
	PageSize int
	// Fields projects each record to the named fields that are present.
	Fields []string
	// IDsOnly collapses the list to each record's uuid, or its string form.
	IDsOnly bool
}

// Process runs the pipeline stages in fixed order: simplify → score filter →
// distinct → paginate → ids-only collapse → field projection. The input list
// and its records are never mutated. Elements of the returned list are
// Records, unless IDsOnly collapsed them to plain strings.
func Process(records []Record, opts Options) []any {
	shaped := make([]any, 0, len(records))
	for _, record := range records {
		if opts.FullOutput {
			shaped = append(shaped, record)
		} else {
			shaped = append(shaped, Simplify(record))
		}
	}

	if opts.MinScore != nil {
		shaped = filterByScore(shaped, *opts.MinScore)
	}

	if opts.DistinctBy != "" {
		shaped = distinct(shaped, opts.DistinctBy)
	}

	shaped = paginate(shaped, opts.Page, opts.PageSize)

	if opts.IDsOnly {
		shaped = collapseToIDs(shaped)
	}

	if len(opts.Fields) > 0 {
		shaped = project(shaped, opts.Fields)
	}

	return shaped
}

func filterByScore(items []any, minScore float64) []any {
	kept := make([]any, 0, len(items))
	for _, item := range items {
		record, ok := item.(Record)
		if !ok {
			kept = append(kept, item)
			continue
		}
		if score, present := getsafe.Float(record, "score"); present && score < minScore {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func distinct(items []any, key string) []any {
	seen := map[string]struct{}{}
	kept := make([]any, 0, len(items))
	for _, item := range items {
		record, ok := item.(Record)
		if !ok {
			kept = append(kept, item)
			continue
		}
		value, present := record[key]
		if !present {
			// Records missing the key are never duplicates of each other.
			kept = append(kept, item)
			continue
		}
		id := fmt.Sprint(value)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, item)
	}
	return kept
}

func paginate(items []any, page, pageSize int) []any {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []any{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func collapseToIDs(items []any) []any {
	ids := make([]any, 0, len(items))
	for _, item := range items {
		record, ok := item.(Record)
		if !ok {
			ids = append(ids, fmt.Sprint(item))
			continue
		}
		if id, present := record["uuid"]; present {
			ids = append(ids, fmt.Sprint(id))
		} else {
			ids = append(ids, fmt.Sprint(record))
		}
	}
	return ids
}

func project(items []any, fields []string) []any {
	projected := make([]any, 0, len(items))
	for _, item := range items {
		record, ok := item.(Record)
		if !ok {
			// Collapsed scalars are already final.
			projected = append(projected, item)
			continue
		}
		selected := Record{}
		for _, field := range fields {
			if value, present := record[field]; present {
				selected[field] = copyValue(value)
			}
		}
		projected = append(projected, selected)
	}
	return projected
}
