package results

// Aggregate returns the panels to plot: a synthetic dataset named label
// holding each tool's values concatenated across datasets in order,
// followed by the datasets themselves.
func Aggregate(datasets []Dataset, label string) []Dataset {
	if label == "" {
		label = DefaultAggregateLabel
	}

	all := Dataset{Name: label}
	index := make(map[string]int)

	for _, ds := range datasets {
		for _, s := range ds.Series {
			i, ok := index[s.Tool]
			if !ok {
				i = len(all.Series)
				index[s.Tool] = i
				all.Series = append(all.Series, Series{Tool: s.Tool})
			}

			all.Series[i].Values = append(all.Series[i].Values, s.Values...)
		}
	}

	panels := make([]Dataset, 0, len(datasets)+1)
	panels = append(panels, all)

	return append(panels, datasets...)
}
