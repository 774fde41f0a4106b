package engine

import (
	"sort"

	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/util"
)

// BuildOrder cuts every voice's timeline [0, total) into segments and
// returns them ordered by start, then voice.
func BuildOrder(voices []int, segmentLength, total int) []*model.OrderItem {
	var items []*model.OrderItem
	for _, voice := range voices {
		var prev *model.OrderItem
		for start := 0; start < total; start += segmentLength {
			item := &model.OrderItem{
				Voice: voice,
				Start: start,
				End:   util.Min(start+segmentLength, total),
				Prev:  prev,
			}
			items = append(items, item)
			prev = item
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Start != items[j].Start {
			return items[i].Start < items[j].Start
		}
		return items[i].Voice < items[j].Voice
	})
	for i, item := range items {
		item.Index = i
	}
	return items
}
