package availability

import "staybook/pkg/model"

type Reconciliation struct {
	Selections  []model.RoomSelection
	Blocked     bool
	Synthesized bool
	Message     string
}

// Reconcile drops selections whose room type is no longer available. An empty
// result falls back to one room of the first available type; no availability
// at all blocks the draft.
func Reconcile(selections []model.RoomSelection, available []model.RoomType) Reconciliation {
	if len(available) == 0 {
		return Reconciliation{Selections: []model.RoomSelection{}, Blocked: true, Message: MsgNoneAvailable}
	}

	open := make(map[string]struct{}, len(available))
	for _, room := range available {
		open[room.Type] = struct{}{}
	}

	kept := make([]model.RoomSelection, 0, len(selections))
	for _, sel := range selections {
		if _, ok := open[sel.RoomType]; ok {
			kept = append(kept, sel)
		}
	}

	if len(kept) == 0 {
		return Reconciliation{
			Selections:  []model.RoomSelection{{RoomType: available[0].Type, NumRooms: 1}},
			Synthesized: true,
		}
	}
	return Reconciliation{Selections: kept}
}
