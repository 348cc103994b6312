// Package view keeps the renderer's copy of the table state.
package view

import (
	"fmt"
	"sync"

	"github.com/zucenko/salvo/model"
)

type MarkerKey struct {
	Player model.PlayerId
	Index  int
}

// View holds what the host last told us. The socket goroutine writes it,
// the ebiten loop reads it.
type View struct {
	mu       sync.Mutex
	snapshot *model.Snapshot
	notice   string
	fresh    []MarkerKey
	err      error
}

func (v *View) Apply(mes model.ServerMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range mes.Refresh {
		s := s
		if v.snapshot != nil {
			v.fresh = append(v.fresh, FreshMarkers(v.snapshot.Player1, s.Player1)...)
			v.fresh = append(v.fresh, FreshMarkers(v.snapshot.Player2, s.Player2)...)
		}
		v.snapshot = &s
	}
	for _, n := range mes.Notices {
		v.notice = NoticeText(n)
	}
}

func (v *View) Fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = err
}

func (v *View) Latest() (s model.Snapshot, notice string, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.snapshot == nil {
		return s, v.notice, false
	}
	return *v.snapshot, v.notice, true
}

func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

func (v *View) TakeFresh() []MarkerKey {
	v.mu.Lock()
	defer v.mu.Unlock()
	fresh := v.fresh
	v.fresh = nil
	return fresh
}

// FreshMarkers lists fire points present in next but not in prev. A shorter
// list means a new round started and nothing is fresh.
func FreshMarkers(prev, next model.PlayerSnapshot) []MarkerKey {
	if len(next.FirePoints) <= len(prev.FirePoints) {
		return nil
	}
	keys := make([]MarkerKey, 0, len(next.FirePoints)-len(prev.FirePoints))
	for i := len(prev.FirePoints); i < len(next.FirePoints); i++ {
		keys = append(keys, MarkerKey{Player: next.Id, Index: i})
	}
	return keys
}

func NoticeText(n model.Notice) string {
	switch n.Outcome {
	case model.FireHit:
		return fmt.Sprintf("P%d hit at %.1f, %.1f - fire again", n.Player, n.X, n.Y)
	case model.FireMiss:
		return fmt.Sprintf("P%d missed at %.1f, %.1f", n.Player, n.X, n.Y)
	case model.FireWon:
		return fmt.Sprintf("P%d sank the last unit", n.Player)
	default:
		return ""
	}
}
