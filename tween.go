package main

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/zucenko/salvo/view"
)

const tweenStep = 0.02

type Action struct {
	nexts    []func(g *Game)
	onChange func(float32)
	onFinish []func()
}

func (a *Action) addOnFinish(f func()) {
	a.onFinish = append(a.onFinish, f)
}

// next schedules t to start once the tween owning a finishes.
func (a *Action) next(t *gween.Tween) *Action {
	action := &Action{}
	a.nexts = append(a.nexts,
		func(g *Game) {
			g.Tweens[t] = action
		})
	return action
}

// popMarker grows a fresh fire point past full size and settles it back.
func (g *Game) popMarker(key view.MarkerKey) {
	g.markerScale[key] = 0
	grow := &Action{onChange: func(v float32) { g.markerScale[key] = float64(v) }}
	settle := grow.next(gween.New(1.6, 1, 0.25, ease.OutQuad))
	settle.onChange = grow.onChange
	settle.addOnFinish(func() { delete(g.markerScale, key) })
	g.Tweens[gween.New(0, 1.6, 0.2, ease.OutBack)] = grow
}

func (g *Game) updateTweens() {
	for t, a := range g.Tweens {
		curr, finished := t.Update(tweenStep)
		if a.onChange != nil {
			a.onChange(curr)
		}
		if finished {
			for _, onFinish := range a.onFinish {
				onFinish()
			}
			for _, next := range a.nexts {
				next(g)
			}
			delete(g.Tweens, t)
		}
	}
}
