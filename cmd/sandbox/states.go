package main

import (
	"github.com/footlight/footlight"
	"github.com/footlight/footlight/internal/core/observability/log"
)

// menuState is the title screen. It implements every hook explicitly to
// show the full state surface; playState embeds NoopState for the lighter
// style.
type menuState struct{}

func (menuState) Name() string { return "menu" }

func (menuState) Enter(ctx *footlight.StateContext) error {
	ctx.Log.Info("menu entered")
	return ctx.Audio.SetGain("music", 0.8)
}

func (menuState) Exit(ctx *footlight.StateContext) error {
	ctx.Log.Info("menu left")
	return nil
}

func (menuState) Pause(ctx *footlight.StateContext) error  { return nil }
func (menuState) Resume(ctx *footlight.StateContext) error { return nil }

func (menuState) Update(ctx *footlight.StateContext, dt float64) error {
	ctx.Render.PushScene(footlight.ClearCommand{})
	ctx.Render.PushUI(footlight.TextCommand{
		Base:    footlight.CommandBase{ID: "title", Z: footlight.ZUI},
		X:       160,
		Y:       60,
		Content: "FOOTLIGHT",
		Font:    "24px serif",
		Align:   "center",
		Color:   "#f0e6d2",
	})
	ctx.Render.PushUI(footlight.RectCommand{
		Base:        footlight.CommandBase{ID: "start-button", Z: footlight.ZUI},
		X:           110,
		Y:           110,
		Width:       100,
		Height:      28,
		Fill:        "#2d2a4a",
		Stroke:      "#f0e6d2",
		StrokeWidth: 1,
	})
	ctx.Render.PushUI(footlight.HotspotCommand{
		Base:   footlight.CommandBase{ID: "start-hot", Z: footlight.ZUI + 1},
		X:      110,
		Y:      110,
		Width:  100,
		Height: 28,
		Cursor: "pointer",
		Data:   map[string]any{"action": "start"},
	})
	return nil
}

func (menuState) HandleEvent(ctx *footlight.StateContext, event footlight.Event) bool {
	if event.Type() != "input.key" {
		return false
	}
	if key, ok := event.Data().(string); ok && key == "Enter" {
		_ = ctx.Bus.Emit("menu.start", nil)
		return true
	}
	return false
}

// playState walks the hero across the current scene.
type playState struct {
	footlight.NoopState
	elapsed float64
}

func newPlayState() *playState {
	return &playState{NoopState: footlight.NoopState{StateName: "play"}}
}

func (p *playState) Enter(ctx *footlight.StateContext) error {
	p.elapsed = 0
	if sc := ctx.Scenes.Current(); sc != nil {
		ctx.Log.Info("play entered", log.String("scene", sc.ID))
	}
	return nil
}

func (p *playState) Update(ctx *footlight.StateContext, dt float64) error {
	p.elapsed += dt
	ctx.SetVar("elapsed", p.elapsed)

	sc := ctx.Scenes.Current()
	if sc == nil {
		return nil
	}

	ctx.Render.PushScene(footlight.ClearCommand{})
	ctx.Render.PushScene(footlight.SpriteCommand{
		Base:    footlight.CommandBase{ID: "backdrop", Z: footlight.ZBackground},
		X:       0,
		Y:       0,
		Width:   320,
		Height:  200,
		Image:   "courtyard.png",
		Opacity: 1,
	})
	x, _ := sc.Props["hero_x"].(int)
	y, _ := sc.Props["hero_y"].(int)
	ctx.Render.PushScene(footlight.SpriteCommand{
		Base:    footlight.CommandBase{ID: "hero", Z: footlight.ZActor},
		X:       float64(x) + p.elapsed*8,
		Y:       float64(y),
		Width:   32,
		Height:  48,
		Image:   "hero.png",
		Opacity: 1,
	})
	if greeting, ok := sc.Props["greeting"].(string); ok {
		ctx.Render.PushUI(footlight.TextCommand{
			Base:    footlight.CommandBase{ID: "greeting", Z: footlight.ZUI},
			X:       160,
			Y:       190,
			Content: greeting,
			Font:    "12px monospace",
			Align:   "center",
			Color:   "#ffffff",
		})
	}
	return nil
}

func (p *playState) HandleEvent(ctx *footlight.StateContext, event footlight.Event) bool {
	if event.Type() != "input.key" {
		return false
	}
	if key, ok := event.Data().(string); ok && key == "Escape" {
		_ = ctx.Bus.Emit("play.quit", nil)
		return true
	}
	return false
}
