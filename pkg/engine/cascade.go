package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-dungeon/pkg/detection"
	"github.com/teslashibe/go-dungeon/pkg/dungeon"
	"github.com/teslashibe/go-dungeon/pkg/geometry"
	"github.com/teslashibe/go-dungeon/pkg/hero"
)

// cascade evaluates the branches in priority order; the first match wins.
func (e *Engine) cascade(f Frame) Action {
	dets := f.Detections
	if dir, ok := e.graph.Exit(e.state.Room); ok {
		e.state.Direction = dir
	}
	doors := dets.Boxes(dungeon.DoorLabel(e.state.Direction))

	if a, done := e.transition(f); done {
		return a
	}

	if dets.Count(detection.Card) >= e.cfg.CardThreshold {
		return e.reward(f)
	}

	e.track.Update(dets.Boxes(detection.Hero))
	pos := e.track.Current()

	if monsters := dets.Boxes(detection.Monster); len(monsters) > 0 {
		target := monsters[geometry.Nearest(monsters, pos)]
		angle := geometry.BearingAngle(pos, target)
		e.hero.KillMonsters(hero.Heading(angle), e.state.Room, pos, target.GroundCenter())
		return ActionFight
	}

	if items := dets.Boxes(detection.Item); len(items) > 0 {
		var target geometry.Box
		if len(doors) > 0 {
			door := doors[geometry.Nearest(doors, pos)]
			target = items[geometry.Farthest(items, door.GroundCenter())]
		} else {
			target = items[geometry.Nearest(items, pos)]
		}
		e.hero.MoveTo(hero.Heading(geometry.BearingAngle(pos, target)), 0)
		return ActionLoot
	}

	if r, ok := dets.First(detection.Repair); ok && r.Confidence > e.cfg.RepairConfidence {
		return e.repair(f, r)
	}

	preBoss := e.graph.PreBossRoom
	guides := dets.Boxes(detection.Guide)

	if preBoss >= 0 && dets.FirstAbove(detection.Guide, e.cfg.GuideConfidence) && e.state.Room < preBoss {
		e.logger.Info("guide marker seen, jumping to pre-boss room", "from", e.state.Room, "to", preBoss)
		e.state.Room = preBoss
		e.state.SpecialRoom = true
		return ActionGuideJump
	}

	inPreBoss := e.graph.IsPreBoss(e.state.Room)

	if len(guides) > 0 && inPreBoss && len(doors) == 0 {
		target := guides[geometry.SecondNearest(guides, pos)]
		e.hero.MoveTo(hero.Heading(geometry.BearingAngle(pos, target)), e.cfg.Timing.GuideHold)
		return ActionGuideFollow
	}

	if len(doors) > 0 {
		if len(guides) > 0 && inPreBoss {
			return ActionNone
		}
		door := doors[geometry.Nearest(doors, pos)]
		var angle float64
		if e.state.Direction == dungeon.Left {
			angle = geometry.GateAngle(pos, door, e.cfg.GateDepth)
		} else {
			angle = geometry.BearingAngle(pos, door)
		}
		e.hero.MoveTo(hero.Heading(angle), 0)
		return ActionDoor
	}

	if arrows := dets.Boxes(detection.Arrow); len(arrows) > 0 && (!inPreBoss || e.state.Stagnation > e.cfg.ArrowOverride) {
		target := arrows[geometry.SecondNearest(arrows, pos)]
		e.hero.MoveTo(hero.Heading(geometry.BearingAngle(pos, target)), 0)
		return ActionArrow
	}

	if dets.Has(detection.Return) && dets.FirstAbove(detection.ZeroPoints, e.cfg.ZeroPointsConfidence) {
		return e.complete(f)
	}

	if e.state.RetryPending {
		if dets.Has(detection.Item) || !dets.Has(detection.Retry) {
			return ActionRetryWait
		}
		return e.retry(f)
	}

	return e.stagnate(pos)
}

// transition handles the loading-screen lock. done is false when the cascade
// should continue with the remaining branches.
func (e *Engine) transition(f Frame) (Action, bool) {
	if f.DarkRatio > e.cfg.BlackRatio {
		if e.state.TransitionLock {
			return ActionTransition, true
		}
		e.state.Stagnation = 0
		anchor := e.track.ResetOnTransition(e.track.Current())
		e.hero.Reset()
		e.state.TransitionLock = true
		e.logger.Info("room transition", "room", e.state.Room, "anchor", anchor)
	}

	if !e.state.TransitionLock {
		return ActionNone, false
	}

	heroes := f.Detections.Boxes(detection.Hero)
	if len(heroes) == 0 {
		return ActionTransition, true
	}

	e.track.Update(heroes)
	e.state.Room++
	e.state.TransitionLock = false
	if e.graph.IsPreBoss(e.state.Room) {
		e.state.SpecialRoom = true
	}
	e.logger.Info("entered room", "room", e.state.Room)
	return ActionRoomEntered, true
}

func (e *Engine) reward(f Frame) Action {
	e.logger.Info("reward overlay", "cards", f.Detections.Count(detection.Card))
	e.hero.Reset()
	e.sleep(e.cfg.Timing.Settle)
	e.tap(f, e.cfg.RewardPoint, e.cfg.Timing.TapHold)
	e.state.RetryPending = true
	e.sleep(e.cfg.Timing.RewardWait)
	return ActionReward
}

func (e *Engine) repair(f Frame, r detection.Detection) Action {
	e.logger.Info("repairing equipment", "confidence", r.Confidence)
	e.hero.Reset()
	e.tap(f, r.Box.Center(), e.cfg.Timing.PromptHold)
	e.sleep(e.cfg.Timing.RepairWait)
	e.tap(f, e.cfg.RepairConfirmPoint, e.cfg.Timing.ConfirmHold)
	e.sleep(e.cfg.Timing.RepairWait)
	e.tap(f, e.cfg.NeutralPoint, e.cfg.Timing.TapHold)
	return ActionRepair
}

func (e *Engine) complete(f Frame) Action {
	e.logger.Info("no points left, returning to town", "room", e.state.Room)
	e.stopped.Store(true)
	e.running.Store(false)
	e.completed.Store(true)
	if prompt, ok := f.Detections.Best(detection.Return); ok {
		e.tap(f, prompt.Box.Center(), e.cfg.Timing.PromptHold)
	}
	e.sleep(e.cfg.Timing.ReturnWait)
	if e.onComplete != nil {
		e.onComplete()
	}
	return ActionComplete
}

func (e *Engine) retry(f Frame) Action {
	e.logger.Info("retrying dungeon", "room", e.state.Room)
	e.hero.Reset()
	e.sleep(e.cfg.Timing.Settle)
	if prompt, ok := f.Detections.Best(detection.Retry); ok {
		e.tap(f, prompt.Box.Center(), e.cfg.Timing.PromptHold)
	}
	e.sleep(e.cfg.Timing.RetryConfirm)
	e.tap(f, e.cfg.RetryConfirmPoint, e.cfg.Timing.PromptHold)
	e.sleep(e.cfg.Timing.RetryStart)

	e.hero.ClearRotations()
	e.state.Direction = e.graph.InitialDirection
	e.state.RetryPending = false
	e.state.SpecialRoom = false
	e.state.Room = 0
	e.state.RunID = uuid.NewString()
	e.track.Reset(e.cfg.Tracking.Origin)
	return ActionRetry
}

func (e *Engine) stagnate(pos geometry.Point) Action {
	e.state.Stagnation++
	if e.state.Stagnation%e.cfg.StagnationPeriod != 0 {
		return ActionStagnation
	}

	target := e.graph.RecoveryPoint
	if e.graph.IsPreBoss(e.state.Room) {
		target = e.graph.PreBossRecoveryPoint
	}
	e.logger.Debug("stagnating, recovery move", "count", e.state.Stagnation, "target", target)
	e.hero.Reset()
	e.hero.MoveTo(hero.Heading(geometry.AngleTo(pos, target)), e.cfg.Timing.RecoveryHold)
	return ActionRecover
}

func (e *Engine) tap(f Frame, p geometry.Point, hold time.Duration) {
	x, y := f.Pixels(p)
	e.hero.Tap(x, y, hold)
}
