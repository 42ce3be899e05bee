package model

import (
	"time"
)

// EditOperation is a tagged union of the timeline mutations a client or
// server can apply. Exactly one field is set per value, mirroring the
// ClientMsg/ServerMsg pattern (internal/protocol/messages.go) rather
// than Go's usual interface-per-variant approach, because operations
// travel over the wire and round-trip through JSON.
type EditOperation struct {
	AddClip               *AddClipOp               `json:"addClip,omitempty"`
	RemoveClip            *RemoveClipOp            `json:"removeClip,omitempty"`
	MoveClip              *MoveClipOp              `json:"moveClip,omitempty"`
	TrimClip              *TrimClipOp              `json:"trimClip,omitempty"`
	AddEffect             *AddEffectOp             `json:"addEffect,omitempty"`
	RemoveEffect          *RemoveEffectOp          `json:"removeEffect,omitempty"`
	AddTransition         *AddTransitionOp         `json:"addTransition,omitempty"`
	RemoveTransition      *RemoveTransitionOp      `json:"removeTransition,omitempty"`
	SetProjectDuration    *SetProjectDurationOp    `json:"setProjectDuration,omitempty"`
	UpdateCollaboratorCursor *UpdateCollaboratorCursorOp `json:"updateCollaboratorCursor,omitempty"`
	RenameProject         *RenameProjectOp         `json:"renameProject,omitempty"`
	AddCollaborator       *AddCollaboratorOp       `json:"addCollaborator,omitempty"`
	RemoveCollaborator    *RemoveCollaboratorOp    `json:"removeCollaborator,omitempty"`
}

type AddClipOp struct {
	Clip Clip `json:"clip"`
}

type RemoveClipOp struct {
	ID string `json:"id"`
}

type MoveClipOp struct {
	ID           string        `json:"id"`
	NewStartTime time.Duration `json:"newStartTime"`
	NewTrack     int           `json:"newTrack"`
}

type TrimClipOp struct {
	ID            string        `json:"id"`
	NewStartTime  time.Duration `json:"newStartTime"`
	NewEndTime    time.Duration `json:"newEndTime"`
}

type AddEffectOp struct {
	ClipID string `json:"clipId"`
	Effect Effect `json:"effect"`
}

type RemoveEffectOp struct {
	ClipID   string `json:"clipId"`
	EffectID string `json:"effectId"`
}

type AddTransitionOp struct {
	ClipID     string     `json:"clipId"`
	Transition Transition `json:"transition"`
}

type RemoveTransitionOp struct {
	ClipID string `json:"clipId"`
}

type SetProjectDurationOp struct {
	Duration time.Duration `json:"duration"`
}

type UpdateCollaboratorCursorOp struct {
	CollaboratorID string         `json:"collaboratorId"`
	NewPosition    CursorPosition `json:"newPosition"`
}

type RenameProjectOp struct {
	Name string `json:"name"`
}

type AddCollaboratorOp struct {
	Collaborator Collaborator `json:"collaborator"`
}

type RemoveCollaboratorOp struct {
	ID string `json:"id"`
}

// Apply runs op against p. It is total — it never fails — and is
// idempotent for the Add variants so that a client's optimistic apply
// and its own later echo do not diverge.
func (p *Project) Apply(op EditOperation) {
	switch {
	case op.AddClip != nil:
		if p.clipIndex(op.AddClip.Clip.ID) == -1 {
			p.Clips = append(p.Clips, op.AddClip.Clip)
		}
	case op.RemoveClip != nil:
		if i := p.clipIndex(op.RemoveClip.ID); i != -1 {
			p.Clips = append(p.Clips[:i], p.Clips[i+1:]...)
		}
	case op.MoveClip != nil:
		if i := p.clipIndex(op.MoveClip.ID); i != -1 {
			c := &p.Clips[i]
			dur := c.Duration()
			c.StartTime = op.MoveClip.NewStartTime
			c.EndTime = op.MoveClip.NewStartTime + dur
			c.Track = op.MoveClip.NewTrack
		}
	case op.TrimClip != nil:
		if i := p.clipIndex(op.TrimClip.ID); i != -1 {
			c := &p.Clips[i]
			c.StartTime = op.TrimClip.NewStartTime
			c.EndTime = op.TrimClip.NewEndTime
		}
	case op.AddEffect != nil:
		if i := p.clipIndex(op.AddEffect.ClipID); i != -1 {
			c := &p.Clips[i]
			filtered := c.Effects[:0:0]
			for _, e := range c.Effects {
				if e.Type != op.AddEffect.Effect.Type {
					filtered = append(filtered, e)
				}
			}
			c.Effects = append(filtered, op.AddEffect.Effect)
		}
	case op.RemoveEffect != nil:
		if i := p.clipIndex(op.RemoveEffect.ClipID); i != -1 {
			c := &p.Clips[i]
			for j, e := range c.Effects {
				if e.ID == op.RemoveEffect.EffectID {
					c.Effects = append(c.Effects[:j], c.Effects[j+1:]...)
					break
				}
			}
		}
	case op.AddTransition != nil:
		if i := p.clipIndex(op.AddTransition.ClipID); i != -1 {
			t := op.AddTransition.Transition
			p.Clips[i].Transition = &t
		}
	case op.RemoveTransition != nil:
		if i := p.clipIndex(op.RemoveTransition.ClipID); i != -1 {
			p.Clips[i].Transition = nil
		}
	case op.SetProjectDuration != nil:
		p.Duration = op.SetProjectDuration.Duration
	case op.UpdateCollaboratorCursor != nil:
		if i := p.collaboratorIndex(op.UpdateCollaboratorCursor.CollaboratorID); i != -1 {
			p.Collaborators[i].CursorPosition = op.UpdateCollaboratorCursor.NewPosition
		}
	case op.RenameProject != nil:
		p.Name = op.RenameProject.Name
	case op.AddCollaborator != nil:
		if p.collaboratorIndex(op.AddCollaborator.Collaborator.ID) == -1 {
			p.Collaborators = append(p.Collaborators, op.AddCollaborator.Collaborator)
		}
	case op.RemoveCollaborator != nil:
		if i := p.collaboratorIndex(op.RemoveCollaborator.ID); i != -1 {
			p.Collaborators = append(p.Collaborators[:i], p.Collaborators[i+1:]...)
		}
	}
}

// ClipByID returns a pointer to the clip with the given id, or nil,
// so callers can read a clip's endpoints without reaching into Project
// internals.
func (p *Project) ClipByID(id string) *Clip {
	if i := p.clipIndex(id); i != -1 {
		return &p.Clips[i]
	}
	return nil
}

// Kind reports which variant is set, for logging and metrics. Returns
// "" for a zero-value EditOperation, which should never occur on a
// well-formed wire message.
func (op EditOperation) Kind() string {
	switch {
	case op.AddClip != nil:
		return "addClip"
	case op.RemoveClip != nil:
		return "removeClip"
	case op.MoveClip != nil:
		return "moveClip"
	case op.TrimClip != nil:
		return "trimClip"
	case op.AddEffect != nil:
		return "addEffect"
	case op.RemoveEffect != nil:
		return "removeEffect"
	case op.AddTransition != nil:
		return "addTransition"
	case op.RemoveTransition != nil:
		return "removeTransition"
	case op.SetProjectDuration != nil:
		return "setProjectDuration"
	case op.UpdateCollaboratorCursor != nil:
		return "updateCollaboratorCursor"
	case op.RenameProject != nil:
		return "renameProject"
	case op.AddCollaborator != nil:
		return "addCollaborator"
	case op.RemoveCollaborator != nil:
		return "removeCollaborator"
	default:
		return ""
	}
}

