package mocap

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/humanray/humanray/body"
	"github.com/humanray/humanray/npz"
	"github.com/humanray/humanray/scene"
)

// smplhToSMPLJoints reorders an SMPL-H pose (52 joints) into the SMPL joint
// convention: the 22 shared body joints plus one joint per hand.
var smplhToSMPLJoints = [body.NumJoints]int{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21,
	25, 40,
}

// Sequence is a retargeted motion-capture pose sequence at the scene's
// output frame rate.
type Sequence struct {
	Poses  []body.Pose
	Transl []r3.Vector
}

// NumFrames returns the output frame count.
func (s *Sequence) NumFrames() int {
	return len(s.Poses)
}

// LoadSequence reads an AMASS-style archive ("poses" (N, >=123) axis-angle
// values per frame, "trans" (N, 3)), trims it to the source window, and
// reorders each frame's joints into the SMPL convention.
func LoadSequence(src Source) (*Sequence, error) {
	arrays, err := npz.ReadFile(src.Path)
	if err != nil {
		return nil, err
	}
	poses, ok := arrays["poses"]
	if !ok {
		return nil, errors.Errorf("mocap archive %q has no poses array", src.Path)
	}
	trans, ok := arrays["trans"]
	if !ok {
		return nil, errors.Errorf("mocap archive %q has no trans array", src.Path)
	}
	if len(poses.Shape) != 2 {
		return nil, errors.Errorf("poses array must be 2D, got shape %v", poses.Shape)
	}
	width := poses.Shape[1]
	minWidth := (smplhToSMPLJoints[body.NumJoints-1] + 1) * 3
	if width < minWidth {
		return nil, errors.Errorf("poses array has %d values per frame, need at least %d", width, minWidth)
	}
	nFrames := poses.Shape[0]
	if n, err := trans.Rows(3); err != nil || n != nFrames {
		return nil, errors.Errorf("trans count does not match poses (%d frames)", nFrames)
	}

	start, end, skip := src.Start, src.End, src.Skip
	if skip <= 0 {
		skip = 1
	}
	if end <= 0 || end > nFrames {
		end = nFrames
	}
	if start < 0 || start >= end {
		return nil, errors.Errorf("invalid trim window [%d:%d] for %d frames", start, end, nFrames)
	}

	seq := &Sequence{}
	for i := start; i < end; i += skip {
		row := poses.Row(i, width)
		pose := body.NewPose()
		for j, srcJoint := range smplhToSMPLJoints {
			copy(pose[j*3:j*3+3], row[srcJoint*3:srcJoint*3+3])
		}
		seq.Poses = append(seq.Poses, pose)
		tr := trans.Row(i, 3)
		seq.Transl = append(seq.Transl, r3.Vector{X: tr[0], Y: tr[1], Z: tr[2]})
	}
	if seq.NumFrames() == 0 {
		return nil, errors.Errorf("trim window [%d:%d:%d] selects no frames", start, end, skip)
	}
	return seq, nil
}

// Frames converts the sequence into per-frame body parameters with the
// subject's fitted shape.
func (s *Sequence) Frames(betas body.Shape) ([]scene.FrameParams, error) {
	if len(betas) != body.ShapeDim {
		return nil, errors.Errorf("betas must have length %d, got %d", body.ShapeDim, len(betas))
	}
	frames := make([]scene.FrameParams, s.NumFrames())
	for i, pose := range s.Poses {
		frames[i] = scene.FrameParams{
			Betas:        append(body.Shape(nil), betas...),
			BodyPose:     append([]float64(nil), pose.Body()...),
			GlobalOrient: pose.GlobalOrient(),
			Transl:       s.Transl[i],
			Scale:        1,
		}
	}
	return frames, nil
}
