package scene

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/humanray/humanray/body"
	"github.com/humanray/humanray/npz"
)

// FrameParams are the fitted body-model parameters of one frame.
type FrameParams struct {
	Betas        body.Shape
	BodyPose     []float64 // 69 axis-angle values
	GlobalOrient r3.Vector
	Transl       r3.Vector
	Scale        float64
}

// FullPose assembles the 72-length pose vector (global orientation followed
// by the body pose).
func (p FrameParams) FullPose() body.Pose {
	pose := body.NewPose()
	pose[0] = p.GlobalOrient.X
	pose[1] = p.GlobalOrient.Y
	pose[2] = p.GlobalOrient.Z
	copy(pose[3:], p.BodyPose)
	return pose
}

// PoseStore supplies per-frame body parameters.
type PoseStore struct {
	frames    []FrameParams
	meanBetas body.Shape
}

// NewPoseStore wraps an in-memory frame sequence.
func NewPoseStore(frames []FrameParams) (*PoseStore, error) {
	if len(frames) == 0 {
		return nil, errors.New("pose store needs at least one frame")
	}
	return &PoseStore{frames: frames, meanBetas: meanBetas(frames)}, nil
}

// NewPoseStoreFromNPZ loads fitted body parameters from an .npz archive with
// betas/body_pose/global_orient/transl and optional scale arrays. Archives
// that pack orientation and body pose into a single "thetas" array are also
// accepted.
func NewPoseStoreFromNPZ(path string) (*PoseStore, error) {
	arrays, err := npz.ReadFile(path)
	if err != nil {
		return nil, err
	}

	bodyPose, orient := arrays["body_pose"], arrays["global_orient"]
	if thetas, ok := arrays["thetas"]; ok {
		n, err := thetas.Rows(body.PoseDim)
		if err != nil {
			return nil, errors.Wrap(err, "malformed thetas array")
		}
		bodyPose = npz.Array{Shape: []int{n, body.BodyPoseDim}, Data: make([]float64, 0, n*body.BodyPoseDim)}
		orient = npz.Array{Shape: []int{n, 3}, Data: make([]float64, 0, n*3)}
		for i := 0; i < n; i++ {
			row := thetas.Row(i, body.PoseDim)
			orient.Data = append(orient.Data, row[:3]...)
			bodyPose.Data = append(bodyPose.Data, row[3:]...)
		}
	}

	nFrames, err := bodyPose.Rows(body.BodyPoseDim)
	if err != nil {
		return nil, errors.Wrap(err, "malformed body_pose array")
	}
	if n, err := orient.Rows(3); err != nil || n != nFrames {
		return nil, errors.Errorf("global_orient count does not match body_pose (%d frames)", nFrames)
	}
	transl := arrays["transl"]
	if n, err := transl.Rows(3); err != nil || n != nFrames {
		return nil, errors.Errorf("transl count does not match body_pose (%d frames)", nFrames)
	}

	betas := arrays["betas"]
	if len(betas.Data) < body.ShapeDim {
		return nil, errors.Errorf("betas must have at least %d values, got %d", body.ShapeDim, len(betas.Data))
	}
	sharedBetas := len(betas.Data) == body.ShapeDim

	scale, hasScale := arrays["scale"]
	if hasScale && len(scale.Data) != nFrames {
		return nil, errors.Errorf("scale count %d does not match %d frames", len(scale.Data), nFrames)
	}

	frames := make([]FrameParams, nFrames)
	for i := 0; i < nFrames; i++ {
		p := FrameParams{
			BodyPose: append([]float64(nil), bodyPose.Row(i, body.BodyPoseDim)...),
			Scale:    1,
		}
		o := orient.Row(i, 3)
		p.GlobalOrient = r3.Vector{X: o[0], Y: o[1], Z: o[2]}
		tr := transl.Row(i, 3)
		p.Transl = r3.Vector{X: tr[0], Y: tr[1], Z: tr[2]}
		if sharedBetas {
			p.Betas = append(body.Shape(nil), betas.Data[:body.ShapeDim]...)
		} else {
			p.Betas = append(body.Shape(nil), betas.Row(i, body.ShapeDim)[:body.ShapeDim]...)
		}
		if hasScale {
			p.Scale = scale.Data[i]
		}
		frames[i] = p
	}
	return NewPoseStore(frames)
}

// NumFrames returns the frame count.
func (s *PoseStore) NumFrames() int {
	return len(s.frames)
}

// Frame returns the parameters of one frame.
func (s *PoseStore) Frame(idx int) (FrameParams, error) {
	if idx < 0 || idx >= len(s.frames) {
		return FrameParams{}, errors.Errorf("frame index %d out of range [0, %d)", idx, len(s.frames))
	}
	return s.frames[idx], nil
}

// MeanBetas returns the per-component mean shape across all frames, the
// shape the canonical subject is built from.
func (s *PoseStore) MeanBetas() body.Shape {
	return append(body.Shape(nil), s.meanBetas...)
}

func meanBetas(frames []FrameParams) body.Shape {
	mean := make(body.Shape, body.ShapeDim)
	count := 0
	for _, f := range frames {
		if len(f.Betas) != body.ShapeDim {
			continue
		}
		for i, v := range f.Betas {
			mean[i] += v
		}
		count++
	}
	if count > 0 {
		for i := range mean {
			mean[i] /= float64(count)
		}
	}
	return mean
}
